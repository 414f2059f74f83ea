// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"github.com/fieldops/custody-server/pkg/analytics"
	"github.com/fieldops/custody-server/pkg/stor"
)

// GetStatusDistribution reports how many assets currently sit in each status.
func (a *APICtrl) GetStatusDistribution(w http.ResponseWriter, r *http.Request) {

	events := a.windowEvents(w, r)
	if events == nil {
		return
	}
	render.JSON(w, r, analytics.StatusDistribution(*events))
}

// GetDwellTime reports the average time assets spend in each status.
func (a *APICtrl) GetDwellTime(w http.ResponseWriter, r *http.Request) {

	events := a.windowEvents(w, r)
	if events == nil {
		return
	}
	render.JSON(w, r, analytics.DwellTime(*events, time.Now()))
}

// GetLifecycleDuration reports completed SD card cycle durations.
func (a *APICtrl) GetLifecycleDuration(w http.ResponseWriter, r *http.Request) {

	op := getOperator(r)
	from, to, ok := getWindowParams(w, r)
	if !ok {
		return
	}
	events, err := a.Store.Event().ListWindow(op.OrganizationID, stor.KIND_SDCARD, from, to)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	render.JSON(w, r, analytics.LifecycleDuration(*events))
}

// GetProcessTime reports mean job box assignment and completion times.
func (a *APICtrl) GetProcessTime(w http.ResponseWriter, r *http.Request) {

	op := getOperator(r)
	from, to, ok := getWindowParams(w, r)
	if !ok {
		return
	}
	events, err := a.Store.Event().ListWindow(op.OrganizationID, stor.KIND_JOBBOX, from, to)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	render.JSON(w, r, analytics.JobBoxProcessTime(*events))
}

// GetLeftJobAlerts reports job boxes left at a site past the alert threshold.
// With ?owner=me the list is restricted to boxes last recorded by the caller;
// ?threshold_hours= overrides the configured production threshold, which is
// meant for diagnostic use.
func (a *APICtrl) GetLeftJobAlerts(w http.ResponseWriter, r *http.Request) {

	op := getOperator(r)

	ownerID := ""
	if r.URL.Query().Get("owner") == "me" {
		ownerID = op.UserID
	}

	threshold := a.Config.LeftJobThreshold()
	if param := r.URL.Query().Get("threshold_hours"); param != "" {
		hours, err := strconv.ParseFloat(param, 64)
		if err != nil || hours <= 0 {
			render.Render(w, r, ErrInvalidRequest(errors.New("invalid threshold_hours parameter")))
			return
		}
		threshold = time.Duration(hours * float64(time.Hour))
	}

	events, err := a.Store.Event().ListByKind(op.OrganizationID, stor.KIND_JOBBOX)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	render.JSON(w, r, analytics.LeftJobAlerts(*events, ownerID, threshold, time.Now()))
}

// GetPhotographerActivity ranks recorders by distinct assets touched.
func (a *APICtrl) GetPhotographerActivity(w http.ResponseWriter, r *http.Request) {

	events := a.windowEvents(w, r)
	if events == nil {
		return
	}

	top := a.Config.Analytics.TopPhotographers
	if param := r.URL.Query().Get("top"); param != "" {
		n, err := strconv.Atoi(param)
		if err != nil || n <= 0 {
			render.Render(w, r, ErrInvalidRequest(errors.New("invalid top parameter")))
			return
		}
		top = n
	}
	render.JSON(w, r, analytics.PhotographerActivity(*events, top))
}

// GetDashboard provides key metrics about the organization.
func (a *APICtrl) GetDashboard(w http.ResponseWriter, r *http.Request) {

	op := getOperator(r)
	data, err := a.Store.Dashboard().GetDashboard(op.OrganizationID)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	render.JSON(w, r, data)
}

// --
// local functions
// --

// windowEvents fetches the caller's events for the kind and time window
// given in the request; a nil return means a response was already rendered.
func (a *APICtrl) windowEvents(w http.ResponseWriter, r *http.Request) *[]stor.AssetEvent {

	kind := getKindParam(w, r)
	if kind == "" {
		return nil
	}
	op := getOperator(r)
	from, to, ok := getWindowParams(w, r)
	if !ok {
		return nil
	}

	events, err := a.Store.Event().ListWindow(op.OrganizationID, kind, from, to)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return nil
	}
	return events
}

// getWindowParams reads the from/to query parameters; the default window
// is the last 90 days.
func getWindowParams(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {

	now := time.Now()
	from = now.AddDate(0, 0, -90)
	to = now.Add(time.Minute)

	var err error
	if param := r.URL.Query().Get("from"); param != "" {
		from, err = time.Parse(time.RFC3339, param)
		if err != nil {
			render.Render(w, r, ErrInvalidRequest(errors.New("invalid from date parameter")))
			return from, to, false
		}
	}
	if param := r.URL.Query().Get("to"); param != "" {
		to, err = time.Parse(time.RFC3339, param)
		if err != nil {
			render.Render(w, r, ErrInvalidRequest(errors.New("invalid to date parameter")))
			return from, to, false
		}
	}
	return from, to, true
}
