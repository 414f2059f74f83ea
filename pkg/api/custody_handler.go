// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jtacoma/uritemplates"

	"github.com/fieldops/custody-server/pkg/custody"
	"github.com/fieldops/custody-server/pkg/stor"
)

// RecordScan appends an operator-confirmed custody event to the log.
func (a *APICtrl) RecordScan(w http.ResponseWriter, r *http.Request) {

	// get the payload
	data := &ScanPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	op := getOperator(r)
	scan := &custody.ScanRequest{
		OrganizationID: op.OrganizationID,
		AssetKind:      data.AssetKind,
		AssetNumber:    data.AssetNumber,
		Status:         data.Status,
		LocationID:     data.LocationID,
		LocationName:   data.LocationName,
		RecordedByID:   op.UserID,
		RecordedByName: op.UserName,
		SessionID:      data.SessionID,
		UploadSource:   data.UploadSource,
	}

	tracker := custody.NewTracker(a.Config, a.Store)
	event, err := tracker.RecordScan(scan)
	if err != nil {
		if errors.Is(err, custody.ErrUnknownStatus) {
			render.Render(w, r, ErrInvalidRequest(err))
		} else {
			render.Render(w, r, ErrServer(err))
		}
		return
	}

	render.Status(r, http.StatusCreated)
	if err := render.Render(w, r, a.newEventResponse(event)); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// GetCurrentState returns the resolved current event of an asset.
func (a *APICtrl) GetCurrentState(w http.ResponseWriter, r *http.Request) {

	kind, number := getAssetParams(w, r)
	if kind == "" {
		return
	}

	op := getOperator(r)
	tracker := custody.NewTracker(a.Config, a.Store)
	event, err := tracker.Current(op.OrganizationID, kind, number)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	if event == nil {
		// no prior event: the asset is new, not missing data
		render.Render(w, r, ErrNotFound)
		return
	}
	if err := render.Render(w, r, a.newEventResponse(event)); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// SuggestNextState proposes the next status, location and session for an asset.
func (a *APICtrl) SuggestNextState(w http.ResponseWriter, r *http.Request) {

	kind, number := getAssetParams(w, r)
	if kind == "" {
		return
	}

	op := getOperator(r)
	tracker := custody.NewTracker(a.Config, a.Store)
	suggestion, err := tracker.SuggestNext(op.OrganizationID, kind, number)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	if err := render.Render(w, r, &SuggestionResponse{Suggestion: suggestion}); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// GetAssetHistory returns the full custody trail of an asset, oldest first.
func (a *APICtrl) GetAssetHistory(w http.ResponseWriter, r *http.Request) {

	kind, number := getAssetParams(w, r)
	if kind == "" {
		return
	}

	op := getOperator(r)
	tracker := custody.NewTracker(a.Config, a.Store)
	events, err := tracker.History(op.OrganizationID, kind, number)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	if err := render.RenderList(w, r, newEventListResponse(events)); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// GetNextNumber proposes the next free asset number for a kind.
func (a *APICtrl) GetNextNumber(w http.ResponseWriter, r *http.Request) {

	kind := getKindParam(w, r)
	if kind == "" {
		return
	}

	op := getOperator(r)
	tracker := custody.NewTracker(a.Config, a.Store)
	number, err := tracker.NextAvailableNumber(op.OrganizationID, kind)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	render.JSON(w, r, map[string]string{"asset_number": number})
}

// CorrectEvent deletes one event from the log; manual record correction only.
func (a *APICtrl) CorrectEvent(w http.ResponseWriter, r *http.Request) {

	idParam := chi.URLParam(r, "eventID")
	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(errors.New("invalid event identifier")))
		return
	}

	tracker := custody.NewTracker(a.Config, a.Store)
	if err := tracker.Correct(uint(id)); err != nil {
		render.Render(w, r, ErrNotFound)
		return
	}
	render.NoContent(w, r)
}

// ExportEvents returns every event of the organization for a kind, as a
// JSON array suitable for the custodycheck tool.
func (a *APICtrl) ExportEvents(w http.ResponseWriter, r *http.Request) {

	kind := getKindParam(w, r)
	if kind == "" {
		return
	}

	op := getOperator(r)
	events, err := a.Store.Event().ListByKind(op.OrganizationID, kind)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	// export in sequence order; the store returns newest first
	for i, j := 0, len(*events)-1; i < j; i, j = i+1, j-1 {
		(*events)[i], (*events)[j] = (*events)[j], (*events)[i]
	}
	render.JSON(w, r, events)
}

// --
// local functions
// --

func getAssetParams(w http.ResponseWriter, r *http.Request) (kind, number string) {

	if kind = getKindParam(w, r); kind == "" {
		return "", ""
	}
	if number = chi.URLParam(r, "assetNumber"); number == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required asset number")))
		return "", ""
	}
	return kind, number
}

func getKindParam(w http.ResponseWriter, r *http.Request) string {

	kind := chi.URLParam(r, "kind")
	if kind != stor.KIND_SDCARD && kind != stor.KIND_JOBBOX {
		render.Render(w, r, ErrInvalidRequest(errors.New("asset kind must be sdcard or jobbox")))
		return ""
	}
	return kind
}

// historyLink expands the asset history URI template for an event.
var historyTemplate, _ = uritemplates.Parse("{base}/assets/{kind}/{number}/history")

func (a *APICtrl) historyLink(e *stor.AssetEvent) string {

	link, err := historyTemplate.Expand(map[string]interface{}{
		"base":   a.Config.PublicBaseUrl,
		"kind":   e.AssetKind,
		"number": e.AssetNumber,
	})
	if err != nil {
		return ""
	}
	// window selection is left to the client
	return link + "{?from,to}"
}

// --
// Request and Response payloads for the REST api.
// --

// ScanPayload is the request payload for custody scans.
type ScanPayload struct {
	AssetKind    string `json:"asset_kind"`
	AssetNumber  string `json:"asset_number"`
	Status       string `json:"status"`
	LocationID   string `json:"location_id,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	UploadSource string `json:"upload_source,omitempty"`
}

// Bind post-processes the payload after unmarshalling.
func (s *ScanPayload) Bind(r *http.Request) error {
	if s.AssetKind == "" || s.AssetNumber == "" || s.Status == "" {
		return errors.New("missing required scan fields: asset_kind, asset_number, status")
	}
	return nil
}

// Link mirrors a templated or concrete related resource.
type Link struct {
	Rel       string `json:"rel"`
	Href      string `json:"href"`
	Templated bool   `json:"templated,omitempty"`
}

// EventResponse is the response payload for custody events.
type EventResponse struct {
	*stor.AssetEvent
	Links []Link `json:"links,omitempty"`
}

func (a *APICtrl) newEventResponse(e *stor.AssetEvent) *EventResponse {
	return &EventResponse{
		AssetEvent: e,
		Links: []Link{
			{Rel: "history", Href: a.historyLink(e), Templated: true},
		},
	}
}

// Render processes responses before marshalling.
func (e *EventResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func newEventListResponse(events *[]stor.AssetEvent) []render.Renderer {
	list := []render.Renderer{}
	for i := range *events {
		list = append(list, &EventResponse{AssetEvent: &(*events)[i]})
	}
	return list
}

// SuggestionResponse is the response payload for transition suggestions.
type SuggestionResponse struct {
	*custody.Suggestion
}

// Render processes responses before marshalling.
func (s *SuggestionResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
