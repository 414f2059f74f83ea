// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/fieldops/custody-server/pkg/stor"
)

// ListSessions lists the organization's work sessions.
// With ?upcoming=true only sessions scheduled from now on are returned,
// otherwise the list is paginated.
func (a *APICtrl) ListSessions(w http.ResponseWriter, r *http.Request) {

	op := getOperator(r)
	page, _ := r.Context().Value(PageKey).(int)
	perPage, _ := r.Context().Value(PerPageKey).(int)

	var sessions *[]stor.WorkSession
	var err error
	if r.URL.Query().Get("upcoming") == "true" {
		sessions, err = a.Store.Session().ListUpcoming(op.OrganizationID, time.Now())
	} else if page == 0 || perPage == 0 {
		sessions, err = a.Store.Session().ListByOrg(op.OrganizationID)
	} else {
		sessions, err = a.Store.Session().List(op.OrganizationID, page, perPage)
	}
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	if err := render.RenderList(w, r, newSessionListResponse(sessions)); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// CreateSession adds a new work session.
func (a *APICtrl) CreateSession(w http.ResponseWriter, r *http.Request) {

	data := &SessionRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	session := data.WorkSession
	session.OrganizationID = getOperator(r).OrganizationID
	if session.UUID == "" {
		session.UUID = uuid.New().String()
	}
	session.LocationName = stor.NormalizeLocationName(session.LocationName)

	if err := session.Validate(); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := a.Store.Session().Create(session); err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}

	render.Status(r, http.StatusCreated)
	if err := render.Render(w, r, &SessionResponse{WorkSession: session}); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// GetSession returns a specific work session.
func (a *APICtrl) GetSession(w http.ResponseWriter, r *http.Request) {

	var session *stor.WorkSession
	var err error

	if sessionID := chi.URLParam(r, "sessionID"); sessionID != "" {
		session, err = a.Store.Session().Get(sessionID)
	} else {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required session identifier")))
		return
	}
	if err != nil {
		render.Render(w, r, ErrNotFound)
		return
	}
	if err := render.Render(w, r, &SessionResponse{WorkSession: session}); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// UpdateSession updates an existing work session.
func (a *APICtrl) UpdateSession(w http.ResponseWriter, r *http.Request) {

	data := &SessionRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required session identifier")))
		return
	}

	session, err := a.Store.Session().Get(sessionID)
	if err != nil {
		render.Render(w, r, ErrNotFound)
		return
	}

	session.LocationID = data.LocationID
	session.LocationName = stor.NormalizeLocationName(data.LocationName)
	session.ScheduledAt = data.ScheduledAt
	session.Description = data.Description

	if err := a.Store.Session().Update(session); err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	if err := render.Render(w, r, &SessionResponse{WorkSession: session}); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
}

// DeleteSession removes a work session.
func (a *APICtrl) DeleteSession(w http.ResponseWriter, r *http.Request) {

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required session identifier")))
		return
	}

	session, err := a.Store.Session().Get(sessionID)
	if err != nil {
		render.Render(w, r, ErrNotFound)
		return
	}
	if err := a.Store.Session().Delete(session); err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	render.NoContent(w, r)
}

// --
// Request and Response payloads for the REST api.
// --

// SessionRequest is the request payload for work sessions.
type SessionRequest struct {
	*stor.WorkSession
}

// Bind post-processes the payload after unmarshalling.
func (s *SessionRequest) Bind(r *http.Request) error {
	if s.WorkSession == nil || s.LocationID == "" {
		return errors.New("missing required session fields: location_id")
	}
	return nil
}

// SessionResponse is the response payload for work sessions.
type SessionResponse struct {
	*stor.WorkSession
}

// Render processes responses before marshalling.
func (s *SessionResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func newSessionListResponse(sessions *[]stor.WorkSession) []render.Renderer {
	list := []render.Renderer{}
	for i := range *sessions {
		list = append(list, &SessionResponse{WorkSession: &(*sessions)[i]})
	}
	return list
}
