// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/fieldops/custody-server/pkg/lock"
)

// AcquireLock takes or refreshes the edit lock on an entry.
// A 409 response carries the current holder's name.
func (a *APICtrl) AcquireLock(w http.ResponseWriter, r *http.Request) {

	containerID, entryID := getLockParams(w, r)
	if containerID == "" {
		return
	}

	op := getOperator(r)
	svc := lock.NewService(a.Store)
	err := svc.Acquire(containerID, entryID, op.UserID, op.UserName)
	if err != nil {
		var conflict *lock.ConflictError
		if errors.As(err, &conflict) {
			render.Render(w, r, ErrConflict(conflict))
		} else {
			render.Render(w, r, ErrServer(err))
		}
		return
	}
	render.NoContent(w, r)
}

// ReleaseLock frees the edit lock on an entry.
// Releasing an unlocked entry succeeds; releasing someone else's lock is a 409.
func (a *APICtrl) ReleaseLock(w http.ResponseWriter, r *http.Request) {

	containerID, entryID := getLockParams(w, r)
	if containerID == "" {
		return
	}

	op := getOperator(r)
	svc := lock.NewService(a.Store)
	err := svc.Release(containerID, entryID, op.UserID)
	if err != nil {
		var conflict *lock.ConflictError
		if errors.As(err, &conflict) {
			render.Render(w, r, ErrConflict(conflict))
		} else {
			render.Render(w, r, ErrServer(err))
		}
		return
	}
	render.NoContent(w, r)
}

// CheckLock reports the lock state of an entry without side effects.
func (a *APICtrl) CheckLock(w http.ResponseWriter, r *http.Request) {

	containerID, entryID := getLockParams(w, r)
	if containerID == "" {
		return
	}

	svc := lock.NewService(a.Store)
	status, err := svc.Check(containerID, entryID)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	render.JSON(w, r, status)
}

// ListLocks returns the entry -> editor mapping of a container.
func (a *APICtrl) ListLocks(w http.ResponseWriter, r *http.Request) {

	containerID := getContainerParam(w, r)
	if containerID == "" {
		return
	}

	svc := lock.NewService(a.Store)
	holders, err := svc.Holders(containerID)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	render.JSON(w, r, holders)
}

// ReapLocks removes every stale lock of a container and reports the count.
func (a *APICtrl) ReapLocks(w http.ResponseWriter, r *http.Request) {

	containerID := getContainerParam(w, r)
	if containerID == "" {
		return
	}

	svc := lock.NewService(a.Store)
	reaped, err := svc.Reap(containerID, a.Config.StaleThreshold())
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}
	render.JSON(w, r, map[string]int{"reaped": reaped})
}

// --
// local functions
// --

func getContainerParam(w http.ResponseWriter, r *http.Request) string {

	containerID := chi.URLParam(r, "containerID")
	if containerID == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required container identifier")))
	}
	return containerID
}

func getLockParams(w http.ResponseWriter, r *http.Request) (containerID, entryID string) {

	if containerID = getContainerParam(w, r); containerID == "" {
		return "", ""
	}
	if entryID = chi.URLParam(r, "entryID"); entryID == "" {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required entry identifier")))
		return "", ""
	}
	return containerID, entryID
}
