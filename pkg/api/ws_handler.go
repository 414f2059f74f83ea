// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/fieldops/custody-server/pkg/analytics"
	"github.com/fieldops/custody-server/pkg/lock"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// cross-origin policy is handled by the router's CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// WatchLocks streams the entry -> editor mapping of a container over a
// websocket, so concurrent viewers can show "being edited by" badges
// without polling. The current snapshot is sent on connect, then one
// message per change.
func (a *APICtrl) WatchLocks(w http.ResponseWriter, r *http.Request) {

	containerID := getContainerParam(w, r)
	if containerID == "" {
		return
	}

	svc := lock.NewService(a.Store)
	feed, err := svc.Watch(r.Context(), containerID)
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade the lock feed connection: %v", err)
		return
	}
	defer conn.Close()

	// drain client frames so close messages are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for holders := range feed {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(holders); err != nil {
			log.Debugf("Lock feed on %s closed: %v", containerID, err)
			return
		}
	}
}

// WatchLeftJobAlerts streams the caller's left-job alert list, recomputed
// on every relevant store change.
func (a *APICtrl) WatchLeftJobAlerts(w http.ResponseWriter, r *http.Request) {

	op := getOperator(r)

	ownerID := ""
	if r.URL.Query().Get("owner") == "me" {
		ownerID = op.UserID
	}

	feed, err := analytics.WatchLeftJobAlerts(r.Context(), a.Store, op.OrganizationID, ownerID, a.Config.LeftJobThreshold())
	if err != nil {
		render.Render(w, r, ErrServer(err))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade the alert feed connection: %v", err)
		return
	}
	defer conn.Close()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for alerts := range feed {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(alerts); err != nil {
			log.Debugf("Alert feed closed: %v", err)
			return
		}
	}
}
