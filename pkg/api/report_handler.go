// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"

	"github.com/fieldops/custody-server/pkg/stor"
)

// ReportEvents generates a CSV report of custody events for a specific month or date
func (a *APICtrl) ReportEvents(w http.ResponseWriter, r *http.Request) {
	log.Debug("Report Custody Events, monthly or daily")

	op := getOperator(r)

	var events *[]stor.AssetEvent
	var err error
	var period string

	// Check for month parameter
	if month := r.URL.Query().Get("month"); month != "" {
		if date := r.URL.Query().Get("date"); date != "" {
			render.Render(w, r, ErrInvalidRequest(errors.New("cannot specify both month and date parameters")))
			return
		}
		events, err = a.Store.Event().ListByDate(op.OrganizationID, month)
		period = month
	} else if date := r.URL.Query().Get("date"); date != "" {
		events, err = a.Store.Event().ListByDate(op.OrganizationID, date)
		period = date
	} else {
		render.Render(w, r, ErrInvalidRequest(errors.New("missing required parameter: either month (YYYY-MM) or date (YYYY-MM-DD)")))
		return
	}

	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	// Set CSV headers
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"custody-report-%s.csv\"", url.QueryEscape(period)))

	// Create CSV writer
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	// Write CSV header
	header := []string{"Timestamp", "AssetKind", "AssetNumber", "Status", "LocationName", "RecordedByName", "SessionID", "UploadSource"}
	if err := csvWriter.Write(header); err != nil {
		log.Errorf("Error writing CSV header: %v", err)
		render.Render(w, r, ErrServer(err))
		return
	}

	// Write event data, newest first
	for _, event := range *events {
		record := []string{
			formatTime(event.Timestamp),
			event.AssetKind,
			event.AssetNumber,
			event.Status,
			event.LocationName,
			event.RecordedByName,
			event.SessionID,
			event.UploadSource,
		}

		if err := csvWriter.Write(record); err != nil {
			log.Errorf("Error writing CSV record: %v", err)
			render.Render(w, r, ErrServer(err))
			return
		}
	}
}

// formatTime formats a timestamp as an ISO 8601 string
func formatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05Z07:00")
}
