// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/fieldops/custody-server/pkg/stor"
)

// EventTest data model
type EventTest struct {
	Sequence       uint   `json:"sequence"`
	OrganizationID string `json:"organization_id"`
	AssetKind      string `json:"asset_kind"`
	AssetNumber    string `json:"asset_number"`
	Status         string `json:"status"`
	LocationID     string `json:"location_id"`
	LocationName   string `json:"location_name"`
	RecordedByName string `json:"recorded_by_name"`
	SessionID      string `json:"session_id"`
	Links          []Link `json:"links"`
}

// SuggestionTest data model
type SuggestionTest struct {
	Status   string `json:"status"`
	NewAsset bool   `json:"new_asset"`
	Location *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"location"`
	SessionID string `json:"session_id"`
}

func recordScan(t *testing.T, payload ScanPayload) EventTest {
	t.Helper()

	req, _ := http.NewRequest("POST", "/scans", jsonBody(t, payload))
	authHeaders(req)
	response := executeRequest(req)
	if !checkResponseCode(t, http.StatusCreated, response) {
		t.FailNow()
	}

	var event EventTest
	if err := json.Unmarshal(response.Body.Bytes(), &event); err != nil {
		t.Fatalf("Failed to decode an event response: %v", err)
	}
	return event
}

// TestScanFlow drives an SD card through the API: record, resolve,
// suggest, history.
func TestScanFlow(t *testing.T) {

	// a never-seen card has no current state
	req, _ := http.NewRequest("GET", "/assets/sdcard/1201", nil)
	authHeaders(req)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusNotFound, response)

	// but it gets a suggestion: the head of the cycle
	req, _ = http.NewRequest("GET", "/assets/sdcard/1201/suggestion", nil)
	authHeaders(req)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var suggestion SuggestionTest
		if err := json.Unmarshal(response.Body.Bytes(), &suggestion); err != nil {
			t.Fatalf("Failed to decode a suggestion: %v", err)
		}
		if suggestion.Status != stor.STATUS_JOB_BOX {
			t.Fatalf("Incorrect suggestion for a new card: %q", suggestion.Status)
		}
	}

	// record a first scan
	event := recordScan(t, ScanPayload{
		AssetKind:    stor.KIND_SDCARD,
		AssetNumber:  "1201",
		Status:       stor.STATUS_JOB_BOX,
		LocationID:   "loc-1",
		LocationName: "lincoln elementary",
	})
	if event.Sequence == 0 {
		t.Fatalf("Recorded event has no sequence")
	}
	if event.RecordedByName != "Trinity" {
		t.Fatalf("The operator triple was not applied: %q", event.RecordedByName)
	}
	if event.LocationName != "Lincoln Elementary" {
		t.Fatalf("Location name not normalized: %q", event.LocationName)
	}
	if len(event.Links) == 0 {
		t.Fatalf("Event response carries no links")
	}

	// the card is now current in Job Box
	req, _ = http.NewRequest("GET", "/assets/sdcard/1201", nil)
	authHeaders(req)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var current EventTest
		if err := json.Unmarshal(response.Body.Bytes(), &current); err != nil {
			t.Fatalf("Failed to decode the current event: %v", err)
		}
		if current.Status != stor.STATUS_JOB_BOX {
			t.Fatalf("Incorrect current status: %q", current.Status)
		}
	}

	// record a second scan and read the history
	recordScan(t, ScanPayload{
		AssetKind:   stor.KIND_SDCARD,
		AssetNumber: "1201",
		Status:      stor.STATUS_CAMERA,
	})

	req, _ = http.NewRequest("GET", "/assets/sdcard/1201/history", nil)
	authHeaders(req)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var trail []EventTest
		if err := json.Unmarshal(response.Body.Bytes(), &trail); err != nil {
			t.Fatalf("Failed to decode the history: %v", err)
		}
		if len(trail) != 2 {
			t.Fatalf("Incorrect trail length: %d", len(trail))
		}
		if trail[0].Status != stor.STATUS_JOB_BOX || trail[1].Status != stor.STATUS_CAMERA {
			t.Fatalf("Trail not oldest first")
		}
	}
}

func TestScanValidation(t *testing.T) {

	// an unknown status is a 400
	req, _ := http.NewRequest("POST", "/scans", jsonBody(t, ScanPayload{
		AssetKind:   stor.KIND_SDCARD,
		AssetNumber: "1202",
		Status:      "Misplaced",
	}))
	authHeaders(req)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusBadRequest, response)

	// a missing asset number is a 400
	req, _ = http.NewRequest("POST", "/scans", jsonBody(t, ScanPayload{
		AssetKind: stor.KIND_SDCARD,
		Status:    stor.STATUS_JOB_BOX,
	}))
	authHeaders(req)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusBadRequest, response)

	// an unknown asset kind is a 400
	req, _ = http.NewRequest("GET", "/assets/tripod/1202", nil)
	authHeaders(req)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusBadRequest, response)
}

func TestNextNumber(t *testing.T) {

	req, _ := http.NewRequest("GET", "/assets/sdcard/next-number", nil)
	authHeaders(req)
	response := executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var proposal map[string]string
		if err := json.Unmarshal(response.Body.Bytes(), &proposal); err != nil {
			t.Fatalf("Failed to decode a number proposal: %v", err)
		}
		if proposal["asset_number"] != "1202" {
			t.Fatalf("Incorrect number proposal: %q", proposal["asset_number"])
		}
	}
}

func TestCorrectEvent(t *testing.T) {

	event := recordScan(t, ScanPayload{
		AssetKind:   stor.KIND_SDCARD,
		AssetNumber: "1203",
		Status:      stor.STATUS_JOB_BOX,
	})

	// remove the event
	req, _ := http.NewRequest("DELETE", fmt.Sprintf("/events/%d", event.Sequence), nil)
	authHeaders(req)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusNoContent, response)

	// the card has no current state anymore
	req, _ = http.NewRequest("GET", "/assets/sdcard/1203", nil)
	authHeaders(req)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusNotFound, response)

	// a bad identifier is a 400, an unknown one a 404
	req, _ = http.NewRequest("DELETE", "/events/not-a-number", nil)
	authHeaders(req)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusBadRequest, response)

	req, _ = http.NewRequest("DELETE", "/events/999999", nil)
	authHeaders(req)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusNotFound, response)
}

func TestExportEvents(t *testing.T) {

	req, _ := http.NewRequest("GET", "/export/sdcard", nil)
	authHeaders(req)
	response := executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var events []EventTest
		if err := json.Unmarshal(response.Body.Bytes(), &events); err != nil {
			t.Fatalf("Failed to decode the export: %v", err)
		}
		// the two surviving scans of card 1201
		if len(events) != 2 {
			t.Fatalf("Incorrect export length: %d", len(events))
		}
	}
}
