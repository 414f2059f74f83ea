// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/fieldops/custody-server/pkg/stor"
)

func otherEditorHeaders(req *http.Request) {
	req.Header.Set("X-Organization-ID", "org-test")
	req.Header.Set("X-User-ID", "u-2")
	req.Header.Set("X-User-Name", "Morpheus")
	req.Header.Set("Content-Type", "application/json")
}

func TestLockEndpoints(t *testing.T) {

	// acquire a free entry
	req, _ := http.NewRequest("PUT", "/locks/report-1/row-1", nil)
	authHeaders(req)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusNoContent, response)

	// a second editor is refused with a 409 naming the holder
	req, _ = http.NewRequest("PUT", "/locks/report-1/row-1", nil)
	otherEditorHeaders(req)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusConflict, response) {
		var body struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(response.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode the conflict response: %v", err)
		}
		if body.Error == "" {
			t.Fatalf("Conflict response carries no message")
		}
	}

	// the holder re-acquires without error
	req, _ = http.NewRequest("PUT", "/locks/report-1/row-1", nil)
	authHeaders(req)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusNoContent, response)

	// check the lock
	req, _ = http.NewRequest("GET", "/locks/report-1/row-1", nil)
	otherEditorHeaders(req)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var status struct {
			Locked     bool   `json:"locked"`
			EditorName string `json:"editor_name"`
		}
		if err := json.Unmarshal(response.Body.Bytes(), &status); err != nil {
			t.Fatalf("Failed to decode the lock status: %v", err)
		}
		if !status.Locked || status.EditorName != "Trinity" {
			t.Fatalf("Incorrect lock status: %+v", status)
		}
	}

	// list the container's locks
	req, _ = http.NewRequest("GET", "/locks/report-1", nil)
	authHeaders(req)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var holders map[string]string
		if err := json.Unmarshal(response.Body.Bytes(), &holders); err != nil {
			t.Fatalf("Failed to decode the holders: %v", err)
		}
		if holders["row-1"] != "Trinity" {
			t.Fatalf("Incorrect holders: %v", holders)
		}
	}

	// another editor cannot release the lock
	req, _ = http.NewRequest("DELETE", "/locks/report-1/row-1", nil)
	otherEditorHeaders(req)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusConflict, response)

	// the holder releases it; a repeat release is a no-op
	req, _ = http.NewRequest("DELETE", "/locks/report-1/row-1", nil)
	authHeaders(req)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusNoContent, response)

	req, _ = http.NewRequest("DELETE", "/locks/report-1/row-1", nil)
	authHeaders(req)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusNoContent, response)

	// the entry reports unlocked
	req, _ = http.NewRequest("GET", "/locks/report-1/row-1", nil)
	authHeaders(req)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var status struct {
			Locked bool `json:"locked"`
		}
		if err := json.Unmarshal(response.Body.Bytes(), &status); err != nil {
			t.Fatalf("Failed to decode the lock status: %v", err)
		}
		if status.Locked {
			t.Fatalf("Entry still locked after release")
		}
	}
}

func TestReapEndpoint(t *testing.T) {

	// plant a stale lock under the container
	stale := &stor.EntryLock{
		ContainerID: "report-2",
		EntryID:     "row-1",
		EditorID:    "u-gone",
		EditorName:  "Crashed Client",
		AcquiredAt:  time.Now().Add(-time.Hour),
	}
	if err := s.Store.Lock().Set(stale); err != nil {
		t.Fatalf("Failed to plant a stale lock: %v", err)
	}

	req, _ := http.NewRequest("POST", "/locks/report-2/reap", nil)
	authHeaders(req)
	response := executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var result map[string]int
		if err := json.Unmarshal(response.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to decode the reap result: %v", err)
		}
		if result["reaped"] != 1 {
			t.Fatalf("Incorrect reap count: %d", result["reaped"])
		}
	}

	// a second pass removes nothing
	req, _ = http.NewRequest("POST", "/locks/report-2/reap", nil)
	authHeaders(req)
	response = executeRequest(req)
	if checkResponseCode(t, http.StatusOK, response) {
		var result map[string]int
		if err := json.Unmarshal(response.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to decode the reap result: %v", err)
		}
		if result["reaped"] != 0 {
			t.Fatalf("A second reap pass removed %d locks", result["reaped"])
		}
	}
}
