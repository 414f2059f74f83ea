// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package check

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fieldops/custody-server/pkg/stor"
)

func exportBytes(t *testing.T, events []stor.AssetEvent) []byte {
	t.Helper()
	data, err := json.Marshal(events)
	if err != nil {
		t.Fatalf("Failed to marshal an export: %v", err)
	}
	return data
}

func validExport() []stor.AssetEvent {
	base := time.Now().Add(-24 * time.Hour)
	return []stor.AssetEvent{
		{ID: 1, OrganizationID: "org-test", AssetKind: stor.KIND_SDCARD, AssetNumber: "1001",
			Timestamp: base, Status: stor.STATUS_JOB_BOX, RecordedByName: "Trinity"},
		{ID: 2, OrganizationID: "org-test", AssetKind: stor.KIND_SDCARD, AssetNumber: "1001",
			Timestamp: base.Add(time.Hour), Status: stor.STATUS_CAMERA, RecordedByName: "Trinity"},
		{ID: 3, OrganizationID: "org-test", AssetKind: stor.KIND_SDCARD, AssetNumber: "1002",
			Timestamp: base.Add(2 * time.Hour), Status: stor.STATUS_PERSONAL, RecordedByName: "Morpheus"},
	}
}

func TestChecker(t *testing.T) {

	err := Checker(exportBytes(t, validExport()), 2)
	if err != nil {
		t.Errorf("A valid export was refused: %v", err)
	}

	// level 1 stops after the schema validation
	err = Checker(exportBytes(t, validExport()), 1)
	if err != nil {
		t.Errorf("A valid export was refused at level 1: %v", err)
	}

	// not even json
	err = Checker([]byte("not an export"), 1)
	if err == nil {
		t.Errorf("A malformed export was accepted")
	}
}

func TestCheckerSchema(t *testing.T) {

	// a missing required property fails the schema check
	data, _ := json.Marshal([]map[string]interface{}{
		{"sequence": 1, "organization_id": "org-test", "asset_kind": "sdcard",
			"asset_number": "1001", "timestamp": time.Now(), "status": "Camera"},
	})
	err := Checker(data, 1)
	if err == nil {
		t.Errorf("An export without recorder names was accepted")
	}

	// a non-numeric asset number fails the schema check
	data = exportBytes(t, []stor.AssetEvent{{
		ID: 1, OrganizationID: "org-test", AssetKind: stor.KIND_SDCARD,
		AssetNumber: "10a1", Timestamp: time.Now(), Status: stor.STATUS_CAMERA,
		RecordedByName: "Trinity",
	}})
	err = Checker(data, 1)
	if err == nil {
		t.Errorf("A non-numeric asset number was accepted")
	}
}

func TestCheckEvents(t *testing.T) {

	// an unknown status is reported
	export := validExport()
	export[2].Status = "Misplaced"
	err := CheckEvents(export)
	if err == nil {
		t.Errorf("An unknown status was accepted")
	}

	// a second organization in the export is reported
	export = validExport()
	export[2].OrganizationID = "org-other"
	err = CheckEvents(export)
	if err == nil {
		t.Errorf("A mixed-organization export was accepted")
	}

	// a mixed-kind export is reported
	export = validExport()
	export[2].AssetKind = stor.KIND_JOBBOX
	export[2].Status = stor.STATUS_PACKED
	err = CheckEvents(export)
	if err == nil {
		t.Errorf("A mixed-kind export was accepted")
	}

	// an asset going back in time is reported
	export = validExport()
	export[1].Timestamp = export[0].Timestamp.Add(-time.Hour)
	err = CheckEvents(export)
	if err == nil {
		t.Errorf("A backwards sequence was accepted")
	}

	// an empty export is fine
	err = CheckEvents(nil)
	if err != nil {
		t.Errorf("An empty export was refused: %v", err)
	}
}
