// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

import (
	"os"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"syreclabs.com/go/faker"
)

// some global vars shared by all tests
var St Store
var Events []AssetEvent
var Photographers []string

const testOrg = "org-test"

func TestMain(m *testing.M) {

	// generate random photographers
	for i := 0; i < 3; i++ {
		Photographers = append(Photographers, faker.Name().Name())
	}

	// generate custody events: three SD cards walking their cycle
	cycle := []string{STATUS_JOB_BOX, STATUS_CAMERA, STATUS_ENVELOPE, STATUS_UPLOADED, STATUS_CLEARED}
	numbers := []string{"1001", "1002", "1003"}
	base := time.Now().Add(-48 * time.Hour).Truncate(time.Millisecond)
	for i, n := range numbers {
		for j, status := range cycle {
			if i == 2 && j > 2 {
				break // card 1003 stays in an open cycle
			}
			ts := base.Add(time.Duration(j) * time.Hour)
			e := AssetEvent{
				OrganizationID: testOrg,
				AssetKind:      KIND_SDCARD,
				AssetNumber:    n,
				Timestamp:      ts,
				Status:         status,
				LocationName:   faker.Company().Name(),
				RecordedByID:   "u-" + Photographers[i%len(Photographers)],
				RecordedByName: Photographers[i%len(Photographers)],
			}
			Events = append(Events, e)
		}
	}

	// plus one job box with a bound session
	for j, status := range []string{STATUS_PACKED, STATUS_PICKED_UP} {
		e := AssetEvent{
			OrganizationID: testOrg,
			AssetKind:      KIND_JOBBOX,
			AssetNumber:    "3001",
			Timestamp:      base.Add(time.Duration(j) * time.Hour),
			Status:         status,
			LocationName:   faker.Company().Name(),
			RecordedByID:   "u-" + Photographers[0],
			RecordedByName: Photographers[0],
			SessionID:      "session-a",
		}
		Events = append(Events, e)
	}

	// create / open an sqlite db in memory
	dsn := "sqlite3://file::memory:?cache=shared"
	var err error
	St, err = Init(dsn)
	if err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}

	// store the events in the db
	for i := range Events {
		err = St.Event().Append(&Events[i])
		if err != nil {
			log.Fatalf("Failed to append an event: %v", err)
		}
	}

	code := m.Run()
	os.Exit(code)
}

// TestEvents calls gorm functionalities related to AssetEvents
func TestEvents(t *testing.T) {
	var err error

	// check an event
	err = Events[0].Validate()
	if err != nil {
		t.Fatalf("Invalid test event: %v", err)
	}

	// count events
	var cnt int64
	cnt, err = St.Event().Count(testOrg)
	if err != nil {
		t.Fatalf("Failed to count events: %v", err)
	}
	if int(cnt) != len(Events) {
		t.Fatalf("Incorrect event count: %d", cnt)
	}

	// get the trail of one asset, newest first
	var events *[]AssetEvent
	events, err = St.Event().ListByAsset(testOrg, KIND_SDCARD, "1001")
	if err != nil {
		t.Fatalf("Failed to list events by asset: %v", err)
	}
	if len(*events) != 5 {
		t.Fatalf("Incorrect asset trail length: %d", len(*events))
	}
	for i := 1; i < len(*events); i++ {
		if (*events)[i].ID >= (*events)[i-1].ID {
			t.Fatalf("Asset trail not in reverse insertion order")
		}
	}

	// list events by kind
	events, err = St.Event().ListByKind(testOrg, KIND_JOBBOX)
	if err != nil {
		t.Fatalf("Failed to list events by kind: %v", err)
	}
	if len(*events) != 2 {
		t.Fatalf("Incorrect job box event count: %d", len(*events))
	}

	// list events in a time window
	from := time.Now().Add(-72 * time.Hour)
	to := time.Now()
	events, err = St.Event().ListWindow(testOrg, KIND_SDCARD, from, to)
	if err != nil {
		t.Fatalf("Failed to list events in a window: %v", err)
	}
	if len(*events) != 13 {
		t.Fatalf("Incorrect windowed event count: %d", len(*events))
	}

	// an empty window
	events, err = St.Event().ListWindow(testOrg, KIND_SDCARD, from.Add(-time.Hour), from)
	if err != nil {
		t.Fatalf("Failed to list events in an empty window: %v", err)
	}
	if len(*events) != 0 {
		t.Fatalf("Expected an empty window, got %d events", len(*events))
	}

	// list events by recorder
	events, err = St.Event().ListByRecorder(testOrg, KIND_SDCARD, "u-"+Photographers[0])
	if err != nil {
		t.Fatalf("Failed to list events by recorder: %v", err)
	}
	if len(*events) != 5 {
		t.Fatalf("Incorrect recorder event count: %d", len(*events))
	}

	// distinct asset numbers
	var numbers []string
	numbers, err = St.Event().ListNumbers(testOrg, KIND_SDCARD)
	if err != nil {
		t.Fatalf("Failed to list asset numbers: %v", err)
	}
	if len(numbers) != 3 {
		t.Fatalf("Incorrect distinct number count: %d", len(numbers))
	}

	// events of another org are invisible
	cnt, err = St.Event().Count("org-other")
	if err != nil {
		t.Fatalf("Failed to count events of another org: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("Events leaked across organizations: %d", cnt)
	}
}

// TestEventAppend checks the server-assigned timestamp and deletion
func TestEventAppend(t *testing.T) {
	var err error

	e := &AssetEvent{
		OrganizationID: testOrg,
		AssetKind:      KIND_SDCARD,
		AssetNumber:    "1099",
		Status:         STATUS_JOB_BOX,
		RecordedByName: Photographers[0],
	}
	err = St.Event().Append(e)
	if err != nil {
		t.Fatalf("Failed to append an event: %v", err)
	}
	if e.Timestamp.IsZero() {
		t.Fatalf("Append did not assign a timestamp")
	}
	if e.ID == 0 {
		t.Fatalf("Append did not assign a sequence")
	}

	// get the event back
	var event *AssetEvent
	event, err = St.Event().Get(e.ID)
	if err != nil {
		t.Fatalf("Failed to get an event: %v", err)
	}
	if event.Status != e.Status {
		t.Fatalf("Event modified when retrieved")
	}

	// a client-supplied timestamp is kept as is
	ts := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	e2 := &AssetEvent{
		OrganizationID: testOrg,
		AssetKind:      KIND_SDCARD,
		AssetNumber:    "1099",
		Timestamp:      ts,
		Status:         STATUS_CAMERA,
		RecordedByName: Photographers[0],
	}
	err = St.Event().Append(e2)
	if err != nil {
		t.Fatalf("Failed to append a second event: %v", err)
	}
	if !e2.Timestamp.Equal(ts) {
		t.Fatalf("Append modified a preset timestamp")
	}

	// delete both events
	err = St.Event().Delete(e)
	if err != nil {
		t.Fatalf("Failed to delete an event: %v", err)
	}
	err = St.Event().Delete(e2)
	if err != nil {
		t.Fatalf("Failed to delete an event: %v", err)
	}
	_, err = St.Event().Get(e.ID)
	if err == nil {
		t.Fatalf("Found an event after its deletion")
	}
}

func TestNormalizeLocationName(t *testing.T) {

	if n := NormalizeLocationName("lincoln elementary"); n != "Lincoln Elementary" {
		t.Fatalf("Incorrect normalized name: %s", n)
	}
	if n := NormalizeLocationName("STUDIO"); n != "Studio" {
		t.Fatalf("Incorrect normalized name: %s", n)
	}
	if n := NormalizeLocationName(""); n != "" {
		t.Fatalf("Incorrect normalized empty name: %q", n)
	}
}

func TestAddParamsDialectSpecific(t *testing.T) {

	// a plain file path gets the full parameter set
	cnx := addParamsDialectSpecific("custody.sqlite", "sqlite3")
	if cnx != "custody.sqlite?cache=shared&mode=rwc" {
		t.Fatalf("Incorrect sqlite3 connection string: %s", cnx)
	}

	// a connection string with parameters of its own must not get a second '?'
	cnx = addParamsDialectSpecific("file::memory:?cache=shared", "sqlite3")
	if cnx != "file::memory:?cache=shared&mode=rwc" {
		t.Fatalf("Incorrect sqlite3 connection string: %s", cnx)
	}

	cnx = addParamsDialectSpecific("user:pwd@/custody", "mysql")
	if cnx != "user:pwd@/custody?charset=utf8mb4&parseTime=True&loc=Local" {
		t.Fatalf("Incorrect mysql connection string: %s", cnx)
	}
}

func TestListByDate(t *testing.T) {

	const org = "org-report"
	stamp := func(day, hour int) time.Time {
		return time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)
	}

	seeded := []AssetEvent{
		{OrganizationID: org, AssetKind: KIND_SDCARD, AssetNumber: "1301",
			Timestamp: stamp(10, 9), Status: STATUS_JOB_BOX, RecordedByName: Photographers[0]},
		{OrganizationID: org, AssetKind: KIND_SDCARD, AssetNumber: "1301",
			Timestamp: stamp(10, 15), Status: STATUS_CAMERA, RecordedByName: Photographers[0]},
		{OrganizationID: org, AssetKind: KIND_JOBBOX, AssetNumber: "3301",
			Timestamp: stamp(22, 8), Status: STATUS_PACKED, RecordedByName: Photographers[1]},
	}
	for i := range seeded {
		if err := St.Event().Append(&seeded[i]); err != nil {
			t.Fatalf("Failed to append event %d: %v", i, err)
		}
	}

	// a full month
	events, err := St.Event().ListByDate(org, "2025-03")
	if err != nil {
		t.Fatalf("Failed to list events by month: %v", err)
	}
	if len(*events) != 3 {
		t.Fatalf("Incorrect monthly event count: %d", len(*events))
	}

	// a single day
	events, err = St.Event().ListByDate(org, "2025-03-10")
	if err != nil {
		t.Fatalf("Failed to list events by date: %v", err)
	}
	if len(*events) != 2 {
		t.Fatalf("Incorrect daily event count: %d", len(*events))
	}

	// an empty month
	events, err = St.Event().ListByDate(org, "2025-04")
	if err != nil {
		t.Fatalf("Failed to list an empty month: %v", err)
	}
	if len(*events) != 0 {
		t.Fatalf("Expected an empty month, got %d events", len(*events))
	}

	// a malformed period is refused
	if _, err = St.Event().ListByDate(org, "march"); err == nil {
		t.Fatalf("Accepted a malformed period")
	}
	if _, err = St.Event().ListByDate(org, "2025-13"); err == nil {
		t.Fatalf("Accepted an invalid month")
	}
}
