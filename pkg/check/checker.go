// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package check validates custody event log exports.
package check

import (
	"embed"
	"errors"
	"fmt"

	"encoding/json"

	log "github.com/sirupsen/logrus"
	jsonschema "github.com/xeipuuv/gojsonschema"

	"github.com/fieldops/custody-server/pkg/custody"
	"github.com/fieldops/custody-server/pkg/stor"
)

//go:embed data/events.schema.json
var jsfs embed.FS

// Checker verifies an exported custody event log.
// Parameters:
// bytes is the JSON export of one organization's events for one kind.
// level is a level of tests.
// Semantic checks on the event sequence require level 2 or upper.
func Checker(bytes []byte, level uint) error {

	log.Info("-- Check the export against the json schema --")

	var err error
	err = validateExport(bytes)
	if err != nil {
		log.Errorf("Failed to validate the export: %v", err)
		return err
	}

	// parse json data -> events
	events := []stor.AssetEvent{}
	err = json.Unmarshal(bytes, &events)
	if err != nil {
		log.Errorf("Failed to unmarshal the export: %v", err)
		return err
	}

	log.Infof("%d events in the export", len(events))

	// semantic checks require level 2+
	if level <= 1 {
		return nil
	}

	log.Info("-- Check the event sequences --")

	err = CheckEvents(events)
	if err != nil {
		log.Errorf("Failed to check the event sequences: %v", err)
		return err
	}

	return nil
}

// validateExport checks the export against the embedded json schema.
func validateExport(bytes []byte) error {

	eventsSchema, err := jsfs.ReadFile("data/events.schema.json")
	if err != nil {
		return err
	}

	schemaLoader := jsonschema.NewStringLoader(string(eventsSchema))
	schema, err := jsonschema.NewSchema(schemaLoader)
	if err != nil {
		return err
	}

	documentLoader := jsonschema.NewStringLoader(string(bytes))

	result, err := schema.Validate(documentLoader)
	if err != nil {
		return err
	}

	if result.Valid() {
		log.Info("The export is valid vs the json schema")
	} else {
		log.Error("The export is invalid vs the json schema")
		for _, desc := range result.Errors() {
			fmt.Printf("- %s\n", desc)
		}
		return errors.New("invalid export") // stop checking
	}
	return nil
}

// CheckEvents performs semantic tests on an event export.
// The export must belong to a single organization and a single kind; every
// status must belong to the kind's status set, and per-asset timestamps
// must be non-decreasing in insertion order.
func CheckEvents(events []stor.AssetEvent) error {

	if len(events) == 0 {
		log.Warn("The export carries no events")
		return nil
	}

	orgID := events[0].OrganizationID
	kind := events[0].AssetKind
	invalid := 0

	lastSeen := make(map[string]stor.AssetEvent)
	for _, e := range events {
		if e.OrganizationID != orgID {
			log.Errorf("Event %d belongs to organization %s, expected %s", e.ID, e.OrganizationID, orgID)
			invalid++
		}
		if e.AssetKind != kind {
			log.Errorf("Event %d has kind %s, expected %s", e.ID, e.AssetKind, kind)
			invalid++
		}
		if !custody.IsKnownStatus(e.AssetKind, e.Status) {
			log.Errorf("Event %d carries status %q, unknown for kind %s", e.ID, e.Status, e.AssetKind)
			invalid++
		}
		if prev, ok := lastSeen[e.AssetNumber]; ok {
			if e.ID > prev.ID && e.Timestamp.Before(prev.Timestamp) {
				log.Errorf("Event %d of asset %s goes back in time vs event %d", e.ID, e.AssetNumber, prev.ID)
				invalid++
			}
			if e.ID > prev.ID {
				lastSeen[e.AssetNumber] = e
			}
		} else {
			lastSeen[e.AssetNumber] = e
		}
	}

	// give info about the statuses present in the export
	dict := make(map[string]int)
	for _, e := range events {
		dict[e.Status] = dict[e.Status] + 1
	}
	for status, count := range dict {
		log.Infof("%d events with status %s", count, status)
	}

	if invalid > 0 {
		return fmt.Errorf("%d invalid events in the export", invalid)
	}
	log.Infof("%d assets checked, all sequences consistent", len(lastSeen))
	return nil
}
