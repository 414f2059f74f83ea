// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package custody

import (
	log "github.com/sirupsen/logrus"

	"github.com/fieldops/custody-server/pkg/stor"
)

// Location identifies a school or site.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Suggestion is the advisor's proposal for the next custody event.
// Every field may be overridden by the operator before commit.
type Suggestion struct {
	// Status is empty for a new job box: no status is proposed until the
	// operator picks a work session.
	Status string `json:"status"`
	// Location is the proposed next location; nil when the advisor has
	// nothing to propose (new assets, unknown prior location).
	Location *Location `json:"location,omitempty"`
	// SessionID is the work session carried over from the previous event.
	SessionID string `json:"session_id,omitempty"`
	// NewAsset is set when no prior event exists for the asset number.
	NewAsset bool `json:"new_asset,omitempty"`
}

// cycleTable describes the fixed lifecycle of one asset kind: the ordered
// default cycle plus kind-specific exception transitions reachable only by
// manual override.
type cycleTable struct {
	cycle      []string
	exceptions map[string]string
	// homeStatus is the status whose selection forces the location back to
	// the organization's reserved home location.
	homeStatus string
}

var tables = map[string]cycleTable{
	stor.KIND_SDCARD: {
		cycle: []string{
			stor.STATUS_JOB_BOX,
			stor.STATUS_CAMERA,
			stor.STATUS_ENVELOPE,
			stor.STATUS_UPLOADED,
			stor.STATUS_CLEARED,
		},
		exceptions: map[string]string{
			stor.STATUS_CAMERA_BAG: stor.STATUS_CAMERA,
			stor.STATUS_PERSONAL:   stor.STATUS_CLEARED,
		},
		homeStatus: stor.STATUS_CLEARED,
	},
	stor.KIND_JOBBOX: {
		cycle: []string{
			stor.STATUS_PACKED,
			stor.STATUS_PICKED_UP,
			stor.STATUS_LEFT_JOB,
			stor.STATUS_TURNED_IN,
		},
		exceptions: map[string]string{},
		homeStatus: stor.STATUS_TURNED_IN,
	},
}

// Advisor proposes the next status and location for an asset, given its
// current event. It is a pure component: it never contacts storage and
// never mutates its input.
type Advisor struct {
	Home Location // the organization's reserved home location
}

// Suggest computes the next custody step for an asset.
// A nil last event means the asset is new: SD cards start at the head of
// their cycle, job boxes wait for the operator to choose a work session.
// An unrecognized prior status falls back to the head of the default cycle;
// this recovers corrupt or legacy data instead of blocking the operator.
func (a Advisor) Suggest(kind string, last *stor.AssetEvent) Suggestion {
	table, ok := tables[kind]
	if !ok {
		log.Errorf("Transition advisor: unknown asset kind %q", kind)
		return Suggestion{}
	}

	if last == nil {
		if kind == stor.KIND_JOBBOX {
			return Suggestion{NewAsset: true}
		}
		return Suggestion{Status: table.cycle[0], Location: a.locationFor(table, table.cycle[0], nil)}
	}

	next, ok := table.nextStatus(last.Status)
	if !ok {
		log.Warnf("Transition advisor: unrecognized status %q for %s %s, falling back to %q",
			last.Status, kind, last.AssetNumber, table.cycle[0])
		next = table.cycle[0]
	}

	s := Suggestion{
		Status:   next,
		Location: a.locationFor(table, next, last),
	}

	// The work session rides along every transition except entry into
	// Packed, where the operator binds the box to a new session.
	if kind == stor.KIND_JOBBOX && next != stor.STATUS_PACKED {
		s.SessionID = last.SessionID
	}
	return s
}

// LocationFor returns the location imposed by an operator-selected status,
// or nil when the status imposes none. Selecting the cycle-end status
// (Cleared, Turned In) forces the home location.
func (a Advisor) LocationFor(kind, status string) *Location {
	table, ok := tables[kind]
	if !ok || status != table.homeStatus {
		return nil
	}
	home := a.Home
	return &home
}

// KnownStatuses returns every status recognized for a kind, cycle members
// first, then override-only statuses.
func KnownStatuses(kind string) []string {
	table, ok := tables[kind]
	if !ok {
		return nil
	}
	statuses := append([]string{}, table.cycle...)
	for override := range table.exceptions {
		statuses = append(statuses, override)
	}
	return statuses
}

// IsKnownStatus reports whether a status belongs to the kind's status set.
func IsKnownStatus(kind, status string) bool {
	table, ok := tables[kind]
	if !ok {
		return false
	}
	if _, ok := table.exceptions[status]; ok {
		return true
	}
	return table.indexOf(status) >= 0
}

// nextStatus applies the exception map first, then the default cycle,
// wrapping after the last element.
func (t cycleTable) nextStatus(current string) (string, bool) {
	if next, ok := t.exceptions[current]; ok {
		return next, true
	}
	idx := t.indexOf(current)
	if idx < 0 {
		return "", false
	}
	return t.cycle[(idx+1)%len(t.cycle)], true
}

func (t cycleTable) indexOf(status string) int {
	for i, s := range t.cycle {
		if s == status {
			return i
		}
	}
	return -1
}

func (a Advisor) locationFor(table cycleTable, next string, last *stor.AssetEvent) *Location {
	if next == table.homeStatus {
		home := a.Home
		return &home
	}
	if last == nil || last.LocationID == "" && last.LocationName == "" {
		return nil
	}
	return &Location{ID: last.LocationID, Name: last.LocationName}
}
