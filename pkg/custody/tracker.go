// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package custody

import (
	"errors"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/fieldops/custody-server/pkg/conf"
	"github.com/fieldops/custody-server/pkg/stor"
)

// Soft number ranges, advisory only: used for number suggestion,
// never enforced on recorded events.
const (
	sdCardNumberBase = 1001
	sdCardNumberTop  = 2000
	jobBoxNumberBase = 3001
)

// ErrUnknownStatus is returned when an operator submits a status outside
// the asset kind's status set.
var ErrUnknownStatus = errors.New("unknown status for this asset kind")

type (

	// Custody management interface
	CustodyManager interface {
		Current(orgID, kind, number string) (*stor.AssetEvent, error)
		SuggestNext(orgID, kind, number string) (*Suggestion, error)
		RecordScan(scan *ScanRequest) (*stor.AssetEvent, error)
		History(orgID, kind, number string) (*[]stor.AssetEvent, error)
		Correct(eventID uint) error
		NextAvailableNumber(orgID, kind string) (string, error)
	}

	Tracker struct {
		*conf.Config // TODO: change for an interface (dependency)
		stor.Store
	}

	// ScanRequest carries an operator-confirmed custody entry: the advisor's
	// suggestion after any manual overrides.
	ScanRequest struct {
		OrganizationID string
		AssetKind      string
		AssetNumber    string
		Status         string
		LocationID     string
		LocationName   string
		RecordedByID   string
		RecordedByName string
		SessionID      string
		UploadSource   string
	}
)

func NewTracker(cf *conf.Config, st stor.Store) *Tracker {
	return &Tracker{
		Config: cf,
		Store:  st,
	}
}

// Advisor returns a transition advisor bound to the organization's home location.
func (t *Tracker) Advisor() Advisor {
	return Advisor{Home: Location{
		ID:   t.Config.Custody.HomeLocationID,
		Name: t.Config.Custody.HomeLocationName,
	}}
}

// ====

// Current resolves the latest custody event of an asset.
// A nil event with a nil error means the asset is new; this is not an
// error condition.
func (t *Tracker) Current(orgID, kind, number string) (*stor.AssetEvent, error) {

	events, err := t.Store.Event().ListByAsset(orgID, kind, number)
	if err != nil {
		return nil, err
	}
	return Resolve(*events), nil
}

// SuggestNext resolves the latest event of an asset and proposes the next
// custody step. The caller presents the suggestion for operator
// confirmation; every field may be overridden before commit.
func (t *Tracker) SuggestNext(orgID, kind, number string) (*Suggestion, error) {

	last, err := t.Current(orgID, kind, number)
	if err != nil {
		return nil, err
	}
	s := t.Advisor().Suggest(kind, last)
	return &s, nil
}

// RecordScan appends a confirmed custody event to the log.
// The timestamp is server-assigned on append; a failed append is reported
// to the caller, never retried here.
func (t *Tracker) RecordScan(scan *ScanRequest) (*stor.AssetEvent, error) {

	if !IsKnownStatus(scan.AssetKind, scan.Status) {
		return nil, fmt.Errorf("%w: %q for kind %q", ErrUnknownStatus, scan.Status, scan.AssetKind)
	}

	event := &stor.AssetEvent{
		OrganizationID: scan.OrganizationID,
		AssetKind:      scan.AssetKind,
		AssetNumber:    scan.AssetNumber,
		Status:         scan.Status,
		LocationID:     scan.LocationID,
		LocationName:   stor.NormalizeLocationName(scan.LocationName),
		RecordedByID:   scan.RecordedByID,
		RecordedByName: scan.RecordedByName,
		SessionID:      scan.SessionID,
		UploadSource:   scan.UploadSource,
	}

	// selecting the cycle-end status forces the home location
	if home := t.Advisor().LocationFor(scan.AssetKind, scan.Status); home != nil {
		event.LocationID = home.ID
		event.LocationName = home.Name
	}

	// a job box keeps its session through every non-Packed transition
	if scan.AssetKind == stor.KIND_JOBBOX && scan.Status != stor.STATUS_PACKED && scan.SessionID == "" {
		last, err := t.Current(scan.OrganizationID, scan.AssetKind, scan.AssetNumber)
		if err != nil {
			return nil, err
		}
		if last != nil {
			event.SessionID = last.SessionID
		}
	}

	err := event.Validate()
	if err != nil {
		return nil, err
	}

	err = t.Store.Event().Append(event)
	if err != nil {
		log.Errorf("Failed to append a custody event: %v", err)
		return nil, err
	}

	log.Infof("Custody event: %s %s -> %s at %s, recorded by %s",
		event.AssetKind, event.AssetNumber, event.Status, event.LocationName, event.RecordedByName)

	return event, nil
}

// History lists the full custody trail of an asset, oldest first.
func (t *Tracker) History(orgID, kind, number string) (*[]stor.AssetEvent, error) {

	events, err := t.Store.Event().ListByAsset(orgID, kind, number)
	if err != nil {
		return nil, err
	}
	// the store returns newest first
	for i, j := 0, len(*events)-1; i < j; i, j = i+1, j-1 {
		(*events)[i], (*events)[j] = (*events)[j], (*events)[i]
	}
	return events, nil
}

// Correct removes a single event from the log; manual record correction only.
func (t *Tracker) Correct(eventID uint) error {

	event, err := t.Store.Event().Get(eventID)
	if err != nil {
		return errors.New("failed to get the event to correct")
	}

	log.Warnf("Correcting the custody log: removing event %d (%s %s, %s)",
		event.ID, event.AssetKind, event.AssetNumber, event.Status)

	return t.Store.Event().Delete(event)
}

// NextAvailableNumber proposes the next free asset number within the soft
// range conventionally used for the kind. Advisory only.
func (t *Tracker) NextAvailableNumber(orgID, kind string) (string, error) {

	numbers, err := t.Store.Event().ListNumbers(orgID, kind)
	if err != nil {
		return "", err
	}

	base := jobBoxNumberBase
	top := 0
	if kind == stor.KIND_SDCARD {
		base = sdCardNumberBase
		top = sdCardNumberTop
	}

	used := make(map[int]bool, len(numbers))
	highest := base - 1
	for _, n := range numbers {
		v, err := strconv.Atoi(n)
		if err != nil {
			continue // non-numeric legacy identifier
		}
		used[v] = true
		if v > highest && (top == 0 || v <= top) {
			highest = v
		}
	}

	next := highest + 1
	if top != 0 && next > top {
		// the range is saturated, reuse the lowest free slot
		for v := base; v <= top; v++ {
			if !used[v] {
				return strconv.Itoa(v), nil
			}
		}
		return "", errors.New("no asset number available in the conventional range")
	}
	return strconv.Itoa(next), nil
}
