// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AssetEvent data model.
// we don't include the full gorm model here, as no update nor soft deletion
// occurs on custody events; the row id doubles as the insertion sequence
// used to break timestamp ties.
type AssetEvent struct {
	ID             uint      `json:"sequence" gorm:"primaryKey"`
	OrganizationID string    `json:"organization_id" validate:"required" gorm:"type:varchar(100);index:idx_asset,priority:1"`
	AssetKind      string    `json:"asset_kind" validate:"oneof=sdcard jobbox" gorm:"type:varchar(20);index:idx_asset,priority:2"`
	AssetNumber    string    `json:"asset_number" validate:"required,number" gorm:"type:varchar(20);index:idx_asset,priority:3"`
	Timestamp      time.Time `json:"timestamp" gorm:"index"` // server-assigned
	Status         string    `json:"status" validate:"required" gorm:"type:varchar(50);index"`
	LocationID     string    `json:"location_id,omitempty" gorm:"type:varchar(100)"`
	LocationName   string    `json:"location_name,omitempty" gorm:"type:varchar(255)"`
	RecordedByID   string    `json:"recorded_by_id,omitempty" gorm:"type:varchar(100);index"`
	RecordedByName string    `json:"recorded_by_name" validate:"required" gorm:"type:varchar(255)"`
	SessionID      string    `json:"session_id,omitempty" gorm:"type:varchar(100);index"` // set when a job box is tied to a work session
	UploadSource   string    `json:"upload_source,omitempty" gorm:"type:varchar(50)"`     // sd cards only
}

// Validate checks required fields and values
func (e *AssetEvent) Validate() error {

	validate := validator.New()
	return validate.Struct(e)
}

// NormalizeLocationName maps a raw site name to its display form.
func NormalizeLocationName(name string) string {
	caser := cases.Title(language.AmericanEnglish)
	return caser.String(name)
}

func (s eventStore) ListByAsset(orgID, kind, number string) (*[]AssetEvent, error) {
	events := []AssetEvent{}
	// security: limited to 500 results; newest first so the cap drops old rows
	return &events, s.db.Limit(500).
		Where("organization_id = ? AND asset_kind = ? AND asset_number = ?", orgID, kind, number).
		Order("id DESC").Find(&events).Error
}

func (s eventStore) ListByKind(orgID, kind string) (*[]AssetEvent, error) {
	events := []AssetEvent{}
	// security: limited to 5000 results; newest first so the cap drops old rows
	return &events, s.db.Limit(5000).
		Where("organization_id = ? AND asset_kind = ?", orgID, kind).
		Order("id DESC").Find(&events).Error
}

func (s eventStore) ListWindow(orgID, kind string, from, to time.Time) (*[]AssetEvent, error) {
	events := []AssetEvent{}
	return &events, s.db.Limit(5000).
		Where("organization_id = ? AND asset_kind = ? AND timestamp >= ? AND timestamp < ?", orgID, kind, from, to).
		Order("id ASC").Find(&events).Error
}

func (s eventStore) ListByRecorder(orgID, kind, recorderID string) (*[]AssetEvent, error) {
	events := []AssetEvent{}
	return &events, s.db.Limit(5000).
		Where("organization_id = ? AND asset_kind = ? AND recorded_by_id = ?", orgID, kind, recorderID).
		Order("id ASC").Find(&events).Error
}

// ListByDate finds events by recording date or month.
// dateStr can be:
// - a specific date: "2025-08-15" (YYYY-MM-DD)
// - a month: "2025-08" (YYYY-MM)
func (s eventStore) ListByDate(orgID, dateStr string) (*[]AssetEvent, error) {
	events := []AssetEvent{}

	var from time.Time
	var to time.Time
	var err error

	switch len(dateStr) {
	case 7: // month format: YYYY-MM
		from, err = time.Parse("2006-01", dateStr)
		if err != nil {
			return &events, err
		}
		to = from.AddDate(0, 1, 0)
	case 10: // date format: YYYY-MM-DD
		from, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return &events, err
		}
		to = from.AddDate(0, 0, 1)
	default:
		return &events, errors.New("invalid date format: use YYYY-MM for month or YYYY-MM-DD for specific date")
	}

	return &events, s.db.Limit(5000).
		Where("organization_id = ? AND timestamp >= ? AND timestamp < ?", orgID, from, to).
		Order("id DESC").Find(&events).Error
}

// ListNumbers returns the distinct asset numbers seen for a kind.
func (s eventStore) ListNumbers(orgID, kind string) ([]string, error) {
	numbers := []string{}
	return numbers, s.db.Model(&AssetEvent{}).
		Where("organization_id = ? AND asset_kind = ?", orgID, kind).
		Distinct("asset_number").Order("asset_number ASC").
		Pluck("asset_number", &numbers).Error
}

func (s eventStore) Count(orgID string) (int64, error) {
	var count int64
	return count, s.db.Model(AssetEvent{}).Where("organization_id = ?", orgID).Count(&count).Error
}

func (s eventStore) Get(id uint) (*AssetEvent, error) {
	var event AssetEvent
	return &event, s.db.Where("id = ?", id).First(&event).Error
}

// Append assigns the server timestamp and persists the event.
// The event log is append-only; callers never pass a timestamp of their own,
// which is how concurrent writes from different devices get totally ordered.
func (s eventStore) Append(newEvent *AssetEvent) error {
	if newEvent.Timestamp.IsZero() {
		newEvent.Timestamp = time.Now().Truncate(time.Millisecond)
	}
	err := s.db.Create(newEvent).Error
	if err != nil {
		return err
	}
	s.notifier.Publish(Change{Op: OpEventAppended, Event: newEvent})
	return nil
}

// Delete removes an event; used for manual record correction only.
func (s eventStore) Delete(deletedEvent *AssetEvent) error {
	err := s.db.Delete(deletedEvent).Error
	if err != nil {
		return err
	}
	s.notifier.Publish(Change{Op: OpEventDeleted, Event: deletedEvent})
	return nil
}
