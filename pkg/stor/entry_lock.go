// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntryLock data model.
// At most one lock row exists per (container, entry) pair; the absence of
// a row means the entry is unlocked. Locks are overwritten in place on
// re-acquire and removed on release or by the stale lock reaper.
type EntryLock struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	ContainerID string    `json:"container_id" gorm:"type:varchar(100);uniqueIndex:idx_entry,priority:1"`
	EntryID     string    `json:"entry_id" gorm:"type:varchar(100);uniqueIndex:idx_entry,priority:2"`
	EditorID    string    `json:"editor_id" gorm:"type:varchar(100)"`
	EditorName  string    `json:"editor_name" gorm:"type:varchar(255)"`
	AcquiredAt  time.Time `json:"acquired_at" gorm:"index"`
}

// Get returns the active lock for an entry, or nil if the entry is unlocked.
func (s lockStore) Get(containerID, entryID string) (*EntryLock, error) {
	var lock EntryLock
	err := s.db.Where("container_id = ? AND entry_id = ?", containerID, entryID).First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &lock, err
}

// Set creates or overwrites the lock row for an entry.
func (s lockStore) Set(l *EntryLock) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "container_id"}, {Name: "entry_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"editor_id", "editor_name", "acquired_at"}),
	}).Create(l).Error
	if err != nil {
		return err
	}
	s.notifier.Publish(Change{Op: OpLockSet, Lock: l})
	return nil
}

func (s lockStore) Delete(containerID, entryID string) error {
	lock, err := s.Get(containerID, entryID)
	if err != nil {
		return err
	}
	if lock == nil {
		return nil
	}
	err = s.db.Delete(lock).Error
	if err != nil {
		return err
	}
	s.notifier.Publish(Change{Op: OpLockDeleted, Lock: lock})
	return nil
}

func (s lockStore) ListByContainer(containerID string) (*[]EntryLock, error) {
	locks := []EntryLock{}
	// security: limited to 1000 results
	return &locks, s.db.Limit(1000).Where("container_id = ?", containerID).Order("entry_id ASC").Find(&locks).Error
}

func (s lockStore) ListOlderThan(containerID string, cutoff time.Time) (*[]EntryLock, error) {
	locks := []EntryLock{}
	return &locks, s.db.Limit(1000).
		Where("container_id = ? AND acquired_at < ?", containerID, cutoff).
		Order("entry_id ASC").Find(&locks).Error
}
