// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package lock implements a lease-style mutual exclusion service over
// shared mutable records. Locks are an advisory aid for avoiding duplicate
// concurrent edits, not a correctness-critical mutex: acquisition is a
// read-then-write, and the narrow race between two devices resolves as
// last-writer-wins.
package lock

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fieldops/custody-server/pkg/stor"
)

// ConflictError reports that a lock operation was refused because the
// entry is held by another editor. It carries the holder's display name so
// callers can show "currently being edited by X".
type ConflictError struct {
	EntryID    string
	HolderID   string
	HolderName string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("entry %s is locked by %s", e.EntryID, e.HolderName)
}

// Status is the read-only view of one entry lock.
type Status struct {
	Locked     bool   `json:"locked"`
	EditorName string `json:"editor_name,omitempty"`
	AcquiredAt string `json:"acquired_at,omitempty"`
}

type Service struct {
	stor.Store
}

func NewService(st stor.Store) *Service {
	return &Service{Store: st}
}

// Acquire takes or refreshes the lock on an entry.
// Re-acquiring an entry already held by the same editor succeeds and
// refreshes the acquisition time. Acquire performs no staleness check: a
// lock left behind by a crashed client keeps blocking other editors until
// a reap pass removes it.
func (s *Service) Acquire(containerID, entryID, editorID, editorName string) error {

	held, err := s.Store.Lock().Get(containerID, entryID)
	if err != nil {
		return err
	}
	if held != nil && held.EditorID != editorID {
		return &ConflictError{EntryID: entryID, HolderID: held.EditorID, HolderName: held.EditorName}
	}

	l := &stor.EntryLock{
		ContainerID: containerID,
		EntryID:     entryID,
		EditorID:    editorID,
		EditorName:  editorName,
		AcquiredAt:  time.Now().Truncate(time.Millisecond),
	}
	return s.Store.Lock().Set(l)
}

// Release frees the lock on an entry.
// Releasing an unlocked entry is an idempotent no-op; releasing an entry
// held by another editor fails and leaves the lock in place.
func (s *Service) Release(containerID, entryID, editorID string) error {

	held, err := s.Store.Lock().Get(containerID, entryID)
	if err != nil {
		return err
	}
	if held == nil {
		return nil
	}
	if held.EditorID != editorID {
		return &ConflictError{EntryID: entryID, HolderID: held.EditorID, HolderName: held.EditorName}
	}
	return s.Store.Lock().Delete(containerID, entryID)
}

// Check reports the lock state of an entry without side effects.
func (s *Service) Check(containerID, entryID string) (*Status, error) {

	held, err := s.Store.Lock().Get(containerID, entryID)
	if err != nil {
		return nil, err
	}
	if held == nil {
		return &Status{}, nil
	}
	return &Status{
		Locked:     true,
		EditorName: held.EditorName,
		AcquiredAt: held.AcquiredAt.Format(time.RFC3339),
	}, nil
}

// Reap deletes every lock in a container older than the stale threshold
// and returns the number removed. Running it twice in a row has no
// additional effect after the first pass.
func (s *Service) Reap(containerID string, staleThreshold time.Duration) (int, error) {

	cutoff := time.Now().Add(-staleThreshold)
	stale, err := s.Store.Lock().ListOlderThan(containerID, cutoff)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, l := range *stale {
		err = s.Store.Lock().Delete(l.ContainerID, l.EntryID)
		if err != nil {
			return reaped, err
		}
		log.Infof("Reaped a stale lock on %s/%s held by %s since %s",
			l.ContainerID, l.EntryID, l.EditorName, l.AcquiredAt.Format(time.RFC822))
		reaped++
	}
	return reaped, nil
}

// Holders returns the current entryID -> editor name mapping for a container.
func (s *Service) Holders(containerID string) (map[string]string, error) {

	locks, err := s.Store.Lock().ListByContainer(containerID)
	if err != nil {
		return nil, err
	}
	holders := make(map[string]string, len(*locks))
	for _, l := range *locks {
		holders[l.EntryID] = l.EditorName
	}
	return holders, nil
}
