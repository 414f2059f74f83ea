// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package analytics

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fieldops/custody-server/pkg/stor"
)

// WatchLeftJobAlerts recomputes the left-job alert list whenever the store
// reports a change that could affect it: an event for a box already on the
// list, or any job box event recorded by the owning user. It is
// change-driven, not poll-driven; the initial alert set is emitted
// immediately. The feed closes when ctx is cancelled.
func WatchLeftJobAlerts(ctx context.Context, st stor.Store, orgID, ownerID string, threshold time.Duration) (<-chan []LeftJobAlert, error) {

	compute := func() ([]LeftJobAlert, error) {
		events, err := st.Event().ListByKind(orgID, stor.KIND_JOBBOX)
		if err != nil {
			return nil, err
		}
		return LeftJobAlerts(*events, ownerID, threshold, time.Now()), nil
	}

	alerts, err := compute()
	if err != nil {
		return nil, err
	}

	alerted := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		alerted[a.AssetNumber] = true
	}

	changes, cancel := st.Notifier().Subscribe()
	out := make(chan []LeftJobAlert, 8)

	relevant := func(c stor.Change) bool {
		if c.Event == nil || c.Event.OrganizationID != orgID || c.Event.AssetKind != stor.KIND_JOBBOX {
			return false
		}
		if alerted[c.Event.AssetNumber] {
			return true
		}
		return ownerID == "" || c.Event.RecordedByID == ownerID
	}

	go func() {
		defer cancel()
		defer close(out)

		out <- alerts

		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-changes:
				if !ok {
					return
				}
				if !relevant(c) {
					continue
				}
				next, err := compute()
				if err != nil {
					log.Errorf("Left-job alert watch: recompute failed: %v", err)
					continue
				}
				for k := range alerted {
					delete(alerted, k)
				}
				for _, a := range next {
					alerted[a.AssetNumber] = true
				}
				select {
				case out <- next:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
