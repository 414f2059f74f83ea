// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package analytics

import (
	"sort"
	"time"

	"github.com/fieldops/custody-server/pkg/stor"
)

// LeftJobAlert flags a job box sitting at a job site past the alert
// threshold.
type LeftJobAlert struct {
	AssetNumber    string  `json:"asset_number"`
	LocationName   string  `json:"location_name,omitempty"`
	RecordedByName string  `json:"recorded_by_name"`
	SessionID      string  `json:"session_id,omitempty"`
	ElapsedHours   float64 `json:"elapsed_hours"`
}

// LeftJobAlerts resolves the current event of every asset in the set and
// reports those whose status is Left Job for longer than the threshold.
// An empty ownerID matches every recorder; otherwise only boxes last
// recorded by that user are reported.
func LeftJobAlerts(events []stor.AssetEvent, ownerID string, threshold time.Duration, now time.Time) []LeftJobAlert {

	current := currentByAsset(events)

	alerts := []LeftJobAlert{}
	for number, e := range current {
		if e.Status != stor.STATUS_LEFT_JOB {
			continue
		}
		if ownerID != "" && e.RecordedByID != ownerID {
			continue
		}
		elapsed := now.Sub(e.Timestamp)
		if elapsed <= threshold {
			continue
		}
		alerts = append(alerts, LeftJobAlert{
			AssetNumber:    number,
			LocationName:   e.LocationName,
			RecordedByName: e.RecordedByName,
			SessionID:      e.SessionID,
			ElapsedHours:   elapsed.Hours(),
		})
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].ElapsedHours == alerts[j].ElapsedHours {
			return alerts[i].AssetNumber < alerts[j].AssetNumber
		}
		return alerts[i].ElapsedHours > alerts[j].ElapsedHours
	})
	return alerts
}
