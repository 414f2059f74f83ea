// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package analytics

import (
	"sort"
	"time"

	"github.com/fieldops/custody-server/pkg/stor"
)

// openDwellCap bounds the duration attributed to an asset's final, still
// open event. Assets abandoned in a status for longer do not contribute,
// which keeps never-updated assets from skewing the averages.
const openDwellCap = 30 * 24 * time.Hour

// DwellStat is the average time assets spend in one status before moving on.
type DwellStat struct {
	Status       string  `json:"status"`
	AverageHours float64 `json:"average_hours"`
	// AverageDays is only set when the average reaches a full day.
	AverageDays float64 `json:"average_days,omitempty"`
	Samples     int     `json:"samples"`
}

// DwellTime attributes, for each adjacent event pair of each asset, the
// elapsed time to the earlier event's status, then averages per status.
// The final event of each asset contributes now - timestamp, capped by
// openDwellCap.
func DwellTime(events []stor.AssetEvent, now time.Time) []DwellStat {

	groups := groupByAsset(events)

	type bucket struct {
		total   time.Duration
		samples int
	}
	buckets := make(map[string]*bucket)

	attribute := func(status string, d time.Duration) {
		b, ok := buckets[status]
		if !ok {
			b = &bucket{}
			buckets[status] = b
		}
		b.total += d
		b.samples++
	}

	for _, group := range groups {
		for i := 0; i < len(group)-1; i++ {
			attribute(group[i].Status, group[i+1].Timestamp.Sub(group[i].Timestamp))
		}
		last := group[len(group)-1]
		if open := now.Sub(last.Timestamp); open < openDwellCap {
			attribute(last.Status, open)
		}
	}

	stats := make([]DwellStat, 0, len(buckets))
	for status, b := range buckets {
		avg := b.total / time.Duration(b.samples)
		s := DwellStat{
			Status:       status,
			AverageHours: avg.Hours(),
			Samples:      b.samples,
		}
		if avg >= 24*time.Hour {
			s.AverageDays = avg.Hours() / 24
		}
		stats = append(stats, s)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Status < stats[j].Status
	})
	return stats
}
