// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package analytics

import (
	"time"

	"github.com/fieldops/custody-server/pkg/stor"
)

// Lifecycle outlier bounds, in days: a completed SD card cycle outside
// (0, 90) days is discarded as bad data.
const lifecycleMaxDays = 90

// processTimeCap discards job box process samples of a week or more.
const processTimeCap = 168 * time.Hour

// LifecycleStats aggregates completed SD card cycles, from entering a job
// box to being cleared.
type LifecycleStats struct {
	Count       int     `json:"count"`
	AverageDays float64 `json:"average_days"`
	MinDays     float64 `json:"min_days"`
	MaxDays     float64 `json:"max_days"`
}

// LifecycleDuration measures, per SD card, every span from a cycle-start
// event (Job Box) to the earliest subsequent cycle-end event (Cleared).
// A card cycling more than once in the window contributes one sample per
// non-overlapping start/end pair.
func LifecycleDuration(events []stor.AssetEvent) LifecycleStats {

	groups := groupByAsset(events)

	var stats LifecycleStats
	for _, group := range groups {
		i := 0
		for i < len(group) {
			if group[i].Status != stor.STATUS_JOB_BOX {
				i++
				continue
			}
			start := group[i]
			end := -1
			for j := i + 1; j < len(group); j++ {
				if group[j].Status == stor.STATUS_CLEARED {
					end = j
					break
				}
			}
			if end < 0 {
				break // open cycle, nothing further to match
			}
			days := group[end].Timestamp.Sub(start.Timestamp).Hours() / 24
			if days > 0 && days < lifecycleMaxDays {
				stats.Count++
				stats.AverageDays += days
				if stats.MinDays == 0 || days < stats.MinDays {
					stats.MinDays = days
				}
				if days > stats.MaxDays {
					stats.MaxDays = days
				}
			}
			i = end + 1
		}
	}

	if stats.Count > 0 {
		stats.AverageDays /= float64(stats.Count)
	}
	return stats
}

// ProcessTimeStats reports the mean job box turnaround: assignment is the
// time from Packed to Picked Up, completion from Picked Up to Turned In.
type ProcessTimeStats struct {
	AssignmentHours   float64 `json:"assignment_hours"`
	AssignmentSamples int     `json:"assignment_samples"`
	CompletionHours   float64 `json:"completion_hours"`
	CompletionSamples int     `json:"completion_samples"`
}

// JobBoxProcessTime scans adjacent event pairs of each box; samples of a
// week or more are discarded.
func JobBoxProcessTime(events []stor.AssetEvent) ProcessTimeStats {

	groups := groupByAsset(events)

	var stats ProcessTimeStats
	for _, group := range groups {
		for i := 0; i < len(group)-1; i++ {
			delta := group[i+1].Timestamp.Sub(group[i].Timestamp)
			if delta >= processTimeCap {
				continue
			}
			switch {
			case group[i].Status == stor.STATUS_PACKED && group[i+1].Status == stor.STATUS_PICKED_UP:
				stats.AssignmentHours += delta.Hours()
				stats.AssignmentSamples++
			case group[i].Status == stor.STATUS_PICKED_UP && group[i+1].Status == stor.STATUS_TURNED_IN:
				stats.CompletionHours += delta.Hours()
				stats.CompletionSamples++
			}
		}
	}

	if stats.AssignmentSamples > 0 {
		stats.AssignmentHours /= float64(stats.AssignmentSamples)
	}
	if stats.CompletionSamples > 0 {
		stats.CompletionHours /= float64(stats.CompletionSamples)
	}
	return stats
}
