// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package analytics replays filtered custody event sets to derive status
// distributions, dwell times, lifecycle durations and staleness alerts.
// Every function is pure: filtering by organization and time window is the
// caller's pre-step, and the reference time is always injected, so results
// are deterministic for a given input.
package analytics

import (
	"sort"

	"github.com/fieldops/custody-server/pkg/custody"
	"github.com/fieldops/custody-server/pkg/stor"
)

// groupByAsset splits an event set per asset number, each group sorted
// ascending by timestamp with the insertion sequence as tie-break.
func groupByAsset(events []stor.AssetEvent) map[string][]stor.AssetEvent {
	groups := make(map[string][]stor.AssetEvent)
	for _, e := range events {
		groups[e.AssetNumber] = append(groups[e.AssetNumber], e)
	}
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Timestamp.Equal(group[j].Timestamp) {
				return group[i].ID < group[j].ID
			}
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
	}
	return groups
}

// currentByAsset resolves the current event of every asset in the set.
func currentByAsset(events []stor.AssetEvent) map[string]*stor.AssetEvent {
	groups := groupByAsset(events)
	current := make(map[string]*stor.AssetEvent, len(groups))
	for number, group := range groups {
		current[number] = custody.Resolve(group)
	}
	return current
}
