// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package analytics

import (
	"sort"

	"github.com/fieldops/custody-server/pkg/stor"
)

// StatusCount is one entry of a status distribution.
type StatusCount struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// StatusDistribution reports how many assets currently sit in each status.
// Only the resolved current event of each asset counts; the percentage is
// relative to the number of distinct assets seen in the window.
func StatusDistribution(events []stor.AssetEvent) []StatusCount {

	current := currentByAsset(events)
	totalAssets := len(current)
	if totalAssets == 0 {
		return []StatusCount{}
	}

	counts := make(map[string]int)
	for _, e := range current {
		counts[e.Status]++
	}

	distribution := make([]StatusCount, 0, len(counts))
	for status, count := range counts {
		distribution = append(distribution, StatusCount{
			Status:     status,
			Count:      count,
			Percentage: float64(count) / float64(totalAssets) * 100,
		})
	}

	sort.Slice(distribution, func(i, j int) bool {
		if distribution[i].Count == distribution[j].Count {
			return distribution[i].Status < distribution[j].Status
		}
		return distribution[i].Count > distribution[j].Count
	})
	return distribution
}
