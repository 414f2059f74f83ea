// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package analytics

import (
	"sort"

	"github.com/fieldops/custody-server/pkg/stor"
)

// ActivityCount ranks one photographer by the number of distinct assets
// they touched.
type ActivityCount struct {
	RecordedByName string `json:"recorded_by_name"`
	Assets         int    `json:"assets"`
}

// PhotographerActivity counts the distinct asset numbers each recorder
// touched within the window and returns the top n, busiest first.
// Event count deliberately does not matter: scanning the same card ten
// times is one asset touched.
func PhotographerActivity(events []stor.AssetEvent, n int) []ActivityCount {

	touched := make(map[string]map[string]bool)
	for _, e := range events {
		assets, ok := touched[e.RecordedByName]
		if !ok {
			assets = make(map[string]bool)
			touched[e.RecordedByName] = assets
		}
		assets[e.AssetKind+"/"+e.AssetNumber] = true
	}

	ranking := make([]ActivityCount, 0, len(touched))
	for name, assets := range touched {
		ranking = append(ranking, ActivityCount{RecordedByName: name, Assets: len(assets)})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Assets == ranking[j].Assets {
			return ranking[i].RecordedByName < ranking[j].RecordedByName
		}
		return ranking[i].Assets > ranking[j].Assets
	})

	if n > 0 && len(ranking) > n {
		ranking = ranking[:n]
	}
	return ranking
}
