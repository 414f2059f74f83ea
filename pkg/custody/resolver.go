// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package custody implements the asset chain-of-custody core: resolution
// of an asset's current state from its event history, and suggestion of
// the next lifecycle transition.
package custody

import (
	"github.com/fieldops/custody-server/pkg/stor"
)

// Resolve returns the current event of an asset, i.e. the event with the
// maximum timestamp, or nil if the input is empty.
// Ties on the timestamp are broken by the insertion sequence, so the result
// is deterministic for any permutation of the same event set.
func Resolve(events []stor.AssetEvent) *stor.AssetEvent {
	if len(events) == 0 {
		return nil
	}

	current := &events[0]
	for i := 1; i < len(events); i++ {
		e := &events[i]
		if e.Timestamp.After(current.Timestamp) {
			current = e
		} else if e.Timestamp.Equal(current.Timestamp) && e.ID > current.ID {
			current = e
		}
	}
	return current
}
