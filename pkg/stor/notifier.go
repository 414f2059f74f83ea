// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Change operations published on the store feed.
const (
	OpEventAppended = "event-appended"
	OpEventDeleted  = "event-deleted"
	OpLockSet       = "lock-set"
	OpLockDeleted   = "lock-deleted"
)

// Change describes one store mutation. Exactly one of Event and Lock is set,
// depending on the operation.
type Change struct {
	Op    string      `json:"op"`
	Event *AssetEvent `json:"event,omitempty"`
	Lock  *EntryLock  `json:"lock,omitempty"`
}

// Notifier fans store changes out to in-process subscribers.
// Delivery is at-least-once from the consumer's point of view: a consumer
// that re-subscribes may observe a change it already acted on. A consumer
// too slow to drain its channel loses changes rather than blocking writers.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan Change)}
}

// Subscribe registers a consumer.
// The returned cancel function detaches the subscription and closes the
// channel; it is safe to call more than once.
func (n *Notifier) Subscribe() (<-chan Change, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan Change, 64)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers a change to every subscriber.
func (n *Notifier) Publish(c Change) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, sub := range n.subs {
		select {
		case sub <- c:
		default:
			log.Warnf("Store change feed: subscriber %d is lagging, change dropped", id)
		}
	}
}
