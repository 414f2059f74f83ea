// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package lock

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Watch emits the entryID -> editor name mapping of a container whenever a
// lock in that container is set or removed, starting with the current
// snapshot. Concurrent viewers use it to show "being edited by" badges
// without polling. The feed closes when ctx is cancelled.
func (s *Service) Watch(ctx context.Context, containerID string) (<-chan map[string]string, error) {

	snapshot, err := s.Holders(containerID)
	if err != nil {
		return nil, err
	}

	changes, cancel := s.Store.Notifier().Subscribe()
	out := make(chan map[string]string, 8)

	go func() {
		defer cancel()
		defer close(out)

		out <- snapshot

		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-changes:
				if !ok {
					return
				}
				if c.Lock == nil || c.Lock.ContainerID != containerID {
					continue
				}
				holders, err := s.Holders(containerID)
				if err != nil {
					log.Errorf("Lock watch on %s: failed to reload holders: %v", containerID, err)
					continue
				}
				select {
				case out <- holders:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
