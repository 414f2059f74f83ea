// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// lockreaper removes stale edit locks, once or on a schedule.
// Acquiring a lock never checks staleness, so a lock left behind by a
// crashed client blocks other editors until this tool (or the server's
// reap endpoint) runs.

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	"github.com/fieldops/custody-server/pkg/lock"
	"github.com/fieldops/custody-server/pkg/stor"
)

// Config of the reaper, processed from LOCKREAPER_* environment variables.
type Config struct {
	Dsn             string   `envconfig:"dsn"`
	Containers      []string `envconfig:"containers"`
	StaleSeconds    int      `split_words:"true"`
	IntervalSeconds int      `split_words:"true"` // 0 runs a single pass
}

func main() {

	verbose := flag.Bool("verbose", false, "if set, display info messages; if not set, display only warnings and errors.")
	flag.Parse()

	if !*verbose {
		log.SetLevel(log.WarnLevel)
	}

	var c Config
	err := envconfig.Process("lockreaper", &c)
	if err != nil {
		log.Fatal("Error: ", err)
	}
	if c.Dsn == "" || len(c.Containers) == 0 {
		fmt.Println("Usage: set LOCKREAPER_DSN and LOCKREAPER_CONTAINERS (comma separated), optionally LOCKREAPER_STALE_SECONDS and LOCKREAPER_INTERVAL_SECONDS")
		os.Exit(1)
	}
	if c.StaleSeconds == 0 {
		c.StaleSeconds = 300
	}

	st, err := stor.Init(c.Dsn)
	if err != nil {
		log.Fatal("Database setup failed: ", err)
	}
	svc := lock.NewService(st)
	threshold := time.Duration(c.StaleSeconds) * time.Second

	for {
		for _, containerID := range c.Containers {
			reaped, err := svc.Reap(containerID, threshold)
			if err != nil {
				log.Errorf("Failed to reap container %s: %v", containerID, err)
				continue
			}
			if reaped > 0 {
				log.Warnf("Reaped %d stale locks in container %s", reaped, containerID)
			}
		}
		if c.IntervalSeconds == 0 {
			return
		}
		time.Sleep(time.Duration(c.IntervalSeconds) * time.Second)
	}
}
