// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Custody Server tracks physical assets for field photography teams.
package main

import (
	"net/http"
	"os"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/fieldops/custody-server/pkg/conf"
	"github.com/fieldops/custody-server/pkg/stor"
)

// Server context
type Server struct {
	*conf.Config
	stor.Store
	Router *chi.Mux
}

func main() {

	s := Server{}

	configFile := os.Getenv("FIELDOPS_CUSTODYSERVER_CONFIG")
	if configFile == "" {
		panic("Failed to retrieve the configuration file path.")
	}

	c, err := conf.Init(configFile)
	if err != nil {
		panic("Failed to read the configuration.")
	}

	s.Config = c

	setLogLevel(c.LogLevel)

	s.Initialize()

	// reload tunable thresholds when the configuration file changes
	go s.watchConfig(configFile)

	log.Info("The server is ready.")

	s.Run(":" + strconv.Itoa(c.Port))
}

// Initialize sets up the database and routes
func (s *Server) Initialize() {
	var err error

	// Setup the database
	s.Store, err = stor.Init(s.Config.Dsn)
	if err != nil {
		panic("Database setup failed.")
	}

	// Setup the routes
	s.Router = s.setRoutes()
}

// Run starts the server
func (s *Server) Run(port string) {
	log.Fatal(http.ListenAndServe(port, s.Router))
}

// watchConfig re-reads the configuration file on change.
// Only the tunable thresholds are refreshed; the dsn and port require a restart.
func (s *Server) watchConfig(configFile string) {

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Errorf("Failed to watch the configuration file: %v", err)
		return
	}
	defer watcher.Close()

	if err = watcher.Add(configFile); err != nil {
		log.Errorf("Failed to watch the configuration file: %v", err)
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				fresh, err := conf.Init(configFile)
				if err != nil {
					log.Warnf("Configuration reload failed: %v", err)
					continue
				}
				s.Config.Locks = fresh.Locks
				s.Config.Analytics = fresh.Analytics
				s.Config.Custody = fresh.Custody
				log.Info("Configuration thresholds reloaded.")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Configuration watch error: %v", err)
		}
	}
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}
