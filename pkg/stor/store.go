// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// The stor package manages the storage of our entities.
package stor

import (
	"fmt"
	"os"
	"strings"
	"time"

	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type (

	// generic store
	dbStore struct {
		db       *gorm.DB
		notifier *Notifier
	}

	// entity stores
	eventStore     dbStore
	lockStore      dbStore
	sessionStore   dbStore
	dashboardStore dbStore

	// Store interface, giving access to specialized interfaces
	Store interface {
		Event() EventRepository
		Lock() LockRepository
		Session() SessionRepository
		Dashboard() DashboardRepository
		Notifier() *Notifier
	}

	// EventRepository interface, defining custody event operations.
	// The event log is append-only: there is no update operation, and
	// deletion exists only for manual record correction.
	EventRepository interface {
		ListByAsset(orgID, kind, number string) (*[]AssetEvent, error)
		ListByKind(orgID, kind string) (*[]AssetEvent, error)
		ListWindow(orgID, kind string, from, to time.Time) (*[]AssetEvent, error)
		ListByRecorder(orgID, kind, recorderID string) (*[]AssetEvent, error)
		ListByDate(orgID, dateStr string) (*[]AssetEvent, error)
		ListNumbers(orgID, kind string) ([]string, error)
		Count(orgID string) (int64, error)
		Get(id uint) (*AssetEvent, error)
		Append(e *AssetEvent) error
		Delete(e *AssetEvent) error
	}

	// LockRepository interface, defining entry lock operations
	LockRepository interface {
		Get(containerID, entryID string) (*EntryLock, error)
		Set(l *EntryLock) error
		Delete(containerID, entryID string) error
		ListByContainer(containerID string) (*[]EntryLock, error)
		ListOlderThan(containerID string, cutoff time.Time) (*[]EntryLock, error)
	}

	// SessionRepository interface, defining work session operations
	SessionRepository interface {
		ListByOrg(orgID string) (*[]WorkSession, error)
		List(orgID string, page, perPage int) (*[]WorkSession, error)
		ListUpcoming(orgID string, from time.Time) (*[]WorkSession, error)
		Get(uuid string) (*WorkSession, error)
		Create(s *WorkSession) error
		Update(s *WorkSession) error
		Delete(s *WorkSession) error
	}

	// DashboardRepository interface, defining dashboard operations
	DashboardRepository interface {
		GetDashboard(orgID string) (*DashboardData, error)
	}
)

// implementation of the different repository interfaces
func (s *dbStore) Event() EventRepository {
	return (*eventStore)(s)
}

func (s *dbStore) Lock() LockRepository {
	return (*lockStore)(s)
}

func (s *dbStore) Session() SessionRepository {
	return (*sessionStore)(s)
}

// Dashboard implements Store.
func (s *dbStore) Dashboard() DashboardRepository {
	return (*dashboardStore)(s)
}

// Notifier gives access to the store change feed.
func (s *dbStore) Notifier() *Notifier {
	return s.notifier
}

// Asset kinds
const (
	KIND_SDCARD = "sdcard"
	KIND_JOBBOX = "jobbox"
)

// SD card statuses; the first five form the default cycle,
// the last two are reachable by manual override only.
const (
	STATUS_JOB_BOX    = "Job Box"
	STATUS_CAMERA     = "Camera"
	STATUS_ENVELOPE   = "Envelope"
	STATUS_UPLOADED   = "Uploaded"
	STATUS_CLEARED    = "Cleared"
	STATUS_CAMERA_BAG = "Camera Bag"
	STATUS_PERSONAL   = "Personal"
)

// Job box statuses, a strict 4-cycle.
const (
	STATUS_PACKED    = "Packed"
	STATUS_PICKED_UP = "Picked Up"
	STATUS_LEFT_JOB  = "Left Job"
	STATUS_TURNED_IN = "Turned In"
)

// Init initializes the database
func Init(dsn string) (Store, error) {
	var err error

	dialect, cnx := dbFromURI(dsn)
	if dialect == "error" {
		return nil, fmt.Errorf("incorrect database source name: %q", dsn)
	}

	// add parameters specific to the dialect
	cnx = addParamsDialectSpecific(cnx, dialect)

	// database logger
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level (Silent, Error, Warn, Info)
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Enable color
		},
	)

	db, err := gorm.Open(GormDialector(cnx), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		log.Printf("Failed connecting to the database: %v", err)
		return nil, err
	}

	err = performDialectSpecific(db, dialect)
	if err != nil {
		log.Printf("Failed performing dialect specific database init: %v", err)
		return nil, err
	}

	err = db.AutoMigrate(&AssetEvent{}, &EntryLock{}, &WorkSession{})
	if err != nil {
		log.Printf("Failed performing database automigrate: %v", err)
		return nil, err
	}

	stor := &dbStore{db: db, notifier: NewNotifier()}

	return stor, nil
}

// dbFromURI
func dbFromURI(uri string) (string, string) {
	parts := strings.Split(uri, "://")
	if len(parts) != 2 {
		return "error", ""
	}
	return parts[0], parts[1]
}

// addParamsDialectSpecific takes a connection string and adds parameters specific to the SQL dialect
func addParamsDialectSpecific(cnx, dialect string) string {
	switch dialect {
	case "sqlite3":
		// the connection string may already carry parameters, e.g. file::memory:?cache=shared
		if strings.Contains(cnx, "?") {
			cnx += "&mode=rwc"
		} else {
			cnx += "?cache=shared&mode=rwc"
		}
	case "mysql":
		cnx += "?charset=utf8mb4&parseTime=True&loc=Local"
	case "postgres":
		cnx += "?sslmode=disable"
	default:
		log.Printf("Invalid dialect: %s", dialect)
	}
	return cnx
}

// performDialectSpecific
func performDialectSpecific(db *gorm.DB, dialect string) error {
	switch dialect {
	case "sqlite3":
		err := db.Exec("PRAGMA journal_mode = WAL").Error
		if err != nil {
			return err
		}
		err = db.Exec("PRAGMA foreign_keys = ON").Error
		if err != nil {
			return err
		}
	case "mysql":
		// nothing , so far
	case "postgres":
		// nothing , so far
	default:
		return fmt.Errorf("invalid dialect: %s", dialect)
	}
	return nil
}
