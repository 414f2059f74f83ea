// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// WorkSession data model.
// A scheduled shoot at a school or site; a job box entering the Packed
// status is bound to one and its id then rides along the box's custody
// events until the box is packed again.
type WorkSession struct {
	gorm.Model
	UUID           string     `json:"uuid" validate:"required,uuid" gorm:"type:varchar(100);uniqueIndex"`
	OrganizationID string     `json:"organization_id" validate:"required" gorm:"type:varchar(100);index"`
	LocationID     string     `json:"location_id" validate:"required" gorm:"type:varchar(100);index"`
	LocationName   string     `json:"location_name" gorm:"type:varchar(255)"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty" gorm:"index"`
	Description    string     `json:"description,omitempty" gorm:"type:varchar(255)"`
}

// Validate checks required fields and values
func (s *WorkSession) Validate() error {

	validate := validator.New()
	return validate.Struct(s)
}

func (s sessionStore) ListByOrg(orgID string) (*[]WorkSession, error) {
	sessions := []WorkSession{}
	// security: limited to 1000 results
	return &sessions, s.db.Limit(1000).Where("organization_id = ?", orgID).Order("id DESC").Find(&sessions).Error
}

// List returns one page of the organization's sessions, newest first.
func (s sessionStore) List(orgID string, page, perPage int) (*[]WorkSession, error) {
	sessions := []WorkSession{}
	return &sessions, s.db.Offset((page-1)*perPage).Limit(perPage).
		Where("organization_id = ?", orgID).Order("id DESC").Find(&sessions).Error
}

func (s sessionStore) ListUpcoming(orgID string, from time.Time) (*[]WorkSession, error) {
	sessions := []WorkSession{}
	return &sessions, s.db.Limit(1000).
		Where("organization_id = ? AND scheduled_at >= ?", orgID, from).
		Order("scheduled_at ASC").Find(&sessions).Error
}

func (s sessionStore) Get(uuid string) (*WorkSession, error) {
	var session WorkSession
	return &session, s.db.Where("uuid = ?", uuid).First(&session).Error
}

func (s sessionStore) Create(newSession *WorkSession) error {
	return s.db.Create(newSession).Error
}

func (s sessionStore) Update(changedSession *WorkSession) error {
	return s.db.Save(changedSession).Error
}

func (s sessionStore) Delete(deletedSession *WorkSession) error {
	return s.db.Delete(deletedSession).Error
}
