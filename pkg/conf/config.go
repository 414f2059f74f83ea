// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package conf

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

// Custody Server configuration
type Config struct {
	LogLevel      string `yaml:"log_level"` // "debug", "info", "warn", "error"
	PublicBaseUrl string `yaml:"public_base_url"`
	Port          int    `yaml:"port"`
	Dsn           string `yaml:"dsn"`
	Access        `yaml:"access"`
	JWT           `yaml:"jwt"`
	Custody       `yaml:"custody"`
	Locks         `yaml:"locks"`
	Analytics     `yaml:"analytics"`
}

// Access holds the credentials protecting the admin routes.
type Access struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// JWT holds the secret used to verify field-operator tokens.
type JWT struct {
	SecretKey string `yaml:"secret_key"`
}

// Custody holds the organization-wide custody defaults.
type Custody struct {
	HomeLocationID   string `yaml:"home_location_id"`   // reserved site for cleared cards and turned-in boxes
	HomeLocationName string `yaml:"home_location_name"` // e.g. "Studio"
}

type Locks struct {
	StaleThresholdSeconds int `yaml:"stale_threshold_seconds"` // default 300
}

type Analytics struct {
	LeftJobAlertHours int `yaml:"left_job_alert_hours"` // default 12
	TopPhotographers  int `yaml:"top_photographers"`    // default 5
}

// Init reads and checks the configuration file
func Init(configFile string) (*Config, error) {

	var c Config

	if configFile != "" {
		f, _ := filepath.Abs(configFile)
		yamlData, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		err = yaml.Unmarshal(yamlData, &c)
		if err != nil {
			return nil, err
		}

	} else {
		return nil, errors.New("failed to find the configuration file")
	}

	c.setDefaults()

	return &c, nil
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = 8081
	}
	if c.Locks.StaleThresholdSeconds == 0 {
		c.Locks.StaleThresholdSeconds = 300
	}
	if c.Analytics.LeftJobAlertHours == 0 {
		c.Analytics.LeftJobAlertHours = 12
	}
	if c.Analytics.TopPhotographers == 0 {
		c.Analytics.TopPhotographers = 5
	}
	if c.Custody.HomeLocationName == "" {
		c.Custody.HomeLocationName = "Studio"
	}
}

// StaleThreshold returns the lock staleness threshold as a duration.
func (c *Config) StaleThreshold() time.Duration {
	return time.Duration(c.Locks.StaleThresholdSeconds) * time.Second
}

// LeftJobThreshold returns the left-job alert threshold as a duration.
func (c *Config) LeftJobThreshold() time.Duration {
	return time.Duration(c.Analytics.LeftJobAlertHours) * time.Hour
}
