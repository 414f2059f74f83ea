// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package stor

import (
	"time"
)

// DashboardData data model
type KindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

type LocationCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ChartDataPoint struct {
	Month  string `json:"month"`
	Events int    `json:"events"`
}

type DashboardData struct {
	TotalEvents        int              `json:"totalEvents"`
	TotalOperators     int              `json:"totalOperators"`
	TrackedAssets      []KindCount      `json:"trackedAssets"`
	EventsLast12Months int              `json:"eventsLast12Months"`
	EventsLastMonth    int              `json:"eventsLastMonth"`
	EventsLastWeek     int              `json:"eventsLastWeek"`
	EventsLastDay      int              `json:"eventsLastDay"`
	OldestEventDate    string           `json:"oldestEventDate"`
	LatestEventDate    string           `json:"latestEventDate"`
	BusiestLocations   []LocationCount  `json:"busiestLocations"`
	ChartData          []ChartDataPoint `json:"chartData"`
}

// GetDashboard provides a summary of key metrics and statistics about one organization.
func (s dashboardStore) GetDashboard(orgID string) (*DashboardData, error) {
	var data DashboardData

	// Temporary variables for counts (GORM uses int64)
	var totalEvents, totalOperators int64

	// Count total events
	if err := s.db.Model(&AssetEvent{}).Where("organization_id = ?", orgID).Count(&totalEvents).Error; err != nil {
		return nil, err
	}
	data.TotalEvents = int(totalEvents)

	// Count unique operators
	if err := s.db.Model(&AssetEvent{}).Where("organization_id = ?", orgID).
		Distinct("recorded_by_id").Count(&totalOperators).Error; err != nil {
		return nil, err
	}
	data.TotalOperators = int(totalOperators)

	// Count distinct assets tracked, per kind
	var kindCounts []struct {
		AssetKind string
		Count     int64
	}
	if err := s.db.Model(&AssetEvent{}).
		Select("asset_kind, count(distinct asset_number) as count").
		Where("organization_id = ?", orgID).
		Group("asset_kind").Scan(&kindCounts).Error; err != nil {
		return nil, err
	}
	data.TrackedAssets = make([]KindCount, len(kindCounts))
	for i, kc := range kindCounts {
		data.TrackedAssets[i] = KindCount{Kind: kc.AssetKind, Count: int(kc.Count)}
	}

	// Dates for period calculations
	now := time.Now()
	last12Months := now.AddDate(-1, 0, 0)
	lastMonth := now.AddDate(0, -1, 0)
	lastWeek := now.AddDate(0, 0, -7)
	lastDay := now.AddDate(0, 0, -1)

	// Temporary variables for period counts
	var eventsLast12Months, eventsLastMonth, eventsLastWeek, eventsLastDay int64

	// Count events from the last 12 months
	if err := s.db.Model(&AssetEvent{}).Where("organization_id = ? AND timestamp >= ?", orgID, last12Months).Count(&eventsLast12Months).Error; err != nil {
		return nil, err
	}
	data.EventsLast12Months = int(eventsLast12Months)

	// Count events from the last month
	if err := s.db.Model(&AssetEvent{}).Where("organization_id = ? AND timestamp >= ?", orgID, lastMonth).Count(&eventsLastMonth).Error; err != nil {
		return nil, err
	}
	data.EventsLastMonth = int(eventsLastMonth)

	// Count events from the last week
	if err := s.db.Model(&AssetEvent{}).Where("organization_id = ? AND timestamp >= ?", orgID, lastWeek).Count(&eventsLastWeek).Error; err != nil {
		return nil, err
	}
	data.EventsLastWeek = int(eventsLastWeek)

	// Count events from the last day
	if err := s.db.Model(&AssetEvent{}).Where("organization_id = ? AND timestamp >= ?", orgID, lastDay).Count(&eventsLastDay).Error; err != nil {
		return nil, err
	}
	data.EventsLastDay = int(eventsLastDay)

	// Date of the oldest event
	var oldestEvent AssetEvent
	if err := s.db.Model(&AssetEvent{}).Where("organization_id = ?", orgID).Order("timestamp ASC").First(&oldestEvent).Error; err == nil {
		data.OldestEventDate = oldestEvent.Timestamp.Format("2006-01-02")
	}

	// Date of the most recent event
	var latestEvent AssetEvent
	if err := s.db.Model(&AssetEvent{}).Where("organization_id = ?", orgID).Order("timestamp DESC").First(&latestEvent).Error; err == nil {
		data.LatestEventDate = latestEvent.Timestamp.Format("2006-01-02")
	}

	// Busiest locations by event count
	var locationCounts []struct {
		LocationName string
		Count        int64
	}
	if err := s.db.Model(&AssetEvent{}).
		Select("location_name, count(*) as count").
		Where("organization_id = ? AND location_name <> ''", orgID).
		Group("location_name").Order("count DESC").Limit(10).
		Scan(&locationCounts).Error; err != nil {
		return nil, err
	}
	data.BusiestLocations = make([]LocationCount, len(locationCounts))
	for i, lc := range locationCounts {
		data.BusiestLocations[i] = LocationCount{Name: lc.LocationName, Count: int(lc.Count)}
	}

	// Chart data - events recorded per month for the last 12 months
	// Use a simpler approach that works across all database dialects:
	// fetch the timestamps and process them in Go.
	var events []AssetEvent
	if err := s.db.Model(&AssetEvent{}).
		Select("timestamp").
		Where("organization_id = ? AND timestamp >= ?", orgID, last12Months).
		Find(&events).Error; err != nil {
		return nil, err
	}

	monthCounts := make(map[string]int)
	for _, event := range events {
		monthKey := event.Timestamp.Format("2006-01")
		monthCounts[monthKey]++
	}

	for monthKey, count := range monthCounts {
		if t, err := time.Parse("2006-01", monthKey); err == nil {
			data.ChartData = append(data.ChartData, ChartDataPoint{
				Month:  t.Format("Jan"),
				Events: count,
			})
		}
	}

	return &data, nil
}
