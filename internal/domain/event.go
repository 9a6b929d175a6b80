package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// UnknownArea names events whose zip code could not be determined.
	UnknownArea = "Unknown Area"
	// NoZipCode is printed in exports for events without a zip code.
	NoZipCode = "N/A"
	// StatusUnassigned is the feed status for outages still waiting for a crew.
	StatusUnassigned = "Unassigned"
)

// FeedEvent is the wire format of a single outage in the NES feed and in
// persisted histories. Times are epoch milliseconds.
type FeedEvent struct {
	ID              int      `json:"id"`
	StartTime       int64    `json:"startTime"`
	LastUpdatedTime int64    `json:"lastUpdatedTime"`
	Title           string   `json:"title,omitempty"`
	NumPeople       int      `json:"numPeople"`
	Status          *string  `json:"status,omitempty"`
	Cause           string   `json:"cause,omitempty"`
	Identifier      string   `json:"identifier,omitempty"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ZipCode         *string  `json:"zipCode,omitempty"`
}

// OutageEvent is a single outage. Optional fields are pointers so that
// presence is explicit: a nil ZipCode is "unresolved", while NumPeople 0 is a
// real value. It marshals to and from the [FeedEvent] wire format.
type OutageEvent struct {
	ID              int
	Title           string
	Latitude        *float64
	Longitude       *float64
	ZipCode         *string
	StartTime       time.Time `validate:"required"`
	LastUpdatedTime time.Time `validate:"required"`
	NumPeople       int       `validate:"gte=0"`
	Status          *string
	Cause           string
	Identifier      string
}

// Event converts the wire record into an OutageEvent.
func (f FeedEvent) Event() OutageEvent {
	return OutageEvent{
		ID:              f.ID,
		Title:           f.Title,
		Latitude:        f.Latitude,
		Longitude:       f.Longitude,
		ZipCode:         f.ZipCode,
		StartTime:       time.UnixMilli(f.StartTime),
		LastUpdatedTime: time.UnixMilli(f.LastUpdatedTime),
		NumPeople:       f.NumPeople,
		Status:          f.Status,
		Cause:           f.Cause,
		Identifier:      f.Identifier,
	}
}

// Feed converts the event back into its wire record.
func (e OutageEvent) Feed() FeedEvent {
	return FeedEvent{
		ID:              e.ID,
		StartTime:       e.StartTime.UnixMilli(),
		LastUpdatedTime: e.LastUpdatedTime.UnixMilli(),
		Title:           e.Title,
		NumPeople:       e.NumPeople,
		Status:          e.Status,
		Cause:           e.Cause,
		Identifier:      e.Identifier,
		Latitude:        e.Latitude,
		Longitude:       e.Longitude,
		ZipCode:         e.ZipCode,
	}
}

func (e OutageEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Feed())
}

func (e *OutageEvent) UnmarshalJSON(data []byte) error {
	var f FeedEvent
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*e = f.Event()
	return nil
}

// DurationHours is the time between start and last update, in hours.
func (e OutageEvent) DurationHours() float64 {
	return e.LastUpdatedTime.Sub(e.StartTime).Hours()
}

// HasCoordinates reports whether both latitude and longitude are present.
func (e OutageEvent) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// Zip returns the event's zip code, or "" when absent.
func (e OutageEvent) Zip() string {
	if e.ZipCode == nil {
		return ""
	}
	return *e.ZipCode
}

// StatusOr returns the event status, or fallback when absent.
func (e OutageEvent) StatusOr(fallback string) string {
	if e.Status == nil || *e.Status == "" {
		return fallback
	}
	return *e.Status
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ParseRawEvent deserializes a RawEvent's value into an OutageEvent. It expects
// a single feed record.
func ParseRawEvent(raw RawEvent) (OutageEvent, error) {
	var f FeedEvent
	if err := json.Unmarshal(raw.Value, &f); err != nil {
		return OutageEvent{}, fmt.Errorf("parse raw event: %w", err)
	}
	if f.StartTime == 0 {
		return OutageEvent{}, fmt.Errorf("parse raw event %d: missing startTime", f.ID)
	}
	return f.Event(), nil
}

// ZipRecord is a registered zip code with its neighborhood name and centroid.
type ZipRecord struct {
	Zip  string  `json:"zip"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// AreaStats aggregates the outages of one area.
type AreaStats struct {
	Outages       int     `json:"outages"`
	AvgDuration   float64 `json:"avgDuration"` // hours
	TotalAffected int     `json:"totalAffected"`
}

// Comparison rates an area against the city-wide average outage count.
type Comparison struct {
	Factor         float64 `json:"factor"`
	Rating         string  `json:"rating"`
	PercentageDiff *int    `json:"percentageDiff,omitempty"`
}
