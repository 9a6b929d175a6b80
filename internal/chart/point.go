// Package chart maintains the outage history series plotted by the web
// dashboard: one aggregate point per 10-minute interval.
package chart

import (
	"time"

	"github.com/samber/lo"

	"github.com/couchcryptid/outage-insights-service/internal/domain"
)

// Interval is the width of a chart bucket.
const Interval = 10 * time.Minute

// Point aggregates the feed at one interval.
type Point struct {
	Timestamp              time.Time `json:"timestamp"`
	NumPeople              int       `json:"numPeople"`
	EventCount             int       `json:"eventCount"`
	ActiveCrews            int       `json:"activeCrews"`
	CustomersBeingRestored int       `json:"customersBeingRestored"`
	WaitingForCrew         int       `json:"waitingForCrew"`
}

// ComputePoint aggregates events into the interval containing now. Events
// with status Unassigned are waiting for a crew; every other event, including
// one without a status, counts as an active crew.
func ComputePoint(events []domain.OutageEvent, now time.Time) Point {
	assigned, unassigned := lo.FilterReject(events, func(e domain.OutageEvent, _ int) bool {
		return e.StatusOr("") != domain.StatusUnassigned
	})
	people := func(e domain.OutageEvent) int { return e.NumPeople }

	return Point{
		Timestamp:              now.UTC().Truncate(Interval),
		NumPeople:              lo.SumBy(events, people),
		EventCount:             len(events),
		ActiveCrews:            len(assigned),
		CustomersBeingRestored: lo.SumBy(assigned, people),
		WaitingForCrew:         len(unassigned),
	}
}
