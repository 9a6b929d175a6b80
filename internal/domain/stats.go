package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
)

// Comparison ratings, from best to worst.
const (
	RatingExcellent    = "excellent"
	RatingAboveAverage = "above-average"
	RatingAverage      = "average"
	RatingBelowAverage = "below-average"
	RatingPoor         = "poor"
)

// ReliabilityScore rates an area from 0 to 100, higher is better. Frequency,
// duration and impact penalties are capped independently (50, 30 and 20
// points) before being subtracted.
func ReliabilityScore(stats AreaStats) int {
	if stats.Outages == 0 {
		return 100
	}

	frequencyPenalty := math.Min(float64(stats.Outages)*5, 50)
	durationPenalty := math.Min(stats.AvgDuration*2, 30)
	impactPenalty := math.Min(float64(stats.TotalAffected)/100, 20)

	score := math.Max(0, 100-frequencyPenalty-durationPenalty-impactPenalty)
	return int(roundHalfUp(score))
}

// CompareToAverage compares an area's outage count with the mean over all
// areas. With no areas to compare against, or a zero mean, the area is rated
// average and PercentageDiff is omitted.
func CompareToAverage(stats AreaStats, allAreas []AreaStats) Comparison {
	if len(allAreas) == 0 {
		return Comparison{Factor: 1, Rating: RatingAverage}
	}

	avgOutages := float64(lo.SumBy(allAreas, func(a AreaStats) int { return a.Outages })) / float64(len(allAreas))
	if avgOutages == 0 {
		return Comparison{Factor: 1, Rating: RatingAverage}
	}

	factor := float64(stats.Outages) / avgOutages
	rating := RatingAverage
	switch {
	case factor < 0.5:
		rating = RatingExcellent
	case factor < 0.8:
		rating = RatingAboveAverage
	case factor > 1.5:
		rating = RatingPoor
	case factor > 1.2:
		rating = RatingBelowAverage
	}

	diff := int(roundHalfUp((factor - 1) * 100))
	return Comparison{
		Factor:         roundTo(factor, 1),
		Rating:         rating,
		PercentageDiff: &diff,
	}
}

// HourlyDistribution counts outages by the local hour of their start time.
// All 24 buckets are present.
func HourlyDistribution(history []OutageEvent) [24]int {
	var hours [24]int
	for _, e := range history {
		hours[e.StartTime.In(location).Hour()]++
	}
	return hours
}

// MonthStats summarizes the outages that started in one month.
type MonthStats struct {
	Month         string        `json:"month"`
	Outages       int           `json:"outages"`
	TotalDuration float64       `json:"totalDuration"` // hours
	TotalAffected int           `json:"totalAffected"`
	Incidents     []OutageEvent `json:"incidents"`
	AvgDuration   string        `json:"avgDuration"` // hours, 2 decimals
	AvgAffected   int           `json:"avgAffected"`
}

// MonthlySummary holds per-month statistics in first-seen month order.
type MonthlySummary struct {
	months []MonthStats
	index  map[string]int
}

// MonthlySummaryOf groups history by the local year-month of each start time.
func MonthlySummaryOf(history []OutageEvent) MonthlySummary {
	s := MonthlySummary{index: make(map[string]int)}

	for _, e := range history {
		start := e.StartTime.In(location)
		key := fmt.Sprintf("%04d-%02d", start.Year(), int(start.Month()))

		i, ok := s.index[key]
		if !ok {
			i = len(s.months)
			s.index[key] = i
			s.months = append(s.months, MonthStats{Month: key})
		}

		m := &s.months[i]
		m.Outages++
		m.TotalDuration += e.DurationHours()
		m.TotalAffected += e.NumPeople
		m.Incidents = append(m.Incidents, e)
	}

	// Entries exist only once they have an incident, so Outages is never zero.
	for i := range s.months {
		m := &s.months[i]
		m.AvgDuration = toFixed(m.TotalDuration/float64(m.Outages), 2)
		m.AvgAffected = int(roundHalfUp(float64(m.TotalAffected) / float64(m.Outages)))
	}

	return s
}

// Len returns the number of months.
func (s MonthlySummary) Len() int {
	return len(s.months)
}

// Months returns the month entries in first-seen order.
func (s MonthlySummary) Months() []MonthStats {
	out := make([]MonthStats, len(s.months))
	copy(out, s.months)
	return out
}

// Get returns the entry for a "YYYY-MM" key.
func (s MonthlySummary) Get(key string) (MonthStats, bool) {
	i, ok := s.index[key]
	if !ok {
		return MonthStats{}, false
	}
	return s.months[i], true
}

// MarshalJSON encodes the summary as an object keyed by month, preserving order.
func (s MonthlySummary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range s.months {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Month)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WorstMonth holds the worst month by each metric.
type WorstMonth struct {
	Outages  MonthStats `json:"outages"`
	Duration MonthStats `json:"duration"`
	Impact   MonthStats `json:"impact"`
}

// FindWorstMonth returns, for outage count, total duration and total affected,
// the month with the highest value. Ties keep the earliest month. It returns
// nil for an empty summary.
func FindWorstMonth(summary MonthlySummary) *WorstMonth {
	if summary.Len() == 0 {
		return nil
	}

	worst := WorstMonth{
		Outages:  summary.months[0],
		Duration: summary.months[0],
		Impact:   summary.months[0],
	}
	for _, m := range summary.months[1:] {
		if m.Outages > worst.Outages.Outages {
			worst.Outages = m
		}
		if m.TotalDuration > worst.Duration.TotalDuration {
			worst.Duration = m
		}
		if m.TotalAffected > worst.Impact.TotalAffected {
			worst.Impact = m
		}
	}
	return &worst
}

// BuildAreaStats aggregates a set of events into area statistics.
func BuildAreaStats(events []OutageEvent) AreaStats {
	if len(events) == 0 {
		return AreaStats{}
	}
	totalHours := lo.SumBy(events, func(e OutageEvent) float64 { return e.DurationHours() })
	return AreaStats{
		Outages:       len(events),
		AvgDuration:   totalHours / float64(len(events)),
		TotalAffected: lo.SumBy(events, func(e OutageEvent) int { return e.NumPeople }),
	}
}

// AreaStatsByZip groups events by zip code and aggregates each group. Events
// without a zip are grouped under UnknownArea.
func AreaStatsByZip(events []OutageEvent) map[string]AreaStats {
	groups := lo.GroupBy(events, func(e OutageEvent) string {
		if e.Zip() == "" {
			return UnknownArea
		}
		return *e.ZipCode
	})
	return lo.MapValues(groups, func(group []OutageEvent, _ string) AreaStats {
		return BuildAreaStats(group)
	})
}

// AreaReport is the per-area view shown on the outage page.
type AreaReport struct {
	ZipCode          string     `json:"zipCode"`
	Name             string     `json:"name"`
	Stats            AreaStats  `json:"stats"`
	ReliabilityScore int        `json:"reliabilityScore"`
	Comparison       Comparison `json:"comparison"`
}

// BuildAreaReports scores every area found in events against the others,
// sorted by zip code.
func (r *ZipRegistry) BuildAreaReports(events []OutageEvent) []AreaReport {
	byZip := AreaStatsByZip(events)
	zips := lo.Keys(byZip)
	sort.Strings(zips)

	all := make([]AreaStats, 0, len(zips))
	for _, zip := range zips {
		all = append(all, byZip[zip])
	}

	reports := make([]AreaReport, 0, len(zips))
	for _, zip := range zips {
		stats := byZip[zip]
		name := UnknownArea
		if zip != UnknownArea {
			name = r.LookupName(zip)
		}
		reports = append(reports, AreaReport{
			ZipCode:          zip,
			Name:             name,
			Stats:            stats,
			ReliabilityScore: ReliabilityScore(stats),
			Comparison:       CompareToAverage(stats, all),
		})
	}
	return reports
}
