package domain

import "time"

// Report bundles every statistic shown for an outage history. When ZipCode is
// set, Area describes that zip and the time-based views cover only its events.
type Report struct {
	GeneratedAt        time.Time      `json:"generatedAt"`
	ZipCode            string         `json:"zipCode,omitempty"`
	TotalOutages       int            `json:"totalOutages"`
	Areas              []AreaReport   `json:"areas"`
	Area               *AreaReport    `json:"area,omitempty"`
	HourlyDistribution [24]int        `json:"hourlyDistribution"`
	MonthlySummary     MonthlySummary `json:"monthlySummary"`
	WorstMonth         *WorstMonth    `json:"worstMonth"`
}

// BuildReport computes the report for history, optionally focused on zip.
func (r *ZipRegistry) BuildReport(history []OutageEvent, zip string) Report {
	areas := r.BuildAreaReports(history)
	report := Report{
		GeneratedAt:  Now().UTC(),
		ZipCode:      zip,
		TotalOutages: len(history),
		Areas:        areas,
	}

	scoped := history
	if zip != "" {
		scoped = make([]OutageEvent, 0, len(history))
		for _, e := range history {
			if e.Zip() == zip {
				scoped = append(scoped, e)
			}
		}
		report.Area = r.areaReport(zip, areas)
	}

	report.HourlyDistribution = HourlyDistribution(scoped)
	report.MonthlySummary = MonthlySummaryOf(scoped)
	report.WorstMonth = FindWorstMonth(report.MonthlySummary)
	return report
}

// areaReport returns the report for zip, or a clean record for an area with no
// outages in the history.
func (r *ZipRegistry) areaReport(zip string, areas []AreaReport) *AreaReport {
	for i := range areas {
		if areas[i].ZipCode == zip {
			return &areas[i]
		}
	}
	all := make([]AreaStats, len(areas))
	for i, a := range areas {
		all[i] = a.Stats
	}
	return &AreaReport{
		ZipCode:          zip,
		Name:             r.LookupName(zip),
		ReliabilityScore: ReliabilityScore(AreaStats{}),
		Comparison:       CompareToAverage(AreaStats{}, all),
	}
}
