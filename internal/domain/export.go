package domain

import (
	"strconv"
	"strings"
)

// csvHeader is the fixed header row of outage exports.
var csvHeader = []string{"Date", "Time", "Duration (hrs)", "People Affected", "Status", "Area", "Zip Code"}

// ToCSV renders history as CSV text. When zipFilter is non-empty only events
// with exactly that zip code are included. Every row field is wrapped in
// double quotes; embedded quotes are not escaped.
func (r *ZipRegistry) ToCSV(history []OutageEvent, zipFilter string) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))

	for _, e := range history {
		if zipFilter != "" && (e.ZipCode == nil || *e.ZipCode != zipFilter) {
			continue
		}

		zip := NoZipCode
		if e.ZipCode != nil && *e.ZipCode != "" {
			zip = *e.ZipCode
		}
		start := e.StartTime.In(location)

		row := []string{
			start.Format("1/2/2006"),
			start.Format("3:04:05 PM"),
			toFixed(e.DurationHours(), 2),
			strconv.Itoa(e.NumPeople),
			e.StatusOr("unknown"),
			r.LookupName(e.Zip()),
			zip,
		}

		b.WriteByte('\n')
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(cell)
			b.WriteByte('"')
		}
	}

	return b.String()
}
