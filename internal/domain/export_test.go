package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvHeaderLine = "Date,Time,Duration (hrs),People Affected,Status,Area,Zip Code"

func TestToCSV_SingleRecord(t *testing.T) {
	useUTC(t)

	e := outage(time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC), 1.5, 50)
	e.Status = ptr("active")
	e.ZipCode = ptr("37203")

	out := DefaultRegistry().ToCSV([]OutageEvent{e}, "")

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, csvHeaderLine, lines[0])
	assert.Equal(t, `"1/5/2024","2:30:00 PM","1.50","50","active","East Nashville","37203"`, lines[1])
}

func TestToCSV_Defaults(t *testing.T) {
	useUTC(t)

	e := outage(time.Date(2024, 11, 23, 0, 5, 9, 0, time.UTC), 0, 0)

	out := DefaultRegistry().ToCSV([]OutageEvent{e}, "")

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"11/23/2024","12:05:09 AM","0.00","0","unknown","Unknown Area","N/A"`, lines[1])
}

func TestToCSV_ZipFilter(t *testing.T) {
	useUTC(t)

	start := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	a := outage(start, 1, 10)
	a.ZipCode = ptr("37203")
	b := outage(start, 1, 20)
	b.ZipCode = ptr("37206")
	c := outage(start, 1, 30) // no zip

	out := DefaultRegistry().ToCSV([]OutageEvent{a, b, c}, "37206")

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"20"`)
	assert.Contains(t, lines[1], `"Shelby Park/Weaver Park"`)
}

func TestToCSV_Empty(t *testing.T) {
	assert.Equal(t, csvHeaderLine, DefaultRegistry().ToCSV(nil, ""))
}

func TestToCSV_UnregisteredZip(t *testing.T) {
	useUTC(t)

	e := outage(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC), 2.125, 7)
	e.ZipCode = ptr("90210")

	out := DefaultRegistry().ToCSV([]OutageEvent{e}, "")

	assert.True(t, strings.HasSuffix(out, `"2.13","7","unknown","90210","90210"`), out)
}
