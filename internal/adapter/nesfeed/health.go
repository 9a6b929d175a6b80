package nesfeed

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthReport is the result of probing the feed.
type HealthReport struct {
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	EventCount int     `json:"event_count,omitempty"`
	Checks     []Check `json:"checks"`
	Timestamp  string  `json:"timestamp"`
}

// Check is a single step of a HealthReport.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Healthy reports whether every check passed.
func (r HealthReport) Healthy() bool {
	return r.Status == StatusHealthy
}

// CheckHealth fetches the feed and runs the checks api_reachable,
// json_parseable and status_fields_present in order, stopping at the first
// failure.
func (c *Client) CheckHealth(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:    StatusHealthy,
		Timestamp: c.clock.Now().UTC().Format(time.RFC3339),
		Checks:    []Check{},
	}
	fail := func(name, message string, err error) HealthReport {
		report.Checks = append(report.Checks, Check{Name: name, Status: "fail", Error: err.Error()})
		report.Status = StatusUnhealthy
		report.Message = message
		c.logger.Warn("feed health check failed", "check", name, "error", err)
		return report
	}
	pass := func(name string) {
		report.Checks = append(report.Checks, Check{Name: name, Status: "pass"})
	}

	body, err := c.fetch(ctx)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return fail("api_reachable", fmt.Sprintf("API returned non-200 status: %d", statusErr.Code), err)
		}
		return fail("api_reachable", "Cannot reach NES API", err)
	}
	pass("api_reachable")

	records, err := decode(body)
	if err != nil {
		return fail("json_parseable", "Failed to parse API response as JSON", err)
	}
	pass("json_parseable")
	report.EventCount = len(records)

	for _, r := range records {
		if r.Status == nil || *r.Status == "" {
			return fail("status_fields_present", "Status fields validation failed",
				fmt.Errorf("event %d has empty status field", r.ID))
		}
	}
	pass("status_fields_present")

	report.Message = fmt.Sprintf("All checks passed. Found %d outage events.", len(records))
	return report
}
