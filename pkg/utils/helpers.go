package utils

import (
	"time"
)

// ParseDuration safely parses a duration string like "2m", falling back to
// the generation wait default when empty or malformed.
func ParseDuration(d string) time.Duration {
	if d == "" {
		return 2 * time.Minute
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return 2 * time.Minute
	}
	return duration
}

// Truncate shortens a string for log output.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
