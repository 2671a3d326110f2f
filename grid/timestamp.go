package grid

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// ResolveTimestamp parses the -timestamp CLI value. Empty or "now" yields the
// current UTC time. Anything else must be ISO-8601 with an explicit zone
// (a trailing Z is accepted); the result is normalised to UTC.
func ResolveTimestamp(arg string) (time.Time, error) {
	normalized := strings.TrimSpace(arg)
	if normalized == "" || strings.EqualFold(normalized, "now") {
		return time.Now().UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, normalized)
	if err != nil {
		// Distinguish a merely missing zone from garbage.
		if _, naiveErr := time.Parse("2006-01-02T15:04:05", normalized); naiveErr == nil {
			return time.Time{}, fmt.Errorf("timestamp must include timezone information or Z suffix")
		}
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", arg, err)
	}
	return ts.UTC(), nil
}

// FieldsFromTime converts a UTC instant into the driver's positional
// timestamp arguments.
func FieldsFromTime(when time.Time) TimestampFields {
	when = when.UTC()
	hour := float64(when.Hour()) +
		float64(when.Minute())/60.0 +
		float64(when.Second())/3600.0 +
		float64(when.Nanosecond())/3.6e12
	return TimestampFields{
		Year:  when.Year(),
		Month: int(when.Month()),
		Day:   when.Day(),
		Hour:  hour,
	}
}

// ResolveWorkers parses the -workers CLI value: a positive integer, or the
// literal "auto" which resolves to max(1, available cores − 1).
func ResolveWorkers(arg string) (int, error) {
	value := strings.ToLower(strings.TrimSpace(arg))
	if value == "auto" {
		cores := runtime.NumCPU()
		if cores > 1 {
			return cores - 1, nil
		}
		return 1, nil
	}
	workers, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid workers value %q", arg)
	}
	if workers <= 0 {
		return 0, fmt.Errorf("workers must be a positive integer")
	}
	return workers, nil
}
