package model

import "time"

// TimestampLayout is the textual date-time format used by every ToMap.
const TimestampLayout = time.RFC3339Nano

// Now returns the current time in UTC, truncated to the precision PostgreSQL stores.
func Now() time.Time {
	return Stamp(time.Now())
}

// Stamp normalises t to UTC with microsecond precision.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// formatOptionalTime renders nil for an unset timestamp.
func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func optionalFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
