package parse

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// GatewayLayout is the layout the ingestion gateway uses for observed_at.
const GatewayLayout = "2006-01-02 15:04:05"

// Location resolves a timezone name. An empty name means UTC.
func Location(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Timestamp converts a gateway timestamp into UTC. Values carrying their own
// offset (RFC 3339) are accepted as well; bare values are read in loc.
// An empty string yields nil.
func Timestamp(raw string, loc *time.Location) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation(GatewayLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp %q: %w", raw, err)
	}
	t = t.UTC()
	return &t, nil
}
