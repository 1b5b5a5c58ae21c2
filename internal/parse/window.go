package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultHours is the reading window used when a request names none.
const DefaultHours = 24

// MaxHours caps the reading window at thirty days.
const MaxHours = 24 * 30

// Hours parses the "hours" query parameter of the readings endpoint.
// An empty value yields DefaultHours.
func Hours(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultHours * time.Hour, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid hours %q: %w", raw, err)
	}
	if n <= 0 || n > MaxHours {
		return 0, fmt.Errorf("hours %d not in [1,%d]", n, MaxHours)
	}
	return time.Duration(n) * time.Hour, nil
}

// Bool parses an optional boolean query parameter. An empty value yields nil.
func Bool(raw string) (*bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("invalid boolean %q", raw)
	}
	return &b, nil
}

// ID parses a positive integer path parameter.
func ID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
