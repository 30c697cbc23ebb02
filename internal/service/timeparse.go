package service

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for scheduled times without zone information, as the
// admin form submits them.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseScheduledTime turns a scheduled-time string into UTC. A value
// carrying its own offset (RFC3339) is taken as-is; a naive value is
// interpreted in the caller-supplied IANA timezone hint, falling back
// to UTC when the hint is absent or unknown.
func ParseScheduledTime(value, tzHint string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty scheduled time")
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}

	loc, err := time.LoadLocation(tzHint)
	if err != nil || tzHint == "" {
		loc = time.UTC
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized scheduled time %q", value)
}
