// Package clock supplies the "current local date" collaborator. The
// domain calculus never reads system time itself; callers resolve
// defaults through a Clock and pass explicit dates down.
package clock

import (
	"fmt"
	"time"
)

// Clock resolves calendar dates in a configured time zone.
type Clock struct {
	loc *time.Location
}

// New creates a Clock for an IANA zone name such as "Asia/Shanghai".
func New(timeZone string) (*Clock, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", timeZone, err)
	}
	return &Clock{loc: loc}, nil
}

// In creates a Clock for an already-loaded location.
func In(loc *time.Location) *Clock {
	return &Clock{loc: loc}
}

// Location returns the configured time zone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the configured zone.
func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Today returns the current calendar date in the configured zone,
// normalized to UTC midnight for exact date arithmetic.
func (c *Clock) Today() time.Time {
	return c.LocalDate(time.Now())
}

// LocalDate converts a timestamp to its calendar date in the configured
// zone, normalized to UTC midnight.
func (c *Clock) LocalDate(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
