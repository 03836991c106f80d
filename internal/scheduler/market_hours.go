package scheduler

import (
	"fmt"
	"time"
)

// MarketHours answers whether the exchange is open at a given instant.
// Regular session only; holidays are not modeled, so a holiday weekday
// counts as open and the poll cycle simply finds no fresh bars.
type MarketHours struct {
	loc       *time.Location
	openMins  int // minutes after midnight, exchange local time
	closeMins int
}

// NewMarketHours builds a calendar for the named IANA timezone with the
// regular 09:30-16:00 session.
func NewMarketHours(timezone string) (*MarketHours, error) {
	if timezone == "" {
		timezone = "America/New_York"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load market timezone: %w", err)
	}
	return &MarketHours{
		loc:       loc,
		openMins:  9*60 + 30,
		closeMins: 16 * 60,
	}, nil
}

// IsOpen reports whether t falls inside the regular session. The open
// is inclusive, the close exclusive.
func (m *MarketHours) IsOpen(t time.Time) bool {
	local := t.In(m.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	mins := local.Hour()*60 + local.Minute()
	return mins >= m.openMins && mins < m.closeMins
}

// NextOpen returns the next session open at or after t. Used for
// logging only.
func (m *MarketHours) NextOpen(t time.Time) time.Time {
	local := t.In(m.loc)
	for {
		open := time.Date(local.Year(), local.Month(), local.Day(),
			m.openMins/60, m.openMins%60, 0, 0, m.loc)
		if open.After(local) && open.Weekday() != time.Saturday && open.Weekday() != time.Sunday {
			return open
		}
		local = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, m.loc).AddDate(0, 0, 1)
	}
}
