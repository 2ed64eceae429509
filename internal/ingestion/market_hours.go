package ingestion

import "time"

// MarketOpen reports whether the retail FX market is trading at t.
//
// The week runs from Sunday 22:00 UTC to Friday 22:00 UTC. Christmas Day and
// New Year's Day are closed all day.
func MarketOpen(t time.Time) bool {
	u := t.UTC()
	if isMarketHoliday(u) {
		return false
	}
	switch u.Weekday() {
	case time.Saturday:
		return false
	case time.Friday:
		return u.Hour() < 22
	case time.Sunday:
		return u.Hour() >= 22
	}
	return true
}

// NextMarketOpen returns the first full hour at or after t when the market is open.
func NextMarketOpen(t time.Time) time.Time {
	u := t.UTC()
	if MarketOpen(u) {
		return u
	}
	h := u.Truncate(time.Hour).Add(time.Hour)
	// A closed spell never exceeds a weekend plus an adjacent holiday.
	for i := 0; i < 24*5; i++ {
		if MarketOpen(h) {
			return h
		}
		h = h.Add(time.Hour)
	}
	return h
}

func isMarketHoliday(d time.Time) bool {
	fixed := map[string]struct{}{
		"01-01": {}, // New Year
		"12-25": {}, // Christmas
	}
	_, ok := fixed[d.Format("01-02")]
	return ok
}
