package models

import "time"

// InstrumentID identifies a tradable pair on the outlook page (e.g., "EURUSD").
type InstrumentID string

// TimestampLayout is the capture timestamp format used in the dataset file.
const TimestampLayout = "2006-01-02 15:04:05"

// SentimentRecord is one observation of long/short positioning for an instrument.
//
// Metric fields are kept as the text scraped from the page: percentages as shown
// (e.g., "61%"), lots and positions as digit runs with separators removed.
//
// Column order in the dataset file:
//  1. Timestamp
//  2. Pair
//  3. Long %
//  4. Short %
//  5. Lots Long
//  6. Lots Short
//  7. Positions Long
//  8. Positions Short
type SentimentRecord struct {
	Timestamp      time.Time
	Instrument     InstrumentID
	LongPercent    string
	ShortPercent   string
	LotsLong       string
	LotsShort      string
	PositionsLong  string
	PositionsShort string
}

// Complete reports whether all six metric fields are set.
// Incomplete records must never be persisted.
func (r SentimentRecord) Complete() bool {
	return len(r.MissingFields()) == 0
}

// MissingFields lists the dataset column names of unset metric fields.
func (r SentimentRecord) MissingFields() []string {
	var missing []string
	check := func(v, name string) {
		if v == "" {
			missing = append(missing, name)
		}
	}
	check(r.LongPercent, "Long %")
	check(r.ShortPercent, "Short %")
	check(r.LotsLong, "Lots Long")
	check(r.LotsShort, "Lots Short")
	check(r.PositionsLong, "Positions Long")
	check(r.PositionsShort, "Positions Short")
	return missing
}

// Row renders the record in dataset column order.
func (r SentimentRecord) Row() []string {
	return []string{
		r.Timestamp.Format(TimestampLayout),
		string(r.Instrument),
		r.LongPercent,
		r.ShortPercent,
		r.LotsLong,
		r.LotsShort,
		r.PositionsLong,
		r.PositionsShort,
	}
}
