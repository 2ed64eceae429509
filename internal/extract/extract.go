package extract

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/guttosm/fxpulse/internal/domain/models"
	"github.com/guttosm/fxpulse/internal/fetch"
)

// MetricsTableSelector locates the current-positioning table on an outlook page.
const MetricsTableSelector = "#currentMetricsTable"

var (
	// ErrFetchTimeout marks a page whose metrics structure did not materialize
	// within the fetch budget. It is a per-instrument, expected failure.
	ErrFetchTimeout = fetch.ErrTimeout

	// ErrTableNotFound is returned when the page has no metrics table.
	// It matches ErrFetchTimeout under errors.Is.
	ErrTableNotFound = fmt.Errorf("metrics table not found: %w", ErrFetchTimeout)

	// ErrIncomplete marks a page where the table exists but one or more of the
	// six metric fields could not be read.
	ErrIncomplete = errors.New("incomplete sentiment data")
)

var numberRun = regexp.MustCompile(`[\d,]+`)

// Fields holds the metric values read from one outlook page.
type Fields struct {
	LongPercent    string
	ShortPercent   string
	LotsLong       string
	LotsShort      string
	PositionsLong  string
	PositionsShort string
}

// Record stamps the fields with a capture time and instrument.
func (f Fields) Record(base models.SentimentRecord) models.SentimentRecord {
	base.LongPercent = f.LongPercent
	base.ShortPercent = f.ShortPercent
	base.LotsLong = f.LotsLong
	base.LotsShort = f.LotsShort
	base.PositionsLong = f.PositionsLong
	base.PositionsShort = f.PositionsShort
	return base
}

// ExtractNumber returns the first run of digits and commas in s with the
// commas removed, e.g. "15,999 lots" -> "15999". ok is false when s has no
// digits.
func ExtractNumber(s string) (string, bool) {
	m := numberRun.FindString(s)
	if m == "" {
		return "", false
	}
	n := strings.ReplaceAll(m, ",", "")
	if n == "" {
		return "", false
	}
	return n, true
}

// Extract parses one outlook page.
//
// Rows of the metrics table with at least four cells are classified by the
// action label in the first cell: a case-sensitive "Long" match wins over
// "Short". Later matching rows overwrite earlier ones.
//
// Returns:
//   - ErrTableNotFound when the page has no metrics table.
//   - ErrIncomplete (wrapped, naming the missing columns) when any of the six
//     fields is still unset after scanning all rows.
func Extract(page io.Reader, instrument models.InstrumentID) (Fields, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return Fields{}, fmt.Errorf("%s: parse html: %w", instrument, err)
	}

	table := doc.Find(MetricsTableSelector).First()
	if table.Length() == 0 {
		return Fields{}, fmt.Errorf("%s: %w", instrument, ErrTableNotFound)
	}

	var f Fields
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		action := strings.TrimSpace(cells.Eq(0).Text())
		percent := strings.TrimSpace(cells.Eq(1).Text())
		lots, _ := ExtractNumber(strings.TrimSpace(cells.Eq(2).Text()))
		positions, _ := ExtractNumber(strings.TrimSpace(cells.Eq(3).Text()))

		switch {
		case strings.Contains(action, "Long"):
			f.LongPercent, f.LotsLong, f.PositionsLong = percent, lots, positions
		case strings.Contains(action, "Short"):
			f.ShortPercent, f.LotsShort, f.PositionsShort = percent, lots, positions
		}
	})

	probe := f.Record(models.SentimentRecord{})
	if missing := probe.MissingFields(); len(missing) > 0 {
		return f, fmt.Errorf("%s: %w: missing %s", instrument, ErrIncomplete, strings.Join(missing, ", "))
	}
	return f, nil
}
