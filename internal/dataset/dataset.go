package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/guttosm/fxpulse/internal/domain/models"
)

// MimeType is the content type the dataset is stored under.
const MimeType = "text/csv"

// Header is the canonical first row of the dataset file.
var Header = []string{
	"Timestamp",
	"Pair",
	"Long %",
	"Short %",
	"Lots Long",
	"Lots Short",
	"Positions Long",
	"Positions Short",
}

const utf8BOM = "\ufeff"

// Row is one line of the dataset.
//
// Raw holds the exact bytes the row was decoded from (terminator included) and
// is written back untouched. Rows created by a merge have no Raw and are
// encoded from Fields.
type Row struct {
	Fields []string
	Raw    []byte
}

// Dataset is the ordered log of sentiment rows, header first when present.
type Dataset struct {
	rows []Row
}

// Empty returns a dataset with no rows and no header.
func Empty() Dataset {
	return Dataset{}
}

// Parse decodes remote dataset content.
//
// Parsing is tolerant (lazy quotes, variable field count) because existing
// history must be carried forward even if an older writer produced odd rows.
// Every row keeps its raw bytes so that re-encoding is byte-identical.
func Parse(data []byte) (Dataset, error) {
	var ds Dataset
	if len(data) == 0 {
		return ds, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var prev int64
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Dataset{}, fmt.Errorf("parse dataset after %d rows: %w", len(ds.rows), err)
		}
		off := r.InputOffset()
		raw := append([]byte(nil), data[prev:off]...)
		prev = off
		ds.rows = append(ds.rows, Row{Fields: rec, Raw: raw})
	}
	// Trailing bytes after the last record (blank lines) stay with that row.
	if n := len(ds.rows); n > 0 && prev < int64(len(data)) {
		ds.rows[n-1].Raw = append(ds.rows[n-1].Raw, data[prev:]...)
	}
	return ds, nil
}

// Len returns the number of rows, header included.
func (d Dataset) Len() int {
	return len(d.rows)
}

// IsEmpty reports whether the dataset has no rows at all.
func (d Dataset) IsEmpty() bool {
	return len(d.rows) == 0
}

// HasHeader reports whether the first row is the canonical header.
func (d Dataset) HasHeader() bool {
	return len(d.rows) > 0 && isHeader(d.rows[0].Fields)
}

// RecordCount returns the number of data rows (header excluded).
func (d Dataset) RecordCount() int {
	if d.HasHeader() {
		return len(d.rows) - 1
	}
	return len(d.rows)
}

// Rows returns a copy of the row slice.
func (d Dataset) Rows() []Row {
	return append([]Row(nil), d.rows...)
}

// Encode renders the dataset. Decoded rows are written verbatim; merged rows
// are CSV-encoded with LF terminators.
func (d Dataset) Encode() []byte {
	var buf bytes.Buffer
	ensureNewline := func() {
		if buf.Len() > 0 && buf.Bytes()[buf.Len()-1] != '\n' {
			buf.WriteByte('\n')
		}
	}

	for _, row := range d.rows {
		if row.Raw != nil {
			buf.Write(row.Raw)
			continue
		}
		ensureNewline()
		w := csv.NewWriter(&buf)
		_ = w.Write(row.Fields) // bytes.Buffer writes do not fail
		w.Flush()
	}
	return buf.Bytes()
}

// Records decodes data rows back into sentiment records. Rows that do not have
// the canonical column count or carry an unparsable timestamp are skipped.
func (d Dataset) Records() []models.SentimentRecord {
	out := make([]models.SentimentRecord, 0, d.RecordCount())
	for i, row := range d.rows {
		if i == 0 && isHeader(row.Fields) {
			continue
		}
		rec, ok := recordFromFields(row.Fields)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// recordFromFields maps one data row into a models.SentimentRecord.
// The timestamp is interpreted in process-local time, as it was written.
func recordFromFields(f []string) (models.SentimentRecord, bool) {
	if len(f) != len(Header) {
		return models.SentimentRecord{}, false
	}
	ts, err := time.ParseInLocation(models.TimestampLayout, strings.TrimSpace(f[0]), time.Local)
	if err != nil {
		return models.SentimentRecord{}, false
	}
	return models.SentimentRecord{
		Timestamp:      ts,
		Instrument:     models.InstrumentID(strings.TrimSpace(f[1])),
		LongPercent:    f[2],
		ShortPercent:   f[3],
		LotsLong:       f[4],
		LotsShort:      f[5],
		PositionsLong:  f[6],
		PositionsShort: f[7],
	}, true
}

func isHeader(fields []string) bool {
	if len(fields) != len(Header) {
		return false
	}
	for i, h := range fields {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		if strings.TrimSpace(h) != Header[i] {
			return false
		}
	}
	return true
}
