package dataset

import "github.com/guttosm/fxpulse/internal/domain/models"

// Merge appends incoming records to existing, in the order given.
//
// Behavior:
//   - incoming empty: existing is returned unchanged and callers should skip
//     persisting it.
//   - existing empty: the canonical header is synthesized as the first row.
//   - otherwise every existing row is kept as-is, including its raw bytes, and
//     the new rows follow it. A non-empty dataset without a header stays
//     headerless.
//
// Incomplete records are dropped here as a last gate; they are never written.
func Merge(existing Dataset, incoming []models.SentimentRecord) Dataset {
	if len(incoming) == 0 {
		return existing
	}

	rows := make([]Row, 0, len(existing.rows)+len(incoming)+1)
	rows = append(rows, existing.rows...)
	if existing.IsEmpty() {
		rows = append(rows, Row{Fields: append([]string(nil), Header...)})
	}

	added := 0
	for _, rec := range incoming {
		if !rec.Complete() {
			continue
		}
		rows = append(rows, Row{Fields: rec.Row()})
		added++
	}
	if added == 0 {
		return existing
	}
	return Dataset{rows: rows}
}
