package models

import "time"

// RunState is a step of one scrape-merge-persist cycle.
type RunState string

const (
	RunInit       RunState = "init"
	RunFetching   RunState = "fetching"
	RunScraping   RunState = "scraping"
	RunMerging    RunState = "merging"
	RunPersisting RunState = "persisting"
	RunDone       RunState = "done"
	RunFailed     RunState = "failed"
)

// FailureKind classifies a per-instrument scrape failure.
type FailureKind string

const (
	FailureFetch      FailureKind = "fetch"
	FailureIncomplete FailureKind = "incomplete"
)

// InstrumentFailure records why one instrument produced no record in a run.
type InstrumentFailure struct {
	Instrument InstrumentID `json:"instrument"`
	Kind       FailureKind  `json:"kind"`
	Reason     string       `json:"reason"`
}

// RunResult is the outcome of one cycle. It is used for reporting only.
//
// Fields:
//   - Attempted: instruments the scraper tried.
//   - Extracted: complete records produced by the scraper.
//   - Persisted: records committed by the replace step (0 when skipped or failed).
//   - DatasetRows: data rows (header excluded) in the dataset after the run.
//   - ObjectID: identifier of the committed remote object, if any.
type RunResult struct {
	RunID       string              `json:"run_id"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
	State       RunState            `json:"state"`
	Attempted   int                 `json:"attempted"`
	Extracted   int                 `json:"extracted"`
	Persisted   int                 `json:"persisted"`
	DatasetRows int                 `json:"dataset_rows"`
	ObjectID    string              `json:"object_id,omitempty"`
	Failures    []InstrumentFailure `json:"failures,omitempty"`
	Error       string              `json:"error,omitempty"`
}
