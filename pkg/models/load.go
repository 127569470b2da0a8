package models

import "time"

// LoadKind distinguishes a first load of a taxonomy from a subsequent one
// that must reconcile against prior state (§3 Load).
type LoadKind string

const (
	LoadKindNew    LoadKind = "new"
	LoadKindUpdate LoadKind = "update"
)

// LoadStatus is the terminal outcome set of a Load (§4.7).
type LoadStatus string

const (
	LoadStatusInProgress        LoadStatus = "in_progress"
	LoadStatusCompleted         LoadStatus = "completed"
	LoadStatusPartiallyComplete LoadStatus = "partially_completed"
	LoadStatusFailed            LoadStatus = "failed"
)

// Load is one ingestion batch (§3 Load).
type Load struct {
	ID               int64
	OwnerID          string
	TargetTaxonomyID int64
	Kind             LoadKind
	TaxonomyKind     TaxonomyKind
	StartedAt        time.Time
	EndedAt          *time.Time
	Status           LoadStatus
	Active           bool
	Details          map[string]interface{}
}

// IsTerminal reports whether the load has reached one of its closing states.
func (l *Load) IsTerminal() bool {
	return l.Status != LoadStatusInProgress
}

// RowStatus is the monotonic per-row status of a BronzeRow (§3, §4.12).
type RowStatus string

const (
	RowStatusInProgress RowStatus = "in_progress"
	RowStatusCompleted  RowStatus = "completed"
	RowStatusFailed     RowStatus = "failed"
	RowStatusSkipped    RowStatus = "skipped"
)

// BronzeRow is the raw input row preserved verbatim for audit and replay
// (§3 BronzeRow).
type BronzeRow struct {
	ID               int64
	LoadID           int64
	OwnerID          string
	TargetTaxonomyID int64
	RowIndex         int
	Payload          map[string]interface{}
	Status           RowStatus
	Active           bool
	Error            string
}

// LoadCounts summarizes row outcomes for the load-close callback (§6).
type LoadCounts struct {
	Completed int
	Failed    int
	Skipped   int
}
