// Package loadstate implements C7: the load state machine that decides a
// load's terminal outcome from its rows' statuses at close.
package loadstate

import (
	"time"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// Tally accumulates row outcomes as a load's rows are processed. It is the
// input to Outcome.
type Tally struct {
	Completed int
	Failed    int
	Skipped   int
}

// Observe records one row's terminal status.
func (t *Tally) Observe(status models.RowStatus) {
	switch status {
	case models.RowStatusCompleted:
		t.Completed++
	case models.RowStatusFailed:
		t.Failed++
	case models.RowStatusSkipped:
		t.Skipped++
	}
}

// Counts projects the tally into the shape callers (callbacks, APIs) expose.
func (t Tally) Counts() models.LoadCounts {
	return models.LoadCounts{Completed: t.Completed, Failed: t.Failed, Skipped: t.Skipped}
}

// Outcome derives the terminal LoadStatus from a row tally (§4.7): completed
// when every non-skipped row completed, partially_completed when at least
// one row completed and at least one failed, failed when none completed.
func Outcome(t Tally) models.LoadStatus {
	switch {
	case t.Completed > 0 && t.Failed == 0:
		return models.LoadStatusCompleted
	case t.Completed > 0 && t.Failed > 0:
		return models.LoadStatusPartiallyComplete
	default:
		return models.LoadStatusFailed
	}
}

// Machine drives one Load through in_progress -> terminal. It holds no
// persistence of its own; callers (C12) own the Load record and call Close
// once all rows have reached a terminal row-status.
type Machine struct {
	load *models.Load
}

// New wraps a Load that must currently be in_progress.
func New(load *models.Load) (*Machine, error) {
	if load.Status != models.LoadStatusInProgress {
		return nil, models.ErrLoadAlreadyClosed
	}
	return &Machine{load: load}, nil
}

// Close transitions the load to its terminal status derived from tally and
// stamps EndedAt. Calling Close twice on the same Machine returns
// ErrLoadAlreadyClosed.
func (m *Machine) Close(tally Tally, now time.Time) (models.LoadStatus, error) {
	if m.load.IsTerminal() {
		return "", models.ErrLoadAlreadyClosed
	}
	status := Outcome(tally)
	m.load.Status = status
	m.load.EndedAt = &now
	return status, nil
}

// CloseOnTimeout ends a load that hit its deadline (§5): partially_completed
// if any row succeeded, otherwise failed. Rows still in_progress are left as
// the coordinator last set them — the load record's status alone decides
// terminal outcome for callback/API purposes.
func (m *Machine) CloseOnTimeout(tally Tally, now time.Time) (models.LoadStatus, error) {
	if m.load.IsTerminal() {
		return "", models.ErrLoadAlreadyClosed
	}
	status := models.LoadStatusFailed
	if tally.Completed > 0 {
		status = models.LoadStatusPartiallyComplete
	}
	m.load.Status = status
	m.load.EndedAt = &now
	return status, nil
}

// Withdraw performs a soft-withdraw (§4.7): load_active=false, cascading via
// storage-layer views to bronze rows and silver nodes/attributes tagged with
// this load. It does not change Status — a withdrawn load keeps its
// terminal outcome, it simply stops counting for read traffic.
func (m *Machine) Withdraw() {
	m.load.Active = false
}
