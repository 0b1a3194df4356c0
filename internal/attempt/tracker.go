// Package attempt enforces the time-boxed session state machine: at most one open
// attempt per (student, exam), expiry applied lazily on any status check.
package attempt

import (
	"context"
	"time"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/audit"
	"github.com/assess-hub/assesshub-backend/internal/model"
	"github.com/assess-hub/assesshub-backend/internal/storage"
)

// Status is the learner-facing view of their session on one exam.
type Status struct {
	HasActiveAttempt bool     `json:"has_active_attempt"`
	CanStart         bool     `json:"can_start"`
	RemainingTime    *float64 `json:"remaining_time,omitempty"` // minutes
	TimeElapsed      *int     `json:"time_elapsed,omitempty"`   // whole minutes
}

type Tracker struct {
	sel    *storage.Selector
	events *audit.Recorder
	now    func() time.Time
}

func NewTracker(sel *storage.Selector, events *audit.Recorder) *Tracker {
	return &Tracker{sel: sel, events: events, now: time.Now}
}

// Start opens an attempt, or returns the existing one unchanged when it is still
// valid (idempotent restart). An expired open attempt is closed first, then a fresh
// one is created with the time limit snapshotted from the exam.
func (t *Tracker) Start(ctx context.Context, studentID, examID string) (model.Attempt, error) {
	b := t.sel.Backend(ctx, studentID, examID)
	now := t.now()

	if cur, err := b.GetOpenAttempt(ctx, examID, studentID); err == nil {
		if cur.ValidAt(now) {
			return cur, nil
		}
		if err := t.expire(ctx, b, cur, now); err != nil {
			return model.Attempt{}, err
		}
	} else if !apperr.IsKind(err, apperr.NotFound) {
		return model.Attempt{}, err
	}

	e, err := b.GetExam(ctx, examID)
	if err != nil {
		return model.Attempt{}, err
	}

	a := model.Attempt{
		ID:        b.NewID(),
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: now,
		TimeLimit: e.TimeLimit(),
	}
	if err := b.CreateAttempt(ctx, a); err != nil {
		// A concurrent Start won the race; the storage uniqueness constraint held.
		// Return the attempt that exists rather than failing the loser.
		if apperr.IsKind(err, apperr.Conflict) {
			if cur, gerr := b.GetOpenAttempt(ctx, examID, studentID); gerr == nil {
				return cur, nil
			}
			return model.Attempt{}, err
		}
		return model.Attempt{}, err
	}
	t.events.Append(ctx, audit.AttemptStarted, a.ID, studentID, a)
	return a, nil
}

// Status reports session state and performs the same lazy-expiry transition as
// Start when it finds an expired open attempt. The read is side-effecting on
// purpose; there is no background reconciler.
func (t *Tracker) Status(ctx context.Context, studentID, examID string) (Status, error) {
	b := t.sel.Backend(ctx, studentID, examID)
	now := t.now()

	cur, err := b.GetOpenAttempt(ctx, examID, studentID)
	if apperr.IsKind(err, apperr.NotFound) {
		return Status{HasActiveAttempt: false, CanStart: true}, nil
	}
	if err != nil {
		return Status{}, err
	}

	if !cur.ValidAt(now) {
		if err := t.expire(ctx, b, cur, now); err != nil {
			return Status{}, err
		}
		return Status{HasActiveAttempt: false, CanStart: true}, nil
	}

	elapsed := cur.TimeElapsed(now)
	remaining := cur.RemainingTime(now)
	return Status{
		HasActiveAttempt: true,
		CanStart:         false,
		RemainingTime:    &remaining,
		TimeElapsed:      &elapsed,
	}, nil
}

// Complete closes the attempt explicitly and records how long it ran.
func (t *Tracker) Complete(ctx context.Context, studentID, attemptID string) (model.Attempt, error) {
	b := t.sel.Backend(ctx, studentID, attemptID)
	a, err := b.GetAttempt(ctx, attemptID)
	if err != nil {
		return model.Attempt{}, err
	}
	if a.StudentID != studentID {
		return model.Attempt{}, apperr.New(apperr.Forbidden, "attempt belongs to another student")
	}
	if !a.Open() {
		return model.Attempt{}, apperr.New(apperr.AlreadyCompleted, "attempt already completed")
	}
	now := t.now()
	a.CompletedAt = &now
	a.TimeSpent = a.TimeElapsed(now)
	if err := b.UpdateAttempt(ctx, a); err != nil {
		return model.Attempt{}, err
	}
	t.events.Append(ctx, audit.AttemptCompleted, a.ID, studentID, a)
	return a, nil
}

func (t *Tracker) expire(ctx context.Context, b storage.Backend, a model.Attempt, now time.Time) error {
	a.CompletedAt = &now
	a.Expired = true
	a.TimeSpent = a.TimeLimit
	if err := b.UpdateAttempt(ctx, a); err != nil {
		return err
	}
	t.events.Append(ctx, audit.AttemptExpired, a.ID, a.StudentID, a)
	return nil
}
