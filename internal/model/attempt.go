package model

import "time"

// Attempt is a time-boxed session of one student on one exam. TimeLimit is snapshotted
// from the exam at start time; elapsed/remaining are derived, never stored.
type Attempt struct {
	ID          string     `bson:"_id" json:"id"`
	ExamID      string     `bson:"exam_id" json:"exam_id"`
	StudentID   string     `bson:"student_id" json:"student_id"`
	StartedAt   time.Time  `bson:"started_at" json:"started_at"`
	TimeLimit   int        `bson:"time_limit" json:"time_limit"` // minutes
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	Expired     bool       `bson:"expired" json:"expired"`
	TimeSpent   int        `bson:"time_spent,omitempty" json:"time_spent,omitempty"` // minutes, on completion
}

func (a Attempt) Open() bool { return a.CompletedAt == nil }

// TimeElapsed is whole minutes since start, floored.
func (a Attempt) TimeElapsed(now time.Time) int {
	d := now.Sub(a.StartedAt)
	if d < 0 {
		return 0
	}
	return int(d.Minutes())
}

// RemainingTime keeps the fractional minutes; only the floor at zero is applied.
func (a Attempt) RemainingTime(now time.Time) float64 {
	rem := float64(a.TimeLimit) - now.Sub(a.StartedAt).Minutes()
	if rem < 0 {
		return 0
	}
	return rem
}

// ValidAt is the open-and-within-budget rule every status check applies.
func (a Attempt) ValidAt(now time.Time) bool {
	return a.Open() && a.TimeElapsed(now) <= a.TimeLimit
}
