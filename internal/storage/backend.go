// Package storage routes every read and write to one of two backends: a durable
// document store when it is reachable and configured, and an ephemeral in-process
// store otherwise. The two are never reconciled; the Selector is a router, not a
// replication layer.
package storage

import (
	"context"

	"github.com/assess-hub/assesshub-backend/internal/model"
)

type SubmissionListOpts struct {
	ExamID      string
	StudentID   string
	Status      string
	EvaluatedBy string
	Limit       int
	Offset      int
}

// Backend is the persistence contract both stores implement. Identity and
// authorization semantics are the same on either side; only durability differs.
type Backend interface {
	// NewID mints an identifier in this backend's native shape.
	NewID() string

	CreateUser(ctx context.Context, u model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	// FindAnyByRole is the last-resort identity lookup. See identity.Resolver.
	FindAnyByRole(ctx context.Context, role string) (model.User, error)
	UpdateUser(ctx context.Context, u model.User) error
	ListUsersByTrainer(ctx context.Context, trainerID string) ([]model.User, error)

	PutExam(ctx context.Context, e model.Exam) error
	GetExam(ctx context.Context, id string) (model.Exam, error)
	ListPublishedExams(ctx context.Context) ([]model.Exam, error)
	ListExamsByTrainer(ctx context.Context, trainerID string) ([]model.Exam, error)

	// CreateAttempt fails with apperr.Conflict when an open attempt already exists
	// for (exam, student). The check is enforced by the store, not by callers.
	CreateAttempt(ctx context.Context, a model.Attempt) error
	GetAttempt(ctx context.Context, id string) (model.Attempt, error)
	GetOpenAttempt(ctx context.Context, examID, studentID string) (model.Attempt, error)
	UpdateAttempt(ctx context.Context, a model.Attempt) error

	// CreateSubmission fails with apperr.Conflict when the attempt already has one.
	CreateSubmission(ctx context.Context, s model.Submission) error
	GetSubmission(ctx context.Context, id string) (model.Submission, error)
	UpdateSubmission(ctx context.Context, s model.Submission) error
	CountSubmissionsByStudent(ctx context.Context, studentID string) (int, error)
	ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]model.Submission, error)
}
