// Package grading scores objective work at submission time and routes subjective
// work through the pending-evaluation queue.
package grading

import (
	"context"
	"time"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/audit"
	"github.com/assess-hub/assesshub-backend/internal/model"
	"github.com/assess-hub/assesshub-backend/internal/storage"
)

type SubmitRequest struct {
	ExamID             string                    `json:"exam_id"`
	AttemptID          string                    `json:"attempt_id,omitempty"`
	Type               string                    `json:"submission_type"`
	Answers            []model.SelectedAnswer    `json:"answers,omitempty"`
	VoiceRecordingURL  string                    `json:"voice_recording,omitempty"`
	DescriptiveAnswers []model.DescriptiveAnswer `json:"descriptive_answers,omitempty"`
}

// Decision is the evaluator's grading input for a pending submission.
type Decision struct {
	OverallScore float64            `json:"overall_score"`
	Scores       map[string]float64 `json:"scores,omitempty"`
	Feedback     string             `json:"feedback,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	Voice        *VoiceMetrics      `json:"voice,omitempty"`
}

// strategy fills the scoring fields and initial status for one submission type.
type strategy func(e model.Exam, req SubmitRequest, s *model.Submission)

var strategies = map[string]strategy{
	model.SubmissionMCQ: func(e model.Exam, req SubmitRequest, s *model.Submission) {
		s.CorrectAnswers, s.TotalQuestions, s.Score = ScoreMCQ(e, req.Answers)
		s.Status = model.StatusEvaluated // deterministic at write time, no human step
	},
	model.SubmissionVoice:       subjective,
	model.SubmissionDescriptive: subjective,
	model.SubmissionMixed:       subjective,
}

func subjective(_ model.Exam, _ SubmitRequest, s *model.Submission) {
	s.Status = model.StatusPending
}

type Engine struct {
	sel    *storage.Selector
	events *audit.Recorder
	cap    int // lifetime submission ceiling per student
	now    func() time.Time
}

func NewEngine(sel *storage.Selector, events *audit.Recorder, submissionCap int) *Engine {
	return &Engine{sel: sel, events: events, cap: submissionCap, now: time.Now}
}

// Submit scores objective answers immediately and persists the record. Exceeding
// the per-student ceiling or double-submitting against the same attempt performs
// no write.
func (g *Engine) Submit(ctx context.Context, studentID string, req SubmitRequest) (model.Submission, error) {
	if !model.ValidSubmissionType(req.Type) {
		return model.Submission{}, apperr.New(apperr.ValidationFailed, "unknown submission type")
	}
	b := g.sel.Backend(ctx, studentID, req.ExamID)

	n, err := b.CountSubmissionsByStudent(ctx, studentID)
	if err != nil {
		return model.Submission{}, err
	}
	if g.cap > 0 && n >= g.cap {
		return model.Submission{}, apperr.Newf(apperr.QuotaExceeded, "submission limit of %d reached", g.cap)
	}

	e, err := b.GetExam(ctx, req.ExamID)
	if err != nil {
		return model.Submission{}, err
	}

	// The per-attempt uniqueness guard must not depend on the client volunteering
	// attempt_id: bind the caller's open attempt when the field is omitted, and
	// fall back to one submission per (student, exam) when no attempt exists.
	if req.AttemptID == "" {
		if cur, aerr := b.GetOpenAttempt(ctx, req.ExamID, studentID); aerr == nil {
			req.AttemptID = cur.ID
		} else if !apperr.IsKind(aerr, apperr.NotFound) {
			return model.Submission{}, aerr
		}
	}
	if req.AttemptID == "" {
		prior, perr := b.ListSubmissions(ctx, storage.SubmissionListOpts{
			ExamID: req.ExamID, StudentID: studentID, Limit: 1,
		})
		if perr != nil {
			return model.Submission{}, perr
		}
		if len(prior) > 0 {
			return model.Submission{}, apperr.New(apperr.Conflict, "exam already submitted")
		}
	}

	s := model.Submission{
		ID:                 b.NewID(),
		ExamID:             req.ExamID,
		StudentID:          studentID,
		AttemptID:          req.AttemptID,
		Type:               req.Type,
		Answers:            req.Answers,
		VoiceRecordingURL:  req.VoiceRecordingURL,
		DescriptiveAnswers: req.DescriptiveAnswers,
		CreatedAt:          g.now(),
	}
	strategies[req.Type](e, req, &s)

	if err := b.CreateSubmission(ctx, s); err != nil {
		return model.Submission{}, err
	}
	g.events.Append(ctx, audit.SubmissionCreated, s.ID, studentID, s)
	return s, nil
}

// Evaluate applies an evaluator decision to a submission. Re-evaluation is allowed
// and last write wins; two racing evaluators are a specified, harmless race.
func (g *Engine) Evaluate(ctx context.Context, evaluatorID, submissionID string, dec Decision) (model.Submission, error) {
	b := g.sel.Backend(ctx, submissionID)
	s, err := b.GetSubmission(ctx, submissionID)
	if err != nil {
		return model.Submission{}, err
	}
	if !model.CanTransition(s.Status, model.StatusEvaluated) {
		return model.Submission{}, apperr.Newf(apperr.Conflict, "cannot evaluate a %s submission", s.Status)
	}

	maxMarks := float64(model.DefaultTotalMaxMarks)
	if e, err := b.GetExam(ctx, s.ExamID); err == nil {
		maxMarks = e.MaxMarks()
	} else if !apperr.IsKind(err, apperr.NotFound) {
		return model.Submission{}, err
	}

	overall := dec.OverallScore
	if s.Type == model.SubmissionVoice && dec.Voice != nil {
		overall, _ = ScoreVoice(*dec.Voice)
	}
	if overall < 0 || overall > maxMarks {
		return model.Submission{}, apperr.Newf(apperr.OutOfRange, "overall score must be in [0, %g]", maxMarks)
	}

	s.Evaluation = &model.Evaluation{
		EvaluatorID:  evaluatorID,
		EvaluatedAt:  g.now(),
		OverallScore: overall,
		Scores:       dec.Scores,
		Feedback:     dec.Feedback,
		Tags:         dec.Tags,
	}
	s.Score = overall
	s.Status = model.StatusEvaluated
	s.EvaluatedBy = evaluatorID

	if err := b.UpdateSubmission(ctx, s); err != nil {
		return model.Submission{}, err
	}
	g.events.Append(ctx, audit.SubmissionEvaluated, s.ID, evaluatorID, s.Evaluation)
	return s, nil
}

// SetStatus is the trainer's status-only transition (approve/reject an evaluated
// submission).
func (g *Engine) SetStatus(ctx context.Context, submissionID, to string) (model.Submission, error) {
	if to != model.StatusApproved && to != model.StatusRejected {
		return model.Submission{}, apperr.New(apperr.ValidationFailed, "status must be approved or rejected")
	}
	b := g.sel.Backend(ctx, submissionID)
	s, err := b.GetSubmission(ctx, submissionID)
	if err != nil {
		return model.Submission{}, err
	}
	if !model.CanTransition(s.Status, to) {
		return model.Submission{}, apperr.Newf(apperr.Conflict, "cannot move %s to %s", s.Status, to)
	}
	s.Status = to
	if err := b.UpdateSubmission(ctx, s); err != nil {
		return model.Submission{}, err
	}
	return s, nil
}

// ListPending is the evaluator queue.
func (g *Engine) ListPending(ctx context.Context, limit, offset int) ([]model.Submission, error) {
	b := g.sel.Backend(ctx)
	return b.ListSubmissions(ctx, storage.SubmissionListOpts{
		Status: model.StatusPending,
		Limit:  limit,
		Offset: offset,
	})
}

// List is a role-scoped listing; callers force StudentID for learners.
func (g *Engine) List(ctx context.Context, opts storage.SubmissionListOpts) ([]model.Submission, error) {
	return g.sel.Backend(ctx, opts.StudentID).ListSubmissions(ctx, opts)
}

// Get fetches one submission under the caller's visibility rules.
func (g *Engine) Get(ctx context.Context, submissionID, viewerID, role string) (model.Submission, error) {
	s, err := g.sel.Backend(ctx, submissionID).GetSubmission(ctx, submissionID)
	if err != nil {
		return model.Submission{}, err
	}
	if role == model.RoleLearner && s.StudentID != viewerID {
		return model.Submission{}, apperr.New(apperr.NotFound, "submission not found")
	}
	return s, nil
}
