// Package exam is the read-mostly catalog of exam definitions. It hands immutable
// snapshots to the attempt tracker and computes per-viewer completion flags fresh
// on every read.
package exam

import (
	"context"
	"time"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/model"
	"github.com/assess-hub/assesshub-backend/internal/storage"
)

type Catalog struct {
	sel *storage.Selector
	now func() time.Time
}

func NewCatalog(sel *storage.Selector) *Catalog {
	return &Catalog{sel: sel, now: time.Now}
}

// Create validates and persists a new exam owned by the trainer.
func (c *Catalog) Create(ctx context.Context, trainerID string, e model.Exam) (model.Exam, error) {
	b := c.sel.Backend(ctx, trainerID)
	e.ID = b.NewID()
	e.TrainerID = trainerID
	e.IsActive = true
	e.CreatedAt = c.now()
	if err := e.Validate(); err != nil {
		return model.Exam{}, err
	}
	if err := b.PutExam(ctx, e); err != nil {
		return model.Exam{}, err
	}
	return e, nil
}

// Update replaces an exam definition. Only the owning trainer may mutate it, and
// publication state is not part of the definition: IsPublished and IsActive carry
// over from the stored exam, with the publish endpoint as the only way to flip them.
func (c *Catalog) Update(ctx context.Context, trainerID string, e model.Exam) (model.Exam, error) {
	b := c.sel.Backend(ctx, e.ID, trainerID)
	cur, err := b.GetExam(ctx, e.ID)
	if err != nil {
		return model.Exam{}, err
	}
	if cur.TrainerID != trainerID {
		return model.Exam{}, apperr.New(apperr.Forbidden, "not the exam owner")
	}
	e.TrainerID = cur.TrainerID
	e.CreatedAt = cur.CreatedAt
	e.IsPublished = cur.IsPublished
	e.IsActive = cur.IsActive
	if err := e.Validate(); err != nil {
		return model.Exam{}, err
	}
	if err := b.PutExam(ctx, e); err != nil {
		return model.Exam{}, err
	}
	return e, nil
}

// Publish flips visibility to learners. IsActive stays an independent kill switch.
func (c *Catalog) Publish(ctx context.Context, trainerID, examID string, published bool) (model.Exam, error) {
	b := c.sel.Backend(ctx, examID, trainerID)
	e, err := b.GetExam(ctx, examID)
	if err != nil {
		return model.Exam{}, err
	}
	if e.TrainerID != trainerID {
		return model.Exam{}, apperr.New(apperr.Forbidden, "not the exam owner")
	}
	e.IsPublished = published
	if err := b.PutExam(ctx, e); err != nil {
		return model.Exam{}, err
	}
	return e, nil
}

// GetPublished lists learner-visible exams with the viewer's own completion state.
// Descriptive exams count as complete on any submission; other types only once a
// submission has been evaluated.
func (c *Catalog) GetPublished(ctx context.Context, viewerID string) ([]model.ExamSummary, error) {
	b := c.sel.Backend(ctx, viewerID)
	exams, err := b.ListPublishedExams(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := b.ListSubmissions(ctx, storage.SubmissionListOpts{StudentID: viewerID})
	if err != nil {
		return nil, err
	}
	byExam := map[string][]model.Submission{}
	for _, s := range subs {
		byExam[s.ExamID] = append(byExam[s.ExamID], s)
	}

	out := make([]model.ExamSummary, 0, len(exams))
	for _, e := range exams {
		done := examCompleted(e, byExam[e.ID])
		out = append(out, model.ExamSummary{
			ID:                   e.ID,
			Title:                e.Title,
			Type:                 e.Type,
			OpenDate:             e.OpenDate,
			DescriptiveTimeLimit: e.DescriptiveTimeLimit,
			QuestionCount:        len(e.Questions) + len(e.VoicePrompts) + len(e.DescriptiveQuestions),
			IsCompleted:          done,
			CannotRetake:         done,
		})
	}
	return out, nil
}

func examCompleted(e model.Exam, subs []model.Submission) bool {
	for _, s := range subs {
		if e.Type == model.ExamTypeDescriptive {
			return true
		}
		if s.Status != model.StatusPending {
			return true
		}
	}
	return false
}

// GetByID applies the caller's visibility rules: learners only see published active
// exams with the answer key stripped; trainers only their own.
func (c *Catalog) GetByID(ctx context.Context, id, viewerID, role string) (model.Exam, error) {
	b := c.sel.Backend(ctx, id)
	e, err := b.GetExam(ctx, id)
	if err != nil {
		return model.Exam{}, err
	}
	switch role {
	case model.RoleLearner:
		if !e.VisibleToLearners() {
			return model.Exam{}, apperr.New(apperr.NotFound, "exam not found")
		}
		return sanitize(e), nil
	case model.RoleTrainer:
		if e.TrainerID != viewerID {
			return model.Exam{}, apperr.New(apperr.NotFound, "exam not found")
		}
	}
	return e, nil
}

// sanitize hides correct answers from learners.
func sanitize(e model.Exam) model.Exam {
	qs := make([]model.MCQQuestion, len(e.Questions))
	copy(qs, e.Questions)
	for i := range qs {
		qs[i].CorrectAnswer = -1
	}
	e.Questions = qs
	return e
}
