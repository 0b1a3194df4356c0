package grading

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/model"
	"github.com/assess-hub/assesshub-backend/internal/storage"
)

func testEngine(t *testing.T, cap int) (*Engine, *storage.MemoryBackend) {
	t.Helper()
	mem := storage.NewMemoryBackend()
	sel := storage.NewSelector(nil, mem, nil)
	return NewEngine(sel, nil, cap), mem
}

func seedMCQExam(t *testing.T, mem *storage.MemoryBackend, correct []int) model.Exam {
	t.Helper()
	e := model.Exam{
		ID: mem.NewID(), TrainerID: "t1", Title: "quiz", Type: model.ExamTypeMCQ,
		IsPublished: true, IsActive: true, CreatedAt: time.Now(),
	}
	for _, c := range correct {
		e.Questions = append(e.Questions, model.MCQQuestion{
			Text: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: c, Points: 1,
		})
	}
	require.NoError(t, mem.PutExam(context.Background(), e))
	return e
}

func TestSubmitMCQScoring(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 100)
	e := seedMCQExam(t, mem, []int{0, 3, 0})

	s, err := g.Submit(ctx, "s1", SubmitRequest{
		ExamID: e.ID,
		Type:   model.SubmissionMCQ,
		Answers: []model.SelectedAnswer{
			{QuestionIndex: 0, SelectedOption: 0},
			{QuestionIndex: 1, SelectedOption: 2},
			{QuestionIndex: 2, SelectedOption: 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.CorrectAnswers)
	assert.Equal(t, 3, s.TotalQuestions)
	assert.Equal(t, 67.0, s.Score) // round(100*2/3)
	assert.Equal(t, model.StatusEvaluated, s.Status, "objective work needs no human step")
}

func TestSubmitMCQEmptyAnswers(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 100)
	e := seedMCQExam(t, mem, []int{0})

	s, err := g.Submit(ctx, "s1", SubmitRequest{ExamID: e.ID, Type: model.SubmissionMCQ})
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalQuestions)
	assert.Equal(t, 0.0, s.Score)
}

func TestSubmitSubjectiveStaysPending(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 100)
	e := seedMCQExam(t, mem, []int{0})

	s, err := g.Submit(ctx, "s1", SubmitRequest{
		ExamID:             e.ID,
		Type:               model.SubmissionDescriptive,
		DescriptiveAnswers: []model.DescriptiveAnswer{{QuestionIndex: 0, Text: "an essay"}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, s.Status)
	assert.Zero(t, s.Score)
	assert.Empty(t, s.EvaluatedBy)
}

func TestSubmitQuota(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 2)

	exams := []model.Exam{
		seedMCQExam(t, mem, []int{0}),
		seedMCQExam(t, mem, []int{0}),
		seedMCQExam(t, mem, []int{0}),
	}
	for _, e := range exams[:2] {
		_, err := g.Submit(ctx, "s1", SubmitRequest{ExamID: e.ID, Type: model.SubmissionVoice})
		require.NoError(t, err)
	}
	_, err := g.Submit(ctx, "s1", SubmitRequest{ExamID: exams[2].ID, Type: model.SubmissionVoice})
	assert.True(t, apperr.IsKind(err, apperr.QuotaExceeded))

	n, err := mem.CountSubmissionsByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "a rejected submit writes nothing")

	// another student is unaffected
	_, err = g.Submit(ctx, "s2", SubmitRequest{ExamID: exams[0].ID, Type: model.SubmissionVoice})
	assert.NoError(t, err)
}

func TestSubmitBindsOpenAttempt(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 100)
	e := seedMCQExam(t, mem, []int{0})

	a := model.Attempt{
		ID: mem.NewID(), ExamID: e.ID, StudentID: "s1",
		StartedAt: time.Now(), TimeLimit: 60,
	}
	require.NoError(t, mem.CreateAttempt(ctx, a))

	// the request omits attempt_id; the open attempt is bound anyway
	s, err := g.Submit(ctx, "s1", SubmitRequest{ExamID: e.ID, Type: model.SubmissionMCQ})
	require.NoError(t, err)
	assert.Equal(t, a.ID, s.AttemptID)

	// so the one-submission-per-attempt guard holds regardless of request shape
	_, err = g.Submit(ctx, "s1", SubmitRequest{ExamID: e.ID, Type: model.SubmissionMCQ})
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestSubmitDoubleWithoutAttempt(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 100)
	e := seedMCQExam(t, mem, []int{0})

	_, err := g.Submit(ctx, "s1", SubmitRequest{ExamID: e.ID, Type: model.SubmissionMCQ})
	require.NoError(t, err)
	_, err = g.Submit(ctx, "s1", SubmitRequest{ExamID: e.ID, Type: model.SubmissionMCQ})
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	// a different exam is still open to the student
	other := seedMCQExam(t, mem, []int{0})
	_, err = g.Submit(ctx, "s1", SubmitRequest{ExamID: other.ID, Type: model.SubmissionMCQ})
	assert.NoError(t, err)
}

func TestSubmitDoubleSubmitSameAttempt(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 100)
	e := seedMCQExam(t, mem, []int{0})

	_, err := g.Submit(ctx, "s1", SubmitRequest{ExamID: e.ID, AttemptID: "a1", Type: model.SubmissionMCQ})
	require.NoError(t, err)
	_, err = g.Submit(ctx, "s1", SubmitRequest{ExamID: e.ID, AttemptID: "a1", Type: model.SubmissionMCQ})
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestSubmitUnknownType(t *testing.T) {
	ctx := context.Background()
	g, _ := testEngine(t, 100)
	_, err := g.Submit(ctx, "s1", SubmitRequest{ExamID: "e", Type: "oral"})
	assert.True(t, apperr.IsKind(err, apperr.ValidationFailed))
}

func seedDescriptiveSubmission(t *testing.T, g *Engine, mem *storage.MemoryBackend, maxMarks float64) model.Submission {
	t.Helper()
	ctx := context.Background()
	open := time.Now()
	e := model.Exam{
		ID: mem.NewID(), TrainerID: "t1", Title: "essay", Type: model.ExamTypeDescriptive,
		DescriptiveQuestions: []model.DescriptiveQuestion{{Prompt: "p", MaxPoints: maxMarks}},
		OpenDate:             &open, DescriptiveTimeLimit: 60, TotalMaxMarks: maxMarks,
		IsPublished: true, IsActive: true,
	}
	require.NoError(t, mem.PutExam(ctx, e))
	s, err := g.Submit(ctx, "s1", SubmitRequest{
		ExamID: e.ID, Type: model.SubmissionDescriptive,
		DescriptiveAnswers: []model.DescriptiveAnswer{{QuestionIndex: 0, Text: "essay text"}},
	})
	require.NoError(t, err)
	return s
}

func TestEvaluateScoreBounds(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 100)
	s := seedDescriptiveSubmission(t, g, mem, 50)

	_, err := g.Evaluate(ctx, "ev1", s.ID, Decision{OverallScore: 60})
	assert.True(t, apperr.IsKind(err, apperr.OutOfRange))

	got, err := g.Evaluate(ctx, "ev1", s.ID, Decision{OverallScore: 50, Feedback: "solid"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusEvaluated, got.Status)
	assert.Equal(t, 50.0, got.Score)
	assert.Equal(t, "ev1", got.EvaluatedBy)
	require.NotNil(t, got.Evaluation)
	assert.Equal(t, "ev1", got.Evaluation.EvaluatorID)
	assert.Equal(t, "solid", got.Evaluation.Feedback)
}

func TestEvaluateNotFound(t *testing.T) {
	ctx := context.Background()
	g, _ := testEngine(t, 100)
	_, err := g.Evaluate(ctx, "ev1", "missing", Decision{OverallScore: 10})
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestEvaluateLastWriteWins(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 100)
	s := seedDescriptiveSubmission(t, g, mem, 100)

	_, err := g.Evaluate(ctx, "ev1", s.ID, Decision{OverallScore: 40, Feedback: "first"})
	require.NoError(t, err)
	got, err := g.Evaluate(ctx, "ev2", s.ID, Decision{OverallScore: 80, Feedback: "second"})
	require.NoError(t, err)

	assert.Equal(t, 80.0, got.Score)
	assert.Equal(t, "ev2", got.EvaluatedBy)
	assert.Equal(t, "second", got.Evaluation.Feedback)
}

func TestEvaluateVoiceUsesAnalyzerMetrics(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 100)
	e := seedMCQExam(t, mem, []int{0})

	s, err := g.Submit(ctx, "s1", SubmitRequest{
		ExamID: e.ID, Type: model.SubmissionVoice, VoiceRecordingURL: "file:///rec.wav",
	})
	require.NoError(t, err)

	got, err := g.Evaluate(ctx, "ev1", s.ID, Decision{
		Voice: &VoiceMetrics{Accuracy: 80, Fluency: 70, Pronunciation: 60},
	})
	require.NoError(t, err)
	assert.Equal(t, 71.0, got.Score) // 0.4*80 + 0.3*70 + 0.3*60
}

func TestSetStatusTransitions(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 100)
	s := seedDescriptiveSubmission(t, g, mem, 100)

	// pending cannot be approved directly
	_, err := g.SetStatus(ctx, s.ID, model.StatusApproved)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	_, err = g.Evaluate(ctx, "ev1", s.ID, Decision{OverallScore: 70})
	require.NoError(t, err)

	got, err := g.SetStatus(ctx, s.ID, model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)

	_, err = g.SetStatus(ctx, s.ID, model.StatusRejected)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	_, err = g.SetStatus(ctx, s.ID, "pending")
	assert.True(t, apperr.IsKind(err, apperr.ValidationFailed))
}

func TestListPending(t *testing.T) {
	ctx := context.Background()
	g, mem := testEngine(t, 100)
	s := seedDescriptiveSubmission(t, g, mem, 100)

	list, err := g.ListPending(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].ID)

	_, err = g.Evaluate(ctx, "ev1", s.ID, Decision{OverallScore: 10})
	require.NoError(t, err)

	list, err = g.ListPending(ctx, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestScoreVoice(t *testing.T) {
	overall, passed := ScoreVoice(VoiceMetrics{Accuracy: 80, Fluency: 70, Pronunciation: 60})
	assert.Equal(t, 71.0, overall)
	assert.True(t, passed)

	overall, passed = ScoreVoice(VoiceMetrics{Accuracy: 70, Fluency: 70, Pronunciation: 69})
	assert.Equal(t, 69.7, overall)
	assert.False(t, passed)

	overall, passed = ScoreVoice(VoiceMetrics{})
	assert.Equal(t, 0.0, overall)
	assert.False(t, passed)
}

func TestScoreMCQOutOfRangeIndexIgnored(t *testing.T) {
	e := model.Exam{Questions: []model.MCQQuestion{{CorrectAnswer: 1}}}
	correct, total, score := ScoreMCQ(e, []model.SelectedAnswer{
		{QuestionIndex: 0, SelectedOption: 1},
		{QuestionIndex: 5, SelectedOption: 1},
	})
	assert.Equal(t, 1, correct)
	assert.Equal(t, 1, total)
	assert.Equal(t, 100.0, score)
}
