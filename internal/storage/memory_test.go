package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/model"
)

func TestMemoryOpenAttemptUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	a := model.Attempt{ID: m.NewID(), ExamID: "e1", StudentID: "s1", StartedAt: time.Now(), TimeLimit: 60}
	require.NoError(t, m.CreateAttempt(ctx, a))

	dup := model.Attempt{ID: m.NewID(), ExamID: "e1", StudentID: "s1", StartedAt: time.Now(), TimeLimit: 60}
	err := m.CreateAttempt(ctx, dup)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	// closing the attempt frees the slot
	now := time.Now()
	a.CompletedAt = &now
	require.NoError(t, m.UpdateAttempt(ctx, a))
	assert.NoError(t, m.CreateAttempt(ctx, dup))
}

func TestMemoryConcurrentAttemptCreates(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := model.Attempt{ID: m.NewID(), ExamID: "e1", StudentID: "s1", StartedAt: time.Now(), TimeLimit: 60}
			errs[i] = m.CreateAttempt(ctx, a)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.True(t, apperr.IsKind(err, apperr.Conflict))
		}
	}
	assert.Equal(t, 1, ok, "exactly one open attempt may be created")

	_, err := m.GetOpenAttempt(ctx, "e1", "s1")
	assert.NoError(t, err)
}

func TestMemorySubmissionPerAttempt(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	s := model.Submission{ID: m.NewID(), ExamID: "e1", StudentID: "s1", AttemptID: "a1", Type: model.SubmissionMCQ, CreatedAt: time.Now()}
	require.NoError(t, m.CreateSubmission(ctx, s))

	dup := model.Submission{ID: m.NewID(), ExamID: "e1", StudentID: "s1", AttemptID: "a1", Type: model.SubmissionMCQ, CreatedAt: time.Now()}
	err := m.CreateSubmission(ctx, dup)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	// submissions without an attempt reference are not deduplicated
	free := model.Submission{ID: m.NewID(), ExamID: "e1", StudentID: "s1", Type: model.SubmissionVoice, CreatedAt: time.Now()}
	assert.NoError(t, m.CreateSubmission(ctx, free))
}

func TestMemorySubmissionFiltersAndCount(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	mk := func(exam, student, status string) {
		require.NoError(t, m.CreateSubmission(ctx, model.Submission{
			ID: m.NewID(), ExamID: exam, StudentID: student, Status: status,
			Type: model.SubmissionMCQ, CreatedAt: time.Now(),
		}))
	}
	mk("e1", "s1", model.StatusPending)
	mk("e1", "s2", model.StatusEvaluated)
	mk("e2", "s1", model.StatusPending)

	n, err := m.CountSubmissionsByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := m.ListSubmissions(ctx, SubmissionListOpts{Status: model.StatusPending})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = m.ListSubmissions(ctx, SubmissionListOpts{ExamID: "e1", StudentID: "s1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = m.ListSubmissions(ctx, SubmissionListOpts{StudentID: "s1", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	u := model.User{ID: m.NewID(), Username: "amira", Role: model.RoleLearner, TrainerID: "t1", IsActive: true}
	require.NoError(t, m.CreateUser(ctx, u))

	err := m.CreateUser(ctx, model.User{ID: m.NewID(), Username: "amira", Role: model.RoleLearner})
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	got, err := m.GetUserByUsername(ctx, "amira")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = m.GetUser(ctx, "missing")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))

	byRole, err := m.FindAnyByRole(ctx, model.RoleLearner)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byRole.ID)

	list, err := m.ListUsersByTrainer(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
