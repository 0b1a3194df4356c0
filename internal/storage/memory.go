package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/model"
)

// MemoryBackend is the ephemeral fallback store. All state lives behind one lock,
// which is also what makes its uniqueness checks race-free.
type MemoryBackend struct {
	mu          sync.RWMutex
	users       map[string]model.User
	exams       map[string]model.Exam
	attempts    map[string]model.Attempt
	submissions map[string]model.Submission

	openAttempts      map[string]string // examID|studentID -> attemptID
	attemptSubmission map[string]string // attemptID -> submissionID
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		users:             map[string]model.User{},
		exams:             map[string]model.Exam{},
		attempts:          map[string]model.Attempt{},
		submissions:       map[string]model.Submission{},
		openAttempts:      map[string]string{},
		attemptSubmission: map[string]string{},
	}
}

func (m *MemoryBackend) NewID() string { return uuid.NewString() }

func attemptKey(examID, studentID string) string { return examID + "|" + studentID }

func (m *MemoryBackend) CreateUser(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.users {
		if ex.Username == u.Username {
			return apperr.New(apperr.Conflict, "username already taken")
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *MemoryBackend) GetUser(_ context.Context, id string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, apperr.New(apperr.NotFound, "user not found")
	}
	return u, nil
}

func (m *MemoryBackend) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, apperr.New(apperr.NotFound, "user not found")
}

func (m *MemoryBackend) FindAnyByRole(_ context.Context, role string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// deterministic pick: lowest id wins
	ids := make([]string, 0, len(m.users))
	for id, u := range m.users {
		if u.Role == role {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return model.User{}, apperr.New(apperr.NotFound, "no user with role "+role)
	}
	sort.Strings(ids)
	return m.users[ids[0]], nil
}

func (m *MemoryBackend) UpdateUser(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return apperr.New(apperr.NotFound, "user not found")
	}
	m.users[u.ID] = u
	return nil
}

func (m *MemoryBackend) ListUsersByTrainer(_ context.Context, trainerID string) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.User{}
	for _, u := range m.users {
		if u.TrainerID == trainerID && u.IsActive {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *MemoryBackend) PutExam(_ context.Context, e model.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
	return nil
}

func (m *MemoryBackend) GetExam(_ context.Context, id string) (model.Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return model.Exam{}, apperr.New(apperr.NotFound, "exam not found")
	}
	return e, nil
}

func (m *MemoryBackend) ListPublishedExams(_ context.Context) ([]model.Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Exam{}
	for _, e := range m.exams {
		if e.VisibleToLearners() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryBackend) ListExamsByTrainer(_ context.Context, trainerID string) ([]model.Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Exam{}
	for _, e := range m.exams {
		if e.TrainerID == trainerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryBackend) CreateAttempt(_ context.Context, a model.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := attemptKey(a.ExamID, a.StudentID)
	if openID, ok := m.openAttempts[key]; ok {
		if cur, exists := m.attempts[openID]; exists && cur.Open() {
			return apperr.New(apperr.Conflict, "open attempt already exists")
		}
	}
	m.attempts[a.ID] = a
	if a.Open() {
		m.openAttempts[key] = a.ID
	}
	return nil
}

func (m *MemoryBackend) GetAttempt(_ context.Context, id string) (model.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return model.Attempt{}, apperr.New(apperr.NotFound, "attempt not found")
	}
	return a, nil
}

func (m *MemoryBackend) GetOpenAttempt(_ context.Context, examID, studentID string) (model.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.openAttempts[attemptKey(examID, studentID)]
	if !ok {
		return model.Attempt{}, apperr.New(apperr.NotFound, "no open attempt")
	}
	a, ok := m.attempts[id]
	if !ok || !a.Open() {
		return model.Attempt{}, apperr.New(apperr.NotFound, "no open attempt")
	}
	return a, nil
}

func (m *MemoryBackend) UpdateAttempt(_ context.Context, a model.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[a.ID]; !ok {
		return apperr.New(apperr.NotFound, "attempt not found")
	}
	m.attempts[a.ID] = a
	if !a.Open() {
		key := attemptKey(a.ExamID, a.StudentID)
		if m.openAttempts[key] == a.ID {
			delete(m.openAttempts, key)
		}
	}
	return nil
}

func (m *MemoryBackend) CreateSubmission(_ context.Context, s model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.AttemptID != "" {
		if _, ok := m.attemptSubmission[s.AttemptID]; ok {
			return apperr.New(apperr.Conflict, "attempt already has a submission")
		}
	}
	m.submissions[s.ID] = s
	if s.AttemptID != "" {
		m.attemptSubmission[s.AttemptID] = s.ID
	}
	return nil
}

func (m *MemoryBackend) GetSubmission(_ context.Context, id string) (model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return model.Submission{}, apperr.New(apperr.NotFound, "submission not found")
	}
	return s, nil
}

func (m *MemoryBackend) UpdateSubmission(_ context.Context, s model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.submissions[s.ID]; !ok {
		return apperr.New(apperr.NotFound, "submission not found")
	}
	m.submissions[s.ID] = s
	return nil
}

func (m *MemoryBackend) CountSubmissionsByStudent(_ context.Context, studentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.submissions {
		if s.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryBackend) ListSubmissions(_ context.Context, opts SubmissionListOpts) ([]model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Submission{}
	for _, s := range m.submissions {
		if opts.ExamID != "" && s.ExamID != opts.ExamID {
			continue
		}
		if opts.StudentID != "" && s.StudentID != opts.StudentID {
			continue
		}
		if opts.Status != "" && s.Status != opts.Status {
			continue
		}
		if opts.EvaluatedBy != "" && s.EvaluatedBy != opts.EvaluatedBy {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []model.Submission{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}
