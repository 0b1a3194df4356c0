package model

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
)

const (
	ExamTypeMCQ         = "mcq"
	ExamTypeVoice       = "voice"
	ExamTypeDescriptive = "descriptive"
	ExamTypeMixed       = "mixed"
)

const (
	MinDescriptiveTimeLimit     = 15  // minutes
	MaxDescriptiveTimeLimit     = 480 // minutes
	DefaultDescriptiveTimeLimit = 60  // minutes
	DefaultTotalMaxMarks        = 100
)

type MCQQuestion struct {
	Text          string   `bson:"text" json:"text" validate:"required"`
	Options       []string `bson:"options" json:"options" validate:"len=4,dive,required"`
	CorrectAnswer int      `bson:"correct_answer" json:"correct_answer" validate:"gte=0,lte=3"`
	Points        float64  `bson:"points" json:"points" validate:"gte=0"`
}

type VoicePrompt struct {
	Text     string `bson:"text" json:"text" validate:"required"`
	AudioURL string `bson:"audio_url,omitempty" json:"audio_url,omitempty"`
}

type DescriptiveQuestion struct {
	Prompt    string  `bson:"prompt" json:"prompt" validate:"required"`
	WordLimit int     `bson:"word_limit,omitempty" json:"word_limit,omitempty" validate:"gte=0"`
	MaxPoints float64 `bson:"max_points" json:"max_points" validate:"gte=0"`
}

// Exam is the authored definition handed out as an immutable snapshot. Questions are
// owned value types inside the aggregate; they are never addressed as separate entities.
type Exam struct {
	ID        string `bson:"_id" json:"id"`
	TrainerID string `bson:"trainer_id" json:"trainer_id"`
	Title     string `bson:"title" json:"title" validate:"required"`
	Type      string `bson:"type" json:"type" validate:"required,oneof=mcq voice descriptive mixed"`

	Questions            []MCQQuestion         `bson:"questions,omitempty" json:"questions,omitempty" validate:"dive"`
	VoicePrompts         []VoicePrompt         `bson:"voice_prompts,omitempty" json:"voice_prompts,omitempty" validate:"dive"`
	DescriptiveQuestions []DescriptiveQuestion `bson:"descriptive_questions,omitempty" json:"descriptive_questions,omitempty" validate:"dive"`

	OpenDate             *time.Time `bson:"open_date,omitempty" json:"open_date,omitempty"`
	DescriptiveTimeLimit int        `bson:"descriptive_time_limit,omitempty" json:"descriptive_time_limit,omitempty"`
	TotalMaxMarks        float64    `bson:"total_max_marks,omitempty" json:"total_max_marks,omitempty"`

	IsPublished bool      `bson:"is_published" json:"is_published"`
	IsActive    bool      `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

var examValidate = validator.New()

// Validate enforces the authoring rules at create/update time. A descriptive exam must
// carry at least one descriptive question, an open date, and a time limit in bounds.
func (e Exam) Validate() error {
	if err := examValidate.Struct(e); err != nil {
		return apperr.Wrap(apperr.ValidationFailed, err, "invalid exam definition")
	}
	if e.Type == ExamTypeDescriptive {
		if len(e.DescriptiveQuestions) == 0 {
			return apperr.New(apperr.ValidationFailed, "descriptive exam needs at least one descriptive question")
		}
		if e.OpenDate == nil {
			return apperr.New(apperr.ValidationFailed, "descriptive exam needs an open date")
		}
		if e.DescriptiveTimeLimit < MinDescriptiveTimeLimit || e.DescriptiveTimeLimit > MaxDescriptiveTimeLimit {
			return apperr.Newf(apperr.ValidationFailed, "descriptive time limit must be %d-%d minutes",
				MinDescriptiveTimeLimit, MaxDescriptiveTimeLimit)
		}
	}
	if e.DescriptiveTimeLimit != 0 &&
		(e.DescriptiveTimeLimit < MinDescriptiveTimeLimit || e.DescriptiveTimeLimit > MaxDescriptiveTimeLimit) {
		return apperr.Newf(apperr.ValidationFailed, "descriptive time limit must be %d-%d minutes",
			MinDescriptiveTimeLimit, MaxDescriptiveTimeLimit)
	}
	return nil
}

// TimeLimit is the minutes snapshotted onto a new attempt.
func (e Exam) TimeLimit() int {
	if e.DescriptiveTimeLimit > 0 {
		return e.DescriptiveTimeLimit
	}
	return DefaultDescriptiveTimeLimit
}

// MaxMarks is the upper bound for an evaluator's overall score.
func (e Exam) MaxMarks() float64 {
	if e.TotalMaxMarks > 0 {
		return e.TotalMaxMarks
	}
	return DefaultTotalMaxMarks
}

// VisibleToLearners gates catalog listings.
func (e Exam) VisibleToLearners() bool { return e.IsPublished && e.IsActive }

// ExamSummary is the learner-facing catalog row. IsCompleted/CannotRetake are computed
// fresh per read from the viewer's own submissions, never stored.
type ExamSummary struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Type                 string     `json:"type"`
	OpenDate             *time.Time `json:"open_date,omitempty"`
	DescriptiveTimeLimit int        `json:"descriptive_time_limit,omitempty"`
	QuestionCount        int        `json:"question_count"`
	IsCompleted          bool       `json:"is_completed"`
	CannotRetake         bool       `json:"cannot_retake"`
}
