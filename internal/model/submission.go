package model

import "time"

const (
	SubmissionMCQ         = "mcq"
	SubmissionVoice       = "voice"
	SubmissionDescriptive = "descriptive"
	SubmissionMixed       = "mixed"
)

const (
	StatusPending   = "pending"
	StatusEvaluated = "evaluated"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

// SelectedAnswer is one MCQ response: the question index and the zero-based option
// the learner picked.
type SelectedAnswer struct {
	QuestionIndex  int `bson:"question_index" json:"question_index"`
	SelectedOption int `bson:"selected_option" json:"selected_option"`
}

type DescriptiveAnswer struct {
	QuestionIndex int    `bson:"question_index" json:"question_index"`
	Text          string `bson:"text,omitempty" json:"text,omitempty"`
	FileURL       string `bson:"file_url,omitempty" json:"file_url,omitempty"`
}

// Evaluation is the evaluator's decision attached to a subjective submission. It is an
// owned sub-record of the submission, written atomically with it.
type Evaluation struct {
	EvaluatorID  string             `bson:"evaluator_id" json:"evaluator_id"`
	EvaluatedAt  time.Time          `bson:"evaluated_at" json:"evaluated_at"`
	OverallScore float64            `bson:"overall_score" json:"overall_score"`
	Scores       map[string]float64 `bson:"scores,omitempty" json:"scores,omitempty"`
	Feedback     string             `bson:"feedback,omitempty" json:"feedback,omitempty"`
	Tags         []string           `bson:"tags,omitempty" json:"tags,omitempty"`
}

// Submission records one piece of student work plus its scoring. Objective (mcq)
// submissions are born evaluated; subjective ones stay pending until an Evaluation
// lands. A learner never mutates a submission after creating it.
type Submission struct {
	ID        string `bson:"_id" json:"id"`
	ExamID    string `bson:"exam_id" json:"exam_id"`
	StudentID string `bson:"student_id" json:"student_id"`
	AttemptID string `bson:"attempt_id,omitempty" json:"attempt_id,omitempty"`
	Type      string `bson:"type" json:"type"`

	Answers            []SelectedAnswer    `bson:"answers,omitempty" json:"answers,omitempty"`
	VoiceRecordingURL  string              `bson:"voice_recording_url,omitempty" json:"voice_recording_url,omitempty"`
	DescriptiveAnswers []DescriptiveAnswer `bson:"descriptive_answers,omitempty" json:"descriptive_answers,omitempty"`

	Score          float64 `bson:"score" json:"score"`
	TotalQuestions int     `bson:"total_questions" json:"total_questions"`
	CorrectAnswers int     `bson:"correct_answers" json:"correct_answers"`

	Status      string      `bson:"status" json:"status"`
	EvaluatedBy string      `bson:"evaluated_by,omitempty" json:"evaluated_by,omitempty"`
	Evaluation  *Evaluation `bson:"evaluation,omitempty" json:"evaluation,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Subjective reports whether human evaluation is required before the submission counts
// as graded.
func SubjectiveType(t string) bool {
	return t == SubmissionVoice || t == SubmissionDescriptive || t == SubmissionMixed
}

func ValidSubmissionType(t string) bool {
	switch t {
	case SubmissionMCQ, SubmissionVoice, SubmissionDescriptive, SubmissionMixed:
		return true
	}
	return false
}

// CanTransition encodes the pending -> evaluated -> approved|rejected machine.
// Re-evaluation of an evaluated submission is allowed (last write wins).
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusEvaluated
	case StatusEvaluated:
		return to == StatusEvaluated || to == StatusApproved || to == StatusRejected
	}
	return false
}
