package grading

import (
	"math"

	"github.com/assess-hub/assesshub-backend/internal/model"
)

// ScoreMCQ compares each answered question against the exam's stored correct index.
// The denominator is the answered count, not the exam size; an empty answer sheet
// scores zero.
func ScoreMCQ(e model.Exam, answers []model.SelectedAnswer) (correct, total int, score float64) {
	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= len(e.Questions) {
			continue
		}
		total++
		if e.Questions[a.QuestionIndex].CorrectAnswer == a.SelectedOption {
			correct++
		}
	}
	if total == 0 {
		return 0, 0, 0
	}
	return correct, total, math.Round(100 * float64(correct) / float64(total))
}
