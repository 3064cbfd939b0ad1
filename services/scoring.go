package services

import (
	"math"
	"strings"

	"geoquiz/models"
)

const (
	maxSpeedBonus = 0.5
	hintPenalty   = 0.25
)

// Submission is what a player sent for one question.
type Submission struct {
	SelectedAnswer *string
	ResponseTimeMs *int
	HintUsed       bool
	TimedOut       bool
}

// Evaluation is the outcome of checking one submission.
type Evaluation struct {
	QuestionID    uint    `json:"question_id"`
	Correct       bool    `json:"correct"`
	Points        int     `json:"points"`
	CorrectAnswer string  `json:"correct_answer"`
	Explanation   *string `json:"explanation,omitempty"`
}

// IsCorrectAnswer compares case-insensitively, ignoring surrounding spaces.
func IsCorrectAnswer(q *models.Question, answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer))
}

// CalculatePoints scores a correct answer. Without a response time, or at or
// past the time limit, the result is exactly basePoints (less the hint
// penalty).
func CalculatePoints(basePoints, timeLimitSeconds int, responseTimeMs *int, hintUsed bool) int {
	timeRatio := 1.0
	if responseTimeMs != nil && timeLimitSeconds > 0 {
		timeRatio = float64(*responseTimeMs) / float64(timeLimitSeconds*1000)
	}

	speedBonus := math.Max(0, 1-timeRatio) * maxSpeedBonus
	penalty := 0.0
	if hintUsed {
		penalty = hintPenalty
	}

	return int(math.Floor(float64(basePoints) * (1 + speedBonus - penalty)))
}

// Evaluate checks a submission against the question. Wrong, missing or
// timed-out answers score zero.
func Evaluate(q *models.Question, sub Submission) Evaluation {
	eval := Evaluation{
		QuestionID:    q.ID,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}
	if sub.SelectedAnswer != nil {
		eval.Correct = IsCorrectAnswer(q, *sub.SelectedAnswer)
	}
	if eval.Correct && !sub.TimedOut {
		eval.Points = CalculatePoints(q.BasePoints, q.TimeLimit, sub.ResponseTimeMs, sub.HintUsed)
	}
	return eval
}
