package services

import (
	"context"
)

// PracticeService serves single questions outside any session. Nothing it
// does is recorded.
type PracticeService struct {
	catalog  *QuestionCatalog
	composer *Composer
}

func NewPracticeService(catalog *QuestionCatalog, composer *Composer) *PracticeService {
	return &PracticeService{catalog: catalog, composer: composer}
}

func (s *PracticeService) GetRandomQuestion(ctx context.Context, f QuestionFilter) (*PresentedQuestion, error) {
	qs, err := s.catalog.RandomQuestions(ctx, f, 1)
	if err != nil {
		return nil, err
	}
	country, err := s.catalog.Country(ctx, qs[0].CountryID)
	if err != nil {
		return nil, err
	}
	return s.composer.Compose(&qs[0], country, 0), nil
}

type CheckResult struct {
	QuestionID    uint    `json:"question_id"`
	Correct       bool    `json:"correct"`
	CorrectAnswer string  `json:"correct_answer"`
	Explanation   *string `json:"explanation,omitempty"`
}

// CheckAnswer reports correctness without scoring.
func (s *PracticeService) CheckAnswer(ctx context.Context, questionID uint, answer string) (*CheckResult, error) {
	q, err := s.catalog.Question(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return &CheckResult{
		QuestionID:    q.ID,
		Correct:       IsCorrectAnswer(q, answer),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}, nil
}
