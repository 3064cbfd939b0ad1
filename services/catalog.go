package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"geoquiz/models"

	"gorm.io/gorm"
)

// QuestionFilter narrows a random draw. Nil fields are not filtered on.
type QuestionFilter struct {
	Type       *models.QuestionType
	Difficulty *int
	Continent  *models.Continent
	ExcludeIDs []uint
}

// QuestionCatalog reads the seeded question and country tables.
type QuestionCatalog struct {
	db *gorm.DB

	mu  sync.Mutex
	rng *rand.Rand
}

// NewQuestionCatalog draws with rng; pass a seeded source for repeatable
// draws.
func NewQuestionCatalog(db *gorm.DB, rng *rand.Rand) *QuestionCatalog {
	return &QuestionCatalog{db: db, rng: rng}
}

// RandomQuestions returns up to n distinct questions matching f in random
// order. An empty match is a DataUnavailable error.
func (c *QuestionCatalog) RandomQuestions(ctx context.Context, f QuestionFilter, n int) ([]models.Question, error) {
	if n <= 0 {
		return nil, invalid("question count must be positive")
	}

	query := c.db.WithContext(ctx).Model(&models.Question{})
	if f.Continent != nil {
		query = query.Joins("JOIN countries ON countries.id = questions.country_id").
			Where("countries.continent = ?", string(*f.Continent))
	}
	if f.Type != nil {
		query = query.Where("questions.type = ?", string(*f.Type))
	}
	if f.Difficulty != nil {
		query = query.Where("questions.difficulty = ?", *f.Difficulty)
	}
	if len(f.ExcludeIDs) > 0 {
		query = query.Where("questions.id NOT IN ?", f.ExcludeIDs)
	}

	var ids []uint
	if err := query.Order("questions.id").Pluck("questions.id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list question ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, unavailable("no questions match the requested filters")
	}

	picked := c.sample(ids, n)

	var found []models.Question
	if err := c.db.WithContext(ctx).Where("id IN ?", picked).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[uint]models.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}

	questions := make([]models.Question, 0, len(picked))
	for _, id := range picked {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// sample picks min(n, len(ids)) ids with a partial Fisher-Yates shuffle.
func (c *QuestionCatalog) sample(ids []uint, n int) []uint {
	if n > len(ids) {
		n = len(ids)
	}
	pool := append([]uint(nil), ids...)

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < n; i++ {
		j := i + c.rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

// Matches reports whether q passes f's type, difficulty and continent
// filters. ExcludeIDs is ignored.
func (c *QuestionCatalog) Matches(ctx context.Context, f QuestionFilter, q *models.Question) (bool, error) {
	if f.Type != nil && q.Type != *f.Type {
		return false, nil
	}
	if f.Difficulty != nil && q.Difficulty != *f.Difficulty {
		return false, nil
	}
	if f.Continent == nil {
		return true, nil
	}
	country, err := c.Country(ctx, q.CountryID)
	if err != nil {
		return false, err
	}
	return country != nil && country.Continent == *f.Continent, nil
}

func (c *QuestionCatalog) Question(ctx context.Context, id uint) (*models.Question, error) {
	var q models.Question
	err := c.db.WithContext(ctx).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ReasonQuestionNotFound, "question not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	return &q, nil
}

// Country returns nil without error when the question's country row is gone;
// composition then simply omits the display fields.
func (c *QuestionCatalog) Country(ctx context.Context, id uint) (*models.Country, error) {
	var country models.Country
	err := c.db.WithContext(ctx).First(&country, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load country: %w", err)
	}
	return &country, nil
}
