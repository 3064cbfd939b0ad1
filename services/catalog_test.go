package services

import (
	"context"
	"math/rand"
	"testing"

	"geoquiz/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *QuestionCatalog {
	t.Helper()
	db := newTestDB(t)
	seedFixtures(t, db)
	return NewQuestionCatalog(db, rand.New(rand.NewSource(1)))
}

func TestRandomQuestions_DistinctAndBounded(t *testing.T) {
	catalog := newTestCatalog(t)

	qs, err := catalog.RandomQuestions(context.Background(), QuestionFilter{}, 5)
	require.NoError(t, err)
	require.Len(t, qs, 5)

	seen := map[uint]bool{}
	for _, q := range qs {
		assert.False(t, seen[q.ID], "question %d drawn twice", q.ID)
		seen[q.ID] = true
	}

	all, err := catalog.RandomQuestions(context.Background(), QuestionFilter{}, 100)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestRandomQuestions_Filters(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	europe := models.Europe
	qs, err := catalog.RandomQuestions(ctx, QuestionFilter{Continent: &europe}, 10)
	require.NoError(t, err)
	assert.Len(t, qs, 4)

	capital := models.QuestionCapital
	qs, err = catalog.RandomQuestions(ctx, QuestionFilter{Type: &capital, Continent: &europe}, 10)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	for _, q := range qs {
		assert.Equal(t, models.QuestionCapital, q.Type)
	}

	qs, err = catalog.RandomQuestions(ctx, QuestionFilter{Difficulty: intPtr(1)}, 10)
	require.NoError(t, err)
	assert.Len(t, qs, 4)
	for _, q := range qs {
		assert.Equal(t, 1, q.Difficulty)
	}
}

func TestRandomQuestions_Exclusions(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	all, err := catalog.RandomQuestions(ctx, QuestionFilter{}, 8)
	require.NoError(t, err)

	var exclude []uint
	for _, q := range all[:7] {
		exclude = append(exclude, q.ID)
	}
	rest, err := catalog.RandomQuestions(ctx, QuestionFilter{ExcludeIDs: exclude}, 3)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, all[7].ID, rest[0].ID)
}

func TestRandomQuestions_NoMatchIsDataUnavailable(t *testing.T) {
	catalog := newTestCatalog(t)
	oceania := models.Oceania
	_, err := catalog.RandomQuestions(context.Background(), QuestionFilter{Continent: &oceania}, 1)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = catalog.RandomQuestions(context.Background(), QuestionFilter{}, 0)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRandomQuestions_SameSeedSameDraw(t *testing.T) {
	db := newTestDB(t)
	seedFixtures(t, db)

	a, err := NewQuestionCatalog(db, rand.New(rand.NewSource(9))).RandomQuestions(context.Background(), QuestionFilter{}, 4)
	require.NoError(t, err)
	b, err := NewQuestionCatalog(db, rand.New(rand.NewSource(9))).RandomQuestions(context.Background(), QuestionFilter{}, 4)
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
	}
}

func TestCatalog_Lookups(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	q, err := catalog.Question(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, q.CorrectAnswer)
	assert.Len(t, q.WrongOptions, 3)

	_, err = catalog.Question(ctx, 999)
	assert.ErrorIs(t, err, &GameError{Kind: KindNotFound, Reason: ReasonQuestionNotFound})

	country, err := catalog.Country(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, country)
}
