package services

import (
	"context"
	"math/rand"
	"testing"

	"geoquiz/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPractice(t *testing.T) (*PracticeService, *QuestionCatalog) {
	t.Helper()
	catalog := newTestCatalog(t)
	return NewPracticeService(catalog, NewComposer(rand.New(rand.NewSource(3)))), catalog
}

func TestPractice_RandomQuestion(t *testing.T) {
	practice, _ := newTestPractice(t)

	asia := models.Asia
	pq, err := practice.GetRandomQuestion(context.Background(), QuestionFilter{Continent: &asia})
	require.NoError(t, err)
	assert.Equal(t, "Japan", pq.CountryName)
	assert.Len(t, pq.Options, 4)
	assert.Zero(t, pq.Index)

	oceania := models.Oceania
	_, err = practice.GetRandomQuestion(context.Background(), QuestionFilter{Continent: &oceania})
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestPractice_CheckAnswer(t *testing.T) {
	practice, catalog := newTestPractice(t)
	ctx := context.Background()

	q, err := catalog.Question(ctx, 1)
	require.NoError(t, err)

	res, err := practice.CheckAnswer(ctx, q.ID, " "+q.CorrectAnswer+" ")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, q.CorrectAnswer, res.CorrectAnswer)

	res, err = practice.CheckAnswer(ctx, q.ID, "Atlantis")
	require.NoError(t, err)
	assert.False(t, res.Correct)

	_, err = practice.CheckAnswer(ctx, 404, "Paris")
	assert.ErrorIs(t, err, ErrNotFound)
}
