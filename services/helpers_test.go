package services

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"geoquiz/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	alice uint = 1
	bob   uint = 2
	carol uint = 3
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func uintPtr(u uint) *uint    { return &u }

var fixtureCountries = []models.Country{
	{Code: "FRA", Name: "France", Capital: "Paris", Continent: models.Europe, Currency: strPtr("Euro"), FlagURL: "https://flagcdn.com/fr.svg"},
	{Code: "DEU", Name: "Germany", Capital: "Berlin", Continent: models.Europe, Currency: strPtr("Euro"), FlagURL: "https://flagcdn.com/de.svg"},
	{Code: "JPN", Name: "Japan", Capital: "Tokyo", Continent: models.Asia, Currency: strPtr("Yen"), FlagURL: "https://flagcdn.com/jp.svg"},
	{Code: "BRA", Name: "Brazil", Capital: "Brasilia", Continent: models.Americas, Currency: strPtr("Real"), FlagURL: "https://flagcdn.com/br.svg"},
}

// seedFixtures inserts three users, four countries and eight questions:
// one CAPITAL (difficulty 2) and one CONTINENT (difficulty 1) per country.
func seedFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	users := []models.User{{ID: alice, Username: "alice"}, {ID: bob, Username: "bob"}, {ID: carol, Username: "carol"}}
	require.NoError(t, db.Create(&users).Error)

	countries := append([]models.Country(nil), fixtureCountries...)
	require.NoError(t, db.Create(&countries).Error)

	var questions []models.Question
	for _, c := range countries {
		var capitals []string
		for _, other := range countries {
			if other.Code != c.Code {
				capitals = append(capitals, other.Capital)
			}
		}
		var continents []string
		for _, other := range models.Continents {
			if other != c.Continent && len(continents) < 3 {
				continents = append(continents, string(other))
			}
		}
		questions = append(questions,
			models.Question{
				Type: models.QuestionCapital, CountryID: c.ID, Text: "What is the capital of " + c.Name + "?",
				CorrectAnswer: c.Capital, WrongOptions: datatypes.JSONSlice[string](capitals),
				Difficulty: 2, BasePoints: 10, TimeLimit: 15, Explanation: strPtr(c.Capital + " is the capital."),
			},
			models.Question{
				Type: models.QuestionContinent, CountryID: c.ID, Text: "On which continent is " + c.Name + "?",
				CorrectAnswer: string(c.Continent), WrongOptions: datatypes.JSONSlice[string](continents),
				Difficulty: 1, BasePoints: 10, TimeLimit: 15,
			},
		)
	}
	require.NoError(t, db.Create(&questions).Error)
}

type recordedEvent struct {
	sessionID uint
	eventType string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(sessionID uint, eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{sessionID: sessionID, eventType: eventType})
}

func (p *recordingPublisher) types(sessionID uint) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.sessionID == sessionID {
			out = append(out, e.eventType)
		}
	}
	return out
}

type testEngine struct {
	db       *gorm.DB
	redis    *miniredis.Miniredis
	games    *GameService
	progress *ProgressTracker
	events   *recordingPublisher
	clock    *testClock
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	db := newTestDB(t)
	seedFixtures(t, db)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zap.NewNop()
	progress := NewProgressTracker(db)
	events := &recordingPublisher{}
	clock := &testClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}

	games := NewGameService(
		db,
		NewQuestionCatalog(db, rand.New(rand.NewSource(1))),
		NewComposer(rand.New(rand.NewSource(2))),
		progress,
		NewGormUserDirectory(db),
		NewSessionCache(client, log),
		events,
		time.UTC,
		log,
	)
	games.SetClock(clock.Now)

	return &testEngine{db: db, redis: mr, games: games, progress: progress, events: events, clock: clock}
}

// answer submits the right (or a wrong) answer to pq with no response time.
func (e *testEngine) answer(t *testing.T, userID, sessionID uint, pq *PresentedQuestion, correct bool) (*AnswerResult, error) {
	t.Helper()
	var q models.Question
	require.NoError(t, e.db.First(&q, pq.ID).Error)
	selected := "Atlantis"
	if correct {
		selected = q.CorrectAnswer
	}
	return e.games.SubmitAnswer(context.Background(), userID, sessionID, &SubmitAnswerRequest{
		QuestionID:     pq.ID,
		SelectedAnswer: &selected,
	})
}

func quickGame(total int) *StartGameRequest {
	return &StartGameRequest{Mode: models.ModeQuick, TotalQuestions: total}
}
