package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geoquiz/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MinQuestions = 5
	MaxQuestions = 50
	MaxPageSize  = 100

	dayLayout = "2006-01-02"
)

type GameService struct {
	db       *gorm.DB
	catalog  *QuestionCatalog
	composer *Composer
	progress *ProgressTracker
	users    UserDirectory
	cache    *SessionCache
	events   EventPublisher
	loc      *time.Location
	log      *zap.Logger
	now      func() time.Time
}

func NewGameService(
	db *gorm.DB,
	catalog *QuestionCatalog,
	composer *Composer,
	progress *ProgressTracker,
	users UserDirectory,
	cache *SessionCache,
	events EventPublisher,
	loc *time.Location,
	log *zap.Logger,
) *GameService {
	if loc == nil {
		loc = time.UTC
	}
	return &GameService{
		db:       db,
		catalog:  catalog,
		composer: composer,
		progress: progress,
		users:    users,
		cache:    cache,
		events:   events,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (s *GameService) SetClock(now func() time.Time) {
	s.now = now
}

type StartGameRequest struct {
	Mode           models.GameMode `json:"mode" binding:"required"`
	TotalQuestions int             `json:"total_questions" binding:"required,min=5,max=50"`
	Difficulty     *int            `json:"difficulty" binding:"omitempty,min=1,max=5"`
	Continent      *string         `json:"continent"`
	Category       *string         `json:"category"`
	OpponentID     *uint           `json:"opponent_id"`
}

type SubmitAnswerRequest struct {
	QuestionID     uint    `json:"question_id" binding:"required"`
	SelectedAnswer *string `json:"selected_answer"`
	ResponseTimeMs *int    `json:"response_time_ms" binding:"omitempty,min=0"`
	HintUsed       bool    `json:"hint_used"`
	TimedOut       bool    `json:"timed_out"`
}

// GameState is a session together with its derived values and, while the
// session is live, the question last shown.
type GameState struct {
	Session         *models.GameSession `json:"session"`
	CurrentQuestion *PresentedQuestion  `json:"current_question,omitempty"`
	DurationSeconds float64             `json:"duration_seconds"`
	Perfect         bool                `json:"perfect"`
}

type AnswerResult struct {
	Evaluation    Evaluation          `json:"evaluation"`
	Session       *models.GameSession `json:"session"`
	NextQuestion  *PresentedQuestion  `json:"next_question,omitempty"`
	Completed     bool                `json:"completed"`
	Perfect       bool                `json:"perfect"`
	CurrentStreak int                 `json:"current_streak"`
}

// Page is one slice of a paginated listing. Page numbers start at 0.
type Page[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

func newGameState(session *models.GameSession, current *PresentedQuestion) *GameState {
	return &GameState{
		Session:         session,
		CurrentQuestion: current,
		DurationSeconds: session.TotalDuration().Seconds(),
		Perfect:         session.IsPerfect(),
	}
}

func (s *GameService) validateStart(ctx context.Context, userID uint, req *StartGameRequest) error {
	if !req.Mode.Valid() {
		return invalid(fmt.Sprintf("unknown game mode %q", req.Mode))
	}
	if req.TotalQuestions < MinQuestions || req.TotalQuestions > MaxQuestions {
		return invalid(fmt.Sprintf("total questions must be between %d and %d", MinQuestions, MaxQuestions))
	}
	if req.Difficulty != nil && (*req.Difficulty < 1 || *req.Difficulty > 5) {
		return invalid("difficulty must be between 1 and 5")
	}
	if req.Continent != nil {
		if _, ok := models.ParseContinent(*req.Continent); !ok {
			return invalid(fmt.Sprintf("unknown continent %q", *req.Continent))
		}
	}
	if req.Category != nil && !models.QuestionType(*req.Category).Valid() {
		return invalid(fmt.Sprintf("unknown category %q", *req.Category))
	}
	if req.OpponentID != nil {
		if req.Mode != models.ModeDuel {
			return invalid("an opponent can only be set for duel games")
		}
		if *req.OpponentID == userID {
			return &GameError{Kind: KindInvalid, Reason: ReasonSelfDuel, Message: "cannot duel yourself"}
		}
		if err := s.requireUser(ctx, *req.OpponentID); err != nil {
			return err
		}
	}
	return s.requireUser(ctx, userID)
}

func (s *GameService) requireUser(ctx context.Context, userID uint) error {
	ok, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if !ok {
		return notFound(ReasonUserNotFound, fmt.Sprintf("user %d not found", userID))
	}
	return nil
}

// StartGame opens a new session for userID. A duel with an opponent waits
// for the opponent to accept; any other game starts immediately and the
// first question is returned with it.
func (s *GameService) StartGame(ctx context.Context, userID uint, req *StartGameRequest) (*GameState, error) {
	if err := s.validateStart(ctx, userID, req); err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.GameSession{
		UserID:         userID,
		OpponentID:     req.OpponentID,
		Mode:           req.Mode,
		Status:         models.StatusInProgress,
		TotalQuestions: req.TotalQuestions,
		Difficulty:     req.Difficulty,
		Category:       req.Category,
		StartedAt:      now,
	}
	if req.Continent != nil {
		c, _ := models.ParseContinent(*req.Continent)
		name := string(c)
		session.Continent = &name
	}
	if req.Mode == models.ModeDuel && req.OpponentID != nil {
		session.Status = models.StatusWaiting
	}
	if req.Mode == models.ModeDaily {
		day := now.In(s.loc).Format(dayLayout)
		session.DailyDate = &day
	}

	if err := s.checkStartAllowed(ctx, session); err != nil {
		return nil, err
	}

	var first *models.Question
	if session.Status == models.StatusInProgress {
		qs, err := s.catalog.RandomQuestions(ctx, sessionFilter(session, nil), 1)
		if err != nil {
			return nil, err
		}
		first = &qs[0]
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(session).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, s.startConflict(ctx, session)
	}
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("game started",
		zap.Uint("session_id", session.ID), zap.Uint("user_id", userID),
		zap.String("mode", string(session.Mode)), zap.String("status", string(session.Status)))

	if first == nil {
		return newGameState(session, nil), nil
	}
	pq, err := s.present(ctx, session, first)
	if err != nil {
		return nil, err
	}
	return newGameState(session, pq), nil
}

// checkStartAllowed reports the friendly conflict reason up front. The
// unique indexes remain the actual guard against concurrent starts.
func (s *GameService) checkStartAllowed(ctx context.Context, session *models.GameSession) error {
	db := s.db.WithContext(ctx)
	if session.Status == models.StatusInProgress {
		var active int64
		if err := db.Model(&models.GameSession{}).
			Where("user_id = ? AND status = ?", session.UserID, models.StatusInProgress).
			Count(&active).Error; err != nil {
			return fmt.Errorf("count active sessions: %w", err)
		}
		if active > 0 {
			return conflict(ReasonActiveGameExists, "user already has a game in progress")
		}
	}
	if session.DailyDate != nil {
		var played int64
		if err := db.Model(&models.GameSession{}).
			Where("user_id = ? AND daily_date = ?", session.UserID, *session.DailyDate).
			Count(&played).Error; err != nil {
			return fmt.Errorf("count daily sessions: %w", err)
		}
		if played > 0 {
			return conflict(ReasonDailyPlayed, "daily game already played today")
		}
	}
	return nil
}

// startConflict classifies a unique-index violation raised by a concurrent
// start.
func (s *GameService) startConflict(ctx context.Context, session *models.GameSession) error {
	if session.DailyDate != nil {
		var played int64
		err := s.db.WithContext(ctx).Model(&models.GameSession{}).
			Where("user_id = ? AND daily_date = ?", session.UserID, *session.DailyDate).
			Count(&played).Error
		if err == nil && played > 0 {
			return conflict(ReasonDailyPlayed, "daily game already played today")
		}
	}
	return conflict(ReasonActiveGameExists, "user already has a game in progress")
}

// AcceptDuel lets the invited opponent start a waiting duel.
func (s *GameService) AcceptDuel(ctx context.Context, sessionID, opponentID uint) (*GameState, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.OpponentID == nil || *session.OpponentID != opponentID {
		return nil, forbidden(ReasonNotInvited, "only the invited opponent can accept this duel")
	}
	if session.Status != models.StatusWaiting {
		return nil, conflict(ReasonInvalidState, fmt.Sprintf("duel is %s, not waiting", session.Status))
	}

	qs, err := s.catalog.RandomQuestions(ctx, sessionFilter(session, nil), 1)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.GameSession{}).
			Where("id = ? AND status = ?", sessionID, models.StatusWaiting).
			Updates(map[string]interface{}{"status": models.StatusInProgress, "started_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflict(ReasonInvalidState, "duel is no longer waiting")
		}
		return tx.First(session, sessionID).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflict(ReasonActiveGameExists, "duel owner already has a game in progress")
	}
	if err != nil {
		return nil, wrapTx(err, "accept duel")
	}

	s.publish(session.ID, EventDuelAccept, session)
	pq, err := s.present(ctx, session, &qs[0])
	if err != nil {
		return nil, err
	}
	return newGameState(session, pq), nil
}

// GetStatus is readable by the owner and, for duels, the opponent.
func (s *GameService) GetStatus(ctx context.Context, sessionID, userID uint) (*GameState, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Involves(userID) {
		return nil, forbidden(ReasonNotOwner, "session belongs to another user")
	}

	var current *PresentedQuestion
	if !session.IsFinal() {
		current = s.cache.Current(ctx, session.ID)
	}
	return newGameState(session, current), nil
}

// GetNextQuestion draws a question the session has not answered yet.
func (s *GameService) GetNextQuestion(ctx context.Context, sessionID, userID uint) (*PresentedQuestion, error) {
	session, err := s.loadOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusInProgress {
		return nil, conflict(ReasonNotInProgress, fmt.Sprintf("game is %s", session.Status))
	}
	if session.CurrentQuestionIndex >= session.TotalQuestions {
		return nil, conflict(ReasonNoMoreQuestions, "all questions of this game have been answered")
	}
	return s.drawNext(ctx, session)
}

func (s *GameService) drawNext(ctx context.Context, session *models.GameSession) (*PresentedQuestion, error) {
	var answered []uint
	if err := s.db.WithContext(ctx).Model(&models.AnswerRecord{}).
		Where("session_id = ?", session.ID).
		Pluck("question_id", &answered).Error; err != nil {
		return nil, fmt.Errorf("list answered questions: %w", err)
	}

	qs, err := s.catalog.RandomQuestions(ctx, sessionFilter(session, answered), 1)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, session, &qs[0])
}

// present composes q at the session's current position, caches it and
// pushes it to subscribers.
func (s *GameService) present(ctx context.Context, session *models.GameSession, q *models.Question) (*PresentedQuestion, error) {
	country, err := s.catalog.Country(ctx, q.CountryID)
	if err != nil {
		return nil, err
	}
	pq := s.composer.Compose(q, country, session.CurrentQuestionIndex)

	if err := s.cache.StoreCurrent(ctx, session.ID, pq); err != nil {
		s.log.Warn("failed to cache current question", zap.Uint("session_id", session.ID), zap.Error(err))
	}
	s.publish(session.ID, EventQuestion, pq)
	return pq, nil
}

// SubmitAnswer scores one answer and advances the session. The answer
// insert is guarded by the (session, question) unique index and the advance
// is a compare-and-swap on the session's index, so a duplicate submit can
// neither record twice nor score twice.
func (s *GameService) SubmitAnswer(ctx context.Context, userID, sessionID uint, req *SubmitAnswerRequest) (*AnswerResult, error) {
	session, err := s.loadOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusInProgress {
		return nil, conflict(ReasonNotInProgress, fmt.Sprintf("game is %s", session.Status))
	}
	if req.ResponseTimeMs != nil && *req.ResponseTimeMs < 0 {
		return nil, invalid("response time cannot be negative")
	}

	question, err := s.catalog.Question(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSubmittable(ctx, session, question); err != nil {
		return nil, err
	}

	eval := Evaluate(question, Submission{
		SelectedAnswer: req.SelectedAnswer,
		ResponseTimeMs: req.ResponseTimeMs,
		HintUsed:       req.HintUsed,
		TimedOut:       req.TimedOut,
	})

	now := s.now()
	expectedIndex := session.CurrentQuestionIndex
	var progress *models.PlayerProgress
	completed := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		selected := ""
		if req.SelectedAnswer != nil {
			selected = *req.SelectedAnswer
		}
		record := models.AnswerRecord{
			SessionID:      session.ID,
			QuestionID:     question.ID,
			SelectedAnswer: selected,
			IsCorrect:      eval.Correct,
			ResponseTimeMs: req.ResponseTimeMs,
			Points:         eval.Points,
			Position:       expectedIndex + 1,
			HintUsed:       req.HintUsed,
			TimedOut:       req.TimedOut,
			AnsweredAt:     now,
		}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict(ReasonAlreadyAnswered, "question already answered in this game")
			}
			return err
		}

		correctInc := 0
		if eval.Correct {
			correctInc = 1
		}
		res := tx.Model(&models.GameSession{}).
			Where("id = ? AND status = ? AND current_question_index = ? AND current_question_index < total_questions",
				session.ID, models.StatusInProgress, expectedIndex).
			Updates(map[string]interface{}{
				"current_question_index": gorm.Expr("current_question_index + 1"),
				"score":                  gorm.Expr("score + ?", eval.Points),
				"correct_answers":        gorm.Expr("correct_answers + ?", correctInc),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflict(ReasonConcurrentUpdate, "game changed while the answer was being recorded")
		}
		if err := tx.First(session, session.ID).Error; err != nil {
			return err
		}

		progress, err = s.progress.RecordAnswer(tx, userID, eval.Correct, req.ResponseTimeMs)
		if err != nil {
			return err
		}

		if session.CurrentQuestionIndex >= session.TotalQuestions {
			completed = true
			progress, err = s.complete(tx, session, now)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrapTx(err, "submit answer")
	}

	result := &AnswerResult{
		Evaluation:    eval,
		Session:       session,
		Completed:     completed,
		Perfect:       session.IsPerfect(),
		CurrentStreak: progress.CurrentStreak,
	}
	s.publish(session.ID, EventAnswer, result)

	if completed {
		s.cache.Clear(ctx, session.ID)
		s.publish(session.ID, EventCompleted, newGameState(session, nil))
		s.log.Info("game completed",
			zap.Uint("session_id", session.ID), zap.Uint("user_id", userID),
			zap.Int("score", session.Score), zap.Bool("perfect", result.Perfect))
		return result, nil
	}

	next, err := s.drawNext(ctx, session)
	if err != nil {
		// The answer is committed; the caller can retry GetNextQuestion.
		s.cache.Clear(ctx, session.ID)
		s.log.Warn("could not draw next question", zap.Uint("session_id", session.ID), zap.Error(err))
		return result, nil
	}
	result.NextQuestion = next
	return result, nil
}

// checkSubmittable rejects questions the game could not have issued and,
// when the cache knows the current question, any other question. Answered
// questions are reported first so a resubmit reads as a duplicate.
func (s *GameService) checkSubmittable(ctx context.Context, session *models.GameSession, q *models.Question) error {
	ok, err := s.catalog.Matches(ctx, sessionFilter(session, nil), q)
	if err != nil {
		return err
	}
	if !ok {
		return conflict(ReasonQuestionNotInGame, "question does not match this game's filters")
	}

	var answered int64
	if err := s.db.WithContext(ctx).Model(&models.AnswerRecord{}).
		Where("session_id = ? AND question_id = ?", session.ID, q.ID).
		Count(&answered).Error; err != nil {
		return fmt.Errorf("check answered question: %w", err)
	}
	if answered > 0 {
		return conflict(ReasonAlreadyAnswered, "question already answered in this game")
	}

	if current := s.cache.Current(ctx, session.ID); current != nil && current.ID != q.ID {
		return conflict(ReasonNotCurrentQuestion, "question is not the current question of this game")
	}
	return nil
}

// complete marks an in-progress session COMPLETED and folds it into the
// owner's progress, all inside tx.
func (s *GameService) complete(tx *gorm.DB, session *models.GameSession, now time.Time) (*models.PlayerProgress, error) {
	res := tx.Model(&models.GameSession{}).
		Where("id = ? AND status = ?", session.ID, models.StatusInProgress).
		Updates(map[string]interface{}{
			"status":                 models.StatusCompleted,
			"finished_at":            now,
			"current_question_index": gorm.Expr("total_questions"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, conflict(ReasonConcurrentUpdate, "game changed while completing")
	}
	if err := tx.First(session, session.ID).Error; err != nil {
		return nil, err
	}
	return s.progress.RecordCompletion(tx, session, now)
}

// FinishGame completes a session early. Unanswered questions earn nothing.
// Finishing a completed session returns it unchanged.
func (s *GameService) FinishGame(ctx context.Context, sessionID, userID uint) (*GameState, error) {
	session, err := s.loadOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.StatusCompleted {
		return newGameState(session, nil), nil
	}
	if session.Status != models.StatusInProgress {
		return nil, conflict(ReasonInvalidState, fmt.Sprintf("cannot finish a %s game", session.Status))
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.complete(tx, session, now)
		return err
	})
	if err != nil {
		var ge *GameError
		if errors.As(err, &ge) && ge.Reason == ReasonConcurrentUpdate {
			// Lost the race to another completion; report whatever won.
			latest, loadErr := s.loadSession(ctx, sessionID)
			if loadErr == nil && latest.Status == models.StatusCompleted {
				return newGameState(latest, nil), nil
			}
		}
		return nil, wrapTx(err, "finish game")
	}

	s.cache.Clear(ctx, session.ID)
	s.publish(session.ID, EventCompleted, newGameState(session, nil))
	s.log.Info("game finished early",
		zap.Uint("session_id", session.ID), zap.Uint("user_id", userID), zap.Int("score", session.Score))
	return newGameState(session, nil), nil
}

// AbandonGame ends a waiting or in-progress session without touching
// progression.
func (s *GameService) AbandonGame(ctx context.Context, sessionID, userID uint) (*GameState, error) {
	session, err := s.loadOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case models.StatusCompleted:
		return nil, conflict(ReasonAlreadyCompleted, "game already completed")
	case models.StatusAbandoned:
		return newGameState(session, nil), nil
	}

	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.GameSession{}).
		Where("id = ? AND status IN ?", session.ID, []models.GameStatus{models.StatusWaiting, models.StatusInProgress}).
		Updates(map[string]interface{}{"status": models.StatusAbandoned, "finished_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("abandon game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, conflict(ReasonAlreadyCompleted, "game finished before it could be abandoned")
	}

	session, err = s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.cache.Clear(ctx, session.ID)
	s.publish(session.ID, EventAbandoned, newGameState(session, nil))
	s.log.Info("game abandoned", zap.Uint("session_id", session.ID), zap.Uint("user_id", userID))
	return newGameState(session, nil), nil
}

// ListUserGames pages through a user's sessions, newest first.
func (s *GameService) ListUserGames(ctx context.Context, userID uint, page, size int) (*Page[models.GameSession], error) {
	if err := validatePage(page, size); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx).Model(&models.GameSession{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	sessions := []models.GameSession{}
	if err := db.Order("started_at DESC").Order("id DESC").
		Offset(page * size).Limit(size).
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return &Page[models.GameSession]{Items: sessions, Page: page, Size: size, Total: total}, nil
}

func validatePage(page, size int) error {
	if page < 0 {
		return invalid("page cannot be negative")
	}
	if size < 1 || size > MaxPageSize {
		return invalid(fmt.Sprintf("size must be between 1 and %d", MaxPageSize))
	}
	return nil
}

func (s *GameService) loadSession(ctx context.Context, sessionID uint) (*models.GameSession, error) {
	var session models.GameSession
	err := s.db.WithContext(ctx).First(&session, sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ReasonSessionNotFound, "game session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &session, nil
}

func (s *GameService) loadOwned(ctx context.Context, sessionID, userID uint) (*models.GameSession, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, forbidden(ReasonNotOwner, "session belongs to another user")
	}
	return session, nil
}

func (s *GameService) publish(sessionID uint, eventType string, payload interface{}) {
	if s.events != nil {
		s.events.Publish(sessionID, eventType, payload)
	}
}

// sessionFilter turns the filters stored on a session into a catalog query.
func sessionFilter(session *models.GameSession, exclude []uint) QuestionFilter {
	f := QuestionFilter{Difficulty: session.Difficulty, ExcludeIDs: exclude}
	if session.Continent != nil {
		c := models.Continent(*session.Continent)
		f.Continent = &c
	}
	if session.Category != nil {
		t := models.QuestionType(*session.Category)
		f.Type = &t
	}
	return f
}

// wrapTx passes GameErrors through untouched and wraps everything else.
func wrapTx(err error, op string) error {
	if _, ok := AsGameError(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
