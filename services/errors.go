package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a GameError for the transport layer.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindConflict        ErrorKind = "CONFLICT"
	KindForbidden       ErrorKind = "FORBIDDEN"
	KindDataUnavailable ErrorKind = "DATA_UNAVAILABLE"
	KindInvalid         ErrorKind = "INVALID_ARGUMENT"
)

// Reason is a machine-readable error code returned to callers.
type Reason string

const (
	ReasonSessionNotFound    Reason = "SESSION_NOT_FOUND"
	ReasonQuestionNotFound   Reason = "QUESTION_NOT_FOUND"
	ReasonUserNotFound       Reason = "USER_NOT_FOUND"
	ReasonProgressNotFound   Reason = "PROGRESS_NOT_FOUND"
	ReasonActiveGameExists   Reason = "ACTIVE_GAME_EXISTS"
	ReasonDailyPlayed        Reason = "DAILY_ALREADY_PLAYED"
	ReasonNotInProgress      Reason = "GAME_NOT_IN_PROGRESS"
	ReasonAlreadyAnswered    Reason = "QUESTION_ALREADY_ANSWERED"
	ReasonNoMoreQuestions    Reason = "NO_MORE_QUESTIONS"
	ReasonAlreadyCompleted   Reason = "GAME_ALREADY_COMPLETED"
	ReasonInvalidState       Reason = "INVALID_STATE"
	ReasonNotOwner           Reason = "NOT_SESSION_OWNER"
	ReasonNotInvited         Reason = "NOT_INVITED_OPPONENT"
	ReasonNoQuestions        Reason = "NO_QUESTIONS_AVAILABLE"
	ReasonInvalidArgument    Reason = "INVALID_ARGUMENT"
	ReasonConcurrentUpdate   Reason = "CONCURRENT_UPDATE"
	ReasonSelfDuel           Reason = "SELF_DUEL"
	ReasonLeaderboardPeriod  Reason = "UNKNOWN_LEADERBOARD_TYPE"
	ReasonQuestionNotInGame  Reason = "QUESTION_NOT_IN_GAME"
	ReasonNotCurrentQuestion Reason = "QUESTION_NOT_CURRENT"
)

// GameError is the typed failure returned by every engine operation.
type GameError struct {
	Kind    ErrorKind
	Reason  Reason
	Message string
	Cause   error
}

func (e *GameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// Is matches on kind, and on reason when the target sets one, so callers
// can test either errors.Is(err, ErrConflict) or a specific reason.
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

var (
	ErrNotFound        = &GameError{Kind: KindNotFound, Message: "not found"}
	ErrConflict        = &GameError{Kind: KindConflict, Message: "conflict"}
	ErrForbidden       = &GameError{Kind: KindForbidden, Message: "forbidden"}
	ErrDataUnavailable = &GameError{Kind: KindDataUnavailable, Message: "data unavailable"}
	ErrInvalid         = &GameError{Kind: KindInvalid, Message: "invalid argument"}
)

func notFound(reason Reason, msg string) *GameError {
	return &GameError{Kind: KindNotFound, Reason: reason, Message: msg}
}

func conflict(reason Reason, msg string) *GameError {
	return &GameError{Kind: KindConflict, Reason: reason, Message: msg}
}

func forbidden(reason Reason, msg string) *GameError {
	return &GameError{Kind: KindForbidden, Reason: reason, Message: msg}
}

func invalid(msg string) *GameError {
	return &GameError{Kind: KindInvalid, Reason: ReasonInvalidArgument, Message: msg}
}

func unavailable(msg string) *GameError {
	return &GameError{Kind: KindDataUnavailable, Reason: ReasonNoQuestions, Message: msg}
}

// AsGameError extracts a GameError from err's chain.
func AsGameError(err error) (*GameError, bool) {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
