package domain

import "errors"

var (
	// ErrCatalogUnavailable is fatal to session start: the catalog could not be read or is empty.
	ErrCatalogUnavailable = errors.New("question catalog unavailable")
	// ErrQuestionLocked is returned when submitting to a question whose predecessor is not solved.
	ErrQuestionLocked = errors.New("question is locked")
	// ErrEmptyAnswer is returned for empty or whitespace-only submissions.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrAlreadyCompleted is returned when resubmitting a correctly answered question.
	ErrAlreadyCompleted = errors.New("question already completed")
	// ErrPersistence indicates the local fallback cache failed; there is no further fallback.
	ErrPersistence = errors.New("progress could not be saved")
	// ErrOperationInProgress is returned when a session action is issued before the previous one settled.
	ErrOperationInProgress = errors.New("another operation is in progress")
	// ErrQuestionNotFound indicates a question ID outside the catalog.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrUnauthenticated is returned when a session is requested without a signed-in user.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrSessionNotFound is returned when no active quiz session exists for the user.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionClosed is returned by actions on a session that has been discarded.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrLeaderboardUnavailable indicates the remote store could not produce a leaderboard snapshot.
	ErrLeaderboardUnavailable = errors.New("leaderboard unavailable")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidToken       = errors.New("invalid token")
)
