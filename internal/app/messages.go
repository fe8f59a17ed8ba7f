package app

import (
	"errors"

	"morse-quiz-service/internal/domain"
)

var userMessages = []struct {
	err error
	msg string
}{
	{domain.ErrEmptyAnswer, "Please enter a morse code answer"},
	{domain.ErrQuestionLocked, "Answer the previous question correctly to unlock this one"},
	{domain.ErrAlreadyCompleted, "You already answered this question correctly"},
	{domain.ErrOperationInProgress, "Still saving your last answer, please wait"},
	{domain.ErrQuestionNotFound, "That question does not exist"},
	{domain.ErrPersistence, "Your progress could not be saved on this device"},
	{domain.ErrCatalogUnavailable, "The competition is unavailable right now, please try again later"},
	{domain.ErrLeaderboardUnavailable, "The leaderboard is unavailable right now"},
	{domain.ErrUnauthenticated, "Please sign in to continue"},
	{domain.ErrInvalidToken, "Please sign in to continue"},
	{domain.ErrSessionNotFound, "Your session has ended, please sign in again"},
	{domain.ErrSessionClosed, "Your session has ended, please sign in again"},
	{domain.ErrInvalidCredentials, "Invalid email or password"},
	{domain.ErrAccountExists, "An account with this email already exists"},
}

// UserMessage maps an error to text safe to show an end user. Errors outside the
// known taxonomy get a generic message so store internals never leak.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Something went wrong, please try again"
}
