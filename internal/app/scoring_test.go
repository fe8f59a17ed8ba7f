package app_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"morse-quiz-service/internal/app"
	"morse-quiz-service/internal/domain"
)

func TestComputeScore(t *testing.T) {
	records := []domain.AnswerRecord{rec(1, true, 0), rec(1, true, time.Second), rec(2, false, 0)}
	if got := app.ComputeScore(records, 4); got != 25 {
		t.Fatalf("expected duplicates counted once (25%%), got %v", got)
	}
	if got := app.ComputeScore(records, 0); got != 0 {
		t.Fatalf("expected 0 for empty catalog, got %v", got)
	}
	if got := app.ComputeScore(append(records, rec(3, true, 0)), 3); fmt.Sprintf("%.2f", float64(got)) != "66.67" {
		t.Fatalf("expected fractional score, got %v", got)
	}
	if got := app.ComputeScore([]domain.AnswerRecord{rec(1, true, 0), rec(2, true, 0)}, 1); got != 100 {
		t.Fatalf("expected score capped at 100, got %v", got)
	}
}

func TestScoreIsMonotonic(t *testing.T) {
	records := []domain.AnswerRecord{rec(1, true, 0)}
	before := app.ComputeScore(records, 5)
	for _, extra := range []domain.AnswerRecord{rec(2, false, 0), rec(1, false, time.Second), rec(3, true, 0)} {
		records = append(records, extra)
		after := app.ComputeScore(records, 5)
		if after < before {
			t.Fatalf("score dropped from %v to %v after %+v", before, after, extra)
		}
		before = after
	}
}

func TestGradeFor(t *testing.T) {
	cases := map[domain.Percentage]domain.Grade{
		100:  domain.GradeExcellent,
		80:   domain.GradeExcellent,
		79.9: domain.GradeGood,
		60:   domain.GradeGood,
		59:   domain.GradeNeedsImprovement,
		0:    domain.GradeNeedsImprovement,
	}
	for score, want := range cases {
		if got := app.GradeFor(score); got != want {
			t.Fatalf("score %v: expected %s, got %s", score, want, got)
		}
	}
}

func answer(user string, question int64, correct bool, seconds int) domain.AnswerRecord {
	return domain.AnswerRecord{UserID: user, QuestionID: question, IsCorrect: correct, TimeTakenSeconds: seconds, AnsweredAt: t0}
}

func TestLeaderboardOrdering(t *testing.T) {
	records := []domain.AnswerRecord{
		answer("slow", 1, true, 30), answer("slow", 2, true, 30),
		answer("fast", 1, true, 5), answer("fast", 2, true, 5),
		answer("half", 1, true, 1), answer("half", 2, false, 1),
		// Incorrect attempts do not count towards time.
		answer("tie-b", 1, true, 10), answer("tie-b", 2, false, 500),
		answer("tie-a", 1, true, 10),
	}
	board := app.ComputeLeaderboard(records, 2, map[string]string{"fast": "Speedy"})

	wantOrder := []string{"fast", "slow", "half", "tie-a", "tie-b"}
	if len(board) != len(wantOrder) {
		t.Fatalf("expected %d entries, got %d", len(wantOrder), len(board))
	}
	for i, userID := range wantOrder {
		if board[i].UserID != userID || board[i].Rank != i+1 {
			t.Fatalf("position %d: expected %s rank %d, got %+v", i, userID, i+1, board[i])
		}
	}
	if board[0].DisplayName != "Speedy" || board[1].DisplayName != "slow" {
		t.Fatalf("unexpected display names %q, %q", board[0].DisplayName, board[1].DisplayName)
	}
	if board[3].TotalTimeSeconds != 10 || board[4].TotalTimeSeconds != 10 {
		t.Fatalf("expected incorrect time excluded, got %+v", board[3:])
	}
}

func TestLeaderboardKeepsTopTen(t *testing.T) {
	var records []domain.AnswerRecord
	for i := 0; i < 15; i++ {
		records = append(records, answer(fmt.Sprintf("user-%02d", i), 1, true, i))
	}
	board := app.ComputeLeaderboard(records, 1, nil)
	if len(board) != app.LeaderboardSize {
		t.Fatalf("expected %d entries, got %d", app.LeaderboardSize, len(board))
	}
	if board[0].UserID != "user-00" || board[9].UserID != "user-09" || board[9].Rank != 10 {
		t.Fatalf("unexpected board edges %+v ... %+v", board[0], board[9])
	}
	if len(app.ComputeLeaderboard(nil, 5, nil)) != 0 {
		t.Fatalf("expected empty board for no records")
	}
}

func TestBuildResults(t *testing.T) {
	tracker := app.NewTracker(twoQuestionCatalog())
	q1 := answer("u1", 1, true, 6)
	q1.SubmittedAnswer = ".-"
	q2 := answer("u1", 2, false, 3)
	q2.SubmittedAnswer = "-"

	results := app.BuildResults("u1", tracker, tracker.Progress([]domain.AnswerRecord{q1, q2}))
	if results.Correct != 1 || results.Total != 2 || results.DisplayScore != 50 || results.Grade != domain.GradeNeedsImprovement {
		t.Fatalf("unexpected summary %+v", results)
	}
	if results.TotalTimeSeconds != 6 {
		t.Fatalf("expected only correct time counted, got %d", results.TotalTimeSeconds)
	}
	if d := results.Details[1]; d.SubmittedAnswer != "-" || d.CanonicalAnswer != "..." || d.IsCorrect {
		t.Fatalf("unexpected detail row %+v", d)
	}
}

func TestUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", domain.ErrEmptyAnswer)
	if got := app.UserMessage(wrapped); got != "Please enter a morse code answer" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := app.UserMessage(errors.New("pq: relation does not exist")); got != "Something went wrong, please try again" {
		t.Fatalf("expected generic message, got %q", got)
	}
	if app.UserMessage(nil) != "" {
		t.Fatalf("expected empty message for nil")
	}
}
