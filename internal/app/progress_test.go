package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"morse-quiz-service/internal/app"
	"morse-quiz-service/internal/domain"
	"morse-quiz-service/internal/infra/memory"
)

var t0 = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func rec(questionID int64, correct bool, at time.Duration) domain.AnswerRecord {
	return domain.AnswerRecord{UserID: "u1", QuestionID: questionID, IsCorrect: correct, AnsweredAt: t0.Add(at)}
}

func TestProgressStates(t *testing.T) {
	tracker := app.NewTracker(memory.MorseQuestions())

	progress := tracker.Progress([]domain.AnswerRecord{rec(1, true, 0), rec(2, false, time.Second)})
	if progress.CurrentOrdinal != 2 {
		t.Fatalf("expected current ordinal 2, got %d", progress.CurrentOrdinal)
	}

	want := map[int64]domain.QuestionState{
		1: domain.StateAnsweredCorrect,
		2: domain.StateAnsweredIncorrect,
		3: domain.StateLocked,
		5: domain.StateLocked,
	}
	for id, expected := range want {
		got, err := tracker.State(progress, id)
		if err != nil {
			t.Fatalf("state %d: %v", id, err)
		}
		if got != expected {
			t.Fatalf("question %d: expected %s, got %s", id, expected, got)
		}
	}
	if _, err := tracker.State(progress, 99); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProgressPrefersEarliestCorrect(t *testing.T) {
	tracker := app.NewTracker(memory.MorseQuestions())
	early := rec(1, true, 0)
	early.TimeTakenSeconds = 4
	late := rec(1, true, time.Minute)
	late.TimeTakenSeconds = 40

	progress := tracker.Progress([]domain.AnswerRecord{rec(1, false, 2*time.Minute), late, early})
	if got := progress.AnswersByQuestion[1]; !got.IsCorrect || got.TimeTakenSeconds != 4 {
		t.Fatalf("expected earliest correct record, got %+v", got)
	}

	progress = tracker.Progress([]domain.AnswerRecord{rec(2, false, 0), rec(2, false, time.Minute)})
	if got := progress.AnswersByQuestion[2]; !got.AnsweredAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("expected latest incorrect record, got %+v", got)
	}
}

func TestProgressCompleteWhenAllCorrect(t *testing.T) {
	tracker := app.NewTracker(twoQuestionCatalog())
	progress := tracker.Progress([]domain.AnswerRecord{rec(1, true, 0), rec(2, true, 0)})
	if !progress.Complete || progress.CurrentOrdinal != 2 {
		t.Fatalf("expected complete at ordinal 2, got %+v", progress)
	}
	if pct := tracker.ProgressPercent(progress); pct != 100 {
		t.Fatalf("expected 100%%, got %v", pct)
	}
	if pct := tracker.ProgressPercent(tracker.Progress(nil)); pct != 50 {
		t.Fatalf("expected 50%% on the first of two, got %v", pct)
	}
}

func TestProgressIgnoresUnknownQuestions(t *testing.T) {
	tracker := app.NewTracker(twoQuestionCatalog())
	progress := tracker.Progress([]domain.AnswerRecord{rec(42, true, 0)})
	if len(progress.AnswersByQuestion) != 0 || progress.CurrentOrdinal != 1 {
		t.Fatalf("expected unknown record ignored, got %+v", progress)
	}
}

func TestCheckSubmissionOrder(t *testing.T) {
	tracker := app.NewTracker(twoQuestionCatalog())
	fresh := tracker.Progress(nil)
	done := tracker.Progress([]domain.AnswerRecord{rec(1, true, 0)})

	cases := []struct {
		name     string
		progress domain.ProgressState
		id       int64
		answer   string
		want     error
	}{
		{"unknown question", fresh, 7, "", domain.ErrQuestionNotFound},
		{"locked beats empty", fresh, 2, "", domain.ErrQuestionLocked},
		{"completed beats empty", done, 1, " ", domain.ErrAlreadyCompleted},
		{"empty answer", done, 2, "  ", domain.ErrEmptyAnswer},
		{"accepted", done, 2, "...", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tracker.CheckSubmission(tc.progress, tc.id, tc.answer)
			if !errors.Is(err, tc.want) || (tc.want == nil && err != nil) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	tracker := app.NewTracker(twoQuestionCatalog())
	before := tracker.Progress([]domain.AnswerRecord{rec(1, false, 0)})
	after := tracker.Apply(before, rec(1, true, time.Second))

	if before.AnswersByQuestion[1].IsCorrect {
		t.Fatalf("input progress was modified")
	}
	if !after.AnswersByQuestion[1].IsCorrect || after.CurrentOrdinal != 2 {
		t.Fatalf("unexpected applied progress %+v", after)
	}
}

type staticCatalog struct {
	questions []domain.Question
	err       error
}

func (s staticCatalog) Questions(context.Context) ([]domain.Question, error) {
	return s.questions, s.err
}

func TestQuestionsInOrder(t *testing.T) {
	ctx := context.Background()

	shuffled := []domain.Question{
		{ID: 20, Ordinal: 2}, {ID: 10, Ordinal: 1}, {ID: 30, Ordinal: 3},
	}
	ordered, err := app.QuestionsInOrder(ctx, staticCatalog{questions: shuffled})
	if err != nil {
		t.Fatalf("ordered: %v", err)
	}
	if ordered[0].ID != 10 || ordered[2].ID != 30 || shuffled[0].ID != 20 {
		t.Fatalf("expected sorted copy, got %+v (input %+v)", ordered, shuffled)
	}

	bad := []staticCatalog{
		{},
		{err: errors.New("connection refused")},
		{questions: []domain.Question{{ID: 1, Ordinal: 1}, {ID: 2, Ordinal: 3}}},
		{questions: []domain.Question{{ID: 1, Ordinal: 1}, {ID: 1, Ordinal: 2}}},
		{questions: []domain.Question{{ID: 1, Ordinal: 0}}},
	}
	for i, repo := range bad {
		if _, err := app.QuestionsInOrder(ctx, repo); !errors.Is(err, domain.ErrCatalogUnavailable) {
			t.Fatalf("case %d: expected catalog unavailable, got %v", i, err)
		}
	}
}
