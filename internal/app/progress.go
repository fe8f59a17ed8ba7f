package app

import (
	"strings"

	"morse-quiz-service/internal/domain"
)

// Tracker interprets answer records against an ordered catalog. It holds no
// per-user state; progress is always recomputed from records.
type Tracker struct {
	questions []domain.Question
	byID      map[int64]int // question id -> index in questions
}

// NewTracker expects questions already validated by QuestionsInOrder.
func NewTracker(questions []domain.Question) *Tracker {
	byID := make(map[int64]int, len(questions))
	for i, q := range questions {
		byID[q.ID] = i
	}
	return &Tracker{questions: questions, byID: byID}
}

func (t *Tracker) Size() int {
	return len(t.questions)
}

func (t *Tracker) Questions() []domain.Question {
	return t.questions
}

func (t *Tracker) Question(id int64) (domain.Question, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return domain.Question{}, false
	}
	return t.questions[idx], true
}

// QuestionAt returns the question at a 1-based ordinal.
func (t *Tracker) QuestionAt(ordinal int) (domain.Question, bool) {
	if ordinal < 1 || ordinal > len(t.questions) {
		return domain.Question{}, false
	}
	return t.questions[ordinal-1], true
}

// Progress derives the progress state from a set of records. When several records
// exist for one question, a correct one wins (earliest correct), otherwise the latest.
// Records for unknown questions are ignored.
func (t *Tracker) Progress(records []domain.AnswerRecord) domain.ProgressState {
	answers := make(map[int64]domain.AnswerRecord, len(records))
	for _, record := range records {
		if _, ok := t.byID[record.QuestionID]; !ok {
			continue
		}
		existing, ok := answers[record.QuestionID]
		if !ok || preferRecord(record, existing) {
			answers[record.QuestionID] = record
		}
	}

	state := domain.ProgressState{
		AnswersByQuestion:    answers,
		CompletedQuestionIDs: make([]int64, 0, len(answers)),
	}
	current := 0
	for _, q := range t.questions {
		if record, ok := answers[q.ID]; ok && record.IsCorrect {
			state.CompletedQuestionIDs = append(state.CompletedQuestionIDs, q.ID)
			continue
		}
		if current == 0 {
			current = q.Ordinal
		}
	}
	if current == 0 {
		current = len(t.questions)
		state.Complete = len(t.questions) > 0
	}
	state.CurrentOrdinal = current
	return state
}

func preferRecord(candidate, existing domain.AnswerRecord) bool {
	if candidate.IsCorrect != existing.IsCorrect {
		return candidate.IsCorrect
	}
	if candidate.IsCorrect {
		return candidate.AnsweredAt.Before(existing.AnsweredAt)
	}
	return candidate.AnsweredAt.After(existing.AnsweredAt)
}

// State reports where a question sits in the state machine for the given progress.
func (t *Tracker) State(progress domain.ProgressState, questionID int64) (domain.QuestionState, error) {
	idx, ok := t.byID[questionID]
	if !ok {
		return domain.StateLocked, domain.ErrQuestionNotFound
	}
	if record, ok := progress.AnswersByQuestion[questionID]; ok {
		if record.IsCorrect {
			return domain.StateAnsweredCorrect, nil
		}
		if t.unlocked(progress, idx) {
			return domain.StateAnsweredIncorrect, nil
		}
	}
	if t.unlocked(progress, idx) {
		return domain.StateUnlocked, nil
	}
	return domain.StateLocked, nil
}

func (t *Tracker) unlocked(progress domain.ProgressState, idx int) bool {
	if idx == 0 {
		return true
	}
	return progress.IsCompleted(t.questions[idx-1].ID)
}

// CheckSubmission enforces the submit guards regardless of caller discipline.
func (t *Tracker) CheckSubmission(progress domain.ProgressState, questionID int64, answer string) error {
	state, err := t.State(progress, questionID)
	if err != nil {
		return err
	}
	switch state {
	case domain.StateLocked:
		return domain.ErrQuestionLocked
	case domain.StateAnsweredCorrect:
		return domain.ErrAlreadyCompleted
	}
	if strings.TrimSpace(answer) == "" {
		return domain.ErrEmptyAnswer
	}
	return nil
}

// Apply returns the progress after adding record. The input state is not modified.
func (t *Tracker) Apply(progress domain.ProgressState, record domain.AnswerRecord) domain.ProgressState {
	records := progress.Records()
	filtered := records[:0]
	for _, r := range records {
		if r.QuestionID != record.QuestionID {
			filtered = append(filtered, r)
		}
	}
	return t.Progress(append(filtered, record))
}

// Views lists every question with its current state, canonical answers withheld.
func (t *Tracker) Views(progress domain.ProgressState) []domain.QuestionView {
	views := make([]domain.QuestionView, 0, len(t.questions))
	for _, q := range t.questions {
		state, _ := t.State(progress, q.ID)
		views = append(views, domain.QuestionView{ID: q.ID, Ordinal: q.Ordinal, Prompt: q.Prompt, State: state})
	}
	return views
}

// ProgressPercent is the "question k of N" completion shown while answering.
func (t *Tracker) ProgressPercent(progress domain.ProgressState) domain.Percentage {
	if len(t.questions) == 0 {
		return 0
	}
	if progress.Complete {
		return 100
	}
	return domain.Percentage(float64(progress.CurrentOrdinal) / float64(len(t.questions)) * 100)
}
