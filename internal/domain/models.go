package domain

import (
	"math"
	"time"
)

// Identity is the authenticated principal behind a quiz session.
// An empty UserID means the caller is not signed in.
type Identity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Question is one entry of the ordered catalog. Ordinals are contiguous 1..N.
type Question struct {
	ID              int64  `json:"id"`
	Ordinal         int    `json:"ordinal"`
	Prompt          string `json:"prompt"`
	CanonicalAnswer string `json:"canonicalAnswer"`
}

// AnswerRecord is a single graded submission. Stores keep one record per (UserID, QuestionID).
type AnswerRecord struct {
	UserID           string    `json:"userId"`
	QuestionID       int64     `json:"questionId"`
	SubmittedAnswer  string    `json:"submittedAnswer"`
	IsCorrect        bool      `json:"isCorrect"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
	AnsweredAt       time.Time `json:"answeredAt"`
}

// ProgressState is derived from a user's answer records and never persisted on its own.
type ProgressState struct {
	CurrentOrdinal       int                    `json:"currentOrdinal"`
	AnswersByQuestion    map[int64]AnswerRecord `json:"answersByQuestion"`
	CompletedQuestionIDs []int64                `json:"completedQuestionIds"`
	Complete             bool                   `json:"complete"`
}

// IsCompleted reports whether the question has a correct record.
func (p ProgressState) IsCompleted(questionID int64) bool {
	record, ok := p.AnswersByQuestion[questionID]
	return ok && record.IsCorrect
}

// Records returns the records held by the state in no particular order.
func (p ProgressState) Records() []AnswerRecord {
	records := make([]AnswerRecord, 0, len(p.AnswersByQuestion))
	for _, record := range p.AnswersByQuestion {
		records = append(records, record)
	}
	return records
}

// QuestionState is the per-question position in the progress state machine.
type QuestionState int

const (
	StateLocked QuestionState = iota
	StateUnlocked
	StateAnsweredIncorrect
	StateAnsweredCorrect
)

func (s QuestionState) String() string {
	switch s {
	case StateUnlocked:
		return "UNLOCKED"
	case StateAnsweredIncorrect:
		return "ANSWERED_INCORRECT"
	case StateAnsweredCorrect:
		return "ANSWERED_CORRECT"
	default:
		return "LOCKED"
	}
}

func (s QuestionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Percentage is a fractional score in [0, 100].
type Percentage float64

// Rounded is the display value; comparisons use the fractional value.
func (p Percentage) Rounded() int {
	return int(math.Round(float64(p)))
}

// Grade buckets a score for the results badge.
type Grade string

const (
	GradeExcellent        Grade = "EXCELLENT"
	GradeGood             Grade = "GOOD"
	GradeNeedsImprovement Grade = "NEEDS IMPROVEMENT"
)

// LeaderboardEntry is a ranked, per-user aggregate computed on each request.
type LeaderboardEntry struct {
	Rank             int        `json:"rank"`
	UserID           string     `json:"userId"`
	DisplayName      string     `json:"displayName"`
	TotalScore       Percentage `json:"totalScore"`
	TotalTimeSeconds int        `json:"totalTimeSeconds"`
}

// LeaderboardSnapshot is what the remote store returns for leaderboard computation.
type LeaderboardSnapshot struct {
	Records      []AnswerRecord
	DisplayNames map[string]string
}

// QuestionView is a question as presented to a participant; the canonical answer is withheld.
type QuestionView struct {
	ID      int64         `json:"id"`
	Ordinal int           `json:"ordinal"`
	Prompt  string        `json:"prompt"`
	State   QuestionState `json:"state"`
}

// SessionView is the render-ready snapshot of a quiz session.
type SessionView struct {
	UserID          string         `json:"userId"`
	DisplayName     string         `json:"displayName"`
	Current         *QuestionView  `json:"current,omitempty"`
	Questions       []QuestionView `json:"questions"`
	Total           int            `json:"total"`
	ProgressPercent Percentage     `json:"progressPercent"`
	Input           string         `json:"input"`
	Decoded         string         `json:"decoded"`
	Complete        bool           `json:"complete"`
	Degraded        bool           `json:"degraded"`
}

// SubmitResult summarizes one graded submission.
type SubmitResult struct {
	Record          AnswerRecord `json:"record"`
	NextQuestionID  int64        `json:"nextQuestionId,omitempty"`
	CatalogComplete bool         `json:"catalogComplete"`
}

// QuestionResult is one row of the results summary.
type QuestionResult struct {
	QuestionID      int64  `json:"questionId"`
	Ordinal         int    `json:"ordinal"`
	Prompt          string `json:"prompt"`
	SubmittedAnswer string `json:"submittedAnswer,omitempty"`
	CanonicalAnswer string `json:"canonicalAnswer"`
	IsCorrect       bool   `json:"isCorrect"`
}

// Results is the end-of-quiz summary.
type Results struct {
	UserID           string           `json:"userId"`
	Correct          int              `json:"correct"`
	Total            int              `json:"total"`
	Score            Percentage       `json:"score"`
	DisplayScore     int              `json:"displayScore"`
	Grade            Grade            `json:"grade"`
	TotalTimeSeconds int              `json:"totalTimeSeconds"`
	Details          []QuestionResult `json:"details"`
}
