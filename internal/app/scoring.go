package app

import (
	"sort"

	"morse-quiz-service/internal/domain"
)

// LeaderboardSize is how many entries a leaderboard keeps.
const LeaderboardSize = 10

// ComputeScore is the share of the catalog answered correctly, as a fractional percentage.
// Each question counts once no matter how many correct records it has.
func ComputeScore(records []domain.AnswerRecord, catalogSize int) domain.Percentage {
	if catalogSize <= 0 {
		return 0
	}
	correct := len(correctByQuestion(records))
	if correct > catalogSize {
		correct = catalogSize
	}
	return domain.Percentage(float64(correct) / float64(catalogSize) * 100)
}

// GradeFor buckets a score for the results badge.
func GradeFor(score domain.Percentage) domain.Grade {
	switch {
	case score >= 80:
		return domain.GradeExcellent
	case score >= 60:
		return domain.GradeGood
	default:
		return domain.GradeNeedsImprovement
	}
}

// ComputeLeaderboard ranks users by score descending, then by total time on correct
// answers ascending. Ties on both get distinct sequential ranks, ordered by user id so
// the output is stable. Missing display names fall back to the user id.
func ComputeLeaderboard(records []domain.AnswerRecord, catalogSize int, names map[string]string) []domain.LeaderboardEntry {
	byUser := make(map[string][]domain.AnswerRecord)
	for _, record := range records {
		byUser[record.UserID] = append(byUser[record.UserID], record)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(byUser))
	for userID, userRecords := range byUser {
		total := 0
		for _, record := range correctByQuestion(userRecords) {
			total += record.TimeTakenSeconds
		}
		name := names[userID]
		if name == "" {
			name = userID
		}
		entries = append(entries, domain.LeaderboardEntry{
			UserID:           userID,
			DisplayName:      name,
			TotalScore:       ComputeScore(userRecords, catalogSize),
			TotalTimeSeconds: total,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		if entries[i].TotalTimeSeconds != entries[j].TotalTimeSeconds {
			return entries[i].TotalTimeSeconds < entries[j].TotalTimeSeconds
		}
		return entries[i].UserID < entries[j].UserID
	})

	if len(entries) > LeaderboardSize {
		entries = entries[:LeaderboardSize]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// BuildResults summarizes a user's progress against the catalog.
func BuildResults(userID string, tracker *Tracker, progress domain.ProgressState) domain.Results {
	records := progress.Records()
	score := ComputeScore(records, tracker.Size())
	results := domain.Results{
		UserID:       userID,
		Total:        tracker.Size(),
		Score:        score,
		DisplayScore: score.Rounded(),
		Grade:        GradeFor(score),
		Details:      make([]domain.QuestionResult, 0, tracker.Size()),
	}
	for _, q := range tracker.Questions() {
		row := domain.QuestionResult{
			QuestionID:      q.ID,
			Ordinal:         q.Ordinal,
			Prompt:          q.Prompt,
			CanonicalAnswer: q.CanonicalAnswer,
		}
		if record, ok := progress.AnswersByQuestion[q.ID]; ok {
			row.SubmittedAnswer = record.SubmittedAnswer
			row.IsCorrect = record.IsCorrect
			if record.IsCorrect {
				results.Correct++
				results.TotalTimeSeconds += record.TimeTakenSeconds
			}
		}
		results.Details = append(results.Details, row)
	}
	return results
}

// correctByQuestion keeps the earliest correct record per question.
func correctByQuestion(records []domain.AnswerRecord) map[int64]domain.AnswerRecord {
	out := make(map[int64]domain.AnswerRecord)
	for _, record := range records {
		if !record.IsCorrect {
			continue
		}
		if existing, ok := out[record.QuestionID]; ok && !record.AnsweredAt.Before(existing.AnsweredAt) {
			continue
		}
		out[record.QuestionID] = record
	}
	return out
}
