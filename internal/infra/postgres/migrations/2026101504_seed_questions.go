package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"morse-quiz-service/internal/infra/memory"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID            int64  `bun:"id,pk"`
	Number        int    `bun:"question_number"`
	Text          string `bun:"question_text"`
	CorrectAnswer string `bun:"correct_answer"`
}

// The default Morse catalog; existing rows are left untouched.
func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			defaults := memory.MorseQuestions()
			rows := make([]questionRow, 0, len(defaults))
			for _, q := range defaults {
				rows = append(rows, questionRow{ID: q.ID, Number: q.Ordinal, Text: q.Prompt, CorrectAnswer: q.CanonicalAnswer})
			}
			_, err := db.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			ids := make([]int64, 0, 5)
			for _, q := range memory.MorseQuestions() {
				ids = append(ids, q.ID)
			}
			_, err := db.NewDelete().Model((*questionRow)(nil)).Where("id IN (?)", bun.In(ids)).Exec(ctx)
			return err
		},
	)
}
