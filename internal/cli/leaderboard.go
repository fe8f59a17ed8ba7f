package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"morse-quiz-service/internal/config"
	"morse-quiz-service/internal/domain"
)

// NewLeaderboardCmd prints the current top entries from the configured stores.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the current top 10",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printLeaderboard(cmd.Context(), cmd.OutOrStdout(), *configPath)
		},
	}
}

func printLeaderboard(ctx context.Context, out io.Writer, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg)

	service, b, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	entries, err := service.Leaderboard(ctx)
	if err != nil {
		return err
	}
	return writeLeaderboard(out, entries)
}

func writeLeaderboard(out io.Writer, entries []domain.LeaderboardEntry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tSCORE\tTIME")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d%%\t%ds\n", e.Rank, e.DisplayName, e.TotalScore.Rounded(), e.TotalTimeSeconds)
	}
	return tw.Flush()
}
