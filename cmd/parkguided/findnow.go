package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"parking-guide-backend/internal/logger"
	"parking-guide-backend/internal/quicksearch"
)

var findAt string

var findNowCmd = &cobra.Command{
	Use:   "find-now",
	Short: "Run one quick search and print the recommendation",
	RunE:  findNow,
}

// errSearchFailed is returned when the search could not run at all. An empty
// result is not an error.
var errSearchFailed = errors.New("quick search failed")

func init() {
	findNowCmd.Flags().StringVar(&findAt, "at", "", "search instant, RFC3339 or naive local time (default now)")
	rootCmd.AddCommand(findNowCmd)
}

func findNow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logging)

	eng, err := newEngine(cfg, nil, log)
	if err != nil {
		return err
	}

	var at time.Time
	if findAt != "" {
		at, err = eng.client.Formatter().Parse(findAt)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := eng.searcher.FindBestNow(ctx, at)
	return printOutcome(cmd.OutOrStdout(), out)
}

func printOutcome(w io.Writer, out quicksearch.Outcome) error {
	fmt.Fprintln(w, out.Message())
	switch out.Kind {
	case quicksearch.OutcomeRecommendation:
		for i, alt := range out.Alternatives {
			spaces, _ := alt.Prediction.AvailableSpaces()
			fmt.Fprintf(w, "  %d. %s: %d spaces\n", i+2, alt.Label(), spaces)
		}
	case quicksearch.OutcomeFailed:
		return fmt.Errorf("%w: %s", errSearchFailed, out.Reason)
	}
	return nil
}
