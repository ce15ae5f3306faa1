package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sukhwinder-i0/komyra-ai/internal/config"
	"github.com/Sukhwinder-i0/komyra-ai/internal/llm"
	"github.com/Sukhwinder-i0/komyra-ai/internal/metrics"
	"github.com/Sukhwinder-i0/komyra-ai/internal/orchestrator"
	"github.com/Sukhwinder-i0/komyra-ai/internal/store"
	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored interview sessions",
	Long:  "List the sessions in the PostgreSQL store with their phase and progress.",
	RunE:  runSessions,
}

var evaluateBatchCmd = &cobra.Command{
	Use:   "evaluate-batch",
	Short: "Backfill reports for completed sessions",
	Long: `Evaluate every completed session that has no stored report yet, scoring each
transcript against the supplied job posting and resume. Useful after oracle
outages left finished interviews unscored.`,
	RunE: runEvaluateBatch,
}

var (
	sessionsDBURL string

	batchJob      string
	batchJobURL   string
	batchResume   string
	batchRole     string
	batchDBURL    string
	batchAPIKey   string
	batchParallel int
)

func init() {
	sessionsCmd.Flags().StringVar(&sessionsDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(sessionsCmd)

	evaluateBatchCmd.Flags().StringVarP(&batchJob, "job", "j", "", "Path to job posting text file (mutually exclusive with --job-url)")
	evaluateBatchCmd.Flags().StringVar(&batchJobURL, "job-url", "", "URL to fetch job posting from (mutually exclusive with --job)")
	evaluateBatchCmd.Flags().StringVarP(&batchResume, "resume", "r", "", "Path to candidate resume text file (required)")
	evaluateBatchCmd.Flags().StringVar(&batchRole, "role", "", "Role title the sessions were run for (required)")
	evaluateBatchCmd.Flags().StringVar(&batchDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	evaluateBatchCmd.Flags().StringVar(&batchAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	evaluateBatchCmd.Flags().IntVar(&batchParallel, "parallel", 4, "Number of sessions to evaluate concurrently")

	evaluateBatchCmd.MarkFlagRequired("resume")
	evaluateBatchCmd.MarkFlagRequired("role")

	rootCmd.AddCommand(evaluateBatchCmd)
}

// connectStore opens the PostgreSQL store named by the flag or DATABASE_URL.
func connectStore(ctx context.Context, flagURL string) (*store.PostgresStore, error) {
	databaseURL := flagURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	pg, err := store.NewPostgresStore(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}
	return pg, nil
}

func runSessions(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	pg, err := connectStore(ctx, sessionsDBURL)
	if err != nil {
		return err
	}
	defer pg.Close()

	sessions, err := pg.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stdout, "No sessions stored.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-24s  %-13s  %-9s  %s\n", "ID", "ROLE", "PHASE", "PROGRESS", "UPDATED")
	for _, s := range sessions {
		role := s.RoleTitle
		if len(role) > 24 {
			role = role[:21] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-24s  %-13s  %4d/%-4d  %s\n",
			s.ID, role, s.Phase, s.CurrentQuestionIndex, s.MaxQuestions,
			s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(os.Stdout, "\n%d sessions\n", len(sessions))
	return nil
}

func runEvaluateBatch(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	if batchJob == "" && batchJobURL == "" {
		return fmt.Errorf("either --job or --job-url must be provided")
	}
	if batchJob != "" && batchJobURL != "" {
		return fmt.Errorf("--job and --job-url are mutually exclusive; provide only one")
	}
	if batchParallel < 1 {
		batchParallel = 1
	}

	apiKey := batchAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	ic, err := buildInterviewContext(ctx, config.Config{
		Job:       batchJob,
		JobURL:    batchJobURL,
		Resume:    batchResume,
		RoleTitle: batchRole,
	})
	if err != nil {
		return err
	}

	pg, err := connectStore(ctx, batchDBURL)
	if err != nil {
		return err
	}
	defer pg.Close()

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create oracle client: %w", err)
	}
	defer client.Close()

	orch := orchestrator.New(pg, client, nil, metrics.NewMetrics())

	pending, err := unscoredSessions(ctx, pg)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(os.Stdout, "Nothing to evaluate: every completed session already has a report.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "Evaluating %d sessions with %d workers\n", len(pending), batchParallel)

	// Per-session failures are reported, not fatal; one bad transcript must
	// not abandon the rest of the backfill.
	var evaluated, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallel)
	for _, session := range pending {
		g.Go(func() error {
			report, err := orch.Evaluate(gctx, orchestrator.EvaluateParams{
				SessionID: session.ID,
				Context:   ic,
			})
			if err != nil {
				failed.Add(1)
				fmt.Fprintf(os.Stderr, "  %s: %v\n", session.ID, err)
				return nil
			}
			evaluated.Add(1)
			fmt.Fprintf(os.Stdout, "  %s: %s (alignment %.0f%%)\n", session.ID, report.Verdict, report.Alignment)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Evaluated %d sessions, %d failed\n", evaluated.Load(), failed.Load())
	if failed.Load() > 0 {
		return fmt.Errorf("%d sessions could not be evaluated", failed.Load())
	}
	return nil
}

// unscoredSessions returns completed sessions that have no stored report.
func unscoredSessions(ctx context.Context, pg *store.PostgresStore) ([]*types.InterviewSession, error) {
	sessions, err := pg.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var pending []*types.InterviewSession
	for _, s := range sessions {
		if !s.Completed() || len(s.ConversationHistory) == 0 {
			continue
		}
		if _, err := pg.GetReport(ctx, s.ID); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to check report for %s: %w", s.ID, err)
		}
		pending = append(pending, s)
	}
	return pending, nil
}
