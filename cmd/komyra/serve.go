package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sukhwinder-i0/komyra-ai/internal/config"
	"github.com/Sukhwinder-i0/komyra-ai/internal/llm"
	"github.com/Sukhwinder-i0/komyra-ai/internal/metrics"
	"github.com/Sukhwinder-i0/komyra-ai/internal/orchestrator"
	"github.com/Sukhwinder-i0/komyra-ai/internal/server"
	"github.com/Sukhwinder-i0/komyra-ai/internal/store"
)

var (
	servePort     int
	serveInMemory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes REST endpoints for running interview sessions.

Requires GEMINI_API_KEY and JWT_SECRET. Sessions persist to PostgreSQL via
DATABASE_URL unless --memory is set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveInMemory, "memory", false, "Keep sessions in memory instead of PostgreSQL (for local use)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	codes, err := config.NewAccessCodeConfig()
	if err != nil {
		return err
	}

	var st store.Store
	if serveInMemory {
		st = store.NewMemoryStore()
	} else {
		databaseURL := os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required (or pass --memory)")
		}

		pg, err := store.NewPostgresStore(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pg.Close()

		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare schema: %w", err)
		}
		st = pg
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create oracle client: %w", err)
	}
	defer client.Close()

	m := metrics.NewMetrics()
	orch := orchestrator.New(st, client, codes, m)
	jwtService := server.NewJWTService(jwtCfg)

	srv := server.New(orch, jwtService, m, server.Config{Port: servePort})
	return srv.Start()
}
