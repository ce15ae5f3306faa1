package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sukhwinder-i0/komyra-ai/internal/config"
	"github.com/Sukhwinder-i0/komyra-ai/internal/llm"
	"github.com/Sukhwinder-i0/komyra-ai/internal/metrics"
	"github.com/Sukhwinder-i0/komyra-ai/internal/observability"
	"github.com/Sukhwinder-i0/komyra-ai/internal/orchestrator"
	"github.com/Sukhwinder-i0/komyra-ai/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Derive the interview blueprint without running an interview",
	Long: `Analyze a job posting against a resume and print the interview blueprint:
core skills, experience highlights, skill gaps, focus areas and question themes.`,
	RunE: runAnalyze,
}

var (
	analyzeJob        string
	analyzeJobURL     string
	analyzeResume     string
	analyzeRole       string
	analyzeAPIKey     string
	analyzeUseBrowser bool
	analyzeJSON       bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeJob, "job", "j", "", "Path to job posting text file (mutually exclusive with --job-url)")
	analyzeCmd.Flags().StringVar(&analyzeJobURL, "job-url", "", "URL to fetch job posting from (mutually exclusive with --job)")
	analyzeCmd.Flags().StringVarP(&analyzeResume, "resume", "r", "", "Path to candidate resume text file (required)")
	analyzeCmd.Flags().StringVar(&analyzeRole, "role", "", "Role title the candidate is screened for (required)")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	analyzeCmd.Flags().BoolVar(&analyzeUseBrowser, "use-browser", false, "Use headless browser for SPA job boards (requires Chrome)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the blueprint as JSON instead of a formatted box")

	analyzeCmd.MarkFlagRequired("resume")
	analyzeCmd.MarkFlagRequired("role")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	if analyzeJob == "" && analyzeJobURL == "" {
		return fmt.Errorf("either --job or --job-url must be provided")
	}
	if analyzeJob != "" && analyzeJobURL != "" {
		return fmt.Errorf("--job and --job-url are mutually exclusive; provide only one")
	}

	apiKey := analyzeAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	ic, err := buildInterviewContext(ctx, config.Config{
		Job:        analyzeJob,
		JobURL:     analyzeJobURL,
		Resume:     analyzeResume,
		RoleTitle:  analyzeRole,
		UseBrowser: analyzeUseBrowser,
	})
	if err != nil {
		return err
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create oracle client: %w", err)
	}
	defer client.Close()

	orch := orchestrator.New(store.NewMemoryStore(), client, nil, metrics.NewMetrics())
	analysis, err := orch.AnalyzeProfile(ctx, ic)
	if err != nil {
		return fmt.Errorf("failed to analyze profile: %w", err)
	}

	if analyzeJSON {
		data, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal analysis: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	if !analysis.Success {
		fmt.Fprintln(os.Stdout, "Analysis fell back to an empty blueprint; the oracle gave no usable answer.")
	}
	observability.NewPrinter(os.Stdout).PrintBlueprint(analysis.Blueprint)
	return nil
}
