package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sukhwinder-i0/komyra-ai/internal/config"
	"github.com/Sukhwinder-i0/komyra-ai/internal/ingestion"
	"github.com/Sukhwinder-i0/komyra-ai/internal/llm"
	"github.com/Sukhwinder-i0/komyra-ai/internal/metrics"
	"github.com/Sukhwinder-i0/komyra-ai/internal/observability"
	"github.com/Sukhwinder-i0/komyra-ai/internal/orchestrator"
	"github.com/Sukhwinder-i0/komyra-ai/internal/store"
	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interactive screening interview in the terminal",
	Long: `Run a complete screening interview against a job posting: questions are
printed to the terminal, answers are read from stdin, and a scored report is
produced at the end.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runInterviewCmd,
}

var (
	interviewConfigPath   string
	interviewJob          string
	interviewJobURL       string
	interviewResume       string
	interviewRole         string
	interviewMaxQuestions int
	interviewMaxFollowups int
	interviewPresetFile   string
	interviewPresetName   string
	interviewAPIKey       string
	interviewUseBrowser   bool
	interviewVerbose      bool
)

func init() {
	interviewCmd.Flags().StringVar(&interviewConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	interviewCmd.Flags().StringVarP(&interviewJob, "job", "j", "", "Path to job posting text file (mutually exclusive with --job-url)")
	interviewCmd.Flags().StringVar(&interviewJobURL, "job-url", "", "URL to fetch job posting from (mutually exclusive with --job)")
	interviewCmd.Flags().StringVarP(&interviewResume, "resume", "r", "", "Path to candidate resume text file")
	interviewCmd.Flags().StringVar(&interviewRole, "role", "", "Role title the candidate is interviewed for")
	interviewCmd.Flags().IntVar(&interviewMaxQuestions, "max-questions", 0, "Main question budget for the session")
	interviewCmd.Flags().IntVar(&interviewMaxFollowups, "max-followups", 0, "Follow-up budget per main question")
	interviewCmd.Flags().StringVar(&interviewPresetFile, "preset-file", "", "Path to interview preset YAML")
	interviewCmd.Flags().StringVar(&interviewPresetName, "preset", "", "Name of the preset to use from --preset-file")
	interviewCmd.Flags().BoolVar(&interviewUseBrowser, "use-browser", false, "Use headless browser for SPA job boards (requires Chrome)")
	interviewCmd.Flags().BoolVarP(&interviewVerbose, "verbose", "v", false, "Print the blueprint and transcript alongside the interview")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	interviewCmd.Flags().StringVar(&interviewAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	rootCmd.AddCommand(interviewCmd)
}

func runInterviewCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadInterviewConfig(cmd)
	if err != nil {
		return err
	}

	// A preset pins the interview shape; explicit flags cannot partially
	// override it, which keeps preset runs reproducible.
	var openingQuestion string
	var focusAreas []string
	if cfg.PresetFile != "" {
		preset, err := resolvePreset(cfg.PresetFile, interviewPresetName)
		if err != nil {
			return err
		}
		cfg.RoleTitle = preset.RoleTitle
		cfg.MaxQuestions = preset.MaxQuestions
		cfg.MaxFollowups = preset.MaxFollowups
		openingQuestion = preset.OpeningQuestion
		focusAreas = preset.FocusAreas
	}

	if cfg.RoleTitle == "" {
		return fmt.Errorf("--role is required (via flag, config, or preset)")
	}

	ic, err := buildInterviewContext(ctx, cfg)
	if err != nil {
		return err
	}
	ic.JobDescription = appendFocusAreas(ic.JobDescription, focusAreas)

	return startTerminalInterview(ctx, cfg, ic, openingQuestion)
}

// loadInterviewConfig merges config file values, CLI overrides and defaults,
// then validates what the interview command needs.
func loadInterviewConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if interviewConfigPath != "" {
		loaded, err := config.LoadConfig(interviewConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("job") {
		cfg.Job = interviewJob
	}
	if cmd.Flags().Changed("job-url") {
		cfg.JobURL = interviewJobURL
	}
	if cmd.Flags().Changed("resume") {
		cfg.Resume = interviewResume
	}
	if cmd.Flags().Changed("role") {
		cfg.RoleTitle = interviewRole
	}
	if cmd.Flags().Changed("max-questions") {
		cfg.MaxQuestions = interviewMaxQuestions
	}
	if cmd.Flags().Changed("max-followups") {
		cfg.MaxFollowups = interviewMaxFollowups
	}
	if cmd.Flags().Changed("preset-file") {
		cfg.PresetFile = interviewPresetFile
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = interviewAPIKey
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = interviewUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = interviewVerbose
	}

	cfg = cfg.MergeWithDefaults(config.Config{})

	if cfg.Job == "" && cfg.JobURL == "" {
		return cfg, fmt.Errorf("either --job or --job-url must be provided (via flag or config)")
	}
	if cfg.Job != "" && cfg.JobURL != "" {
		return cfg, fmt.Errorf("--job and --job-url are mutually exclusive; provide only one")
	}
	if cfg.Resume == "" {
		return cfg, fmt.Errorf("--resume is required (via flag or config)")
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	return cfg, nil
}

// resolvePreset picks a preset from the file: by name when given, or the only
// one declared.
func resolvePreset(path, name string) (*config.Preset, error) {
	presets, err := config.LoadPresets(path)
	if err != nil {
		return nil, err
	}

	if name != "" {
		preset, ok := config.FindPreset(presets, name)
		if !ok {
			return nil, fmt.Errorf("preset %q not found in %s", name, path)
		}
		return preset, nil
	}

	if len(presets) == 1 {
		return &presets[0], nil
	}
	return nil, fmt.Errorf("--preset is required: %s declares %d presets", path, len(presets))
}

// buildInterviewContext ingests the posting and resume into oracle context.
func buildInterviewContext(ctx context.Context, cfg config.Config) (types.InterviewContext, error) {
	var ic types.InterviewContext

	var jobText string
	var err error
	if cfg.JobURL != "" {
		jobText, _, err = ingestion.IngestJobPosting(ctx, cfg.JobURL, cfg.UseBrowser, cfg.Verbose)
		if err != nil {
			return ic, fmt.Errorf("failed to ingest job posting: %w", err)
		}
	} else {
		jobText, _, err = ingestion.IngestFromFile(cfg.Job)
		if err != nil {
			return ic, fmt.Errorf("failed to read job file: %w", err)
		}
	}

	resumeText, _, err := ingestion.IngestFromFile(cfg.Resume)
	if err != nil {
		return ic, fmt.Errorf("failed to read resume file: %w", err)
	}

	ic.JobDescription = jobText
	ic.Resume = resumeText
	ic.RoleTitle = cfg.RoleTitle
	return ic, nil
}

// appendFocusAreas folds preset focus areas into the posting text so the
// oracle weighs them when choosing questions.
func appendFocusAreas(jobDescription string, focusAreas []string) string {
	if len(focusAreas) == 0 {
		return jobDescription
	}

	var sb strings.Builder
	sb.WriteString(jobDescription)
	sb.WriteString("\n\nInterview focus areas:\n")
	for _, area := range focusAreas {
		sb.WriteString("- " + area + "\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func startTerminalInterview(ctx context.Context, cfg config.Config, ic types.InterviewContext, openingQuestion string) error {
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create oracle client: %w", err)
	}
	defer client.Close()

	// Terminal interviews are single-run: in-memory state, no access codes.
	orch := orchestrator.New(store.NewMemoryStore(), client, nil, metrics.NewMetrics())

	return runInterview(ctx, orch, ic, orchestrator.StartParams{
		RoleTitle:       ic.RoleTitle,
		MaxQuestions:    cfg.MaxQuestions,
		MaxFollowups:    cfg.MaxFollowups,
		OpeningQuestion: openingQuestion,
	}, os.Stdin, os.Stdout, cfg.Verbose)
}

// runInterview drives the question loop: print a question, read an answer,
// advance, until the budget is spent; then evaluate.
//
// The final main question arrives already flagged complete, and a completed
// session is immutable server-side. Its answer therefore travels to Evaluate
// inside a client copy of the session, the same way a browser client submits
// it.
func runInterview(ctx context.Context, orch *orchestrator.Orchestrator, ic types.InterviewContext, p orchestrator.StartParams, in io.Reader, out io.Writer, verbose bool) error {
	printer := observability.NewPrinter(out)

	if verbose {
		if analysis, err := orch.AnalyzeProfile(ctx, ic); err == nil {
			printer.PrintBlueprint(analysis.Blueprint)
		}
	}

	started, err := orch.StartSession(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	fmt.Fprintf(out, "Session %s for %s\n\n", started.Session.ID, started.Session.RoleTitle)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var lastAnswer *types.InterviewAnswer
	var clientSession json.RawMessage
	var mergedHistory []types.InterviewAnswer

	turn := started.FirstTurn
	for {
		if turn == nil {
			turn, err = orch.AdvanceQuestion(ctx, orchestrator.AdvanceParams{
				SessionID:  started.Session.ID,
				Context:    ic,
				LastAnswer: lastAnswer,
			})
			if err != nil {
				return fmt.Errorf("failed to advance interview: %w", err)
			}
		}

		printer.PrintTurn(turn)
		if turn.Question == "" {
			// Concluded without a final question; everything is recorded.
			break
		}

		answer, err := readAnswer(scanner, out)
		if err != nil {
			return err
		}
		lastAnswer = &types.InterviewAnswer{
			QuestionID:   turn.QuestionID,
			QuestionType: turn.QuestionType,
			Question:     turn.Question,
			Answer:       answer,
			AnsweredAt:   time.Now().UTC(),
		}

		if turn.InterviewComplete {
			final := turn.Session.Clone()
			final.ConversationHistory = append(final.ConversationHistory, *lastAnswer)
			payload, merr := json.Marshal(final)
			if merr != nil {
				return fmt.Errorf("failed to serialize session: %w", merr)
			}
			clientSession = payload
			mergedHistory = final.ConversationHistory
			break
		}
		turn = nil
	}

	if verbose {
		history := mergedHistory
		if history == nil {
			if session, err := orch.GetSession(ctx, started.Session.ID); err == nil {
				history = session.ConversationHistory
			}
		}
		printer.PrintTranscript(history)
	}

	report, err := orch.Evaluate(ctx, orchestrator.EvaluateParams{
		SessionID:     started.Session.ID,
		Context:       ic,
		ClientSession: clientSession,
	})
	if err != nil {
		return fmt.Errorf("failed to evaluate interview: %w", err)
	}
	printer.PrintReport(report)

	return nil
}

// readAnswer prompts until a non-empty line arrives.
func readAnswer(scanner *bufio.Scanner, out io.Writer) (string, error) {
	fmt.Fprint(out, "> ")
	for {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("failed to read answer: %w", err)
			}
			return "", fmt.Errorf("input closed before the interview finished")
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer != "" {
			return answer, nil
		}
		fmt.Fprint(out, "> ")
	}
}
