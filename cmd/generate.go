package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/mcqgen/internal/llm"
	"github.com/abhisek/mcqgen/internal/quiz"
	"github.com/abhisek/mcqgen/internal/store"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a quiz from a text file or stdin",
	Long: `Generate a multiple-choice quiz from source text.

The text is read from --file, or from stdin when --file is "-" or omitted.
Every run is recorded in the event database; see "mcqgen runs".`,
	Example: `  mcqgen generate --file notes.txt -n 10 --tone professional
  cat chapter.txt | mcqgen generate --json`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("file", "f", "-", "Source text file, or - for stdin")
	generateCmd.Flags().IntP("count", "n", 5, fmt.Sprintf("Number of questions (1-%d)", quiz.MaxQuestions))
	generateCmd.Flags().StringP("tone", "t", string(quiz.ToneNeutral), "Question tone: simple, neutral or professional")
	generateCmd.Flags().Bool("json", false, "Print the quiz as JSON")
	generateCmd.Flags().String("provider", "", "LLM provider: gemini, openai, openrouter, anthropic, ollama, mock")
	generateCmd.Flags().String("model", "", "Model name for the selected provider")
	generateCmd.Flags().Duration("timeout", 0, "Overall deadline including retries (e.g. 90s)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	count, _ := cmd.Flags().GetInt("count")
	tone, _ := cmd.Flags().GetString("tone")
	asJSON, _ := cmd.Flags().GetBool("json")

	if count < 1 || count > quiz.MaxQuestions {
		return fmt.Errorf("--count must be between 1 and %d, got %d", quiz.MaxQuestions, count)
	}

	source, err := readSource(file, cmd.InOrStdin())
	if err != nil {
		return err
	}

	req, err := quiz.NewRequest(source, count, quiz.Tone(tone))
	if err != nil {
		return err
	}

	s, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.LLM.Validate(); err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	provider, err := llm.NewProvider(ctx, cfg.LLM, s.EventRepo(), logger)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	if cfg.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.LLM.Timeout)
		defer cancel()
	}

	gen := quiz.New(provider, cfg.QuizGeneratorConfig(), logger)
	q, genErr := gen.Generate(ctx, req)

	// Record the run even when the request context has expired.
	if err := s.EventRepo().AppendQuizRun(context.Background(), runEventData(req, q, genErr)); err != nil {
		logger.Warn("failed to record quiz run", zap.Error(err))
	}

	if genErr != nil {
		return errors.New(describeError(genErr))
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(q)
	}

	renderQuiz(cmd.OutOrStdout(), q)
	renderSummary(cmd.ErrOrStderr(), q.Diagnostics)
	return nil
}

// readSource reads the whole source text from path, or from stdin when
// path is "-" or empty.
func readSource(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read source text: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("source text is empty")
	}
	return string(data), nil
}

// runEventData summarizes a finished run for the event log.
func runEventData(req quiz.QuizRequest, q *quiz.Quiz, err error) store.QuizRunEventData {
	var diag quiz.Diagnostics
	outcome := "ok"

	if err != nil {
		var stage *quiz.StageError
		if errors.As(err, &stage) {
			diag = stage.Diagnostics
			outcome = string(stage.Stage)
		} else {
			outcome = "error"
		}
	} else {
		diag = q.Diagnostics
		if diag.Partial() {
			outcome = "partial"
		}
	}

	data := store.QuizRunEventData{
		RunID:       diag.RunID,
		Model:       diag.Model,
		Tone:        string(req.Tone()),
		Requested:   req.QuestionCount(),
		Produced:    diag.Produced,
		Blocks:      diag.Blocks,
		Malformed:   diag.Malformed,
		Rejected:    diag.Rejected,
		Attempts:    diag.Attempts,
		SourceChars: len([]rune(req.SourceText())),
		LatencyMs:   diag.Latency.Milliseconds(),
		Outcome:     outcome,
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}
	return data
}

// describeError turns a pipeline failure into a one-line message.
func describeError(err error) string {
	var (
		canceled *llm.CanceledError
		empty    *quiz.EmptyResultError
		gen      *llm.GenerationError
	)
	switch {
	case errors.As(err, &canceled):
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Sprintf("generation timed out after %d attempt(s); raise --timeout to wait longer", canceled.Attempts)
		}
		return "generation canceled"
	case errors.As(err, &empty):
		return fmt.Sprintf("the model's reply contained no usable questions (%d blocks, %d malformed, %d rejected)",
			empty.Blocks, empty.Malformed, empty.Rejected)
	case errors.As(err, &gen) && gen.Kind == llm.Transient:
		return fmt.Sprintf("the model service is unavailable: %v", err)
	case errors.As(err, &gen):
		return fmt.Sprintf("the model service rejected the request: %v", err)
	default:
		return err.Error()
	}
}
