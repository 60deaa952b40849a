package quiz

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/mcqgen/internal/llm"
)

// Purpose tags every LLM request made by the pipeline.
const Purpose = "quiz-gen"

// Generator turns source text into a validated quiz.
type Generator interface {
	// Generate runs one request through prompt, provider, parser and
	// validators. It returns either a non-empty Quiz or a *StageError.
	Generate(ctx context.Context, req QuizRequest) (*Quiz, error)
}

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	logger   *zap.Logger
	newID    func() string
}

// New creates a new LLMGenerator. logger may be nil.
func New(provider llm.Provider, cfg Config, logger *zap.Logger) *LLMGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMGenerator{
		provider: provider,
		config:   cfg,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Generate produces a quiz for req.
func (g *LLMGenerator) Generate(ctx context.Context, req QuizRequest) (*Quiz, error) {
	start := time.Now()
	diag := Diagnostics{
		RunID:     g.newID(),
		Model:     g.provider.ModelID(),
		Requested: req.QuestionCount(),
	}
	log := g.logger.With(zap.String("run_id", diag.RunID))

	if !req.valid() {
		return nil, &StageError{Stage: StageRequest, Diagnostics: diag, Err: ErrInvalidRequest}
	}

	attempts := &llm.AttemptLog{}
	ctx = llm.WithPurpose(ctx, Purpose)
	ctx = llm.WithRunID(ctx, diag.RunID)
	ctx = llm.WithAttemptLog(ctx, attempts)

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: BuildPrompt(req)},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	diag.Attempts = len(attempts.Attempts())
	if err != nil {
		diag.Latency = time.Since(start)
		log.Warn("quiz generation failed",
			zap.String("stage", string(StageGenerate)),
			zap.Int("attempts", diag.Attempts),
			zap.Error(err))
		return nil, &StageError{Stage: StageGenerate, Diagnostics: diag, Err: err}
	}
	if resp.Model != "" {
		diag.Model = resp.Model
	}
	if resp.StopReason == "max_tokens" {
		log.Warn("reply truncated at token limit", zap.Int("max_tokens", g.config.MaxTokens))
	}

	parsed, stats := Parse(resp.Text)
	diag.Blocks = stats.Blocks
	diag.Malformed = stats.Malformed
	log.Debug("reply parsed",
		zap.Int("blocks", stats.Blocks),
		zap.Int("malformed", stats.Malformed),
		zap.Int("parsed", stats.Parsed))

	quiz, err := Validate(parsed, req, g.config.Validators...)
	diag.Latency = time.Since(start)
	if err != nil {
		var empty *EmptyResultError
		if errors.As(err, &empty) {
			empty.Blocks = stats.Blocks
			empty.Malformed = stats.Malformed
			diag.Rejected = empty.Rejected
		}
		log.Warn("quiz validation failed",
			zap.String("stage", string(StageValidate)),
			zap.Int("blocks", stats.Blocks),
			zap.Int("malformed", stats.Malformed),
			zap.Error(err))
		return nil, &StageError{Stage: StageValidate, Diagnostics: diag, Err: err}
	}

	diag.Produced = quiz.Diagnostics.Produced
	diag.Rejected = quiz.Diagnostics.Rejected
	diag.Rejections = quiz.Diagnostics.Rejections
	quiz.Diagnostics = diag

	log.Info("quiz generated",
		zap.String("model", diag.Model),
		zap.Int("requested", diag.Requested),
		zap.Int("produced", diag.Produced),
		zap.Int("malformed", diag.Malformed),
		zap.Int("rejected", diag.Rejected),
		zap.Int("attempts", diag.Attempts),
		zap.Duration("latency", diag.Latency))

	return quiz, nil
}
