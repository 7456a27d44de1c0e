// Package generation produces grounded answers from retrieved passages and
// enforces the response gate on everything the model returns.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/providers/huggingface"
)

const systemInstruction = "You are a helpful assistant. Answer the question using only the reference passages below. " +
	"If the passages do not contain enough information to answer, say \"I don't know\". " +
	"Do not invent facts that are not in the passages. Answer in the language of the question."

// TextGenerator is the single model call the generator depends on.
type TextGenerator interface {
	TextGeneration(ctx context.Context, prompt string, params huggingface.GenerationParams) (string, error)
}

// Result is the outcome of one generation, refusals included.
type Result struct {
	Response         string
	TokensUsed       int
	ProcessingTimeMs int64
	Model            string
}

// Generator builds the grounded prompt, calls the model and gates the output.
// Generate never returns an error for model failures: the caller always gets
// presentable text, and zero tokens are billed when no real answer was produced.
type Generator struct {
	client TextGenerator
	model  string
	params huggingface.GenerationParams
	gate   *Gate
	logger zerolog.Logger
}

// NewGenerator creates a Generator with injected dependencies.
func NewGenerator(client TextGenerator, model string, params huggingface.GenerationParams, gate *Gate, logger zerolog.Logger) *Generator {
	if gate == nil {
		gate = NewGate()
	}
	return &Generator{
		client: client,
		model:  model,
		params: params,
		gate:   gate,
		logger: logger,
	}
}

// Generate answers the query from the given passages. With no passages the
// model is not invoked at all and the canonical refusal comes back with zero
// tokens. A failed model call degrades to the try-again refusal, also at zero
// tokens.
func (g *Generator) Generate(ctx context.Context, query string, passages []domain.Passage, locale string) Result {
	start := time.Now()

	if len(passages) == 0 {
		return Result{
			Response:         RefusalNotFound(locale),
			TokensUsed:       0,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Model:            g.model,
		}
	}

	prompt := buildPrompt(query, passages)

	raw, err := g.client.TextGeneration(ctx, prompt, g.params)
	if err != nil {
		g.logger.Error().Err(err).Str("model", g.model).Msg("text generation failed")
		return Result{
			Response:         RefusalTryAgain(locale),
			TokensUsed:       0,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Model:            g.model,
		}
	}

	return Result{
		Response:         g.gate.Validate(raw, locale),
		TokensUsed:       estimateTokens(prompt),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Model:            g.model,
	}
}

// buildPrompt renders the Qwen chat template with the system instruction, the
// numbered reference passages and the user question.
func buildPrompt(query string, passages []domain.Passage) string {
	var b strings.Builder
	b.WriteString("<|im_start|>system\n")
	b.WriteString(systemInstruction)
	b.WriteString("\n\nReference passages:\n")
	for i, p := range passages {
		title := p.Title
		if title == "" {
			title = "Reference"
		}
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, title, p.Content)
	}
	b.WriteString("<|im_end|>\n<|im_start|>user\n")
	b.WriteString(query)
	b.WriteString("<|im_end|>\n<|im_start|>assistant\n")
	return b.String()
}

// estimateTokens approximates token usage as one token per four prompt bytes,
// rounded up. It is an estimate for metering, not a tokenizer.
func estimateTokens(prompt string) int {
	if prompt == "" {
		return 0
	}
	return (len(prompt) + 3) / 4
}
