// Package pipeline answers one question end to end: retrieve, build the
// prompt, generate, mark citations and evaluate, under a single deadline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-docqa-be/internal/constant"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/rag/citation"
	"ai-docqa-be/pkg/rag/classifier"
	"ai-docqa-be/pkg/rag/evaluator"
	"ai-docqa-be/pkg/rag/generator"
	"ai-docqa-be/pkg/rag/prompt"
	"ai-docqa-be/pkg/rag/retriever"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrQueryTimeout = errors.New("query timed out")

const previewRunes = 200

type Config struct {
	Timeout           time.Duration
	Temperature       float64
	MaxTokens         int
	Model             string
	EvaluationEnabled bool
}

type Request struct {
	UserID      uuid.UUID
	Query       string
	DocumentIDs []uuid.UUID
	Provider    string
	TopK        int
	History     []llm.Message
}

type Response struct {
	// Answer carries {{cite:N}} placeholders in place of [N] markers.
	Answer           string
	Sources          []citation.Source
	Evaluation       evaluator.Result
	Category         classifier.Category
	Model            string
	PromptTokens     int
	CompletionTokens int
	Attempts         int
}

type Retriever interface {
	Retrieve(ctx context.Context, req retriever.Request) (*retriever.Result, error)
}

type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts generator.Options) (*generator.Answer, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, in evaluator.Input) evaluator.Result
}

type Pipeline struct {
	retriever Retriever
	generator Generator
	evaluator Evaluator
	cfg       Config
	logger    logger.ILogger
	tracer    trace.Tracer
}

func New(r Retriever, g Generator, e Evaluator, cfg Config, log logger.ILogger) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Pipeline{
		retriever: r,
		generator: g,
		evaluator: e,
		cfg:       cfg,
		logger:    log,
		tracer:    otel.Tracer("rag/pipeline"),
	}
}

func (p *Pipeline) Answer(ctx context.Context, req Request) (*Response, error) {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "rag.answer")
	defer span.End()

	resp, err := p.answer(ctx, req)
	if err != nil {
		if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = apperror.Wrap(apperror.KindTransient, "answer", ErrQueryTimeout)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("rag.category", string(resp.Category)),
		attribute.Int("rag.sources", len(resp.Sources)),
		attribute.Float64("rag.evaluation.overall", resp.Evaluation.Overall),
	)
	return resp, nil
}

func (p *Pipeline) answer(ctx context.Context, req Request) (*Response, error) {
	retrieved, err := p.retrieve(ctx, req)
	if err != nil {
		return nil, err
	}
	category := retrieved.Classification.Category

	contexts := make([]prompt.Context, len(retrieved.Contexts))
	sources := make([]citation.Source, len(retrieved.Contexts))
	for i, c := range retrieved.Contexts {
		contexts[i] = prompt.Context{Source: c.Filename, Content: c.Content}
		sources[i] = citation.Source{
			DocumentID: c.DocumentID,
			Filename:   c.Filename,
			ChunkIndex: c.ChunkIndex,
			Score:      c.Combined,
			Preview:    preview(c.Content),
		}
	}

	built := prompt.Build(prompt.Input{
		Instructions: Instructions(category, len(contexts) > 0),
		Contexts:     contexts,
		Query:        req.Query,
		History:      req.History,
	})

	answer, err := p.generate(ctx, built)
	if err != nil {
		return nil, err
	}

	evaluation := evaluator.Perfect()
	if p.cfg.EvaluationEnabled && p.evaluator != nil {
		evaluation = p.evaluate(ctx, evaluator.Input{
			Category: category,
			Query:    req.Query,
			Answer:   answer.Text,
			Contexts: contexts,
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.WithContext(ctx).Info("PIPELINE", "Answer generated", map[string]interface{}{
		"user_id":    req.UserID.String(),
		"category":   string(category),
		"sources":    len(sources),
		"attempts":   answer.Attempts,
		"evaluation": evaluation.Overall,
	})

	return &Response{
		Answer:           citation.Rewrite(answer.Text, len(sources)),
		Sources:          sources,
		Evaluation:       evaluation,
		Category:         category,
		Model:            answer.Model,
		PromptTokens:     answer.PromptTokens,
		CompletionTokens: answer.CompletionTokens,
		Attempts:         answer.Attempts,
	}, nil
}

func (p *Pipeline) retrieve(ctx context.Context, req Request) (*retriever.Result, error) {
	ctx, span := p.tracer.Start(ctx, "rag.retrieve")
	defer span.End()

	res, err := p.retriever.Retrieve(ctx, retriever.Request{
		UserID:      req.UserID,
		Query:       req.Query,
		DocumentIDs: req.DocumentIDs,
		Provider:    req.Provider,
		TopK:        req.TopK,
		History:     req.History,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	span.SetAttributes(
		attribute.String("rag.category", string(res.Classification.Category)),
		attribute.Int("rag.contexts", len(res.Contexts)),
		attribute.Bool("rag.searched", res.Searched),
	)
	return res, nil
}

func (p *Pipeline) generate(ctx context.Context, built prompt.Prompt) (*generator.Answer, error) {
	ctx, span := p.tracer.Start(ctx, "rag.generate")
	defer span.End()

	answer, err := p.generator.Generate(ctx, built.System, built.User, generator.Options{
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
		Model:       p.cfg.Model,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	span.SetAttributes(attribute.Int("rag.attempts", answer.Attempts))
	return answer, nil
}

func (p *Pipeline) evaluate(ctx context.Context, in evaluator.Input) evaluator.Result {
	ctx, span := p.tracer.Start(ctx, "rag.evaluate")
	defer span.End()
	return p.evaluator.Evaluate(ctx, in)
}

// Instructions picks the system instructions for a category.
func Instructions(category classifier.Category, hasContext bool) string {
	switch {
	case category == classifier.Conversational:
		return constant.ConversationalInstructionsV1
	case category == classifier.Summarization && hasContext:
		return constant.AnswerInstructionsV1 + "\n\n" + constant.SummarizationInstructionsV1
	case category == classifier.Comparison && hasContext:
		return constant.AnswerInstructionsV1 + "\n\n" + constant.ComparisonInstructionsV1
	default:
		return constant.AnswerInstructionsV1
	}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes]) + "..."
}
