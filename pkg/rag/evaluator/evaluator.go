// Package evaluator grades a generated answer for faithfulness, relevance and
// completeness with three independent grading calls.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ai-docqa-be/internal/constant"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/llm/structured"
	"ai-docqa-be/pkg/rag/classifier"
	"ai-docqa-be/pkg/rag/prompt"

	"golang.org/x/sync/errgroup"
)

const (
	WeightFaithfulness = 0.40
	WeightRelevance    = 0.35
	WeightCompleteness = 0.25

	IssueEvaluationFailed = "evaluation failed"
)

type CheckResult struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

type Result struct {
	Overall      float64     `json:"overall"`
	Faithfulness CheckResult `json:"faithfulness"`
	Relevance    CheckResult `json:"relevance"`
	Completeness CheckResult `json:"completeness"`
	Skipped      bool        `json:"skipped"`
}

// Issues flattens the issues of all three checks.
func (r Result) Issues() []string {
	out := make([]string, 0, len(r.Faithfulness.Issues)+len(r.Relevance.Issues)+len(r.Completeness.Issues))
	out = append(out, r.Faithfulness.Issues...)
	out = append(out, r.Relevance.Issues...)
	return append(out, r.Completeness.Issues...)
}

func Overall(faithfulness, relevance, completeness float64) float64 {
	return faithfulness*WeightFaithfulness + relevance*WeightRelevance + completeness*WeightCompleteness
}

// Perfect is returned when there is nothing to grade against.
func Perfect() Result {
	perfect := CheckResult{Score: 1, Issues: []string{}}
	return Result{Overall: 1, Faithfulness: perfect, Relevance: perfect, Completeness: perfect, Skipped: true}
}

func failed() CheckResult {
	return CheckResult{Score: 0, Issues: []string{IssueEvaluationFailed}}
}

type Input struct {
	Category classifier.Category
	Query    string
	Answer   string
	Contexts []prompt.Context
}

type Evaluator struct {
	llm    llm.LLMProvider
	model  string
	logger logger.ILogger
}

func New(grader llm.LLMProvider, model string, log logger.ILogger) *Evaluator {
	return &Evaluator{llm: grader, model: model, logger: log}
}

// Evaluate never fails. Conversational queries and answers without contexts
// are skipped; a failing check scores 0 without affecting its siblings.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) Result {
	if in.Category == classifier.Conversational || len(in.Contexts) == 0 {
		return Perfect()
	}

	sources := renderSources(in.Contexts)
	answer := prompt.WrapAssistantTurn(in.Answer)
	query := prompt.WrapUserInput(in.Query)

	var res Result
	checks := []struct {
		name   string
		prompt string
		out    *CheckResult
	}{
		{"faithfulness", fmt.Sprintf(constant.FaithfulnessPrompt, sources, answer), &res.Faithfulness},
		{"relevance", fmt.Sprintf(constant.RelevancePrompt, query, answer), &res.Relevance},
		{"completeness", fmt.Sprintf(constant.CompletenessPrompt, query, sources, answer), &res.Completeness},
	}

	// tasks never return an error, so no check can cancel another
	var g errgroup.Group
	for _, check := range checks {
		g.Go(func() error {
			*check.out = e.runCheck(ctx, check.name, check.prompt)
			return nil
		})
	}
	_ = g.Wait()

	res.Overall = Overall(res.Faithfulness.Score, res.Relevance.Score, res.Completeness.Score)
	return res
}

func (e *Evaluator) runCheck(ctx context.Context, name, checkPrompt string) (result CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("EVALUATOR", "Check panicked", map[string]interface{}{"check": name, "panic": fmt.Sprint(r)})
			result = failed()
		}
	}()

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: constant.InstructionAnchor},
		{Role: llm.RoleUser, Content: checkPrompt},
	}
	opts := []llm.Option{llm.WithTemperature(0), llm.WithMaxTokens(300), llm.WithJSON()}
	if e.model != "" {
		opts = append(opts, llm.WithModel(e.model))
	}

	resp, err := e.llm.Chat(ctx, messages, opts...)
	if err != nil {
		e.logger.Warn("EVALUATOR", "Grading call failed", map[string]interface{}{"check": name, "error": err.Error()})
		return failed()
	}

	parsed, ok := ParseCheck(resp.Text)
	if !ok {
		e.logger.Warn("EVALUATOR", "Unparseable grade", map[string]interface{}{"check": name})
		return failed()
	}
	return parsed
}

// ParseCheck reads the first JSON object of a grader reply. The score may be
// a number or a numeric string and is clamped to [0,1]. Issues that are not
// an array, and non-string entries inside one, are dropped.
func ParseCheck(text string) (CheckResult, bool) {
	var raw struct {
		Score  json.RawMessage `json:"score"`
		Issues json.RawMessage `json:"issues"`
	}
	if err := structured.Decode(text, &raw); err != nil {
		return CheckResult{}, false
	}
	score, ok := parseScore(raw.Score)
	if !ok {
		return CheckResult{}, false
	}

	var entries []any
	if err := json.Unmarshal(raw.Issues, &entries); err != nil {
		entries = nil
	}
	issues := make([]string, 0, len(entries))
	for _, issue := range entries {
		if s, ok := issue.(string); ok && strings.TrimSpace(s) != "" {
			issues = append(issues, s)
		}
	}

	return CheckResult{Score: math.Max(0, math.Min(1, score)), Issues: issues}, true
}

func parseScore(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		if n, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func renderSources(contexts []prompt.Context) string {
	var sb strings.Builder
	for i, c := range contexts {
		sb.WriteString(fmt.Sprintf("[%d]\n", i+1))
		sb.WriteString(prompt.WrapDocumentContext(c.Content, c.Source))
		sb.WriteString("\n")
	}
	return sb.String()
}
