// Package classifier decides what kind of answer a query needs.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"ai-docqa-be/internal/constant"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/llm/structured"
	"ai-docqa-be/pkg/rag/prompt"
)

type Category string

const (
	Conversational   Category = "conversational"
	KnowledgeSeeking Category = "knowledge_seeking"
	Summarization    Category = "summarization"
	Comparison       Category = "comparison"
)

// Fallback is used whenever classification fails; retrieving is the safer default.
const Fallback = KnowledgeSeeking

func Parse(s string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case Conversational, KnowledgeSeeking, Summarization, Comparison:
		return c, true
	}
	return "", false
}

// NeedsRetrieval reports whether answering requires document context.
func (c Category) NeedsRetrieval() bool {
	return c != Conversational
}

type Result struct {
	Category Category
	Reason   string
	Fallback bool
}

type Classifier struct {
	llm    llm.LLMProvider
	model  string
	logger logger.ILogger
}

func New(provider llm.LLMProvider, model string, log logger.ILogger) *Classifier {
	return &Classifier{llm: provider, model: model, logger: log}
}

type verdict struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// Classify runs once per query. It never returns an error: any failure
// yields the fallback category.
func (c *Classifier) Classify(ctx context.Context, query string, history []llm.Message) Result {
	if strings.TrimSpace(query) == "" {
		return Result{Category: Conversational, Reason: "empty query"}
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: constant.InstructionAnchor},
		{Role: llm.RoleUser, Content: fmt.Sprintf(constant.QueryClassificationPrompt, historyString(history), prompt.WrapUserInput(query))},
	}
	opts := []llm.Option{llm.WithTemperature(0.1), llm.WithMaxTokens(150), llm.WithJSON()}
	if c.model != "" {
		opts = append(opts, llm.WithModel(c.model))
	}

	resp, err := c.llm.Chat(ctx, messages, opts...)
	if err != nil {
		c.logger.Warn("CLASSIFIER", "Classification failed, defaulting to retrieval", map[string]interface{}{"error": err.Error()})
		return Result{Category: Fallback, Reason: "classification failed", Fallback: true}
	}

	v, ok := structured.DecodeOr(resp.Text, verdict{})
	category, valid := Parse(v.Category)
	if !ok || !valid {
		c.logger.Warn("CLASSIFIER", "Unparseable classification, defaulting to retrieval", map[string]interface{}{"raw": truncate(resp.Text, 200)})
		return Result{Category: Fallback, Reason: "parse failed", Fallback: true}
	}

	return Result{Category: category, Reason: v.Reason}
}

// historyString renders recent turns for the classification prompt.
func historyString(history []llm.Message) string {
	if len(history) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, msg := range history {
		// Truncate long messages for prompt efficiency
		content := truncate(msg.Content, 200)
		if msg.Role == llm.RoleAssistant {
			sb.WriteString(prompt.WrapAssistantTurn(content))
		} else {
			sb.WriteString(prompt.WrapUserInput(content))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
