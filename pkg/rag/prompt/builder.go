// Package prompt assembles generation prompts. All untrusted text (documents,
// queries, history) is wrapped in tagged delimiters before interpolation and
// the system prompt always ends with constant.InstructionAnchor.
package prompt

import (
	"fmt"
	"strings"

	"ai-docqa-be/internal/constant"
	"ai-docqa-be/pkg/llm"
)

var sourceEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"<", "&lt;",
	">", "&gt;",
)

func WrapUserInput(s string) string {
	return "<user_input>\n" + s + "\n</user_input>"
}

// WrapDocumentContext escapes source for the attribute; content is kept verbatim.
func WrapDocumentContext(content, source string) string {
	return "<document source=\"" + sourceEscaper.Replace(source) + "\">\n" + content + "\n</document>"
}

func WrapAssistantTurn(s string) string {
	return "<assistant_turn>\n" + s + "\n</assistant_turn>"
}

type Context struct {
	Source  string
	Content string
}

type Input struct {
	Instructions string
	Contexts     []Context
	Query        string
	History      []llm.Message
}

type Prompt struct {
	System string
	User   string
}

// Messages renders the prompt as a two-message chat.
func (p Prompt) Messages() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: p.System},
		{Role: llm.RoleUser, Content: p.User},
	}
}

func Build(in Input) Prompt {
	var system strings.Builder
	if in.Instructions != "" {
		system.WriteString(in.Instructions)
		system.WriteString("\n\n")
	}
	system.WriteString(constant.InstructionAnchor)

	var user strings.Builder
	writeReferenceMaterial(&user, in.Contexts)
	writeHistory(&user, in.History)
	writeUserQuery(&user, in.Query)

	return Prompt{System: system.String(), User: user.String()}
}

func writeReferenceMaterial(sb *strings.Builder, contexts []Context) {
	if len(contexts) == 0 {
		return
	}
	sb.WriteString("<reference_material>\n")
	for i, c := range contexts {
		sb.WriteString(fmt.Sprintf("[%d]\n", i+1))
		sb.WriteString(WrapDocumentContext(c.Content, c.Source))
		sb.WriteString("\n")
	}
	sb.WriteString("</reference_material>\n\n")
}

func writeHistory(sb *strings.Builder, history []llm.Message) {
	if len(history) == 0 {
		return
	}
	sb.WriteString("<conversation_history>\n")
	for _, msg := range history {
		switch msg.Role {
		case llm.RoleSystem:
			continue
		case llm.RoleAssistant, "model":
			sb.WriteString(WrapAssistantTurn(msg.Content))
		default:
			sb.WriteString(WrapUserInput(msg.Content))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("</conversation_history>\n\n")
}

func writeUserQuery(sb *strings.Builder, query string) {
	sb.WriteString("Question:\n")
	sb.WriteString(WrapUserInput(query))
}
