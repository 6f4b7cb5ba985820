// Package citation turns inline [N] markers into placeholders and resolves
// them against the ordered source list at render time.
package citation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const MaxMarker = 20

var (
	markerPattern      = regexp.MustCompile(`\[(\d{1,2})\]`)
	placeholderPattern = regexp.MustCompile(`\{\{cite:(\d{1,2})\}\}`)
)

func Placeholder(n int) string {
	return fmt.Sprintf("{{cite:%d}}", n)
}

// Rewrite replaces [N] (1 <= N <= 20) with its placeholder. With no sources
// every marker stays literal.
func Rewrite(text string, sourceCount int) string {
	if sourceCount <= 0 {
		return text
	}
	return markerPattern.ReplaceAllStringFunc(text, func(m string) string {
		n, _ := strconv.Atoi(markerPattern.FindStringSubmatch(m)[1])
		if n < 1 || n > MaxMarker {
			return m
		}
		return Placeholder(n)
	})
}

// Markers lists the ordinals of all placeholders in text, in order.
func Markers(text string) []int {
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, _ := strconv.Atoi(m[1])
		out = append(out, n)
	}
	return out
}

type Source struct {
	DocumentID uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	Score      float64   `json:"score"`
	Preview    string    `json:"preview"`
}

type NodeKind string

const (
	KindText     NodeKind = "text"
	KindElement  NodeKind = "element"
	KindCitation NodeKind = "citation"
)

// Node is a renderer-neutral tree: text leaves, elements with children,
// and citation leaves produced by Resolve.
type Node struct {
	Kind     NodeKind          `json:"kind"`
	Tag      string            `json:"tag,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []Node            `json:"children,omitempty"`

	Ordinal int     `json:"ordinal,omitempty"`
	Source  *Source `json:"source,omitempty"`
	Missing bool    `json:"missing,omitempty"`
}

func Text(s string) Node {
	return Node{Kind: KindText, Text: s}
}

func Element(tag string, children ...Node) Node {
	return Node{Kind: KindElement, Tag: tag, Children: children}
}

// Resolve returns a copy of node with every placeholder inside text nodes
// replaced by a citation node. Ordinals beyond len(sources) resolve to a
// Missing citation. The input tree is not modified.
func Resolve(node Node, sources []Source) Node {
	switch node.Kind {
	case KindText:
		parts := splitText(node.Text, sources)
		if len(parts) == 1 {
			return parts[0]
		}
		return Node{Kind: KindElement, Tag: "span", Children: parts}
	case KindElement:
		out := node
		out.Children = make([]Node, 0, len(node.Children))
		for _, child := range node.Children {
			resolved := resolveChild(child, sources)
			out.Children = append(out.Children, resolved...)
		}
		return out
	default:
		return node
	}
}

// resolveChild flattens resolved text children into the parent instead of
// nesting them in a span.
func resolveChild(child Node, sources []Source) []Node {
	if child.Kind == KindText {
		return splitText(child.Text, sources)
	}
	return []Node{Resolve(child, sources)}
}

func splitText(text string, sources []Source) []Node {
	locs := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return []Node{Text(text)}
	}

	var out []Node
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			out = append(out, Text(text[last:loc[0]]))
		}
		n, _ := strconv.Atoi(text[loc[2]:loc[3]])
		out = append(out, citationNode(n, sources))
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, Text(text[last:]))
	}
	return out
}

func citationNode(n int, sources []Source) Node {
	c := Node{Kind: KindCitation, Ordinal: n}
	if n >= 1 && n <= len(sources) {
		src := sources[n-1]
		c.Source = &src
	} else {
		c.Missing = true
	}
	return c
}

// RenderText resolves placeholders in a plain string to "[N: filename]",
// or "[N: no source]" when the ordinal has no source.
func RenderText(text string, sources []Source) string {
	var sb strings.Builder
	for _, n := range splitText(text, sources) {
		switch {
		case n.Kind == KindText:
			sb.WriteString(n.Text)
		case n.Missing:
			sb.WriteString(fmt.Sprintf("[%d: no source]", n.Ordinal))
		default:
			sb.WriteString(fmt.Sprintf("[%d: %s]", n.Ordinal, n.Source.Filename))
		}
	}
	return sb.String()
}
