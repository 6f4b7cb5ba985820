// Package structured pulls the first well-formed JSON object out of
// free-form model output (prose, markdown fences, trailing chatter).
package structured

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoObject = errors.New("no JSON object found in model output")

// FirstObject returns the first well-formed JSON object embedded in text.
func FirstObject(text string) (string, bool) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchBrace(text, start); end > 0 {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// Decode unmarshals the first JSON object in text into v.
func Decode(text string, v any) error {
	obj, ok := FirstObject(text)
	if !ok {
		return ErrNoObject
	}
	return json.Unmarshal([]byte(obj), v)
}

// DecodeOr decodes into a fresh T, returning fallback when nothing parses.
func DecodeOr[T any](text string, fallback T) (T, bool) {
	var out T
	if err := Decode(text, &out); err != nil {
		return fallback, false
	}
	return out, true
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
