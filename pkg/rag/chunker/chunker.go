// Package chunker splits document text into overlapping, offset-tracked passages.
package chunker

import (
	"strings"
	"unicode"
)

const (
	DefaultSize    = 1500
	DefaultOverlap = 200
)

type Config struct {
	Size    int // max runes per chunk
	Overlap int // runes shared with the previous chunk
}

// Chunk is a slice of the source text. Start and End are rune offsets, End exclusive.
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

type Chunker struct {
	cfg Config
}

func New(cfg Config) *Chunker {
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.Size {
		cfg.Overlap = cfg.Size / 4
	}
	return &Chunker{cfg: cfg}
}

func (c *Chunker) Config() Config {
	return c.cfg
}

// Iterate returns a lazy iterator over the chunks of text.
// Blank text yields no chunks.
func (c *Chunker) Iterate(text string) *Iterator {
	it := &Iterator{cfg: c.cfg}
	if strings.TrimSpace(text) != "" {
		it.runes = []rune(text)
	}
	return it
}

// Split collects every chunk of text.
func (c *Chunker) Split(text string) []Chunk {
	it := c.Iterate(text)
	var chunks []Chunk
	for {
		ch, ok := it.Next()
		if !ok {
			return chunks
		}
		chunks = append(chunks, ch)
	}
}

type Iterator struct {
	cfg   Config
	runes []rune
	pos   int
	index int
	done  bool
}

func (it *Iterator) Next() (Chunk, bool) {
	if it.done || len(it.runes) == 0 {
		return Chunk{}, false
	}

	total := len(it.runes)
	start := it.pos
	end := start + it.cfg.Size
	if end >= total {
		end = total
		it.done = true
	} else {
		end = it.boundary(start, end)
	}

	ch := Chunk{
		Index: it.index,
		Text:  string(it.runes[start:end]),
		Start: start,
		End:   end,
	}
	it.index++

	next := end - it.cfg.Overlap
	if next <= start {
		next = end
	}
	it.pos = next

	return ch, true
}

// Reset rewinds the iterator to the first chunk.
func (it *Iterator) Reset() {
	it.pos = 0
	it.index = 0
	it.done = false
}

// boundary moves end back to just after the last whitespace in the final
// fifth of the window, if there is one.
func (it *Iterator) boundary(start, end int) int {
	floor := end - it.cfg.Size/5
	if floor <= start {
		floor = start + 1
	}
	for i := end - 1; i >= floor; i-- {
		if unicode.IsSpace(it.runes[i]) {
			return i + 1
		}
	}
	return end
}
