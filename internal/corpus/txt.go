package corpus

import (
	"fmt"
	"io"
	"strings"
)

// Txt is a plain word list.
type Txt struct {
	words []string
}

// ReadTxt splits r on sep (newline when empty), trims whitespace and lower-
// cases every word.
func ReadTxt(r io.Reader, sep string) (*Txt, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading word list: %w", err)
	}
	if sep == "" {
		sep = "\n"
	}
	raw := strings.Split(string(data), sep)
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words = append(words, w)
		}
	}
	return &Txt{words: dedupe(words)}, nil
}

// NewTxt wraps an in-memory word list.
func NewTxt(words []string) *Txt {
	return &Txt{words: dedupe(append([]string(nil), words...))}
}

func (t *Txt) Name() string                   { return FormatTxt }
func (t *Txt) Words() []string                { return t.words }
func (t *Txt) Translation() *TranslationTable { return nil }
