package corpus

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
)

// TranslationTable maps corpus tokens to human-readable labels and back.
// Several tokens may share a label, in which case the reverse direction keeps
// the first token seen.
type TranslationTable struct {
	toLabel map[string]string
	toToken map[string]string
}

func NewTranslationTable() *TranslationTable {
	return &TranslationTable{
		toLabel: make(map[string]string),
		toToken: make(map[string]string),
	}
}

// Add records token -> label. A later label for the same token replaces the
// earlier one.
func (t *TranslationTable) Add(token, label string) {
	t.toLabel[token] = label
	if _, ok := t.toToken[label]; !ok {
		t.toToken[label] = token
	}
}

func (t *TranslationTable) Label(token string) (string, bool) {
	l, ok := t.toLabel[token]
	return l, ok
}

func (t *TranslationTable) Token(label string) (string, bool) {
	tok, ok := t.toToken[label]
	return tok, ok
}

// MustLabel returns the label for token or ErrMissingTranslation.
func (t *TranslationTable) MustLabel(token string) (string, error) {
	l, ok := t.toLabel[token]
	if !ok {
		return "", fmt.Errorf("%w: %q", apperrors.ErrMissingTranslation, token)
	}
	return l, nil
}

func (t *TranslationTable) Len() int {
	return len(t.toLabel)
}
