// Package decompose implements the decomposition search: given one root word
// and the immutable word table, find every corpus member whose removal (or
// replacement) leaves another corpus member.
//
// Two policies share one interface. Subtraction builds a tree by recursing
// into every remainder; SubtractionAndReplacement builds a single level of
// graph edges and leaves multi-hop structure to the result store.
package decompose

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/wordtable"
)

const (
	VariantSubtraction = "subtraction"
	VariantGraph       = "graph"
)

// Params are the knobs shared by both policies.
type Params struct {
	MinTestWordLen    int
	MinClippedWordLen int
	InternalOnly      bool
	MaxDepth          int // subtraction only; 0 means unbounded
	MemoLimit         int // subtraction only; 0 means unbounded
}

// Policy selects how a root word is decomposed.
type Policy interface {
	Name() string
	// Signature identifies every parameter that affects results, so stores
	// produced under different settings can be told apart.
	Signature() string
	// NewSearcher binds the policy to a table. Each worker owns one searcher.
	NewSearcher(table *wordtable.Table) Searcher
}

// Searcher decomposes one word at a time. Implementations are not safe for
// concurrent use; they may memoise between calls.
type Searcher interface {
	Search(ctx context.Context, word string) (Result, error)
}

// GraphOptions toggles the two edge kinds of the graph policy.
type GraphOptions struct {
	Subtractions bool
	Replacements bool
}

// New returns the policy named by variant.
func New(variant string, p Params, g GraphOptions) (Policy, error) {
	switch variant {
	case VariantSubtraction:
		return NewSubtraction(p), nil
	case VariantGraph:
		return NewSubtractionAndReplacement(p, g), nil
	default:
		return nil, fmt.Errorf("unknown decomposition variant %q", variant)
	}
}

func signature(name string, p Params, extra ...string) string {
	parts := []string{
		name,
		fmt.Sprintf("test=%d", p.MinTestWordLen),
		fmt.Sprintf("clipped=%d", p.MinClippedWordLen),
		fmt.Sprintf("internal=%t", p.InternalOnly),
	}
	parts = append(parts, extra...)
	return strings.Join(parts, ";")
}

// isAffix reports whether sub is a prefix or suffix of word.
func isAffix(word, sub string) bool {
	return strings.HasPrefix(word, sub) || strings.HasSuffix(word, sub)
}

// remove cuts the n bytes at offset from word.
func remove(word string, offset, n int) string {
	return word[:offset] + word[offset+n:]
}

// replaceAt swaps the n bytes at offset for repl.
func replaceAt(word string, offset, n int, repl string) string {
	var b strings.Builder
	b.Grow(len(word) - n + len(repl))
	b.WriteString(word[:offset])
	b.WriteString(repl)
	b.WriteString(word[offset+n:])
	return b.String()
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
