// Package benchmark measures the hot paths of a search run: table
// construction, single-word search under both policies, full driver runs and
// snapshot persistence.
//
// Run with:
//
//	go test -bench=. -benchmem ./test/benchmark/...
package benchmark

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/wordtable"
)

var syllables = []string{
	"st", "ar", "t", "in", "g", "ra", "an", "at", "s", "tr",
	"ai", "n", "ing", "er", "re", "on", "a", "e", "o", "l",
}

// syntheticCorpus builds n words from a fixed syllable set so many short
// words occur inside longer ones. The same seed always yields the same words.
func syntheticCorpus(n int) []string {
	rng := rand.New(rand.NewPCG(42, 7))
	seen := make(map[string]struct{}, n)
	words := make([]string, 0, n)
	for len(words) < n {
		var b strings.Builder
		parts := 1 + rng.IntN(5)
		for i := 0; i < parts; i++ {
			b.WriteString(syllables[rng.IntN(len(syllables))])
		}
		w := b.String()
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

func buildTable(b *testing.B, n int) *wordtable.Table {
	b.Helper()
	tbl, err := wordtable.Build(syntheticCorpus(n))
	if err != nil {
		b.Fatal(err)
	}
	return tbl
}

// longest returns the k longest words of the table.
func longest(tbl *wordtable.Table, k int) []string {
	words := tbl.Words()
	if len(words) > k {
		words = words[len(words)-k:]
	}
	return words
}
