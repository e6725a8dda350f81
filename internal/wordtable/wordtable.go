// Package wordtable holds the immutable vocabulary used by the decomposition
// search: words partitioned by rune length, a flat membership set, and an
// Aho-Corasick automaton that reports every vocabulary member contained in a
// candidate word in a single pass.
package wordtable

import (
	"fmt"
	"sort"
	"unicode/utf8"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
)

// Table is safe for concurrent readers. It is never mutated after Build.
type Table struct {
	byLength map[int][]string
	members  map[string]struct{}
	lengths  []int
	patterns []string
	ac       ahocorasick.AhoCorasick
}

// Occurrence is one place where a vocabulary member appears inside a word.
type Occurrence struct {
	Word   string
	Offset int // byte offset into the scanned word
	Length int // rune length of Word
}

// Build deduplicates words, drops empty strings and indexes the rest. Words
// are taken as-is: case folding belongs to the corpus loader because some
// alphabets (phonetic codes) are case-sensitive.
func Build(words []string) (*Table, error) {
	t := &Table{
		byLength: make(map[int][]string),
		members:  make(map[string]struct{}, len(words)),
	}
	for _, w := range words {
		if w == "" {
			continue
		}
		if _, seen := t.members[w]; seen {
			continue
		}
		t.members[w] = struct{}{}
		n := utf8.RuneCountInString(w)
		t.byLength[n] = append(t.byLength[n], w)
	}
	if len(t.members) == 0 {
		return nil, fmt.Errorf("%w: word set is empty", apperrors.ErrInvalidCorpus)
	}

	t.lengths = make([]int, 0, len(t.byLength))
	for n, bucket := range t.byLength {
		sort.Strings(bucket)
		t.lengths = append(t.lengths, n)
	}
	sort.Ints(t.lengths)

	t.patterns = make([]string, 0, len(t.members))
	for _, n := range t.lengths {
		t.patterns = append(t.patterns, t.byLength[n]...)
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: false,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.StandardMatch, // IterOverlapping needs StandardMatch
		DFA:                  false,
	})
	t.ac = builder.Build(t.patterns)
	return t, nil
}

// Contains reports whether s is a vocabulary member.
func (t *Table) Contains(s string) bool {
	_, ok := t.members[s]
	return ok
}

// OfLength returns the sorted members of rune length n. The slice is shared
// and must not be modified.
func (t *Table) OfLength(n int) []string {
	return t.byLength[n]
}

// HasLength reports whether any member has rune length n.
func (t *Table) HasLength(n int) bool {
	_, ok := t.byLength[n]
	return ok
}

// Lengths returns the distinct member lengths in ascending order.
func (t *Table) Lengths() []int {
	return t.lengths
}

// MaxLength returns the longest member length.
func (t *Table) MaxLength() int {
	return t.lengths[len(t.lengths)-1]
}

// Len returns the number of distinct members.
func (t *Table) Len() int {
	return len(t.members)
}

// Words returns every member ordered by length, then lexically.
func (t *Table) Words() []string {
	return t.patterns
}

// Occurrences returns every (member, offset) pair where a member occurs in w,
// including overlapping and repeated occurrences. Results are ordered by
// member length, member, then offset, mirroring a length-by-length scan of
// the vocabulary.
func (t *Table) Occurrences(w string) []Occurrence {
	var out []Occurrence
	iter := t.ac.IterOverlapping(w)
	for {
		m := iter.Next()
		if m == nil {
			break
		}
		word := t.patterns[m.Pattern()]
		out = append(out, Occurrence{
			Word:   word,
			Offset: m.Start(),
			Length: utf8.RuneCountInString(word),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Length != out[j].Length {
			return out[i].Length < out[j].Length
		}
		if out[i].Word != out[j].Word {
			return out[i].Word < out[j].Word
		}
		return out[i].Offset < out[j].Offset
	})
	return out
}

// String summarises the table for logs.
func (t *Table) String() string {
	return fmt.Sprintf("wordtable(words=%d lengths=%d..%d)", t.Len(), t.lengths[0], t.MaxLength())
}
