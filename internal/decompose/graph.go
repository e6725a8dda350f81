package decompose

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/wordtable"
)

// SubtractionAndReplacement emits one level of edges per word: removals that
// leave a member, and substitutions of a contained member by any other member
// that yield a member. Multi-hop structure comes from following edges through
// the result store.
type SubtractionAndReplacement struct {
	params Params
	opts   GraphOptions
}

func NewSubtractionAndReplacement(p Params, opts GraphOptions) *SubtractionAndReplacement {
	return &SubtractionAndReplacement{params: p, opts: opts}
}

func (g *SubtractionAndReplacement) Name() string { return VariantGraph }

func (g *SubtractionAndReplacement) Signature() string {
	return signature(VariantGraph, g.params,
		fmt.Sprintf("sub=%t", g.opts.Subtractions),
		fmt.Sprintf("repl=%t", g.opts.Replacements),
	)
}

func (g *SubtractionAndReplacement) NewSearcher(table *wordtable.Table) Searcher {
	return &graphSearcher{params: g.params, opts: g.opts, table: table}
}

type graphSearcher struct {
	params Params
	opts   GraphOptions
	table  *wordtable.Table
}

func (s *graphSearcher) Search(ctx context.Context, word string) (Result, error) {
	p := s.params
	wordLen := runeLen(word)
	var out Result
	seen := make(map[Triple]struct{})
	emit := func(t Triple) {
		if t.Target == t.Source {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, Node{Edge: t})
	}

	for _, occ := range s.table.Occurrences(word) {
		if occ.Length < p.MinTestWordLen || occ.Length >= wordLen {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.InternalOnly && isAffix(word, occ.Word) {
			continue
		}

		if s.opts.Subtractions {
			clipped := remove(word, occ.Offset, len(occ.Word))
			if runeLen(clipped) > p.MinClippedWordLen && s.table.Contains(clipped) {
				emit(Triple{Source: word, Label: occ.Word, Target: clipped})
			}
		}

		if s.opts.Replacements {
			if err := s.replace(ctx, word, wordLen, occ, emit); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// replace only visits length buckets whose substitution result could be a
// member, so each candidate costs one string build and one lookup.
func (s *graphSearcher) replace(ctx context.Context, word string, wordLen int, occ wordtable.Occurrence, emit func(Triple)) error {
	base := wordLen - occ.Length
	for _, n := range s.table.Lengths() {
		if !s.table.HasLength(base + n) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, repl := range s.table.OfLength(n) {
			if repl == occ.Word {
				continue
			}
			replaced := replaceAt(word, occ.Offset, len(occ.Word), repl)
			if s.table.Contains(replaced) {
				emit(Triple{Source: word, Label: ReplacementLabel(occ.Word, repl), Target: replaced})
			}
		}
	}
	return nil
}
