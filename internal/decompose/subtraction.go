package decompose

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/wordtable"
)

// Subtraction decomposes a word into a tree: every valid removal becomes a
// branch whose continuation is the decomposition of the remainder.
type Subtraction struct {
	params Params
}

func NewSubtraction(p Params) *Subtraction {
	return &Subtraction{params: p}
}

func (s *Subtraction) Name() string { return VariantSubtraction }

func (s *Subtraction) Signature() string {
	return signature(VariantSubtraction, s.params, fmt.Sprintf("depth=%d", s.params.MaxDepth))
}

func (s *Subtraction) NewSearcher(table *wordtable.Table) Searcher {
	return &subtractionSearcher{
		params: s.params,
		table:  table,
		memo:   make(map[memoKey]Result),
	}
}

// memoKey includes the remaining depth budget: a word reached near the depth
// cap has a shallower tree than the same word searched as a root.
type memoKey struct {
	word   string
	budget int
}

type subtractionSearcher struct {
	params Params
	table  *wordtable.Table
	memo   map[memoKey]Result
}

func (s *subtractionSearcher) Search(ctx context.Context, word string) (Result, error) {
	return s.search(ctx, word, 0)
}

func (s *subtractionSearcher) search(ctx context.Context, word string, depth int) (Result, error) {
	key := memoKey{word: word, budget: -1}
	if s.params.MaxDepth > 0 {
		key.budget = s.params.MaxDepth - depth
	}
	if cached, ok := s.memo[key]; ok {
		return cached, nil
	}

	p := s.params
	maxSub := runeLen(word) - p.MinClippedWordLen
	var out Result
	if maxSub >= p.MinTestWordLen {
		var err error
		out, err = s.expand(ctx, word, depth, maxSub)
		if err != nil {
			return nil, err
		}
	}

	if p.MemoLimit > 0 && len(s.memo) >= p.MemoLimit {
		clear(s.memo)
	}
	s.memo[key] = out
	return out, nil
}

func (s *subtractionSearcher) expand(ctx context.Context, word string, depth, maxSub int) (Result, error) {
	p := s.params
	var out Result
	seen := make(map[Triple]struct{})
	lastLen := 0
	for _, occ := range s.table.Occurrences(word) {
		if occ.Length < p.MinTestWordLen || occ.Length > maxSub {
			continue
		}
		if occ.Length != lastLen {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			lastLen = occ.Length
		}
		if p.InternalOnly && isAffix(word, occ.Word) {
			continue
		}
		remainder := remove(word, occ.Offset, len(occ.Word))
		if runeLen(remainder) < p.MinClippedWordLen || remainder == word {
			continue
		}
		if !s.table.Contains(remainder) {
			continue
		}
		edge := Triple{Source: word, Label: occ.Word, Target: remainder}
		if _, dup := seen[edge]; dup {
			continue
		}
		seen[edge] = struct{}{}

		node := Node{Edge: edge}
		if p.MaxDepth == 0 || depth < p.MaxDepth {
			next, err := s.search(ctx, remainder, depth+1)
			if err != nil {
				return nil, err
			}
			node.Next = next
		}
		out = append(out, node)
	}
	return out, nil
}
