package decompose

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/wordtable"
)

func table(t *testing.T, words ...string) *wordtable.Table {
	t.Helper()
	tbl, err := wordtable.Build(words)
	require.NoError(t, err)
	return tbl
}

func search(t *testing.T, p Policy, tbl *wordtable.Table, word string) Result {
	t.Helper()
	res, err := p.NewSearcher(tbl).Search(context.Background(), word)
	require.NoError(t, err)
	return res
}

func leaf(s, l, d string) Node {
	return Node{Edge: Triple{Source: s, Label: l, Target: d}}
}

func branch(s, l, d string, next ...Node) Node {
	return Node{Edge: Triple{Source: s, Label: l, Target: d}, Next: next}
}

func TestSubtractionStarting(t *testing.T) {
	tbl := table(t, "starting", "art", "sting", "in")
	p := NewSubtraction(Params{MinTestWordLen: 2, MinClippedWordLen: 3, InternalOnly: true})

	got := search(t, p, tbl, "starting")
	assert.Equal(t, Result{leaf("starting", "art", "sting")}, got)
	assert.Equal(t, "starting", got.Root())
}

func TestSubtractionClippedBoundIsInclusive(t *testing.T) {
	p := NewSubtraction(Params{MinTestWordLen: 2, MinClippedWordLen: 3})

	got := search(t, p, table(t, "abcdef", "abc", "def"), "abcdef")
	assert.Equal(t, Result{
		leaf("abcdef", "abc", "def"),
		leaf("abcdef", "def", "abc"),
	}, got)

	// Remainders of length 2 are members but still fall below the bound.
	tbl := table(t, "abcd", "ab", "cd")
	assert.Empty(t, search(t, p, tbl, "abcd"))

	loose := NewSubtraction(Params{MinTestWordLen: 2, MinClippedWordLen: 2})
	assert.Len(t, search(t, loose, tbl, "abcd"), 2)
}

func TestSubtractionInternalOnly(t *testing.T) {
	tbl := table(t, "abcdef", "abc", "def")
	p := NewSubtraction(Params{MinTestWordLen: 2, MinClippedWordLen: 3, InternalOnly: true})
	assert.Empty(t, search(t, p, tbl, "abcdef"))
}

func TestSubtractionMaxDepth(t *testing.T) {
	tbl := table(t, "abcdefgh", "cd", "abefgh", "ef", "abgh", "bg", "ah")
	params := Params{MinTestWordLen: 2, MinClippedWordLen: 2}

	full := Result{
		branch("abcdefgh", "cd", "abefgh",
			branch("abefgh", "ef", "abgh",
				leaf("abgh", "bg", "ah"))),
	}
	assert.Equal(t, full, search(t, NewSubtraction(params), tbl, "abcdefgh"))

	params.MaxDepth = 1
	assert.Equal(t, Result{
		branch("abcdefgh", "cd", "abefgh",
			leaf("abefgh", "ef", "abgh")),
	}, search(t, NewSubtraction(params), tbl, "abcdefgh"))

	params.MaxDepth = 2
	assert.Equal(t, full, search(t, NewSubtraction(params), tbl, "abcdefgh"))
}

func TestSubtractionRepeatedSubword(t *testing.T) {
	p := NewSubtraction(Params{MinTestWordLen: 2, MinClippedWordLen: 3})

	got := search(t, p, table(t, "abxab", "ab", "xab", "abx"), "abxab")
	assert.Equal(t, Result{
		leaf("abxab", "ab", "xab"),
		leaf("abxab", "ab", "abx"),
	}, got)

	got = search(t, p, table(t, "ababc", "ab", "abc"), "ababc")
	assert.Equal(t, Result{leaf("ababc", "ab", "abc")}, got)
}

func TestSubtractionMemoIsTransparent(t *testing.T) {
	tbl := table(t, "abcdefgh", "cd", "abefgh", "ef", "abgh", "bg", "ah")
	for _, limit := range []int{0, 1, 2} {
		p := NewSubtraction(Params{MinTestWordLen: 2, MinClippedWordLen: 2, MemoLimit: limit})
		s := p.NewSearcher(tbl)
		ctx := context.Background()

		inner, err := s.Search(ctx, "abefgh")
		require.NoError(t, err)
		outer, err := s.Search(ctx, "abcdefgh")
		require.NoError(t, err)
		again, err := s.Search(ctx, "abcdefgh")
		require.NoError(t, err)

		assert.Equal(t, outer, again)
		require.Len(t, outer, 1)
		assert.Equal(t, inner, outer[0].Next)
	}
}

func TestSubtractionCancelled(t *testing.T) {
	tbl := table(t, "starting", "art", "sting", "in")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewSubtraction(Params{MinTestWordLen: 2, MinClippedWordLen: 3})
	_, err := p.NewSearcher(tbl).Search(ctx, "starting")
	assert.ErrorIs(t, err, context.Canceled)
}

var propertyWords = []string{
	"starting", "start", "tart", "art", "sting", "sing", "string", "ring",
	"in", "tin", "stat", "strain", "rain", "train", "ran", "an", "at",
	"st", "ing", "tarts", "tartan", "tan", "ratting", "rating", "rat",
}

func TestTriplesHonourPolicy(t *testing.T) {
	tbl := table(t, propertyWords...)
	policies := []struct {
		name   string
		policy Policy
		params Params
		strict bool
	}{
		{"subtraction", NewSubtraction(Params{MinTestWordLen: 2, MinClippedWordLen: 3, InternalOnly: true}), Params{MinTestWordLen: 2, MinClippedWordLen: 3, InternalOnly: true}, false},
		{"subtraction-loose", NewSubtraction(Params{MinTestWordLen: 2, MinClippedWordLen: 2}), Params{MinTestWordLen: 2, MinClippedWordLen: 2}, false},
		{"graph", NewSubtractionAndReplacement(Params{MinTestWordLen: 2, MinClippedWordLen: 2}, GraphOptions{Subtractions: true}), Params{MinTestWordLen: 2, MinClippedWordLen: 2}, true},
	}

	for _, tc := range policies {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.policy.NewSearcher(tbl)
			total := 0
			for _, w := range propertyWords {
				res, err := s.Search(context.Background(), w)
				require.NoError(t, err)
				assert.True(t, len(res) == 0 || res.Root() == w)
				for _, tr := range res.Triples() {
					total++
					assert.True(t, tbl.Contains(tr.Source), tr)
					assert.True(t, tbl.Contains(tr.Label), tr)
					assert.True(t, tbl.Contains(tr.Target), tr)
					assert.NotEqual(t, tr.Source, tr.Target)
					assert.GreaterOrEqual(t, runeLen(tr.Label), tc.params.MinTestWordLen)
					if tc.strict {
						assert.Greater(t, runeLen(tr.Target), tc.params.MinClippedWordLen, tr)
					} else {
						assert.GreaterOrEqual(t, runeLen(tr.Target), tc.params.MinClippedWordLen, tr)
					}
					if tc.params.InternalOnly {
						assert.False(t, isAffix(tr.Source, tr.Label), tr)
					}
					assert.True(t, removable(tr.Source, tr.Label, tr.Target), tr)
				}
			}
			assert.Positive(t, total)
		})
	}
}

func removable(source, label, target string) bool {
	for i := 0; ; {
		j := strings.Index(source[i:], label)
		if j < 0 {
			return false
		}
		if remove(source, i+j, len(label)) == target {
			return true
		}
		i += j + 1
	}
}

func TestGraphReplacement(t *testing.T) {
	tbl := table(t, "cats", "cat", "dog", "dogs")
	p := NewSubtractionAndReplacement(Params{MinTestWordLen: 2, MinClippedWordLen: 3}, GraphOptions{Replacements: true})

	got := search(t, p, tbl, "cats")
	assert.Equal(t, Result{leaf("cats", "cat→dog", "dogs")}, got)

	sub, repl, ok := SplitLabel(got[0].Edge.Label)
	assert.True(t, ok)
	assert.Equal(t, "cat", sub)
	assert.Equal(t, "dog", repl)
}

func TestGraphClippedBoundIsStrict(t *testing.T) {
	tbl := table(t, "abcdef", "ab", "abc", "def", "cdef")
	p := NewSubtractionAndReplacement(Params{MinTestWordLen: 2, MinClippedWordLen: 3}, GraphOptions{Subtractions: true})

	assert.Equal(t, Result{leaf("abcdef", "ab", "cdef")}, search(t, p, tbl, "abcdef"))
}

func TestGraphToggles(t *testing.T) {
	tbl := table(t, "cats", "cat", "dog", "dogs", "ats", "at", "cs")
	params := Params{MinTestWordLen: 2, MinClippedWordLen: 1}

	none := NewSubtractionAndReplacement(params, GraphOptions{})
	assert.Empty(t, search(t, none, tbl, "cats"))

	subOnly := search(t, NewSubtractionAndReplacement(params, GraphOptions{Subtractions: true}), tbl, "cats")
	assert.Equal(t, Result{leaf("cats", "at", "cs")}, subOnly)

	both := search(t, NewSubtractionAndReplacement(params, GraphOptions{Subtractions: true, Replacements: true}), tbl, "cats")
	assert.Equal(t, Result{
		leaf("cats", "at", "cs"),
		leaf("cats", "ats→at", "cat"),
		leaf("cats", "cat→at", "ats"),
		leaf("cats", "cat→dog", "dogs"),
	}, both)
}

func TestNew(t *testing.T) {
	p, err := New(VariantSubtraction, Params{MinTestWordLen: 2, MinClippedWordLen: 3}, GraphOptions{})
	require.NoError(t, err)
	assert.Equal(t, VariantSubtraction, p.Name())

	g, err := New(VariantGraph, Params{MinTestWordLen: 2, MinClippedWordLen: 3}, GraphOptions{Subtractions: true})
	require.NoError(t, err)
	assert.Equal(t, VariantGraph, g.Name())
	assert.NotEqual(t, p.Signature(), g.Signature())

	_, err = New("fractal", Params{}, GraphOptions{})
	assert.Error(t, err)
}

func TestSignatureTracksParams(t *testing.T) {
	base := Params{MinTestWordLen: 2, MinClippedWordLen: 3, InternalOnly: true}
	sig := NewSubtraction(base).Signature()
	assert.Equal(t, sig, NewSubtraction(base).Signature())

	deeper := base
	deeper.MaxDepth = 4
	assert.NotEqual(t, sig, NewSubtraction(deeper).Signature())

	// The memo bound changes speed, never results.
	memo := base
	memo.MemoLimit = 10
	assert.Equal(t, sig, NewSubtraction(memo).Signature())

	g1 := NewSubtractionAndReplacement(base, GraphOptions{Subtractions: true}).Signature()
	g2 := NewSubtractionAndReplacement(base, GraphOptions{Subtractions: true, Replacements: true}).Signature()
	assert.NotEqual(t, g1, g2)
}

func TestResultWalkAndTriples(t *testing.T) {
	r := Result{
		branch("abcd", "b", "acd", leaf("acd", "c", "ad")),
		branch("abcd", "c", "abd", leaf("abd", "b", "ad")),
		branch("abcd", "b", "acd", leaf("acd", "c", "ad")),
	}
	assert.Len(t, r.Triples(), 4)

	visited := 0
	completed := r.Walk(func(Triple) bool {
		visited++
		return visited < 3
	})
	assert.False(t, completed)
	assert.Equal(t, 3, visited)
	assert.Equal(t, "", Result(nil).Root())
}

func TestResultTranslate(t *testing.T) {
	labels := map[string]string{"K": "k", "AE": "a", "T": "t", "KAET": "cat", "D": "d", "KAED": "cad"}
	lookup := func(s string) (string, bool) {
		v, ok := labels[s]
		return v, ok
	}

	r := Result{leaf("KAET", ReplacementLabel("T", "D"), "KAED")}
	got, missing, ok := r.Translate(lookup)
	require.True(t, ok)
	assert.Empty(t, missing)
	assert.Equal(t, Result{leaf("cat", "t→d", "cad")}, got)

	_, missing, ok = Result{branch("KAET", "AE", "KT", leaf("KT", "K", "T"))}.Translate(lookup)
	assert.False(t, ok)
	assert.Equal(t, "KT", missing)
}
