package driver

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/wordtable"
	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/metrics"
)

var words = []string{
	"starting", "start", "tart", "art", "sting", "sing", "string", "ring",
	"in", "tin", "stat", "strain", "rain", "train", "ran", "an", "at",
	"st", "ing", "tarts", "tartan", "tan", "ratting", "rating", "rat",
	"strait", "trait", "stain", "satin", "tint", "tint", "tat",
}

var params = decompose.Params{MinTestWordLen: 2, MinClippedWordLen: 2}

func testTable(t *testing.T, ws []string) *wordtable.Table {
	t.Helper()
	tbl, err := wordtable.Build(ws)
	require.NoError(t, err)
	return tbl
}

// expected runs the policy sequentially over every eligible word.
func expected(t *testing.T, tbl *wordtable.Table, p decompose.Policy, minInclude int) []store.Entry {
	t.Helper()
	s := store.New(p.Signature())
	searcher := p.NewSearcher(tbl)
	for _, w := range tbl.Words() {
		if len([]rune(w)) < minInclude {
			continue
		}
		r, err := searcher.Search(context.Background(), w)
		require.NoError(t, err)
		if len(r) > 0 {
			require.NoError(t, s.Put(w, r))
		}
	}
	return s.All()
}

// faultPolicy wraps the subtraction policy and misbehaves on chosen words.
type faultPolicy struct {
	inner   decompose.Policy
	panicOn string
	slowOn  string
	delay   time.Duration
}

func (f *faultPolicy) Name() string      { return "fault" }
func (f *faultPolicy) Signature() string { return f.inner.Signature() }

func (f *faultPolicy) NewSearcher(tbl *wordtable.Table) decompose.Searcher {
	return &faultSearcher{policy: f, inner: f.inner.NewSearcher(tbl)}
}

type faultSearcher struct {
	policy *faultPolicy
	inner  decompose.Searcher
}

func (s *faultSearcher) Search(ctx context.Context, w string) (decompose.Result, error) {
	switch {
	case w == s.policy.panicOn:
		panic("boom")
	case w == s.policy.slowOn:
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.policy.delay > 0 {
		time.Sleep(s.policy.delay)
	}
	return s.inner.Search(ctx, w)
}

func TestEligible(t *testing.T) {
	tbl := testTable(t, words)
	st := store.New("sig")
	require.NoError(t, st.Put("strain", nil))

	d := New(tbl, decompose.NewSubtraction(params), st, Options{MinIncludeWordLen: 6})
	got, skipped := d.Eligible()
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []string{"rating", "strait", "string", "tartan", "ratting", "starting"}, got)
}

func TestRunPopulatesStore(t *testing.T) {
	tbl := testTable(t, words)
	p := decompose.NewSubtraction(params)
	want := expected(t, tbl, p, 4)
	require.NotEmpty(t, want)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	var hits atomic.Int32
	st := store.New(p.Signature())
	d := New(tbl, p, st, Options{
		MinIncludeWordLen: 4,
		PoolSize:          4,
		ChunkSize:         3,
		OnHit:             func(string, decompose.Result) { hits.Add(1) },
		Metrics:           m,
	})

	progress, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, st.All())
	assert.Equal(t, len(want), progress.Hits)
	assert.Equal(t, progress.Eligible, progress.Processed)
	assert.Zero(t, progress.FailedChunks)
	assert.Equal(t, int32(len(want)), hits.Load())

	assert.Equal(t, float64(progress.Processed), testutil.ToFloat64(m.WordsProcessedTotal))
	assert.Equal(t, float64(len(want)), testutil.ToFloat64(m.StoreEntries))
}

func TestRunIsResumable(t *testing.T) {
	tbl := testTable(t, words)
	p := decompose.NewSubtraction(params)
	st := store.New(p.Signature())
	opts := Options{MinIncludeWordLen: 4, PoolSize: 2, ChunkSize: 2}

	first, err := New(tbl, p, st, opts).Run(context.Background())
	require.NoError(t, err)
	before := st.All()

	second, err := New(tbl, p, st, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Hits, second.Skipped)
	assert.Zero(t, second.Hits)
	assert.Equal(t, first.Eligible-first.Hits, second.Eligible)
	assert.Equal(t, before, st.All())
}

func TestRunCancelledThenResumed(t *testing.T) {
	tbl := testTable(t, words)
	p := decompose.NewSubtraction(params)
	want := expected(t, tbl, p, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st := store.New(p.Signature())
	progress, err := New(tbl, p, st, Options{
		MinIncludeWordLen: 3,
		PoolSize:          1,
		ChunkSize:         1,
		OnProgress:        func(Progress) { cancel() },
	}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, progress.Processed, progress.Eligible)

	// Whatever was stored is complete and correct.
	byWord := make(map[string]decompose.Result)
	for _, e := range want {
		byWord[e.Word] = e.Result
	}
	for _, e := range st.All() {
		assert.Equal(t, byWord[e.Word], e.Result, e.Word)
	}

	_, err = New(tbl, p, st, Options{MinIncludeWordLen: 3, PoolSize: 3, ChunkSize: 2}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, st.All())
}

func TestCancelledBeforeDispatch(t *testing.T) {
	tbl := testTable(t, words)
	p := decompose.NewSubtraction(params)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Workers are idle and ready, so any chunk sent after cancellation would
	// show up as processed.
	for range 50 {
		st := store.New(p.Signature())
		progress, err := New(tbl, p, st, Options{MinIncludeWordLen: 3, PoolSize: 4, ChunkSize: 1}).Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, progress.Processed)
		assert.Zero(t, st.Len())
	}
}

func TestPanicIsIsolatedToChunk(t *testing.T) {
	tbl := testTable(t, words)
	inner := decompose.NewSubtraction(params)
	want := expected(t, tbl, inner, 4)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	st := store.New(inner.Signature())
	progress, err := New(tbl, &faultPolicy{inner: inner, panicOn: "starting"}, st, Options{
		MinIncludeWordLen: 4,
		PoolSize:          3,
		ChunkSize:         1,
		Metrics:           m,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, progress.FailedChunks)
	assert.Equal(t, progress.Eligible-1, progress.Processed)
	assert.False(t, st.Has("starting"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChunksTotal.WithLabelValues("panic")))

	_, err = New(tbl, inner, st, Options{MinIncludeWordLen: 4}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, st.All())
}

func TestChunkTimeout(t *testing.T) {
	tbl := testTable(t, words)
	inner := decompose.NewSubtraction(params)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	st := store.New(inner.Signature())
	progress, err := New(tbl, &faultPolicy{inner: inner, slowOn: "ratting"}, st, Options{
		MinIncludeWordLen: 4,
		PoolSize:          2,
		ChunkSize:         1,
		ChunkTimeout:      50 * time.Millisecond,
		Metrics:           m,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, progress.FailedChunks)
	assert.False(t, st.Has("ratting"))
	assert.True(t, st.Has("starting"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChunksTotal.WithLabelValues("timeout")))
}

func TestDuplicateInsertAbortsRun(t *testing.T) {
	tbl := testTable(t, words)
	p := decompose.NewSubtraction(params)
	want := expected(t, tbl, p, 4)
	require.GreaterOrEqual(t, len(want), 2)

	st := store.New(p.Signature())
	var once atomic.Bool
	_, err := New(tbl, p, st, Options{
		MinIncludeWordLen: 4,
		ChunkSize:         1,
		OnHit: func(word string, _ decompose.Result) {
			if !once.CompareAndSwap(false, true) {
				return
			}
			// A second writer stores the remaining hits first.
			for _, e := range want {
				if e.Word != word {
					require.NoError(t, st.Put(e.Word, e.Result))
				}
			}
		},
	}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateInsert)
}

func TestCheckpoint(t *testing.T) {
	tbl := testTable(t, words)
	inner := decompose.NewSubtraction(params)

	var saves atomic.Int32
	st := store.New(inner.Signature())
	_, err := New(tbl, &faultPolicy{inner: inner, delay: 5 * time.Millisecond}, st, Options{
		MinIncludeWordLen:  3,
		ChunkSize:          1,
		CheckpointInterval: 5 * time.Millisecond,
		Checkpoint: func(context.Context) error {
			saves.Add(1)
			return nil
		},
	}).Run(context.Background())
	require.NoError(t, err)
	assert.Positive(t, saves.Load())
}

func TestMonotonicInCorpus(t *testing.T) {
	p := decompose.NewSubtraction(params)
	small := store.New(p.Signature())
	_, err := New(testTable(t, words[:16]), p, small, Options{MinIncludeWordLen: 3, PoolSize: 2}).Run(context.Background())
	require.NoError(t, err)

	large := store.New(p.Signature())
	_, err = New(testTable(t, words), p, large, Options{MinIncludeWordLen: 3, PoolSize: 2}).Run(context.Background())
	require.NoError(t, err)

	edges := make(map[decompose.Triple]struct{})
	for _, e := range large.Edges() {
		edges[e] = struct{}{}
	}
	for _, e := range small.Edges() {
		assert.Contains(t, edges, e)
	}
}

func TestSplit(t *testing.T) {
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, split([]string{"a", "b", "c"}, 2))
	assert.Empty(t, split(nil, 3))
}
