package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
)

func node(s, l, d string, next ...decompose.Node) decompose.Node {
	return decompose.Node{Edge: decompose.Triple{Source: s, Label: l, Target: d}, Next: next}
}

func tri(s, l, d string) decompose.Triple {
	return decompose.Triple{Source: s, Label: l, Target: d}
}

// memSnapshotter keeps one snapshot in memory.
type memSnapshotter struct {
	snap  *Snapshot
	saves int
}

func (m *memSnapshotter) WriteSnapshot(_ context.Context, snap Snapshot) error {
	m.snap = &snap
	m.saves++
	return nil
}

func (m *memSnapshotter) ReadSnapshot(context.Context) (Snapshot, error) {
	if m.snap == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return *m.snap, nil
}

func populated(t *testing.T) *Store {
	t.Helper()
	s := New("sig")
	require.NoError(t, s.Put("abcdefgh", decompose.Result{
		node("abcdefgh", "cd", "abefgh",
			node("abefgh", "ef", "abgh",
				node("abgh", "bg", "ah"))),
	}))
	require.NoError(t, s.Put("abefgh", decompose.Result{
		node("abefgh", "ef", "abgh",
			node("abgh", "bg", "ah")),
	}))
	require.NoError(t, s.Put("xyz", decompose.Result{node("xyz", "y", "xz")}))
	return s
}

func TestPutIsInsertOnly(t *testing.T) {
	s := New("sig")
	r := decompose.Result{node("starting", "art", "sting")}
	require.NoError(t, s.Put("starting", r))

	err := s.Put("starting", decompose.Result{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateInsert)

	got, ok := s.Get("starting")
	require.True(t, ok)
	assert.Equal(t, r, got)
	assert.True(t, s.Has("starting"))
	assert.False(t, s.Has("sting"))
	assert.Equal(t, 1, s.Len())
}

func TestEdgesAreDeduplicatedAndSorted(t *testing.T) {
	s := populated(t)
	assert.Equal(t, []decompose.Triple{
		tri("abcdefgh", "cd", "abefgh"),
		tri("abefgh", "ef", "abgh"),
		tri("abgh", "bg", "ah"),
		tri("xyz", "y", "xz"),
	}, s.Edges())
	assert.Equal(t, []string{"abcdefgh", "abefgh", "xyz"}, s.Words())
}

func TestFilterDepth(t *testing.T) {
	s := populated(t)

	assert.Equal(t, []decompose.Triple{tri("abcdefgh", "cd", "abefgh")}, s.Filter("abcdefgh", 0))
	assert.Equal(t, []decompose.Triple{
		tri("abcdefgh", "cd", "abefgh"),
		tri("abefgh", "ef", "abgh"),
	}, s.Filter("abcdefgh", 1))
	assert.Len(t, s.Filter("abcdefgh", 2), 3)
	assert.Len(t, s.Filter("abcdefgh", 10), 3)
	assert.Empty(t, s.Filter("missing", 3))
}

func TestFilterDropsSelfConnections(t *testing.T) {
	s := New("sig")
	require.NoError(t, s.Put("aa", decompose.Result{node("aa", "x", "aa"), node("aa", "a", "a")}))
	assert.Equal(t, []decompose.Triple{tri("aa", "a", "a")}, s.Filter("aa", 0))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := populated(t)
	snap := &memSnapshotter{}
	require.NoError(t, s.Save(ctx, snap))
	assert.Equal(t, 1, snap.saves)

	restored := New("sig")
	require.NoError(t, restored.Load(ctx, snap))
	assert.Equal(t, s.All(), restored.All())
	assert.Equal(t, s.Edges(), restored.Edges())
}

func TestLoadRejectsOtherSignature(t *testing.T) {
	ctx := context.Background()
	snap := &memSnapshotter{}
	require.NoError(t, populated(t).Save(ctx, snap))

	other := New("other")
	err := other.Load(ctx, snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIncompatibleSnapshot)
	assert.Zero(t, other.Len())
}

func TestLoadIntoNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	snap := &memSnapshotter{}
	s := populated(t)
	require.NoError(t, s.Save(ctx, snap))
	assert.Error(t, s.Load(ctx, snap))
}

func TestLoadDuplicateLeavesStoreEmpty(t *testing.T) {
	snap := &memSnapshotter{snap: &Snapshot{Signature: "sig", Entries: []Entry{
		{Word: "xyz", Result: decompose.Result{node("xyz", "y", "xz")}},
		{Word: "xyz", Result: decompose.Result{node("xyz", "x", "yz")}},
	}}}
	s := New("sig")
	err := s.Load(context.Background(), snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateInsert)
	assert.Zero(t, s.Len())
	assert.False(t, s.Has("xyz"))
}

func TestLoadWithoutSnapshot(t *testing.T) {
	err := New("sig").Load(context.Background(), &memSnapshotter{})
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestReset(t *testing.T) {
	s := populated(t)
	s.Reset()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Edges())
	require.NoError(t, s.Put("xyz", nil))
}

func TestSnapshotName(t *testing.T) {
	a := SnapshotName("subtraction;test=2;clipped=3;internal=true;depth=0")
	b := SnapshotName("subtraction;test=2;clipped=3;internal=false;depth=0")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, SnapshotName("subtraction;test=2;clipped=3;internal=true;depth=0"))
	assert.Len(t, a, len("results-")+16)
}
