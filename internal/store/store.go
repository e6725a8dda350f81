// Package store holds the decomposition results keyed by root word. The store
// only grows; it is written by the driver's coordinator and read by ranking and
// export. Persistence goes through a Snapshotter so the on-disk format can be
// swapped without touching the core.
package store

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
)

// ErrNoSnapshot is returned by a Snapshotter that has nothing saved yet.
var ErrNoSnapshot = errors.New("no snapshot")

// Entry is one stored root word and its decomposition.
type Entry struct {
	Word   string           `json:"word"`
	Result decompose.Result `json:"result"`
}

// Snapshot is the serialisable state of a Store.
type Snapshot struct {
	Signature string
	Entries   []Entry
}

// Snapshotter persists and restores snapshots.
type Snapshotter interface {
	WriteSnapshot(ctx context.Context, snap Snapshot) error
	ReadSnapshot(ctx context.Context) (Snapshot, error)
}

type Store struct {
	mu        sync.RWMutex
	signature string
	results   map[string]decompose.Result
}

// New returns an empty store for results produced under the given policy
// signature.
func New(signature string) *Store {
	return &Store{
		signature: signature,
		results:   make(map[string]decompose.Result),
	}
}

func (s *Store) Signature() string { return s.signature }

func (s *Store) Get(word string) (decompose.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[word]
	return r, ok
}

func (s *Store) Has(word string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.results[word]
	return ok
}

// Put inserts the result for word. Entries are never overwritten.
func (s *Store) Put(word string, r decompose.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[word]; ok {
		return fmt.Errorf("%w: %q", apperrors.ErrDuplicateInsert, word)
	}
	s.results[word] = r
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Words returns the stored root words in lexical order.
func (s *Store) Words() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words := make([]string, 0, len(s.results))
	for w := range s.results {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// All returns every entry ordered by word.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.results))
	for w, r := range s.results {
		out = append(out, Entry{Word: w, Result: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Word < out[j].Word })
	return out
}

// Reset discards every entry.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = make(map[string]decompose.Result)
}

// Edges flattens every stored result into the deduplicated edge relation,
// sorted by source, label, target.
func (s *Store) Edges() []decompose.Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[decompose.Triple]struct{})
	for _, r := range s.results {
		r.Walk(func(t decompose.Triple) bool {
			seen[t] = struct{}{}
			return true
		})
	}
	return sortedTriples(seen)
}

// Filter returns the edges reachable from root. Depth 0 yields the root's own
// edges; each additional depth follows one more hop from the targets reached
// so far. Self connections are dropped.
func (s *Store) Filter(root string, depth int) []decompose.Triple {
	bySource := make(map[string][]decompose.Triple)
	for _, t := range s.Edges() {
		if t.Source == t.Target {
			continue
		}
		bySource[t.Source] = append(bySource[t.Source], t)
	}

	picked := make(map[decompose.Triple]struct{})
	visited := map[string]struct{}{root: {}}
	frontier := []string{root}
	for hop := 0; hop <= depth && len(frontier) > 0; hop++ {
		var next []string
		for _, src := range frontier {
			for _, t := range bySource[src] {
				picked[t] = struct{}{}
				if _, ok := visited[t.Target]; !ok {
					visited[t.Target] = struct{}{}
					next = append(next, t.Target)
				}
			}
		}
		frontier = next
	}
	return sortedTriples(picked)
}

// Save writes the full store through snap.
func (s *Store) Save(ctx context.Context, snap Snapshotter) error {
	if err := snap.WriteSnapshot(ctx, Snapshot{Signature: s.signature, Entries: s.All()}); err != nil {
		return fmt.Errorf("saving results: %w", err)
	}
	return nil
}

// Load restores a snapshot into an empty store. Snapshots produced under a
// different policy signature are rejected. A failed load leaves the store
// unchanged.
func (s *Store) Load(ctx context.Context, snap Snapshotter) error {
	if n := s.Len(); n > 0 {
		return fmt.Errorf("loading results: store already holds %d entries", n)
	}
	data, err := snap.ReadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}
	if data.Signature != s.signature {
		return fmt.Errorf("%w: snapshot %q, store %q",
			apperrors.ErrIncompatibleSnapshot, data.Signature, s.signature)
	}

	loaded := make(map[string]decompose.Result, len(data.Entries))
	for _, e := range data.Entries {
		if _, ok := loaded[e.Word]; ok {
			return fmt.Errorf("loading results: %w: %q", apperrors.ErrDuplicateInsert, e.Word)
		}
		loaded[e.Word] = e.Result
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) > 0 {
		return fmt.Errorf("loading results: store already holds %d entries", len(s.results))
	}
	s.results = loaded
	return nil
}

// SignatureHash is the 128-bit xxh3 digest of a policy signature.
func SignatureHash(signature string) [16]byte {
	h := xxh3.Hash128([]byte(signature))
	var out [16]byte
	binary.BigEndian.PutUint64(out[0:8], h.Hi)
	binary.BigEndian.PutUint64(out[8:16], h.Lo)
	return out
}

// SnapshotName derives the file or directory name for a signature, so results
// computed under different settings never share storage.
func SnapshotName(signature string) string {
	h := SignatureHash(signature)
	return "results-" + hex.EncodeToString(h[:8])
}

func sortedTriples(set map[decompose.Triple]struct{}) []decompose.Triple {
	out := make([]decompose.Triple, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.Target < b.Target
	})
	return out
}
