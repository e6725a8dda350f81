// Package ranking scores stored decompositions so the interesting ones can be
// picked out. Indices are rebuilt from a store snapshot on request and are
// never updated in place.
package ranking

import (
	"container/heap"
	"fmt"
	"net/http"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
)

// Metric maps a result to a non-negative score.
type Metric func(decompose.Result) int

const (
	MetricLeaves          = "leaves"
	MetricDensity         = "density"
	MetricAbsoluteDensity = "absolute_density"
	MetricDepth           = "depth"
)

var metrics = map[string]Metric{
	MetricLeaves:          LeafCount,
	MetricDensity:         DedupeDensity,
	MetricAbsoluteDensity: AbsoluteDensity,
	MetricDepth:           Depth,
}

// Names lists the registered metrics in a stable order.
func Names() []string {
	return []string{MetricLeaves, MetricDensity, MetricAbsoluteDensity, MetricDepth}
}

func MetricByName(name string) (Metric, error) {
	m, ok := metrics[name]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "unknown metric %q", name)
	}
	return m, nil
}

// LeafCount is the number of distinct words, sources and targets, in r.
func LeafCount(r decompose.Result) int {
	words := make(map[string]struct{})
	r.Walk(func(t decompose.Triple) bool {
		words[t.Source] = struct{}{}
		words[t.Target] = struct{}{}
		return true
	})
	return len(words)
}

// DedupeDensity is the number of distinct triples in r.
func DedupeDensity(r decompose.Result) int {
	return len(r.Triples())
}

// AbsoluteDensity counts every triple, including repeats along different
// paths.
func AbsoluteDensity(r decompose.Result) int {
	n := 0
	r.Walk(func(decompose.Triple) bool {
		n++
		return true
	})
	return n
}

// Depth is the maximum nesting of r: 1 without continuations, 0 when empty.
func Depth(r decompose.Result) int {
	if len(r) == 0 {
		return 0
	}
	deepest := 0
	for _, n := range r {
		if n.IsBranch() {
			deepest = max(deepest, Depth(n.Next))
		}
	}
	return 1 + deepest
}

// Index groups words by metric value.
type Index struct {
	byValue map[int]map[string]decompose.Result
	values  []int
}

// Reindex scores every entry once. Empty results are left out.
func Reindex(entries []store.Entry, m Metric) Index {
	idx := Index{byValue: make(map[int]map[string]decompose.Result)}
	for _, e := range entries {
		if len(e.Result) == 0 {
			continue
		}
		v := m(e.Result)
		bucket, ok := idx.byValue[v]
		if !ok {
			bucket = make(map[string]decompose.Result)
			idx.byValue[v] = bucket
			idx.values = append(idx.values, v)
		}
		bucket[e.Word] = e.Result
	}
	sort.Ints(idx.values)
	return idx
}

// Values returns the distinct metric values in ascending order.
func (idx Index) Values() []int {
	return idx.values
}

// At returns the words scoring exactly v.
func (idx Index) At(v int) map[string]decompose.Result {
	return idx.byValue[v]
}

// Max returns the highest value and its words. ok is false for an empty index.
func (idx Index) Max() (value int, words map[string]decompose.Result, ok bool) {
	if len(idx.values) == 0 {
		return 0, nil, false
	}
	v := idx.values[len(idx.values)-1]
	return v, idx.byValue[v], true
}

func (idx Index) Len() int {
	n := 0
	for _, bucket := range idx.byValue {
		n += len(bucket)
	}
	return n
}

// Scored is one word with its metric value.
type Scored struct {
	Word  string `json:"word"`
	Value int    `json:"value"`
}

// Top returns the n highest-scoring words, ties broken by word.
func Top(entries []store.Entry, m Metric, n int) []Scored {
	if n <= 0 {
		return nil
	}
	h := &scoredHeap{}
	for _, e := range entries {
		if len(e.Result) == 0 {
			continue
		}
		heap.Push(h, Scored{Word: e.Word, Value: m(e.Result)})
		if h.Len() > n {
			heap.Pop(h)
		}
	}
	out := make([]Scored, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Scored)
	}
	return out
}

// scoredHeap keeps the weakest candidate on top so it can be evicted.
type scoredHeap []Scored

func (h scoredHeap) Len() int { return len(h) }

func (h scoredHeap) Less(i, j int) bool {
	if h[i].Value != h[j].Value {
		return h[i].Value < h[j].Value
	}
	return h[i].Word > h[j].Word
}

func (h scoredHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredHeap) Push(x any) {
	*h = append(*h, x.(Scored))
}

func (h *scoredHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (s Scored) String() string {
	return fmt.Sprintf("%s=%d", s.Word, s.Value)
}
