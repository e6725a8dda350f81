// Package driver runs the decomposition search over a whole word table. Words
// are cut into chunks and fanned out to a fixed pool of workers; each worker
// owns one Searcher, and a single coordinator merges finished chunks into the
// result store in completion order.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/wordtable"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/resilience"
)

var errWorkerPanic = errors.New("worker panic")

// Options configure a run. Zero values fall back to a single worker and
// chunks of 100 words with no timeout and no checkpoints.
type Options struct {
	MinIncludeWordLen int
	PoolSize          int
	ChunkSize         int
	ChunkTimeout      time.Duration

	CheckpointInterval time.Duration
	Checkpoint         func(ctx context.Context) error

	// OnHit is called by the coordinator after a non-empty result is stored.
	OnHit func(word string, r decompose.Result)
	// OnProgress is called by the coordinator after every merged chunk.
	OnProgress func(Progress)

	Metrics *metrics.Metrics
}

// Progress counts the work of one run.
type Progress struct {
	Eligible     int `json:"eligible"`
	Skipped      int `json:"skipped"`
	Processed    int `json:"processed"`
	Hits         int `json:"hits"`
	FailedChunks int `json:"failed_chunks"`
}

type Driver struct {
	table  *wordtable.Table
	policy decompose.Policy
	store  *store.Store
	opts   Options
}

func New(table *wordtable.Table, policy decompose.Policy, st *store.Store, opts Options) *Driver {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 1
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 100
	}
	return &Driver{table: table, policy: policy, store: st, opts: opts}
}

// Eligible returns the root words still to search, ordered by length then
// word, and the number of long-enough words skipped because they are stored.
func (d *Driver) Eligible() (words []string, skipped int) {
	for _, w := range d.table.Words() {
		if utf8.RuneCountInString(w) < d.opts.MinIncludeWordLen {
			continue
		}
		if d.store.Has(w) {
			skipped++
			continue
		}
		words = append(words, w)
	}
	return words, skipped
}

type wordResult struct {
	word   string
	result decompose.Result
}

type chunkResult struct {
	words    []wordResult
	size     int
	err      error
	duration time.Duration
}

// Run searches every eligible word. Cancelling ctx stops dispatch; chunks
// already handed to workers still finish and are merged, so the store stays
// resumable. The returned error is ctx.Err() after cancellation, or the store
// error that aborted the run.
func (d *Driver) Run(ctx context.Context) (Progress, error) {
	log := logger.FromContext(ctx).With("component", "driver")
	words, skipped := d.Eligible()
	progress := Progress{Eligible: len(words), Skipped: skipped}
	chunks := split(words, d.opts.ChunkSize)

	log.Info("search run starting",
		"policy", d.policy.Name(),
		"signature", d.policy.Signature(),
		"eligible", len(words),
		"skipped", skipped,
		"chunks", len(chunks),
		"workers", d.opts.PoolSize,
	)
	start := time.Now()

	// Workers run detached from ctx so in-flight chunks drain on cancel.
	// abort stops them only when the coordinator hits a fatal error.
	workCtx, abort := context.WithCancel(context.WithoutCancel(ctx))
	defer abort()

	jobs := make(chan []string)
	results := make(chan chunkResult)

	var g errgroup.Group
	g.Go(func() error {
		defer close(jobs)
		for _, c := range chunks {
			if ctx.Err() != nil {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case <-workCtx.Done():
				return nil
			case jobs <- c:
			}
		}
		return nil
	})
	for i := 0; i < d.opts.PoolSize; i++ {
		g.Go(func() error {
			d.work(workCtx, log.With("worker", i), jobs, results)
			return nil
		})
	}
	go func() {
		g.Wait()
		close(results)
	}()

	var tick <-chan time.Time
	if d.opts.CheckpointInterval > 0 && d.opts.Checkpoint != nil {
		t := time.NewTicker(d.opts.CheckpointInterval)
		defer t.Stop()
		tick = t.C
	}

	var fatal error
merge:
	for {
		select {
		case res, ok := <-results:
			if !ok {
				break merge
			}
			if fatal != nil {
				continue
			}
			if err := d.merge(res, &progress, log); err != nil {
				fatal = err
				abort()
				log.Error("aborting run", "error", err)
				continue
			}
			if d.opts.OnProgress != nil {
				d.opts.OnProgress(progress)
			}
		case <-tick:
			if fatal == nil {
				d.checkpoint(workCtx, log)
			}
		}
	}

	if m := d.opts.Metrics; m != nil {
		m.StoreEntries.Set(float64(d.store.Len()))
	}
	log.Info("search run finished",
		"processed", progress.Processed,
		"hits", progress.Hits,
		"failed_chunks", progress.FailedChunks,
		"stored", d.store.Len(),
		"elapsed", time.Since(start),
	)

	if fatal != nil {
		return progress, fatal
	}
	return progress, ctx.Err()
}

func (d *Driver) work(ctx context.Context, log *slog.Logger, jobs <-chan []string, results chan<- chunkResult) {
	searcher := d.policy.NewSearcher(d.table)
	for chunk := range jobs {
		res := d.searchChunk(ctx, searcher, chunk)
		if res.err != nil {
			// The abandoned search may still hold the searcher.
			searcher = d.policy.NewSearcher(d.table)
			log.Warn("chunk failed",
				"first_word", chunk[0],
				"size", len(chunk),
				"completed", len(res.words),
				"error", res.err,
			)
		}
		results <- res
	}
}

// searchChunk returns every word completed before a failure. Words are
// collected under a lock because a timed-out search keeps running in the
// background until it notices its context is done.
func (d *Driver) searchChunk(ctx context.Context, s decompose.Searcher, chunk []string) chunkResult {
	start := time.Now()
	var (
		mu   sync.Mutex
		done []wordResult
	)
	err := resilience.WithTimeout(ctx, d.opts.ChunkTimeout, "search chunk", func(cctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", errWorkerPanic, r)
			}
		}()
		for _, w := range chunk {
			r, err := s.Search(cctx, w)
			if err != nil {
				return fmt.Errorf("searching %q: %w", w, err)
			}
			mu.Lock()
			done = append(done, wordResult{word: w, result: r})
			mu.Unlock()
		}
		return nil
	})

	mu.Lock()
	words := append([]wordResult(nil), done...)
	mu.Unlock()
	return chunkResult{words: words, size: len(chunk), err: err, duration: time.Since(start)}
}

func (d *Driver) merge(res chunkResult, p *Progress, log *slog.Logger) error {
	m := d.opts.Metrics
	for _, wr := range res.words {
		p.Processed++
		if len(wr.result) == 0 {
			continue
		}
		if err := d.store.Put(wr.word, wr.result); err != nil {
			return fmt.Errorf("merging %q: %w", wr.word, err)
		}
		p.Hits++
		if m != nil {
			m.WordsHitTotal.Inc()
		}
		if d.opts.OnHit != nil {
			d.opts.OnHit(wr.word, wr.result)
		}
	}
	status := "ok"
	if res.err != nil {
		p.FailedChunks++
		status = chunkStatus(res.err)
	}
	if m != nil {
		m.WordsProcessedTotal.Add(float64(len(res.words)))
		m.ChunksTotal.WithLabelValues(status).Inc()
		m.ChunkDuration.Observe(res.duration.Seconds())
		m.StoreEntries.Set(float64(d.store.Len()))
	}
	log.Debug("chunk merged",
		"status", status,
		"size", res.size,
		"completed", len(res.words),
		"processed", p.Processed,
		"hits", p.Hits,
	)
	return nil
}

func (d *Driver) checkpoint(ctx context.Context, log *slog.Logger) {
	start := time.Now()
	status := "ok"
	if err := d.opts.Checkpoint(ctx); err != nil {
		status = "error"
		log.Error("checkpoint failed", "error", err)
	} else {
		log.Info("checkpoint saved", "stored", d.store.Len(), "duration", time.Since(start))
	}
	if m := d.opts.Metrics; m != nil {
		m.SnapshotSavesTotal.WithLabelValues(status).Inc()
	}
}

func chunkStatus(err error) string {
	switch {
	case errors.Is(err, errWorkerPanic):
		return "panic"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func split(words []string, size int) [][]string {
	chunks := make([][]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		chunks = append(chunks, words[start:end])
	}
	return chunks
}
