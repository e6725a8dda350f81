package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/bootstrap"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/driver"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/events"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/wordtable"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search every eligible corpus word and store the decompositions",
	Long: `run loads the corpus, resumes from the stored snapshot of the configured
policy and searches every word not stored yet. Results are checkpointed
periodically and saved on exit, including after an interrupt.`,
	RunE: runSearch,
}

func init() {
	runCmd.Flags().Int("workers", 0, "worker pool size (overrides driver.poolSize)")
	runCmd.Flags().Int("chunk-size", 0, "words per work unit (overrides driver.chunkSize)")
	runCmd.Flags().Bool("publish", false, "publish hits to Kafka (overrides driver.publishHits)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
		cfg.Driver.PoolSize = n
	}
	if n, _ := cmd.Flags().GetInt("chunk-size"); n > 0 {
		cfg.Driver.ChunkSize = n
	}
	if cmd.Flags().Changed("publish") {
		cfg.Driver.PublishHits, _ = cmd.Flags().GetBool("publish")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "recurser")

	c, err := corpus.Open(cfg.Corpus)
	if err != nil {
		return err
	}
	table, err := wordtable.Build(c.Words())
	if err != nil {
		return err
	}
	policy, err := bootstrap.Policy(cfg)
	if err != nil {
		return err
	}
	snap, err := bootstrap.OpenSnapshotter(cfg.Store, policy.Signature())
	if err != nil {
		return err
	}
	defer snap.Close()
	st, err := bootstrap.LoadStore(ctx, snap, policy.Signature(), false)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg)
		defer shutdown(context.Background())
	}

	opts := driver.Options{
		MinIncludeWordLen:  cfg.Search.MinIncludeWordLen,
		PoolSize:           cfg.Driver.PoolSize,
		ChunkSize:          cfg.Driver.ChunkSize,
		ChunkTimeout:       cfg.Driver.ChunkTimeout,
		CheckpointInterval: cfg.Driver.CheckpointInterval,
		Checkpoint: func(ctx context.Context) error {
			return st.Save(ctx, snap)
		},
		Metrics: m,
	}
	if cfg.Driver.PublishHits {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DecompositionHits)
		defer producer.Close()
		publisher := events.NewPublisher(producer, 0, m)
		publisher.Start(ctx)
		defer publisher.Close()
		opts.OnHit = func(word string, r decompose.Result) {
			publisher.Track(events.NewHitEvent(runID, policy.Signature(), word, r))
		}
		log.Info("publishing hits", "topic", cfg.Kafka.Topics.DecompositionHits)
	}

	log.Info("corpus ready", "corpus", c.Name(), "words", table.Len(), "stored", st.Len())
	progress, runErr := driver.New(table, policy, st, opts).Run(ctx)

	// The store only ever holds complete results, so an interrupted run is
	// saved and resumed next time.
	if err := st.Save(context.WithoutCancel(ctx), snap); err != nil {
		return errors.Join(runErr, err)
	}
	log.Info("results saved", "entries", st.Len())

	out := json.NewEncoder(cmd.OutOrStdout())
	out.SetIndent("", "  ")
	if err := out.Encode(progress); err != nil {
		return fmt.Errorf("writing progress: %w", err)
	}
	if errors.Is(runErr, context.Canceled) {
		log.Warn("run interrupted, rerun to resume", "remaining", progress.Eligible-progress.Processed)
		return nil
	}
	return runErr
}
