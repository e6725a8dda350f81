// Package events streams decomposition hits out of a search run. The
// Publisher puts one HitEvent per stored word on Kafka; the Sink consumes
// them and records the edges in PostgreSQL.
package events

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/ranking"
)

// HitEvent announces a newly stored decomposition.
type HitEvent struct {
	RunID     string             `json:"run_id"`
	Signature string             `json:"signature"`
	Word      string             `json:"word"`
	Depth     int                `json:"depth"`
	Leaves    int                `json:"leaves"`
	Edges     []decompose.Triple `json:"edges"`
	Timestamp time.Time          `json:"timestamp"`
}

func NewHitEvent(runID, signature, word string, r decompose.Result) HitEvent {
	return HitEvent{
		RunID:     runID,
		Signature: signature,
		Word:      word,
		Depth:     ranking.Depth(r),
		Leaves:    ranking.LeafCount(r),
		Edges:     r.Triples(),
		Timestamp: time.Now().UTC(),
	}
}
