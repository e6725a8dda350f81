// Package handler serves the decomposition graph over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/export"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/export/cache"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/ranking"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/middleware"
)

// Results is the read side of the result store.
type Results interface {
	Signature() string
	Len() int
	Get(word string) (decompose.Result, bool)
	All() []store.Entry
	Edges() []decompose.Triple
	Filter(root string, depth int) []decompose.Triple
}

type Handler struct {
	results Results
	table   *corpus.TranslationTable
	cache   *cache.QueryCache
	cfg     config.ServerConfig
	logger  *slog.Logger
}

// New wires a handler. table and queryCache may be nil.
func New(results Results, table *corpus.TranslationTable, queryCache *cache.QueryCache, cfg config.ServerConfig) *Handler {
	return &Handler{
		results: results,
		table:   table,
		cache:   queryCache,
		cfg:     cfg,
		logger:  slog.Default().With("component", "graph-handler"),
	}
}

// EdgeList is the response of the edges endpoint.
type EdgeList struct {
	Root  string             `json:"root,omitempty"`
	Depth int                `json:"depth"`
	Count int                `json:"count"`
	Edges []decompose.Triple `json:"edges"`
}

// Edges lists the edge relation, or the part reachable from ?root= within
// ?depth= hops. ?translate=true renders words through the translation table.
func (h *Handler) Edges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	translate, err := boolParam(q, "translate")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	depth, err := h.intParam(q, "depth", 0, h.cfg.MaxFilterDepth)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	root := q.Get("root")

	h.serve(w, r, "edges", url.Values{
		"root":      {root},
		"depth":     {strconv.Itoa(depth)},
		"translate": {strconv.FormatBool(translate)},
	}, func() (any, error) {
		list := EdgeList{Depth: depth}
		var edges []decompose.Triple
		if root == "" {
			edges = h.results.Edges()
		} else {
			token, err := export.ResolveRoot(root, h.table)
			if err != nil {
				return nil, err
			}
			list.Root = token
			edges = h.results.Filter(token, depth)
		}
		if translate {
			if edges, err = export.Translate(edges, h.table); err != nil {
				return nil, err
			}
			list.Root = root
		}
		if edges == nil {
			edges = []decompose.Triple{}
		}
		list.Edges = edges
		list.Count = len(edges)
		return list, nil
	})
}

// Result returns the stored decomposition of one root word.
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	word := r.PathValue("word")
	translate, err := boolParam(r.URL.Query(), "translate")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.serve(w, r, "results", url.Values{
		"word":      {word},
		"translate": {strconv.FormatBool(translate)},
	}, func() (any, error) {
		token, err := export.ResolveRoot(word, h.table)
		if err != nil {
			return nil, err
		}
		res, ok := h.results.Get(token)
		if !ok {
			return nil, fmt.Errorf("%w: no decomposition stored for %q", apperrors.ErrWordNotFound, word)
		}
		if translate {
			if res, err = export.TranslateResult(res, h.table); err != nil {
				return nil, err
			}
		}
		return map[string]any{
			"word":   word,
			"depth":  ranking.Depth(res),
			"leaves": ranking.LeafCount(res),
			"result": res,
		}, nil
	})
}

// Rankings returns the ?top= highest-scoring words under a metric.
func (h *Handler) Rankings(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("metric")
	metric, err := ranking.MetricByName(name)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	q := r.URL.Query()
	top, err := h.intParam(q, "top", h.cfg.DefaultTop, h.cfg.MaxTop)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	translate, err := boolParam(q, "translate")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.serve(w, r, "rankings", url.Values{
		"metric":    {name},
		"top":       {strconv.Itoa(top)},
		"translate": {strconv.FormatBool(translate)},
	}, func() (any, error) {
		scored := ranking.Top(h.results.All(), metric, top)
		if scored == nil {
			scored = []ranking.Scored{}
		}
		if translate && h.table != nil {
			for i := range scored {
				if label, ok := h.table.Label(scored[i].Word); ok {
					scored[i].Word = label
				}
			}
		}
		return map[string]any{"metric": name, "top": scored}, nil
	})
}

// Stats summarises the loaded store. It is never cached.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"signature":  h.results.Signature(),
		"snapshot":   store.SnapshotName(h.results.Signature()),
		"entries":    h.results.Len(),
		"edges":      len(h.results.Edges()),
		"translated": h.table != nil,
		"metrics":    ranking.Names(),
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// serve encodes compute's value, going through the query cache when one is
// configured.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, route string, params url.Values, compute func() (any, error)) {
	ctx := r.Context()
	encode := func() ([]byte, error) {
		v, err := compute()
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}

	var (
		data   []byte
		cached bool
		err    error
	)
	if h.cache != nil {
		data, cached, err = h.cache.GetOrCompute(ctx, route, params, encode)
	} else {
		data, err = encode()
	}
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	logger.FromContext(ctx).Debug("query served",
		"route", route,
		"params", params.Encode(),
		"cache_hit", cached,
		"request_id", middleware.GetRequestID(ctx),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(data, '\n')); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) intParam(q url.Values, name string, def, max int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "%s must be a non-negative integer", name)
	}
	if max > 0 && v > max {
		v = max
	}
	return v, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "%s must be a boolean", name)
	}
	return v, nil
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError && !isCanceled(r.Context()) {
		h.logger.Error("query failed", "path", r.URL.Path, "error", err)
	}
	h.writeError(w, status, err.Error())
}

func isCanceled(ctx context.Context) bool {
	return ctx.Err() != nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
