package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersOnPrivateRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.WordsProcessedTotal.Add(3)
	m.ChunksTotal.WithLabelValues("ok").Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.WordsProcessedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChunksTotal.WithLabelValues("ok")))

	// a second set on a fresh registry must not collide
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}

func TestGathererHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.WordsHitTotal.Inc()

	rec := httptest.NewRecorder()
	GathererHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "recurse_words_hit_total 1"))
}
