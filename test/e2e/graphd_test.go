// Package e2e exercises a running graphd instance over HTTP. The service
// must be serving a snapshot produced by "recurser run".
//
// Run with:
//
//	E2E_GRAPHD_URL=http://localhost:8080 go test -v ./test/e2e/...
package e2e

import (
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var client = &http.Client{Timeout: 10 * time.Second}

// graphdURL returns the service address or skips the test when it is not
// reachable.
func graphdURL(t *testing.T) string {
	t.Helper()
	base := os.Getenv("E2E_GRAPHD_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	resp, err := client.Get(base + "/health/live")
	if err != nil {
		t.Skipf("skipping e2e test: graphd unavailable at %s: %v", base, err)
	}
	resp.Body.Close()
	return base
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type triple struct {
	S string `json:"s"`
	L string `json:"l"`
	T string `json:"t"`
}

func TestReadiness(t *testing.T) {
	base := graphdURL(t)
	var report struct {
		Status     string `json:"status"`
		Components map[string]struct {
			Status string `json:"status"`
		} `json:"components"`
	}
	resp := getJSON(t, base+"/health/ready", &report)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, report.Components, "results")
}

func TestStatsAndEdges(t *testing.T) {
	base := graphdURL(t)
	var stats struct {
		Signature string   `json:"signature"`
		Snapshot  string   `json:"snapshot"`
		Entries   int      `json:"entries"`
		Edges     int      `json:"edges"`
		Metrics   []string `json:"metrics"`
	}
	resp := getJSON(t, base+"/api/v1/stats", &stats)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, stats.Signature)
	assert.Regexp(t, `^results-[0-9a-f]{16}$`, stats.Snapshot)
	assert.NotEmpty(t, stats.Metrics)

	var all struct {
		Count int      `json:"count"`
		Edges []triple `json:"edges"`
	}
	resp = getJSON(t, base+"/api/v1/edges", &all)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, stats.Edges, all.Count)
	assert.Len(t, all.Edges, all.Count)
	if all.Count == 0 {
		t.Skip("snapshot has no edges")
	}

	root := all.Edges[0].S
	var filtered struct {
		Root  string   `json:"root"`
		Edges []triple `json:"edges"`
	}
	resp = getJSON(t, base+"/api/v1/edges?root="+root, &filtered)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, filtered.Edges)
	for _, e := range filtered.Edges {
		assert.Equal(t, root, e.S)
	}

	var result struct {
		Word   string `json:"word"`
		Leaves int    `json:"leaves"`
	}
	resp = getJSON(t, base+"/api/v1/results/"+root, &result)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, root, result.Word)
	assert.Positive(t, result.Leaves)
}

func TestRankings(t *testing.T) {
	base := graphdURL(t)
	var ranked struct {
		Metric string `json:"metric"`
		Top    []struct {
			Word  string  `json:"word"`
			Value float64 `json:"value"`
		} `json:"top"`
	}
	resp := getJSON(t, base+"/api/v1/rankings/leaves?top=5", &ranked)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "leaves", ranked.Metric)
	assert.LessOrEqual(t, len(ranked.Top), 5)
	for i := 1; i < len(ranked.Top); i++ {
		assert.GreaterOrEqual(t, ranked.Top[i-1].Value, ranked.Top[i].Value)
	}
}

func TestErrors(t *testing.T) {
	base := graphdURL(t)
	resp := getJSON(t, base+"/api/v1/rankings/nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, base+"/api/v1/edges?depth=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, base+"/api/v1/results/zzzzzzzzzzzz", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
