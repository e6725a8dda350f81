package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func TestRunThenInspect(t *testing.T) {
	dir := t.TempDir()
	words := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(words, []byte(strings.Join([]string{
		"starting", "start", "art", "sting", "in", "stg", "tart", "st",
	}, "\n")), 0o644))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
corpus:
  path: `+words+`
  format: txt
search:
  variant: subtraction
  minIncludeWordLen: 3
  minTestWordLen: 2
  minClippedWordLen: 2
  internalOnly: false
driver:
  poolSize: 2
  chunkSize: 2
store:
  dataDir: `+filepath.Join(dir, "data")+`
  backend: segment
logging:
  level: error
`), 0o644))

	out := execute(t, "run", "-c", cfgPath)
	assert.Contains(t, out, `"hits": 3`)

	out = execute(t, "run", "-c", cfgPath)
	assert.Contains(t, out, `"skipped": 3`)
	assert.Contains(t, out, `"hits": 0`)

	out = execute(t, "show", "starting", "-c", cfgPath)
	assert.Contains(t, out, "starting\n  - art -> sting\n    - in -> stg\n")

	out = execute(t, "edges", "--root", "starting", "--depth", "1", "-c", cfgPath)
	assert.Equal(t, "starting\tart\tsting\nsting\tin\tstg\n", out)

	out = execute(t, "rank", "leaves", "-c", cfgPath)
	assert.Equal(t, "leaves\t3\tstart starting\n", out)
}
