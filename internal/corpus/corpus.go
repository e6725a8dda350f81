// Package corpus loads word lists from local files. Plain text corpora are
// normalised to lower case; the CMU pronouncing dictionary is re-encoded into a
// one-letter-per-phoneme alphabet and carries a TranslationTable back to the
// spelled word.
package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
)

const (
	FormatTxt     = "txt"
	FormatCMUDict = "cmudict"
)

// Corpus is a deduplicated, sorted word set.
type Corpus interface {
	Name() string
	Words() []string
	// Translation returns nil when the words are already human-readable.
	Translation() *TranslationTable
}

// Open loads the corpus described by cfg.
func Open(cfg config.CorpusConfig) (Corpus, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: no corpus path configured", apperrors.ErrInvalidCorpus)
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	var c Corpus
	switch cfg.Format {
	case FormatTxt, "":
		c, err = ReadTxt(f, cfg.Separator)
	case FormatCMUDict:
		c, err = ReadCMUDict(f)
	default:
		return nil, fmt.Errorf("%w: unknown corpus format %q", apperrors.ErrInvalidCorpus, cfg.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", cfg.Path, err)
	}
	slog.Default().With("component", "corpus").Info("corpus loaded",
		"path", cfg.Path,
		"format", c.Name(),
		"words", len(c.Words()),
	)
	return c, nil
}

// dedupe sorts words and drops empties and repeats in place.
func dedupe(words []string) []string {
	sort.Strings(words)
	out := words[:0]
	for i, w := range words {
		if w == "" || (i > 0 && w == words[i-1]) {
			continue
		}
		out = append(out, w)
	}
	return out
}
