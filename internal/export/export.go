// Package export turns stored decompositions into edge lists for consumers
// outside the search engine: translated labels, root lookups and TSV dumps.
package export

import (
	"bufio"
	"fmt"
	"io"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
)

// Translate maps every word and label of edges through table. Edges that
// collapse onto themselves after translation are dropped. A nil table
// returns edges as-is.
func Translate(edges []decompose.Triple, table *corpus.TranslationTable) ([]decompose.Triple, error) {
	if table == nil {
		return edges, nil
	}
	out := make([]decompose.Triple, 0, len(edges))
	for _, e := range edges {
		tr, missing, ok := e.Translate(table.Label)
		if !ok {
			return nil, fmt.Errorf("%w: %q in edge %s -> %s", apperrors.ErrMissingTranslation, missing, e.Source, e.Target)
		}
		if tr.Source == tr.Target {
			continue
		}
		out = append(out, tr)
	}
	return out, nil
}

// RenderIPA spells every word and label of phonetic edges in IPA.
func RenderIPA(edges []decompose.Triple) []decompose.Triple {
	out := make([]decompose.Triple, len(edges))
	for i, e := range edges {
		out[i], _, _ = e.Translate(func(token string) (string, bool) {
			return corpus.IPA(token), true
		})
	}
	return out
}

// TranslateResult maps a single decomposition through table.
func TranslateResult(r decompose.Result, table *corpus.TranslationTable) (decompose.Result, error) {
	if table == nil {
		return r, nil
	}
	tr, missing, ok := r.Translate(table.Label)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrMissingTranslation, missing)
	}
	return tr, nil
}

// ResolveRoot turns a human-readable root into a corpus token. Labels are
// looked up first; a string that is already a token is returned unchanged.
func ResolveRoot(label string, table *corpus.TranslationTable) (string, error) {
	if label == "" {
		return "", apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "root is required")
	}
	if table == nil {
		return label, nil
	}
	if tok, ok := table.Token(label); ok {
		return tok, nil
	}
	if _, ok := table.Label(label); ok {
		return label, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrWordNotFound, label)
}

// WriteTSV writes one "source\tlabel\ttarget" line per edge.
func WriteTSV(w io.Writer, edges []decompose.Triple) error {
	bw := bufio.NewWriter(w)
	for _, e := range edges {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\n", e.Source, e.Label, e.Target); err != nil {
			return fmt.Errorf("writing edge: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing edges: %w", err)
	}
	return nil
}

// WriteTree renders a decomposition as an indented tree, one edge per line:
//
//	starting
//	  - art -> sting
//	    - in -> stg
func WriteTree(w io.Writer, r decompose.Result) error {
	bw := bufio.NewWriter(w)
	if root := r.Root(); root != "" {
		fmt.Fprintln(bw, root)
	}
	writeNodes(bw, r, 1)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing tree: %w", err)
	}
	return nil
}

func writeNodes(w *bufio.Writer, r decompose.Result, level int) {
	for _, n := range r {
		fmt.Fprintf(w, "%*s- %s -> %s\n", 2*level, "", n.Edge.Label, n.Edge.Target)
		if n.IsBranch() {
			writeNodes(w, n.Next, level+1)
		}
	}
}
