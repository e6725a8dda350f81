package decompose

import "strings"

// ReplacementArrow joins the two halves of a replacement label.
const ReplacementArrow = "→"

// Triple is one decomposition step: Source with Label removed (or replaced)
// yields Target.
type Triple struct {
	Source string `json:"s"`
	Label  string `json:"l"`
	Target string `json:"t"`
}

// ReplacementLabel formats the label of a replacement edge.
func ReplacementLabel(sub, replacement string) string {
	return sub + ReplacementArrow + replacement
}

// SplitLabel returns the removed subword and, for replacement edges, the
// inserted word.
func SplitLabel(label string) (sub, replacement string, isReplacement bool) {
	sub, replacement, isReplacement = strings.Cut(label, ReplacementArrow)
	return sub, replacement, isReplacement
}

// Node is either a leaf Triple or a branch: a Triple followed by the
// decomposition of its Target.
type Node struct {
	Edge Triple `json:"e"`
	Next Result `json:"n,omitempty"`
}

// IsBranch reports whether the node carries a continuation.
func (n Node) IsBranch() bool {
	return len(n.Next) > 0
}

// Result is the decomposition of one root word. Subtraction trees nest via
// Node.Next; graph results are flat.
type Result []Node

// Walk calls fn for every triple in r, depth first, including repeats that
// appear along different paths. Returning false stops the walk.
func (r Result) Walk(fn func(Triple) bool) bool {
	for _, n := range r {
		if !fn(n.Edge) {
			return false
		}
		if n.IsBranch() && !n.Next.Walk(fn) {
			return false
		}
	}
	return true
}

// Triples returns the deduplicated triples of r in first-seen order.
func (r Result) Triples() []Triple {
	seen := make(map[Triple]struct{})
	var out []Triple
	r.Walk(func(t Triple) bool {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
		return true
	})
	return out
}

// Root returns the source word of the first triple, or "" for an empty
// result.
func (r Result) Root() string {
	if len(r) == 0 {
		return ""
	}
	return r[0].Edge.Source
}

// Translate maps every word and label part of r through lookup. The first
// token lookup cannot resolve is returned with ok=false.
func (r Result) Translate(lookup func(string) (string, bool)) (Result, string, bool) {
	out := make(Result, 0, len(r))
	for _, n := range r {
		edge, missing, ok := n.Edge.Translate(lookup)
		if !ok {
			return nil, missing, false
		}
		node := Node{Edge: edge}
		if n.IsBranch() {
			next, missing, ok := n.Next.Translate(lookup)
			if !ok {
				return nil, missing, false
			}
			node.Next = next
		}
		out = append(out, node)
	}
	return out, "", true
}

// Translate maps the words of t through lookup.
func (t Triple) Translate(lookup func(string) (string, bool)) (Triple, string, bool) {
	src, ok := lookup(t.Source)
	if !ok {
		return Triple{}, t.Source, false
	}
	dst, ok := lookup(t.Target)
	if !ok {
		return Triple{}, t.Target, false
	}
	sub, repl, isRepl := SplitLabel(t.Label)
	label, ok := lookup(sub)
	if !ok {
		return Triple{}, sub, false
	}
	if isRepl {
		r, ok := lookup(repl)
		if !ok {
			return Triple{}, repl, false
		}
		label = ReplacementLabel(label, r)
	}
	return Triple{Source: src, Label: label, Target: dst}, "", true
}
