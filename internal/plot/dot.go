// Package plot renders entity neighborhoods and triplet sets as Graphviz
// DOT documents. Parallel edges between the same pair of nodes are merged
// into one edge whose label joins the relation names.
package plot

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"claimkg/internal/dataset"
	"claimkg/internal/kg"
)

type edgeKey struct {
	start string
	end   string
}

// WriteDOT renders an entity neighborhood. The current entity is drawn
// filled. Output is deterministic for a given input.
func WriteDOT(w io.Writer, conns *kg.EntityConnections) error {
	if conns == nil {
		return fmt.Errorf("plot: nil connections")
	}

	names := map[string]string{conns.Current.ElementID: conns.Current.Name()}
	for _, n := range conns.Direct {
		names[n.ElementID] = n.Name()
	}

	labels := mergeEdges(conns.Relations, func(r kg.Relation) (edgeKey, string) {
		return edgeKey{start: r.Start, end: r.End}, r.Name
	})

	var b strings.Builder
	b.WriteString("digraph entity {\n")
	b.WriteString("\trankdir=LR;\n")
	b.WriteString("\tnode [shape=ellipse, fontname=\"Helvetica\"];\n")

	fmt.Fprintf(&b, "\t%s [style=filled, fillcolor=lightblue];\n", quote(conns.Current.Name()))

	ids := make([]string, 0, len(names))
	for id := range names {
		if id == conns.Current.ElementID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return names[ids[i]] < names[ids[j]] })
	for _, id := range ids {
		fmt.Fprintf(&b, "\t%s;\n", quote(names[id]))
	}

	writeEdges(&b, labels, func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return id
	})

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteTriplets renders a triplet set, with unknown placeholders drawn
// dashed.
func WriteTriplets(w io.Writer, triplets []dataset.Triplet) error {
	if len(triplets) == 0 {
		return fmt.Errorf("plot: no triplets")
	}

	nodes := make(map[string]bool)
	for _, t := range triplets {
		nodes[t.Subject] = true
		nodes[t.Object] = true
	}

	labels := mergeEdges(triplets, func(t dataset.Triplet) (edgeKey, string) {
		return edgeKey{start: t.Subject, end: t.Object}, t.Relation
	})

	var b strings.Builder
	b.WriteString("digraph triplets {\n")
	b.WriteString("\trankdir=LR;\n")
	b.WriteString("\tnode [shape=ellipse, fontname=\"Helvetica\"];\n")

	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.HasPrefix(name, dataset.UnknownPrefix) {
			fmt.Fprintf(&b, "\t%s [style=dashed];\n", quote(name))
		} else {
			fmt.Fprintf(&b, "\t%s;\n", quote(name))
		}
	}

	writeEdges(&b, labels, func(id string) string { return id })

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// mergeEdges groups edges by endpoint pair, joining relation names in
// first-seen order and dropping duplicates.
func mergeEdges[T any](edges []T, split func(T) (edgeKey, string)) map[edgeKey][]string {
	labels := make(map[edgeKey][]string)
	for _, e := range edges {
		key, name := split(e)
		if containsString(labels[key], name) {
			continue
		}
		labels[key] = append(labels[key], name)
	}
	return labels
}

func writeEdges(b *strings.Builder, labels map[edgeKey][]string, name func(string) string) {
	keys := make([]edgeKey, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	// Order by display name, tie-breaking on raw ids: distinct nodes can
	// share a name, and output must not depend on map iteration.
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if na, nb := name(a.start), name(b.start); na != nb {
			return na < nb
		}
		if na, nb := name(a.end), name(b.end); na != nb {
			return na < nb
		}
		if a.start != b.start {
			return a.start < b.start
		}
		return a.end < b.end
	})

	for _, k := range keys {
		fmt.Fprintf(b, "\t%s -> %s [label=%s];\n",
			quote(name(k.start)), quote(name(k.end)), quote(strings.Join(labels[k], ", ")))
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// quote produces a DOT double-quoted string.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
