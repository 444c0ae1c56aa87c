package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Options controls triplet generation.
type Options struct {
	// RemoveUnderscore replaces '_' with ' ' in entity names. Placeholders
	// are never rewritten.
	RemoveUnderscore bool
}

// GenerateTriplets builds the pseudo-subgraph triplet list for a sample
// and stores it on the sample.
//
// Single-entity claims pair the entity with one fresh unknown_0 tail for
// every evidence relation. Claims with two or more entities fan each
// relation out from its head entity to every other node; evidence keys
// that never appear in the entity set become stable unknown_i placeholders.
// A "~" relation prefix inverts subject and object. The result is
// deduplicated preserving first-seen order.
func GenerateTriplets(sample *Sample, opts Options) error {
	if sample == nil {
		return fmt.Errorf("nil sample")
	}
	if len(sample.EntitySet) == 0 {
		return fmt.Errorf("sample has no entities")
	}

	norm := func(e string) string {
		if !opts.RemoveUnderscore || IsUnknown(e) {
			return e
		}
		return strings.ReplaceAll(e, "_", " ")
	}

	unknownCounter := 0
	newUnknown := func() string {
		u := fmt.Sprintf("%s%d", UnknownPrefix, unknownCounter)
		unknownCounter++
		return u
	}

	// Evidence keys in sorted order: map iteration order must not leak
	// into the generated placeholders or triplet order.
	evidenceKeys := make([]string, 0, len(sample.Evidence))
	for k := range sample.Evidence {
		evidenceKeys = append(evidenceKeys, k)
	}
	sort.Strings(evidenceKeys)

	var triplets []Triplet

	if len(sample.EntitySet) == 1 {
		// Existence-style claim: one entity, everything else implicit.
		head := norm(sample.EntitySet[0])
		tail := newUnknown()
		for _, key := range evidenceKeys {
			for _, relGroup := range sample.Evidence[key] {
				for _, r := range relGroup {
					if rel, inverted := strings.CutPrefix(r, "~"); inverted {
						triplets = append(triplets, Triplet{Subject: tail, Relation: rel, Object: head})
					} else {
						triplets = append(triplets, Triplet{Subject: head, Relation: r, Object: tail})
					}
				}
			}
		}
		sample.Triplets = dedupe(triplets)
		return nil
	}

	explicit := make(map[string]bool, len(sample.EntitySet))
	for _, e := range sample.EntitySet {
		explicit[e] = true
	}

	// Implicit nodes labeled in evidence but absent from the entity set
	// become placeholders, assigned in sorted key order.
	unknowns := make(map[string]string)
	for _, key := range evidenceKeys {
		if !explicit[key] {
			unknowns[key] = newUnknown()
		}
	}

	resolve := func(e string) string {
		if explicit[e] {
			return norm(e)
		}
		if u, ok := unknowns[e]; ok {
			return u
		}
		return norm(e)
	}

	allNodes := make([]string, 0, len(sample.EntitySet)+len(unknowns))
	for _, e := range sample.EntitySet {
		allNodes = append(allNodes, norm(e))
	}
	for _, key := range evidenceKeys {
		if u, ok := unknowns[key]; ok {
			allNodes = append(allNodes, u)
		}
	}

	for _, key := range evidenceKeys {
		head := resolve(key)
		var tails []string
		for _, node := range allNodes {
			if node != head {
				tails = append(tails, node)
			}
		}

		for _, relGroup := range sample.Evidence[key] {
			for _, r := range relGroup {
				if rel, inverted := strings.CutPrefix(r, "~"); inverted {
					for _, t := range tails {
						triplets = append(triplets, Triplet{Subject: t, Relation: rel, Object: head})
					}
				} else {
					for _, t := range tails {
						triplets = append(triplets, Triplet{Subject: head, Relation: r, Object: t})
					}
				}
			}
		}
	}

	sample.Triplets = dedupe(triplets)
	return nil
}

func dedupe(triplets []Triplet) []Triplet {
	seen := make(map[Triplet]bool, len(triplets))
	out := triplets[:0]
	for _, t := range triplets {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
