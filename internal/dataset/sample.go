// Package dataset loads FactKG claim splits and generates pseudo-subgraph
// triplets from claim evidence. A split is a JSON map keyed by claim text;
// the augmented "with triplets" variants carry an extra triplet list per
// sample.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Sample is one FactKG claim record.
//
// Evidence maps each mentioned entity to one or more relation paths. A
// relation "r" reads head --r--> tail; a "~r" prefix inverts the direction.
type Sample struct {
	Label     []bool                `json:"Label"`
	EntitySet []string              `json:"Entity_set"`
	Evidence  map[string][][]string `json:"Evidence"`
	Types     []string              `json:"types,omitempty"`
	Triplets  []Triplet             `json:"triplet,omitempty"`
}

// Split is a full dataset split (train/test/dev), keyed by claim text.
type Split map[string]*Sample

// LoadSplit reads a split file.
func LoadSplit(path string) (Split, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read split: %w", err)
	}

	var split Split
	if err := json.Unmarshal(data, &split); err != nil {
		return nil, fmt.Errorf("failed to parse split %s: %w", path, err)
	}
	return split, nil
}

// WriteSplit writes a split file. Output is indented so the augmented
// variants stay diffable against the published ones.
func WriteSplit(path string, split Split) error {
	data, err := json.MarshalIndent(split, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal split: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write split: %w", err)
	}
	return nil
}

// Stats summarizes a split.
type Stats struct {
	Records      int
	WithTriplets int
	Triplets     int
}

// Stats counts records and triplet coverage.
func (s Split) Stats() Stats {
	var st Stats
	st.Records = len(s)
	for _, sample := range s {
		if len(sample.Triplets) > 0 {
			st.WithTriplets++
			st.Triplets += len(sample.Triplets)
		}
	}
	return st
}

// Claims returns the claim keys in sorted order. Map iteration is not
// deterministic; processing and output need a stable order.
func (s Split) Claims() []string {
	claims := make([]string, 0, len(s))
	for claim := range s {
		claims = append(claims, claim)
	}
	sort.Strings(claims)
	return claims
}
