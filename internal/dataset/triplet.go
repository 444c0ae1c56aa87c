package dataset

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Triplet is one (subject, relation, object) knowledge-graph edge.
// Unknown placeholders (unknown_0, unknown_1, ...) stand in for entities
// the claim implies but never names.
type Triplet struct {
	Subject  string
	Relation string
	Object   string
}

// UnknownPrefix marks placeholder entities in generated triplets.
const UnknownPrefix = "unknown_"

// IsUnknown reports whether an entity is a generated placeholder.
func IsUnknown(entity string) bool {
	return strings.HasPrefix(entity, UnknownPrefix)
}

// MarshalJSON encodes the triplet as a 3-element array, matching the
// published "with triplets" split files.
func (t Triplet) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{t.Subject, t.Relation, t.Object})
}

// UnmarshalJSON decodes the 3-element array form.
func (t *Triplet) UnmarshalJSON(data []byte) error {
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("triplet must have 3 elements, got %d", len(parts))
	}
	t.Subject, t.Relation, t.Object = parts[0], parts[1], parts[2]
	return nil
}

// String renders the tagged ERE form used in LLM prompts and responses.
// Placeholders stay untagged so they read as tokens, not entities.
func (t Triplet) String() string {
	return fmt.Sprintf("%s || %s || %s", tagEntity(t.Subject), t.Relation, tagEntity(t.Object))
}

func tagEntity(e string) string {
	if IsUnknown(e) {
		return e
	}
	return "<e>" + e + "</e>"
}

var (
	taggedEntityRe = regexp.MustCompile(`(?i)<e>\s*(.*?)\s*</e>`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	leadingTildeRe = regexp.MustCompile(`^~\s*`)
)

// ParseTriplet parses a single ERE string into a Triplet.
//
// Entities are either tagged ("<e>Entity Name</e>") or raw tokens
// ("unknown_0"). The relation may be negated with a leading '~'; spaces
// between '~' and the relation are removed and internal whitespace is
// collapsed to a single space.
//
//	"<e>Ent1</e> || relation || <e>Ent2</e>"          -> (Ent1, relation, Ent2)
//	"unknown_0 || ~ birth place || <e>Vedat Tek</e>"  -> (unknown_0, ~birth place, Vedat Tek)
func ParseTriplet(s string) (Triplet, error) {
	parts := strings.Split(s, "||")
	if len(parts) != 3 {
		return Triplet{}, fmt.Errorf("expected 3 parts separated by '||', got %d: %q", len(parts), s)
	}

	relation := whitespaceRe.ReplaceAllString(strings.TrimSpace(parts[1]), " ")
	relation = leadingTildeRe.ReplaceAllString(relation, "~")

	return Triplet{
		Subject:  extractEntity(parts[0]),
		Relation: relation,
		Object:   extractEntity(parts[2]),
	}, nil
}

// ParseTriplets parses a response containing several ERE strings separated
// by ';' or newlines, skipping empty segments.
func ParseTriplets(s string) ([]Triplet, error) {
	segments := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == '\n'
	})

	var triplets []Triplet
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		t, err := ParseTriplet(seg)
		if err != nil {
			return nil, err
		}
		triplets = append(triplets, t)
	}
	if len(triplets) == 0 {
		return nil, fmt.Errorf("no triplets found in %q", s)
	}
	return triplets, nil
}

func extractEntity(part string) string {
	if m := taggedEntityRe.FindStringSubmatch(part); m != nil {
		return m[1]
	}
	return strings.TrimSpace(part)
}
