// Package patterns holds the hierarchical extraction pattern library:
// document type -> sub-collection (format/vendor) -> named pattern.
package patterns

// SearchDirection tells the matcher where the value sits relative to the
// anchor keyword.
type SearchDirection string

const (
	// DirectionRight takes row-aligned boxes past the anchor's right edge.
	DirectionRight SearchDirection = "right"
	// DirectionBelow takes column-aligned boxes past the anchor's bottom edge.
	DirectionBelow SearchDirection = "below"
	// DirectionArea ignores the anchor and takes boxes inside Region.
	DirectionArea SearchDirection = "area"
)

// Region is a normalized [0,1] rectangle used by area patterns.
type Region struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// SearchPattern is one named extraction rule. The matcher finds an anchor box
// by keyword (any of Keywords, case-insensitive), then collects value boxes in
// Direction within Tolerance, keeps those at or above MinConfidence, and joins
// their texts with Separator.
type SearchPattern struct {
	Name          string          `json:"name"`
	Keywords      []string        `json:"keywords,omitempty"`
	ExactKeyword  bool            `json:"exact_keyword,omitempty"`
	Direction     SearchDirection `json:"direction"`
	Tolerance     float64         `json:"tolerance,omitempty"`
	Region        *Region         `json:"region,omitempty"`
	MinConfidence float64         `json:"min_confidence,omitempty"`
	Separator     string          `json:"separator,omitempty"`
	MaxBoxes      int             `json:"max_boxes,omitempty"`
}

// EffectiveTolerance returns the pattern's tolerance, or fallback when the
// pattern carries none.
func (p *SearchPattern) EffectiveTolerance(fallback float64) float64 {
	if p.Tolerance > 0 {
		return p.Tolerance
	}
	return fallback
}

// SubCollection is the set of named patterns for one slip format or vendor.
type SubCollection struct {
	Name     string                    `json:"name"`
	DualLang bool                      `json:"dual_lang,omitempty"`
	Patterns map[string]*SearchPattern `json:"patterns"`
}

// Collection groups the sub-collections of one document type.
type Collection struct {
	Name           string                    `json:"name"`
	SubCollections map[string]*SubCollection `json:"sub_collections"`
}

// Library is the whole pattern store. It is loaded, mutated, and persisted as
// one unit; names are unique within their parent map.
type Library struct {
	Collections map[string]*Collection `json:"collections"`
}

// NewLibrary returns an empty library. Callers must treat an empty library
// and a never-initialized library identically.
func NewLibrary() *Library {
	return &Library{Collections: make(map[string]*Collection)}
}

// Collection returns the named collection, or nil.
func (l *Library) Collection(name string) *Collection {
	return l.Collections[name]
}

// EnsureCollection returns the named collection, creating it if absent.
func (l *Library) EnsureCollection(name string) *Collection {
	if c, ok := l.Collections[name]; ok {
		return c
	}
	c := &Collection{Name: name, SubCollections: make(map[string]*SubCollection)}
	l.Collections[name] = c
	return c
}

// SubCollection returns the named sub-collection of a collection, or nil.
func (l *Library) SubCollection(collection, sub string) *SubCollection {
	c := l.Collections[collection]
	if c == nil {
		return nil
	}
	return c.SubCollections[sub]
}

// EnsureSubCollection returns the named sub-collection, creating the
// collection and sub-collection as needed.
func (l *Library) EnsureSubCollection(collection, sub string) *SubCollection {
	c := l.EnsureCollection(collection)
	if s, ok := c.SubCollections[sub]; ok {
		return s
	}
	s := &SubCollection{Name: sub, Patterns: make(map[string]*SearchPattern)}
	c.SubCollections[sub] = s
	return s
}

// PruneEmpty removes sub-collections with zero patterns and collections with
// zero sub-collections. Run as an explicit maintenance pass after deletes.
func (l *Library) PruneEmpty() {
	for cname, c := range l.Collections {
		for sname, s := range c.SubCollections {
			if len(s.Patterns) == 0 {
				delete(c.SubCollections, sname)
			}
		}
		if len(c.SubCollections) == 0 {
			delete(l.Collections, cname)
		}
	}
}
