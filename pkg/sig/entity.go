package sig

import (
	"fmt"
	"image"
	"maps"
	"sync/atomic"

	"github.com/mandelsoft/interedit/pkg/geom"
)

type EntityId uint64

type RelationId uint64

// StaffId identifies a staff of a sheet. 0 means no staff.
type StaffId int

// GlyphId identifies the raw evidence (glyph) an interpretation was
// derived from. 0 means no glyph.
type GlyphId int

const (
	ATTR_VALUE = "value"
	ATTR_ROLE  = "role"
)

// IdSource hands out identifiers unique for all graphs sharing it.
// A sheet uses one source for all its systems, so that interpretations
// can move between graphs when systems are merged.
type IdSource struct {
	entities  atomic.Uint64
	relations atomic.Uint64
}

func NewIdSource() *IdSource {
	return &IdSource{}
}

func (s *IdSource) NextEntityId() EntityId {
	return EntityId(s.entities.Add(1))
}

func (s *IdSource) NextRelationId() RelationId {
	return RelationId(s.relations.Add(1))
}

// Reserve makes sure that the given ids are never handed out again.
func (s *IdSource) Reserve(e EntityId) {
	for {
		cur := s.entities.Load()
		if cur >= uint64(e) || s.entities.CompareAndSwap(cur, uint64(e)) {
			return
		}
	}
}

// NewEntity creates a new interpretation of the given kind with a fresh id.
// It is not yet part of any graph.
func (s *IdSource) NewEntity(kind Kind) *Entity {
	return &Entity{
		Id:   s.NextEntityId(),
		Kind: kind,
	}
}

////////////////////////////////////////////////////////////////////////////////

// Entity is a node of the symbol interpretation graph.
type Entity struct {
	Id     EntityId        `json:"id"`
	Kind   Kind            `json:"kind"`
	Bounds image.Rectangle `json:"bounds"`
	Staff  StaffId         `json:"staff,omitempty"`
	Glyph  GlyphId         `json:"glyph,omitempty"`
	Grade  float64         `json:"grade,omitempty"`
	Manual bool            `json:"manual,omitempty"`

	// Area is the pre-computed area of barline kinds.
	Area *image.Rectangle `json:"area,omitempty"`
	// Median is an explicit center line, used for stems and barlines.
	// If not set, the vertical median of the bounds is used.
	Median *geom.Line `json:"median,omitempty"`

	Attributes map[string]string `json:"attributes,omitempty"`

	// Removed is the tombstone flag. It is set while the
	// interpretation is not part of its graph.
	Removed bool `json:"-"`
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s#%d", e.Kind, e.Id)
}

func (e *Entity) Center() image.Point {
	return geom.Center(e.Bounds)
}

func (e *Entity) GetMedian() geom.Line {
	if e.Median != nil {
		return *e.Median
	}
	return geom.VerticalMedian(e.Bounds)
}

func (e *Entity) Attribute(name string) string {
	return e.Attributes[name]
}

// SetAttribute sets an attribute value and returns the old one.
// An empty value deletes the attribute.
func (e *Entity) SetAttribute(name, value string) string {
	old := e.Attributes[name]
	if value == "" {
		delete(e.Attributes, name)
		return old
	}
	if e.Attributes == nil {
		e.Attributes = map[string]string{}
	}
	e.Attributes[name] = value
	return old
}

// Duplicate returns a manual copy of the interpretation with a new id,
// used to represent an alternate interpretation of the same evidence.
func (e *Entity) Duplicate(ids *IdSource) *Entity {
	n := *e
	n.Id = ids.NextEntityId()
	n.Attributes = maps.Clone(e.Attributes)
	n.Manual = true
	n.Removed = false
	return &n
}

////////////////////////////////////////////////////////////////////////////////

// Relation is a typed directed edge between two interpretations.
// Source and Target are assigned when the relation is added to a graph.
type Relation struct {
	Id     RelationId    `json:"id"`
	Kind   *RelationKind `json:"-"`
	Source EntityId      `json:"source"`
	Target EntityId      `json:"target"`
	Grade  float64       `json:"grade,omitempty"`
}

func NewRelation(kind *RelationKind) *Relation {
	return &Relation{Kind: kind}
}

func (r *Relation) String() string {
	return fmt.Sprintf("%s#%d(%d->%d)", r.Kind.Name, r.Id, r.Source, r.Target)
}

// Duplicate returns an equivalent relation not yet bound to any endpoints.
func (r *Relation) Duplicate() *Relation {
	return &Relation{Kind: r.Kind, Grade: r.Grade}
}

// Link describes a relation to be established with a partner when an
// interpretation is added to a graph.
type Link struct {
	Partner  EntityId
	Relation *Relation
	// Outgoing is true when the added interpretation is the source.
	Outgoing bool
}

func (l Link) String() string {
	dir := "<-"
	if l.Outgoing {
		dir = "->"
	}
	return fmt.Sprintf("%s%s%d", l.Relation.Kind.Name, dir, l.Partner)
}
