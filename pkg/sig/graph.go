package sig

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/mandelsoft/interedit/pkg/geom"
)

var (
	ErrUnknownEntity   = errors.New("unknown interpretation")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrDuplicate       = errors.New("already present")
)

// Graph is the symbol interpretation graph of one system.
// It stores interpretations and relations in an arena keyed by
// identifiers and does not validate any domain invariants.
//
// A Graph is not synchronized, callers have to serialize mutations.
type Graph struct {
	name      string
	ids       *IdSource
	entities  map[EntityId]*Entity
	relations map[RelationId]*Relation
	outgoing  map[EntityId][]RelationId
	incoming  map[EntityId][]RelationId
}

func NewGraph(name string, ids *IdSource) *Graph {
	if ids == nil {
		ids = NewIdSource()
	}
	return &Graph{
		name:      name,
		ids:       ids,
		entities:  map[EntityId]*Entity{},
		relations: map[RelationId]*Relation{},
		outgoing:  map[EntityId][]RelationId{},
		incoming:  map[EntityId][]RelationId{},
	}
}

func (g *Graph) Name() string {
	return g.name
}

func (g *Graph) IdSource() *IdSource {
	return g.ids
}

func (g *Graph) String() string {
	return fmt.Sprintf("sig %s", g.name)
}

// NewEntity creates a new interpretation with an id unique for the
// id source of the graph. It is not added to the graph.
func (g *Graph) NewEntity(kind Kind) *Entity {
	return g.ids.NewEntity(kind)
}

func (g *Graph) Entity(id EntityId) *Entity {
	return g.entities[id]
}

func (g *Graph) Contains(id EntityId) bool {
	return g.entities[id] != nil
}

// Entities returns all interpretations ordered by id.
func (g *Graph) Entities() []*Entity {
	list := make([]*Entity, 0, len(g.entities))
	for _, e := range g.entities {
		list = append(list, e)
	}
	slices.SortFunc(list, compareEntities)
	return list
}

func (g *Graph) Relation(id RelationId) *Relation {
	return g.relations[id]
}

func (g *Graph) RelationCount() int {
	return len(g.relations)
}

func (g *Graph) AddEntity(e *Entity) error {
	if e.Id == 0 {
		e.Id = g.ids.NextEntityId()
	}
	if g.entities[e.Id] != nil {
		return fmt.Errorf("%s in %s: %w", e, g, ErrDuplicate)
	}
	g.ids.Reserve(e.Id)
	e.Removed = false
	g.entities[e.Id] = e
	return nil
}

// RemoveEntity removes an interpretation together with all its incident
// relations, which are returned.
func (g *Graph) RemoveEntity(id EntityId) ([]*Relation, error) {
	e := g.entities[id]
	if e == nil {
		return nil, fmt.Errorf("%d in %s: %w", id, g, ErrUnknownEntity)
	}
	rels := g.Relations(id)
	for _, r := range rels {
		g.detach(r)
	}
	delete(g.outgoing, id)
	delete(g.incoming, id)
	delete(g.entities, id)
	e.Removed = true
	return rels, nil
}

// AddRelation inserts a relation between source and target. Cardinality
// constraints are not checked.
func (g *Graph) AddRelation(src, tgt EntityId, r *Relation) error {
	for _, id := range []EntityId{src, tgt} {
		e := g.entities[id]
		if e == nil || e.Removed {
			return fmt.Errorf("%s endpoint %d in %s: %w", r.Kind, id, g, ErrUnknownEntity)
		}
	}
	if r.Id == 0 {
		r.Id = g.ids.NextRelationId()
	}
	if g.relations[r.Id] != nil {
		return fmt.Errorf("relation %s in %s: %w", r, g, ErrDuplicate)
	}
	r.Source = src
	r.Target = tgt
	g.relations[r.Id] = r
	g.outgoing[src] = append(g.outgoing[src], r.Id)
	g.incoming[tgt] = append(g.incoming[tgt], r.Id)
	return nil
}

func (g *Graph) RemoveRelation(r *Relation) error {
	if g.relations[r.Id] == nil {
		return fmt.Errorf("%s in %s: %w", r, g, ErrUnknownRelation)
	}
	g.detach(r)
	return nil
}

func (g *Graph) detach(r *Relation) {
	delete(g.relations, r.Id)
	g.outgoing[r.Source] = removeId(g.outgoing[r.Source], r.Id)
	g.incoming[r.Target] = removeId(g.incoming[r.Target], r.Id)
}

func removeId(list []RelationId, id RelationId) []RelationId {
	if i := slices.Index(list, id); i >= 0 {
		return slices.Delete(slices.Clone(list), i, i+1)
	}
	return list
}

////////////////////////////////////////////////////////////////////////////////
// queries

func matches(r *Relation, kinds []*RelationKind) bool {
	return len(kinds) == 0 || slices.Contains(kinds, r.Kind)
}

func (g *Graph) collect(ids []RelationId, kinds []*RelationKind) []*Relation {
	var list []*Relation
	for _, id := range ids {
		if r := g.relations[id]; r != nil && matches(r, kinds) {
			list = append(list, r)
		}
	}
	return list
}

// Relations returns the relations incident to an interpretation
// (outgoing first), optionally filtered by kind.
func (g *Graph) Relations(id EntityId, kinds ...*RelationKind) []*Relation {
	return append(g.collect(g.outgoing[id], kinds), g.collect(g.incoming[id], kinds)...)
}

func (g *Graph) Outgoing(id EntityId, kinds ...*RelationKind) []*Relation {
	return g.collect(g.outgoing[id], kinds)
}

func (g *Graph) Incoming(id EntityId, kinds ...*RelationKind) []*Relation {
	return g.collect(g.incoming[id], kinds)
}

// RelationBetween returns the relation of the given kind from src to tgt,
// or nil.
func (g *Graph) RelationBetween(src, tgt EntityId, kind *RelationKind) *Relation {
	for _, r := range g.collect(g.outgoing[src], []*RelationKind{kind}) {
		if r.Target == tgt {
			return r
		}
	}
	return nil
}

// Opposite returns the other endpoint of a relation incident to id.
func (g *Graph) Opposite(id EntityId, r *Relation) EntityId {
	if r.Source == id {
		return r.Target
	}
	return r.Source
}

func (g *Graph) Source(r *Relation) *Entity {
	return g.entities[r.Source]
}

func (g *Graph) Target(r *Relation) *Entity {
	return g.entities[r.Target]
}

// Intersecting returns the interpretations whose bounds intersect the
// given region, ordered by id.
func (g *Graph) Intersecting(region image.Rectangle) []*Entity {
	var list []*Entity
	for _, e := range g.entities {
		if geom.Intersects(e.Bounds, region) {
			list = append(list, e)
		}
	}
	slices.SortFunc(list, compareEntities)
	return list
}

// Members returns the members of an ensemble in containment order.
func (g *Graph) Members(ensemble EntityId) []*Entity {
	var list []*Entity
	for _, r := range g.Outgoing(ensemble, REL_CONTAINMENT) {
		list = append(list, g.entities[r.Target])
	}
	return list
}

// Ensembles returns the ensembles containing an interpretation.
func (g *Graph) Ensembles(member EntityId) []*Entity {
	var list []*Entity
	for _, r := range g.Incoming(member, REL_CONTAINMENT) {
		list = append(list, g.entities[r.Source])
	}
	return list
}

// Chord returns the (first) chord a note belongs to or nil.
func (g *Graph) Chord(note EntityId) *Entity {
	for _, e := range g.Ensembles(note) {
		if e.Kind.IsChord() {
			return e
		}
	}
	return nil
}

// Notes returns the members of a chord ordered by descending center
// ordinate, i.e. bottom up.
func (g *Graph) Notes(chord EntityId) []*Entity {
	list := g.Members(chord)
	slices.SortStableFunc(list, ByReverseCenterOrdinate)
	return list
}

// ChordStem returns the stem of a head chord or nil.
func (g *Graph) ChordStem(chord EntityId) *Entity {
	for _, r := range g.Outgoing(chord, REL_CHORD_STEM) {
		return g.entities[r.Target]
	}
	return nil
}

// StemChords returns the chords using the given stem.
func (g *Graph) StemChords(stem EntityId) []*Entity {
	var list []*Entity
	for _, r := range g.Incoming(stem, REL_CHORD_STEM) {
		list = append(list, g.entities[r.Source])
	}
	return list
}

// Mirror returns the alternate interpretation linked by a mirror relation
// or nil.
func (g *Graph) Mirror(id EntityId) *Entity {
	for _, r := range g.Relations(id, REL_MIRROR) {
		return g.entities[g.Opposite(id, r)]
	}
	return nil
}

func compareEntities(a, b *Entity) int {
	return cmp.Compare(a.Id, b.Id)
}

// ByReverseCenterOrdinate orders interpretations bottom up.
func ByReverseCenterOrdinate(a, b *Entity) int {
	if c := cmp.Compare(b.Center().Y, a.Center().Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Id, b.Id)
}

// ByCenterOrdinate orders interpretations top down.
func ByCenterOrdinate(a, b *Entity) int {
	return ByReverseCenterOrdinate(b, a)
}
