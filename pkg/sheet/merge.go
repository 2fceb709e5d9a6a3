package sheet

import (
	"fmt"
	"slices"

	"github.com/mandelsoft/interedit/pkg/sig"
)

// MergeRecord describes a performed system merge and is required to
// revert it.
type MergeRecord struct {
	Upper    *System
	Lower    *System
	index    int
	staves   []*Staff
	entities []*sig.Entity
	rels     []*sig.Relation
}

// MergeSystems merges a system with the one below it. Staves and
// interpretations of the lower system are moved into the upper one and
// the lower system disappears.
func (s *Sheet) MergeSystems(upper *System) (*MergeRecord, error) {
	lower := s.SystemBelow(upper)
	if lower == nil {
		return nil, fmt.Errorf("%s has no system below", upper)
	}
	rec := &MergeRecord{
		Upper:    upper,
		Lower:    lower,
		index:    slices.Index(s.systems, lower),
		staves:   slices.Clone(lower.staves),
		entities: lower.graph.Entities(),
	}

	rels, err := moveEntities(lower.graph, upper.graph, rec.entities)
	if err != nil {
		return nil, err
	}
	rec.rels = rels
	for _, st := range rec.staves {
		st.system = upper
	}
	upper.staves = append(upper.staves, rec.staves...)
	lower.staves = nil
	s.systems = slices.Delete(s.systems, rec.index, rec.index+1)
	return rec, nil
}

// UnmergeSystems reverts a system merge.
func (s *Sheet) UnmergeSystems(rec *MergeRecord) error {
	if slices.Contains(s.systems, rec.Lower) {
		return fmt.Errorf("%s is not merged", rec.Lower)
	}
	for _, e := range rec.entities {
		for _, r := range rec.Upper.graph.Relations(e.Id) {
			if !slices.ContainsFunc(rec.entities, func(o *sig.Entity) bool { return o.Id == rec.Upper.graph.Opposite(e.Id, r) }) {
				return fmt.Errorf("%s still related to %d outside merged system", e, rec.Upper.graph.Opposite(e.Id, r))
			}
		}
	}
	if _, err := moveEntities(rec.Upper.graph, rec.Lower.graph, rec.entities); err != nil {
		return err
	}
	rec.Upper.staves = slices.DeleteFunc(rec.Upper.staves, func(st *Staff) bool {
		return slices.Contains(rec.staves, st)
	})
	for _, st := range rec.staves {
		st.system = rec.Lower
	}
	rec.Lower.staves = slices.Clone(rec.staves)
	s.systems = slices.Insert(s.systems, rec.index, rec.Lower)
	return nil
}

// moveEntities moves interpretations together with the relations among
// them from one graph to another, keeping all identities.
func moveEntities(from, to *sig.Graph, entities []*sig.Entity) ([]*sig.Relation, error) {
	var rels []*sig.Relation
	seen := map[sig.RelationId]bool{}
	for _, e := range entities {
		detached, err := from.RemoveEntity(e.Id)
		if err != nil {
			return nil, err
		}
		for _, r := range detached {
			if !seen[r.Id] {
				seen[r.Id] = true
				rels = append(rels, r)
			}
		}
	}
	for _, e := range entities {
		if err := to.AddEntity(e); err != nil {
			return nil, err
		}
	}
	for _, r := range rels {
		if err := to.AddRelation(r.Source, r.Target, r); err != nil {
			return nil, err
		}
	}
	return rels, nil
}
