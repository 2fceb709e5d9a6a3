package tasks

import (
	"errors"
	"fmt"

	"github.com/mandelsoft/interedit/pkg/sig"
)

// Apply executes a task against its graph.
func Apply(t Task) error {
	switch t := t.(type) {
	case *Addition:
		return add(t.Graph, t.Entity, t.Links)
	case *Removal:
		rels, err := t.Graph.RemoveEntity(t.Entity.Id)
		if err != nil {
			return err
		}
		t.captured = rels
		return nil
	case *Link:
		return t.Graph.AddRelation(t.Source, t.Target, t.Relation)
	case *Unlink:
		return t.Graph.RemoveRelation(t.Relation)
	case *AttributeChange:
		if !t.Graph.Contains(t.Entity.Id) {
			return fmt.Errorf("%s: %w", t.Entity, sig.ErrUnknownEntity)
		}
		t.old = t.Entity.SetAttribute(t.Name, t.Value)
		return nil
	case *Marker:
		return nil
	case *RegionMerge:
		rec, err := t.Sheet.MergeSystems(t.Upper)
		if err != nil {
			return err
		}
		t.record = rec
		return nil
	default:
		return fmt.Errorf("unknown task type %T", t)
	}
}

// Revert reverses the effect of a previously applied task.
func Revert(t Task) error {
	switch t := t.(type) {
	case *Addition:
		_, err := t.Graph.RemoveEntity(t.Entity.Id)
		return err
	case *Removal:
		if err := t.Graph.AddEntity(t.Entity); err != nil {
			return err
		}
		for _, r := range t.captured {
			if err := t.Graph.AddRelation(r.Source, r.Target, r); err != nil {
				return err
			}
		}
		return nil
	case *Link:
		return t.Graph.RemoveRelation(t.Relation)
	case *Unlink:
		return t.Graph.AddRelation(t.Relation.Source, t.Relation.Target, t.Relation)
	case *AttributeChange:
		if !t.Graph.Contains(t.Entity.Id) {
			return fmt.Errorf("%s: %w", t.Entity, sig.ErrUnknownEntity)
		}
		t.Entity.SetAttribute(t.Name, t.old)
		return nil
	case *Marker:
		return nil
	case *RegionMerge:
		if t.record == nil {
			return fmt.Errorf("%s not applied", t)
		}
		return t.Sheet.UnmergeSystems(t.record)
	default:
		return fmt.Errorf("unknown task type %T", t)
	}
}

// add inserts an interpretation with its links. If a link cannot be
// established, the interpretation is removed again.
func add(g *sig.Graph, e *sig.Entity, links []sig.Link) error {
	if err := g.AddEntity(e); err != nil {
		return err
	}
	for _, l := range links {
		src, tgt := l.Partner, e.Id
		if l.Outgoing {
			src, tgt = e.Id, l.Partner
		}
		if err := g.AddRelation(src, tgt, l.Relation); err != nil {
			_, rerr := g.RemoveEntity(e.Id)
			return errors.Join(err, rerr)
		}
	}
	return nil
}
