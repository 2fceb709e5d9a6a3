package edit

import (
	"fmt"
	"slices"

	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/tasks"
	"github.com/mandelsoft/interedit/pkg/utils"
)

// Link adds a relation between two interpretations of a system.
// Relations conflicting with the cardinality of the new one are
// removed. Linking a head of a chord to a stem may move the head to
// the stem chord or mirror it.
func (c *Controller) Link(sys *sheet.System, source, target *sig.Entity, rel *sig.Relation) *Job {
	name := fmt.Sprintf("link %s", rel.Kind)
	return c.perform(name, nil, func(list *tasks.TaskList) error {
		g := sys.Graph()
		for _, e := range []*sig.Entity{source, target} {
			if e.Removed || !g.Contains(e.Id) {
				return fmt.Errorf("%s in %s: %w", e, sys, sig.ErrUnknownEntity)
			}
		}
		if rel.Kind == sig.REL_HEAD_STEM && (source.Kind != sig.KIND_HEAD || target.Kind != sig.KIND_STEM) {
			return fmt.Errorf("%s requires head and stem: %w", rel.Kind, ErrInvalidRequest)
		}
		if g.RelationBetween(source.Id, target.Id, rel.Kind) != nil {
			c.log.Info("{{source}} and {{target}} already linked", "source", source.String(), "target", target.String())
			return nil
		}

		src := source
		if rel.Kind == sig.REL_HEAD_STEM && g.Chord(source.Id) != nil {
			src = c.preHeadStemLink(list, g, source, target)
		}
		c.removeConflictingRelations(list, g, src != source, src, target, rel.Kind)
		list.Add(tasks.NewLink(g, src.Id, target.Id, rel))
		return nil
	})
}

// Unlink removes a relation.
func (c *Controller) Unlink(sys *sheet.System, rel *sig.Relation) *Job {
	return c.perform(fmt.Sprintf("unlink %s", rel.Kind), nil, func(list *tasks.TaskList) error {
		if sys.Graph().Relation(rel.Id) != rel {
			return fmt.Errorf("%s in %s: %w", rel, sys, sig.ErrUnknownRelation)
		}
		list.Add(tasks.NewUnlink(sys.Graph(), rel))
		return nil
	})
}

// preHeadStemLink prepares linking a head already part of a chord to a
// stem. For a canonical share (down stem left, up stem right) the head
// is mirrored into the stem chord. If the resulting configuration is
// not compatible, the head migrates to the stem chord. It returns the
// head to link.
func (c *Controller) preHeadStemLink(list *tasks.TaskList, g *sig.Graph, head, stem *sig.Entity) *sig.Entity {
	headChord := g.Chord(head.Id)
	stemChords := g.StemChords(stem.Id)
	var stemChord *sig.Entity
	if len(stemChords) > 0 {
		stemChord = stemChords[0]
	}
	headStem := g.ChordStem(headChord.Id)

	var sharing bool
	if stem.Center().X < head.Center().X {
		sharing = isCanonicalShare(stem, head, headStem)
	} else {
		sharing = isCanonicalShare(headStem, head, stem)
	}

	if sharing {
		mirror := head.Duplicate(g.IdSource())
		list.Add(tasks.NewAddition(g, mirror, sig.Link{Partner: head.Id, Relation: sig.NewRelation(sig.REL_MIRROR), Outgoing: false}))
		if stemChord == nil {
			stemChord = c.buildStemChord(list, g, stem)
		}
		list.Add(tasks.NewLink(g, stemChord.Id, mirror.Id, sig.NewRelation(sig.REL_CONTAINMENT)))
		c.log.Debug("mirror {{head}} as {{mirror}}", "head", head.String(), "mirror", mirror.String())
		return mirror
	}

	if (len(stemChords) == 0 && headStem != nil) || (len(stemChords) > 0 && !slices.Contains(stemChords, headChord)) {
		if r := g.RelationBetween(headChord.Id, head.Id, sig.REL_CONTAINMENT); r != nil {
			list.Add(tasks.NewUnlink(g, r))
		}
		if len(g.Notes(headChord.Id)) <= 1 {
			list.Add(tasks.NewRemoval(g, headChord))
		}
		if stemChord == nil {
			stemChord = c.buildStemChord(list, g, stem)
		}
		list.Add(tasks.NewLink(g, stemChord.Id, head.Id, sig.NewRelation(sig.REL_CONTAINMENT)))
		c.log.Debug("move {{head}} from {{from}} to {{to}}", "head", head.String(), "from", headChord.String(), "to", stemChord.String())
	}
	return head
}

// isCanonicalShare checks for a head shared by a down stem on its left
// side and an up stem on its right side.
func isCanonicalShare(left, head, right *sig.Entity) bool {
	if left == nil || right == nil || left == right {
		return false
	}
	y := head.Center().Y
	return left.Center().Y > y && right.Center().Y < y
}

// removeConflictingRelations removes the relations which would violate
// the cardinality of a relation to be added.
func (c *Controller) removeConflictingRelations(list *tasks.TaskList, g *sig.Graph, sourceIsNew bool, source, target *sig.Entity, kind *sig.RelationKind) {
	for _, r := range conflictingRelations(g, sourceIsNew, source, target, kind) {
		list.Add(tasks.NewUnlink(g, r))
	}
}

// conflictingRelations returns the existing relations a new relation of
// the given kind from source to target would conflict with.
func conflictingRelations(g *sig.Graph, sourceIsNew bool, source, target *sig.Entity, kind *sig.RelationKind) []*sig.Relation {
	toRemove := utils.NewOrderedSet[*sig.Relation]()

	// slur to head is single target per slur side
	if kind == sig.REL_SLUR_HEAD {
		left := target.Center().X < source.Center().X
		for _, r := range g.Outgoing(source.Id, kind) {
			if other := g.Target(r); other != nil && (other.Center().X < source.Center().X) == left {
				toRemove.Add(r)
			}
		}
	}

	if kind.SingleSource {
		toRemove.Add(g.Incoming(target.Id, kind)...)
	}

	if kind.SingleTarget && !sourceIsNew {
		// a dot may augment both mirrored heads
		var keep *sig.Relation
		if kind == sig.REL_AUGMENTATION && target.Kind == sig.KIND_HEAD {
			if mirror := g.Mirror(target.Id); mirror != nil {
				keep = g.RelationBetween(source.Id, mirror.Id, kind)
			}
		}
		for _, r := range g.Outgoing(source.Id, kind) {
			if r != keep {
				toRemove.Add(r)
			}
		}
	}

	return toRemove.List()
}
