package edit

import (
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/mandelsoft/interedit/pkg/geom"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/tasks"
	"github.com/mandelsoft/interedit/pkg/utils"
	"github.com/mandelsoft/interedit/pkg/watch"
)

// AddEntities adds interpretations whose staff and bounds are already
// set. Once measures exist, staff barlines can only be added for the
// whole system height, which has to be confirmed.
func (c *Controller) AddEntities(entities []*sig.Entity, opts ...tasks.Option) *Job {
	const name = "add entities"
	if len(entities) == 0 {
		return completedJob(name, watch.OP_DO, &Result{List: tasks.NewTaskList(name), Operation: watch.OP_DO}, nil)
	}

	if !slices.Contains(opts, tasks.OPT_VALIDATED) {
		c.sheet.RLock()
		closure, err := c.additionClosure(entities)
		c.sheet.RUnlock()
		if err != nil {
			return c.abort(name, err)
		}
		if closure != nil {
			n := countKind(closure, sig.KIND_STAFF_BARLINE)
			if !c.confirm("Do you confirm whole system-height addition?", fmt.Sprintf("Insertion of %d barline(s)", n)) {
				return c.abort(name, ErrAborted)
			}
			return c.AddEntities(closure, tasks.OPT_VALIDATED, tasks.OPT_FORCE_UPDATE)
		}
	}

	return c.perform(name, opts, func(list *tasks.TaskList) error {
		return c.buildAddition(list, entities)
	})
}

// additionClosure returns the interpretations to add instead of the
// requested ones if a staff barline has to be extended to the whole
// system, or nil.
func (c *Controller) additionClosure(entities []*sig.Entity) ([]*sig.Entity, error) {
	if c.sheet.LatestStep() < sheet.STEP_MEASURES {
		return nil, nil
	}
	i := slices.IndexFunc(entities, func(e *sig.Entity) bool { return e.Kind == sig.KIND_STAFF_BARLINE })
	if i < 0 {
		return nil, nil
	}
	bar := entities[i]
	staff := c.sheet.Staff(bar.Staff)
	if staff == nil {
		return nil, fmt.Errorf("%s: %w", bar, ErrNoStaff)
	}

	var closure []*sig.Entity
	for _, e := range entities {
		if e.Kind != sig.KIND_STAFF_BARLINE {
			closure = append(closure, e)
		}
	}

	center := bar.Center()
	w, h := bar.Bounds.Dx(), bar.Bounds.Dy()
	for _, st := range staff.System().Staves() {
		if st == staff {
			closure = append(closure, bar)
			continue
		}
		cx := float64(center.X)
		y := (st.FirstLineY(cx) + st.LastLineY(cx)) / 2
		x := cx - (y-float64(center.Y))*c.sheet.Slope()

		e := c.sheet.IdSource().NewEntity(bar.Kind)
		e.Bounds = geom.Box(image.Pt(int(math.Round(x)), int(math.Round(y))), w, h)
		e.Staff = st.Id()
		e.Manual = true
		closure = append(closure, e)
	}
	return closure, nil
}

type ghost struct {
	entity *sig.Entity
	system *sheet.System
	links  []sig.Link
}

func (c *Controller) buildAddition(list *tasks.TaskList, entities []*sig.Entity) error {
	var ghosts []ghost
	var competitors []*sig.Entity

	for _, e := range entities {
		sys := c.sheet.SystemOf(e)
		if sys == nil {
			return fmt.Errorf("%s: %w", e, ErrNoStaff)
		}
		if sys.Graph().Contains(e.Id) {
			return fmt.Errorf("%s: %w", e, sig.ErrDuplicate)
		}
		if e.Kind.IsBarline() && e.Area == nil {
			e.Area = utils.Pointer(e.Bounds)
		}
		// a glyph supports only one interpretation
		competitors = append(competitors, c.competitors(sys, e)...)
		ghosts = append(ghosts, ghost{e, sys, c.searcher.SearchLinks(e, sys, true)})
	}

	removed, err := c.populateRemovals(list, competitors)
	if err != nil {
		return err
	}
	for i := range ghosts {
		ghosts[i].links = slices.DeleteFunc(ghosts[i].links, func(l sig.Link) bool { return removed[l.Partner] })
	}
	c.resolveGhostConflicts(list, ghosts, removed)
	c.addGhosts(list, ghosts)
	return nil
}

type claim struct {
	partner  sig.EntityId
	kind     *sig.RelationKind
	outgoing bool
}

// resolveGhostConflicts keeps the cardinality of the partners of the new
// interpretations. Existing conflicting relations are removed, and a
// partner side of a single kind is linked to the first ghost only.
func (c *Controller) resolveGhostConflicts(list *tasks.TaskList, ghosts []ghost, removed map[sig.EntityId]bool) {
	claimed := map[claim]bool{}
	unlinked := map[*sig.Relation]bool{}

	for i := range ghosts {
		gh := &ghosts[i]
		g := gh.system.Graph()
		gh.links = slices.DeleteFunc(gh.links, func(l sig.Link) bool {
			kind := l.Relation.Kind
			if (l.Outgoing && !kind.SingleSource) || (!l.Outgoing && !kind.SingleTarget) {
				return false
			}
			key := claim{l.Partner, kind, l.Outgoing}
			if claimed[key] {
				c.log.Debug("dropping {{relation}} of {{entity}}, partner already claimed", "relation", kind.String(), "entity", gh.entity.String())
				return true
			}
			claimed[key] = true
			return false
		})

		for _, l := range gh.links {
			partner := g.Entity(l.Partner)
			if partner == nil {
				continue
			}
			var conflicts []*sig.Relation
			if l.Outgoing {
				conflicts = conflictingRelations(g, true, gh.entity, partner, l.Relation.Kind)
			} else {
				conflicts = conflictingRelations(g, false, partner, gh.entity, l.Relation.Kind)
			}
			for _, r := range conflicts {
				if unlinked[r] || removed[r.Source] || removed[r.Target] {
					continue
				}
				unlinked[r] = true
				list.Add(tasks.NewUnlink(g, r))
			}
		}
	}
}

// competitors returns the interpretations based on the same glyph.
func (c *Controller) competitors(sys *sheet.System, e *sig.Entity) []*sig.Entity {
	if e.Glyph == 0 {
		return nil
	}
	region := e.Bounds
	if g := c.sheet.Glyph(e.Glyph); g != nil {
		region = g.Bounds
	}
	var list []*sig.Entity
	for _, o := range sys.Graph().Intersecting(region) {
		if o != e && o.Glyph == e.Glyph {
			list = append(list, o)
		}
	}
	return list
}

// addGhosts adds the interpretations together with the ensembles they
// require.
func (c *Controller) addGhosts(list *tasks.TaskList, ghosts []ghost) {
	stemChords := map[sig.EntityId]*sig.Entity{}

	for _, gh := range ghosts {
		e := gh.entity
		g := gh.system.Graph()
		list.Add(tasks.NewAddition(g, e, gh.links...))

		switch e.Kind {
		case sig.KIND_REST:
			chord := g.NewEntity(sig.KIND_REST_CHORD)
			chord.Bounds = e.Bounds
			chord.Staff = e.Staff
			list.Add(tasks.NewAddition(g, chord, containment(e.Id)))

		case sig.KIND_HEAD:
			var chord *sig.Entity
			i := slices.IndexFunc(gh.links, func(l sig.Link) bool { return l.Relation.Kind == sig.REL_HEAD_STEM })
			if i >= 0 {
				stem := g.Entity(gh.links[i].Partner)
				chord = stemChords[stem.Id]
				if chord == nil {
					chords := g.StemChords(stem.Id)
					if len(chords) == 0 {
						chord = c.buildStemChord(list, g, stem)
					} else {
						if len(chords) > 1 {
							c.log.Warn("stem {{stem}} shared by several chords, picked one", "stem", stem.String())
						}
						chord = chords[0]
					}
					stemChords[stem.Id] = chord
				}
			} else {
				chord = g.NewEntity(sig.KIND_HEAD_CHORD)
				chord.Bounds = e.Bounds
				chord.Staff = e.Staff
				list.Add(tasks.NewAddition(g, chord))
			}
			list.Add(tasks.NewLink(g, chord.Id, e.Id, sig.NewRelation(sig.REL_CONTAINMENT)))
		}
	}
}

// buildStemChord adds a head chord around a stem.
func (c *Controller) buildStemChord(list *tasks.TaskList, g *sig.Graph, stem *sig.Entity) *sig.Entity {
	chord := g.NewEntity(sig.KIND_HEAD_CHORD)
	chord.Bounds = stem.Bounds
	chord.Staff = stem.Staff
	list.Add(tasks.NewAddition(g, chord))
	list.Add(tasks.NewLink(g, chord.Id, stem.Id, sig.NewRelation(sig.REL_CHORD_STEM)))
	return chord
}

// containment is the link of a new ensemble to a member.
func containment(member sig.EntityId) sig.Link {
	return sig.Link{Partner: member, Relation: sig.NewRelation(sig.REL_CONTAINMENT), Outgoing: true}
}

func countKind(list []*sig.Entity, kind sig.Kind) int {
	n := 0
	for _, e := range list {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
