package edit

import (
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/tasks"
	"github.com/mandelsoft/interedit/pkg/utils"
)

// removal computes the complete set of interpretations to remove for a
// requested removal. Ensembles are removed with their members, and an
// ensemble losing all its members is removed, too.
type removal struct {
	graphs    map[sig.EntityId]*sig.Graph
	entities  *utils.OrderedSet[*sig.Entity]
	ensembles *utils.OrderedSet[*sig.Entity]
	watched   *utils.OrderedSet[*sig.Entity]
}

func newRemoval() *removal {
	return &removal{
		graphs:    map[sig.EntityId]*sig.Graph{},
		entities:  utils.NewOrderedSet[*sig.Entity](),
		ensembles: utils.NewOrderedSet[*sig.Entity](),
		watched:   utils.NewOrderedSet[*sig.Entity](),
	}
}

func (r *removal) include(g *sig.Graph, e *sig.Entity) {
	r.graphs[e.Id] = g
	if e.Kind.IsEnsemble() {
		if !r.ensembles.Add(e) {
			return
		}
		for _, m := range g.Members(e.Id) {
			r.include(g, m)
		}
		if e.Kind == sig.KIND_HEAD_CHORD {
			if stem := g.ChordStem(e.Id); stem != nil && len(g.StemChords(stem.Id)) <= 1 {
				r.include(g, stem)
			}
		}
		return
	}

	// other ensembles of a member may lose their last member
	for _, ens := range g.Ensembles(e.Id) {
		if !r.ensembles.Has(ens) {
			r.graphs[ens.Id] = g
			r.watched.Add(ens)
		}
	}
	r.entities.Add(e)
}

// populate adds the removal tasks, ensembles first. It returns the ids
// of all removed interpretations.
func (r *removal) populate(list *tasks.TaskList) map[sig.EntityId]bool {
	for _, ens := range r.watched.List() {
		if r.ensembles.Has(ens) {
			continue
		}
		all := true
		for _, m := range r.graphs[ens.Id].Members(ens.Id) {
			if !r.entities.Has(m) {
				all = false
				break
			}
		}
		if all {
			r.ensembles.Add(ens)
		}
	}

	removed := map[sig.EntityId]bool{}
	for _, ens := range r.ensembles.List() {
		list.Add(tasks.NewRemoval(r.graphs[ens.Id], ens))
		removed[ens.Id] = true
	}
	for _, e := range r.entities.List() {
		if !removed[e.Id] {
			list.Add(tasks.NewRemoval(r.graphs[e.Id], e))
			removed[e.Id] = true
		}
	}
	return removed
}

// populateRemovals adds the removal tasks for the given
// interpretations.
func (c *Controller) populateRemovals(list *tasks.TaskList, entities []*sig.Entity) (map[sig.EntityId]bool, error) {
	r := newRemoval()
	for _, e := range entities {
		if e.Removed {
			c.log.Debug("skipping removed {{entity}}", "entity", e.String())
			continue
		}
		g, err := c.graphOf(e)
		if err != nil {
			return nil, err
		}
		r.include(g, e)
	}
	return r.populate(list), nil
}
