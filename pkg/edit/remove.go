package edit

import (
	"fmt"
	"math"
	"slices"

	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/tasks"
	"github.com/mandelsoft/interedit/pkg/watch"
)

const barlineTolerance = 4

// RemoveEntities removes interpretations together with their relations.
// Ensembles are removed with their members, ensembles losing all their
// members are removed, too. Once measures exist, staff barlines can
// only be removed for the whole system height, which has to be
// confirmed.
func (c *Controller) RemoveEntities(entities []*sig.Entity, opts ...tasks.Option) *Job {
	const name = "remove entities"
	if len(entities) == 0 {
		return completedJob(name, watch.OP_DO, &Result{List: tasks.NewTaskList(name), Operation: watch.OP_DO}, nil)
	}

	if !slices.Contains(opts, tasks.OPT_VALIDATED) {
		c.sheet.RLock()
		closure, err := c.removalClosure(entities)
		c.sheet.RUnlock()
		if err != nil {
			return c.abort(name, err)
		}
		if closure != nil {
			n := countKind(closure, sig.KIND_STAFF_BARLINE)
			if !c.confirm("Do you confirm whole system-height removal?", fmt.Sprintf("Removal of %d barline(s)", n)) {
				return c.abort(name, ErrAborted)
			}
			return c.RemoveEntities(closure, tasks.OPT_VALIDATED, tasks.OPT_FORCE_UPDATE)
		}
	}

	return c.perform(name, opts, func(list *tasks.TaskList) error {
		_, err := c.populateRemovals(list, entities)
		return err
	})
}

// RemoveSelection removes a user selection. Removing more than one
// interpretation has to be confirmed.
func (c *Controller) RemoveSelection(entities []*sig.Entity) *Job {
	if len(entities) > 1 && !c.confirm("Do you confirm this multiple deletion?", fmt.Sprintf("Removal of %d interpretations", len(entities))) {
		return c.abort("remove selection", ErrAborted)
	}
	return c.RemoveEntities(entities)
}

// removalClosure returns the interpretations to remove instead of the
// requested ones if staff barlines are involved, or nil.
func (c *Controller) removalClosure(entities []*sig.Entity) ([]*sig.Entity, error) {
	if c.sheet.LatestStep() < sheet.STEP_MEASURES {
		return nil, nil
	}

	var bars []*sig.Entity
	for _, e := range entities {
		if e.Kind == sig.KIND_STAFF_BARLINE {
			bars = append(bars, e)
		}
	}
	if len(bars) == 0 {
		for _, e := range entities {
			if e.Kind.IsBarline() {
				if sb := c.staffBarlineOf(e); sb != nil && !slices.Contains(bars, sb) {
					bars = append(bars, sb)
				}
			}
		}
	}
	if len(bars) == 0 {
		return nil, nil
	}

	one := bars[0]
	sys := c.systemOf(one)
	if sys == nil {
		return nil, fmt.Errorf("%s: %w", one, sig.ErrUnknownEntity)
	}

	var closure []*sig.Entity
	for _, e := range entities {
		if !e.Kind.IsBarline() {
			closure = append(closure, e)
		}
	}
	center := one.Center()
	tolerance := math.Max(float64(one.Bounds.Dx()), barlineTolerance)
	for _, sb := range sys.EntitiesOfKind(sig.KIND_STAFF_BARLINE) {
		sc := sb.Center()
		x := float64(center.X) - float64(sc.Y-center.Y)*c.sheet.Slope()
		if math.Abs(float64(sc.X)-x) <= tolerance {
			closure = append(closure, sb)
		}
	}
	return closure, nil
}

// staffBarlineOf returns the staff barline a barline is part of.
func (c *Controller) staffBarlineOf(bar *sig.Entity) *sig.Entity {
	sys := c.systemOf(bar)
	if sys == nil {
		return nil
	}
	for _, e := range sys.Graph().Intersecting(bar.Bounds) {
		if e.Kind == sig.KIND_STAFF_BARLINE && e.Staff == bar.Staff {
			return e
		}
	}
	return nil
}
