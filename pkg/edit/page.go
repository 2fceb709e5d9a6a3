package edit

import (
	"fmt"

	"github.com/mandelsoft/interedit/pkg/geom"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/tasks"
	"github.com/mandelsoft/interedit/pkg/utils"
)

// MergeSystems merges a system with the system below it. If both
// systems start with a barline, the bars are joined by a connector.
func (c *Controller) MergeSystems(sys *sheet.System) *Job {
	name := fmt.Sprintf("merge %s", sys)
	return c.perform(name, nil, func(list *tasks.TaskList) error {
		below := c.sheet.SystemBelow(sys)
		if below == nil {
			return fmt.Errorf("%s has no system below: %w", sys, ErrInvalidRequest)
		}
		upStaff := sys.LastStaff()
		downStaff := below.FirstStaff()
		if upStaff == nil || downStaff == nil {
			return fmt.Errorf("%s or %s without staff: %w", sys, below, ErrNoStaff)
		}
		upBar := sys.LeftBarline(upStaff)
		downBar := below.LeftBarline(downStaff)

		list.Add(tasks.NewRegionMerge(c.sheet, sys))
		if upBar == nil || downBar == nil {
			return nil
		}

		// entities of the lower system are moved into the graph of the
		// upper one by the merge, keeping their ids.
		g := sys.Graph()
		kind := sig.KIND_CONNECTOR
		if upBar.Kind == sig.KIND_THICK_BARLINE {
			kind = sig.KIND_THICK_CONN
		}
		median := geom.Line{P1: upBar.GetMedian().P2, P2: downBar.GetMedian().P1}
		width := (upBar.Bounds.Dx() + downBar.Bounds.Dx()) / 2

		connector := g.NewEntity(kind)
		connector.Median = &median
		connector.Bounds = geom.VerticalParallelogram(median.P1.Rounded(), median.P2.Rounded(), width)
		connector.Area = utils.Pointer(connector.Bounds)
		connector.Staff = upStaff.Id()
		connector.Manual = true
		list.Add(tasks.NewAddition(g, connector))
		list.Add(tasks.NewLink(g, upBar.Id, downBar.Id, sig.NewRelation(sig.REL_BAR_CONNECTION)))
		return nil
	})
}

// ReprocessRhythm requests the rhythm step to be rerun for a system or,
// with nil, for the whole sheet. The request is not recorded in the
// history.
func (c *Controller) ReprocessRhythm(sys *sheet.System) *Job {
	scope := "sheet " + c.sheet.Name()
	if sys != nil {
		scope = sys.String()
	}
	return c.perform("reprocess rhythm of "+scope, []tasks.Option{tasks.OPT_SKIP_HISTORY}, func(list *tasks.TaskList) error {
		list.Add(tasks.NewMarker(tasks.SCOPE_RHYTHM, sheet.STEP_RHYTHMS))
		return nil
	})
}
