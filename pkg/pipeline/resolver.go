package pipeline

import (
	"errors"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/tasks"
	"github.com/mandelsoft/interedit/pkg/utils"
)

// Resolver determines the first stage impacted by a task list and
// propagates the list to all stages up to the latest completed step
// of a sheet.
type Resolver struct {
	log      logging.Logger
	pipeline Pipeline
}

func NewResolver(lctx logging.Context, p Pipeline) *Resolver {
	return &Resolver{
		log:      lctx.Logger(REALM),
		pipeline: p,
	}
}

// FirstImpacted returns the earliest step impacted by the list, or
// sheet.STEP_NONE. Markers naming a step are candidates on their own.
func (r *Resolver) FirstImpacted(list *tasks.TaskList) sheet.Step {
	first := sheet.STEP_NONE
	candidate := func(s sheet.Step) {
		if s != sheet.STEP_NONE && (first == sheet.STEP_NONE || s < first) {
			first = s
		}
	}
	for _, t := range list.Tasks() {
		if m, ok := t.(*tasks.Marker); ok {
			candidate(m.Step)
		}
	}
	scopes := list.Scopes()
	for _, stage := range r.pipeline.Stages() {
		for scope := range scopes {
			if stage.IsImpactedBy(scope) {
				candidate(stage.Step())
				break
			}
		}
	}
	return first
}

// Impact calls the stages from the first impacted one through the
// latest completed step of the sheet. It returns the impacted steps.
func (r *Resolver) Impact(latest sheet.Step, list *tasks.TaskList, dir tasks.Direction) ([]sheet.Step, error) {
	first := r.FirstImpacted(list)
	if first == sheet.STEP_NONE {
		r.log.Debug("{{list}} impacts no step", "list", list.Name())
		return nil, nil
	}
	if first > latest {
		r.log.Debug("first impacted step {{step}} not yet reached", "step", first.String(), "latest", latest.String())
		return nil, nil
	}

	r.log.Debug("{{list}} impacts steps {{first}} to {{latest}}", "list", list.Name(), "first", first.String(), "latest", latest.String())
	var steps []sheet.Step
	var errs []error
	for _, stage := range r.pipeline.Stages() {
		s := stage.Step()
		if s < first || s > latest {
			continue
		}
		steps = append(steps, s)
		if err := utils.Catch(func() error { return stage.Impact(list, dir) }); err != nil {
			r.log.LogError(err, "impact of step {{step}} failed", "step", s.String(), "list", list.Name())
			errs = append(errs, err)
		}
	}
	return steps, errors.Join(errs...)
}
