package tasks

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/google/uuid"
	"github.com/mandelsoft/logging"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/utils"
)

var REALM = logging.DefineRealm("interedit/tasks", "task lists and history")

// Option modifies the handling of a task list.
type Option string

const (
	// OPT_SKIP_HISTORY: the list is not recorded in the history.
	OPT_SKIP_HISTORY Option = "skip-history"
	// OPT_FORCE_UPDATE: downstream steps are rerun even if the list
	// touches nothing they are sensitive to.
	OPT_FORCE_UPDATE Option = "force-update"
	// OPT_VALIDATED: the user already confirmed a whole-system operation.
	OPT_VALIDATED Option = "validated"
)

// Direction describes whether a list is done or undone.
type Direction int

const (
	DIR_DO Direction = iota
	DIR_UNDO
)

func (d Direction) String() string {
	if d == DIR_UNDO {
		return "undo"
	}
	return "do"
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(data []byte) error {
	switch string(data) {
	case "do":
		*d = DIR_DO
	case "undo":
		*d = DIR_UNDO
	default:
		return fmt.Errorf("invalid direction %q", string(data))
	}
	return nil
}

// ErrInconsistent is reported if a failed list could not be rolled back
// completely.
var ErrInconsistent = errors.New("graph possibly inconsistent")

// TaskList is an ordered group of tasks forming one user visible edit.
// It is the unit of undo and redo.
type TaskList struct {
	id      string
	name    string
	options sets.Set[Option]
	tasks   []Task
}

func NewTaskList(name string, opts ...Option) *TaskList {
	return &TaskList{
		id:      uuid.NewString(),
		name:    name,
		options: sets.New(opts...),
	}
}

func (l *TaskList) Id() string {
	return l.id
}

func (l *TaskList) Name() string {
	return l.name
}

func (l *TaskList) String() string {
	return fmt.Sprintf("%s[%d tasks]", l.name, len(l.tasks))
}

func (l *TaskList) Has(o Option) bool {
	return l.options.Has(o)
}

func (l *TaskList) SetOption(opts ...Option) {
	l.options.Insert(opts...)
}

func (l *TaskList) Options() []Option {
	return sets.List(l.options)
}

// Add appends tasks to the list.
func (l *TaskList) Add(t ...Task) {
	l.tasks = append(l.tasks, t...)
}

func (l *TaskList) Tasks() []Task {
	return slices.Clone(l.tasks)
}

func (l *TaskList) Len() int {
	return len(l.tasks)
}

func (l *TaskList) IsEmpty() bool {
	return len(l.tasks) == 0
}

// Scopes returns the distinct kinds touched by the tasks of the list.
func (l *TaskList) Scopes() sets.Set[string] {
	s := sets.New[string]()
	for _, t := range l.tasks {
		s.Insert(t.Scopes()...)
	}
	return s
}

// Entities returns the distinct interpretations involved in the list
// that are currently part of a graph.
func (l *TaskList) Entities() []*sig.Entity {
	seen := sets.New[sig.EntityId]()
	var list []*sig.Entity
	for _, t := range l.tasks {
		for _, e := range t.Entities() {
			if !e.Removed && !seen.Has(e.Id) {
				seen.Insert(e.Id)
				list = append(list, e)
			}
		}
	}
	return list
}

// PerformDo applies the tasks in list order. If a task fails, the tasks
// already applied are reverted in reverse order and the list has no
// effect.
func (l *TaskList) PerformDo(log logging.Logger) error {
	for i, t := range l.tasks {
		log.Trace("do {{task}}", "task", t.String())
		if err := utils.Catch(func() error { return Apply(t) }); err != nil {
			err = fmt.Errorf("%s: task %d (%s): %w", l.name, i, t, err)
			return l.rollback(log, err, slices.Backward(l.tasks[:i]), Revert)
		}
	}
	return nil
}

// PerformUndo reverts the tasks in reverse list order. If a task fails,
// the tasks already reverted are applied again.
func (l *TaskList) PerformUndo(log logging.Logger) error {
	for i := len(l.tasks) - 1; i >= 0; i-- {
		t := l.tasks[i]
		log.Trace("undo {{task}}", "task", t.String())
		if err := utils.Catch(func() error { return Revert(t) }); err != nil {
			err = fmt.Errorf("%s: undo task %d (%s): %w", l.name, i, t, err)
			return l.rollback(log, err, slices.All(l.tasks[i+1:]), Apply)
		}
	}
	return nil
}

func (l *TaskList) rollback(log logging.Logger, cause error, seq iter.Seq2[int, Task], op func(Task) error) error {
	errs := []error{cause}
	for _, t := range seq {
		if err := utils.Catch(func() error { return op(t) }); err != nil {
			log.LogError(err, "rollback of {{task}} failed", "task", t.String(), "list", l.name)
			errs = append(errs, err)
		}
	}
	if len(errs) > 1 {
		errs = append(errs, ErrInconsistent)
	}
	return errors.Join(errs...)
}
