// Package edit implements the interpretation edit controller. All user
// edits of a sheet are composed into task lists, validated, executed
// one at a time, recorded for undo and redo and propagated to the
// downstream processing steps.
package edit

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mandelsoft/logging"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mandelsoft/interedit/pkg/links"
	"github.com/mandelsoft/interedit/pkg/pipeline"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/tasks"
	"github.com/mandelsoft/interedit/pkg/utils"
	"github.com/mandelsoft/interedit/pkg/watch"
)

var REALM = logging.DefineRealm("interedit/edit", "interpretation edit controller")

type Controller struct {
	log        logging.Logger
	sheet      *sheet.Sheet
	config     Config
	history    *tasks.History
	resolver   *pipeline.Resolver
	searcher   LinkSearcher
	prompter   Prompter
	publisher  SelectionPublisher
	recognizer TextRecognizer
	dispatcher Dispatcher
	registry   prometheus.Registerer
	metrics    *Metrics
	executor   *executor
}

type Option func(c *Controller)

func WithConfig(cfg Config) Option {
	return func(c *Controller) { c.config = cfg }
}

func WithPrompter(p Prompter) Option {
	return func(c *Controller) { c.prompter = p }
}

func WithPublisher(p SelectionPublisher) Option {
	return func(c *Controller) { c.publisher = p }
}

func WithTextRecognizer(r TextRecognizer) Option {
	return func(c *Controller) { c.recognizer = r }
}

func WithDispatcher(d Dispatcher) Option {
	return func(c *Controller) { c.dispatcher = d }
}

func WithLinkSearcher(s LinkSearcher) Option {
	return func(c *Controller) { c.searcher = s }
}

// WithRegisterer sets the prometheus registerer for the controller
// metrics. By default, a private registry is used.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *Controller) { c.registry = r }
}

// New creates a controller for a sheet. It starts the worker executing
// the edits, which is stopped by Close.
func New(lctx logging.Context, s *sheet.Sheet, p pipeline.Pipeline, opts ...Option) *Controller {
	c := &Controller{
		config:     DefaultConfig(),
		sheet:      s,
		history:    tasks.NewHistory(),
		dispatcher: DirectDispatcher{},
	}
	for _, o := range opts {
		o(c)
	}
	lctx = lctx.WithContext(REALM)
	c.log = lctx.Logger().WithValues("sheet", s.Name())
	c.resolver = pipeline.NewResolver(lctx, p)
	if c.searcher == nil {
		c.searcher = links.New(lctx)
	}
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	c.metrics = NewMetrics(c.config.MetricsNamespace, c.registry)
	c.executor = newExecutor(c.log, c.config.QueueName, c.config.QueueName+"/"+s.Name(), c.execute)
	c.log.Info("controller created", "staffLink", c.config.UseStaffLink, "staffProximity", c.config.UseStaffProximity, "gutterRatio", c.config.GutterRatio)
	return c
}

func (c *Controller) Sheet() *sheet.Sheet {
	return c.sheet
}

func (c *Controller) History() *tasks.History {
	return c.history
}

func (c *Controller) Config() Config {
	return c.config
}

func (c *Controller) CanUndo() bool {
	return c.history.CanUndo()
}

func (c *Controller) CanRedo() bool {
	return c.history.CanRedo()
}

// ClearHistory forgets all recorded edits.
func (c *Controller) ClearHistory() {
	c.history.Clear()
	c.metrics.historySize(0)
}

// Close stops the controller after all queued edits are done. The
// history is cleared.
func (c *Controller) Close() error {
	c.executor.shutdown()
	c.ClearHistory()
	c.log.Info("controller closed")
	return nil
}

////////////////////////////////////////////////////////////////////////////////

// Undo reverts the last recorded edit.
func (c *Controller) Undo() *Job {
	return c.executor.enqueue(newJob("undo", watch.OP_UNDO, func() (*Result, error) {
		c.sheet.Lock()
		defer c.sheet.Unlock()

		list := c.history.ToUndo()
		if list == nil {
			return nil, ErrNothingToUndo
		}
		if err := list.PerformUndo(c.log); err != nil {
			c.history.Restore(list, tasks.DIR_UNDO)
			return nil, err
		}
		return c.epilog(list, watch.OP_UNDO, tasks.DIR_UNDO), nil
	}))
}

// Redo performs the last undone edit again.
func (c *Controller) Redo() *Job {
	return c.executor.enqueue(newJob("redo", watch.OP_REDO, func() (*Result, error) {
		c.sheet.Lock()
		defer c.sheet.Unlock()

		list := c.history.ToRedo()
		if list == nil {
			return nil, ErrNothingToRedo
		}
		if err := list.PerformDo(c.log); err != nil {
			c.history.Restore(list, tasks.DIR_DO)
			return nil, err
		}
		return c.epilog(list, watch.OP_REDO, tasks.DIR_DO), nil
	}))
}

// perform schedules an edit. The task list is built and performed by
// the worker while holding the sheet lock.
func (c *Controller) perform(name string, opts []tasks.Option, build func(list *tasks.TaskList) error) *Job {
	return c.executor.enqueue(newJob(name, watch.OP_DO, func() (*Result, error) {
		c.sheet.Lock()
		defer c.sheet.Unlock()

		list := tasks.NewTaskList(name, opts...)
		if err := build(list); err != nil {
			return nil, err
		}
		c.log.Debug("performing {{list}}", "list", list.String(), "id", list.Id())
		if err := list.PerformDo(c.log); err != nil {
			return nil, err
		}
		res := c.epilog(list, watch.OP_DO, tasks.DIR_DO)
		if !list.Has(tasks.OPT_SKIP_HISTORY) && !list.IsEmpty() {
			c.history.Add(list)
		}
		return res, nil
	}))
}

// epilog propagates a performed list to the impacted processing steps.
func (c *Controller) epilog(list *tasks.TaskList, op string, dir tasks.Direction) *Result {
	c.sheet.SetModified(true)
	impacted, err := c.resolver.Impact(c.sheet.LatestStep(), list, dir)
	if err != nil {
		c.log.LogError(err, "impact of {{list}} incomplete", "list", list.Name())
	}
	return &Result{
		List:      list,
		Operation: op,
		Impacted:  impacted,
		Selection: entityIds(list.Entities()),
	}
}

// execute is called by the worker for every job.
func (c *Controller) execute(j *Job) {
	timer := c.metrics.timer(j.op)
	var res *Result
	err := utils.Catch(func() (err error) {
		res, err = j.action()
		return err
	})
	timer.ObserveDuration()

	if err != nil {
		c.log.LogError(err, "{{operation}} {{name}} failed", "operation", j.op, "name", j.name)
		c.metrics.observe(j.op, RESULT_FAILED, 0)
		j.complete(nil, err)
		return
	}
	c.metrics.observe(j.op, RESULT_OK, res.List.Len())
	c.metrics.historySize(c.history.Len())

	if c.publisher != nil {
		sel := watch.Selection{
			Sheet:     c.sheet.Name(),
			List:      res.List.Name(),
			Operation: res.Operation,
			Entities:  slices.Clone(res.Selection),
		}
		err := utils.Catch(func() error {
			c.dispatcher.Invoke(func() { c.publisher.Publish(sel) })
			return nil
		})
		if err != nil {
			c.log.LogError(err, "publishing selection of {{name}} failed", "name", j.name)
		}
	}
	j.complete(res, nil)
}

// abort returns a finished job for an operation abandoned before any
// task list has been built.
func (c *Controller) abort(name string, err error) *Job {
	c.log.Info("{{name}} abandoned: {{reason}}", "name", name, "reason", err.Error())
	if errors.Is(err, ErrAborted) {
		c.metrics.observe(watch.OP_DO, RESULT_ABORTED, 0)
	} else {
		c.metrics.observe(watch.OP_DO, RESULT_FAILED, 0)
	}
	return completedJob(name, watch.OP_DO, nil, fmt.Errorf("%s: %w", name, err))
}

func (c *Controller) confirm(question, title string) bool {
	if c.prompter == nil {
		c.log.Info("no prompter available for {{question}}", "question", question)
		return false
	}
	return c.prompter.Confirm(question, title)
}

// systemOf returns the system whose graph holds the interpretation.
func (c *Controller) systemOf(e *sig.Entity) *sheet.System {
	if sys := c.sheet.SystemOf(e); sys != nil && sys.Graph().Contains(e.Id) {
		return sys
	}
	for _, sys := range c.sheet.Systems() {
		if sys.Graph().Contains(e.Id) {
			return sys
		}
	}
	return nil
}

func (c *Controller) graphOf(e *sig.Entity) (*sig.Graph, error) {
	sys := c.systemOf(e)
	if sys == nil {
		return nil, fmt.Errorf("%s: %w", e, sig.ErrUnknownEntity)
	}
	return sys.Graph(), nil
}

func entityIds(list []*sig.Entity) []sig.EntityId {
	ids := make([]sig.EntityId, len(list))
	for i, e := range list {
		ids[i] = e.Id
	}
	return ids
}
