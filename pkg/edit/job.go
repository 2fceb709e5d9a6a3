package edit

import (
	"context"

	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
	"github.com/mandelsoft/interedit/pkg/tasks"
)

// Result describes a completed edit.
type Result struct {
	// List is the performed task list.
	List      *tasks.TaskList
	Operation string
	// Impacted lists the processing steps notified about the edit.
	Impacted  []sheet.Step
	Selection []sig.EntityId
}

// Job is the future of an asynchronously executed edit.
type Job struct {
	name   string
	op     string
	action func() (*Result, error)
	done   chan struct{}
	result *Result
	err    error
}

func newJob(name, op string, action func() (*Result, error)) *Job {
	return &Job{
		name:   name,
		op:     op,
		action: action,
		done:   make(chan struct{}),
	}
}

// completedJob returns a job which is already finished.
func completedJob(name, op string, res *Result, err error) *Job {
	j := newJob(name, op, nil)
	j.complete(res, err)
	return j
}

func (j *Job) Name() string {
	return j.name
}

func (j *Job) String() string {
	return j.op + " " + j.name
}

func (j *Job) complete(res *Result, err error) {
	j.result, j.err = res, err
	close(j.done)
}

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait waits for the job to finish. The job itself is not cancelled
// if the context is done.
func (j *Job) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
