package edit

import (
	"fmt"
	"sync"
	"time"

	"github.com/mandelsoft/logging"
	"k8s.io/client-go/util/workqueue"

	"github.com/mandelsoft/interedit/pkg/healthz"
)

// heartbeatPeriod is the interval the worker reports its health.
const heartbeatPeriod = 10 * time.Second

// heartbeat is queued periodically to prove the worker is alive.
type heartbeat struct{}

// executor runs jobs one after the other on a single worker.
// Jobs are never executed concurrently, which makes the worker the only
// writer of the sheet.
type executor struct {
	log   logging.Logger
	key   string
	queue workqueue.Interface
	lock  sync.Mutex
	done  chan struct{}
	// closed is set once no further jobs are accepted.
	closed bool
	run    func(*Job)
}

func newExecutor(log logging.Logger, name, key string, run func(*Job)) *executor {
	e := &executor{
		log:   log.WithName("executor"),
		key:   key,
		queue: workqueue.NewWithConfig(workqueue.QueueConfig{Name: name}),
		done:  make(chan struct{}),
		run:   run,
	}
	healthz.Start(key, heartbeatPeriod)
	go e.worker()
	go e.heartbeat()
	return e
}

func (e *executor) heartbeat() {
	ticker := time.NewTicker(heartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.lock.Lock()
			if !e.closed {
				e.queue.Add(heartbeat{})
			}
			e.lock.Unlock()
		}
	}
}

func (e *executor) enqueue(j *Job) *Job {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		j.complete(nil, fmt.Errorf("%s: %w", j, ErrClosed))
		return j
	}
	e.queue.Add(j)
	return j
}

func (e *executor) worker() {
	e.log.Info("starting worker")
	defer close(e.done)
	for e.processNextWorkItem() {
	}
	e.log.Info("exit worker")
}

func (e *executor) processNextWorkItem() bool {
	obj, shutdown := e.queue.Get()
	if shutdown {
		return false
	}
	defer e.queue.Done(obj)

	switch j := obj.(type) {
	case heartbeat:
	case *Job:
		e.log.Debug("running {{job}}", "job", j.String())
		e.run(j)
	default:
		e.log.Error("unexpected work item {{item}}", "item", fmt.Sprintf("%T", obj))
	}
	healthz.Tick(e.key)
	return true
}

// shutdown stops accepting jobs and waits for the queued ones.
func (e *executor) shutdown() {
	e.lock.Lock()
	if e.closed {
		e.lock.Unlock()
		<-e.done
		return
	}
	e.closed = true
	e.lock.Unlock()
	e.queue.ShutDown()
	<-e.done
	healthz.End(e.key)
}
