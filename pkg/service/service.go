// Package service runs the long living parts of the interedit server,
// like the http server and the edit sessions, under a common context.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/interedit/pkg/ctxutil"
)

var REALM = logging.DefineRealm("interedit/service", "service lifecycle")

// Service is started with the common context. ready is triggered once
// the service is usable, done when it has terminated. A nil ready
// means the service is usable immediately.
type Service interface {
	Start(ctx context.Context) (ready Syncher, done Syncher, err error)
}

type Services interface {
	Add(s Service) error
	Start(st ...Service) error
	Wait() error
	// Stop cancels the common context.
	Stop()
}

type services struct {
	lock     sync.Mutex
	log      logging.Logger
	ctx      context.Context
	services map[Service]Syncher
	order    []Service
	started  bool
	wg       *sync.WaitGroup
	errs     []error
}

func New(lctx logging.Context, ctx context.Context) Services {
	return &services{
		log:      lctx.Logger(REALM),
		ctx:      ctxutil.CancelContext(ctx),
		services: map[Service]Syncher{},
		wg:       &sync.WaitGroup{},
	}
}

// Add registers a service. If the services are already started, it is
// started and awaited immediately.
func (t *services) Add(s Service) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.services[s]; ok {
		return nil
	}
	t.services[s] = nil
	t.order = append(t.order, s)
	if t.started {
		return t.startServices(s)
	}
	return nil
}

// Start starts the given or all registered services and waits until
// they are ready.
func (t *services) Start(st ...Service) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(st) == 0 {
		if t.started {
			return nil
		}
		t.started = true
		st = t.order
	}
	return t.startServices(st...)
}

func (t *services) startServices(list ...Service) error {
	var ready []Syncher
	for _, s := range list {
		if t.services[s] != nil {
			continue
		}
		r, err := t.start(s)
		if err != nil {
			return err
		}
		if r != nil {
			ready = append(ready, r)
		}
	}

	for _, r := range ready {
		if err := r.Wait(); err != nil {
			ctxutil.Cancel(t.ctx)
			return err
		}
	}
	return nil
}

func (t *services) start(s Service) (Syncher, error) {
	ready, done, err := s.Start(t.ctx)
	if err != nil || done == nil {
		ctxutil.Cancel(t.ctx)
		if err == nil {
			err = fmt.Errorf("service %T does not return a done syncher", s)
		} else {
			err = fmt.Errorf("service %T: %w", s, err)
		}
		return nil, err
	}
	t.log.Debug("started {{service}}", "service", fmt.Sprintf("%T", s))
	t.services[s] = done
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := done.Wait(); err != nil {
			t.log.LogError(err, "service {{service}} failed", "service", fmt.Sprintf("%T", s))
			t.lock.Lock()
			t.errs = append(t.errs, err)
			t.lock.Unlock()
		}
	}()
	return ready, nil
}

func (t *services) Stop() {
	ctxutil.Cancel(t.ctx)
}

// Wait waits for all started services to terminate.
func (t *services) Wait() error {
	t.wg.Wait()
	t.lock.Lock()
	defer t.lock.Unlock()
	return errors.Join(t.errs...)
}
