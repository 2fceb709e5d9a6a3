package service

import (
	"sync"
)

type Syncher interface {
	SetError(err error)
	Wait() error
}

type Trigger interface {
	Syncher
	// Trigger releases all waiting parties. Further calls are ignored.
	Trigger()
}

func SyncTrigger() Trigger {
	return &trigger{
		done: make(chan struct{}),
	}
}

type trigger struct {
	lock sync.Mutex
	once sync.Once
	err  error
	done chan struct{}
}

var _ Trigger = (*trigger)(nil)

func (t *trigger) Trigger() {
	t.once.Do(func() { close(t.done) })
}

func (t *trigger) SetError(err error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.err == nil {
		t.err = err
	}
}

func (t *trigger) Wait() error {
	<-t.done
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.err
}
