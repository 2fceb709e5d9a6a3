// Package watch distributes selection events published after every
// edit. Observers register in-process or via a websocket endpoint.
package watch

import (
	"fmt"
	"slices"
	"sync"

	"github.com/mandelsoft/interedit/pkg/sig"
)

const (
	OP_DO   = "do"
	OP_UNDO = "undo"
	OP_REDO = "redo"
)

// Selection is the event describing the interpretations selected after
// an edit of a sheet.
type Selection struct {
	Sheet     string         `json:"sheet"`
	List      string         `json:"list,omitempty"`
	Operation string         `json:"operation"`
	Entities  []sig.EntityId `json:"entities"`
}

func (s Selection) String() string {
	return fmt.Sprintf("%s[%s %s]%v", s.Sheet, s.Operation, s.List, s.Entities)
}

// Request registers for the selection events of a sheet. An empty
// sheet name registers for all sheets.
type Request struct {
	Sheet string `json:"sheet"`
}

type EventHandler[E any] interface {
	HandleEvent(e E)
}

type Handler = EventHandler[Selection]

// Recorder is a handler keeping all received selections.
type Recorder struct {
	lock   sync.Mutex
	events []Selection
}

func (r *Recorder) HandleEvent(e Selection) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []Selection {
	r.lock.Lock()
	defer r.lock.Unlock()
	return slices.Clone(r.events)
}

func (r *Recorder) Last() *Selection {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	e := r.events[len(r.events)-1]
	return &e
}

type Registry[R any, E any] interface {
	RegisterWatchHandler(r R, h EventHandler[E])
	UnregisterWatchHandler(r R, h EventHandler[E])
}

// SelectionRegistry dispatches published selections to the handlers
// registered for the sheet.
type SelectionRegistry struct {
	lock     sync.Mutex
	handlers map[string][]Handler
}

var _ Registry[Request, Selection] = (*SelectionRegistry)(nil)

func NewRegistry() *SelectionRegistry {
	return &SelectionRegistry{handlers: map[string][]Handler{}}
}

func (r *SelectionRegistry) RegisterWatchHandler(req Request, h Handler) {
	r.lock.Lock()
	defer r.lock.Unlock()

	log.Info("registering handler for {{sheet}}", "sheet", req.Sheet)
	r.handlers[req.Sheet] = append(r.handlers[req.Sheet], h)
}

func (r *SelectionRegistry) UnregisterWatchHandler(req Request, h Handler) {
	r.lock.Lock()
	defer r.lock.Unlock()

	list := slices.DeleteFunc(slices.Clone(r.handlers[req.Sheet]), func(e Handler) bool { return e == h })
	if len(list) == 0 {
		delete(r.handlers, req.Sheet)
	} else {
		r.handlers[req.Sheet] = list
	}
}

// Publish forwards a selection to all handlers registered for its
// sheet or for all sheets.
func (r *SelectionRegistry) Publish(s Selection) {
	r.lock.Lock()
	list := slices.Clone(r.handlers[s.Sheet])
	if s.Sheet != "" {
		list = append(list, r.handlers[""]...)
	}
	r.lock.Unlock()

	log.Debug("publish {{selection}} to {{amount}} handlers", "selection", s, "amount", len(list))
	for _, h := range list {
		h.HandleEvent(s)
	}
}
