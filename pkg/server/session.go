package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/scenario"
	"github.com/mandelsoft/interedit/pkg/service"
	"github.com/mandelsoft/interedit/pkg/sig"
)

const maxRequestSize = 1 << 20

// SessionHandler serves the edit operations and the report of an edit
// session below a path prefix:
//
//	POST <prefix>operations  apply an operation (yaml or json)
//	GET  <prefix>report      get the session report
//
// As a service it closes the session when the context is done.
type SessionHandler struct {
	lock    sync.Mutex
	session *scenario.Session
	prefix  string
}

var (
	_ http.Handler    = (*SessionHandler)(nil)
	_ service.Service = (*SessionHandler)(nil)
)

func NewSessionHandler(s *scenario.Session, prefix string) *SessionHandler {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &SessionHandler{session: s, prefix: prefix}
}

func (h *SessionHandler) RegisterHandler(srv *Server) {
	srv.Handle(h.prefix, h)
}

func (h *SessionHandler) Start(ctx context.Context) (service.Syncher, service.Syncher, error) {
	done := service.SyncTrigger()
	go func() {
		<-ctx.Done()
		h.lock.Lock()
		defer h.lock.Unlock()
		done.SetError(h.session.Close())
		done.Trigger()
	}()
	return nil, done, nil
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Info("{{method}} {{url}}", "method", r.Method, "url", r.URL)
	switch strings.TrimPrefix(r.URL.Path, h.prefix) {
	case "operations":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		h.apply(w, r)
	case "report":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		h.lock.Lock()
		report := h.session.Report()
		h.lock.Unlock()
		writeData(w, http.StatusOK, report)
	default:
		writeError(w, http.StatusNotFound, errors.New("not found"))
	}
}

func (h *SessionHandler) apply(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var op scenario.Operation
	if err := yaml.UnmarshalStrict(data, &op); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	h.lock.Lock()
	step, err := h.session.Apply(r.Context(), op)
	h.lock.Unlock()

	if err != nil {
		writeData(w, statusOf(err), &Error{Error: err.Error(), Step: step})
		return
	}
	writeData(w, http.StatusOK, step)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, edit.ErrClosed), errors.Is(err, edit.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, sig.ErrUnknownEntity), errors.Is(err, sig.ErrUnknownRelation):
		return http.StatusNotFound
	case errors.Is(err, edit.ErrAborted):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

// Error is the response body of failed requests.
type Error struct {
	Error string               `json:"error"`
	Step  *scenario.StepReport `json:"step,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeData(w, status, &Error{Error: err.Error()})
}

func writeData(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.LogError(err, "encoding response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
