package watch

import (
	"encoding/json"
	"net"
	"net/http"
	"slices"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// WatchHttpHandler returns a websocket endpoint. Clients send one
// registration request and then receive the matching events.
func WatchHttpHandler[R, E any](r Registry[R, E]) *RequestHandler[R, E] {
	return &RequestHandler[R, E]{registry: r}
}

type RequestHandler[R, E any] struct {
	lock        sync.Mutex
	registry    Registry[R, E]
	connections []*handler[R, E]
}

var _ http.Handler = (*RequestHandler[any, any])(nil)

// Close closes all open connections.
func (h *RequestHandler[R, E]) Close() error {
	h.lock.Lock()
	conns := slices.Clone(h.connections)
	h.lock.Unlock()

	for _, c := range conns {
		c.Close()
	}
	return nil
}

// Connections returns the number of registered connections.
func (h *RequestHandler[R, E]) Connections() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.connections)
}

func (h *RequestHandler[R, E]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Info("new watch request")
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.LogError(err, "upgrading connection")
		return
	}

	msg, _, err := wsutil.ReadClientData(conn)
	if err != nil {
		log.LogError(err, "reading registration request")
		wsutil.WriteServerMessage(conn, ws.OpText, (&Error{err.Error()}).Data())
		conn.Close()
		return
	}

	var registration R
	err = json.Unmarshal(msg, &registration)
	if err != nil {
		log.LogError(err, "decoding registration request")
		wsutil.WriteServerMessage(conn, ws.OpText, (&Error{err.Error()}).Data())
		conn.Close()
		return
	}

	h.newHandler(conn, registration)
}

func (h *RequestHandler[R, E]) newHandler(conn net.Conn, req R) *handler[R, E] {
	c := &handler[R, E]{owner: h, conn: conn, req: req}
	h.lock.Lock()
	h.connections = append(h.connections, c)
	h.lock.Unlock()
	h.registry.RegisterWatchHandler(req, c)
	go c.drain()
	return c
}

func (h *RequestHandler[R, E]) removeHandler(c *handler[R, E]) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.connections = slices.DeleteFunc(h.connections, func(e *handler[R, E]) bool { return e == c })
}

////////////////////////////////////////////////////////////////////////////////

type handler[R, E any] struct {
	owner *RequestHandler[R, E]
	conn  net.Conn
	req   R
	once  sync.Once
}

func (h *handler[R, E]) HandleEvent(e E) {
	data, _ := json.Marshal(e)
	err := wsutil.WriteServerMessage(h.conn, ws.OpText, data)
	if err != nil {
		log.LogError(err, "cannot send event -> closing connection")
		h.Close()
	}
}

// drain consumes client messages until the connection is closed.
func (h *handler[R, E]) drain() {
	for {
		if _, _, err := wsutil.ReadClientData(h.conn); err != nil {
			if !IsErrClosed(err) {
				log.LogError(err, "watch connection")
			}
			h.Close()
			return
		}
	}
}

func (h *handler[R, E]) Close() error {
	h.once.Do(func() {
		log.Info("closing connection and unregister handler for {{req}}", "req", h.req)
		h.conn.Close()
		h.owner.registry.UnregisterWatchHandler(h.req, h)
		h.owner.removeHandler(h)
	})
	return nil
}

type Error struct {
	Error string `json:"error"`
}

func (e *Error) Data() []byte {
	data, _ := json.Marshal(e)
	return data
}
