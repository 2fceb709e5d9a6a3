package watch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/mandelsoft/interedit/pkg/utils"
)

type Client[R, E any] struct {
	dialer ws.Dialer
	url    string
}

func NewClient[R, E any](url string, dialer ...ws.Dialer) *Client[R, E] {
	return &Client[R, E]{
		dialer: utils.OptionalDefaulted(ws.DefaultDialer, dialer...),
		url:    url,
	}
}

// Watch connects to the endpoint and sends the registration request.
func (c *Client[R, E]) Watch(ctx context.Context, req R) (*Watch[E], error) {
	conn, _, _, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(req)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := wsutil.WriteClientMessage(conn, ws.OpText, data); err != nil {
		conn.Close()
		return nil, err
	}
	return &Watch[E]{conn: conn}, nil
}

type Watch[E any] struct {
	conn net.Conn
}

// Receive blocks until the next events are available.
func (w *Watch[E]) Receive() ([]E, error) {
	msgs, err := wsutil.ReadServerMessage(w.conn, nil)
	if err != nil {
		return nil, err
	}

	var events []E
	for _, m := range msgs {
		var evt E
		if err := json.Unmarshal(m.Payload, &evt); err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}

func (w *Watch[E]) Close() error {
	return w.conn.Close()
}

// IsErrClosed checks for the errors reported for a closed connection.
func IsErrClosed(err error) bool {
	if err == nil {
		return false
	}
	var closed wsutil.ClosedError
	return errors.Is(err, io.EOF) || errors.As(err, &closed) || strings.Contains(err.Error(), "use of closed network connection")
}
