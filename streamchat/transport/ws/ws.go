// Package ws carries a chat session over a WebSocket connection.
//
// Binary messages are concatenated into one byte stream, so message boundaries
// on the WebSocket carry no meaning; the chat framing runs on top.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Path is the HTTP path peers upgrade on.
const Path = "/chat"

var (
	ErrListenerClosed = errors.New("ws: listener closed")
)

type Listener struct {
	ln     net.Listener
	srv    *http.Server
	conns  chan *websocket.Conn
	closed chan struct{}
	once   sync.Once
}

func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	l := &Listener{
		ln:     ln,
		conns:  make(chan *websocket.Conn),
		closed: make(chan struct{}),
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	mux := http.NewServeMux()
	mux.HandleFunc(Path, func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "ws.Listener.upgrade",
				"remote":   r.RemoteAddr,
				"error":    err.Error(),
			}).Warn("WebSocket upgrade failed")
			return
		}
		select {
		case l.conns <- c:
		case <-l.closed:
			_ = c.Close()
		}
	})
	l.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = l.srv.Serve(ln) }()
	return l, nil
}

func (l *Listener) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	select {
	case c := <-l.conns:
		logrus.WithFields(logrus.Fields{
			"function": "ws.Listener.Accept",
			"remote":   c.RemoteAddr().String(),
		}).Info("Accepted WebSocket connection")
		return newConn(c), nil
	case <-l.closed:
		return nil, ErrListenerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

func (l *Listener) AddrString() string { return l.ln.Addr().String() }

// Close stops accepting. Hijacked connections already handed out stay open.
func (l *Listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.closed)
		err = l.srv.Close()
	})
	return err
}

// Dial connects to addr, given as host:port or as a ws:// or wss:// URL.
func Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	url := addr
	if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
		url = "ws://" + addr + Path
	}
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", url, err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "ws.Dial",
		"url":      url,
	}).Info("Connected over WebSocket")
	return newConn(c), nil
}

// Conn adapts a WebSocket to io.ReadWriteCloser.
// One goroutine may Read while another Writes, matching gorilla/websocket's rules.
type Conn struct {
	ws     *websocket.Conn
	reader io.Reader

	closeOnce sync.Once
	closeErr  error
}

func newConn(c *websocket.Conn) *Conn {
	return &Conn{ws: c}
}

func (c *Conn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			mt, r, err := c.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			c.reader = r
		}
		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *Conn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame and closes the socket.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
