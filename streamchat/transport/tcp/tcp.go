package tcp

import (
	"context"
	"io"
	"net"

	"github.com/sirupsen/logrus"
)

type Listener struct {
	inner net.Listener
}

func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln}, nil
}

// Accept waits for one connection. Cancelling ctx closes the listener.
func (l *Listener) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	stop := context.AfterFunc(ctx, func() { _ = l.inner.Close() })
	defer stop()

	conn, err := l.inner.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "tcp.Listener.Accept",
		"remote":   conn.RemoteAddr().String(),
	}).Info("Accepted TCP connection")
	return conn, nil
}

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

func (l *Listener) AddrString() string {
	if l.inner == nil {
		return ""
	}
	return l.inner.Addr().String()
}

func (l *Listener) Close() error { return l.inner.Close() }

func Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "tcp.Dial",
		"remote":   conn.RemoteAddr().String(),
	}).Info("Connected over TCP")
	return conn, nil
}
