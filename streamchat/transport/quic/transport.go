// Package quic carries a chat session over a single bidirectional QUIC stream.
package quic

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	q "github.com/quic-go/quic-go"
	"github.com/sirupsen/logrus"
)

const (
	// application and stream error code sent when a session closes
	codeSessionClosed = 0

	// how long Close waits for the peer to take the remaining data
	closeLinger = 3 * time.Second
)

type Listener struct {
	inner *q.Listener
}

func Listen(addr string) (*Listener, error) {
	tlsConf, err := listenerTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := q.ListenAddr(addr, tlsConf, &q.Config{})
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln}, nil
}

// Accept waits for a connection and for the stream its peer opens on it.
// The stream becomes visible once the dialer writes its first byte.
func (l *Listener) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	conn, err := l.inner.Accept(ctx)
	if err != nil {
		return nil, err
	}
	st, err := conn.AcceptStream(ctx)
	if err != nil {
		_ = conn.CloseWithError(codeSessionClosed, "no stream")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "quic.Listener.Accept",
		"remote":   conn.RemoteAddr().String(),
	}).Info("Accepted QUIC stream")
	return &Stream{conn: conn, stream: st}, nil
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
	conn, err := q.DialAddr(ctx, addr, dialerTLSConfig(), &q.Config{})
	if err != nil {
		return nil, err
	}
	st, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(codeSessionClosed, "no stream")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "quic.Dial",
		"remote":   conn.RemoteAddr().String(),
	}).Info("Opened QUIC stream")
	return &Stream{conn: conn, stream: st}, nil
}

// Stream is the session stream.
//
// Close sends FIN after the queued data and keeps the connection open until the
// peer closes it or closeLinger expires, so the peer reads every byte and then io.EOF.
type Stream struct {
	conn   *q.Conn
	stream *q.Stream

	// set once the peer's FIN or session close has been read
	peerDone atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.stream.Read(p)
	if err == nil {
		return n, nil
	}
	if err == io.EOF || isPeerClose(err) {
		s.peerDone.Store(true)
		return n, io.EOF
	}
	return n, err
}

func (s *Stream) Write(p []byte) (int, error) { return s.stream.Write(p) }

func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		err := s.stream.Close()
		// unblocks a local Read; the peer stops sending
		s.stream.CancelRead(codeSessionClosed)

		if s.peerDone.Load() {
			// the peer's STOP_SENDING may have cancelled our send side already
			err = nil
		} else {
			t := time.NewTimer(closeLinger)
			select {
			case <-s.conn.Context().Done():
			case <-t.C:
				logrus.WithFields(logrus.Fields{
					"function": "quic.Stream.Close",
					"remote":   s.conn.RemoteAddr().String(),
				}).Debug("Peer did not close in time")
			}
			t.Stop()
		}
		if cerr := s.conn.CloseWithError(codeSessionClosed, "session closed"); err == nil {
			err = cerr
		}
		s.closeErr = err
	})
	return s.closeErr
}

// isPeerClose reports whether err is the peer closing the connection with codeSessionClosed.
func isPeerClose(err error) bool {
	var appErr *q.ApplicationError
	return errors.As(err, &appErr) && appErr.Remote && appErr.ErrorCode == codeSessionClosed
}
