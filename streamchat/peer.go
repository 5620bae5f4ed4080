package streamchat

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/streamchat/streamchat/session"
	"github.com/TheusHen/streamchat/streamchat/transport"
)

var ErrNotListening = errors.New("peer is not listening")

// Peer is a high-level helper that combines transport + handshake.
// Listening peers take the responder role; dialing peers take the initiator role.
type Peer struct {
	transport transport.Transport
	opts      session.HandshakeOptions
	listener  transport.Listener
}

// NewPeer creates a peer using t for its streams. A nil transport means TCP.
func NewPeer(t transport.Transport, opts session.HandshakeOptions) *Peer {
	if t == nil {
		t, _ = transport.ByName(transport.Default)
	}
	return &Peer{transport: t, opts: opts}
}

func (p *Peer) Listen(addr string) error {
	ln, err := p.transport.Listen(addr)
	if err != nil {
		return err
	}
	p.listener = ln
	return nil
}

func (p *Peer) Close() error {
	if p.listener == nil {
		return nil
	}
	return p.listener.Close()
}

func (p *Peer) ListenAddr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.AddrString()
}

// Accept waits for one peer and runs the responder handshake on its stream.
func (p *Peer) Accept(ctx context.Context) (*session.Session, error) {
	if p.listener == nil {
		return nil, ErrNotListening
	}
	conn, err := p.listener.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return p.establish(ctx, conn, session.HandshakeResponder)
}

// Dial connects to addr and runs the initiator handshake.
func (p *Peer) Dial(ctx context.Context, addr string) (*session.Session, error) {
	conn, err := p.transport.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return p.establish(ctx, conn, session.HandshakeInitiator)
}

type handshakeFunc func(context.Context, io.ReadWriteCloser, session.HandshakeOptions) (*session.Session, error)

func (p *Peer) establish(ctx context.Context, conn io.ReadWriteCloser, hs handshakeFunc) (*session.Session, error) {
	sess, err := hs(ctx, conn, p.opts)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function":    "Peer.establish",
		"role":        sess.Role().String(),
		"fingerprint": sess.Fingerprint(),
	}).Info("Session established")
	return sess, nil
}
