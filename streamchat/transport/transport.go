// Package transport selects the byte stream a chat session runs over.
//
// Every transport yields an ordered, reliable, bidirectional stream per peer.
// Closing the stream must unblock a pending Read on both ends.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/TheusHen/streamchat/streamchat/transport/quic"
	"github.com/TheusHen/streamchat/streamchat/transport/tcp"
	"github.com/TheusHen/streamchat/streamchat/transport/ws"
)

var (
	ErrUnknownTransport = errors.New("transport: unknown transport")
)

// Listener accepts one stream per incoming peer.
type Listener interface {
	Accept(ctx context.Context) (io.ReadWriteCloser, error)
	AddrString() string
	Close() error
}

type Transport interface {
	Listen(addr string) (Listener, error)
	Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error)
}

type tcpTransport struct{}

func (tcpTransport) Listen(addr string) (Listener, error) {
	ln, err := tcp.Listen(addr)
	if err != nil {
		return nil, err
	}
	return ln, nil
}

func (tcpTransport) Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	return tcp.Dial(ctx, addr)
}

type quicTransport struct{}

func (quicTransport) Listen(addr string) (Listener, error) {
	ln, err := quic.Listen(addr)
	if err != nil {
		return nil, err
	}
	return ln, nil
}

func (quicTransport) Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	return quic.Dial(ctx, addr)
}

type wsTransport struct{}

func (wsTransport) Listen(addr string) (Listener, error) {
	ln, err := ws.Listen(addr)
	if err != nil {
		return nil, err
	}
	return ln, nil
}

func (wsTransport) Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	return ws.Dial(ctx, addr)
}

var registry = map[string]Transport{
	"tcp":  tcpTransport{},
	"quic": quicTransport{},
	"ws":   wsTransport{},
}

// Default is the transport name used when none is configured.
const Default = "tcp"

// ByName returns the transport registered under name.
func ByName(name string) (Transport, error) {
	if name == "" {
		name = Default
	}
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownTransport, name, Names())
	}
	return t, nil
}

// Names lists the registered transports.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
