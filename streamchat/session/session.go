package session

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/TheusHen/streamchat/streamchat/crypto"
	"github.com/TheusHen/streamchat/streamchat/protocol"
)

var (
	ErrMessageTooLarge = errors.New("session: message exceeds frame limit")
)

// Session is an established chat stream.
//
// Send and Receive may run concurrently with each other: Send owns the write half
// and the send keystream, Receive owns the read half and the receive keystream.
// Neither is safe to call from more than one goroutine at a time.
type Session struct {
	conn   io.ReadWriteCloser
	role   Role
	secret uint64

	send *crypto.Keystream
	recv *crypto.Keystream

	closeOnce sync.Once
	closeErr  error
}

func newSession(conn io.ReadWriteCloser, role Role, secret uint64) *Session {
	return &Session{
		conn:   conn,
		role:   role,
		secret: secret,
		send:   crypto.NewKeystream(secret),
		recv:   crypto.NewKeystream(secret),
	}
}

// NewSession wraps conn with keystreams seeded from an already agreed secret.
func NewSession(conn io.ReadWriteCloser, role Role, secret uint64) *Session {
	return newSession(conn, role, secret)
}

func (s *Session) Role() Role { return s.role }

// SharedSecret returns the DH secret. It must never be sent over the wire.
func (s *Session) SharedSecret() uint64 { return s.secret }

// Fingerprint is a short display digest of the shared secret.
func (s *Session) Fingerprint() string { return crypto.Fingerprint(s.secret) }

// Send encrypts msg and writes it as one frame.
// Messages the peer would reject are refused before any keystream byte is used.
func (s *Session) Send(msg []byte) error {
	if len(msg) > protocol.MaxFramePayload {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(msg))
	}
	return protocol.WriteFrame(s.conn, crypto.XOR(msg, s.send))
}

// Receive reads one frame and decrypts it.
func (s *Session) Receive() ([]byte, error) {
	ct, err := protocol.ReadFrame(s.conn)
	if err != nil {
		return nil, err
	}
	return crypto.XOR(ct, s.recv), nil
}

// Close closes the underlying stream. Blocked Send and Receive calls return with an error.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
