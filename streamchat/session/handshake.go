package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/streamchat/streamchat/crypto"
	"github.com/TheusHen/streamchat/streamchat/protocol"
)

var (
	ErrHandshakeFailed = errors.New("session: handshake failed")
)

type HandshakeOptions struct {
	// Params are the DH group parameters. Zero value means crypto.DefaultParams.
	Params crypto.Params
	// Rand is the private key source. Nil means crypto/rand.
	Rand io.Reader
	// OnState, if set, observes every state transition.
	OnState func(State)
}

func (o HandshakeOptions) params() crypto.Params {
	if o.Params == (crypto.Params{}) {
		return crypto.DefaultParams
	}
	return o.Params
}

// HandshakeInitiator performs the key exchange as the connecting peer.
// The initiator writes its public key first, then reads the peer's.
func HandshakeInitiator(ctx context.Context, conn io.ReadWriteCloser, opts HandshakeOptions) (*Session, error) {
	return handshake(ctx, conn, RoleInitiator, opts)
}

// HandshakeResponder performs the key exchange as the listening peer.
// The responder reads the initiator's public key first, then writes its own.
func HandshakeResponder(ctx context.Context, conn io.ReadWriteCloser, opts HandshakeOptions) (*Session, error) {
	return handshake(ctx, conn, RoleResponder, opts)
}

func handshake(ctx context.Context, conn io.ReadWriteCloser, role Role, opts HandshakeOptions) (*Session, error) {
	hs := &handshakeState{role: role, onState: opts.OnState}
	params := opts.params()

	hs.enter(StateGeneratingKeys)
	if err := params.Validate(); err != nil {
		return nil, hs.abort(err)
	}
	kp, err := crypto.GenerateKeyPair(params, opts.Rand)
	if err != nil {
		return nil, hs.abort(err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "session.handshake",
		"role":       role.String(),
		"p":          crypto.FormatHexGrouped(params.P),
		"g":          params.G,
		"public_key": fmt.Sprintf("%016X", kp.PublicKey),
	}).Debug("Generated DH keypair")

	// Blocking reads cannot observe ctx; closing the stream unblocks them.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	hs.enter(StateExchanging)
	peerPub, err := exchange(conn, role, kp.PublicKey)
	if !stop() {
		// ctx fired and the stream is already closed
		if err == nil {
			err = ctx.Err()
		} else {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
	}
	if err != nil {
		return nil, hs.abort(err)
	}

	secret := kp.Secret(params, peerPub)
	hs.enter(StateDone)

	logrus.WithFields(logrus.Fields{
		"function":        "session.handshake",
		"role":            role.String(),
		"peer_public_key": fmt.Sprintf("%016X", peerPub),
		"secret":          fmt.Sprintf("%016X", secret),
	}).Debug("Computed shared secret")

	return newSession(conn, role, secret), nil
}

// exchange swaps public keys in role order so both peers never block on the same direction.
func exchange(conn io.ReadWriter, role Role, localPub uint64) (uint64, error) {
	if role == RoleResponder {
		peerPub, err := protocol.ReadPublicKey(conn)
		if err != nil {
			return 0, fmt.Errorf("read peer public key: %w", err)
		}
		if err := protocol.WritePublicKey(conn, localPub); err != nil {
			return 0, fmt.Errorf("write public key: %w", err)
		}
		return peerPub, nil
	}

	if err := protocol.WritePublicKey(conn, localPub); err != nil {
		return 0, fmt.Errorf("write public key: %w", err)
	}
	peerPub, err := protocol.ReadPublicKey(conn)
	if err != nil {
		return 0, fmt.Errorf("read peer public key: %w", err)
	}
	return peerPub, nil
}

type handshakeState struct {
	role    Role
	state   State
	onState func(State)
}

func (h *handshakeState) enter(s State) {
	h.state = s
	if h.onState != nil {
		h.onState(s)
	}
}

func (h *handshakeState) abort(err error) error {
	from := h.state
	h.enter(StateAborted)
	logrus.WithFields(logrus.Fields{
		"function": "session.handshake",
		"role":     h.role.String(),
		"state":    from.String(),
		"error":    err.Error(),
	}).Error("Handshake aborted")
	return fmt.Errorf("%w (%s): %w", ErrHandshakeFailed, from, err)
}
