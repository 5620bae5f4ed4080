package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidParams = errors.New("crypto: invalid DH parameters")
)

// Params are the public Diffie-Hellman group parameters.
// Both peers must use identical values; a mismatch is not detectable on the wire.
type Params struct {
	P uint64 // prime modulus
	G uint64 // generator
}

// DefaultParams is the 64-bit group used by streamchat peers.
var DefaultParams = Params{
	P: 0xD87FA3E291B4C7F3,
	G: 2,
}

// Validate reports whether the parameters can be used for an exchange.
func (p Params) Validate() error {
	if p.P < 2 {
		return fmt.Errorf("%w: modulus %d", ErrInvalidParams, p.P)
	}
	if p.G == 0 {
		return fmt.Errorf("%w: zero generator", ErrInvalidParams)
	}
	return nil
}

// KeyPair is an ephemeral DH keypair. PrivateKey never leaves the process.
type KeyPair struct {
	PrivateKey uint64
	PublicKey  uint64
}

// GenerateKeyPair draws a 64-bit private key from r and derives the public key.
// A nil reader means crypto/rand.
func GenerateKeyPair(params Params, r io.Reader) (KeyPair, error) {
	if r == nil {
		r = rand.Reader
	}
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return KeyPair{}, fmt.Errorf("crypto: read private key: %w", err)
	}
	return NewKeyPair(params, binary.BigEndian.Uint64(buf[:])), nil
}

// NewKeyPair derives the public key for a known private key.
func NewKeyPair(params Params, privateKey uint64) KeyPair {
	return KeyPair{
		PrivateKey: privateKey,
		PublicKey:  ModExp(params.G, privateKey, params.P),
	}
}

// Secret computes the shared secret peerPublic^private mod P.
func (kp KeyPair) Secret(params Params, peerPublic uint64) uint64 {
	return ModExp(peerPublic, kp.PrivateKey, params.P)
}
