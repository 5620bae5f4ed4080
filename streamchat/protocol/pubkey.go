package protocol

import (
	"encoding/binary"
	"io"
)

// PublicKeySize is the wire size of a DH public key.
const PublicKeySize = 8

// WritePublicKey writes a DH public key as 8 big-endian bytes.
func WritePublicKey(w io.Writer, pub uint64) error {
	var buf [PublicKeySize]byte
	binary.BigEndian.PutUint64(buf[:], pub)
	_, err := w.Write(buf[:])
	return err
}

// ReadPublicKey reads exactly 8 bytes and decodes them as a big-endian public key.
func ReadPublicKey(r io.Reader) (uint64, error) {
	var buf [PublicKeySize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
