package crypto

import "crypto/cipher"

var _ cipher.Stream = (*Keystream)(nil)

// XOR combines data with the next len(data) keystream bytes and returns a new slice.
// Encryption and decryption are the same operation.
func XOR(data []byte, ks *Keystream) []byte {
	out := make([]byte, len(data))
	ks.XORKeyStream(out, data)
	return out
}
