package crypto

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a short, human comparable digest of a shared secret.
// Peers that print the same fingerprint derived the same secret.
func Fingerprint(secret uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], secret)
	sum := blake2b.Sum256(b[:])
	return FormatHexGrouped(binary.BigEndian.Uint64(sum[:8]))
}

// FormatHexGrouped renders v as four groups of four hex digits.
func FormatHexGrouped(v uint64) string {
	return fmt.Sprintf("%04X %04X %04X %04X",
		(v>>48)&0xFFFF,
		(v>>32)&0xFFFF,
		(v>>16)&0xFFFF,
		v&0xFFFF,
	)
}
