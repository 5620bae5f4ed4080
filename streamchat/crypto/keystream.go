package crypto

// LCG constants of the keystream generator.
const (
	lcgMultiplier uint64 = 1103515245
	lcgIncrement  uint64 = 12345
	lcgModulus    uint64 = 1 << 31
)

// Keystream is a deterministic byte generator.
// Two generators built from the same seed yield the same bytes, call for call.
// It is not safe for concurrent use; each direction of a session owns one.
type Keystream struct {
	state uint64
}

func NewKeystream(seed uint64) *Keystream {
	return &Keystream{state: seed}
}

// NextByte advances the generator and returns bits 16..23 of the new state.
func (k *Keystream) NextByte() byte {
	// multiply and add wrap at 64 bits before the reduction
	k.state = (k.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return byte(k.state >> 16)
}

// XORKeyStream implements cipher.Stream.
func (k *Keystream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("crypto: output smaller than input")
	}
	for i, b := range src {
		dst[i] = b ^ k.NextByte()
	}
}
