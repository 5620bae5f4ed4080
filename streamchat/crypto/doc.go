// Package crypto provides the arithmetic and stream primitives of streamchat.
//
// Components:
//   - ModExp: 64-bit modular exponentiation with 128-bit intermediates
//   - Params / KeyPair / Secret: Diffie-Hellman over a 64-bit prime field
//   - Keystream: linear-congruential byte generator seeded from the shared secret
//   - XOR: keystream cipher, one keystream byte per data byte
//
// None of this is cryptographically strong. The generator is predictable from
// a few output bytes and ciphertext carries no authentication tag. The values
// produced here are part of the wire format and must stay bit-exact.
package crypto
