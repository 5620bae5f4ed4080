// Package streamchat provides a two-peer encrypted chat over a single byte stream.
//
// A session starts with a Diffie-Hellman exchange over a 64-bit prime field. The
// shared secret seeds one keystream generator per direction, and every message is
// sent as a length-prefixed frame of XOR ciphertext. The stream itself can be TCP,
// a QUIC stream or a WebSocket.
//
// The keystream is a linear congruential generator. It is not cryptographically
// secure and frames carry no authentication; streamchat reproduces this wire
// behaviour exactly and does not try to harden it.
package streamchat
