// Package chat runs an interactive, duplex conversation over an established session.
//
// A Chat runs two loops for the lifetime of the session:
//
//   - the receive loop reads frames, decrypts them and prints them; messages that
//     do not decode as UTF-8 text are dropped without notice
//   - the send loop reads input lines, encrypts them and writes them as frames
//
// The receive loop owns the read half of the stream and the receive keystream;
// the send loop owns the write half and the send keystream. When either loop
// ends, the session is closed, which unblocks the other one, and Run returns
// after both have been joined.
package chat
