package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// MaxFramePayload limits the payload a reader accepts in one frame.
	MaxFramePayload = 10000

	frameHeaderSize = 4
)

var (
	ErrFrameTooLarge  = errors.New("protocol frame payload too large")
	ErrFrameTruncated = errors.New("protocol frame truncated")
)

// Frame format:
//
//	4 bytes: payload length (big endian)
//	N bytes: payload
//
// One frame carries one chat message. The writer does not enforce
// MaxFramePayload; oversized frames are rejected by the reader.

// WriteFrame writes payload as a single frame and flushes it in one write.
func WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d", ErrFrameTooLarge, len(payload))
	}
	bw := bufio.NewWriterSize(w, frameHeaderSize+len(payload))
	var lenBuf [frameHeaderSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := bw.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := bw.Write(payload); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFrame reads one frame. It returns io.EOF if the stream ends cleanly
// before a header, ErrFrameTruncated if it ends inside a frame and
// ErrFrameTooLarge if the announced length exceeds MaxFramePayload.
// r is read unbuffered so no bytes past the frame are consumed.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [frameHeaderSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, truncated(err)
	}
	payloadLen := binary.BigEndian.Uint32(lenBuf[:])
	if payloadLen > MaxFramePayload {
		return nil, fmt.Errorf("%w: %d", ErrFrameTooLarge, payloadLen)
	}
	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, truncated(err)
		}
	}
	return payload, nil
}

func truncated(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrFrameTruncated, err)
	}
	return err
}
