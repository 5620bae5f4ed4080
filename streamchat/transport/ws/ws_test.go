package ws

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialAcceptStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	acceptCh := make(chan io.ReadWriteCloser, 1)
	go func() {
		c, err := ln.Accept(ctx)
		if err == nil {
			acceptCh <- c
		}
		close(acceptCh)
	}()

	client, err := Dial(ctx, ln.AddrString())
	require.NoError(t, err)
	defer client.Close()

	server, ok := <-acceptCh
	require.True(t, ok, "accept failed")
	defer server.Close()

	// several writes read back as one contiguous stream
	for _, part := range []string{"he", "llo", " world"} {
		_, err := client.Write([]byte(part))
		require.NoError(t, err)
	}
	buf := make([]byte, len("hello world"))
	_, err = io.ReadFull(server, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(buf))

	require.NoError(t, client.Close())
	_, err = server.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestAcceptAfterClose(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	_, err = ln.Accept(context.Background())
	assert.ErrorIs(t, err, ErrListenerClosed)
}
