package chat

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheusHen/streamchat/streamchat/protocol"
	"github.com/TheusHen/streamchat/streamchat/session"
	"github.com/TheusHen/streamchat/streamchat/transcript"
)

const secret = 21

// syncBuffer lets the test read console output written by chat goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type memRecorder struct {
	mu      sync.Mutex
	entries []transcript.Entry
}

func (r *memRecorder) Record(e transcript.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func runAsync(ctx context.Context, c *Chat) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	return errCh
}

func wait(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("chat did not finish")
		return nil
	}
}

// idleInput never yields a line until the test ends.
func idleInput(t *testing.T) io.Reader {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	return pr
}

func TestChatDeliversAndShutsDown(t *testing.T) {
	a, b := net.Pipe()
	ctx := context.Background()

	var outA, outB syncBuffer
	rec := &memRecorder{}
	chatA := New(session.NewSession(a, session.RoleInitiator, secret), strings.NewReader("\n\nhi\n"), &outA)
	chatB := New(session.NewSession(b, session.RoleResponder, secret), idleInput(t), &outB, WithRecorder(rec))

	errB := runAsync(ctx, chatB)
	errA := runAsync(ctx, chatA)

	require.NoError(t, wait(t, errA))
	require.NoError(t, wait(t, errB))

	assert.Contains(t, outA.String(), "[SENT] hi")
	assert.Contains(t, outA.String(), "Secure channel established!")
	assert.Equal(t, 1, strings.Count(outB.String(), "[RECV]"))
	assert.Contains(t, outB.String(), "[RECV] hi")
	assert.Contains(t, outB.String(), "Connection closed.")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.entries, 1)
	assert.Equal(t, transcript.Received, rec.entries[0].Direction)
	assert.Equal(t, "hi", rec.entries[0].Text)
}

func TestChatBothDirections(t *testing.T) {
	a, b := net.Pipe()
	ctx := context.Background()

	inA, feedA := io.Pipe()
	var outA, outB syncBuffer
	chatA := New(session.NewSession(a, session.RoleInitiator, secret), inA, &outA)
	chatB := New(session.NewSession(b, session.RoleResponder, secret), strings.NewReader("from b\n"), &outB)

	errA := runAsync(ctx, chatA)
	errB := runAsync(ctx, chatB)

	// B's input ends after one line, which closes the connection
	require.NoError(t, wait(t, errB))
	require.NoError(t, wait(t, errA))
	_ = feedA.Close()

	assert.Contains(t, outA.String(), "[RECV] from b")
	assert.Contains(t, outB.String(), "[SENT] from b")
}

func TestChatDropsUndecodableMessages(t *testing.T) {
	a, b := net.Pipe()
	sender := session.NewSession(a, session.RoleInitiator, secret)

	var out syncBuffer
	errCh := runAsync(context.Background(), New(session.NewSession(b, session.RoleResponder, secret), idleInput(t), &out))

	require.NoError(t, sender.Send([]byte{0xff, 0xfe, 0xfd}))
	require.NoError(t, sender.Send([]byte("still in sync")))
	require.NoError(t, sender.Close())

	require.NoError(t, wait(t, errCh))
	assert.Equal(t, 1, strings.Count(out.String(), "[RECV]"))
	assert.Contains(t, out.String(), "[RECV] still in sync")
}

func TestChatFrameTooLargeIsFatal(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()

	var out syncBuffer
	errCh := runAsync(context.Background(), New(session.NewSession(b, session.RoleResponder, secret), idleInput(t), &out))

	_, err := a.Write([]byte{0, 0, 0x4e, 0x21}) // 20001
	require.NoError(t, err)

	err = wait(t, errCh)
	assert.ErrorIs(t, err, protocol.ErrFrameTooLarge)
}

func TestChatTruncatedFrameIsFatal(t *testing.T) {
	a, b := net.Pipe()

	var out syncBuffer
	errCh := runAsync(context.Background(), New(session.NewSession(b, session.RoleResponder, secret), idleInput(t), &out))

	_, err := a.Write([]byte{0, 0, 0, 9, 'x'})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	err = wait(t, errCh)
	assert.ErrorIs(t, err, protocol.ErrFrameTruncated)
}

func TestChatContextCancel(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	errCh := runAsync(ctx, New(session.NewSession(b, session.RoleResponder, secret), idleInput(t), &out))

	cancel()
	require.NoError(t, wait(t, errCh))

	// the peer sees the connection go away
	_, err := a.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestChatRefusesOversizeLine(t *testing.T) {
	a, b := net.Pipe()

	input := strings.Repeat("x", protocol.MaxFramePayload+1) + "\nok\n"
	var outA, outB syncBuffer
	chatA := New(session.NewSession(a, session.RoleInitiator, secret), strings.NewReader(input), &outA)
	chatB := New(session.NewSession(b, session.RoleResponder, secret), idleInput(t), &outB)

	errB := runAsync(context.Background(), chatB)
	errA := runAsync(context.Background(), chatA)
	require.NoError(t, wait(t, errA))
	require.NoError(t, wait(t, errB))

	assert.Contains(t, outA.String(), "[!] ")
	assert.Contains(t, outB.String(), "[RECV] ok")
	assert.Equal(t, 1, strings.Count(outB.String(), "[RECV]"))
}

// brokenConn fails every write and blocks reads until closed.
type brokenConn struct {
	closed chan struct{}
	once   sync.Once
}

func (c *brokenConn) Read([]byte) (int, error) {
	<-c.closed
	return 0, io.EOF
}

func (c *brokenConn) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func (c *brokenConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func TestChatSendFailure(t *testing.T) {
	conn := &brokenConn{closed: make(chan struct{})}
	var out syncBuffer
	err := New(session.NewSession(conn, session.RoleInitiator, secret), strings.NewReader("hello\n"), &out).Run(context.Background())
	assert.ErrorIs(t, err, ErrSendFailed)
}

func TestChatSkipsOverlongLine(t *testing.T) {
	a, b := net.Pipe()

	input := strings.Repeat("y", maxLineSize+100) + "\nstill here\n"
	var outA, outB syncBuffer
	chatA := New(session.NewSession(a, session.RoleInitiator, secret), strings.NewReader(input), &outA)
	chatB := New(session.NewSession(b, session.RoleResponder, secret), idleInput(t), &outB)

	errB := runAsync(context.Background(), chatB)
	errA := runAsync(context.Background(), chatA)
	require.NoError(t, wait(t, errA))
	require.NoError(t, wait(t, errB))

	assert.Contains(t, outA.String(), "[!] "+ErrLineTooLong.Error())
	assert.Contains(t, outB.String(), "[RECV] still here")
	assert.Equal(t, 1, strings.Count(outB.String(), "[RECV]"))
}

func TestReadLine(t *testing.T) {
	long := strings.Repeat("z", maxLineSize+1)
	br := bufio.NewReaderSize(strings.NewReader("one\r\n"+long+"\n\nlast"), 16)

	var got []inputLine
	for {
		line, err := readLine(br)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, line)
	}
	assert.Equal(t, []inputLine{
		{text: "one"},
		{tooLong: true},
		{text: ""},
		{text: "last"},
	}, got)
}
