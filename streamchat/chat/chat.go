package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TheusHen/streamchat/streamchat/session"
	"github.com/TheusHen/streamchat/streamchat/transcript"
)

var (
	ErrSendFailed  = errors.New("chat: send failed")
	ErrLineTooLong = errors.New("chat: input line too long")
)

// maxLineSize bounds a single input line; longer lines are skipped with a notice.
const maxLineSize = 1 << 20

// Recorder receives every message that was shown to the user.
type Recorder interface {
	Record(e transcript.Entry) error
}

type Option func(*Chat)

// WithRecorder records sent and received messages.
func WithRecorder(r Recorder) Option {
	return func(c *Chat) { c.recorder = r }
}

// Chat drives one duplex conversation. A Chat is single use.
type Chat struct {
	sess     *session.Session
	in       io.Reader
	console  *Console
	recorder Recorder

	// set before the send loop closes the session, so the receive loop
	// can tell a local shutdown from a connection failure
	closing atomic.Bool
}

// New creates a chat reading lines from in and rendering to out.
func New(sess *session.Session, in io.Reader, out io.Writer, opts ...Option) *Chat {
	c := &Chat{
		sess:    sess,
		in:      in,
		console: NewConsole(out),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run runs both loops until the user ends input, ctx is cancelled or the
// connection fails. A clean end on either side returns nil.
//
// A goroutine blocked reading in is not interrupted; it exits at the next
// line or at end of input.
func (c *Chat) Run(ctx context.Context) error {
	logrus.WithFields(logrus.Fields{
		"function": "Chat.Run",
		"role":     c.sess.Role().String(),
	}).Debug("Starting duplex chat")

	c.console.Banner()

	done := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		defer close(done)
		return c.receiveLoop()
	})
	g.Go(func() error {
		defer c.shutdown()
		return c.sendLoop(ctx, done)
	})

	err := g.Wait()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Chat.Run",
			"error":    err.Error(),
		}).Error("Chat ended with error")
		return err
	}
	logrus.WithField("function", "Chat.Run").Debug("Chat ended")
	return nil
}

func (c *Chat) shutdown() {
	c.closing.Store(true)
	_ = c.sess.Close()
}

func (c *Chat) receiveLoop() error {
	for {
		msg, err := c.sess.Receive()
		if err != nil {
			if c.closing.Load() || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("chat: receive: %w", err)
		}
		if !utf8.Valid(msg) {
			logrus.WithFields(logrus.Fields{
				"function": "Chat.receiveLoop",
				"length":   len(msg),
			}).Debug("Dropping message that is not valid text")
			continue
		}
		text := string(msg)
		c.console.Received(text)
		c.record(transcript.Received, text)
	}
}

func (c *Chat) sendLoop(ctx context.Context, done <-chan struct{}) error {
	stop := make(chan struct{})
	defer close(stop)
	lines, readErr := c.readLines(stop)

	c.console.Prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			c.console.Closed()
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("chat: read input: %w", err)
				}
				return nil
			}
			if line.tooLong {
				c.console.Notice(fmt.Sprintf("%v: over %d bytes", ErrLineTooLong, maxLineSize))
				continue
			}
			if line.text == "" {
				c.console.Prompt()
				continue
			}
			if err := c.sess.Send([]byte(line.text)); err != nil {
				if errors.Is(err, session.ErrMessageTooLarge) {
					c.console.Notice(err.Error())
					continue
				}
				select {
				case <-done:
					// peer already gone; the write lost the race with the receive loop
					c.console.Closed()
					return nil
				default:
				}
				return fmt.Errorf("%w: %w", ErrSendFailed, err)
			}
			c.console.Sent(line.text)
			c.record(transcript.Sent, line.text)
		}
	}
}

type inputLine struct {
	text    string
	tooLong bool
}

// readLines owns c.in. Lines are delivered until end of input or until stop is closed.
func (c *Chat) readLines(stop <-chan struct{}) (<-chan inputLine, <-chan error) {
	lines := make(chan inputLine)
	errCh := make(chan error, 1)
	go func() {
		defer close(lines)
		br := bufio.NewReader(c.in)
		for {
			line, err := readLine(br)
			if err != nil {
				if err == io.EOF {
					err = nil
				}
				errCh <- err
				return
			}
			select {
			case lines <- line:
			case <-stop:
				errCh <- nil
				return
			}
		}
	}()
	return lines, errCh
}

// readLine reads one line without its terminator. A line over maxLineSize is
// consumed to its end and returned empty with tooLong set.
func readLine(br *bufio.Reader) (inputLine, error) {
	var buf []byte
	tooLong := false
	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			return inputLine{}, err
		}
		if !tooLong {
			if len(buf)+len(frag) > maxLineSize {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if !isPrefix {
			return inputLine{text: string(buf), tooLong: tooLong}, nil
		}
	}
}

func (c *Chat) record(dir transcript.Direction, text string) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(transcript.Entry{Direction: dir, Text: text}); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Chat.record",
			"error":    err.Error(),
		}).Warn("Failed to record transcript entry")
	}
}
