// Package transcript records a conversation as an lz4-compressed text log.
//
// Each entry is one line:
//
//	<RFC 3339 timestamp> TAB <SENT|RECV> TAB <Go-quoted text>
//
// Quoting keeps a multi-line or control-character message on a single line.
package transcript

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pierrec/lz4/v4"
)

var (
	ErrClosed         = errors.New("transcript: writer closed")
	ErrMalformedEntry = errors.New("transcript: malformed entry")
)

type Direction uint8

const (
	Sent Direction = iota + 1
	Received
)

func (d Direction) String() string {
	switch d {
	case Sent:
		return "SENT"
	case Received:
		return "RECV"
	default:
		return "UNKNOWN"
	}
}

func parseDirection(s string) (Direction, error) {
	switch s {
	case "SENT":
		return Sent, nil
	case "RECV":
		return Received, nil
	default:
		return 0, fmt.Errorf("%w: direction %q", ErrMalformedEntry, s)
	}
}

// Entry is one recorded message. A zero Time is stamped with the current time on Record.
type Entry struct {
	Time      time.Time
	Direction Direction
	Text      string
}

// Writer appends entries to an lz4 frame. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	zw     *lz4.Writer
	file   io.Closer
	closed bool
	now    func() time.Time
}

// NewWriter compresses entries into w. Close finishes the frame but does not close w.
func NewWriter(w io.Writer) *Writer {
	zw := lz4.NewWriter(w)
	_ = zw.Apply(lz4.CompressionLevelOption(lz4.Fast))
	return &Writer{zw: zw, now: time.Now}
}

// Create truncates or creates path and returns a Writer that owns the file.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	w := NewWriter(f)
	w.file = f
	return w, nil
}

// Record appends e and flushes it so a crash loses at most the entry in progress.
func (w *Writer) Record(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if e.Time.IsZero() {
		e.Time = w.now()
	}
	line := fmt.Sprintf("%s\t%s\t%s\n", e.Time.UTC().Format(time.RFC3339), e.Direction, strconv.Quote(e.Text))
	if _, err := io.WriteString(w.zw, line); err != nil {
		return err
	}
	return w.zw.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.zw.Close()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ReadAll decompresses and parses every entry in r.
func ReadAll(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(lz4.NewReader(r))
	sc.Buffer(make([]byte, 4096), 1<<22)
	var out []Entry
	for sc.Scan() {
		e, err := parseEntry(sc.Text())
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// ReadFile reads the transcript stored at path.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAll(f)
}

func parseEntry(line string) (Entry, error) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 {
		return Entry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}
	ts, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	dir, err := parseDirection(parts[1])
	if err != nil {
		return Entry{}, err
	}
	text, err := strconv.Unquote(parts[2])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	return Entry{Time: ts, Direction: dir, Text: text}, nil
}

// Format renders an entry the way the chat console shows it.
func (e Entry) Format() string {
	return fmt.Sprintf("%s [%s] %s", e.Time.Local().Format("2006-01-02 15:04:05"), e.Direction, e.Text)
}
