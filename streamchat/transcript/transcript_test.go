package transcript

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	entries := []Entry{
		{Time: ts, Direction: Sent, Text: "hi"},
		{Time: ts.Add(time.Second), Direction: Received, Text: "hello\tthere\nsecond line"},
		{Time: ts.Add(2 * time.Second), Direction: Sent, Text: ""},
	}
	for _, e := range entries {
		require.NoError(t, w.Record(e))
	}
	require.NoError(t, w.Close())

	got, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(entries))
	for i := range entries {
		assert.True(t, entries[i].Time.Equal(got[i].Time))
		assert.Equal(t, entries[i].Direction, got[i].Direction)
		assert.Equal(t, entries[i].Text, got[i].Text)
	}
}

func TestWriterStampsTime(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	fixed := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	require.NoError(t, w.Record(Entry{Direction: Received, Text: "x"}))
	require.NoError(t, w.Close())

	got, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, fixed.Equal(got[0].Time))
}

func TestWriterClosed(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.True(t, errors.Is(w.Record(Entry{Direction: Sent, Text: "late"}), ErrClosed))
}

func TestWriterConcurrentRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(dir Direction) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = w.Record(Entry{Direction: dir, Text: strings.Repeat("m", j)})
			}
		}(Direction(i%2 + 1))
	}
	wg.Wait()
	require.NoError(t, w.Close())

	got, err := ReadAll(&buf)
	require.NoError(t, err)
	assert.Len(t, got, 400)
}

func TestCreateAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.lz4")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Record(Entry{Direction: Sent, Text: "persisted"}))
	require.NoError(t, w.Close())

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persisted", got[0].Text)
	assert.Contains(t, got[0].Format(), "[SENT] persisted")
}

func TestParseEntryRejectsGarbage(t *testing.T) {
	for _, line := range []string{
		"no tabs here",
		"not-a-time\tSENT\t\"x\"",
		"2024-05-01T12:30:00Z\tMAYBE\t\"x\"",
		"2024-05-01T12:30:00Z\tSENT\tunquoted",
	} {
		_, err := parseEntry(line)
		assert.ErrorIs(t, err, ErrMalformedEntry, line)
	}
}
