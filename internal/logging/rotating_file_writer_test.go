package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w, err := NewRotatingFileWriter(path, 1024, 1)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first\nsecond\n", string(data))
}

func TestWriterRotatesAtSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w, err := NewRotatingFileWriter(path, 10, 2)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abcde"))
	require.NoError(t, err)

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(backup))

	live, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "abcde", string(live))
}

func TestWriterShiftsBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w, err := NewRotatingFileWriter(path, 4, 2)
	require.NoError(t, err)
	defer w.Close()

	for _, chunk := range []string{"aaaa", "bbbb", "cccc", "dddd"} {
		_, err := w.Write([]byte(chunk))
		require.NoError(t, err)
	}

	live, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "dddd", string(live))

	first, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	require.Equal(t, "cccc", string(first))

	second, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	require.Equal(t, "bbbb", string(second))

	// Only maxBackups files are kept.
	_, err = os.Stat(path + ".3")
	require.True(t, os.IsNotExist(err))
}

func TestWriterOversizedEntryStillWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w, err := NewRotatingFileWriter(path, 8, 1)
	require.NoError(t, err)
	defer w.Close()

	big := strings.Repeat("x", 32)
	n, err := w.Write([]byte(big))
	require.NoError(t, err)
	require.Equal(t, len(big), n)

	live, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, big, string(live))
}

func TestWriterRejectsBadConfig(t *testing.T) {
	_, err := NewRotatingFileWriter("", 1024, 1)
	require.Error(t, err)

	_, err = NewRotatingFileWriter(filepath.Join(t.TempDir(), "app.log"), 0, 1)
	require.Error(t, err)
}

func TestWriterClosedWriteFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w, err := NewRotatingFileWriter(path, 1024, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("after close"))
	require.ErrorIs(t, err, os.ErrClosed)
}
