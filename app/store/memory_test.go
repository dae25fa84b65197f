package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWrite(t *testing.T) {
	m := NewMemory()

	t.Run("missing key", func(t *testing.T) {
		_, ok := m.Read("nope")
		assert.False(t, ok)
	})

	t.Run("round trips the exact bytes", func(t *testing.T) {
		value := "v\r\n\x00\xffbinary"
		m.Write("k", value)

		record, ok := m.Read("k")
		require.True(t, ok)
		assert.Equal(t, value, record.Value)
		assert.False(t, record.HasExpiry())
	})

	t.Run("overwrite clears expiry", func(t *testing.T) {
		m.WriteTTL("short", "v", 50)
		m.Write("short", "v2")

		time.Sleep(80 * time.Millisecond)

		record, ok := m.Read("short")
		require.True(t, ok)
		assert.Equal(t, "v2", record.Value)
	})
}

func TestExpiry(t *testing.T) {
	m := NewMemory()

	t.Run("value readable before the deadline", func(t *testing.T) {
		m.WriteTTL("k", "v", 200)

		record, ok := m.Read("k")
		require.True(t, ok)
		assert.Equal(t, "v", record.Value)
	})

	t.Run("value absent after the deadline", func(t *testing.T) {
		m.WriteTTL("k", "v", 50)
		time.Sleep(100 * time.Millisecond)

		_, ok := m.Read("k")
		assert.False(t, ok)
	})

	t.Run("zero ttl is immediately absent", func(t *testing.T) {
		m.WriteTTL("dead", "v", 0)
		time.Sleep(time.Millisecond)

		_, ok := m.Read("dead")
		assert.False(t, ok)
	})

	t.Run("negative ttl is immediately absent", func(t *testing.T) {
		m.WriteTTL("dead", "v", -100)

		_, ok := m.Read("dead")
		assert.False(t, ok)
	})
}

func TestKeys(t *testing.T) {
	m := NewMemory()
	m.Write("a", "1")
	m.Write("b", "2")
	m.WriteTTL("gone", "3", -1)

	assert.ElementsMatch(t, []string{"a", "b"}, m.Keys())
	assert.Equal(t, 2, m.Len())
}

func TestDumpHydrate(t *testing.T) {
	m := NewMemory()
	m.Write("foo", "bar")
	m.Write("n", "42")
	m.WriteTTL("ttl", "v", 60_000)

	var b bytes.Buffer
	require.NoError(t, m.Dump(&b))

	restored := NewMemory()
	require.NoError(t, restored.Hydrate(&b))

	record, ok := restored.Read("foo")
	require.True(t, ok)
	assert.Equal(t, "bar", record.Value)

	record, ok = restored.Read("n")
	require.True(t, ok)
	assert.Equal(t, "42", record.Value)

	record, ok = restored.Read("ttl")
	require.True(t, ok)
	assert.True(t, record.HasExpiry())

	// The deadline survives the wall-clock conversion within a small
	// delta.
	remaining := time.Until(record.ExpiresAt)
	assert.InDelta(t, 60_000, remaining.Milliseconds(), 100)
}

func TestHydrateReplacesDataset(t *testing.T) {
	m := NewMemory()
	m.Write("old", "value")

	var b bytes.Buffer
	require.NoError(t, NewMemory().Dump(&b))

	require.NoError(t, m.Hydrate(&b))
	_, ok := m.Read("old")
	assert.False(t, ok)
}

func TestHydrateInvalidInput(t *testing.T) {
	m := NewMemory()
	m.Write("keep", "me")

	err := m.Hydrate(bytes.NewReader([]byte("not a snapshot")))
	assert.Error(t, err)

	// A failed hydrate leaves the dataset untouched.
	_, ok := m.Read("keep")
	assert.True(t, ok)
}

func TestSnapshotFiles(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is not an error", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.LoadSnapshot(dir, "absent.rdb"))
		assert.Empty(t, m.Keys())
	})

	t.Run("save then load", func(t *testing.T) {
		m := NewMemory()
		m.Write("foo", "bar")
		require.NoError(t, m.SaveSnapshot(dir, "dump.rdb"))

		restored := NewMemory()
		require.NoError(t, restored.LoadSnapshot(dir, "dump.rdb"))

		record, ok := restored.Read("foo")
		require.True(t, ok)
		assert.Equal(t, "bar", record.Value)
	})

	t.Run("creates the directory", func(t *testing.T) {
		nested := filepath.Join(dir, "a", "b")

		m := NewMemory()
		require.NoError(t, m.SaveSnapshot(nested, "dump.rdb"))

		restored := NewMemory()
		require.NoError(t, restored.LoadSnapshot(nested, "dump.rdb"))
	})

	t.Run("corrupt file returns an error", func(t *testing.T) {
		m := NewMemory()
		m.Write("x", "y")
		require.NoError(t, m.SaveSnapshot(dir, "corrupt.rdb"))

		path := filepath.Join(dir, "corrupt.rdb")
		require.NoError(t, os.WriteFile(path, []byte("REDIS9999"), 0o644))

		assert.Error(t, NewMemory().LoadSnapshot(dir, "corrupt.rdb"))
	})
}
