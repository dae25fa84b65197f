// Package store implements the in-memory dataset: a concurrent map of
// key to record with lazy expiry, hydrated from and dumped to binary
// snapshots.
package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/hashbeam/snapkv/app/rdb"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"
)

type Memory struct {
	store *xsync.MapOf[string, Record]
}

func NewMemory() *Memory {
	return &Memory{
		store: xsync.NewMapOf[string, Record](),
	}
}

// Read returns the record for key. An expired record is deleted and
// reported as absent.
func (m *Memory) Read(key string) (Record, bool) {
	record, ok := m.store.Load(key)
	if !ok {
		return Record{}, false
	}

	if record.IsExpired() {
		m.store.Delete(key)
		return Record{}, false
	}

	return record, true
}

// Write stores key without an expiry, clearing any previous one.
func (m *Memory) Write(key, value string) {
	m.store.Store(key, NewRecord(value))
}

// WriteTTL stores key with an expiry of ttlMillis from now.
func (m *Memory) WriteTTL(key, value string, ttlMillis int64) {
	m.store.Store(key, NewRecordTTL(value, ttlMillis))
}

// Keys returns all non-expired keys in unspecified order.
func (m *Memory) Keys() []string {
	keys := make([]string, 0, m.store.Size())

	m.store.Range(func(key string, record Record) bool {
		if !record.IsExpired() {
			keys = append(keys, key)
		}
		return true
	})

	return keys
}

func (m *Memory) Len() int {
	return len(m.Keys())
}

// Entries snapshots the dataset for the snapshot writer, converting
// monotonic deadlines to wall-clock epoch milliseconds.
func (m *Memory) Entries() []rdb.Entry {
	entries := make([]rdb.Entry, 0, m.store.Size())

	m.store.Range(func(key string, record Record) bool {
		entry := rdb.Entry{Key: key, Value: record.Value}
		if record.HasExpiry() {
			entry.Expiry = wallMillis(record.ExpiresAt)
			entry.HasExpiry = true
		}
		entries = append(entries, entry)
		return true
	})

	return entries
}

// Hydrate replaces the dataset with the content of the snapshot read
// from r. Entries whose expiry is already in the past are kept; they
// are dropped lazily on first access.
func (m *Memory) Hydrate(r io.Reader) error {
	snapshot, err := rdb.NewParser(r).Parse()
	if err != nil {
		return err
	}

	m.store.Clear()

	for _, entry := range snapshot.Entries {
		record := Record{Value: entry.Value}
		if entry.HasExpiry {
			record.ExpiresAt = deadlineFromWallMillis(entry.Expiry)
		}
		m.store.Store(entry.Key, record)
	}

	return nil
}

// Dump writes the dataset to w in snapshot format.
func (m *Memory) Dump(w io.Writer) error {
	return rdb.NewWriter(w).Write(m.Entries())
}

// LoadSnapshot hydrates the dataset from dir/filename. A missing file
// is not an error; the dataset stays empty.
func (m *Memory) LoadSnapshot(dir, filename string) error {
	path := filepath.Join(dir, filename)

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info().Str("path", path).Msg("no snapshot file, starting empty")
			return nil
		}
		return err
	}
	defer file.Close()

	if err := m.Hydrate(file); err != nil {
		return err
	}

	log.Info().Str("path", path).Int("keys", m.store.Size()).Msg("snapshot loaded")
	return nil
}

// SaveSnapshot dumps the dataset to dir/filename, creating the
// directory if needed.
func (m *Memory) SaveSnapshot(dir, filename string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, filename)

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := m.Dump(file); err != nil {
		return err
	}

	log.Info().Str("path", path).Int("keys", m.store.Size()).Msg("snapshot saved")
	return nil
}
