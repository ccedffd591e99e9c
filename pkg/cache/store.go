// Package cache implements the file-backed lookup cache shared by all
// command invocations. Entries live under <root>/<namespace>/<key>.json and
// carry their own fetch timestamp; an entry older than the TTL reads as
// absent. Writes go to a temporary file in the same directory and are
// published with an atomic rename, so concurrent invocations never observe a
// half-written entry and the last writer wins.
package cache

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Namespaces used by the tool.
const (
	NamespaceParts = "parts"
	NamespacePins  = "pins"
)

// entry is the on-disk envelope around a cached payload.
type entry struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Store is a namespace-partitioned cache rooted at a directory.
type Store struct {
	root string
	ttl  time.Duration

	// now is swappable for TTL tests.
	now func() time.Time
}

// New creates a store rooted at dir with the given TTL.
func New(dir string, ttl time.Duration) *Store {
	return &Store{root: dir, ttl: ttl, now: time.Now}
}

// Get returns the payload stored under namespace/key if the entry exists and
// is younger than the TTL. Expired or unreadable entries are reported as
// absent; they stay on disk until the next Put overwrites them.
func (s *Store) Get(namespace, key string) (json.RawMessage, bool) {
	data, err := os.ReadFile(s.entryPath(namespace, key))
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	if s.now().Sub(e.FetchedAt) >= s.ttl {
		return nil, false
	}
	return e.Payload, true
}

// Put stores payload under namespace/key with the current timestamp,
// replacing any previous entry. The write is atomic: the entry is staged in
// a temporary file and renamed into place.
func (s *Store) Put(namespace, key string, payload json.RawMessage) error {
	dir := filepath.Join(s.root, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: create %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(entry{FetchedAt: s.now().UTC(), Payload: payload}, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encode %s/%s: %w", namespace, key, err)
	}

	target := s.entryPath(namespace, key)
	tmp := fmt.Sprintf("%s.tmp-%d-%d", target, os.Getpid(), rand.Int63())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cache: stage %s/%s: %w", namespace, key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cache: publish %s/%s: %w", namespace, key, err)
	}
	return nil
}

// GetJSON decodes the cached payload into v, reporting whether a valid entry
// was found.
func (s *Store) GetJSON(namespace, key string, v any) bool {
	payload, ok := s.Get(namespace, key)
	if !ok {
		return false
	}
	return json.Unmarshal(payload, v) == nil
}

// PutJSON encodes v and stores it under namespace/key.
func (s *Store) PutJSON(namespace, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: marshal %s/%s: %w", namespace, key, err)
	}
	return s.Put(namespace, key, payload)
}

// Clear removes every entry in the given namespace and returns how many
// entries were removed.
func (s *Store) Clear(namespace string) (int, error) {
	dir := filepath.Join(s.root, namespace)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("cache: read %s: %w", dir, err)
	}

	count := 0
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, de.Name())); err != nil {
			return count, fmt.Errorf("cache: remove %s: %w", de.Name(), err)
		}
		count++
	}
	return count, nil
}

// ClearAll clears both namespaces and returns the total removed.
func (s *Store) ClearAll() (int, error) {
	total := 0
	for _, ns := range []string{NamespaceParts, NamespacePins} {
		n, err := s.Clear(ns)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Dir returns the cache root directory.
func (s *Store) Dir() string {
	return s.root
}

func (s *Store) entryPath(namespace, key string) string {
	return filepath.Join(s.root, namespace, sanitizeKey(key)+".json")
}

// sanitizeKey keeps entry filenames safe for the filesystem. Lookup keys are
// supplier part numbers, so this rarely changes anything.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, key)
}
