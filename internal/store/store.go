// Package store persists application data as a flat key-value map in a
// single JSON file and notifies subscribers when another process changes it.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/gofrs/flock"
	"github.com/tartampluch/go-miti/internal/config"
)

// ErrQuotaExceeded is returned by Set when the write would push the store
// beyond its quota.
var ErrQuotaExceeded = errors.New("storage is full, delete old notes or background images to free up space")

// Estimate reports approximate usage of the miti: keys.
type Estimate struct {
	Used       int     `json:"used"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Option customizes a Store.
type Option func(*Store)

// WithQuota overrides the storage quota in bytes.
func WithQuota(bytes int) Option {
	return func(s *Store) { s.quota = bytes }
}

// Store is a JSON-file backed key-value store. It is safe for concurrent use.
type Store struct {
	path  string
	quota int

	mu   sync.RWMutex
	data map[string]json.RawMessage

	subMu  sync.RWMutex
	subs   map[int]subscription
	nextID int
}

// Open loads the store at path. A missing file yields an empty store; the
// file is created on the first write.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:  path,
		quota: config.StorageQuotaBytes,
		subs:  make(map[int]subscription),
	}
	for _, o := range opts {
		o(s)
	}

	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}
	s.data = data

	slog.Debug(config.MsgStoreLoaded,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyPath, path,
		config.LogKeyCount, len(data),
	)
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get decodes the value stored under key into v. It reports false when the
// key does not exist.
func (s *Store) Get(key string, v any) (bool, error) {
	raw, ok := s.Raw(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("%s %q: %w", config.ErrStoreDecode, key, err)
	}
	return true, nil
}

// Raw returns a copy of the encoded value under key.
func (s *Store) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(raw), true
}

// Set encodes v and stores it under key. The file is re-read under the store
// lock and only key is replaced, so writes of other processes survive.
func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}

	return s.update(key, func(data map[string]json.RawMessage) (bool, error) {
		used := usage(data) + entrySize(key, raw)
		if old, ok := data[key]; ok {
			used -= entrySize(key, old)
		}
		if used > s.quota {
			return false, ErrQuotaExceeded
		}
		data[key] = raw
		return true, nil
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	return s.update(key, func(data map[string]json.RawMessage) (bool, error) {
		if _, ok := data[key]; !ok {
			return false, nil
		}
		delete(data, key)
		return true, nil
	})
}

// update applies a single-key edit to the current file content while holding
// the cross-process lock. Other keys changed on disk since the last read are
// adopted into memory and reported to subscribers like a Reload would.
func (s *Store) update(key string, apply func(map[string]json.RawMessage) (bool, error)) error {
	s.mu.Lock()

	unlock, err := s.lockFile()
	if err != nil {
		s.mu.Unlock()
		return err
	}

	disk, err := readFile(s.path)
	if err != nil {
		unlock()
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}

	changed, err := apply(disk)
	if err == nil && changed {
		err = s.flush(disk)
	}
	unlock()
	if err != nil {
		s.mu.Unlock()
		return err
	}

	var external []change
	for _, c := range diff(s.data, disk) {
		if c.key != key {
			external = append(external, c)
		}
	}
	s.data = disk
	s.mu.Unlock()

	if len(external) > 0 {
		slog.Debug(config.MsgStoreMerged,
			config.LogKeyComponent, config.CompStore,
			config.LogKeyCount, len(external),
		)
	}
	for _, c := range external {
		s.notify(c)
	}
	return nil
}

// lockFile takes the advisory lock shared by every process using the store.
func (s *Store) lockFile() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), config.DirPermUserRWX); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreLock, err)
	}
	fl := flock.New(s.path + config.StoreLockExt)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreLock, err)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			slog.Warn(config.ErrStoreLock,
				config.LogKeyComponent, config.CompStore,
				config.LogKeyError, err,
			)
		}
	}, nil
}

// Keys returns the sorted keys starting with prefix.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Estimate computes the current usage against the quota.
func (s *Store) Estimate() Estimate {
	s.mu.RLock()
	used := usage(s.data)
	s.mu.RUnlock()

	return Estimate{
		Used:       used,
		Total:      s.quota,
		Percentage: float64(used) / float64(s.quota) * 100,
	}
}

// CheckUsage logs a warning and returns false when usage reached the warning
// threshold.
func (s *Store) CheckUsage() bool {
	e := s.Estimate()
	if e.Percentage < config.StorageWarnPercent {
		return true
	}
	slog.Warn(config.MsgStoreUsageHigh,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyPercent, math.Round(e.Percentage*10)/10,
		config.LogKeySizeBytes, e.Used,
	)
	return false
}

// FormatBytes renders a byte count as "512 Bytes", "1.5 KB", "2 MB"...
func FormatBytes(n int) string {
	if n <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	v := math.Round(float64(n)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + units[i]
}

// flush writes m to disk. Callers hold the file lock.
func (s *Store) flush(m map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}
	if err := config.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}
	return nil
}

func readFile(path string) (map[string]json.RawMessage, error) {
	data := make(map[string]json.RawMessage)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	// The file is indented; values are kept in compact form in memory.
	for k, v := range data {
		data[k] = compact(v)
	}
	return data, nil
}

// usage estimates bytes the way browsers account for local storage: UTF-16
// code units of key plus value, two bytes each. Only miti: keys count.
func usage(m map[string]json.RawMessage) int {
	total := 0
	for k, v := range m {
		total += entrySize(k, v)
	}
	return total
}

func entrySize(key string, value []byte) int {
	if !strings.HasPrefix(key, config.KeyPrefix) {
		return 0
	}
	return (utf16Len(key) + utf16Len(string(value))) * 2
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
