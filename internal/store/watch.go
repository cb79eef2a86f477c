package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/tartampluch/go-miti/internal/config"
)

// Callback receives a changed key with its new and previous encoded values.
// A nil newValue means the key was removed, a nil oldValue that it is new.
type Callback func(key string, newValue, oldValue []byte)

type subscription struct {
	prefix string
	cb     Callback
}

// On registers cb for changes of keys starting with prefix and returns an id
// for Off.
func (s *Store) On(prefix string, cb Callback) int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextID++
	s.subs[s.nextID] = subscription{prefix: prefix, cb: cb}
	return s.nextID
}

// Off removes a subscription. Unknown ids are ignored.
func (s *Store) Off(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	delete(s.subs, id)
}

// Watch observes the store file for changes made by other processes. It
// returns once the watcher is installed; events are handled in the
// background until ctx is cancelled.
//
// Writes made through this Store do not trigger callbacks: the reloaded
// content already matches memory.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrWatchStart, err)
	}
	// The file is replaced by rename on every write, so the directory is
	// watched rather than the file itself.
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("%s: %w", config.ErrWatchStart, err)
	}

	log := slog.With(config.LogKeyComponent, config.CompStore, config.LogKeyPath, s.path)
	log.Info(config.MsgWatchStarted)

	go func() {
		defer func() {
			_ = w.Close()
			log.Info(config.MsgWatchStopped)
		}()
		name := filepath.Base(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) {
					continue
				}
				if err := s.Reload(); err != nil {
					log.Warn(config.ErrStoreOpen, config.LogKeyError, err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn(config.ErrWatchStart, config.LogKeyError, err)
			}
		}
	}()
	return nil
}

type change struct {
	key      string
	newValue []byte
	oldValue []byte
}

// Reload re-reads the backing file and notifies subscribers of every key
// whose value differs from memory.
func (s *Store) Reload() error {
	fresh, err := readFile(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	changes := diff(s.data, fresh)
	s.data = fresh
	s.mu.Unlock()

	if len(changes) == 0 {
		return nil
	}
	slog.Debug(config.MsgStoreReloaded,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyCount, len(changes),
	)
	for _, c := range changes {
		s.notify(c)
	}
	return nil
}

func (s *Store) notify(c change) {
	if !strings.HasPrefix(c.key, config.KeyPrefix) {
		return
	}
	s.subMu.RLock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var targets []Callback
	for _, id := range ids {
		if sub := s.subs[id]; strings.HasPrefix(c.key, sub.prefix) {
			targets = append(targets, sub.cb)
		}
	}
	s.subMu.RUnlock()

	for _, cb := range targets {
		invoke(cb, c)
	}
}

// invoke isolates subscribers from each other: a panicking callback is
// logged and the remaining callbacks still run.
func invoke(cb Callback, c change) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(config.ErrCallbackPanic,
				config.LogKeyComponent, config.CompStore,
				config.LogKeyKey, c.key,
				config.LogKeyError, r,
			)
		}
	}()
	cb(c.key, c.newValue, c.oldValue)
}

func diff(old, fresh map[string]json.RawMessage) []change {
	var out []change
	for k, nv := range fresh {
		ov, ok := old[k]
		if ok && bytes.Equal(compact(ov), compact(nv)) {
			continue
		}
		c := change{key: k, newValue: bytes.Clone(nv)}
		if ok {
			c.oldValue = bytes.Clone(ov)
		}
		out = append(out, c)
	}
	for k, ov := range old {
		if _, ok := fresh[k]; !ok {
			out = append(out, change{key: k, oldValue: bytes.Clone(ov)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

func compact(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
