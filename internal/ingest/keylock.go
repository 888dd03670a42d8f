package ingest

import (
	"slices"
	"sync"
)

// keyLock serializes work per identity key. Two incoming records resolving to
// the same target must not interleave their read-modify-write cycles, while
// records for different works proceed in parallel.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *keyLock) Lock(key string) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// LockAll acquires the mutexes for all keys in ascending key order, so two
// holders taking overlapping key sets cannot deadlock.
func (k *keyLock) LockAll(keys []string) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	for _, key := range sorted {
		k.Lock(key)
	}
}

// UnlockAll releases the mutexes for all keys. Order does not matter.
func (k *keyLock) UnlockAll(keys []string) {
	for _, key := range keys {
		k.Unlock(key)
	}
}

// Unlock releases the mutex for key, dropping it once no waiter remains.
func (k *keyLock) Unlock(key string) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if ok {
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
	}
	k.mu.Unlock()

	if ok {
		entry.mu.Unlock()
	}
}
