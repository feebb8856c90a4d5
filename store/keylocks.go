package store

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// keyLocks hands out one mutex per snapshot key.
//
// Mutexes are never removed; the set is bounded by the number of distinct
// items a process tracks.
type keyLocks struct {
	m *xsync.Map[string, *sync.Mutex]
}

func newKeyLocks() keyLocks {
	return keyLocks{m: xsync.NewMap[string, *sync.Mutex]()}
}

// lock acquires the mutex for key and returns its unlock function.
func (k keyLocks) lock(key string) func() {
	mu, _ := k.m.LoadOrStore(key, &sync.Mutex{})
	mu.Lock()

	return mu.Unlock
}
