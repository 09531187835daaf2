package shared

import (
	"fmt"
	"sync"
)

// KeyedMutex serialises critical sections per key. Statement rebuilds hold
// the company's lock for the whole delete-recompute-insert sequence so a
// transaction written mid-rebuild is never dropped from the window or
// double-counted.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex constructs an empty lock table.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the lock for key, blocking while another holder has it.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
}

// Unlock releases the lock for key. The entry is dropped once nobody waits.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if ok {
		l.refs--
		if l.refs <= 0 {
			delete(k.locks, key)
		}
	}
	k.mu.Unlock()

	if ok {
		l.mu.Unlock()
	}
}

// RebuildLockKey builds the lock key for a company's statement rebuild.
func RebuildLockKey(companyID string) string {
	return fmt.Sprintf("statements:company:%s:rebuild", companyID)
}
