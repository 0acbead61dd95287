package grading

import "sync"

// submitLock serializes submissions per (member, quiz) pair in-process; the
// storage layer's unique constraints remain the backstop across processes.
type submitLock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSubmitLock() *submitLock {
	return &submitLock{locks: make(map[string]*lockEntry)}
}

func (l *submitLock) lock(key string) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &lockEntry{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *submitLock) unlock(key string) {
	l.mu.Lock()
	entry := l.locks[key]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
