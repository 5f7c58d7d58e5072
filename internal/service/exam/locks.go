package exam

import (
	"sync"

	"github.com/google/uuid"
)

// sessionLocks serializes attempt submissions per session within this
// process. The row lock taken inside the transaction protects against other
// processes; this keeps concurrent submissions for the same session from
// racing through the pre-transaction pipeline with the same snapshot.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{entries: map[uuid.UUID]*lockEntry{}}
}

// acquire blocks until the per-session lock is held and returns the release
// function. Entries are reference-counted so the table does not grow with
// every session ever seen.
func (l *sessionLocks) acquire(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
