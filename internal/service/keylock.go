package service

import "sync"

// RecordLocks serializes mutations on a per-record basis. Services acquire
// the lock for a record id before any read-modify-write sequence that spans
// more than a single store transaction, such as replacing a cover image and
// committing the new reference.
//
// The lock table grows with the number of distinct record ids touched during
// the process lifetime. Entries are a single mutex each, so the table stays
// small relative to the records themselves.
type RecordLocks struct {
	locks map[string]*sync.Mutex
	mu    sync.Mutex
}

// NewRecordLocks creates an empty lock table.
func NewRecordLocks() *RecordLocks {
	return &RecordLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for the given record id, creating it on first use.
// The returned function releases the lock.
func (r *RecordLocks) Lock(id string) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}
