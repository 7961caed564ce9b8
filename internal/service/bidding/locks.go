package bidding

import (
	"sync"

	"github.com/google/uuid"
)

// auctionLocks serializes in-process work per auction ID. Operations on
// different auctions proceed concurrently; two operations on the same
// auction run one after the other. Correctness does not rest on this
// alone: every auction write is also a version-checked conditional update,
// so a second process instance cannot interleave either.
type auctionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newAuctionLocks() *auctionLocks {
	return &auctionLocks{
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// lock acquires the mutex for one auction and returns its unlock func
func (l *auctionLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
