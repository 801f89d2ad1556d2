// Package matchmaking pairs waiting users into games: a FIFO queue with
// atomic pair-up, and the service that turns a pair into two players, a
// game and a transient match record.
package matchmaking

import (
	"errors"
	"sync"
	"time"
)

// Matchmaking preconditions.
var (
	ErrUnknownUser    = errors.New("unknown user")
	ErrAlreadyQueued  = errors.New("already in matchmaking queue")
	ErrAlreadyMatched = errors.New("already matched")
)

type queueEntry struct {
	userID     string
	enqueuedAt time.Time
}

// Queue is an ordered waiting list of user ids. A single mutex covers
// every operation so that pair-up is linearisable: no user id can appear
// in two concurrent FindMatch results.
type Queue struct {
	mu      sync.Mutex
	entries []queueEntry
	queued  map[string]bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{queued: make(map[string]bool)}
}

// Add appends a user to the queue.
func (q *Queue) Add(userID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.queued[userID] {
		return ErrAlreadyQueued
	}
	q.entries = append(q.entries, queueEntry{userID: userID, enqueuedAt: time.Now()})
	q.queued[userID] = true
	return nil
}

// Remove takes a user out of the queue, reporting whether they were in it.
func (q *Queue) Remove(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.queued[userID] {
		return false
	}
	delete(q.queued, userID)
	for i, e := range q.entries {
		if e.userID == userID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	return true
}

// FindMatch atomically removes and returns the two oldest entries, or
// reports false when fewer than two users are waiting.
func (q *Queue) FindMatch() (string, string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) < 2 {
		return "", "", false
	}

	first, second := q.entries[0].userID, q.entries[1].userID
	q.entries = q.entries[2:]
	delete(q.queued, first)
	delete(q.queued, second)
	return first, second, true
}

// Size returns the number of waiting users.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// IsQueued reports whether the user is waiting.
func (q *Queue) IsQueued(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queued[userID]
}

// Position returns the 1-based queue position of a user, or 0 if the
// user is not queued.
func (q *Queue) Position(userID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.userID == userID {
			return i + 1
		}
	}
	return 0
}
