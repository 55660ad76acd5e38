package service

import (
	"context"
	"sync"
)

// SessionTracker makes the newest search of a session win. Starting a search
// cancels the one still running for the same session.
type SessionTracker struct {
	mu       sync.Mutex
	nextGen  uint64
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	generation uint64
	cancel     context.CancelFunc
}

// NewSessionTracker creates an empty tracker
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{sessions: make(map[string]*sessionEntry)}
}

// Begin registers a search for sessionID. The returned context is cancelled
// when a newer search starts on the same session. done must be called when
// the search finishes; it reports whether this search is still the newest.
// An empty sessionID is never superseded.
func (t *SessionTracker) Begin(ctx context.Context, sessionID string) (context.Context, func() bool) {
	if sessionID == "" {
		return ctx, func() bool { return true }
	}

	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	if prev, ok := t.sessions[sessionID]; ok && prev.cancel != nil {
		prev.cancel()
	}
	// generations are tracker-wide so a finished session never hands out a number again
	t.nextGen++
	generation := t.nextGen
	t.sessions[sessionID] = &sessionEntry{generation: generation, cancel: cancel}
	t.mu.Unlock()

	done := func() bool {
		cancel()

		t.mu.Lock()
		defer t.mu.Unlock()
		current, ok := t.sessions[sessionID]
		if !ok || current.generation != generation {
			return false
		}
		delete(t.sessions, sessionID)
		return true
	}
	return ctx, done
}

// Active returns the number of sessions with a search in flight
func (t *SessionTracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
