package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/carscout/internal/dataset"
	"github.com/KaramelBytes/carscout/internal/filter"
	"github.com/KaramelBytes/carscout/internal/narrative"
)

const (
	sessionCookie = "carscout_session"
	// Sessions idle longer than this are dropped; the cookie lives as long.
	sessionIdleTTL = 24 * time.Hour
	// maxSessions caps the store; the least recently seen session goes first.
	maxSessions = 10000
)

// DetailView is the single model a session asked details for.
type DetailView struct {
	Model     string
	Years     dataset.YearSpan
	Source    string // completion model that wrote the narrative
	Narrative *narrative.Narrative
	Err       string
}

// Session is one browser's isolated dashboard state.
type Session struct {
	State  filter.State
	Detail *DetailView
	// seq advances on every interaction so a slow narrative cannot land
	// after the user has moved on.
	seq      uint64
	lastSeen time.Time
}

type sessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	defaults  func() filter.State
	ttl       time.Duration
	max       int
	now       func() time.Time
	lastSweep time.Time
}

func newSessionStore(defaults func() filter.State) *sessionStore {
	return &sessionStore{
		sessions: map[string]*Session{},
		defaults: defaults,
		ttl:      sessionIdleTTL,
		max:      maxSessions,
		now:      time.Now,
	}
}

// sweep drops idle sessions, at most once per tenth of the TTL, then evicts
// the least recently seen ones while the store is at capacity. Callers hold mu.
func (s *sessionStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) >= s.ttl/10 {
		for id, sess := range s.sessions {
			if now.Sub(sess.lastSeen) > s.ttl {
				delete(s.sessions, id)
			}
		}
		s.lastSweep = now
	}
	for s.max > 0 && len(s.sessions) >= s.max {
		var oldest string
		var at time.Time
		for id, sess := range s.sessions {
			if oldest == "" || sess.lastSeen.Before(at) {
				oldest, at = id, sess.lastSeen
			}
		}
		delete(s.sessions, oldest)
	}
}

// touch returns the live session for id, or nil when it is unknown or idle
// past the TTL. Callers hold mu.
func (s *sessionStore) touch(id string, now time.Time) *Session {
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil
	}
	sess.lastSeen = now
	return sess
}

// acquire returns the caller's session id, creating the session and
// setting the cookie when the request carries none we know.
func (s *sessionStore) acquire(w http.ResponseWriter, r *http.Request) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if c, err := r.Cookie(sessionCookie); err == nil && s.touch(c.Value, now) != nil {
		return c.Value
	}
	s.sweep(now)
	id := uuid.NewString()
	s.sessions[id] = &Session{State: s.defaults(), lastSeen: now}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(s.ttl),
	})
	return id
}

// snapshot returns a copy of the session safe to read without the lock.
func (s *sessionStore) snapshot(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{State: s.defaults()}
	}
	cp := *sess
	if sess.Detail != nil {
		d := *sess.Detail
		cp.Detail = &d
	}
	return cp
}

// update runs fn under the lock and returns the session's new sequence.
func (s *sessionStore) update(id string, fn func(*Session)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := s.touch(id, now)
	if sess == nil {
		sess = &Session{State: s.defaults(), lastSeen: now}
		s.sessions[id] = sess
	}
	fn(sess)
	sess.seq++
	return sess.seq
}

// settle stores detail only if nothing happened since seq was issued.
func (s *sessionStore) settle(id string, seq uint64, detail *DetailView) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.seq != seq {
		return false
	}
	sess.Detail = detail
	return true
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
