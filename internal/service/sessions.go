package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/yt-transcript-extractor/internal/metrics"
	"github.com/MimeLyc/yt-transcript-extractor/pkg/log"
)

const DefaultSessionTTL = time.Hour

// Sessions is the in-memory registry of viewer sessions.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *Sessions) Create() *Session {
	sess := NewSession(uuid.NewString(), r.now())

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.Metrics.SessionsActive.Set(float64(n))
	return sess
}

// Get returns the session and marks it active.
func (r *Sessions) Get(id string) (*Session, bool) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		sess.touch(r.now())
	}
	return sess, ok
}

// Lookup returns the session without refreshing its idle time.
func (r *Sessions) Lookup(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

func (r *Sessions) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.Metrics.SessionsActive.Set(float64(n))
}

func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the TTL. Sessions with an
// extraction in flight are kept.
func (r *Sessions) Sweep(now time.Time) int {
	r.mu.Lock()
	removed := 0
	for id, sess := range r.sessions {
		if sess.IsProcessing() {
			continue
		}
		if now.Sub(sess.idleSince()) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.Metrics.SessionsActive.Set(float64(n))
	return removed
}

// ScheduleSweep registers a periodic Sweep on c. The returned entry id can
// be passed to c.Remove to reschedule.
func (r *Sessions) ScheduleSweep(c *cron.Cron, cronExpr string) (cron.EntryID, error) {
	return c.AddFunc(cronExpr, func() {
		if n := r.Sweep(r.now()); n > 0 {
			log.Info("Swept %d idle session(s)", n)
		}
	})
}
