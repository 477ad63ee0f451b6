package viewer

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultSessionTTL is how long an idle session survives between events.
const DefaultSessionTTL = 30 * time.Minute

// Registry tracks live sessions by id. Sessions that have not seen an event
// within the TTL are pruned by a background loop.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func newSessionID() (string, error) {
	b := make([]byte, 9)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Add registers a session and returns its id.
func (r *Registry) Add(s *Session) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return id, nil
}

// Get looks up a live session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.LastEvent()) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// StartPruneLoop evicts idle sessions on a ticker until ctx is cancelled.
func (r *Registry) StartPruneLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("sessions: prune loop shutting down")
				return
			case <-ticker.C:
				if removed := r.prune(time.Now()); removed > 0 {
					slog.Info("sessions: pruned idle sessions", "removed", removed, "live", r.Len())
				}
			}
		}
	}()
}
