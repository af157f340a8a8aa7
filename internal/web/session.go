package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/conorfennell/flashdeck/internal/editor"
	"github.com/conorfennell/flashdeck/internal/library"
	"github.com/conorfennell/flashdeck/internal/quiz"
	"github.com/conorfennell/flashdeck/internal/viewer"
)

const sessionCookie = "flashdeck_session"

var (
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flashdeck_active_sessions",
			Help: "Number of browser sessions currently held in memory",
		},
	)

	activeQuizzes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flashdeck_active_quizzes",
			Help: "Number of quiz engines currently open",
		},
	)
)

// studyPage is one session's state for one set: the page model and the
// review, edit and quiz machines driven by it.
type studyPage struct {
	mu       sync.Mutex
	study    *library.Study
	viewer   *viewer.Viewer
	editor   *editor.Editor
	editMsg  string
	quiz     *quiz.Engine
	quizMode quiz.Mode
	notice   string
}

// closeQuizLocked tears down the quiz engine and its timer.
func (p *studyPage) closeQuizLocked() {
	if p.quiz == nil {
		return
	}
	p.quiz.Close()
	p.quiz = nil
	activeQuizzes.Dec()
}

// takeNotice returns the pending one-shot message and clears it.
func (p *studyPage) takeNotice() string {
	n := p.notice
	p.notice = ""
	return n
}

type session struct {
	id string

	mu       sync.Mutex
	lastSeen time.Time
	catalog  *library.Catalog
	pages    map[string]*studyPage
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pages {
		p.mu.Lock()
		p.closeQuizLocked()
		p.mu.Unlock()
	}
	s.pages = nil
}

// pauseQuizzes stops the quiz timers of every page except the set named by
// keep, so a quiz left open in the background counts no time.
func (s *session) pauseQuizzes(keep string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.pages {
		if id == keep {
			continue
		}
		p.mu.Lock()
		if p.quiz != nil {
			p.quiz.Pause()
		}
		p.mu.Unlock()
	}
}

// sessionStore keeps per-browser state in memory, keyed by a cookie.
type sessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// get returns the caller's session, starting a new one and setting the cookie
// when the request carries none or an unknown id.
func (st *sessionStore) get(w http.ResponseWriter, r *http.Request) *session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if s, ok := st.sessions[c.Value]; ok {
			s.mu.Lock()
			s.lastSeen = st.now()
			s.mu.Unlock()
			return s
		}
	}

	s := &session{
		id:       uuid.New().String(),
		lastSeen: st.now(),
		pages:    make(map[string]*studyPage),
	}
	st.sessions[s.id] = s
	activeSessions.Inc()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Debug("Started session", "session_id", s.id)
	return s
}

// evictIdle closes and drops sessions unused for longer than the TTL.
func (st *sessionStore) evictIdle() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	var idle []*session
	for id, s := range st.sessions {
		s.mu.Lock()
		stale := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if stale {
			idle = append(idle, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range idle {
		s.close()
		activeSessions.Dec()
		slog.Debug("Evicted idle session", "session_id", s.id)
	}
	return len(idle)
}

// run evicts idle sessions until ctx is done, then closes everything.
func (st *sessionStore) run(ctx context.Context) {
	interval := st.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			st.closeAll()
			return
		case <-ticker.C:
			if n := st.evictIdle(); n > 0 {
				slog.Info("Evicted idle sessions", "count", n)
			}
		}
	}
}

func (st *sessionStore) closeAll() {
	st.mu.Lock()
	all := st.sessions
	st.sessions = make(map[string]*session)
	st.mu.Unlock()
	for _, s := range all {
		s.close()
		activeSessions.Dec()
	}
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
