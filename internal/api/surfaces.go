package api

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cyberguard/internal/advisor"
	"cyberguard/internal/scanner"
	"cyberguard/internal/transcript"
)

// surface is one client's chat window and scanner. It lives in memory until
// the client deletes it, it sits idle past the session TTL, or the process
// exits.
type surface struct {
	id       string
	chat     *transcript.Controller
	scanner  *scanner.Scanner
	session  *advisor.Session
	lastSeen atomic.Int64 // unix nanos
}

func (sf *surface) touch(now time.Time) { sf.lastSeen.Store(now.UnixNano()) }

func (sf *surface) busy() bool { return sf.chat.Busy() || sf.scanner.Busy() }

type surfaces struct {
	advisor *advisor.Advisor
	logger  zerolog.Logger
	now     func() time.Time

	scanOpts []scanner.Option

	mu    sync.RWMutex
	items map[string]*surface
}

func newSurfaces(a *advisor.Advisor, logger zerolog.Logger) *surfaces {
	return &surfaces{advisor: a, logger: logger, now: time.Now, items: make(map[string]*surface)}
}

func (s *surfaces) create() *surface {
	id := uuid.NewString()
	session := s.advisor.Session(id)
	logger := s.logger.With().Str("surface", id).Logger()
	sf := &surface{
		id:      id,
		session: session,
		chat:    transcript.New(session, transcript.WithLogger(logger)),
		scanner: scanner.New(s.advisor.OneShot(), append([]scanner.Option{scanner.WithLogger(logger)}, s.scanOpts...)...),
	}
	sf.touch(s.now())

	s.mu.Lock()
	s.items[id] = sf
	s.mu.Unlock()
	return sf
}

func (s *surfaces) get(id string) (*surface, bool) {
	s.mu.RLock()
	sf, ok := s.items[id]
	s.mu.RUnlock()
	if ok {
		sf.touch(s.now())
	}
	return sf, ok
}

// remove tears a surface down: its transcript, advisor memory and last scan
// result are dropped.
func (s *surfaces) remove(id string) bool {
	s.mu.Lock()
	sf, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.teardown(sf)
	return true
}

// sweep removes surfaces not used for longer than ttl. A surface waiting on
// a reply is kept until the reply lands.
func (s *surfaces) sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl).UnixNano()

	s.mu.Lock()
	var expired []*surface
	for id, sf := range s.items {
		if sf.lastSeen.Load() < cutoff && !sf.busy() {
			expired = append(expired, sf)
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	for _, sf := range expired {
		s.teardown(sf)
	}
	if len(expired) > 0 {
		s.logger.Info().Int("expired", len(expired)).Dur("ttl", ttl).Msg("idle sessions removed")
	}
	return len(expired)
}

func (s *surfaces) teardown(sf *surface) {
	sf.session.Close()
	sf.scanner.Clear()
}

func (s *surfaces) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
