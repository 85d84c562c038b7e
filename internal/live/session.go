package live

import (
	"net/http"
	"sync"

	"github.com/strophe/strophe/core/errors"
	"github.com/strophe/strophe/core/plan"
	"github.com/strophe/strophe/internal/logging"
)

// Session tracks the active slide plan and position and pushes every change
// through the hub.
type Session struct {
	hub *Hub

	mu    sync.Mutex
	plan  *plan.SlidePlan
	index int
}

// NewSession creates a session over the given hub.
func NewSession(hub *Hub) *Session {
	return &Session{hub: hub}
}

// Load replaces the active plan and resets the position to the first slide.
func (s *Session) Load(p *plan.SlidePlan) error {
	if p == nil || len(p.Slides) == 0 {
		return errors.NewValidation("plan", "no slides to present")
	}
	s.mu.Lock()
	s.plan = p
	s.index = 0
	s.mu.Unlock()
	s.push("plan")
	return nil
}

// Next advances one slide, staying on the last slide at the end.
func (s *Session) Next() {
	s.step(1)
}

// Prev moves one slide back, staying on the first slide at the start.
func (s *Session) Prev() {
	s.step(-1)
}

func (s *Session) step(delta int) {
	s.mu.Lock()
	if s.plan == nil {
		s.mu.Unlock()
		return
	}
	next := s.index + delta
	if next < 0 {
		next = 0
	}
	if next > len(s.plan.Slides)-1 {
		next = len(s.plan.Slides) - 1
	}
	changed := next != s.index
	s.index = next
	s.mu.Unlock()
	if changed {
		s.push("slide")
	}
}

// Goto jumps to a slide position.
func (s *Session) Goto(index int) error {
	s.mu.Lock()
	if s.plan == nil {
		s.mu.Unlock()
		return errors.NewValidation("session", "no plan loaded")
	}
	if index < 0 || index >= len(s.plan.Slides) {
		s.mu.Unlock()
		return errors.NewValidation("index", "slide position out of range")
	}
	s.index = index
	s.mu.Unlock()
	s.push("slide")
	return nil
}

// Current returns the active slide and its position, or nil when no plan is
// loaded.
func (s *Session) Current() (*plan.Slide, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return nil, 0, 0
	}
	slide := s.plan.Slides[s.index]
	return &slide, s.index, len(s.plan.Slides)
}

func (s *Session) push(msgType string) {
	slide, index, total := s.Current()
	if slide == nil {
		return
	}
	s.mu.Lock()
	title := s.plan.Title
	s.mu.Unlock()
	s.hub.Broadcast(SlideMessage{
		Type:  msgType,
		Song:  title,
		Index: index,
		Total: total,
		Slide: slide,
	})
}

// Serve runs the session HTTP surface: the WebSocket endpoint for displays
// and minimal control endpoints for the operator.
func Serve(addr string, session *Session) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", session.hub.ServeWS)
	mux.HandleFunc("/next", func(w http.ResponseWriter, r *http.Request) {
		session.Next()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/prev", func(w http.ResponseWriter, r *http.Request) {
		session.Prev()
		w.WriteHeader(http.StatusNoContent)
	})

	logging.ServerStartup("live", addr)
	return http.ListenAndServe(addr, mux)
}
