package identity

import (
	"sync"

	"github.com/google/uuid"
)

// Notification describes a session transition. Seq is monotonic across the
// life of the registry; a consumer can use it to discard work started for a
// notification that has since been superseded.
type Notification struct {
	Seq       uint64
	Session   *Session
	SessionID string
}

// Sessions is the process-wide current-session registry. Announcements are
// serialized, so subscribers observe transitions in the order session state
// actually changed.
type Sessions struct {
	mu      sync.Mutex
	seq     uint64
	current Notification
	started bool
	nextID  int
	subs    map[int]func(Notification)
}

func NewSessions() *Sessions {
	return &Sessions{subs: make(map[int]func(Notification))}
}

// Announce publishes a session transition to all subscribers. A nil session
// means signed out. Each non-nil session is tagged with a fresh session id
// for log correlation.
func (s *Sessions) Announce(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	n := Notification{Seq: s.seq, Session: sess}
	if sess != nil {
		n.SessionID = uuid.NewString()
	}
	s.current = n
	s.started = true

	for _, fn := range s.subs {
		fn(n)
	}
}

// Subscribe registers a callback for future announcements and returns an
// unsubscribe func. Callbacks run with the registry lock held and must not
// call back into the registry or block.
func (s *Sessions) Subscribe(fn func(Notification)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Current returns the most recent notification and whether any announcement
// has been made yet.
func (s *Sessions) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.started
}
