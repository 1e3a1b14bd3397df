package session

import "sync"

// Registry hands out one Session per user, creating it on first use.
type Registry struct {
	recorder Recorder
	opts     Options

	mu       sync.Mutex
	sessions map[int]*Session
}

// NewRegistry creates a Registry whose sessions share recorder and opts.
func NewRegistry(recorder Recorder, opts Options) *Registry {
	return &Registry{
		recorder: recorder,
		opts:     opts,
		sessions: make(map[int]*Session),
	}
}

// For returns userID's session.
func (r *Registry) For(userID int) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		s = New(userID, r.recorder, r.opts)
		r.sessions[userID] = s
	}
	return s
}

// ActiveCount is the number of users with a workout in progress.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	n := 0
	for _, s := range sessions {
		if s.State() != StateIdle {
			n++
		}
	}
	return n
}
