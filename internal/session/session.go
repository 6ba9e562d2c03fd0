// Package session holds the signed-in user's identity and bearer token.
// A *Session is passed explicitly to every component that needs the current
// user; nothing reads it from package-level state.
package session

import (
	"sync"

	"github.com/wolfman30/salon-booking/internal/salonapi"
)

// Session is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	token     string
	user      *salonapi.User
	listeners []func(user *salonapi.User)
}

// New returns a signed-out session.
func New() *Session {
	return &Session{}
}

// NewWithToken returns a session that already carries a bearer token, e.g.
// one supplied through configuration. The user stays unknown until SignIn or
// UpdateUser.
func NewWithToken(token string) *Session {
	return &Session{token: token}
}

// Token implements salonapi.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user.
func (s *Session) User() (salonapi.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return salonapi.User{}, false
	}
	return *s.user, true
}

// Authenticated reports whether a bearer token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SignIn stores the token and user returned by the backend.
func (s *Session) SignIn(token string, user salonapi.User) {
	s.mu.Lock()
	s.token = token
	u := user
	s.user = &u
	listeners := s.listeners
	s.mu.Unlock()
	notify(listeners, &u)
}

// UpdateUser replaces the cached user after a profile or avatar change.
func (s *Session) UpdateUser(user salonapi.User) {
	s.mu.Lock()
	u := user
	s.user = &u
	listeners := s.listeners
	s.mu.Unlock()
	notify(listeners, &u)
}

// SignOut clears the token and user.
func (s *Session) SignOut() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	listeners := s.listeners
	s.mu.Unlock()
	notify(listeners, nil)
}

// OnChange registers fn to run after every sign-in, user update and
// sign-out. fn receives nil on sign-out.
func (s *Session) OnChange(fn func(user *salonapi.User)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func notify(listeners []func(*salonapi.User), user *salonapi.User) {
	for _, fn := range listeners {
		if user == nil {
			fn(nil)
			continue
		}
		u := *user
		fn(&u)
	}
}
