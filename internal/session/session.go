package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"pos-backend/internal/models"
)

// Flash is a one-time message: written once, erased when consumed, so it is
// shown at most once across redirects.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Session is the server-side state behind one client cookie. All fields are
// serialized into the backing store; the client only ever holds the opaque ID.
type Session struct {
	ID              string            `json:"id"`
	UserID          uint              `json:"user_id"`
	UserName        string            `json:"user_name"`
	UserRole        models.UserRole   `json:"user_role"`
	UserEmail       string            `json:"user_email"`
	Values          map[string]string `json:"values"`
	Flashes         []Flash           `json:"flashes"`
	CSRF            string            `json:"csrf"`
	LastActivity    time.Time         `json:"last_activity"`
	LastRegenerated time.Time         `json:"last_regenerated"`

	destroyed bool
	staleIDs  []string
}

func newSession() *Session {
	now := time.Now()
	return &Session{
		ID:              newID(),
		Values:          map[string]string{},
		LastActivity:    now,
		LastRegenerated: now,
	}
}

// newID returns a 256-bit random identifier. Guessing one is infeasible.
func newID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("session: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

func (s *Session) Get(key, def string) string {
	if v, ok := s.Values[key]; ok {
		return v
	}
	return def
}

func (s *Session) Set(key, value string) {
	if s.Values == nil {
		s.Values = map[string]string{}
	}
	s.Values[key] = value
}

func (s *Session) Has(key string) bool {
	_, ok := s.Values[key]
	return ok
}

func (s *Session) Remove(key string) {
	delete(s.Values, key)
}

func (s *Session) AddFlash(kind, message string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: message})
}

// ConsumeFlashes returns all pending flashes and erases them.
func (s *Session) ConsumeFlashes() []Flash {
	out := s.Flashes
	s.Flashes = nil
	return out
}

// SetAuthenticatedUser snapshots the user into the session and rotates the
// session ID. Login is a privilege change; rotating closes fixation attacks
// that planted the pre-login ID.
func (s *Session) SetAuthenticatedUser(u *models.User) {
	s.UserID = u.ID
	s.UserName = u.Name
	s.UserRole = u.Role
	s.UserEmail = u.Email
	s.LastActivity = time.Now()
	s.Regenerate()
}

func (s *Session) Authenticated() bool {
	return s.UserID != 0
}

// Regenerate issues a new session ID while preserving contents. The old ID
// is removed from the store on save.
func (s *Session) Regenerate() {
	s.staleIDs = append(s.staleIDs, s.ID)
	s.ID = newID()
	s.LastRegenerated = time.Now()
}

// CSRFToken lazily creates the per-session token and returns it. The token
// is stable for the session's lifetime.
func (s *Session) CSRFToken() string {
	if s.CSRF == "" {
		s.CSRF = newID()
	}
	return s.CSRF
}

// VerifyCSRFToken reports whether candidate matches the session token using
// a constant-time comparison. It never errors; rejection policy belongs to
// the caller.
func (s *Session) VerifyCSRFToken(candidate string) bool {
	if s.CSRF == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.CSRF), []byte(candidate)) == 1
}

// Destroy clears all state; the manager deletes the backing record and
// expires the cookie when the request completes.
func (s *Session) Destroy() {
	s.staleIDs = append(s.staleIDs, s.ID)
	*s = Session{
		ID:        s.ID,
		destroyed: true,
		staleIDs:  s.staleIDs,
	}
}

func (s *Session) Destroyed() bool {
	return s.destroyed
}
