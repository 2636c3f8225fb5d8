package session

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	CookieName = "pos_session"
	ctxKey     = "session"

	// regenerateEvery bounds how long a leaked session ID stays usable.
	regenerateEvery = 30 * time.Minute
)

// Manager owns cookie handling and the session lifecycle around each
// request: load or create, idle-timeout enforcement, periodic ID rotation,
// and persisting the result.
type Manager struct {
	store Store
	idle  time.Duration
}

func NewManager(store Store, idle time.Duration) *Manager {
	return &Manager{store: store, idle: idle}
}

// FromCtx returns the request's session. The middleware guarantees it is
// present on every route registered behind it.
func FromCtx(c *fiber.Ctx) *Session {
	return c.Locals(ctxKey).(*Session)
}

func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := m.resolve(c)
		c.Locals(ctxKey, sess)

		err := c.Next()

		ctx := c.Context()
		for _, stale := range sess.staleIDs {
			if delErr := m.store.Delete(ctx, stale); delErr != nil {
				log.Printf("[WARN] session: stale record %s not deleted: %v", stale[:8], delErr)
			}
		}
		sess.staleIDs = nil

		if sess.Destroyed() {
			m.expireCookie(c)
			return err
		}
		if saveErr := m.store.Save(ctx, sess); saveErr != nil {
			log.Printf("[ERROR] session: save failed: %v", saveErr)
		}
		m.setCookie(c, sess.ID)
		return err
	}
}

func (m *Manager) resolve(c *fiber.Ctx) *Session {
	id := c.Cookies(CookieName)
	if id == "" {
		return newSession()
	}

	sess, err := m.store.Load(c.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("[ERROR] session: load failed: %v", err)
		}
		return newSession()
	}

	if timedOut := m.CheckIdleTimeout(sess); timedOut {
		if err := m.store.Delete(c.Context(), id); err != nil {
			log.Printf("[WARN] session: timed-out record not deleted: %v", err)
		}
		fresh := newSession()
		fresh.AddFlash("warning", "Sesi berakhir karena tidak ada aktivitas, silakan login kembali")
		return fresh
	}

	if time.Since(sess.LastRegenerated) > regenerateEvery {
		sess.Regenerate()
	}
	return sess
}

// CheckIdleTimeout reports whether the session idled past the limit. When it
// has not, the activity stamp is refreshed; repeated calls inside the window
// therefore never expire the session.
func (m *Manager) CheckIdleTimeout(s *Session) bool {
	if time.Since(s.LastActivity) > m.idle {
		return true
	}
	s.LastActivity = time.Now()
	return false
}

func (m *Manager) setCookie(c *fiber.Ctx, id string) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    id,
		HTTPOnly: true,
		Secure:   c.Secure(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

func (m *Manager) expireCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   c.Secure(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}
