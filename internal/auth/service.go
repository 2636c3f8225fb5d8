package auth

import (
	"errors"
	"fmt"
	"time"

	"pos-backend/internal/audit"
	"pos-backend/internal/models"
	"pos-backend/internal/repository"
	"pos-backend/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials covers unknown username, wrong password and
	// inactive or deleted accounts alike, so responses cannot be used to
	// enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers expired, consumed, superseded and unknown
	// reset tokens without distinguishing which.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnknownEmail is internal to the reset flow; handlers answer it
	// with the same generic message as success.
	ErrUnknownEmail = errors.New("no matching account")
)

const (
	resetTokenTTL = time.Hour

	// Verified against on login misses so unknown usernames cost the same
	// bcrypt work as wrong passwords. Hash of a random throwaway value.
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

	ctxUserKey = "auth_current_user"
)

type Service struct {
	db          *gorm.DB
	users       *repository.Repository[models.User]
	audit       *audit.Logger
	resetSecret []byte
}

func NewService(db *gorm.DB, auditLog *audit.Logger, resetSecret string) *Service {
	return &Service{
		db:          db,
		users:       repository.New[models.User](db),
		audit:       auditLog,
		resetSecret: []byte(resetSecret),
	}
}

// Attempt validates credentials and, on success, binds the user to the
// session and stamps last_login. Exactly one LOGIN activity entry is written
// per successful attempt; failed attempts write nothing and leave the
// session untouched.
func (s *Service) Attempt(c *fiber.Ctx, sess *session.Session, username, password string) (*models.User, error) {
	user, err := s.users.FindOneBy("username", username)
	if err != nil {
		// Burn the same hashing cost as the real comparison below.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != models.UserActive {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(user).Update("last_login", now).Error; err != nil {
		return nil, fmt.Errorf("last_login update failed: %w", err)
	}
	user.LastLogin = &now

	sess.SetAuthenticatedUser(user)
	c.Locals(ctxUserKey, user)
	s.audit.WriteFromRequest(c, &user.ID, models.ActivityLogin, "Login: "+user.Username)
	return user, nil
}

// Logout writes the LOGOUT entry while the actor is still known, then
// destroys the session. Calling it anonymously just clears the session.
func (s *Service) Logout(c *fiber.Ctx, sess *session.Session) {
	if sess.Authenticated() {
		uid := sess.UserID
		s.audit.WriteFromRequest(c, &uid, models.ActivityLogout, "Logout: "+sess.UserName)
	}
	c.Locals(ctxUserKey, nil)
	sess.Destroy()
}

func (s *Service) Check(sess *session.Session) bool {
	return sess.Authenticated()
}

// CurrentUser resolves the full user row at most once per request. A user
// that vanished or was soft-deleted since login is treated as logged out
// and the session is destroyed.
func (s *Service) CurrentUser(c *fiber.Ctx, sess *session.Session) *models.User {
	if cached, ok := c.Locals(ctxUserKey).(*models.User); ok && cached != nil {
		return cached
	}
	if !sess.Authenticated() {
		return nil
	}
	user, err := s.users.Find(sess.UserID)
	if err != nil || user.Status != models.UserActive {
		sess.Destroy()
		return nil
	}
	c.Locals(ctxUserKey, user)
	return user
}

func (s *Service) HasRole(c *fiber.Ctx, sess *session.Session, role models.UserRole) bool {
	u := s.CurrentUser(c, sess)
	return u != nil && u.Role == role
}

func (s *Service) HasAnyRole(c *fiber.Ctx, sess *session.Session, roles ...models.UserRole) bool {
	u := s.CurrentUser(c, sess)
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

type resetClaims struct {
	jwt.RegisteredClaims
}

// GenerateResetToken issues a signed one-hour reset token for the account
// behind email and persists its jti for single-use enforcement. The signing
// work runs even when no account matches, keeping the two paths close in
// timing.
func (s *Service) GenerateResetToken(email string) (string, error) {
	jti := uuid.NewString()
	expires := time.Now().Add(resetTokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})

	user, findErr := s.users.FindOneBy("email", email)
	if findErr == nil {
		token.Claims.(*resetClaims).Subject = fmt.Sprint(user.ID)
	}

	signed, err := token.SignedString(s.resetSecret)
	if err != nil {
		return "", fmt.Errorf("reset token signing failed: %w", err)
	}
	if findErr != nil {
		return "", ErrUnknownEmail
	}

	row := models.PasswordReset{UserID: user.ID, TokenID: jti, ExpiresAt: expires}
	if err := s.db.Create(&row).Error; err != nil {
		return "", fmt.Errorf("reset token persist failed: %w", err)
	}
	return signed, nil
}

// VerifyResetToken returns the owning user ID when the token's signature and
// expiry hold, its jti is still on record, and no newer token was issued for
// the same user. Two concurrent requests may both insert rows; only the most
// recently issued one is honored.
func (s *Service) VerifyResetToken(tokenStr string) (uint, error) {
	claims := &resetClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.resetSecret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return 0, ErrInvalidToken
	}

	var row models.PasswordReset
	if err := s.db.Where("token_id = ?", claims.ID).First(&row).Error; err != nil {
		return 0, ErrInvalidToken
	}
	if time.Now().After(row.ExpiresAt) {
		return 0, ErrInvalidToken
	}

	var latest models.PasswordReset
	if err := s.db.Where("user_id = ?", row.UserID).
		Order("created_at desc, id desc").First(&latest).Error; err != nil {
		return 0, ErrInvalidToken
	}
	if latest.TokenID != row.TokenID {
		return 0, ErrInvalidToken
	}
	return row.UserID, nil
}

// ResetPassword stores the new hash and revokes every outstanding reset
// token of the user in one transaction, so no concurrently issued link
// survives a completed reset.
func (s *Service) ResetPassword(c *fiber.Ctx, userID uint, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("password hashing failed: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("password_hash", string(hash))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidToken
		}
		return tx.Where("user_id = ?", userID).Delete(&models.PasswordReset{}).Error
	})
	if err != nil {
		return err
	}

	s.audit.WriteFromRequest(c, &userID, models.ActivityPasswordReset, "Password reset")
	return nil
}

// HashPassword is used by user management when creating accounts.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("password hashing failed: %w", err)
	}
	return string(hash), nil
}
