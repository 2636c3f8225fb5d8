package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pos-backend/internal/admin"
	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/authz"
	"pos-backend/internal/bpom"
	"pos-backend/internal/catalog"
	"pos-backend/internal/commission"
	"pos-backend/internal/customer"
	"pos-backend/internal/database"
	"pos-backend/internal/models"
	"pos-backend/internal/notification"
	"pos-backend/internal/sales"
	"pos-backend/internal/session"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// Each pooled connection to :memory: would see its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	sessions := session.NewManager(session.NewMemoryStore(time.Hour), 30*time.Minute)
	auditLog := audit.NewLogger(db)
	authSvc := auth.NewService(db, auditLog, "0123456789abcdef0123456789abcdef")
	commissions := commission.NewService(db)
	notifier := notification.NewService(db, notification.NewPublisher(""))
	salesSvc := sales.NewService(db, commissions, notifier)

	table, err := permissionTable()
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
		},
	})
	app.Use(sessions.Middleware())
	registerRoutes(app, &handlers{
		db:            db,
		auth:          authSvc,
		table:         table,
		products:      catalog.NewProductHandlers(db, auditLog, authSvc),
		categories:    catalog.NewCategoryHandlers(db, auditLog, authSvc),
		customers:     customer.NewHandlers(db, auditLog, authSvc),
		sales:         salesSvc,
		commissions:   commissions,
		notifications: notifier,
		bpom:          bpom.NewClient(db, "http://127.0.0.1:0"),
		users:         admin.NewUserHandlers(db, auditLog, authSvc),
	})
	return app, db
}

func seedAccount(t *testing.T, db *gorm.DB, username string, role models.UserRole) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123!"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Username: username, Name: username, Email: username + "@toko.id",
		PasswordHash: string(hash), Role: role, Status: models.UserActive,
	}).Error)
}

type clientSession struct {
	cookie string
	csrf   string
}

func login(t *testing.T, app *fiber.App, username string) clientSession {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": "Secret123!"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		CSRFToken string `json:"csrf_token"`
	}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &out))

	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			cookie = c.Value
		}
	}
	require.NotEmpty(t, cookie)
	return clientSession{cookie: cookie, csrf: out.CSRFToken}
}

func do(t *testing.T, app *fiber.App, cs *clientSession, method, path string, payload any, withCSRF bool) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if cs != nil {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cs.cookie})
		if withCSRF {
			req.Header.Set(authz.CSRFHeader, cs.csrf)
		}
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestLoginFlow(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "alice", models.RoleSales)

	cs := login(t, app, "alice")

	resp := do(t, app, &cs, http.MethodGet, "/api/auth/me", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "sales", me.Role)
}

func TestLogin_BadCredentials(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "alice", models.RoleSales)

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Sales may view products and record sales but never manage the catalog;
// admins may manage the catalog. Absent table entries deny everyone.
func TestRolePermissions(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "alice", models.RoleSales)
	seedAccount(t, db, "boss", models.RoleAdmin)

	alice := login(t, app, "alice")
	boss := login(t, app, "boss")

	resp := do(t, app, &alice, http.MethodGet, "/api/products", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, &alice, http.MethodPost, "/api/products",
		map[string]any{"name": "X", "price": 1000, "category_id": 1}, true)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, app, &alice, http.MethodGet, "/api/users", nil, false)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, app, &boss, http.MethodPost, "/api/categories",
		map[string]any{"name": "Obat Bebas"}, true)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Unauthenticated callers get 401 on protected routes.
	resp = do(t, app, nil, http.MethodGet, "/api/products", nil, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCSRFEnforcedOnMutations(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "boss", models.RoleAdmin)

	boss := login(t, app, "boss")

	// Missing token: rejected before any work happens.
	resp := do(t, app, &boss, http.MethodPost, "/api/categories",
		map[string]any{"name": "Obat Keras"}, false)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Wrong token: same rejection.
	bad := boss
	bad.csrf = "forged"
	resp = do(t, app, &bad, http.MethodPost, "/api/categories",
		map[string]any{"name": "Obat Keras"}, true)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Reads never need the token.
	resp = do(t, app, &boss, http.MethodGet, "/api/categories", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutDestroysSession(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "alice", models.RoleSales)

	cs := login(t, app, "alice")

	resp := do(t, app, &cs, http.MethodPost, "/api/auth/logout", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, &cs, http.MethodGet, "/api/auth/me", nil, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMassAssignmentBlockedOverHTTP(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "boss", models.RoleAdmin)
	boss := login(t, app, "boss")

	resp := do(t, app, &boss, http.MethodPost, "/api/categories",
		map[string]any{"name": "Obat"}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// created_at is outside the product fillable set; the payload value
	// must leave no trace on the stored row.
	resp = do(t, app, &boss, http.MethodPost, "/api/products", map[string]any{
		"name":        "Paracetamol",
		"price":       10000,
		"category_id": 1,
		"created_at":  "1999-01-01T00:00:00Z",
	}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var product models.Product
	require.NoError(t, db.First(&product, "name = ?", "Paracetamol").Error)
	assert.NotEqual(t, 1999, product.CreatedAt.Year())
}
