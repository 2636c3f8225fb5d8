package main

import (
	"pos-backend/internal/admin"
	"pos-backend/internal/auth"
	"pos-backend/internal/authz"
	"pos-backend/internal/bpom"
	"pos-backend/internal/catalog"
	"pos-backend/internal/commission"
	"pos-backend/internal/customer"
	"pos-backend/internal/models"
	"pos-backend/internal/notification"
	"pos-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// permissionTable is the single authority on who may call what. Anything
// not listed here is denied for every role, admin included.
func permissionTable() (*authz.Table, error) {
	both := []models.UserRole{models.RoleAdmin, models.RoleSales}
	adminOnly := []models.UserRole{models.RoleAdmin}

	return authz.NewBuilder().
		Public("auth", "login", "forgot-password", "reset-password").
		Allow("auth", []string{"logout", "me"}, both...).
		Allow("products", []string{"view"}, both...).
		Allow("products", []string{"create", "update", "delete"}, adminOnly...).
		Allow("categories", []string{"view"}, both...).
		Allow("categories", []string{"create", "update", "delete"}, adminOnly...).
		Allow("customers", []string{"view", "create", "update"}, both...).
		Allow("customers", []string{"delete"}, adminOnly...).
		Allow("sales", []string{"view", "create"}, both...).
		Allow("sales", []string{"export"}, adminOnly...).
		Allow("commissions", []string{"view"}, both...).
		Allow("commissions", []string{"pay"}, adminOnly...).
		Allow("notifications", []string{"view", "update"}, both...).
		Allow("bpom", []string{"view"}, both...).
		Allow("users", []string{"view", "create", "update", "delete"}, adminOnly...).
		Allow("activity-logs", []string{"view"}, adminOnly...).
		Allow("settings", []string{"view", "update"}, adminOnly...).
		Build()
}

type handlers struct {
	db            *gorm.DB
	auth          *auth.Service
	table         *authz.Table
	products      *catalog.ProductHandlers
	categories    *catalog.CategoryHandlers
	customers     *customer.Handlers
	sales         *sales.Service
	commissions   *commission.Service
	notifications *notification.Service
	bpom          *bpom.Client
	users         *admin.UserHandlers
}

func registerRoutes(app *fiber.App, deps *handlers) {
	guard := func(controller, action string) fiber.Handler {
		return authz.Require(deps.table, deps.auth, controller, action)
	}

	api := app.Group("/api")

	api.Post("/auth/login", guard("auth", "login"), auth.LoginHandler(deps.auth))
	api.Post("/auth/forgot-password", guard("auth", "forgot-password"), auth.ForgotPasswordHandler(deps.auth))
	api.Post("/auth/reset-password", guard("auth", "reset-password"), auth.ResetPasswordHandler(deps.auth))
	api.Post("/auth/logout", guard("auth", "logout"), auth.LogoutHandler(deps.auth))
	api.Get("/auth/me", guard("auth", "me"), auth.MeHandler(deps.auth))

	api.Get("/products", guard("products", "view"), deps.products.List())
	api.Get("/products/:id", guard("products", "view"), deps.products.Get())
	api.Post("/products", guard("products", "create"), deps.products.Create())
	api.Put("/products/:id", guard("products", "update"), deps.products.Update())
	api.Delete("/products/:id", guard("products", "delete"), deps.products.Delete())

	api.Get("/categories", guard("categories", "view"), deps.categories.List())
	api.Post("/categories", guard("categories", "create"), deps.categories.Create())
	api.Put("/categories/:id", guard("categories", "update"), deps.categories.Update())
	api.Delete("/categories/:id", guard("categories", "delete"), deps.categories.Delete())

	api.Get("/customers", guard("customers", "view"), deps.customers.List())
	api.Get("/customers/:id", guard("customers", "view"), deps.customers.Get())
	api.Post("/customers", guard("customers", "create"), deps.customers.Create())
	api.Put("/customers/:id", guard("customers", "update"), deps.customers.Update())
	api.Delete("/customers/:id", guard("customers", "delete"), deps.customers.Delete())

	api.Get("/sales", guard("sales", "view"), sales.ListSalesHandler(deps.db))
	api.Get("/sales/export", guard("sales", "export"), sales.ExportSalesHandler(deps.sales))
	api.Get("/sales/:id", guard("sales", "view"), sales.SaleDetailHandler(deps.sales))
	api.Post("/sales", guard("sales", "create"), sales.CreateSaleHandler(deps.sales, deps.auth))

	api.Get("/commissions", guard("commissions", "view"), commission.ListHandler(deps.db, deps.auth))
	api.Get("/commissions/summary", guard("commissions", "view"), commission.SummaryHandler(deps.commissions, deps.auth))
	api.Post("/commissions/:userId/pay", guard("commissions", "pay"), commission.MarkPaidHandler(deps.commissions))

	api.Get("/notifications", guard("notifications", "view"), notification.ListHandler(deps.notifications, deps.auth))
	api.Post("/notifications/:id/read", guard("notifications", "update"), notification.MarkReadHandler(deps.notifications, deps.auth))

	api.Get("/bpom/lookup", guard("bpom", "view"), bpom.LookupHandler(deps.bpom))

	api.Get("/users", guard("users", "view"), deps.users.List())
	api.Post("/users", guard("users", "create"), deps.users.Create())
	api.Put("/users/:id", guard("users", "update"), deps.users.Update())
	api.Delete("/users/:id", guard("users", "delete"), deps.users.Delete())

	api.Get("/activity-logs", guard("activity-logs", "view"), admin.ListActivityLogsHandler(deps.db))
	api.Get("/settings", guard("settings", "view"), admin.GetSettingsHandler(deps.db))
	api.Put("/settings", guard("settings", "update"), admin.UpdateSettingsHandler(deps.db))
}
