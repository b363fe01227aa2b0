package main

import (
	"strings"

	"gestionexus-backend/internal/audit"
	"gestionexus-backend/internal/auth"
	"gestionexus-backend/internal/config"
	"gestionexus-backend/internal/dashboard"
	"gestionexus-backend/internal/financial"
	"gestionexus-backend/internal/inventory"
	"gestionexus-backend/internal/layaway"
	"gestionexus-backend/internal/logging"
	"gestionexus-backend/internal/metrics"
	"gestionexus-backend/internal/models"
	"gestionexus-backend/internal/notifications"
	"gestionexus-backend/internal/sales"
	"gestionexus-backend/internal/server"
	"gestionexus-backend/internal/supplier"
	"gestionexus-backend/internal/telemetry"
	"gestionexus-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// newApp builds the fiber app with every route mounted. The returned
// rate limiter is shared by the public auth routes and needs periodic cleanup.
func newApp(cfg *config.Config, db *gorm.DB, log *logrus.Logger, tm *telemetry.Metrics) (*fiber.App, *auth.RateLimiter) {
	app := server.NewApp(log)

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logging.RequestLogger(log))
	app.Use(tm.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + auth.TokenHeader,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Static("/uploads", cfg.UploadDir)
	app.Get("/metrics", tm.Handler())
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	rec := audit.NewRecorder(db, log, tm)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	limiter := auth.NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateBurst)

	authH := auth.NewHandler(auth.HandlerOptions{
		DB:            db,
		Tokens:        tokens,
		Audit:         rec,
		Mailer:        auth.LogMailer{Log: log},
		Log:           log,
		FrontendURL:   cfg.FrontendURL,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
	})
	productH := inventory.NewHandler(inventory.NewService(db), rec)
	saleH := sales.NewHandler(sales.NewService(db), rec, tm)
	layawayH := layaway.NewHandler(layaway.NewService(db, tm), rec)
	ledgerH := financial.NewHandler(financial.NewService(db), rec)
	supplierH := supplier.NewHandler(db, rec)
	userH := users.NewHandler(db, rec, users.NewPhotoStore(cfg.UploadDir), log)
	dashboardH := dashboard.NewHandler(dashboard.NewService(db))
	metricsH := metrics.NewHandler(metrics.NewService(db))
	notificationH := notifications.NewHandler(notifications.NewService(db))
	logH := audit.NewHandler(db, log)

	api := app.Group("/api")

	// Public auth
	public := api.Group("/auth", limiter.Handler())
	public.Post("/login", authH.Login())
	public.Post("/forgot-password", authH.ForgotPassword())
	public.Post("/reset-password/:token", authH.ResetPassword())

	// Protected
	protected := api.Group("", auth.Middleware(tokens))
	adminOnly := auth.RequireRole(models.RoleAdmin)

	protected.Get("/auth/renew", authH.Renew())

	products := protected.Group("/products")
	products.Get("/brands", productH.Brands())
	products.Get("/reference/:ref", productH.ByReference())
	products.Get("/", productH.List())
	products.Get("/:id", productH.Get())
	products.Post("/bulk-import", adminOnly, productH.BulkImport())
	products.Post("/bulk-import/xlsx", adminOnly, productH.BulkImportWorkbook())
	products.Post("/", adminOnly, productH.Create())
	products.Put("/:id", adminOnly, productH.Update())
	products.Delete("/:id", adminOnly, productH.Delete())

	salesG := protected.Group("/sales")
	salesG.Get("/", saleH.List())
	salesG.Get("/:id", saleH.Get())
	salesG.Post("/", saleH.Create())

	layawayG := protected.Group("/layaway")
	layawayG.Get("/", layawayH.List())
	layawayG.Get("/:id", layawayH.Get())
	layawayG.Post("/", layawayH.Create())
	layawayG.Put("/:id", layawayH.AddPayment())
	layawayG.Delete("/:id", layawayH.Delete())

	protected.Get("/dashboard", dashboardH.Stats())

	notificationsG := protected.Group("/notifications")
	notificationsG.Get("/", notificationH.List())
	notificationsG.Get("/status", notificationH.Status())
	notificationsG.Post("/mark-as-read", notificationH.MarkAsRead())

	usersG := protected.Group("/users")
	usersG.Post("/upload-photo", userH.UploadPhoto())
	usersG.Put("/update-password", userH.UpdatePassword())
	usersG.Get("/", adminOnly, userH.List())
	usersG.Post("/", adminOnly, userH.Create())
	usersG.Put("/activate/:id", adminOnly, userH.Activate())
	usersG.Put("/:id", adminOnly, userH.Update())
	usersG.Delete("/:id", adminOnly, userH.Deactivate())

	// Admin only
	suppliersG := protected.Group("/suppliers", adminOnly)
	suppliersG.Get("/", supplierH.List())
	suppliersG.Get("/:id", supplierH.Get())
	suppliersG.Post("/", supplierH.Create())
	suppliersG.Put("/:id", supplierH.Update())
	suppliersG.Delete("/:id", supplierH.Delete())

	reports := protected.Group("/reports", adminOnly)
	reports.Get("/financial-ledger", ledgerH.List())
	reports.Post("/financial-ledger", ledgerH.Create())
	reports.Get("/export/excel", ledgerH.ExportExcel())
	reports.Get("/export/pdf", ledgerH.ExportPDF())

	protected.Get("/metrics", adminOnly, metricsH.Get())
	protected.Get("/logs", adminOnly, logH.List())

	return app, limiter
}
