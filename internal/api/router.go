package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/audit"
	"github.com/erazemk/sentinela/internal/auth"
	"github.com/erazemk/sentinela/internal/backup"
	"github.com/erazemk/sentinela/internal/custody"
	"github.com/erazemk/sentinela/internal/inventory"
	"github.com/erazemk/sentinela/internal/personnel"
	"github.com/erazemk/sentinela/internal/settings"
)

// Deps holds everything the API needs.
type Deps struct {
	DB        *sql.DB
	JWTSecret string
	Logger    *zap.SugaredLogger
	Auditor   *audit.Auditor
	Gate      *auth.Gate
	Ledger    *inventory.Ledger
	Registry  *personnel.Registry
	Engine    *custody.Engine
	Settings  *settings.Service
	Backup    *backup.Service

	// MaxUploadBytes bounds backup uploads.
	MaxUploadBytes int64
}

// NewDeps wires the domain services around one database.
func NewDeps(db *sql.DB, jwtSecret string, logger *zap.SugaredLogger, maxUploadBytes int64) Deps {
	if maxUploadBytes <= 0 {
		maxUploadBytes = backup.DefaultMaxBytes
	}
	auditor := audit.New(db, logger)
	ledger := inventory.NewLedger(db, auditor, logger)
	return Deps{
		DB:        db,
		JWTSecret: jwtSecret,
		Logger:    logger,
		Auditor:   auditor,
		Gate:      auth.NewGate(db, auditor, logger),
		Ledger:    ledger,
		Registry:  personnel.NewRegistry(db, auditor, logger),
		Engine:    custody.NewEngine(db, ledger, auditor, logger),
		Settings:  settings.NewService(db, auditor, logger),
		Backup:    backup.NewService(db, logger, maxUploadBytes),

		MaxUploadBytes: maxUploadBytes,
	}
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	authHandler := &AuthHandler{DB: d.DB, Gate: d.Gate, JWTSecret: d.JWTSecret, Logger: d.Logger}
	adminsHandler := &AdminsHandler{Gate: d.Gate, Logger: d.Logger}
	materialsHandler := &MaterialsHandler{Ledger: d.Ledger, Engine: d.Engine, Logger: d.Logger}
	personnelHandler := &PersonnelHandler{Registry: d.Registry, Logger: d.Logger}
	cautelasHandler := &CautelasHandler{Engine: d.Engine, Logger: d.Logger}
	logsHandler := &LogsHandler{Auditor: d.Auditor, Logger: d.Logger}
	settingsHandler := &SettingsHandler{Service: d.Settings, Logger: d.Logger}
	backupHandler := &BackupHandler{Service: d.Backup, MaxBytes: d.MaxUploadBytes, Logger: d.Logger}
	dashboardHandler := &DashboardHandler{
		DB:       d.DB,
		Ledger:   d.Ledger,
		Registry: d.Registry,
		Engine:   d.Engine,
		Logger:   d.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(d.Logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// Public.
		r.Post("/auth/login", authHandler.Login)
		r.Get("/auth/bootstrap", authHandler.Bootstrap)
		r.Get("/health", dashboardHandler.Health)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.JWTSecret, d.DB, d.Gate, d.Logger))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/session", authHandler.Session)

			// Role checks live in the gate, against the stored role.
			r.Get("/admins", adminsHandler.List)
			r.Post("/admins", adminsHandler.Create)
			r.Delete("/admins/{id}", adminsHandler.Delete)

			r.Get("/materials", materialsHandler.List)
			r.Post("/materials", materialsHandler.Create)
			r.Get("/materials/categories", materialsHandler.Categories)
			r.Get("/materials/{id}", materialsHandler.Get)
			r.Put("/materials/{id}", materialsHandler.Update)
			r.Delete("/materials/{id}", materialsHandler.Delete)
			r.Put("/materials/{id}/total", materialsHandler.AdjustTotal)

			r.Get("/personnel", personnelHandler.List)
			r.Post("/personnel", personnelHandler.Create)
			r.Get("/personnel/{id}", personnelHandler.Get)
			r.Put("/personnel/{id}", personnelHandler.Update)
			r.Delete("/personnel/{id}", personnelHandler.Delete)

			r.Get("/cautelas", cautelasHandler.List)
			r.Post("/cautelas", cautelasHandler.Issue)
			r.Get("/cautelas/{id}", cautelasHandler.Get)
			r.Post("/cautelas/{id}/return", cautelasHandler.Return)

			r.Get("/logs", logsHandler.List)

			r.Get("/settings", settingsHandler.Get)
			r.Put("/settings", settingsHandler.UpdateInstitution)
			r.Put("/settings/logo", settingsHandler.SetLogo)
			r.Delete("/settings/logo", settingsHandler.ClearLogo)
			r.Put("/settings/theme", settingsHandler.SetTheme)

			r.Get("/backup", backupHandler.Download)
			r.Post("/backup/restore", backupHandler.Restore)

			r.Get("/dashboard", dashboardHandler.Dashboard)
		})
	})

	return r
}
