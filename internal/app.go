// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "userhub/internal/api"
	"userhub/internal/api/handler"
	"userhub/internal/config"
	"userhub/internal/repository"
	"userhub/internal/repository/postgres"
	"userhub/internal/service"
	"userhub/internal/util"
	"userhub/pkg/db"
	"userhub/pkg/validation"
)

// Application holds all the initialized components of the application.
// Everything is explicitly constructed and owned here; there are no
// package-level singletons.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Unit of work
	UnitOfWorkFactory repository.UnitOfWorkFactory

	// Services
	UserService service.UserService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Initialize Unit of Work factory
	app.UnitOfWorkFactory = postgres.NewUnitOfWorkFactory(app.DB, app.Logger)
	app.Logger.Info("Unit of work factory initialized.")

	// 5. Initialize Services
	app.UserService = service.NewUserService(app.UnitOfWorkFactory, app.Logger)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	userHandler := handler.NewUserHandler(app.UserService, validation.New(), app.Logger)
	app.HTTPHandler = router.NewRouter(userHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
