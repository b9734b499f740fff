package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/erlanggapranata/uploader/internal/config"
	"github.com/erlanggapranata/uploader/internal/handler"
	middie "github.com/erlanggapranata/uploader/internal/middleware"
	"github.com/erlanggapranata/uploader/internal/migration"
	"github.com/erlanggapranata/uploader/internal/store"
)

// App represents the application
type App struct {
	server *echo.Echo
	config *config.Config
	store  *store.Store
}

// New creates a new application instance from the on-disk configuration
func New() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a new application instance with an explicit configuration
func NewWithConfig(cfg *config.Config) (*App, error) {
	if err := setup(cfg); err != nil {
		return nil, err
	}

	st, err := store.NewStore(cfg)
	if err != nil {
		return nil, err
	}

	manager, err := migration.NewManagerWithDB(st.DB)
	if err != nil {
		st.Close()
		return nil, err
	}
	if err := manager.Up(); err != nil {
		st.Close()
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 5 * time.Minute
	e.Server.WriteTimeout = 5 * time.Minute
	e.Server.IdleTimeout = 10 * time.Minute
	e.Server.ReadHeaderTimeout = 30 * time.Second

	app := &App{
		server: e,
		config: cfg,
		store:  st,
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middie.SecurityHeaders())

	registerRoutes(e, app)
	return app, nil
}

// Start starts the application
func (a *App) Start() {
	serverAddr := fmt.Sprintf(":%d", a.config.Port)

	go func() {
		if err := a.server.Start(serverAddr); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	log.Printf("Server started on %s", serverAddr)
}

// Stop releases application resources
func (a *App) Stop() {
	if err := a.store.Close(); err != nil {
		log.Printf("Warning: Failed to close store: %v", err)
	}
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// setup ensures all necessary directories exist
func setup(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.UploadPath, 0o755); err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return nil
}

// registerRoutes registers all HTTP routes
func registerRoutes(e *echo.Echo, app *App) {
	h := handler.NewHandler(app.config, app.store)

	e.GET("/health", h.HandleHealth)
	e.POST("/upload", h.HandleUpload)

	e.GET("/urls", h.HandleListURLs)
	e.GET("/urls/recent", h.HandleRecentUploads)
	e.GET("/urls/popular", h.HandlePopularURLs)
	e.GET("/urls/search", h.HandleSearchURLs)
	e.DELETE("/urls/:shortCode", h.HandleDeleteURL)

	e.GET("/stats", h.HandleStats)
	e.GET("/file/:filename", h.HandleDirectFile)
	e.GET("/:shortCode", h.HandleShortCode)
}
