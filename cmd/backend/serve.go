package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rearqui/portfolio/apitoken"
	"github.com/rearqui/portfolio/auth"
	"github.com/rearqui/portfolio/cmd/backend/handlers"
	"github.com/rearqui/portfolio/database"
	"github.com/rearqui/portfolio/dispatch"
	"github.com/rearqui/portfolio/importer"
	"github.com/rearqui/portfolio/ingest"
	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/photo"
	"github.com/rearqui/portfolio/project"
	"github.com/rearqui/portfolio/session"
	"github.com/rearqui/portfolio/storage"
	"github.com/rearqui/portfolio/user"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServer,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(serveCmd)
}

// application is the wired server: one dispatcher in front of both backends.
type application struct {
	handler  *dispatch.Dispatcher
	sessions *session.Manager
}

func newApplication(cfg *Config, db *gorm.DB, log logger.Logger) (*application, error) {
	projectStore := project.NewMySQLStore(db, log)
	photoStore := photo.NewMySQLStore(db, log)
	userStore := user.NewMySQLStore(db, log)
	tokenStore := apitoken.NewMySQLStore(db, log)

	media, err := storage.NewBlobStorage(cfg.MediaStorageConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}
	source, err := storage.NewBlobStorage(cfg.SourceStorageConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ingest source storage: %w", err)
	}

	var (
		verifier auth.Verifier
		jwt      *auth.JWTVerifier
	)
	switch cfg.Auth.Mode {
	case "jwt":
		jwt, err = auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
		if err != nil {
			return nil, err
		}
		verifier = jwt
	default:
		verifier = auth.NewTokenVerifier(tokenStore, log)
	}

	sessions := session.NewManager(cfg.Session.Duration, log)
	cookie := session.NewCookie(cfg.Session.CookieName, cfg.Session.CookieSecret, cfg.Session.Secure, cfg.Session.Duration)

	health := handlers.NewHealthHandler(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	maxUpload := cfg.Server.MaxUploadMB << 20

	imp := importer.New(projectStore, log.WithField("component", "importer"))
	ingestor := ingest.New(projectStore, photoStore, source, media, log.WithField("component", "ingest"))

	api := handlers.NewAPIRouter(handlers.APIRoutes{
		Prefix:   cfg.Dispatch.APIPrefix,
		Projects: handlers.NewProjectHandler(projectStore, photoStore, media, imp, maxUpload, log),
		Photos:   handlers.NewPhotoHandler(photoStore, projectStore, media, ingestor, maxUpload, log),
		Auth:     handlers.NewAuthMiddleware(verifier, log),
		Health:   health,
		Logger:   log.WithField("backend", dispatch.API.String()),
	})

	pagesHandler, err := handlers.NewPagesHandler(projectStore, photoStore, media, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load page templates: %w", err)
	}
	pages := handlers.NewPagesRouter(handlers.PageRoutes{
		Pages:  pagesHandler,
		Admin:  handlers.NewAdminHandler(userStore, tokenStore, sessions, cookie, jwt, log),
		Health: health,
		Logger: log.WithField("backend", dispatch.Pages.String()),
	})

	return &application{
		handler:  dispatch.New(cfg.Dispatch.APIPrefix, pages, api, log),
		sessions: sessions,
	}, nil
}

func newLogger(cfg *Config) *logger.LogrusLogger {
	return logger.NewLogrusLoggerWithFormat(cfg.Log.Level, cfg.Log.Format, os.Stdout)
}

func connectDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := database.Connect(cfg.DatabaseConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := newLogger(cfg)
	log.Info(ctx, "starting server", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"date":    BuildDate,
	})

	db, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	log.Info(ctx, "database connected", map[string]interface{}{
		"driver": cfg.Database.Driver,
	})

	app, err := newApplication(cfg, db, log)
	if err != nil {
		return err
	}

	app.sessions.StartCleanup(5 * time.Minute)
	defer app.sessions.StopCleanup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      app.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info(ctx, "server listening", map[string]interface{}{
			"address":    addr,
			"api_prefix": app.handler.Prefix(),
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info(ctx, "server stopped", nil)
	return nil
}
