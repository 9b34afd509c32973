package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/doc-inspector/webclient/internal/api"
	"github.com/doc-inspector/webclient/internal/config"
	"github.com/doc-inspector/webclient/internal/inspect"
	"github.com/doc-inspector/webclient/internal/logging"
	"github.com/doc-inspector/webclient/internal/session"
	"github.com/doc-inspector/webclient/internal/storage"
	"github.com/doc-inspector/webclient/internal/web"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	configPath := os.Getenv("INSPECTOR_CONFIG")
	if configPath == "" {
		// Resolve the config next to the executable
		exePath, err := os.Executable()
		if err != nil {
			fmt.Printf("Failed to get executable path: %v\n", err)
			os.Exit(1)
		}
		configPath = filepath.Join(filepath.Dir(exePath), "inspector.config")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:   cfg.Advanced.LogLevel,
		Format:  cfg.Advanced.LogFormat,
		Service: "inspector-web",
	})

	catalog, err := config.LoadFilterCatalog(cfg.Inspect.FiltersFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Inspect.FiltersFile).Msg("failed to load filter catalog")
	}

	client, err := inspect.NewClient(cfg.InspectEndpoint(),
		inspect.WithLogger(logging.Component(logger, "inspect")))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create inspect client")
	}

	objects := storage.NewObjectStore(api.ObjectsPrefix)
	pages := session.NewManager(catalog, client, objects, cfg.Pages.MaxPages, logging.Component(logger, "session"))

	// Start background page cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Pages.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			pages.CleanupOldPages(time.Duration(cfg.Pages.SessionTimeoutMinutes) * time.Minute)
		}
	}()

	embeddedMode := web.HasEmbeddedFiles()

	e := echo.New()
	e.HideBanner = true

	httpLogger := logging.Component(logger, "http")
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" ||
				strings.HasSuffix(path, "/ws") ||
				strings.HasPrefix(path, api.ObjectsPrefix)
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			var event *zerolog.Event
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = httpLogger.Error().Err(v.Error)
			} else {
				event = httpLogger.Info()
			}
			event.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			httpLogger.Error().Err(err).Bytes("stack", stack).Msg("panic recovered")
			return err
		},
	}))

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	api.SetupMiddleware(e, logging.Component(logger, "api"))
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Pages:           pages,
		Objects:         objects,
		Version:         Version,
		InspectEndpoint: client.Endpoint(),
		MaxUploadBytes:  cfg.MaxUploadBytes(),
		Logger:          logging.Component(logger, "api"),
	}))

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn().Err(err).Msg("failed to register static routes")
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Document Inspector Web Client                   ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Inspect:   %-46s║\n", client.Endpoint())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
		pages.CloseAll()
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
