package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/pagelint/pagelint/internal/application"
	appscans "github.com/pagelint/pagelint/internal/application/scans"
	"github.com/pagelint/pagelint/internal/config"
	"github.com/pagelint/pagelint/internal/domain/reports"
	"github.com/pagelint/pagelint/internal/infra/alert"
	aiclient "github.com/pagelint/pagelint/internal/infra/ai/openai"
	"github.com/pagelint/pagelint/internal/infra/browser"
	"github.com/pagelint/pagelint/internal/infra/cache"
	"github.com/pagelint/pagelint/internal/infra/db/postgres"
	"github.com/pagelint/pagelint/internal/infra/db/sqlite"
	"github.com/pagelint/pagelint/internal/infra/httpserver"
	"github.com/pagelint/pagelint/internal/infra/screenshots"
	"github.com/pagelint/pagelint/internal/middleware"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect report store
	var db *sql.DB
	var repo reports.Repository
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		repo = postgres.NewReportRepository(db)
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.Database.Path)
		if err != nil {
			log.Fatalf("sqlite connect error: %v", err)
		}
		repo = sqlite.NewReportRepository(db)
	default:
		log.Fatalf("unknown database driver: %s", cfg.Database.Driver)
	}
	defer db.Close()

	// open model response cache
	responseCache, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		log.Fatalf("cache open error: %v", err)
	}
	defer responseCache.Close()

	// init screenshot store
	var screens reports.ScreenshotStore
	switch cfg.Screenshots.Backend {
	case "minio":
		m := cfg.Screenshots.Minio
		screens, err = screenshots.NewMinioStore(ctx,
			m.Endpoint, m.Region, m.BucketName, m.AccessKey, m.SecretKey, m.UseSSL)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
	case "filesystem":
		screens, err = screenshots.NewFileStore(cfg.Screenshots.Dir)
		if err != nil {
			log.Fatalf("screenshot dir error: %v", err)
		}
	default:
		log.Fatalf("unknown screenshot backend: %s", cfg.Screenshots.Backend)
	}

	// init model client (generator + validator share one client)
	models := aiclient.NewClient(
		os.Getenv("OPENAI_API_KEY"),
		os.Getenv("GOOGLE_API_KEY"),
		cfg.Scanner.Model,
		cfg.Scanner.ValidatorModel,
		responseCache,
		log,
	)

	// init service
	svc := &appscans.Service{
		Reports:        repo,
		Screens:        screens,
		Browser:        browser.NewLauncher(cfg.BrowserHeadless(), cfg.NavTimeout(), cfg.SettleDelay(), log),
		Generator:      models,
		Validator:      models,
		Alerts:         alert.NewLogNotifier(log),
		Clock:          application.SystemClock{},
		Logger:         log,
		Model:          cfg.Scanner.Model,
		ValidatorModel: cfg.Scanner.ValidatorModel,
	}

	health := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}
	handler := httpserver.NewRouter(svc, repo, screens, health, os.Getenv("DEBUG_TOKEN"), log)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No write timeout: scan responses are long-lived event streams.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Infof("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Errorf("shutdown error: %v", err)
	}
}
