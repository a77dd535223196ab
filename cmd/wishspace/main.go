package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/serejivanov62/wish/internal/api"
	"github.com/serejivanov62/wish/internal/auth"
	"github.com/serejivanov62/wish/internal/config"
	"github.com/serejivanov62/wish/internal/handlers"
	"github.com/serejivanov62/wish/internal/metrics"
	"github.com/serejivanov62/wish/internal/repository/memory"
	"github.com/serejivanov62/wish/internal/repository/postgres"
	"github.com/serejivanov62/wish/internal/scraper"
	"github.com/serejivanov62/wish/internal/service"
	"github.com/serejivanov62/wish/internal/telegram"
	"github.com/serejivanov62/wish/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.WithFields(logrus.Fields{
		"env":     cfg.AppEnv,
		"storage": cfg.StorageDriver,
	}).Info("Starting WishSpace...")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStorage, err := openStorage(ctx, cfg, l)
	if err != nil {
		l.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStorage()

	m := metrics.New()

	var extractor scraper.Extractor
	if cfg.FirecrawlKey != "" {
		extractor = scraper.NewFirecrawl(cfg.FirecrawlKey, cfg.FirecrawlURL, &http.Client{Timeout: cfg.ScrapeTimeout}, l)
	} else {
		l.Warn("FIRECRAWL_API_KEY is not set, adding wishes by link is disabled")
	}

	// Service layer
	svc := service.New(l, repos, service.Options{
		Extractor:     extractor,
		ScrapeTimeout: cfg.ScrapeTimeout,
		Metrics:       m,
	})

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if cfg.IsDevelopment() {
		l.Warn("Development login is enabled")
	}

	// HTTP API
	apiServer := api.NewServer(svc, issuer, l, api.Options{
		BotToken:       cfg.TelegramToken,
		InitDataMaxAge: cfg.InitDataMaxAge,
		DevLogin:       cfg.IsDevelopment(),
		Metrics:        m,
	})
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serve(l, "HTTP server", httpServer)
	serve(l, "Metrics server", metricsServer)

	// Telegram bot
	if cfg.BotEnabled {
		bot, err := telegram.NewBot(cfg.TelegramToken, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram bot: %v", err)
		}

		router := bot.Router()
		router.RegisterCommand("start", handlers.NewStartHandler(l))
		router.RegisterCommand("help", handlers.NewHelpHandler(l))
		router.RegisterCommand("wishes", handlers.NewWishesHandler(svc, l))
		router.RegisterCommand("friends", handlers.NewFriendsHandler(svc, l))
		router.RegisterText(handlers.NewLinkHandler(svc, l))
		router.RegisterContact(handlers.NewContactHandler(svc, l))

		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
				stop()
			}
		}()
	}

	l.Info("WishSpace started successfully")

	<-ctx.Done()
	l.Info("Received shutdown signal...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for name, srv := range map[string]*http.Server{"HTTP server": httpServer, "Metrics server": metricsServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Errorf("%s shutdown error: %v", name, err)
		}
	}

	l.Info("WishSpace stopped")
}

func serve(l *logrus.Logger, name string, srv *http.Server) {
	go func() {
		l.Infof("%s listening on %s", name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatalf("%s error: %v", name, err)
		}
	}()
}

func openStorage(ctx context.Context, cfg *config.Config, l *logrus.Logger) (service.Repositories, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		l.Warn("Using in-memory storage, data is lost on restart")
		store := memory.New()
		return service.Repositories{
			Users:      store.Users(),
			Categories: store.Categories(),
			Items:      store.Items(),
			Events:     store.Events(),
			Friends:    store.Friends(),
			Bookings:   store.Bookings(),
		}, func() {}, nil
	}

	db, err := config.NewDatabase(ctx, cfg.DatabaseURL, l)
	if err != nil {
		return service.Repositories{}, nil, err
	}

	// Run migrations
	if err := db.Migrate(cfg.MigrationsPath); err != nil {
		db.Close()
		return service.Repositories{}, nil, err
	}

	return service.Repositories{
		Users:      postgres.NewUserRepository(db.DB),
		Categories: postgres.NewCategoryRepository(db.DB),
		Items:      postgres.NewItemRepository(db.DB),
		Events:     postgres.NewEventRepository(db.DB),
		Friends:    postgres.NewFriendRepository(db.DB),
		Bookings:   postgres.NewBookingRepository(db.DB),
	}, func() { db.Close() }, nil
}
