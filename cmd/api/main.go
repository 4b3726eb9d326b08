package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/dutchpay/docs"
	"github.com/fkhayef/dutchpay/internal/config"
	"github.com/fkhayef/dutchpay/internal/currency"
	"github.com/fkhayef/dutchpay/internal/database"
	"github.com/fkhayef/dutchpay/internal/expense"
	"github.com/fkhayef/dutchpay/internal/notification"
	"github.com/fkhayef/dutchpay/internal/settlement"
	"github.com/fkhayef/dutchpay/pkg/logging"
	"github.com/fkhayef/dutchpay/pkg/metrics"
	mw "github.com/fkhayef/dutchpay/pkg/middleware"
)

// @title						Dutch Pay API
// @version					1.0
// @description				Shared-expense settlements: record expenses in several currencies and get the transfers that settle everyone up.
// @BasePath					/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if envErr != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		slog.Error("Invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Database migrations applied")
	}

	// Initialize database connection
	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxOpenConns / 2,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Connected to database successfully")

	// Exchange rates, cached per (date, from, to)
	rates := currency.NewCachedSource(currency.NewHTTPSource(cfg.RateAPIURL, cfg.RateAPITimeout, loc), cfg.RateAPITimeout)

	// Event publishing
	var publisher notification.Publisher = notification.LogPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := notification.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Warn("AMQP unavailable, events will only be logged", "error", err)
		} else {
			publisher = amqpPublisher
			slog.Info("Publishing events", "exchange", cfg.AMQPExchange)
		}
	}
	defer publisher.Close()
	notifier := notification.NewService(publisher)

	// Expense feature
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, rates, notifier)
	expenseHandler := expense.NewHandler(expenseService)

	// Settlement feature
	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, expenseRepo, notifier, loc)
	settlementHandler := settlement.NewHandler(settlementService)

	// Rate lookup feature
	rateHandler := currency.NewHandler(rates, loc)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.DevMode() {
			slog.Warn("JWT_SECRET not set, owners are taken from the " + mw.DevOwnerHeader + " header")
			r.Use(mw.DevOwnerMiddleware)
		} else {
			r.Use(mw.AuthMiddleware(mw.NewTokenValidator(cfg.JWTSecret)))
		}

		// Mount feature routers
		r.Mount("/settlements", settlementHandler.Routes(expenseHandler.SettlementRoutes()))
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/rates", rateHandler.Routes())
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
