package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"carebook/internal/auth"
	"carebook/internal/config"
	"carebook/internal/metrics"
	"carebook/internal/service/directory"
	"carebook/internal/service/prescriptions"
	"carebook/internal/service/scheduling"
	mongostore "carebook/internal/store/mongo"
	"carebook/internal/store/postgres"
	httpTransport "carebook/internal/transport/http"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "carebook-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "carebook-server"),
	)
	slog.SetDefault(log)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(cfg.HTTPPort))
	log.Info("starting", slog.String("http_addr", httpAddr), slog.String("log_level", cfg.LogLevel))

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	mongoCtx, cancelMongo := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongostore.Open(mongoCtx, cfg.MongoURI)
	cancelMongo()
	if err != nil {
		log.Error("mongo connection failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongostore.Close(closeCtx, mongoClient); err != nil {
			log.Warn("mongo close failed", slog.Any("err", err))
		}
	}()

	apptRepo := postgres.NewAppointmentRepo(db)
	dirRepo := postgres.NewDirectoryRepo(db)

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 10*time.Second)
	rxRepo, err := mongostore.NewPrescriptionRepo(indexCtx, mongoClient.Database(cfg.MongoDatabase))
	cancelIndex()
	if err != nil {
		log.Error("prescription store setup failed", slog.Any("err", err))
		os.Exit(1)
	}

	schedulingSvc := scheduling.NewService(apptRepo)
	directorySvc := directory.NewService(dirRepo, apptRepo)
	prescriptionsSvc := prescriptions.NewService(rxRepo, apptRepo, schedulingSvc)

	validator := auth.NewManager(auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		TokenTTL: cfg.JWTTokenTTL,
	})
	collector := metrics.NewCollector("carebook")

	router := httpTransport.NewRouter(httpTransport.RouterDeps{
		Appointments:  httpTransport.NewAppointmentsHandler(schedulingSvc, log, collector),
		Directory:     httpTransport.NewDirectoryHandler(directorySvc, log),
		Prescriptions: httpTransport.NewPrescriptionsHandler(prescriptionsSvc, log, collector),
		Validator:     validator,
		Collector:     collector,
		Logger:        log,
	})

	server := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTPRequestTimeout,
		WriteTimeout:      cfg.HTTPRequestTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	log.Info("http server started", slog.String("http_addr", httpAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, server, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, s *http.Server, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Warn("graceful shutdown failed; forcing close", slog.Any("err", err))
		_ = s.Close()
		return
	}
	log.Info("http server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
