package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"flight-board/internal/config"
	apphttp "flight-board/internal/http"
	"flight-board/internal/repository"
	"flight-board/internal/repository/memory"
	"flight-board/internal/repository/sqlite"
	"flight-board/internal/service"
	"flight-board/internal/session"
	"flight-board/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Fatalf("parse log level: %v", err)
	}
	logger.SetLevel(level)

	if strings.TrimSpace(cfg.Auth.TokenSecret) == "" {
		logger.Fatalf("auth token secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	prefs, err := buildPreferences(ctx, cfg, sqlite.NewPreferenceRepository(db), logger)
	if err != nil {
		logger.Fatalf("setup preferences: %v", err)
	}
	if err := prefs.Init(ctx); err != nil {
		logger.Fatalf("init preference repository: %v", err)
	}

	flightRepo := sqlite.NewFlightRepository(db)
	if err := flightRepo.Init(ctx); err != nil {
		logger.Fatalf("init flight repository: %v", err)
	}

	clock := clockwork.NewRealClock()
	flightService := service.NewFlightService(flightRepo, clock)
	if err := flightService.Seed(ctx, cfg.Flights.Count); err != nil {
		logger.Fatalf("seed flights: %v", err)
	}

	manager := session.NewManager(prefs, logger)
	manager.Load(ctx)
	if profile := manager.Profile(); profile.IsRegistered() {
		logger.Infof("restored profile for %s", profile.Name)
	}

	events, unsubscribe := manager.Subscribe()
	go func() {
		for ev := range events {
			logger.WithField("kind", ev.Kind).Debugf("session changed: name=%q remember=%t", ev.Profile.Name, ev.Settings.RememberUser)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		service.NewUserService(manager),
		flightService,
		manager,
		apphttp.NewTokenIssuer(cfg.Auth.TokenSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute, clock),
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	unsubscribe()

	logger.Info("bye")
}

func buildPreferences(ctx context.Context, cfg config.Config, local repository.PreferenceRepository, logger *logrus.Logger) (repository.PreferenceRepository, error) {
	switch cfg.Preferences.Backend {
	case config.BackendSQLite:
		logger.Infof("storing preferences in %s", cfg.Database.Path)
		return local, nil
	case config.BackendMemory:
		logger.Warn("storing preferences in memory, they will not survive a restart")
		return memory.NewPreferenceRepository(), nil
	case config.BackendS3:
		objects, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return storage.NewPreferenceRepository(objects, cfg.Storage.Bucket, cfg.Storage.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown preference backend %q", cfg.Preferences.Backend)
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("storing preferences in s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
