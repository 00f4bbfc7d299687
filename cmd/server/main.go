package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"rideshare/internal/app"
	"rideshare/internal/config"
	"rideshare/internal/handler"
	"rideshare/internal/logger"
	"rideshare/internal/middleware"
	internalRedis "rideshare/internal/redis"
	"rideshare/internal/repository"
	"rideshare/internal/repository/memory"
	"rideshare/internal/repository/postgres"
	"rideshare/internal/scheduler"
	"rideshare/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	// New Relic comes first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	startCtx, cancel := context.WithTimeout(context.Background(), cfg.Store.ConnectWait+10*time.Second)
	defer cancel()

	var (
		userRepo repository.UserRepository
		rideRepo repository.RideRepository
		db       *sql.DB
	)
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		var err error
		db, err = app.NewDatabase(startCtx, cfg.Database, cfg.Store.ConnectWait, nrApp, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		defer db.Close()
		log.Info("connected to PostgreSQL")

		if cfg.Database.Migrate {
			if err := app.RunMigrations(startCtx, db, log); err != nil {
				log.WithError(err).Fatal("failed to migrate database")
			}
		}
		userRepo = postgres.NewUserRepository(db)
		rideRepo = postgres.NewRideRepository(db)
	default:
		log.Warn("using in-memory store, data is lost on restart")
		userRepo = memory.NewUserRepository()
		rideRepo = memory.NewRideRepository()
	}

	var (
		redisClient *redis.Client
		rideCache   service.RideCache
		locker      service.Locker
	)
	if cfg.Redis.Addr != "" {
		var err error
		redisClient, err = app.NewRedisClient(startCtx, cfg.Redis, nrApp)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info("connected to Redis")

		rideCache = internalRedis.NewCacheStore(redisClient)
		locker = internalRedis.NewLockStore(redisClient)
	} else {
		lockManager := memory.NewLockManager(time.Minute)
		defer lockManager.Stop()
		locker = lockManager
	}

	creds := service.NewCredentialService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
	authService := service.NewAuthService(userRepo, creds, cfg.Store.OpTimeout, log)
	rideService := service.NewRideService(rideRepo, rideCache, service.RidePolicy{
		DedupeWindow: cfg.Rides.DedupeWindow,
		TTL:          cfg.Rides.TTL,
		DedupeKey:    cfg.Rides.DedupeKey,
		OpTimeout:    cfg.Store.OpTimeout,
		CacheTTL:     cfg.Redis.CacheTTL,
	}, log)
	reaper := service.NewExpiryReaper(rideRepo, locker, cfg.Rides.TTL, cfg.Rides.ReapInterval, cfg.Store.OpTimeout, log)

	jobs := scheduler.New(log)
	if err := jobs.Every("ride-reaper", cfg.Rides.ReapInterval, func(ctx context.Context) error {
		_, err := reaper.Sweep(ctx)
		return err
	}); err != nil {
		log.WithError(err).Fatal("failed to schedule reaper")
	}
	if cfg.Ping.URL != "" {
		pinger := scheduler.NewPinger(cfg.Ping.URL, cfg.Ping.Timeout, log)
		if err := jobs.Every("keep-alive", cfg.Ping.Interval, pinger.Ping); err != nil {
			log.WithError(err).Fatal("failed to schedule keep-alive ping")
		}
	}
	jobs.Start()

	authLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.AuthRPS), cfg.RateLimit.AuthBurst)
	defer authLimiter.Stop()

	router := app.NewRouter(app.RouterDeps{
		UserHandler: handler.NewUserHandler(authService),
		RideHandler: handler.NewRideHandler(rideService),
		RedisClient: redisClient,
		NewRelicApp: nrApp,
		Log:         log,
		AuthLimiter: authLimiter,
		AllowedCORS: cfg.Server.AllowedCORS,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdown(server, jobs, cfg.Server.ShutdownTimeout, log)
	if nrApp != nil {
		nrApp.Shutdown(cfg.Server.ShutdownTimeout)
	}

	log.Info("server exited")
}

// shutdown drains HTTP traffic first, then waits for running jobs.
func shutdown(server *http.Server, jobs *scheduler.Scheduler, timeout time.Duration, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if err := jobs.Stop(ctx); err != nil {
		log.WithError(err).Error("scheduled jobs did not stop in time")
	}
}
