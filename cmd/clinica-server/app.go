package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/config"
	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/domain/identity"
	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/domain/scheduling"
	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/platform/db"
	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/platform/metrics"
	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/platform/middleware"
	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/platform/notification"
)

const (
	version        = "0.1.0"
	requestTimeout = 30 * time.Second
)

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// stores holds the record store selected by STORE_DRIVER.
type stores struct {
	doctors      identity.DoctorRepository
	patients     identity.PatientRepository
	appointments scheduling.AppointmentRepository
	checker      db.Checker
	closeFn      func()
}

func (s *stores) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		gdb, err := db.OpenMySQL(cfg.MySQLDSN, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
		return &stores{
			doctors:      identity.NewDoctorRepoMySQL(gdb),
			patients:     identity.NewPatientRepoMySQL(gdb),
			appointments: scheduling.NewAppointmentRepoMySQL(gdb),
			checker:      db.SQLChecker{DB: sqlDB},
			closeFn:      func() { sqlDB.Close() },
		}, nil
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &stores{
			doctors:      identity.NewDoctorRepoPG(pool),
			patients:     identity.NewPatientRepoPG(pool),
			appointments: scheduling.NewAppointmentRepoPG(pool),
			checker:      db.PGChecker{Pool: pool},
			closeFn:      pool.Close,
		}, nil
	}
}

// newNotificationManager wires the email channel and the notification log.
// The returned func releases the redis client, if any.
func newNotificationManager(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*notification.NotificationManager, func(), error) {
	var sender notification.EmailSender
	if cfg.MailEnabled() {
		sender = notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		sender = notification.NewLogSender(logger)
	}

	var (
		store   notification.Store = notification.NewMemoryStore()
		closeFn                    = func() {}
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		store = notification.NewRedisStore(client, cfg.NotificationRetention)
		closeFn = func() { client.Close() }
	}

	mgr := notification.NewNotificationManager(sender, notification.NewTemplateEngine(), store, logger)
	return mgr, closeFn, nil
}

// newEcho builds the server with global middleware and the operational
// endpoints. Domain routes are registered on the returned /api/v1 group.
func newEcho(cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := e.Group("/api/v1", middleware.RequestTimeout(requestTimeout))
	return e, api
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)
	return reg
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg, os.Stdout)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to connect to record store")
		return err
	}
	defer st.Close()
	logger.Info().Str("driver", cfg.StoreDriver).Msg("connected to record store")

	notifier, closeNotifier, err := newNotificationManager(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to set up notifications")
		return err
	}
	defer closeNotifier()

	e, api := newEcho(cfg, logger, newRegistry())
	e.GET("/health/db", db.HealthHandler(st.checker))

	idSvc := identity.NewService(st.doctors, st.patients)
	identity.NewHandler(idSvc).RegisterRoutes(api)

	schedSvc := scheduling.NewService(st.appointments, idSvc, logger,
		scheduling.WithLocation(loc),
		scheduling.WithNotifier(notification.NewConfirmationSender(notifier)),
	)
	scheduling.NewHandler(schedSvc).RegisterRoutes(api)

	notification.NewNotificationHandler(notifier).RegisterRoutes(api)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("timezone", loc.String()).Bool("smtp", cfg.MailEnabled()).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error().Err(err).Msg("server failed")
		return err
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
