package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/glowdesk/platform/internal/api/router"
	"github.com/glowdesk/platform/internal/auth"
	"github.com/glowdesk/platform/internal/bookings"
	appconfig "github.com/glowdesk/platform/internal/config"
	"github.com/glowdesk/platform/internal/notify"
	"github.com/glowdesk/platform/internal/observability/metrics"
	"github.com/glowdesk/platform/internal/salons"
	"github.com/glowdesk/platform/internal/services"
	"github.com/glowdesk/platform/internal/slots"
	"github.com/glowdesk/platform/internal/uploads"
	"github.com/glowdesk/platform/internal/users"
	"github.com/glowdesk/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting glowdesk API server", "env", cfg.Env, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis unreachable", "error", err)
		os.Exit(1)
	}

	// Repositories.
	usersRepo := users.NewRepository(pool)
	salonsRepo := salons.NewRepository(pool)
	servicesRepo := services.NewRepository(pool)
	slotsRepo := slots.NewRepository(pool)
	slotsLedger := slots.NewLedger(pool, logger)
	bookingsRepo := bookings.NewRepository(pool, logger)

	// SMS delivery.
	var sms notify.SMSSender
	switch cfg.SMSProvider {
	case "http":
		sms = notify.NewHTTPSMSSender(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSFromNumber)
	default:
		sms = notify.NewStubSMSSender(logger)
	}
	notifier := notify.NewService(sms, usersRepo, salonsRepo, logger)

	// Optional S3-backed image uploads.
	var uploader salons.ImageUploader
	if cfg.S3Bucket != "" {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.AWSEndpointOverride != "" {
				o.BaseEndpoint = &cfg.AWSEndpointOverride
				o.UsePathStyle = true
			}
		})
		uploader = uploads.NewS3Store(s3Client, cfg.S3Bucket, cfg.PublicBaseURL, logger)
	}

	// Auth.
	otpStore := auth.NewOTPStore(redisClient, cfg.OTPTTL, cfg.OTPMaxAttempts, cfg.OTPLength, logger)
	tokenIssuer := auth.NewTokenIssuer(cfg.AuthJWTSecret, cfg.AuthTokenTTL)

	// Services and handlers.
	bookingMetrics := metrics.NewBookingMetrics(nil)
	slotMetrics := metrics.NewSlotMetrics(nil)
	bookingsSvc := bookings.NewService(bookingsRepo, notifier, bookingMetrics, logger)
	slotDefaults := slots.GenerationDefaults{
		DurationMinutes: cfg.SlotDurationMinutes,
		Capacity:        cfg.DefaultSlotCapacity,
	}

	routerCfg := &router.Config{
		Logger:          logger,
		TokenParser:     tokenIssuer,
		AuthHandler:     auth.NewHandler(otpStore, tokenIssuer, usersRepo, sms, logger),
		UsersHandler:    users.NewHandler(usersRepo, logger),
		SalonsHandler:   salons.NewHandler(salonsRepo, uploader, logger),
		ServicesHandler: services.NewHandler(servicesRepo, logger),
		SlotsHandler:    slots.NewHandler(slotsRepo, slotsLedger, salonsRepo, slotMetrics, slotDefaults, logger),
		BookingsHandler: bookings.NewHandler(bookingsSvc, logger),
		MetricsHandler:  promhttp.Handler(),

		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSec:    cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func loadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}
