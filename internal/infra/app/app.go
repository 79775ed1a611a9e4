package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/blackinsure/rainyday/internal/core/port"
	"github.com/blackinsure/rainyday/internal/infra/captcha"
	"github.com/blackinsure/rainyday/internal/infra/config"
	"github.com/blackinsure/rainyday/internal/infra/database"
	kafkainfra "github.com/blackinsure/rainyday/internal/infra/kafka"
	"github.com/blackinsure/rainyday/internal/infra/logger"
	"github.com/blackinsure/rainyday/internal/infra/mail"
	redisinfra "github.com/blackinsure/rainyday/internal/infra/redis"
	"github.com/blackinsure/rainyday/internal/infra/security"
	postgresrepo "github.com/blackinsure/rainyday/internal/repository/postgres"
	redisrepo "github.com/blackinsure/rainyday/internal/repository/redis"
	"github.com/blackinsure/rainyday/internal/transport/http/middleware"
	"github.com/blackinsure/rainyday/internal/transport/http/routes"
	"github.com/blackinsure/rainyday/internal/usecase"
)

// Application wires the service's dependencies and runs the HTTP server.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New builds the application from configuration, connecting to every
// backing service.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		// Only reachable in development; Validate rejects a blank secret elsewhere.
		jwtSecret = "rainyday-development-secret"
		log.Warn("jwt secret not configured, using development default")
	}

	tokenManager, err := security.NewTokenManager(jwtSecret, cfg.JWT.Issuer, cfg.JWT.TokenTTL)
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	coverageEnd, err := cfg.Policy.ParseCoverageEndDate()
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, err
	}

	repos := postgresrepo.NewRepositories(pool)

	var captchaVerifier port.CaptchaVerifier
	if cfg.Captcha.SecretKey != "" {
		captchaVerifier = captcha.NewRecaptchaVerifier(cfg.Captcha, log)
	} else {
		log.Info("captcha secret not configured, accepting all tokens")
		captchaVerifier = captcha.NewAllowAllVerifier(log)
	}

	var mailer port.ConfirmationMailer
	if cfg.Mail.SendGridAPIKey != "" {
		mailer = mail.NewSendGridMailer(cfg.Mail, log)
	} else {
		log.Info("sendgrid api key not configured, logging emails instead")
		mailer = mail.NewLoggingMailer(log)
	}

	var (
		eventPublisher port.EventPublisher
		producer       *kafkainfra.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "rainyday:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	authService := usecase.NewAuthService(repos.PolicyHolders, repos.Policies, captchaVerifier, tokenManager, log)
	enrollmentService := usecase.NewEnrollmentService(repos.PolicyHolders, repos.Policies, mailer, eventPublisher, tokenManager, coverageEnd, log)
	confirmationService := usecase.NewConfirmationService(repos.PolicyHolders, repos.Policies, eventPublisher, tokenManager, log)
	policyService := usecase.NewPolicyService(repos.PolicyHolders, repos.Policies, eventPublisher, tokenManager, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		TokenParser: tokenManager,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:          authService,
			Enrollment:    enrollmentService,
			Confirmations: confirmationService,
			Policies:      policyService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              a.cfg.App.Addr(),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting rainyday API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	return nil
}
