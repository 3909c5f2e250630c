package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pkaiserui/VagusNerveReset/internal/config"
	"github.com/pkaiserui/VagusNerveReset/internal/infra/httpclient"
	"github.com/pkaiserui/VagusNerveReset/internal/jobs/expiry"
	pgrepo "github.com/pkaiserui/VagusNerveReset/internal/repo/postgres"
	redrepo "github.com/pkaiserui/VagusNerveReset/internal/repo/redis"
	analyticsvc "github.com/pkaiserui/VagusNerveReset/internal/services/analytics"
	authsvc "github.com/pkaiserui/VagusNerveReset/internal/services/auth"
	premiumsvc "github.com/pkaiserui/VagusNerveReset/internal/services/premium"
	purchasesvc "github.com/pkaiserui/VagusNerveReset/internal/services/purchases"
	ratesvc "github.com/pkaiserui/VagusNerveReset/internal/services/rate"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
	expiryJob  *expiry.Job
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	entitlementRepo := pgrepo.NewEntitlementRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	eventRepo := pgrepo.NewEventRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret)
	authService := authsvc.NewService(jwtManager)
	analyticsService := analyticsvc.NewService(eventRepo, analyticsvc.Config{
		MaxBatchSize: 100,
	})

	appleVerifier := purchasesvc.NewAppleReceiptVerifier(
		httpclient.New(cfg.Apple.Timeout),
		purchasesvc.AppleVerifierConfig{
			VerifyURL:    cfg.Apple.AppleVerifyURL(),
			SharedSecret: cfg.Apple.SharedSecret,
		},
	)
	stripeVerifier := purchasesvc.NewStripePaymentVerifier(
		httpclient.New(cfg.Stripe.Timeout),
		purchasesvc.StripeVerifierConfig{
			APIBaseURL:       cfg.Stripe.APIBaseURL,
			SecretKey:        cfg.Stripe.SecretKey,
			DefaultProductID: cfg.Premium.DefaultProductID,
		},
	)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Premium.VerifyPerMinute)

	purchaseService := purchasesvc.NewService(purchasesvc.Dependencies{
		Receipts:     appleVerifier,
		Payments:     stripeVerifier,
		Entitlements: entitlementRepo,
		RateLimiter:  rateLimiter,
	})
	purchaseService.AttachTelemetry(analyticsService)

	premiumService := premiumsvc.NewService(entitlementRepo, userRepo, premiumsvc.Config{
		TrialDuration: cfg.Premium.TrialDuration,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AnalyticsService: analyticsService,
		AuthService:      authService,
		PremiumService:   premiumService,
		PurchaseService:  purchaseService,
		Logger:           log,
		Config:           cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
		expiryJob:  expiry.New(entitlementRepo, log),
	}, nil
}

// RunExpiryLoop sweeps lapsed entitlements on a fixed interval until the
// context is cancelled.
func (a *App) RunExpiryLoop(ctx context.Context) error {
	if a.expiryJob == nil {
		return nil
	}

	if err := a.expiryJob.Run(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.expiryJob.Run(ctx); err != nil {
				return err
			}
		}
	}
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
