package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pkaiserui/VagusNerveReset/internal/config"
	analyticsvc "github.com/pkaiserui/VagusNerveReset/internal/services/analytics"
	authsvc "github.com/pkaiserui/VagusNerveReset/internal/services/auth"
	premiumsvc "github.com/pkaiserui/VagusNerveReset/internal/services/premium"
	purchasesvc "github.com/pkaiserui/VagusNerveReset/internal/services/purchases"
	"github.com/pkaiserui/VagusNerveReset/internal/transport/http/handlers"
)

type Dependencies struct {
	AnalyticsService *analyticsvc.Service
	AuthService      *authsvc.Service
	PremiumService   *premiumsvc.Service
	PurchaseService  *purchasesvc.Service
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	purchaseHandler := handlers.NewPurchaseHandler(deps.PurchaseService, deps.Logger)
	premiumHandler := handlers.NewPremiumHandler(deps.PremiumService)
	eventsHandler := handlers.NewEventsHandler(deps.AnalyticsService)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.With(authMW).Post("/verify-purchase", purchaseHandler.Verify)
	r.With(authMW).Get("/premium/status", premiumHandler.Status)
	r.With(authMW).Get("/premium/entitlements", premiumHandler.Entitlements)
	r.Post("/events/batch", eventsHandler.Batch)

	r.Route("/v1", func(r chi.Router) {
		r.With(authMW).Post("/verify-purchase", purchaseHandler.Verify)
		r.With(authMW).Get("/premium/status", premiumHandler.Status)
		r.With(authMW).Get("/premium/entitlements", premiumHandler.Entitlements)
		r.Post("/events/batch", eventsHandler.Batch)
	})
}
