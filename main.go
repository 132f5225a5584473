package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travelstore/config"
	"travelstore/handlers"
	"travelstore/middleware"
	"travelstore/routes"
	"travelstore/services/api"
	"travelstore/services/booking"
	"travelstore/services/credentials"
	"travelstore/services/gate"
	"travelstore/services/promo"
	"travelstore/services/session"
	"travelstore/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Shared credential storage.
	probes := map[string]utils.HealthProbe{}
	var store credentials.Store
	switch cfg.CredentialStore {
	case "redis":
		client := utils.GetCredentialCacheClient()
		store = credentials.NewRedisStore(client, cfg.CredentialNamespace, logger.Named("credentials"))
		probes["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	case "memory", "":
		store = credentials.NewMemoryStore()
	default:
		logger.Sugar().Fatalf("main: unknown CREDENTIAL_STORE %q", cfg.CredentialStore)
	}
	probes["credentials"] = func(ctx context.Context) error {
		_, err := store.Load(ctx)
		return err
	}

	// Network layer.
	authSignal := api.NewAuthSignal()
	apiClient := api.NewClient(store, authSignal, api.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
		Limiter: rate.NewLimiter(rate.Limit(cfg.OutboundRPS), cfg.OutboundBurst),
		Logger:  logger.Named("api"),
	})

	// services.
	sessions := session.NewCache(apiClient, store, session.Options{
		Window:   cfg.SessionCheckWindow,
		Debounce: cfg.CredentialDebounce,
		Logger:   logger.Named("session"),
	})
	stopWatch, err := sessions.Watch(ctx)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to watch shared credentials: %v", err)
	}
	defer stopWatch()

	validator := promo.NewValidator(apiClient, logger.Named("promo"))
	orchestrator := booking.NewOrchestrator(sessions, validator, apiClient, authSignal, booking.Options{
		Logger: logger.Named("booking"),
	})
	sessions.RegisterCompartment(orchestrator)
	logger.Info("main: session compartments registered", zap.Strings("compartments", sessions.Compartments()))

	utils.StartHealthMonitor(ctx, time.Minute, probes)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger.Named("http")))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

	protectedAction := func(reason string) gin.HandlerFunc {
		return middleware.ProtectedAction(sessions, authSignal, gate.Options{
			Reason:    reason,
			LoginPath: cfg.LoginPath,
			Logger:    logger.Named("gate"),
		})
	}

	sessionHandler := handlers.NewSessionHandler(sessions, apiClient)
	draftHandler := handlers.NewDraftHandler(orchestrator)
	bookingHandler := handlers.NewBookingHandler(orchestrator)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		ProtectedAction: protectedAction,

		// Session endpoints.
		GetSessionHandler:     sessionHandler.GetSessionHandler,
		LoginHandler:          sessionHandler.LoginHandler,
		RegisterHandler:       sessionHandler.RegisterHandler,
		LogoutHandler:         sessionHandler.LogoutHandler,
		ForgotPasswordHandler: sessionHandler.ForgotPasswordHandler,
		ResetPasswordHandler:  sessionHandler.ResetPasswordHandler,
		UpdateProfileHandler:  sessionHandler.UpdateProfileHandler,

		// Draft endpoints.
		OpenDraftHandler:     draftHandler.OpenDraftHandler,
		GetDraftHandler:      draftHandler.GetDraftHandler,
		UpdateDraftHandler:   draftHandler.UpdateDraftHandler,
		ValidatePromoHandler: draftHandler.ValidatePromoHandler,
		CancelDraftHandler:   draftHandler.CancelDraftHandler,
		SubmitDraftHandler:   draftHandler.SubmitDraftHandler,

		// Booking history endpoints.
		ListBookingsHandler:  bookingHandler.ListBookingsHandler,
		GetBookingHandler:    bookingHandler.GetBookingHandler,
		CancelBookingHandler: bookingHandler.CancelBookingHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8090"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting storefront companion on %s (upstream %s, credentials in %s)...", srv.Addr, cfg.APIBaseURL, cfg.CredentialStore)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	stop()

	logger.Info("main: server stopped gracefully", zap.String("addr", srv.Addr))
	_ = logger.Sync()
}
