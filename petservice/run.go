package petservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/reunipet/reunipet/internal/api"
	"github.com/reunipet/reunipet/internal/api/recovery"
	"github.com/reunipet/reunipet/internal/auth"
	"github.com/reunipet/reunipet/internal/biometric"
	"github.com/reunipet/reunipet/internal/biometric/rekognition"
	"github.com/reunipet/reunipet/internal/config"
	"github.com/reunipet/reunipet/internal/factory"
	"github.com/reunipet/reunipet/internal/geo"
	"github.com/reunipet/reunipet/internal/health"
	"github.com/reunipet/reunipet/internal/logger"
	"github.com/reunipet/reunipet/internal/media"
	"github.com/reunipet/reunipet/internal/notify"
	"github.com/reunipet/reunipet/internal/pipeline"
	"github.com/reunipet/reunipet/internal/store"
	"github.com/reunipet/reunipet/internal/sweeper"
	"github.com/reunipet/reunipet/internal/vision"
)

// Run starts the pet service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("reunipet-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("lost_collection", cfg.LostCollectionID).
		Str("found_collection", cfg.FoundCollectionID).
		Msg("Pet service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	// Initialize dependencies
	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Background workers: matching pipeline and retention sweeper
	go func() { _ = deps.pipeline.Run(ctx) }()
	go func() { _ = deps.sweeper.Run(ctx) }()

	// Build router
	router := buildRouter(deps, cfg)

	// Start health checkers and bind service health
	svcHealth := startHealthCheckers(ctx, cfg, log, deps)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	// HTTP server and serve
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// dependencies holds the wired components the router and workers share.
type dependencies struct {
	store      store.Store
	biometric  *rekognition.Client
	vision     *vision.Service
	media      media.Store
	dispatcher *notify.Dispatcher
	pipeline   *pipeline.Worker
	sweeper    *sweeper.Sweeper
	verifier   auth.Verifier
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, err
	}

	bio, err := factory.NewBiometricIndex(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Biometric index unavailable")
		return nil, err
	}

	mediaStore, err := factory.NewMediaStore(ctx, cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Media store unavailable")
		return nil, err
	}

	app, err := factory.NewFirebaseApp(ctx, cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Firebase app unavailable")
		return nil, err
	}
	verifier, err := factory.NewVerifier(ctx, app)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Token verifier unavailable")
		return nil, err
	}
	pusher, err := factory.NewPusher(ctx, app)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Push client unavailable")
		return nil, err
	}

	mailer := notify.NewSendgridMailer(cfg.SendgridAPIKey, cfg.SenderEmail)
	dispatcher := notify.NewDispatcher(st, mailer, pusher)

	analyzer := pipeline.NewAnalyzer(st, bio, dispatcher, cfg.LostCollectionID, cfg.FoundCollectionID, cfg.SimilarityThreshold)
	worker := pipeline.NewWorker(analyzer, pipeline.Config{
		Workers:   cfg.PipelineWorkers,
		QueueSize: cfg.PipelineQueueSize,
	}, log)

	sw := sweeper.New(st, mediaStore, sweeper.Config{
		MaxAge:   time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		Interval: time.Duration(cfg.SweepIntervalHours) * time.Hour,
	}, log)

	return &dependencies{
		store:      st,
		biometric:  bio,
		vision:     vision.NewService(bio),
		media:      mediaStore,
		dispatcher: dispatcher,
		pipeline:   worker,
		sweeper:    sw,
		verifier:   verifier,
	}, nil
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(deps *dependencies, cfg *config.Config) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	var fence *geo.Fence
	if cfg.GeofenceEnabled {
		fence = &geo.Fence{Lat: cfg.GeofenceLat, Lon: cfg.GeofenceLon, RadiusKM: cfg.GeofenceRadiusKM}
	}

	requireAuth := auth.Middleware(deps.verifier)

	// Pets
	pets := api.NewPetHandler(deps.store, deps.vision, deps.media, deps.dispatcher, deps.pipeline, fence)
	root.Handle("/api/pets", requireAuth(http.HandlerFunc(pets.CreatePet))).Methods("POST")
	root.HandleFunc("/api/pets", pets.ListPets).Methods("GET")
	root.Handle("/api/pets/{petId}", requireAuth(http.HandlerFunc(pets.DeletePet))).Methods("DELETE")
	root.Handle("/api/pets/{petId}/notify", requireAuth(http.HandlerFunc(pets.NotifyOwner))).Methods("POST")
	root.HandleFunc("/api/pets/filter-by-image", pets.FilterByImage).Methods("POST")

	// User profiles
	users := api.NewUserHandler(deps.store)
	root.Handle("/api/users/profile", requireAuth(http.HandlerFunc(users.CreateProfile))).Methods("POST")
	root.Handle("/api/users/profile", requireAuth(http.HandlerFunc(users.UpdateProfile))).Methods("PUT")

	// Health
	healthHandler := api.NewHealthHandler()
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return root
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, deps *dependencies) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewHealthChecker(deps.store, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	bioChecker := biometric.NewIndexHealthChecker(deps.biometric, cfg.LostCollectionID, log, probeTimeout)
	go bioChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker, bioChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Health checkers start as unhealthy and need time to run their first probe
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
