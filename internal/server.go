package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/2beens/dailyfit/internal/config"
	"github.com/2beens/dailyfit/internal/middleware"
	"github.com/2beens/dailyfit/internal/telemetry/metrics"
	"github.com/2beens/dailyfit/internal/telemetry/tracing"
	"github.com/2beens/dailyfit/internal/tracker"
	"github.com/2beens/dailyfit/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config       *config.Config
	storage      *Storage
	store        *tracker.Store
	apiTokenHash string

	// background work (initial load, day rollover)
	stopBackground context.CancelFunc
	backgroundWG   sync.WaitGroup

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	PostgresUser            string
	PostgresPassword        string
	APITokenHash            string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	storage, err := OpenStorage(ctx, OpenStorageParams{
		Config:           params.Config,
		RedisPassword:    params.RedisPassword,
		PostgresUser:     params.PostgresUser,
		PostgresPassword: params.PostgresPassword,
		TracingEnabled:   params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	promRegistry := metrics.SetupPrometheus(storage.Collectors()...)
	metricsManager := metrics.NewManager("dailyfit", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "dailyfit", storage.RedisClient)
	if err != nil {
		storage.Close()
		return nil, err
	}

	if params.APITokenHash == "" {
		log.Warnln("no api token hash set, mutating tracker routes are not protected")
	}

	loc := params.Config.Location()
	store := tracker.NewStore(tracker.NewStoreParams{
		KV:         storage.KV,
		StorageKey: params.Config.StorageKey,
		Clock: func() time.Time {
			return time.Now().In(loc)
		},
		Metrics: metricsManager,
	})

	return &Server{
		config:       params.Config,
		storage:      storage,
		store:        store,
		apiTokenHash: params.APITokenHash,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("dailyfit-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "dailyfit")
	}).Methods("GET").Name("root")

	trackerHandler := tracker.NewHandler(s.store)
	r.HandleFunc("/health", trackerHandler.HandleHealth).Methods("GET", "OPTIONS").Name("health")
	r.HandleFunc("/tracker", trackerHandler.HandleGetState).Methods("GET", "OPTIONS").Name("tracker-state")
	r.HandleFunc("/tracker/exercises/{id}/toggle", trackerHandler.HandleToggle).Methods("POST", "OPTIONS").Name("toggle-exercise")
	r.HandleFunc("/tracker/reset", trackerHandler.HandleReset).Methods("POST", "OPTIONS").Name("reset-daily")
	r.HandleFunc("/tracker/history", trackerHandler.HandleHistory).Methods("GET", "OPTIONS").Name("tracker-history")
	r.HandleFunc("/tracker/stats", trackerHandler.HandleStats).Methods("GET", "OPTIONS").Name("tracker-stats")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.apiTokenHash)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	if s.storage.RedisClient != nil && s.config.MutationRateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(
			redis_rate.NewLimiter(s.storage.RedisClient),
			"tracker-mutations",
			s.config.MutationRateLimitPerMin,
			s.metricsManager,
		))
	}
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	bgCtx, cancel := context.WithCancel(ctx)
	s.stopBackground = cancel
	s.backgroundWG.Add(1)
	go func() {
		defer s.backgroundWG.Done()
		// the api answers with loading=true until this is done
		s.store.Load(bgCtx)
		log.Infoln("tracker state loaded")
		s.rolloverLoop(bgCtx, s.config.RolloverCheckInterval())
	}()

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

// rolloverLoop clears the completion flags when the process runs past midnight.
func (s *Server) rolloverLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.store.Rollover() {
				log.Infoln("tracker rolled over to a new day")
			}
		}
	}
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.stopBackground != nil {
		s.stopBackground()
		s.backgroundWG.Wait()
	}

	// writes the last snapshot, if one is still pending
	s.store.Close()
	log.Debugln("tracker store closed")

	s.otelShutdown()
	log.Trace("otel shut down ...")

	s.storage.Close()

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}
