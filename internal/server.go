package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/intervaltimer/internal/config"
	"github.com/2beens/intervaltimer/internal/cues"
	"github.com/2beens/intervaltimer/internal/db"
	"github.com/2beens/intervaltimer/internal/history"
	"github.com/2beens/intervaltimer/internal/middleware"
	"github.com/2beens/intervaltimer/internal/presets"
	"github.com/2beens/intervaltimer/internal/session"
	"github.com/2beens/intervaltimer/internal/telemetry/metrics"
	"github.com/2beens/intervaltimer/internal/telemetry/tracing"
	"github.com/2beens/intervaltimer/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string
	adminTokenHash    string // guards preset writes

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	sessions       *session.Manager
	presetsService *presets.Service
	historyRepo    *history.Repo
	recorder       *history.Recorder
	publisher      *cues.Publisher
	webhook        *cues.Webhook

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	AdminTokenHash          string
	RedisPassword           string
	PostgresPassword        string
	HoneycombTracingEnabled bool
	MigrateDB               bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBPassword:     params.PostgresPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	} else if params.MigrateDB {
		if err := db.Migrate(ctx, dbPool); err != nil {
			return nil, err
		}
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("intervaltimer", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "intervaltimer", rdb)
	if err != nil {
		return nil, err
	}

	presetsService := presets.NewService(
		presets.NewRepo(dbPool),
		presets.NewCache(cfg.PresetCacheSizeMB, cfg.PresetCacheTTLSec),
		metricsManager,
	)

	historyRepo := history.NewRepo(dbPool)
	recorder := history.NewRecorder(historyRepo, cfg.HistoryQueueSize, metricsManager)

	publisher := cues.NewPublisher(rdb, cfg.CueChannelPrefix, cfg.CueSinkQueueSize, metricsManager)
	sinks := []cues.SinkFactory{
		cues.LogSink(log.StandardLogger()),
		cues.MetricsSink(metricsManager),
		publisher.Sink(),
		recorder.Sink(),
	}
	var webhook *cues.Webhook
	if cfg.CueWebhookURL != "" {
		log.Debugf("cue webhook: %s", cfg.CueWebhookURL)
		webhook = cues.NewWebhook(cfg.CueWebhookURL, nil, cfg.CueSinkQueueSize, metricsManager)
		sinks = append(sinks, webhook.Sink())
	}

	sessions := session.NewManager(session.Params{
		MaxSessions:  cfg.MaxSessions,
		TickInterval: cfg.TickInterval(),
		Presets:      presetsService,
		Sinks:        sinks,
		Metrics:      metricsManager,
	})

	return &Server{
		config:         cfg,
		dbPool:         dbPool,
		redisClient:    rdb,
		versionInfo:    params.VersionInfo,
		adminTokenHash: params.AdminTokenHash,

		sessions:       sessions,
		presetsService: presetsService,
		historyRepo:    historyRepo,
		recorder:       recorder,
		publisher:      publisher,
		webhook:        webhook,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("intervaltimer-router"))

	r.HandleFunc("/", s.handleRoot).Methods("GET").Name("root")
	r.HandleFunc("/health", s.handleHealth).Methods("GET").Name("health")

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	createLimiter := middleware.RateLimit(
		reqRateLimiter,
		"new-timer",
		s.config.CreateTimerRatePerMin,
		s.metricsManager,
	)
	session.NewHandler(s.sessions).SetupRoutes(r, createLimiter)

	presets.NewHandler(s.presetsService).SetupRoutes(r, middleware.AdminToken(s.adminTokenHash))
	history.NewHandler(s.historyRepo).SetupRoutes(r)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "intervaltimer ready, see /timers and /presets")
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, healthResponse{
		Status:   "ok",
		Version:  s.versionInfo,
		Sessions: s.sessions.Len(),
	}, http.StatusOK)
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

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

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop tickers first, cue streams end with their sessions
	s.sessions.Close()
	log.Trace("timer sessions stopped ...")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	// flush queued workout events before the db pool goes away
	s.recorder.Close()
	log.Trace("history recorder drained ...")

	if s.webhook != nil {
		s.webhook.Close()
		log.Trace("cue webhook drained ...")
	}

	// published cues need the redis client
	if s.publisher != nil {
		s.publisher.Close()
		log.Trace("cue publisher drained ...")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

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

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
