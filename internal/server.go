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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/prtracker/internal/auth"
	"github.com/2beens/prtracker/internal/config"
	"github.com/2beens/prtracker/internal/db"
	"github.com/2beens/prtracker/internal/lifts/friends"
	"github.com/2beens/prtracker/internal/lifts/notifications"
	"github.com/2beens/prtracker/internal/lifts/profiles"
	"github.com/2beens/prtracker/internal/lifts/records"
	"github.com/2beens/prtracker/internal/lifts/stats"
	"github.com/2beens/prtracker/internal/middleware"
	"github.com/2beens/prtracker/internal/telemetry/metrics"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
	"github.com/2beens/prtracker/pkg"
)

const sessionsCleanupInterval = time.Hour

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool
	// what the repos use; the pool itself outside of tests
	db db.Conn

	redisClient      *redis.Client
	loginChecker     *auth.LoginChecker
	authService      *auth.Service
	notificationsHub *notifications.Hub

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	DBPassword              string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		DBUser:         params.Config.PostgresUser,
		DBPassword:     params.DBPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	if params.Config.ApplySchemaOnStart {
		if err := db.ApplySchema(ctx, dbPool); err != nil {
			return nil, err
		}
		log.Debugln("db schema applied")
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("prtracker", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
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
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "prtracker-backend", rdb)
	if err != nil {
		return nil, err
	}

	s := newServer(params.Config, dbPool, rdb, metricsManager)
	s.dbPool = dbPool
	s.versionInfo = params.VersionInfo
	s.promRegistry = promRegistry
	s.otelShutdown = otelShutdown

	go s.cleanSessions(ctx)

	return s, nil
}

// newServer wires the domain services on top of already connected stores.
func newServer(
	cfg *config.Config,
	conn db.Conn,
	rdb *redis.Client,
	metricsManager *metrics.Manager,
) *Server {
	ttl := cfg.SessionTTL()
	authService := auth.NewAuthService(auth.NewAccountsRepo(conn), ttl, rdb)
	authService.OnSessionChange(func(event auth.SessionEvent) {
		log.Debugf("session %s: user %s", event.Type, event.UserID)
		metricsManager.CounterSessionEvents.WithLabelValues(string(event.Type)).Inc()
	})

	return &Server{
		config:           cfg,
		db:               conn,
		redisClient:      rdb,
		authService:      authService,
		loginChecker:     auth.NewLoginChecker(ttl, rdb),
		notificationsHub: notifications.NewHub(metricsManager),
		metricsManager:   metricsManager,
		otelShutdown:     func() {},
	}
}

func (s *Server) cleanSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionsCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.authService.ScanAndClean(ctx, now)
		}
	}
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)

	r.HandleFunc("/", s.handleRoot).Methods("GET", "OPTIONS").Name("root")

	authHandler := auth.NewHandler(s.authService)
	authRouter := authHandler.SetupRoutes(r)
	authRouter.Use(middleware.RateLimit(reqRateLimiter, "auth", s.config.LoginRateLimitAllowedPerMin, s.metricsManager))

	recordsRepo := records.NewRepo(s.db)
	profilesRepo := profiles.NewRepo(s.db)
	notificationsRepo := notifications.NewRepo(s.db)

	records.NewHandler(
		records.NewService(recordsRepo, s.metricsManager),
	).SetupRoutes(r)

	profiles.NewHandler(
		profiles.NewService(profilesRepo, s.metricsManager),
	).SetupRoutes(r)

	notificationsService := notifications.NewService(notificationsRepo, s.notificationsHub, s.metricsManager)
	notifications.NewHandler(notificationsService).SetupRoutes(r)

	friends.NewHandler(
		friends.NewService(
			friends.NewRepo(s.db, notificationsRepo),
			profilesRepo,
			notificationsService,
			s.metricsManager,
		),
	).SetupRoutes(r, middleware.RateLimit(reqRateLimiter, "friends-add", s.config.FriendAddRateLimitAllowedPerMin, s.metricsManager))

	stats.NewHandler(
		stats.NewService(profilesRepo, recordsRepo, s.config.GlobalAveragesCacheTTL()),
	).SetupRoutes(r)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.RequestID())
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	if s.versionInfo == "" {
		pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
		return
	}
	pkg.WriteTextResponseOK(w, fmt.Sprintf("I'm OK, thanks ;) version: %s", s.versionInfo))
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
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

	// live notification streams are hijacked connections, http.Server.Shutdown does not wait for them
	s.notificationsHub.Close()
	log.Trace("notification streams closed ...")

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
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
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed, http.StateHijacked:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
