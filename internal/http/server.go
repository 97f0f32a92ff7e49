package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"digimart/internal/cache"
	applog "digimart/internal/log"
	"digimart/internal/middleware/ratelimit"
	"digimart/internal/middleware/security"
	"digimart/internal/middleware/trace"
	"digimart/internal/report"
	appweb "digimart/web"
)

// Options tunes the server. Zero values pick the defaults.
type Options struct {
	RequestTimeout       time.Duration
	APIRequestsPerMinute int
	CacheCleanupInterval time.Duration
	TrustedProxies       []string
	Logger               *applog.Logger
}

const (
	defaultRequestTimeout = 10 * time.Second
	defaultCleanup        = 10 * time.Minute
	staticMaxAge          = 3600
)

// Server serves the dashboard for one loaded dataset.
type Server struct {
	http.Server
	templates *template.Template
	svc       *report.Service
	timeout   time.Duration
	started   time.Time

	logger   *applog.Logger
	events   *applog.StructuredLogger
	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	caches   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run server.
func NewServer(addr string, svc *report.Service, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.CacheCleanupInterval <= 0 {
		opts.CacheCleanupInterval = defaultCleanup
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		svc:      svc,
		timeout:  opts.RequestTimeout,
		started:  time.Now(),
		logger:   logger,
		events:   applog.NewStructuredLogger(logger),
		detector: security.NewDetector(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.APIRequestsPerMinute,
		}),
		caches: cache.NewManager(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	if c := svc.Cache(); c != nil {
		s.caches.Register(c)
		s.caches.StartCleanup(opts.CacheCleanupInterval)
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// UI partials
	mux.HandleFunc("/ui/report", s.handleReport)
	mux.HandleFunc("/ui/summary", s.handlePartial("summary"))
	mux.HandleFunc("/ui/payment-types", s.handlePartial("payment_types"))
	mux.HandleFunc("/ui/monthly", s.handlePartial("monthly"))
	mux.HandleFunc("/ui/delivery-time", s.handlePartial("delivery_time"))

	// JSON API, rate limited per client
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, s.rejectLimited)
	api := applog.ComponentMiddleware(applog.ComponentAPI)
	mux.Handle("/api/report", api(limit(http.HandlerFunc(s.handleAPIReport))))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) rejectLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, apiError{Error: "rate limit exceeded, retry later"})
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
