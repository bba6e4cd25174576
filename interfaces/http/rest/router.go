package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/services"
	"github.com/whikwon/nexusnote/interfaces/http/rest/handlers"
	"github.com/whikwon/nexusnote/interfaces/http/rest/middleware"
	"github.com/whikwon/nexusnote/pkg/auth"
	"github.com/whikwon/nexusnote/pkg/common"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
	"github.com/whikwon/nexusnote/pkg/observability"
)

// Options selects the optional layers of the router
type Options struct {
	ServiceName    string
	MaxUploadBytes int64
	EnableCORS     bool
	EnableTracing  bool
	Debug          bool
}

// Router creates and configures the HTTP router
type Router struct {
	documents   *services.DocumentService
	annotations *services.AnnotationService
	concepts    *services.ConceptService
	links       *services.LinkService
	validator   *auth.JWTValidator
	limiter     *auth.IPRateLimiter
	collector   *observability.Collector
	options     Options
	logger      *zap.Logger
}

// NewRouter creates a new router instance. validator, limiter and collector may be nil.
func NewRouter(
	documents *services.DocumentService,
	annotations *services.AnnotationService,
	concepts *services.ConceptService,
	links *services.LinkService,
	validator *auth.JWTValidator,
	limiter *auth.IPRateLimiter,
	collector *observability.Collector,
	options Options,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.ServiceName == "" {
		options.ServiceName = "nexusnote"
	}
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = 100 << 20
	}
	return &Router{
		documents:   documents,
		annotations: annotations,
		concepts:    concepts,
		links:       links,
		validator:   validator,
		limiter:     limiter,
		collector:   collector,
		options:     options,
		logger:      logger,
	}
}

// Setup configures all routes and middleware, wrapped in an X-Ray segment when tracing is on
func (rt *Router) Setup() http.Handler {
	router := rt.Mux()
	if rt.options.EnableTracing {
		return xray.Handler(xray.NewFixedSegmentNamer(rt.options.ServiceName), router)
	}
	return router
}

// Mux builds the bare chi router. Lambda owns its own trace segment and uses this directly.
func (rt *Router) Mux() *chi.Mux {
	errs := pkgerrors.NewErrorHandler(rt.logger, rt.options.Debug)
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errs.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.collector != nil {
		router.Use(rt.collector.Middleware)
	}
	if rt.options.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errs.HandleStatus(w, r, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errs.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	documents := handlers.NewDocumentHandler(rt.documents, rt.options.MaxUploadBytes, errs, rt.logger)
	annotations := handlers.NewAnnotationHandler(rt.annotations, errs, rt.logger)
	concepts := handlers.NewConceptHandler(rt.concepts, rt.links, errs, rt.logger)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(rt.limiter, errs))
		r.Use(middleware.Authenticate(rt.validator, errs, rt.logger))

		r.Route("/document", func(r chi.Router) {
			r.Get("/list", documents.List)
			r.Post("/upload", documents.Upload)
			r.Post("/delete", documents.Delete)
			r.Post("/update", documents.Rename)
			r.Get("/{documentID}", documents.Content)
			r.Get("/{documentID}/metadata", documents.Metadata)
		})

		r.Route("/annotation", func(r chi.Router) {
			r.Post("/create", annotations.Create)
			r.Post("/update", annotations.Update)
			r.Post("/delete", annotations.Delete)
		})

		r.Route("/concept", func(r chi.Router) {
			r.Get("/all", concepts.List)
			r.Post("/create", concepts.Create)
			r.Post("/update", concepts.Update)
			r.Post("/delete", concepts.Delete)
		})

		r.Route("/link", func(r chi.Router) {
			r.Post("/create", concepts.CreateLink)
			r.Post("/delete", concepts.DeleteLink)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	_ = common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck lists documents to prove the repositories answer
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	if _, err := rt.documents.List(ctx); err != nil {
		rt.logger.Warn("Readiness check failed", zap.Error(err))
		_ = common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "detail": "Storage is not reachable"})
		return
	}
	_ = common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
