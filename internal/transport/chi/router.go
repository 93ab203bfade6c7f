package chi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/campusnav/internal/metrics"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	APIKeys []string
	// CORSOrigins lists browser origins allowed to call the API; "*" allows any.
	// Empty disables CORS headers.
	CORSOrigins []string
	Logger      *zap.Logger
	// Images serves stored image files under the path of ImagesPath when non-nil.
	// ImagesPath may be a bare path or an absolute URL.
	Images     http.Handler
	ImagesPath string
}

// NewRouter mounts the API on a chi router with the standard middleware stack.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{
				http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
				http.MethodPatch, http.MethodDelete, http.MethodOptions,
			},
			AllowedHeaders: []string{"Authorization", "Content-Type", "If-Match", "X-Request-Id"},
			ExposedHeaders: []string{"ETag", "X-Request-Id"},
			MaxAge:         300,
		}))
	}
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/buildings/search", s.SearchBuildings)
		r.Get("/buildings.geojson", s.ExportGeoJSON)
		r.Get("/buildings", s.ListBuildings)
		r.Post("/buildings", s.CreateBuilding)
		r.Route("/buildings/{ref}", func(r chi.Router) {
			r.Get("/", s.GetBuilding)
			r.Put("/", s.ReplaceBuilding)
			r.Patch("/", s.PatchBuilding)
			r.Delete("/", s.DeleteBuilding)
			r.Put("/image", s.UploadImage)
			r.Delete("/image", s.DeleteImage)
		})
	})

	if cfg.Images != nil {
		mount := cfg.ImagesPath
		if u, err := url.Parse(mount); err == nil {
			mount = u.Path
		}
		prefix := "/" + strings.Trim(mount, "/")
		if prefix == "/" {
			prefix = "/images"
		}
		r.Handle(prefix+"/*", http.StripPrefix(prefix, cfg.Images))
	}

	return r
}
