package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/httpx"
	"github.com/tansive/tansive-inventory/internal/common/logtrace"
	commonmiddleware "github.com/tansive/tansive-inventory/internal/common/middleware"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/apis"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/config"
	"github.com/tansive/tansive-inventory/pkg/api"
)

const ServerVersion = "Tansive Inventory Server: 0.1.0"

type InventoryServer struct {
	Router  *chi.Mux
	api     *apis.API
	metrics http.Handler
}

type Option func(*InventoryServer)

// WithMetricsHandler serves h on the configured metrics path.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *InventoryServer) {
		s.metrics = h
	}
}

func CreateNewServer(a *apis.API, opts ...Option) (*InventoryServer, error) {
	if a == nil {
		return nil, fmt.Errorf("server needs an api")
	}
	s := &InventoryServer{api: a}
	for _, opt := range opts {
		opt(s)
	}
	s.Router = chi.NewRouter()
	return s, nil
}

func (s *InventoryServer) MountHandlers() {
	cfg := config.Config()
	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	if cfg.HandleCORS {
		s.Router.Use(corsHandler(cfg.CORSAllowedOrigins))
	}
	s.Router.Route("/", s.mountResourceHandlers)
	if logtrace.IsTraceEnabled() {
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			log.Trace().Str("method", method).Str("route", route).Msg("route")
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			log.Error().Err(err).Msg("unable to walk routes")
		}
	}
}

func (s *InventoryServer) mountResourceHandlers(r chi.Router) {
	s.api.Router(r)
	r.Get("/version", s.getVersion)
	if s.metrics != nil && config.Config().Metrics.Enabled {
		r.Method(http.MethodGet, config.Config().Metrics.Path, s.metrics)
	}
}

func (s *InventoryServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &api.GetVersionRsp{
		ServerVersion: ServerVersion,
		ApiVersion:    api.ApiVersion_1_0,
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Content-Encoding", "Accept-Encoding", commonmiddleware.RequestIdHeader},
		ExposedHeaders: []string{"Location", commonmiddleware.RequestIdHeader},
		MaxAge:         300,
	})
}
