package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/application"
	"github.com/flowforge/auth-service/internal/interfaces/http/handlers"
	"github.com/flowforge/auth-service/internal/metrics"
)

// Router mounts every HTTP endpoint of the authorization server on chi.
type Router struct {
	router *chi.Mux
}

// NewRouter wires handlers over the provider facade.
func NewRouter(provider *application.Provider, logger *zap.Logger) *Router {
	oauth2Handler := handlers.NewOAuth2Handler(provider, logger)
	authorizeHandler := handlers.NewAuthorizeHandler(provider, logger)
	oidcHandler := handlers.NewOIDCHandler(provider, logger)
	clientHandler := handlers.NewClientHandler(provider, logger)

	router := createRouter()

	router.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Handle("/metrics", metrics.Handler())
	})

	router.Route("/oauth2", func(r chi.Router) {
		r.Get("/authorize", authorizeHandler.AuthorizeHandler)
		r.Post("/authorize/approve", authorizeHandler.ApproveHandler)
		r.Post("/token", oauth2Handler.TokenHandler)
		r.Post("/introspect", oauth2Handler.IntrospectHandler)
		r.Post("/revoke", oauth2Handler.RevokeHandler)
		r.Post("/device_authorization", oauth2Handler.DeviceAuthorizationHandler)
	})

	router.Post("/device", authorizeHandler.DeviceApprovalHandler)

	router.Get("/.well-known/openid-configuration", oidcHandler.DiscoveryHandler)
	router.Get("/.well-known/jwks.json", oidcHandler.JWKSHandler)

	router.Route("/admin", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Post("/", clientHandler.CreateClientHandler)
			r.Get("/", clientHandler.ListClientsHandler)
			r.Get("/{id}", clientHandler.GetClientHandler)
			r.Put("/{id}", clientHandler.UpdateClientHandler)
			r.Delete("/{id}", clientHandler.DeleteClientHandler)
		})
		r.Route("/scopes", func(r chi.Router) {
			r.Post("/", clientHandler.RegisterScopeHandler)
			r.Get("/", clientHandler.ListScopesHandler)
		})
		r.Get("/metrics", clientHandler.MetricsSnapshotHandler)
	})

	return &Router{router: router}
}

func createRouter() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)

	return router
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
