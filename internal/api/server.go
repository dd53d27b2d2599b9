// Package api serves the HTTP API over Huma v2 with the Go 1.22+
// native router.
package api

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/v4lfind/v4lfind/internal/api/models"
	"github.com/v4lfind/v4lfind/internal/discovery"
	"github.com/v4lfind/v4lfind/internal/events"
	"github.com/v4lfind/v4lfind/internal/logging"
	"github.com/v4lfind/v4lfind/internal/updater"
	"github.com/v4lfind/v4lfind/internal/version"
)

// Options configures the API server.
type Options struct {
	AuthUsername      string
	AuthPassword      string
	Discovery         *discovery.Service
	EventBus          *events.Bus
	PrometheusHandler http.Handler    // Optional Prometheus metrics handler
	DeviceRoot        string          // Directory holding the device nodes, defaults to /dev
	UpdateService     updater.Service // Optional self-update service
}

// Server is the Huma v2 API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	discovery  *discovery.Service
	eventBus   *events.Bus
	options    *Options
	logger     *slog.Logger
}

// basicAuthMiddleware guards every operation that declares a security
// requirement. Credentials come from the Authorization header or, for
// SSE clients that cannot set headers, base64 in an auth query
// parameter.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	reject := func(ctx huma.Context, msg string, errs ...error) {
		ctx.SetHeader("WWW-Authenticate", `Basic realm="v4lfind API"`)
		huma.WriteErr(s.api, ctx, http.StatusUnauthorized, msg, errs...)
	}

	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		var encoded string
		if header := ctx.Header("Authorization"); header != "" {
			const prefix = "Basic "
			if !strings.HasPrefix(header, prefix) {
				reject(ctx, "Invalid authentication type")
				return
			}
			encoded = header[len(prefix):]
		} else {
			encoded = ctx.Query("auth")
		}
		if encoded == "" {
			reject(ctx, "Authentication required")
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			reject(ctx, "Invalid credentials format", err)
			return
		}
		user, pass, found := strings.Cut(string(decoded), ":")
		if !found {
			reject(ctx, "Invalid credentials format")
			return
		}
		if user != username || pass != password {
			reject(ctx, "Invalid credentials")
			return
		}

		next(ctx)
	}
}

// NewServer creates an API server with Huma v2 on the standard library
// router.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	registerPreflight(mux)

	config := huma.DefaultConfig("v4lfind API", version.Get().Version)
	config.Info.Description = "V4L2 device discovery and media controller correlation API"
	// No servers entry, so the OpenAPI document uses relative paths and
	// works behind any host or proxy.
	config.Servers = []*huma.Server{}

	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api:       api,
		mux:       mux,
		discovery: opts.Discovery,
		eventBus:  opts.EventBus,
		options:   opts,
		logger:    logging.GetLogger("api"),
	}

	// CORS first, then request logging, then auth.
	api.UseMiddleware(corsMiddleware)
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	// Prometheus endpoint stays outside the Huma API so it is never
	// behind auth or CORS middleware.
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	return server
}

// GetMux exposes the ServeMux so callers can hang extra handlers off it.
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI exposes the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start starts the HTTP server on the specified address.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting v4lfind API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	return s.httpServer.ListenAndServe()
}

// Stop shuts down the server without waiting for open connections.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	if s.httpServer != nil {
		return s.httpServer.Close()
	}

	return nil
}

func (s *Server) registerRoutes() {
	// Health and version carry an empty security list so monitoring can
	// reach them without credentials.
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				Commit:    info.Commit,
				BuildDate: info.BuildDate,
				GoVersion: info.GoVersion,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerDeviceRoutes()
	s.registerUpdateRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
}

// withAuth is the security requirement attached to protected routes.
func withAuth() []map[string][]string {
	return []map[string][]string{{"basicAuth": {}}}
}
