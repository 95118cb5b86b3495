package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kelseyhightower/envconfig"
	"github.com/koungkub/fw-notification-relay/internal/handler"
	"github.com/koungkub/fw-notification-relay/internal/metrics"
	"github.com/rs/cors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http_server",
	fx.Provide(
		NewHTTP,
		NewConfig,
	),
)

type HTTPParams struct {
	fx.In

	Config      HTTPConfig
	Handler     *handler.Notification
	HTTPMetrics *metrics.HTTPServerCollector
	Logger      *zap.Logger
}

type HTTPServer struct {
	router *gin.Engine
	srv    *http.Server

	handler     *handler.Notification
	httpMetrics *metrics.HTTPServerCollector
	logger      *zap.Logger
}

func NewHTTP(lc fx.Lifecycle, params HTTPParams) *HTTPServer {
	router := gin.New()
	router.Use(gin.Recovery())

	httpServer := &HTTPServer{
		router: router,
		srv: &http.Server{
			Addr:              params.Config.Port,
			Handler:           withCORS(router, params.Config.AllowedOrigins),
			ReadHeaderTimeout: params.Config.ReadHeaderTimeout,
		},
		httpMetrics: params.HTTPMetrics,
		handler:     params.Handler,
		logger:      params.Logger,
	}

	httpServer.setupRoutes()

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", httpServer.srv.Addr)
			if err != nil {
				return err
			}
			httpServer.logger.Info("starting http server", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := httpServer.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					httpServer.logger.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			httpServer.logger.Info("stopping http server")
			return httpServer.srv.Shutdown(ctx)
		},
	})

	return httpServer
}

// Handler returns the fully wrapped handler the server listens with.
func (h *HTTPServer) Handler() http.Handler {
	return h.srv.Handler
}

// withCORS answers cross-origin requests for the relay endpoints. Preflight
// requests still reach the router so each endpoint decides its own OPTIONS
// response.
func withCORS(next http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:     []string{"Content-Type"},
		OptionsPassthrough: true,
	}).Handler(next)
}

type HTTPConfig struct {
	Port              string        `envconfig:"HTTP_SERVER_PORT" default:":8080"`
	AllowedOrigins    []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	ReadHeaderTimeout time.Duration `envconfig:"HTTP_SERVER_READ_HEADER_TIMEOUT" default:"10s"`
}

func NewConfig() HTTPConfig {
	var cfg HTTPConfig
	envconfig.MustProcess("", &cfg)

	return cfg
}
