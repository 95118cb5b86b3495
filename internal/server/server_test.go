package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/koungkub/fw-notification-relay/internal/correlation"
	"github.com/koungkub/fw-notification-relay/internal/handler"
	"github.com/koungkub/fw-notification-relay/internal/mailer"
	"github.com/koungkub/fw-notification-relay/internal/metrics"
	mockservice "github.com/koungkub/fw-notification-relay/internal/service/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*HTTPServer, *mockservice.MockNotificationProvider, *fxtest.Lifecycle) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockService := mockservice.NewMockNotificationProvider(ctrl)

	httpMetrics, err := metrics.NewHTTPServerCollector(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	lc := fxtest.NewLifecycle(t)
	srv := NewHTTP(lc, HTTPParams{
		Config: HTTPConfig{
			Port:              "127.0.0.1:0",
			AllowedOrigins:    []string{"*"},
			ReadHeaderTimeout: time.Second,
		},
		Handler: handler.NewNotificationHandler(handler.NotificationParams{
			Services: mockService,
			Logger:   zap.NewNop(),
		}),
		HTTPMetrics: httpMetrics,
		Logger:      zap.NewNop(),
	})
	return srv, mockService, lc
}

func TestHTTPServer_Healthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"server is running"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(correlation.HeaderCorrelationID))
}

func TestHTTPServer_Metrics(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPServer_CORS(t *testing.T) {
	tests := []struct {
		name               string
		method             string
		path               string
		headers            map[string]string
		body               string
		setupMocks         func(*mockservice.MockNotificationProvider)
		expectedStatusCode int
	}{
		{
			name:   "mail preflight is answered by the endpoint",
			method: http.MethodOptions,
			path:   "/send-mail",
			headers: map[string]string{
				"Origin":                         "https://app.example.com",
				"Access-Control-Request-Method":  http.MethodPost,
				"Access-Control-Request-Headers": "content-type",
			},
			expectedStatusCode: http.StatusOK,
		},
		{
			name:   "cross origin mail post",
			method: http.MethodPost,
			path:   "/send-mail",
			headers: map[string]string{
				"Origin":       "https://app.example.com",
				"Content-Type": "application/json",
			},
			body: `{"to":"user@example.com","subject":"Hi","text":"There"}`,
			setupMocks: func(m *mockservice.MockNotificationProvider) {
				m.EXPECT().SendMail(gomock.Any(), mailer.Message{
					To:      "user@example.com",
					Subject: "Hi",
					Text:    "There",
				}).Return(nil)
			},
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, mockService, _ := newTestServer(t)
			if tt.setupMocks != nil {
				tt.setupMocks(mockService)
			}

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatusCode, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestHTTPServer_UnknownRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/send-sms", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTPServer_Lifecycle(t *testing.T) {
	_, _, lc := newTestServer(t)

	lc.RequireStart()
	lc.RequireStop()
}

func TestNewConfig(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg := NewConfig()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.ReadHeaderTimeout)
}
