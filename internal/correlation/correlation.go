package correlation

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted from proxies that do not set X-Correlation-ID.
	HeaderRequestID = "X-Request-ID"

	maxIDLength = 128
)

type contextKey struct{}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// ID returns the correlation id carried by ctx, or "" when there is none.
func ID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

func Field(ctx context.Context) zap.Field {
	return zap.String("correlation_id", ID(ctx))
}

func normalize(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	v = strings.TrimSpace(v)
	if len(v) <= maxIDLength {
		return v
	}

	// cut on a rune boundary
	n := maxIDLength
	for n > 0 && !utf8.RuneStart(v[n]) {
		n--
	}
	return v[:n]
}

func generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Middleware reuses an inbound correlation id or mints one, echoes it back
// and stores it in the request context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := normalize(c.GetHeader(HeaderCorrelationID))
		if id == "" {
			id = normalize(c.GetHeader(HeaderRequestID))
		}
		if id == "" {
			id = generate()
		}

		c.Header(HeaderCorrelationID, id)
		c.Request = c.Request.WithContext(WithID(c.Request.Context(), id))

		c.Next()
	}
}
