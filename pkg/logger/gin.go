package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-Id"

	ctxKeyLogger    = "logger"
	ctxKeyRequestID = "request_id"

	bodyPreviewLimit = 4000
)

// Middleware assigns a request id, attaches a request-scoped logger to both
// the gin context and the request context, and logs one summary per request.
// Non-GET bodies are previewed at debug level.
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(HeaderRequestID, rid)

		reqLogger := l.With("request_id", rid)
		c.Set(ctxKeyLogger, reqLogger)
		c.Set(ctxKeyRequestID, rid)
		ctx := WithRequestID(With(c.Request.Context(), reqLogger), rid)
		c.Request = c.Request.WithContext(ctx)

		if c.Request.Method != http.MethodGet && reqLogger.Enabled(c.Request.Context(), slog.LevelDebug) {
			if preview, ok := peekBody(c.Request); ok {
				reqLogger.Debug("request body", "method", c.Request.Method, "path", c.Request.URL.Path, "body", preview)
			}
		}

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", float64(time.Since(start).Milliseconds()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
			reqLogger.Error("request", attrs...)
			return
		}
		reqLogger.Info("request", attrs...)
	}
}

// Recovery converts a handler panic into a response written by onPanic.
// The panic value and stack are logged with the request id.
func Recovery(onPanic func(c *gin.Context, recovered any)) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				FromGin(c).Error("panic recovered",
					"panic", rec,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				if c.Writer.Written() {
					c.Abort()
					return
				}
				onPanic(c, rec)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// FromGin pulls the request-scoped logger from Gin context.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ctxKeyLogger); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// RequestID returns the id assigned by Middleware, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}

type requestIDKey struct{}

// WithRequestID stores a request id in ctx for layers below HTTP.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestIDFrom returns the request id stored by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey{}).(string)
	return s
}

func peekBody(r *http.Request) (string, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", false
	}
	raw, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return "", false
	}
	if len(raw) > bodyPreviewLimit {
		return string(raw[:bodyPreviewLimit]) + "…", true
	}
	return string(raw), true
}
