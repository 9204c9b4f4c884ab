package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"careshare/internal/telephony"
	"careshare/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewEngine builds the gin engine: request logging and panic recovery
// first, then mw, then the JSON 404 for unmatched routes.
func NewEngine(log *slog.Logger, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.RemoveExtraSlash = true
	r.Use(logger.Middleware(log), logger.Recovery(PanicResponse))
	r.Use(mw...)
	r.NoRoute(NotFound)
	return r
}

// CORS allows the listed origins. Requests without an Origin header pass
// through untouched.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization",
			logger.HeaderRequestID, telephony.SignatureHeader,
		},
		ExposeHeaders:    []string{logger.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
