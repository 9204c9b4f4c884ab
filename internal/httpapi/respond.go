package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"careshare/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Agent tool responses are 200 envelopes unless a route says otherwise.

func agentOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func agentFail(c *gin.Context, status int, code, message string, details any) {
	body := gin.H{"code": code, "message": message}
	if details != nil {
		body["details"] = details
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": body})
}

// agentError writes err as a 200 envelope. Internal errors are logged.
func agentError(c *gin.Context, err error) {
	e := resolveError(err)
	if e.Code == CodeInternal || e.Code == CodeUpstreamError {
		_ = c.Error(err)
		logger.FromGin(c).Error("agent request failed", "code", e.Code, "err", err)
	}
	agentFail(c, http.StatusOK, e.Code, e.Message, e.Details)
}

// uiError writes err with its conventional status and an {error} body.
func uiError(c *gin.Context, err error) {
	e := resolveError(err)
	if e.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(e.Status, gin.H{"error": "Internal error"})
		return
	}
	body := gin.H{"error": e.Message}
	if e.Details != nil {
		body["details"] = e.Details
	}
	c.AbortWithStatusJSON(e.Status, body)
}

// denyAgent keeps the envelope shape for auth failures on agent routes.
func denyAgent(c *gin.Context, status int, msg string) {
	code := CodeUnauthorized
	if status == http.StatusForbidden {
		code = CodeForbidden
	}
	agentFail(c, status, code, msg, nil)
}

// pathID parses a positive integer route parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isAgentPath(path string) bool {
	return strings.HasPrefix(path, "/api/agent/")
}

// NotFound is the NoRoute handler. Agent paths keep the envelope shape.
func NotFound(c *gin.Context) {
	path := c.Request.URL.RequestURI()
	if isAgentPath(c.Request.URL.Path) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{
			"code": CodeNotFound, "message": "Route not found", "path": path,
		}})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "path": path})
}

// PanicResponse is the fallback body written by logger.Recovery.
func PanicResponse(c *gin.Context, _ any) {
	if isAgentPath(c.Request.URL.Path) {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": gin.H{
			"code": CodeUnhandled, "message": "Unhandled error",
		}})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
}
