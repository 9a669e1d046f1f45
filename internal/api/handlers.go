package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Resolver returns the redirect chain of a seed URL. It never fails.
type Resolver interface {
	Resolve(ctx context.Context, seed string) []string
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Code: code, Message: message}})
}

// Handlers serves the API routes.
type Handlers struct {
	resolver Resolver
}

// NewHandlers creates handlers backed by resolver.
func NewHandlers(resolver Resolver) *Handlers {
	return &Handlers{resolver: resolver}
}

type chainQuery struct {
	URL string `form:"url" binding:"required"`
}

// RedirectionChain lists the redirection chain urls of ?url=.
func (h *Handlers) RedirectionChain(c *gin.Context) {
	var q chainQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", `query parameter "url" is required`)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.resolver.Resolve(c.Request.Context(), q.URL)})
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Swagger serves the OpenAPI document.
func (h *Handlers) Swagger(c *gin.Context) {
	c.JSON(http.StatusOK, swaggerDoc)
}

// NotFound answers unknown routes.
func (h *Handlers) NotFound(c *gin.Context) {
	abortWithError(c, http.StatusNotFound, "not_found", "no route for "+c.Request.Method+" "+c.Request.URL.Path)
}
