package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mdshare/mdshare/backend/go-services/internal/document"
	"github.com/mdshare/mdshare/backend/go-services/internal/document/service"
	"github.com/mdshare/mdshare/backend/go-services/internal/models"
	"github.com/mdshare/mdshare/backend/go-services/pkg/logger"
	"github.com/mdshare/mdshare/backend/go-services/pkg/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Handler exposes the document service over HTTP. Routes expect
// middleware.AuthMiddleware to have run.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the document, comment and user routes on an authenticated group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	docs.GET("", h.list)
	docs.POST("", h.create)

	doc := docs.Group("/:id", objectIDParam("id"))
	doc.GET("", h.get)
	doc.PUT("", h.update)
	doc.DELETE("", h.delete)
	doc.POST("/share", h.share)
	doc.DELETE("/share/:userId", h.unshare)
	doc.GET("/preview", h.preview)
	doc.POST("/export", h.export)

	comments := rg.Group("/comments/:documentId", objectIDParam("documentId"))
	comments.GET("", h.listComments)
	comments.POST("", h.createComment)
	comments.PUT("", h.updateComment)
	comments.DELETE("", h.deleteComment)

	rg.GET("/users", h.lookupUser)
}

// objectIDParam rejects ids that cannot name a stored record.
func objectIDParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !primitive.IsValidObjectID(c.Param(name)) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Next()
	}
}

func caller(c *gin.Context) (models.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	}
	return p, ok
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return false
	}
	return true
}

// statusFor maps service errors to HTTP status. forbidden is the status used
// for ErrForbidden, which differs between routes.
func statusFor(err error, forbidden int) int {
	switch {
	case errors.Is(err, document.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrForbidden):
		return forbidden
	case errors.Is(err, document.ErrPolicyViolation):
		return http.StatusForbidden
	case errors.Is(err, document.ErrExportUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error, forbidden int) {
	status := statusFor(err, forbidden)
	body := gin.H{"error": err.Error()}
	switch status {
	case http.StatusInternalServerError:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		body["error"] = "internal error"
	case http.StatusNotFound:
		body["error"] = "not found"
	}
	var verr *document.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Errors
	}
	c.JSON(status, body)
}
