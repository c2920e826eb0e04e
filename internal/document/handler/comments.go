package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mdshare/mdshare/backend/go-services/internal/document/service"
)

func (h *Handler) listComments(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	list, err := h.svc.ListComments(c.Request.Context(), p, c.Param("documentId"))
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) createComment(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in service.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	cm, err := h.svc.CreateComment(c.Request.Context(), p, c.Param("documentId"), in)
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (h *Handler) updateComment(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in service.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	cm, err := h.svc.UpdateComment(c.Request.Context(), p, c.Param("documentId"), c.Query("commentId"), in)
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *Handler) deleteComment(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	cm, err := h.svc.DeleteComment(c.Request.Context(), p, c.Param("documentId"), c.Query("commentId"))
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, cm)
}
