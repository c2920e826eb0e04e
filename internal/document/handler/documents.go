package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mdshare/mdshare/backend/go-services/internal/document/service"
)

type shareRequest struct {
	Email string `json:"email"`
}

func (h *Handler) list(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	docs, err := h.svc.List(c.Request.Context(), p)
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// get and update answer 401 for a caller without access, as existing clients expect.
func (h *Handler) get(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		writeError(c, err, http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) create(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in service.DocumentInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.svc.Create(c.Request.Context(), p, in)
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) update(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in service.DocumentInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.svc.Update(c.Request.Context(), p, c.Param("id"), in)
	if err != nil {
		writeError(c, err, http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) delete(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	d, err := h.svc.Delete(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) share(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var req shareRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.svc.ShareByEmail(c.Request.Context(), p, c.Param("id"), req.Email)
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) unshare(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	d, err := h.svc.Unshare(c.Request.Context(), p, c.Param("id"), c.Param("userId"))
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) preview(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	html, err := h.svc.Preview(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *Handler) export(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	out, err := h.svc.Export(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) lookupUser(c *gin.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	u, err := h.svc.LookupUser(c.Request.Context(), p, c.Query("email"))
	if err != nil {
		writeError(c, err, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, u)
}
