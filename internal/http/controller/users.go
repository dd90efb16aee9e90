package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"users_api/internal/domain"
	"users_api/internal/http/dto"
	"users_api/internal/service/users"
)

const (
	msgInvalidJSON  = "invalid json"
	msgUserNotFound = "User not found"
	msgInvalidUser  = "name and age are required"
)

type Handler struct {
	svc *users.Service
	log *zap.Logger
}

func NewHandler(svc *users.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

func (h *Handler) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.List(c.Request.Context()))
}

func (h *Handler) CreateUser(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}
	created := h.svc.Create(c.Request.Context(), req.ToModel())
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ReplaceUser(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	replaced, err := h.svc.Replace(c.Request.Context(), id, req.ToModel())
	if err != nil {
		h.writeError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, replaced)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, id, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindUser decodes the JSON body. A missing body is an empty payload.
func (h *Handler) bindUser(c *gin.Context) (dto.UserRequest, bool) {
	var req dto.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: msgInvalidJSON})
		return dto.UserRequest{}, false
	}
	return req, true
}

func (h *Handler) writeError(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: msgUserNotFound})
	case errors.Is(err, domain.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: msgInvalidUser})
	default:
		h.log.Error("user operation failed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "internal error"})
	}
}
