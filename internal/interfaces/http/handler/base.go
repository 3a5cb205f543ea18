package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DateLayout is the format of date query parameters
const DateLayout = "2006-01-02"

// BaseHandler provides the response helpers shared by every handler
type BaseHandler struct{}

// Success sends a 200 envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 envelope
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 with the given code
func (h *BaseHandler) BadRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// File streams an export as an attachment
func (h *BaseHandler) File(c *gin.Context, filename, contentType string, content []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, content)
}

// HandleError answers with the status derived from the domain error kind.
// Internal failures are logged with the request logger.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, info := dto.FromError(err)
	info.RequestID = middleware.GetRequestID(c)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("request failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, dto.Response{Error: info})
}

// BindJSON binds the body into req and answers 400 on failure
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

// BindQuery binds query parameters into req and answers 400 on failure
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed",
			middleware.GetRequestID(c),
			middleware.ValidationDetails(verrs),
		))
		return
	}
	h.BadRequest(c, dto.ErrCodeInvalidJSON, "Malformed request body: "+err.Error())
}

// PathUUID parses a UUID path parameter and answers 400 when it is malformed
func (h *BaseHandler) PathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, dto.ErrCodeBadRequest, "invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// QueryDate parses an optional YYYY-MM-DD query parameter
func (h *BaseHandler) QueryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		h.BadRequest(c, dto.ErrCodeBadRequest, "invalid "+name+": expected YYYY-MM-DD")
		return nil, false
	}
	return &d, true
}

// QueryInt parses an optional non-negative integer query parameter
func (h *BaseHandler) QueryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		h.BadRequest(c, dto.ErrCodeBadRequest, "invalid "+name+": expected a non-negative integer")
		return 0, false
	}
	return n, true
}

// tenantID returns the tenant resolved by the tenant middleware
func tenantID(c *gin.Context) uuid.UUID {
	return middleware.GetTenantID(c)
}
