package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Tenant context keys
const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// Tenant resolves the tenant of each request from X-Tenant-ID, falling back to
// defaultTenant. A malformed header, or no tenant at all, is rejected with 400.
func Tenant(defaultTenant uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := defaultTenant
		if raw := strings.TrimSpace(c.GetHeader(TenantHeaderKey)); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil || parsed == uuid.Nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeInvalidTenant,
					"X-Tenant-ID must be a UUID",
					GetRequestID(c),
				))
				return
			}
			tenantID = parsed
		}
		if tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInvalidTenant,
				"X-Tenant-ID header is required",
				GetRequestID(c),
			))
			return
		}

		c.Set(TenantIDKey, tenantID.String())
		ctx, _ := logger.WithTenantID(c.Request.Context(), logger.FromContext(c.Request.Context()), tenantID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetTenantID returns the tenant resolved by Tenant, or uuid.Nil
func GetTenantID(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(c.GetString(TenantIDKey))
	if err != nil {
		return uuid.Nil
	}
	return id
}
