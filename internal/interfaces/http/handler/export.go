package handler

import (
	"time"

	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// ExportHandler serves the regulatory exports as file downloads
type ExportHandler struct {
	BaseHandler
	exports *appledger.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exports *appledger.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// LedgerText handles GET /exports/ledger-text?from=&to=
func (h *ExportHandler) LedgerText(c *gin.Context) {
	from, to, ok := h.period(c)
	if !ok {
		return
	}
	file, err := h.exports.LedgerText(c.Request.Context(), tenantID(c), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.File(c, file.Filename, file.ContentType, file.Content)
}

// AuditFile handles GET /exports/audit-file?from=&to=
func (h *ExportHandler) AuditFile(c *gin.Context) {
	from, to, ok := h.period(c)
	if !ok {
		return
	}
	file, err := h.exports.AuditFile(c.Request.Context(), tenantID(c), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.File(c, file.Filename, file.ContentType, file.Content)
}

// InvoiceCII handles GET /exports/invoices/:id/cii?profile=
func (h *ExportHandler) InvoiceCII(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	file, err := h.exports.InvoiceCII(c.Request.Context(), tenantID(c), id, c.Query("profile"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.File(c, file.Filename, file.ContentType, file.Content)
}

func (h *ExportHandler) period(c *gin.Context) (from, to *time.Time, ok bool) {
	if from, ok = h.QueryDate(c, "from"); !ok {
		return nil, nil, false
	}
	if to, ok = h.QueryDate(c, "to"); !ok {
		return nil, nil, false
	}
	return from, to, true
}
