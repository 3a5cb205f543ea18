package handler

import (
	"net/http"

	appinvoicing "github.com/erp/ledger/internal/application/invoicing"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler serves invoice finalization and payment reconciliation
type InvoiceHandler struct {
	BaseHandler
	invoices   *appinvoicing.InvoiceService
	reconciler *appinvoicing.PaymentReconciler
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *appinvoicing.InvoiceService, reconciler *appinvoicing.PaymentReconciler) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, reconciler: reconciler}
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.GetInvoice(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Finalize handles POST /invoices/:id/finalize
func (h *InvoiceHandler) Finalize(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.FinalizeInvoice(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// RecordPayment handles POST /invoices/:id/payments
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	var req appinvoicing.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.reconciler.RecordPayment(c.Request.Context(), tenantID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListPayments handles GET /invoices/:id/payments
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	payments, err := h.reconciler.ListPayments(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Recompute handles POST /invoices/:id/recompute
func (h *InvoiceHandler) Recompute(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	inv, err := h.reconciler.RecomputeInvoice(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// RecordLumpSum handles POST /payments/lump-sum
func (h *InvoiceHandler) RecordLumpSum(c *gin.Context) {
	var req appinvoicing.LumpSumPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.reconciler.RecordLumpSum(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// DeletePayment handles DELETE /payments/:id. The payment is gone even when a
// touched invoice fails to recompute; that case answers 207 with the report.
func (h *InvoiceHandler) DeletePayment(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	report, err := h.reconciler.DeletePayment(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !report.OK() {
		c.JSON(http.StatusMultiStatus, dto.NewSuccessResponse(report))
		return
	}
	h.Success(c, report)
}
