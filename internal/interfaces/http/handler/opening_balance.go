package handler

import (
	"errors"

	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/gin-gonic/gin"
)

// OpeningBalanceHandler serves opening-balance validation and reinitialization
type OpeningBalanceHandler struct {
	BaseHandler
	service *appledger.OpeningBalanceService
}

// NewOpeningBalanceHandler creates a new OpeningBalanceHandler
func NewOpeningBalanceHandler(service *appledger.OpeningBalanceService) *OpeningBalanceHandler {
	return &OpeningBalanceHandler{service: service}
}

// Validate handles POST /opening-balances/validate. An unbalanced sheet is a
// successful answer with balanced=false.
func (h *OpeningBalanceHandler) Validate(c *gin.Context) {
	var req appledger.OpeningBalanceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	report, err := h.service.Validate(req)
	if err != nil && !errors.Is(err, ledger.ErrUnbalancedOpeningBalance) {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Reinitialize handles POST /opening-balances
func (h *OpeningBalanceHandler) Reinitialize(c *gin.Context) {
	var req appledger.OpeningBalanceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.service.Reinitialize(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
