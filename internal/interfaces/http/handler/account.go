package handler

import (
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// AccountHandler serves the chart of accounts
type AccountHandler struct {
	BaseHandler
	ledger *appledger.LedgerService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(ledger *appledger.LedgerService) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

// List handles GET /accounts?category=&country=
func (h *AccountHandler) List(c *gin.Context) {
	var q appledger.ListAccountsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	accounts, err := h.ledger.ListAccounts(c.Request.Context(), tenantID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// Upsert handles POST /accounts
func (h *AccountHandler) Upsert(c *gin.Context) {
	var req appledger.UpsertAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	account, err := h.ledger.UpsertAccount(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// Delete handles DELETE /accounts/:country/:code
func (h *AccountHandler) Delete(c *gin.Context) {
	if err := h.ledger.DeleteAccount(c.Request.Context(), tenantID(c), c.Param("country"), c.Param("code")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
