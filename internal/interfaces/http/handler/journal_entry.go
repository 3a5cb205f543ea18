package handler

import (
	appledger "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// JournalEntryHandler serves postings, entry queries and the trial balance
type JournalEntryHandler struct {
	BaseHandler
	ledger  *appledger.LedgerService
	exports *appledger.ExportService
}

// NewJournalEntryHandler creates a new JournalEntryHandler
func NewJournalEntryHandler(ledger *appledger.LedgerService, exports *appledger.ExportService) *JournalEntryHandler {
	return &JournalEntryHandler{ledger: ledger, exports: exports}
}

// Post handles POST /journal-entries
func (h *JournalEntryHandler) Post(c *gin.Context) {
	var req appledger.PostEntriesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.ledger.PostEntries(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List handles GET /journal-entries?from=&to=&account=&journal=&source=&limit=&order=
func (h *JournalEntryHandler) List(c *gin.Context) {
	from, ok := h.QueryDate(c, "from")
	if !ok {
		return
	}
	to, ok := h.QueryDate(c, "to")
	if !ok {
		return
	}
	limit, ok := h.QueryInt(c, "limit")
	if !ok {
		return
	}
	order := c.DefaultQuery("order", "asc")
	if order != "asc" && order != "desc" {
		h.BadRequest(c, dto.ErrCodeBadRequest, "invalid order: expected asc or desc")
		return
	}

	entries, err := h.ledger.ListEntries(c.Request.Context(), tenantID(c), appledger.ListEntriesQuery{
		From:        from,
		To:          to,
		AccountCode: c.Query("account"),
		Journal:     c.Query("journal"),
		SourceType:  c.Query("source"),
		Limit:       limit,
		Descending:  order == "desc",
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// TrialBalance handles GET /trial-balance?cutoff=
func (h *JournalEntryHandler) TrialBalance(c *gin.Context) {
	cutoff, ok := h.QueryDate(c, "cutoff")
	if !ok {
		return
	}
	tb, err := h.ledger.ComputeTrialBalance(c.Request.Context(), tenantID(c), cutoff)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tb)
}

// TrialBalanceWorkbook handles GET /trial-balance.xlsx?cutoff=
func (h *JournalEntryHandler) TrialBalanceWorkbook(c *gin.Context) {
	cutoff, ok := h.QueryDate(c, "cutoff")
	if !ok {
		return
	}
	file, err := h.exports.TrialBalanceWorkbook(c.Request.Context(), tenantID(c), cutoff)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.File(c, file.Filename, file.ContentType, file.Content)
}
