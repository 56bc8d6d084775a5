package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/pointledger/internal/server/http/dto"
)

// BalanceHandler manages balance-related endpoints.
type BalanceHandler struct {
	facade BalanceFacade
}

// NewBalanceHandler constructs BalanceHandler.
func NewBalanceHandler(facade BalanceFacade) *BalanceHandler {
	return &BalanceHandler{facade: facade}
}

// Summary handles GET /api/user/balance.
func (h *BalanceHandler) Summary(c *gin.Context) {
	balance, err := h.facade.Balance(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{Points: balance.Points, UpdatedAt: balance.UpdatedAt})
}

// Transactions handles GET /api/user/transactions.
func (h *BalanceHandler) Transactions(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	entries, err := h.facade.Transactions(c.Request.Context(), CurrentUserID(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]dto.TransactionResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.NewTransactionResponse(entry))
	}
	c.JSON(http.StatusOK, resp)
}
