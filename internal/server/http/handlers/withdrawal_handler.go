package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/server/http/dto"
)

// IdempotencyKeyHeader names the optional submission key header.
const IdempotencyKeyHeader = "Idempotency-Key"

// WithdrawalHandler serves the user's withdrawal endpoints.
type WithdrawalHandler struct {
	facade WithdrawalFacade
}

// NewWithdrawalHandler constructs WithdrawalHandler.
func NewWithdrawalHandler(facade WithdrawalFacade) *WithdrawalHandler {
	return &WithdrawalHandler{facade: facade}
}

// Submit handles POST /api/user/withdrawals.
func (h *WithdrawalHandler) Submit(c *gin.Context) {
	var req dto.SubmitWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
		return
	}

	bank := model.BankDetails{BankName: req.BankName, AccountNumber: req.AccountNumber, AccountHolder: req.AccountHolder}
	w, err := h.facade.SubmitWithdrawal(c.Request.Context(), CurrentUserID(c), req.Amount, bank, c.GetHeader(IdempotencyKeyHeader))
	switch {
	case errors.Is(err, domainErrors.ErrDuplicateSubmission) && w != nil:
		c.JSON(http.StatusOK, dto.SubmitWithdrawalResponse{ID: w.ID.String(), Status: string(w.Status), Duplicate: true})
	case err != nil:
		writeError(c, err)
	default:
		c.JSON(http.StatusAccepted, dto.SubmitWithdrawalResponse{ID: w.ID.String(), Status: string(w.Status)})
	}
}

// List handles GET /api/user/withdrawals.
func (h *WithdrawalHandler) List(c *gin.Context) {
	withdrawals, err := h.facade.UserWithdrawals(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]dto.WithdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		resp = append(resp, dto.NewWithdrawalResponse(w))
	}
	c.JSON(http.StatusOK, resp)
}
