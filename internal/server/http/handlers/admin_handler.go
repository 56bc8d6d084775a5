package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/polkiloo/pointledger/internal/domain/model"
	"github.com/polkiloo/pointledger/internal/server/http/dto"
)

// AdminHandler serves operator endpoints.
type AdminHandler struct {
	facade AdminFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade AdminFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// Queue handles GET /api/admin/withdrawals?status=&limit=.
func (h *AdminHandler) Queue(c *gin.Context) {
	status := model.WithdrawalStatus(c.DefaultQuery("status", string(model.WithdrawalStatusPending)))
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	withdrawals, err := h.facade.WithdrawalQueue(c.Request.Context(), status, limit)
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

// Approve handles POST /api/admin/withdrawals/:id/approve.
func (h *AdminHandler) Approve(c *gin.Context) {
	h.act(c, func(ctx context.Context, id uuid.UUID, _ dto.AdminActionRequest) (*model.WithdrawalRequest, error) {
		return h.facade.ApproveWithdrawal(ctx, id)
	})
}

// Complete handles POST /api/admin/withdrawals/:id/complete.
func (h *AdminHandler) Complete(c *gin.Context) {
	h.act(c, func(ctx context.Context, id uuid.UUID, req dto.AdminActionRequest) (*model.WithdrawalRequest, error) {
		return h.facade.CompleteWithdrawal(ctx, id, req.ProcessedBy)
	})
}

// Reject handles POST /api/admin/withdrawals/:id/reject.
func (h *AdminHandler) Reject(c *gin.Context) {
	h.act(c, func(ctx context.Context, id uuid.UUID, req dto.AdminActionRequest) (*model.WithdrawalRequest, error) {
		return h.facade.RejectWithdrawal(ctx, id, req.ProcessedBy, req.Notes)
	})
}

// Refund handles POST /api/admin/withdrawals/:id/refund.
func (h *AdminHandler) Refund(c *gin.Context) {
	h.act(c, func(ctx context.Context, id uuid.UUID, req dto.AdminActionRequest) (*model.WithdrawalRequest, error) {
		return h.facade.RefundWithdrawal(ctx, id, req.ProcessedBy, req.Notes)
	})
}

type actionFunc func(ctx context.Context, id uuid.UUID, req dto.AdminActionRequest) (*model.WithdrawalRequest, error)

// act runs a status action. An empty body is allowed and processedBy
// defaults to the caller.
func (h *AdminHandler) act(c *gin.Context, action actionFunc) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AdminActionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
			return
		}
	}
	if req.ProcessedBy == "" {
		req.ProcessedBy = CurrentUserID(c).String()
	}

	w, err := action(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{ID: w.ID.String(), Status: string(w.Status)})
}

// Open handles POST /api/admin/users/:id/open.
func (h *AdminHandler) Open(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.facade.OpenAccount(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Earn handles POST /api/admin/users/:id/earn.
func (h *AdminHandler) Earn(c *gin.Context) {
	h.credit(c, h.facade.Earn)
}

// Adjust handles POST /api/admin/users/:id/adjust.
func (h *AdminHandler) Adjust(c *gin.Context) {
	h.credit(c, h.facade.Adjust)
}

func (h *AdminHandler) credit(c *gin.Context, op func(context.Context, uuid.UUID, int64, string) (*model.Transaction, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed request body"})
		return
	}
	entry, err := op(c.Request.Context(), id, req.Amount, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTransactionResponse(*entry))
}

// Reconcile handles GET /api/admin/users/:id/reconcile.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	report, err := h.facade.Reconcile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReconciliationResponse{
		UserID:    report.UserID.String(),
		Balance:   report.Balance,
		LedgerSum: report.LedgerSum,
		Drift:     report.Drift(),
	})
}
