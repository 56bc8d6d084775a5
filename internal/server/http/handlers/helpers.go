package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
	"github.com/polkiloo/pointledger/internal/server/http/dto"
	"github.com/polkiloo/pointledger/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) uuid.UUID {
	principal, ok := middleware.Principal(c)
	if !ok {
		return uuid.Nil
	}
	return principal.UserID
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "malformed id", Field: "id"})
		return uuid.Nil, false
	}
	return id, true
}

func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limit must be a non-negative integer", Field: "limit"})
		return 0, false
	}
	return limit, true
}

// writeError maps domain errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var ve *domainErrors.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: ve.Reason, Field: ve.Field})
	case errors.Is(err, domainErrors.ErrInvalidAmount):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error(), Field: "amount"})
	case errors.Is(err, domainErrors.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrInvalidTransition), errors.Is(err, domainErrors.ErrConcurrentModification):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrCompensationPending):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "withdrawal failed, refund is pending"})
	case errors.Is(err, domainErrors.ErrPersistence):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "storage unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}
