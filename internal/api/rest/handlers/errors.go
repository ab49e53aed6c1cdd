package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/internal/middleware"
	"github.com/Dhoini/Subscription-ledger/pkg/res"
	"github.com/gin-gonic/gin"
)

// statusForError переводит доменные ошибки в HTTP-статусы
func statusForError(err error) int {
	var callErr *domain.CallError
	if errors.As(err, &callErr) {
		err = callErr.OriginalErr
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorizedCaller):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSoulbound):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidTier):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrOperationalHalt):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrReentrantCall):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransferRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(c *gin.Context, err error) {
	res.JsonResponse(c.Writer, res.ErrorResponse{
		Error:     err.Error(),
		ErrorCode: statusForError(err),
	}, statusForError(err))
}

// callerFromContext достает адрес вызывающего, положенный auth-middleware
func callerFromContext(c *gin.Context) (domain.Address, bool) {
	caller := c.GetString(string(middleware.ContextCallerKey))
	if caller == "" {
		res.JsonResponse(c.Writer, res.ErrorResponse{
			Error:     "caller address missing in request context",
			ErrorCode: http.StatusUnauthorized,
		}, http.StatusUnauthorized)
		return domain.ZeroAddress, false
	}
	return domain.Address(caller), true
}
