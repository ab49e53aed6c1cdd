package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/internal/service"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/Dhoini/Subscription-ledger/pkg/req"
	"github.com/gin-gonic/gin"
)

// CredentialHandler обрабатывает HTTP-запросы к токенам доступа
type CredentialHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

// NewCredentialHandler создает новый обработчик токенов доступа
func NewCredentialHandler(service service.SubscriptionService, log *logger.Logger) *CredentialHandler {
	return &CredentialHandler{
		service: service,
		log:     log,
	}
}

// MintCredentialRequest тело запроса выпуска токена доступа
type MintCredentialRequest struct {
	To string `json:"to" validate:"required"`
}

// Mint выпускает токен доступа (только менеджер токена)
// POST /api/v1/admin/credentials
func (h *CredentialHandler) Mint(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	body, err := req.HandleBody[MintCredentialRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	id, err := h.service.MintCredential(c.Request.Context(), caller, domain.Address(body.To))
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token_id": id, "owner": body.To})
}

// Burn уничтожает токен доступа (только менеджер токена)
// DELETE /api/v1/admin/credentials/:id
func (h *CredentialHandler) Burn(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeDomainError(c, domain.ErrNotFound)
		return
	}

	if err := h.service.BurnCredential(c.Request.Context(), caller, id); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token_id": id, "burned": true})
}
