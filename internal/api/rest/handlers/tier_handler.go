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

// TierHandler обрабатывает HTTP-запросы к каталогу тарифов
type TierHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

// NewTierHandler создает новый обработчик тарифов
func NewTierHandler(service service.SubscriptionService, log *logger.Logger) *TierHandler {
	return &TierHandler{
		service: service,
		log:     log,
	}
}

// TierResponse ответ с тарифом каталога
type TierResponse struct {
	ID       domain.TierID `json:"id"`
	Price    uint64        `json:"price"`
	Duration uint64        `json:"duration"`
	Active   bool          `json:"active"`
}

// SetTierRequest тело запроса создания или изменения тарифа
type SetTierRequest struct {
	Price    uint64 `json:"price"`
	Duration uint64 `json:"duration"`
	Active   bool   `json:"active"`
}

func parseTierID(raw string) (domain.TierID, error) {
	id, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, err
	}
	return domain.TierID(id), nil
}

// Get возвращает тариф каталога
// GET /api/v1/tiers/:id
func (h *TierHandler) Get(c *gin.Context) {
	id, err := parseTierID(c.Param("id"))
	if err != nil {
		writeDomainError(c, domain.ErrInvalidTier)
		return
	}

	tier, err := h.service.GetTier(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if tier.IsZero() {
		writeDomainError(c, domain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, TierResponse{
		ID:       id,
		Price:    tier.Price,
		Duration: tier.Duration,
		Active:   tier.Active,
	})
}

// Set создает или перезаписывает тариф каталога (только владелец)
// PUT /api/v1/admin/tiers/:id
func (h *TierHandler) Set(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	id, err := parseTierID(c.Param("id"))
	if err != nil {
		writeDomainError(c, domain.ErrInvalidTier)
		return
	}

	body, err := req.HandleBody[SetTierRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	if err := h.service.SetTier(c.Request.Context(), caller, id, body.Price, body.Duration, body.Active); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, TierResponse{
		ID:       id,
		Price:    body.Price,
		Duration: body.Duration,
		Active:   body.Active,
	})
}
