package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/internal/service"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/Dhoini/Subscription-ledger/pkg/req"
	"github.com/Dhoini/Subscription-ledger/pkg/res"
	"github.com/gin-gonic/gin"
)

// SubscriptionHandler обрабатывает HTTP-запросы к подпискам
type SubscriptionHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

// NewSubscriptionHandler создает новый обработчик подписок
func NewSubscriptionHandler(service service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		log:     log,
	}
}

// PurchaseRequest тело запроса покупки подписки.
// Покупатель берется из токена, а не из тела: тратить можно только
// собственный счет. Нулевые значения допустимы - тариф может быть
// бесплатным.
type PurchaseRequest struct {
	TierID uint8  `json:"tier_id"`
	Amount uint64 `json:"amount"`
}

// SubscriptionResponse ответ с записью подписки и производным статусом
type SubscriptionResponse struct {
	Account string                    `json:"account"`
	Tier    domain.TierID             `json:"tier"`
	Expiry  uint64                    `json:"expiry"`
	Status  domain.SubscriptionStatus `json:"status"`
}

// Purchase проводит покупку или продление подписки со счета,
// удостоверенного токеном
// POST /api/v1/subscriptions/purchase
func (h *SubscriptionHandler) Purchase(c *gin.Context) {
	account, ok := callerFromContext(c)
	if !ok {
		return
	}

	body, err := req.HandleBody[PurchaseRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	if err := h.service.Purchase(c.Request.Context(), account, domain.TierID(body.TierID), body.Amount); err != nil {
		writeDomainError(c, err)
		return
	}

	sub, err := h.service.GetSubscription(c.Request.Context(), account)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, SubscriptionResponse{
		Account: string(account),
		Tier:    sub.Tier,
		Expiry:  sub.Expiry,
		Status:  sub.StatusAt(time.Now()),
	})
}

// Get возвращает запись подписки аккаунта
// GET /api/v1/subscriptions/:account
func (h *SubscriptionHandler) Get(c *gin.Context) {
	account := domain.Address(c.Param("account"))

	sub, err := h.service.GetSubscription(c.Request.Context(), account)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, SubscriptionResponse{
		Account: string(account),
		Tier:    sub.Tier,
		Expiry:  sub.Expiry,
		Status:  sub.StatusAt(time.Now()),
	})
}

// CheckAccess проверяет право доступа аккаунта по минимальному тарифу.
// Параметр grace (секунды) принимает истекшую подписку в льготном окне.
// GET /api/v1/subscriptions/:account/access?min_tier=1&grace=86400
func (h *SubscriptionHandler) CheckAccess(c *gin.Context) {
	account := domain.Address(c.Param("account"))

	minTier := domain.TierBasic
	if raw := c.Query("min_tier"); raw != "" {
		parsed, err := parseTierID(raw)
		if err != nil {
			writeDomainError(c, domain.ErrInvalidTier)
			return
		}
		minTier = parsed
	}

	var graceSeconds uint64
	if raw := c.Query("grace"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			res.JsonResponse(c.Writer, res.ErrorResponse{
				Error:     "invalid grace parameter",
				ErrorCode: http.StatusBadRequest,
			}, http.StatusBadRequest)
			return
		}
		graceSeconds = parsed
	}

	var subscribed bool
	var err error
	if graceSeconds > 0 {
		grace := time.Duration(graceSeconds) * time.Second
		subscribed, err = h.service.IsSubscribedWithGrace(c.Request.Context(), account, minTier, grace)
	} else {
		subscribed, err = h.service.IsSubscribed(c.Request.Context(), account, minTier)
	}
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":    string(account),
		"min_tier":   minTier,
		"grace":      graceSeconds,
		"subscribed": subscribed,
	})
}

// Summary возвращает количество действующих и истекших подписок
// GET /api/v1/subscriptions/summary
func (h *SubscriptionHandler) Summary(c *gin.Context) {
	active, lapsed, err := h.service.Summary(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active": active,
		"lapsed": lapsed,
	})
}
