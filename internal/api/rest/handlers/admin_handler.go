package handlers

import (
	"context"
	"net/http"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/internal/service"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/Dhoini/Subscription-ledger/pkg/req"
	"github.com/gin-gonic/gin"
)

// AdminHandler обрабатывает административные HTTP-запросы
type AdminHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

// NewAdminHandler создает новый административный обработчик
func NewAdminHandler(service service.SubscriptionService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log,
	}
}

// SetProcessorRequest тело запроса смены процессора реестра
type SetProcessorRequest struct {
	Processor string `json:"processor" validate:"required"`
}

// WithdrawRequest тело запроса вывода средств со счета шлюза
type WithdrawRequest struct {
	To     string `json:"to" validate:"required"`
	Amount uint64 `json:"amount" validate:"required"`
}

// SetProcessor заменяет авторизованного мутатора реестра
// POST /api/v1/admin/processor
func (h *AdminHandler) SetProcessor(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	body, err := req.HandleBody[SetProcessorRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	if err := h.service.SetProcessor(c.Request.Context(), caller, domain.Address(body.Processor)); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"processor": body.Processor})
}

// Cancel административно удаляет подписку аккаунта
// DELETE /api/v1/admin/subscriptions/:account
func (h *AdminHandler) Cancel(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	account := domain.Address(c.Param("account"))
	if err := h.service.Cancel(c.Request.Context(), caller, account); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": string(account), "cancelled": true})
}

// Withdraw выводит средства со счета шлюза
// POST /api/v1/admin/withdraw
func (h *AdminHandler) Withdraw(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	body, err := req.HandleBody[WithdrawRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	if err := h.service.Withdraw(c.Request.Context(), caller, domain.Address(body.To), body.Amount); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"to": body.To, "amount": body.Amount})
}

// PauseGateway останавливает платежный шлюз
// POST /api/v1/admin/gateway/pause
func (h *AdminHandler) PauseGateway(c *gin.Context) {
	h.togglePause(c, h.service.PauseGateway, "gateway", true)
}

// UnpauseGateway снимает паузу платежного шлюза
// POST /api/v1/admin/gateway/unpause
func (h *AdminHandler) UnpauseGateway(c *gin.Context) {
	h.togglePause(c, h.service.UnpauseGateway, "gateway", false)
}

// PauseRegistry останавливает реестр подписок
// POST /api/v1/admin/registry/pause
func (h *AdminHandler) PauseRegistry(c *gin.Context) {
	h.togglePause(c, h.service.PauseRegistry, "registry", true)
}

// UnpauseRegistry снимает паузу реестра подписок
// POST /api/v1/admin/registry/unpause
func (h *AdminHandler) UnpauseRegistry(c *gin.Context) {
	h.togglePause(c, h.service.UnpauseRegistry, "registry", false)
}

func (h *AdminHandler) togglePause(c *gin.Context, op func(ctx context.Context, caller domain.Address) error, component string, paused bool) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	if err := op(c.Request.Context(), caller); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": component, "paused": paused})
}
