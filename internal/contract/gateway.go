package contract

import (
	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/internal/ledger"
)

// SubscriptionProcessor способность, которую шлюз получает при сборке:
// узкий интерфейс реестра вместо сравнения адресов на каждом вызове.
// Реестр при этом сохраняет проверку процессора на своей стороне.
type SubscriptionProcessor interface {
	ProcessSubscription(tx *ledger.Tx, account domain.Address, tierID domain.TierID) error
	GetTier(tx *ledger.Tx, id domain.TierID) domain.Tier
}

// PaymentGateway принимает средства, сверяет оплату с каталогом и передает
// подтвержденную покупку реестру. Единственный доверенный процессор реестра.
type PaymentGateway struct {
	Ownable
	Pausable
	guard ReentrancyGuard

	addr      domain.Address
	processor SubscriptionProcessor
}

// NewPaymentGateway создает шлюз с собственным счетом хранения средств
func NewPaymentGateway(owner, addr domain.Address, processor SubscriptionProcessor) *PaymentGateway {
	return &PaymentGateway{
		Ownable:   NewOwnable(owner),
		addr:      addr,
		processor: processor,
	}
}

// Address возвращает счет хранения средств шлюза
func (g *PaymentGateway) Address() domain.Address {
	return g.addr
}

// PurchaseSubscription принимает оплату за тариф и передает покупку реестру.
// Переплата не возвращается: излишек остается на счете шлюза.
func (g *PaymentGateway) PurchaseSubscription(tx *ledger.Tx, tierID domain.TierID) error {
	if err := g.guard.Enter(); err != nil {
		return domain.NewCallError("purchaseSubscription", tx.Caller(), err)
	}
	defer g.guard.Leave()

	if err := g.RequireNotPaused(); err != nil {
		return domain.NewCallError("purchaseSubscription", tx.Caller(), err)
	}

	tier := g.processor.GetTier(tx, tierID)
	if !tier.Active {
		return domain.NewCallError("purchaseSubscription", tx.Caller(), domain.ErrInvalidTier)
	}

	buyer := tx.Caller()
	amountPaid := tx.Value()
	if amountPaid < tier.Price {
		return domain.NewCallError("purchaseSubscription", buyer, domain.ErrInsufficientPayment)
	}
	if tx.BalanceOf(buyer) < amountPaid {
		return domain.NewCallError("purchaseSubscription", buyer, domain.ErrInsufficientFunds)
	}

	// Реестр проверяет отправителя: шлюз обращается к нему от имени
	// собственного адреса, зарегистрированного как процессор
	if err := tx.As(g.addr, func() error {
		return g.processor.ProcessSubscription(tx, buyer, tierID)
	}); err != nil {
		return err
	}

	if err := tx.ClaimValue(g.addr); err != nil {
		return domain.NewCallError("purchaseSubscription", buyer, err)
	}

	event := domain.NewEvent(domain.EventPaymentReceived, tx.Now())
	event.Account = buyer
	event.Tier = tierID
	event.Amount = amountPaid
	tx.Emit(event)
	return nil
}

// Withdraw выводит средства со счета шлюза. Перевод может запустить
// произвольный код получателя; его отказ отменяет вывод целиком.
func (g *PaymentGateway) Withdraw(tx *ledger.Tx, to domain.Address, amount uint64) error {
	if err := g.RequireOwner(tx.Caller()); err != nil {
		return domain.NewCallError("withdraw", tx.Caller(), err)
	}
	if err := g.guard.Enter(); err != nil {
		return domain.NewCallError("withdraw", tx.Caller(), err)
	}
	defer g.guard.Leave()

	if tx.BalanceOf(g.addr) < amount {
		return domain.NewCallError("withdraw", tx.Caller(), domain.ErrInsufficientFunds)
	}

	if err := tx.Transfer(g.addr, to, amount); err != nil {
		return domain.NewCallError("withdraw", tx.Caller(), domain.ErrTransferRejected)
	}

	event := domain.NewEvent(domain.EventFundsWithdrawn, tx.Now())
	event.Account = to
	event.Amount = amount
	tx.Emit(event)
	return nil
}

// Pause останавливает мутирующие вызовы шлюза. Предохранитель шлюза
// не связан с предохранителем реестра.
func (g *PaymentGateway) Pause(tx *ledger.Tx) error {
	if err := g.RequireOwner(tx.Caller()); err != nil {
		return domain.NewCallError("pause", tx.Caller(), err)
	}
	g.setPaused(true)
	return nil
}

// Unpause снимает паузу шлюза
func (g *PaymentGateway) Unpause(tx *ledger.Tx) error {
	if err := g.RequireOwner(tx.Caller()); err != nil {
		return domain.NewCallError("unpause", tx.Caller(), err)
	}
	g.setPaused(false)
	return nil
}
