package contract

import (
	"time"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/internal/ledger"
)

// SubscriptionRegistry владеет каталогом тарифов и реестром подписок.
// Мутировать подписки может только один настроенный процессор.
type SubscriptionRegistry struct {
	Ownable
	Pausable

	processor domain.Address
	tiers     map[domain.TierID]domain.Tier
	subs      map[domain.Address]domain.Subscription
}

// NewSubscriptionRegistry создает реестр с двумя тарифами по умолчанию
func NewSubscriptionRegistry(owner domain.Address) *SubscriptionRegistry {
	r := &SubscriptionRegistry{
		Ownable: NewOwnable(owner),
		tiers:   make(map[domain.TierID]domain.Tier),
		subs:    make(map[domain.Address]domain.Subscription),
	}

	r.tiers[domain.TierBasic] = domain.Tier{
		Price:    domain.TierBasicPrice,
		Duration: domain.DefaultTierDuration,
		Active:   true,
	}
	r.tiers[domain.TierPremium] = domain.Tier{
		Price:    domain.TierPremiumPrice,
		Duration: domain.DefaultTierDuration,
		Active:   true,
	}

	return r
}

// SetProcessor заменяет единственного авторизованного мутатора.
// Адрес не валидируется, вызывающая сторона отвечает за корректность.
func (r *SubscriptionRegistry) SetProcessor(tx *ledger.Tx, processor domain.Address) error {
	if err := r.RequireOwner(tx.Caller()); err != nil {
		return domain.NewCallError("setProcessor", tx.Caller(), err)
	}

	r.processor = processor

	event := domain.NewEvent(domain.EventProcessorUpdated, tx.Now())
	event.Account = processor
	tx.Emit(event)
	return nil
}

// Processor возвращает текущий адрес процессора
func (r *SubscriptionRegistry) Processor() domain.Address {
	return r.processor
}

// SetTier безусловно создает или перезаписывает тариф.
// Границы id и положительность duration не проверяются.
func (r *SubscriptionRegistry) SetTier(tx *ledger.Tx, id domain.TierID, price, duration uint64, active bool) error {
	if err := r.RequireOwner(tx.Caller()); err != nil {
		return domain.NewCallError("setTier", tx.Caller(), err)
	}

	r.tiers[id] = domain.Tier{
		Price:    price,
		Duration: duration,
		Active:   active,
	}

	event := domain.NewEvent(domain.EventTierUpdated, tx.Now())
	event.Tier = id
	event.Amount = price
	tx.Emit(event)
	return nil
}

// ProcessSubscription создает, продлевает или сбрасывает подписку аккаунта.
// Продление: та же tier и срок еще не истек - expiry увеличивается на duration.
// Любой другой успешный вызов ставит expiry = now + duration; остаток старого
// окна при смене тарифа сгорает, это не pro-rata апгрейд.
func (r *SubscriptionRegistry) ProcessSubscription(tx *ledger.Tx, account domain.Address, tierID domain.TierID) error {
	if tx.Caller() != r.processor {
		return domain.NewCallError("processSubscription", tx.Caller(), domain.ErrUnauthorizedCaller)
	}
	if err := r.RequireNotPaused(); err != nil {
		return domain.NewCallError("processSubscription", tx.Caller(), err)
	}

	tier := r.tiers[tierID]
	if !tier.Active {
		return domain.NewCallError("processSubscription", tx.Caller(), domain.ErrInvalidTier)
	}

	now := tx.Now()
	sub := r.subs[account]

	var newExpiry uint64
	var eventType domain.EventType
	if sub.ValidAt(now) && sub.Tier == tierID {
		// Чистое продление того же тарифа
		newExpiry = sub.Expiry + tier.Duration
		eventType = domain.EventSubscriptionRenewed
	} else {
		newExpiry = uint64(now.Unix()) + tier.Duration
		eventType = domain.EventSubscriptionCreated
	}

	r.subs[account] = domain.Subscription{
		Expiry:   newExpiry,
		Tier:     tierID,
		IsActive: true,
	}

	event := domain.NewEvent(eventType, now)
	event.Account = account
	event.Tier = tierID
	event.Expiry = newExpiry
	tx.Emit(event)
	return nil
}

// CancelSubscription полностью удаляет запись подписки.
// Административное действие владельца, не self-service.
func (r *SubscriptionRegistry) CancelSubscription(tx *ledger.Tx, account domain.Address) error {
	if err := r.RequireOwner(tx.Caller()); err != nil {
		return domain.NewCallError("cancelSubscription", tx.Caller(), err)
	}

	delete(r.subs, account)

	event := domain.NewEvent(domain.EventSubscriptionCancelled, tx.Now())
	event.Account = account
	tx.Emit(event)
	return nil
}

// Pause останавливает мутирующие вызовы реестра
func (r *SubscriptionRegistry) Pause(tx *ledger.Tx) error {
	if err := r.RequireOwner(tx.Caller()); err != nil {
		return domain.NewCallError("pause", tx.Caller(), err)
	}
	r.setPaused(true)
	return nil
}

// Unpause снимает паузу реестра
func (r *SubscriptionRegistry) Unpause(tx *ledger.Tx) error {
	if err := r.RequireOwner(tx.Caller()); err != nil {
		return domain.NewCallError("unpause", tx.Caller(), err)
	}
	r.setPaused(false)
	return nil
}

// IsSubscribed проверяет, что подписка аккаунта действительна и тариф не ниже
// minTier. Числовой порядок тарифов выступает неявным ранжированием доступа.
func (r *SubscriptionRegistry) IsSubscribed(tx *ledger.Tx, account domain.Address, minTier domain.TierID) bool {
	sub := r.subs[account]
	return sub.ValidAt(tx.Now()) && sub.Tier >= minTier
}

// IsSubscribedWithGrace как IsSubscribed, но истекшая подписка еще считается
// действительной в течение grace после expiry
func (r *SubscriptionRegistry) IsSubscribedWithGrace(tx *ledger.Tx, account domain.Address, minTier domain.TierID, grace time.Duration) bool {
	sub := r.subs[account]
	if !sub.IsActive || sub.Tier < minTier {
		return false
	}
	return sub.Expiry+uint64(grace.Seconds()) > uint64(tx.Now().Unix())
}

// GetTier возвращает тариф каталога; для отсутствующего id возвращается
// нулевой тариф без признака "не найдено"
func (r *SubscriptionRegistry) GetTier(tx *ledger.Tx, id domain.TierID) domain.Tier {
	return r.tiers[id]
}

// GetSubscription возвращает запись подписки аккаунта как есть
func (r *SubscriptionRegistry) GetSubscription(tx *ledger.Tx, account domain.Address) domain.Subscription {
	return r.subs[account]
}

// Summary возвращает количество действующих и истекших подписок
func (r *SubscriptionRegistry) Summary(tx *ledger.Tx) (active, lapsed int) {
	now := tx.Now()
	for _, sub := range r.subs {
		if sub.ValidAt(now) {
			active++
		} else if sub.IsActive {
			lapsed++
		}
	}
	return active, lapsed
}

// Export возвращает копию реестра подписок для снапшота
func (r *SubscriptionRegistry) Export(tx *ledger.Tx) map[domain.Address]domain.Subscription {
	out := make(map[domain.Address]domain.Subscription, len(r.subs))
	for account, sub := range r.subs {
		out[account] = sub
	}
	return out
}

// Restore загружает реестр подписок из снапшота. Только владелец.
func (r *SubscriptionRegistry) Restore(tx *ledger.Tx, subs map[domain.Address]domain.Subscription) error {
	if err := r.RequireOwner(tx.Caller()); err != nil {
		return domain.NewCallError("restore", tx.Caller(), err)
	}
	for account, sub := range subs {
		r.subs[account] = sub
	}
	return nil
}
