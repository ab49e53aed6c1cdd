package service

import (
	"context"
	"time"

	"github.com/Dhoini/Subscription-ledger/internal/contract"
	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/internal/ledger"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
)

// SubscriptionService интерфейс сервиса для работы с леджером подписок
type SubscriptionService interface {
	// Покупка и запросы
	Purchase(ctx context.Context, account domain.Address, tierID domain.TierID, amount uint64) error
	IsSubscribed(ctx context.Context, account domain.Address, minTier domain.TierID) (bool, error)
	IsSubscribedWithGrace(ctx context.Context, account domain.Address, minTier domain.TierID, grace time.Duration) (bool, error)
	GetSubscription(ctx context.Context, account domain.Address) (domain.Subscription, error)
	GetTier(ctx context.Context, id domain.TierID) (domain.Tier, error)
	Summary(ctx context.Context) (active, lapsed int, err error)

	// Административные операции (caller сверяется контрактами)
	SetTier(ctx context.Context, caller domain.Address, id domain.TierID, price, duration uint64, active bool) error
	SetProcessor(ctx context.Context, caller, processor domain.Address) error
	Cancel(ctx context.Context, caller, account domain.Address) error
	Withdraw(ctx context.Context, caller, to domain.Address, amount uint64) error
	PauseGateway(ctx context.Context, caller domain.Address) error
	UnpauseGateway(ctx context.Context, caller domain.Address) error
	PauseRegistry(ctx context.Context, caller domain.Address) error
	UnpauseRegistry(ctx context.Context, caller domain.Address) error

	// Операции с токеном доступа
	MintCredential(ctx context.Context, caller, to domain.Address) (uint64, error)
	BurnCredential(ctx context.Context, caller domain.Address, id uint64) error

	// Снапшоты реестра подписок
	SaveSnapshot(ctx context.Context) error
	RestoreSnapshot(ctx context.Context) error
}

// SubscriptionCache интерфейс кэша подписок на стороне чтения
type SubscriptionCache interface {
	CacheSubscription(ctx context.Context, account domain.Address, sub domain.Subscription) error
	GetCachedSubscription(ctx context.Context, account domain.Address) (*domain.Subscription, error)
	InvalidateSubscription(ctx context.Context, account domain.Address) error
}

// SnapshotStore интерфейс хранилища снапшотов реестра
type SnapshotStore interface {
	Save(subs map[domain.Address]domain.Subscription) error
	Load() (map[domain.Address]domain.Subscription, error)
}

type subscriptionService struct {
	ledger     *ledger.Ledger
	registry   *contract.SubscriptionRegistry
	gateway    *contract.PaymentGateway
	credential *contract.AccessCredential
	cache      SubscriptionCache
	snapshots  SnapshotStore
	owner      domain.Address
	log        *logger.Logger
}

// NewSubscriptionService создает новый сервис леджера подписок.
// cache и snapshots могут быть nil, тогда соответствующие слои отключены.
func NewSubscriptionService(
	l *ledger.Ledger,
	registry *contract.SubscriptionRegistry,
	gateway *contract.PaymentGateway,
	credential *contract.AccessCredential,
	cache SubscriptionCache,
	snapshots SnapshotStore,
	owner domain.Address,
	log *logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		ledger:     l,
		registry:   registry,
		gateway:    gateway,
		credential: credential,
		cache:      cache,
		snapshots:  snapshots,
		owner:      owner,
		log:        log,
	}
}

// Purchase проводит покупку подписки через платежный шлюз
func (s *subscriptionService) Purchase(ctx context.Context, account domain.Address, tierID domain.TierID, amount uint64) error {
	s.log.Debug("Processing purchase: account=%s tier=%d amount=%d", account, tierID, amount)

	err := s.ledger.Submit(ctx, account, amount, func(tx *ledger.Tx) error {
		return s.gateway.PurchaseSubscription(tx, tierID)
	})
	if err != nil {
		s.log.Warnw("Purchase rejected", "error", err, "account", account, "tier", tierID)
		return err
	}

	s.log.Info("Purchase completed: account=%s tier=%d amount=%d", account, tierID, amount)
	return nil
}

// IsSubscribed проверяет действительность подписки, сначала в кэше
func (s *subscriptionService) IsSubscribed(ctx context.Context, account domain.Address, minTier domain.TierID) (bool, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCachedSubscription(ctx, account)
		if err != nil {
			s.log.Warnw("Cache lookup failed, falling back to ledger", "error", err, "account", account)
		} else if cached != nil {
			return cached.ValidAt(s.ledger.Now()) && cached.Tier >= minTier, nil
		}
	}

	var subscribed bool
	var sub domain.Subscription
	err := s.ledger.View(func(tx *ledger.Tx) error {
		subscribed = s.registry.IsSubscribed(tx, account, minTier)
		sub = s.registry.GetSubscription(tx, account)
		return nil
	})
	if err != nil {
		return false, err
	}

	if s.cache != nil && sub.IsActive {
		if err := s.cache.CacheSubscription(ctx, account, sub); err != nil {
			s.log.Warnw("Failed to prime subscription cache", "error", err, "account", account)
		}
	}

	return subscribed, nil
}

// IsSubscribedWithGrace как IsSubscribed, но истекшая подписка еще
// принимается в течение grace после expiry. Кэш не используется:
// льготное окно всегда сверяется с леджером.
func (s *subscriptionService) IsSubscribedWithGrace(ctx context.Context, account domain.Address, minTier domain.TierID, grace time.Duration) (bool, error) {
	var subscribed bool
	err := s.ledger.View(func(tx *ledger.Tx) error {
		subscribed = s.registry.IsSubscribedWithGrace(tx, account, minTier, grace)
		return nil
	})
	return subscribed, err
}

// GetSubscription возвращает запись подписки аккаунта
func (s *subscriptionService) GetSubscription(ctx context.Context, account domain.Address) (domain.Subscription, error) {
	var sub domain.Subscription
	err := s.ledger.View(func(tx *ledger.Tx) error {
		sub = s.registry.GetSubscription(tx, account)
		return nil
	})
	return sub, err
}

// GetTier возвращает тариф каталога
func (s *subscriptionService) GetTier(ctx context.Context, id domain.TierID) (domain.Tier, error) {
	var tier domain.Tier
	err := s.ledger.View(func(tx *ledger.Tx) error {
		tier = s.registry.GetTier(tx, id)
		return nil
	})
	return tier, err
}

// Summary возвращает количество действующих и истекших подписок
func (s *subscriptionService) Summary(ctx context.Context) (int, int, error) {
	var active, lapsed int
	err := s.ledger.View(func(tx *ledger.Tx) error {
		active, lapsed = s.registry.Summary(tx)
		return nil
	})
	return active, lapsed, err
}

// SetTier создает или перезаписывает тариф каталога
func (s *subscriptionService) SetTier(ctx context.Context, caller domain.Address, id domain.TierID, price, duration uint64, active bool) error {
	return s.ledger.Submit(ctx, caller, 0, func(tx *ledger.Tx) error {
		return s.registry.SetTier(tx, id, price, duration, active)
	})
}

// SetProcessor заменяет авторизованного мутатора реестра
func (s *subscriptionService) SetProcessor(ctx context.Context, caller, processor domain.Address) error {
	return s.ledger.Submit(ctx, caller, 0, func(tx *ledger.Tx) error {
		return s.registry.SetProcessor(tx, processor)
	})
}

// Cancel административно удаляет подписку аккаунта
func (s *subscriptionService) Cancel(ctx context.Context, caller, account domain.Address) error {
	err := s.ledger.Submit(ctx, caller, 0, func(tx *ledger.Tx) error {
		return s.registry.CancelSubscription(tx, account)
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		if cacheErr := s.cache.InvalidateSubscription(ctx, account); cacheErr != nil {
			s.log.Warnw("Failed to invalidate cache after cancellation", "error", cacheErr, "account", account)
		}
	}
	return nil
}

// Withdraw выводит средства со счета шлюза
func (s *subscriptionService) Withdraw(ctx context.Context, caller, to domain.Address, amount uint64) error {
	return s.ledger.Submit(ctx, caller, 0, func(tx *ledger.Tx) error {
		return s.gateway.Withdraw(tx, to, amount)
	})
}

// PauseGateway останавливает шлюз
func (s *subscriptionService) PauseGateway(ctx context.Context, caller domain.Address) error {
	return s.ledger.Submit(ctx, caller, 0, func(tx *ledger.Tx) error {
		return s.gateway.Pause(tx)
	})
}

// UnpauseGateway снимает паузу шлюза
func (s *subscriptionService) UnpauseGateway(ctx context.Context, caller domain.Address) error {
	return s.ledger.Submit(ctx, caller, 0, func(tx *ledger.Tx) error {
		return s.gateway.Unpause(tx)
	})
}

// PauseRegistry останавливает реестр
func (s *subscriptionService) PauseRegistry(ctx context.Context, caller domain.Address) error {
	return s.ledger.Submit(ctx, caller, 0, func(tx *ledger.Tx) error {
		return s.registry.Pause(tx)
	})
}

// UnpauseRegistry снимает паузу реестра
func (s *subscriptionService) UnpauseRegistry(ctx context.Context, caller domain.Address) error {
	return s.ledger.Submit(ctx, caller, 0, func(tx *ledger.Tx) error {
		return s.registry.Unpause(tx)
	})
}

// MintCredential выпускает токен доступа
func (s *subscriptionService) MintCredential(ctx context.Context, caller, to domain.Address) (uint64, error) {
	var id uint64
	err := s.ledger.Submit(ctx, caller, 0, func(tx *ledger.Tx) error {
		mintedID, mintErr := s.credential.Mint(tx, to)
		if mintErr != nil {
			return mintErr
		}
		id = mintedID
		return nil
	})
	return id, err
}

// BurnCredential уничтожает токен доступа
func (s *subscriptionService) BurnCredential(ctx context.Context, caller domain.Address, id uint64) error {
	return s.ledger.Submit(ctx, caller, 0, func(tx *ledger.Tx) error {
		return s.credential.Burn(tx, id)
	})
}

// SaveSnapshot сохраняет реестр подписок в хранилище снапшотов
func (s *subscriptionService) SaveSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	var subs map[domain.Address]domain.Subscription
	if err := s.ledger.View(func(tx *ledger.Tx) error {
		subs = s.registry.Export(tx)
		return nil
	}); err != nil {
		return err
	}

	return s.snapshots.Save(subs)
}

// RestoreSnapshot загружает реестр подписок из хранилища снапшотов
func (s *subscriptionService) RestoreSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	subs, err := s.snapshots.Load()
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	return s.ledger.Submit(ctx, s.owner, 0, func(tx *ledger.Tx) error {
		return s.registry.Restore(tx, subs)
	})
}
