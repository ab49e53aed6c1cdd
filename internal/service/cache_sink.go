package service

import (
	"context"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/internal/ledger"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
)

// cacheSink инвалидирует кэш подписок по событиям леджера, чтобы кэш
// не пережил мутацию записи
type cacheSink struct {
	cache SubscriptionCache
	log   *logger.Logger
}

// NewCacheInvalidationSink создает приемник событий, инвалидирующий кэш
func NewCacheInvalidationSink(cache SubscriptionCache, log *logger.Logger) ledger.EventSink {
	return &cacheSink{
		cache: cache,
		log:   log,
	}
}

// Publish реализует ledger.EventSink
func (s *cacheSink) Publish(ctx context.Context, event domain.Event) error {
	switch event.Type {
	case domain.EventSubscriptionCreated, domain.EventSubscriptionRenewed, domain.EventSubscriptionCancelled:
		if err := s.cache.InvalidateSubscription(ctx, event.Account); err != nil {
			s.log.Warnw("Failed to invalidate subscription cache", "error", err, "account", event.Account)
		}
	}
	return nil
}
