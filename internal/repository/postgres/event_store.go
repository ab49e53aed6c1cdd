package postgres

import (
	"context"
	"fmt"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventStore архив событий леджера в PostgreSQL. События - единственный
// долговременный аудиторский след, архив делает его запрашиваемым.
type EventStore struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewEventStore создает архив событий
func NewEventStore(pool *pgxpool.Pool, log *logger.Logger) *EventStore {
	return &EventStore{
		pool: pool,
		log:  log,
	}
}

// Migrate создает таблицу архива, если ее нет
func (s *EventStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_events (
			id         UUID PRIMARY KEY,
			event_type TEXT        NOT NULL,
			account    TEXT        NOT NULL DEFAULT '',
			tier       SMALLINT    NOT NULL DEFAULT 0,
			amount     NUMERIC(38) NOT NULL DEFAULT 0,
			expiry     BIGINT      NOT NULL DEFAULT 0,
			token_id   BIGINT      NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_events_account ON ledger_events (account);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate ledger_events: %w", err)
	}
	return nil
}

// SaveEvent записывает событие в архив
func (s *EventStore) SaveEvent(ctx context.Context, event domain.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_events (id, event_type, account, tier, amount, expiry, token_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, event.ID, string(event.Type), string(event.Account), int16(event.Tier),
		event.Amount, event.Expiry, event.TokenID, event.Timestamp)
	if err != nil {
		s.log.Errorw("Failed to save ledger event", "error", err, "eventID", event.ID, "type", event.Type)
		return fmt.Errorf("failed to save event: %w", err)
	}

	s.log.Debugw("Ledger event archived", "eventID", event.ID, "type", event.Type)
	return nil
}

// ListByAccount возвращает события аккаунта в порядке возникновения
func (s *EventStore) ListByAccount(ctx context.Context, account domain.Address, limit int) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_type, account, tier, amount, expiry, token_id, created_at
		FROM ledger_events
		WHERE account = $1
		ORDER BY created_at
		LIMIT $2
	`, string(account), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			event     domain.Event
			eventType string
			account   string
			tier      int16
		)
		if err := rows.Scan(&event.ID, &eventType, &account, &tier,
			&event.Amount, &event.Expiry, &event.TokenID, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Type = domain.EventType(eventType)
		event.Account = domain.Address(account)
		event.Tier = domain.TierID(tier)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

// Publish реализует ledger.EventSink
func (s *EventStore) Publish(ctx context.Context, event domain.Event) error {
	return s.SaveEvent(ctx, event)
}
