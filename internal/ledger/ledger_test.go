package ledger

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return New(log)
}

type captureSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *captureSink) Publish(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func TestFundAndBalance(t *testing.T) {
	l := newTestLedger(t)

	l.Fund("alice", 100)
	l.Fund("alice", 50)

	assert.Equal(t, uint64(150), l.Balance("alice"))
	assert.Equal(t, uint64(0), l.Balance("bob"))
}

func TestSubmitRollsBackNothingOnError(t *testing.T) {
	l := newTestLedger(t)
	sink := &captureSink{}
	l.AttachSink(sink)
	l.Fund("alice", 100)

	callErr := errors.New("precondition failed")
	err := l.Submit(context.Background(), "alice", 100, func(tx *Tx) error {
		tx.Emit(domain.NewEvent(domain.EventPaymentReceived, tx.Now()))
		return callErr
	})

	require.ErrorIs(t, err, callErr)
	// Ошибка вызова: ни событий, ни изменений балансов
	assert.Empty(t, sink.events)
	assert.Equal(t, uint64(100), l.Balance("alice"))
}

func TestSubmitPublishesEventsAfterCommit(t *testing.T) {
	l := newTestLedger(t)
	sink := &captureSink{}
	l.AttachSink(sink)

	err := l.Submit(context.Background(), "alice", 0, func(tx *Tx) error {
		event := domain.NewEvent(domain.EventSubscriptionCreated, tx.Now())
		event.Account = "alice"
		tx.Emit(event)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, sink.events, 1)
	assert.Equal(t, domain.EventSubscriptionCreated, sink.events[0].Type)
	assert.Equal(t, domain.Address("alice"), sink.events[0].Account)
	assert.NotEmpty(t, sink.events[0].ID)
}

func TestClaimValueMovesAttachedFunds(t *testing.T) {
	l := newTestLedger(t)
	l.Fund("alice", 200)

	err := l.Submit(context.Background(), "alice", 150, func(tx *Tx) error {
		return tx.ClaimValue("vault")
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(50), l.Balance("alice"))
	assert.Equal(t, uint64(150), l.Balance("vault"))
}

func TestClaimValueFailsTwice(t *testing.T) {
	l := newTestLedger(t)
	l.Fund("alice", 100)

	err := l.Submit(context.Background(), "alice", 100, func(tx *Tx) error {
		require.NoError(t, tx.ClaimValue("vault"))
		return tx.ClaimValue("vault")
	})

	require.Error(t, err)
}

func TestClaimValueInsufficientFunds(t *testing.T) {
	l := newTestLedger(t)
	l.Fund("alice", 10)

	err := l.Submit(context.Background(), "alice", 100, func(tx *Tx) error {
		return tx.ClaimValue("vault")
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, uint64(10), l.Balance("alice"))
	assert.Equal(t, uint64(0), l.Balance("vault"))
}

func TestTransferRunsRecipientHook(t *testing.T) {
	l := newTestLedger(t)
	l.Fund("vault", 100)

	var hookFrom domain.Address
	var hookAmount uint64
	l.RegisterHook("bob", func(tx *Tx, from domain.Address, amount uint64) error {
		hookFrom = from
		hookAmount = amount
		return nil
	})

	err := l.Submit(context.Background(), "owner", 0, func(tx *Tx) error {
		return tx.Transfer("vault", "bob", 60)
	})

	require.NoError(t, err)
	assert.Equal(t, domain.Address("vault"), hookFrom)
	assert.Equal(t, uint64(60), hookAmount)
	assert.Equal(t, uint64(40), l.Balance("vault"))
	assert.Equal(t, uint64(60), l.Balance("bob"))
}

func TestTransferRevertsWhenRecipientRejects(t *testing.T) {
	l := newTestLedger(t)
	l.Fund("vault", 100)
	l.RegisterHook("bob", func(tx *Tx, from domain.Address, amount uint64) error {
		return errors.New("no thanks")
	})

	err := l.Submit(context.Background(), "owner", 0, func(tx *Tx) error {
		return tx.Transfer("vault", "bob", 60)
	})

	require.Error(t, err)
	assert.Equal(t, uint64(100), l.Balance("vault"))
	assert.Equal(t, uint64(0), l.Balance("bob"))
}

func TestAsScopesCallerFrame(t *testing.T) {
	l := newTestLedger(t)

	err := l.Submit(context.Background(), "alice", 0, func(tx *Tx) error {
		assert.Equal(t, domain.Address("alice"), tx.Caller())

		innerErr := tx.As("contract", func() error {
			assert.Equal(t, domain.Address("contract"), tx.Caller())
			assert.Equal(t, domain.Address("alice"), tx.Origin())
			return nil
		})
		require.NoError(t, innerErr)

		// Кадр восстанавливается и после успешного, и после неудачного вызова
		assert.Equal(t, domain.Address("alice"), tx.Caller())
		_ = tx.As("contract", func() error { return errors.New("boom") })
		assert.Equal(t, domain.Address("alice"), tx.Caller())
		return nil
	})
	require.NoError(t, err)
}

func TestTransferHookRunsInRecipientFrame(t *testing.T) {
	l := newTestLedger(t)
	l.Fund("vault", 100)

	var hookCaller domain.Address
	l.RegisterHook("bob", func(tx *Tx, from domain.Address, amount uint64) error {
		hookCaller = tx.Caller()
		return nil
	})

	err := l.Submit(context.Background(), "owner", 0, func(tx *Tx) error {
		return tx.Transfer("vault", "bob", 60)
	})

	require.NoError(t, err)
	// Код получателя видит себя отправителем, а не инициатора вызова
	assert.Equal(t, domain.Address("bob"), hookCaller)
}

func TestSetClockControlsTxTime(t *testing.T) {
	l := newTestLedger(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return fixed })

	err := l.View(func(tx *Tx) error {
		assert.Equal(t, fixed, tx.Now())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, fixed, l.Now())
}

func TestSubmitSerializesConcurrentCalls(t *testing.T) {
	l := newTestLedger(t)
	l.Fund("source", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Submit(context.Background(), "caller", 0, func(tx *Tx) error {
				return tx.Transfer("source", "dest", 10)
			})
		}()
	}
	wg.Wait()

	// Каждый из 100 переводов по 10 единиц применился ровно один раз
	assert.Equal(t, uint64(0), l.Balance("source"))
	assert.Equal(t, uint64(1000), l.Balance("dest"))
}
