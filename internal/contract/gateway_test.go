package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gatewayAccount = domain.Address("0xgateway")

func newTestGateway(t *testing.T, l *ledger.Ledger) (*PaymentGateway, *SubscriptionRegistry) {
	t.Helper()
	registry := NewSubscriptionRegistry(testOwner)
	gateway := NewPaymentGateway(testOwner, gatewayAccount, registry)

	require.NoError(t, l.Submit(context.Background(), testOwner, 0, func(tx *ledger.Tx) error {
		return registry.SetProcessor(tx, gateway.Address())
	}))
	return gateway, registry
}

func purchase(l *ledger.Ledger, gateway *PaymentGateway, buyer domain.Address, tierID domain.TierID, amount uint64) error {
	return l.Submit(context.Background(), buyer, amount, func(tx *ledger.Tx) error {
		return gateway.PurchaseSubscription(tx, tierID)
	})
}

func TestPurchaseCreatesSubscription(t *testing.T) {
	l := newTestLedger(t)
	gateway, registry := newTestGateway(t, l)
	l.Fund(testAccount, domain.TierBasicPrice)

	require.NoError(t, purchase(l, gateway, testAccount, domain.TierBasic, domain.TierBasicPrice))

	assert.Equal(t, uint64(0), l.Balance(testAccount))
	assert.Equal(t, domain.TierBasicPrice, l.Balance(gatewayAccount))

	require.NoError(t, l.View(func(tx *ledger.Tx) error {
		sub := registry.GetSubscription(tx, testAccount)
		assert.True(t, sub.IsActive)
		assert.Equal(t, domain.TierBasic, sub.Tier)
		assert.Equal(t, uint64(testNow.Unix())+domain.DefaultTierDuration, sub.Expiry)
		return nil
	}))
}

func TestPurchaseInsufficientPaymentLeavesFunds(t *testing.T) {
	l := newTestLedger(t)
	gateway, registry := newTestGateway(t, l)
	l.Fund(testAccount, domain.TierBasicPrice)

	err := purchase(l, gateway, testAccount, domain.TierBasic, domain.TierBasicPrice-1)
	require.ErrorIs(t, err, domain.ErrInsufficientPayment)

	// Отклоненная покупка не трогает ни балансы, ни реестр
	assert.Equal(t, domain.TierBasicPrice, l.Balance(testAccount))
	assert.Equal(t, uint64(0), l.Balance(gatewayAccount))
	require.NoError(t, l.View(func(tx *ledger.Tx) error {
		assert.False(t, registry.GetSubscription(tx, testAccount).IsActive)
		return nil
	}))
}

func TestPurchaseOverpaymentRetained(t *testing.T) {
	l := newTestLedger(t)
	gateway, _ := newTestGateway(t, l)
	overpaid := domain.TierBasicPrice * 3
	l.Fund(testAccount, overpaid)

	require.NoError(t, purchase(l, gateway, testAccount, domain.TierBasic, overpaid))

	// Переплата не возвращается, весь платеж остается на счете шлюза
	assert.Equal(t, uint64(0), l.Balance(testAccount))
	assert.Equal(t, overpaid, l.Balance(gatewayAccount))
}

func TestPurchaseUnknownTierRejected(t *testing.T) {
	l := newTestLedger(t)
	gateway, _ := newTestGateway(t, l)
	l.Fund(testAccount, domain.TierBasicPrice)

	err := purchase(l, gateway, testAccount, 42, domain.TierBasicPrice)
	require.ErrorIs(t, err, domain.ErrInvalidTier)
}

func TestPurchaseInactiveTierRejected(t *testing.T) {
	l := newTestLedger(t)
	gateway, registry := newTestGateway(t, l)
	l.Fund(testAccount, domain.TierBasicPrice)

	require.NoError(t, l.Submit(context.Background(), testOwner, 0, func(tx *ledger.Tx) error {
		return registry.SetTier(tx, domain.TierBasic, domain.TierBasicPrice, domain.DefaultTierDuration, false)
	}))

	err := purchase(l, gateway, testAccount, domain.TierBasic, domain.TierBasicPrice)
	require.ErrorIs(t, err, domain.ErrInvalidTier)
}

func TestPurchaseValueExceedsBalance(t *testing.T) {
	l := newTestLedger(t)
	gateway, _ := newTestGateway(t, l)
	l.Fund(testAccount, domain.TierBasicPrice/2)

	err := purchase(l, gateway, testAccount, domain.TierBasic, domain.TierBasicPrice)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, domain.TierBasicPrice/2, l.Balance(testAccount))
}

func TestPurchaseBlockedWhenGatewayPaused(t *testing.T) {
	l := newTestLedger(t)
	gateway, _ := newTestGateway(t, l)
	l.Fund(testAccount, domain.TierBasicPrice)

	require.NoError(t, l.Submit(context.Background(), testOwner, 0, func(tx *ledger.Tx) error {
		return gateway.Pause(tx)
	}))

	err := purchase(l, gateway, testAccount, domain.TierBasic, domain.TierBasicPrice)
	require.ErrorIs(t, err, domain.ErrOperationalHalt)

	require.NoError(t, l.Submit(context.Background(), testOwner, 0, func(tx *ledger.Tx) error {
		return gateway.Unpause(tx)
	}))
	require.NoError(t, purchase(l, gateway, testAccount, domain.TierBasic, domain.TierBasicPrice))
}

func TestPurchaseBlockedWhenRegistryPaused(t *testing.T) {
	l := newTestLedger(t)
	gateway, registry := newTestGateway(t, l)
	l.Fund(testAccount, domain.TierBasicPrice)

	// Предохранители шлюза и реестра независимы: пауза реестра
	// останавливает покупку даже при работающем шлюзе
	require.NoError(t, l.Submit(context.Background(), testOwner, 0, func(tx *ledger.Tx) error {
		return registry.Pause(tx)
	}))

	err := purchase(l, gateway, testAccount, domain.TierBasic, domain.TierBasicPrice)
	require.ErrorIs(t, err, domain.ErrOperationalHalt)
	assert.Equal(t, domain.TierBasicPrice, l.Balance(testAccount))
}

func TestWithdrawOnlyOwner(t *testing.T) {
	l := newTestLedger(t)
	gateway, _ := newTestGateway(t, l)

	err := l.Submit(context.Background(), testAccount, 0, func(tx *ledger.Tx) error {
		return gateway.Withdraw(tx, testAccount, 1)
	})
	require.ErrorIs(t, err, domain.ErrUnauthorizedCaller)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	l := newTestLedger(t)
	gateway, _ := newTestGateway(t, l)
	l.Fund(gatewayAccount, 100)

	err := l.Submit(context.Background(), testOwner, 0, func(tx *ledger.Tx) error {
		return gateway.Withdraw(tx, testOwner, 101)
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, uint64(100), l.Balance(gatewayAccount))
}

func TestWithdrawConservesFunds(t *testing.T) {
	l := newTestLedger(t)
	gateway, _ := newTestGateway(t, l)
	l.Fund(testAccount, domain.TierPremiumPrice)

	require.NoError(t, purchase(l, gateway, testAccount, domain.TierPremium, domain.TierPremiumPrice))
	require.NoError(t, l.Submit(context.Background(), testOwner, 0, func(tx *ledger.Tx) error {
		return gateway.Withdraw(tx, testOwner, domain.TierPremiumPrice)
	}))

	assert.Equal(t, uint64(0), l.Balance(gatewayAccount))
	assert.Equal(t, domain.TierPremiumPrice, l.Balance(testOwner))
}

func TestWithdrawRecipientRejectionRevertsAll(t *testing.T) {
	l := newTestLedger(t)
	gateway, _ := newTestGateway(t, l)
	l.Fund(gatewayAccount, 500)

	l.RegisterHook(testOwner, func(tx *ledger.Tx, from domain.Address, amount uint64) error {
		return errors.New("receiver contract reverted")
	})

	err := l.Submit(context.Background(), testOwner, 0, func(tx *ledger.Tx) error {
		return gateway.Withdraw(tx, testOwner, 500)
	})
	require.ErrorIs(t, err, domain.ErrTransferRejected)
	assert.Equal(t, uint64(500), l.Balance(gatewayAccount))
	assert.Equal(t, uint64(0), l.Balance(testOwner))
}

func TestPurchaseRejectedWhenGatewayNotProcessor(t *testing.T) {
	l := newTestLedger(t)
	registry := NewSubscriptionRegistry(testOwner)
	gateway := NewPaymentGateway(testOwner, gatewayAccount, registry)
	l.Fund(testAccount, domain.TierBasicPrice)

	// Процессором назначен чужой адрес: реестр отклоняет шлюз
	require.NoError(t, l.Submit(context.Background(), testOwner, 0, func(tx *ledger.Tx) error {
		return registry.SetProcessor(tx, "0xsomeoneelse")
	}))

	err := purchase(l, gateway, testAccount, domain.TierBasic, domain.TierBasicPrice)
	require.ErrorIs(t, err, domain.ErrUnauthorizedCaller)
	assert.Equal(t, domain.TierBasicPrice, l.Balance(testAccount))
}

func TestTransferHookLacksSubmitterAuthority(t *testing.T) {
	l := newTestLedger(t)
	gateway, registry := newTestGateway(t, l)
	l.Fund(gatewayAccount, 500)

	// Код получателя пытается воспользоваться правами владельца,
	// инициировавшего вывод, и перенастроить реестр на себя
	recipient := domain.Address("0xrecipient")
	var hijackErr error
	l.RegisterHook(recipient, func(tx *ledger.Tx, from domain.Address, amount uint64) error {
		hijackErr = registry.SetProcessor(tx, "0xattacker")
		return nil
	})

	require.NoError(t, l.Submit(context.Background(), testOwner, 0, func(tx *ledger.Tx) error {
		return gateway.Withdraw(tx, recipient, 500)
	}))

	require.ErrorIs(t, hijackErr, domain.ErrUnauthorizedCaller)
	assert.Equal(t, gateway.Address(), registry.Processor())
	assert.Equal(t, uint64(500), l.Balance(recipient))
}

func TestWithdrawReentrancyBlocked(t *testing.T) {
	l := newTestLedger(t)
	gateway, _ := newTestGateway(t, l)
	l.Fund(gatewayAccount, 1000)

	// Получатель пытается повторно войти в вывод средств из своего хука
	var reentrantErr error
	l.RegisterHook(testOwner, func(tx *ledger.Tx, from domain.Address, amount uint64) error {
		reentrantErr = gateway.Withdraw(tx, testOwner, 100)
		return nil
	})

	require.NoError(t, l.Submit(context.Background(), testOwner, 0, func(tx *ledger.Tx) error {
		return gateway.Withdraw(tx, testOwner, 100)
	}))

	require.ErrorIs(t, reentrantErr, domain.ErrReentrantCall)
	// Прошел только внешний вывод
	assert.Equal(t, uint64(900), l.Balance(gatewayAccount))
	assert.Equal(t, uint64(100), l.Balance(testOwner))
}

func TestPurchaseRenewalScenario(t *testing.T) {
	l := newTestLedger(t)
	gateway, registry := newTestGateway(t, l)
	l.Fund(testAccount, domain.TierBasicPrice*2)

	require.NoError(t, purchase(l, gateway, testAccount, domain.TierBasic, domain.TierBasicPrice))

	// Повторная покупка через 10 дней продлевает от старого expiry
	l.SetClock(func() time.Time { return testNow.Add(10 * 24 * time.Hour) })
	require.NoError(t, purchase(l, gateway, testAccount, domain.TierBasic, domain.TierBasicPrice))

	require.NoError(t, l.View(func(tx *ledger.Tx) error {
		sub := registry.GetSubscription(tx, testAccount)
		assert.Equal(t, uint64(testNow.Unix())+2*domain.DefaultTierDuration, sub.Expiry)
		return nil
	}))
	assert.Equal(t, domain.TierBasicPrice*2, l.Balance(gatewayAccount))
}
