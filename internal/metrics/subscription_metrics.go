package metrics

import (
	"context"
	"strconv"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SubscriptionMetrics интерфейс для метрик подписок и платежей
type SubscriptionMetrics interface {
	IncSubscriptionCreated(tier string)
	IncSubscriptionRenewed(tier string)
	IncSubscriptionCancelled()
	IncPurchaseRejected(reason string)
	ObservePaymentAmount(amount float64, tier string)
	ObserveWithdrawal(amount float64)

	// Publish реализует ledger.EventSink: метрики обновляются событиями леджера
	Publish(ctx context.Context, event domain.Event) error
}

type subscriptionMetrics struct {
	log               *logger.Logger
	subscriptionsByOp *prometheus.CounterVec
	purchasesRejected *prometheus.CounterVec
	paymentsAmount    *prometheus.HistogramVec
	withdrawalsAmount prometheus.Histogram
}

// NewSubscriptionMetrics создает новые метрики подписок
func NewSubscriptionMetrics(registry *prometheus.Registry, log *logger.Logger) SubscriptionMetrics {
	subscriptionsByOp := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_operations_total",
			Help: "The total number of subscription operations by type",
		},
		[]string{"operation", "tier"},
	)

	purchasesRejected := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_rejected_total",
			Help: "The total number of rejected purchases by reason",
		},
		[]string{"reason"},
	)

	paymentsAmount := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payments_amount",
			Help:    "Payment amounts distribution in native units",
			Buckets: prometheus.ExponentialBuckets(1e15, 10, 6),
		},
		[]string{"tier"},
	)

	withdrawalsAmount := promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "withdrawals_amount",
			Help:    "Withdrawal amounts distribution in native units",
			Buckets: prometheus.ExponentialBuckets(1e15, 10, 6),
		},
	)

	return &subscriptionMetrics{
		log:               log,
		subscriptionsByOp: subscriptionsByOp,
		purchasesRejected: purchasesRejected,
		paymentsAmount:    paymentsAmount,
		withdrawalsAmount: withdrawalsAmount,
	}
}

// IncSubscriptionCreated увеличивает счетчик созданных подписок
func (m *subscriptionMetrics) IncSubscriptionCreated(tier string) {
	m.subscriptionsByOp.WithLabelValues("created", tier).Inc()
}

// IncSubscriptionRenewed увеличивает счетчик продленных подписок
func (m *subscriptionMetrics) IncSubscriptionRenewed(tier string) {
	m.subscriptionsByOp.WithLabelValues("renewed", tier).Inc()
}

// IncSubscriptionCancelled увеличивает счетчик отмененных подписок
func (m *subscriptionMetrics) IncSubscriptionCancelled() {
	m.subscriptionsByOp.WithLabelValues("cancelled", "").Inc()
}

// IncPurchaseRejected увеличивает счетчик отклоненных покупок
func (m *subscriptionMetrics) IncPurchaseRejected(reason string) {
	m.purchasesRejected.WithLabelValues(reason).Inc()
}

// ObservePaymentAmount записывает сумму платежа
func (m *subscriptionMetrics) ObservePaymentAmount(amount float64, tier string) {
	m.paymentsAmount.WithLabelValues(tier).Observe(amount)
}

// ObserveWithdrawal записывает сумму вывода
func (m *subscriptionMetrics) ObserveWithdrawal(amount float64) {
	m.withdrawalsAmount.Observe(amount)
}

// Publish обновляет метрики по событию леджера
func (m *subscriptionMetrics) Publish(ctx context.Context, event domain.Event) error {
	tier := tierLabel(event.Tier)

	switch event.Type {
	case domain.EventSubscriptionCreated:
		m.IncSubscriptionCreated(tier)
	case domain.EventSubscriptionRenewed:
		m.IncSubscriptionRenewed(tier)
	case domain.EventSubscriptionCancelled:
		m.IncSubscriptionCancelled()
	case domain.EventPaymentReceived:
		m.ObservePaymentAmount(float64(event.Amount), tier)
	case domain.EventFundsWithdrawn:
		m.ObserveWithdrawal(float64(event.Amount))
	}
	return nil
}

func tierLabel(id domain.TierID) string {
	return strconv.Itoa(int(id))
}
