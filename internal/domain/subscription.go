package domain

import "time"

// Address идентификатор аккаунта в леджере (hex-строка, сравнивается как есть)
type Address string

// ZeroAddress нулевой адрес
const ZeroAddress Address = ""

// TierID идентификатор тарифа
type TierID uint8

// Tier представляет собой тариф из каталога
type Tier struct {
	// Минимально допустимая оплата за один период, в минимальных единицах валюты
	Price uint64 `json:"price"`
	// Длительность периода в секундах
	Duration uint64 `json:"duration"`
	// Можно ли сейчас покупать или продлевать этот тариф
	Active bool `json:"active"`
}

// IsZero проверяет, что тариф отсутствует в каталоге
func (t Tier) IsZero() bool {
	return t.Price == 0 && t.Duration == 0 && !t.Active
}

// Subscription представляет собой запись подписки аккаунта
type Subscription struct {
	// Unix-время (секунды), после которого подписка недействительна
	Expiry uint64 `json:"expiry"`
	// Текущий тариф аккаунта
	Tier TierID `json:"tier"`
	// Была ли подписка когда-либо оформлена и не отменена
	IsActive bool `json:"is_active"`
}

// SubscriptionStatus производный статус подписки (не хранится, вычисляется по времени)
type SubscriptionStatus string

const (
	// SubscriptionStatusNone запись отсутствует или отменена
	SubscriptionStatusNone SubscriptionStatus = "none"
	// SubscriptionStatusActive запись есть и срок не истек
	SubscriptionStatusActive SubscriptionStatus = "active"
	// SubscriptionStatusLapsed запись есть, но срок истек
	SubscriptionStatusLapsed SubscriptionStatus = "lapsed"
)

// StatusAt вычисляет статус подписки на заданный момент времени
func (s Subscription) StatusAt(now time.Time) SubscriptionStatus {
	if !s.IsActive {
		return SubscriptionStatusNone
	}
	if s.Expiry > uint64(now.Unix()) {
		return SubscriptionStatusActive
	}
	return SubscriptionStatusLapsed
}

// ValidAt проверяет, действительна ли подписка на заданный момент времени
func (s Subscription) ValidAt(now time.Time) bool {
	return s.IsActive && s.Expiry > uint64(now.Unix())
}

// Тарифы по умолчанию, создаются при инициализации реестра
const (
	// TierBasic базовый тариф
	TierBasic TierID = 1
	// TierPremium расширенный тариф
	TierPremium TierID = 2

	// TierBasicPrice 0.01 в минимальных единицах (18 знаков)
	TierBasicPrice uint64 = 10_000_000_000_000_000
	// TierPremiumPrice 0.05 в минимальных единицах (18 знаков)
	TierPremiumPrice uint64 = 50_000_000_000_000_000

	// DefaultTierDuration 30 дней в секундах
	DefaultTierDuration uint64 = 30 * 24 * 3600
)
