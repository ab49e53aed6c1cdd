package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatusAt(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  Subscription
		want SubscriptionStatus
	}{
		{
			name: "no record",
			sub:  Subscription{},
			want: SubscriptionStatusNone,
		},
		{
			name: "active before expiry",
			sub:  Subscription{Expiry: uint64(now.Unix()) + 1, Tier: TierBasic, IsActive: true},
			want: SubscriptionStatusActive,
		},
		{
			name: "lapsed exactly at expiry",
			sub:  Subscription{Expiry: uint64(now.Unix()), Tier: TierBasic, IsActive: true},
			want: SubscriptionStatusLapsed,
		},
		{
			name: "lapsed after expiry",
			sub:  Subscription{Expiry: uint64(now.Unix()) - 100, Tier: TierBasic, IsActive: true},
			want: SubscriptionStatusLapsed,
		},
		{
			name: "cancelled record with future expiry",
			sub:  Subscription{Expiry: uint64(now.Unix()) + 1000, Tier: TierBasic, IsActive: false},
			want: SubscriptionStatusNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.StatusAt(now))
			assert.Equal(t, tt.want == SubscriptionStatusActive, tt.sub.ValidAt(now))
		})
	}
}

func TestTierIsZero(t *testing.T) {
	assert.True(t, Tier{}.IsZero())
	assert.False(t, Tier{Price: 1}.IsZero())
	assert.False(t, Tier{Duration: 1}.IsZero())
	assert.False(t, Tier{Active: true}.IsZero())
}
