package models

import (
	"slices"
	"time"
)

const (
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Account is the tenant. Every user, client and product belongs to one.
type Account struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Slug     string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Phone    string `gorm:"size:20" json:"phone"`
	Address  string `gorm:"size:255" json:"address"`
	Timezone string `gorm:"size:64" json:"timezone"`

	SubscriptionStatus string     `gorm:"size:20;default:'trialing'" json:"subscription_status"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at"`
	Services           []string   `gorm:"serializer:json" json:"services"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscriptionActiveAt reports whether the subscription grants access at now.
func (a *Account) SubscriptionActiveAt(now time.Time) bool {
	switch a.SubscriptionStatus {
	case SubscriptionActive, SubscriptionTrialing:
	default:
		return false
	}
	return a.SubscriptionEndsAt == nil || now.Before(*a.SubscriptionEndsAt)
}

func (a *Account) HasService(service string) bool {
	return slices.Contains(a.Services, service)
}
