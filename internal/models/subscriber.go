package models

import (
	"strings"
	"time"
)

// Subscriber is a landing page signup.
// IsAwaitingLaunch keeps the legacy "isComingSoon" key so existing documents load unchanged.
type Subscriber struct {
	Email            string    `json:"email"        bson:"email"`
	IsAwaitingLaunch bool      `json:"isComingSoon" bson:"isComingSoon"`
	FollowUpSent     bool      `json:"followUpSent" bson:"followUpSent"`
	CreatedAt        time.Time `json:"created"      bson:"createdAt"`
	UpdatedAt        time.Time `json:"modified"     bson:"updatedAt"`
}

// NewSubscriber returns a subscriber in the awaiting-launch state.
func NewSubscriber(email string, now time.Time) *Subscriber {
	return &Subscriber{
		Email:            NormalizeEmail(email),
		IsAwaitingLaunch: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Active reports whether the subscriber already received the live notice.
func (s *Subscriber) Active() bool { return !s.IsAwaitingLaunch }

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
