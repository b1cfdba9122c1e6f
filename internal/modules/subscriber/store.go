package subscriber

import (
	"context"
	"errors"

	"github.com/mx-space/landing/internal/models"
)

var (
	ErrEmailRequired = errors.New("email is required")
	ErrDuplicate     = errors.New("already subscribed")
	ErrNotFound      = errors.New("subscriber not found")
)

// Store persists subscribers. Emails are normalized by every implementation,
// so callers may pass raw user input.
type Store interface {
	Create(ctx context.Context, email string) (*models.Subscriber, error)
	FindAwaitingLaunch(ctx context.Context) ([]models.Subscriber, error)
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	// MarkActive flips the subscriber to active and records the follow-up in one write.
	MarkActive(ctx context.Context, email string) error
	Delete(ctx context.Context, email string) (bool, error)
	CountActive(ctx context.Context) (int64, error)
}

// SiteLive reports whether at least one subscriber has been activated.
func SiteLive(ctx context.Context, s Store) (bool, error) {
	n, err := s.CountActive(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
