package repository

import (
	"context"

	"github.com/foodieexpress/storefront/internal/domain"
)

// CartRepository persists carts keyed by session ID so they survive restarts.
type CartRepository interface {
	// Get retrieves the cart for a session. A missing cart yields an
	// apperrors.ErrNotFound error.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save persists the cart, overwriting any previous value for the session.
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error

	// Delete removes the stored cart for the session.
	Delete(ctx context.Context, sessionID string) error
}
