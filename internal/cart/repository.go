package cart

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/model"
)

type Repository interface {
	// List returns the owner's items newest first, without products attached.
	List(ctx context.Context, owner model.CartOwner) ([]model.CartItem, error)
	FindItem(ctx context.Context, owner model.CartOwner, productID string) (*model.CartItem, error)
	// Add inserts the line or increments the existing one for the product.
	Add(ctx context.Context, owner model.CartOwner, productID string, qty int) error
	SetQuantity(ctx context.Context, owner model.CartOwner, productID string, qty int) error
	Remove(ctx context.Context, owner model.CartOwner, productID string) error
	Clear(ctx context.Context, owner model.CartOwner) error
	DeleteItems(ctx context.Context, ids []string) error
	// TransferSession re-owns session lines to the user, summing quantities
	// for products the user already holds.
	TransferSession(ctx context.Context, sessionID, userID string) (int, error)
}

// ProductReader is the slice of the catalog the cart needs.
type ProductReader interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}
