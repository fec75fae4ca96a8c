package cart

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/cart/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
)

type UseCase interface {
	AddItem(ctx context.Context, owner model.CartOwner, productID string, qty int) (*dto.CartView, error)
	UpdateQuantity(ctx context.Context, owner model.CartOwner, productID string, qty int) (*dto.CartView, error)
	RemoveItem(ctx context.Context, owner model.CartOwner, productID string) (*dto.CartView, error)
	GetCart(ctx context.Context, owner model.CartOwner) (*dto.CartView, error)
	// Items returns the lines with their products, skipping inactive ones.
	Items(ctx context.Context, owner model.CartOwner) ([]model.CartItem, error)
	Count(ctx context.Context, owner model.CartOwner) (int, error)
	Clear(ctx context.Context, owner model.CartOwner) error
	TransferSessionCart(ctx context.Context, sessionID, userID string) error
}
