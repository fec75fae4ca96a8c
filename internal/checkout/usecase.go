package checkout

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-storefront/internal/checkout/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
)

// ErrInProgress is returned while another request with the same idempotency
// key is still being committed.
var ErrInProgress = errors.New("checkout already in progress")

type UseCase interface {
	Quote(ctx context.Context, owner model.CartOwner, in dto.QuoteInput) (*dto.Summary, error)
	PlaceOrder(ctx context.Context, owner model.CartOwner, in dto.PlaceOrderInput) (*dto.PlaceOrderResult, error)
}

// CartReader supplies the cart snapshot to price.
type CartReader interface {
	Items(ctx context.Context, owner model.CartOwner) ([]model.CartItem, error)
}

// LocationReader resolves the selected pickup location; nil means none or
// inactive.
type LocationReader interface {
	GetActive(ctx context.Context, id string) (*model.PickupLocation, error)
}

// Committer turns a priced summary into a paid order.
type Committer interface {
	Commit(ctx context.Context, owner model.CartOwner, summary *dto.Summary) (*model.Order, error)
}
