package product

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error

	// Images
	ListImages(ctx context.Context, productIDs []string) ([]model.ProductImage, error)
	AddImage(ctx context.Context, image *model.ProductImage) error
	DeleteImage(ctx context.Context, productID, imageID string) error
}

// MovementLogger records the INITIAL inventory movement of a new product.
type MovementLogger interface {
	LogMovement(ctx context.Context, movement *model.InventoryMovement) error
}
