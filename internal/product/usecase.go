package product

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// Image ops
	AddImage(ctx context.Context, input *dto.AddImageInput) (*model.ProductImage, error)
	RemoveImage(ctx context.Context, productID, imageID string) error

	ListingInvalidator
}

// ListingInvalidator drops cached list pages. Stock and seat writers call it
// after their transaction commits.
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context)
}
