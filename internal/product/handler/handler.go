package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/product"
	"github.com/fekuna/omnipos-storefront/internal/product/dto"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const ServiceName = "storefront.v1.CatalogService"

type ProductRequest struct {
	ID          string          `json:"id,omitempty"`
	CategoryID  string          `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Type        string          `json:"product_type"`
	IsActive    bool            `json:"is_active"`
	IsFeatured  bool            `json:"is_featured"`
	Taxable     bool            `json:"taxable"`

	QuantityInStock int `json:"quantity_in_stock"`

	DigitalFile string `json:"digital_file"`
	DigitalURL  string `json:"digital_url"`

	ServiceSeats           *int       `json:"service_seats"`
	ServiceStartsAt        *time.Time `json:"service_starts_at"`
	ServiceDurationMinutes *int       `json:"service_duration_minutes"`
	ServiceLocation        string     `json:"service_location"`
}

type GetProductRequest struct {
	ID string `json:"id"`
}

type ListProductsRequest struct {
	dto.ProductFilters
}

type ListProductsResponse struct {
	Products []ProductView `json:"products"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type AddImageRequest struct {
	ProductID    string `json:"product_id"`
	URL          string `json:"url"`
	AltText      string `json:"alt_text"`
	DisplayOrder int    `json:"display_order"`
	IsMain       bool   `json:"is_main"`
}

type RemoveImageRequest struct {
	ProductID string `json:"product_id"`
	ImageID   string `json:"image_id"`
}

type Empty struct{}

// ProductView is the catalog representation shown to shoppers.
type ProductView struct {
	model.Product
	AvailabilityText string `json:"availability_text"`
	MainImageURL     string `json:"main_image_url,omitempty"`
}

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) Register(s grpc.ServiceRegistrar) {
	rpc.Register(s, ServiceName, h,
		rpc.Unary(ServiceName, "CreateProduct", h.CreateProduct),
		rpc.Unary(ServiceName, "GetProduct", h.GetProduct),
		rpc.Unary(ServiceName, "ListProducts", h.ListProducts),
		rpc.Unary(ServiceName, "UpdateProduct", h.UpdateProduct),
		rpc.Unary(ServiceName, "DeleteProduct", h.DeleteProduct),
		rpc.Unary(ServiceName, "AddProductImage", h.AddProductImage),
		rpc.Unary(ServiceName, "RemoveProductImage", h.RemoveProductImage),
	)
}

func (h *ProductHandler) CreateProduct(ctx context.Context, req *ProductRequest) (*ProductView, error) {
	id, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}

	input := &dto.CreateProductInput{
		CategoryID:             req.CategoryID,
		Name:                   req.Name,
		Description:            req.Description,
		Price:                  req.Price,
		Type:                   req.Type,
		IsFeatured:             req.IsFeatured,
		Taxable:                req.Taxable,
		QuantityInStock:        req.QuantityInStock,
		DigitalFile:            req.DigitalFile,
		DigitalURL:             req.DigitalURL,
		ServiceSeats:           req.ServiceSeats,
		ServiceStartsAt:        req.ServiceStartsAt,
		ServiceDurationMinutes: req.ServiceDurationMinutes,
		ServiceLocation:        req.ServiceLocation,
		CreatedBy:              id.UserID,
	}

	p, err := h.uc.CreateProduct(ctx, input)
	if err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		return nil, apperror.ToStatus(ctx, err)
	}
	return toView(p), nil
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *GetProductRequest) (*ProductView, error) {
	p, err := h.uc.GetProduct(ctx, req.ID)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	// Inactive products are hidden from shoppers
	if !p.IsActive && !auth.FromContext(ctx).IsStaff {
		return nil, apperror.ToStatus(ctx, apperror.NotFound("product", req.ID))
	}
	return toView(p), nil
}

func (h *ProductHandler) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	filters := req.ProductFilters
	if !auth.FromContext(ctx).IsStaff {
		active := true
		filters.IsActive = &active
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 12
	}

	products, count, err := h.uc.ListProducts(ctx, &filters)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		return nil, apperror.ToStatus(ctx, err)
	}

	views := make([]ProductView, len(products))
	for i := range products {
		views[i] = *toView(&products[i])
	}

	return &ListProductsResponse{
		Products: views,
		Total:    count,
		Page:     filters.Page,
		PageSize: filters.PageSize,
	}, nil
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, req *ProductRequest) (*ProductView, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}

	input := &dto.UpdateProductInput{
		ID:                     req.ID,
		CategoryID:             req.CategoryID,
		Name:                   req.Name,
		Description:            req.Description,
		Price:                  req.Price,
		IsActive:               req.IsActive,
		IsFeatured:             req.IsFeatured,
		Taxable:                req.Taxable,
		DigitalFile:            req.DigitalFile,
		DigitalURL:             req.DigitalURL,
		ServiceStartsAt:        req.ServiceStartsAt,
		ServiceDurationMinutes: req.ServiceDurationMinutes,
		ServiceLocation:        req.ServiceLocation,
	}

	p, err := h.uc.UpdateProduct(ctx, input)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return toView(p), nil
}

func (h *ProductHandler) DeleteProduct(ctx context.Context, req *GetProductRequest) (*Empty, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}
	if err := h.uc.DeleteProduct(ctx, req.ID); err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return &Empty{}, nil
}

func (h *ProductHandler) AddProductImage(ctx context.Context, req *AddImageRequest) (*model.ProductImage, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}
	img, err := h.uc.AddImage(ctx, &dto.AddImageInput{
		ProductID:    req.ProductID,
		URL:          req.URL,
		AltText:      req.AltText,
		DisplayOrder: req.DisplayOrder,
		IsMain:       req.IsMain,
	})
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return img, nil
}

func (h *ProductHandler) RemoveProductImage(ctx context.Context, req *RemoveImageRequest) (*Empty, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}
	if err := h.uc.RemoveImage(ctx, req.ProductID, req.ImageID); err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return &Empty{}, nil
}

func toView(p *model.Product) *ProductView {
	return &ProductView{
		Product:          *p,
		AvailabilityText: p.AvailabilityText(),
		MainImageURL:     p.MainImageURL(),
	}
}
