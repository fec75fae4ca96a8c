package handler

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/internal/category"
	"github.com/fekuna/omnipos-storefront/internal/category/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const ServiceName = "storefront.v1.CategoryService"

type CategoryRequest struct {
	ID          string `json:"id,omitempty"`
	ParentID    string `json:"parent_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

type GetCategoryRequest struct {
	ID string `json:"id"`
}

type ListCategoriesRequest struct {
	ParentID        *string `json:"parent_id"`
	IncludeChildren bool    `json:"include_children"`
	Page            int     `json:"page"`
	PageSize        int     `json:"page_size"`
}

type ListCategoriesResponse struct {
	Categories []model.Category `json:"categories"`
	Total      int              `json:"total"`
}

type Empty struct{}

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) Register(s grpc.ServiceRegistrar) {
	rpc.Register(s, ServiceName, h,
		rpc.Unary(ServiceName, "CreateCategory", h.CreateCategory),
		rpc.Unary(ServiceName, "GetCategory", h.GetCategory),
		rpc.Unary(ServiceName, "ListCategories", h.ListCategories),
		rpc.Unary(ServiceName, "UpdateCategory", h.UpdateCategory),
		rpc.Unary(ServiceName, "DeleteCategory", h.DeleteCategory),
	)
}

func (h *CategoryHandler) CreateCategory(ctx context.Context, req *CategoryRequest) (*model.Category, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}

	input := &dto.CreateCategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if req.ParentID != "" {
		input.ParentID = &req.ParentID
	}

	cat, err := h.uc.CreateCategory(ctx, input)
	if err != nil {
		h.logger.Error("failed to create category", zap.Error(err))
		return nil, apperror.ToStatus(ctx, err)
	}
	return cat, nil
}

func (h *CategoryHandler) GetCategory(ctx context.Context, req *GetCategoryRequest) (*model.Category, error) {
	cat, err := h.uc.GetCategory(ctx, req.ID)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	if !cat.IsActive && !auth.FromContext(ctx).IsStaff {
		return nil, apperror.ToStatus(ctx, apperror.NotFound("category", req.ID))
	}
	return cat, nil
}

func (h *CategoryHandler) ListCategories(ctx context.Context, req *ListCategoriesRequest) (*ListCategoriesResponse, error) {
	filters := &dto.CategoryFilters{
		ParentID:        req.ParentID,
		IncludeChildren: req.IncludeChildren,
		Page:            req.Page,
		PageSize:        req.PageSize,
	}
	if !auth.FromContext(ctx).IsStaff {
		active := true
		filters.IsActive = &active
	}

	cats, count, err := h.uc.ListCategories(ctx, filters)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return &ListCategoriesResponse{Categories: cats, Total: count}, nil
}

func (h *CategoryHandler) UpdateCategory(ctx context.Context, req *CategoryRequest) (*model.Category, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}

	input := &dto.UpdateCategoryInput{
		ID:          req.ID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	}
	if req.ParentID != "" {
		input.ParentID = &req.ParentID
	}

	cat, err := h.uc.UpdateCategory(ctx, input)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return cat, nil
}

func (h *CategoryHandler) DeleteCategory(ctx context.Context, req *GetCategoryRequest) (*Empty, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}
	if err := h.uc.DeleteCategory(ctx, req.ID); err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return &Empty{}, nil
}
