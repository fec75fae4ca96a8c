package handler

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/internal/inventory"
	"github.com/fekuna/omnipos-storefront/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "storefront.v1.InventoryService"

type AdjustInventoryRequest struct {
	ProductID      string `json:"product_id"`
	Counter        string `json:"counter"`
	MovementType   string `json:"movement_type"`
	QuantityChange int    `json:"quantity_change"`
	Reason         string `json:"reason"`
	ReferenceID    string `json:"reference_id"`
	ReferenceType  string `json:"reference_type"`
}

type ListMovementsRequest struct {
	ProductID    string     `json:"product_id"`
	MovementType string     `json:"movement_type"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Page         int        `json:"page"`
	PageSize     int        `json:"page_size"`
}

type ListMovementsResponse struct {
	Movements []model.InventoryMovement `json:"movements"`
	Total     int                       `json:"total"`
}

type ListLowStockRequest struct {
	Threshold int `json:"threshold"`
	Page      int `json:"page"`
	PageSize  int `json:"page_size"`
}

type LowStockEntry struct {
	ProductID       string `json:"product_id"`
	Name            string `json:"name"`
	QuantityInStock int    `json:"quantity_in_stock"`
}

type ListLowStockResponse struct {
	Items []LowStockEntry `json:"items"`
	Total int             `json:"total"`
}

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) Register(s grpc.ServiceRegistrar) {
	rpc.Register(s, ServiceName, h,
		rpc.Unary(ServiceName, "AdjustInventory", h.AdjustInventory),
		rpc.Unary(ServiceName, "ListInventoryMovements", h.ListInventoryMovements),
		rpc.Unary(ServiceName, "ListLowStock", h.ListLowStock),
	)
}

func (h *InventoryHandler) AdjustInventory(ctx context.Context, req *AdjustInventoryRequest) (*model.InventoryMovement, error) {
	id, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}

	counter := model.Counter(req.Counter)
	if counter == "" {
		counter = model.CounterStock
	}
	refType := req.ReferenceType
	if refType == "" {
		refType = "manual"
	}

	input := &dto.AdjustInventoryInput{
		ProductID:      req.ProductID,
		Counter:        counter,
		MovementType:   model.MovementType(req.MovementType),
		QuantityChange: req.QuantityChange,
		Reason:         req.Reason,
		ReferenceID:    req.ReferenceID,
		ReferenceType:  refType,
		UserID:         id.UserID,
	}

	m, err := h.uc.AdjustInventory(ctx, input)
	if err != nil {
		if errors.Is(err, inventory.ErrBusy) {
			return nil, status.Error(codes.Aborted, err.Error())
		}
		h.logger.Warn("failed to adjust inventory", zap.String("product_id", req.ProductID), zap.Error(err))
		return nil, apperror.ToStatus(ctx, err)
	}
	return m, nil
}

func (h *InventoryHandler) ListInventoryMovements(ctx context.Context, req *ListMovementsRequest) (*ListMovementsResponse, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}

	filters := &dto.MovementFilters{
		ProductID:    req.ProductID,
		MovementType: req.MovementType,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Page:         req.Page,
		PageSize:     req.PageSize,
	}

	mvs, count, err := h.uc.ListMovements(ctx, filters)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return &ListMovementsResponse{Movements: mvs, Total: count}, nil
}

func (h *InventoryHandler) ListLowStock(ctx context.Context, req *ListLowStockRequest) (*ListLowStockResponse, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = 5
	}
	items, count, err := h.uc.ListLowStock(ctx, &dto.LowStockFilters{
		Threshold: threshold,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}

	entries := make([]LowStockEntry, len(items))
	for i, p := range items {
		entries[i] = LowStockEntry{ProductID: p.ID, Name: p.Name, QuantityInStock: p.QuantityInStock}
	}
	return &ListLowStockResponse{Items: entries, Total: count}, nil
}
