package handler

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/order"
	"github.com/fekuna/omnipos-storefront/internal/order/dto"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/rpc"
	"google.golang.org/grpc"
)

const ServiceName = "storefront.v1.OrderService"

type GetOrderRequest struct {
	ID string `json:"id"`
}

type ListMineRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type ListMineResponse struct {
	Orders   []model.Order `json:"orders"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type UpdateStatusRequest struct {
	ID             string            `json:"id"`
	Status         model.OrderStatus `json:"status"`
	TrackingNumber string            `json:"tracking_number"`
	Carrier        model.Carrier     `json:"shipping_carrier"`
}

type CancelRequest struct {
	ID string `json:"id"`
}

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) Register(s grpc.ServiceRegistrar) {
	rpc.Register(s, ServiceName, h,
		rpc.Unary(ServiceName, "Get", h.Get),
		rpc.Unary(ServiceName, "ListMine", h.ListMine),
		rpc.Unary(ServiceName, "UpdateStatus", h.UpdateStatus),
		rpc.Unary(ServiceName, "Cancel", h.Cancel),
	)
}

// Get returns any order to staff and only their own orders to shoppers.
func (h *OrderHandler) Get(ctx context.Context, req *GetOrderRequest) (*model.Order, error) {
	id := auth.FromContext(ctx)

	var (
		o   *model.Order
		err error
	)
	if id.IsStaff {
		o, err = h.uc.GetOrder(ctx, req.ID)
	} else {
		if _, err := auth.RequireOwner(ctx); err != nil {
			return nil, err
		}
		o, err = h.uc.GetOwnedOrder(ctx, req.ID, id.Owner())
	}
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return o, nil
}

func (h *OrderHandler) ListMine(ctx context.Context, req *ListMineRequest) (*ListMineResponse, error) {
	id, err := auth.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	orders, total, err := h.uc.ListMine(ctx, id.Owner(), &dto.ListFilters{Page: page, PageSize: pageSize})
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return &ListMineResponse{Orders: orders, Total: total, Page: page, PageSize: pageSize}, nil
}

func (h *OrderHandler) UpdateStatus(ctx context.Context, req *UpdateStatusRequest) (*model.Order, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}
	o, err := h.uc.UpdateStatus(ctx, &dto.UpdateStatusInput{
		OrderID:        req.ID,
		Status:         req.Status,
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
	})
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return o, nil
}

func (h *OrderHandler) Cancel(ctx context.Context, req *CancelRequest) (*model.Order, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}
	o, err := h.uc.Cancel(ctx, req.ID)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return o, nil
}
