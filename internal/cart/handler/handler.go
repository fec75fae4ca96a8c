package handler

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/internal/cart"
	"github.com/fekuna/omnipos-storefront/internal/cart/dto"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "storefront.v1.CartService"

type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Empty struct{}

type TransferResponse struct {
	Count int `json:"count"`
}

type CartHandler struct {
	uc     cart.UseCase
	logger logger.ZapLogger
}

func NewCartHandler(uc cart.UseCase, log logger.ZapLogger) *CartHandler {
	return &CartHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CartHandler) Register(s grpc.ServiceRegistrar) {
	rpc.Register(s, ServiceName, h,
		rpc.Unary(ServiceName, "GetCart", h.GetCart),
		rpc.Unary(ServiceName, "AddItem", h.AddItem),
		rpc.Unary(ServiceName, "UpdateItem", h.UpdateItem),
		rpc.Unary(ServiceName, "RemoveItem", h.RemoveItem),
		rpc.Unary(ServiceName, "ClearCart", h.ClearCart),
		rpc.Unary(ServiceName, "TransferSessionCart", h.TransferSessionCart),
	)
}

func (h *CartHandler) GetCart(ctx context.Context, _ *Empty) (*dto.CartView, error) {
	id, err := auth.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	view, err := h.uc.GetCart(ctx, id.Owner())
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return view, nil
}

func (h *CartHandler) AddItem(ctx context.Context, req *ItemRequest) (*dto.CartView, error) {
	id, err := auth.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	view, err := h.uc.AddItem(ctx, id.Owner(), req.ProductID, qty)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return view, nil
}

func (h *CartHandler) UpdateItem(ctx context.Context, req *ItemRequest) (*dto.CartView, error) {
	id, err := auth.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	view, err := h.uc.UpdateQuantity(ctx, id.Owner(), req.ProductID, req.Quantity)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return view, nil
}

func (h *CartHandler) RemoveItem(ctx context.Context, req *ItemRequest) (*dto.CartView, error) {
	id, err := auth.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	view, err := h.uc.RemoveItem(ctx, id.Owner(), req.ProductID)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return view, nil
}

func (h *CartHandler) ClearCart(ctx context.Context, _ *Empty) (*Empty, error) {
	id, err := auth.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.uc.Clear(ctx, id.Owner()); err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return &Empty{}, nil
}

// TransferSessionCart runs once at login: the caller presents both the new
// bearer token and the anonymous session id.
func (h *CartHandler) TransferSessionCart(ctx context.Context, _ *Empty) (*TransferResponse, error) {
	id := auth.FromContext(ctx)
	if id.UserID == "" || id.SessionID == "" {
		return nil, status.Error(codes.FailedPrecondition, "both a signed-in user and a session are required")
	}
	if err := h.uc.TransferSessionCart(ctx, id.SessionID, id.UserID); err != nil {
		h.logger.Error("failed to transfer session cart", zap.String("user_id", id.UserID), zap.Error(err))
		return nil, apperror.ToStatus(ctx, err)
	}
	count, err := h.uc.Count(ctx, id.Owner())
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return &TransferResponse{Count: count}, nil
}
