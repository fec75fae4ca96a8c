package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/internal/checkout"
	"github.com/fekuna/omnipos-storefront/internal/checkout/dto"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "storefront.v1.CheckoutService"

type CheckoutHandler struct {
	uc     checkout.UseCase
	logger logger.ZapLogger
}

func NewCheckoutHandler(uc checkout.UseCase, log logger.ZapLogger) *CheckoutHandler {
	return &CheckoutHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CheckoutHandler) Register(s grpc.ServiceRegistrar) {
	rpc.Register(s, ServiceName, h,
		rpc.Unary(ServiceName, "Quote", h.Quote),
		rpc.Unary(ServiceName, "PlaceOrder", h.PlaceOrder),
	)
}

func (h *CheckoutHandler) Quote(ctx context.Context, req *dto.QuoteInput) (*dto.Summary, error) {
	id, err := auth.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	in := *req
	if in.Email == "" {
		in.Email = id.Email
	}
	summary, err := h.uc.Quote(ctx, id.Owner(), in)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return summary, nil
}

func (h *CheckoutHandler) PlaceOrder(ctx context.Context, req *dto.PlaceOrderInput) (*dto.PlaceOrderResult, error) {
	id, err := auth.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	in := *req
	if in.Email == "" {
		in.Email = id.Email
	}

	res, err := h.uc.PlaceOrder(ctx, id.Owner(), in)
	if err != nil {
		if errors.Is(err, checkout.ErrInProgress) {
			return nil, status.Error(codes.Aborted, err.Error())
		}
		if _, _, ok := apperror.MessageID(err); !ok {
			h.logger.Error("failed to place order", zap.Error(err))
		}
		return nil, apperror.ToStatus(ctx, err)
	}
	return res, nil
}
