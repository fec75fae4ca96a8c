package handler

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/pickup"
	"github.com/fekuna/omnipos-storefront/internal/pickup/dto"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/rpc"
	"google.golang.org/grpc"
)

const ServiceName = "storefront.v1.PickupService"

type ListLocationsRequest struct {
	IncludeInactive bool `json:"include_inactive"`
}

type ListLocationsResponse struct {
	Locations []LocationView `json:"locations"`
}

type LocationView struct {
	model.PickupLocation
	FullAddress string `json:"full_address"`
}

type GetLocationRequest struct {
	ID string `json:"id"`
}

type UpsertLocationRequest struct {
	ID string `json:"id,omitempty"`
	dto.LocationInput
}

type SetActiveRequest struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

type Empty struct{}

type PickupHandler struct {
	uc     pickup.UseCase
	logger logger.ZapLogger
}

func NewPickupHandler(uc pickup.UseCase, log logger.ZapLogger) *PickupHandler {
	return &PickupHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *PickupHandler) Register(s grpc.ServiceRegistrar) {
	rpc.Register(s, ServiceName, h,
		rpc.Unary(ServiceName, "ListLocations", h.ListLocations),
		rpc.Unary(ServiceName, "GetLocation", h.GetLocation),
		rpc.Unary(ServiceName, "CreateLocation", h.CreateLocation),
		rpc.Unary(ServiceName, "UpdateLocation", h.UpdateLocation),
		rpc.Unary(ServiceName, "SetLocationActive", h.SetLocationActive),
	)
}

func (h *PickupHandler) ListLocations(ctx context.Context, req *ListLocationsRequest) (*ListLocationsResponse, error) {
	var (
		locations []model.PickupLocation
		err       error
	)
	if req.IncludeInactive {
		if _, err := auth.RequireStaff(ctx); err != nil {
			return nil, err
		}
		locations, err = h.uc.ListAll(ctx)
	} else {
		locations, err = h.uc.ListActive(ctx)
	}
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}

	views := make([]LocationView, len(locations))
	for i := range locations {
		views[i] = toView(&locations[i])
	}
	return &ListLocationsResponse{Locations: views}, nil
}

func (h *PickupHandler) GetLocation(ctx context.Context, req *GetLocationRequest) (*LocationView, error) {
	l, err := h.uc.GetLocation(ctx, req.ID)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	v := toView(l)
	return &v, nil
}

func (h *PickupHandler) CreateLocation(ctx context.Context, req *UpsertLocationRequest) (*LocationView, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}
	l, err := h.uc.CreateLocation(ctx, &req.LocationInput)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	v := toView(l)
	return &v, nil
}

func (h *PickupHandler) UpdateLocation(ctx context.Context, req *UpsertLocationRequest) (*LocationView, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}
	l, err := h.uc.UpdateLocation(ctx, req.ID, &req.LocationInput)
	if err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	v := toView(l)
	return &v, nil
}

func (h *PickupHandler) SetLocationActive(ctx context.Context, req *SetActiveRequest) (*Empty, error) {
	if _, err := auth.RequireStaff(ctx); err != nil {
		return nil, err
	}
	if err := h.uc.SetActive(ctx, req.ID, req.Active); err != nil {
		return nil, apperror.ToStatus(ctx, err)
	}
	return &Empty{}, nil
}

func toView(l *model.PickupLocation) LocationView {
	return LocationView{PickupLocation: *l, FullAddress: l.FullAddress()}
}
