package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/pickup"
	"github.com/fekuna/omnipos-storefront/internal/pickup/dto"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type pickupUseCase struct {
	repo   pickup.Repository
	logger logger.ZapLogger
}

func NewPickupUseCase(repo pickup.Repository, log logger.ZapLogger) pickup.UseCase {
	return &pickupUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *pickupUseCase) ListActive(ctx context.Context) ([]model.PickupLocation, error) {
	locations, err := uc.repo.FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	SortLocations(locations)
	return locations, nil
}

func (uc *pickupUseCase) ListAll(ctx context.Context) ([]model.PickupLocation, error) {
	locations, err := uc.repo.FindAll(ctx, false)
	if err != nil {
		return nil, err
	}
	SortLocations(locations)
	return locations, nil
}

func (uc *pickupUseCase) GetLocation(ctx context.Context, id string) (*model.PickupLocation, error) {
	l, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperror.NotFound("pickup location", id)
	}
	return l, nil
}

func (uc *pickupUseCase) GetActive(ctx context.Context, id string) (*model.PickupLocation, error) {
	if id == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	l, err := uc.repo.FindByID(ctx, id)
	if err != nil || l == nil || !l.IsActive {
		return nil, err
	}
	return l, nil
}

func (uc *pickupUseCase) CreateLocation(ctx context.Context, input *dto.LocationInput) (*model.PickupLocation, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	now := time.Now()
	l := &model.PickupLocation{BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}}
	apply(l, input)

	if err := uc.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	uc.logger.Info("pickup location created", zap.String("id", l.ID), zap.String("name", l.Name))
	return l, nil
}

func (uc *pickupUseCase) UpdateLocation(ctx context.Context, id string, input *dto.LocationInput) (*model.PickupLocation, error) {
	l, err := uc.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validate(input); err != nil {
		return nil, err
	}
	apply(l, input)
	l.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// SetActive toggles availability at checkout. Orders already referencing
// the location keep their address snapshot.
func (uc *pickupUseCase) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := uc.GetLocation(ctx, id); err != nil {
		return err
	}
	return uc.repo.SetActive(ctx, id, active)
}

// SortLocations orders by display_order, then name.
func SortLocations(locations []model.PickupLocation) {
	sort.SliceStable(locations, func(i, j int) bool {
		if locations[i].DisplayOrder != locations[j].DisplayOrder {
			return locations[i].DisplayOrder < locations[j].DisplayOrder
		}
		return locations[i].Name < locations[j].Name
	})
}

func validate(in *dto.LocationInput) error {
	v := apperror.NewValidationError()
	for field, value := range map[string]string{
		"name":        in.Name,
		"address1":    in.Address1,
		"city":        in.City,
		"province":    in.Province,
		"postal_code": in.PostalCode,
	} {
		if strings.TrimSpace(value) == "" {
			v.Add(field, "field_required")
		}
	}
	return v.OrNil()
}

func apply(l *model.PickupLocation, in *dto.LocationInput) {
	l.Name = strings.TrimSpace(in.Name)
	l.Address1 = strings.TrimSpace(in.Address1)
	l.Address2 = strings.TrimSpace(in.Address2)
	l.City = strings.TrimSpace(in.City)
	l.Province = strings.TrimSpace(in.Province)
	l.PostalCode = strings.ToUpper(strings.TrimSpace(in.PostalCode))
	l.Country = strings.TrimSpace(in.Country)
	if l.Country == "" {
		l.Country = "Canada"
	}
	l.Phone = strings.TrimSpace(in.Phone)
	l.Instructions = in.Instructions
	l.IsActive = in.IsActive
	l.DisplayOrder = in.DisplayOrder
}
