package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/cart"
	"github.com/fekuna/omnipos-storefront/internal/cart/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type cartUseCase struct {
	repo     cart.Repository
	products cart.ProductReader
	tx       postgres.Transactor
	logger   logger.ZapLogger
}

func NewCartUseCase(repo cart.Repository, products cart.ProductReader, tx postgres.Transactor, log logger.ZapLogger) cart.UseCase {
	return &cartUseCase{
		repo:     repo,
		products: products,
		tx:       tx,
		logger:   log,
	}
}

func (uc *cartUseCase) AddItem(ctx context.Context, owner model.CartOwner, productID string, qty int) (*dto.CartView, error) {
	if qty < 1 {
		return nil, quantityError()
	}
	p, err := uc.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	existing, err := uc.repo.FindItem(ctx, owner, productID)
	if err != nil {
		return nil, err
	}
	total := qty
	if existing != nil {
		total += existing.Quantity
	}
	if err := checkAvailable(p, total); err != nil {
		return nil, err
	}

	if err := uc.repo.Add(ctx, owner, productID, qty); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return uc.GetCart(ctx, owner)
}

func (uc *cartUseCase) UpdateQuantity(ctx context.Context, owner model.CartOwner, productID string, qty int) (*dto.CartView, error) {
	if qty <= 0 {
		return uc.RemoveItem(ctx, owner, productID)
	}

	existing, err := uc.repo.FindItem(ctx, owner, productID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NotFound("cart item", productID)
	}
	p, err := uc.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := checkAvailable(p, qty); err != nil {
		return nil, err
	}

	if err := uc.repo.SetQuantity(ctx, owner, productID, qty); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return uc.GetCart(ctx, owner)
}

func (uc *cartUseCase) RemoveItem(ctx context.Context, owner model.CartOwner, productID string) (*dto.CartView, error) {
	if err := uc.repo.Remove(ctx, owner, productID); err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	return uc.GetCart(ctx, owner)
}

func (uc *cartUseCase) GetCart(ctx context.Context, owner model.CartOwner) (*dto.CartView, error) {
	items, err := uc.Items(ctx, owner)
	if err != nil {
		return nil, err
	}
	return BuildView(items), nil
}

func (uc *cartUseCase) Items(ctx context.Context, owner model.CartOwner) ([]model.CartItem, error) {
	if owner.IsZero() {
		return []model.CartItem{}, nil
	}
	items, err := uc.repo.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	if len(items) == 0 {
		return []model.CartItem{}, nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := uc.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	byID := make(map[string]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	out := make([]model.CartItem, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		it.Product = p
		out = append(out, it)
	}
	return out, nil
}

func (uc *cartUseCase) Count(ctx context.Context, owner model.CartOwner) (int, error) {
	items, err := uc.Items(ctx, owner)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n, nil
}

func (uc *cartUseCase) Clear(ctx context.Context, owner model.CartOwner) error {
	if owner.IsZero() {
		return nil
	}
	return uc.repo.Clear(ctx, owner)
}

func (uc *cartUseCase) TransferSessionCart(ctx context.Context, sessionID, userID string) error {
	if sessionID == "" || userID == "" {
		return nil
	}
	var moved int
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		moved, err = uc.repo.TransferSession(ctx, sessionID, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("transfer session cart: %w", err)
	}
	if moved > 0 {
		uc.logger.Info("session cart transferred", zap.String("user_id", userID), zap.Int("lines", moved))
	}
	return nil
}

func (uc *cartUseCase) activeProduct(ctx context.Context, productID string) (*model.Product, error) {
	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, apperror.NotFound("product", productID)
	}
	return p, nil
}

// checkAvailable previews stock or seats; the order commit stays
// authoritative.
func checkAvailable(p *model.Product, qty int) error {
	available, limited := p.Available()
	if limited && qty > available {
		return &apperror.InsufficientInventoryError{
			ProductID: p.ID,
			Name:      p.Name,
			Requested: qty,
			Available: available,
		}
	}
	return nil
}

func quantityError() error {
	v := apperror.NewValidationError()
	v.Add("quantity", "invalid_quantity")
	return v
}

// BuildView renders cart lines with totals. Items must carry their product.
func BuildView(items []model.CartItem) *dto.CartView {
	view := &dto.CartView{Lines: make([]dto.CartLine, 0, len(items)), Subtotal: decimal.Zero}
	for i := range items {
		it := &items[i]
		line := dto.CartLine{
			ProductID:        it.ProductID,
			Name:             it.Product.Name,
			Type:             it.Product.Type,
			UnitPrice:        it.Product.Price,
			Quantity:         it.Quantity,
			LineTotal:        it.LineTotal(),
			AvailabilityText: it.Product.AvailabilityText(),
			ImageURL:         it.Product.MainImageURL(),
		}
		view.Lines = append(view.Lines, line)
		view.Count += it.Quantity
		view.Subtotal = view.Subtotal.Add(line.LineTotal)
	}
	return view
}
