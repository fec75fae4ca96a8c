package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/product"
	"github.com/fekuna/omnipos-storefront/internal/product/dto"
	"github.com/fekuna/omnipos-storefront/pkg/cache"
	"github.com/fekuna/omnipos-storefront/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	indexName    = "products"
	listCacheTTL = 5 * time.Minute
	listCacheKey = "products:list:"
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"name": { "type": "text" },
			"description": { "type": "text" },
			"product_type": { "type": "keyword" },
			"category_id": { "type": "keyword" },
			"is_active": { "type": "boolean" },
			"price": { "type": "double" },
			"created_at": { "type": "date" }
		}
	}
}`

type searchDocument struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"product_type"`
	CategoryID  string    `json:"category_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

type listResult struct {
	Products []model.Product
	Count    int
}

type productUseCase struct {
	repo      product.Repository
	movements product.MovementLogger
	tx        postgres.Transactor
	cache     *cache.RedisClient
	es        *search.Client
	logger    logger.ZapLogger
}

// NewProductUseCase wires the catalog. cache and es may be nil; listing then
// goes straight to Postgres.
func NewProductUseCase(repo product.Repository, movements product.MovementLogger, tx postgres.Transactor, cache *cache.RedisClient, es *search.Client, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:      repo,
		movements: movements,
		tx:        tx,
		cache:     cache,
		es:        es,
		logger:    log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	now := time.Now()

	p := &model.Product{
		BaseModel:              model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CategoryID:             optional(input.CategoryID),
		Name:                   input.Name,
		Description:            input.Description,
		Price:                  input.Price.Round(2),
		Type:                   model.ProductType(input.Type),
		IsActive:               true,
		IsFeatured:             input.IsFeatured,
		Taxable:                input.Taxable,
		QuantityInStock:        input.QuantityInStock,
		DigitalFile:            optional(input.DigitalFile),
		DigitalURL:             optional(input.DigitalURL),
		ServiceSeats:           input.ServiceSeats,
		ServiceStartsAt:        input.ServiceStartsAt,
		ServiceDurationMinutes: input.ServiceDurationMinutes,
		ServiceLocation:        input.ServiceLocation,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}

		initial, limited := p.Available()
		if !limited || initial == 0 {
			return nil
		}
		counter := model.CounterStock
		if p.Type == model.ProductTypeService {
			counter = model.CounterSeats
		}
		return uc.movements.LogMovement(ctx, &model.InventoryMovement{
			ID:             uuid.New().String(),
			ProductID:      p.ID,
			Counter:        counter,
			MovementType:   model.MovementInitial,
			QuantityChange: initial,
			QuantityBefore: 0,
			QuantityAfter:  initial,
			CreatedBy:      optional(input.CreatedBy),
			CreatedAt:      now,
		})
	})
	if err != nil {
		return nil, err
	}

	go uc.InvalidateListings(context.Background())
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	// Lazily created so a fresh cluster works without a migration step
	_ = uc.es.CreateIndex(ctx, indexName, indexMapping)

	price, _ := p.Price.Float64()
	doc := searchDocument{
		Name:        p.Name,
		Description: p.Description,
		Type:        string(p.Type),
		IsActive:    p.IsActive,
		Price:       price,
		CreatedAt:   p.CreatedAt,
	}
	if p.CategoryID != nil {
		doc.CategoryID = *p.CategoryID
	}
	if err := uc.es.Index(ctx, indexName, p.ID, doc); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.NotFound("product", id)
	}
	images, err := uc.repo.ListImages(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Images = images
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	// 1. Cache lookup
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		var cached listResult
		if hit, err := uc.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			return cached.Products, cached.Count, nil
		}
	}

	// 2. Free-text search through Elasticsearch, then hydrate from Postgres
	if filters.SearchQuery != "" && uc.es != nil {
		products, total, err := uc.searchElastic(ctx, filters)
		if err == nil {
			return products, total, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	// 3. DB query
	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	if err := uc.attachImages(ctx, products); err != nil {
		return nil, 0, err
	}

	// 4. Populate cache
	if cacheKey != "" && uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, cacheKey, listResult{Products: products, Count: count}, listCacheTTL); err != nil {
			uc.logger.Warn("failed to cache product list", zap.Error(err))
		}
	}

	return products, count, nil
}

func (uc *productUseCase) searchElastic(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":     filters.SearchQuery,
				"fields":    []string{"name^3", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	var filter []map[string]interface{}
	if filters.IsActive != nil {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"is_active": *filters.IsActive}})
	}
	if filters.Type != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"product_type": filters.Type}})
	}
	if filters.CategoryID != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"category_id": filters.CategoryID}})
	}

	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must, "filter": filter},
		},
		"_source": false,
	}
	if filters.PageSize > 0 {
		q["from"] = (max(filters.Page, 1) - 1) * filters.PageSize
		q["size"] = filters.PageSize
	}

	res, err := uc.es.Search(ctx, indexName, q)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(res.Hits.Hits))
	for i, hit := range res.Hits.Hits {
		ids[i] = hit.ID
	}
	found, err := uc.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	// Keep relevance order; drop hits deleted since indexing
	byID := make(map[string]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	products := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	if err := uc.attachImages(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, res.Hits.Total.Value, nil
}

func (uc *productUseCase) attachImages(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	images, err := uc.repo.ListImages(ctx, ids)
	if err != nil {
		return err
	}
	byProduct := map[string][]model.ProductImage{}
	for _, img := range images {
		byProduct[img.ProductID] = append(byProduct[img.ProductID], img)
	}
	for i := range products {
		products[i].Images = byProduct[products[i].ID]
	}
	return nil
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%x", listCacheKey, md5.Sum(data)), nil
}

// InvalidateListings drops every cached list page. A nil cache makes it a no-op.
func (uc *productUseCase) InvalidateListings(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeletePattern(ctx, listCacheKey+"*"); err != nil {
		uc.logger.Warn("failed to invalidate product list cache", zap.Error(err))
	}
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.NotFound("product", input.ID)
	}

	p.CategoryID = optional(input.CategoryID)
	p.Name = input.Name
	p.Description = input.Description
	p.Price = input.Price.Round(2)
	p.IsActive = input.IsActive
	p.IsFeatured = input.IsFeatured
	p.Taxable = input.Taxable
	p.DigitalFile = optional(input.DigitalFile)
	p.DigitalURL = optional(input.DigitalURL)
	p.ServiceStartsAt = input.ServiceStartsAt
	p.ServiceDurationMinutes = input.ServiceDurationMinutes
	p.ServiceLocation = input.ServiceLocation
	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	go uc.InvalidateListings(context.Background())
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil // Already deleted
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	go uc.InvalidateListings(context.Background())
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), indexName, id); err != nil {
				uc.logger.Error("failed to delete product from ES", zap.Error(err))
			}
		}()
	}

	return nil
}

func (uc *productUseCase) AddImage(ctx context.Context, input *dto.AddImageInput) (*model.ProductImage, error) {
	p, err := uc.repo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.NotFound("product", input.ProductID)
	}
	if input.URL == "" {
		v := apperror.NewValidationError()
		v.Add("url", "field_required")
		return nil, v
	}

	img := &model.ProductImage{
		ID:           uuid.New().String(),
		ProductID:    input.ProductID,
		URL:          input.URL,
		AltText:      input.AltText,
		DisplayOrder: input.DisplayOrder,
		IsMain:       input.IsMain,
		CreatedAt:    time.Now(),
	}
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		return uc.repo.AddImage(ctx, img)
	})
	if err != nil {
		return nil, err
	}

	go uc.InvalidateListings(context.Background())
	return img, nil
}

func (uc *productUseCase) RemoveImage(ctx context.Context, productID, imageID string) error {
	if err := uc.repo.DeleteImage(ctx, productID, imageID); err != nil {
		return err
	}
	go uc.InvalidateListings(context.Background())
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
