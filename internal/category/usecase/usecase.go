package usecase

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/category"
	"github.com/fekuna/omnipos-storefront/internal/category/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type categoryUseCase struct {
	repo   category.Repository
	logger logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if err := uc.validate(ctx, "", input.Name, input.ParentID); err != nil {
		return nil, err
	}

	now := time.Now()
	cat := &model.Category{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ParentID:    emptyToNil(input.ParentID),
		Name:        strings.TrimSpace(input.Name),
		Slug:        slugOrDefault(input.Slug, input.Name),
		Description: optional(input.Description),
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, uc.mapUnique(err)
	}
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperror.NotFound("category", id)
	}
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	if !filters.IncludeChildren {
		return uc.repo.FindAll(ctx, filters)
	}

	// Tree mode needs every category to attach children
	all, _, err := uc.repo.FindAll(ctx, &dto.CategoryFilters{IsActive: filters.IsActive})
	if err != nil {
		return nil, 0, err
	}
	roots := BuildTree(all)
	return roots, len(roots), nil
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperror.NotFound("category", input.ID)
	}
	if err := uc.validate(ctx, cat.ID, input.Name, input.ParentID); err != nil {
		return nil, err
	}

	cat.Name = strings.TrimSpace(input.Name)
	cat.Slug = slugOrDefault(input.Slug, input.Name)
	cat.Description = optional(input.Description)
	cat.SortOrder = input.SortOrder
	cat.IsActive = input.IsActive
	cat.ParentID = emptyToNil(input.ParentID)
	cat.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, uc.mapUnique(err)
	}
	return cat, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

// validate checks the name and walks up from the new parent so a category
// never becomes its own ancestor.
func (uc *categoryUseCase) validate(ctx context.Context, selfID, name string, parentID *string) error {
	v := apperror.NewValidationError()
	if strings.TrimSpace(name) == "" {
		v.Add("name", "field_required")
	}
	if parentID != nil && *parentID != "" {
		seen := map[string]bool{}
		next := *parentID
		for next != "" && !seen[next] {
			if next == selfID {
				v.Add("parent_id", "validation_failed")
				break
			}
			seen[next] = true
			parent, err := uc.repo.FindByID(ctx, next)
			if err != nil {
				return err
			}
			if parent == nil {
				v.Add("parent_id", "validation_failed")
				break
			}
			next = ""
			if parent.ParentID != nil {
				next = *parent.ParentID
			}
		}
	}
	return v.OrNil()
}

func (uc *categoryUseCase) mapUnique(err error) error {
	if postgres.IsUniqueViolation(err) {
		uc.logger.Info("duplicate category", zap.Error(err))
		v := apperror.NewValidationError()
		v.Add("name", "validation_failed")
		return v
	}
	return err
}

// BuildTree nests categories under their parents, keeping the input order
// among siblings. Categories whose parent is missing become roots.
func BuildTree(flat []model.Category) []model.Category {
	children := map[string][]model.Category{}
	ids := map[string]bool{}
	for _, c := range flat {
		ids[c.ID] = true
	}

	var roots []model.Category
	for _, c := range flat {
		if c.ParentID != nil && ids[*c.ParentID] {
			children[*c.ParentID] = append(children[*c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	var attach func(c *model.Category, depth int)
	attach = func(c *model.Category, depth int) {
		if depth > len(flat) {
			return
		}
		c.Children = children[c.ID]
		for i := range c.Children {
			attach(&c.Children[i], depth+1)
		}
	}
	for i := range roots {
		attach(&roots[i], 0)
	}
	return roots
}

// Slugify lowercases s and joins its letters and digits with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			hyphen = false
		case !hyphen && b.Len() > 0:
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func slugOrDefault(slug, name string) string {
	if s := Slugify(slug); s != "" {
		return s
	}
	return Slugify(name)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
