package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/modules/repo"
)

type CategoryInput struct {
	CategoryKey   string
	CategoryLabel string
	Description   *string
	CategoryOrder int
	Actor         *string
}

// CategoryService manages catalog palette categories. Categories are
// plain grouping rows, no lifecycle, so the guard is not involved.
type CategoryService interface {
	Create(ctx context.Context, tenantID uuid.UUID, in CategoryInput) (*model.FormCatalogCategory, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.FormCatalogCategory, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.FormCatalogCategory, int64, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, in CategoryInput) (*model.FormCatalogCategory, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type categoryService struct {
	catalogDeps
}

func NewCategoryService(store repo.Store, events EventPublisher, log *zap.Logger) CategoryService {
	return &categoryService{catalogDeps{store: store, events: events, log: log}}
}

func (s *categoryService) Create(ctx context.Context, tenantID uuid.UUID, in CategoryInput) (*model.FormCatalogCategory, error) {
	c := &model.FormCatalogCategory{
		TenantID:      tenantID,
		CategoryKey:   in.CategoryKey,
		CategoryLabel: in.CategoryLabel,
		Description:   in.Description,
		CategoryOrder: in.CategoryOrder,
		CreatedBy:     in.Actor,
		UpdatedBy:     in.Actor,
	}
	if err := s.store.Categories().Create(ctx, c); err != nil {
		return nil, conflictOrErr(err, "create category %q", in.CategoryKey)
	}
	s.emit(ctx, entityCategory, ActionCreated, tenantID, c)
	return c, nil
}

func (s *categoryService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.FormCatalogCategory, error) {
	c, err := s.store.Categories().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFoundOrErr("category", id, err)
	}
	return c, nil
}

func (s *categoryService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.FormCatalogCategory, int64, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.Categories().List(ctx, tenantID, limit, offset)
}

func (s *categoryService) Update(ctx context.Context, tenantID, id uuid.UUID, in CategoryInput) (*model.FormCatalogCategory, error) {
	c, err := s.store.Categories().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFoundOrErr("category", id, err)
	}
	c.CategoryKey = in.CategoryKey
	c.CategoryLabel = in.CategoryLabel
	c.Description = in.Description
	c.CategoryOrder = in.CategoryOrder
	c.UpdatedBy = in.Actor
	if err := s.store.Categories().Update(ctx, c); err != nil {
		return nil, conflictOrErr(err, "update category %s", id)
	}
	s.emit(ctx, entityCategory, ActionUpdated, tenantID, c)
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.store.Categories().GetByID(ctx, tenantID, id); err != nil {
		return notFoundOrErr("category", id, err)
	}
	if err := s.store.Categories().Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	s.emit(ctx, entityCategory, ActionDeleted, tenantID, map[string]any{"id": id})
	return nil
}
