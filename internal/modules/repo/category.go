package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/model"
)

type CategoryRepo interface {
	Create(ctx context.Context, c *model.FormCatalogCategory) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormCatalogCategory, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.FormCatalogCategory, int64, error)
	Update(ctx context.Context, c *model.FormCatalogCategory) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type categoryRepo struct{ db *gorm.DB }

func NewCategoryRepo(db *gorm.DB) CategoryRepo {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, c *model.FormCatalogCategory) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoryRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormCatalogCategory, error) {
	var c model.FormCatalogCategory
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.FormCatalogCategory, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&model.FormCatalogCategory{}).Where("tenant_id = ?", tenantID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []*model.FormCatalogCategory
	if err := q.Order("category_order ASC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *categoryRepo) Update(ctx context.Context, c *model.FormCatalogCategory) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", c.ID, c.TenantID).Save(c).Error
}

func (r *categoryRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.FormCatalogCategory{}).Error
}
