package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/model"
)

type ComponentRepo interface {
	Create(ctx context.Context, c *model.Component) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Component, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.Component, int64, error)
	MaxVersion(ctx context.Context, tenantID uuid.UUID, businessKey string) (int, error)
	CountLiveVersions(ctx context.Context, tenantID uuid.UUID, businessKey string) (int64, error)
	Update(ctx context.Context, c *model.Component) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type componentRepo struct{ db *gorm.DB }

func NewComponentRepo(db *gorm.DB) ComponentRepo {
	return &componentRepo{db: db}
}

func (r *componentRepo) Create(ctx context.Context, c *model.Component) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *componentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Component, error) {
	var c model.Component
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *componentRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.Component, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Component{}).Where("tenant_id = ?", tenantID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []*model.Component
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *componentRepo) MaxVersion(ctx context.Context, tenantID uuid.UUID, businessKey string) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&model.Component{}).
		Where("tenant_id = ? AND component_business_key = ?", tenantID, businessKey).
		Select("MAX(component_version)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *componentRepo) CountLiveVersions(ctx context.Context, tenantID uuid.UUID, businessKey string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Component{}).
		Where("tenant_id = ? AND component_business_key = ? AND is_archived = FALSE", tenantID, businessKey).
		Count(&count).Error
	return count, err
}

func (r *componentRepo) Update(ctx context.Context, c *model.Component) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", c.ID, c.TenantID).Save(c).Error
}

func (r *componentRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Component{}).Error
}
