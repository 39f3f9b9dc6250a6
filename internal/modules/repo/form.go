package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/model"
)

type FormRepo interface {
	Create(ctx context.Context, f *model.Form) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Form, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.Form, int64, error)
	MaxVersion(ctx context.Context, tenantID uuid.UUID, businessKey string) (int, error)
	CountLiveVersions(ctx context.Context, tenantID uuid.UUID, businessKey string) (int64, error)
	Update(ctx context.Context, f *model.Form) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type formRepo struct{ db *gorm.DB }

func NewFormRepo(db *gorm.DB) FormRepo {
	return &formRepo{db: db}
}

func (r *formRepo) Create(ctx context.Context, f *model.Form) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *formRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Form, error) {
	var f model.Form
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *formRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.Form, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Form{}).Where("tenant_id = ?", tenantID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []*model.Form
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *formRepo) MaxVersion(ctx context.Context, tenantID uuid.UUID, businessKey string) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&model.Form{}).
		Where("tenant_id = ? AND form_business_key = ?", tenantID, businessKey).
		Select("MAX(form_version)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *formRepo) CountLiveVersions(ctx context.Context, tenantID uuid.UUID, businessKey string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Form{}).
		Where("tenant_id = ? AND form_business_key = ? AND is_archived = FALSE", tenantID, businessKey).
		Count(&count).Error
	return count, err
}

func (r *formRepo) Update(ctx context.Context, f *model.Form) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", f.ID, f.TenantID).Save(f).Error
}

func (r *formRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Form{}).Error
}
