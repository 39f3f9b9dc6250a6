package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/model"
)

type FieldDefRepo interface {
	Create(ctx context.Context, fd *model.FieldDef) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FieldDef, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.FieldDef, int64, error)
	MaxVersion(ctx context.Context, tenantID uuid.UUID, businessKey string) (int, error)
	CountLiveVersions(ctx context.Context, tenantID uuid.UUID, businessKey string) (int64, error)
	Update(ctx context.Context, fd *model.FieldDef) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	CreateOption(ctx context.Context, opt *model.FieldDefOption) error
	ListOptions(ctx context.Context, tenantID, fieldDefID uuid.UUID) ([]model.FieldDefOption, error)
	UpdateOption(ctx context.Context, opt *model.FieldDefOption) error
	DeleteOption(ctx context.Context, tenantID, optionID uuid.UUID) error
}

type fieldDefRepo struct{ db *gorm.DB }

func NewFieldDefRepo(db *gorm.DB) FieldDefRepo {
	return &fieldDefRepo{db: db}
}

func (r *fieldDefRepo) Create(ctx context.Context, fd *model.FieldDef) error {
	return r.db.WithContext(ctx).Create(fd).Error
}

func (r *fieldDefRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FieldDef, error) {
	var fd model.FieldDef
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("option_order ASC") }).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&fd).Error
	if err != nil {
		return nil, err
	}
	return &fd, nil
}

func (r *fieldDefRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.FieldDef, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&model.FieldDef{}).Where("tenant_id = ?", tenantID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []*model.FieldDef
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *fieldDefRepo) MaxVersion(ctx context.Context, tenantID uuid.UUID, businessKey string) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&model.FieldDef{}).
		Where("tenant_id = ? AND field_def_business_key = ?", tenantID, businessKey).
		Select("MAX(field_def_version)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *fieldDefRepo) CountLiveVersions(ctx context.Context, tenantID uuid.UUID, businessKey string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.FieldDef{}).
		Where("tenant_id = ? AND field_def_business_key = ? AND is_archived = FALSE", tenantID, businessKey).
		Count(&count).Error
	return count, err
}

func (r *fieldDefRepo) Update(ctx context.Context, fd *model.FieldDef) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", fd.ID, fd.TenantID).
		Omit("Options").
		Save(fd).Error
}

func (r *fieldDefRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&model.FieldDef{}).Error
}

func (r *fieldDefRepo) CreateOption(ctx context.Context, opt *model.FieldDefOption) error {
	return r.db.WithContext(ctx).Create(opt).Error
}

func (r *fieldDefRepo) ListOptions(ctx context.Context, tenantID, fieldDefID uuid.UUID) ([]model.FieldDefOption, error) {
	var opts []model.FieldDefOption
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND field_def_id = ?", tenantID, fieldDefID).
		Order("option_order ASC").
		Find(&opts).Error
	if err != nil {
		return nil, err
	}
	return opts, nil
}

func (r *fieldDefRepo) UpdateOption(ctx context.Context, opt *model.FieldDefOption) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", opt.ID, opt.TenantID).
		Save(opt).Error
}

func (r *fieldDefRepo) DeleteOption(ctx context.Context, tenantID, optionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", optionID, tenantID).
		Delete(&model.FieldDefOption{}).Error
}
