package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/model"
)

type SubmissionRepo interface {
	Create(ctx context.Context, s *model.FormSubmission) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormSubmission, error)
	ListByForm(ctx context.Context, tenantID, formID uuid.UUID, limit, offset int) ([]*model.FormSubmission, int64, error)
	Update(ctx context.Context, s *model.FormSubmission) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	CreateValue(ctx context.Context, v *model.FormSubmissionValue) error
	GetValueByPath(ctx context.Context, tenantID, submissionID uuid.UUID, fieldPath string) (*model.FormSubmissionValue, error)
	ListValues(ctx context.Context, tenantID, submissionID uuid.UUID) ([]*model.FormSubmissionValue, error)
	UpdateValue(ctx context.Context, v *model.FormSubmissionValue) error
	DeleteValue(ctx context.Context, tenantID, valueID uuid.UUID) error
	DeleteValuesBySubmission(ctx context.Context, tenantID, submissionID uuid.UUID) error

	CreateArchive(ctx context.Context, a *model.FormSubmissionArchive) error
	CreateValueArchives(ctx context.Context, archives []model.FormSubmissionValueArchive) error
}

type submissionRepo struct{ db *gorm.DB }

func NewSubmissionRepo(db *gorm.DB) SubmissionRepo {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, s *model.FormSubmission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormSubmission, error) {
	var s model.FormSubmission
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *submissionRepo) ListByForm(ctx context.Context, tenantID, formID uuid.UUID, limit, offset int) ([]*model.FormSubmission, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&model.FormSubmission{}).
		Where("tenant_id = ? AND form_id = ?", tenantID, formID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []*model.FormSubmission
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *submissionRepo) Update(ctx context.Context, s *model.FormSubmission) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", s.ID, s.TenantID).Save(s).Error
}

func (r *submissionRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.FormSubmission{}).Error
}

func (r *submissionRepo) CreateValue(ctx context.Context, v *model.FormSubmissionValue) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *submissionRepo) GetValueByPath(ctx context.Context, tenantID, submissionID uuid.UUID, fieldPath string) (*model.FormSubmissionValue, error) {
	var v model.FormSubmissionValue
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND form_submission_id = ? AND field_path = ?", tenantID, submissionID, fieldPath).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *submissionRepo) ListValues(ctx context.Context, tenantID, submissionID uuid.UUID) ([]*model.FormSubmissionValue, error) {
	var values []*model.FormSubmissionValue
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND form_submission_id = ?", tenantID, submissionID).
		Order("field_path ASC").
		Find(&values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (r *submissionRepo) UpdateValue(ctx context.Context, v *model.FormSubmissionValue) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", v.ID, v.TenantID).Save(v).Error
}

func (r *submissionRepo) DeleteValue(ctx context.Context, tenantID, valueID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", valueID, tenantID).Delete(&model.FormSubmissionValue{}).Error
}

func (r *submissionRepo) DeleteValuesBySubmission(ctx context.Context, tenantID, submissionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND form_submission_id = ?", tenantID, submissionID).
		Delete(&model.FormSubmissionValue{}).Error
}

func (r *submissionRepo) CreateArchive(ctx context.Context, a *model.FormSubmissionArchive) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *submissionRepo) CreateValueArchives(ctx context.Context, archives []model.FormSubmissionValueArchive) error {
	if len(archives) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&archives).Error
}
