package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/model"
)

type ComponentPanelFieldRepo interface {
	Create(ctx context.Context, f *model.ComponentPanelField) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.ComponentPanelField, error)
	ListByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) ([]*model.ComponentPanelField, error)
	ListByFieldDef(ctx context.Context, tenantID, fieldDefID uuid.UUID) ([]*model.ComponentPanelField, error)
	Update(ctx context.Context, f *model.ComponentPanelField) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	DeleteByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) error
}

type componentPanelFieldRepo struct{ db *gorm.DB }

func NewComponentPanelFieldRepo(db *gorm.DB) ComponentPanelFieldRepo {
	return &componentPanelFieldRepo{db: db}
}

func (r *componentPanelFieldRepo) Create(ctx context.Context, f *model.ComponentPanelField) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *componentPanelFieldRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.ComponentPanelField, error) {
	var f model.ComponentPanelField
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *componentPanelFieldRepo) ListByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) ([]*model.ComponentPanelField, error) {
	if len(panelIDs) == 0 {
		return nil, nil
	}
	var fields []*model.ComponentPanelField
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND panel_id IN ?", tenantID, panelIDs).
		Order("field_order ASC NULLS LAST").
		Find(&fields).Error
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *componentPanelFieldRepo) ListByFieldDef(ctx context.Context, tenantID, fieldDefID uuid.UUID) ([]*model.ComponentPanelField, error) {
	var fields []*model.ComponentPanelField
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND field_def_id = ?", tenantID, fieldDefID).
		Find(&fields).Error
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *componentPanelFieldRepo) Update(ctx context.Context, f *model.ComponentPanelField) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", f.ID, f.TenantID).Save(f).Error
}

func (r *componentPanelFieldRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.ComponentPanelField{}).Error
}

func (r *componentPanelFieldRepo) DeleteByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) error {
	if len(panelIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND panel_id IN ?", tenantID, panelIDs).
		Delete(&model.ComponentPanelField{}).Error
}

type FormPanelFieldRepo interface {
	Create(ctx context.Context, f *model.FormPanelField) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormPanelField, error)
	ListByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) ([]*model.FormPanelField, error)
	ListByFieldDef(ctx context.Context, tenantID, fieldDefID uuid.UUID) ([]*model.FormPanelField, error)
	Update(ctx context.Context, f *model.FormPanelField) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	DeleteByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) error
}

type formPanelFieldRepo struct{ db *gorm.DB }

func NewFormPanelFieldRepo(db *gorm.DB) FormPanelFieldRepo {
	return &formPanelFieldRepo{db: db}
}

func (r *formPanelFieldRepo) Create(ctx context.Context, f *model.FormPanelField) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *formPanelFieldRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormPanelField, error) {
	var f model.FormPanelField
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *formPanelFieldRepo) ListByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) ([]*model.FormPanelField, error) {
	if len(panelIDs) == 0 {
		return nil, nil
	}
	var fields []*model.FormPanelField
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND form_panel_id IN ?", tenantID, panelIDs).
		Order("field_order ASC NULLS LAST").
		Find(&fields).Error
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *formPanelFieldRepo) ListByFieldDef(ctx context.Context, tenantID, fieldDefID uuid.UUID) ([]*model.FormPanelField, error) {
	var fields []*model.FormPanelField
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND field_def_id = ?", tenantID, fieldDefID).
		Find(&fields).Error
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *formPanelFieldRepo) Update(ctx context.Context, f *model.FormPanelField) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", f.ID, f.TenantID).Save(f).Error
}

func (r *formPanelFieldRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.FormPanelField{}).Error
}

func (r *formPanelFieldRepo) DeleteByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) error {
	if len(panelIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND form_panel_id IN ?", tenantID, panelIDs).
		Delete(&model.FormPanelField{}).Error
}
