package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/model"
)

type ComponentPanelRepo interface {
	Create(ctx context.Context, p *model.ComponentPanel) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.ComponentPanel, error)
	ListByComponent(ctx context.Context, tenantID, componentID uuid.UUID) ([]*model.ComponentPanel, error)
	Update(ctx context.Context, p *model.ComponentPanel) error
	DeleteMany(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

type componentPanelRepo struct{ db *gorm.DB }

func NewComponentPanelRepo(db *gorm.DB) ComponentPanelRepo {
	return &componentPanelRepo{db: db}
}

func (r *componentPanelRepo) Create(ctx context.Context, p *model.ComponentPanel) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *componentPanelRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.ComponentPanel, error) {
	var p model.ComponentPanel
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *componentPanelRepo) ListByComponent(ctx context.Context, tenantID, componentID uuid.UUID) ([]*model.ComponentPanel, error) {
	var panels []*model.ComponentPanel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND component_id = ?", tenantID, componentID).
		Order("panel_order ASC").
		Find(&panels).Error
	if err != nil {
		return nil, err
	}
	return panels, nil
}

func (r *componentPanelRepo) Update(ctx context.Context, p *model.ComponentPanel) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", p.ID, p.TenantID).Save(p).Error
}

func (r *componentPanelRepo) DeleteMany(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&model.ComponentPanel{}).Error
}

type FormPanelRepo interface {
	Create(ctx context.Context, p *model.FormPanel) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormPanel, error)
	ListByForm(ctx context.Context, tenantID, formID uuid.UUID) ([]*model.FormPanel, error)
	Update(ctx context.Context, p *model.FormPanel) error
	DeleteMany(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

type formPanelRepo struct{ db *gorm.DB }

func NewFormPanelRepo(db *gorm.DB) FormPanelRepo {
	return &formPanelRepo{db: db}
}

func (r *formPanelRepo) Create(ctx context.Context, p *model.FormPanel) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *formPanelRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormPanel, error) {
	var p model.FormPanel
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *formPanelRepo) ListByForm(ctx context.Context, tenantID, formID uuid.UUID) ([]*model.FormPanel, error) {
	var panels []*model.FormPanel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND form_id = ?", tenantID, formID).
		Order("panel_order ASC").
		Find(&panels).Error
	if err != nil {
		return nil, err
	}
	return panels, nil
}

func (r *formPanelRepo) Update(ctx context.Context, p *model.FormPanel) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", p.ID, p.TenantID).Save(p).Error
}

func (r *formPanelRepo) DeleteMany(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&model.FormPanel{}).Error
}
