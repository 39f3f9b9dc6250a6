package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/model"
)

type FormPanelComponentRepo interface {
	Create(ctx context.Context, i *model.FormPanelComponent) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormPanelComponent, error)
	ListByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) ([]*model.FormPanelComponent, error)
	ListByComponent(ctx context.Context, tenantID, componentID uuid.UUID) ([]*model.FormPanelComponent, error)
	Update(ctx context.Context, i *model.FormPanelComponent) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	DeleteByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) error
}

type formPanelComponentRepo struct{ db *gorm.DB }

func NewFormPanelComponentRepo(db *gorm.DB) FormPanelComponentRepo {
	return &formPanelComponentRepo{db: db}
}

func (r *formPanelComponentRepo) Create(ctx context.Context, i *model.FormPanelComponent) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *formPanelComponentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormPanelComponent, error) {
	var i model.FormPanelComponent
	err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&i).Error
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *formPanelComponentRepo) ListByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) ([]*model.FormPanelComponent, error) {
	if len(panelIDs) == 0 {
		return nil, nil
	}
	var items []*model.FormPanelComponent
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND form_panel_id IN ?", tenantID, panelIDs).
		Order("component_order ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *formPanelComponentRepo) ListByComponent(ctx context.Context, tenantID, componentID uuid.UUID) ([]*model.FormPanelComponent, error) {
	var items []*model.FormPanelComponent
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND component_id = ?", tenantID, componentID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *formPanelComponentRepo) Update(ctx context.Context, i *model.FormPanelComponent) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", i.ID, i.TenantID).Save(i).Error
}

func (r *formPanelComponentRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.FormPanelComponent{}).Error
}

func (r *formPanelComponentRepo) DeleteByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) error {
	if len(panelIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND form_panel_id IN ?", tenantID, panelIDs).
		Delete(&model.FormPanelComponent{}).Error
}
