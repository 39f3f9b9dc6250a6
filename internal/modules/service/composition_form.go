package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/modules/repo"
	"github.com/dynoform/composer/internal/pkg/apperr"
	"github.com/dynoform/composer/internal/pkg/canonhash"
	"github.com/dynoform/composer/internal/pkg/docschema"
)

// FormCompositionService edits the structure of a form artifact:
// panels with their override carriers, direct field placements and
// embedded component instances.
type FormCompositionService interface {
	AddPanel(ctx context.Context, tenantID, formID uuid.UUID, in PanelInput) (*model.FormPanel, error)
	ListPanels(ctx context.Context, tenantID, formID uuid.UUID) ([]*model.FormPanel, error)
	UpdatePanel(ctx context.Context, tenantID, panelID uuid.UUID, in PanelUpdateInput) (*model.FormPanel, error)
	SetPanelOverrides(ctx context.Context, tenantID, panelID uuid.UUID, overrides datatypes.JSONMap, actor *string) (*model.FormPanel, error)
	DeletePanel(ctx context.Context, tenantID, panelID uuid.UUID) error

	PlaceField(ctx context.Context, tenantID, panelID uuid.UUID, in PlaceFieldInput) (*model.FormPanelField, error)
	UpdatePlacement(ctx context.Context, tenantID, placementID uuid.UUID, in PlacementUpdateInput) (*model.FormPanelField, error)
	Reimprint(ctx context.Context, tenantID, placementID uuid.UUID, actor *string) (*model.FormPanelField, error)
	Drift(ctx context.Context, tenantID, placementID uuid.UUID) (*DriftReport, error)
	RemovePlacement(ctx context.Context, tenantID, placementID uuid.UUID) error

	EmbedComponent(ctx context.Context, tenantID, panelID uuid.UUID, in EmbedComponentInput) (*model.FormPanelComponent, error)
	UpdateInstance(ctx context.Context, tenantID, instanceID uuid.UUID, in InstanceUpdateInput) (*model.FormPanelComponent, error)
	SetInstanceOverrides(ctx context.Context, tenantID, instanceID uuid.UUID, overrides datatypes.JSONMap, actor *string) (*model.FormPanelComponent, error)
	RemoveInstance(ctx context.Context, tenantID, instanceID uuid.UUID) error
}

type formComposition struct {
	catalogDeps
	cache RenderCache
}

func NewFormCompositionService(store repo.Store, guard Guard, events EventPublisher, cache RenderCache, log *zap.Logger) FormCompositionService {
	return &formComposition{
		catalogDeps: catalogDeps{store: store, guard: guard, events: events, log: log},
		cache:       cache,
	}
}

func (s *formComposition) AddPanel(ctx context.Context, tenantID, formID uuid.UUID, in PanelInput) (*model.FormPanel, error) {
	var panel *model.FormPanel
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		form, err := st.Forms().GetByID(ctx, tenantID, formID)
		if err != nil {
			return notFoundOrErr("form", formID, err)
		}
		if err := s.guard.EnsureArtifactMutable(form, "add panel"); err != nil {
			return err
		}
		if in.ParentPanelID != nil {
			parent, err := st.FormPanels().GetByID(ctx, tenantID, *in.ParentPanelID)
			if err != nil {
				return notFoundOrErr("form panel", *in.ParentPanelID, err)
			}
			if parent.FormID != formID {
				return apperr.Validation("parent panel %s belongs to a different form", *in.ParentPanelID)
			}
		}

		panel = &model.FormPanel{
			TenantID:      tenantID,
			FormID:        formID,
			ParentPanelID: in.ParentPanelID,
			PanelKey:      in.PanelKey,
			PanelLabel:    in.PanelLabel,
			PanelOrder:    in.PanelOrder,
			UIConfig:      in.UIConfig,
			CreatedBy:     in.Actor,
			UpdatedBy:     in.Actor,
		}
		if err := st.FormPanels().Create(ctx, panel); err != nil {
			return conflictOrErr(err, "create panel %q on form %s", in.PanelKey, formID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateForm(ctx, tenantID, formID)
	s.emit(ctx, entityFormPanel, ActionCreated, tenantID, panel)
	return panel, nil
}

func (s *formComposition) ListPanels(ctx context.Context, tenantID, formID uuid.UUID) ([]*model.FormPanel, error) {
	return s.store.FormPanels().ListByForm(ctx, tenantID, formID)
}

func (s *formComposition) UpdatePanel(ctx context.Context, tenantID, panelID uuid.UUID, in PanelUpdateInput) (*model.FormPanel, error) {
	var panel *model.FormPanel
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeFormPanel, ID: panelID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "update panel"); err != nil {
			return err
		}
		var err error
		panel, err = st.FormPanels().GetByID(ctx, tenantID, panelID)
		if err != nil {
			return notFoundOrErr("form panel", panelID, err)
		}

		if in.PanelLabel != nil {
			panel.PanelLabel = in.PanelLabel
		}
		if in.ParentPanelID != nil {
			if *in.ParentPanelID == panelID {
				return apperr.Validation("panel cannot be its own parent")
			}
			parent, err := st.FormPanels().GetByID(ctx, tenantID, *in.ParentPanelID)
			if err != nil {
				return notFoundOrErr("form panel", *in.ParentPanelID, err)
			}
			if parent.FormID != panel.FormID {
				return apperr.Validation("parent panel %s belongs to a different form", *in.ParentPanelID)
			}
			siblings, err := st.FormPanels().ListByForm(ctx, tenantID, panel.FormID)
			if err != nil {
				return fmt.Errorf("list panels of form %s: %w", panel.FormID, err)
			}
			// Reparenting under the panel's own subtree would detach it
			// from the tree entirely.
			subtree := descendantPanels(panelID, siblings,
				func(p *model.FormPanel) uuid.UUID { return p.ID },
				func(p *model.FormPanel) *uuid.UUID { return p.ParentPanelID })
			for _, id := range subtree {
				if id == *in.ParentPanelID {
					return apperr.Validation("panel %s cannot be reparented under its own descendant %s", panelID, *in.ParentPanelID)
				}
			}
			panel.ParentPanelID = in.ParentPanelID
		}
		if in.PanelOrder != nil {
			panel.PanelOrder = *in.PanelOrder
		}
		if in.UIConfig != nil {
			panel.UIConfig = in.UIConfig
		}
		panel.UpdatedBy = in.Actor

		if err := st.FormPanels().Update(ctx, panel); err != nil {
			return fmt.Errorf("update panel %s: %w", panelID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateForm(ctx, tenantID, panel.FormID)
	s.emit(ctx, entityFormPanel, ActionUpdated, tenantID, panel)
	return panel, nil
}

// SetPanelOverrides replaces the panel's nested_overrides carrier.
// The document is schema- and selector-validated before it is stored;
// whether its selectors resolve to live nodes is left to render time.
func (s *formComposition) SetPanelOverrides(ctx context.Context, tenantID, panelID uuid.UUID, overrides datatypes.JSONMap, actor *string) (*model.FormPanel, error) {
	if overrides != nil {
		if _, err := docschema.ValidateOverridesMap(overrides); err != nil {
			return nil, err
		}
	}

	var panel *model.FormPanel
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeFormPanel, ID: panelID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "set panel overrides"); err != nil {
			return err
		}
		var err error
		panel, err = st.FormPanels().GetByID(ctx, tenantID, panelID)
		if err != nil {
			return notFoundOrErr("form panel", panelID, err)
		}
		panel.NestedOverrides = overrides
		panel.UpdatedBy = actor
		if err := st.FormPanels().Update(ctx, panel); err != nil {
			return fmt.Errorf("set overrides on panel %s: %w", panelID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateForm(ctx, tenantID, panel.FormID)
	s.emit(ctx, entityFormPanel, ActionUpdated, tenantID, panel)
	return panel, nil
}

func (s *formComposition) DeletePanel(ctx context.Context, tenantID, panelID uuid.UUID) error {
	var formID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeFormPanel, ID: panelID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "delete panel"); err != nil {
			return err
		}
		panel, err := st.FormPanels().GetByID(ctx, tenantID, panelID)
		if err != nil {
			return notFoundOrErr("form panel", panelID, err)
		}
		formID = panel.FormID

		siblings, err := st.FormPanels().ListByForm(ctx, tenantID, panel.FormID)
		if err != nil {
			return fmt.Errorf("list panels of form %s: %w", panel.FormID, err)
		}
		doomed := descendantPanels(panelID, siblings,
			func(p *model.FormPanel) uuid.UUID { return p.ID },
			func(p *model.FormPanel) *uuid.UUID { return p.ParentPanelID })

		if err := st.FormPanelFields().DeleteByPanels(ctx, tenantID, doomed); err != nil {
			return fmt.Errorf("delete placements under panel %s: %w", panelID, err)
		}
		if err := st.FormPanelComponents().DeleteByPanels(ctx, tenantID, doomed); err != nil {
			return fmt.Errorf("delete instances under panel %s: %w", panelID, err)
		}
		if err := st.FormPanels().DeleteMany(ctx, tenantID, doomed); err != nil {
			return fmt.Errorf("delete panel subtree of %s: %w", panelID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateForm(ctx, tenantID, formID)
	s.emit(ctx, entityFormPanel, ActionDeleted, tenantID, map[string]any{"id": panelID})
	return nil
}

func (s *formComposition) PlaceField(ctx context.Context, tenantID, panelID uuid.UUID, in PlaceFieldInput) (*model.FormPanelField, error) {
	var placement *model.FormPanelField
	var formID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeFormPanel, ID: panelID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "place field"); err != nil {
			return err
		}
		panel, err := st.FormPanels().GetByID(ctx, tenantID, panelID)
		if err != nil {
			return notFoundOrErr("form panel", panelID, err)
		}
		formID = panel.FormID

		fd, err := st.FieldDefs().GetByID(ctx, tenantID, in.FieldDefID)
		if err != nil {
			return notFoundOrErr("field def", in.FieldDefID, err)
		}
		if fd.IsArchived {
			return apperr.InvalidState("field def %s is archived and cannot be placed", fd.ID)
		}

		imp, err := NewImprintState(fd, time.Now())
		if err != nil {
			return err
		}
		placement = &model.FormPanelField{
			TenantID:           tenantID,
			PanelID:            panelID,
			FieldDefID:         fd.ID,
			FieldOrder:         in.FieldOrder,
			UIConfig:           in.UIConfig,
			FieldConfig:        imp.FieldConfig,
			FieldConfigHash:    &imp.FieldConfigHash,
			SourceFieldDefHash: &imp.SourceFieldDefHash,
			LastImprintedAt:    &imp.ImprintedAt,
			CreatedBy:          in.Actor,
			UpdatedBy:          in.Actor,
		}
		if err := st.FormPanelFields().Create(ctx, placement); err != nil {
			return conflictOrErr(err, "place field def %s on panel %s", fd.ID, panelID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateForm(ctx, tenantID, formID)
	s.emit(ctx, entityFormField, ActionCreated, tenantID, placement)
	return placement, nil
}

func (s *formComposition) UpdatePlacement(ctx context.Context, tenantID, placementID uuid.UUID, in PlacementUpdateInput) (*model.FormPanelField, error) {
	var placement *model.FormPanelField
	var formID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeFormPanelField, ID: placementID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "update placement"); err != nil {
			return err
		}
		var err error
		placement, err = st.FormPanelFields().GetByID(ctx, tenantID, placementID)
		if err != nil {
			return notFoundOrErr("form panel field", placementID, err)
		}
		panel, err := st.FormPanels().GetByID(ctx, tenantID, placement.PanelID)
		if err != nil {
			return notFoundOrErr("form panel", placement.PanelID, err)
		}
		formID = panel.FormID

		if in.FieldOrder != nil {
			placement.FieldOrder = in.FieldOrder
		}
		if in.UIConfig != nil {
			placement.UIConfig = in.UIConfig
		}
		if in.FieldConfig != nil {
			if _, err := docschema.ValidateFieldConfigMap(in.FieldConfig); err != nil {
				return err
			}
			h, err := canonhash.Hash(map[string]any(in.FieldConfig))
			if err != nil {
				return fmt.Errorf("hash field config: %w", err)
			}
			placement.FieldConfig = in.FieldConfig
			placement.FieldConfigHash = &h
		}
		placement.UpdatedBy = in.Actor

		if err := st.FormPanelFields().Update(ctx, placement); err != nil {
			return conflictOrErr(err, "update placement %s", placementID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateForm(ctx, tenantID, formID)
	s.emit(ctx, entityFormField, ActionUpdated, tenantID, placement)
	return placement, nil
}

func (s *formComposition) Reimprint(ctx context.Context, tenantID, placementID uuid.UUID, actor *string) (*model.FormPanelField, error) {
	var placement *model.FormPanelField
	var formID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeFormPanelField, ID: placementID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "reimprint placement"); err != nil {
			return err
		}
		var err error
		placement, err = st.FormPanelFields().GetByID(ctx, tenantID, placementID)
		if err != nil {
			return notFoundOrErr("form panel field", placementID, err)
		}
		panel, err := st.FormPanels().GetByID(ctx, tenantID, placement.PanelID)
		if err != nil {
			return notFoundOrErr("form panel", placement.PanelID, err)
		}
		formID = panel.FormID

		fd, err := st.FieldDefs().GetByID(ctx, tenantID, placement.FieldDefID)
		if err != nil {
			return notFoundOrErr("field def", placement.FieldDefID, err)
		}
		imp, err := NewImprintState(fd, time.Now())
		if err != nil {
			return err
		}
		placement.FieldConfig = imp.FieldConfig
		placement.FieldConfigHash = &imp.FieldConfigHash
		placement.SourceFieldDefHash = &imp.SourceFieldDefHash
		placement.LastImprintedAt = &imp.ImprintedAt
		placement.UpdatedBy = actor

		if err := st.FormPanelFields().Update(ctx, placement); err != nil {
			return fmt.Errorf("reimprint placement %s: %w", placementID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateForm(ctx, tenantID, formID)
	s.emit(ctx, entityFormField, ActionUpdated, tenantID, placement)
	return placement, nil
}

func (s *formComposition) Drift(ctx context.Context, tenantID, placementID uuid.UUID) (*DriftReport, error) {
	placement, err := s.store.FormPanelFields().GetByID(ctx, tenantID, placementID)
	if err != nil {
		return nil, notFoundOrErr("form panel field", placementID, err)
	}
	fd, err := s.store.FieldDefs().GetByID(ctx, tenantID, placement.FieldDefID)
	if err != nil {
		return nil, notFoundOrErr("field def", placement.FieldDefID, err)
	}
	rep, err := CheckDrift(fd, placement.FieldConfig, placement.FieldConfigHash, placement.SourceFieldDefHash)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (s *formComposition) RemovePlacement(ctx context.Context, tenantID, placementID uuid.UUID) error {
	var formID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeFormPanelField, ID: placementID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "remove placement"); err != nil {
			return err
		}
		placement, err := st.FormPanelFields().GetByID(ctx, tenantID, placementID)
		if err != nil {
			return notFoundOrErr("form panel field", placementID, err)
		}
		panel, err := st.FormPanels().GetByID(ctx, tenantID, placement.PanelID)
		if err != nil {
			return notFoundOrErr("form panel", placement.PanelID, err)
		}
		formID = panel.FormID
		return st.FormPanelFields().Delete(ctx, tenantID, placementID)
	})
	if err != nil {
		return err
	}

	s.invalidateForm(ctx, tenantID, formID)
	s.emit(ctx, entityFormField, ActionDeleted, tenantID, map[string]any{"id": placementID})
	return nil
}

// EmbedComponent creates a component instance on the panel. The
// instance key is the stable selector segment for the subtree, unique
// within the panel.
func (s *formComposition) EmbedComponent(ctx context.Context, tenantID, panelID uuid.UUID, in EmbedComponentInput) (*model.FormPanelComponent, error) {
	var instance *model.FormPanelComponent
	var formID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeFormPanel, ID: panelID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "embed component"); err != nil {
			return err
		}
		panel, err := st.FormPanels().GetByID(ctx, tenantID, panelID)
		if err != nil {
			return notFoundOrErr("form panel", panelID, err)
		}
		formID = panel.FormID

		comp, err := st.Components().GetByID(ctx, tenantID, in.ComponentID)
		if err != nil {
			return notFoundOrErr("component", in.ComponentID, err)
		}
		if comp.IsArchived {
			return apperr.InvalidState("component %s is archived and cannot be embedded", comp.ID)
		}

		instance = &model.FormPanelComponent{
			TenantID:       tenantID,
			PanelID:        panelID,
			ComponentID:    comp.ID,
			InstanceKey:    in.InstanceKey,
			ComponentOrder: in.ComponentOrder,
			UIConfig:       in.UIConfig,
			CreatedBy:      in.Actor,
			UpdatedBy:      in.Actor,
		}
		if err := st.FormPanelComponents().Create(ctx, instance); err != nil {
			return conflictOrErr(err, "embed component %s on panel %s", comp.ID, panelID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateForm(ctx, tenantID, formID)
	s.emit(ctx, entityFormPanelComponent, ActionCreated, tenantID, instance)
	return instance, nil
}

func (s *formComposition) UpdateInstance(ctx context.Context, tenantID, instanceID uuid.UUID, in InstanceUpdateInput) (*model.FormPanelComponent, error) {
	var instance *model.FormPanelComponent
	var formID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeFormPanelComponent, ID: instanceID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "update instance"); err != nil {
			return err
		}
		var err error
		instance, err = st.FormPanelComponents().GetByID(ctx, tenantID, instanceID)
		if err != nil {
			return notFoundOrErr("form panel component", instanceID, err)
		}
		panel, err := st.FormPanels().GetByID(ctx, tenantID, instance.PanelID)
		if err != nil {
			return notFoundOrErr("form panel", instance.PanelID, err)
		}
		formID = panel.FormID

		if in.ComponentOrder != nil {
			instance.ComponentOrder = *in.ComponentOrder
		}
		if in.UIConfig != nil {
			instance.UIConfig = in.UIConfig
		}
		instance.UpdatedBy = in.Actor

		if err := st.FormPanelComponents().Update(ctx, instance); err != nil {
			return fmt.Errorf("update instance %s: %w", instanceID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateForm(ctx, tenantID, formID)
	s.emit(ctx, entityFormPanelComponent, ActionUpdated, tenantID, instance)
	return instance, nil
}

func (s *formComposition) SetInstanceOverrides(ctx context.Context, tenantID, instanceID uuid.UUID, overrides datatypes.JSONMap, actor *string) (*model.FormPanelComponent, error) {
	if overrides != nil {
		if _, err := docschema.ValidateOverridesMap(overrides); err != nil {
			return nil, err
		}
	}

	var instance *model.FormPanelComponent
	var formID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeFormPanelComponent, ID: instanceID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "set instance overrides"); err != nil {
			return err
		}
		var err error
		instance, err = st.FormPanelComponents().GetByID(ctx, tenantID, instanceID)
		if err != nil {
			return notFoundOrErr("form panel component", instanceID, err)
		}
		panel, err := st.FormPanels().GetByID(ctx, tenantID, instance.PanelID)
		if err != nil {
			return notFoundOrErr("form panel", instance.PanelID, err)
		}
		formID = panel.FormID

		instance.NestedOverrides = overrides
		instance.UpdatedBy = actor
		if err := st.FormPanelComponents().Update(ctx, instance); err != nil {
			return fmt.Errorf("set overrides on instance %s: %w", instanceID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateForm(ctx, tenantID, formID)
	s.emit(ctx, entityFormPanelComponent, ActionUpdated, tenantID, instance)
	return instance, nil
}

func (s *formComposition) RemoveInstance(ctx context.Context, tenantID, instanceID uuid.UUID) error {
	var formID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeFormPanelComponent, ID: instanceID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "remove instance"); err != nil {
			return err
		}
		instance, err := st.FormPanelComponents().GetByID(ctx, tenantID, instanceID)
		if err != nil {
			return notFoundOrErr("form panel component", instanceID, err)
		}
		panel, err := st.FormPanels().GetByID(ctx, tenantID, instance.PanelID)
		if err != nil {
			return notFoundOrErr("form panel", instance.PanelID, err)
		}
		formID = panel.FormID
		return st.FormPanelComponents().Delete(ctx, tenantID, instanceID)
	})
	if err != nil {
		return err
	}

	s.invalidateForm(ctx, tenantID, formID)
	s.emit(ctx, entityFormPanelComponent, ActionDeleted, tenantID, map[string]any{"id": instanceID})
	return nil
}

func (s *formComposition) invalidateForm(ctx context.Context, tenantID, formID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, tenantID, formID); err != nil {
		s.log.Warn("render cache invalidation failed",
			zap.String("form_id", formID.String()),
			zap.Error(err))
	}
}
