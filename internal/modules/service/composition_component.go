package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/modules/repo"
	"github.com/dynoform/composer/internal/pkg/apperr"
	"github.com/dynoform/composer/internal/pkg/canonhash"
	"github.com/dynoform/composer/internal/pkg/docschema"
)

// ComponentCompositionService edits the panel tree of a component
// artifact: panels, field placements, imprint refresh and drift
// inspection. Every mutation passes the immutability guard and
// invalidates the render cache of forms embedding the component.
type ComponentCompositionService interface {
	AddPanel(ctx context.Context, tenantID, componentID uuid.UUID, in PanelInput) (*model.ComponentPanel, error)
	ListPanels(ctx context.Context, tenantID, componentID uuid.UUID) ([]*model.ComponentPanel, error)
	UpdatePanel(ctx context.Context, tenantID, panelID uuid.UUID, in PanelUpdateInput) (*model.ComponentPanel, error)
	DeletePanel(ctx context.Context, tenantID, panelID uuid.UUID) error

	PlaceField(ctx context.Context, tenantID, panelID uuid.UUID, in PlaceFieldInput) (*model.ComponentPanelField, error)
	UpdatePlacement(ctx context.Context, tenantID, placementID uuid.UUID, in PlacementUpdateInput) (*model.ComponentPanelField, error)
	Reimprint(ctx context.Context, tenantID, placementID uuid.UUID, actor *string) (*model.ComponentPanelField, error)
	Drift(ctx context.Context, tenantID, placementID uuid.UUID) (*DriftReport, error)
	RemovePlacement(ctx context.Context, tenantID, placementID uuid.UUID) error
}

type componentComposition struct {
	catalogDeps
	cache RenderCache
}

func NewComponentCompositionService(store repo.Store, guard Guard, events EventPublisher, cache RenderCache, log *zap.Logger) ComponentCompositionService {
	return &componentComposition{
		catalogDeps: catalogDeps{store: store, guard: guard, events: events, log: log},
		cache:       cache,
	}
}

func (s *componentComposition) AddPanel(ctx context.Context, tenantID, componentID uuid.UUID, in PanelInput) (*model.ComponentPanel, error) {
	var panel *model.ComponentPanel
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		comp, err := st.Components().GetByID(ctx, tenantID, componentID)
		if err != nil {
			return notFoundOrErr("component", componentID, err)
		}
		if err := s.guard.EnsureArtifactMutable(comp, "add panel"); err != nil {
			return err
		}
		if in.ParentPanelID != nil {
			parent, err := st.ComponentPanels().GetByID(ctx, tenantID, *in.ParentPanelID)
			if err != nil {
				return notFoundOrErr("component panel", *in.ParentPanelID, err)
			}
			if parent.ComponentID != componentID {
				return apperr.Validation("parent panel %s belongs to a different component", *in.ParentPanelID)
			}
		}

		panel = &model.ComponentPanel{
			TenantID:      tenantID,
			ComponentID:   componentID,
			ParentPanelID: in.ParentPanelID,
			PanelKey:      in.PanelKey,
			PanelLabel:    in.PanelLabel,
			PanelOrder:    in.PanelOrder,
			UIConfig:      in.UIConfig,
			PanelActions:  in.PanelActions,
			CreatedBy:     in.Actor,
			UpdatedBy:     in.Actor,
		}
		if err := st.ComponentPanels().Create(ctx, panel); err != nil {
			return conflictOrErr(err, "create panel %q on component %s", in.PanelKey, componentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateEmbedding(ctx, tenantID, componentID)
	s.emit(ctx, entityComponentPanel, ActionCreated, tenantID, panel)
	return panel, nil
}

func (s *componentComposition) ListPanels(ctx context.Context, tenantID, componentID uuid.UUID) ([]*model.ComponentPanel, error) {
	return s.store.ComponentPanels().ListByComponent(ctx, tenantID, componentID)
}

func (s *componentComposition) UpdatePanel(ctx context.Context, tenantID, panelID uuid.UUID, in PanelUpdateInput) (*model.ComponentPanel, error) {
	var panel *model.ComponentPanel
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeComponentPanel, ID: panelID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "update panel"); err != nil {
			return err
		}
		var err error
		panel, err = st.ComponentPanels().GetByID(ctx, tenantID, panelID)
		if err != nil {
			return notFoundOrErr("component panel", panelID, err)
		}

		if in.PanelLabel != nil {
			panel.PanelLabel = in.PanelLabel
		}
		if in.ParentPanelID != nil {
			if *in.ParentPanelID == panelID {
				return apperr.Validation("panel cannot be its own parent")
			}
			parent, err := st.ComponentPanels().GetByID(ctx, tenantID, *in.ParentPanelID)
			if err != nil {
				return notFoundOrErr("component panel", *in.ParentPanelID, err)
			}
			if parent.ComponentID != panel.ComponentID {
				return apperr.Validation("parent panel %s belongs to a different component", *in.ParentPanelID)
			}
			siblings, err := st.ComponentPanels().ListByComponent(ctx, tenantID, panel.ComponentID)
			if err != nil {
				return fmt.Errorf("list panels of component %s: %w", panel.ComponentID, err)
			}
			// Reparenting under the panel's own subtree would detach it
			// from the tree entirely.
			subtree := descendantPanels(panelID, siblings,
				func(p *model.ComponentPanel) uuid.UUID { return p.ID },
				func(p *model.ComponentPanel) *uuid.UUID { return p.ParentPanelID })
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
		if in.PanelActions != nil {
			panel.PanelActions = in.PanelActions
		}
		panel.UpdatedBy = in.Actor

		if err := st.ComponentPanels().Update(ctx, panel); err != nil {
			return fmt.Errorf("update panel %s: %w", panelID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateEmbedding(ctx, tenantID, panel.ComponentID)
	s.emit(ctx, entityComponentPanel, ActionUpdated, tenantID, panel)
	return panel, nil
}

// DeletePanel removes the panel, its nested child panels and every
// field placement under them.
func (s *componentComposition) DeletePanel(ctx context.Context, tenantID, panelID uuid.UUID) error {
	var componentID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeComponentPanel, ID: panelID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "delete panel"); err != nil {
			return err
		}
		panel, err := st.ComponentPanels().GetByID(ctx, tenantID, panelID)
		if err != nil {
			return notFoundOrErr("component panel", panelID, err)
		}
		componentID = panel.ComponentID

		siblings, err := st.ComponentPanels().ListByComponent(ctx, tenantID, panel.ComponentID)
		if err != nil {
			return fmt.Errorf("list panels of component %s: %w", panel.ComponentID, err)
		}
		doomed := descendantPanels(panelID, siblings,
			func(p *model.ComponentPanel) uuid.UUID { return p.ID },
			func(p *model.ComponentPanel) *uuid.UUID { return p.ParentPanelID })

		if err := st.ComponentPanelFields().DeleteByPanels(ctx, tenantID, doomed); err != nil {
			return fmt.Errorf("delete placements under panel %s: %w", panelID, err)
		}
		if err := st.ComponentPanels().DeleteMany(ctx, tenantID, doomed); err != nil {
			return fmt.Errorf("delete panel subtree of %s: %w", panelID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateEmbedding(ctx, tenantID, componentID)
	s.emit(ctx, entityComponentPanel, ActionDeleted, tenantID, map[string]any{"id": panelID})
	return nil
}

// PlaceField puts a field definition on the panel and imprints its
// current snapshot into the placement.
func (s *componentComposition) PlaceField(ctx context.Context, tenantID, panelID uuid.UUID, in PlaceFieldInput) (*model.ComponentPanelField, error) {
	var placement *model.ComponentPanelField
	var componentID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeComponentPanel, ID: panelID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "place field"); err != nil {
			return err
		}
		panel, err := st.ComponentPanels().GetByID(ctx, tenantID, panelID)
		if err != nil {
			return notFoundOrErr("component panel", panelID, err)
		}
		componentID = panel.ComponentID

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
		placement = &model.ComponentPanelField{
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
		if err := st.ComponentPanelFields().Create(ctx, placement); err != nil {
			return conflictOrErr(err, "place field def %s on panel %s", fd.ID, panelID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateEmbedding(ctx, tenantID, componentID)
	s.emit(ctx, entityComponentField, ActionCreated, tenantID, placement)
	return placement, nil
}

func (s *componentComposition) UpdatePlacement(ctx context.Context, tenantID, placementID uuid.UUID, in PlacementUpdateInput) (*model.ComponentPanelField, error) {
	var placement *model.ComponentPanelField
	var componentID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeComponentPanelField, ID: placementID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "update placement"); err != nil {
			return err
		}
		var err error
		placement, err = st.ComponentPanelFields().GetByID(ctx, tenantID, placementID)
		if err != nil {
			return notFoundOrErr("component panel field", placementID, err)
		}
		panel, err := st.ComponentPanels().GetByID(ctx, tenantID, placement.PanelID)
		if err != nil {
			return notFoundOrErr("component panel", placement.PanelID, err)
		}
		componentID = panel.ComponentID

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

		if err := st.ComponentPanelFields().Update(ctx, placement); err != nil {
			return conflictOrErr(err, "update placement %s", placementID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateEmbedding(ctx, tenantID, componentID)
	s.emit(ctx, entityComponentField, ActionUpdated, tenantID, placement)
	return placement, nil
}

// Reimprint discards the placement's current field_config, local edits
// included, and re-snapshots the catalog field definition.
func (s *componentComposition) Reimprint(ctx context.Context, tenantID, placementID uuid.UUID, actor *string) (*model.ComponentPanelField, error) {
	var placement *model.ComponentPanelField
	var componentID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeComponentPanelField, ID: placementID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "reimprint placement"); err != nil {
			return err
		}
		var err error
		placement, err = st.ComponentPanelFields().GetByID(ctx, tenantID, placementID)
		if err != nil {
			return notFoundOrErr("component panel field", placementID, err)
		}
		panel, err := st.ComponentPanels().GetByID(ctx, tenantID, placement.PanelID)
		if err != nil {
			return notFoundOrErr("component panel", placement.PanelID, err)
		}
		componentID = panel.ComponentID

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

		if err := st.ComponentPanelFields().Update(ctx, placement); err != nil {
			return fmt.Errorf("reimprint placement %s: %w", placementID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateEmbedding(ctx, tenantID, componentID)
	s.emit(ctx, entityComponentField, ActionUpdated, tenantID, placement)
	return placement, nil
}

func (s *componentComposition) Drift(ctx context.Context, tenantID, placementID uuid.UUID) (*DriftReport, error) {
	placement, err := s.store.ComponentPanelFields().GetByID(ctx, tenantID, placementID)
	if err != nil {
		return nil, notFoundOrErr("component panel field", placementID, err)
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

func (s *componentComposition) RemovePlacement(ctx context.Context, tenantID, placementID uuid.UUID) error {
	var componentID uuid.UUID
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		ref := model.NodeRef{Kind: model.NodeComponentPanelField, ID: placementID}
		if err := s.guard.EnsureNodeMutable(ctx, st, tenantID, ref, "remove placement"); err != nil {
			return err
		}
		placement, err := st.ComponentPanelFields().GetByID(ctx, tenantID, placementID)
		if err != nil {
			return notFoundOrErr("component panel field", placementID, err)
		}
		panel, err := st.ComponentPanels().GetByID(ctx, tenantID, placement.PanelID)
		if err != nil {
			return notFoundOrErr("component panel", placement.PanelID, err)
		}
		componentID = panel.ComponentID
		return st.ComponentPanelFields().Delete(ctx, tenantID, placementID)
	})
	if err != nil {
		return err
	}

	s.invalidateEmbedding(ctx, tenantID, componentID)
	s.emit(ctx, entityComponentField, ActionDeleted, tenantID, map[string]any{"id": placementID})
	return nil
}

func (s *componentComposition) invalidateEmbedding(ctx context.Context, tenantID, componentID uuid.UUID) {
	formIDs, err := formsEmbeddingComponent(ctx, s.store, tenantID, componentID)
	if err != nil {
		s.log.Warn("render cache invalidation skipped",
			zap.String("component_id", componentID.String()),
			zap.Error(err))
		return
	}
	if len(formIDs) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, tenantID, formIDs...); err != nil {
		s.log.Warn("render cache invalidation failed",
			zap.String("component_id", componentID.String()),
			zap.Error(err))
	}
}
