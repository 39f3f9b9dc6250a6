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
)

type CreateComponentInput struct {
	BusinessKey    string
	Name           string
	Description    *string
	ComponentKey   string
	ComponentLabel *string
	CategoryID     *uuid.UUID
	UIConfig       datatypes.JSONMap
	Actor          *string
}

type UpdateComponentInput struct {
	Name           *string
	Description    *string
	ComponentLabel *string
	CategoryID     *uuid.UUID
	UIConfig       datatypes.JSONMap
	Actor          *string
}

// ComponentService manages reusable component artifacts. Version
// cloning copies the whole panel tree with its field placements so the
// new draft starts as an exact structural copy of the source.
type ComponentService interface {
	Create(ctx context.Context, tenantID uuid.UUID, in CreateComponentInput) (*model.Component, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Component, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.Component, int64, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, in UpdateComponentInput) (*model.Component, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	NewVersion(ctx context.Context, tenantID, sourceID uuid.UUID, actor *string) (*model.Component, error)
	Publish(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.Component, error)
	Archive(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.Component, error)
}

type componentService struct {
	catalogDeps
}

func NewComponentService(store repo.Store, guard Guard, events EventPublisher, log *zap.Logger) ComponentService {
	return &componentService{catalogDeps{store: store, guard: guard, events: events, log: log}}
}

func (s *componentService) Create(ctx context.Context, tenantID uuid.UUID, in CreateComponentInput) (*model.Component, error) {
	c := &model.Component{
		TenantID:       tenantID,
		BusinessKey:    in.BusinessKey,
		Version:        1,
		Name:           in.Name,
		Description:    in.Description,
		ComponentKey:   in.ComponentKey,
		ComponentLabel: in.ComponentLabel,
		CategoryID:     in.CategoryID,
		UIConfig:       in.UIConfig,
		CreatedBy:      in.Actor,
		UpdatedBy:      in.Actor,
	}

	err := s.store.Atomic(ctx, func(st repo.Store) error {
		live, err := st.Components().CountLiveVersions(ctx, tenantID, in.BusinessKey)
		if err != nil {
			return fmt.Errorf("count versions of %q: %w", in.BusinessKey, err)
		}
		if live > 0 {
			return apperr.Conflict("component %q already exists; create a new version instead", in.BusinessKey)
		}
		if err := st.Components().Create(ctx, c); err != nil {
			return conflictOrErr(err, "create component %q", in.BusinessKey)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityComponent, ActionCreated, tenantID, c)
	return c, nil
}

func (s *componentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Component, error) {
	c, err := s.store.Components().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFoundOrErr("component", id, err)
	}
	return c, nil
}

func (s *componentService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.Component, int64, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.Components().List(ctx, tenantID, limit, offset)
}

func (s *componentService) Update(ctx context.Context, tenantID, id uuid.UUID, in UpdateComponentInput) (*model.Component, error) {
	var c *model.Component
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		c, err = st.Components().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("component", id, err)
		}
		if err := s.guard.EnsureArtifactMutable(c, "update component"); err != nil {
			return err
		}

		if in.Name != nil {
			c.Name = *in.Name
		}
		if in.Description != nil {
			c.Description = in.Description
		}
		if in.ComponentLabel != nil {
			c.ComponentLabel = in.ComponentLabel
		}
		if in.CategoryID != nil {
			c.CategoryID = in.CategoryID
		}
		if in.UIConfig != nil {
			c.UIConfig = in.UIConfig
		}
		c.UpdatedBy = in.Actor

		if err := st.Components().Update(ctx, c); err != nil {
			return fmt.Errorf("update component %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityComponent, ActionUpdated, tenantID, c)
	return c, nil
}

func (s *componentService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		c, err := st.Components().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("component", id, err)
		}
		if err := s.guard.EnsureArtifactMutable(c, "delete component"); err != nil {
			return err
		}

		instances, err := st.FormPanelComponents().ListByComponent(ctx, tenantID, id)
		if err != nil {
			return fmt.Errorf("list instances of component %s: %w", id, err)
		}
		if len(instances) > 0 {
			return apperr.InvalidState("component %s is embedded in %d form(s); remove the instances first", id, len(instances))
		}

		panels, err := st.ComponentPanels().ListByComponent(ctx, tenantID, id)
		if err != nil {
			return fmt.Errorf("list panels of component %s: %w", id, err)
		}
		panelIDs := make([]uuid.UUID, 0, len(panels))
		for _, p := range panels {
			panelIDs = append(panelIDs, p.ID)
		}
		if len(panelIDs) > 0 {
			if err := st.ComponentPanelFields().DeleteByPanels(ctx, tenantID, panelIDs); err != nil {
				return fmt.Errorf("delete placements of component %s: %w", id, err)
			}
			if err := st.ComponentPanels().DeleteMany(ctx, tenantID, panelIDs); err != nil {
				return fmt.Errorf("delete panels of component %s: %w", id, err)
			}
		}
		return st.Components().Delete(ctx, tenantID, id)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, entityComponent, ActionDeleted, tenantID, map[string]any{"id": id})
	return nil
}

// NewVersion clones the component and its full panel tree. Placements
// keep their imprinted field_config and hashes verbatim: the clone
// reflects the source as built, not a fresh imprint.
func (s *componentService) NewVersion(ctx context.Context, tenantID, sourceID uuid.UUID, actor *string) (*model.Component, error) {
	var clone *model.Component
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		src, err := st.Components().GetByID(ctx, tenantID, sourceID)
		if err != nil {
			return notFoundOrErr("component", sourceID, err)
		}
		maxV, err := st.Components().MaxVersion(ctx, tenantID, src.BusinessKey)
		if err != nil {
			return fmt.Errorf("max version of %q: %w", src.BusinessKey, err)
		}

		clone = &model.Component{
			TenantID:       tenantID,
			BusinessKey:    src.BusinessKey,
			Version:        maxV + 1,
			Name:           src.Name,
			Description:    src.Description,
			ComponentKey:   src.ComponentKey,
			ComponentLabel: src.ComponentLabel,
			CategoryID:     src.CategoryID,
			UIConfig:       src.UIConfig,
			CreatedBy:      actor,
			UpdatedBy:      actor,
		}
		if err := st.Components().Create(ctx, clone); err != nil {
			return conflictOrErr(err, "create component version %d of %q", clone.Version, src.BusinessKey)
		}

		panels, err := st.ComponentPanels().ListByComponent(ctx, tenantID, sourceID)
		if err != nil {
			return fmt.Errorf("list panels of component %s: %w", sourceID, err)
		}
		panelMap := make(map[uuid.UUID]uuid.UUID, len(panels))
		srcPanelIDs := make([]uuid.UUID, 0, len(panels))
		for _, p := range panels {
			srcPanelIDs = append(srcPanelIDs, p.ID)
			np := &model.ComponentPanel{
				TenantID:     tenantID,
				ComponentID:  clone.ID,
				PanelKey:     p.PanelKey,
				PanelLabel:   p.PanelLabel,
				PanelOrder:   p.PanelOrder,
				UIConfig:     p.UIConfig,
				PanelActions: p.PanelActions,
				CreatedBy:    actor,
				UpdatedBy:    actor,
			}
			if err := st.ComponentPanels().Create(ctx, np); err != nil {
				return fmt.Errorf("clone panel %q: %w", p.PanelKey, err)
			}
			panelMap[p.ID] = np.ID
		}
		// Parent links point at source panel ids until remapped.
		for _, p := range panels {
			if p.ParentPanelID == nil {
				continue
			}
			newID := panelMap[p.ID]
			np, err := st.ComponentPanels().GetByID(ctx, tenantID, newID)
			if err != nil {
				return fmt.Errorf("reload cloned panel %s: %w", newID, err)
			}
			mapped, ok := panelMap[*p.ParentPanelID]
			if !ok {
				return apperr.InvalidState("panel %s references parent %s outside its component", p.ID, *p.ParentPanelID)
			}
			np.ParentPanelID = &mapped
			if err := st.ComponentPanels().Update(ctx, np); err != nil {
				return fmt.Errorf("remap parent of cloned panel %s: %w", newID, err)
			}
		}

		placements, err := st.ComponentPanelFields().ListByPanels(ctx, tenantID, srcPanelIDs)
		if err != nil {
			return fmt.Errorf("list placements of component %s: %w", sourceID, err)
		}
		for _, pl := range placements {
			npl := &model.ComponentPanelField{
				TenantID:           tenantID,
				PanelID:            panelMap[pl.PanelID],
				FieldDefID:         pl.FieldDefID,
				FieldOrder:         pl.FieldOrder,
				UIConfig:           pl.UIConfig,
				FieldConfig:        pl.FieldConfig,
				FieldConfigHash:    pl.FieldConfigHash,
				SourceFieldDefHash: pl.SourceFieldDefHash,
				LastImprintedAt:    pl.LastImprintedAt,
				CreatedBy:          actor,
				UpdatedBy:          actor,
			}
			if err := st.ComponentPanelFields().Create(ctx, npl); err != nil {
				return fmt.Errorf("clone placement %s: %w", pl.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityComponent, ActionCreated, tenantID, clone)
	return clone, nil
}

func (s *componentService) Publish(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.Component, error) {
	var c *model.Component
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		c, err = st.Components().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("component", id, err)
		}
		if c.IsPublished {
			return apperr.InvalidState("component %s is already published", id)
		}
		if c.IsArchived {
			return apperr.InvalidState("component %s is archived and cannot be published", id)
		}
		model.Publish(time.Now(), &c.IsPublished, &c.PublishedAt)
		c.UpdatedBy = actor
		if err := st.Components().Update(ctx, c); err != nil {
			return fmt.Errorf("publish component %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityComponent, ActionUpdated, tenantID, c)
	return c, nil
}

func (s *componentService) Archive(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.Component, error) {
	var c *model.Component
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		c, err = st.Components().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("component", id, err)
		}
		if c.IsArchived {
			return apperr.InvalidState("component %s is already archived", id)
		}
		model.Archive(time.Now(), &c.IsArchived, &c.ArchivedAt)
		c.UpdatedBy = actor
		if err := st.Components().Update(ctx, c); err != nil {
			return fmt.Errorf("archive component %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityComponent, ActionUpdated, tenantID, c)
	return c, nil
}
