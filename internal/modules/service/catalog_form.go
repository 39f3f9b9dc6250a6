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

type CreateFormInput struct {
	BusinessKey string
	FormKey     string
	Name        string
	Description *string
	CategoryID  *uuid.UUID
	UIConfig    datatypes.JSONMap
	Actor       *string
}

type UpdateFormInput struct {
	Name        *string
	Description *string
	CategoryID  *uuid.UUID
	UIConfig    datatypes.JSONMap
	Actor       *string
}

// FormService manages form artifacts, the top of the composition
// hierarchy. Version cloning copies panels, direct field placements
// and embedded component instances including their override carriers.
type FormService interface {
	Create(ctx context.Context, tenantID uuid.UUID, in CreateFormInput) (*model.Form, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Form, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.Form, int64, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, in UpdateFormInput) (*model.Form, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	NewVersion(ctx context.Context, tenantID, sourceID uuid.UUID, actor *string) (*model.Form, error)
	Publish(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.Form, error)
	Archive(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.Form, error)
}

type formService struct {
	catalogDeps
}

func NewFormService(store repo.Store, guard Guard, events EventPublisher, log *zap.Logger) FormService {
	return &formService{catalogDeps{store: store, guard: guard, events: events, log: log}}
}

func (s *formService) Create(ctx context.Context, tenantID uuid.UUID, in CreateFormInput) (*model.Form, error) {
	f := &model.Form{
		TenantID:    tenantID,
		BusinessKey: in.BusinessKey,
		Version:     1,
		FormKey:     in.FormKey,
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		UIConfig:    in.UIConfig,
		CreatedBy:   in.Actor,
		UpdatedBy:   in.Actor,
	}

	err := s.store.Atomic(ctx, func(st repo.Store) error {
		live, err := st.Forms().CountLiveVersions(ctx, tenantID, in.BusinessKey)
		if err != nil {
			return fmt.Errorf("count versions of %q: %w", in.BusinessKey, err)
		}
		if live > 0 {
			return apperr.Conflict("form %q already exists; create a new version instead", in.BusinessKey)
		}
		if err := st.Forms().Create(ctx, f); err != nil {
			return conflictOrErr(err, "create form %q", in.BusinessKey)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityForm, ActionCreated, tenantID, f)
	return f, nil
}

func (s *formService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Form, error) {
	f, err := s.store.Forms().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFoundOrErr("form", id, err)
	}
	return f, nil
}

func (s *formService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.Form, int64, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.Forms().List(ctx, tenantID, limit, offset)
}

func (s *formService) Update(ctx context.Context, tenantID, id uuid.UUID, in UpdateFormInput) (*model.Form, error) {
	var f *model.Form
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		f, err = st.Forms().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("form", id, err)
		}
		if err := s.guard.EnsureArtifactMutable(f, "update form"); err != nil {
			return err
		}

		if in.Name != nil {
			f.Name = *in.Name
		}
		if in.Description != nil {
			f.Description = in.Description
		}
		if in.CategoryID != nil {
			f.CategoryID = in.CategoryID
		}
		if in.UIConfig != nil {
			f.UIConfig = in.UIConfig
		}
		f.UpdatedBy = in.Actor

		if err := st.Forms().Update(ctx, f); err != nil {
			return fmt.Errorf("update form %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityForm, ActionUpdated, tenantID, f)
	return f, nil
}

func (s *formService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		f, err := st.Forms().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("form", id, err)
		}
		if err := s.guard.EnsureArtifactMutable(f, "delete form"); err != nil {
			return err
		}

		subs, _, err := st.Submissions().ListByForm(ctx, tenantID, id, 1, 0)
		if err != nil {
			return fmt.Errorf("list submissions of form %s: %w", id, err)
		}
		if len(subs) > 0 {
			return apperr.InvalidState("form %s has submissions; archive it instead of deleting", id)
		}

		panels, err := st.FormPanels().ListByForm(ctx, tenantID, id)
		if err != nil {
			return fmt.Errorf("list panels of form %s: %w", id, err)
		}
		panelIDs := make([]uuid.UUID, 0, len(panels))
		for _, p := range panels {
			panelIDs = append(panelIDs, p.ID)
		}
		if len(panelIDs) > 0 {
			if err := st.FormPanelFields().DeleteByPanels(ctx, tenantID, panelIDs); err != nil {
				return fmt.Errorf("delete placements of form %s: %w", id, err)
			}
			if err := st.FormPanelComponents().DeleteByPanels(ctx, tenantID, panelIDs); err != nil {
				return fmt.Errorf("delete instances of form %s: %w", id, err)
			}
			if err := st.FormPanels().DeleteMany(ctx, tenantID, panelIDs); err != nil {
				return fmt.Errorf("delete panels of form %s: %w", id, err)
			}
		}
		return st.Forms().Delete(ctx, tenantID, id)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, entityForm, ActionDeleted, tenantID, map[string]any{"id": id})
	return nil
}

func (s *formService) NewVersion(ctx context.Context, tenantID, sourceID uuid.UUID, actor *string) (*model.Form, error) {
	var clone *model.Form
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		src, err := st.Forms().GetByID(ctx, tenantID, sourceID)
		if err != nil {
			return notFoundOrErr("form", sourceID, err)
		}
		maxV, err := st.Forms().MaxVersion(ctx, tenantID, src.BusinessKey)
		if err != nil {
			return fmt.Errorf("max version of %q: %w", src.BusinessKey, err)
		}

		clone = &model.Form{
			TenantID:    tenantID,
			BusinessKey: src.BusinessKey,
			Version:     maxV + 1,
			FormKey:     src.FormKey,
			Name:        src.Name,
			Description: src.Description,
			CategoryID:  src.CategoryID,
			UIConfig:    src.UIConfig,
			CreatedBy:   actor,
			UpdatedBy:   actor,
		}
		if err := st.Forms().Create(ctx, clone); err != nil {
			return conflictOrErr(err, "create form version %d of %q", clone.Version, src.BusinessKey)
		}

		panels, err := st.FormPanels().ListByForm(ctx, tenantID, sourceID)
		if err != nil {
			return fmt.Errorf("list panels of form %s: %w", sourceID, err)
		}
		panelMap := make(map[uuid.UUID]uuid.UUID, len(panels))
		srcPanelIDs := make([]uuid.UUID, 0, len(panels))
		for _, p := range panels {
			srcPanelIDs = append(srcPanelIDs, p.ID)
			np := &model.FormPanel{
				TenantID:        tenantID,
				FormID:          clone.ID,
				PanelKey:        p.PanelKey,
				PanelLabel:      p.PanelLabel,
				PanelOrder:      p.PanelOrder,
				UIConfig:        p.UIConfig,
				NestedOverrides: p.NestedOverrides,
				CreatedBy:       actor,
				UpdatedBy:       actor,
			}
			if err := st.FormPanels().Create(ctx, np); err != nil {
				return fmt.Errorf("clone panel %q: %w", p.PanelKey, err)
			}
			panelMap[p.ID] = np.ID
		}
		for _, p := range panels {
			if p.ParentPanelID == nil {
				continue
			}
			newID := panelMap[p.ID]
			np, err := st.FormPanels().GetByID(ctx, tenantID, newID)
			if err != nil {
				return fmt.Errorf("reload cloned panel %s: %w", newID, err)
			}
			mapped, ok := panelMap[*p.ParentPanelID]
			if !ok {
				return apperr.InvalidState("panel %s references parent %s outside its form", p.ID, *p.ParentPanelID)
			}
			np.ParentPanelID = &mapped
			if err := st.FormPanels().Update(ctx, np); err != nil {
				return fmt.Errorf("remap parent of cloned panel %s: %w", newID, err)
			}
		}

		placements, err := st.FormPanelFields().ListByPanels(ctx, tenantID, srcPanelIDs)
		if err != nil {
			return fmt.Errorf("list placements of form %s: %w", sourceID, err)
		}
		for _, pl := range placements {
			npl := &model.FormPanelField{
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
			if err := st.FormPanelFields().Create(ctx, npl); err != nil {
				return fmt.Errorf("clone placement %s: %w", pl.ID, err)
			}
		}

		instances, err := st.FormPanelComponents().ListByPanels(ctx, tenantID, srcPanelIDs)
		if err != nil {
			return fmt.Errorf("list instances of form %s: %w", sourceID, err)
		}
		for _, inst := range instances {
			ni := &model.FormPanelComponent{
				TenantID:        tenantID,
				PanelID:         panelMap[inst.PanelID],
				ComponentID:     inst.ComponentID,
				InstanceKey:     inst.InstanceKey,
				UIConfig:        inst.UIConfig,
				NestedOverrides: inst.NestedOverrides,
				ComponentOrder:  inst.ComponentOrder,
				CreatedBy:       actor,
				UpdatedBy:       actor,
			}
			if err := st.FormPanelComponents().Create(ctx, ni); err != nil {
				return fmt.Errorf("clone instance %q: %w", inst.InstanceKey, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityForm, ActionCreated, tenantID, clone)
	return clone, nil
}

func (s *formService) Publish(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.Form, error) {
	var f *model.Form
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		f, err = st.Forms().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("form", id, err)
		}
		if f.IsPublished {
			return apperr.InvalidState("form %s is already published", id)
		}
		if f.IsArchived {
			return apperr.InvalidState("form %s is archived and cannot be published", id)
		}
		model.Publish(time.Now(), &f.IsPublished, &f.PublishedAt)
		f.UpdatedBy = actor
		if err := st.Forms().Update(ctx, f); err != nil {
			return fmt.Errorf("publish form %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityForm, ActionUpdated, tenantID, f)
	return f, nil
}

func (s *formService) Archive(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.Form, error) {
	var f *model.Form
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		f, err = st.Forms().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("form", id, err)
		}
		if f.IsArchived {
			return apperr.InvalidState("form %s is already archived", id)
		}
		model.Archive(time.Now(), &f.IsArchived, &f.ArchivedAt)
		f.UpdatedBy = actor
		if err := st.Forms().Update(ctx, f); err != nil {
			return fmt.Errorf("archive form %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityForm, ActionUpdated, tenantID, f)
	return f, nil
}
