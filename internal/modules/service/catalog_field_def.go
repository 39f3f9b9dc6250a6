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

type CreateFieldDefInput struct {
	BusinessKey string
	Name        string
	Description *string
	FieldKey    string
	Label       string
	CategoryID  *uuid.UUID
	DataType    *model.DataType
	ElementType model.ElementType
	Validation  datatypes.JSONMap
	UIConfig    datatypes.JSONMap
	Options     []FieldDefOptionInput
	Actor       *string
}

type FieldDefOptionInput struct {
	OptionKey   string
	OptionLabel string
	OptionOrder int
}

type UpdateFieldDefInput struct {
	Name        *string
	Description *string
	FieldKey    *string
	Label       *string
	CategoryID  *uuid.UUID
	DataType    *model.DataType
	ElementType *model.ElementType
	Validation  datatypes.JSONMap
	UIConfig    datatypes.JSONMap
	Actor       *string
}

// FieldDefService manages field definition catalog artifacts: CRUD on
// draft versions, option maintenance, the publish/archive lifecycle
// and version cloning.
type FieldDefService interface {
	Create(ctx context.Context, tenantID uuid.UUID, in CreateFieldDefInput) (*model.FieldDef, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.FieldDef, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.FieldDef, int64, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, in UpdateFieldDefInput) (*model.FieldDef, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	NewVersion(ctx context.Context, tenantID, sourceID uuid.UUID, actor *string) (*model.FieldDef, error)
	Publish(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.FieldDef, error)
	Archive(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.FieldDef, error)

	AddOption(ctx context.Context, tenantID, fieldDefID uuid.UUID, in FieldDefOptionInput, actor *string) (*model.FieldDefOption, error)
	UpdateOption(ctx context.Context, tenantID, fieldDefID, optionID uuid.UUID, in FieldDefOptionInput, actor *string) (*model.FieldDefOption, error)
	DeleteOption(ctx context.Context, tenantID, fieldDefID, optionID uuid.UUID, actor *string) error
}

type fieldDefService struct {
	catalogDeps
}

func NewFieldDefService(store repo.Store, guard Guard, events EventPublisher, log *zap.Logger) FieldDefService {
	return &fieldDefService{catalogDeps{store: store, guard: guard, events: events, log: log}}
}

func (s *fieldDefService) Create(ctx context.Context, tenantID uuid.UUID, in CreateFieldDefInput) (*model.FieldDef, error) {
	if !in.ElementType.Valid() {
		return nil, apperr.Validation("unknown element type %q", in.ElementType)
	}
	if !model.AlignedDataType(in.ElementType, in.DataType) {
		return nil, apperr.Validation("data type does not align with element type %s", in.ElementType)
	}

	fd := &model.FieldDef{
		TenantID:    tenantID,
		BusinessKey: in.BusinessKey,
		Version:     1,
		Name:        in.Name,
		Description: in.Description,
		FieldKey:    in.FieldKey,
		Label:       in.Label,
		CategoryID:  in.CategoryID,
		DataType:    in.DataType,
		ElementType: in.ElementType,
		Validation:  in.Validation,
		UIConfig:    in.UIConfig,
		CreatedBy:   in.Actor,
		UpdatedBy:   in.Actor,
	}

	err := s.store.Atomic(ctx, func(st repo.Store) error {
		live, err := st.FieldDefs().CountLiveVersions(ctx, tenantID, in.BusinessKey)
		if err != nil {
			return fmt.Errorf("count versions of %q: %w", in.BusinessKey, err)
		}
		if live > 0 {
			return apperr.Conflict("field definition %q already exists; create a new version instead", in.BusinessKey)
		}
		if err := st.FieldDefs().Create(ctx, fd); err != nil {
			return conflictOrErr(err, "create field def %q", in.BusinessKey)
		}
		for i, o := range in.Options {
			opt := &model.FieldDefOption{
				TenantID:    tenantID,
				FieldDefID:  fd.ID,
				OptionKey:   o.OptionKey,
				OptionLabel: o.OptionLabel,
				OptionOrder: o.OptionOrder,
				CreatedBy:   in.Actor,
			}
			if err := st.FieldDefs().CreateOption(ctx, opt); err != nil {
				return conflictOrErr(err, "create option %d of field def %s", i, fd.ID)
			}
			fd.Options = append(fd.Options, *opt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityFieldDef, ActionCreated, tenantID, fd)
	return fd, nil
}

func (s *fieldDefService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.FieldDef, error) {
	fd, err := s.store.FieldDefs().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFoundOrErr("field def", id, err)
	}
	return fd, nil
}

func (s *fieldDefService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.FieldDef, int64, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.FieldDefs().List(ctx, tenantID, limit, offset)
}

func (s *fieldDefService) Update(ctx context.Context, tenantID, id uuid.UUID, in UpdateFieldDefInput) (*model.FieldDef, error) {
	var fd *model.FieldDef
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		fd, err = st.FieldDefs().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("field def", id, err)
		}
		if err := s.guard.EnsureArtifactMutable(fd, "update field def"); err != nil {
			return err
		}

		if in.Name != nil {
			fd.Name = *in.Name
		}
		if in.Description != nil {
			fd.Description = in.Description
		}
		if in.FieldKey != nil {
			fd.FieldKey = *in.FieldKey
		}
		if in.Label != nil {
			fd.Label = *in.Label
		}
		if in.CategoryID != nil {
			fd.CategoryID = in.CategoryID
		}
		if in.ElementType != nil {
			if !in.ElementType.Valid() {
				return apperr.Validation("unknown element type %q", *in.ElementType)
			}
			fd.ElementType = *in.ElementType
		}
		if in.DataType != nil {
			fd.DataType = in.DataType
		}
		if !model.AlignedDataType(fd.ElementType, fd.DataType) {
			return apperr.Validation("data type does not align with element type %s", fd.ElementType)
		}
		if in.Validation != nil {
			fd.Validation = in.Validation
		}
		if in.UIConfig != nil {
			fd.UIConfig = in.UIConfig
		}
		fd.UpdatedBy = in.Actor

		if err := st.FieldDefs().Update(ctx, fd); err != nil {
			return fmt.Errorf("update field def %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityFieldDef, ActionUpdated, tenantID, fd)
	return fd, nil
}

func (s *fieldDefService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		fd, err := st.FieldDefs().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("field def", id, err)
		}
		if err := s.guard.EnsureArtifactMutable(fd, "delete field def"); err != nil {
			return err
		}

		cpf, err := st.ComponentPanelFields().ListByFieldDef(ctx, tenantID, id)
		if err != nil {
			return fmt.Errorf("list component placements of field def %s: %w", id, err)
		}
		fpf, err := st.FormPanelFields().ListByFieldDef(ctx, tenantID, id)
		if err != nil {
			return fmt.Errorf("list form placements of field def %s: %w", id, err)
		}
		if len(cpf)+len(fpf) > 0 {
			return apperr.InvalidState("field def %s is placed on %d panel(s); remove the placements first", id, len(cpf)+len(fpf))
		}
		return st.FieldDefs().Delete(ctx, tenantID, id)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, entityFieldDef, ActionDeleted, tenantID, map[string]any{"id": id})
	return nil
}

// NewVersion clones the source field definition (with its options)
// into an unpublished draft carrying the next version number of the
// same business key.
func (s *fieldDefService) NewVersion(ctx context.Context, tenantID, sourceID uuid.UUID, actor *string) (*model.FieldDef, error) {
	var clone *model.FieldDef
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		src, err := st.FieldDefs().GetByID(ctx, tenantID, sourceID)
		if err != nil {
			return notFoundOrErr("field def", sourceID, err)
		}
		maxV, err := st.FieldDefs().MaxVersion(ctx, tenantID, src.BusinessKey)
		if err != nil {
			return fmt.Errorf("max version of %q: %w", src.BusinessKey, err)
		}

		clone = &model.FieldDef{
			TenantID:    tenantID,
			BusinessKey: src.BusinessKey,
			Version:     maxV + 1,
			Name:        src.Name,
			Description: src.Description,
			FieldKey:    src.FieldKey,
			Label:       src.Label,
			CategoryID:  src.CategoryID,
			DataType:    src.DataType,
			ElementType: src.ElementType,
			Validation:  src.Validation,
			UIConfig:    src.UIConfig,
			CreatedBy:   actor,
			UpdatedBy:   actor,
		}
		if err := st.FieldDefs().Create(ctx, clone); err != nil {
			return conflictOrErr(err, "create field def version %d of %q", clone.Version, src.BusinessKey)
		}
		for _, o := range src.Options {
			opt := &model.FieldDefOption{
				TenantID:    tenantID,
				FieldDefID:  clone.ID,
				OptionKey:   o.OptionKey,
				OptionLabel: o.OptionLabel,
				OptionOrder: o.OptionOrder,
				CreatedBy:   actor,
			}
			if err := st.FieldDefs().CreateOption(ctx, opt); err != nil {
				return fmt.Errorf("clone option %q: %w", o.OptionKey, err)
			}
			clone.Options = append(clone.Options, *opt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityFieldDef, ActionCreated, tenantID, clone)
	return clone, nil
}

func (s *fieldDefService) Publish(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.FieldDef, error) {
	var fd *model.FieldDef
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		fd, err = st.FieldDefs().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("field def", id, err)
		}
		if fd.IsPublished {
			return apperr.InvalidState("field def %s is already published", id)
		}
		if fd.IsArchived {
			return apperr.InvalidState("field def %s is archived and cannot be published", id)
		}
		if (fd.ElementType == model.ElementSelect || fd.ElementType == model.ElementMultiSelect) && len(fd.Options) == 0 {
			return apperr.InvalidState("field def %s is a %s and needs at least one option before publishing", id, fd.ElementType)
		}

		model.Publish(time.Now(), &fd.IsPublished, &fd.PublishedAt)
		fd.UpdatedBy = actor
		if err := st.FieldDefs().Update(ctx, fd); err != nil {
			return fmt.Errorf("publish field def %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityFieldDef, ActionUpdated, tenantID, fd)
	return fd, nil
}

// Archive retires the artifact from the catalog palette. Published
// artifacts may be archived; archival never reopens them for editing.
func (s *fieldDefService) Archive(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.FieldDef, error) {
	var fd *model.FieldDef
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		fd, err = st.FieldDefs().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("field def", id, err)
		}
		if fd.IsArchived {
			return apperr.InvalidState("field def %s is already archived", id)
		}
		model.Archive(time.Now(), &fd.IsArchived, &fd.ArchivedAt)
		fd.UpdatedBy = actor
		if err := st.FieldDefs().Update(ctx, fd); err != nil {
			return fmt.Errorf("archive field def %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityFieldDef, ActionUpdated, tenantID, fd)
	return fd, nil
}

func (s *fieldDefService) AddOption(ctx context.Context, tenantID, fieldDefID uuid.UUID, in FieldDefOptionInput, actor *string) (*model.FieldDefOption, error) {
	var opt *model.FieldDefOption
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		fd, err := st.FieldDefs().GetByID(ctx, tenantID, fieldDefID)
		if err != nil {
			return notFoundOrErr("field def", fieldDefID, err)
		}
		if err := s.guard.EnsureArtifactMutable(fd, "add option"); err != nil {
			return err
		}
		opt = &model.FieldDefOption{
			TenantID:    tenantID,
			FieldDefID:  fieldDefID,
			OptionKey:   in.OptionKey,
			OptionLabel: in.OptionLabel,
			OptionOrder: in.OptionOrder,
			CreatedBy:   actor,
		}
		if err := st.FieldDefs().CreateOption(ctx, opt); err != nil {
			return fmt.Errorf("add option %q to field def %s: %w", in.OptionKey, fieldDefID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityFieldDef, ActionUpdated, tenantID, map[string]any{"id": fieldDefID, "option": opt})
	return opt, nil
}

func (s *fieldDefService) UpdateOption(ctx context.Context, tenantID, fieldDefID, optionID uuid.UUID, in FieldDefOptionInput, actor *string) (*model.FieldDefOption, error) {
	var opt *model.FieldDefOption
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		fd, err := st.FieldDefs().GetByID(ctx, tenantID, fieldDefID)
		if err != nil {
			return notFoundOrErr("field def", fieldDefID, err)
		}
		if err := s.guard.EnsureArtifactMutable(fd, "update option"); err != nil {
			return err
		}
		for i := range fd.Options {
			if fd.Options[i].ID == optionID {
				opt = &fd.Options[i]
				break
			}
		}
		if opt == nil {
			return apperr.NotFound("field def option", optionID)
		}
		opt.OptionKey = in.OptionKey
		opt.OptionLabel = in.OptionLabel
		opt.OptionOrder = in.OptionOrder
		if err := st.FieldDefs().UpdateOption(ctx, opt); err != nil {
			return fmt.Errorf("update option %s: %w", optionID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entityFieldDef, ActionUpdated, tenantID, map[string]any{"id": fieldDefID, "option": opt})
	return opt, nil
}

func (s *fieldDefService) DeleteOption(ctx context.Context, tenantID, fieldDefID, optionID uuid.UUID, actor *string) error {
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		fd, err := st.FieldDefs().GetByID(ctx, tenantID, fieldDefID)
		if err != nil {
			return notFoundOrErr("field def", fieldDefID, err)
		}
		if err := s.guard.EnsureArtifactMutable(fd, "delete option"); err != nil {
			return err
		}
		return st.FieldDefs().DeleteOption(ctx, tenantID, optionID)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, entityFieldDef, ActionUpdated, tenantID, map[string]any{"id": fieldDefID, "deleted_option_id": optionID})
	return nil
}
