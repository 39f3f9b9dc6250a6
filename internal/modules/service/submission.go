package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/modules/repo"
	"github.com/dynoform/composer/internal/pkg/apperr"
	"github.com/dynoform/composer/internal/pkg/selector"
)

type UpsertValueInput struct {
	FieldPath  string
	FieldDefID uuid.UUID

	// Exactly one placement mode: a direct form-panel placement, or a
	// component placement identified by instance plus component field.
	FormPanelFieldID      *uuid.UUID
	FormPanelComponentID  *uuid.UUID
	ComponentPanelFieldID *uuid.UUID

	Value datatypes.JSON
	Actor *string
}

// SubmissionService manages submission envelopes and their values.
// Submissions sit outside the publish-immutability guard; their own
// lifecycle (submitted, archived) gates mutation instead.
type SubmissionService interface {
	Create(ctx context.Context, tenantID, formID uuid.UUID, actor *string) (*model.FormSubmission, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.FormSubmission, error)
	ListByForm(ctx context.Context, tenantID, formID uuid.UUID, limit, offset int) ([]*model.FormSubmission, int64, error)
	Submit(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.FormSubmission, error)
	Reopen(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.FormSubmission, error)
	Archive(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.FormSubmission, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	UpsertValue(ctx context.Context, tenantID, submissionID uuid.UUID, in UpsertValueInput) (*model.FormSubmissionValue, error)
	ListValues(ctx context.Context, tenantID, submissionID uuid.UUID) ([]*model.FormSubmissionValue, error)
	DeleteValue(ctx context.Context, tenantID, submissionID, valueID uuid.UUID) error
}

type submissionService struct {
	catalogDeps
}

func NewSubmissionService(store repo.Store, events EventPublisher, log *zap.Logger) SubmissionService {
	return &submissionService{catalogDeps{store: store, events: events, log: log}}
}

func (s *submissionService) Create(ctx context.Context, tenantID, formID uuid.UUID, actor *string) (*model.FormSubmission, error) {
	var sub *model.FormSubmission
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		form, err := st.Forms().GetByID(ctx, tenantID, formID)
		if err != nil {
			return notFoundOrErr("form", formID, err)
		}
		if !form.IsPublished {
			return apperr.InvalidState("form %s is not published; submissions need a published form", formID)
		}
		if form.IsArchived {
			return apperr.InvalidState("form %s is archived and no longer accepts submissions", formID)
		}
		sub = &model.FormSubmission{
			TenantID:  tenantID,
			FormID:    formID,
			CreatedBy: actor,
			UpdatedBy: actor,
		}
		if err := st.Submissions().Create(ctx, sub); err != nil {
			return fmt.Errorf("create submission for form %s: %w", formID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entitySubmission, ActionCreated, tenantID, sub)
	return sub, nil
}

func (s *submissionService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.FormSubmission, error) {
	sub, err := s.store.Submissions().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFoundOrErr("submission", id, err)
	}
	return sub, nil
}

func (s *submissionService) ListByForm(ctx context.Context, tenantID, formID uuid.UUID, limit, offset int) ([]*model.FormSubmission, int64, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.Submissions().ListByForm(ctx, tenantID, formID, limit, offset)
}

// Submit finalizes the draft. Each (re)submit bumps the submission
// version; version 0 always means never submitted.
func (s *submissionService) Submit(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.FormSubmission, error) {
	var sub *model.FormSubmission
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		sub, err = st.Submissions().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("submission", id, err)
		}
		if sub.IsArchived {
			return apperr.InvalidState("submission %s is archived", id)
		}
		if sub.IsSubmitted {
			return apperr.InvalidState("submission %s is already submitted; reopen it to make changes", id)
		}
		now := time.Now().UTC()
		sub.IsSubmitted = true
		sub.SubmissionVersion++
		sub.SubmittedAt = &now
		sub.SubmittedBy = actor
		sub.UpdatedBy = actor
		if err := st.Submissions().Update(ctx, sub); err != nil {
			return fmt.Errorf("submit submission %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entitySubmission, ActionUpdated, tenantID, sub)
	return sub, nil
}

// Reopen returns a submitted submission to draft so values can change
// again. The submission version is kept; the next submit bumps it.
func (s *submissionService) Reopen(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.FormSubmission, error) {
	var sub *model.FormSubmission
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		sub, err = st.Submissions().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("submission", id, err)
		}
		if sub.IsArchived {
			return apperr.InvalidState("submission %s is archived", id)
		}
		if !sub.IsSubmitted {
			return apperr.InvalidState("submission %s is already a draft", id)
		}
		sub.IsSubmitted = false
		sub.SubmittedAt = nil
		sub.SubmittedBy = nil
		sub.UpdatedBy = actor
		if err := st.Submissions().Update(ctx, sub); err != nil {
			return fmt.Errorf("reopen submission %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entitySubmission, ActionUpdated, tenantID, sub)
	return sub, nil
}

// Archive copies the envelope and all values into the archive tables
// and flags the live row. Archived submissions are permanently
// read-only.
func (s *submissionService) Archive(ctx context.Context, tenantID, id uuid.UUID, actor *string) (*model.FormSubmission, error) {
	var sub *model.FormSubmission
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		var err error
		sub, err = st.Submissions().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("submission", id, err)
		}
		if sub.IsArchived {
			return apperr.InvalidState("submission %s is already archived", id)
		}

		now := time.Now().UTC()
		archive := &model.FormSubmissionArchive{
			ID:                sub.ID,
			TenantID:          sub.TenantID,
			FormID:            sub.FormID,
			IsSubmitted:       sub.IsSubmitted,
			SubmissionVersion: sub.SubmissionVersion,
			SubmittedAt:       sub.SubmittedAt,
			SubmittedBy:       sub.SubmittedBy,
			ArchivedAt:        now,
			ArchivedBy:        actor,
			CreatedAt:         sub.CreatedAt,
		}
		if err := st.Submissions().CreateArchive(ctx, archive); err != nil {
			return fmt.Errorf("archive submission %s: %w", id, err)
		}

		values, err := st.Submissions().ListValues(ctx, tenantID, id)
		if err != nil {
			return fmt.Errorf("list values of submission %s: %w", id, err)
		}
		if len(values) > 0 {
			archives := make([]model.FormSubmissionValueArchive, 0, len(values))
			for _, v := range values {
				archives = append(archives, model.FormSubmissionValueArchive{
					ID:               v.ID,
					TenantID:         v.TenantID,
					FormSubmissionID: v.FormSubmissionID,
					FieldDefID:       v.FieldDefID,
					FieldPath:        v.FieldPath,
					Value:            v.Value,
					ArchivedAt:       now,
				})
			}
			if err := st.Submissions().CreateValueArchives(ctx, archives); err != nil {
				return fmt.Errorf("archive values of submission %s: %w", id, err)
			}
		}

		model.Archive(now, &sub.IsArchived, &sub.ArchivedAt)
		sub.UpdatedBy = actor
		if err := st.Submissions().Update(ctx, sub); err != nil {
			return fmt.Errorf("flag submission %s archived: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entitySubmission, ActionUpdated, tenantID, sub)
	return sub, nil
}

func (s *submissionService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		sub, err := st.Submissions().GetByID(ctx, tenantID, id)
		if err != nil {
			return notFoundOrErr("submission", id, err)
		}
		if sub.IsSubmitted {
			return apperr.InvalidState("submission %s has been submitted; archive it instead of deleting", id)
		}
		if err := st.Submissions().DeleteValuesBySubmission(ctx, tenantID, id); err != nil {
			return fmt.Errorf("delete values of submission %s: %w", id, err)
		}
		return st.Submissions().Delete(ctx, tenantID, id)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, entitySubmission, ActionDeleted, tenantID, map[string]any{"id": id})
	return nil
}

// UpsertValue writes one field value keyed by its absolute field path.
// The path is re-written on every upsert so a stale client path cannot
// diverge from the referenced placement.
func (s *submissionService) UpsertValue(ctx context.Context, tenantID, submissionID uuid.UUID, in UpsertValueInput) (*model.FormSubmissionValue, error) {
	if err := validatePlacementRef(in); err != nil {
		return nil, err
	}
	sel, err := selector.Parse(in.FieldPath)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, err, "bad field path %q", in.FieldPath)
	}
	if sel.Relative {
		return nil, apperr.Validation("field path %q must be absolute", in.FieldPath)
	}

	var value *model.FormSubmissionValue
	err = s.store.Atomic(ctx, func(st repo.Store) error {
		sub, err := st.Submissions().GetByID(ctx, tenantID, submissionID)
		if err != nil {
			return notFoundOrErr("submission", submissionID, err)
		}
		if sub.IsArchived {
			return apperr.InvalidState("submission %s is archived", submissionID)
		}
		if sub.IsSubmitted {
			return apperr.InvalidState("submission %s is submitted; reopen it to change values", submissionID)
		}
		if err := verifyPlacements(ctx, st, tenantID, in); err != nil {
			return err
		}

		searchText := searchTextOf(in.Value)
		existing, err := st.Submissions().GetValueByPath(ctx, tenantID, submissionID, sel.String())
		switch {
		case err == nil:
			existing.FieldDefID = in.FieldDefID
			existing.FormPanelFieldID = in.FormPanelFieldID
			existing.FormPanelComponentID = in.FormPanelComponentID
			existing.ComponentPanelFieldID = in.ComponentPanelFieldID
			existing.Value = in.Value
			existing.ValueSearchText = searchText
			existing.UpdatedBy = in.Actor
			if err := st.Submissions().UpdateValue(ctx, existing); err != nil {
				return fmt.Errorf("update value at %q: %w", in.FieldPath, err)
			}
			value = existing
			return nil
		case isNotFound(err):
			value = &model.FormSubmissionValue{
				TenantID:              tenantID,
				FormSubmissionID:      submissionID,
				FieldDefID:            in.FieldDefID,
				FieldPath:             sel.String(),
				FormPanelFieldID:      in.FormPanelFieldID,
				FormPanelComponentID:  in.FormPanelComponentID,
				ComponentPanelFieldID: in.ComponentPanelFieldID,
				Value:                 in.Value,
				ValueSearchText:       searchText,
				CreatedBy:             in.Actor,
				UpdatedBy:             in.Actor,
			}
			if err := st.Submissions().CreateValue(ctx, value); err != nil {
				return conflictOrErr(err, "create value at %q", in.FieldPath)
			}
			return nil
		default:
			return fmt.Errorf("load value at %q: %w", in.FieldPath, err)
		}
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, entitySubmission, ActionUpdated, tenantID, map[string]any{"id": submissionID, "value": value})
	return value, nil
}

func (s *submissionService) ListValues(ctx context.Context, tenantID, submissionID uuid.UUID) ([]*model.FormSubmissionValue, error) {
	if _, err := s.store.Submissions().GetByID(ctx, tenantID, submissionID); err != nil {
		return nil, notFoundOrErr("submission", submissionID, err)
	}
	return s.store.Submissions().ListValues(ctx, tenantID, submissionID)
}

func (s *submissionService) DeleteValue(ctx context.Context, tenantID, submissionID, valueID uuid.UUID) error {
	err := s.store.Atomic(ctx, func(st repo.Store) error {
		sub, err := st.Submissions().GetByID(ctx, tenantID, submissionID)
		if err != nil {
			return notFoundOrErr("submission", submissionID, err)
		}
		if sub.IsArchived {
			return apperr.InvalidState("submission %s is archived", submissionID)
		}
		if sub.IsSubmitted {
			return apperr.InvalidState("submission %s is submitted; reopen it to change values", submissionID)
		}
		return st.Submissions().DeleteValue(ctx, tenantID, valueID)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, entitySubmission, ActionUpdated, tenantID, map[string]any{"id": submissionID, "deleted_value_id": valueID})
	return nil
}

// validatePlacementRef enforces value placement exclusivity: a direct
// form placement and a component placement are mutually exclusive, and
// a component placement needs both halves of its reference.
func validatePlacementRef(in UpsertValueInput) error {
	direct := in.FormPanelFieldID != nil
	component := in.FormPanelComponentID != nil || in.ComponentPanelFieldID != nil
	switch {
	case direct && component:
		return apperr.Validation("value cannot reference both a direct placement and a component placement")
	case !direct && !component:
		return apperr.Validation("value needs a placement reference")
	case component && (in.FormPanelComponentID == nil || in.ComponentPanelFieldID == nil):
		return apperr.Validation("component placement needs both form_panel_component_id and component_panel_field_id")
	}
	return nil
}

func verifyPlacements(ctx context.Context, st repo.Store, tenantID uuid.UUID, in UpsertValueInput) error {
	if in.FormPanelFieldID != nil {
		pl, err := st.FormPanelFields().GetByID(ctx, tenantID, *in.FormPanelFieldID)
		if err != nil {
			return notFoundOrErr("form panel field", *in.FormPanelFieldID, err)
		}
		if pl.FieldDefID != in.FieldDefID {
			return apperr.Validation("placement %s does not reference field def %s", pl.ID, in.FieldDefID)
		}
		return nil
	}
	inst, err := st.FormPanelComponents().GetByID(ctx, tenantID, *in.FormPanelComponentID)
	if err != nil {
		return notFoundOrErr("form panel component", *in.FormPanelComponentID, err)
	}
	pl, err := st.ComponentPanelFields().GetByID(ctx, tenantID, *in.ComponentPanelFieldID)
	if err != nil {
		return notFoundOrErr("component panel field", *in.ComponentPanelFieldID, err)
	}
	if pl.FieldDefID != in.FieldDefID {
		return apperr.Validation("placement %s does not reference field def %s", pl.ID, in.FieldDefID)
	}
	panel, err := st.ComponentPanels().GetByID(ctx, tenantID, pl.PanelID)
	if err != nil {
		return notFoundOrErr("component panel", pl.PanelID, err)
	}
	if panel.ComponentID != inst.ComponentID {
		return apperr.Validation("component field %s does not belong to the component embedded by instance %s", pl.ID, inst.ID)
	}
	return nil
}

// searchTextOf flattens scalar leaves of a JSON value into a single
// lowercase string for substring search.
func searchTextOf(raw datatypes.JSON) *string {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return nil
	}
	var parts []string
	flattenScalars(v, &parts)
	if len(parts) == 0 {
		return nil
	}
	out := strings.ToLower(strings.Join(parts, " "))
	return &out
}

func flattenScalars(v any, out *[]string) {
	switch t := v.(type) {
	case string:
		if t != "" {
			*out = append(*out, t)
		}
	case float64:
		*out = append(*out, strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*out = append(*out, strconv.FormatBool(t))
	case map[string]any:
		for _, e := range t {
			flattenScalars(e, out)
		}
	case []any:
		for _, e := range t {
			flattenScalars(e, out)
		}
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || apperr.IsCode(err, apperr.CodeNotFound)
}
