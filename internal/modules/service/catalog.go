package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/repo"
	"github.com/dynoform/composer/internal/pkg/apperr"
)

// Routing key entity segments.
const (
	entityFieldDef           = "field-def"
	entityComponent          = "component"
	entityForm               = "form"
	entityCategory           = "catalog-category"
	entityComponentPanel     = "component-panel"
	entityFormPanel          = "form-panel"
	entityComponentField     = "component-panel-field"
	entityFormField          = "form-panel-field"
	entityFormPanelComponent = "form-panel-component"
	entitySubmission         = "form-submission"
)

func routingKey(entity, action string) string {
	return entity + "." + action
}

// catalogDeps bundles the collaborators every catalog service shares.
type catalogDeps struct {
	store  repo.Store
	guard  Guard
	events EventPublisher
	log    *zap.Logger
}

// emit publishes a domain event after a committed write. Broker
// failures are logged, never surfaced: the write already happened.
func (d *catalogDeps) emit(ctx context.Context, entity, action string, tenantID uuid.UUID, data any) {
	key := routingKey(entity, action)
	env := NewEnvelope(key, tenantID, data)
	if err := d.events.Publish(ctx, key, env); err != nil {
		d.log.Warn("domain event publish failed",
			zap.String("routing_key", key),
			zap.String("event_id", env.EventID.String()),
			zap.Error(err))
	}
}

func notFoundOrErr(entity string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return fmt.Errorf("load %s %s: %w", entity, id, err)
}

// conflictOrErr classifies a failed write: a unique-index violation is
// an identity conflict the caller can resolve, anything else keeps its
// operation context. Covers duplicate business key+version, panel key,
// placement, instance key and field_order, which are all enforced by
// unique indexes rather than pre-checks.
func conflictOrErr(err error, format string, args ...any) error {
	op := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.CodeConflictingIdentity, err, "%s: identity already exists", op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
