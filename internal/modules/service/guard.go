package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/modules/repo"
	"github.com/dynoform/composer/internal/pkg/apperr"
)

// Guard is the pre-write interceptor enforcing publish immutability.
// Every mutation of a catalog artifact or structural node must pass
// through it before touching the store; it never sees submissions.
//
// Callers invoke the guard inside the same store transaction as the
// write, so the published-flag read and the write commit or fail as
// one unit.
type Guard interface {
	// EnsureArtifactMutable rejects the operation when the artifact
	// itself is published.
	EnsureArtifactMutable(a model.CatalogArtifact, op string) error

	// EnsureNodeMutable resolves the artifact owning the structural
	// node and rejects the operation when that artifact is published.
	EnsureNodeMutable(ctx context.Context, st repo.Store, tenantID uuid.UUID, ref model.NodeRef, op string) error

	// ResolveOwningArtifact walks the ownership chain (panel -> owner
	// for panels, placement -> panel -> owner for placements and
	// instances) up to the catalog artifact.
	ResolveOwningArtifact(ctx context.Context, st repo.Store, tenantID uuid.UUID, ref model.NodeRef) (model.CatalogArtifact, error)
}

type guard struct {
	log *zap.Logger
}

func NewGuard(log *zap.Logger) Guard {
	return &guard{log: log}
}

func (g *guard) EnsureArtifactMutable(a model.CatalogArtifact, op string) error {
	if a.Published() {
		g.log.Info("rejected mutation of published artifact",
			zap.String("artifact_id", a.ArtifactID().String()),
			zap.String("kind", string(a.ArtifactKind())),
			zap.String("op", op))
		return apperr.ImmutableArtifact(a.ArtifactID(), op)
	}
	return nil
}

func (g *guard) EnsureNodeMutable(ctx context.Context, st repo.Store, tenantID uuid.UUID, ref model.NodeRef, op string) error {
	owner, err := g.ResolveOwningArtifact(ctx, st, tenantID, ref)
	if err != nil {
		return err
	}
	if owner.Published() {
		g.log.Info("rejected mutation under published artifact",
			zap.String("artifact_id", owner.ArtifactID().String()),
			zap.String("node_kind", string(ref.Kind)),
			zap.String("node_id", ref.ID.String()),
			zap.String("op", op))
		return apperr.ImmutableStructure(owner.ArtifactID(), op)
	}
	return nil
}

func (g *guard) ResolveOwningArtifact(ctx context.Context, st repo.Store, tenantID uuid.UUID, ref model.NodeRef) (model.CatalogArtifact, error) {
	switch ref.Kind {
	case model.NodeComponentPanel:
		panel, err := st.ComponentPanels().GetByID(ctx, tenantID, ref.ID)
		if err != nil {
			return nil, guardLookupErr("component panel", ref.ID, err)
		}
		return lookupComponent(ctx, st, tenantID, panel.ComponentID)

	case model.NodeFormPanel:
		panel, err := st.FormPanels().GetByID(ctx, tenantID, ref.ID)
		if err != nil {
			return nil, guardLookupErr("form panel", ref.ID, err)
		}
		return lookupForm(ctx, st, tenantID, panel.FormID)

	case model.NodeComponentPanelField:
		placement, err := st.ComponentPanelFields().GetByID(ctx, tenantID, ref.ID)
		if err != nil {
			return nil, guardLookupErr("component panel field", ref.ID, err)
		}
		panel, err := st.ComponentPanels().GetByID(ctx, tenantID, placement.PanelID)
		if err != nil {
			return nil, guardLookupErr("component panel", placement.PanelID, err)
		}
		return lookupComponent(ctx, st, tenantID, panel.ComponentID)

	case model.NodeFormPanelField:
		placement, err := st.FormPanelFields().GetByID(ctx, tenantID, ref.ID)
		if err != nil {
			return nil, guardLookupErr("form panel field", ref.ID, err)
		}
		panel, err := st.FormPanels().GetByID(ctx, tenantID, placement.PanelID)
		if err != nil {
			return nil, guardLookupErr("form panel", placement.PanelID, err)
		}
		return lookupForm(ctx, st, tenantID, panel.FormID)

	case model.NodeFormPanelComponent:
		instance, err := st.FormPanelComponents().GetByID(ctx, tenantID, ref.ID)
		if err != nil {
			return nil, guardLookupErr("form panel component", ref.ID, err)
		}
		panel, err := st.FormPanels().GetByID(ctx, tenantID, instance.PanelID)
		if err != nil {
			return nil, guardLookupErr("form panel", instance.PanelID, err)
		}
		return lookupForm(ctx, st, tenantID, panel.FormID)

	default:
		// Unknown node shapes fail closed; a silent pass here would
		// punch a hole through the immutability rule.
		return nil, apperr.GuardMisconfigured("guard has no ownership resolution for node kind %q", ref.Kind)
	}
}

func lookupComponent(ctx context.Context, st repo.Store, tenantID, id uuid.UUID) (model.CatalogArtifact, error) {
	c, err := st.Components().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, guardLookupErr("component", id, err)
	}
	return c, nil
}

func lookupForm(ctx context.Context, st repo.Store, tenantID, id uuid.UUID) (model.CatalogArtifact, error) {
	f, err := st.Forms().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, guardLookupErr("form", id, err)
	}
	return f, nil
}

func guardLookupErr(entity string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return fmt.Errorf("resolve %s %s: %w", entity, id, err)
}
