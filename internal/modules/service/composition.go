package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/dynoform/composer/internal/modules/repo"
)

// Shared input shapes for the two composition services.

type PanelInput struct {
	PanelKey      string
	PanelLabel    *string
	ParentPanelID *uuid.UUID
	PanelOrder    int
	UIConfig      datatypes.JSONMap
	PanelActions  datatypes.JSON
	Actor         *string
}

type PanelUpdateInput struct {
	PanelLabel    *string
	ParentPanelID *uuid.UUID
	PanelOrder    *int
	UIConfig      datatypes.JSONMap
	PanelActions  datatypes.JSON
	Actor         *string
}

type PlaceFieldInput struct {
	FieldDefID uuid.UUID
	FieldOrder *int
	UIConfig   datatypes.JSONMap
	Actor      *string
}

type PlacementUpdateInput struct {
	FieldOrder *int
	UIConfig   datatypes.JSONMap
	// FieldConfig replaces the imprinted document wholesale. The config
	// hash is recomputed; the source hash is untouched so drift against
	// the catalog stays detectable.
	FieldConfig datatypes.JSONMap
	Actor       *string
}

type EmbedComponentInput struct {
	ComponentID    uuid.UUID
	InstanceKey    string
	ComponentOrder int
	UIConfig       datatypes.JSONMap
	Actor          *string
}

type InstanceUpdateInput struct {
	ComponentOrder *int
	UIConfig       datatypes.JSONMap
	Actor          *string
}

// formsEmbeddingComponent resolves which forms currently embed the
// component, for render cache invalidation after structural edits.
func formsEmbeddingComponent(ctx context.Context, st repo.Store, tenantID, componentID uuid.UUID) ([]uuid.UUID, error) {
	instances, err := st.FormPanelComponents().ListByComponent(ctx, tenantID, componentID)
	if err != nil {
		return nil, fmt.Errorf("list instances of component %s: %w", componentID, err)
	}
	seen := make(map[uuid.UUID]struct{})
	var formIDs []uuid.UUID
	for _, inst := range instances {
		panel, err := st.FormPanels().GetByID(ctx, tenantID, inst.PanelID)
		if err != nil {
			return nil, fmt.Errorf("load panel %s of instance %s: %w", inst.PanelID, inst.ID, err)
		}
		if _, ok := seen[panel.FormID]; ok {
			continue
		}
		seen[panel.FormID] = struct{}{}
		formIDs = append(formIDs, panel.FormID)
	}
	return formIDs, nil
}

// descendantPanels returns panelID plus every transitive child within
// the given sibling set.
func descendantPanels[T any](panelID uuid.UUID, all []T, id func(T) uuid.UUID, parent func(T) *uuid.UUID) []uuid.UUID {
	children := make(map[uuid.UUID][]uuid.UUID, len(all))
	for _, p := range all {
		if pp := parent(p); pp != nil {
			children[*pp] = append(children[*pp], id(p))
		}
	}
	out := []uuid.UUID{panelID}
	for i := 0; i < len(out); i++ {
		out = append(out, children[out[i]]...)
	}
	return out
}
