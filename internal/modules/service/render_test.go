package service

import (
	"testing"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/pkg/docschema"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func panelAccessors() (func(*model.FormPanel) uuid.UUID, func(*model.FormPanel) *uuid.UUID, func(*model.FormPanel) int) {
	return func(p *model.FormPanel) uuid.UUID { return p.ID },
		func(p *model.FormPanel) *uuid.UUID { return p.ParentPanelID },
		func(p *model.FormPanel) int { return p.PanelOrder }
}

func TestOrderPanelsTopDown(t *testing.T) {
	root1 := &model.FormPanel{ID: uuid.New(), PanelKey: "b_root", PanelOrder: 1}
	root0 := &model.FormPanel{ID: uuid.New(), PanelKey: "a_root", PanelOrder: 0}
	child := &model.FormPanel{ID: uuid.New(), PanelKey: "child", ParentPanelID: &root1.ID, PanelOrder: 0}
	grandchild := &model.FormPanel{ID: uuid.New(), PanelKey: "grandchild", ParentPanelID: &child.ID, PanelOrder: 0}

	// deliberately shuffled input
	id, parent, order := panelAccessors()
	out := orderPanelsTopDown([]*model.FormPanel{grandchild, root1, child, root0}, id, parent, order)

	require.Len(t, out, 4)
	assert.Equal(t, "a_root", out[0].PanelKey)
	assert.Equal(t, "b_root", out[1].PanelKey)
	assert.Equal(t, "child", out[2].PanelKey)
	assert.Equal(t, "grandchild", out[3].PanelKey)
}

func TestOrderPanelsTopDownDropsOrphans(t *testing.T) {
	missing := uuid.New()
	root := &model.FormPanel{ID: uuid.New(), PanelKey: "root", PanelOrder: 0}
	orphan := &model.FormPanel{ID: uuid.New(), PanelKey: "orphan", ParentPanelID: &missing, PanelOrder: 1}

	id, parent, order := panelAccessors()
	out := orderPanelsTopDown([]*model.FormPanel{root, orphan}, id, parent, order)

	require.Len(t, out, 1)
	assert.Equal(t, "root", out[0].PanelKey)
}

func renderedFixture() (map[string]renderTarget, *RenderedField, *RenderedPanel) {
	field := &RenderedField{
		PlacementID: uuid.New(),
		FieldKey:    "email",
		FieldConfig: map[string]any{
			"schema_version": 1,
			"field": map[string]any{
				"field_key":    "email",
				"label":        "Email",
				"element_type": "TEXT",
			},
			"options": []any{},
		},
	}
	label := "Contact"
	panel := &RenderedPanel{
		PanelID:    uuid.New(),
		PanelKey:   "p1",
		PanelLabel: &label,
		UIConfig:   map[string]any{"columns": float64(2)},
	}
	index := map[string]renderTarget{
		"p1":           {panel: panel},
		"p1.cp1":       {component: &RenderedComponent{InstanceKey: "cp1"}},
		"p1.cp1.email": {field: field},
	}
	return index, field, panel
}

func overridesDoc(t *testing.T, m map[string]any) *docschema.OverridesDoc {
	t.Helper()
	doc, err := docschema.ValidateOverridesMap(m)
	require.NoError(t, err)
	return doc
}

func TestApplyOverridesAbsoluteSelector(t *testing.T) {
	s := &renderService{log: zap.NewNop()}
	index, field, _ := renderedFixture()

	doc := overridesDoc(t, map[string]any{
		"schema_version": 1,
		"overrides": []any{map[string]any{
			"selector":     "p1.cp1.email",
			"field_config": map[string]any{"field": map[string]any{"label": "Work email"}},
		}},
	})
	s.applyOverrides(uuid.New(), index, []overrideCarrier{{scope: "p1", doc: doc, carrier: "form_panel:p1"}})

	f := field.FieldConfig["field"].(map[string]any)
	assert.Equal(t, "Work email", f["label"])
	assert.Equal(t, "email", f["field_key"])
}

func TestApplyOverridesRelativeSelector(t *testing.T) {
	s := &renderService{log: zap.NewNop()}
	index, field, _ := renderedFixture()

	doc := overridesDoc(t, map[string]any{
		"schema_version": 1,
		"overrides": []any{map[string]any{
			"selector":     ".cp1.email",
			"field_config": map[string]any{"field": map[string]any{"label": "Relative"}},
		}},
	})
	// relative selectors resolve from the carrier's scope
	s.applyOverrides(uuid.New(), index, []overrideCarrier{{scope: "p1", doc: doc, carrier: "form_panel:p1"}})

	f := field.FieldConfig["field"].(map[string]any)
	assert.Equal(t, "Relative", f["label"])
}

func TestApplyOverridesLastCarrierWins(t *testing.T) {
	s := &renderService{log: zap.NewNop()}
	index, field, _ := renderedFixture()

	panelDoc := overridesDoc(t, map[string]any{
		"schema_version": 1,
		"overrides": []any{map[string]any{
			"selector":     "p1.cp1.email",
			"field_config": map[string]any{"field": map[string]any{"label": "Panel says"}},
		}},
	})
	instDoc := overridesDoc(t, map[string]any{
		"schema_version": 1,
		"overrides": []any{map[string]any{
			"selector":     "p1.cp1.email",
			"field_config": map[string]any{"field": map[string]any{"label": "Instance says"}},
		}},
	})
	s.applyOverrides(uuid.New(), index, []overrideCarrier{
		{scope: "p1", doc: panelDoc, carrier: "form_panel:p1"},
		{scope: "p1.cp1", doc: instDoc, carrier: "instance:cp1"},
	})

	f := field.FieldConfig["field"].(map[string]any)
	assert.Equal(t, "Instance says", f["label"])
}

func TestApplyOverridesOptionsReplaceWholesale(t *testing.T) {
	s := &renderService{log: zap.NewNop()}
	index, field, _ := renderedFixture()
	field.FieldConfig["options"] = []any{
		map[string]any{"option_key": "a", "option_label": "A", "option_order": 0},
		map[string]any{"option_key": "b", "option_label": "B", "option_order": 1},
	}

	doc := overridesDoc(t, map[string]any{
		"schema_version": 1,
		"overrides": []any{map[string]any{
			"selector": "p1.cp1.email",
			"field_config": map[string]any{
				"options": []any{map[string]any{"option_key": "c", "option_label": "C", "option_order": 0}},
			},
		}},
	})
	s.applyOverrides(uuid.New(), index, []overrideCarrier{{scope: "p1", doc: doc, carrier: "form_panel:p1"}})

	opts := field.FieldConfig["options"].([]any)
	require.Len(t, opts, 1)
	assert.Equal(t, "c", opts[0].(map[string]any)["option_key"])
}

func TestApplyOverridesPanelPatch(t *testing.T) {
	s := &renderService{log: zap.NewNop()}
	index, _, panel := renderedFixture()

	doc := overridesDoc(t, map[string]any{
		"schema_version": 1,
		"overrides": []any{map[string]any{
			"selector": "p1.anything",
			"panel_config": map[string]any{
				"panel_label":   "Renamed",
				"ui_config":     map[string]any{"collapsed": true},
				"panel_actions": []any{map[string]any{"action": "submit"}},
			},
		}},
	})
	// point the selector at the panel target directly
	index["p1.anything"] = renderTarget{panel: panel}
	s.applyOverrides(uuid.New(), index, []overrideCarrier{{scope: "p1", doc: doc, carrier: "form_panel:p1"}})

	require.NotNil(t, panel.PanelLabel)
	assert.Equal(t, "Renamed", *panel.PanelLabel)
	assert.Equal(t, float64(2), panel.UIConfig["columns"])
	assert.Equal(t, true, panel.UIConfig["collapsed"])
	require.Len(t, panel.PanelActions, 1)
}

func TestApplyOverridesUnmatchedSelectorSkipped(t *testing.T) {
	s := &renderService{log: zap.NewNop()}
	index, field, _ := renderedFixture()

	doc := overridesDoc(t, map[string]any{
		"schema_version": 1,
		"overrides": []any{map[string]any{
			"selector":     "p9.gone.away",
			"field_config": map[string]any{"field": map[string]any{"label": "Never applied"}},
		}},
	})
	s.applyOverrides(uuid.New(), index, []overrideCarrier{{scope: "p1", doc: doc, carrier: "form_panel:p1"}})

	f := field.FieldConfig["field"].(map[string]any)
	assert.Equal(t, "Email", f["label"])
}

func TestRenderFieldMergesPlacementUIConfig(t *testing.T) {
	rf := renderField(uuid.New(), uuid.New(), nil,
		map[string]any{"width": "half", "hidden": false},
		map[string]any{
			"schema_version": 1,
			"field": map[string]any{
				"field_key": "email",
				"label":     "Email",
				"ui_config": map[string]any{"hidden": true, "tooltip": "work address"},
			},
		})

	f := rf.FieldConfig["field"].(map[string]any)
	ui := f["ui_config"].(map[string]any)
	assert.Equal(t, "half", ui["width"])
	assert.Equal(t, false, ui["hidden"]) // placement value beats imprinted value
	assert.Equal(t, "work address", ui["tooltip"])
	assert.Equal(t, "Email", f["label"])
}

func TestSelectorPatchWinsOverPlacementUIConfig(t *testing.T) {
	s := &renderService{log: zap.NewNop()}
	field := renderField(uuid.New(), uuid.New(), nil,
		map[string]any{"hidden": false},
		map[string]any{"field": map[string]any{"field_key": "email"}})
	index := map[string]renderTarget{"p1.email": {field: field}}

	doc := overridesDoc(t, map[string]any{
		"schema_version": 1,
		"overrides": []any{map[string]any{
			"selector":     "p1.email",
			"field_config": map[string]any{"field": map[string]any{"ui_config": map[string]any{"hidden": true}}},
		}},
	})
	s.applyOverrides(uuid.New(), index, []overrideCarrier{{scope: "p1", doc: doc, carrier: "form_panel:p1"}})

	ui := field.FieldConfig["field"].(map[string]any)["ui_config"].(map[string]any)
	assert.Equal(t, true, ui["hidden"])
}

func TestRenderFieldExtractsKey(t *testing.T) {
	placementID, fieldDefID := uuid.New(), uuid.New()
	rf := renderField(placementID, fieldDefID, nil, nil, map[string]any{
		"field": map[string]any{"field_key": "phone"},
	})
	assert.Equal(t, "phone", rf.FieldKey)
	assert.Equal(t, placementID, rf.PlacementID)

	empty := renderField(placementID, fieldDefID, nil, nil, nil)
	assert.Equal(t, "", empty.FieldKey)
	assert.NotNil(t, empty.FieldConfig)
}
