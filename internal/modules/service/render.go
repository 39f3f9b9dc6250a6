package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/modules/repo"
	"github.com/dynoform/composer/internal/pkg/docmerge"
	"github.com/dynoform/composer/internal/pkg/docschema"
	"github.com/dynoform/composer/internal/pkg/selector"
)

// RenderedForm is the effective, fully resolved form document: the
// materialized composition tree with every nested override applied.
// It is what builders preview and what the runtime renders.
type RenderedForm struct {
	FormID      uuid.UUID        `json:"form_id"`
	TenantID    uuid.UUID        `json:"tenant_id"`
	FormKey     string           `json:"form_key"`
	BusinessKey string           `json:"form_business_key"`
	Version     int              `json:"form_version"`
	Name        string           `json:"form_name"`
	UIConfig    map[string]any   `json:"ui_config,omitempty"`
	Panels      []*RenderedPanel `json:"panels"`
	RenderedAt  time.Time        `json:"rendered_at"`
}

type RenderedPanel struct {
	PanelID      uuid.UUID            `json:"panel_id"`
	PanelKey     string               `json:"panel_key"`
	PanelLabel   *string              `json:"panel_label,omitempty"`
	PanelOrder   int                  `json:"panel_order"`
	UIConfig     map[string]any       `json:"ui_config,omitempty"`
	PanelActions []any                `json:"panel_actions,omitempty"`
	Fields       []*RenderedField     `json:"fields,omitempty"`
	Components   []*RenderedComponent `json:"components,omitempty"`
	Panels       []*RenderedPanel     `json:"panels,omitempty"`
}

type RenderedField struct {
	PlacementID uuid.UUID      `json:"placement_id"`
	FieldDefID  uuid.UUID      `json:"field_def_id"`
	FieldKey    string         `json:"field_key"`
	FieldOrder  *int           `json:"field_order,omitempty"`
	UIConfig    map[string]any `json:"ui_config,omitempty"`
	FieldConfig map[string]any `json:"field_config"`
}

type RenderedComponent struct {
	InstanceID     uuid.UUID        `json:"instance_id"`
	InstanceKey    string           `json:"instance_key"`
	ComponentID    uuid.UUID        `json:"component_id"`
	ComponentKey   string           `json:"component_key"`
	ComponentOrder int              `json:"component_order"`
	UIConfig       map[string]any   `json:"ui_config,omitempty"`
	Panels         []*RenderedPanel `json:"panels"`
}

// RenderCache memoizes rendered forms. A nil, nil return means miss.
type RenderCache interface {
	Get(ctx context.Context, tenantID, formID uuid.UUID) (*RenderedForm, error)
	Set(ctx context.Context, tenantID, formID uuid.UUID, doc *RenderedForm) error
	Invalidate(ctx context.Context, tenantID uuid.UUID, formIDs ...uuid.UUID) error
}

// ExportStore persists rendered documents to blob storage and hands
// out time-limited download links.
type ExportStore interface {
	PutRender(ctx context.Context, tenantID, formID uuid.UUID, body []byte) (string, error)
	PresignRender(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type ExportResult struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	RenderedAt time.Time `json:"rendered_at"`
}

// RenderService materializes forms into effective documents. Rendering
// is read-only over the composition; published and draft forms render
// identically, the cache is only consulted for published ones since a
// draft can change under it.
type RenderService interface {
	Render(ctx context.Context, tenantID, formID uuid.UUID) (*RenderedForm, error)
	Export(ctx context.Context, tenantID, formID uuid.UUID) (*ExportResult, error)
}

type renderService struct {
	store   repo.Store
	cache   RenderCache
	exports ExportStore
	log     *zap.Logger

	exportLinkTTL time.Duration
}

func NewRenderService(store repo.Store, cache RenderCache, exports ExportStore, log *zap.Logger) RenderService {
	return &renderService{
		store:         store,
		cache:         cache,
		exports:       exports,
		log:           log,
		exportLinkTTL: 15 * time.Minute,
	}
}

func (s *renderService) Render(ctx context.Context, tenantID, formID uuid.UUID) (*RenderedForm, error) {
	form, err := s.store.Forms().GetByID(ctx, tenantID, formID)
	if err != nil {
		return nil, notFoundOrErr("form", formID, err)
	}

	if form.IsPublished {
		cached, err := s.cache.Get(ctx, tenantID, formID)
		if err != nil {
			s.log.Warn("render cache read failed", zap.String("form_id", formID.String()), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	doc, err := s.materialize(ctx, tenantID, form)
	if err != nil {
		return nil, err
	}

	if form.IsPublished {
		if err := s.cache.Set(ctx, tenantID, formID, doc); err != nil {
			s.log.Warn("render cache write failed", zap.String("form_id", formID.String()), zap.Error(err))
		}
	}
	return doc, nil
}

func (s *renderService) Export(ctx context.Context, tenantID, formID uuid.UUID) (*ExportResult, error) {
	doc, err := s.Render(ctx, tenantID, formID)
	if err != nil {
		return nil, err
	}
	body, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize rendered form %s: %w", formID, err)
	}
	key, err := s.exports.PutRender(ctx, tenantID, formID, body)
	if err != nil {
		return nil, fmt.Errorf("store rendered form %s: %w", formID, err)
	}
	url, err := s.exports.PresignRender(ctx, key, s.exportLinkTTL)
	if err != nil {
		return nil, fmt.Errorf("presign export of form %s: %w", formID, err)
	}
	return &ExportResult{Key: key, URL: url, RenderedAt: doc.RenderedAt}, nil
}

// overrideCarrier pairs a validated override document with the scope
// its relative selectors resolve from.
type overrideCarrier struct {
	scope   string
	doc     *docschema.OverridesDoc
	carrier string
}

// renderTarget is one addressable node in the materialized tree.
type renderTarget struct {
	field     *RenderedField
	panel     *RenderedPanel
	component *RenderedComponent
}

func (s *renderService) materialize(ctx context.Context, tenantID uuid.UUID, form *model.Form) (*RenderedForm, error) {
	panels, err := s.store.FormPanels().ListByForm(ctx, tenantID, form.ID)
	if err != nil {
		return nil, fmt.Errorf("list panels of form %s: %w", form.ID, err)
	}
	panelIDs := make([]uuid.UUID, 0, len(panels))
	for _, p := range panels {
		panelIDs = append(panelIDs, p.ID)
	}

	var placements []*model.FormPanelField
	var instances []*model.FormPanelComponent
	if len(panelIDs) > 0 {
		placements, err = s.store.FormPanelFields().ListByPanels(ctx, tenantID, panelIDs)
		if err != nil {
			return nil, fmt.Errorf("list placements of form %s: %w", form.ID, err)
		}
		instances, err = s.store.FormPanelComponents().ListByPanels(ctx, tenantID, panelIDs)
		if err != nil {
			return nil, fmt.Errorf("list instances of form %s: %w", form.ID, err)
		}
	}

	doc := &RenderedForm{
		FormID:      form.ID,
		TenantID:    tenantID,
		FormKey:     form.FormKey,
		BusinessKey: form.BusinessKey,
		Version:     form.Version,
		Name:        form.Name,
		UIConfig:    copyMap(form.UIConfig),
		RenderedAt:  time.Now().UTC(),
	}

	index := make(map[string]renderTarget)
	var carriers []overrideCarrier

	// Form panel trees.
	rendered := make(map[uuid.UUID]*RenderedPanel, len(panels))
	paths := make(map[uuid.UUID]string, len(panels))
	ordered := orderPanelsTopDown(panels,
		func(p *model.FormPanel) uuid.UUID { return p.ID },
		func(p *model.FormPanel) *uuid.UUID { return p.ParentPanelID },
		func(p *model.FormPanel) int { return p.PanelOrder })
	for _, p := range ordered {
		rp := &RenderedPanel{
			PanelID:    p.ID,
			PanelKey:   p.PanelKey,
			PanelLabel: p.PanelLabel,
			PanelOrder: p.PanelOrder,
			UIConfig:   copyMap(p.UIConfig),
		}
		rendered[p.ID] = rp
		var path string
		if p.ParentPanelID == nil {
			path = p.PanelKey
			doc.Panels = append(doc.Panels, rp)
		} else {
			parent := rendered[*p.ParentPanelID]
			if parent == nil {
				return nil, fmt.Errorf("panel %s has unresolved parent %s", p.ID, *p.ParentPanelID)
			}
			path = paths[*p.ParentPanelID] + "." + p.PanelKey
			parent.Panels = append(parent.Panels, rp)
		}
		paths[p.ID] = path
		index[path] = renderTarget{panel: rp}

		if len(p.NestedOverrides) > 0 {
			od, err := docschema.ValidateOverridesMap(p.NestedOverrides)
			if err != nil {
				return nil, fmt.Errorf("panel %s carries invalid overrides: %w", p.ID, err)
			}
			carriers = append(carriers, overrideCarrier{scope: path, doc: od, carrier: "form_panel:" + p.PanelKey})
		}
	}

	// Direct field placements, already ordered by field_order.
	for _, pl := range placements {
		rf := renderField(pl.ID, pl.FieldDefID, pl.FieldOrder, pl.UIConfig, pl.FieldConfig)
		parent := rendered[pl.PanelID]
		if parent == nil {
			continue
		}
		parent.Fields = append(parent.Fields, rf)
		index[paths[pl.PanelID]+"."+rf.FieldKey] = renderTarget{field: rf}
	}

	// Embedded component subtrees. Instance carriers are collected
	// after all panel carriers so an instance's own overrides land
	// last and win on conflict.
	var instanceCarriers []overrideCarrier
	sort.SliceStable(instances, func(i, j int) bool { return instances[i].ComponentOrder < instances[j].ComponentOrder })
	for _, inst := range instances {
		parent := rendered[inst.PanelID]
		if parent == nil {
			continue
		}
		sub, err := s.materializeInstance(ctx, tenantID, inst)
		if err != nil {
			return nil, err
		}
		parent.Components = append(parent.Components, sub)

		instPath := paths[inst.PanelID] + "." + inst.InstanceKey
		index[instPath] = renderTarget{component: sub}
		indexComponentSubtree(index, instPath, sub.Panels)

		if len(inst.NestedOverrides) > 0 {
			od, err := docschema.ValidateOverridesMap(inst.NestedOverrides)
			if err != nil {
				return nil, fmt.Errorf("instance %s carries invalid overrides: %w", inst.ID, err)
			}
			instanceCarriers = append(instanceCarriers, overrideCarrier{scope: instPath, doc: od, carrier: "instance:" + inst.InstanceKey})
		}
	}
	carriers = append(carriers, instanceCarriers...)

	s.applyOverrides(doc.FormID, index, carriers)
	return doc, nil
}

func (s *renderService) materializeInstance(ctx context.Context, tenantID uuid.UUID, inst *model.FormPanelComponent) (*RenderedComponent, error) {
	comp, err := s.store.Components().GetByID(ctx, tenantID, inst.ComponentID)
	if err != nil {
		return nil, notFoundOrErr("component", inst.ComponentID, err)
	}
	panels, err := s.store.ComponentPanels().ListByComponent(ctx, tenantID, comp.ID)
	if err != nil {
		return nil, fmt.Errorf("list panels of component %s: %w", comp.ID, err)
	}
	panelIDs := make([]uuid.UUID, 0, len(panels))
	for _, p := range panels {
		panelIDs = append(panelIDs, p.ID)
	}
	var placements []*model.ComponentPanelField
	if len(panelIDs) > 0 {
		placements, err = s.store.ComponentPanelFields().ListByPanels(ctx, tenantID, panelIDs)
		if err != nil {
			return nil, fmt.Errorf("list placements of component %s: %w", comp.ID, err)
		}
	}

	sub := &RenderedComponent{
		InstanceID:     inst.ID,
		InstanceKey:    inst.InstanceKey,
		ComponentID:    comp.ID,
		ComponentKey:   comp.ComponentKey,
		ComponentOrder: inst.ComponentOrder,
		UIConfig:       copyMap(inst.UIConfig),
	}

	rendered := make(map[uuid.UUID]*RenderedPanel, len(panels))
	ordered := orderPanelsTopDown(panels,
		func(p *model.ComponentPanel) uuid.UUID { return p.ID },
		func(p *model.ComponentPanel) *uuid.UUID { return p.ParentPanelID },
		func(p *model.ComponentPanel) int { return p.PanelOrder })
	for _, p := range ordered {
		rp := &RenderedPanel{
			PanelID:    p.ID,
			PanelKey:   p.PanelKey,
			PanelLabel: p.PanelLabel,
			PanelOrder: p.PanelOrder,
			UIConfig:   copyMap(p.UIConfig),
		}
		if len(p.PanelActions) > 0 {
			var actions []any
			if err := sonic.Unmarshal(p.PanelActions, &actions); err != nil {
				return nil, fmt.Errorf("panel %s has malformed panel_actions: %w", p.ID, err)
			}
			rp.PanelActions = actions
		}
		rendered[p.ID] = rp
		if p.ParentPanelID == nil {
			sub.Panels = append(sub.Panels, rp)
		} else if parent := rendered[*p.ParentPanelID]; parent != nil {
			parent.Panels = append(parent.Panels, rp)
		}
	}
	for _, pl := range placements {
		parent := rendered[pl.PanelID]
		if parent == nil {
			continue
		}
		parent.Fields = append(parent.Fields, renderField(pl.ID, pl.FieldDefID, pl.FieldOrder, pl.UIConfig, pl.FieldConfig))
	}
	return sub, nil
}

// applyOverrides resolves every carrier entry against the node index
// and patches the matched targets in place. Selectors that match no
// node are skipped: composition edits may legitimately orphan an
// override until the author cleans it up.
func (s *renderService) applyOverrides(formID uuid.UUID, index map[string]renderTarget, carriers []overrideCarrier) {
	for _, c := range carriers {
		for _, entry := range c.doc.Overrides {
			sel, err := selector.Parse(entry.Selector)
			if err != nil {
				// Validated at write time; a parse failure here means
				// the stored document predates the current grammar.
				s.log.Warn("stored override has unparseable selector",
					zap.String("form_id", formID.String()),
					zap.String("carrier", c.carrier),
					zap.String("selector", entry.Selector))
				continue
			}
			path := sel.String()
			if sel.Relative {
				path = c.scope + "." + strings.Join(sel.Segments, ".")
			}
			target, ok := index[path]
			if !ok {
				s.log.Debug("override selector matched no node",
					zap.String("form_id", formID.String()),
					zap.String("carrier", c.carrier),
					zap.String("selector", entry.Selector))
				continue
			}
			applyEntry(target, entry)
		}
	}
}

func applyEntry(target renderTarget, entry docschema.OverrideEntry) {
	if entry.FieldConfig != nil && target.field != nil {
		fc := target.field.FieldConfig
		if len(entry.FieldConfig.Field) > 0 {
			base, _ := fc["field"].(map[string]any)
			fc["field"] = docmerge.MergeDocuments(base, entry.FieldConfig.Field, docmerge.DefaultOptions())
		}
		// Options are replaced as a whole array even inside a patch;
		// merging option lists element-wise has no stable identity.
		if entry.FieldConfig.Options != nil {
			opts := make([]any, 0, len(entry.FieldConfig.Options))
			for _, o := range entry.FieldConfig.Options {
				opts = append(opts, map[string]any{
					"option_key":   o.OptionKey,
					"option_label": o.OptionLabel,
					"option_order": o.OptionOrder,
				})
			}
			fc["options"] = opts
		}
	}
	if entry.PanelConfig != nil && target.panel != nil {
		if entry.PanelConfig.PanelLabel != nil {
			target.panel.PanelLabel = entry.PanelConfig.PanelLabel
		}
		if len(entry.PanelConfig.UIConfig) > 0 {
			target.panel.UIConfig = docmerge.MergeDocuments(target.panel.UIConfig, entry.PanelConfig.UIConfig, docmerge.DefaultOptions())
		}
		if entry.PanelConfig.PanelActions != nil {
			target.panel.PanelActions = entry.PanelConfig.PanelActions
		}
	}
}

func indexComponentSubtree(index map[string]renderTarget, prefix string, panels []*RenderedPanel) {
	for _, p := range panels {
		path := prefix + "." + p.PanelKey
		index[path] = renderTarget{panel: p}
		for _, f := range p.Fields {
			index[path+"."+f.FieldKey] = renderTarget{field: f}
		}
		indexComponentSubtree(index, path, p.Panels)
	}
}

func renderField(placementID, fieldDefID uuid.UUID, order *int, uiConfig, fieldConfig map[string]any) *RenderedField {
	fc := copyMap(fieldConfig)
	if fc == nil {
		fc = map[string]any{}
	}
	// Placement ui_config merges into the imprinted document before any
	// selector patch, so later override entries win per key.
	if len(uiConfig) > 0 {
		field, _ := fc["field"].(map[string]any)
		if field == nil {
			field = map[string]any{}
		}
		base, _ := field["ui_config"].(map[string]any)
		field["ui_config"] = docmerge.MergeDocuments(base, uiConfig, docmerge.DefaultOptions())
		fc["field"] = field
	}
	key := ""
	if f, ok := fc["field"].(map[string]any); ok {
		key, _ = f["field_key"].(string)
	}
	return &RenderedField{
		PlacementID: placementID,
		FieldDefID:  fieldDefID,
		FieldKey:    key,
		FieldOrder:  order,
		UIConfig:    copyMap(uiConfig),
		FieldConfig: fc,
	}
}

// orderPanelsTopDown arranges panels so every parent precedes its
// children, with siblings kept in panel order. Panels whose parent is
// missing from the set are dropped; they are unreachable in the tree.
func orderPanelsTopDown[T any](panels []T, id func(T) uuid.UUID, parent func(T) *uuid.UUID, order func(T) int) []T {
	sorted := make([]T, len(panels))
	copy(sorted, panels)
	sort.SliceStable(sorted, func(i, j int) bool { return order(sorted[i]) < order(sorted[j]) })

	children := make(map[uuid.UUID][]T, len(sorted))
	var roots []T
	for _, p := range sorted {
		if pp := parent(p); pp != nil {
			children[*pp] = append(children[*pp], p)
		} else {
			roots = append(roots, p)
		}
	}
	out := make([]T, 0, len(sorted))
	queue := roots
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		out = append(out, p)
		queue = append(queue, children[id(p)]...)
	}
	return out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return docmerge.MergeDocuments(nil, m, docmerge.Options{NullRemoves: false, Arrays: docmerge.ArrayReplace})
}
