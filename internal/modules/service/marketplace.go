package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/modules/repo"
	"github.com/dynoform/composer/internal/pkg/apperr"
	"github.com/dynoform/composer/internal/pkg/canonhash"
)

// PackageManifest is the YAML shape of an installable artifact
// package: field definitions plus components whose placements
// reference those definitions by business key.
type PackageManifest struct {
	PackageKey     string `yaml:"package_key"`
	PackageVersion string `yaml:"package_version"`

	FieldDefs  []ManifestFieldDef  `yaml:"field_defs"`
	Components []ManifestComponent `yaml:"components"`
}

type ManifestFieldDef struct {
	BusinessKey string           `yaml:"business_key"`
	Name        string           `yaml:"name"`
	Description *string          `yaml:"description"`
	FieldKey    string           `yaml:"field_key"`
	Label       string           `yaml:"label"`
	ElementType string           `yaml:"element_type"`
	DataType    *string          `yaml:"data_type"`
	Validation  map[string]any   `yaml:"validation"`
	UIConfig    map[string]any   `yaml:"ui_config"`
	Options     []ManifestOption `yaml:"options"`
}

type ManifestOption struct {
	OptionKey   string `yaml:"option_key"`
	OptionLabel string `yaml:"option_label"`
	OptionOrder int    `yaml:"option_order"`
}

type ManifestComponent struct {
	BusinessKey  string          `yaml:"business_key"`
	Name         string          `yaml:"name"`
	Description  *string         `yaml:"description"`
	ComponentKey string          `yaml:"component_key"`
	Label        *string         `yaml:"label"`
	UIConfig     map[string]any  `yaml:"ui_config"`
	Panels       []ManifestPanel `yaml:"panels"`
}

type ManifestPanel struct {
	PanelKey       string              `yaml:"panel_key"`
	PanelLabel     *string             `yaml:"panel_label"`
	PanelOrder     int                 `yaml:"panel_order"`
	ParentPanelKey *string             `yaml:"parent_panel_key"`
	UIConfig       map[string]any      `yaml:"ui_config"`
	Fields         []ManifestPlacement `yaml:"fields"`
}

type ManifestPlacement struct {
	FieldBusinessKey string         `yaml:"field_business_key"`
	FieldOrder       *int           `yaml:"field_order"`
	UIConfig         map[string]any `yaml:"ui_config"`
}

type InstallResult struct {
	PackageKey     string      `json:"package_key"`
	PackageVersion string      `json:"package_version"`
	Checksum       string      `json:"checksum"`
	FieldDefIDs    []uuid.UUID `json:"field_def_ids"`
	ComponentIDs   []uuid.UUID `json:"component_ids"`
}

// MarketplaceService installs artifact packages into a tenant. Every
// installed artifact carries a full provenance block and arrives
// published, immutable from the first moment.
type MarketplaceService interface {
	Install(ctx context.Context, tenantID uuid.UUID, manifest []byte, actor *string) (*InstallResult, error)
}

type marketplaceService struct {
	catalogDeps
}

func NewMarketplaceService(store repo.Store, events EventPublisher, log *zap.Logger) MarketplaceService {
	return &marketplaceService{catalogDeps{store: store, events: events, log: log}}
}

func (s *marketplaceService) Install(ctx context.Context, tenantID uuid.UUID, manifest []byte, actor *string) (*InstallResult, error) {
	var pkg PackageManifest
	if err := yaml.Unmarshal(manifest, &pkg); err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, err, "package manifest is not valid YAML")
	}
	if pkg.PackageKey == "" || pkg.PackageVersion == "" {
		return nil, apperr.Validation("package manifest needs package_key and package_version")
	}

	checksum := canonhash.HashBytes(manifest)
	now := time.Now().UTC()
	src := model.SourceMarketplace
	result := &InstallResult{
		PackageKey:     pkg.PackageKey,
		PackageVersion: pkg.PackageVersion,
		Checksum:       checksum,
	}

	var installedDefs []*model.FieldDef
	var installedComps []*model.Component

	err := s.store.Atomic(ctx, func(st repo.Store) error {
		defsByKey := make(map[string]*model.FieldDef, len(pkg.FieldDefs))

		for _, mf := range pkg.FieldDefs {
			elem := model.ElementType(mf.ElementType)
			if !elem.Valid() {
				return apperr.Validation("field def %q: unknown element type %q", mf.BusinessKey, mf.ElementType)
			}
			var dt *model.DataType
			if mf.DataType != nil {
				v := model.DataType(*mf.DataType)
				dt = &v
			}
			if !model.AlignedDataType(elem, dt) {
				return apperr.Validation("field def %q: data type does not align with element type %s", mf.BusinessKey, elem)
			}
			live, err := st.FieldDefs().CountLiveVersions(ctx, tenantID, mf.BusinessKey)
			if err != nil {
				return fmt.Errorf("count versions of %q: %w", mf.BusinessKey, err)
			}
			version := 1
			if live > 0 {
				maxV, err := st.FieldDefs().MaxVersion(ctx, tenantID, mf.BusinessKey)
				if err != nil {
					return fmt.Errorf("max version of %q: %w", mf.BusinessKey, err)
				}
				version = maxV + 1
			}

			fd := &model.FieldDef{
				TenantID:              tenantID,
				BusinessKey:           mf.BusinessKey,
				Version:               version,
				Name:                  mf.Name,
				Description:           mf.Description,
				FieldKey:              mf.FieldKey,
				Label:                 mf.Label,
				DataType:              dt,
				ElementType:           elem,
				Validation:            datatypes.JSONMap(mf.Validation),
				UIConfig:              datatypes.JSONMap(mf.UIConfig),
				SourceType:            &src,
				SourcePackageKey:      &pkg.PackageKey,
				SourceArtifactKey:     &mf.BusinessKey,
				SourceArtifactVersion: &pkg.PackageVersion,
				SourceChecksum:        &checksum,
				InstalledAt:           &now,
				InstalledBy:           actor,
				CreatedBy:             actor,
				UpdatedBy:             actor,
			}
			model.Publish(now, &fd.IsPublished, &fd.PublishedAt)
			if err := st.FieldDefs().Create(ctx, fd); err != nil {
				return conflictOrErr(err, "install field def %q", mf.BusinessKey)
			}
			for _, o := range mf.Options {
				opt := &model.FieldDefOption{
					TenantID:    tenantID,
					FieldDefID:  fd.ID,
					OptionKey:   o.OptionKey,
					OptionLabel: o.OptionLabel,
					OptionOrder: o.OptionOrder,
					CreatedBy:   actor,
				}
				if err := st.FieldDefs().CreateOption(ctx, opt); err != nil {
					return conflictOrErr(err, "install option %q of field def %q", o.OptionKey, mf.BusinessKey)
				}
				fd.Options = append(fd.Options, *opt)
			}
			defsByKey[mf.BusinessKey] = fd
			installedDefs = append(installedDefs, fd)
			result.FieldDefIDs = append(result.FieldDefIDs, fd.ID)
		}

		for _, mc := range pkg.Components {
			live, err := st.Components().CountLiveVersions(ctx, tenantID, mc.BusinessKey)
			if err != nil {
				return fmt.Errorf("count versions of %q: %w", mc.BusinessKey, err)
			}
			version := 1
			if live > 0 {
				maxV, err := st.Components().MaxVersion(ctx, tenantID, mc.BusinessKey)
				if err != nil {
					return fmt.Errorf("max version of %q: %w", mc.BusinessKey, err)
				}
				version = maxV + 1
			}

			comp := &model.Component{
				TenantID:              tenantID,
				BusinessKey:           mc.BusinessKey,
				Version:               version,
				Name:                  mc.Name,
				Description:           mc.Description,
				ComponentKey:          mc.ComponentKey,
				ComponentLabel:        mc.Label,
				UIConfig:              datatypes.JSONMap(mc.UIConfig),
				SourceType:            &src,
				SourcePackageKey:      &pkg.PackageKey,
				SourceArtifactKey:     &mc.BusinessKey,
				SourceArtifactVersion: &pkg.PackageVersion,
				SourceChecksum:        &checksum,
				InstalledAt:           &now,
				InstalledBy:           actor,
				CreatedBy:             actor,
				UpdatedBy:             actor,
			}
			if err := st.Components().Create(ctx, comp); err != nil {
				return conflictOrErr(err, "install component %q", mc.BusinessKey)
			}

			panelsByKey := make(map[string]*model.ComponentPanel, len(mc.Panels))
			for _, mp := range mc.Panels {
				panel := &model.ComponentPanel{
					TenantID:    tenantID,
					ComponentID: comp.ID,
					PanelKey:    mp.PanelKey,
					PanelLabel:  mp.PanelLabel,
					PanelOrder:  mp.PanelOrder,
					UIConfig:    datatypes.JSONMap(mp.UIConfig),
					CreatedBy:   actor,
					UpdatedBy:   actor,
				}
				if mp.ParentPanelKey != nil {
					parent, ok := panelsByKey[*mp.ParentPanelKey]
					if !ok {
						return apperr.Validation("component %q: panel %q references unknown parent %q (parents must be declared first)", mc.BusinessKey, mp.PanelKey, *mp.ParentPanelKey)
					}
					panel.ParentPanelID = &parent.ID
				}
				if err := st.ComponentPanels().Create(ctx, panel); err != nil {
					return conflictOrErr(err, "install panel %q of component %q", mp.PanelKey, mc.BusinessKey)
				}
				panelsByKey[mp.PanelKey] = panel

				for _, mpl := range mp.Fields {
					fd, ok := defsByKey[mpl.FieldBusinessKey]
					if !ok {
						return apperr.Validation("component %q: placement references field %q not in this package", mc.BusinessKey, mpl.FieldBusinessKey)
					}
					imp, err := NewImprintState(fd, now)
					if err != nil {
						return err
					}
					placement := &model.ComponentPanelField{
						TenantID:           tenantID,
						PanelID:            panel.ID,
						FieldDefID:         fd.ID,
						FieldOrder:         mpl.FieldOrder,
						UIConfig:           datatypes.JSONMap(mpl.UIConfig),
						FieldConfig:        imp.FieldConfig,
						FieldConfigHash:    &imp.FieldConfigHash,
						SourceFieldDefHash: &imp.SourceFieldDefHash,
						LastImprintedAt:    &imp.ImprintedAt,
						CreatedBy:          actor,
						UpdatedBy:          actor,
					}
					if err := st.ComponentPanelFields().Create(ctx, placement); err != nil {
						return conflictOrErr(err, "install placement of %q on panel %q", mpl.FieldBusinessKey, mp.PanelKey)
					}
				}
			}

			// Structure is complete; publish last so the guard never
			// sees a half-installed component as published.
			model.Publish(now, &comp.IsPublished, &comp.PublishedAt)
			if err := st.Components().Update(ctx, comp); err != nil {
				return fmt.Errorf("publish installed component %q: %w", mc.BusinessKey, err)
			}
			installedComps = append(installedComps, comp)
			result.ComponentIDs = append(result.ComponentIDs, comp.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, fd := range installedDefs {
		s.emit(ctx, entityFieldDef, ActionCreated, tenantID, fd)
	}
	for _, comp := range installedComps {
		s.emit(ctx, entityComponent, ActionCreated, tenantID, comp)
	}
	s.log.Info("package installed",
		zap.String("package_key", pkg.PackageKey),
		zap.String("package_version", pkg.PackageVersion),
		zap.Int("field_defs", len(installedDefs)),
		zap.Int("components", len(installedComps)))
	return result, nil
}
