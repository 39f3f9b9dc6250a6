package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dynoform/composer/internal/pkg/apperr"
)

func TestInstallRejectsMalformedManifest(t *testing.T) {
	svc := NewMarketplaceService(nil, nil, zap.NewNop())

	_, err := svc.Install(context.Background(), uuid.New(), []byte("[unclosed"), nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = svc.Install(context.Background(), uuid.New(), []byte("field_defs: []"), nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = svc.Install(context.Background(), uuid.New(), []byte("package_key: crm_basics"), nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestPackageManifestDecoding(t *testing.T) {
	raw := []byte(`
package_key: crm_basics
package_version: "1.2.0"
field_defs:
  - business_key: bk_email
    name: Email
    field_key: email
    label: Email
    element_type: TEXT
    data_type: TEXT
components:
  - business_key: bk_contact
    name: Contact
    component_key: contact
    panels:
      - panel_key: main
        panel_order: 0
        fields:
          - field_business_key: bk_email
`)
	var pkg PackageManifest
	require.NoError(t, yaml.Unmarshal(raw, &pkg))
	assert.Equal(t, "crm_basics", pkg.PackageKey)
	assert.Equal(t, "1.2.0", pkg.PackageVersion)
	require.Len(t, pkg.FieldDefs, 1)
	assert.Equal(t, "TEXT", pkg.FieldDefs[0].ElementType)
	require.Len(t, pkg.Components, 1)
	require.Len(t, pkg.Components[0].Panels, 1)
	require.Len(t, pkg.Components[0].Panels[0].Fields, 1)
	assert.Equal(t, "bk_email", pkg.Components[0].Panels[0].Fields[0].FieldBusinessKey)
}
