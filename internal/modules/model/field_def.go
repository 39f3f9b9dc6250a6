package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FieldDef is a tenant-scoped reusable field definition (catalog
// artifact). Identity within a tenant is (business_key, version); the
// row id is the stable reference used by placements.
type FieldDef struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_field_def_identity,priority:1" json:"tenant_id"`

	BusinessKey string `gorm:"column:field_def_business_key;size:400;not null;uniqueIndex:uq_field_def_identity,priority:2" json:"field_def_business_key"`
	Version     int    `gorm:"column:field_def_version;not null;default:1;uniqueIndex:uq_field_def_identity,priority:3" json:"field_def_version"`

	Name        string  `gorm:"size:100;not null" json:"name"`
	Description *string `gorm:"size:1000" json:"description,omitempty"`
	FieldKey    string  `gorm:"size:100;not null;index:ix_field_def_tenant_field_key" json:"field_key"`
	Label       string  `gorm:"size:255;not null" json:"label"`

	CategoryID *uuid.UUID `gorm:"type:uuid" json:"category_id,omitempty"`

	// DataType is null iff ElementType is ACTION.
	DataType    *DataType   `gorm:"type:varchar(32)" json:"data_type,omitempty"`
	ElementType ElementType `gorm:"type:varchar(32);not null" json:"element_type"`

	Validation datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"validation,omitempty"`
	UIConfig   datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"ui_config,omitempty"`

	IsPublished bool       `gorm:"not null;default:false" json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	IsArchived  bool       `gorm:"not null;default:false" json:"is_archived"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`

	// Provenance block, immutable once set.
	SourceType            *SourceType `gorm:"type:varchar(32)" json:"source_type,omitempty"`
	SourcePackageKey      *string     `gorm:"size:400" json:"source_package_key,omitempty"`
	SourceArtifactKey     *string     `gorm:"size:400" json:"source_artifact_key,omitempty"`
	SourceArtifactVersion *string     `gorm:"size:100" json:"source_artifact_version,omitempty"`
	SourceChecksum        *string     `gorm:"size:64" json:"source_checksum,omitempty"`
	InstalledAt           *time.Time  `json:"installed_at,omitempty"`
	InstalledBy           *string     `gorm:"size:100" json:"installed_by,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy *string   `gorm:"size:100" json:"created_by,omitempty"`
	UpdatedBy *string   `gorm:"size:100" json:"updated_by,omitempty"`

	// FieldDef <-> FieldDefOption
	Options []FieldDefOption `gorm:"foreignKey:FieldDefID;references:ID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

func (FieldDef) TableName() string { return "field_def" }

// FieldDefOption is one selectable option of a SELECT/MULTISELECT
// field definition. (field_def_id, option_key) and (field_def_id,
// option_order) are unique.
type FieldDefOption struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	FieldDefID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_field_def_option_key,priority:1;uniqueIndex:uq_field_def_option_order,priority:1" json:"field_def_id"`

	OptionKey   string `gorm:"size:200;not null;uniqueIndex:uq_field_def_option_key,priority:2" json:"option_key"`
	OptionLabel string `gorm:"size:400;not null" json:"option_label"`
	OptionOrder int    `gorm:"not null;default:0;uniqueIndex:uq_field_def_option_order,priority:2" json:"option_order"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	CreatedBy *string   `gorm:"size:100" json:"created_by,omitempty"`
}

func (FieldDefOption) TableName() string { return "field_def_option" }
