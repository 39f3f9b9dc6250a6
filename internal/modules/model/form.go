package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Form is the top-level composable artifact end users submit against.
type Form struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_form_identity,priority:1" json:"tenant_id"`

	BusinessKey string `gorm:"column:form_business_key;size:400;not null;uniqueIndex:uq_form_identity,priority:2" json:"form_business_key"`
	Version     int    `gorm:"column:form_version;not null;default:1;uniqueIndex:uq_form_identity,priority:3" json:"form_version"`

	FormKey     string  `gorm:"size:200;not null" json:"form_key"`
	Name        string  `gorm:"column:form_name;size:100;not null" json:"form_name"`
	Description *string `gorm:"size:255" json:"description,omitempty"`

	CategoryID *uuid.UUID        `gorm:"type:uuid" json:"category_id,omitempty"`
	UIConfig   datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"ui_config,omitempty"`

	IsPublished bool       `gorm:"not null;default:false" json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	IsArchived  bool       `gorm:"not null;default:false" json:"is_archived"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`

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
}

func (Form) TableName() string { return "form" }

// FormCatalogCategory groups catalog artifacts in the builder palette.
type FormCatalogCategory struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_catalog_category_key,priority:1" json:"tenant_id"`

	CategoryKey   string  `gorm:"size:200;not null;uniqueIndex:uq_catalog_category_key,priority:2" json:"category_key"`
	CategoryLabel string  `gorm:"size:255;not null" json:"category_label"`
	Description   *string `gorm:"size:1000" json:"description,omitempty"`
	CategoryOrder int     `gorm:"not null;default:0" json:"category_order"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy *string   `gorm:"size:100" json:"created_by,omitempty"`
	UpdatedBy *string   `gorm:"size:100" json:"updated_by,omitempty"`
}

func (FormCatalogCategory) TableName() string { return "form_catalog_category" }
