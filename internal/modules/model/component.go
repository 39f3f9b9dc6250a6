package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Component is a tenant-scoped reusable composite UI component: a tree
// of component panels with placed fields, embeddable into forms.
type Component struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_component_identity,priority:1" json:"tenant_id"`

	BusinessKey string `gorm:"column:component_business_key;size:400;not null;uniqueIndex:uq_component_identity,priority:2" json:"component_business_key"`
	Version     int    `gorm:"column:component_version;not null;default:1;uniqueIndex:uq_component_identity,priority:3" json:"component_version"`

	Name        string  `gorm:"size:100;not null" json:"name"`
	Description *string `gorm:"size:1000" json:"description,omitempty"`

	// ComponentKey is the stable tenant-scoped key used by APIs and
	// automations, never label-derived.
	ComponentKey   string     `gorm:"size:100;not null" json:"component_key"`
	ComponentLabel *string    `gorm:"size:255" json:"component_label,omitempty"`
	CategoryID     *uuid.UUID `gorm:"type:uuid" json:"category_id,omitempty"`

	UIConfig datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"ui_config,omitempty"`

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

func (Component) TableName() string { return "component" }
