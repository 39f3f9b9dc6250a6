package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FormSubmission is the envelope for one end-user filling of a form.
// Submissions are never subject to the publish-immutability guard.
type FormSubmission struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	FormID   uuid.UUID `gorm:"type:uuid;not null;index" json:"form_id"`

	// Draft: is_submitted=false, version 0, submitted_at nil.
	// Submitted: is_submitted=true, version >= 1, submitted_at set.
	// SubmissionVersion increments on every (re)submit.
	IsSubmitted       bool       `gorm:"not null;default:false" json:"is_submitted"`
	SubmissionVersion int        `gorm:"not null;default:0" json:"submission_version"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	SubmittedBy       *string    `gorm:"size:100" json:"submitted_by,omitempty"`

	IsArchived bool       `gorm:"not null;default:false" json:"is_archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy *string   `gorm:"size:100" json:"created_by,omitempty"`
	UpdatedBy *string   `gorm:"size:100" json:"updated_by,omitempty"`
}

func (FormSubmission) TableName() string { return "form_submission" }

// FormSubmissionValue stores one field instance's value within a
// submission, keyed by the fully-qualified dot-path from form root to
// the field instance. Exactly one of FormPanelFieldID or the
// (FormPanelComponentID, ComponentPanelFieldID) pair must be set.
type FormSubmissionValue struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	FormSubmissionID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_submission_value_path,priority:1" json:"form_submission_id"`
	FieldDefID       uuid.UUID `gorm:"type:uuid;not null;index" json:"field_def_id"`

	FieldPath string `gorm:"size:800;not null;uniqueIndex:uq_submission_value_path,priority:2" json:"field_path"`

	FormPanelFieldID      *uuid.UUID `gorm:"type:uuid" json:"form_panel_field_id,omitempty"`
	FormPanelComponentID  *uuid.UUID `gorm:"type:uuid" json:"form_panel_component_id,omitempty"`
	ComponentPanelFieldID *uuid.UUID `gorm:"type:uuid" json:"component_panel_field_id,omitempty"`

	// Value shape is implied by the field's data_type.
	Value datatypes.JSON `gorm:"type:jsonb" swaggertype:"object" json:"value,omitempty"`

	// ValueSearchText is a flattened text projection of scalar values
	// for search.
	ValueSearchText *string `gorm:"type:text" json:"value_search_text,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy *string   `gorm:"size:100" json:"created_by,omitempty"`
	UpdatedBy *string   `gorm:"size:100" json:"updated_by,omitempty"`
}

func (FormSubmissionValue) TableName() string { return "form_submission_value" }

// DirectPlacement reports whether the value references a field placed
// directly on a form panel.
func (v *FormSubmissionValue) DirectPlacement() bool {
	return v.FormPanelFieldID != nil
}

// ComponentPlacement reports whether the value references a field
// inside an embedded component instance.
func (v *FormSubmissionValue) ComponentPlacement() bool {
	return v.FormPanelComponentID != nil && v.ComponentPanelFieldID != nil
}

// FormSubmissionArchive preserves a submission envelope at archival.
type FormSubmissionArchive struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	FormID            uuid.UUID  `gorm:"type:uuid;not null" json:"form_id"`
	IsSubmitted       bool       `gorm:"not null" json:"is_submitted"`
	SubmissionVersion int        `gorm:"not null" json:"submission_version"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	SubmittedBy       *string    `gorm:"size:100" json:"submitted_by,omitempty"`
	ArchivedAt        time.Time  `gorm:"not null" json:"archived_at"`
	ArchivedBy        *string    `gorm:"size:100" json:"archived_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (FormSubmissionArchive) TableName() string { return "form_submission_archive" }

// FormSubmissionValueArchive preserves submission values at archival.
type FormSubmissionValueArchive struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	FormSubmissionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"form_submission_id"`
	FieldDefID       uuid.UUID      `gorm:"type:uuid;not null" json:"field_def_id"`
	FieldPath        string         `gorm:"size:800;not null" json:"field_path"`
	Value            datatypes.JSON `gorm:"type:jsonb" swaggertype:"object" json:"value,omitempty"`
	ArchivedAt       time.Time      `gorm:"not null" json:"archived_at"`
}

func (FormSubmissionValueArchive) TableName() string { return "form_submission_value_archive" }
