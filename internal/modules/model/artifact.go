package model

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactKind discriminates the three catalog artifact variants.
type ArtifactKind string

const (
	KindFieldDef  ArtifactKind = "field_def"
	KindComponent ArtifactKind = "component"
	KindForm      ArtifactKind = "form"
)

// CatalogArtifact is the lifecycle view shared by FieldDef, Component
// and Form. The publish/archive state machine and the immutability
// guard operate through this interface only.
type CatalogArtifact interface {
	ArtifactID() uuid.UUID
	ArtifactKind() ArtifactKind
	ArtifactTenant() uuid.UUID
	ArtifactBusinessKey() string
	ArtifactVersion() int
	Published() bool
	Archived() bool
}

func (f *FieldDef) ArtifactID() uuid.UUID       { return f.ID }
func (f *FieldDef) ArtifactKind() ArtifactKind  { return KindFieldDef }
func (f *FieldDef) ArtifactTenant() uuid.UUID   { return f.TenantID }
func (f *FieldDef) ArtifactBusinessKey() string { return f.BusinessKey }
func (f *FieldDef) ArtifactVersion() int        { return f.Version }
func (f *FieldDef) Published() bool             { return f.IsPublished }
func (f *FieldDef) Archived() bool              { return f.IsArchived }

func (c *Component) ArtifactID() uuid.UUID       { return c.ID }
func (c *Component) ArtifactKind() ArtifactKind  { return KindComponent }
func (c *Component) ArtifactTenant() uuid.UUID   { return c.TenantID }
func (c *Component) ArtifactBusinessKey() string { return c.BusinessKey }
func (c *Component) ArtifactVersion() int        { return c.Version }
func (c *Component) Published() bool             { return c.IsPublished }
func (c *Component) Archived() bool              { return c.IsArchived }

func (f *Form) ArtifactID() uuid.UUID       { return f.ID }
func (f *Form) ArtifactKind() ArtifactKind  { return KindForm }
func (f *Form) ArtifactTenant() uuid.UUID   { return f.TenantID }
func (f *Form) ArtifactBusinessKey() string { return f.BusinessKey }
func (f *Form) ArtifactVersion() int        { return f.Version }
func (f *Form) Published() bool             { return f.IsPublished }
func (f *Form) Archived() bool              { return f.IsArchived }

// Publish flips the flag/timestamp pair together so the consistency
// rule (published_at set iff is_published) cannot drift piecemeal.
func Publish(now time.Time, isPublished *bool, publishedAt **time.Time) {
	*isPublished = true
	t := now.UTC()
	*publishedAt = &t
}

// Archive is the same pairing rule for the archival flag.
func Archive(now time.Time, isArchived *bool, archivedAt **time.Time) {
	*isArchived = true
	t := now.UTC()
	*archivedAt = &t
}

// NodeKind discriminates the structural node shapes the immutability
// guard understands. Anything else is a guard configuration error.
type NodeKind string

const (
	NodeComponentPanel      NodeKind = "component_panel"
	NodeFormPanel           NodeKind = "form_panel"
	NodeComponentPanelField NodeKind = "component_panel_field"
	NodeFormPanelField      NodeKind = "form_panel_field"
	NodeFormPanelComponent  NodeKind = "form_panel_component"
)

// NodeRef identifies one structural node for guard resolution.
type NodeRef struct {
	Kind NodeKind
	ID   uuid.UUID
}
