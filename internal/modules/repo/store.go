package repo

import (
	"context"

	"gorm.io/gorm"
)

// Store is the transactional store abstraction the engine runs
// against. Atomic executes fn against a store view bound to a single
// database transaction, so guard read-then-write checks are race-free
// under the database's isolation guarantees.
type Store interface {
	Atomic(ctx context.Context, fn func(Store) error) error

	FieldDefs() FieldDefRepo
	Components() ComponentRepo
	Forms() FormRepo
	Categories() CategoryRepo
	ComponentPanels() ComponentPanelRepo
	FormPanels() FormPanelRepo
	ComponentPanelFields() ComponentPanelFieldRepo
	FormPanelFields() FormPanelFieldRepo
	FormPanelComponents() FormPanelComponentRepo
	Submissions() SubmissionRepo
}

type store struct {
	db *gorm.DB

	fieldDefs            FieldDefRepo
	components           ComponentRepo
	forms                FormRepo
	categories           CategoryRepo
	componentPanels      ComponentPanelRepo
	formPanels           FormPanelRepo
	componentPanelFields ComponentPanelFieldRepo
	formPanelFields      FormPanelFieldRepo
	formPanelComponents  FormPanelComponentRepo
	submissions          SubmissionRepo
}

func NewStore(db *gorm.DB) Store {
	return &store{
		db:                   db,
		fieldDefs:            NewFieldDefRepo(db),
		components:           NewComponentRepo(db),
		forms:                NewFormRepo(db),
		categories:           NewCategoryRepo(db),
		componentPanels:      NewComponentPanelRepo(db),
		formPanels:           NewFormPanelRepo(db),
		componentPanelFields: NewComponentPanelFieldRepo(db),
		formPanelFields:      NewFormPanelFieldRepo(db),
		formPanelComponents:  NewFormPanelComponentRepo(db),
		submissions:          NewSubmissionRepo(db),
	}
}

func (s *store) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *store) FieldDefs() FieldDefRepo                       { return s.fieldDefs }
func (s *store) Components() ComponentRepo                     { return s.components }
func (s *store) Forms() FormRepo                               { return s.forms }
func (s *store) Categories() CategoryRepo                      { return s.categories }
func (s *store) ComponentPanels() ComponentPanelRepo           { return s.componentPanels }
func (s *store) FormPanels() FormPanelRepo                     { return s.formPanels }
func (s *store) ComponentPanelFields() ComponentPanelFieldRepo { return s.componentPanelFields }
func (s *store) FormPanelFields() FormPanelFieldRepo           { return s.formPanelFields }
func (s *store) FormPanelComponents() FormPanelComponentRepo   { return s.formPanelComponents }
func (s *store) Submissions() SubmissionRepo                   { return s.submissions }
