package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/modules/repo"
	"github.com/dynoform/composer/internal/pkg/apperr"
)

// MockFormRepo is a mock implementation of repo.FormRepo
type MockFormRepo struct {
	mock.Mock
}

func (m *MockFormRepo) Create(ctx context.Context, f *model.Form) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFormRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Form, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Form), args.Error(1)
}

func (m *MockFormRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.Form, int64, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.Form), args.Get(1).(int64), args.Error(2)
}

func (m *MockFormRepo) MaxVersion(ctx context.Context, tenantID uuid.UUID, businessKey string) (int, error) {
	args := m.Called(ctx, tenantID, businessKey)
	return args.Int(0), args.Error(1)
}

func (m *MockFormRepo) CountLiveVersions(ctx context.Context, tenantID uuid.UUID, businessKey string) (int64, error) {
	args := m.Called(ctx, tenantID, businessKey)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFormRepo) Update(ctx context.Context, f *model.Form) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFormRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockFormPanelRepo is a mock implementation of repo.FormPanelRepo
type MockFormPanelRepo struct {
	mock.Mock
}

func (m *MockFormPanelRepo) Create(ctx context.Context, p *model.FormPanel) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockFormPanelRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormPanel, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FormPanel), args.Error(1)
}

func (m *MockFormPanelRepo) ListByForm(ctx context.Context, tenantID, formID uuid.UUID) ([]*model.FormPanel, error) {
	args := m.Called(ctx, tenantID, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.FormPanel), args.Error(1)
}

func (m *MockFormPanelRepo) Update(ctx context.Context, p *model.FormPanel) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockFormPanelRepo) DeleteMany(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	args := m.Called(ctx, tenantID, ids)
	return args.Error(0)
}

// MockFormPanelFieldRepo is a mock implementation of repo.FormPanelFieldRepo
type MockFormPanelFieldRepo struct {
	mock.Mock
}

func (m *MockFormPanelFieldRepo) Create(ctx context.Context, f *model.FormPanelField) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFormPanelFieldRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormPanelField, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FormPanelField), args.Error(1)
}

func (m *MockFormPanelFieldRepo) ListByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) ([]*model.FormPanelField, error) {
	args := m.Called(ctx, tenantID, panelIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.FormPanelField), args.Error(1)
}

func (m *MockFormPanelFieldRepo) ListByFieldDef(ctx context.Context, tenantID, fieldDefID uuid.UUID) ([]*model.FormPanelField, error) {
	args := m.Called(ctx, tenantID, fieldDefID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.FormPanelField), args.Error(1)
}

func (m *MockFormPanelFieldRepo) Update(ctx context.Context, f *model.FormPanelField) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFormPanelFieldRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockFormPanelFieldRepo) DeleteByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) error {
	args := m.Called(ctx, tenantID, panelIDs)
	return args.Error(0)
}

// stubStore wires the mocked repos into the Store interface. Atomic
// runs the callback against the same store; there is no real
// transaction in these tests.
type stubStore struct {
	forms           *MockFormRepo
	formPanels      *MockFormPanelRepo
	formPanelFields *MockFormPanelFieldRepo
	fieldDefs       repo.FieldDefRepo
}

func (s *stubStore) Atomic(ctx context.Context, fn func(repo.Store) error) error { return fn(s) }

func (s *stubStore) FieldDefs() repo.FieldDefRepo                       { return s.fieldDefs }
func (s *stubStore) Components() repo.ComponentRepo                     { return nil }
func (s *stubStore) Forms() repo.FormRepo                               { return s.forms }
func (s *stubStore) Categories() repo.CategoryRepo                      { return nil }
func (s *stubStore) ComponentPanels() repo.ComponentPanelRepo           { return nil }
func (s *stubStore) FormPanels() repo.FormPanelRepo                     { return s.formPanels }
func (s *stubStore) ComponentPanelFields() repo.ComponentPanelFieldRepo { return nil }
func (s *stubStore) FormPanelFields() repo.FormPanelFieldRepo           { return s.formPanelFields }
func (s *stubStore) FormPanelComponents() repo.FormPanelComponentRepo   { return nil }
func (s *stubStore) Submissions() repo.SubmissionRepo                   { return nil }

type nopCache struct{}

func (nopCache) Get(ctx context.Context, tenantID, formID uuid.UUID) (*RenderedForm, error) {
	return nil, nil
}
func (nopCache) Set(ctx context.Context, tenantID, formID uuid.UUID, doc *RenderedForm) error {
	return nil
}
func (nopCache) Invalidate(ctx context.Context, tenantID uuid.UUID, formIDs ...uuid.UUID) error {
	return nil
}

type nopEvents struct{}

func (nopEvents) Publish(ctx context.Context, routingKey string, env EventEnvelope) error {
	return nil
}

func compositionFixture(published bool) (*stubStore, uuid.UUID, *model.Form, *model.FormPanel, *model.FormPanelField) {
	tenantID := uuid.New()
	form := &model.Form{
		ID:          uuid.New(),
		TenantID:    tenantID,
		BusinessKey: "order_intake",
		Version:     1,
		FormKey:     "order_intake",
		Name:        "Order intake",
	}
	if published {
		now := time.Now().UTC()
		form.IsPublished = true
		form.PublishedAt = &now
	}
	panel := &model.FormPanel{
		ID:       uuid.New(),
		TenantID: tenantID,
		FormID:   form.ID,
		PanelKey: "main",
	}
	zero := 0
	placement := &model.FormPanelField{
		ID:         uuid.New(),
		TenantID:   tenantID,
		PanelID:    panel.ID,
		FieldDefID: uuid.New(),
		FieldOrder: &zero,
		FieldConfig: map[string]any{
			"schema_version": 1,
			"field": map[string]any{
				"field_key":    "price",
				"label":        "Price",
				"element_type": "TEXT",
			},
		},
	}

	st := &stubStore{
		forms:           new(MockFormRepo),
		formPanels:      new(MockFormPanelRepo),
		formPanelFields: new(MockFormPanelFieldRepo),
	}
	st.forms.On("GetByID", mock.Anything, tenantID, form.ID).Return(form, nil)
	st.formPanels.On("GetByID", mock.Anything, tenantID, panel.ID).Return(panel, nil)
	st.formPanelFields.On("GetByID", mock.Anything, tenantID, placement.ID).Return(placement, nil)
	return st, tenantID, form, panel, placement
}

func newTestComposition(st *stubStore) FormCompositionService {
	log := zap.NewNop()
	return NewFormCompositionService(st, NewGuard(log), nopEvents{}, nopCache{}, log)
}

func TestUpdatePlacementRejectedAfterPublish(t *testing.T) {
	st, tenantID, form, _, placement := compositionFixture(true)
	svc := newTestComposition(st)

	one := 1
	_, err := svc.UpdatePlacement(context.Background(), tenantID, placement.ID, PlacementUpdateInput{FieldOrder: &one})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeImmutableStructure))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, form.ID, appErr.ArtifactID)

	st.formPanelFields.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Equal(t, 0, *placement.FieldOrder)
}

func TestUpdatePlacementAllowedBeforePublish(t *testing.T) {
	st, tenantID, _, _, placement := compositionFixture(false)
	st.formPanelFields.On("Update", mock.Anything, placement).Return(nil)
	svc := newTestComposition(st)

	one := 1
	updated, err := svc.UpdatePlacement(context.Background(), tenantID, placement.ID, PlacementUpdateInput{FieldOrder: &one})
	require.NoError(t, err)
	assert.Equal(t, 1, *updated.FieldOrder)

	st.formPanelFields.AssertCalled(t, "Update", mock.Anything, placement)
}

func TestAddPanelRejectedAfterPublish(t *testing.T) {
	st, tenantID, form, _, _ := compositionFixture(true)
	svc := newTestComposition(st)

	_, err := svc.AddPanel(context.Background(), tenantID, form.ID, PanelInput{PanelKey: "extra"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeImmutableArtifact))

	st.formPanels.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAddPanelDuplicateKeyConflict(t *testing.T) {
	st, tenantID, form, _, _ := compositionFixture(false)
	st.formPanels.On("Create", mock.Anything, mock.AnythingOfType("*model.FormPanel")).Return(gorm.ErrDuplicatedKey)
	svc := newTestComposition(st)

	_, err := svc.AddPanel(context.Background(), tenantID, form.ID, PanelInput{PanelKey: "main"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflictingIdentity))
}

func TestPlaceFieldDuplicateOrderConflict(t *testing.T) {
	st, tenantID, _, panel, placement := compositionFixture(false)

	fd := &model.FieldDef{
		ID:          placement.FieldDefID,
		TenantID:    tenantID,
		BusinessKey: "price",
		Version:     1,
		FieldKey:    "price",
		Label:       "Price",
		ElementType: model.ElementText,
	}
	fieldDefs := new(mockFieldDefLookup)
	fieldDefs.On("GetByID", mock.Anything, tenantID, fd.ID).Return(fd, nil)
	st.fieldDefs = fieldDefs
	st.formPanelFields.On("Create", mock.Anything, mock.AnythingOfType("*model.FormPanelField")).Return(gorm.ErrDuplicatedKey)
	svc := newTestComposition(st)

	zero := 0
	_, err := svc.PlaceField(context.Background(), tenantID, panel.ID, PlaceFieldInput{FieldDefID: fd.ID, FieldOrder: &zero})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflictingIdentity))
}

func TestUpdatePanelRejectsReparentUnderDescendant(t *testing.T) {
	st, tenantID, form, panel, _ := compositionFixture(false)
	child := &model.FormPanel{
		ID:            uuid.New(),
		TenantID:      tenantID,
		FormID:        form.ID,
		ParentPanelID: &panel.ID,
		PanelKey:      "details",
	}
	st.formPanels.On("GetByID", mock.Anything, tenantID, child.ID).Return(child, nil)
	st.formPanels.On("ListByForm", mock.Anything, tenantID, form.ID).Return([]*model.FormPanel{panel, child}, nil)
	svc := newTestComposition(st)

	_, err := svc.UpdatePanel(context.Background(), tenantID, panel.ID, PanelUpdateInput{ParentPanelID: &child.ID})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	st.formPanels.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Nil(t, panel.ParentPanelID)
}

func TestRemoveInstanceRejectedAfterPublish(t *testing.T) {
	st, tenantID, _, panel, _ := compositionFixture(true)

	instRepo := new(mockFormPanelComponentRepo)
	instance := &model.FormPanelComponent{
		ID:          uuid.New(),
		TenantID:    tenantID,
		PanelID:     panel.ID,
		ComponentID: uuid.New(),
		InstanceKey: "contact_block",
	}
	instRepo.On("GetByID", mock.Anything, tenantID, instance.ID).Return(instance, nil)

	full := &instanceStore{stubStore: st, instances: instRepo}
	log := zap.NewNop()
	svc := NewFormCompositionService(full, NewGuard(log), nopEvents{}, nopCache{}, log)

	err := svc.RemoveInstance(context.Background(), tenantID, instance.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeImmutableStructure))

	instRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

type mockFormPanelComponentRepo struct {
	mock.Mock
}

func (m *mockFormPanelComponentRepo) Create(ctx context.Context, i *model.FormPanelComponent) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

func (m *mockFormPanelComponentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FormPanelComponent, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FormPanelComponent), args.Error(1)
}

func (m *mockFormPanelComponentRepo) ListByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) ([]*model.FormPanelComponent, error) {
	args := m.Called(ctx, tenantID, panelIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.FormPanelComponent), args.Error(1)
}

func (m *mockFormPanelComponentRepo) ListByComponent(ctx context.Context, tenantID, componentID uuid.UUID) ([]*model.FormPanelComponent, error) {
	args := m.Called(ctx, tenantID, componentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.FormPanelComponent), args.Error(1)
}

func (m *mockFormPanelComponentRepo) Update(ctx context.Context, i *model.FormPanelComponent) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

func (m *mockFormPanelComponentRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockFormPanelComponentRepo) DeleteByPanels(ctx context.Context, tenantID uuid.UUID, panelIDs []uuid.UUID) error {
	args := m.Called(ctx, tenantID, panelIDs)
	return args.Error(0)
}

// mockFieldDefLookup is a mock implementation of repo.FieldDefRepo.
type mockFieldDefLookup struct {
	mock.Mock
}

func (m *mockFieldDefLookup) Create(ctx context.Context, fd *model.FieldDef) error {
	args := m.Called(ctx, fd)
	return args.Error(0)
}

func (m *mockFieldDefLookup) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.FieldDef, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FieldDef), args.Error(1)
}

func (m *mockFieldDefLookup) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*model.FieldDef, int64, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.FieldDef), args.Get(1).(int64), args.Error(2)
}

func (m *mockFieldDefLookup) MaxVersion(ctx context.Context, tenantID uuid.UUID, businessKey string) (int, error) {
	args := m.Called(ctx, tenantID, businessKey)
	return args.Int(0), args.Error(1)
}

func (m *mockFieldDefLookup) CountLiveVersions(ctx context.Context, tenantID uuid.UUID, businessKey string) (int64, error) {
	args := m.Called(ctx, tenantID, businessKey)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockFieldDefLookup) Update(ctx context.Context, fd *model.FieldDef) error {
	args := m.Called(ctx, fd)
	return args.Error(0)
}

func (m *mockFieldDefLookup) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockFieldDefLookup) CreateOption(ctx context.Context, opt *model.FieldDefOption) error {
	args := m.Called(ctx, opt)
	return args.Error(0)
}

func (m *mockFieldDefLookup) ListOptions(ctx context.Context, tenantID, fieldDefID uuid.UUID) ([]model.FieldDefOption, error) {
	args := m.Called(ctx, tenantID, fieldDefID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FieldDefOption), args.Error(1)
}

func (m *mockFieldDefLookup) UpdateOption(ctx context.Context, opt *model.FieldDefOption) error {
	args := m.Called(ctx, opt)
	return args.Error(0)
}

func (m *mockFieldDefLookup) DeleteOption(ctx context.Context, tenantID, optionID uuid.UUID) error {
	args := m.Called(ctx, tenantID, optionID)
	return args.Error(0)
}

// instanceStore extends stubStore with a mocked instance repo.
type instanceStore struct {
	*stubStore
	instances *mockFormPanelComponentRepo
}

func (s *instanceStore) Atomic(ctx context.Context, fn func(repo.Store) error) error { return fn(s) }

func (s *instanceStore) FormPanelComponents() repo.FormPanelComponentRepo { return s.instances }
