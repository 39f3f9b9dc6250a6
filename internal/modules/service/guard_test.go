package service

import (
	"context"
	"testing"
	"time"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEnsureArtifactMutable(t *testing.T) {
	g := NewGuard(zap.NewNop())

	draft := &model.FieldDef{ID: uuid.New()}
	assert.NoError(t, g.EnsureArtifactMutable(draft, "update"))

	now := time.Now()
	published := &model.FieldDef{ID: uuid.New(), IsPublished: true, PublishedAt: &now}
	err := g.EnsureArtifactMutable(published, "update")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeImmutableArtifact))
}

func TestEnsureArtifactMutableArchivedDraft(t *testing.T) {
	g := NewGuard(zap.NewNop())

	// archival does not publish; an archived draft stays editable as
	// far as the immutability guard is concerned
	archived := &model.Form{ID: uuid.New(), IsArchived: true}
	assert.NoError(t, g.EnsureArtifactMutable(archived, "update"))
}

func TestResolveOwningArtifactUnknownKind(t *testing.T) {
	g := NewGuard(zap.NewNop())

	ref := model.NodeRef{Kind: model.NodeKind("mystery-node"), ID: uuid.New()}
	_, err := g.ResolveOwningArtifact(context.Background(), nil, uuid.New(), ref)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeGuardMisconfigured))
}

func TestEnsureNodeMutableUnknownKindFailsClosed(t *testing.T) {
	g := NewGuard(zap.NewNop())

	ref := model.NodeRef{Kind: model.NodeKind("mystery-node"), ID: uuid.New()}
	err := g.EnsureNodeMutable(context.Background(), nil, uuid.New(), ref, "delete")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeGuardMisconfigured))
}
