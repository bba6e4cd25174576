package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
	"github.com/whikwon/nexusnote/tests/fixtures"
)

func TestDocumentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Documents()

	doc := fixtures.NewDocumentBuilder().WithID("d1").WithName("paper").MustBuild()
	require.NoError(t, repo.Save(ctx, doc))

	got, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "paper", got.Name())

	require.NoError(t, got.Rename("renamed", nil))
	again, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "paper", again.Name(), "reads return copies")

	require.NoError(t, repo.Delete(ctx, "d1"))
	_, err = repo.GetByID(ctx, "d1")
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, pkgerrors.IsNotFound(repo.Delete(ctx, "d1")))
}

func TestAnnotationRepository_ScopedByDocument(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Annotations()

	for _, a := range []*entities.Annotation{
		fixtures.NewAnnotationBuilder().WithID("a1").WithDocumentID("d1").MustBuild(),
		fixtures.NewAnnotationBuilder().WithID("a2").WithDocumentID("d2").MustBuild(),
		fixtures.NewAnnotationBuilder().WithID("a3").WithDocumentID("d1").MustBuild(),
	} {
		require.NoError(t, repo.Save(ctx, a))
	}

	list, err := repo.ListByDocument(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	removed, err := repo.DeleteByDocument(ctx, "d1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []valueobjects.AnnotationID{"a1", "a3"}, removed)

	_, err = repo.GetByID(ctx, "a1")
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = repo.GetByID(ctx, "a2")
	assert.NoError(t, err)
}

func TestConceptRepository_StoresNoLinks(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Concepts()

	c := fixtures.NewConceptBuilder().WithID("c1").WithName("Self Attention").WithLinks("c2").MustBuild()
	require.NoError(t, repo.Save(ctx, c))

	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, got.LinkedConcepts(), "links live in the link repository")

	found, err := repo.FindByName(ctx, "  SELF attention ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, valueobjects.ConceptID("c1"), found.ID())

	missing, err := repo.FindByName(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestConceptRepository_NamesAreUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Concepts()

	first := fixtures.NewConceptBuilder().WithID("c1").WithName("Attention").MustBuild()
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, first), "resaving the owner keeps its name")

	clash := fixtures.NewConceptBuilder().WithID("c2").WithName("ATTENTION").MustBuild()
	assert.ErrorIs(t, repo.Save(ctx, clash), pkgerrors.ErrDuplicateConceptName)

	_, err := repo.GetByID(ctx, "c2")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestLinkRepository_OnePerUnorderedPair(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Links()

	ab, err := entities.NewLink("a", "b")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, ab))

	ba, err := entities.NewLink("b", "a")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, ba), pkgerrors.ErrDuplicateLink)

	found, err := repo.Find(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, ab.ID(), found.ID())

	ac, err := entities.NewLink("a", "c")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, ac))

	byA, err := repo.ListByConcept(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, byA, 2)
	byC, err := repo.ListByConcept(ctx, "c")
	require.NoError(t, err)
	assert.Len(t, byC, 1)

	require.NoError(t, repo.Delete(ctx, ab))
	_, err = repo.Find(ctx, "a", "b")
	assert.ErrorIs(t, err, pkgerrors.ErrLinkNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ab), pkgerrors.ErrLinkNotFound)
}
