package concepts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
	"github.com/whikwon/nexusnote/tests/fixtures"
	"github.com/whikwon/nexusnote/tests/mocks"
)

type idSet map[valueobjects.AnnotationID]bool

func (s idSet) Contains(id valueobjects.AnnotationID) bool { return s[id] }

func newSeededStore(api *mocks.MockRemoteAPI, seed ...*entities.Concept) *Store {
	store := NewStore(api, config.DefaultDomainConfig(), nil)
	store.Merge(seed)
	return store
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("stores canonical record", func(t *testing.T) {
		api := new(mocks.MockRemoteAPI)
		store := newSeededStore(api)
		canonical := fixtures.NewConceptBuilder().WithID("c1").WithName("Entropy").MustBuild()

		api.On("CreateConcept", ctx, ports.ConceptDraft{Name: "Entropy", Comment: "disorder"}).
			Return(canonical, nil).Once()

		created, err := store.Create(ctx, "  Entropy ", "disorder")
		require.NoError(t, err)
		assert.Equal(t, valueobjects.ConceptID("c1"), created.ID())

		got, ok := store.Get("c1")
		require.True(t, ok)
		assert.Equal(t, "Entropy", got.Name())
	})

	t.Run("blank name never reaches the server", func(t *testing.T) {
		for _, name := range []string{"", "   ", "\t\n"} {
			api := new(mocks.MockRemoteAPI)
			store := newSeededStore(api)

			_, err := store.Create(ctx, name, "comment")
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			api.AssertNotCalled(t, "CreateConcept", mock.Anything, mock.Anything)
		}
	})

	t.Run("duplicate name is rejected locally", func(t *testing.T) {
		api := new(mocks.MockRemoteAPI)
		store := newSeededStore(api, fixtures.NewConceptBuilder().WithName("Entropy").MustBuild())

		_, err := store.Create(ctx, "entropy", "")
		assert.ErrorIs(t, err, pkgerrors.ErrDuplicateConceptName)
		api.AssertNotCalled(t, "CreateConcept", mock.Anything, mock.Anything)
	})

	t.Run("server rejection leaves no phantom", func(t *testing.T) {
		api := new(mocks.MockRemoteAPI)
		store := newSeededStore(api)

		api.On("CreateConcept", ctx, mock.Anything).
			Return(nil, pkgerrors.NewServerRejection(409, "Concept with this name already exists")).Once()

		_, err := store.Create(ctx, "Entropy", "")
		require.Error(t, err)
		assert.Equal(t, "Concept with this name already exists", pkgerrors.GetAppError(err).Message)
		assert.Equal(t, 0, store.Len())
	})
}

func TestStore_Update_ReplacesEveryView(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockRemoteAPI)
	c1 := fixtures.NewConceptBuilder().WithID("c1").WithName("Entropy").WithRefs("a1").MustBuild()
	store := newSeededStore(api, c1)
	require.NoError(t, store.SetActive("c1"))

	canonical := fixtures.NewConceptBuilder().WithID("c1").WithName("Information Entropy").WithRefs("a1").MustBuild()
	api.On("UpdateConcept", ctx, mock.AnythingOfType("*entities.Concept")).Return(canonical, nil).Once()

	edit, _ := store.Get("c1")
	require.NoError(t, edit.Rename("Information Entropy", nil))

	_, err := store.Update(ctx, edit)
	require.NoError(t, err)

	all := store.ListAll()
	require.Len(t, all, 1)
	assert.Equal(t, "Information Entropy", all[0].Name())

	forDoc := store.ListForDocument(idSet{"a1": true})
	require.Len(t, forDoc, 1)
	assert.Equal(t, "Information Entropy", forDoc[0].Name())

	active, ok := store.Active()
	require.True(t, ok)
	assert.Equal(t, "Information Entropy", active.Name())
}

func TestStore_Update_FailureAppliesNothing(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockRemoteAPI)
	store := newSeededStore(api, fixtures.NewConceptBuilder().WithID("c1").WithComment("before").MustBuild())

	api.On("UpdateConcept", ctx, mock.Anything).Return(nil, pkgerrors.NewNetworkError("timeout", nil)).Once()

	edit, _ := store.Get("c1")
	require.NoError(t, edit.SetComment("after", nil))
	_, err := store.Update(ctx, edit)
	require.Error(t, err)

	got, _ := store.Get("c1")
	assert.Equal(t, "before", got.Comment())
}

func TestStore_Update_StaleAfterRefresh(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockRemoteAPI)
	c1 := fixtures.NewConceptBuilder().WithID("c1").WithComment("server").MustBuild()
	store := newSeededStore(api, c1)

	api.On("ListConcepts", ctx).Return([]*entities.Concept{c1}, nil)
	api.On("UpdateConcept", ctx, mock.Anything).
		Run(func(mock.Arguments) {
			require.NoError(t, store.Refresh(ctx))
		}).
		Return(fixtures.NewConceptBuilder().WithID("c1").WithComment("late").MustBuild(), nil).Once()

	edit, _ := store.Get("c1")
	_, err := store.Update(ctx, edit)
	assert.True(t, pkgerrors.IsStale(err))

	got, _ := store.Get("c1")
	assert.Equal(t, "server", got.Comment())
}

func TestStore_AddAnnotationRef_Idempotent(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockRemoteAPI)
	store := newSeededStore(api, fixtures.NewConceptBuilder().WithID("c1").MustBuild())
	api.EchoConceptUpdates()

	once, err := store.AddAnnotationRef(ctx, "c1", "a1")
	require.NoError(t, err)
	twice, err := store.AddAnnotationRef(ctx, "c1", "a1")
	require.NoError(t, err)

	assert.Equal(t, once.AnnotationRefs(), twice.AnnotationRefs())
	assert.Equal(t, []valueobjects.AnnotationID{"a1"}, twice.AnnotationRefs())
	api.AssertNumberOfCalls(t, "UpdateConcept", 1)
}

func TestStore_RemoveAnnotationRef(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockRemoteAPI)
	store := newSeededStore(api, fixtures.NewConceptBuilder().WithID("c1").WithRefs("a1").MustBuild())
	api.EchoConceptUpdates()

	got, err := store.RemoveAnnotationRef(ctx, "c1", "a2")
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.AnnotationID{"a1"}, got.AnnotationRefs())
	api.AssertNotCalled(t, "UpdateConcept", mock.Anything, mock.Anything)

	got, err = store.RemoveAnnotationRef(ctx, "c1", "a1")
	require.NoError(t, err)
	assert.Empty(t, got.AnnotationRefs())
	api.AssertNumberOfCalls(t, "UpdateConcept", 1)

	_, err = store.RemoveAnnotationRef(ctx, "missing", "a1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStore_AddLink(t *testing.T) {
	ctx := context.Background()

	t.Run("creates edge then updates source only", func(t *testing.T) {
		api := new(mocks.MockRemoteAPI)
		store := newSeededStore(api,
			fixtures.NewConceptBuilder().WithID("c1").WithName("A").MustBuild(),
			fixtures.NewConceptBuilder().WithID("c2").WithName("B").MustBuild(),
		)
		api.On("CreateLink", ctx, valueobjects.ConceptID("c1"), valueobjects.ConceptID("c2")).Return(nil).Once()

		got, err := store.AddLink(ctx, "c1", "c2")
		require.NoError(t, err)
		assert.Equal(t, []valueobjects.ConceptID{"c2"}, got.LinkedConcepts())

		target, _ := store.Get("c2")
		assert.Empty(t, target.LinkedConcepts())
		api.AssertNotCalled(t, "UpdateConcept", mock.Anything, mock.Anything)
		api.AssertExpectations(t)
	})

	t.Run("self and existing links are silent no-ops", func(t *testing.T) {
		api := new(mocks.MockRemoteAPI)
		store := newSeededStore(api,
			fixtures.NewConceptBuilder().WithID("c1").WithName("A").WithLinks("c2").MustBuild(),
			fixtures.NewConceptBuilder().WithID("c2").WithName("B").MustBuild(),
		)

		got, err := store.AddLink(ctx, "c1", "c1")
		require.NoError(t, err)
		assert.Equal(t, []valueobjects.ConceptID{"c2"}, got.LinkedConcepts())

		_, err = store.AddLink(ctx, "c1", "c2")
		require.NoError(t, err)
		api.AssertNotCalled(t, "CreateLink", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejection applies nothing", func(t *testing.T) {
		api := new(mocks.MockRemoteAPI)
		store := newSeededStore(api,
			fixtures.NewConceptBuilder().WithID("c1").WithName("A").MustBuild(),
			fixtures.NewConceptBuilder().WithID("c2").WithName("B").MustBuild(),
		)
		api.On("CreateLink", ctx, mock.Anything, mock.Anything).
			Return(pkgerrors.NewServerRejection(500, "")).Once()

		_, err := store.AddLink(ctx, "c1", "c2")
		require.Error(t, err)
		got, _ := store.Get("c1")
		assert.Empty(t, got.LinkedConcepts())
	})

	t.Run("conflict confirms existing pair", func(t *testing.T) {
		api := new(mocks.MockRemoteAPI)
		store := newSeededStore(api,
			fixtures.NewConceptBuilder().WithID("c1").WithName("A").MustBuild(),
			fixtures.NewConceptBuilder().WithID("c2").WithName("B").MustBuild(),
		)
		api.On("CreateLink", ctx, mock.Anything, mock.Anything).
			Return(pkgerrors.NewServerRejection(409, "Link already exists")).Once()

		got, err := store.AddLink(ctx, "c2", "c1")
		require.NoError(t, err)
		assert.Equal(t, []valueobjects.ConceptID{"c1"}, got.LinkedConcepts())
	})

	t.Run("unknown target", func(t *testing.T) {
		api := new(mocks.MockRemoteAPI)
		store := newSeededStore(api, fixtures.NewConceptBuilder().WithID("c1").MustBuild())

		_, err := store.AddLink(ctx, "c1", "ghost")
		assert.True(t, pkgerrors.IsNotFound(err))
		api.AssertNotCalled(t, "CreateLink", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStore_AddLink_NeverSelfLinks(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockRemoteAPI)
	ids := []valueobjects.ConceptID{"c1", "c2", "c3"}
	var seed []*entities.Concept
	for _, id := range ids {
		seed = append(seed, fixtures.NewConceptBuilder().WithID(id.String()).WithName(id.String()).MustBuild())
	}
	store := newSeededStore(api, seed...)
	api.On("CreateLink", ctx, mock.Anything, mock.Anything).Return(nil)

	for _, from := range ids {
		for _, to := range ids {
			_, err := store.AddLink(ctx, from, to)
			require.NoError(t, err)
		}
	}

	for _, c := range store.ListAll() {
		assert.NotContains(t, c.LinkedConcepts(), c.ID())
		assert.Len(t, c.LinkedConcepts(), len(ids)-1)
	}
}

func TestStore_RemoveLink(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockRemoteAPI)
	store := newSeededStore(api,
		fixtures.NewConceptBuilder().WithID("c1").WithName("A").WithLinks("c2").MustBuild(),
		fixtures.NewConceptBuilder().WithID("c2").WithName("B").WithLinks("c1").MustBuild(),
	)
	api.On("DeleteLink", ctx, valueobjects.ConceptID("c1"), valueobjects.ConceptID("c2")).Return(nil).Once()

	got, err := store.RemoveLink(ctx, "c1", "c2")
	require.NoError(t, err)
	assert.Empty(t, got.LinkedConcepts())

	// the reverse edge is left for the server to report
	other, _ := store.Get("c2")
	assert.Equal(t, []valueobjects.ConceptID{"c1"}, other.LinkedConcepts())

	_, err = store.RemoveLink(ctx, "c1", "c2")
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "DeleteLink", 1)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockRemoteAPI)
	store := newSeededStore(api,
		fixtures.NewConceptBuilder().WithID("c1").WithName("A").WithLinks("c2").MustBuild(),
		fixtures.NewConceptBuilder().WithID("c2").WithName("B").WithLinks("c1").MustBuild(),
	)
	require.NoError(t, store.SetActive("c2"))

	api.On("DeleteConcept", ctx, valueobjects.ConceptID("c2")).Return(nil).Once()
	require.NoError(t, store.Delete(ctx, "c2"))

	_, ok := store.Get("c2")
	assert.False(t, ok)
	_, ok = store.Active()
	assert.False(t, ok)

	c1, _ := store.Get("c1")
	assert.Empty(t, c1.LinkedConcepts())
}

func TestStore_Delete_FailsClosed(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockRemoteAPI)
	store := newSeededStore(api, fixtures.NewConceptBuilder().WithID("c1").MustBuild())

	api.On("DeleteConcept", ctx, valueobjects.ConceptID("c1")).
		Return(pkgerrors.NewNetworkError("connection reset", nil)).Once()

	require.Error(t, store.Delete(ctx, "c1"))
	_, ok := store.Get("c1")
	assert.True(t, ok)
}

func TestStore_ListForDocument(t *testing.T) {
	store := newSeededStore(new(mocks.MockRemoteAPI),
		fixtures.NewConceptBuilder().WithID("c1").WithName("A").WithRefs("a1", "x9").MustBuild(),
		fixtures.NewConceptBuilder().WithID("c2").WithName("B").WithRefs("x1").MustBuild(),
		fixtures.NewConceptBuilder().WithID("c3").WithName("C").MustBuild(),
	)

	got := store.ListForDocument(idSet{"a1": true, "a2": true})
	require.Len(t, got, 1)
	assert.Equal(t, valueobjects.ConceptID("c1"), got[0].ID())
	assert.Empty(t, store.ListForDocument(nil))
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := newSeededStore(new(mocks.MockRemoteAPI), fixtures.NewConceptBuilder().WithID("c1").MustBuild())

	copy1, _ := store.Get("c1")
	_, err := copy1.AddAnnotationRef("a1", nil)
	require.NoError(t, err)

	copy2, _ := store.Get("c1")
	assert.Empty(t, copy2.AnnotationRefs())
}

func TestStore_Refresh(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockRemoteAPI)
	store := newSeededStore(api, fixtures.NewConceptBuilder().WithID("old").MustBuild())
	require.NoError(t, store.SetActive("old"))

	api.On("ListConcepts", ctx).Return([]*entities.Concept{
		fixtures.NewConceptBuilder().WithID("n1").WithName("N1").MustBuild(),
		fixtures.NewConceptBuilder().WithID("n2").WithName("N2").MustBuild(),
	}, nil).Once()

	require.NoError(t, store.Refresh(ctx))
	all := store.ListAll()
	require.Len(t, all, 2)
	assert.Equal(t, valueobjects.ConceptID("n1"), all[0].ID())
	_, ok := store.Active()
	assert.False(t, ok)
}
