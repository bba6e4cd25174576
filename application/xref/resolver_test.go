package xref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/tests/fixtures"
)

func names(cs []*entities.Concept) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name())
	}
	return out
}

func annotationIDs(as []*entities.Annotation) []valueobjects.AnnotationID {
	out := make([]valueobjects.AnnotationID, 0, len(as))
	for _, a := range as {
		out = append(out, a.ID())
	}
	return out
}

func TestSortForDocument(t *testing.T) {
	t.Run("relevant first", func(t *testing.T) {
		concepts := []*entities.Concept{
			fixtures.NewConceptBuilder().WithName("Zeta").MustBuild(),
			fixtures.NewConceptBuilder().WithName("Alpha").WithRefs("a1").MustBuild(),
		}

		sorted := SortForDocument(concepts, NewIDSet("a1"))
		assert.Equal(t, []string{"Alpha", "Zeta"}, names(sorted))
	})

	t.Run("relevance beats name", func(t *testing.T) {
		concepts := []*entities.Concept{
			fixtures.NewConceptBuilder().WithName("Alpha").MustBuild(),
			fixtures.NewConceptBuilder().WithName("Zeta").WithRefs("a1").MustBuild(),
			fixtures.NewConceptBuilder().WithName("beta").WithRefs("a2").MustBuild(),
			fixtures.NewConceptBuilder().WithName("Gamma").WithRefs("x").MustBuild(),
		}

		sorted := SortForDocument(concepts, NewIDSet("a1", "a2"))
		assert.Equal(t, []string{"beta", "Zeta", "Alpha", "Gamma"}, names(sorted))
	})

	t.Run("stable for equal keys and input untouched", func(t *testing.T) {
		first := fixtures.NewConceptBuilder().WithID("first").WithName("Same").MustBuild()
		second := fixtures.NewConceptBuilder().WithID("second").WithName("same").MustBuild()
		input := []*entities.Concept{first, second}

		sorted := SortForDocument(input, nil)
		assert.Equal(t, valueobjects.ConceptID("first"), sorted[0].ID())
		assert.Equal(t, valueobjects.ConceptID("second"), sorted[1].ID())
		assert.Same(t, first, input[0])
	})
}

func TestResolver_AnnotationsFor(t *testing.T) {
	a1 := fixtures.NewAnnotationBuilder().WithID("a1").MustBuild()
	a2 := fixtures.NewAnnotationBuilder().WithID("a2").MustBuild()

	t.Run("dangling ref is skipped", func(t *testing.T) {
		x := fixtures.NewConceptBuilder().WithName("X").WithRefs("a1").MustBuild()
		r := NewResolver([]*entities.Concept{x}, nil)

		assert.Empty(t, r.AnnotationsFor(x))
	})

	t.Run("resolves in ref order", func(t *testing.T) {
		x := fixtures.NewConceptBuilder().WithRefs("a2", "gone", "a1").MustBuild()
		r := NewResolver(nil, []*entities.Annotation{a1, a2})

		assert.Equal(t, []valueobjects.AnnotationID{"a2", "a1"}, annotationIDs(r.AnnotationsFor(x)))
	})

	t.Run("nil concept", func(t *testing.T) {
		assert.Empty(t, NewResolver(nil, nil).AnnotationsFor(nil))
	})
}

func TestResolver_ConceptsReferencing(t *testing.T) {
	c1 := fixtures.NewConceptBuilder().WithName("One").WithRefs("a1").MustBuild()
	c2 := fixtures.NewConceptBuilder().WithName("Two").WithRefs("a1", "a2").MustBuild()
	c3 := fixtures.NewConceptBuilder().WithName("Three").WithRefs("a3").MustBuild()
	r := NewResolver([]*entities.Concept{c1, c2, c3}, nil)

	assert.Equal(t, []string{"One", "Two"}, names(r.ConceptsReferencing("a1")))
	assert.Empty(t, r.ConceptsReferencing("zzz"))
}

func TestUnlinkedCandidates_NeverReturnsMembers(t *testing.T) {
	pool := []string{"apple", "Banana", "cherry", "apricot", ""}
	members := map[string]bool{"apple": true, "cherry": true}
	isMember := func(s string) bool { return members[s] }
	text := func(s string) string { return s }

	for _, term := range []string{"", " ", "a", "AP", "banana", "zzz", "cherry"} {
		got := UnlinkedCandidates(pool, isMember, text, term)
		for _, item := range got {
			assert.False(t, members[item], "term %q returned member %q", term, item)
		}
	}

	assert.Equal(t, []string{"Banana", "apricot", ""}, UnlinkedCandidates(pool, isMember, text, ""))
	assert.Equal(t, []string{"apricot"}, UnlinkedCandidates(pool, isMember, text, "AP"))
	assert.Empty(t, UnlinkedCandidates(pool, isMember, text, "cherry"))
	assert.Empty(t, UnlinkedCandidates(pool, isMember, text, " "), "whitespace is not a wildcard")
	assert.Equal(t, []string{"two words"}, UnlinkedCandidates([]string{"one", "two words"}, isMember, text, " "))
}

func TestResolver_NilConcept(t *testing.T) {
	a1 := fixtures.NewAnnotationBuilder().WithID("a1").MustBuild()
	c1 := fixtures.NewConceptBuilder().WithName("One").MustBuild()
	r := NewResolver([]*entities.Concept{c1, nil}, []*entities.Annotation{nil, a1})

	assert.Empty(t, r.AnnotationsFor(nil))
	assert.Empty(t, r.UnlinkedAnnotations(nil, ""))
	assert.Empty(t, r.UnlinkedConcepts(nil, ""))
	assert.Equal(t, []string{"One"}, names(r.ConceptsNotReferencing("a1", "")))
	assert.Empty(t, r.AnnotationsFor(c1))
}

func TestResolver_UnlinkedAnnotations(t *testing.T) {
	a1 := fixtures.NewAnnotationBuilder().WithID("a1").WithQuote("Bayes rule").MustBuild()
	a2 := fixtures.NewAnnotationBuilder().WithID("a2").WithQuote("bayesian prior").MustBuild()
	a3 := fixtures.NewAnnotationBuilder().WithID("a3").WithQuote("markov chain").WithComment("memoryless").MustBuild()
	concept := fixtures.NewConceptBuilder().WithRefs("a1").MustBuild()
	r := NewResolver([]*entities.Concept{concept}, []*entities.Annotation{a1, a2, a3})

	assert.Equal(t, []valueobjects.AnnotationID{"a2"}, annotationIDs(r.UnlinkedAnnotations(concept, "BAYES")))
	assert.Equal(t, []valueobjects.AnnotationID{"a2", "a3"}, annotationIDs(r.UnlinkedAnnotations(concept, "")))
	assert.Equal(t, []valueobjects.AnnotationID{"a3"}, annotationIDs(r.UnlinkedAnnotations(concept, "memory")))
}

func TestResolver_UnlinkedConcepts(t *testing.T) {
	self := fixtures.NewConceptBuilder().WithID("self").WithName("Entropy").WithLinks("linked").MustBuild()
	linked := fixtures.NewConceptBuilder().WithID("linked").WithName("Energy").MustBuild()
	free := fixtures.NewConceptBuilder().WithID("free").WithName("Enthalpy").MustBuild()
	other := fixtures.NewConceptBuilder().WithID("other").WithName("Gibbs").WithComment("free energy").MustBuild()
	r := NewResolver([]*entities.Concept{self, linked, free, other}, nil)

	assert.Equal(t, []string{"Enthalpy"}, names(r.UnlinkedConcepts(self, "ent")))
	assert.Equal(t, []string{"Enthalpy", "Gibbs"}, names(r.UnlinkedConcepts(self, "")))
	assert.Equal(t, []string{"Gibbs"}, names(r.UnlinkedConcepts(self, "energy")))
}

func TestResolver_ConceptsNotReferencing(t *testing.T) {
	c1 := fixtures.NewConceptBuilder().WithName("Has").WithRefs("a1").MustBuild()
	c2 := fixtures.NewConceptBuilder().WithName("Lacks").MustBuild()
	r := NewResolver([]*entities.Concept{c1, c2}, nil)

	got := r.ConceptsNotReferencing("a1", "")
	require.Len(t, got, 1)
	assert.Equal(t, "Lacks", got[0].Name())
}

func TestIDSetOf(t *testing.T) {
	set := IDSetOf([]*entities.Annotation{
		fixtures.NewAnnotationBuilder().WithID("a1").MustBuild(),
	})
	assert.True(t, set.Contains("a1"))
	assert.False(t, set.Contains("a2"))
}
