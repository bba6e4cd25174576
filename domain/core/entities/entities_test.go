package entities

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

func validDraft() AnnotationDraft {
	return AnnotationDraft{
		DocumentID:     "doc-1",
		HighlightAreas: valueobjects.HighlightAreas{{PageIndex: 0, Top: 10, Left: 10, Width: 50, Height: 2}},
		Quote:          "the quick brown fox",
		Comment:        "classic pangram",
	}
}

func TestAnnotationDraft_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AnnotationDraft)
		cfg     func(*config.DomainConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*AnnotationDraft) {}},
		{name: "missing document", mutate: func(d *AnnotationDraft) { d.DocumentID = "" }, wantErr: "document id cannot be empty"},
		{name: "no areas", mutate: func(d *AnnotationDraft) { d.HighlightAreas = nil }, wantErr: "at least one highlight area"},
		{name: "negative page", mutate: func(d *AnnotationDraft) { d.HighlightAreas[0].PageIndex = -1 }, wantErr: "page index cannot be negative"},
		{name: "negative size", mutate: func(d *AnnotationDraft) { d.HighlightAreas[0].Width = -1 }, wantErr: "negative size"},
		{name: "blank comment", mutate: func(d *AnnotationDraft) { d.Comment = "  " }, wantErr: "comment cannot be empty"},
		{
			name:   "blank comment allowed by policy",
			mutate: func(d *AnnotationDraft) { d.Comment = "" },
			cfg:    func(c *config.DomainConfig) { c.AllowBareHighlights = true },
		},
		{
			name:    "quote too long",
			mutate:  func(d *AnnotationDraft) { d.Quote = strings.Repeat("q", 11) },
			cfg:     func(c *config.DomainConfig) { c.MaxQuoteLength = 10 },
			wantErr: "quote exceeds maximum length of 10",
		},
		{
			name:    "too many areas",
			mutate:  func(d *AnnotationDraft) { d.HighlightAreas = append(d.HighlightAreas, d.HighlightAreas[0]) },
			cfg:     func(c *config.DomainConfig) { c.MaxHighlightAreas = 1 },
			wantErr: "at most 1 highlight areas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(&draft)
			cfg := config.DefaultDomainConfig()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}

			err := draft.Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAnnotation_WithCommentReturnsNewRecord(t *testing.T) {
	original, err := NewAnnotation(validDraft(), nil)
	require.NoError(t, err)
	require.Len(t, original.GetUncommittedEvents(), 1)

	edited, err := original.WithComment("revised", nil)
	require.NoError(t, err)

	assert.Equal(t, "classic pangram", original.Comment())
	assert.Equal(t, "revised", edited.Comment())
	assert.Equal(t, original.ID(), edited.ID())
	require.Len(t, edited.GetUncommittedEvents(), 1)
	assert.Equal(t, "annotation.comment_updated", edited.GetUncommittedEvents()[0].GetEventType())

	_, err = original.WithComment(" ", nil)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestAnnotation_Matches(t *testing.T) {
	draft := validDraft()
	draft.Tag = "🦊"
	a, err := NewAnnotation(draft, nil)
	require.NoError(t, err)

	assert.True(t, a.Matches(""))
	assert.True(t, a.Matches("QUICK"))
	assert.True(t, a.Matches("pangram"))
	assert.True(t, a.Matches("🦊"))
	assert.False(t, a.Matches("lazy dog"))
	assert.True(t, a.Matches("quick brown"))
	assert.False(t, a.Matches(" fox "), "surrounding whitespace is part of the term")

	bare, err := ReconstructAnnotation("a-2", "doc-1", draft.HighlightAreas, "single", "word", "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.False(t, bare.Matches(" "))
}

func TestConcept_NeverLinksToItself(t *testing.T) {
	c, err := NewConcept("Transformer", "", nil)
	require.NoError(t, err)

	_, err = c.LinkTo(c.ID(), nil)
	assert.ErrorIs(t, err, pkgerrors.ErrSelfLink)

	added, err := c.LinkTo("other", nil)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = c.LinkTo("other", nil)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []valueobjects.ConceptID{"other"}, c.LinkedConcepts())

	c.ReplaceLinks([]valueobjects.ConceptID{c.ID(), "x", "x", "y"})
	assert.Equal(t, []valueobjects.ConceptID{"x", "y"}, c.LinkedConcepts())
}

func TestReconstructConcept_DropsDuplicatesAndSelf(t *testing.T) {
	c, err := ReconstructConcept("c1", " Attention ", "",
		[]valueobjects.AnnotationID{"a1", "a1", "", "a2"},
		[]valueobjects.ConceptID{"c1", "c2", "c2"},
		time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "Attention", c.Name())
	assert.Equal(t, "attention", c.NameKey())
	assert.Equal(t, []valueobjects.AnnotationID{"a1", "a2"}, c.AnnotationRefs())
	assert.Equal(t, []valueobjects.ConceptID{"c2"}, c.LinkedConcepts())
}

func TestConcept_AnnotationRefs(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxAnnotationRefs = 2
	c, err := NewConcept("Gradient", "", cfg)
	require.NoError(t, err)

	added, err := c.AddAnnotationRef("a1", cfg)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = c.AddAnnotationRef("a1", cfg)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = c.AddAnnotationRef("a2", cfg)
	require.NoError(t, err)
	_, err = c.AddAnnotationRef("a3", cfg)
	assert.ErrorIs(t, err, pkgerrors.ErrTooManyAnnotationRefs)

	removed := c.RemoveAnnotationRefs(map[valueobjects.AnnotationID]bool{"a1": true, "zz": true})
	assert.Equal(t, 1, removed)
	assert.Equal(t, []valueobjects.AnnotationID{"a2"}, c.AnnotationRefs())

	refs := c.AnnotationRefs()
	refs[0] = "mutated"
	assert.True(t, c.HasAnnotationRef("a2"))
}

func TestConcept_CloneIsIndependent(t *testing.T) {
	c, err := NewConcept("Loss", "", nil)
	require.NoError(t, err)
	_, _ = c.AddAnnotationRef("a1", nil)

	clone := c.Clone()
	_, _ = clone.AddAnnotationRef("a2", nil)

	assert.Equal(t, []valueobjects.AnnotationID{"a1"}, c.AnnotationRefs())
	assert.Empty(t, clone.GetUncommittedEvents())
}

func TestNewDocument(t *testing.T) {
	doc, err := NewDocument("papers/Attention.Is.All.pdf", "", "blob/1.pdf", 1024, nil)
	require.NoError(t, err)

	assert.Equal(t, "Attention.Is.All", doc.Name())
	assert.Equal(t, "application/pdf", doc.ContentType())
	assert.Equal(t, "Attention.Is.All.pdf", doc.Metadata()["original_filename"])
	assert.Equal(t, "1024", doc.Metadata()["size"])

	_, err = NewDocument(".pdf", "", "blob/2.pdf", 1, nil)
	assert.True(t, pkgerrors.IsValidation(err))

	require.NoError(t, doc.Rename("  Attention  ", nil))
	assert.Equal(t, "Attention", doc.Name())
	assert.Len(t, doc.GetUncommittedEvents(), 2)
}

func TestLink(t *testing.T) {
	_, err := NewLink("a", "a")
	assert.ErrorIs(t, err, pkgerrors.ErrSelfLink)

	l, err := NewLink("a", "b")
	require.NoError(t, err)
	assert.True(t, l.Connects("b", "a"))
	assert.Equal(t, valueobjects.ConceptID("a"), l.Other("b"))
	assert.False(t, l.Touches("c"))
}
