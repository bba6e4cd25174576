package valueobjects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whikwon/nexusnote/domain/config"
)

func TestConceptName(t *testing.T) {
	name, err := NewConceptName("  Self Attention ")
	require.NoError(t, err)
	assert.Equal(t, "Self Attention", name.String())
	assert.Equal(t, "self attention", name.Key())

	other, err := NewConceptName("SELF ATTENTION")
	require.NoError(t, err)
	assert.True(t, name.Equals(other))

	_, err = NewConceptName("   ")
	assert.Error(t, err)

	cfg := config.DefaultDomainConfig()
	cfg.MaxConceptNameLength = 5
	_, err = NewConceptNameWithConfig("概念概念概", cfg)
	assert.NoError(t, err, "length counts runes")
	_, err = NewConceptNameWithConfig(strings.Repeat("x", 6), cfg)
	assert.Error(t, err)

	assert.True(t, ConceptName{}.IsEmpty())
}

func TestHighlightAreas_Pages(t *testing.T) {
	areas := HighlightAreas{
		{PageIndex: 3}, {PageIndex: 1}, {PageIndex: 3}, {PageIndex: 0},
	}
	assert.Equal(t, []int{3, 1, 0}, areas.Pages())

	clone := areas.Clone()
	clone[0].PageIndex = 9
	assert.Equal(t, 3, areas[0].PageIndex)
}

func TestHighlightArea_Validate(t *testing.T) {
	assert.NoError(t, HighlightArea{PageIndex: 0, Width: 0, Height: 0}.Validate())
	assert.Error(t, HighlightArea{PageIndex: -1}.Validate())
	assert.Error(t, HighlightArea{Height: -0.1}.Validate())
	assert.Error(t, HighlightArea{Top: -2}.Validate())
}

func TestIDs(t *testing.T) {
	a, b := NewConceptID(), NewConceptID()
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
	assert.True(t, DocumentID("").IsZero())
	assert.Equal(t, "x", AnnotationID("x").String())
}
