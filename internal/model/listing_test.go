package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListingSetTrimsAndDedups(t *testing.T) {
	set := NewListingSet([]string{"  Engineer A ", "Engineer A", "", "   ", "Engineer B\n"})

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("Engineer A"))
	assert.True(t, set.Contains("Engineer B"))
}

func TestListingSetEqualIgnoresOrder(t *testing.T) {
	a := NewListingSet([]string{"Engineer B", "Engineer A"})
	b := NewListingSet([]string{"Engineer A", "Engineer B", "Engineer A"})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(SetOf("Engineer A")))
	assert.False(t, a.Equal(SetOf("Engineer A", "Engineer C")))
}

func TestListingSetMinus(t *testing.T) {
	current := SetOf("Engineer A", "Engineer C")
	prior := SetOf("Engineer A", "Engineer B")

	assert.Equal(t, []Listing{"Engineer C"}, current.Minus(prior).Sorted())
	assert.Equal(t, []Listing{"Engineer B"}, prior.Minus(current).Sorted())
	assert.Zero(t, SetOf("Engineer A").Minus(prior).Len())
}

func TestTagSortsChronologically(t *testing.T) {
	earlier := time.Date(2026, 9, 30, 23, 59, 59, 0, time.UTC)
	later := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	assert.Less(t, TagFor(earlier), TagFor(later))

	parsed, err := ParseTag(TagFor(later))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(later))
}
