package wordtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
)

func TestBuild(t *testing.T) {
	tbl, err := Build([]string{"sting", "art", "starting", "art", "", "in"})
	require.NoError(t, err)

	assert.Equal(t, 4, tbl.Len())
	assert.True(t, tbl.Contains("sting"))
	assert.True(t, tbl.Contains("in"))
	assert.False(t, tbl.Contains(""))
	assert.False(t, tbl.Contains("stg"))

	assert.Equal(t, []int{2, 3, 5, 8}, tbl.Lengths())
	assert.Equal(t, []string{"art"}, tbl.OfLength(3))
	assert.Nil(t, tbl.OfLength(4))
	assert.True(t, tbl.HasLength(5))
	assert.False(t, tbl.HasLength(4))
	assert.Equal(t, 8, tbl.MaxLength())
	assert.Equal(t, []string{"in", "art", "sting", "starting"}, tbl.Words())
}

func TestBuildEmpty(t *testing.T) {
	for _, words := range [][]string{nil, {}, {"", ""}} {
		_, err := Build(words)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCorpus)
	}
}

func TestBuildKeepsCase(t *testing.T) {
	tbl, err := Build([]string{"A", "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.Contains("A"))
	assert.True(t, tbl.Contains("a"))
}

func TestLengthsAreRunes(t *testing.T) {
	tbl, err := Build([]string{"æb", "ab"})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, tbl.Lengths())
	assert.ElementsMatch(t, []string{"ab", "æb"}, tbl.OfLength(2))
}

func TestOccurrences(t *testing.T) {
	tbl, err := Build([]string{"an", "ban", "banana", "na", "nan"})
	require.NoError(t, err)

	got := tbl.Occurrences("banana")
	want := []Occurrence{
		{Word: "an", Offset: 1, Length: 2},
		{Word: "an", Offset: 3, Length: 2},
		{Word: "na", Offset: 2, Length: 2},
		{Word: "na", Offset: 4, Length: 2},
		{Word: "ban", Offset: 0, Length: 3},
		{Word: "nan", Offset: 2, Length: 3},
		{Word: "banana", Offset: 0, Length: 6},
	}
	assert.Equal(t, want, got)
}

func TestOccurrencesNone(t *testing.T) {
	tbl, err := Build([]string{"xyz"})
	require.NoError(t, err)
	assert.Empty(t, tbl.Occurrences("abc"))
}
