package textmatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFold_StripsDiacritics(t *testing.T) {
	require.Equal(t, "cafe", Fold("Café"))
}

func TestJaccard(t *testing.T) {
	a := Words("the great escape")
	b := Words("the great escape plan")
	require.InDelta(t, 0.75, Jaccard(a, b), 0.001)
}

func TestJaccard_EmptyIsZero(t *testing.T) {
	require.Equal(t, 0.0, Jaccard(Words(""), Words("anything")))
}
