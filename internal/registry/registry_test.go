package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssign_Idempotent(t *testing.T) {
	r := New()
	first := r.Assign('あ')
	require.Equal(t, 0, first)
	require.Equal(t, 1, r.Size())

	second := r.Assign('あ')
	require.Equal(t, first, second)
	require.Equal(t, 1, r.Size())
}

func TestAssign_DenseFirstSeen(t *testing.T) {
	r := New()
	seq := []rune{'カ', 'あ', 'カ', 'ん', 'あ', 'ア'}
	var got []int
	for _, ch := range seq {
		got = append(got, r.Assign(ch))
	}
	assert.Equal(t, []int{0, 1, 0, 2, 1, 3}, got)
	assert.Equal(t, []rune{'カ', 'あ', 'ん', 'ア'}, r.Characters())

	for id := 0; id < r.Size(); id++ {
		ch, ok := r.CharacterOf(id)
		require.True(t, ok)
		back, ok := r.IDOf(ch)
		require.True(t, ok)
		require.Equal(t, id, back)
	}
}

func TestLookups_Missing(t *testing.T) {
	r := New()
	r.Assign('あ')

	_, ok := r.IDOf('い')
	assert.False(t, ok)
	_, ok = r.CharacterOf(1)
	assert.False(t, ok)
	_, ok = r.CharacterOf(-1)
	assert.False(t, ok)
}

func TestReplay_Deterministic(t *testing.T) {
	seq := []rune("あいうえおあいカキ")
	a, b := New(), New()
	for _, ch := range seq {
		require.Equal(t, a.Assign(ch), b.Assign(ch))
	}
	require.Equal(t, a.Characters(), b.Characters())
}
