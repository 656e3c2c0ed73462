package bpe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankTable_Constructors(t *testing.T) {
	fromPairs, err := NewRankTable([]RankPair{
		{Bytes: []byte("a"), Rank: 0},
		{Bytes: []byte("b"), Rank: 1},
		{Bytes: []byte("ab"), Rank: 2},
	})
	require.NoError(t, err)

	fromSlice, err := NewRankTableFromSlice([][]byte{[]byte("a"), []byte("b"), []byte("ab")})
	require.NoError(t, err)

	fromMap, err := NewRankTableFromMap(map[string]int{"a": 0, "b": 1, "ab": 2})
	require.NoError(t, err)

	for name, table := range map[string]*RankTable{"pairs": fromPairs, "slice": fromSlice, "map": fromMap} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 3, table.Len())
			assert.Equal(t, 2, table.MaxRank())

			rank, ok := table.Get([]byte("ab"))
			assert.True(t, ok)
			assert.Equal(t, 2, rank)

			b, ok := table.Bytes(1)
			assert.True(t, ok)
			assert.Equal(t, []byte("b"), b)
		})
	}
}

func TestRankTable_SparseSlice(t *testing.T) {
	table, err := NewRankTableFromSlice([][]byte{[]byte("a"), nil, []byte("c")})
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 2, table.MaxRank())

	_, ok := table.Bytes(1)
	assert.False(t, ok)

	_, ok = table.Bytes(99)
	assert.False(t, ok)

	_, ok = table.Bytes(-1)
	assert.False(t, ok)
}

func TestRankTable_ByteKeys(t *testing.T) {
	// The two halves of "é" (0xC3 0xA9) are vocabulary entries on their own
	// even though neither is valid UTF-8.
	table, err := NewRankTable([]RankPair{
		{Bytes: []byte{0xC3}, Rank: 0},
		{Bytes: []byte{0xA9}, Rank: 1},
		{Bytes: []byte("é"), Rank: 2},
	})
	require.NoError(t, err)

	rank, ok := table.Get([]byte{0xC3})
	require.True(t, ok)
	assert.Equal(t, 0, rank)

	assert.True(t, table.Has([]byte{0xC3, 0xA9}))
	assert.False(t, table.Has([]byte{0xA9, 0xC3}))
}

func TestRankTable_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		pairs []RankPair
		want  error
	}{
		{
			name:  "duplicate bytes",
			pairs: []RankPair{{Bytes: []byte("a"), Rank: 0}, {Bytes: []byte("a"), Rank: 1}},
			want:  ErrDuplicateEntry,
		},
		{
			name:  "duplicate rank",
			pairs: []RankPair{{Bytes: []byte("a"), Rank: 0}, {Bytes: []byte("b"), Rank: 0}},
			want:  ErrDuplicateEntry,
		},
		{
			name:  "negative rank",
			pairs: []RankPair{{Bytes: []byte("a"), Rank: -1}},
			want:  ErrInvalidRank,
		},
		{
			name:  "empty bytes",
			pairs: []RankPair{{Bytes: nil, Rank: 0}},
			want:  ErrInvalidRank,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewRankTable(tt.pairs)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, table)
		})
	}
}

func TestRankTable_MustResolve(t *testing.T) {
	table := byteTable(t, "ab")

	rank, err := table.MustResolve([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 256, rank)

	_, err = table.MustResolve([]byte("abc"))
	require.ErrorIs(t, err, ErrUnresolvableBytes)

	var unresolvable *UnresolvableError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, []byte("abc"), unresolvable.Bytes)
}

func TestSpecialTable(t *testing.T) {
	specials, err := NewSpecialTable(map[string]int{
		"<|endoftext|>": 300,
		"<|end|>":       301,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, specials.Len())
	assert.Equal(t, 301, specials.MaxID())
	// Byte order: 'o' sorts before '|'.
	assert.Equal(t, []string{"<|endoftext|>", "<|end|>"}, specials.Literals())

	id, ok := specials.ID("<|end|>")
	assert.True(t, ok)
	assert.Equal(t, 301, id)

	lit, ok := specials.Literal(300)
	assert.True(t, ok)
	assert.Equal(t, "<|endoftext|>", lit)

	m, err := specials.Pattern().FindStringMatch("x <|endoftext|> y")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "<|endoftext|>", m.String())
}

func TestSpecialTable_Invalid(t *testing.T) {
	_, err := NewSpecialTable(map[string]int{"<|a|>": 1, "<|b|>": 1})
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	_, err = NewSpecialTable(map[string]int{"": 1})
	assert.ErrorIs(t, err, ErrInvalidRank)

	empty, err := NewSpecialTable(nil)
	require.NoError(t, err)
	assert.Nil(t, empty.Pattern())
	assert.Equal(t, -1, empty.MaxID())
}

func TestSpecialTable_LongestLiteralWins(t *testing.T) {
	specials, err := NewSpecialTable(map[string]int{"ab": 1, "abc": 2})
	require.NoError(t, err)

	m, err := specials.Pattern().FindStringMatch("xabcx")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "abc", m.String())
}

func TestSpecialTable_Scan(t *testing.T) {
	specials, err := NewSpecialTable(map[string]int{"<|a|>": 1, "<|b|>": 2})
	require.NoError(t, err)

	var found []string
	for lit, err := range specials.Scan("x<|b|>y<|a|><|b|>é") {
		require.NoError(t, err)
		found = append(found, lit)
	}
	assert.Equal(t, []string{"<|b|>", "<|a|>", "<|b|>"}, found)

	empty, err := NewSpecialTable(nil)
	require.NoError(t, err)
	for range empty.Scan("<|a|>") {
		t.Fatal("empty table matched")
	}
}
