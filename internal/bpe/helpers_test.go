package bpe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// byteTable returns a table with all 256 single bytes at ranks 0..255 plus
// the given merged entries at ranks 256, 257, ...
func byteTable(t testing.TB, merged ...string) *RankTable {
	t.Helper()

	entries := make([][]byte, 0, 256+len(merged))
	for b := 0; b < 256; b++ {
		entries = append(entries, []byte{byte(b)})
	}
	for _, m := range merged {
		entries = append(entries, []byte(m))
	}

	table, err := NewRankTableFromSlice(entries)
	require.NoError(t, err)
	return table
}

func rankOf(t testing.TB, table *RankTable, s string) int {
	t.Helper()

	rank, ok := table.GetString(s)
	require.True(t, ok, "no rank for %q", s)
	return rank
}
