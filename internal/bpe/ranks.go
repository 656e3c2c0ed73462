package bpe

import (
	"fmt"
)

// MaxRank bounds rank values so the reverse index stays a dense slice.
const MaxRank = 1 << 24

// RankPair is one vocabulary entry: a raw byte sequence and its rank.
type RankPair struct {
	Bytes []byte
	Rank  int
}

// RankTable maps raw byte sequences to merge ranks.
//
// Keys are byte content, not decoded text. Vocabulary entries are routinely
// fragments of multi-byte code points and are not valid UTF-8 on their own,
// so the table never decodes them.
type RankTable struct {
	encoder map[string]int // raw bytes held in a string -> rank
	decoder [][]byte       // rank -> raw bytes, nil for gaps
	maxRank int
}

// NewRankTable builds a table from explicit (bytes, rank) pairs.
func NewRankTable(pairs []RankPair) (*RankTable, error) {
	t := &RankTable{
		encoder: make(map[string]int, len(pairs)),
		maxRank: -1,
	}

	for _, p := range pairs {
		if err := t.add(p.Bytes, p.Rank); err != nil {
			return nil, err
		}
	}

	return t.finish()
}

// NewRankTableFromSlice builds a table from a rank-indexed array: entries[i]
// holds the bytes of rank i, and a nil entry means the rank is unused.
func NewRankTableFromSlice(entries [][]byte) (*RankTable, error) {
	t := &RankTable{
		encoder: make(map[string]int, len(entries)),
		maxRank: -1,
	}

	for rank, b := range entries {
		if b == nil {
			continue
		}
		if err := t.add(b, rank); err != nil {
			return nil, err
		}
	}

	return t.finish()
}

// NewRankTableFromMap builds a table from the map shape produced by tiktoken
// rank loaders, where each string key holds raw bytes.
func NewRankTableFromMap(ranks map[string]int) (*RankTable, error) {
	t := &RankTable{
		encoder: make(map[string]int, len(ranks)),
		maxRank: -1,
	}

	for k, rank := range ranks {
		if err := t.add([]byte(k), rank); err != nil {
			return nil, err
		}
	}

	return t.finish()
}

func (t *RankTable) add(b []byte, rank int) error {
	if rank < 0 || rank >= MaxRank {
		return fmt.Errorf("%w: %d for %q", ErrInvalidRank, rank, b)
	}
	if len(b) == 0 {
		return fmt.Errorf("%w: empty byte sequence for rank %d", ErrInvalidRank, rank)
	}

	key := string(b)
	if prev, ok := t.encoder[key]; ok {
		return fmt.Errorf("%w: %q has ranks %d and %d", ErrDuplicateEntry, b, prev, rank)
	}

	t.encoder[key] = rank
	t.maxRank = max(t.maxRank, rank)
	return nil
}

// finish builds the reverse index and rejects two byte sequences sharing one
// rank, which the index would otherwise silently collapse.
func (t *RankTable) finish() (*RankTable, error) {
	t.decoder = make([][]byte, t.maxRank+1)
	for k, rank := range t.encoder {
		if prev := t.decoder[rank]; prev != nil {
			return nil, fmt.Errorf("%w: rank %d used by %q and %q", ErrDuplicateEntry, rank, prev, k)
		}
		t.decoder[rank] = []byte(k)
	}
	return t, nil
}

// Get returns the rank of b.
func (t *RankTable) Get(b []byte) (int, bool) {
	rank, ok := t.encoder[string(b)]
	return rank, ok
}

// GetString returns the rank of the raw bytes held in s.
func (t *RankTable) GetString(s string) (int, bool) {
	rank, ok := t.encoder[s]
	return rank, ok
}

// MustResolve returns the rank of b, or an *UnresolvableError.
func (t *RankTable) MustResolve(b []byte) (int, error) {
	if rank, ok := t.encoder[string(b)]; ok {
		return rank, nil
	}
	return 0, &UnresolvableError{Bytes: append([]byte(nil), b...)}
}

// Has reports whether b is a vocabulary entry.
func (t *RankTable) Has(b []byte) bool {
	_, ok := t.encoder[string(b)]
	return ok
}

// Bytes returns the byte sequence of rank. The slice is shared and must not be
// modified.
func (t *RankTable) Bytes(rank int) ([]byte, bool) {
	if rank < 0 || rank >= len(t.decoder) {
		return nil, false
	}
	b := t.decoder[rank]
	return b, b != nil
}

// Len returns the number of entries.
func (t *RankTable) Len() int {
	return len(t.encoder)
}

// MaxRank returns the largest rank, or -1 for an empty table.
func (t *RankTable) MaxRank() int {
	return t.maxRank
}
