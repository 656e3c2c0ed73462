package bpe

import (
	"math"
)

// LargeRunThreshold is the run length from which BytePairEncode switches to
// the heap-ordered merge. Both paths produce identical output.
const LargeRunThreshold = 500

const noRank = math.MaxInt

// part is one boundary of a run: the start offset of the span beginning here
// and the rank of the span covering this part and the next one.
type part struct {
	start int
	rank  int
}

// BytePairEncode merges one pre-split byte run into rank ids.
//
// The merge is greedy: the adjacent pair whose concatenation has the lowest
// rank is merged first, and on equal ranks the leftmost pair wins. The
// tie-break is observable in the output and must not change.
func BytePairEncode(piece []byte, ranks *RankTable) ([]int, error) {
	if len(piece) == 1 {
		rank, err := ranks.MustResolve(piece)
		if err != nil {
			return nil, err
		}
		return []int{rank}, nil
	}

	bounds := bytePairBounds(piece, ranks)

	out := make([]int, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		rank, err := ranks.MustResolve(piece[bounds[i]:bounds[i+1]])
		if err != nil {
			return nil, err
		}
		out = append(out, rank)
	}
	return out, nil
}

// BytePairSplit is BytePairEncode returning the merged byte spans instead of
// their ranks. The spans alias piece.
func BytePairSplit(piece []byte, ranks *RankTable) [][]byte {
	if len(piece) == 0 {
		return nil
	}
	if len(piece) == 1 {
		return [][]byte{piece}
	}

	bounds := bytePairBounds(piece, ranks)
	out := make([][]byte, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		out = append(out, piece[bounds[i]:bounds[i+1]])
	}
	return out
}

// bytePairBounds returns the final span boundaries of piece, including the
// terminal offset len(piece).
func bytePairBounds(piece []byte, ranks *RankTable) []int {
	if len(piece) >= LargeRunThreshold {
		return mergeHeap(piece, ranks)
	}

	parts := mergeQuadratic(piece, ranks)
	bounds := make([]int, len(parts))
	for i, p := range parts {
		bounds[i] = p.start
	}
	return bounds
}

// mergeQuadratic is the reference merge: a linear min scan per merge, O(n²)
// in the run length.
func mergeQuadratic(piece []byte, ranks *RankTable) []part {
	parts := make([]part, len(piece)+1)
	for i := range parts {
		parts[i] = part{start: i, rank: noRank}
	}

	// getRank returns the rank of the span from parts[i] to parts[i+skip+2],
	// i.e. the span that would exist after skip more merges at i.
	getRank := func(i, skip int) int {
		if i+skip+2 < len(parts) {
			if rank, ok := ranks.Get(piece[parts[i].start:parts[i+skip+2].start]); ok {
				return rank
			}
		}
		return noRank
	}

	for i := 0; i < len(parts)-2; i++ {
		parts[i].rank = getRank(i, 0)
	}

	for len(parts) > 1 {
		minRank, minIdx := noRank, -1
		for i := 0; i < len(parts)-1; i++ {
			// Strict < keeps the leftmost boundary on ties.
			if parts[i].rank < minRank {
				minRank, minIdx = parts[i].rank, i
			}
		}

		if minRank == noRank {
			break
		}

		i := minIdx
		parts[i].rank = getRank(i, 1)
		if i > 0 {
			parts[i-1].rank = getRank(i-1, 1)
		}
		parts = append(parts[:i+1], parts[i+2:]...)
	}

	return parts
}
