package bpe

import (
	"cmp"

	heap "github.com/emirpasic/gods/v2/trees/binaryheap"
)

// candidate is a pending merge of the span [start, end). It is stale once the
// boundary at start is gone or the span it starts no longer ends at end.
type candidate struct {
	rank  int
	start int
	end   int
}

// mergeHeap produces the same boundaries as mergeQuadratic in O(n log n).
//
// Candidates are ordered by (rank, start). The lowest rank is the global
// minimum of the quadratic scan and, since start offsets grow left to right,
// the lowest start among equal ranks is its leftmost winner.
func mergeHeap(piece []byte, ranks *RankTable) []int {
	n := len(piece)

	// Boundaries are byte offsets 0..n. next/prev link the live ones; n is
	// the terminal boundary and never merges away.
	next := make([]int, n+1)
	prev := make([]int, n+1)
	alive := make([]bool, n+1)
	for i := 0; i <= n; i++ {
		next[i] = i + 1
		prev[i] = i - 1
		alive[i] = true
	}

	pending := heap.NewWith(func(a, b candidate) int {
		if c := cmp.Compare(a.rank, b.rank); c != 0 {
			return c
		}
		return cmp.Compare(a.start, b.start)
	})

	// push queues the span starting at boundary i that covers two parts.
	push := func(i int) {
		if i < 0 || i >= n {
			return
		}
		mid := next[i]
		if mid >= n {
			return
		}
		end := next[mid]
		if rank, ok := ranks.Get(piece[i:end]); ok {
			pending.Push(candidate{rank: rank, start: i, end: end})
		}
	}

	for i := 0; i < n-1; i++ {
		push(i)
	}

	for !pending.Empty() {
		c, _ := pending.Pop()
		if !alive[c.start] || next[c.start] >= n || next[next[c.start]] != c.end {
			continue
		}

		// Drop the boundary between the two parts.
		mid := next[c.start]
		alive[mid] = false
		next[c.start] = c.end
		prev[c.end] = c.start

		push(c.start)
		push(prev[c.start])
	}

	bounds := make([]int, 0, n+1)
	for i := 0; i <= n; i = next[i] {
		bounds = append(bounds, i)
	}
	return bounds
}
