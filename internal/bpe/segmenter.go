package bpe

import (
	"fmt"
	"iter"

	"github.com/dlclark/regexp2"
)

// Segmenter splits text into ordinary runs and special tokens and resolves
// each run to rank ids.
type Segmenter struct {
	split    *regexp2.Regexp
	ranks    *RankTable
	specials *SpecialTable
}

// NewSegmenter compiles the token-split pattern for a rank and special table.
func NewSegmenter(pattern string, ranks *RankTable, specials *SpecialTable) (*Segmenter, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("failed to compile split pattern: %w", err)
	}

	if specials == nil {
		specials, _ = NewSpecialTable(nil)
	}

	return &Segmenter{
		split:    re,
		ranks:    ranks,
		specials: specials,
	}, nil
}

// Segments yields one id batch per regex piece of text and one single-id
// batch per allowed special token, in input order.
//
// Special tokens not in allowed are encoded as ordinary text. The sequence is
// lazy and not restartable; ranging over it again re-runs the scan. An error
// is yielded as the final element.
func (s *Segmenter) Segments(text string, allowed map[string]struct{}) iter.Seq2[[]int, error] {
	return func(yield func([]int, error) bool) {
		runes := []rune(text)
		start := 0

		for {
			id, at, end, err := s.nextSpecial(runes, start, allowed)
			if err != nil {
				yield(nil, err)
				return
			}

			stop := len(runes)
			if at >= 0 {
				stop = at
			}

			if !s.encodeRun(runes[start:stop], yield) {
				return
			}

			if at < 0 {
				return
			}

			if !yield([]int{id}, nil) {
				return
			}
			start = end
		}
	}
}

// nextSpecial finds the leftmost allowed special token at or after start.
// A match that is not allowed does not end the search: scanning resumes one
// rune past its start so the literal is later encoded as ordinary text.
// It returns at == -1 when there is none.
func (s *Segmenter) nextSpecial(runes []rune, start int, allowed map[string]struct{}) (id, at, end int, err error) {
	re := s.specials.Pattern()
	if re == nil || len(allowed) == 0 {
		return 0, -1, -1, nil
	}

	for from := start; from <= len(runes); {
		m, err := re.FindRunesMatchStartingAt(runes, from)
		if err != nil {
			return 0, -1, -1, fmt.Errorf("failed to scan for special tokens: %w", err)
		}
		if m == nil {
			break
		}

		lit := m.String()
		if _, ok := allowed[lit]; ok {
			id, _ := s.specials.ID(lit)
			return id, m.Index, m.Index + m.Length, nil
		}
		from = m.Index + 1
	}

	return 0, -1, -1, nil
}

// encodeRun splits an ordinary run with the token-split pattern and yields
// the ids of every piece. It reports whether the consumer wants more.
func (s *Segmenter) encodeRun(run []rune, yield func([]int, error) bool) bool {
	if len(run) == 0 {
		return true
	}

	offset := 0
	m, err := s.split.FindRunesMatch(run)
	for ; m != nil && err == nil; m, err = s.split.FindNextMatch(m) {
		// Runes the pattern skips are kept as their own piece so decoding
		// always restores the input.
		if m.Index > offset {
			if !s.encodePiece(string(run[offset:m.Index]), yield) {
				return false
			}
		}

		if !s.encodePiece(m.String(), yield) {
			return false
		}
		offset = m.Index + m.Length
	}

	if err != nil {
		yield(nil, fmt.Errorf("failed to split text: %w", err))
		return false
	}

	if offset < len(run) {
		return s.encodePiece(string(run[offset:]), yield)
	}
	return true
}

func (s *Segmenter) encodePiece(piece string, yield func([]int, error) bool) bool {
	if piece == "" {
		return true
	}

	if rank, ok := s.ranks.GetString(piece); ok {
		return yield([]int{rank}, nil)
	}

	ids, err := BytePairEncode([]byte(piece), s.ranks)
	if err != nil {
		yield(nil, err)
		return false
	}
	return yield(ids, nil)
}

// Pieces yields the regex pieces of text without resolving them, ignoring
// special tokens.
func (s *Segmenter) Pieces(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		run := []rune(text)
		offset := 0
		m, _ := s.split.FindRunesMatch(run)
		for ; m != nil; m, _ = s.split.FindNextMatch(m) {
			if m.Index > offset && !yield(string(run[offset:m.Index])) {
				return
			}
			if !yield(m.String()) {
				return
			}
			offset = m.Index + m.Length
		}
		if offset < len(run) {
			yield(string(run[offset:]))
		}
	}
}

// Ranks returns the rank table the segmenter resolves pieces against.
func (s *Segmenter) Ranks() *RankTable {
	return s.ranks
}

// Specials returns the special token table.
func (s *Segmenter) Specials() *SpecialTable {
	return s.specials
}
