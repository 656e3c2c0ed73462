package bpe

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
)

// SpecialTable maps reserved literals such as "<|endoftext|>" to their ids.
//
// Special ids live in the same numeric space as rank table ranks but never
// collide with them; the encoding profile checks that.
type SpecialTable struct {
	encoder  map[string]int
	decoder  map[int]string
	literals []string // sorted
	pattern  *regexp2.Regexp
}

// NewSpecialTable builds a table from literal -> id. Two literals may not
// share an id.
func NewSpecialTable(specials map[string]int) (*SpecialTable, error) {
	t := &SpecialTable{
		encoder:  make(map[string]int, len(specials)),
		decoder:  make(map[int]string, len(specials)),
		literals: make([]string, 0, len(specials)),
	}

	for lit, id := range specials {
		if lit == "" {
			return nil, fmt.Errorf("%w: empty special token literal for id %d", ErrInvalidRank, id)
		}
		if id < 0 {
			return nil, fmt.Errorf("%w: %d for special token %q", ErrInvalidRank, id, lit)
		}
		if prev, ok := t.decoder[id]; ok {
			return nil, fmt.Errorf("%w: special tokens %q and %q share id %d", ErrDuplicateEntry, prev, lit, id)
		}
		t.encoder[lit] = id
		t.decoder[id] = lit
		t.literals = append(t.literals, lit)
	}
	slices.Sort(t.literals)

	if len(t.literals) > 0 {
		re, err := regexp2.Compile(alternation(t.literals), regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("failed to compile special token pattern: %w", err)
		}
		t.pattern = re
	}

	return t, nil
}

// alternation joins escaped literals longest first, so a literal that is a
// prefix of another never wins the backtracking alternation.
func alternation(literals []string) string {
	ordered := slices.Clone(literals)
	slices.SortStableFunc(ordered, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})

	escaped := make([]string, len(ordered))
	for i, lit := range ordered {
		escaped[i] = regexp2.Escape(lit)
	}
	return strings.Join(escaped, "|")
}

// ID returns the id of a special literal.
func (t *SpecialTable) ID(literal string) (int, bool) {
	id, ok := t.encoder[literal]
	return id, ok
}

// Literal returns the literal reserved for id.
func (t *SpecialTable) Literal(id int) (string, bool) {
	lit, ok := t.decoder[id]
	return lit, ok
}

// Has reports whether literal is a special token.
func (t *SpecialTable) Has(literal string) bool {
	_, ok := t.encoder[literal]
	return ok
}

// Literals returns all literals in sorted order. The slice is shared.
func (t *SpecialTable) Literals() []string {
	return t.literals
}

// Len returns the number of special tokens.
func (t *SpecialTable) Len() int {
	return len(t.encoder)
}

// MaxID returns the largest special id, or -1 for an empty table.
func (t *SpecialTable) MaxID() int {
	maxID := -1
	for id := range t.decoder {
		maxID = max(maxID, id)
	}
	return maxID
}

// Pattern returns the compiled alternation of all literals, or nil when the
// table is empty.
func (t *SpecialTable) Pattern() *regexp2.Regexp {
	return t.pattern
}

// Scan yields every special literal found in text, left
// to right. A match does not hide literals starting inside it.
func (t *SpecialTable) Scan(text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if t.pattern == nil {
			return
		}

		runes := []rune(text)
		for from := 0; from <= len(runes); {
			m, err := t.pattern.FindRunesMatchStartingAt(runes, from)
			if err != nil {
				yield("", fmt.Errorf("failed to scan for special tokens: %w", err))
				return
			}
			if m == nil {
				return
			}
			if !yield(m.String(), nil) {
				return
			}
			from = m.Index + 1
		}
	}
}
