package encoding

import (
	"errors"
	"fmt"

	"github.com/born-ml/gptok/internal/bpe"
)

// ChatFormat selects how a profile renders chat transcripts. It is fixed when
// the profile is built.
type ChatFormat int

// Chat formats.
const (
	// ChatFormatNone marks legacy schemes that have no chat envelope.
	ChatFormatNone ChatFormat = iota
	// ChatFormatClassic is <|im_start|>role<|im_sep|>content<|im_end|>.
	ChatFormatClassic
	// ChatFormatHarmony is <|start|>role<|channel|>...<|message|>content<|end|>.
	ChatFormatHarmony
)

// String returns the format name.
func (f ChatFormat) String() string {
	switch f {
	case ChatFormatClassic:
		return "classic"
	case ChatFormatHarmony:
		return "harmony"
	default:
		return "none"
	}
}

// Config is the input of NewProfile.
type Config struct {
	// Name identifies the scheme (e.g., "cl100k_base").
	Name string

	// Pattern is the token-split regular expression (regexp2 syntax).
	Pattern string

	// Ranks is the mergeable rank table.
	Ranks *bpe.RankTable

	// Specials maps reserved literals to ids outside the rank range.
	Specials map[string]int

	// ExpectedVocabSize, when positive, requires a dense id space of exactly
	// this many ranks plus specials.
	ExpectedVocabSize int

	// ChatFormat selects the chat envelope.
	ChatFormat ChatFormat
}

// Profile is the immutable configuration of one encoding scheme.
type Profile struct {
	name      string
	pattern   string
	ranks     *bpe.RankTable
	specials  *bpe.SpecialTable
	segmenter *bpe.Segmenter
	expected  int
	chat      ChatFormat
}

// NewProfile validates cfg and builds a profile.
//
// When cfg.ExpectedVocabSize is set, the rank and special counts must add up
// to it and the largest id must be ExpectedVocabSize-1. A violation returns an
// *IntegrityError and no profile.
func NewProfile(cfg Config) (*Profile, error) {
	if cfg.Ranks == nil {
		return nil, errors.New("encoding profile requires a rank table")
	}

	specials, err := bpe.NewSpecialTable(cfg.Specials)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", cfg.Name, err)
	}

	for _, lit := range specials.Literals() {
		id, _ := specials.ID(lit)
		if b, ok := cfg.Ranks.Bytes(id); ok {
			return nil, &IntegrityError{
				Encoding: cfg.Name,
				Details:  fmt.Sprintf("special token %q reuses id %d of rank entry %q", lit, id, b),
			}
		}
	}

	if err := checkVocabSize(cfg.Name, cfg.Ranks, specials, cfg.ExpectedVocabSize); err != nil {
		return nil, err
	}

	seg, err := bpe.NewSegmenter(cfg.Pattern, cfg.Ranks, specials)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", cfg.Name, err)
	}

	return &Profile{
		name:      cfg.Name,
		pattern:   cfg.Pattern,
		ranks:     cfg.Ranks,
		specials:  specials,
		segmenter: seg,
		expected:  cfg.ExpectedVocabSize,
		chat:      cfg.ChatFormat,
	}, nil
}

func checkVocabSize(name string, ranks *bpe.RankTable, specials *bpe.SpecialTable, expected int) error {
	if expected <= 0 {
		return nil
	}

	if got := ranks.Len() + specials.Len(); got != expected {
		return &IntegrityError{
			Encoding: name,
			Details: fmt.Sprintf("%d ranks + %d special tokens = %d, expected %d",
				ranks.Len(), specials.Len(), got, expected),
		}
	}

	if maxID := max(ranks.MaxRank(), specials.MaxID()); maxID != expected-1 {
		return &IntegrityError{
			Encoding: name,
			Details:  fmt.Sprintf("max token id %d, expected %d", maxID, expected-1),
		}
	}

	return nil
}

// Name returns the scheme name.
func (p *Profile) Name() string {
	return p.name
}

// Pattern returns the token-split regular expression.
func (p *Profile) Pattern() string {
	return p.pattern
}

// Ranks returns the rank table.
func (p *Profile) Ranks() *bpe.RankTable {
	return p.ranks
}

// Specials returns the special token table.
func (p *Profile) Specials() *bpe.SpecialTable {
	return p.specials
}

// Segmenter returns the segmenter bound to this profile's tables.
func (p *Profile) Segmenter() *bpe.Segmenter {
	return p.segmenter
}

// ExpectedVocabSize returns the declared vocabulary size, or 0.
func (p *Profile) ExpectedVocabSize() int {
	return p.expected
}

// ChatFormat returns the chat envelope kind.
func (p *Profile) ChatFormat() ChatFormat {
	return p.chat
}

// VocabSize returns one past the largest id, rank or special.
func (p *Profile) VocabSize() int {
	return max(p.ranks.MaxRank(), p.specials.MaxID()) + 1
}
