package encoding

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/born-ml/gptok/internal/bpe"
)

// Scheme names.
const (
	R50kBase     = "r50k_base"
	P50kBase     = "p50k_base"
	P50kEdit     = "p50k_edit"
	Cl100kBase   = "cl100k_base"
	O200kBase    = "o200k_base"
	O200kHarmony = "o200k_harmony"

	// GPT2 is an alias of R50kBase.
	GPT2 = "gpt2"
)

// Special token literals.
const (
	EndOfText   = "<|endoftext|>"
	StartOfText = "<|startoftext|>"
	FimPrefix   = "<|fim_prefix|>"
	FimMiddle   = "<|fim_middle|>"
	FimSuffix   = "<|fim_suffix|>"
	ImStart     = "<|im_start|>"
	ImEnd       = "<|im_end|>"
	ImSep       = "<|im_sep|>"
	EndOfPrompt = "<|endofprompt|>"

	Start     = "<|start|>"
	End       = "<|end|>"
	Message   = "<|message|>"
	Channel   = "<|channel|>"
	Constrain = "<|constrain|>"
	Return    = "<|return|>"
	Call      = "<|call|>"
)

const rankFileBase = "https://openaipublic.blob.core.windows.net/encodings/"

// Split patterns by generation.
const (
	patternLegacy = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`
	patternCl100k = `(?i:'s|'t|'re|'ve|'m|'ll|'d)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`
)

var patternO200k = strings.Join([]string{
	`[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]*[\p{Ll}\p{Lm}\p{Lo}\p{M}]+(?i:'s|'t|'re|'ve|'m|'ll|'d)?`,
	`[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]+[\p{Ll}\p{Lm}\p{Lo}\p{M}]*(?i:'s|'t|'re|'ve|'m|'ll|'d)?`,
	`\p{N}{1,3}`,
	` ?[^\s\p{L}\p{N}]+[\r\n/]*`,
	`\s*[\r\n]+`,
	`\s+(?!\S)`,
	`\s+`,
}, "|")

// Harmony reserves a contiguous id block after the o200k ranks. Ids in it
// without a named token are <|reserved_N|>.
const (
	harmonyReservedFirst = 200000
	harmonyReservedLast  = 201087
)

// Scheme is the static definition of an encoding scheme. RankFile names the
// rank data a RankLoader resolves; schemes sharing a RankFile share one table.
type Scheme struct {
	Name              string
	RankFile          string
	Pattern           string
	Specials          map[string]int
	ExpectedVocabSize int
	ChatFormat        ChatFormat
}

// Config returns the profile configuration for this scheme over ranks.
func (s Scheme) Config(ranks *bpe.RankTable) Config {
	return Config{
		Name:              s.Name,
		Pattern:           s.Pattern,
		Ranks:             ranks,
		Specials:          maps.Clone(s.Specials),
		ExpectedVocabSize: s.ExpectedVocabSize,
		ChatFormat:        s.ChatFormat,
	}
}

var schemes = map[string]Scheme{
	R50kBase: {
		Name:              R50kBase,
		RankFile:          rankFileBase + "r50k_base.tiktoken",
		Pattern:           patternLegacy,
		Specials:          map[string]int{EndOfText: 50256},
		ExpectedVocabSize: 50257,
	},
	P50kBase: {
		Name:              P50kBase,
		RankFile:          rankFileBase + "p50k_base.tiktoken",
		Pattern:           patternLegacy,
		Specials:          map[string]int{EndOfText: 50256},
		ExpectedVocabSize: 50281,
	},
	P50kEdit: {
		Name:     P50kEdit,
		RankFile: rankFileBase + "p50k_base.tiktoken",
		Pattern:  patternLegacy,
		Specials: map[string]int{
			EndOfText: 50256,
			FimPrefix: 50281,
			FimMiddle: 50282,
			FimSuffix: 50283,
		},
	},
	Cl100kBase: {
		Name:     Cl100kBase,
		RankFile: rankFileBase + "cl100k_base.tiktoken",
		Pattern:  patternCl100k,
		Specials: map[string]int{
			EndOfText:   100257,
			FimPrefix:   100258,
			FimMiddle:   100259,
			FimSuffix:   100260,
			ImStart:     100264,
			ImEnd:       100265,
			ImSep:       100266,
			EndOfPrompt: 100276,
		},
		ChatFormat: ChatFormatClassic,
	},
	O200kBase: {
		Name:     O200kBase,
		RankFile: rankFileBase + "o200k_base.tiktoken",
		Pattern:  patternO200k,
		Specials: map[string]int{
			EndOfText:   199999,
			EndOfPrompt: 200018,
			ImStart:     200264,
			ImEnd:       200265,
			ImSep:       200266,
		},
		ChatFormat: ChatFormatClassic,
	},
	O200kHarmony: {
		Name:              O200kHarmony,
		RankFile:          rankFileBase + "o200k_base.tiktoken",
		Pattern:           patternO200k,
		Specials:          harmonySpecials(),
		ExpectedVocabSize: harmonyReservedLast + 1,
		ChatFormat:        ChatFormatHarmony,
	},
}

var aliases = map[string]string{
	GPT2: R50kBase,
}

func harmonySpecials() map[string]int {
	named := map[string]int{
		StartOfText: 199998,
		EndOfText:   199999,
		Return:      200002,
		Constrain:   200003,
		Channel:     200005,
		Start:       200006,
		End:         200007,
		Message:     200008,
		Call:        200012,
	}

	taken := make(map[int]bool, len(named))
	for _, id := range named {
		taken[id] = true
	}

	out := maps.Clone(named)
	for id := harmonyReservedFirst; id <= harmonyReservedLast; id++ {
		if !taken[id] {
			out[fmt.Sprintf("<|reserved_%d|>", id)] = id
		}
	}
	return out
}

// LookupScheme returns the definition of a scheme name or alias.
func LookupScheme(name string) (Scheme, bool) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	s, ok := schemes[name]
	if !ok {
		return Scheme{}, false
	}
	s.Specials = maps.Clone(s.Specials)
	return s, true
}

// SchemeNames returns the canonical scheme names in sorted order.
func SchemeNames() []string {
	return slices.Sorted(maps.Keys(schemes))
}
