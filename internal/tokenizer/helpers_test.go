package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/gptok/internal/bpe"
	"github.com/born-ml/gptok/internal/encoding"
)

// tinyMerges follow the 256 single bytes, so "he" is rank 256.
var tinyMerges = []string{"he", "ll", "llo", "hello", " w", "or", " wor", " world"}

const (
	tinyHello  = 259
	tinyWorld  = 263
	tinyEOT    = 264
	tinyPrefix = 265
)

// tinyProfile is a small classic-chat scheme over byte-level ranks.
func tinyProfile(t testing.TB, chat encoding.ChatFormat) *encoding.Profile {
	t.Helper()

	entries := make([][]byte, 0, 256+len(tinyMerges))
	for b := 0; b < 256; b++ {
		entries = append(entries, []byte{byte(b)})
	}
	for _, m := range tinyMerges {
		entries = append(entries, []byte(m))
	}
	ranks, err := bpe.NewRankTableFromSlice(entries)
	require.NoError(t, err)

	specials := map[string]int{
		encoding.EndOfText: tinyEOT,
		encoding.FimPrefix: tinyPrefix,
		encoding.ImStart:   266,
		encoding.ImEnd:     267,
		encoding.ImSep:     268,
	}

	profile, err := encoding.NewProfile(encoding.Config{
		Name:              "tiny",
		Pattern:           `'s|'t| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`,
		Ranks:             ranks,
		Specials:          specials,
		ExpectedVocabSize: 269,
		ChatFormat:        chat,
	})
	require.NoError(t, err)
	return profile
}

func tinyEncoding(t testing.TB, opts ...Option) *Encoding {
	t.Helper()
	return New(tinyProfile(t, encoding.ChatFormatClassic), opts...)
}

// testRegistry is shared so each vocabulary is loaded once per test binary.
var testRegistry = encoding.NewRegistry()

// offlineEncoding returns a real encoding from the embedded rank files.
func offlineEncoding(t testing.TB, name string) *Encoding {
	t.Helper()

	if testing.Short() {
		t.Skip("loads full vocabularies")
	}

	profile, err := testRegistry.Get(name)
	require.NoError(t, err)
	return New(profile)
}
