package tokenizer

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/born-ml/gptok/internal/bpe"
	"github.com/born-ml/gptok/internal/encoding"
	"github.com/born-ml/gptok/internal/logutil"
	"github.com/born-ml/gptok/internal/models"
	"github.com/born-ml/gptok/internal/parallel"
)

// Encoding is the tokenizer for one encoding scheme. It is immutable after
// New and safe for concurrent use.
type Encoding struct {
	profile  *encoding.Profile
	template ChatTemplate // nil when the scheme has no chat format
	model    string
	catalog  *models.Catalog
	parallel parallel.Config
}

var _ Tokenizer = (*Encoding)(nil)

// New binds a tokenizer to a profile.
func New(profile *encoding.Profile, opts ...Option) *Encoding {
	e := &Encoding{
		profile:  profile,
		template: templateFor(profile.ChatFormat()),
		parallel: parallel.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Name returns the encoding scheme name.
func (e *Encoding) Name() string {
	return e.profile.Name()
}

// Profile returns the underlying profile.
func (e *Encoding) Profile() *encoding.Profile {
	return e.profile
}

// Model returns the model bound with WithModel, if any.
func (e *Encoding) Model() string {
	return e.model
}

// VocabSize returns one past the largest token id.
func (e *Encoding) VocabSize() int {
	return e.profile.VocabSize()
}

// EOTToken returns the id of <|endoftext|>, or -1 when the scheme has none.
func (e *Encoding) EOTToken() int {
	if id, ok := e.profile.Specials().ID(encoding.EndOfText); ok {
		return id
	}
	return -1
}

// IsSpecialToken reports whether id is a special token.
func (e *Encoding) IsSpecialToken(id int) bool {
	_, ok := e.profile.Specials().Literal(id)
	return ok
}

// SpecialTokenID returns the id of a special literal.
func (e *Encoding) SpecialTokenID(literal string) (int, bool) {
	return e.profile.Specials().ID(literal)
}

// Encode converts text to token ids.
//
// By default every special token is disallowed: text containing one fails
// with a *bpe.DisallowedSpecialError before any encoding happens. Use
// WithAllowedSpecial to emit special ids, or WithDisallowedSpecial to encode
// them as ordinary text.
func (e *Encoding) Encode(text string, opts ...EncodeOption) ([]int, error) {
	out := make([]int, 0, len(text)/3+1)
	for ids, err := range e.EncodeSeq(text, opts...) {
		if err != nil {
			return nil, err
		}
		out = append(out, ids...)
	}

	logutil.Trace("encoded", "encoding", e.Name(), "bytes", len(text), "ids", logutil.Ids(out))
	return out, nil
}

// EncodeSeq is the lazy form of Encode: it yields one id batch per piece of
// text and one single-id batch per allowed special token. An error ends the
// sequence.
func (e *Encoding) EncodeSeq(text string, opts ...EncodeOption) iter.Seq2[[]int, error] {
	return func(yield func([]int, error) bool) {
		allowed, disallowed := e.resolveSpecials(opts)

		if err := e.checkDisallowed(text, disallowed); err != nil {
			yield(nil, err)
			return
		}

		for ids, err := range e.profile.Segmenter().Segments(text, allowed) {
			if !yield(ids, err) || err != nil {
				return
			}
		}
	}
}

// EncodeOrdinary encodes text with every special literal treated as plain
// text. It never fails on special tokens.
func (e *Encoding) EncodeOrdinary(text string) ([]int, error) {
	return e.Encode(text, WithDisallowedSpecial())
}

// resolveSpecials expands AllSpecial in both sets. The disallowed set never
// includes an allowed literal.
func (e *Encoding) resolveSpecials(opts []EncodeOption) (allowed map[string]struct{}, disallowed map[string]struct{}) {
	cfg := defaultEncodeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	all := e.profile.Specials().Literals()

	allowed = make(map[string]struct{}, len(cfg.allowed))
	if slices.Contains(cfg.allowed, AllSpecial) {
		for _, lit := range all {
			allowed[lit] = struct{}{}
		}
	} else {
		for _, lit := range cfg.allowed {
			allowed[lit] = struct{}{}
		}
	}

	disallowed = make(map[string]struct{})
	if slices.Contains(cfg.disallowed, AllSpecial) {
		for _, lit := range all {
			disallowed[lit] = struct{}{}
		}
	} else {
		for _, lit := range cfg.disallowed {
			disallowed[lit] = struct{}{}
		}
	}
	for lit := range allowed {
		delete(disallowed, lit)
	}

	return allowed, disallowed
}

// checkDisallowed scans the whole text for a disallowed literal, whether or
// not segmentation would reach it.
func (e *Encoding) checkDisallowed(text string, disallowed map[string]struct{}) error {
	if len(disallowed) == 0 {
		return nil
	}

	specials := e.profile.Specials()
	for lit, err := range specials.Scan(text) {
		if err != nil {
			return err
		}
		if _, ok := disallowed[lit]; ok {
			return &bpe.DisallowedSpecialError{Token: lit}
		}
	}

	// Literals that are not special tokens of this scheme can still be
	// disallowed explicitly.
	for lit := range disallowed {
		if !specials.Has(lit) && lit != "" && strings.Contains(text, lit) {
			return &bpe.DisallowedSpecialError{Token: lit}
		}
	}

	return nil
}

// tokenBytes returns the bytes of a rank or special id.
func (e *Encoding) tokenBytes(id int) ([]byte, bool) {
	if b, ok := e.profile.Ranks().Bytes(id); ok {
		return b, true
	}
	if lit, ok := e.profile.Specials().Literal(id); ok {
		return []byte(lit), true
	}
	return nil, false
}

// DecodeBytes concatenates the bytes of every id. Unknown ids contribute
// nothing.
func (e *Encoding) DecodeBytes(ids []int) []byte {
	out := make([]byte, 0, len(ids)*4)
	for _, id := range ids {
		if b, ok := e.tokenBytes(id); ok {
			out = append(out, b...)
		}
	}
	return out
}

// Decode converts token ids back to text. Unknown ids are skipped, which
// keeps truncated or foreign streams decodable; use DecodeStrict to reject
// them. Bytes that are not valid UTF-8 on their own are kept as they are.
func (e *Encoding) Decode(ids []int) string {
	return string(e.DecodeBytes(ids))
}

// DecodeStrict is Decode failing on the first id outside the vocabulary.
func (e *Encoding) DecodeStrict(ids []int) (string, error) {
	out := make([]byte, 0, len(ids)*4)
	for i, id := range ids {
		b, ok := e.tokenBytes(id)
		if !ok {
			return "", fmt.Errorf("%w: %d at position %d", ErrUnknownToken, id, i)
		}
		out = append(out, b...)
	}
	return string(out), nil
}

// IsWithinTokenLimit counts the tokens of text, stopping as soon as the count
// exceeds limit. It returns the exact count and true when the text fits, and
// false otherwise.
func (e *Encoding) IsWithinTokenLimit(text string, limit int, opts ...EncodeOption) (int, bool, error) {
	return countWithin(e.EncodeSeq(text, opts...), limit)
}

func countWithin(seq iter.Seq2[[]int, error], limit int) (int, bool, error) {
	count := 0
	for ids, err := range seq {
		if err != nil {
			return 0, false, err
		}
		count += len(ids)
		if count > limit {
			return 0, false, nil
		}
	}
	return count, true, nil
}

// CountTokens returns the number of tokens Encode would produce for text.
func (e *Encoding) CountTokens(text string, opts ...EncodeOption) (int, error) {
	count := 0
	for ids, err := range e.EncodeSeq(text, opts...) {
		if err != nil {
			return 0, err
		}
		count += len(ids)
	}
	return count, nil
}

// EncodeBatch encodes texts concurrently. The result is index-aligned with
// texts; the first failure cancels the rest and is returned alone.
func (e *Encoding) EncodeBatch(ctx context.Context, texts []string, opts ...EncodeOption) ([][]int, error) {
	out := make([][]int, len(texts))
	err := parallel.ForEach(ctx, len(texts), func(_ context.Context, i int) error {
		ids, err := e.Encode(texts[i], opts...)
		if err != nil {
			return fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = ids
		return nil
	}, e.parallel)
	if err != nil {
		return nil, err
	}

	logutil.TraceContext(ctx, "encoded batch", "encoding", e.Name(), "texts", len(texts))
	return out, nil
}

// DecodeBatch decodes each id slice concurrently.
func (e *Encoding) DecodeBatch(batch [][]int) []string {
	out := make([]string, len(batch))
	parallel.For(len(batch), func(i int) {
		out[i] = e.Decode(batch[i])
	}, e.parallel)
	return out
}
