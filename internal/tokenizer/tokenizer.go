package tokenizer

// Tokenizer is the core interface for text tokenization.
//
// *Encoding implements it; callers that only count or round-trip text should
// depend on this interface instead.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string, opts ...EncodeOption) ([]int, error)

	// Decode converts token IDs back to text. Unknown IDs are skipped.
	Decode(ids []int) string

	// VocabSize returns one past the largest token ID.
	VocabSize() int

	// EOTToken returns the end-of-text token ID.
	// Returns -1 if not applicable.
	EOTToken() int

	// IsSpecialToken checks if a token ID is a special token.
	IsSpecialToken(id int) bool

	// Name returns the encoding name (e.g., "cl100k_base").
	Name() string
}

// ChatTemplate renders chat messages with the special-token envelope of one
// chat format.
type ChatTemplate interface {
	// Message renders one message including its envelope.
	Message(m ChatMessage) string

	// Prime renders the header that cues the assistant's reply.
	Prime() string

	// Envelope lists the special literals the rendering may contain.
	Envelope() []string

	// Name returns the template name (e.g., "classic", "harmony").
	Name() string
}
