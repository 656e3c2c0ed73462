package tokenizer

import (
	"github.com/born-ml/gptok/internal/models"
	"github.com/born-ml/gptok/internal/parallel"
)

// AllSpecial stands for every special token of the encoding in
// WithAllowedSpecial and WithDisallowedSpecial.
const AllSpecial = "all"

// Option configures an Encoding.
type Option func(*Encoding)

// WithModel binds a model name used by EstimateCost when the call passes none.
func WithModel(name string) Option {
	return func(e *Encoding) {
		e.model = name
	}
}

// WithCatalog sets the pricing catalog. The embedded catalog is used by default.
func WithCatalog(c *models.Catalog) Option {
	return func(e *Encoding) {
		e.catalog = c
	}
}

// WithParallel sets the fan-out used by EncodeBatch and DecodeBatch.
func WithParallel(cfg parallel.Config) Option {
	return func(e *Encoding) {
		e.parallel = cfg
	}
}

// CatalogOf returns the catalog set by opts, or nil when none is.
func CatalogOf(opts ...Option) *models.Catalog {
	var e Encoding
	for _, opt := range opts {
		opt(&e)
	}
	return e.catalog
}

// EncodeOption configures a single encode call.
type EncodeOption func(*encodeConfig)

type encodeConfig struct {
	allowed    []string
	disallowed []string
}

func defaultEncodeConfig() encodeConfig {
	return encodeConfig{disallowed: []string{AllSpecial}}
}

// WithAllowedSpecial lets the listed special tokens encode to their ids.
// AllSpecial allows every special token.
func WithAllowedSpecial(literals ...string) EncodeOption {
	return func(c *encodeConfig) {
		c.allowed = append(c.allowed, literals...)
	}
}

// WithDisallowedSpecial replaces the disallowed set, which defaults to
// AllSpecial. Input containing a disallowed literal fails to encode. Special
// tokens neither allowed nor disallowed are encoded as ordinary text.
func WithDisallowedSpecial(literals ...string) EncodeOption {
	return func(c *encodeConfig) {
		c.disallowed = literals
	}
}
