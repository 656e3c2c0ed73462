// Package tokenizer provides OpenAI byte-pair encodings for Go.
//
// This package wraps the internal encoding and tokenizer implementations and
// provides a clean public API for token counting tasks.
//
// Supported encodings:
//   - r50k_base (alias gpt2), p50k_base, p50k_edit: GPT-3 and Codex
//   - cl100k_base: GPT-4, GPT-3.5-turbo, text-embedding-3
//   - o200k_base: GPT-4o, GPT-4.1, GPT-5, o-series
//   - o200k_harmony: gpt-oss
//
// Example usage:
//
//	import "github.com/born-ml/gptok/tokenizer"
//
//	// Load an encoding by model
//	enc, err := tokenizer.EncodingForModel("gpt-4o")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode text
//	ids, err := enc.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode tokens
//	text := enc.Decode(ids)
//
//	// Price a prompt
//	cost, err := enc.EstimateCost(len(ids), "")
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/born-ml/gptok/internal/encoding"
	"github.com/born-ml/gptok/internal/models"
	"github.com/born-ml/gptok/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
type Tokenizer = tokenizer.Tokenizer

// Encoding is a tokenizer bound to one encoding scheme.
type Encoding = tokenizer.Encoding

// Registry resolves encoding names to built profiles.
type Registry = encoding.Registry

// Scheme describes an encoding: rank file, pattern, and special tokens.
type Scheme = encoding.Scheme

// RankLoader supplies raw rank data to a Registry.
type RankLoader = encoding.RankLoader

// RegistryOption configures a Registry.
type RegistryOption = encoding.Option

// Catalog maps model names to encodings and prices.
type Catalog = models.Catalog

// Chat and function-calling types.
type (
	ChatMessage           = tokenizer.ChatMessage
	ChatRequest           = tokenizer.ChatRequest
	ChatTemplate          = tokenizer.ChatTemplate
	FunctionCall          = tokenizer.FunctionCall
	FunctionDefinition    = tokenizer.FunctionDefinition
	FunctionCallDirective = tokenizer.FunctionCallDirective
	Schema                = tokenizer.Schema
)

// CostEstimate is the USD price of a token count under each billing mode.
type CostEstimate = tokenizer.CostEstimate

// StreamDecoder turns a stream of ids into text without splitting characters.
type StreamDecoder = tokenizer.StreamDecoder

// Option configures an Encoding.
type Option = tokenizer.Option

// EncodeOption configures a single encode call.
type EncodeOption = tokenizer.EncodeOption

// AllSpecial stands for every special token of the encoding.
const AllSpecial = tokenizer.AllSpecial

// Encoding names.
const (
	GPT2         = encoding.GPT2
	R50kBase     = encoding.R50kBase
	P50kBase     = encoding.P50kBase
	P50kEdit     = encoding.P50kEdit
	Cl100kBase   = encoding.Cl100kBase
	O200kBase    = encoding.O200kBase
	O200kHarmony = encoding.O200kHarmony
)

// Errors.
var (
	ErrUnknownEncoding       = encoding.ErrUnknownEncoding
	ErrUnknownModel          = tokenizer.ErrUnknownModel
	ErrMissingModel          = tokenizer.ErrMissingModel
	ErrDisallowedSpecial     = tokenizer.ErrDisallowedSpecial
	ErrChatUnsupported       = tokenizer.ErrChatUnsupported
	ErrUnsupportedSchemaType = tokenizer.ErrUnsupportedSchemaType
	ErrUnknownToken          = tokenizer.ErrUnknownToken
	ErrInvalidCatalog        = models.ErrInvalidCatalog
)

// Encoding and encode-call options.
var (
	WithModel             = tokenizer.WithModel
	WithCatalog           = tokenizer.WithCatalog
	WithParallel          = tokenizer.WithParallel
	WithAllowedSpecial    = tokenizer.WithAllowedSpecial
	WithDisallowedSpecial = tokenizer.WithDisallowedSpecial
)

// Registry options.
var (
	WithLoader    = encoding.WithLoader
	WithLogger    = encoding.WithLogger
	OfflineLoader = encoding.OfflineLoader
)

// ParseCatalog reads a YAML model catalog for WithCatalog.
var ParseCatalog = models.Parse

// Schema helpers.
var (
	NewObjectSchema           = tokenizer.NewObjectSchema
	Property                  = tokenizer.Property
	FormatFunctionDefinitions = tokenizer.FormatFunctionDefinitions
)

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// NewRegistry creates a registry over the built-in encodings. Rank data is
// read from tables embedded in the binary unless WithLoader says otherwise.
func NewRegistry(opts ...RegistryOption) *Registry {
	return encoding.NewRegistry(opts...)
}

// DefaultRegistry returns the process-wide registry used by GetEncoding and
// EncodingForModel.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = encoding.NewRegistry()
	})
	return defaultRegistry
}

// GetEncoding returns the encoding with the given name from the default
// registry. The first call for a name builds its tables; later calls share
// them.
func GetEncoding(name string, opts ...Option) (*Encoding, error) {
	return FromRegistry(DefaultRegistry(), name, opts...)
}

// FromRegistry returns the named encoding from a caller-owned registry.
func FromRegistry(r *Registry, name string, opts ...Option) (*Encoding, error) {
	profile, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return tokenizer.New(profile, opts...), nil
}

// EncodingForModel returns the encoding used by a model, bound to that model
// for EstimateCost. The model is resolved in the catalog given with
// WithCatalog, or the embedded one. Dated snapshots resolve through their
// base model and fine-tunes through a family prefix.
func EncodingForModel(model string, opts ...Option) (*Encoding, error) {
	return FromRegistryForModel(DefaultRegistry(), model, opts...)
}

// FromRegistryForModel is EncodingForModel over a caller-owned registry.
func FromRegistryForModel(r *Registry, model string, opts ...Option) (*Encoding, error) {
	catalog := tokenizer.CatalogOf(opts...)
	if catalog == nil {
		var err error
		if catalog, err = models.Load(); err != nil {
			return nil, err
		}
	}

	name, err := catalog.EncodingFor(model)
	if err != nil {
		return nil, fmt.Errorf("encoding for model: %w", err)
	}

	opts = append([]Option{WithModel(model)}, opts...)
	return FromRegistry(r, name, opts...)
}

// EncodingNames returns the names of the built-in encodings.
func EncodingNames() []string {
	return encoding.SchemeNames()
}

// ModelNames returns the models of the embedded catalog.
func ModelNames() ([]string, error) {
	catalog, err := models.Load()
	if err != nil {
		return nil, err
	}
	return catalog.Names(), nil
}
