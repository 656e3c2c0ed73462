package tokenizer

import (
	"errors"

	"github.com/born-ml/gptok/internal/bpe"
	"github.com/born-ml/gptok/internal/models"
)

// Common errors.
var (
	// ErrMissingModel means a cost estimate has no model: none was bound with
	// WithModel and none was passed to the call.
	ErrMissingModel = errors.New("no model given for cost estimate")

	// ErrUnknownModel means the model is not in the pricing catalog.
	ErrUnknownModel = models.ErrUnknownModel

	// ErrChatUnsupported means the encoding has no chat format.
	ErrChatUnsupported = errors.New("encoding has no chat format")

	// ErrUnsupportedSchemaType means a function parameter schema uses a type
	// the definition renderer does not know.
	ErrUnsupportedSchemaType = errors.New("unsupported schema type")

	// ErrUnknownToken is returned by DecodeStrict for ids outside the vocabulary.
	ErrUnknownToken = errors.New("unknown token id")

	// ErrDisallowedSpecial is returned when the input contains a special token
	// outside the allowed set.
	ErrDisallowedSpecial = bpe.ErrDisallowedSpecial
)
