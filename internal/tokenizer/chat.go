package tokenizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Chat roles with special handling.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// RecipientPlacement chooses where a harmony header names the recipient.
type RecipientPlacement string

// Recipient placements.
const (
	// RecipientInRole writes " to=R" right after the role (the default).
	RecipientInRole RecipientPlacement = "role"
	// RecipientInChannel writes " to=R" after the channel name.
	RecipientInChannel RecipientPlacement = "channel"
)

// ChatMessage is one message of a chat transcript. The harmony fields are
// ignored by the classic format.
type ChatMessage struct {
	Role         string        `json:"role"`
	Name         string        `json:"name,omitempty"`
	Content      string        `json:"content"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`

	Channel            string             `json:"channel,omitempty"`
	Recipient          string             `json:"recipient,omitempty"`
	RecipientPlacement RecipientPlacement `json:"recipient_placement,omitempty"`
	Constraint         string             `json:"constraint,omitempty"`
	Terminator         string             `json:"terminator,omitempty"`
}

// FunctionCall is the function invocation carried by an assistant message.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FunctionDefinition describes a callable function offered to the model.
type FunctionDefinition struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Schema is the subset of JSON Schema used by function parameters.
// Properties keep their document order, which is visible in token counts.
type Schema struct {
	Type        string                                  `json:"type,omitempty"`
	Description string                                  `json:"description,omitempty"`
	Properties  *orderedmap.OrderedMap[string, *Schema] `json:"properties,omitempty"`
	Required    []string                                `json:"required,omitempty"`
	Enum        []any                                   `json:"enum,omitempty"`
	Items       *Schema                                 `json:"items,omitempty"`
}

// NewObjectSchema returns an object schema with properties in the given order.
func NewObjectSchema(props ...orderedmap.Pair[string, *Schema]) *Schema {
	return &Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *Schema](orderedmap.WithInitialData(props...)),
	}
}

// Property builds one entry for NewObjectSchema.
func Property(name string, s *Schema) orderedmap.Pair[string, *Schema] {
	return orderedmap.Pair[string, *Schema]{Key: name, Value: s}
}

// ChatRequest is a chat-completion request as far as token counting needs it.
type ChatRequest struct {
	Messages     []ChatMessage          `json:"messages"`
	Functions    []FunctionDefinition   `json:"functions,omitempty"`
	FunctionCall *FunctionCallDirective `json:"function_call,omitempty"`
}

// FunctionCallDirective is the function_call request field: "auto", "none",
// or a named function. On the wire it is a string or {"name": ...}.
type FunctionCallDirective struct {
	Mode string // "auto", "none", or empty when Name is set
	Name string
}

// Function call modes.
const (
	FunctionCallAuto = "auto"
	FunctionCallNone = "none"
)

// MarshalJSON implements json.Marshaler.
func (d FunctionCallDirective) MarshalJSON() ([]byte, error) {
	if d.Name != "" {
		return json.Marshal(struct {
			Name string `json:"name"`
		}{d.Name})
	}
	return json.Marshal(d.Mode)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *FunctionCallDirective) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var mode string
		if err := json.Unmarshal(data, &mode); err != nil {
			return err
		}
		if mode != FunctionCallAuto && mode != FunctionCallNone {
			return fmt.Errorf("invalid function_call mode %q", mode)
		}
		*d = FunctionCallDirective{Mode: mode}
		return nil
	}

	var named struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &named); err != nil {
		return fmt.Errorf("invalid function_call: %w", err)
	}
	if named.Name == "" {
		return errors.New("function_call object requires a name")
	}
	*d = FunctionCallDirective{Name: named.Name}
	return nil
}
