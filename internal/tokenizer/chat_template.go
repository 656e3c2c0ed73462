package tokenizer

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/born-ml/gptok/internal/encoding"
)

// ClassicTemplate implements the chat envelope of cl100k_base and o200k_base.
//
// Format: <|im_start|>role<|im_sep|>content<|im_end|>.
type ClassicTemplate struct{}

// Message renders one message. Name, when set, replaces the role.
func (ClassicTemplate) Message(m ChatMessage) string {
	var sb strings.Builder

	sb.WriteString(encoding.ImStart)
	sb.WriteString(speaker(m))
	sb.WriteString(encoding.ImSep)
	sb.WriteString(m.Content)
	sb.WriteString(encoding.ImEnd)

	return sb.String()
}

// Prime renders the open assistant header.
func (ClassicTemplate) Prime() string {
	return encoding.ImStart + RoleAssistant + encoding.ImSep
}

// Envelope returns the literals used by the classic format.
func (ClassicTemplate) Envelope() []string {
	return []string{encoding.ImStart, encoding.ImEnd, encoding.ImSep}
}

// Name returns the template name.
func (ClassicTemplate) Name() string {
	return encoding.ChatFormatClassic.String()
}

// HarmonyTemplate implements the harmony chat envelope of o200k_harmony.
//
// Format: <|start|>role<|channel|>channel<|message|>content<|end|>, with an
// optional " to=recipient" after the role or the channel, an optional
// " <|constrain|>type" before <|message|>, and a custom terminator such as
// <|call|> or <|return|>.
type HarmonyTemplate struct{}

// Message renders one message.
func (HarmonyTemplate) Message(m ChatMessage) string {
	var sb strings.Builder

	recipient := ""
	if m.Recipient != "" {
		recipient = " to=" + m.Recipient
	}
	inChannel := m.RecipientPlacement == RecipientInChannel && m.Channel != ""

	sb.WriteString(encoding.Start)
	sb.WriteString(speaker(m))
	if !inChannel {
		sb.WriteString(recipient)
	}

	if m.Channel != "" {
		sb.WriteString(encoding.Channel)
		sb.WriteString(m.Channel)
		if inChannel {
			sb.WriteString(recipient)
		}
	}

	if m.Constraint != "" {
		sb.WriteString(" ")
		sb.WriteString(encoding.Constrain)
		sb.WriteString(m.Constraint)
	}

	sb.WriteString(encoding.Message)
	sb.WriteString(m.Content)

	if m.Terminator != "" {
		sb.WriteString(m.Terminator)
	} else {
		sb.WriteString(encoding.End)
	}

	return sb.String()
}

// Prime renders the open assistant header.
func (HarmonyTemplate) Prime() string {
	return encoding.Start + RoleAssistant
}

// Envelope returns the literals used by the harmony format.
func (HarmonyTemplate) Envelope() []string {
	return []string{
		encoding.Start, encoding.End, encoding.Message, encoding.Channel,
		encoding.Constrain, encoding.Return, encoding.Call,
	}
}

// Name returns the template name.
func (HarmonyTemplate) Name() string {
	return encoding.ChatFormatHarmony.String()
}

// speaker is the header name of a message: Name, else Role, else system.
func speaker(m ChatMessage) string {
	switch {
	case m.Name != "":
		return m.Name
	case m.Role != "":
		return m.Role
	default:
		return RoleSystem
	}
}

func templateFor(f encoding.ChatFormat) ChatTemplate {
	switch f {
	case encoding.ChatFormatClassic:
		return ClassicTemplate{}
	case encoding.ChatFormatHarmony:
		return HarmonyTemplate{}
	default:
		return nil
	}
}

// Apply renders a whole transcript, ending with the assistant header.
func Apply(t ChatTemplate, messages []ChatMessage) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(t.Message(m))
	}
	sb.WriteString(t.Prime())
	return sb.String()
}

// ChatTemplate returns the template of the encoding's chat format, or nil.
func (e *Encoding) ChatTemplate() ChatTemplate {
	return e.template
}

// RenderChat renders messages as text in the encoding's chat format.
func (e *Encoding) RenderChat(messages []ChatMessage) (string, error) {
	if e.template == nil {
		return "", fmt.Errorf("%w: %s", ErrChatUnsupported, e.Name())
	}
	return Apply(e.template, messages), nil
}

// EncodeChat encodes a transcript in the encoding's chat format, ending with
// the assistant header. Envelope tokens are always allowed; opts control any
// other special token, which by default fails as in Encode.
func (e *Encoding) EncodeChat(messages []ChatMessage, opts ...EncodeOption) ([]int, error) {
	var out []int
	for ids, err := range e.EncodeChatSeq(messages, opts...) {
		if err != nil {
			return nil, err
		}
		out = append(out, ids...)
	}
	return out, nil
}

// EncodeChatSeq is the lazy form of EncodeChat, yielding one id batch per
// message and a final batch for the assistant header.
func (e *Encoding) EncodeChatSeq(messages []ChatMessage, opts ...EncodeOption) iter.Seq2[[]int, error] {
	return func(yield func([]int, error) bool) {
		if e.template == nil {
			yield(nil, fmt.Errorf("%w: %s", ErrChatUnsupported, e.Name()))
			return
		}

		chatOpts := append(slices.Clip(opts), WithAllowedSpecial(e.template.Envelope()...))

		for _, m := range messages {
			ids, err := e.Encode(e.template.Message(m), chatOpts...)
			if !yield(ids, err) || err != nil {
				return
			}
		}

		ids, err := e.Encode(e.template.Prime(), chatOpts...)
		yield(ids, err)
	}
}

// IsChatWithinTokenLimit counts the tokens of an encoded transcript, stopping
// as soon as the count exceeds limit.
func (e *Encoding) IsChatWithinTokenLimit(messages []ChatMessage, limit int, opts ...EncodeOption) (int, bool, error) {
	return countWithin(e.EncodeChatSeq(messages, opts...), limit)
}
