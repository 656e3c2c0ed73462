package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gptok/internal/encoding"
)

func TestClassic_Template(t *testing.T) {
	tests := []struct {
		name     string
		messages []ChatMessage
		want     string
	}{
		{
			name:     "no messages",
			messages: nil,
			want:     "<|im_start|>assistant<|im_sep|>",
		},
		{
			name: "single user message",
			messages: []ChatMessage{
				{Role: "user", Content: "Hello!"},
			},
			want: "<|im_start|>user<|im_sep|>Hello!<|im_end|>" +
				"<|im_start|>assistant<|im_sep|>",
		},
		{
			name: "system and named user",
			messages: []ChatMessage{
				{Role: "system", Content: "You are helpful."},
				{Role: "user", Name: "jane", Content: "Hi there!"},
			},
			want: "<|im_start|>system<|im_sep|>You are helpful.<|im_end|>" +
				"<|im_start|>jane<|im_sep|>Hi there!<|im_end|>" +
				"<|im_start|>assistant<|im_sep|>",
		},
		{
			name: "missing role defaults to system",
			messages: []ChatMessage{
				{Content: "rules"},
			},
			want: "<|im_start|>system<|im_sep|>rules<|im_end|>" +
				"<|im_start|>assistant<|im_sep|>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(ClassicTemplate{}, tt.messages))
		})
	}
}

func TestHarmony_Template(t *testing.T) {
	tests := []struct {
		name    string
		message ChatMessage
		want    string
	}{
		{
			name:    "plain",
			message: ChatMessage{Role: "user", Content: "What is 2+2?"},
			want:    "<|start|>user<|message|>What is 2+2?<|end|>",
		},
		{
			name:    "channel",
			message: ChatMessage{Role: "assistant", Channel: "final", Content: "4"},
			want:    "<|start|>assistant<|channel|>final<|message|>4<|end|>",
		},
		{
			name: "recipient after role",
			message: ChatMessage{
				Role: "assistant", Channel: "commentary", Recipient: "functions.get_weather",
				Constraint: "json", Content: `{"city":"Paris"}`, Terminator: encoding.Call,
			},
			want: "<|start|>assistant to=functions.get_weather<|channel|>commentary <|constrain|>json" +
				`<|message|>{"city":"Paris"}<|call|>`,
		},
		{
			name: "recipient after channel",
			message: ChatMessage{
				Role: "assistant", Channel: "commentary", Recipient: "functions.get_weather",
				RecipientPlacement: RecipientInChannel, Content: "{}", Terminator: encoding.Call,
			},
			want: "<|start|>assistant<|channel|>commentary to=functions.get_weather<|message|>{}<|call|>",
		},
		{
			name: "tool result",
			message: ChatMessage{
				Role: "tool", Name: "functions.get_weather", Recipient: "assistant",
				Channel: "commentary", Content: `{"temp":20}`,
			},
			want: "<|start|>functions.get_weather to=assistant<|channel|>commentary" +
				`<|message|>{"temp":20}<|end|>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HarmonyTemplate{}.Message(tt.message))
		})
	}

	assert.Equal(t, "<|start|>assistant", HarmonyTemplate{}.Prime())
}

func TestEncoding_EncodeChat(t *testing.T) {
	enc := tinyEncoding(t)
	messages := []ChatMessage{{Role: "user", Content: "hello world"}}

	ids, err := enc.EncodeChat(messages)
	require.NoError(t, err)
	assert.Equal(t, 266, ids[0], "starts with <|im_start|>")

	rendered, err := enc.RenderChat(messages)
	require.NoError(t, err)
	assert.Equal(t, rendered, enc.Decode(ids))

	var batches int
	for _, err := range enc.EncodeChatSeq(messages) {
		require.NoError(t, err)
		batches++
	}
	assert.Equal(t, 2, batches, "one per message plus the assistant header")

	n, ok, err := enc.IsChatWithinTokenLimit(messages, len(ids))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, len(ids), n)

	_, ok, err = enc.IsChatWithinTokenLimit(messages, len(ids)-1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEncoding_EncodeChat_Errors(t *testing.T) {
	enc := tinyEncoding(t)

	_, err := enc.EncodeChat([]ChatMessage{{Role: "user", Content: "<|endoftext|>"}})
	assert.ErrorIs(t, err, ErrDisallowedSpecial)

	ids, err := enc.EncodeChat(
		[]ChatMessage{{Role: "user", Content: "<|endoftext|>"}},
		WithAllowedSpecial(encoding.EndOfText))
	require.NoError(t, err)
	assert.Contains(t, ids, tinyEOT)

	plain := New(tinyProfile(t, encoding.ChatFormatNone))
	assert.Nil(t, plain.ChatTemplate())

	_, err = plain.EncodeChat([]ChatMessage{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, ErrChatUnsupported)

	_, err = plain.RenderChat(nil)
	assert.ErrorIs(t, err, ErrChatUnsupported)
}

func TestEncoding_EncodeChat_Offline(t *testing.T) {
	t.Run("classic", func(t *testing.T) {
		enc := offlineEncoding(t, encoding.O200kBase)

		ids, err := enc.EncodeChat([]ChatMessage{
			{Role: "system", Content: "You are helpful."},
			{Role: "user", Content: "Hello!"},
		})
		require.NoError(t, err)

		assert.Equal(t, 200264, ids[0])
		assert.Equal(t, 200266, ids[len(ids)-1])
	})

	t.Run("harmony", func(t *testing.T) {
		enc := offlineEncoding(t, encoding.O200kHarmony)
		assert.Equal(t, encoding.ChatFormatHarmony.String(), enc.ChatTemplate().Name())

		messages := []ChatMessage{
			{Role: "user", Content: "What is the weather in Paris?"},
			{
				Role: "assistant", Channel: "commentary", Recipient: "functions.get_weather",
				Constraint: "json", Content: `{"city":"Paris"}`, Terminator: encoding.Call,
			},
		}

		ids, err := enc.EncodeChat(messages)
		require.NoError(t, err)

		assert.Equal(t, 200006, ids[0], "<|start|>")
		assert.Contains(t, ids, 200005, "<|channel|>")
		assert.Contains(t, ids, 200003, "<|constrain|>")
		assert.Contains(t, ids, 200012, "<|call|>")

		rendered, err := enc.RenderChat(messages)
		require.NoError(t, err)
		assert.Equal(t, rendered, enc.Decode(ids))
	})
}
