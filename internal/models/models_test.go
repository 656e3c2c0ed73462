package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, c, again)

	m, err := c.Lookup("gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "o200k_base", m.Encoding)
	require.NotNil(t, m.Prices.Input)
	assert.InDelta(t, 2.5, *m.Prices.Input, 1e-9)

	oss, err := c.Lookup("gpt-oss-20b")
	require.NoError(t, err)
	assert.Nil(t, oss.Prices.Input, "absent prices stay nil")

	embed, err := c.Lookup("text-embedding-3-small")
	require.NoError(t, err)
	assert.NotNil(t, embed.Prices.Input)
	assert.Nil(t, embed.Prices.Output)

	_, err = c.Lookup("not-a-model")
	assert.ErrorIs(t, err, ErrUnknownModel)

	assert.Contains(t, c.Names(), "gpt-4")
}

func TestCatalog_EncodingFor(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4o", "o200k_base"},
		{"gpt-4o-2024-08-06", "o200k_base"},
		{"gpt-4", "cl100k_base"},
		{"gpt-4-0613", "cl100k_base"},
		{"gpt-3.5-turbo-16k", "cl100k_base"},
		{"ft:gpt-4o-mini:org::abc", "o200k_base"},
		{"ft:gpt-4-0613:org::abc", "cl100k_base"},
		{"gpt-oss-120b", "o200k_harmony"},
		{"text-davinci-edit-001", "p50k_edit"},
		{"davinci", "r50k_base"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, err := c.EncodingFor(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = c.EncodingFor("llama-3")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestCatalog_Resolve(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	tests := []struct {
		model  string
		entry  string
		priced bool
	}{
		{"gpt-4o", "gpt-4o", true},
		{"gpt-4o-2024-08-06", "gpt-4o", true},
		{"gpt-4o-mini-2024-07-18", "gpt-4o-mini", true},
		{"gpt-4-turbo-2024-04-09", "gpt-4-turbo", true},
		{"o3-mini-2025-01-31", "o3-mini", true},
		{"ft:gpt-4o-mini:org::abc", "ft:gpt-4o-mini:org::abc", false},
		{"chatgpt-4o-latest", "chatgpt-4o-latest", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			m, err := c.Resolve(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.entry, m.Name)
			assert.Equal(t, tt.priced, m.Prices.Input != nil)
		})
	}

	_, err = c.Resolve("llama-3")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "models: [unterminated"},
		{"no models", "prefixes: []"},
		{"missing name", "models:\n  - encoding: cl100k_base\n"},
		{"unknown encoding", "models:\n  - name: x\n    encoding: nope\n"},
		{"negative price", "models:\n  - name: x\n    encoding: cl100k_base\n    prices: {input: -1}\n"},
		{"duplicate", "models:\n  - {name: x, encoding: cl100k_base}\n  - {name: x, encoding: r50k_base}\n"},
		{"bad prefix", "models:\n  - {name: x, encoding: cl100k_base}\nprefixes:\n  - {prefix: y, encoding: nope}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.doc))
			assert.Nil(t, c)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestParse_Custom(t *testing.T) {
	c, err := Parse([]byte(`
models:
  - name: house-model
    encoding: gpt2
    prices: {input: 0}
prefixes:
  - {prefix: "house-", encoding: cl100k_base}
  - {prefix: "house-big-", encoding: o200k_base}
`))
	require.NoError(t, err)

	m, err := c.Lookup("house-model")
	require.NoError(t, err)
	require.NotNil(t, m.Prices.Input)
	assert.Zero(t, *m.Prices.Input)

	enc, err := c.EncodingFor("house-big-v2")
	require.NoError(t, err)
	assert.Equal(t, "o200k_base", enc)

	enc, err = c.EncodingFor("house-small")
	require.NoError(t, err)
	assert.Equal(t, "cl100k_base", enc)
}
