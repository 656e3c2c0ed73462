package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.Execute()
	return out.String(), err
}

func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("loads full vocabularies")
	}
}

func TestEncodings(t *testing.T) {
	out, err := run(t, "", "encodings")
	require.NoError(t, err)
	assert.Equal(t, "cl100k_base\no200k_base\no200k_harmony\np50k_base\np50k_edit\nr50k_base\n", out)

	out, err = run(t, "", "encodings", "--models")
	require.NoError(t, err)
	assert.Contains(t, out, "gpt-4o\n")
}

func TestEncodeDecode(t *testing.T) {
	skipShort(t)

	out, err := run(t, "", "encode", "-e", "cl100k_base", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "15339 1917\n", out)

	out, err = run(t, "hello world", "encode", "-e", "cl100k_base", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[15339,1917]\n", out)

	out, err = run(t, "", "decode", "-e", "cl100k_base", "15339", "1917")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	out, err = run(t, "[15339,1917]", "decode", "-e", "cl100k_base")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	_, err = run(t, "", "decode", "-e", "cl100k_base", "--strict", "999999999")
	assert.Error(t, err)
}

func TestEncode_Specials(t *testing.T) {
	skipShort(t)

	_, err := run(t, "", "encode", "-e", "cl100k_base", "<|endoftext|>")
	assert.Error(t, err)

	out, err := run(t, "", "encode", "-e", "cl100k_base", "--allow-special", "all", "<|endoftext|>")
	require.NoError(t, err)
	assert.Equal(t, "100257\n", out)

	out, err = run(t, "", "encode", "-e", "cl100k_base", "--ordinary", "<|endoftext|>")
	require.NoError(t, err)
	assert.NotContains(t, out, "100257")
}

func TestCount(t *testing.T) {
	skipShort(t)

	out, err := run(t, "This is some text", "count", "-m", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)

	_, err = run(t, "This is some text", "count", "-m", "gpt-4o", "--limit", "3")
	assert.ErrorIs(t, err, errLimitExceeded)
}

func TestChat(t *testing.T) {
	skipShort(t)

	req := `{
		"messages": [{"role": "user", "content": "hello"}],
		"functions": [{"name": "foo", "parameters": {"type": "object", "properties": {}}}],
		"function_call": "none"
	}`

	out, err := run(t, req, "chat", "-e", "cl100k_base")
	require.NoError(t, err)
	assert.Equal(t, "32\n", out)

	out, err = run(t, req, "chat", "-e", "cl100k_base", "--render")
	require.NoError(t, err)
	assert.Equal(t, "<|im_start|>user<|im_sep|>hello<|im_end|><|im_start|>assistant<|im_sep|>\n", out)

	_, err = run(t, req, "chat", "-e", "r50k_base", "--encode")
	assert.Error(t, err)

	_, err = run(t, "{", "chat")
	assert.Error(t, err)
}

func TestCost(t *testing.T) {
	skipShort(t)

	out, err := run(t, "", "cost", "-m", "gpt-4o", "1000000")
	require.NoError(t, err)
	assert.Contains(t, out, `"input": 2.5`)
	assert.Contains(t, out, `"output": 10`)

	_, err = run(t, "", "cost", "1000")
	assert.Error(t, err, "no model")

	_, err = run(t, "", "cost", "-m", "gpt-4o", "lots")
	assert.Error(t, err)
}

func TestConfigSources(t *testing.T) {
	skipShort(t)

	t.Run("environment", func(t *testing.T) {
		t.Setenv("GPTOK_ENCODING", "r50k_base")

		out, err := run(t, "", "encode", "<|endoftext|>", "--allow-special", "all")
		require.NoError(t, err)
		assert.Equal(t, "50256\n", out)
	})

	t.Run("config file", func(t *testing.T) {
		dir := t.TempDir()
		cfg := filepath.Join(dir, "gptok.yaml")
		require.NoError(t, os.WriteFile(cfg, []byte("model: house-model\ncatalog: "+filepath.Join(dir, "catalog.yaml")+"\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte(`
models:
  - name: house-model
    encoding: p50k_base
    prices: {input: 1}
`), 0o600))

		out, err := run(t, "", "--config", cfg, "encode", "--allow-special", "all", "<|endoftext|>")
		require.NoError(t, err)
		assert.Equal(t, "50256\n", out)

		out, err = run(t, "", "--config", cfg, "cost", "2000000")
		require.NoError(t, err)
		assert.Contains(t, out, `"input": 2`)
	})

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv("GPTOK_ENCODING", "r50k_base")

		out, err := run(t, "", "encode", "-e", "cl100k_base", "--allow-special", "all", "<|endoftext|>")
		require.NoError(t, err)
		assert.Equal(t, "100257\n", out)
	})
}
