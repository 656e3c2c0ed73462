// Package encoding defines the per-scheme configuration of a byte-pair
// encoder and the registry that builds it.
//
// A Profile bundles the token-split pattern, rank table, special tokens, an
// optional vocabulary size invariant and the chat format. Profiles are built
// once, validated at construction and never mutated, so one *Profile can be
// shared by any number of goroutines.
//
// Supported schemes:
//   - r50k_base (alias gpt2): GPT-3 era models
//   - p50k_base, p50k_edit: Codex and edit models
//   - cl100k_base: GPT-3.5 and GPT-4
//   - o200k_base: GPT-4o and later
//   - o200k_harmony: gpt-oss, with the harmony reserved id block
//
// Example usage:
//
//	reg := encoding.NewRegistry()
//	profile, err := reg.Get("o200k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
package encoding
