// Package tokenizer converts text to and from the token ids of OpenAI
// byte-pair encodings.
//
// An Encoding binds one encoding.Profile and provides:
//   - Encode, EncodeSeq, EncodeOrdinary: text to ids, eager or lazy
//   - Decode, DecodeStrict, DecodeSeq, DecodeStream: ids to text
//   - IsWithinTokenLimit, CountTokens: counting that stops early
//   - EncodeChat, CountChatTokens: chat transcripts and function definitions
//   - EstimateCost: token counts priced from the model catalog
//
// Chat formats:
//   - classic: <|im_start|>role<|im_sep|>content<|im_end|> (cl100k_base, o200k_base)
//   - harmony: <|start|>role<|channel|>channel<|message|>content<|end|> (o200k_harmony)
//
// Example usage:
//
//	profile, err := encoding.NewRegistry().Get("o200k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	enc := tokenizer.New(profile, tokenizer.WithModel("gpt-4o"))
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
//	// Count a chat request
//	n, err := enc.CountChatTokens(tokenizer.ChatRequest{
//	    Messages: []tokenizer.ChatMessage{{Role: "user", Content: "Hi!"}},
//	})
package tokenizer
