// Package bpe implements the byte-level pieces of a tiktoken-compatible
// byte-pair encoder.
//
// The package is organized leaf-first:
//   - RankTable: raw byte sequence -> rank, with reverse lookup
//   - SpecialTable: reserved literal -> id, sharing the rank id space
//   - BytePairEncode: the greedy merge over one pre-split byte run
//   - Segmenter: regex pre-tokenization with special-token scanning
//
// All types are immutable after construction and safe for concurrent use.
//
// Example usage:
//
//	ranks, err := bpe.NewRankTableFromMap(map[string]int{"a": 0, "b": 1, "ab": 2})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ids, err := bpe.BytePairEncode([]byte("ab"), ranks)
//	// ids == []int{2}
package bpe
