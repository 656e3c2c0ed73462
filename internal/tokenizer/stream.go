package tokenizer

import (
	"context"
	"iter"
	"unicode/utf8"
)

// StreamDecoder turns token ids into text incrementally.
//
// A token may end partway through a multi-byte character whose remaining
// bytes arrive with a later token. Write holds such a tail back until it is
// complete, so every returned chunk ends on a character boundary; Flush
// releases whatever is left. Bytes that can never form a character are
// passed through unchanged.
//
// A StreamDecoder is not safe for concurrent use.
type StreamDecoder struct {
	enc     *Encoding
	pending []byte
}

// NewStreamDecoder returns a decoder for e's vocabulary.
func (e *Encoding) NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{enc: e}
}

// Write appends the bytes of ids and returns the text that is complete so
// far. Unknown ids contribute nothing.
func (d *StreamDecoder) Write(ids ...int) string {
	for _, id := range ids {
		if b, ok := d.enc.tokenBytes(id); ok {
			d.pending = append(d.pending, b...)
		}
	}

	cut := len(d.pending) - incompleteTail(d.pending)
	if cut == 0 {
		return ""
	}

	out := string(d.pending[:cut])
	d.pending = append(d.pending[:0], d.pending[cut:]...)
	return out
}

// Flush returns any held-back bytes and resets the decoder.
func (d *StreamDecoder) Flush() string {
	out := string(d.pending)
	d.pending = d.pending[:0]
	return out
}

// incompleteTail returns the length of a trailing UTF-8 sequence that has a
// valid lead byte but is missing continuation bytes.
func incompleteTail(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return 0
		}
		return len(b) - i
	}
	return 0
}

// DecodeSeq decodes a lazy id sequence, yielding text chunks that end on
// character boundaries. Empty chunks are not yielded.
func (e *Encoding) DecodeSeq(ids iter.Seq[int]) iter.Seq[string] {
	return func(yield func(string) bool) {
		d := e.NewStreamDecoder()
		for id := range ids {
			if s := d.Write(id); s != "" && !yield(s) {
				return
			}
		}
		if s := d.Flush(); s != "" {
			yield(s)
		}
	}
}

// DecodeStream decodes ids as they arrive on a channel. The sequence ends
// when the channel is closed, after flushing, or when ctx is done, with
// ctx.Err() as the last element. Waiting on the channel is the only place it
// blocks.
func (e *Encoding) DecodeStream(ctx context.Context, ids <-chan int) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		d := e.NewStreamDecoder()
		for {
			select {
			case <-ctx.Done():
				yield("", ctx.Err())
				return
			case id, ok := <-ids:
				if !ok {
					if s := d.Flush(); s != "" {
						yield(s, nil)
					}
					return
				}
				if s := d.Write(id); s != "" && !yield(s, nil) {
					return
				}
			}
		}
	}
}
