package xz

import "github.com/vccggorski/lzma-no-std-rs/lzma"

// EncodeLZMA1 builds a complete classic LZMA1 stream — header, then a
// literal-only range-coded body — from data. It exists solely to produce
// fixtures for Stream's round-trip tests; it is not a general-purpose
// compressor and never emits a match operation.
func EncodeLZMA1(props lzma.Properties, dictCap int, data []byte) []byte {
	out := make([]byte, lzma1HeaderSize)
	out[0] = props.Byte()
	putLE32(out[1:5], uint32(dictCap))
	putLE64(out[5:13], uint64(len(data)))

	enc := lzma.NewEncoder(props)
	for _, b := range data {
		enc.EncodeByte(b)
	}
	return append(out, enc.Finish()...)
}

func putLE32(p []byte, v uint32) {
	p[0] = byte(v)
	p[1] = byte(v >> 8)
	p[2] = byte(v >> 16)
	p[3] = byte(v >> 24)
}

func putLE64(p []byte, v uint64) {
	for i := 0; i < 8; i++ {
		p[i] = byte(v >> (8 * uint(i)))
	}
}
