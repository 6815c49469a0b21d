package lzma2

import (
	"testing"

	"github.com/kr/pretty"
	"github.com/vccggorski/lzma-no-std-rs/lzma"
)

// buildChunk encodes data as a single literal-only LZMA2 chunk under ctrl,
// a full reset-dict/reset-state/new-props control byte unless the caller
// picks something narrower. It exists only to produce fixtures for these
// tests; it is not part of the package's public surface.
func buildChunk(t *testing.T, props lzma.Properties, data []byte, ctrl control) []byte {
	t.Helper()
	enc := lzma.NewEncoder(props)
	for _, b := range data {
		enc.EncodeByte(b)
	}
	body := enc.Finish()

	unpackedRaw := uint16(len(data) - 1)
	packedRaw := uint16(len(body) - 1)
	h := []byte{
		byte(ctrl),
		byte(unpackedRaw >> 8), byte(unpackedRaw),
		byte(packedRaw >> 8), byte(packedRaw),
	}
	if ctrl >= 0xc0 {
		h = append(h, props.Byte())
	}
	return append(h, body...)
}

func TestReaderSingleChunkRoundTrip(t *testing.T) {
	props, err := lzma.NewProperties(3, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("hello lzma2 world, this is a chunked literal round-trip test")
	stream := append(buildChunk(t, props, data, ctrlPackedResetDict), byte(ctrlEOS))

	r := NewReader(1 << 16)
	var out []byte
	sink := func(p []byte) int { out = append(out, p...); return len(p) }

	input := stream
	guard := 0
	for !r.Finished() {
		guard++
		if guard > 1000 {
			t.Fatalf("stalled")
		}
		n, err := r.Process(input, sink)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		input = input[n:]
	}
	if string(out) != string(data) {
		t.Errorf("mismatch:\n%s", pretty.Diff(out, data))
	}
}

func TestReaderMultiChunkRoundTrip(t *testing.T) {
	props, err := lzma.NewProperties(2, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	part1 := []byte("first chunk of the stream, ")
	part2 := []byte("second chunk, independently reset")
	stream := append(buildChunk(t, props, part1, ctrlPackedResetDict), buildChunk(t, props, part2, ctrlPackedResetDict)...)
	stream = append(stream, byte(ctrlEOS))

	r := NewReader(1 << 16)
	var out []byte
	sink := func(p []byte) int { out = append(out, p...); return len(p) }

	input := stream
	guard := 0
	for !r.Finished() {
		guard++
		if guard > 1000 {
			t.Fatalf("stalled")
		}
		n, err := r.Process(input, sink)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		input = input[n:]
	}
	want := append(append([]byte{}, part1...), part2...)
	if string(out) != string(want) {
		t.Errorf("mismatch:\n%s", pretty.Diff(out, want))
	}
}

func TestReaderByteAtATimeWithBackpressure(t *testing.T) {
	props, err := lzma.NewProperties(0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("fed one byte at a time with a sink that refuses every other byte")
	stream := append(buildChunk(t, props, data, ctrlPackedResetDict), byte(ctrlEOS))

	r := NewReader(1 << 12)
	var out []byte
	refuse := false
	sink := func(p []byte) int {
		if refuse {
			refuse = false
			return 0
		}
		refuse = true
		out = append(out, p...)
		return len(p)
	}

	pos := 0
	var leftover []byte
	guard := 0
	for !r.Finished() {
		guard++
		if guard > 20*len(stream)+1000 {
			t.Fatalf("stalled: have %d of %d bytes", len(out), len(data))
		}
		if pos < len(stream) {
			leftover = append(leftover, stream[pos])
			pos++
		}
		n, err := r.Process(leftover, sink)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		leftover = leftover[n:]
	}
	if string(out) != string(data) {
		t.Errorf("mismatch:\n%s", pretty.Diff(out, data))
	}
}

func TestControlByteSemantics(t *testing.T) {
	cases := []struct {
		ctrl                                         control
		eos, uncompressed, resetDict, resetState, newProps bool
	}{
		{ctrlEOS, true, false, false, false, false},
		{ctrlUncompressed, false, true, false, false, false},
		{ctrlUncompressedResetDict, false, true, true, false, false},
		{ctrlPackedNoReset, false, false, false, false, false},
		{ctrlPackedResetState, false, false, false, true, false},
		{ctrlPackedNewProps, false, false, false, true, true},
		{ctrlPackedResetDict, false, false, true, true, true},
	}
	for _, c := range cases {
		if got := c.ctrl.eos(); got != c.eos {
			t.Errorf("%#02x.eos() = %v, want %v", byte(c.ctrl), got, c.eos)
		}
		if got := c.ctrl.uncompressed(); got != c.uncompressed {
			t.Errorf("%#02x.uncompressed() = %v, want %v", byte(c.ctrl), got, c.uncompressed)
		}
		if got := c.ctrl.resetDict(); got != c.resetDict {
			t.Errorf("%#02x.resetDict() = %v, want %v", byte(c.ctrl), got, c.resetDict)
		}
		if got := c.ctrl.resetState(); got != c.resetState {
			t.Errorf("%#02x.resetState() = %v, want %v", byte(c.ctrl), got, c.resetState)
		}
		if got := c.ctrl.newProps(); got != c.newProps {
			t.Errorf("%#02x.newProps() = %v, want %v", byte(c.ctrl), got, c.newProps)
		}
	}
}

func TestDictSizeRoundTrip(t *testing.T) {
	sizes := []uint32{1 << 12, 1 << 16, 3 << 20, 1 << 26, MaxDictSize}
	for _, want := range sizes {
		b := DictSizeCeil(want)
		got := DictSizeFromByte(b)
		if got < want {
			t.Errorf("DictSizeCeil(%d) -> byte %d -> %d, which is below want", want, b, got)
		}
	}
}
