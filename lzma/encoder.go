package lzma

// rangeEncoder is the mirror image of rangeDecoder. It exists only so this
// package can produce small fixtures for round-trip tests; the core's
// scope is decoding, so unlike the decoder side this type is free to grow
// its output buffer.
type rangeEncoder struct {
	low       uint64
	rng       uint32
	cacheSize int64
	cache     byte
	out       []byte
}

func newRangeEncoder() *rangeEncoder {
	return &rangeEncoder{rng: 0xFFFFFFFF, cacheSize: 1}
}

func (e *rangeEncoder) shiftLow() {
	if uint32(e.low) < 0xFF000000 || (e.low>>32) != 0 {
		temp := e.cache
		for {
			e.out = append(e.out, temp+byte(e.low>>32))
			temp = 0xFF
			e.cacheSize--
			if e.cacheSize == 0 {
				break
			}
		}
		e.cache = byte(e.low >> 24)
	}
	e.cacheSize++
	e.low = (e.low << 8) & 0xFFFFFFFF
}

func (e *rangeEncoder) encodeBit(p *prob, bit uint32) {
	bound := p.bound(e.rng)
	if bit == 0 {
		e.rng = bound
		p.inc()
	} else {
		e.low += uint64(bound)
		e.rng -= bound
		p.dec()
	}
	for e.rng < rcTop {
		e.rng <<= 8
		e.shiftLow()
	}
}

func (e *rangeEncoder) flush() {
	for i := 0; i < 5; i++ {
		e.shiftLow()
	}
}

// Encoder produces a classic LZMA1 range-coded body containing nothing but
// literals: every symbol is flagged as a non-match and encoded through the
// ordinary literal coder. It is not a compressor — its only job is
// generating input the decoder can be exercised against in tests without
// depending on a real LZMA implementation to produce fixtures.
type Encoder struct {
	re       rangeEncoder
	isMatch  [numStates << maxPosBits]prob
	lit      literalCoder
	props    Properties
	total    int64
	prevByte byte
}

// NewEncoder constructs a literal-only encoder for the given properties.
func NewEncoder(props Properties) *Encoder {
	e := &Encoder{props: props, re: *newRangeEncoder()}
	initProbs(e.isMatch[:])
	e.lit.setProperties(props.LC, props.LP)
	return e
}

// EncodeByte appends one literal byte to the compressed stream.
func (e *Encoder) EncodeByte(b byte) {
	posState := uint32(e.total) & ((1 << uint(e.props.PB)) - 1)
	state2 := posState // state is always 0 for a literal-only stream
	e.re.encodeBit(&e.isMatch[state2], 0)

	litState := e.lit.litState(e.total, e.prevByte)
	probs := e.lit.probsFor(litState)
	symbol := uint32(1)
	r := uint32(b)
	for symbol < 0x100 {
		bit := (r >> 7) & 1
		r <<= 1
		e.re.encodeBit(&probs[symbol], bit)
		symbol = (symbol << 1) | bit
	}
	e.prevByte = b
	e.total++
}

// Finish flushes the range coder and returns the compressed body. The
// returned slice does not include the classic LZMA1 header; callers build
// that separately (see EncodeLZMA1 in the xz package) so tests can exercise
// header parsing independently of the body.
func (e *Encoder) Finish() []byte {
	e.re.flush()
	return e.re.out
}
