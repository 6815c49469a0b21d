package lzma2

import "github.com/vccggorski/lzma-no-std-rs/lzma"

// Reader drives the LZMA2 chunk framing: it parses chunk headers, resets
// the dictionary/decoder state/properties as each chunk's control byte
// demands, and dispatches chunk payloads either to a raw byte copy
// (uncompressed chunks) or to an lzma.Decoder (compressed chunks). It owns
// the long-lived dictionary and decoder instances so chunk boundaries never
// cost an allocation.
type Reader struct {
	dict *lzma.Dict
	dec  *lzma.Decoder

	hdrCursor     chunkHeaderCursor
	parsingHeader bool

	inChunk           bool
	hdr               chunkHeader
	rangeHeaderDone   bool
	chunkStartTotal   int64
	remainingUncompr  uint32

	finished bool
	emitBuf  [1]byte
	held     bool // emitBuf holds an uncompressed byte the sink refused
}

// NewReader constructs a Reader with a dictionary of the given capacity.
func NewReader(dictCap int) *Reader {
	return &Reader{dict: lzma.NewDict(dictCap)}
}

// Dict exposes the underlying dictionary, mainly so an enclosing xz block
// reader can report its fill level or feed it independently of LZMA2
// framing (it never needs to).
func (r *Reader) Dict() *lzma.Dict { return r.dict }

// Finished reports whether the LZMA2 end-of-stream control byte (0x00) has
// been parsed.
func (r *Reader) Finished() bool { return r.finished }

// Reset rewinds the Reader to start a fresh LZMA2 stream over the same
// dictionary capacity, without reallocating it.
func (r *Reader) Reset() {
	r.dict.Reset()
	r.dec = nil
	r.parsingHeader = false
	r.inChunk = false
	r.rangeHeaderDone = false
	r.finished = false
	r.held = false
}

// Process feeds input through LZMA2 chunk framing, writing decompressed
// bytes to sink. It returns the number of input bytes consumed; any
// shortfall versus len(input) means either more input is needed or sink
// applied backpressure, both of which are resumed transparently by calling
// Process again with the remaining input (and, for backpressure, a sink
// now willing to accept more).
func (r *Reader) Process(input []byte, sink lzma.SinkFunc) (consumed int, err error) {
	src := lzma.NewCursor(input)
	for {
		if r.finished {
			return src.Consumed(), nil
		}
		if !r.inChunk {
			if !r.parsingHeader {
				r.hdrCursor.start()
				r.parsingHeader = true
			}
			done, err := r.hdrCursor.step(src)
			if err != nil {
				if err == errNeedMoreInput {
					return src.Consumed(), nil
				}
				return src.Consumed(), err
			}
			if !done {
				continue
			}
			r.parsingHeader = false
			if err := r.startChunk(); err != nil {
				return src.Consumed(), err
			}
			continue
		}

		if r.hdr.ctrl.uncompressed() {
			for r.remainingUncompr > 0 {
				if !r.held {
					b, ok := src.Next()
					if !ok {
						return src.Consumed(), nil
					}
					r.emitBuf[0] = b
					r.held = true
				}
				if sink(r.emitBuf[:]) < 1 {
					return src.Consumed(), nil
				}
				r.held = false
				r.dict.PushLiteral(r.emitBuf[0])
				r.remainingUncompr--
			}
			r.inChunk = false
			continue
		}

		if !r.rangeHeaderDone {
			if err := r.dec.InitRangeCoder(src); err != nil {
				if lzma.IsNeedMoreInput(err) {
					return src.Consumed(), nil
				}
				return src.Consumed(), err
			}
			r.rangeHeaderDone = true
			continue
		}
		emitted := uint32(r.totalEmittedThisChunk())
		if emitted >= r.hdr.unpackedSize {
			r.inChunk = false
			continue
		}
		if err := r.dec.Step(src, sink); err != nil {
			if lzma.IsNeedMoreInput(err) || lzma.IsBackpressure(err) {
				return src.Consumed(), nil
			}
			return src.Consumed(), err
		}
		if r.dec.EOSReached() {
			r.inChunk = false
		}
	}
}

func (r *Reader) totalEmittedThisChunk() int64 {
	return r.dictTotal() - r.chunkStartTotal
}

// dictTotal reports the dictionary's lifetime byte count, used to measure
// progress within the current chunk; Dict.Len saturates at capacity so it
// cannot be used for this directly.
func (r *Reader) dictTotal() int64 {
	return r.dict.Total()
}

func (r *Reader) startChunk() error {
	h := r.hdrCursor.hdr
	r.hdr = h
	if h.ctrl.eos() {
		r.finished = true
		return nil
	}
	if h.ctrl.resetDict() {
		r.dict.Reset()
	}
	switch {
	case h.ctrl.uncompressed():
		r.remainingUncompr = h.unpackedSize
	default:
		switch {
		case h.ctrl.newProps():
			if r.dec == nil {
				r.dec = lzma.NewDecoder(h.props, r.dict)
			} else {
				r.dec.ResetStateAndProps(h.props)
			}
		case h.ctrl.resetState():
			if r.dec == nil {
				return newError("state reset before properties ever set")
			}
			r.dec.ResetState()
		default:
			if r.dec == nil {
				return newError("compressed chunk before properties ever set")
			}
		}
		r.dec.ResetRangeCoder()
		r.rangeHeaderDone = false
		r.chunkStartTotal = r.dictTotal()
	}
	r.inChunk = true
	return nil
}
