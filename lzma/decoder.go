package lzma

// SinkFunc receives decoded output. It must return the number of leading
// bytes of p it actually accepted; returning less than len(p) signals
// backpressure and suspends the decoder exactly between bytes, never
// mid-byte.
type SinkFunc func(p []byte) (accepted int)

type symbolStage uint8

const (
	stageStart symbolStage = iota
	stageLiteral
	stageIsRep
	stageMatchLen
	stageMatchDist
	stageIsRepG0
	stageIsRepG0Long
	stageIsRepG1
	stageIsRepG2
	stageRepLen
)

// Decoder runs the LZMA symbol state machine against a dictionary and a
// range-coded input stream. It never allocates after construction: every
// cursor it suspends through is a value field, not a heap object.
type Decoder struct {
	model Model
	rc    rangeDecoder
	dict  *Dict

	stage    symbolStage
	lit      literalCursor
	litProbs []prob
	length   lengthCursor
	dist     distCursor
	matchRaw uint32

	op     operation
	haveOp bool
	eos    bool

	copyRemaining int
	copyDist      uint32
	emitBuf       [1]byte
}

// NewDecoder constructs a Decoder over an externally owned dictionary. The
// dictionary's lifetime spans a whole LZMA1 stream, or in LZMA2 multiple
// chunks across which the Decoder itself may be fully reset.
func NewDecoder(props Properties, d *Dict) *Decoder {
	dec := &Decoder{dict: d}
	dec.model.Reset(props)
	return dec
}

// ResetState reinitializes probabilities, the 12-state classifier and the
// rep ring without changing the literal coder's sizing.
func (d *Decoder) ResetState() {
	d.model.ResetState()
	d.resetTransient()
}

// ResetStateAndProps is ResetState plus a change of lc/lp/pb, as LZMA2's
// "new properties" chunk control demands.
func (d *Decoder) ResetStateAndProps(props Properties) {
	d.model.Reset(props)
	d.resetTransient()
}

// ResetRangeCoder rewinds the range coder so the next input byte is
// expected to be the start of a fresh five-byte header, as required at the
// start of every LZMA2 compressed chunk.
func (d *Decoder) ResetRangeCoder() {
	d.rc.reset()
}

func (d *Decoder) resetTransient() {
	d.stage = stageStart
	d.haveOp = false
	d.copyRemaining = 0
}

// InitRangeCoder consumes the five-byte range-coder header from src. It may
// be called repeatedly across chunk boundaries until it returns nil.
func (d *Decoder) InitRangeCoder(src *Cursor) error {
	return d.rc.initFrom(src)
}

// RangeCoderFinishedCleanly reports whether the range coder's internal code
// register drained to zero, which a well-formed LZMA1 stream guarantees at
// the final byte.
func (d *Decoder) RangeCoderFinishedCleanly() bool {
	return d.rc.finishedCleanly()
}

// EOSReached reports whether the end-of-stream marker has been decoded.
func (d *Decoder) EOSReached() bool { return d.eos }

// Step decodes and applies exactly one LZMA operation (a literal, a match
// copy or a short rep). It returns errNeedMoreInput if src ran out before
// the operation was fully decoded, or errBackpressure if sink refused a
// byte partway through applying a match copy; in both cases the Decoder's
// internal state captures exactly where to resume.
func (d *Decoder) Step(src *Cursor, sink SinkFunc) error {
	if !d.haveOp {
		if err := d.decodeOp(src); err != nil {
			return err
		}
		d.haveOp = true
	}
	if err := d.applyOp(sink); err != nil {
		return err
	}
	d.haveOp = false
	d.copyRemaining = 0
	return nil
}

func (d *Decoder) decodeOp(src *Cursor) error {
	m := &d.model
	for {
		switch d.stage {
		case stageStart:
			posState := d.dict.posState(m.props.PB)
			state2 := (m.state << maxPosBits) | posState
			bit, err := d.rc.decodeBit(&m.isMatch[state2], src)
			if err != nil {
				return err
			}
			if bit == 0 {
				matchByte, _ := d.dict.byteAt(m.rep[0])
				prevByte, _ := d.dict.byteAt(1)
				d.lit.start(m.state, matchByte)
				d.litProbs = m.lit.probsFor(m.lit.litState(d.dict.total, prevByte))
				d.stage = stageLiteral
				continue
			}
			d.stage = stageIsRep
			continue

		case stageLiteral:
			if err := d.lit.step(&d.rc, d.litProbs, src); err != nil {
				return err
			}
			if !d.lit.done() {
				continue
			}
			m.updateStateLiteral()
			d.op = operation{kind: opLiteral, b: d.lit.byteValue()}
			d.stage = stageStart
			return nil

		case stageIsRep:
			bit, err := d.rc.decodeBit(&m.isRep[m.state], src)
			if err != nil {
				return err
			}
			if bit == 0 {
				m.rep[3], m.rep[2], m.rep[1] = m.rep[2], m.rep[1], m.rep[0]
				m.updateStateMatch()
				d.length.start()
				d.stage = stageMatchLen
				continue
			}
			d.stage = stageIsRepG0
			continue

		case stageMatchLen:
			posState := d.dict.posState(m.props.PB)
			done, err := d.length.step(&d.rc, &m.lenCoder, posState, src)
			if err != nil {
				return err
			}
			if !done {
				continue
			}
			d.matchRaw = d.length.raw
			d.dist.start()
			d.stage = stageMatchDist
			continue

		case stageMatchDist:
			done, err := d.dist.step(&d.rc, &m.distCoder, lenState(d.matchRaw), src)
			if err != nil {
				return err
			}
			if !done {
				continue
			}
			if d.dist.result == eosDist {
				d.op = operation{kind: opEOS}
				d.stage = stageStart
				return nil
			}
			distance := d.dist.result + 1
			m.rep[0] = distance
			d.op = operation{kind: opMatch, dist: distance, length: int(d.matchRaw) + 2}
			d.stage = stageStart
			return nil

		case stageIsRepG0:
			bit, err := d.rc.decodeBit(&m.isRepG0[m.state], src)
			if err != nil {
				return err
			}
			if bit == 0 {
				d.stage = stageIsRepG0Long
			} else {
				d.stage = stageIsRepG1
			}
			continue

		case stageIsRepG0Long:
			posState := d.dict.posState(m.props.PB)
			state2 := (m.state << maxPosBits) | posState
			bit, err := d.rc.decodeBit(&m.isRepG0Long[state2], src)
			if err != nil {
				return err
			}
			if bit == 0 {
				m.updateStateShortRep()
				d.op = operation{kind: opShortRep, dist: m.rep[0], length: 1}
				d.stage = stageStart
				return nil
			}
			m.updateStateRep()
			d.length.start()
			d.stage = stageRepLen
			continue

		case stageIsRepG1:
			bit, err := d.rc.decodeBit(&m.isRepG1[m.state], src)
			if err != nil {
				return err
			}
			if bit == 0 {
				m.rep[0], m.rep[1] = m.rep[1], m.rep[0]
			} else {
				d.stage = stageIsRepG2
				continue
			}
			m.updateStateRep()
			d.length.start()
			d.stage = stageRepLen
			continue

		case stageIsRepG2:
			bit, err := d.rc.decodeBit(&m.isRepG2[m.state], src)
			if err != nil {
				return err
			}
			var sel uint32
			if bit == 0 {
				sel = m.rep[2]
				m.rep[2] = m.rep[1]
			} else {
				sel = m.rep[3]
				m.rep[3] = m.rep[2]
				m.rep[2] = m.rep[1]
			}
			m.rep[1] = m.rep[0]
			m.rep[0] = sel
			m.updateStateRep()
			d.length.start()
			d.stage = stageRepLen
			continue

		case stageRepLen:
			posState := d.dict.posState(m.props.PB)
			done, err := d.length.step(&d.rc, &m.repLenCoder, posState, src)
			if err != nil {
				return err
			}
			if !done {
				continue
			}
			d.op = operation{kind: opMatch, dist: m.rep[0], length: int(d.length.raw) + 2}
			d.stage = stageStart
			return nil
		}
	}
}

func (d *Decoder) applyOp(sink SinkFunc) error {
	switch d.op.kind {
	case opEOS:
		d.eos = true
		return nil

	case opLiteral:
		if d.copyRemaining == 0 {
			d.copyRemaining = 1
		}
		for d.copyRemaining > 0 {
			b := d.op.b
			d.emitBuf[0] = b
			if sink(d.emitBuf[:]) < 1 {
				return errBackpressure
			}
			d.dict.push(b)
			d.copyRemaining--
		}
		return nil

	case opMatch, opShortRep:
		if d.copyRemaining == 0 {
			d.copyRemaining = d.op.length
			d.copyDist = d.op.dist
		}
		for d.copyRemaining > 0 {
			b, ok := d.dict.byteAt(d.copyDist)
			if !ok {
				return ErrCorruptedStream
			}
			d.emitBuf[0] = b
			if sink(d.emitBuf[:]) < 1 {
				return errBackpressure
			}
			d.dict.push(b)
			d.copyRemaining--
		}
		return nil
	}
	return nil
}
