package lzma

// maxLitProbs is the largest literal probability table lc+lp<=4 can ever
// need; the table is embedded at this fixed size so changing properties
// between LZMA2 chunks never reallocates, only re-initializes the active
// sub-slice.
const maxLitProbs = (1 << maxLCPlusLP) * 0x300

type literalCoder struct {
	probs  [maxLitProbs]prob
	lc, lp int
}

// setProperties re-initializes the active portion of the table for the
// given lc, lp. It never allocates.
func (c *literalCoder) setProperties(lc, lp int) {
	c.lc, c.lp = lc, lp
	n := (1 << uint(lc+lp)) * 0x300
	initProbs(c.probs[:n])
}

// litState computes the literal context index from the number of bytes
// written so far and the previously decoded byte.
func (c *literalCoder) litState(total int64, prevByte byte) uint32 {
	low := uint32(total) & ((1 << uint(c.lp)) - 1)
	return (low << uint(c.lc)) | (uint32(prevByte) >> uint(8-c.lc))
}

func (c *literalCoder) probsFor(litState uint32) []prob {
	k := litState * 0x300
	return c.probs[k : k+0x300]
}

// literalCursor decodes one literal byte bit by bit, resumable across
// chunk boundaries. When state indicates the previous operation was a
// match, the first bits are decoded against a matched-literal context that
// mixes in the bits of matchByte until the first mismatch.
type literalCursor struct {
	symbol  uint32
	m       uint32
	matched bool
}

func (lc *literalCursor) start(state uint32, matchByte byte) {
	lc.symbol = 1
	lc.m = uint32(matchByte)
	lc.matched = state >= 7
}

func (lc *literalCursor) done() bool { return lc.symbol >= 0x100 }

func (lc *literalCursor) step(d *rangeDecoder, probs []prob, src *Cursor) error {
	if lc.matched {
		matchBit := (lc.m >> 7) & 1
		idx := ((1 + matchBit) << 8) | lc.symbol
		bit, err := d.decodeBit(&probs[idx], src)
		if err != nil {
			return err
		}
		lc.m <<= 1
		lc.symbol = (lc.symbol << 1) | bit
		if matchBit != bit || lc.symbol >= 0x100 {
			lc.matched = false
		}
		return nil
	}
	bit, err := d.decodeBit(&probs[lc.symbol], src)
	if err != nil {
		return err
	}
	lc.symbol = (lc.symbol << 1) | bit
	return nil
}

func (lc *literalCursor) byteValue() byte { return byte(lc.symbol - 0x100) }
