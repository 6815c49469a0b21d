package lzma

// maxPosStates bounds the pos_state dimension of the length and isMatch
// tables; pb tops out at 4, so 16 rows always suffice regardless of the
// properties actually in force.
const maxPosStates = 1 << MaxPB

// lengthDecoder holds the probabilities for one of the two length coders
// (match length and rep-match length share the shape but not the state).
type lengthDecoder struct {
	choice  prob
	choice2 prob
	low     [maxPosStates][8]prob
	mid     [maxPosStates][8]prob
	high    [256]prob
}

func (c *lengthDecoder) reset() {
	c.choice = probInit
	c.choice2 = probInit
	for i := range c.low {
		initProbs(c.low[i][:])
	}
	for i := range c.mid {
		initProbs(c.mid[i][:])
	}
	initProbs(c.high[:])
}

type lengthStage uint8

const (
	lenStageChoice lengthStage = iota
	lenStageChoice2
	lenStageLow
	lenStageMid
	lenStageHigh
	lenStageDone
)

// lengthCursor decodes one length code, bit by bit, resumable across input
// chunk boundaries. raw is the zero-based code used directly as the
// dist coder's length-state selector; the caller adds 2 to get the actual
// match length.
type lengthCursor struct {
	stage lengthStage
	tree  bitTreeCursor
	raw   uint32
}

func (lc *lengthCursor) start() {
	lc.stage = lenStageChoice
}

func (lc *lengthCursor) step(d *rangeDecoder, c *lengthDecoder, posState uint32, src *Cursor) (bool, error) {
	switch lc.stage {
	case lenStageChoice:
		bit, err := d.decodeBit(&c.choice, src)
		if err != nil {
			return false, err
		}
		if bit == 0 {
			lc.stage = lenStageLow
			lc.tree.start(3)
		} else {
			lc.stage = lenStageChoice2
		}
		return false, nil

	case lenStageChoice2:
		bit, err := d.decodeBit(&c.choice2, src)
		if err != nil {
			return false, err
		}
		if bit == 0 {
			lc.stage = lenStageMid
			lc.tree.start(3)
		} else {
			lc.stage = lenStageHigh
			lc.tree.start(8)
		}
		return false, nil

	case lenStageLow:
		if err := lc.tree.step(d, c.low[posState][:], src); err != nil {
			return false, err
		}
		if !lc.tree.done() {
			return false, nil
		}
		lc.raw = lc.tree.symbol()
		lc.stage = lenStageDone
		return true, nil

	case lenStageMid:
		if err := lc.tree.step(d, c.mid[posState][:], src); err != nil {
			return false, err
		}
		if !lc.tree.done() {
			return false, nil
		}
		lc.raw = 8 + lc.tree.symbol()
		lc.stage = lenStageDone
		return true, nil

	case lenStageHigh:
		if err := lc.tree.step(d, c.high[:], src); err != nil {
			return false, err
		}
		if !lc.tree.done() {
			return false, nil
		}
		lc.raw = 16 + lc.tree.symbol()
		lc.stage = lenStageDone
		return true, nil
	}
	return true, nil
}

// lenState maps a raw length code to the 0..3 selector used to pick the
// distance slot model; it is equivalent to min(length-2, 3).
func lenState(raw uint32) uint32 {
	if raw >= lenStatesCount {
		return lenStatesCount - 1
	}
	return raw
}
