package lzma

// rangeDecoder implements the binary range coder used throughout LZMA. It
// is resumable: whenever a chunk boundary lands mid-normalization, the
// pending flag records that the low byte of code is still owed, and the
// next call supplying fresh input fills it in without re-doing any of the
// arithmetic already performed.
type rangeDecoder struct {
	rng     uint32
	code    uint32
	pending bool

	// headerFilled counts how many of the five classic LZMA range-coder
	// header bytes have been consumed so far; 5 once init is complete.
	headerFilled int
	initialized  bool
}

const rcTop = uint32(1) << 24

func (d *rangeDecoder) reset() {
	*d = rangeDecoder{}
}

// initFrom consumes the five-byte range-coder header (a zero byte followed
// by the four most significant bytes of the initial code value) from src.
// It can be called repeatedly across chunk boundaries; headerFilled tracks
// progress so a partial header is never re-read.
func (d *rangeDecoder) initFrom(src *Cursor) error {
	for d.headerFilled < 5 {
		b, ok := src.next()
		if !ok {
			return errNeedMoreInput
		}
		if d.headerFilled == 0 {
			if b != 0 {
				return ErrInvalidHeader
			}
		} else {
			d.code = d.code<<8 | uint32(b)
		}
		d.headerFilled++
	}
	d.rng = 0xFFFFFFFF
	d.initialized = true
	return nil
}

// resume fills in the low byte of code that a prior normalize call could
// not obtain from an exhausted chunk.
func (d *rangeDecoder) resume(src *Cursor) error {
	b, ok := src.next()
	if !ok {
		return errNeedMoreInput
	}
	d.code |= uint32(b)
	d.pending = false
	return nil
}

func (d *rangeDecoder) normalize(src *Cursor) {
	if d.rng >= rcTop {
		return
	}
	d.rng <<= 8
	d.code <<= 8
	if b, ok := src.next(); ok {
		d.code |= uint32(b)
	} else {
		d.pending = true
	}
}

// decodeBit decodes one bit using and updating the adaptive probability p.
func (d *rangeDecoder) decodeBit(p *prob, src *Cursor) (uint32, error) {
	if d.pending {
		if err := d.resume(src); err != nil {
			return 0, err
		}
	}
	bound := p.bound(d.rng)
	var bit uint32
	if d.code < bound {
		d.rng = bound
		p.inc()
		bit = 0
	} else {
		d.code -= bound
		d.rng -= bound
		p.dec()
		bit = 1
	}
	d.normalize(src)
	return bit, nil
}

// decodeDirectBit decodes one bit with a fixed 50/50 split, used for the
// high-order distance bits that have no adaptive model.
func (d *rangeDecoder) decodeDirectBit(src *Cursor) (uint32, error) {
	if d.pending {
		if err := d.resume(src); err != nil {
			return 0, err
		}
	}
	d.rng >>= 1
	d.code -= d.rng
	t := 0 - (d.code >> 31)
	d.code += d.rng & t
	d.normalize(src)
	return (t + 1) & 1, nil
}

// finishedCleanly reports whether the decoder consumed its input exactly,
// as required at the end of an LZMA1 stream.
func (d *rangeDecoder) finishedCleanly() bool {
	return !d.pending && d.code == 0
}
