package lzma2

import "github.com/vccggorski/lzma-no-std-rs/lzma"

type chunkHeader struct {
	ctrl         control
	unpackedSize uint32
	packedSize   uint32
	props        lzma.Properties
	hasProps     bool
}

type chunkHeaderStage uint8

const (
	chHdrCtrl chunkHeaderStage = iota
	chHdrSize1
	chHdrSize2
	chHdrPacked1
	chHdrPacked2
	chHdrProps
	chHdrDone
)

// chunkHeaderCursor parses one LZMA2 chunk header, one byte at a time, so
// it can suspend at any byte boundary and resume across Process calls.
type chunkHeaderCursor struct {
	stage chunkHeaderStage
	hdr   chunkHeader
	b0    byte
}

func (c *chunkHeaderCursor) start() {
	c.stage = chHdrCtrl
	c.hdr = chunkHeader{}
}

// step advances the parse by as much as the available input allows. It
// returns done=true once hdr is fully populated.
func (c *chunkHeaderCursor) step(src *lzma.Cursor) (done bool, err error) {
	for {
		switch c.stage {
		case chHdrCtrl:
			b, ok := src.Next()
			if !ok {
				return false, errNeedMoreInput
			}
			c.hdr.ctrl = control(b)
			if c.hdr.ctrl.eos() {
				c.stage = chHdrDone
				return true, nil
			}
			c.stage = chHdrSize1

		case chHdrSize1:
			b, ok := src.Next()
			if !ok {
				return false, errNeedMoreInput
			}
			c.b0 = b
			c.stage = chHdrSize2

		case chHdrSize2:
			b, ok := src.Next()
			if !ok {
				return false, errNeedMoreInput
			}
			raw := uint32(c.b0)<<8 | uint32(b)
			if c.hdr.ctrl.uncompressed() {
				c.hdr.unpackedSize = raw + 1
				c.stage = chHdrDone
				return true, nil
			}
			c.hdr.unpackedSize = c.hdr.ctrl.unpackedSizeHighBits() | raw
			c.hdr.unpackedSize++
			c.stage = chHdrPacked1

		case chHdrPacked1:
			b, ok := src.Next()
			if !ok {
				return false, errNeedMoreInput
			}
			c.b0 = b
			c.stage = chHdrPacked2

		case chHdrPacked2:
			b, ok := src.Next()
			if !ok {
				return false, errNeedMoreInput
			}
			c.hdr.packedSize = (uint32(c.b0)<<8 | uint32(b)) + 1
			if c.hdr.ctrl.newProps() {
				c.stage = chHdrProps
			} else {
				c.stage = chHdrDone
				return true, nil
			}

		case chHdrProps:
			b, ok := src.Next()
			if !ok {
				return false, errNeedMoreInput
			}
			props, err := lzma.PropertiesFromByte(b)
			if err != nil {
				return false, err
			}
			c.hdr.props = props
			c.hdr.hasProps = true
			c.stage = chHdrDone
			return true, nil

		case chHdrDone:
			return true, nil
		}
	}
}
