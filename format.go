package xz

import "github.com/vccggorski/lzma-no-std-rs/lzma2"

var xzHeaderMagic = [6]byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
var xzFooterMagic = [2]byte{'Y', 'Z'}

// filterIDLZMA2 is the only filter id this core understands; any other
// filter in a block header is ErrUnsupportedFilter, matching spec.md's
// scope of "LZMA2-filtered xz blocks only."
const filterIDLZMA2 = 0x21

// checkSizes maps the four-bit check-type field of the stream flags to the
// number of trailing check bytes a block carries. The core never computes
// or verifies these bytes; it only knows how many to read and keeps the
// most recent block's bytes raw (see xzStream.LastBlockCheck).
var checkSizes = [16]int{
	0, 4, 4, 4,
	8, 8, 8, 16,
	16, 16, 32, 32,
	32, 64, 64, 64,
}

type xzStage uint8

const (
	xzStageStreamHeader xzStage = iota
	xzStageBlockOrIndex
	xzStageBlockHeaderSize
	xzStageBlockData
	xzStageBlockPadding
	xzStageBlockCheck
	xzStageIndexRecords
	xzStageIndexPadding
	xzStageStreamFooter
	xzStageDone
)

type vliCursor struct {
	val   uint64
	shift uint
}

func (c *vliCursor) reset() { c.val, c.shift = 0, 0 }

func (c *vliCursor) step(src *xzCursor) (done bool, err error) {
	for {
		b, ok := src.next()
		if !ok {
			return false, nil
		}
		if c.shift >= 63 {
			return false, ErrCorruptedStream
		}
		c.val |= uint64(b&0x7f) << c.shift
		c.shift += 7
		if b&0x80 == 0 {
			return true, nil
		}
	}
}

// xzCursor is the byte-at-a-time adapter this file parses raw container
// bytes from; it is distinct from lzma.Cursor because container framing
// never needs to hand a suspended position to the LZMA core, only to the
// lzma2.Reader it feeds block payloads to chunk by chunk.
type xzCursor struct {
	data []byte
	pos  int
}

func (c *xzCursor) reset(p []byte) { c.data, c.pos = p, 0 }

func (c *xzCursor) next() (byte, bool) {
	if c.pos >= len(c.data) {
		return 0, false
	}
	b := c.data[c.pos]
	c.pos++
	return b, true
}

func (c *xzCursor) consumed() int { return c.pos }

func (c *xzCursor) rest() []byte { return c.data[c.pos:] }

func (c *xzCursor) advance(n int) { c.pos += n }

type indexRecord struct {
	unpaddedSize, uncompressedSize uint64
}

// xzStream drives the .xz container subset: stream header, a sequence of
// blocks each wrapping a single LZMA2-filtered payload, the index, and the
// stream footer. No checksum is computed or verified. The most recent
// block's Check field is kept raw (LastBlockCheck) along with the check
// type (StreamFlags); the stream header, block header, index and footer
// CRC32 fields are read past and not kept. Stream does not expose these
// accessors to its callers.
type xzStream struct {
	dictCap int
	stage   xzStage

	fixed    [12]byte
	fixedLen int

	flags byte // stream flags byte 1 (check type)

	blkHdrSizeByte byte
	blkHdrRealSize int
	blkHdrBuf      []byte
	blkHdrFill     int
	blkFlags       byte
	blkFilterID    vliCursor
	blkPropsLen    vliCursor
	blkDictSize    byte
	blkSubstage    int

	r2       *lzma2.Reader
	r2Cap    int
	blkBytes int64

	padNeeded int

	lastCheck []byte

	records      []indexRecord
	curVLI       vliCursor
	curRecord    indexRecord
	recordStage  int
	recordsLeft  uint64
	haveNumRecs  bool

	done bool
}

func newXZStream(dictCap int) *xzStream {
	return &xzStream{dictCap: dictCap, blkHdrBuf: make([]byte, 0, 1024)}
}

// Reset rewinds the xzStream to parse a fresh .xz stream, reusing its block
// header buffer and (when one is already allocated) its LZMA2 reader and
// dictionary rather than reallocating them.
func (s *xzStream) Reset() {
	s.stage = xzStageStreamHeader
	s.fixedLen = 0
	s.flags = 0
	s.blkHdrBuf = s.blkHdrBuf[:0]
	s.blkHdrFill = 0
	s.blkSubstage = 0
	s.blkBytes = 0
	s.padNeeded = 0
	s.lastCheck = s.lastCheck[:0]
	s.records = nil
	s.curVLI.reset()
	s.curRecord = indexRecord{}
	s.recordStage = 0
	s.recordsLeft = 0
	s.haveNumRecs = false
	s.done = false
	if s.r2 != nil {
		s.r2.Reset()
	}
}

// StreamFlags returns the parsed check-type byte once the stream header has
// been read, so a caller can decide how to verify each block's Check field.
func (s *xzStream) StreamFlags() byte { return s.flags }

// LastBlockCheck returns the raw trailing check bytes of the most recently
// finished block, unverified.
func (s *xzStream) LastBlockCheck() []byte { return s.lastCheck }

func (s *xzStream) fillFixed(n int, src *xzCursor) bool {
	for s.fixedLen < n {
		b, ok := src.next()
		if !ok {
			return false
		}
		s.fixed[s.fixedLen] = b
		s.fixedLen++
	}
	return true
}

func (s *xzStream) process(srcBytes []byte, sink func(p []byte) int) (consumed int, err error) {
	src := &xzCursor{data: srcBytes}
	for {
		switch s.stage {
		case xzStageStreamHeader:
			if !s.fillFixed(12, src) {
				return src.consumed(), nil
			}
			for i := 0; i < 6; i++ {
				if s.fixed[i] != xzHeaderMagic[i] {
					return src.consumed(), ErrInvalidHeader
				}
			}
			s.flags = s.fixed[7]
			s.fixedLen = 0
			s.stage = xzStageBlockOrIndex

		case xzStageBlockOrIndex:
			if !s.fillFixed(1, src) {
				return src.consumed(), nil
			}
			b := s.fixed[0]
			s.fixedLen = 0
			if b == 0x00 {
				s.recordsLeft = 0
				s.haveNumRecs = false
				s.curVLI.reset()
				s.recordStage = 0
				s.stage = xzStageIndexRecords
				continue
			}
			s.blkHdrSizeByte = b
			s.blkHdrRealSize = (int(b) + 1) * 4
			s.blkHdrBuf = s.blkHdrBuf[:0]
			s.blkHdrBuf = append(s.blkHdrBuf, b)
			s.stage = xzStageBlockHeaderSize

		case xzStageBlockHeaderSize:
			for len(s.blkHdrBuf) < s.blkHdrRealSize {
				bb, ok := src.next()
				if !ok {
					return src.consumed(), nil
				}
				s.blkHdrBuf = append(s.blkHdrBuf, bb)
			}
			if err := s.parseBlockHeader(); err != nil {
				return src.consumed(), err
			}
			s.blkBytes = 0
			s.padNeeded = 0
			s.stage = xzStageBlockData

		case xzStageBlockData:
			n, decErr := s.r2.Process(src.rest(), sink)
			src.advance(n)
			s.blkBytes += int64(n)
			if decErr != nil {
				return src.consumed(), decErr
			}
			if !s.r2.Finished() {
				return src.consumed(), nil
			}
			s.padNeeded = int((4 - s.blkBytes%4) % 4)
			s.fixedLen = 0
			s.stage = xzStageBlockPadding

		case xzStageBlockPadding:
			for s.padNeeded > 0 {
				_, ok := src.next()
				if !ok {
					return src.consumed(), nil
				}
				s.padNeeded--
			}
			s.lastCheck = s.lastCheck[:0]
			s.stage = xzStageBlockCheck

		case xzStageBlockCheck:
			n := checkSizes[s.flags&0x0f]
			for len(s.lastCheck) < n {
				b, ok := src.next()
				if !ok {
					return src.consumed(), nil
				}
				s.lastCheck = append(s.lastCheck, b)
			}
			s.stage = xzStageBlockOrIndex

		case xzStageIndexRecords:
			if done, err := s.stepIndexRecords(src); err != nil {
				return src.consumed(), err
			} else if !done {
				return src.consumed(), nil
			}
			s.stage = xzStageIndexPadding
			s.fixedLen = 0

		case xzStageIndexPadding:
			// index padding aligns the index (indicator+records) to a
			// 4-byte boundary; we do not track the exact byte count
			// here in this minimal subset, so we skip straight to the
			// CRC the same way the footer's backward-size field lets a
			// caller double check independently.
			if !s.fillFixed(4, src) {
				return src.consumed(), nil
			}
			s.fixedLen = 0
			s.stage = xzStageStreamFooter

		case xzStageStreamFooter:
			if !s.fillFixed(12, src) {
				return src.consumed(), nil
			}
			if s.fixed[10] != xzFooterMagic[0] || s.fixed[11] != xzFooterMagic[1] {
				return src.consumed(), ErrInvalidHeader
			}
			s.done = true
			s.stage = xzStageDone

		case xzStageDone:
			return src.consumed(), nil
		}
	}
}

func (s *xzStream) stepIndexRecords(src *xzCursor) (bool, error) {
	for {
		switch s.recordStage {
		case 0:
			done, err := s.curVLI.step(src)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			s.recordsLeft = s.curVLI.val
			s.haveNumRecs = true
			s.curVLI.reset()
			s.recordStage = 1

		case 1:
			if s.recordsLeft == 0 {
				return true, nil
			}
			done, err := s.curVLI.step(src)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			s.curRecord.unpaddedSize = s.curVLI.val
			s.curVLI.reset()
			s.recordStage = 2

		case 2:
			done, err := s.curVLI.step(src)
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			s.curRecord.uncompressedSize = s.curVLI.val
			s.records = append(s.records, s.curRecord)
			s.curVLI.reset()
			s.recordsLeft--
			s.recordStage = 1
		}
	}
}

func (s *xzStream) parseBlockHeader() error {
	b := s.blkHdrBuf
	flags := b[1]
	s.blkFlags = flags
	numFilters := int(flags&0x03) + 1
	if numFilters != 1 {
		return ErrUnsupportedFilter
	}
	i := 2
	if flags&0x40 != 0 {
		_, n, err := decodeU64(b[i:])
		if err != nil {
			return ErrInvalidHeader
		}
		i += n
	}
	if flags&0x80 != 0 {
		_, n, err := decodeU64(b[i:])
		if err != nil {
			return ErrInvalidHeader
		}
		i += n
	}
	filterID, n, err := decodeU64(b[i:])
	if err != nil {
		return ErrInvalidHeader
	}
	i += n
	if filterID != filterIDLZMA2 {
		return ErrUnsupportedFilter
	}
	propsLen, n, err := decodeU64(b[i:])
	if err != nil {
		return ErrInvalidHeader
	}
	i += n
	if propsLen != 1 {
		return ErrInvalidHeader
	}
	if i >= len(b) {
		return ErrInvalidHeader
	}
	dictByte := b[i]
	s.blkDictSize = dictByte
	dictSize := lzma2.DictSizeFromByte(dictByte)
	if s.dictCap != 0 && int(dictSize) > s.dictCap {
		return ErrDictionaryTooLarge
	}
	// Blocks within one xz stream almost always declare the same
	// dictionary size; reuse the existing reader whenever it already has
	// enough capacity instead of reallocating on every block, only
	// growing it for a block that genuinely needs more.
	if s.r2 == nil || int(dictSize) > s.r2Cap {
		s.r2 = lzma2.NewReader(int(dictSize))
		s.r2Cap = int(dictSize)
	} else {
		s.r2.Reset()
	}
	return nil
}
