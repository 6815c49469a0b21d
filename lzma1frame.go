package xz

import "github.com/vccggorski/lzma-no-std-rs/lzma"

// lzma1HeaderSize is the classic standalone LZMA1 header: one properties
// byte, four little-endian dictionary-size bytes, then eight little-endian
// unpacked-size bytes (all 0xff meaning "unknown, terminated by the EOS
// marker instead").
const lzma1HeaderSize = 13

type lzma1Stage uint8

const (
	lzma1StageHeader lzma1Stage = iota
	lzma1StageRangeInit
	lzma1StageBody
	lzma1StageDone
)

// lzma1Frame drives a single classic LZMA1 stream: header parse, range
// coder bootstrap, then Decoder.Step calls until either the declared
// unpacked size is reached or an EOS operation is decoded.
type lzma1Frame struct {
	dict *lzma.Dict
	dec  *lzma.Decoder

	stage   lzma1Stage
	hdrBuf  [lzma1HeaderSize]byte
	hdrFill int

	dictCap         int
	allowIncomplete bool
	sizeOverride    int64

	unpackedSize int64 // -1 means unknown, rely on EOS
	emitted      int64

	// suspendOnInput records whether the most recent suspension was for
	// want of another input byte rather than sink backpressure. Stream
	// uses it to tell a genuinely truncated stream from ordinary
	// incremental feeding when the caller flushes with an empty input
	// slice and AllowIncomplete is false.
	suspendOnInput bool

	// dictAllocCap is the capacity f.dict was actually allocated with.
	// Headers across Resets almost always declare the same dictionary
	// size, so the header stage reuses dict/dec in place whenever the new
	// header fits; it only reallocates when a header demands more than
	// what is already there.
	dictAllocCap int
}

func newLZMA1Frame(dictCap int, allowIncomplete bool, sizeOverride int64) *lzma1Frame {
	return &lzma1Frame{dictCap: dictCap, allowIncomplete: allowIncomplete, sizeOverride: sizeOverride}
}

// Reset rewinds the frame to parse a fresh LZMA1 stream, reusing its
// dictionary and decoder in place rather than reallocating them.
func (f *lzma1Frame) Reset() {
	f.stage = lzma1StageHeader
	f.hdrFill = 0
	f.unpackedSize = -1
	f.emitted = 0
	f.suspendOnInput = false
	if f.dict != nil {
		f.dict.Reset()
	}
}

// SuspendedOnInput reports whether process's last suspension was caused by
// input exhaustion, as opposed to sink backpressure.
func (f *lzma1Frame) SuspendedOnInput() bool { return f.suspendOnInput }

func (f *lzma1Frame) process(src *lzma.Cursor, sink lzma.SinkFunc) (done bool, err error) {
	for {
		switch f.stage {
		case lzma1StageHeader:
			for f.hdrFill < lzma1HeaderSize {
				b, ok := src.Next()
				if !ok {
					f.suspendOnInput = true
					return false, nil
				}
				f.hdrBuf[f.hdrFill] = b
				f.hdrFill++
			}
			props, err := lzma.PropertiesFromByte(f.hdrBuf[0])
			if err != nil {
				return false, err
			}
			declaredDictCap := int(le32(f.hdrBuf[1:5]))
			if declaredDictCap < lzma.MinDictCap {
				declaredDictCap = lzma.MinDictCap
			}
			if f.dictCap != 0 && declaredDictCap > f.dictCap {
				return false, ErrDictionaryTooLarge
			}
			if f.dict == nil || declaredDictCap > f.dictAllocCap {
				f.dict = lzma.NewDict(declaredDictCap)
				f.dictAllocCap = declaredDictCap
				f.dec = lzma.NewDecoder(props, f.dict)
			} else {
				f.dict.Reset()
				if f.dec == nil {
					f.dec = lzma.NewDecoder(props, f.dict)
				} else {
					f.dec.ResetStateAndProps(props)
					f.dec.ResetRangeCoder()
				}
			}
			f.unpackedSize = -1
			sz := le64(f.hdrBuf[5:13])
			if sz != ^uint64(0) {
				f.unpackedSize = int64(sz)
			}
			if f.sizeOverride >= 0 {
				f.unpackedSize = f.sizeOverride
			}
			f.stage = lzma1StageRangeInit
			continue

		case lzma1StageRangeInit:
			if err := f.dec.InitRangeCoder(src); err != nil {
				if lzma.IsNeedMoreInput(err) {
					f.suspendOnInput = true
					return false, nil
				}
				return false, err
			}
			f.stage = lzma1StageBody
			continue

		case lzma1StageBody:
			if f.unpackedSize >= 0 && f.emitted > f.unpackedSize {
				return false, ErrOutputTooLong
			}
			if f.unpackedSize >= 0 && f.emitted == f.unpackedSize {
				f.stage = lzma1StageDone
				return true, nil
			}
			if err := f.dec.Step(src, sink); err != nil {
				if lzma.IsNeedMoreInput(err) {
					f.suspendOnInput = true
					return false, nil
				}
				if lzma.IsBackpressure(err) {
					f.suspendOnInput = false
					return false, nil
				}
				return false, err
			}
			// The dictionary is reset at every header, so its total is
			// this stream's output so far, including bytes of a match
			// copy delivered before an earlier backpressure suspension.
			f.emitted = f.dict.Total()
			if f.dec.EOSReached() {
				if !f.dec.RangeCoderFinishedCleanly() {
					return false, ErrCorruptedStream
				}
				f.stage = lzma1StageDone
				return true, nil
			}
			continue

		case lzma1StageDone:
			return true, nil
		}
	}
}

func le32(p []byte) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}

func le64(p []byte) uint64 {
	var u uint64
	for i := 7; i >= 0; i-- {
		u = u<<8 | uint64(p[i])
	}
	return u
}
