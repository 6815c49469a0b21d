package lzma2

// control is the first byte of an LZMA2 chunk header. Its top bit selects
// between an uncompressed chunk (0) and an LZMA-compressed chunk (1); the
// remaining bits encode, for compressed chunks, which of dictionary,
// decoder state and properties get reset before the chunk's payload.
type control byte

const (
	ctrlEOS                  control = 0x00
	ctrlUncompressedResetDict control = 0x01
	ctrlUncompressed         control = 0x02

	maskReset            control = 0xe0
	ctrlPackedNoReset    control = 0x80
	ctrlPackedResetState control = 0xa0
	ctrlPackedNewProps   control = 0xc0
	ctrlPackedResetDict  control = 0xe0
)

func (c control) eos() bool { return c == ctrlEOS }

func (c control) packed() bool { return c&0x80 != 0 }

func (c control) uncompressed() bool { return !c.packed() && !c.eos() }

func (c control) resetDict() bool {
	if !c.packed() {
		return c == ctrlUncompressedResetDict
	}
	return (c & maskReset) == ctrlPackedResetDict
}

func (c control) resetState() bool {
	if !c.packed() {
		return false
	}
	return (c & maskReset) >= ctrlPackedResetState
}

func (c control) newProps() bool {
	if !c.packed() {
		return false
	}
	return (c & maskReset) >= ctrlPackedNewProps
}

// unpackedSizeHighBits returns the top bits of a compressed chunk's
// unpacked size that are folded into the control byte itself.
func (c control) unpackedSizeHighBits() uint32 {
	if !c.packed() {
		return 0
	}
	return uint32(c&^maskReset) << 16
}
