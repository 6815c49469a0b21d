package xz

import "github.com/vccggorski/lzma-no-std-rs/lzma2"

// Format selects which framing Stream expects its input to carry.
type Format int

const (
	// FormatLZMA is the classic standalone LZMA1 stream: a 5-byte
	// properties+dictionary-size header, an 8-byte little-endian
	// unpacked size (or all-0xff for "unknown, rely on EOS marker"), then
	// a single range-coded body.
	FormatLZMA Format = iota
	// FormatLZMA2 is a bare LZMA2 chunk sequence with no surrounding
	// container: the format xz block payloads use internally.
	FormatLZMA2
	// FormatXZ is the full .xz container: stream header, one or more
	// blocks each wrapping an LZMA2 chunk sequence, an index, and a
	// stream footer.
	FormatXZ
)

// Config parameterizes a Stream. The zero Config is not valid on its own;
// call ApplyDefaults or rely on NewStream to apply them.
type Config struct {
	// Format selects the framing. Required.
	Format Format

	// DictCap bounds the dictionary capacity Stream will allocate. For
	// FormatLZMA and FormatXZ this is the ceiling a header's declared
	// dictionary size is checked against: a header asking for more is
	// ErrDictionaryTooLarge rather than silently growing the dictionary.
	// A bare FormatLZMA2 stream declares no dictionary size, so its
	// dictionary is allocated with exactly DictCap bytes. Zero means
	// lzma2.MaxDictSize.
	DictCap int

	// AllowIncomplete controls what happens when a caller flushes a
	// FormatLZMA stream with an empty input slice while its state is
	// still non-terminal (reaching the declared unpacked size, or an EOS
	// op, always ends the stream regardless of this flag). If true,
	// Process reports StatusIncomplete, same as if more input might
	// still be on its way; if false, Process reports ErrUnexpectedEOF,
	// since the caller has signaled there is no more input coming.
	AllowIncomplete bool

	// UnpackedSizeOverride, when > 0, is trusted over the unpacked size a
	// FormatLZMA header declares (or replaces an LZMA1 "unknown size"
	// header); the other formats ignore it. -1 means "use whatever the
	// header says, or rely on the EOS marker." ApplyDefaults turns the
	// zero value into -1, so an override of zero bytes cannot be set.
	UnpackedSizeOverride int64
}

// ApplyDefaults fills zero-valued fields with usable defaults.
func (c *Config) ApplyDefaults() {
	if c.DictCap == 0 {
		c.DictCap = int(lzma2.MaxDictSize)
	}
	if c.UnpackedSizeOverride == 0 {
		c.UnpackedSizeOverride = -1
	}
}

// Verify checks that c describes a buildable Stream.
func (c *Config) Verify() error {
	if c.DictCap < 0 {
		return newError(KindInvalidHeader, "negative dictionary capacity")
	}
	if c.DictCap > 0 && c.DictCap < int(lzma2.MinDictSize) {
		return newError(KindInvalidHeader, "dictionary capacity below minimum")
	}
	return nil
}
