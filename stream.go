// Package xz implements an incremental, allocation-bounded decompressor
// core for the LZMA, LZMA2 and (a subset of) the xz container format. Every
// entry point is push-style: callers feed input chunks of any size and a
// sink callback that may refuse bytes, and every component suspends and
// resumes exactly at the byte it stopped on.
package xz

import (
	"github.com/vccggorski/lzma-no-std-rs/lzma"
	"github.com/vccggorski/lzma-no-std-rs/lzma2"
)

// SinkFunc receives decoded output; see lzma.SinkFunc for the backpressure
// contract every sink must honor.
type SinkFunc = lzma.SinkFunc

// Status reports how much progress Process made against the framing's own
// notion of completion, independent of whether more input bytes remain in
// the caller's buffer.
type Status int

const (
	// StatusOK means Process consumed everything it was given but the
	// stream is not finished; call again with more input or a sink
	// willing to accept more.
	StatusOK Status = iota
	// StatusIncomplete means Process stopped mid-operation with part of
	// input left unconsumed (consumed < len(input)) because the sink
	// applied backpressure, or, for FormatLZMA with AllowIncomplete set,
	// that a flush with an empty input slice found the stream still
	// non-terminal. Input that runs out mid-operation after being
	// consumed in full is reported as StatusOK, not StatusIncomplete.
	StatusIncomplete
	// StatusDone means the stream reached its end: an LZMA1/LZMA2 EOS
	// marker, an LZMA1 stream reaching its declared unpacked size, or
	// (for FormatXZ) the stream footer.
	StatusDone
)

// Stream decodes one LZMA1, LZMA2 or xz-container stream, resuming across
// Process calls at exactly the byte and output position it last stopped
// at. For FormatLZMA2 the dictionary is allocated at NewStream with
// cfg.DictCap bytes. For FormatLZMA and FormatXZ it is allocated when the
// first header declares its size, and allocated again only when a later
// header declares a larger one. Reset rewinds the dictionary in place so a
// Stream can be reused.
type Stream struct {
	cfg Config

	lzma1 *lzma1Frame
	lzma2 *lzma2.Reader
	xz    *xzStream

	done bool
}

// NewStream constructs a Stream for cfg.Format, bounding its dictionary at
// cfg.DictCap (after ApplyDefaults fills in a zero value).
func NewStream(cfg Config) (*Stream, error) {
	cfg.ApplyDefaults()
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	s := &Stream{cfg: cfg}
	switch cfg.Format {
	case FormatLZMA:
		s.lzma1 = newLZMA1Frame(cfg.DictCap, cfg.AllowIncomplete, cfg.UnpackedSizeOverride)
	case FormatLZMA2:
		s.lzma2 = lzma2.NewReader(cfg.DictCap)
	case FormatXZ:
		s.xz = newXZStream(cfg.DictCap)
	default:
		return nil, newError(KindInvalidHeader, "unknown format")
	}
	return s, nil
}

// Process feeds input through the stream's framing, writing decoded bytes
// to sink. consumed is always <= len(input); a Status of anything but
// StatusDone means Process should be called again, with the unconsumed
// tail of input prepended to whatever arrives next and/or a sink now ready
// to accept more.
func (s *Stream) Process(input []byte, sink SinkFunc) (consumed int, status Status, err error) {
	if s.done {
		return 0, StatusDone, nil
	}
	switch s.cfg.Format {
	case FormatLZMA:
		src := lzma.NewCursor(input)
		done, ferr := s.lzma1.process(src, sink)
		consumed = src.Consumed()
		if ferr != nil {
			return consumed, StatusIncomplete, ferr
		}
		if done {
			s.done = true
			return consumed, StatusDone, nil
		}
		if len(input) == 0 && s.lzma1.SuspendedOnInput() {
			if !s.cfg.AllowIncomplete {
				return consumed, StatusIncomplete, ErrUnexpectedEOF
			}
			return consumed, StatusIncomplete, nil
		}
		if consumed < len(input) {
			return consumed, StatusIncomplete, nil
		}
		return consumed, StatusOK, nil

	case FormatLZMA2:
		n, ferr := s.lzma2.Process(input, sink)
		if ferr != nil {
			return n, StatusIncomplete, ferr
		}
		if s.lzma2.Finished() {
			s.done = true
			return n, StatusDone, nil
		}
		if n < len(input) {
			return n, StatusIncomplete, nil
		}
		return n, StatusOK, nil

	case FormatXZ:
		n, ferr := s.xz.process(input, sink)
		if ferr != nil {
			return n, StatusIncomplete, ferr
		}
		if s.xz.done {
			s.done = true
			return n, StatusDone, nil
		}
		if n < len(input) {
			return n, StatusIncomplete, nil
		}
		return n, StatusOK, nil
	}
	return 0, StatusIncomplete, newError(KindInvalidHeader, "unreachable format")
}

// Reset rewinds the Stream to decode a fresh instance of the same format
// and dictionary capacity, without releasing the dictionary's backing
// storage.
func (s *Stream) Reset() error {
	s.done = false
	switch s.cfg.Format {
	case FormatLZMA:
		s.lzma1.Reset()
	case FormatLZMA2:
		s.lzma2.Reset()
	case FormatXZ:
		s.xz.Reset()
	}
	return nil
}

// IsDone reports whether the stream has reached its end.
func (s *Stream) IsDone() bool { return s.done }
