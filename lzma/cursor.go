package lzma

// Cursor walks a caller-supplied input chunk one byte at a time. It
// carries no state beyond the current chunk: once exhausted, a component
// suspends (by returning the package's need-more-input signal) and is
// resumed by the next call once the owner has Reset the Cursor over a
// fresh chunk. Exporting Cursor lets lzma2 and the xz container package
// drive a Decoder directly without it ever touching io.Reader.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor wraps p for a single pass of incremental decoding.
func NewCursor(p []byte) *Cursor {
	return &Cursor{data: p}
}

// Reset rebinds the cursor to a new chunk without allocating.
func (c *Cursor) Reset(p []byte) {
	c.data = p
	c.pos = 0
}

func (c *Cursor) next() (byte, bool) { return c.Next() }

// Next returns the next byte of the chunk, advancing the cursor, or
// ok=false if the chunk is exhausted. Exported so framing layers above
// this package (LZMA2 chunk headers, xz container headers) can walk raw,
// unmodeled bytes with the same cursor a Decoder is suspended on.
func (c *Cursor) Next() (byte, bool) {
	if c.pos >= len(c.data) {
		return 0, false
	}
	b := c.data[c.pos]
	c.pos++
	return b, true
}

// Consumed returns how many bytes of the current chunk have been read.
func (c *Cursor) Consumed() int { return c.pos }
