package lzma

// Property bounds. lc+lp is additionally constrained to 4 so the literal
// coder's context table, sized once at its maximum at construction time,
// never needs to grow.
const (
	MinLC = 0
	MaxLC = 8
	MinLP = 0
	MaxLP = 4
	MinPB = 0
	MaxPB = 4

	maxLCPlusLP = 4
)

// Properties are the three small integers that parameterize the literal,
// length and position coders: the number of literal context bits, literal
// position bits and position bits.
type Properties struct {
	LC, LP, PB int
}

// NewProperties validates lc, lp and pb against the ranges the decoder can
// actually build tables for.
func NewProperties(lc, lp, pb int) (Properties, error) {
	switch {
	case lc < MinLC || lc > MaxLC:
		return Properties{}, newErrorf(KindInvalidProperties, "lc %d out of range", lc)
	case lp < MinLP || lp > MaxLP:
		return Properties{}, newErrorf(KindInvalidProperties, "lp %d out of range", lp)
	case pb < MinPB || pb > MaxPB:
		return Properties{}, newErrorf(KindInvalidProperties, "pb %d out of range", pb)
	case lc+lp > maxLCPlusLP:
		return Properties{}, newErrorf(KindInvalidProperties, "lc+lp %d exceeds %d", lc+lp, maxLCPlusLP)
	}
	return Properties{LC: lc, LP: lp, PB: pb}, nil
}

// PropertiesFromByte decodes the single-byte property encoding used by both
// the classic LZMA header and the LZMA2 chunk header's new-properties byte.
func PropertiesFromByte(b byte) (Properties, error) {
	x := int(b)
	if x >= 9*5*9 {
		return Properties{}, newErrorf(KindInvalidProperties, "properties byte %#02x out of range", b)
	}
	lc := x % 9
	x /= 9
	lp := x % 5
	pb := x / 5
	return NewProperties(lc, lp, pb)
}

// Byte encodes p back into the single-byte form.
func (p Properties) Byte() byte {
	return byte((p.PB*5+p.LP)*9 + p.LC)
}
