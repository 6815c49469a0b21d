package lzma2

type lerror struct{ msg string }

func (e lerror) Error() string { return "lzma2: " + e.msg }

func newError(msg string) error { return lerror{msg} }

// errNeedMoreInput signals that a chunk-header or chunk-body parse ran out
// of input mid-field; it is never surfaced past Reader.Process.
var errNeedMoreInput = newError("need more input")
