// Package lzma implements the LZMA range coder, state machine and
// dictionary that sit at the core of the LZMA1/LZMA2/xz family of
// compressed formats. Everything here decodes only: no heap allocation
// happens once a Decoder and its dictionary are constructed, and every
// multi-step decode (a range-coder normalization, a bit-tree symbol, a
// match copy) can suspend between any two input bytes or output bytes and
// resume exactly where it left off.
package lzma
