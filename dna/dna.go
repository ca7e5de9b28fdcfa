// Package dna maps between nucleotide sequences and the 2-bit field
// symbols the codec operates on, and packs symbols four to a byte for
// binary storage. The codec itself never sees nucleotides, only
// opaque GF(256) elements.
package dna

import (
	"strings"

	"github.com/dnastore/dnars/rserrors"
)

// BasesPerByte is how many 2-bit nucleotide codes fit in one byte.
const BasesPerByte = 4

const (
	SymbolA = 0
	SymbolC = 1
	SymbolG = 2
	SymbolT = 3
)

var baseFromSymbol = [4]byte{'A', 'C', 'G', 'T'}

// SymbolFromBase maps one nucleotide letter (either case) to its
// 2-bit code.
func SymbolFromBase(b byte) (int, error) {
	switch b {
	case 'A', 'a':
		return SymbolA, nil
	case 'C', 'c':
		return SymbolC, nil
	case 'G', 'g':
		return SymbolG, nil
	case 'T', 't':
		return SymbolT, nil
	default:
		return 0, rserrors.ErrInvalidNucleotide
	}
}

// BaseFromSymbol maps a 2-bit code back to its nucleotide letter.
// Symbols outside [0,3] are reduced mod 4; use Validate/ToSymbols on
// the inbound path to keep the mapping lossless.
func BaseFromSymbol(s int) byte {
	return baseFromSymbol[s&3]
}

// Validate reports whether the sequence contains only A, C, G, T.
func Validate(seq string) error {
	for i := 0; i < len(seq); i++ {
		if _, err := SymbolFromBase(seq[i]); err != nil {
			return err
		}
	}
	return nil
}

// ToSymbols converts a nucleotide sequence to field symbols, one per
// base.
func ToSymbols(seq string) ([]int, error) {
	out := make([]int, len(seq))
	for i := 0; i < len(seq); i++ {
		s, err := SymbolFromBase(seq[i])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// ToSequence converts field symbols back to a nucleotide string. The
// inverse of ToSymbols for symbols in [0,3].
func ToSequence(symbols []int) string {
	var sb strings.Builder
	sb.Grow(len(symbols))
	for _, s := range symbols {
		sb.WriteByte(BaseFromSymbol(s))
	}
	return sb.String()
}

// Pack stores four 2-bit symbols per byte, first symbol in the low
// bits. Symbols above 3 cannot be packed losslessly and are rejected.
func Pack(symbols []int) ([]byte, error) {
	out := make([]byte, (len(symbols)+BasesPerByte-1)/BasesPerByte)
	for i, s := range symbols {
		if s < 0 || s > 3 {
			return nil, rserrors.ErrSymbolOutOfRange
		}
		out[i/BasesPerByte] |= byte(s) << uint(2*(i%BasesPerByte))
	}
	return out, nil
}

// Unpack reverses Pack. n is the original symbol count, needed to
// drop the pad positions of the final byte.
func Unpack(data []byte, n int) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		b := data[i/BasesPerByte]
		out = append(out, int(b>>uint(2*(i%BasesPerByte)))&3)
	}
	return out
}

// SequenceToBytes packs a nucleotide string straight into binary
// form.
func SequenceToBytes(seq string) ([]byte, error) {
	symbols, err := ToSymbols(seq)
	if err != nil {
		return nil, err
	}
	return Pack(symbols)
}

// BytesToSequence expands binary data into its nucleotide string. n
// is the base count of the original sequence.
func BytesToSequence(data []byte, n int) string {
	return ToSequence(Unpack(data, n))
}
