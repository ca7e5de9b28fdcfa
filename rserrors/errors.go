package rserrors

import (
	"errors"
	"strings"
)

// Field (F) Errors
var (
	ErrDivisionByZero = errors.New("F1|DivisionByZero: Division or inversion by zero in GF(256).")
)

// Encoder (E) Errors
var (
	ErrMessageTooLong = errors.New("E1|MessageTooLong: Message plus parity exceeds the 255 symbol GF(256) capacity.")
)

// Decoder (D) Errors
var (
	ErrTooManyErasures       = errors.New("D1|TooManyErasures: Erasure count alone exceeds the parity budget.")
	ErrTooManyErrors         = errors.New("D2|TooManyErrors: Errata exceed the Singleton bound, message is unrecoverable.")
	ErrLocatorMismatch       = errors.New("D3|LocatorMismatch: Chien search root count does not match the error locator degree.")
	ErrZeroDerivative        = errors.New("D4|ZeroDerivative: Zero formal derivative denominator in Forney correction.")
	ErrUncorrectableResidual = errors.New("D5|UncorrectableResidual: Syndromes are nonzero after correction was applied.")
	ErrErasureOutOfRange     = errors.New("D6|ErasureOutOfRange: Erasure position lies outside the received codeword.")
	ErrCodewordTooShort      = errors.New("D7|CodewordTooShort: Received codeword has no room for the parity symbols.")
)

// Nucleotide (N) Errors
var (
	ErrInvalidNucleotide = errors.New("N1|InvalidNucleotide: Sequence contains a base outside A, C, G, T.")
	ErrSymbolOutOfRange  = errors.New("N2|SymbolOutOfRange: Symbol does not fit in two bits, cannot pack.")
)

// Pipeline (P) Errors
var (
	ErrBadGeometry       = errors.New("P1|BadGeometry: Block geometry does not satisfy data+parity <= 255.")
	ErrBlockSizeMismatch = errors.New("P2|BlockSizeMismatch: Encoded block length does not match the manifest geometry.")
	ErrChecksumMismatch  = errors.New("P3|ChecksumMismatch: Reassembled payload does not match the manifest checksum.")
	ErrManifestMismatch  = errors.New("P4|ManifestMismatch: Stored manifest disagrees with the recomputed one.")
)

// ShortCode returns the code prefix of a catalog error ("D2" for
// ErrTooManyErrors), or the empty string for foreign errors.
func ShortCode(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	i := strings.Index(msg, "|")
	if i <= 0 || i > 3 {
		return ""
	}
	return msg[:i]
}
