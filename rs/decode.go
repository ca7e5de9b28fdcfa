package rs

import (
	"github.com/dnastore/dnars/rserrors"
)

// Result carries the outcome of one decode call. On success Message
// and Parity split the corrected codeword; the remaining fields are
// diagnostics (the syndrome vector of the received codeword and the
// errata the decoder located and repaired).
type Result struct {
	Message []int
	Parity  []int

	Syndromes        []int
	ErrorPositions   []int
	ErasurePositions []int
	Corrected        int
}

// MessageBytes returns the corrected message as raw bytes.
func (r *Result) MessageBytes() []byte {
	out := make([]byte, len(r.Message))
	for i, v := range r.Message {
		out[i] = byte(v)
	}
	return out
}

// calcSyndromes evaluates the received codeword at consecutive powers
// of the generator. The leading zero keeps coefficient bookkeeping
// aligned with the locator/evaluator algebra below.
func (c *Codec) calcSyndromes(msg []int) []int {
	synd := make([]int, c.nsym+1)
	for i := 0; i < c.nsym; i++ {
		synd[i+1] = c.field.PolyEval(msg, c.field.Pow(c.gen, i+c.fcr))
	}
	return synd
}

func allZero(p []int) bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}

// Check reports whether the codeword carries no detectable error.
func (c *Codec) Check(codeword []int) bool {
	return allZero(c.calcSyndromes(codeword))
}

// forneySyndromes removes the contribution of the known erasure
// positions from the syndrome so Berlekamp-Massey only has to explain
// true errors.
func (c *Codec) forneySyndromes(synd, erasePos []int, nmess int) []int {
	fsynd := make([]int, len(synd)-1)
	copy(fsynd, synd[1:])
	for _, p := range erasePos {
		x := c.field.Pow(c.gen, nmess-1-p)
		for j := 0; j < len(fsynd)-1; j++ {
			fsynd[j] = c.field.Mul(fsynd[j], x) ^ fsynd[j+1]
		}
	}
	return fsynd
}

// findErrorLocator runs Berlekamp-Massey over the (Forney) syndrome
// sequence. eraseLoc seeds the locator when decoding from raw
// syndromes with known erasures; with Forney syndromes it is nil and
// only eraseCount matters for the Singleton-bound check.
func (c *Codec) findErrorLocator(synd []int, eraseLoc []int, eraseCount int) ([]int, error) {
	var errLoc, oldLoc []int
	if len(eraseLoc) > 0 {
		errLoc = append([]int(nil), eraseLoc...)
		oldLoc = append([]int(nil), eraseLoc...)
	} else {
		errLoc = []int{1}
		oldLoc = []int{1}
	}

	syndShift := 0
	if len(synd) > c.nsym {
		syndShift = len(synd) - c.nsym
	}

	for i := 0; i < c.nsym-eraseCount; i++ {
		k := i + syndShift
		if len(eraseLoc) > 0 {
			k = eraseCount + i + syndShift
		}

		// Discrepancy between the syndrome and what the current
		// locator predicts for it.
		delta := synd[k]
		for j := 1; j < len(errLoc); j++ {
			delta ^= c.field.Mul(errLoc[len(errLoc)-1-j], synd[k-j])
		}

		oldLoc = append(oldLoc, 0)

		if delta != 0 {
			if len(oldLoc) > len(errLoc) {
				inv, err := c.field.Inverse(delta)
				if err != nil {
					return nil, err
				}
				newLoc := c.field.PolyScale(oldLoc, delta)
				oldLoc = c.field.PolyScale(errLoc, inv)
				errLoc = newLoc
			}
			errLoc = c.field.PolyAdd(errLoc, c.field.PolyScale(oldLoc, delta))
		}
	}

	errLoc = trimLeadingZeros(errLoc)
	errs := len(errLoc) - 1
	if (errs-eraseCount)*2+eraseCount > c.nsym {
		return nil, rserrors.ErrTooManyErrors
	}
	return errLoc, nil
}

// findErrors is the Chien search: the reversed locator is evaluated
// at alpha^i for every codeword position; a zero root marks position
// nmess-1-i as erroneous. The root count must match the locator
// degree exactly, anything else means the located errors do not
// explain the syndrome.
func (c *Codec) findErrors(errLocRev []int, nmess int) ([]int, error) {
	errs := len(errLocRev) - 1
	var errPos []int
	for i := 0; i < nmess; i++ {
		if c.field.PolyEval(errLocRev, c.field.Pow(c.gen, i)) == 0 {
			errPos = append(errPos, nmess-1-i)
		}
	}
	if len(errPos) != errs {
		return nil, rserrors.ErrLocatorMismatch
	}
	return errPos, nil
}

// findErrataLocator builds the locator polynomial for a set of known
// coefficient positions: prod (1 - x*alpha^i).
func (c *Codec) findErrataLocator(coefPos []int) []int {
	eLoc := []int{1}
	for _, p := range coefPos {
		eLoc = c.field.PolyMul(eLoc, c.field.PolyAdd([]int{1}, []int{c.field.Pow(c.gen, p), 0}))
	}
	return eLoc
}

// findErrorEvaluator computes Omega(x) = Synd(x)*ErrLoc(x) mod
// x^(nsym+1), the numerator of the Forney magnitude formula.
func (c *Codec) findErrorEvaluator(synd, errLoc []int, nsym int) []int {
	divisor := make([]int, nsym+2)
	divisor[0] = 1
	_, remainder := c.field.PolyDiv(c.field.PolyMul(synd, errLoc), divisor)
	return remainder
}

// correctErrata applies the Forney algorithm: for every errata
// position it evaluates the error-evaluator polynomial at the
// position's inverse location and divides by the formal derivative of
// the errata locator, then XORs the magnitude into the codeword.
func (c *Codec) correctErrata(msg, synd, errPos []int) ([]int, error) {
	coefPos := make([]int, len(errPos))
	for i, p := range errPos {
		coefPos[i] = len(msg) - 1 - p
	}
	errLoc := c.findErrataLocator(coefPos)
	errEval := reversed(c.findErrorEvaluator(reversed(synd), errLoc, len(errLoc)-1))

	// Location values X_i = alpha^(-(255-coefPos)).
	x := make([]int, len(coefPos))
	for i, p := range coefPos {
		x[i] = c.field.Pow(c.gen, -(255 - p))
	}

	magnitudes := make([]int, len(msg))
	for i, xi := range x {
		xiInv, err := c.field.Inverse(xi)
		if err != nil {
			return nil, err
		}

		// Formal derivative of the errata locator: product over the
		// other positions of (1 - X_i^-1 * X_j).
		locPrime := 1
		for j, xj := range x {
			if j != i {
				locPrime = c.field.Mul(locPrime, 1^c.field.Mul(xiInv, xj))
			}
		}
		if locPrime == 0 {
			return nil, rserrors.ErrZeroDerivative
		}

		y := c.field.PolyEval(reversed(errEval), xiInv)
		y = c.field.Mul(c.field.Pow(xi, 1-c.fcr), y)

		magnitude, err := c.field.Div(y, locPrime)
		if err != nil {
			return nil, err
		}
		magnitudes[errPos[i]] = magnitude
	}

	return c.field.PolyAdd(msg, magnitudes), nil
}

func reversed(p []int) []int {
	r := make([]int, len(p))
	for i, v := range p {
		r[len(p)-1-i] = v
	}
	return r
}

// Decode corrects a received codeword in place of up to
// floor(nsym/2) unknown errors plus known erasures, subject to
// 2*errors + erasures <= nsym. It is a pure function of its inputs
// and the shared field tables; on failure no partially corrected data
// is returned.
func (c *Codec) Decode(codeword []int, erasures []int) (*Result, error) {
	if len(codeword) > MaxCodewordLen {
		return nil, rserrors.ErrMessageTooLong
	}
	if len(codeword) < c.nsym {
		return nil, rserrors.ErrCodewordTooShort
	}

	msg := make([]int, len(codeword))
	copy(msg, codeword)

	// Zero the erased symbols. Correction does not depend on the
	// erased values, this just keeps the syndromes a function of the
	// errata positions alone.
	for _, e := range erasures {
		if e < 0 || e >= len(msg) {
			return nil, rserrors.ErrErasureOutOfRange
		}
		msg[e] = 0
	}

	synd := c.calcSyndromes(msg)
	if allZero(synd) {
		return &Result{
			Message:   msg[:len(msg)-c.nsym],
			Parity:    msg[len(msg)-c.nsym:],
			Syndromes: synd,
		}, nil
	}

	if len(erasures) > c.nsym {
		return nil, rserrors.ErrTooManyErasures
	}

	fsynd := c.forneySyndromes(synd, erasures, len(msg))
	errLoc, err := c.findErrorLocator(fsynd, nil, len(erasures))
	if err != nil {
		return nil, err
	}
	errPos, err := c.findErrors(reversed(errLoc), len(msg))
	if err != nil {
		return nil, err
	}

	errata := make([]int, 0, len(erasures)+len(errPos))
	errata = append(errata, erasures...)
	errata = append(errata, errPos...)

	// Errata correction uses the original syndromes, not the Forney
	// ones: erasures get repaired here too.
	msg, err = c.correctErrata(msg, synd, errata)
	if err != nil {
		return nil, err
	}

	if !allZero(c.calcSyndromes(msg)) {
		return nil, rserrors.ErrUncorrectableResidual
	}

	return &Result{
		Message:          msg[:len(msg)-c.nsym],
		Parity:           msg[len(msg)-c.nsym:],
		Syndromes:        synd,
		ErrorPositions:   errPos,
		ErasurePositions: append([]int(nil), erasures...),
		Corrected:        len(errata),
	}, nil
}

// DecodeBytes is Decode for byte codewords.
func (c *Codec) DecodeBytes(codeword []byte, erasures []int) (*Result, error) {
	in := make([]int, len(codeword))
	for i, b := range codeword {
		in[i] = int(b)
	}
	return c.Decode(in, erasures)
}
