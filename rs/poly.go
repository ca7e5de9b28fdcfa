package rs

// Polynomials over GF(256) are coefficient slices with the most
// significant coefficient first: p[0]*x^(len-1) + ... + p[len-1].

// PolyAdd adds two polynomials, padding the shorter one with leading
// zeros.
func (f *Field) PolyAdd(p, q []int) []int {
	r := make([]int, max(len(p), len(q)))
	for i := 0; i < len(p); i++ {
		r[i+len(r)-len(p)] = p[i]
	}
	for i := 0; i < len(q); i++ {
		r[i+len(r)-len(q)] ^= q[i]
	}
	return r
}

// PolyScale multiplies every coefficient by the scalar c.
func (f *Field) PolyScale(p []int, c int) []int {
	r := make([]int, len(p))
	for i := range p {
		r[i] = f.Mul(p[i], c)
	}
	return r
}

// PolyMul convolves two polynomials; the result has length
// len(p)+len(q)-1.
func (f *Field) PolyMul(p, q []int) []int {
	r := make([]int, len(p)+len(q)-1)
	for j := range q {
		for i := range p {
			r[i+j] ^= f.Mul(p[i], q[j])
		}
	}
	return r
}

// PolyDiv divides dividend by divisor using synthetic division,
// returning quotient and remainder. The divisor's leading coefficient
// must be nonzero.
func (f *Field) PolyDiv(dividend, divisor []int) (quotient, remainder []int) {
	out := make([]int, len(dividend))
	copy(out, dividend)
	if len(divisor)-1 > len(dividend) {
		return nil, out
	}
	for i := 0; i < len(dividend)-(len(divisor)-1); i++ {
		coef := out[i]
		if coef == 0 {
			continue
		}
		for j := 1; j < len(divisor); j++ {
			if divisor[j] != 0 {
				out[i+j] ^= f.Mul(divisor[j], coef)
			}
		}
	}
	sep := len(out) - (len(divisor) - 1)
	return out[:sep], out[sep:]
}

// PolyEval evaluates p at x using Horner's method. Empty or all-zero
// polynomials evaluate to 0.
func (f *Field) PolyEval(p []int, x int) int {
	if len(p) == 0 {
		return 0
	}
	y := p[0]
	for i := 1; i < len(p); i++ {
		y = f.Mul(y, x) ^ p[i]
	}
	return y
}

// trimLeadingZeros strips leading zero coefficients so that degree
// computations see the true degree.
func trimLeadingZeros(p []int) []int {
	i := 0
	for i < len(p) && p[i] == 0 {
		i++
	}
	return p[i:]
}
