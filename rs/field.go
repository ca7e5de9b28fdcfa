package rs

import (
	"sync"

	"github.com/dnastore/dnars/rserrors"
)

// DefaultPrimitivePoly is x^8 + x^4 + x^3 + x^2 + 1, the primitive
// polynomial used to reduce carryless products into GF(256).
const DefaultPrimitivePoly = 0x11D

// DefaultGenerator is the field generator alpha whose consecutive
// powers form the roots of the generator polynomial.
const DefaultGenerator = 2

// Field holds the precomputed log/antilog tables for GF(256). A Field
// is immutable once built and may be shared by any number of
// concurrent encode/decode calls.
//
// exp carries two full periods of alpha^i plus one wrap entry so that
// Mul can index exp[log[a]+log[b]] directly without a mod 255
// reduction.
type Field struct {
	prim int
	exp  [512]int
	log  [256]int
}

// NewField builds the log/antilog tables for the given primitive
// polynomial by repeated carryless multiplication by 2.
func NewField(prim int) *Field {
	f := &Field{prim: prim}
	x := 1
	for i := 0; i < 255; i++ {
		f.exp[i] = x
		f.log[x] = i
		x = carrylessMul(x, 2, prim)
	}
	for i := 255; i < 512; i++ {
		f.exp[i] = f.exp[i-255]
	}
	return f
}

var (
	defaultField     *Field
	defaultFieldOnce sync.Once
)

// DefaultField returns the shared GF(256) field for the 0x11D
// primitive polynomial, building its tables exactly once.
func DefaultField() *Field {
	defaultFieldOnce.Do(func() {
		defaultField = NewField(DefaultPrimitivePoly)
	})
	return defaultField
}

// carrylessMul multiplies x by y in GF(2)[x], reducing by prim
// whenever the product outgrows 8 bits (Russian peasant method).
func carrylessMul(x, y, prim int) int {
	r := 0
	for y > 0 {
		if y&1 != 0 {
			r ^= x
		}
		y >>= 1
		x <<= 1
		if x&0x100 != 0 {
			x ^= prim
		}
	}
	return r
}

// PrimitivePoly returns the primitive polynomial the tables were
// built from.
func (f *Field) PrimitivePoly() int {
	return f.prim
}

// Add returns a + b. Addition and subtraction coincide in GF(2^8).
func (f *Field) Add(a, b int) int {
	return a ^ b
}

// Sub returns a - b, identical to Add in a characteristic-2 field.
func (f *Field) Sub(a, b int) int {
	return a ^ b
}

// Mul returns a * b via the log/antilog tables.
func (f *Field) Mul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[f.log[a]+f.log[b]]
}

// Div returns a / b, failing on a zero divisor.
func (f *Field) Div(a, b int) (int, error) {
	if b == 0 {
		return 0, rserrors.ErrDivisionByZero
	}
	if a == 0 {
		return 0, nil
	}
	return f.exp[(f.log[a]-f.log[b]+255)%255], nil
}

// Pow returns x^power. Negative powers are normalized mod 255 before
// the table lookup; Forney correction relies on this for alpha^(-l).
func (f *Field) Pow(x, power int) int {
	if x == 0 {
		return 0
	}
	idx := (f.log[x] * power) % 255
	if idx < 0 {
		idx += 255
	}
	return f.exp[idx]
}

// Inverse returns the multiplicative inverse of x, failing on 0.
func (f *Field) Inverse(x int) (int, error) {
	if x == 0 {
		return 0, rserrors.ErrDivisionByZero
	}
	return f.exp[255-f.log[x]], nil
}
