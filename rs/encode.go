package rs

import (
	"github.com/dnastore/dnars/rserrors"
)

// MaxCodewordLen is the GF(256) symbol-space ceiling: one codeword
// can never exceed 255 symbols.
const MaxCodewordLen = 255

// Codec is a Reed-Solomon encoder/decoder over GF(256). Its
// parameters are fixed at construction and never mutated, so one
// Codec may serve any number of concurrent encode/decode calls.
type Codec struct {
	field *Field
	nsym  int // parity symbols per codeword
	fcr   int // first consecutive root exponent
	gen   int // field generator alpha
}

// New returns a Codec with nsym parity symbols and the default field
// parameters (primitive 0x11D, generator 2, fcr 0).
func New(nsym int) *Codec {
	return NewWithParams(nsym, 0, DefaultGenerator, DefaultPrimitivePoly)
}

// NewWithParams returns a Codec with explicit field parameters. The
// default primitive polynomial shares one set of precomputed tables
// across all codecs; other polynomials get their own tables.
func NewWithParams(nsym, fcr, generator, prim int) *Codec {
	var f *Field
	if prim == DefaultPrimitivePoly {
		f = DefaultField()
	} else {
		f = NewField(prim)
	}
	return &Codec{field: f, nsym: nsym, fcr: fcr, gen: generator}
}

// Nsym returns the number of parity symbols per codeword.
func (c *Codec) Nsym() int {
	return c.nsym
}

// Field returns the codec's shared, read-only field tables.
func (c *Codec) Field() *Field {
	return c.field
}

// GeneratorPoly builds g(x) = prod_{i=0}^{nsym-1} (x - alpha^(i+fcr)).
func (c *Codec) GeneratorPoly() []int {
	g := []int{1}
	for i := 0; i < c.nsym; i++ {
		g = c.field.PolyMul(g, []int{1, c.field.Pow(c.gen, i+c.fcr)})
	}
	return g
}

// Encode produces the systematic codeword message ++ parity. The
// parity block is the remainder of message*x^nsym divided by the
// generator polynomial.
func (c *Codec) Encode(msg []int) ([]int, error) {
	if len(msg)+c.nsym > MaxCodewordLen {
		return nil, rserrors.ErrMessageTooLong
	}
	padded := make([]int, len(msg)+c.nsym)
	copy(padded, msg)
	_, remainder := c.field.PolyDiv(padded, c.GeneratorPoly())

	out := make([]int, len(msg)+c.nsym)
	copy(out, msg)
	copy(out[len(msg):], remainder)
	return out, nil
}

// EncodeBytes is Encode for byte payloads, the common case when the
// symbols are raw file bytes rather than packed nucleotide codes.
func (c *Codec) EncodeBytes(msg []byte) ([]byte, error) {
	in := make([]int, len(msg))
	for i, b := range msg {
		in[i] = int(b)
	}
	cw, err := c.Encode(in)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(cw))
	for i, v := range cw {
		out[i] = byte(v)
	}
	return out, nil
}
