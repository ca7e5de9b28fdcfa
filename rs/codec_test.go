package rs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnastore/dnars/rserrors"
)

func TestGeneratorPoly(t *testing.T) {
	c := New(4)
	g := c.GeneratorPoly()
	require.Len(t, g, 5)
	assert.Equal(t, 1, g[0], "generator polynomial is monic")

	// every alpha^(i+fcr) is a root
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0, c.field.PolyEval(g, c.field.Pow(2, i)))
	}
}

func TestEncodeSystematic(t *testing.T) {
	c := New(4)
	msg := []int{5, 12, 200}
	cw, err := c.Encode(msg)
	require.NoError(t, err)
	require.Len(t, cw, len(msg)+4)
	assert.Equal(t, msg, cw[:3], "codeword starts with the message")

	// the codeword is a multiple of the generator polynomial
	assert.True(t, c.Check(cw))

	// encoding is deterministic
	cw2, err := c.Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, cw, cw2)
}

func TestEncodeMessageTooLong(t *testing.T) {
	c := New(10)
	msg := make([]int, 246)
	_, err := c.Encode(msg)
	assert.ErrorIs(t, err, rserrors.ErrMessageTooLong)

	// 245 + 10 = 255 is still legal
	_, err = c.Encode(msg[:245])
	assert.NoError(t, err)
}

func TestDecodeNoError(t *testing.T) {
	c := New(4)
	msg := []int{5, 12, 200}
	cw, err := c.Encode(msg)
	require.NoError(t, err)

	res, err := c.Decode(cw, nil)
	require.NoError(t, err)
	assert.Equal(t, msg, res.Message)
	assert.Equal(t, cw[3:], res.Parity)
	assert.Equal(t, 0, res.Corrected, "clean codeword reports zero corrections")
	assert.Empty(t, res.ErrorPositions)
}

func TestDecodeSingleError(t *testing.T) {
	c := New(4)
	msg := []int{5, 12, 200}
	cw, err := c.Encode(msg)
	require.NoError(t, err)

	// flipping index 1 to any different value must be repaired
	for v := 0; v < 256; v++ {
		if v == cw[1] {
			continue
		}
		damaged := append([]int(nil), cw...)
		damaged[1] = v

		res, err := c.Decode(damaged, nil)
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, msg, res.Message)
		assert.Equal(t, 1, res.Corrected)
		assert.Equal(t, []int{1}, res.ErrorPositions)
	}
}

func TestDecodeUpToCapacity(t *testing.T) {
	c := New(8)
	rng := rand.New(rand.NewSource(1))

	msg := make([]int, 30)
	for i := range msg {
		msg[i] = rng.Intn(256)
	}
	cw, err := c.Encode(msg)
	require.NoError(t, err)

	for trial := 0; trial < 50; trial++ {
		damaged := append([]int(nil), cw...)
		positions := rng.Perm(len(cw))[:4] // floor(8/2) errors
		for _, p := range positions {
			damaged[p] ^= 1 + rng.Intn(255)
		}
		res, err := c.Decode(damaged, nil)
		require.NoError(t, err, "trial %d positions %v", trial, positions)
		assert.Equal(t, msg, res.Message)
	}
}

func TestDecodeErasuresOnly(t *testing.T) {
	c := New(4)
	msg := []int{5, 12, 200}
	cw, err := c.Encode(msg)
	require.NoError(t, err)

	// up to nsym known erasures with no other corruption
	damaged := append([]int(nil), cw...)
	damaged[0] = 0
	damaged[1] = 0
	res, err := c.Decode(damaged, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, msg, res.Message)
	assert.Equal(t, []int{0, 1}, res.ErasurePositions)

	// full parity budget of erasures
	c8 := New(8)
	cw8, err := c8.Encode(msg)
	require.NoError(t, err)
	damaged = append([]int(nil), cw8...)
	erasures := []int{0, 1, 2, 3, 4, 5, 6, 7}
	for _, e := range erasures {
		damaged[e] = 0
	}
	res, err = c8.Decode(damaged, erasures)
	require.NoError(t, err)
	assert.Equal(t, msg, res.Message)
}

func TestDecodeMixedErrata(t *testing.T) {
	// 2*errors + erasures <= nsym must succeed
	c := New(6)
	rng := rand.New(rand.NewSource(7))

	msg := make([]int, 20)
	for i := range msg {
		msg[i] = rng.Intn(256)
	}
	cw, err := c.Encode(msg)
	require.NoError(t, err)

	damaged := append([]int(nil), cw...)
	damaged[2] ^= 0x55 // unknown error
	damaged[3] ^= 0x21 // unknown error
	damaged[10] = 0    // known erasure
	damaged[11] = 0    // known erasure
	res, err := c.Decode(damaged, []int{10, 11})
	require.NoError(t, err)
	assert.Equal(t, msg, res.Message)
}

func TestDecodeTooManyErasures(t *testing.T) {
	c := New(4)
	msg := []int{5, 12, 200}
	cw, err := c.Encode(msg)
	require.NoError(t, err)

	damaged := append([]int(nil), cw...)
	erasures := []int{0, 1, 2, 3, 4}
	for _, e := range erasures {
		damaged[e] = 0
	}
	_, err = c.Decode(damaged, erasures)
	assert.ErrorIs(t, err, rserrors.ErrTooManyErasures)
}

func TestDecodeBeyondBoundFails(t *testing.T) {
	// 3 corruptions with nsym=4 exceed floor(4/2). A bounded-distance
	// decoder can in rare patterns land on a neighboring codeword, but
	// it must never hand back the damaged input as if it were fine,
	// and the overwhelming majority of patterns must surface an error.
	c := New(4)
	msg := []int{5, 12, 200}
	cw, err := c.Encode(msg)
	require.NoError(t, err)

	damaged := append([]int(nil), cw...)
	damaged[0] ^= 0x3A
	damaged[2] ^= 0x91
	damaged[4] ^= 0x5C
	_, err = c.Decode(damaged, nil)
	require.Error(t, err)
	assert.True(t,
		err == rserrors.ErrTooManyErrors ||
			err == rserrors.ErrUncorrectableResidual ||
			err == rserrors.ErrLocatorMismatch,
		"unexpected failure %v", err)

	rng := rand.New(rand.NewSource(42))
	failures := 0
	const trials = 100
	for trial := 0; trial < trials; trial++ {
		dmg := append([]int(nil), cw...)
		for _, p := range rng.Perm(len(cw))[:3] {
			dmg[p] ^= 1 + rng.Intn(255)
		}
		res, err := c.Decode(dmg, nil)
		if err != nil {
			failures++
			continue
		}
		// a success out here is a miscorrection onto a neighboring
		// codeword, it always had to repair something to get there
		assert.GreaterOrEqual(t, res.Corrected, 1)
	}
	assert.GreaterOrEqual(t, failures, trials*9/10)
}

func TestDecodeErasureOutOfRange(t *testing.T) {
	c := New(4)
	cw, err := c.Encode([]int{1, 2, 3})
	require.NoError(t, err)

	_, err = c.Decode(cw, []int{len(cw)})
	assert.ErrorIs(t, err, rserrors.ErrErasureOutOfRange)
	_, err = c.Decode(cw, []int{-1})
	assert.ErrorIs(t, err, rserrors.ErrErasureOutOfRange)
}

func TestDecodeCodewordTooLong(t *testing.T) {
	c := New(4)
	_, err := c.Decode(make([]int, 256), nil)
	assert.ErrorIs(t, err, rserrors.ErrMessageTooLong)
}

func TestDecodeCodewordTooShort(t *testing.T) {
	c := New(4)

	// Shorter than the parity tail, including the all-zero case that
	// would otherwise sail through the zero-syndrome fast path.
	_, err := c.Decode([]int{0, 0}, nil)
	assert.ErrorIs(t, err, rserrors.ErrCodewordTooShort)
	_, err = c.Decode(nil, nil)
	assert.ErrorIs(t, err, rserrors.ErrCodewordTooShort)
	_, err = c.Decode([]int{7, 3, 9}, nil)
	assert.ErrorIs(t, err, rserrors.ErrCodewordTooShort)
	_, err = c.DecodeBytes([]byte{1, 2}, nil)
	assert.ErrorIs(t, err, rserrors.ErrCodewordTooShort)

	// A bare parity block (empty message) is still a valid codeword.
	cw, err := c.Encode(nil)
	require.NoError(t, err)
	require.Len(t, cw, 4)
	res, err := c.Decode(cw, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Message)
}

func TestEncodeDecodeBytes(t *testing.T) {
	c := New(6)
	payload := []byte("the quick brown fox jumps over the lazy dog")
	cw, err := c.EncodeBytes(payload)
	require.NoError(t, err)

	cw[5] ^= 0xFF
	cw[20] ^= 0x10

	res, err := c.DecodeBytes(cw, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, res.MessageBytes())
	assert.Equal(t, 2, res.Corrected)
}

func TestRoundTripRandomLengths(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for _, nsym := range []int{2, 4, 10, 16} {
		c := New(nsym)
		for _, k := range []int{1, 5, 32, 128, 255 - nsym} {
			msg := make([]int, k)
			for i := range msg {
				msg[i] = rng.Intn(256)
			}
			cw, err := c.Encode(msg)
			require.NoError(t, err)
			res, err := c.Decode(cw, nil)
			require.NoError(t, err, "nsym=%d k=%d", nsym, k)
			require.Equal(t, msg, res.Message)
		}
	}
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	c := New(4)
	cw, err := c.Encode([]int{9, 9, 9})
	require.NoError(t, err)
	cw[0] ^= 3

	snapshot := append([]int(nil), cw...)
	_, err = c.Decode(cw, nil)
	require.NoError(t, err)
	assert.Equal(t, snapshot, cw, "decode works on a copy")
}

func TestCustomFirstConsecutiveRoot(t *testing.T) {
	c := NewWithParams(6, 1, 2, DefaultPrimitivePoly)
	msg := []int{17, 42, 99, 3}
	cw, err := c.Encode(msg)
	require.NoError(t, err)

	damaged := append([]int(nil), cw...)
	damaged[3] ^= 0x7C
	res, err := c.Decode(damaged, nil)
	require.NoError(t, err)
	assert.Equal(t, msg, res.Message)
}

func TestConcurrentDecode(t *testing.T) {
	c := New(8)
	msg := []int{1, 2, 3, 4, 5, 6, 7, 8}
	cw, err := c.Encode(msg)
	require.NoError(t, err)

	done := make(chan error, 16)
	for g := 0; g < 16; g++ {
		go func(seed int64) {
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 50; i++ {
				damaged := append([]int(nil), cw...)
				damaged[rng.Intn(len(cw))] ^= 1 + rng.Intn(255)
				res, err := c.Decode(damaged, nil)
				if err != nil {
					done <- err
					return
				}
				for j := range msg {
					if res.Message[j] != msg[j] {
						done <- rserrors.ErrUncorrectableResidual
						return
					}
				}
			}
			done <- nil
		}(int64(g))
	}
	for g := 0; g < 16; g++ {
		require.NoError(t, <-done)
	}
}
