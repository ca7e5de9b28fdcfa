package common

import (
	"encoding/hex"
	"encoding/json"
)

// HashLength is the byte length of a BLAKE2b-256 digest.
const HashLength = 32

// Hash is a 32 byte content digest, used to key encoded blocks in the
// artifact store.
type Hash [HashLength]byte

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

// StringShort renders an abbreviated digest for log lines.
func (h Hash) StringShort() string {
	s := hex.EncodeToString(h[:])
	if len(s) > 8 {
		s = s[:8]
	}
	return "0x" + s
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*h = BytesToHash(b)
	return nil
}

// BytesToHash left-truncates or right-pads b into a Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func IsNilHash(h Hash) bool {
	return h == Hash{}
}
