package crypto

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// HexToBytes decodes an even-length hex string. Upper-case digits are
// accepted on input; every encoder in this package emits lower case.
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidHex, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return b, nil
}

// BytesToHex encodes b as lowercase hex.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// Words is the big-endian 32-bit word form of a byte sequence. SigBytes is
// the number of significant bytes; the tail of the last word is zero.
type Words struct {
	Words    []uint32
	SigBytes int
}

// BytesToWords packs b into big-endian words.
func BytesToWords(b []byte) Words {
	words := make([]uint32, (len(b)+3)/4)
	for i := range words {
		var chunk [4]byte
		copy(chunk[:], b[i*4:])
		words[i] = binary.BigEndian.Uint32(chunk[:])
	}
	return Words{Words: words, SigBytes: len(b)}
}
