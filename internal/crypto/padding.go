package crypto

import "fmt"

// PadX923 appends ANSI X9.23 padding: zero bytes followed by a final byte
// holding the pad length. Input that is already block aligned gains a
// whole block of padding.
func PadX923(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	out[len(out)-1] = byte(n)
	return out
}

// UnpadX923 removes ANSI X9.23 padding. The zero fill is not checked.
func UnpadX923(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidPadding)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("%w: pad length %d", ErrInvalidPadding, n)
	}
	return data[:len(data)-n], nil
}
