package crypto

import (
	"crypto/rand"
	"io"
)

// randReader is the random source used for key material generation.
// It defaults to nil (which uses crypto/rand) but can be overridden for testing.
var randReader io.Reader

// RandomBytes returns n bytes from the configured random source.
func RandomBytes(n int) ([]byte, error) {
	r := randReader
	if r == nil {
		r = rand.Reader
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
