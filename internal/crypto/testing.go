package crypto

import "io"

// SetRandReaderForTesting replaces the source read by RandomBytes and
// returns a func that restores the previous one.
func SetRandReaderForTesting(r io.Reader) func() {
	original := randReader
	randReader = r
	return func() { randReader = original }
}
