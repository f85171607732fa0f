package crypto

import "errors"

var (
	// ErrInvalidHex is returned when a string is not lowercase, even-length hex.
	ErrInvalidHex = errors.New("invalid hex")

	// ErrInvalidKeySize is returned when the cipher key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidIVSize is returned when the iv material is empty.
	ErrInvalidIVSize = errors.New("invalid iv size")

	// ErrInvalidRounds is returned when a primitive is asked for fewer than
	// one iteration.
	ErrInvalidRounds = errors.New("invalid rounds")

	// ErrInvalidKeyLength is returned when a primitive is asked for an empty
	// or oversized output.
	ErrInvalidKeyLength = errors.New("invalid derived key length")

	// ErrInvalidPadding is returned when the trailing pad byte of a decrypted
	// buffer does not describe a valid ANSI X9.23 pad.
	ErrInvalidPadding = errors.New("invalid padding")

	// ErrInvalidCiphertext is returned when the ciphertext is not a whole
	// number of blocks.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)
