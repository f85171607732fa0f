package crypto

const (
	// BlockSize is the Rijndael block size in bytes. Only the 128-bit block
	// variant is supported, which is the one AES standardises.
	BlockSize = 16

	// DefaultRounds is the number of primitive iterations applied per
	// derivation round.
	DefaultRounds = 1000

	// DefaultKeyBits is the default derived key length in bits, and the
	// default size of random key, salt and iv material.
	DefaultKeyBits = 512

	// MinCipherKeySize is the smallest key the cipher accepts, in bytes.
	MinCipherKeySize = 4
)

