package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"math"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// maxKeyLen bounds the output of a single derivation round.
const maxKeyLen = 1 << 16

const maxScryptCost = 1 << 30

func checkParams(rounds, keyLen int) error {
	if rounds < 1 {
		return fmt.Errorf("%w: got %d, want >= 1", ErrInvalidRounds, rounds)
	}
	if keyLen < 1 || keyLen > maxKeyLen {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidKeyLength, keyLen)
	}
	return nil
}

// PBKDF2 derives keys with PBKDF2 (RFC 8018) over an HMAC of Hash.
type PBKDF2 struct {
	Hash     func() hash.Hash
	HashName string
}

// PBKDF2SHA256 is the default derivation primitive.
var PBKDF2SHA256 = PBKDF2{Hash: sha256.New, HashName: "sha256"}

// PBKDF2SHA512 is PBKDF2 over HMAC-SHA-512.
var PBKDF2SHA512 = PBKDF2{Hash: sha512.New, HashName: "sha512"}

// Name returns the primitive name.
func (p PBKDF2) Name() string {
	return "pbkdf2-" + p.HashName
}

// Derive runs rounds PBKDF2 iterations and returns keyLen bytes.
func (p PBKDF2) Derive(password, salt []byte, rounds, keyLen int) ([]byte, error) {
	if err := checkParams(rounds, keyLen); err != nil {
		return nil, err
	}
	return pbkdf2.Key(password, salt, rounds, keyLen, p.Hash), nil
}

// Argon2id derives keys with Argon2id (RFC 9106). rounds is the time cost.
type Argon2id struct {
	MemoryKiB uint32
	Threads   uint8
}

// DefaultArgon2id mirrors the memory and lane settings used by dvx KDF512.
var DefaultArgon2id = Argon2id{MemoryKiB: 64 * 1024, Threads: 4}

// Name returns the primitive name.
func (a Argon2id) Name() string {
	return "argon2id"
}

// Derive runs Argon2id with time cost rounds and returns keyLen bytes.
func (a Argon2id) Derive(password, salt []byte, rounds, keyLen int) ([]byte, error) {
	if err := checkParams(rounds, keyLen); err != nil {
		return nil, err
	}
	if uint64(rounds) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d exceeds uint32", ErrInvalidRounds, rounds)
	}
	threads := a.Threads
	if threads == 0 {
		threads = 1
	}
	memory := a.MemoryKiB
	if memory < 8*uint32(threads) {
		memory = 8 * uint32(threads)
	}
	return argon2.IDKey(password, salt, uint32(rounds), memory, threads, uint32(keyLen)), nil
}

// Scrypt derives keys with scrypt (RFC 7914). rounds is the CPU/memory cost
// N, rounded up to the next power of two.
type Scrypt struct {
	R int
	P int
}

// DefaultScrypt uses the r and p values recommended by RFC 7914.
var DefaultScrypt = Scrypt{R: 8, P: 1}

// Name returns the primitive name.
func (s Scrypt) Name() string {
	return "scrypt"
}

// Derive runs scrypt with N = nextPowerOfTwo(rounds) and returns keyLen bytes.
func (s Scrypt) Derive(password, salt []byte, rounds, keyLen int) ([]byte, error) {
	if err := checkParams(rounds, keyLen); err != nil {
		return nil, err
	}
	if rounds > maxScryptCost {
		return nil, fmt.Errorf("%w: scrypt cost %d exceeds %d", ErrInvalidRounds, rounds, maxScryptCost)
	}
	r, p := s.R, s.P
	if r <= 0 {
		r = DefaultScrypt.R
	}
	if p <= 0 {
		p = DefaultScrypt.P
	}
	key, err := scrypt.Key(password, salt, nextPowerOfTwo(rounds), r, p, keyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

func nextPowerOfTwo(n int) int {
	v := 2
	for v < n {
		v <<= 1
	}
	return v
}
