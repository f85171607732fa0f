package slowcipher

import "github.com/slowcipher/slowcipher-go/internal/crypto"

// Primitive is a deterministic one-way key derivation function applied once
// per round of the chain. Derive must return exactly keyLen bytes.
type Primitive interface {
	Name() string
	Derive(password, salt []byte, rounds, keyLen int) ([]byte, error)
}

var (
	// PBKDF2SHA256 is PBKDF2 over HMAC-SHA-256. It is the default and the
	// only primitive compatible with existing ciphertexts.
	PBKDF2SHA256 Primitive = crypto.PBKDF2SHA256

	// PBKDF2SHA512 is PBKDF2 over HMAC-SHA-512.
	PBKDF2SHA512 Primitive = crypto.PBKDF2SHA512

	// Argon2id uses 64 MiB and 4 lanes per round; the round option sets the
	// time cost.
	Argon2id Primitive = crypto.DefaultArgon2id

	// Scrypt uses r=8, p=1; the round option, rounded up to a power of two,
	// sets N.
	Scrypt Primitive = crypto.DefaultScrypt
)

// NewArgon2id returns an Argon2id primitive with custom memory (KiB) and
// lane settings.
func NewArgon2id(memoryKiB uint32, threads uint8) Primitive {
	return crypto.Argon2id{MemoryKiB: memoryKiB, Threads: threads}
}

// NewScrypt returns a scrypt primitive with custom r and p.
func NewScrypt(r, p int) Primitive {
	return crypto.Scrypt{R: r, P: p}
}
