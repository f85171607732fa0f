package slowcipher

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/slowcipher/slowcipher-go/internal/crypto"
	"github.com/slowcipher/slowcipher-go/internal/derive"
)

// EncryptResult is the output of Encrypt.
type EncryptResult struct {
	// ComputedKeyHex is the fully derived key. Keep it to encrypt or
	// decrypt again without repeating the derivation.
	ComputedKeyHex string
	// CipherText is the standard base64 encoded ciphertext.
	CipherText string
}

// RandomHex returns bits/8 random bytes from crypto/rand as lowercase hex.
// A non-positive bits selects 512.
func RandomHex(bits int) (string, error) {
	if bits <= 0 {
		bits = DefaultOutputBits
	}
	if bits%8 != 0 {
		return "", &ValidationError{Errors: []string{fmt.Sprintf("bits must be a multiple of 8, got %d", bits)}}
	}
	b, err := crypto.RandomBytes(bits / 8)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return crypto.BytesToHex(b), nil
}

// NewSessionID returns a random identifier for use with
// WithCheckpointStore.
func NewSessionID() string {
	return uuid.NewString()
}

// ComputeKey applies rounds startIndex+1 through stepCount of the
// derivation chain to keyHex and returns the derived key as hex. keyHex is
// the chain value after startIndex rounds, so a derivation stopped at
// round m continues with ComputeKey(ctx, valueAtM, saltHex, n, m).
//
// When startIndex >= stepCount keyHex is returned unchanged and no
// progress is reported. When ctx is cancelled between rounds the returned
// error is an *InterruptedError holding the last completed state.
func ComputeKey(ctx context.Context, keyHex, saltHex string, stepCount, startIndex int, opts ...Option) (string, error) {
	cfg := newConfig(opts)
	p := params{keyHex: keyHex, saltHex: saltHex, stepCount: stepCount, startIndex: startIndex}
	if err := validate(cfg, p, false); err != nil {
		return "", err
	}
	return computeKey(ctx, cfg, p)
}

// DeriveKey is ComputeKey over raw bytes.
func DeriveKey(ctx context.Context, key, salt []byte, stepCount, startIndex int, opts ...Option) ([]byte, error) {
	computed, err := ComputeKey(ctx, crypto.BytesToHex(key), crypto.BytesToHex(salt), stepCount, startIndex, opts...)
	if err != nil {
		return nil, err
	}
	return crypto.HexToBytes(computed)
}

// Encrypt derives the key and encrypts message with it. keyHex, ivHex and
// saltHex must be non-empty hex of equal length.
func Encrypt(ctx context.Context, message, keyHex, ivHex, saltHex string, stepCount, startIndex int, opts ...Option) (*EncryptResult, error) {
	cfg := newConfig(opts)
	p := params{keyHex: keyHex, saltHex: saltHex, ivHex: ivHex, stepCount: stepCount, startIndex: startIndex}
	if err := validate(cfg, p, true); err != nil {
		return nil, err
	}

	computed, err := computeKey(ctx, cfg, p)
	if err != nil {
		return nil, err
	}

	cipherText, err := EncryptWithComputedKey(message, computed, ivHex, saltHex)
	if err != nil {
		return nil, err
	}
	return &EncryptResult{ComputedKeyHex: computed, CipherText: cipherText}, nil
}

// Decrypt derives the key and decrypts cipherText with it. Ciphertext that
// cannot be decoded yields an empty string and no error.
func Decrypt(ctx context.Context, cipherText, keyHex, ivHex, saltHex string, stepCount, startIndex int, opts ...Option) (string, error) {
	cfg := newConfig(opts)
	p := params{keyHex: keyHex, saltHex: saltHex, ivHex: ivHex, stepCount: stepCount, startIndex: startIndex}
	if err := validate(cfg, p, true); err != nil {
		return "", err
	}

	computed, err := computeKey(ctx, cfg, p)
	if err != nil {
		return "", err
	}
	return DecryptWithComputedKey(cipherText, computed, ivHex, saltHex)
}

// EncryptWithComputedKey encrypts message followed by saltHex with an
// already derived key. Only the first 16 bytes of the iv are used.
func EncryptWithComputedKey(message, computedKeyHex, ivHex, saltHex string) (string, error) {
	key, iv, err := decodeCipherParams(computedKeyHex, ivHex, saltHex)
	if err != nil {
		return "", err
	}

	ciphertext, err := crypto.EncryptCFB(key, iv, []byte(message+saltHex))
	if err != nil {
		return "", &PrimitiveError{Stage: "encrypt", Err: err}
	}
	return crypto.ToBase64(ciphertext), nil
}

// DecryptWithComputedKey reverses EncryptWithComputedKey and removes the
// trailing len(saltHex) characters. Malformed ciphertext yields an empty
// string and no error; errors are only returned for unusable key or iv
// material. A wrong key is not detected.
func DecryptWithComputedKey(cipherText, computedKeyHex, ivHex, saltHex string) (string, error) {
	key, iv, err := decodeCipherParams(computedKeyHex, ivHex, saltHex)
	if err != nil {
		return "", err
	}

	data, err := crypto.DecodeBase64(cipherText)
	if err != nil {
		return "", nil
	}

	plaintext, err := crypto.DecryptCFB(key, iv, data)
	if err != nil {
		if errors.Is(err, crypto.ErrInvalidCiphertext) || errors.Is(err, crypto.ErrInvalidPadding) {
			return "", nil
		}
		return "", &PrimitiveError{Stage: "decrypt", Err: err}
	}

	if len(plaintext) < len(saltHex) {
		return "", nil
	}
	return string(plaintext[:len(plaintext)-len(saltHex)]), nil
}

func decodeCipherParams(computedKeyHex, ivHex, saltHex string) (key, iv []byte, err error) {
	var errs []string
	key, keyErr := crypto.HexToBytes(computedKeyHex)
	if keyErr != nil {
		errs = append(errs, "computed key: "+keyErr.Error())
	}
	iv, ivErr := crypto.HexToBytes(ivHex)
	if ivErr != nil {
		errs = append(errs, "iv: "+ivErr.Error())
	}
	if _, saltErr := crypto.HexToBytes(saltHex); saltErr != nil {
		errs = append(errs, "salt: "+saltErr.Error())
	}
	if len(errs) > 0 {
		return nil, nil, &ValidationError{Errors: errs}
	}
	return key, iv, nil
}

func validate(cfg *config, p params, withIV bool) error {
	errs := cfg.validate()

	if p.keyHex == "" {
		errs = append(errs, "key must not be empty")
	}
	if withIV && (len(p.keyHex) != len(p.ivHex) || len(p.keyHex) != len(p.saltHex)) {
		errs = append(errs, "key, iv and salt must have the same length")
	}
	for _, field := range []struct{ name, value string }{
		{"key", p.keyHex}, {"salt", p.saltHex}, {"iv", p.ivHex},
	} {
		if _, err := crypto.HexToBytes(field.value); err != nil {
			errs = append(errs, field.name+": "+err.Error())
		}
	}
	if p.stepCount < 0 {
		errs = append(errs, fmt.Sprintf("step count must be non-negative, got %d", p.stepCount))
	}
	if p.startIndex < 0 {
		errs = append(errs, fmt.Sprintf("start index must be non-negative, got %d", p.startIndex))
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// computeKey runs the chain for validated parameters.
func computeKey(ctx context.Context, cfg *config, p params) (string, error) {
	key, err := crypto.HexToBytes(p.keyHex)
	if err != nil {
		return "", &ValidationError{Errors: []string{"key: " + err.Error()}}
	}
	salt, err := crypto.HexToBytes(p.saltHex)
	if err != nil {
		return "", &ValidationError{Errors: []string{"salt: " + err.Error()}}
	}

	sess := newSession(cfg, p)
	start := sess.resume(ctx, derive.State{Value: key, Index: p.startIndex, StepCount: p.stepCount})

	keyLen := cfg.outputBits / 8
	runCfg := derive.Config{
		Step: func(value []byte) ([]byte, error) {
			next, err := cfg.primitive.Derive(value, salt, cfg.rounds, keyLen)
			if err != nil {
				return nil, err
			}
			if len(next) != keyLen {
				return nil, fmt.Errorf("%s returned %d bytes, want %d", cfg.primitive.Name(), len(next), keyLen)
			}
			return next, nil
		},
		OnSample: func(s derive.Sample) {
			sess.observe(ctx, s)
			if cfg.progress != nil {
				cfg.progress(p.progress(s))
			}
		},
		Throttle:        cfg.throttle,
		CheckpointEvery: cfg.checkpointEvery,
		Yield:           cfg.yield,
		Now:             cfg.now,
	}

	state, err := derive.Run(ctx, runCfg, start)
	if err != nil {
		sess.abort(ctx, state)
		return "", wrapError(err)
	}
	return crypto.BytesToHex(state.Value), nil
}

// progress augments an engine sample with the call parameters.
func (p params) progress(s derive.Sample) Progress {
	return Progress{
		Index:               s.Index,
		StepCount:           s.StepCount,
		ComputedKeyHex:      crypto.BytesToHex(s.Value),
		IterationsPerSecond: s.IterationsPerSecond,
		RemainingTime:       s.RemainingTime,
		Final:               s.Final,
		Checkpoint:          s.Checkpoint,
		KeyHex:              p.keyHex,
		IVHex:               p.ivHex,
		SaltHex:             p.saltHex,
		StartIndex:          p.startIndex,
	}
}
