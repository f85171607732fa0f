package crypto

import (
	"crypto/cipher"
	"fmt"
)

func newCFBBlock(key, iv []byte) (cipher.Block, []byte, error) {
	block, err := NewBlock(key)
	if err != nil {
		return nil, nil, err
	}
	if len(iv) == 0 {
		return nil, nil, fmt.Errorf("%w: empty", ErrInvalidIVSize)
	}
	// A short iv is zero-extended to one block.
	padded := make([]byte, BlockSize)
	copy(padded, iv)
	return block, padded, nil
}

// EncryptCFB pads plaintext with ANSI X9.23 and encrypts it in full-block
// CFB mode. Only the first BlockSize bytes of iv are used; a shorter iv is
// zero-extended.
func EncryptCFB(key, iv, plaintext []byte) ([]byte, error) {
	block, iv, err := newCFBBlock(key, iv)
	if err != nil {
		return nil, err
	}

	padded := PadX923(plaintext, BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(ciphertext, padded)
	return ciphertext, nil
}

// DecryptCFB reverses EncryptCFB.
func DecryptCFB(key, iv, ciphertext []byte) ([]byte, error) {
	block, iv, err := newCFBBlock(key, iv)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of %d", ErrInvalidCiphertext, len(ciphertext), BlockSize)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(plaintext, ciphertext)
	return UnpadX923(plaintext, BlockSize)
}
