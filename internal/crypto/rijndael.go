package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

var (
	sbox    [256]byte
	invSbox [256]byte
)

// rcon holds the round constants for the key schedule. Index 0 is unused.
var rcon = [11]uint32{0x00, 0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80, 0x1b, 0x36}

// roundConstant returns rcon[i], or zero past the end of the table. Keys
// shorter than 128 bits run more schedule rows than the table covers.
func roundConstant(i int) uint32 {
	if i < len(rcon) {
		return rcon[i]
	}
	return 0
}

func init() {
	for x := 0; x < 256; x++ {
		var inv byte
		if x != 0 {
			for y := 1; y < 256; y++ {
				if gmul(byte(x), byte(y)) == 1 {
					inv = byte(y)
					break
				}
			}
		}
		s := inv ^ rotl8(inv, 1) ^ rotl8(inv, 2) ^ rotl8(inv, 3) ^ rotl8(inv, 4) ^ 0x63
		sbox[x] = s
		invSbox[s] = byte(x)
	}
}

func rotl8(b byte, n uint) byte {
	return b<<n | b>>(8-n)
}

func xtime(b byte) byte {
	if b&0x80 != 0 {
		return b<<1 ^ 0x1b
	}
	return b << 1
}

// gmul multiplies in GF(2^8) modulo x^8 + x^4 + x^3 + x + 1.
func gmul(a, b byte) byte {
	var p byte
	for b != 0 {
		if b&1 != 0 {
			p ^= a
		}
		a = xtime(a)
		b >>= 1
	}
	return p
}

func subWord(w uint32) uint32 {
	return uint32(sbox[w>>24])<<24 | uint32(sbox[w>>16&0xff])<<16 | uint32(sbox[w>>8&0xff])<<8 | uint32(sbox[w&0xff])
}

// NewBlock returns a Rijndael cipher with a 128-bit block for key. Standard
// AES key sizes are served by crypto/aes. Any other non-empty key whose
// length is a multiple of four uses the generalised schedule with
// Nk = len(key)/4 and Nr = Nk + 6, so a 512-bit key runs 22 rounds.
func NewBlock(key []byte) (cipher.Block, error) {
	switch len(key) {
	case 16, 24, 32:
		return aes.NewCipher(key)
	}
	if len(key) < MinCipherKeySize || len(key)%4 != 0 {
		return nil, fmt.Errorf("%w: got %d bytes, want >= %d and a multiple of 4", ErrInvalidKeySize, len(key), MinCipherKeySize)
	}
	return newRijndael(BytesToWords(key)), nil
}

type rijndael struct {
	schedule []uint32
	rounds   int
}

func newRijndael(key Words) *rijndael {
	initial := key.Words
	nk := len(initial)
	rounds := nk + 6
	rows := (rounds + 1) * 4

	schedule := make([]uint32, rows)
	copy(schedule, initial)
	for i := nk; i < rows; i++ {
		t := schedule[i-1]
		switch {
		case i%nk == 0:
			t = subWord(t<<8|t>>24) ^ roundConstant(i/nk)<<24
		case nk > 6 && i%nk == 4:
			t = subWord(t)
		}
		schedule[i] = schedule[i-nk] ^ t
	}
	return &rijndael{schedule: schedule, rounds: rounds}
}

func (r *rijndael) BlockSize() int { return BlockSize }

func (r *rijndael) addRoundKey(state *[16]byte, round int) {
	for c := 0; c < 4; c++ {
		w := r.schedule[round*4+c]
		state[c*4] ^= byte(w >> 24)
		state[c*4+1] ^= byte(w >> 16)
		state[c*4+2] ^= byte(w >> 8)
		state[c*4+3] ^= byte(w)
	}
}

func (r *rijndael) Encrypt(dst, src []byte) {
	if len(src) < BlockSize || len(dst) < BlockSize {
		panic("crypto: rijndael input not full block")
	}
	var state [16]byte
	copy(state[:], src)

	r.addRoundKey(&state, 0)
	for round := 1; round < r.rounds; round++ {
		subBytes(&state, &sbox)
		shiftRows(&state)
		mixColumns(&state)
		r.addRoundKey(&state, round)
	}
	subBytes(&state, &sbox)
	shiftRows(&state)
	r.addRoundKey(&state, r.rounds)

	copy(dst, state[:])
}

func (r *rijndael) Decrypt(dst, src []byte) {
	if len(src) < BlockSize || len(dst) < BlockSize {
		panic("crypto: rijndael input not full block")
	}
	var state [16]byte
	copy(state[:], src)

	r.addRoundKey(&state, r.rounds)
	for round := r.rounds - 1; round > 0; round-- {
		invShiftRows(&state)
		subBytes(&state, &invSbox)
		r.addRoundKey(&state, round)
		invMixColumns(&state)
	}
	invShiftRows(&state)
	subBytes(&state, &invSbox)
	r.addRoundKey(&state, 0)

	copy(dst, state[:])
}

// The state is column-major: state[c*4+r] is row r of column c.

func subBytes(state *[16]byte, box *[256]byte) {
	for i := range state {
		state[i] = box[state[i]]
	}
}

func shiftRows(state *[16]byte) {
	old := *state
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			state[c*4+r] = old[((c+r)%4)*4+r]
		}
	}
}

func invShiftRows(state *[16]byte) {
	old := *state
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			state[((c+r)%4)*4+r] = old[c*4+r]
		}
	}
}

func mixColumns(state *[16]byte) {
	for c := 0; c < 4; c++ {
		a0, a1, a2, a3 := state[c*4], state[c*4+1], state[c*4+2], state[c*4+3]
		state[c*4] = gmul(a0, 2) ^ gmul(a1, 3) ^ a2 ^ a3
		state[c*4+1] = a0 ^ gmul(a1, 2) ^ gmul(a2, 3) ^ a3
		state[c*4+2] = a0 ^ a1 ^ gmul(a2, 2) ^ gmul(a3, 3)
		state[c*4+3] = gmul(a0, 3) ^ a1 ^ a2 ^ gmul(a3, 2)
	}
}

func invMixColumns(state *[16]byte) {
	for c := 0; c < 4; c++ {
		a0, a1, a2, a3 := state[c*4], state[c*4+1], state[c*4+2], state[c*4+3]
		state[c*4] = gmul(a0, 14) ^ gmul(a1, 11) ^ gmul(a2, 13) ^ gmul(a3, 9)
		state[c*4+1] = gmul(a0, 9) ^ gmul(a1, 14) ^ gmul(a2, 11) ^ gmul(a3, 13)
		state[c*4+2] = gmul(a0, 13) ^ gmul(a1, 9) ^ gmul(a2, 14) ^ gmul(a3, 11)
		state[c*4+3] = gmul(a0, 11) ^ gmul(a1, 13) ^ gmul(a2, 9) ^ gmul(a3, 14)
	}
}
