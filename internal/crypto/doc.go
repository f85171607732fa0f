// Package crypto provides the cryptographic building blocks for slowcipher:
// the hex and word-form codecs, the pluggable key-derivation primitives, the
// Rijndael block cipher and its CFB wrapper, and random material generation.
//
// # Algorithm Suite
//
//   - PBKDF2-HMAC-SHA256 (RFC 8018): default derivation primitive. One
//     derivation round is one PBKDF2 call with the configured iteration count.
//
//   - Argon2id and scrypt: alternative primitives for callers who want a
//     memory-hard chain. Their cost parameter is taken from the round count.
//
//   - Rijndael-128 in CFB mode with ANSI X9.23 padding. Standard AES key
//     sizes use crypto/aes. Wider keys (the default 512-bit derived key)
//     use the generalised key schedule with Nr = Nk + 6 rounds, matching
//     ciphertexts produced by CryptoJS.
//
// # Security Notes
//
// CFB without a MAC is malleable. Nothing in this package authenticates
// ciphertext, and decryption of tampered data yields garbage rather than an
// error. Callers that need integrity must add it themselves.
//
// Only the first [BlockSize] bytes of iv material are used. Shorter iv
// material is zero-extended to a full block.
//
// # Encodings
//
//   - [HexToBytes]/[BytesToHex]: lowercase hex used for all key material.
//   - [BytesToWords]: big-endian 32-bit word form consumed by the Rijndael
//     key schedule.
//   - [ToBase64]/[DecodeBase64]: standard base64 for ciphertext; decoding
//     also accepts unpadded input.
package crypto
