// Package slowcipher derives an encryption key by chaining a deliberately
// expensive key derivation function many times, then encrypts or decrypts
// a message with the derived key.
//
// The chain is computed one round at a time. It can be interrupted after
// any round and resumed later from the value and index reached, progress
// is reported while it runs, and checkpoints can be persisted so that a
// derivation survives a process restart.
//
// Basic usage:
//
//	key, _ := slowcipher.RandomHex(512)
//	iv, _ := slowcipher.RandomHex(512)
//	salt, _ := slowcipher.RandomHex(512)
//
//	result, err := slowcipher.Encrypt(ctx, "secret", key, iv, salt, 10000, 0,
//	    slowcipher.WithProgress(func(p slowcipher.Progress) {
//	        fmt.Printf("%d/%d, %s left\n", p.Index, p.StepCount, p.RemainingTime)
//	    }))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	message, err := slowcipher.DecryptWithComputedKey(result.CipherText,
//	    result.ComputedKeyHex, iv, salt)
//
// # Algorithms
//
// Each round applies PBKDF2-HMAC-SHA256 with 1000 iterations and a 512-bit
// output to the previous round's output. Ciphertext is Rijndael with a
// 128-bit block in CFB mode with ANSI X9.23 padding, base64 encoded. The
// salt hex is appended to the message before encryption. None of this
// authenticates the ciphertext.
//
// # Resuming
//
// Round i+1 depends only on round i, so
//
//	ComputeKey(ctx, k, s, n, 0) == ComputeKey(ctx, ComputeKey(ctx, k, s, m, 0), s, n, m)
//
// for any m <= n. An *InterruptedError carries the state to resume from.
// With WithCheckpointStore, progress is also written to a checkpoint.Store
// every 1000 rounds and at the end, and a later call with the same session
// ID and parameters continues from the stored round.
package slowcipher
