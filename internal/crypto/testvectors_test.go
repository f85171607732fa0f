package crypto

// Vectors produced by the CryptoJS reference implementation.
const (
	vectorKeyHex  = "ffbcf8227070e1771253eb43bae6d4d6755fe85ab351294cf60c960e79ce909e37edf32cdcfa31646aa530bc16e11a4de3ebb73d620a02005d14e403f88fcc7b"
	vectorIVHex   = "ee9d3b29d8a59806769136c20e996a0e2d676750e4bc3d084ca3ddcd21c8caa5ad08c5af544862d8d7914bee6f41f9612f171024432eeda08ffd470dc874bb8c"
	vectorSaltHex = "ea09f696d42e87c9019c47f49a09ab0640042d8f60724d920f26e91783f2bc24ec952143ecf1aa19d65183a898d40c9f5b27ecfa477b408e70c7c5fa010de514"

	// vectorKeyResult is the key after 3 PBKDF2-SHA256 rounds of 1000 iterations.
	vectorKeyResult = "ccb996b0d20ba6306fb9da32cd2ff39bd5157079f272f6cc40494377f5b1b2b9ad8eabc9e7338068304441576861ab471c75b998c67c5c7d4b810e2042f4f2f5"
	// vectorKeyPartial is the key after 2 rounds.
	vectorKeyPartial = "e6131ee2de024e6325ffef867e3ffb25bb966cf2a80cbcc83d041e6d91d4c0eb3761d79ac337b23792a37d6130dfaf18531dc785aeaecb881b9171d9c96fec3c"

	vectorMessage    = "some secret message"
	vectorCipherText = "NKhFttNKxCsb7g+zAYUECtJP66ULM3Oegjv/xefS7n/ATPBO4ZQqEA6cJkTQapm414QRADFsOuhj3dmxQ2mLh6/jG6fYwd4CFGhjumd5wnynKL5z4o8pxZp3I+6Mxj5UNYLjX7BbCkZVe45ELsXTc4wzKnBIQaujygtWfCudk7nkK5Q8G4KDW98OPsWvOsLnJRe1k1y8i7vMkjJkcbI/Pg=="

	// 256-bit variant: first 64 hex chars of each input, one round.
	vectorKey256Result  = "69c46734ea6ccf5298ac070dcf450d8c3aa5bdd97f9acf1a445893aa56505a79"
	vectorCipherText256 = "AxkO1J22Rjbn8Jo4lesmaeqtNi+zfG8l5vIBcNALJPhe84jxKDU8HGWjlXpPbodKwrKGQ2g8dqGu4r75il+MHMa9V301V+rgYaB7x8cMLCv3mBxcU7h2GwIJS8oBfDvv"
)

func mustHex(s string) []byte {
	b, err := HexToBytes(s)
	if err != nil {
		panic(err)
	}
	return b
}
