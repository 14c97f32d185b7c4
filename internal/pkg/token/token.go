package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Verification codes are short enough to type from an email; the alphabet
// avoids lowercase to keep them unambiguous.
const (
	verificationCodeLength   = 8
	verificationCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewSecret generates a cryptographically random token of n bytes,
// hex-encoded (2n characters).
func NewSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Hash returns the SHA-256 of a raw token, hex-encoded. Only hashes are
// persisted; the raw token travels to the user exactly once.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewVerificationCode generates an 8-character alphanumeric code drawn
// uniformly from the fixed alphabet.
func NewVerificationCode() (string, error) {
	b := make([]byte, verificationCodeLength)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(verificationCodeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = verificationCodeAlphabet[idx.Int64()]
	}
	return string(b), nil
}
