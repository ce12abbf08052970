package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id password hashing parameters. Fixed: changing them invalidates
// every stored hash.
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLength    = 32
)

// HashPassword derives a salted argon2id hash for storage.
// Returns hex-encoded (hash, salt).
func HashPassword(password string) (string, string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return hex.EncodeToString(hash), hex.EncodeToString(salt), nil
}

// VerifyPassword re-derives the hash for password under the stored salt and
// compares in constant time. Never compares plaintext and never short-circuits
// on length.
func VerifyPassword(password, storedHash, storedSalt string) bool {
	salt, err := hex.DecodeString(storedSalt)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	derived := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return subtle.ConstantTimeCompare(expected, derived) == 1
}

// ConstantTimeEquals compares two plaintext secrets without leaking length
// position information. Used for the owner's direct configured-password check.
func ConstantTimeEquals(a, b string) bool {
	// ConstantTimeCompare returns 0 for unequal lengths; fold the lengths into
	// the comparison so both paths do comparable work.
	if subtle.ConstantTimeEq(int32(len(a)), int32(len(b))) == 0 {
		subtle.ConstantTimeCompare([]byte(a), []byte(a))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
