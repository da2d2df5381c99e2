package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters follow the OWASP recommendation: memory=64MB,
// iterations=3, parallelism=4.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB in KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// passwordSpecialChars is the set a password must draw at least one
// character from.
const passwordSpecialChars = `!@#$%^&*()_+-=[]{}|;:,.<>?`

var errEmptyPassword = errors.New("password must not be empty")

// hashPassword derives an argon2id hash under a fresh random salt. Both are
// returned base64-encoded and stored in separate columns.
func hashPassword(password string) (hash, salt string, err error) {
	if password == "" {
		return "", "", errEmptyPassword
	}

	rawSalt := make([]byte, argonSaltLen)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), rawSalt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return base64.StdEncoding.EncodeToString(key), base64.StdEncoding.EncodeToString(rawSalt), nil
}

// verifyPassword recomputes the hash under the stored salt and compares in
// constant time. Malformed stored values never match.
func verifyPassword(password, hash, salt string) bool {
	if password == "" {
		return false
	}

	expected, err := base64.StdEncoding.DecodeString(hash)
	if err != nil || len(expected) == 0 {
		return false
	}
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), rawSalt, argonTime, argonMemory, argonThreads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(expected, computed) == 1
}

// dummyHash and dummySalt let Login spend the same argon2 work on unknown
// identifiers as on real accounts.
var dummyHash, dummySalt = func() (string, string) {
	h, s, _ := hashPassword("timing-equalizer")
	return h, s
}()

// checkPasswordStrength returns the message of the first rule the password
// breaks, or "" if it passes. Length is counted in characters, and any
// Unicode letter satisfies the letter rule.
func checkPasswordStrength(password string) string {
	if utf8.RuneCountInString(password) < 8 {
		return "Password must be at least 8 characters long"
	}

	var hasLetter, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecialChars, r):
			hasSpecial = true
		}
	}

	if !hasLetter {
		return "Password must contain at least one letter"
	}
	if !hasDigit {
		return "Password must contain at least one number"
	}
	if !hasSpecial {
		return "Password must contain at least one special character (" + passwordSpecialChars + ")"
	}
	return ""
}
