package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeLength is the number of digits in a verification code.
const codeLength = 6

var codeSpace = big.NewInt(1_000_000)

// generateCode returns a uniformly random zero-padded six-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generating verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeLength, n.Int64()), nil
}

// validCode reports whether s is exactly six ASCII digits.
func validCode(s string) bool {
	if len(s) != codeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
