// Package verification runs the email verification lifecycle: issuing a
// six-digit code sealed in an encrypted envelope, checking submissions
// against it with a bounded number of attempts, and re-issuing on request.
//
// The plaintext code exists only in the outgoing email. The account row
// stores the sealed envelope, which carries its own expiry.
package verification

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// envelopeInfo binds derived keys to this use. Changing it invalidates every
// outstanding envelope.
const envelopeInfo = "beritabank verification envelope v1"

var (
	errEnvelopeEmpty     = errors.New("no verification envelope stored")
	errEnvelopeMalformed = errors.New("verification envelope is malformed")
)

// payload is the sealed content of an envelope.
type payload struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	Expiry    time.Time `json:"expiry"`
}

// sealer encrypts payloads with XChaCha20-Poly1305 under a key derived from
// the application secret.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(secret string) (*sealer, error) {
	if secret == "" {
		return nil, errors.New("encryption key is empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(envelopeInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("deriving envelope key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating envelope cipher: %w", err)
	}
	return &sealer{aead: aead}, nil
}

// seal returns base64url(nonce || ciphertext).
func (s *sealer) seal(p payload) (string, error) {
	plaintext, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling envelope: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, plaintext, []byte(envelopeInfo))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// open authenticates and decrypts an envelope. Any tampering, truncation or
// key change is reported as an error.
func (s *sealer) open(envelope string) (*payload, error) {
	if envelope == "" {
		return nil, errEnvelopeEmpty
	}

	raw, err := base64.RawURLEncoding.DecodeString(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errEnvelopeMalformed, err)
	}
	if len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, errEnvelopeMalformed
	}

	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(envelopeInfo))
	if err != nil {
		return nil, fmt.Errorf("opening envelope: %w", err)
	}

	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errEnvelopeMalformed, err)
	}
	if len(p.Code) != codeLength || p.Expiry.IsZero() {
		return nil, errEnvelopeMalformed
	}
	return &p, nil
}
