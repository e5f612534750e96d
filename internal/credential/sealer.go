package credential

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const nonceSize = 24

// scrypt cost parameters for deriving the box key from CREDENTIAL_SECRET.
// Derivation runs once per process, so the cost is paid at startup only.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// keySalt is fixed: there is one key per deployment, and the nonce already
// makes every sealed value unique.
var keySalt = []byte("lecture-notes-api/credential/v1")

// ErrUnseal is returned when a stored value cannot be decrypted, usually
// because CREDENTIAL_SECRET changed.
var ErrUnseal = errors.New("stored credential could not be decrypted")

// Sealer encrypts values at rest with NaCl secretbox.
type Sealer struct {
	key [32]byte
}

// NewSealer derives the box key from secret with scrypt.
func NewSealer(secret string) *Sealer {
	s := &Sealer{}
	copy(s.key[:], deriveKey(secret))
	return s
}

func deriveKey(secret string) []byte {
	key, err := scrypt.Key([]byte(secret), keySalt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		// Only reachable with invalid cost parameters, which are constants.
		panic(fmt.Sprintf("credential: scrypt parameters rejected: %v", err))
	}
	return key
}

// Seal encrypts plaintext and returns nonce+box, base64 encoded.
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrUnseal
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrUnseal
	}
	return string(plain), nil
}
