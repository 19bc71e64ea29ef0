// Package cookies resolves the cookie secret and signs cookies with keys
// derived from it.
package cookies

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	randomSecretBytes = 16
	hashKeyLength     = 64
	blockKeyLength    = 32
	keySalt           = "vonout-backend/cookies"
)

// ResolveSecret returns the configured secret, or a random one when none is
// configured. A generated secret lives only as long as the process, so every
// restart invalidates the cookies signed before it.
func ResolveSecret(configured string) (secret string, generated bool, err error) {
	if configured != "" {
		return configured, false, nil
	}
	secret, err = GenerateSecret()
	if err != nil {
		return "", false, err
	}
	return secret, true, nil
}

// GenerateSecret returns 16 random bytes, hex encoded.
func GenerateSecret() (string, error) {
	buf := make([]byte, randomSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate cookie secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Keys are the HMAC and AES keys derived from one secret.
type Keys struct {
	Hash  []byte
	Block []byte
}

// DeriveKeys expands the secret with HKDF-SHA256 so the signing key and the
// encryption key are independent.
func DeriveKeys(secret string) (Keys, error) {
	hashKey, err := expand(secret, "hash", hashKeyLength)
	if err != nil {
		return Keys{}, err
	}
	blockKey, err := expand(secret, "block", blockKeyLength)
	if err != nil {
		return Keys{}, err
	}
	return Keys{Hash: hashKey, Block: blockKey}, nil
}

func expand(secret, info string, n int) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), []byte(keySalt), []byte(info))
	key := make([]byte, n)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
	}
	return key, nil
}
