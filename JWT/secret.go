package jwt_service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const MinSecretLength = 16

// GenerateSecret returns a random URL-safe string suitable for JWT_SECRET.
func GenerateSecret(length int) (string, error) {
	if length < MinSecretLength {
		return "", fmt.Errorf("secret length must be at least %d", MinSecretLength)
	}
	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}
