// Package auth faz o hash e a verificação de senhas.
package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	scheme     = "pbkdf2-sha512"
	iterations = 25000
	saltSize   = 16
	keySize    = 64
)

// ErrMalformedHash indica um hash armazenado em formato desconhecido.
var ErrMalformedHash = errors.New("malformed password hash")

var b64 = base64.RawStdEncoding

// HashPassword gera $pbkdf2-sha512$<iterações>$<salt>$<chave> com salt aleatório.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha512.New)
	return fmt.Sprintf("$%s$%d$%s$%s", scheme, iterations, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword compara a senha com o hash em tempo constante.
func VerifyPassword(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != scheme {
		return false, ErrMalformedHash
	}
	iter, err := strconv.Atoi(parts[2])
	if err != nil || iter <= 0 {
		return false, ErrMalformedHash
	}
	salt, err := b64.DecodeString(parts[3])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := b64.DecodeString(parts[4])
	if err != nil || len(want) == 0 {
		return false, ErrMalformedHash
	}

	got := pbkdf2.Key([]byte(password), salt, iter, len(want), sha512.New)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
