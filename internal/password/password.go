// Package password hashes credentials with argon2id before they reach the
// record store. The identity provider keeps its own credential material; the
// hash stored here is never sent to it.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Params tunes the argon2id cost. Defaults follow the RFC 9106 low-memory
// recommendation.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultParams is used by Hash.
var DefaultParams = Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

var errInvalidHash = errors.New("invalid password hash")

// Hash derives an encoded argon2id hash embedding parameters and salt.
func Hash(password string) (string, error) {
	p := DefaultParams

	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Time,
		p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify checks a password against an encoded argon2id hash in constant time.
func Verify(password, encoded string) (bool, error) {
	var (
		version int
		p       Params
	)
	var saltB64, sumB64 string
	n, err := fmt.Sscanf(encoded, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		&version, &p.Memory, &p.Time, &p.Threads, &saltB64)
	if err != nil || n != 5 || version != argon2.Version {
		return false, errInvalidHash
	}

	// Sscanf's %s consumes through the end of the string; split the final
	// salt$sum segment manually.
	for i := range saltB64 {
		if saltB64[i] == '$' {
			sumB64 = saltB64[i+1:]
			saltB64 = saltB64[:i]
			break
		}
	}
	if sumB64 == "" {
		return false, errInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false, errInvalidHash
	}
	expected, err := base64.RawStdEncoding.DecodeString(sumB64)
	if err != nil {
		return false, errInvalidHash
	}

	actual := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}
