package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength = 16
	keyLength  = 32

	// upper bounds accepted from a stored hash
	maxMemoryKB  = 4 * 1024 * 1024
	maxKeyLength = 1024
)

// PasswordHasher derives argon2id hashes encoded as
// $argon2id$v=19$m=<KiB>,t=<iterations>,p=<threads>$<salt>$<key>.
type PasswordHasher struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

// DefaultPasswordHasher takes one pass over 64 MiB with four lanes.
func DefaultPasswordHasher() PasswordHasher {
	return PasswordHasher{Time: 1, MemoryKB: 64 * 1024, Threads: 4}
}

func (h PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.Time, h.MemoryKB, h.Threads, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.MemoryKB, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify checks password against encoded. legacy reports a match against an
// unsalted SHA-256 hex digest, which the caller should replace.
func (h PasswordHasher) Verify(password, encoded string) (ok bool, legacy bool, err error) {
	if isLegacyHash(encoded) {
		sum := sha256.Sum256([]byte(password))
		want, _ := hex.DecodeString(encoded)
		return subtle.ConstantTimeCompare(sum[:], want) == 1, true, nil
	}

	params, salt, want, err := decodeHash(encoded)
	if err != nil {
		return false, false, err
	}
	got := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKB, params.Threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, false, nil
}

// NeedsRehash reports whether encoded was produced with different parameters.
func (h PasswordHasher) NeedsRehash(encoded string) bool {
	if isLegacyHash(encoded) {
		return true
	}
	params, _, _, err := decodeHash(encoded)
	if err != nil {
		return true
	}
	return params != h
}

func isLegacyHash(encoded string) bool {
	if len(encoded) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(encoded)
	return err == nil
}

func decodeHash(encoded string) (PasswordHasher, []byte, []byte, error) {
	var params PasswordHasher

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, fmt.Errorf("unrecognized password hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, fmt.Errorf("invalid hash version: %w", err)
	}
	if version != argon2.Version {
		return params, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.MemoryKB, &params.Time, &params.Threads); err != nil {
		return params, nil, nil, fmt.Errorf("invalid hash parameters: %w", err)
	}
	if params.Time == 0 || params.Threads == 0 || params.MemoryKB == 0 || params.MemoryKB > maxMemoryKB {
		return params, nil, nil, fmt.Errorf("hash parameters out of range: m=%d,t=%d,p=%d", params.MemoryKB, params.Time, params.Threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("invalid hash salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxKeyLength {
		return params, nil, nil, fmt.Errorf("invalid hash key")
	}
	return params, salt, key, nil
}
