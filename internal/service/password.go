package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/Payphone-Digital/auth-service/config"
	"golang.org/x/crypto/argon2"
)

// PasswordHasher turns secrets into one-way digests and checks them later.
// It hashes both user passwords and refresh tokens.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(digest, plaintext string) bool
}

// Argon2Params controls the Argon2id cost. MemoryKiB is in KiB.
type Argon2Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params is a baseline for interactive logins.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func Argon2ParamsFromConfig(cfg config.PasswordConfig) Argon2Params {
	return Argon2Params{
		MemoryKiB:   cfg.MemoryKiB,
		Iterations:  cfg.Iterations,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	}
}

// Argon2Hasher produces PHC strings:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
type Argon2Hasher struct {
	params Argon2Params
}

func NewArgon2Hasher(params Argon2Params) *Argon2Hasher {
	return &Argon2Hasher{params: params}
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Iterations,
		h.params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify never errors: a malformed digest or one whose parameters are far
// above the configured cost simply does not match.
func (h *Argon2Hasher) Verify(digest, plaintext string) bool {
	params, salt, expected, ok := decodeArgon2(digest)
	if !ok || !h.withinBounds(params) {
		return false
	}

	key := argon2.IDKey([]byte(plaintext), salt, params.Iterations, params.MemoryKiB, params.Parallelism, uint32(len(expected)))

	return subtle.ConstantTimeCompare(key, expected) == 1
}

// withinBounds keeps an attacker-controlled digest from forcing a huge
// memory or time cost. Older, cheaper digests still verify.
func (h *Argon2Hasher) withinBounds(got Argon2Params) bool {
	if got.MemoryKiB > h.params.MemoryKiB*2 || got.Iterations > h.params.Iterations*2 {
		return false
	}
	if uint32(got.Parallelism) > uint32(h.params.Parallelism)*2 {
		return false
	}
	return got.SaltLength >= 8 && got.SaltLength <= 64 && got.KeyLength >= 16 && got.KeyLength <= 128
}

func decodeArgon2(encoded string) (Argon2Params, []byte, []byte, bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2Params{}, nil, nil, false
	}

	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return Argon2Params{}, nil, nil, false
	}

	var mem, iter, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iter, &par); err != nil {
		return Argon2Params{}, nil, nil, false
	}
	if mem == 0 || iter == 0 || par == 0 || par > 255 {
		return Argon2Params{}, nil, nil, false
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, false
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2Params{}, nil, nil, false
	}

	return Argon2Params{
		MemoryKiB:   mem,
		Iterations:  iter,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}, salt, key, true
}
