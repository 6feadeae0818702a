package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"stellarreg/api/internal/config"
)

type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

var DefaultPasswordParams = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

// DefaultSessionParams are lighter than the password ones: session tokens are
// high-entropy already and are verified on every admin request.
var DefaultSessionParams = Argon2Params{
	Time:    1,
	Memory:  16 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

func ParamsFromConfig(cfg config.HashConfig, fallback Argon2Params) Argon2Params {
	params := fallback
	if cfg.Time > 0 {
		params.Time = cfg.Time
	}
	if cfg.Memory > 0 {
		params.Memory = cfg.Memory
	}
	if cfg.Threads > 0 {
		params.Threads = cfg.Threads
	}
	if cfg.KeyLen > 0 {
		params.KeyLen = cfg.KeyLen
	}
	if cfg.SaltLen > 0 {
		params.SaltLen = cfg.SaltLen
	}
	return params
}

// Hasher produces and verifies salted one-way hashes of secrets.
type Hasher struct {
	params Argon2Params
}

func NewHasher(params Argon2Params) *Hasher {
	return &Hasher{params: params}
}

func (h *Hasher) Hash(secret string) ([]byte, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(secret), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	encoded := base64.RawStdEncoding.EncodeToString(hash)
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)

	result := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Threads, encodedSalt, encoded)

	return []byte(result), nil
}

// Verify reports whether secret matches encodedHash. Malformed hashes are a
// plain mismatch so callers cannot tell them apart from a wrong secret.
func (h *Hasher) Verify(secret string, encodedHash []byte) bool {
	if secret == "" || len(encodedHash) == 0 {
		return false
	}

	encoded := string(encodedHash)
	if isBcrypt(encoded) {
		return bcrypt.CompareHashAndPassword(encodedHash, []byte(secret)) == nil
	}

	params, salt, hash, err := decodeArgon2(encoded)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(secret), salt, params.Time, params.Memory, params.Threads, params.KeyLen)
	return subtle.ConstantTimeCompare(hash, computed) == 1
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func decodeArgon2(encoded string) (Argon2Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Argon2Params{}, nil, nil, fmt.Errorf("unsupported hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2.Version {
		return Argon2Params{}, nil, nil, fmt.Errorf("incompatible argon2 version %d", version)
	}

	var params Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Threads); err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("parse params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("decode hash: %w", err)
	}
	if len(hash) == 0 || params.Time == 0 || params.Threads == 0 {
		return Argon2Params{}, nil, nil, fmt.Errorf("degenerate hash parameters")
	}

	params.KeyLen = uint32(len(hash))
	params.SaltLen = uint32(len(salt))
	return params, salt, hash, nil
}
