package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrEmptyPassword = errors.New("password must not be empty")

// PasswordHasher turns a plaintext credential into a stored one-way hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 3, Memory: 64 * 1024, Threads: 2, KeyLen: 32, SaltLen: 16}
}

type Argon2Hasher struct {
	params Argon2Params
}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{params: DefaultArgon2Params()}
}

func NewArgon2HasherWithParams(params Argon2Params) *Argon2Hasher {
	return &Argon2Hasher{params: params}
}

// Hash returns an argon2id PHC string; every call uses a fresh random salt.
func (h *Argon2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	p := h.params
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (h *Argon2Hasher) Verify(encoded, password string) (bool, error) {
	decoded, err := decodeArgon2Hash(encoded)
	if err != nil {
		return false, err
	}
	if uint64(len(decoded.key)) > uint64(math.MaxUint32) {
		return false, fmt.Errorf("invalid hash length")
	}
	// #nosec G115 -- bounded by explicit MaxUint32 check above.
	keyLen := uint32(len(decoded.key))
	actual := argon2.IDKey([]byte(password), decoded.salt, decoded.time, decoded.memory, decoded.threads, keyLen)
	return subtle.ConstantTimeCompare(actual, decoded.key) == 1, nil
}

type argon2Hash struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func decodeArgon2Hash(encoded string) (argon2Hash, error) {
	var out argon2Hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return out, fmt.Errorf("invalid password hash format")
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &out.memory, &out.time, &out.threads); err != nil {
		return out, fmt.Errorf("invalid hash params")
	}
	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return out, fmt.Errorf("invalid hash salt")
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return out, fmt.Errorf("invalid hash payload")
	}
	return out, nil
}
