package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"accounts/internal/config"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownHashFormat is returned when a stored hash cannot be parsed.
var ErrUnknownHashFormat = errors.New("unknown password hash format")

// PasswordHasher turns a plaintext password into a salted one-way hash and checks candidates against it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
}

// NewPasswordHasher returns the hasher selected by cfg.Algorithm.
func NewPasswordHasher(cfg config.Password) (PasswordHasher, error) {
	switch cfg.Algorithm {
	case config.AlgorithmBcrypt, "":
		return NewBcryptHasher(cfg.BcryptCost), nil
	case config.AlgorithmArgon2id:
		return NewArgon2idHasher(cfg.Argon2Time, cfg.Argon2MemoryKiB, uint8(cfg.Argon2Threads)), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnsupportedPasswordAlgorithm, cfg.Algorithm)
	}
}

// bcryptMaxInput is the number of bytes bcrypt reads from a password.
const bcryptMaxInput = 72

// BcryptHasher hashes with bcrypt. Inputs longer than bcrypt accepts are first
// reduced with SHA-256 so that every accepted password keeps all of its bytes.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

const (
	argon2SaltLen = 16
	argon2KeyLen  = 32

	// Upper bounds accepted from a stored hash.
	argon2MaxMemoryKiB = 1024 * 1024
	argon2MaxTime      = 64
	argon2MaxKeyLen    = 128
)

// Argon2idHasher hashes with argon2id and encodes the result in PHC string format.
type Argon2idHasher struct {
	time    uint32
	memory  uint32
	threads uint8
}

func NewArgon2idHasher(time, memoryKiB uint32, threads uint8) *Argon2idHasher {
	if time == 0 {
		time = 1
	}
	if memoryKiB == 0 {
		memoryKiB = 64 * 1024
	}
	if threads == 0 {
		threads = 4
	}
	return &Argon2idHasher{time: time, memory: memoryKiB, threads: threads}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Check recomputes the key with the parameters stored in hash.
func (h *Argon2idHasher) Check(password, hash string) bool {
	p, err := parseArgon2id(hash)
	if err != nil {
		return false
	}
	key := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseArgon2id(hash string) (*argon2Params, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, ErrUnknownHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, ErrUnknownHashFormat
	}

	p := &argon2Params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownHashFormat, err)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownHashFormat, err)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownHashFormat, err)
	}
	if len(p.key) == 0 || len(p.key) > argon2MaxKeyLen || len(p.salt) == 0 {
		return nil, ErrUnknownHashFormat
	}
	if p.time < 1 || p.time > argon2MaxTime || p.threads < 1 || p.memory < 1 || p.memory > argon2MaxMemoryKiB {
		return nil, fmt.Errorf("%w: parameters out of range", ErrUnknownHashFormat)
	}
	return p, nil
}
