package util

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidArgon2idHash is returned when an encoded verifier cannot be parsed.
var ErrInvalidArgon2idHash = errors.New("invalid argon2id hash")

const argon2idPrefix = "$argon2id$"

type Argon2idParams struct {
	Time        uint32 `json:"time"`
	MemoryKiB   uint32 `json:"memory"`
	Parallelism uint8  `json:"parallelism"`
	KeyLen      uint32 `json:"key_len"`
}

// DefaultArgon2idParams returns the OWASP minimum recommendation
// (m=19 MiB, t=2, p=1).
func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:        2,
		MemoryKiB:   19 * 1024,
		Parallelism: 1,
		KeyLen:      32,
	}
}

func ValidateArgon2idParams(p Argon2idParams) error {
	switch {
	case p.Time < 1:
		return fmt.Errorf("argon2id time must be at least 1")
	case p.MemoryKiB < 8*uint32(p.Parallelism) || p.MemoryKiB == 0:
		return fmt.Errorf("argon2id memory must be at least 8 KiB per lane")
	case p.Parallelism < 1:
		return fmt.Errorf("argon2id parallelism must be at least 1")
	case p.KeyLen != 32:
		return fmt.Errorf("argon2id key length must be 32 bytes")
	}
	return nil
}

func DeriveArgon2idKey(passphrase string, salt []byte, params Argon2idParams) ([]byte, error) {
	if err := ValidateArgon2idParams(params); err != nil {
		return nil, err
	}
	key := argon2.IDKey([]byte(passphrase), salt, params.Time, params.MemoryKiB, params.Parallelism, params.KeyLen)
	return key, nil
}

func CompareArgon2idKey(passphrase string, salt []byte, params Argon2idParams, expectedKey []byte) (bool, error) {
	key, err := DeriveArgon2idKey(passphrase, salt, params)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(key, expectedKey) == 1, nil
}

// IsArgon2idHash reports whether s looks like an encoded argon2id verifier.
func IsArgon2idHash(s string) bool {
	return strings.HasPrefix(s, argon2idPrefix)
}

// EncodeArgon2idHash renders a verifier in the PHC string format:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<key>
func EncodeArgon2idHash(params Argon2idParams, salt, key []byte) string {
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix, argon2.Version,
		params.MemoryKiB, params.Time, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

// ParseArgon2idHash is the inverse of EncodeArgon2idHash.
func ParseArgon2idHash(encoded string) (Argon2idParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidArgon2idHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Argon2idParams{}, nil, nil, fmt.Errorf("%w: unsupported version", ErrInvalidArgon2idHash)
	}
	var p Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &p.Parallelism); err != nil {
		return Argon2idParams{}, nil, nil, fmt.Errorf("%w: parameters: %v", ErrInvalidArgon2idHash, err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Argon2idParams{}, nil, nil, fmt.Errorf("%w: salt", ErrInvalidArgon2idHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, fmt.Errorf("%w: key", ErrInvalidArgon2idHash)
	}
	p.KeyLen = uint32(len(key))
	if err := ValidateArgon2idParams(p); err != nil {
		return Argon2idParams{}, nil, nil, fmt.Errorf("%w: %v", ErrInvalidArgon2idHash, err)
	}
	return p, salt, key, nil
}
