// Package hash produces and verifies self-describing salted password hashes.
package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Argon2id parameters for new hashes. Verification reads the parameters
// from the stored string, so these can change without invalidating it.
const (
	defaultTime    uint32 = 3
	defaultMemory  uint32 = 64 * 1024 // KiB
	defaultThreads uint8  = 1
	defaultSaltLen uint32 = 16
	defaultKeyLen  uint32 = 32
	phcAlg                = "argon2id"
	phcVersion            = 19

	// upper bounds accepted from a stored hash
	maxMemory uint32 = 1 << 20
	maxTime   uint32 = 16
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// HashPassword returns an Argon2id hash in PHC form:
// $argon2id$v=19$m=65536,t=3,p=1$<saltB64>$<hashB64>
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, defaultSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	sum := argon2.IDKey([]byte(plain), salt, defaultTime, defaultMemory, defaultThreads, defaultKeyLen)
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcAlg, phcVersion, defaultMemory, defaultTime, defaultThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// VerifyPassword reports whether plain matches encoded. Argon2id PHC strings
// and bcrypt hashes ($2a$, $2b$, $2y$) are accepted; anything else fails.
func VerifyPassword(encoded, plain string) bool {
	if isBcrypt(encoded) {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
	}
	params, salt, sum, err := parsePHC(encoded)
	if err != nil {
		return false
	}
	calc := argon2.IDKey([]byte(plain), salt, params.time, params.memory, params.threads, uint32(len(sum)))
	return subtle.ConstantTimeCompare(calc, sum) == 1
}

// Recognized reports whether encoded looks like a hash VerifyPassword can check.
func Recognized(encoded string) bool {
	if isBcrypt(encoded) {
		_, err := bcrypt.Cost([]byte(encoded))
		return err == nil
	}
	_, _, _, err := parsePHC(encoded)
	return err == nil
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

type phcParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

func parsePHC(phc string) (phcParams, []byte, []byte, error) {
	// "", alg, v=19, params, salt, hash
	if !strings.HasPrefix(phc, "$") {
		return phcParams{}, nil, nil, errors.New("invalid phc: missing prefix")
	}
	parts := strings.Split(phc, "$")
	if len(parts) != 6 {
		return phcParams{}, nil, nil, errors.New("invalid phc: parts")
	}
	if parts[1] != phcAlg {
		return phcParams{}, nil, nil, fmt.Errorf("unsupported alg: %s", parts[1])
	}
	if !strings.HasPrefix(parts[2], "v=") {
		return phcParams{}, nil, nil, errors.New("invalid phc: version")
	}
	if v, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v=")); err != nil || v != phcVersion {
		return phcParams{}, nil, nil, fmt.Errorf("unsupported version: %s", parts[2])
	}
	var pp phcParams
	for _, kv := range strings.Split(parts[3], ",") {
		k, val, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "m":
			if v, err := strconv.ParseUint(val, 10, 32); err == nil {
				pp.memory = uint32(v)
			}
		case "t":
			if v, err := strconv.ParseUint(val, 10, 32); err == nil {
				pp.time = uint32(v)
			}
		case "p":
			if v, err := strconv.ParseUint(val, 10, 8); err == nil {
				pp.threads = uint8(v)
			}
		}
	}
	if pp.memory == 0 || pp.time == 0 || pp.threads == 0 {
		return phcParams{}, nil, nil, errors.New("invalid phc: params")
	}
	if pp.memory > maxMemory || pp.time > maxTime {
		return phcParams{}, nil, nil, errors.New("invalid phc: params out of range")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return phcParams{}, nil, nil, errors.New("invalid phc: salt")
	}
	sum, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(sum) == 0 {
		return phcParams{}, nil, nil, errors.New("invalid phc: hash")
	}
	return pp, salt, sum, nil
}
