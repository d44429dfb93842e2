package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version selects a frozen canonicalization rule set.
type Version int

const (
	V1 Version = 1 // single movie, edition-level region
	V2 Version = 2 // region relocated onto discs
	V3 Version = 3 // upc added
	V4 Version = 4 // multi-movie array, surfaces

	Current = V4
)

const idPrefix = "edition"

// ErrUnsupportedVersion indicates a hash version with no implemented rule set.
var ErrUnsupportedVersion = errors.New("unsupported hash version")

// ErrMalformedID indicates a string that is not an edition identity.
var ErrMalformedID = errors.New("malformed edition id")

// Versions lists every supported version in ascending order.
func Versions() []Version {
	return []Version{V1, V2, V3, V4}
}

// Supported reports whether v has an implemented rule set.
func (v Version) Supported() bool {
	return v >= V1 && v <= Current
}

func (v Version) String() string {
	return "v" + strconv.Itoa(int(v))
}

// ID is an edition identity string.
type ID string

// Derive hashes canonical with SHA-256 and composes the identity string for v.
func Derive(canonical []byte, v Version) (ID, error) {
	if !v.Supported() {
		return "", fmt.Errorf("%w: %d", ErrUnsupportedVersion, int(v))
	}
	sum := sha256.Sum256(canonical)
	return ID(fmt.Sprintf("%s:%s:%s", idPrefix, v, hex.EncodeToString(sum[:]))), nil
}

// ParseID validates s and returns it as an ID.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] != idPrefix {
		return "", fmt.Errorf("%w: %q", ErrMalformedID, s)
	}
	if !strings.HasPrefix(parts[1], "v") {
		return "", fmt.Errorf("%w: %q has no version", ErrMalformedID, s)
	}
	n, err := strconv.Atoi(parts[1][1:])
	if err != nil {
		return "", fmt.Errorf("%w: %q has no version", ErrMalformedID, s)
	}
	if !Version(n).Supported() {
		return "", fmt.Errorf("%w: %d", ErrUnsupportedVersion, n)
	}
	if !IsHexDigest(parts[2]) {
		return "", fmt.Errorf("%w: %q digest is not 64 lowercase hex characters", ErrMalformedID, s)
	}
	return ID(s), nil
}

// Version returns the hash version encoded in the id, or 0 when malformed.
func (id ID) Version() Version {
	parts := strings.Split(string(id), ":")
	if len(parts) != 3 || !strings.HasPrefix(parts[1], "v") {
		return 0
	}
	n, err := strconv.Atoi(parts[1][1:])
	if err != nil {
		return 0
	}
	return Version(n)
}

// Hex returns the digest portion, which names the persisted document.
func (id ID) Hex() string {
	if i := strings.LastIndexByte(string(id), ':'); i >= 0 {
		return string(id)[i+1:]
	}
	return ""
}

func (id ID) String() string { return string(id) }

// IsHexDigest reports whether s is exactly 64 lowercase hex characters.
func IsHexDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
