package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// DigestSize is the size in bytes of a SHA-256 digest.
const DigestSize = sha256.Size

// Digest identifies content by the lowercase hex SHA-256 of its bytes.
type Digest string

// DigestOf computes the digest of data.
func DigestOf(data []byte) Digest {
	sum := sha256.Sum256(data)
	return Digest(hex.EncodeToString(sum[:]))
}

// ParseDigest validates s as a digest.
func ParseDigest(s string) (Digest, error) {
	d := Digest(s)
	if !d.Valid() {
		return "", NewError(ErrInvalidDigest, "digest", s)
	}
	return d, nil
}

// Valid reports whether d is 64 lowercase hex characters.
func (d Digest) Valid() bool {
	if len(d) != 2*DigestSize {
		return false
	}
	for i := range len(d) {
		c := d[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// String returns the hex form of the digest.
func (d Digest) String() string {
	return string(d)
}

// Short returns an abbreviated form for display.
func (d Digest) Short() string {
	if len(d) <= 12 {
		return string(d)
	}
	return string(d[:12])
}

// CanonicalDigest digests the canonical JSON encoding of v. Map keys are sorted
// by encoding/json, so callers only need to sort slices whose order is not significant.
func CanonicalDigest(v any) (Digest, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return DigestOf(data), nil
}
