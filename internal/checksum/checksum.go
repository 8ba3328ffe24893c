package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns a strong HTTP entity tag for data.
func ETag(data []byte) string {
	return Tag(Sum(data))
}

// Tag turns a digest from Sum into an entity tag.
func Tag(sum string) string {
	if len(sum) > 32 {
		sum = sum[:32]
	}
	return `"` + sum + `"`
}

// Match reports whether an If-Match / If-None-Match header value refers to
// the checksum of data. Quoted, weak and bare forms are accepted.
func Match(header string, data []byte) bool {
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	sum := Sum(data)
	v := header
	if len(v) > 2 && v[:2] == "W/" {
		v = v[2:]
	}
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	return v == sum || (len(v) == 32 && v == sum[:32])
}
