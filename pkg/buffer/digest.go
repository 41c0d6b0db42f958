package buffer

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not authentication
	"encoding/hex"
)

// Digest is a hex-encoded content fingerprint of a serialized document.
// The zero value is the sentinel for "no content" (file did not exist).
type Digest string

// IsZero reports whether d is the absent-content sentinel.
func (d Digest) IsZero() bool { return d == "" }

// Sum returns the digest of blob. Equal blobs always yield equal digests,
// and the value is stable across processes. A nil blob yields the zero
// Digest; an empty but non-nil blob hashes normally.
func Sum(blob []byte) Digest {
	if blob == nil {
		return ""
	}

	h := md5.Sum(blob) //nolint:gosec

	return Digest(hex.EncodeToString(h[:]))
}
