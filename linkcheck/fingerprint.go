package linkcheck

import (
	"crypto/md5"
	"encoding/hex"
	"io"
)

// Fingerprint computes a stable digest over the ordered serialization
// of a link set. Two equal fingerprints imply the link sets contain
// the same urls with the same tag text in the same order, which lets
// the differential checker skip unchanged documents without issuing
// any probes. The digest is a cheap change filter, never a security
// boundary; the anchor classification is deliberately excluded since
// it is derived from the url.
func Fingerprint(links []LinkRecord) string {
	h := md5.New()

	for _, l := range links {
		io.WriteString(h, l.URL)
		h.Write([]byte{'\n'})
		io.WriteString(h, l.RawTag)
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}
