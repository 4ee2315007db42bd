package cas

import (
	_ "crypto/sha256" // registers sha256 for go-digest
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/opencontainers/go-digest"
	"go.trai.ch/zerr"
)

// algSHA1 is not supported by go-digest; shasums are checked separately.
const algSHA1 = digest.Algorithm("sha1")

var strength = map[digest.Algorithm]int{
	algSHA1:       1,
	digest.SHA256: 2,
	digest.SHA384: 3,
	digest.SHA512: 4,
}

// sha1HexLen is the length of a hex encoded SHA-1.
const sha1HexLen = 40

// expectation is the hash a download has to match.
type expectation struct {
	alg     digest.Algorithm
	encoded string // hex
}

// parseIntegrity picks the strongest supported hash of an SRI string.
func parseIntegrity(sri string) (expectation, error) {
	var best expectation
	for _, field := range strings.Fields(sri) {
		algName, b64, ok := strings.Cut(field, "-")
		if !ok {
			continue
		}
		alg := digest.Algorithm(algName)
		if strength[alg] <= strength[best.alg] {
			continue
		}
		// Options like "?foo" may follow the hash.
		b64, _, _ = strings.Cut(b64, "?")
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return expectation{}, zerr.With(zerr.Wrap(err, domain.ErrUnsupportedIntegrity.Error()), "integrity", sri)
		}
		best = expectation{alg: alg, encoded: hex.EncodeToString(raw)}
	}

	if best.alg == "" {
		return expectation{}, zerr.With(domain.ErrUnsupportedIntegrity, "integrity", sri)
	}
	return best, nil
}

// expectationFor derives what a download of r has to hash to.
func expectationFor(r domain.Resolution) (expectation, bool, error) {
	switch {
	case r.Integrity != "":
		exp, err := parseIntegrity(r.Integrity)
		return exp, err == nil, err
	case r.Shasum != "":
		shasum := strings.ToLower(r.Shasum)
		if !isHex(shasum, sha1HexLen) {
			return expectation{}, false, zerr.With(domain.ErrUnsupportedIntegrity, "shasum", r.Shasum)
		}
		return expectation{alg: algSHA1, encoded: shasum}, true, nil
	default:
		return expectation{}, false, nil
	}
}

// sri renders a hex hash in Subresource Integrity form.
func sri(alg digest.Algorithm, encoded string) string {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return string(alg) + "-" + encoded
	}
	return string(alg) + "-" + base64.StdEncoding.EncodeToString(raw)
}

// render formats exp the way the resolution recorded it.
func (e expectation) render() string {
	if e.alg == algSHA1 {
		return e.encoded
	}
	return sri(e.alg, e.encoded)
}

// isHex reports whether s is n lowercase hex digits. Hashes name store
// paths, so nothing else may pass.
func isHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
