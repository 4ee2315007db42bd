package domain

import (
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	xsemver "golang.org/x/mod/semver"
)

var constraintCache sync.Map

// NormalizeVersion strips the "=" and "v" prefixes some registries publish,
// so "v5.0.11", "=5.0.11" and "5.0.11" all compare equal.
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "=")
	v = strings.TrimPrefix(v, "v")
	return strings.TrimSpace(v)
}

// IsValidVersion reports whether v is a complete semantic version (major.minor.patch).
func IsValidVersion(v string) bool {
	v = NormalizeVersion(v)
	if !xsemver.IsValid("v" + v) {
		return false
	}
	core, _, _ := strings.Cut(v, "+")
	core, _, _ = strings.Cut(core, "-")
	return strings.Count(core, ".") == 2
}

// CompareVersions returns -1, 0 or +1 depending on whether a is lower than,
// equal to, or greater than b. Invalid versions sort lowest.
func CompareVersions(a, b string) int {
	return xsemver.Compare("v"+NormalizeVersion(a), "v"+NormalizeVersion(b))
}

// IsRange reports whether raw parses as a semantic version range.
func IsRange(raw string) bool {
	_, err := parseRange(raw)
	return err == nil
}

// Satisfies reports whether version satisfies the range rng.
func Satisfies(version, rng string) bool {
	c, err := parseRange(rng)
	if err != nil {
		return false
	}
	v, err := semver.NewVersion(NormalizeVersion(version))
	if err != nil {
		return false
	}
	return c.Check(v)
}

// MaxSatisfying returns the highest version in versions that satisfies rng.
func MaxSatisfying(versions []string, rng string) (string, bool) {
	best := ""
	for _, v := range versions {
		if !Satisfies(v, rng) {
			continue
		}
		if best == "" || CompareVersions(v, best) > 0 {
			best = v
		}
	}
	return best, best != ""
}

func parseRange(rng string) (*semver.Constraints, error) {
	rng = strings.TrimSpace(rng)
	if rng == "" || rng == "x" || rng == "X" {
		rng = "*"
	}
	if cached, ok := constraintCache.Load(rng); ok {
		return cached.(*semver.Constraints), nil
	}
	c, err := semver.NewConstraint(rng)
	if err != nil {
		return nil, err
	}
	constraintCache.Store(rng, c)
	return c, nil
}
