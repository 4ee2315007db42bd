package domain

import (
	"net/url"
	"strings"

	"go.trai.ch/zerr"
)

// SpecifierKind classifies how a specifier is resolved.
type SpecifierKind int

const (
	// SpecRange is a semantic version range such as "^1.2.0" or "2.0.0".
	SpecRange SpecifierKind = iota
	// SpecTag is a registry dist-tag such as "latest".
	SpecTag
	// SpecTarball is a direct http(s) tarball URL.
	SpecTarball
	// SpecGitHub is a GitHub "owner/repo[#ref]" shorthand.
	SpecGitHub
)

func (k SpecifierKind) String() string {
	switch k {
	case SpecRange:
		return "range"
	case SpecTag:
		return "tag"
	case SpecTarball:
		return "tarball"
	case SpecGitHub:
		return "github"
	default:
		return "unknown"
	}
}

const codeloadBase = "https://codeload.github.com/"

// Specifier is a parsed manifest dependency specifier.
type Specifier struct {
	// Name is the dependency name the specifier belongs to.
	Name string
	// Raw is the literal string from the manifest.
	Raw string
	// Kind selects the resolution strategy.
	Kind SpecifierKind
	// URL is the tarball location for SpecTarball and SpecGitHub.
	URL string
}

// IsRegistry reports whether the specifier is resolved through the registry.
func (s Specifier) IsRegistry() bool {
	return s.Kind == SpecRange || s.Kind == SpecTag
}

// Key identifies the requirement within one resolution run.
func (s Specifier) Key() string {
	return s.Name + "@" + s.Raw
}

// ParseSpecifier interprets the raw specifier declared for name.
func ParseSpecifier(name, raw string) (Specifier, error) {
	raw = strings.TrimSpace(raw)
	spec := Specifier{Name: name, Raw: raw}

	switch {
	case raw == "":
		spec.Kind = SpecRange
	case strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://"):
		if _, err := url.Parse(raw); err != nil {
			return Specifier{}, invalidSpecifier(name, raw)
		}
		spec.Kind = SpecTarball
		spec.URL = raw
	case isGitHubShorthand(raw):
		spec.Kind = SpecGitHub
		spec.URL = gitHubTarballURL(raw)
	case IsRange(raw):
		spec.Kind = SpecRange
	case isTag(raw):
		spec.Kind = SpecTag
	default:
		return Specifier{}, invalidSpecifier(name, raw)
	}

	return spec, nil
}

// ParsePackageArg splits a command line package argument into a name and a raw specifier.
// "@scope/pkg@^1.0.0" yields ("@scope/pkg", "^1.0.0"), "owner/repo" yields ("repo", "owner/repo")
// and a tarball URL yields an empty name, which is only known after fetching.
func ParsePackageArg(arg string) (name, raw string) {
	arg = strings.TrimSpace(arg)

	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return "", arg
	}
	if isGitHubShorthand(arg) {
		repo := strings.TrimPrefix(arg, "github:")
		repo, _, _ = strings.Cut(repo, "#")
		return repo[strings.LastIndex(repo, "/")+1:], arg
	}

	search := arg
	offset := 0
	if strings.HasPrefix(arg, "@") {
		search = arg[1:]
		offset = 1
	}
	if idx := strings.Index(search, "@"); idx >= 0 {
		return arg[:idx+offset], arg[idx+offset+1:]
	}
	return arg, ""
}

func isGitHubShorthand(raw string) bool {
	if strings.HasPrefix(raw, "github:") {
		return true
	}
	if strings.HasPrefix(raw, "@") || strings.ContainsAny(raw, " <>=^~|*") {
		return false
	}
	repo, _, _ := strings.Cut(raw, "#")
	parts := strings.Split(repo, "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != "" && !strings.Contains(parts[0], ":")
}

func gitHubTarballURL(raw string) string {
	repo := strings.TrimPrefix(raw, "github:")
	repo, ref, _ := strings.Cut(repo, "#")
	if ref == "" {
		ref = "master"
	}
	return codeloadBase + repo + "/tar.gz/" + ref
}

func isTag(raw string) bool {
	if strings.ContainsAny(raw, " /\\:@") {
		return false
	}
	return url.PathEscape(raw) == raw
}

func invalidSpecifier(name, raw string) error {
	err := zerr.With(ErrInvalidSpecifier, "package", name)
	return zerr.With(err, "specifier", raw)
}
