package domain_test

import (
	"testing"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"go.trai.ch/zerr"
)

const registry = "http://localhost:4873/"

func TestGraph_ToLockfile(t *testing.T) {
	g := domain.NewGraph()
	g.Roots["pkg-with-1-dep"] = "/pkg-with-1-dep/100.0.0"
	g.Roots["is-negative"] = "codeload.github.com/kevva/is-negative/tar.gz/master"
	g.Nodes["/pkg-with-1-dep/100.0.0"] = &domain.Node{
		Path:    "/pkg-with-1-dep/100.0.0",
		Name:    "pkg-with-1-dep",
		Version: "100.0.0",
		Resolution: domain.Resolution{
			Integrity: "sha512-one",
			Shasum:    "ignored-when-integrity-present",
			Tarball:   domain.DefaultTarballURL(registry, "pkg-with-1-dep", "100.0.0"),
		},
		Dependencies: map[string]string{"dep-of-pkg-with-1-dep": "/dep-of-pkg-with-1-dep/100.0.0"},
	}
	g.Nodes["/dep-of-pkg-with-1-dep/100.0.0"] = &domain.Node{
		Path:       "/dep-of-pkg-with-1-dep/100.0.0",
		Name:       "dep-of-pkg-with-1-dep",
		Version:    "100.0.0",
		Resolution: domain.Resolution{Shasum: "abc"},
	}
	g.Nodes["codeload.github.com/kevva/is-negative/tar.gz/master"] = &domain.Node{
		Path:    "codeload.github.com/kevva/is-negative/tar.gz/master",
		Name:    "is-negative",
		Version: "2.1.0",
		Resolution: domain.Resolution{
			Integrity: "sha512-gh",
			Tarball:   "https://codeload.github.com/kevva/is-negative/tar.gz/master",
		},
	}
	g.Nodes["/unreachable/1.0.0"] = &domain.Node{Path: "/unreachable/1.0.0", Name: "unreachable", Version: "1.0.0"}

	lf := g.ToLockfile(registry, map[string]string{"pkg-with-1-dep": "^100.0.0", "is-negative": "kevva/is-negative"})

	if lf.Version != domain.LockfileVersion {
		t.Fatalf("expected version %d, got %d", domain.LockfileVersion, lf.Version)
	}
	root := lf.Root()
	if got := root.Dependencies["pkg-with-1-dep"]; got != "100.0.0" {
		t.Errorf("expected shortened root reference, got %q", got)
	}
	if got := root.Dependencies["is-negative"]; got != "codeload.github.com/kevva/is-negative/tar.gz/master" {
		t.Errorf("expected full path for non-registry dependency, got %q", got)
	}

	pkg := lf.Packages["/pkg-with-1-dep/100.0.0"]
	if pkg == nil {
		t.Fatal("missing /pkg-with-1-dep/100.0.0")
	}
	if pkg.Resolution.Tarball != "" {
		t.Errorf("expected default registry tarball to be omitted, got %q", pkg.Resolution.Tarball)
	}
	if pkg.Resolution.Shasum != "" {
		t.Errorf("expected shasum to be dropped when integrity is present")
	}
	if pkg.Dependencies["dep-of-pkg-with-1-dep"] != "100.0.0" {
		t.Errorf("unexpected dependency reference %q", pkg.Dependencies["dep-of-pkg-with-1-dep"])
	}

	gh := lf.Packages["codeload.github.com/kevva/is-negative/tar.gz/master"]
	if gh == nil || gh.Resolution.Tarball == "" {
		t.Error("expected tarball to be kept for non-registry package")
	}

	if _, ok := lf.Packages["/unreachable/1.0.0"]; ok {
		t.Error("expected unreachable node to be left out")
	}
	if err := lf.Validate(); err != nil {
		t.Errorf("expected valid lockfile, got %v", err)
	}
}

func TestGraph_ToLockfile_ReusesSnapshot(t *testing.T) {
	kept := &domain.Snapshot{Resolution: domain.Resolution{Shasum: "b999d7d935f43f5207b01b00d3de20852f4ca75f"}}

	g := domain.NewGraph()
	g.Roots["@types/semver"] = "/@types/semver/5.3.31"
	g.Nodes["/@types/semver/5.3.31"] = &domain.Node{
		Path:     "/@types/semver/5.3.31",
		Name:     "@types/semver",
		Version:  "5.3.31",
		Snapshot: kept,
	}

	lf := g.ToLockfile(registry, map[string]string{"@types/semver": "^5.3.31"})

	if lf.Packages["/@types/semver/5.3.31"] != kept {
		t.Error("expected the original snapshot record to be reused")
	}
	if lf.Root().Dependencies["@types/semver"] != "5.3.31" {
		t.Errorf("unexpected root reference %q", lf.Root().Dependencies["@types/semver"])
	}
}

func TestBuildCycleError(t *testing.T) {
	err := domain.BuildCycleError([]string{"root@1.0.0", "a@1.0.0", "b@1.0.0", "a@2.0.0"})

	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	if !domain.IsError(err, domain.ErrCyclicDependencyOverflow) {
		t.Errorf("expected cyclic dependency overflow, got %v", err)
	}

	cycle, ok := zErr.Metadata()["cycle"].(string)
	if !ok {
		t.Fatal("expected cycle metadata")
	}
	if cycle != "a@1.0.0 -> b@1.0.0 -> a@2.0.0" {
		t.Errorf("unexpected cycle %q", cycle)
	}
}

func TestBuildCycleError_NoRepeatedName(t *testing.T) {
	err := domain.BuildCycleError([]string{"a@1.0.0", "b@1.0.0", "c@1.0.0"})

	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	if cycle := zErr.Metadata()["cycle"]; cycle != "a@1.0.0 -> b@1.0.0 -> c@1.0.0" {
		t.Errorf("unexpected cycle %v", cycle)
	}
}
