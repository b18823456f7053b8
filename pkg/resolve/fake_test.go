package resolve

import (
	"context"
	"fmt"

	"github.com/pakt-pm/pakt/pkg/errors"
	"github.com/pakt-pm/pakt/pkg/registry"
	"github.com/pakt-pm/pakt/pkg/semver"
)

// fakePackage describes one package in the fake registry.
type fakePackage struct {
	versions []string                     // full catalog, ascending
	deps     map[string]map[string]string // version → declared dependencies
}

// fakeSource is an in-memory registry backed by the real matcher.
type fakeSource struct {
	packages map[string]fakePackage

	fetchCalls   map[string]int // per-name FetchMetadata count
	catalogCalls map[string]int
	fetchErr     map[string]error // forced per-name failures
}

func newFakeSource(packages map[string]fakePackage) *fakeSource {
	return &fakeSource{
		packages:     packages,
		fetchCalls:   make(map[string]int),
		catalogCalls: make(map[string]int),
		fetchErr:     make(map[string]error),
	}
}

func (f *fakeSource) FetchMetadata(ctx context.Context, name, spec string) (*registry.Metadata, error) {
	f.fetchCalls[name]++
	if err := f.fetchErr[name]; err != nil {
		return nil, err
	}
	pkg, ok := f.packages[name]
	if !ok {
		return nil, errors.New(errors.ErrCodePackageNotFound, "npm package %s", name)
	}

	version, ok := semver.New().MaxSatisfying(pkg.versions, spec)
	if !ok {
		return nil, errors.New(errors.ErrCodeNoSatisfyingVersion, "no version of %s satisfies %s", name, spec)
	}

	deps := pkg.deps[version]
	if deps == nil {
		deps = map[string]string{}
	}
	return &registry.Metadata{
		Name:         name,
		Version:      version,
		Dependencies: deps,
		Tarball:      fmt.Sprintf("https://registry.test/%s/-/%s-%s.tgz", name, name, version),
		Integrity:    fmt.Sprintf("sha512-%s-%s", name, version),
	}, nil
}

func (f *fakeSource) FetchVersionCatalog(ctx context.Context, name string) ([]string, error) {
	f.catalogCalls[name]++
	pkg, ok := f.packages[name]
	if !ok {
		return nil, errors.New(errors.ErrCodePackageNotFound, "npm package %s", name)
	}
	return append([]string{}, pkg.versions...), nil
}
