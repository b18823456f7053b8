// Package registry implements the npm registry client.
//
// Packument responses are cached through pkg/cache and fetched with
// retry/backoff, so repeated resolutions of the same dependency graph hit
// the network once per package name.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pakt-pm/pakt/pkg/cache"
	"github.com/pakt-pm/pakt/pkg/errors"
	"github.com/pakt-pm/pakt/pkg/httputil"
	"github.com/pakt-pm/pakt/pkg/semver"
)

// Client fetches package metadata and tarballs from an npm-compatible registry.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	matcher semver.Matcher
	baseURL string
	ttl     time.Duration
}

// NewClient creates a registry client. An empty baseURL selects the public
// npm registry; a nil cache disables caching.
func NewClient(baseURL string, c cache.Cache, ttl time.Duration, m semver.Matcher) *Client {
	if baseURL == "" {
		baseURL = "https://registry.npmjs.org"
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    httputil.NewHTTPClient(),
		cache:   c,
		matcher: m,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		ttl:     ttl,
	}
}

// FetchMetadata resolves name@spec to a concrete version and returns its
// metadata. The specifier is validated before any network call. Unknown
// packages yield PACKAGE_NOT_FOUND; a known package with no version
// matching spec yields NO_SATISFYING_VERSION.
func (c *Client) FetchMetadata(ctx context.Context, name, spec string) (*Metadata, error) {
	if err := errors.ValidatePackageName(name); err != nil {
		return nil, err
	}
	if err := errors.ValidateSpecifier(spec); err != nil {
		return nil, err
	}

	doc, err := c.packument(ctx, name)
	if err != nil {
		return nil, err
	}

	version, err := c.pickVersion(doc, name, spec)
	if err != nil {
		return nil, err
	}

	vd, ok := doc.Versions[version]
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "registry lists %s@%s without version details", name, version)
	}

	deps := vd.Dependencies
	if deps == nil {
		deps = map[string]string{}
	}
	return &Metadata{
		Name:         name,
		Version:      version,
		Dependencies: deps,
		Tarball:      vd.Dist.Tarball,
		Integrity:    integrity(vd.Dist),
	}, nil
}

// FetchVersionCatalog returns every published version of name in ascending
// semver order.
func (c *Client) FetchVersionCatalog(ctx context.Context, name string) ([]string, error) {
	if err := errors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	doc, err := c.packument(ctx, name)
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(doc.Versions))
	for v := range doc.Versions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return semver.Compare(versions[i], versions[j]) < 0
	})
	return versions, nil
}

// DownloadTarball streams the tarball at rawURL into w.
// Downloads are not retried; a failed download fails only its item.
func (c *Client) DownloadTarball(ctx context.Context, rawURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "download %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodeNetwork, "download %s: status %d", rawURL, resp.StatusCode)
	}

	_, err = io.Copy(w, resp.Body)
	return err
}

// pickVersion maps a specifier to a concrete version within doc.
func (c *Client) pickVersion(doc *packument, name, spec string) (string, error) {
	if semver.IsWildcard(spec) {
		if doc.DistTags.Latest != "" {
			return doc.DistTags.Latest, nil
		}
		// Registries without dist-tags: fall back to the maximum version.
		spec = "*"
	}

	catalog := make([]string, 0, len(doc.Versions))
	for v := range doc.Versions {
		catalog = append(catalog, v)
	}

	version, ok := c.matcher.MaxSatisfying(catalog, spec)
	if !ok {
		return "", errors.New(errors.ErrCodeNoSatisfyingVersion,
			"no version of %s satisfies %s", name, spec)
	}
	return version, nil
}

// packument fetches (or recalls from cache) the registry document for name.
func (c *Client) packument(ctx context.Context, name string) (*packument, error) {
	key := "npm:" + name

	if data, ok, _ := c.cache.Get(ctx, key); ok {
		var doc packument
		if err := json.Unmarshal(data, &doc); err == nil {
			return &doc, nil
		}
		// Corrupt entry: drop it and refetch.
		_ = c.cache.Delete(ctx, key)
	}

	var doc packument
	fetch := func() error {
		return c.get(ctx, c.baseURL+"/"+url.PathEscape(name), &doc)
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		if errors.Is(err, errors.ErrCodePackageNotFound) {
			return nil, errors.Wrap(errors.ErrCodePackageNotFound, err, "npm package %s", name)
		}
		return nil, err
	}

	if data, err := json.Marshal(&doc); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return &doc, nil
}

func (c *Client) get(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", rawURL))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodePackageNotFound, "resource not found")
	case code >= 500:
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "status %d", code))
	default:
		return errors.New(errors.ErrCodeNetwork, "status %d", code)
	}
}

func integrity(d dist) string {
	if d.Integrity != "" {
		return d.Integrity
	}
	if d.Shasum != "" {
		return fmt.Sprintf("sha1-%s", d.Shasum)
	}
	return ""
}
