// Package lockfile builds and serializes the package-lock.json snapshot:
// every package pinned to a concrete version with its resolved tarball URL
// and integrity hash, nested under npm-style packages/ paths.
package lockfile

import (
	"encoding/json"
	"os"

	"github.com/pakt-pm/pakt/pkg/errors"
)

// DefaultFile is the lockfile name written next to package.json.
const DefaultFile = "package-lock.json"

// Version is the lockfile schema version.
const Version = 3

// Entry pins one package occurrence in the tree.
type Entry struct {
	Version      string            `json:"version"`
	Resolved     string            `json:"resolved"`
	Integrity    string            `json:"integrity"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// File is the full lockfile document. Packages is keyed by the package's
// tree path ("packages/a", "packages/a/packages/b"); encoding/json sorts
// map keys on marshal, so serialization is deterministic.
type File struct {
	Name            string           `json:"name"`
	LockfileVersion int              `json:"lockfileVersion"`
	Packages        map[string]Entry `json:"packages"`
}

// New returns an empty lockfile for the named project.
func New(name string) *File {
	return &File{
		Name:            name,
		LockfileVersion: Version,
		Packages:        make(map[string]Entry),
	}
}

// Marshal renders the lockfile as indented JSON with a trailing newline.
func (f *File) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal lockfile")
	}
	return append(data, '\n'), nil
}

// Save writes the lockfile to path.
func (f *File) Save(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// Load reads a lockfile from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "%s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	if f.Packages == nil {
		f.Packages = make(map[string]Entry)
	}
	return &f, nil
}
