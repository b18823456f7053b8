// Package manifest reads and writes package.json files.
//
// The dependencies object keeps its on-disk entry order through a
// load/modify/save cycle: adding or updating one package never removes or
// reorders the others. Unknown top-level fields round-trip untouched.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/pakt-pm/pakt/pkg/errors"
)

// DefaultFile is the manifest filename in a project root.
const DefaultFile = "package.json"

// packageArgRe matches "name" or "name@version", including scoped names
// like "@scope/pkg". Group 1 is the name, group 2 the optional version.
var packageArgRe = regexp.MustCompile(`^(@?[a-zA-Z0-9-]+(?:/[a-zA-Z0-9-]+)?)(?:@([^@]+))?$`)

// ParsePackageArg splits a CLI package argument into name and version.
// The version part is empty when the argument carries no "@version" suffix.
func ParsePackageArg(arg string) (name, version string, err error) {
	m := packageArgRe.FindStringSubmatch(arg)
	if m == nil {
		return "", "", errors.New(errors.ErrCodeInvalidPackage, "invalid package name: %s", arg)
	}
	return m[1], m[2], nil
}

// Dependency is one manifest entry: a package name and its version specifier.
type Dependency struct {
	Name string
	Spec string
}

// Dependencies is an insertion-ordered name → specifier mapping.
// The zero value is ready to use.
type Dependencies struct {
	names []string
	specs map[string]string
}

// Get returns the specifier recorded for name.
func (d *Dependencies) Get(name string) (string, bool) {
	spec, ok := d.specs[name]
	return spec, ok
}

// Set records a specifier for name. New names append; existing names are
// updated in place, keeping their position.
func (d *Dependencies) Set(name, spec string) {
	if d.specs == nil {
		d.specs = make(map[string]string)
	}
	if _, exists := d.specs[name]; !exists {
		d.names = append(d.names, name)
	}
	d.specs[name] = spec
}

// Len returns the number of entries.
func (d *Dependencies) Len() int { return len(d.names) }

// Entries returns the dependencies in manifest order.
func (d *Dependencies) Entries() []Dependency {
	out := make([]Dependency, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, Dependency{Name: name, Spec: d.specs[name]})
	}
	return out
}

// Map returns a plain map copy of the entries.
func (d *Dependencies) Map() map[string]string {
	out := make(map[string]string, len(d.names))
	for name, spec := range d.specs {
		out[name] = spec
	}
	return out
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (d *Dependencies) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("dependencies: expected object, got %v", tok)
	}

	d.names = nil
	d.specs = make(map[string]string)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		var spec string
		if err := dec.Decode(&spec); err != nil {
			return fmt.Errorf("dependencies: entry %q: %w", key, err)
		}
		d.Set(key, spec)
	}

	_, err = dec.Token() // closing brace
	return err
}

// MarshalJSON encodes the entries in insertion order.
func (d *Dependencies) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range d.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.specs[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Manifest is a parsed package.json.
type Manifest struct {
	Name         string
	Version      string
	Dependencies *Dependencies

	order []string                   // top-level key order as read from disk
	extra map[string]json.RawMessage // unrecognized top-level fields
}

// New creates an empty manifest with no dependencies.
func New() *Manifest {
	return &Manifest{
		Dependencies: &Dependencies{},
		order:        []string{"dependencies"},
	}
}

// UnmarshalJSON decodes a package.json document, remembering the top-level
// key order so Save can reproduce it.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("manifest: expected object, got %v", tok)
	}

	m.Dependencies = &Dependencies{}
	m.order = nil
	m.extra = make(map[string]json.RawMessage)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		m.order = append(m.order, key)

		switch key {
		case "name":
			if err := dec.Decode(&m.Name); err != nil {
				return fmt.Errorf("manifest: name: %w", err)
			}
		case "version":
			if err := dec.Decode(&m.Version); err != nil {
				return fmt.Errorf("manifest: version: %w", err)
			}
		case "dependencies":
			if err := dec.Decode(m.Dependencies); err != nil {
				return err
			}
		default:
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("manifest: field %q: %w", key, err)
			}
			m.extra[key] = raw
		}
	}

	_, err = dec.Token() // closing brace
	return err
}

// MarshalJSON encodes the manifest, replaying the original key order.
// A dependencies field is appended when it was absent on disk but entries
// have since been added.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	order := m.order
	if !contains(order, "dependencies") && m.Dependencies.Len() > 0 {
		order = append(append([]string{}, order...), "dependencies")
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, key := range order {
		var val []byte
		var err error
		switch key {
		case "name":
			val, err = json.Marshal(m.Name)
		case "version":
			val, err = json.Marshal(m.Version)
		case "dependencies":
			val, err = m.Dependencies.MarshalJSON()
		default:
			raw, ok := m.extra[key]
			if !ok {
				continue
			}
			val = raw
		}
		if err != nil {
			return nil, err
		}

		if !first {
			buf.WriteByte(',')
		}
		first = false
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "%s not found. Initialize your project first.", path)
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "failed to parse %s", path)
	}
	return &m, nil
}

// LoadOrInit reads the manifest at path, creating an empty one on disk when
// the file doesn't exist.
func LoadOrInit(path string) (*Manifest, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		m := New()
		if err := m.Save(path); err != nil {
			return nil, err
		}
		return m, nil
	}
	return Load(path)
}

// Save writes the manifest to path with two-space indentation.
func (m *Manifest) Save(path string) error {
	compact, err := m.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	return os.WriteFile(path, out.Bytes(), 0o644)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
