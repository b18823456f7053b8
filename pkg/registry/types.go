package registry

// Metadata holds the registry data for one concrete package version.
type Metadata struct {
	Name         string            // Package name
	Version      string            // Concrete resolved version
	Dependencies map[string]string // Declared dependencies: name → specifier
	Tarball      string            // Download URL
	Integrity    string            // Integrity digest (e.g. "sha512-...")
}

// packument is the npm registry's per-package document.
type packument struct {
	Name     string                    `json:"name"`
	DistTags distTags                  `json:"dist-tags"`
	Versions map[string]versionDetails `json:"versions"`
}

type distTags struct {
	Latest string `json:"latest"`
}

type versionDetails struct {
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
	Dist         dist              `json:"dist"`
}

type dist struct {
	Tarball   string `json:"tarball"`
	Integrity string `json:"integrity"`
	Shasum    string `json:"shasum"`
}
