package model

import (
	"errors"
	"sort"
)

// Sentinel errors returned by Catalog lookups.
var (
	// ErrUnknownRepository indicates the repository is not in the source prefix table.
	ErrUnknownRepository = errors.New("repository is not in repo map")

	// ErrMissingDestination indicates the repository has no local destination subfolder.
	ErrMissingDestination = errors.New("repository is not in local map")
)

// RepoMapping ties a remote repository to the part of it that is mirrored
// and to the subfolder of the production root that part is mirrored into.
type RepoMapping struct {
	FullName      string
	SourcePrefix  string
	DestSubfolder string
}

// Catalog is the immutable set of repositories this process synchronizes.
// It is built once at startup and shared read-only by every request.
type Catalog struct {
	prefixes map[string]string
	dests    map[string]string
	names    []string
}

// NewCatalog builds a Catalog from the repository -> source prefix table and
// the repository -> destination subfolder table. Both maps are copied.
func NewCatalog(prefixes, dests map[string]string) *Catalog {
	c := &Catalog{
		prefixes: make(map[string]string, len(prefixes)),
		dests:    make(map[string]string, len(dests)),
		names:    make([]string, 0, len(prefixes)),
	}
	for name, prefix := range prefixes {
		c.prefixes[name] = prefix
		c.names = append(c.names, name)
	}
	for name, dest := range dests {
		c.dests[name] = dest
	}
	sort.Strings(c.names)
	return c
}

// Lookup returns the mapping for a repository. It returns ErrUnknownRepository
// when the repository has no source prefix and ErrMissingDestination when it
// has no destination subfolder.
func (c *Catalog) Lookup(fullName string) (RepoMapping, error) {
	prefix, ok := c.prefixes[fullName]
	if !ok {
		return RepoMapping{}, ErrUnknownRepository
	}
	dest, ok := c.dests[fullName]
	if !ok {
		return RepoMapping{FullName: fullName, SourcePrefix: prefix}, ErrMissingDestination
	}
	return RepoMapping{
		FullName:      fullName,
		SourcePrefix:  prefix,
		DestSubfolder: dest,
	}, nil
}

// Repositories returns the catalog's repository names in sorted order.
func (c *Catalog) Repositories() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of repositories in the catalog.
func (c *Catalog) Len() int {
	return len(c.names)
}
