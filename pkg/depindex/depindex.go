// Package depindex resolves dependency names to package records, either by
// the package's real name or by one of the aliases it provides.
package depindex

import "github.com/northcutted/dock-deps/pkg/types"

// Index is a read-only lookup over one package list snapshot. It is safe
// for concurrent readers once built.
type Index struct {
	records    []*types.PackageRecord
	byName     map[string]*types.PackageRecord
	byProvided map[string]*types.PackageRecord
}

// New indexes records. On duplicate names or aliases the last record wins.
func New(records []*types.PackageRecord) *Index {
	idx := &Index{
		records:    records,
		byName:     make(map[string]*types.PackageRecord, len(records)),
		byProvided: make(map[string]*types.PackageRecord),
	}
	for _, r := range records {
		if r == nil {
			continue
		}
		idx.byName[r.Name] = r
	}
	for _, r := range records {
		if r == nil {
			continue
		}
		for _, alias := range r.Provides {
			idx.byProvided[alias] = r
		}
	}
	return idx
}

// Resolve looks name up by real name first and falls back to provided
// aliases. A miss means the dependency is dangling and should be skipped.
func (i *Index) Resolve(name string) (*types.PackageRecord, bool) {
	if r, ok := i.byName[name]; ok {
		return r, true
	}
	r, ok := i.byProvided[name]
	return r, ok
}

// ByName returns the record registered under a real package name.
func (i *Index) ByName(name string) (*types.PackageRecord, bool) {
	r, ok := i.byName[name]
	return r, ok
}

// Records returns the indexed list in input order, nil entries included.
func (i *Index) Records() []*types.PackageRecord {
	return i.records
}

// Len reports the number of distinct real names.
func (i *Index) Len() int {
	return len(i.byName)
}
