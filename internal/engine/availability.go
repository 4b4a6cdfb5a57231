package engine

import "github.com/vxrun/vx/internal/store"

// storeAvailability answers the resolver's AvailabilityChecker questions
// (spec §4.6) directly against the content-addressed store, without the
// graph package needing to know the store exists.
type storeAvailability struct {
	store *store.Store
}

func (a storeAvailability) IsAvailable(name string) bool {
	versions, err := a.store.InstalledVersions(name)
	return err == nil && len(versions) > 0
}

func (a storeAvailability) GetVersion(name string) (string, bool) {
	versions, err := a.store.InstalledVersions(name)
	if err != nil || len(versions) == 0 {
		return "", false
	}
	// Installed-version directories carry no ordering guarantee; the
	// latest-by-semantics choice belongs to the solver, not the store, so
	// this just reports an arbitrary installed version as a presence proof.
	return versions[len(versions)-1], true
}
