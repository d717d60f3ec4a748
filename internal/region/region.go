// Package region resolves which game region the client is connected to. The
// launcher writes the region file; absence just means "unknown" and the
// encounter records no region.
package region

import (
	"os"
	"strings"
)

// Accessor reads the region lazily and caches the first successful read.
type Accessor struct {
	path   string
	cached string
}

func NewAccessor(path string) *Accessor {
	return &Accessor{path: path}
}

// Get returns the region string, or false when it cannot be determined.
func (a *Accessor) Get() (string, bool) {
	if a.cached != "" {
		return a.cached, true
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		return "", false
	}
	region := strings.TrimSpace(string(data))
	if region == "" {
		return "", false
	}
	a.cached = region
	return region, true
}
