package manifest

import (
	"context"
	"fmt"
)

// InMemoryManifest is one manifest document held in memory.
type InMemoryManifest struct {
	Name    string
	Content string
}

// InMemoryDiscovery serves manifests from memory. Used by tests and by
// callers that embed their schema.
type InMemoryDiscovery struct {
	manifests map[string]InMemoryManifest
	order     []string
}

// NewInMemoryDiscovery creates a discovery over the given manifests.
func NewInMemoryDiscovery(manifests []InMemoryManifest) *InMemoryDiscovery {
	d := &InMemoryDiscovery{manifests: make(map[string]InMemoryManifest, len(manifests))}
	for _, m := range manifests {
		d.manifests[m.Name] = m
		d.order = append(d.order, m.Name)
	}
	return d
}

// ListMetadata returns the manifests in registration order.
func (d *InMemoryDiscovery) ListMetadata(ctx context.Context) ([]*Metadata, error) {
	metas := make([]*Metadata, 0, len(d.order))
	for _, name := range d.order {
		metas = append(metas, &Metadata{Name: name})
	}
	return metas, nil
}

// ReadManifest returns the manifest content for name.
func (d *InMemoryDiscovery) ReadManifest(ctx context.Context, name string) ([]byte, error) {
	m, ok := d.manifests[name]
	if !ok {
		return nil, fmt.Errorf("manifest %q not found", name)
	}
	return []byte(m.Content), nil
}
