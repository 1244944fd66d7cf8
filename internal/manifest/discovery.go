package manifest

import "context"

// Metadata identifies one discovered manifest.
type Metadata struct {
	Name     string
	FilePath string
}

// Discovery enumerates manifest sources. Implementations exist for the
// filesystem and for in-memory documents (tests, embedded schemas).
type Discovery interface {
	ListMetadata(ctx context.Context) ([]*Metadata, error)
	ReadManifest(ctx context.Context, name string) ([]byte, error)
}
