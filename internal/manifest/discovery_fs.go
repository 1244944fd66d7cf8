package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSystemDiscovery finds *.manifest.json files under a root directory.
type FileSystemDiscovery struct {
	filePaths map[string]string
	metas     map[string]*Metadata
}

// ManifestSuffix is the file suffix recognized by filesystem discovery.
const ManifestSuffix = ".manifest.json"

// NewFileSystemDiscovery walks rootDir and records every manifest file.
func NewFileSystemDiscovery(rootDir string) (*FileSystemDiscovery, error) {
	d := &FileSystemDiscovery{
		filePaths: make(map[string]string),
		metas:     make(map[string]*Metadata),
	}
	err := filepath.WalkDir(rootDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ManifestSuffix) {
			return nil
		}
		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %q: %w", path, err)
		}
		name := strings.TrimSuffix(entry.Name(), ManifestSuffix)
		d.filePaths[name] = path
		d.metas[name] = &Metadata{Name: name, FilePath: relPath}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk root directory %q: %w", rootDir, err)
	}
	return d, nil
}

// ListMetadata returns the discovered manifests.
func (d *FileSystemDiscovery) ListMetadata(ctx context.Context) ([]*Metadata, error) {
	metas := make([]*Metadata, 0, len(d.metas))
	for _, m := range d.metas {
		metas = append(metas, m)
	}
	return metas, nil
}

// ReadManifest reads the manifest content for a discovered name.
func (d *FileSystemDiscovery) ReadManifest(ctx context.Context, name string) ([]byte, error) {
	fp, ok := d.filePaths[name]
	if !ok {
		return nil, fmt.Errorf("manifest %q not found", name)
	}
	return os.ReadFile(fp)
}
