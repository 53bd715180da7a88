package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rchow93/AgentRAG/internal/domain"
)

// ChunkProfile is the chunk sizing applied to documents of one type.
// Larger documents with flowing prose (EPUB) take bigger chunks than
// layout-heavy formats (PDF).
type ChunkProfile struct {
	Size    int
	Overlap int
}

type registryEntry struct {
	loader  Loader
	profile ChunkProfile
}

// Registry maps file extensions to loaders and chunk profiles.
type Registry struct {
	entries map[string]registryEntry
}

// NewRegistry creates a registry with the default document types:
// pdf (1000/200), epub (1500/250), txt and md (1000/200).
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]registryEntry)}
	r.Register("pdf", NewPDFLoader(), ChunkProfile{Size: 1000, Overlap: 200})
	r.Register("epub", NewEPUBLoader(), ChunkProfile{Size: 1500, Overlap: 250})
	r.Register("txt", NewTextLoader(), ChunkProfile{Size: 1000, Overlap: 200})
	r.Register("md", NewTextLoader(), ChunkProfile{Size: 1000, Overlap: 200})
	return r
}

// Register binds a loader and chunk profile to an extension (no dot).
// Re-registering an extension replaces the binding, so configuration can
// override the default profiles.
func (r *Registry) Register(ext string, loader Loader, profile ChunkProfile) {
	r.entries[strings.ToLower(strings.TrimPrefix(ext, "."))] = registryEntry{
		loader:  loader,
		profile: profile,
	}
}

// SetProfile overrides the chunk profile for an already registered
// extension.
func (r *Registry) SetProfile(ext string, profile ChunkProfile) error {
	key := strings.ToLower(strings.TrimPrefix(ext, "."))
	e, ok := r.entries[key]
	if !ok {
		return fmt.Errorf("no loader registered for %q", key)
	}
	e.profile = profile
	r.entries[key] = e
	return nil
}

// Lookup resolves the loader and chunk profile for a file path. Unknown
// extensions fail with domain.ErrUnsupportedDocument.
func (r *Registry) Lookup(path string) (Loader, ChunkProfile, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	e, ok := r.entries[ext]
	if !ok {
		return nil, ChunkProfile{}, fmt.Errorf("%s: %w", path, domain.ErrUnsupportedDocument)
	}
	return e.loader, e.profile, nil
}

// Extensions returns the registered extensions.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.entries))
	for ext := range r.entries {
		out = append(out, ext)
	}
	return out
}
