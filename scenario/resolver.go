package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"broadphase/server/internal/broadphase"
)

type source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f fileSource) Path() string {
	return f.path
}

// DefaultPaths returns the canonical scenario locations relative to the server
// module root. Callers may pass these to Load.
func DefaultPaths() []string {
	candidates := []string{
		filepath.Join("config", "scenarios", "default.json"),
		filepath.Join("..", "config", "scenarios", "default.json"),
	}

	paths := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		cleaned := filepath.Clean(candidate)
		if _, duplicate := seen[cleaned]; duplicate {
			continue
		}
		seen[cleaned] = struct{}{}
		paths = append(paths, cleaned)
	}
	return paths
}

// Resolver holds the parsed scenario documents. Call Reload to pick up
// on-disk changes (used for dev hot reload).
type Resolver struct {
	mu      sync.RWMutex
	sources []source
	name    string
	boxes   []BoxDocument
}

// Load constructs a Resolver backed by the provided scenario file paths.
// Missing files are skipped so the default paths can be passed unconditionally.
func Load(paths ...string) (*Resolver, error) {
	sources := make([]source, 0, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		sources = append(sources, fileSource{path: trimmed})
	}
	return NewResolver(sources...)
}

// NewResolver constructs a Resolver from arbitrary sources. Tests can supply
// in-memory sources while production code uses fileSource.
func NewResolver(sources ...source) (*Resolver, error) {
	r := &Resolver{
		sources: append([]source(nil), sources...),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses all scenario sources. Later sources override earlier ones
// so a local overlay can replace the checked-in layout during development.
func (r *Resolver) Reload() error {
	if r == nil {
		return nil
	}
	var (
		name  string
		boxes []BoxDocument
	)
	loaded := false
	for _, src := range r.sources {
		data, err := src.Load()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("scenario: failed loading %s: %w", src.Path(), err)
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return fmt.Errorf("scenario: failed parsing %s: %w", src.Path(), err)
		}
		seen := make(map[string]struct{}, len(doc.Boxes))
		for _, box := range doc.Boxes {
			id := strings.TrimSpace(box.ID)
			if id == "" {
				return fmt.Errorf("scenario: box missing id in %s", src.Path())
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("scenario: duplicate box id %q in %s", id, src.Path())
			}
			seen[id] = struct{}{}
			if box.Width < 0 || box.Height < 0 {
				return fmt.Errorf("scenario: box %q in %s: %w", id, src.Path(), broadphase.ErrInvalidGeometry)
			}
		}
		name = strings.TrimSpace(doc.Name)
		boxes = append([]BoxDocument(nil), doc.Boxes...)
		loaded = true
	}
	if !loaded {
		boxes = nil
		name = ""
	}

	r.mu.Lock()
	r.name = name
	r.boxes = boxes
	r.mu.Unlock()
	return nil
}

// Name returns the scenario name from the winning source, or "" when no
// source was present.
func (r *Resolver) Name() string {
	if r == nil {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

// Len reports how many authored boxes the scenario carries.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.boxes)
}

// Boxes materialises fresh, unregistered boxes from the scenario. Each call
// returns new instances so multiple worlds never share box state.
func (r *Resolver) Boxes() ([]*broadphase.Box, error) {
	if r == nil {
		return nil, nil
	}
	r.mu.RLock()
	docs := append([]BoxDocument(nil), r.boxes...)
	r.mu.RUnlock()

	out := make([]*broadphase.Box, 0, len(docs))
	for _, doc := range docs {
		box, err := broadphase.NewBox(broadphase.BoxSpec{
			ID:         doc.ID,
			X:          doc.X,
			Y:          doc.Y,
			Width:      doc.Width,
			Height:     doc.Height,
			Stationary: doc.Stationary,
		})
		if err != nil {
			return nil, fmt.Errorf("scenario: box %q: %w", doc.ID, err)
		}
		out = append(out, box)
	}
	return out, nil
}

func decodeDocument(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, nil
	}
	switch trimmed[0] {
	case '[':
		// Bare array form: just the boxes, no metadata.
		var boxes []BoxDocument
		if err := json.Unmarshal(trimmed, &boxes); err != nil {
			return Document{}, err
		}
		return Document{Boxes: boxes}, nil
	case '{':
		var doc Document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return Document{}, err
		}
		return doc, nil
	default:
		return Document{}, fmt.Errorf("unexpected json token %q", string(trimmed[:1]))
	}
}
