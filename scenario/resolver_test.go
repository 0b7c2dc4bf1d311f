package scenario

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"broadphase/server/internal/broadphase"
)

type memorySource struct {
	path string
	data []byte
	err  error
}

func (m memorySource) Load() ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]byte(nil), m.data...), nil
}

func (m memorySource) Path() string {
	return m.path
}

func TestResolverLoadObject(t *testing.T) {
	doc := `{
		"name": "crossfire",
		"description": "two walls and a roamer",
		"boxes": [
			{"id": "wall-west", "x": 0, "y": 0, "width": 20, "height": 400, "stationary": true},
			{"id": "wall-east", "x": 380, "y": 0, "width": 20, "height": 400, "stationary": true},
			{"id": "roamer", "x": 180, "y": 180, "width": 30, "height": 30}
		]
	}`
	r, err := NewResolver(memorySource{path: "mem", data: []byte(doc)})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if got := r.Name(); got != "crossfire" {
		t.Fatalf("Name: got %q want %q", got, "crossfire")
	}
	if got := r.Len(); got != 3 {
		t.Fatalf("Len: got %d want 3", got)
	}

	boxes, err := r.Boxes()
	if err != nil {
		t.Fatalf("Boxes: %v", err)
	}
	if len(boxes) != 3 {
		t.Fatalf("boxes: got %d want 3", len(boxes))
	}
	if boxes[0].ID() != "wall-west" || !boxes[0].Stationary() {
		t.Fatalf("first box: got %q stationary=%v", boxes[0].ID(), boxes[0].Stationary())
	}
	if boxes[2].Stationary() {
		t.Fatalf("roamer should not be stationary")
	}
	if boxes[2].X() != 180 || boxes[2].Width() != 30 {
		t.Fatalf("roamer geometry: got x=%v width=%v", boxes[2].X(), boxes[2].Width())
	}
}

func TestResolverLoadBareArray(t *testing.T) {
	doc := `[{"id": "solo", "x": 1, "y": 2, "width": 3, "height": 4}]`
	r, err := NewResolver(memorySource{path: "mem", data: []byte(doc)})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if got := r.Name(); got != "" {
		t.Fatalf("bare array should carry no name, got %q", got)
	}
	if got := r.Len(); got != 1 {
		t.Fatalf("Len: got %d want 1", got)
	}
}

func TestResolverBoxesAreFresh(t *testing.T) {
	doc := `[{"id": "solo", "x": 1, "y": 2, "width": 3, "height": 4}]`
	r, err := NewResolver(memorySource{path: "mem", data: []byte(doc)})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	first, err := r.Boxes()
	if err != nil {
		t.Fatalf("Boxes: %v", err)
	}
	second, err := r.Boxes()
	if err != nil {
		t.Fatalf("Boxes: %v", err)
	}
	if first[0] == second[0] {
		t.Fatalf("expected distinct box instances per call")
	}
}

func TestResolverRejectsDuplicateIDs(t *testing.T) {
	doc := `[
		{"id": "twin", "x": 0, "y": 0, "width": 1, "height": 1},
		{"id": "twin", "x": 5, "y": 5, "width": 1, "height": 1}
	]`
	if _, err := NewResolver(memorySource{path: "mem", data: []byte(doc)}); err == nil {
		t.Fatalf("expected duplicate id error")
	} else if !strings.Contains(err.Error(), "duplicate box id") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolverRejectsMissingID(t *testing.T) {
	doc := `[{"x": 0, "y": 0, "width": 1, "height": 1}]`
	if _, err := NewResolver(memorySource{path: "mem", data: []byte(doc)}); err == nil {
		t.Fatalf("expected missing id error")
	}
}

func TestResolverRejectsNegativeGeometry(t *testing.T) {
	doc := `[{"id": "bad", "x": 0, "y": 0, "width": -1, "height": 1}]`
	_, err := NewResolver(memorySource{path: "mem", data: []byte(doc)})
	if err == nil {
		t.Fatalf("expected geometry error")
	}
	if !errors.Is(err, broadphase.ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestResolverSkipsMissingFiles(t *testing.T) {
	r, err := NewResolver(memorySource{path: "absent", err: fs.ErrNotExist})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if got := r.Len(); got != 0 {
		t.Fatalf("Len: got %d want 0", got)
	}
	boxes, err := r.Boxes()
	if err != nil {
		t.Fatalf("Boxes: %v", err)
	}
	if len(boxes) != 0 {
		t.Fatalf("boxes: got %d want 0", len(boxes))
	}
}

func TestResolverLaterSourceWins(t *testing.T) {
	base := `{"name": "base", "boxes": [{"id": "a", "x": 0, "y": 0, "width": 1, "height": 1}]}`
	overlay := `{"name": "overlay", "boxes": [
		{"id": "b", "x": 0, "y": 0, "width": 1, "height": 1},
		{"id": "c", "x": 2, "y": 2, "width": 1, "height": 1}
	]}`
	r, err := NewResolver(
		memorySource{path: "base", data: []byte(base)},
		memorySource{path: "overlay", data: []byte(overlay)},
	)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if got := r.Name(); got != "overlay" {
		t.Fatalf("Name: got %q want %q", got, "overlay")
	}
	if got := r.Len(); got != 2 {
		t.Fatalf("Len: got %d want 2", got)
	}
}

func TestResolverReload(t *testing.T) {
	src := &swappableSource{data: []byte(`[{"id": "v1", "x": 0, "y": 0, "width": 1, "height": 1}]`)}
	r, err := NewResolver(src)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if got := r.Len(); got != 1 {
		t.Fatalf("Len: got %d want 1", got)
	}

	src.data = []byte(`[
		{"id": "v1", "x": 0, "y": 0, "width": 1, "height": 1},
		{"id": "v2", "x": 4, "y": 4, "width": 1, "height": 1}
	]`)
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := r.Len(); got != 2 {
		t.Fatalf("Len after reload: got %d want 2", got)
	}
}

type swappableSource struct {
	data []byte
}

func (s *swappableSource) Load() ([]byte, error) {
	return append([]byte(nil), s.data...), nil
}

func (s *swappableSource) Path() string {
	return "swappable"
}
