package domain

import (
	"context"
	"image"
	"image/draw"
)

// Artifact is a transient export result. Whoever triggers the export owns it
// until it is handed to a Saver or a Viewer.
type Artifact struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Size returns the artifact's length in bytes.
func (a Artifact) Size() int {
	return len(a.Data)
}

// Saver initiates the download of an artifact (a browser save, a file in a
// directory, an HTTP attachment).
type Saver interface {
	Save(ctx context.Context, artifact Artifact) error
}

// Viewer opens an artifact in a new display surface without saving it.
type Viewer interface {
	Open(ctx context.Context, artifact Artifact) error
}

// Notifier shows a blocking, user-visible notice.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Region is a borrowed handle on a live, rendered visual subtree.
// Callers must not keep it beyond a single export call.
type Region interface {
	// IsAttached reports whether the region is currently mounted.
	IsAttached() bool
	// Bounds is the region's size in CSS-like pixels at scale 1.
	Bounds() image.Rectangle
	// Draw paints the region into dst, whose bounds are Bounds() multiplied by scale.
	Draw(dst draw.Image, scale float64) error
}

// Attached reports whether r is non-nil and mounted.
func Attached(r Region) bool {
	return r != nil && r.IsAttached()
}
