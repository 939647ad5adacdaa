package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

// DirSaver saves artifacts as files in a directory.
type DirSaver struct {
	Dir    string
	Logger *zap.Logger
}

// NewDirSaver creates a saver rooted at dir.
func NewDirSaver(dir string, logger *zap.Logger) *DirSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirSaver{Dir: dir, Logger: logger}
}

// Path returns where an artifact with filename would be written.
// Only the base name is used, so filenames can not escape Dir.
func (s *DirSaver) Path(filename string) string {
	return filepath.Join(s.Dir, filepath.Base(filepath.Clean("/"+filename)))
}

// Save writes the artifact through a temporary file and renames it into place.
func (s *DirSaver) Save(ctx context.Context, artifact domain.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	path := s.Path(artifact.Filename)
	tmp, err := os.CreateTemp(s.Dir, ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(artifact.Data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", artifact.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", artifact.Filename, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", artifact.Filename, err)
	}

	s.Logger.Info("artifact saved", zap.String("path", path), zap.Int("bytes", artifact.Size()))
	return nil
}

// BrowserViewer opens artifacts in the desktop's default browser.
type BrowserViewer struct {
	// TempDir holds the files handed to the browser; empty means os.TempDir().
	TempDir string
	open    func(path string) error
}

// NewBrowserViewer creates a viewer backed by github.com/pkg/browser.
func NewBrowserViewer() *BrowserViewer {
	return &BrowserViewer{open: browser.OpenFile}
}

// Open writes the artifact to a temporary file, keeping its extension so the
// browser picks the right renderer, and opens it.
func (v *BrowserViewer) Open(ctx context.Context, artifact domain.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.CreateTemp(v.TempDir, "campus-*"+filepath.Ext(artifact.Filename))
	if err != nil {
		return fmt.Errorf("create view file: %w", err)
	}
	if _, err := f.Write(artifact.Data); err != nil {
		f.Close()
		return fmt.Errorf("write view file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close view file: %w", err)
	}

	open := v.open
	if open == nil {
		open = browser.OpenFile
	}
	return open(f.Name())
}

// ConsoleNotifier prints notices to a terminal in bold yellow.
type ConsoleNotifier struct {
	Out io.Writer
}

// NewConsoleNotifier creates a notifier writing to stderr.
func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{Out: os.Stderr}
}

func (n *ConsoleNotifier) Notify(ctx context.Context, message string) error {
	out := n.Out
	if out == nil {
		out = os.Stderr
	}
	_, err := color.New(color.FgYellow, color.Bold).Fprintln(out, message)
	return err
}
