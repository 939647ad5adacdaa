package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"sync"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

const (
	dispositionAttachment = "attachment"
	dispositionInline     = "inline"
)

// responseSink collects what an export hands to its saver, viewer or
// notifier so the handler can turn it into a single HTTP response.
type responseSink struct {
	mu          sync.Mutex
	artifact    *domain.Artifact
	disposition string
	notice      string
}

// Save records the artifact as a download.
func (s *responseSink) Save(ctx context.Context, artifact domain.Artifact) error {
	return s.keep(artifact, dispositionAttachment)
}

// Open records the artifact for display in the browser.
func (s *responseSink) Open(ctx context.Context, artifact domain.Artifact) error {
	return s.keep(artifact, dispositionInline)
}

// Notify records the user-visible notice.
func (s *responseSink) Notify(ctx context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = message
	return nil
}

func (s *responseSink) keep(artifact domain.Artifact, disposition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.artifact != nil {
		return fmt.Errorf("response already holds artifact %s", s.artifact.Filename)
	}
	s.artifact = &artifact
	s.disposition = disposition
	return nil
}

func (s *responseSink) result() (*domain.Artifact, string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact, s.disposition, s.notice
}

// writeArtifact sends an artifact as the response body.
func writeArtifact(w http.ResponseWriter, artifact domain.Artifact, disposition string) {
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": artifact.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(artifact.Size()))
	w.Header().Set("X-Export-Id", artifact.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}
