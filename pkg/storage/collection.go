package storage

import (
	"time"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

type CollectionState int

const (
	CollectionStateUnloaded CollectionState = iota
	CollectionStateLoaded
)

func (s CollectionState) String() string {
	if s == CollectionStateLoaded {
		return "loaded"
	}
	return "unloaded"
}

// CollectionInfo is what the catalog knows about a dataset without decoding it.
type CollectionInfo struct {
	Name         string          `json:"name" msgpack:"name"`
	Title        string          `json:"title,omitempty" msgpack:"title,omitempty"`
	Columns      []string        `json:"columns,omitempty" msgpack:"columns,omitempty"`
	RecordCount  int64           `json:"record_count" msgpack:"record_count"`
	SizeOnDisk   int64           `json:"size_on_disk" msgpack:"size_on_disk"`
	State        CollectionState `json:"-" msgpack:"-"`
	AccessCount  int64           `json:"access_count" msgpack:"-"`
	LastAccessed time.Time       `json:"last_accessed,omitempty" msgpack:"-"`
}

// Collection aliases domain.Collection for storage-specific functionality
type Collection = domain.Collection

// NewCollection creates a new collection
func NewCollection(name string, columns ...string) *Collection {
	return domain.NewCollection(name, columns...)
}

func infoFor(c *Collection) *CollectionInfo {
	return &CollectionInfo{
		Name:        c.Name,
		Title:       c.Title,
		Columns:     append([]string(nil), c.Columns...),
		RecordCount: int64(len(c.Records)),
	}
}
