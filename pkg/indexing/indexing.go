package indexing

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/adfharrison1/go-campus/pkg/domain"
	"github.com/adfharrison1/go-campus/pkg/table"
)

// IndexEngine keeps value indexes per dataset and field. They back the
// category selectors that feed structured filters.
type IndexEngine struct {
	mu      sync.RWMutex
	indexes map[string]map[string]*Index // dataset name -> field name -> index
}

// NewIndexEngine creates a new index engine
func NewIndexEngine() *IndexEngine {
	return &IndexEngine{
		indexes: make(map[string]map[string]*Index),
	}
}

// Index maps each distinct value of a field to the positions of the rows carrying it.
type Index struct {
	Field    string
	Inverted map[string][]int
	order    []string
	values   map[string]interface{}
}

// NewIndex creates an index on a specific field.
func NewIndex(field string) *Index {
	return &Index{
		Field:    field,
		Inverted: make(map[string][]int),
		values:   make(map[string]interface{}),
	}
}

// Key canonicalises a value so that values a structured filter treats as
// equal share an index entry ("3" and 3 do; "a" and "A" do not).
func Key(value interface{}) (string, bool) {
	if f, ok := table.ToFloat64(value); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64), true
	}
	s, ok := table.FormatValue(value)
	if !ok {
		return "", false
	}
	return "s:" + s, true
}

// Add records that the row at position carries value.
func (idx *Index) Add(position int, value interface{}) {
	key, ok := Key(value)
	if !ok {
		return
	}
	if _, seen := idx.Inverted[key]; !seen {
		idx.order = append(idx.order, key)
		idx.values[key] = value
	}
	idx.Inverted[key] = append(idx.Inverted[key], position)
}

// Query returns the positions of rows whose field matches value.
func (idx *Index) Query(value interface{}) []int {
	key, ok := Key(value)
	if !ok {
		return nil
	}
	return idx.Inverted[key]
}

// Facet lists the distinct values in order of first appearance.
func (idx *Index) Facet() domain.Facet {
	facet := domain.Facet{Field: idx.Field, Values: make([]domain.FacetValue, 0, len(idx.order))}
	for _, key := range idx.order {
		facet.Values = append(facet.Values, domain.FacetValue{
			Value: idx.values[key],
			Count: len(idx.Inverted[key]),
		})
	}
	return facet
}

// Build indexes every row by the index field.
func Build[R domain.Row](field string, rows []R) *Index {
	idx := NewIndex(field)
	for i, row := range rows {
		if v, ok := row.Field(field); ok {
			idx.Add(i, v)
		}
	}
	return idx
}

// FacetOf returns the distinct values of field across rows.
func FacetOf[R domain.Row](field string, rows []R) domain.Facet {
	return Build(field, rows).Facet()
}

// CreateIndex builds an index on a field of a dataset
func (ie *IndexEngine) CreateIndex(collection *domain.Collection, fieldName string) error {
	ie.mu.Lock()
	defer ie.mu.Unlock()

	if ie.indexes[collection.Name] == nil {
		ie.indexes[collection.Name] = make(map[string]*Index)
	}
	if _, exists := ie.indexes[collection.Name][fieldName]; exists {
		return fmt.Errorf("index on field %s already exists in dataset %s", fieldName, collection.Name)
	}

	ie.indexes[collection.Name][fieldName] = Build(fieldName, collection.Rows())
	return nil
}

// DropIndex removes an index from a dataset
func (ie *IndexEngine) DropIndex(datasetName, fieldName string) error {
	ie.mu.Lock()
	defer ie.mu.Unlock()

	if ie.indexes[datasetName] == nil {
		return fmt.Errorf("no indexes exist for dataset %s", datasetName)
	}
	if _, exists := ie.indexes[datasetName][fieldName]; !exists {
		return fmt.Errorf("index on field %s does not exist in dataset %s", fieldName, datasetName)
	}

	delete(ie.indexes[datasetName], fieldName)
	return nil
}

// GetIndex returns the index on a field of a dataset
func (ie *IndexEngine) GetIndex(datasetName, fieldName string) (*Index, bool) {
	ie.mu.RLock()
	defer ie.mu.RUnlock()

	if datasetIndexes, exists := ie.indexes[datasetName]; exists {
		if index, exists := datasetIndexes[fieldName]; exists {
			return index, true
		}
	}
	return nil, false
}

// Reset drops every index. Indexes are rebuilt on the next facet request.
func (ie *IndexEngine) Reset() {
	ie.mu.Lock()
	ie.indexes = make(map[string]map[string]*Index)
	ie.mu.Unlock()
}

// GetIndexes returns the indexed field names of a dataset, sorted
func (ie *IndexEngine) GetIndexes(datasetName string) []string {
	ie.mu.RLock()
	defer ie.mu.RUnlock()

	names := make([]string, 0, len(ie.indexes[datasetName]))
	for fieldName := range ie.indexes[datasetName] {
		names = append(names, fieldName)
	}
	sort.Strings(names)
	return names
}

// Facet returns the facet of a field, building the index on first use.
func (ie *IndexEngine) Facet(collection *domain.Collection, fieldName string) domain.Facet {
	if index, ok := ie.GetIndex(collection.Name, fieldName); ok {
		return index.Facet()
	}

	index := Build(fieldName, collection.Rows())
	ie.mu.Lock()
	if ie.indexes[collection.Name] == nil {
		ie.indexes[collection.Name] = make(map[string]*Index)
	}
	if existing, ok := ie.indexes[collection.Name][fieldName]; ok {
		index = existing
	} else {
		ie.indexes[collection.Name][fieldName] = index
	}
	ie.mu.Unlock()
	return index.Facet()
}
