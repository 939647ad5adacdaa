package domain

import "sort"

// IDField is the identity field every record in a collection carries.
const IDField = "id"

// Row is anything the tabular engine can read field by field.
// Fields returns the column order used for serialization.
type Row interface {
	Fields() []string
	Field(name string) (interface{}, bool)
}

// Record represents one displayed item (a course, fee entry, book...) as a plain
// field map. Values are primitives: string, number, bool or a date-like string.
type Record map[string]interface{}

// Fields returns the record's field names with "id" first and the rest sorted,
// so that two records with the same keys always serialize identically.
func (r Record) Fields() []string {
	names := make([]string, 0, len(r))
	_, hasID := r[IDField]
	for name := range r {
		if name == IDField {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if hasID {
		names = append([]string{IDField}, names...)
	}
	return names
}

// Field returns the value stored under name.
func (r Record) Field(name string) (interface{}, bool) {
	v, ok := r[name]
	return v, ok
}

// ID returns the record's identity as stored, or nil.
func (r Record) ID() interface{} {
	return r[IDField]
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Collection is a named, ordered list of records sharing a column layout.
type Collection struct {
	Name    string   `json:"name" msgpack:"name"`
	Title   string   `json:"title,omitempty" msgpack:"title,omitempty"`
	Columns []string `json:"columns,omitempty" msgpack:"columns,omitempty"`
	Records []Record `json:"records" msgpack:"records"`
}

// NewCollection creates a new, empty collection
func NewCollection(name string, columns ...string) *Collection {
	return &Collection{
		Name:    name,
		Columns: columns,
		Records: make([]Record, 0),
	}
}

// Rows returns the collection's records in insertion order.
func (c *Collection) Rows() []Record {
	if c == nil {
		return nil
	}
	return c.Records
}

// Clone deep-copies the record list so callers can not mutate a shared source.
func (c *Collection) Clone() *Collection {
	out := &Collection{
		Name:    c.Name,
		Title:   c.Title,
		Columns: append([]string(nil), c.Columns...),
		Records: make([]Record, len(c.Records)),
	}
	for i, rec := range c.Records {
		out.Records[i] = rec.Clone()
	}
	return out
}
