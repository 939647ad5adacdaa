package storage

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

type fixtureFile struct {
	Datasets []fixtureDataset `yaml:"datasets"`
}

type fixtureDataset struct {
	Name    string    `yaml:"name"`
	Title   string    `yaml:"title"`
	Columns []string  `yaml:"columns"`
	Records yaml.Node `yaml:"records"`
}

// ParseFixtures reads datasets authored as YAML. Without an explicit column
// list, columns follow the key order of the records as written.
func ParseFixtures(r io.Reader) ([]*Collection, error) {
	var file fixtureFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to parse fixtures")
	}

	seen := make(map[string]bool, len(file.Datasets))
	collections := make([]*Collection, 0, len(file.Datasets))
	for _, ds := range file.Datasets {
		if ds.Name == "" {
			return nil, errors.New("fixture dataset without a name")
		}
		if seen[ds.Name] {
			return nil, errors.Errorf("duplicate fixture dataset %q", ds.Name)
		}
		seen[ds.Name] = true

		c, err := ds.collection()
		if err != nil {
			return nil, errors.Wrapf(err, "dataset %q", ds.Name)
		}
		collections = append(collections, c)
	}
	return collections, nil
}

// LoadFixturesFile parses the YAML fixtures at path.
func LoadFixturesFile(path string) ([]*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open fixtures")
	}
	defer f.Close()
	return ParseFixtures(f)
}

func (ds fixtureDataset) collection() (*Collection, error) {
	c := NewCollection(ds.Name, ds.Columns...)
	c.Title = ds.Title

	if ds.Records.Kind == 0 {
		return c, nil
	}
	if ds.Records.Kind != yaml.SequenceNode {
		return nil, errors.Errorf("records must be a list (line %d)", ds.Records.Line)
	}

	inferColumns := len(c.Columns) == 0
	known := make(map[string]bool)
	ids := make(map[string]bool)

	for i, node := range ds.Records.Content {
		if node.Kind != yaml.MappingNode {
			return nil, errors.Errorf("record %d is not a mapping (line %d)", i+1, node.Line)
		}
		var rec domain.Record
		if err := node.Decode(&rec); err != nil {
			return nil, errors.Wrapf(err, "record %d", i+1)
		}

		id, ok := rec[domain.IDField]
		if !ok || id == nil {
			return nil, errors.Errorf("record %d has no %s (line %d)", i+1, domain.IDField, node.Line)
		}
		key := yamlScalar(node, domain.IDField)
		if ids[key] {
			return nil, errors.Errorf("duplicate %s %v (line %d)", domain.IDField, id, node.Line)
		}
		ids[key] = true

		if inferColumns {
			for k := 0; k+1 < len(node.Content); k += 2 {
				name := node.Content[k].Value
				if !known[name] {
					known[name] = true
					c.Columns = append(c.Columns, name)
				}
			}
		}
		c.Records = append(c.Records, rec)
	}
	return c, nil
}

// yamlScalar returns the literal text of field in a mapping node.
func yamlScalar(mapping *yaml.Node, field string) string {
	for k := 0; k+1 < len(mapping.Content); k += 2 {
		if mapping.Content[k].Value == field {
			return mapping.Content[k+1].Value
		}
	}
	return ""
}
