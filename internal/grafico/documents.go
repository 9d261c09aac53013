package grafico

import (
	"bytes"
	"fmt"

	"github.com/modelsync/modelsync/internal/model"
	"gopkg.in/yaml.v3"
)

type modelDocument struct {
	ID         string           `yaml:"id"`
	Name       string           `yaml:"name"`
	Purpose    string           `yaml:"purpose,omitempty"`
	Properties []model.Property `yaml:"properties,omitempty"`
}

type folderDocument struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Kind string `yaml:"kind,omitempty"`
}

type elementDocument struct {
	ID            string            `yaml:"id"`
	Type          string            `yaml:"type"`
	Name          string            `yaml:"name,omitempty"`
	Documentation string            `yaml:"documentation,omitempty"`
	Properties    []model.Property  `yaml:"properties,omitempty"`
	References    map[string]string `yaml:"references,omitempty"`
}

func newModelDocument(m *model.Model) modelDocument {
	return modelDocument{
		ID:         m.ID,
		Name:       m.Name,
		Purpose:    m.Purpose,
		Properties: m.Properties,
	}
}

func newFolderDocument(f *model.Folder) folderDocument {
	return folderDocument{
		ID:   f.ID,
		Name: f.Name,
		Kind: f.Kind,
	}
}

func newElementDocument(e *model.Element) elementDocument {
	return elementDocument{
		ID:            e.ID,
		Type:          e.Type,
		Name:          e.Name,
		Documentation: e.Documentation,
		Properties:    e.Properties,
		References:    e.References,
	}
}

func (d elementDocument) element() *model.Element {
	return &model.Element{
		ID:            d.ID,
		Type:          d.Type,
		Name:          d.Name,
		Documentation: d.Documentation,
		Properties:    d.Properties,
		References:    d.References,
	}
}

// encode renders a document deterministically: fixed field order, sorted map
// keys, two-space indentation.
func encode(doc any) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	return buf.Bytes(), nil
}

func decode(data []byte, doc any) error {
	if err := yaml.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}
