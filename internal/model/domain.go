package model

import (
	"maps"
	"slices"
	"strings"
)

// Property is a user-defined key/value pair attached to the model or an element.
type Property struct {
	Key   string `yaml:"key"   json:"key"`
	Value string `yaml:"value" json:"value"`
}

// Element is a uniquely identified node of the model graph.
type Element struct {
	ID            string
	Type          string
	Name          string
	Documentation string
	Properties    []Property

	// References maps a relationship field (e.g. "source", "target") to the
	// identifier of another element.
	References map[string]string
}

// Descriptor returns a human-readable label for the element.
func (e *Element) Descriptor() string {
	if e.Name == "" {
		return e.Type + " (" + e.ID + ")"
	}
	return e.Type + " '" + e.Name + "' (" + e.ID + ")"
}

// Folder groups elements and sub-folders.
type Folder struct {
	ID       string
	Name     string
	Kind     string
	Folders  []*Folder
	Elements []*Element
}

// Model is the root of the object graph.
type Model struct {
	ID         string
	Name       string
	Purpose    string
	Properties []Property
	Folders    []*Folder
}

// New creates an empty model.
func New(id, name string) *Model {
	return &Model{
		ID:   id,
		Name: name,
	}
}

// AddFolder appends a top-level folder.
func (m *Model) AddFolder(f *Folder) *Folder {
	m.Folders = append(m.Folders, f)
	return f
}

// AddFolder appends a sub-folder.
func (f *Folder) AddFolder(sub *Folder) *Folder {
	f.Folders = append(f.Folders, sub)
	return sub
}

// AddElement appends an element to the folder.
func (f *Folder) AddElement(e *Element) *Element {
	f.Elements = append(f.Elements, e)
	return e
}

// WalkFolders visits every folder depth-first, parents before children.
func (m *Model) WalkFolders(fn func(parent, folder *Folder) bool) {
	var walk func(parent *Folder, folders []*Folder) bool
	walk = func(parent *Folder, folders []*Folder) bool {
		for _, f := range folders {
			if !fn(parent, f) {
				return false
			}
			if !walk(f, f.Folders) {
				return false
			}
		}
		return true
	}
	walk(nil, m.Folders)
}

// Elements returns all elements of the model in traversal order.
func (m *Model) Elements() []*Element {
	var elements []*Element
	m.WalkFolders(func(_, f *Folder) bool {
		elements = append(elements, f.Elements...)
		return true
	})
	return elements
}

// Find returns the element with the given identifier.
func (m *Model) Find(id string) (*Element, bool) {
	var found *Element
	m.WalkFolders(func(_, f *Folder) bool {
		for _, e := range f.Elements {
			if e.ID == id {
				found = e
				return false
			}
		}
		return true
	})
	return found, found != nil
}

// FindFolder returns the folder with the given identifier.
func (m *Model) FindFolder(id string) (*Folder, bool) {
	var found *Folder
	m.WalkFolders(func(_, f *Folder) bool {
		if f.ID == id {
			found = f
			return false
		}
		return true
	})
	return found, found != nil
}

// ParentOf returns the folder that directly contains the element.
func (m *Model) ParentOf(id string) (*Folder, bool) {
	var parent *Folder
	m.WalkFolders(func(_, f *Folder) bool {
		if slices.ContainsFunc(f.Elements, func(e *Element) bool { return e.ID == id }) {
			parent = f
			return false
		}
		return true
	})
	return parent, parent != nil
}

// Remove deletes the element from its folder. It returns false if the element
// is not part of the model. References pointing at it are left untouched.
func (m *Model) Remove(id string) bool {
	parent, ok := m.ParentOf(id)
	if !ok {
		return false
	}
	parent.Elements = slices.DeleteFunc(parent.Elements, func(e *Element) bool { return e.ID == id })
	return true
}

// ReferrersOf returns the elements holding a reference to id.
func (m *Model) ReferrersOf(id string) []*Element {
	var referrers []*Element
	for _, e := range m.Elements() {
		for _, target := range e.References {
			if target == id {
				referrers = append(referrers, e)
				break
			}
		}
	}
	return referrers
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}

	c := &Model{
		ID:         m.ID,
		Name:       m.Name,
		Purpose:    m.Purpose,
		Properties: slices.Clone(m.Properties),
		Folders:    make([]*Folder, 0, len(m.Folders)),
	}
	for _, f := range m.Folders {
		c.Folders = append(c.Folders, f.clone())
	}
	return c
}

func (f *Folder) clone() *Folder {
	c := &Folder{
		ID:       f.ID,
		Name:     f.Name,
		Kind:     f.Kind,
		Folders:  make([]*Folder, 0, len(f.Folders)),
		Elements: make([]*Element, 0, len(f.Elements)),
	}
	for _, sub := range f.Folders {
		c.Folders = append(c.Folders, sub.clone())
	}
	for _, e := range f.Elements {
		c.Elements = append(c.Elements, e.Clone())
	}
	return c
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	return &Element{
		ID:            e.ID,
		Type:          e.Type,
		Name:          e.Name,
		Documentation: e.Documentation,
		Properties:    slices.Clone(e.Properties),
		References:    maps.Clone(e.References),
	}
}

// Normalize puts the model in canonical order: folders and elements sorted by
// identifier at every level. Two models are equal iff their normalized forms are.
func (m *Model) Normalize() *Model {
	if len(m.Properties) == 0 {
		m.Properties = nil
	}
	m.Folders = sortFolders(m.Folders)
	return m
}

func sortFolders(folders []*Folder) []*Folder {
	if len(folders) == 0 {
		return nil
	}

	slices.SortFunc(folders, func(a, b *Folder) int { return strings.Compare(a.ID, b.ID) })
	for _, f := range folders {
		slices.SortFunc(f.Elements, func(a, b *Element) int { return strings.Compare(a.ID, b.ID) })
		for _, e := range f.Elements {
			if len(e.References) == 0 {
				e.References = nil
			}
			if len(e.Properties) == 0 {
				e.Properties = nil
			}
		}
		if len(f.Elements) == 0 {
			f.Elements = nil
		}
		f.Folders = sortFolders(f.Folders)
	}
	return folders
}
