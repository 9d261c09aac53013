package modelapi

import (
	"time"

	"github.com/modelsync/modelsync/internal/model"
	"github.com/modelsync/modelsync/internal/session"
	"github.com/samber/lo"
)

type PropertyDTO struct {
	Key   string `json:"key"   validate:"required"`
	Value string `json:"value"`
}

// PUTElementRequest represents the request payload for creating or replacing an element.
type PUTElementRequest struct {
	Type          string            `json:"type"                    validate:"required,max=100"`
	Name          string            `json:"name"                    validate:"max=500"`
	Documentation string            `json:"documentation,omitempty"`
	Folder        string            `json:"folder,omitempty"`
	Properties    []PropertyDTO     `json:"properties,omitempty"    validate:"dive"`
	References    map[string]string `json:"references,omitempty"`
}

type ElementResponse struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Name          string            `json:"name"`
	Documentation string            `json:"documentation,omitempty"`
	Properties    []PropertyDTO     `json:"properties,omitempty"`
	References    map[string]string `json:"references,omitempty"`
}

type FolderResponse struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Kind     string            `json:"kind,omitempty"`
	Folders  []FolderResponse  `json:"folders,omitempty"`
	Elements []ElementResponse `json:"elements,omitempty"`
}

type ModelResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Purpose    string           `json:"purpose,omitempty"`
	Properties []PropertyDTO    `json:"properties,omitempty"`
	Folders    []FolderResponse `json:"folders"`
	Dirty      bool             `json:"dirty"`
}

type SnapshotResponse struct {
	ID        string    `json:"id"`
	Elements  int       `json:"elements"`
	CreatedAt time.Time `json:"created_at"`
}

func newProperties(props []model.Property) []PropertyDTO {
	return lo.Map(props, func(p model.Property, _ int) PropertyDTO { return PropertyDTO(p) })
}

func newElementResponse(e *model.Element) ElementResponse {
	return ElementResponse{
		ID:            e.ID,
		Type:          e.Type,
		Name:          e.Name,
		Documentation: e.Documentation,
		Properties:    newProperties(e.Properties),
		References:    e.References,
	}
}

func newFolderResponse(f *model.Folder) FolderResponse {
	return FolderResponse{
		ID:       f.ID,
		Name:     f.Name,
		Kind:     f.Kind,
		Folders:  lo.Map(f.Folders, func(sub *model.Folder, _ int) FolderResponse { return newFolderResponse(sub) }),
		Elements: lo.Map(f.Elements, func(e *model.Element, _ int) ElementResponse { return newElementResponse(e) }),
	}
}

func newModelResponse(m *model.Model, dirty bool) ModelResponse {
	return ModelResponse{
		ID:         m.ID,
		Name:       m.Name,
		Purpose:    m.Purpose,
		Properties: newProperties(m.Properties),
		Folders:    lo.Map(m.Folders, func(f *model.Folder, _ int) FolderResponse { return newFolderResponse(f) }),
		Dirty:      dirty,
	}
}

func newSnapshotResponse(s session.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:        s.ID.String(),
		Elements:  len(s.Model.Elements()),
		CreatedAt: s.CreatedAt,
	}
}

func (r *PUTElementRequest) toElement(id string) *model.Element {
	return &model.Element{
		ID:            id,
		Type:          r.Type,
		Name:          r.Name,
		Documentation: r.Documentation,
		Properties:    lo.Map(r.Properties, func(p PropertyDTO, _ int) model.Property { return model.Property(p) }),
		References:    r.References,
	}
}
