package grafico

import (
	"errors"
	"path"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modelsync/modelsync/internal/model"
	"github.com/spf13/afero"
	"go.uber.org/zap/zaptest"
)

func testModel() *model.Model {
	m := model.New("archi-model", "Test Model")
	m.Purpose = "Round trip fixture"
	m.Properties = []model.Property{{Key: "owner", Value: "architecture"}}

	business := m.AddFolder(&model.Folder{ID: "business", Name: "Business", Kind: "business"})
	business.AddElement(&model.Element{
		ID:            "id-actor",
		Type:          "BusinessActor",
		Name:          "Customer",
		Documentation: "Multi-line\ndocumentation\n",
		Properties:    []model.Property{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}},
	})
	sub := business.AddFolder(&model.Folder{ID: "sub-folder", Name: "Roles"})
	sub.AddElement(&model.Element{ID: "id-role", Type: "BusinessRole", Name: "yes"})

	relations := m.AddFolder(&model.Folder{ID: "relations", Name: "Relations", Kind: "relations"})
	relations.AddElement(&model.Element{
		ID:         "id-assignment",
		Type:       "AssignmentRelationship",
		References: map[string]string{"source": "id-actor", "target": "id-role"},
	})

	return m
}

func TestExportImport_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger := zaptest.NewLogger(t)

	original := testModel()
	if err := NewExporter(fs, logger).Export(original); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	imported, problems, err := NewImporter(fs, logger).Import()
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}

	want := original.Clone().Normalize()
	if diff := cmp.Diff(want, imported); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	first, err := Render(original)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Render(imported)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second export is not byte-identical (-first +second):\n%s", diff)
	}
}

func TestExport_Layout(t *testing.T) {
	files, err := Render(testModel())
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{
		"model/model.yaml",
		"model/business/folder.yaml",
		"model/business/id-actor.yaml",
		"model/business/sub-folder/folder.yaml",
		"model/business/sub-folder/id-role.yaml",
		"model/relations/folder.yaml",
		"model/relations/id-assignment.yaml",
	} {
		if _, ok := files[p]; !ok {
			t.Errorf("expected file %s", p)
		}
	}
	if len(files) != 7 {
		t.Errorf("expected 7 files, got %d", len(files))
	}
}

func TestExport_RemovesDeletedElements(t *testing.T) {
	fs := afero.NewMemMapFs()
	exporter := NewExporter(fs, zaptest.NewLogger(t))

	m := testModel()
	if err := exporter.Export(m); err != nil {
		t.Fatal(err)
	}

	m.Remove("id-role")
	sub, _ := m.FindFolder("business")
	sub.Folders = nil
	if err := exporter.Export(m); err != nil {
		t.Fatal(err)
	}

	if ok, _ := afero.Exists(fs, "model/business/sub-folder/id-role.yaml"); ok {
		t.Error("file of deleted element still present")
	}
	if ok, _ := afero.DirExists(fs, "model/business/sub-folder"); ok {
		t.Error("directory of deleted folder still present")
	}
	if ok, _ := afero.Exists(fs, "model/business/id-actor.yaml"); !ok {
		t.Error("file of surviving element was removed")
	}
}

func TestExport_Collisions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *model.Model)
	}{
		{
			name: "duplicate element id",
			mutate: func(m *model.Model) {
				m.Folders[0].AddElement(&model.Element{ID: "id-role", Type: "BusinessRole"})
			},
		},
		{
			name: "element named like the folder file",
			mutate: func(m *model.Model) {
				m.Folders[0].AddElement(&model.Element{ID: "folder", Type: "BusinessRole"})
			},
		},
		{
			name: "element named like the root document",
			mutate: func(m *model.Model) {
				m.Folders[0].AddElement(&model.Element{ID: "model", Type: "BusinessRole"})
			},
		},
		{
			name: "case-insensitive file clash",
			mutate: func(m *model.Model) {
				m.Folders[0].AddElement(&model.Element{ID: "ID-ACTOR", Type: "BusinessActor"})
			},
		},
		{
			name: "identifier with yaml suffix",
			mutate: func(m *model.Model) {
				m.Folders[0].AddFolder(&model.Folder{ID: "id-actor.yaml"})
			},
		},
		{
			name: "path separator in identifier",
			mutate: func(m *model.Model) {
				m.Folders[0].AddElement(&model.Element{ID: "a/b", Type: "BusinessActor"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel()
			tt.mutate(m)

			err := NewExporter(afero.NewMemMapFs(), zaptest.NewLogger(t)).Export(m)
			if !errors.Is(err, ErrSerialization) {
				t.Errorf("expected ErrSerialization, got %v", err)
			}
		})
	}
}

func TestImport_DanglingReferences(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger := zaptest.NewLogger(t)

	if err := NewExporter(fs, logger).Export(testModel()); err != nil {
		t.Fatal(err)
	}
	if err := fs.Remove("model/business/sub-folder/id-role.yaml"); err != nil {
		t.Fatal(err)
	}

	m, problems, err := NewImporter(fs, logger).Import()
	if err != nil {
		t.Fatalf("Import should tolerate dangling references: %v", err)
	}

	want := []ProblemPair{{
		MissingID:  "id-role",
		Field:      "target",
		ParentID:   "id-assignment",
		ParentType: "AssignmentRelationship",
	}}
	if diff := cmp.Diff(want, problems); diff != "" {
		t.Errorf("problems mismatch (-want +got):\n%s", diff)
	}

	rel, ok := m.Find("id-assignment")
	if !ok {
		t.Fatal("relationship missing from best-effort model")
	}
	if _, ok := rel.References["target"]; ok {
		t.Error("dangling reference should be left unset")
	}
	if rel.References["source"] != "id-actor" {
		t.Error("resolvable reference should be kept")
	}
}

func TestImport_Errors(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("missing model", func(t *testing.T) {
		_, _, err := NewImporter(afero.NewMemMapFs(), logger).Import()
		if !errors.Is(err, ErrModelNotFound) {
			t.Errorf("expected ErrModelNotFound, got %v", err)
		}
	})

	t.Run("malformed element", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		if err := NewExporter(fs, logger).Export(testModel()); err != nil {
			t.Fatal(err)
		}
		if err := afero.WriteFile(fs, "model/business/id-actor.yaml", []byte("id: [unterminated"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, _, err := NewImporter(fs, logger).Import(); !errors.Is(err, ErrSerialization) {
			t.Errorf("expected ErrSerialization, got %v", err)
		}
	})

	t.Run("id does not match file name", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		if err := NewExporter(fs, logger).Export(testModel()); err != nil {
			t.Fatal(err)
		}
		if err := afero.WriteFile(fs, "model/business/other.yaml", []byte("id: id-else\ntype: BusinessActor\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, _, err := NewImporter(fs, logger).Import(); !errors.Is(err, ErrSerialization) {
			t.Errorf("expected ErrSerialization, got %v", err)
		}
	})

	t.Run("folder without folder file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		if err := NewExporter(fs, logger).Export(testModel()); err != nil {
			t.Fatal(err)
		}
		if err := fs.Remove("model/relations/folder.yaml"); err != nil {
			t.Fatal(err)
		}
		if _, _, err := NewImporter(fs, logger).Import(); !errors.Is(err, ErrSerialization) {
			t.Errorf("expected ErrSerialization, got %v", err)
		}
	})
}

func TestChecksum(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := NewExporter(fs, zaptest.NewLogger(t)).Export(testModel()); err != nil {
		t.Fatal(err)
	}

	if ok, err := VerifyChecksum(fs); err != nil || !ok {
		t.Fatalf("missing checksum should verify, got %v, %v", ok, err)
	}

	sum, err := SaveChecksum(fs)
	if err != nil {
		t.Fatal(err)
	}
	if loaded, ok, _ := LoadChecksum(fs); !ok || loaded != sum {
		t.Errorf("LoadChecksum = %q, %v; want %q", loaded, ok, sum)
	}
	if ok, _ := VerifyChecksum(fs); !ok {
		t.Error("checksum should match right after saving")
	}

	if err := afero.WriteFile(fs, "model/business/id-actor.yaml", []byte("id: id-actor\ntype: X\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, _ := VerifyChecksum(fs); ok {
		t.Error("checksum should not match after an external edit")
	}
}

func TestLayoutHelpers(t *testing.T) {
	if id, ok := ElementIDFromPath("model/business/id-actor.yaml"); !ok || id != "id-actor" {
		t.Errorf("ElementIDFromPath = %q, %v", id, ok)
	}
	for _, p := range []string{"model/model.yaml", "model/business/folder.yaml", "README.md", "model/stray.yaml"} {
		if _, ok := ElementIDFromPath(p); ok {
			t.Errorf("%s should not be an element path", p)
		}
	}

	if !IsElementPath("model/business/id-actor.yaml", "id-actor") {
		t.Error("element file should match its id")
	}
	for _, p := range []string{"model/model.yaml", "model/business/folder.yaml", "model/other/id-actor.txt"} {
		if IsElementPath(p, strings.TrimSuffix(path.Base(p), path.Ext(p))) {
			t.Errorf("%s should not match an element id", p)
		}
	}

	got := FolderFilesFor("model/a/b/el.yaml")
	want := []string{"model/a/folder.yaml", "model/a/b/folder.yaml"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FolderFilesFor mismatch (-want +got):\n%s", diff)
	}
}
