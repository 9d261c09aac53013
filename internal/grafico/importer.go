package grafico

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/modelsync/modelsync/internal/model"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ProblemPair records a reference that could not be resolved during import.
type ProblemPair struct {
	MissingID  string
	Field      string
	ParentID   string
	ParentType string
}

// Importer reads a model back from the working directory.
type Importer struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewImporter creates an Importer rooted at fs.
func NewImporter(fs afero.Fs, logger *zap.Logger) *Importer {
	return &Importer{
		fs:     fs,
		logger: logger,
	}
}

// Import reads every file under ModelDir and rebuilds the model. References to
// elements that have no file are dropped from the returned model and reported
// as problem pairs; they are not an error.
func (i *Importer) Import() (*model.Model, []ProblemPair, error) {
	rootFile := path.Join(ModelDir, ModelFile)

	data, err := afero.ReadFile(i.fs, filepath.FromSlash(rootFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrModelNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", rootFile, err)
	}

	var root modelDocument
	if decErr := decode(data, &root); decErr != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrSerialization, rootFile, decErr)
	}

	m := &model.Model{
		ID:         root.ID,
		Name:       root.Name,
		Purpose:    root.Purpose,
		Properties: root.Properties,
	}

	entries, err := afero.ReadDir(i.fs, ModelDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", ModelDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || i.isEmptyDir(path.Join(ModelDir, entry.Name())) {
			continue
		}
		folder, readErr := i.readFolder(path.Join(ModelDir, entry.Name()))
		if readErr != nil {
			return nil, nil, readErr
		}
		m.Folders = append(m.Folders, folder)
	}

	if valErr := m.Validate(); valErr != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrSerialization, valErr)
	}

	problems := resolveReferences(m)
	m.Normalize()

	i.logger.Debug("model imported",
		zap.String("model", m.ID),
		zap.Int("elements", len(m.Elements())),
		zap.Int("problems", len(problems)))

	return m, problems, nil
}

func (i *Importer) readFolder(dir string) (*model.Folder, error) {
	folderFile := path.Join(dir, FolderFile)

	data, err := afero.ReadFile(i.fs, filepath.FromSlash(folderFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s has no %s", ErrSerialization, dir, FolderFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", folderFile, err)
	}

	var doc folderDocument
	if decErr := decode(data, &doc); decErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSerialization, folderFile, decErr)
	}
	if doc.ID != path.Base(dir) {
		return nil, fmt.Errorf("%w: %s declares id %q", ErrSerialization, folderFile, doc.ID)
	}

	folder := &model.Folder{
		ID:   doc.ID,
		Name: doc.Name,
		Kind: doc.Kind,
	}

	entries, err := afero.ReadDir(i.fs, filepath.FromSlash(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	for _, entry := range entries {
		p := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if i.isEmptyDir(p) {
				continue
			}
			sub, subErr := i.readFolder(p)
			if subErr != nil {
				return nil, subErr
			}
			folder.Folders = append(folder.Folders, sub)
			continue
		}

		if entry.Name() == FolderFile || !strings.HasSuffix(entry.Name(), FileExt) {
			continue
		}

		element, elErr := i.readElement(p)
		if elErr != nil {
			return nil, elErr
		}
		folder.Elements = append(folder.Elements, element)
	}

	return folder, nil
}

// isEmptyDir reports whether dir holds no file at any depth. Checkouts and
// resets may leave such directories behind.
func (i *Importer) isEmptyDir(dir string) bool {
	files, err := listFiles(i.fs, dir)
	return err == nil && len(files) == 0
}

func (i *Importer) readElement(p string) (*model.Element, error) {
	data, err := afero.ReadFile(i.fs, filepath.FromSlash(p))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}

	var doc elementDocument
	if decErr := decode(data, &doc); decErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSerialization, p, decErr)
	}

	if ElementFileName(doc.ID) != path.Base(p) {
		return nil, fmt.Errorf("%w: %s declares id %q", ErrSerialization, p, doc.ID)
	}

	return doc.element(), nil
}

// resolveReferences drops every reference whose target is not an element of m
// and returns one problem pair per dropped reference.
func resolveReferences(m *model.Model) []ProblemPair {
	elements := m.Elements()
	index := lo.SliceToMap(elements, func(e *model.Element) (string, struct{}) {
		return e.ID, struct{}{}
	})

	var problems []ProblemPair
	for _, e := range elements {
		fields := lo.Keys(e.References)
		slices.Sort(fields)

		for _, field := range fields {
			target := e.References[field]
			if _, ok := index[target]; ok {
				continue
			}
			problems = append(problems, ProblemPair{
				MissingID:  target,
				Field:      field,
				ParentID:   e.ID,
				ParentType: e.Type,
			})
			delete(e.References, field)
		}
	}

	slices.SortStableFunc(problems, func(a, b ProblemPair) int {
		if c := strings.Compare(a.ParentID, b.ParentID); c != 0 {
			return c
		}
		return strings.Compare(a.Field, b.Field)
	})

	return problems
}
