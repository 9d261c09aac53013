package grafico

import (
	"bytes"
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

// Exporter writes a model into the working directory.
type Exporter struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewExporter creates an Exporter rooted at fs, which should be the working
// directory of the repository.
func NewExporter(fs afero.Fs, logger *zap.Logger) *Exporter {
	return &Exporter{
		fs:     fs,
		logger: logger,
	}
}

// Export writes one file per folder and element of m under ModelDir. Files of
// elements no longer in the model are removed. Unchanged files are not rewritten.
func (e *Exporter) Export(m *model.Model) error {
	files, err := Render(m)
	if err != nil {
		return err
	}

	existing, err := listFiles(e.fs, ModelDir)
	if err != nil {
		return fmt.Errorf("failed to list existing files: %w", err)
	}

	removed := 0
	for _, p := range existing {
		if _, ok := files[p]; ok {
			continue
		}
		if rmErr := e.fs.Remove(filepath.FromSlash(p)); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("failed to remove stale file %s: %w", p, rmErr)
		}
		removed++
	}

	if pruneErr := pruneEmptyDirs(e.fs, ModelDir); pruneErr != nil {
		return fmt.Errorf("failed to prune directories: %w", pruneErr)
	}

	written := 0
	for _, p := range lo.Keys(files) {
		data := files[p]
		name := filepath.FromSlash(p)

		current, readErr := afero.ReadFile(e.fs, name)
		if readErr == nil && bytes.Equal(current, data) {
			continue
		}

		if mkErr := e.fs.MkdirAll(filepath.Dir(name), 0o755); mkErr != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, mkErr)
		}
		if wrErr := afero.WriteFile(e.fs, name, data, 0o644); wrErr != nil {
			return fmt.Errorf("failed to write %s: %w", p, wrErr)
		}
		written++
	}

	e.logger.Debug("model exported",
		zap.String("model", m.ID),
		zap.Int("files", len(files)),
		zap.Int("written", written),
		zap.Int("removed", removed))

	return nil
}

// Render returns the exact file set Export would produce, keyed by
// slash-separated path relative to the working directory.
func Render(m *model.Model) (map[string][]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", ErrSerialization)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	files := make(map[string][]byte)
	folded := make(map[string]string)

	add := func(p string, doc any) error {
		key := strings.ToLower(p)
		if other, ok := folded[key]; ok {
			return fmt.Errorf("%w: %s collides with %s", ErrSerialization, p, other)
		}
		data, err := encode(doc)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrSerialization, p, err)
		}
		folded[key] = p
		files[p] = data
		return nil
	}

	if err := add(path.Join(ModelDir, ModelFile), newModelDocument(m)); err != nil {
		return nil, err
	}

	var walk func(dir string, folders []*model.Folder) error
	walk = func(dir string, folders []*model.Folder) error {
		for _, f := range folders {
			if err := checkName(f.ID); err != nil {
				return err
			}

			folderDir := path.Join(dir, f.ID)
			if err := add(path.Join(folderDir, FolderFile), newFolderDocument(f)); err != nil {
				return err
			}

			for _, el := range f.Elements {
				if err := checkName(el.ID); err != nil {
					return err
				}
				if el.ID+FileExt == FolderFile {
					return fmt.Errorf("%w: element %q collides with %s", ErrSerialization, el.ID, FolderFile)
				}
				if err := add(path.Join(folderDir, ElementFileName(el.ID)), newElementDocument(el)); err != nil {
					return err
				}
			}

			if err := walk(folderDir, f.Folders); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(ModelDir, m.Folders); err != nil {
		return nil, err
	}

	return files, nil
}

func checkName(id string) error {
	if strings.HasSuffix(strings.ToLower(id), FileExt) {
		return fmt.Errorf("%w: identifier %q must not end in %s", ErrSerialization, id, FileExt)
	}
	return nil
}

// listFiles returns every regular file below root as sorted slash paths.
// A missing root yields no files.
func listFiles(fs afero.Fs, root string) ([]string, error) {
	var files []string

	err := afero.Walk(fs, filepath.FromSlash(root), func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.Mode().IsRegular() {
			files = append(files, filepath.ToSlash(p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// pruneEmptyDirs removes directories below root that no longer hold any file.
func pruneEmptyDirs(fs afero.Fs, root string) error {
	var dirs []string

	err := afero.Walk(fs, filepath.FromSlash(root), func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() && filepath.ToSlash(p) != root {
			dirs = append(dirs, p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Deepest first so parents see their children gone.
	slices.SortFunc(dirs, func(a, b string) int { return len(b) - len(a) })
	for _, dir := range dirs {
		empty, err := afero.IsEmpty(fs, dir)
		if err != nil {
			return err
		}
		if empty {
			if err := fs.Remove(dir); err != nil {
				return err
			}
		}
	}

	return nil
}
