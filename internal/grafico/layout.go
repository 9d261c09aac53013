// Package grafico maps a model graph to a tree of YAML files and back.
//
// Layout, relative to the working directory:
//
//	model/model.yaml                   model root
//	model/<folder>/folder.yaml         one per folder, nested by folder id
//	model/<folder>/<element>.yaml      one per element, named by element id
//
// Every file name is derived from an identifier only, so a path never changes
// when an element is renamed and diffs stay element-sized.
package grafico

import (
	"path"
	"strings"
)

const (
	ModelDir     = "model"
	ModelFile    = "model.yaml"
	FolderFile   = "folder.yaml"
	FileExt      = ".yaml"
	ChecksumFile = ".git/modelsync.checksum"
)

// ElementFileName returns the file name that stores the element with the given id.
func ElementFileName(id string) string {
	return id + FileExt
}

// IsElementPath reports whether a slash-separated repository path stores the
// element id. Elements live in folders, never next to the root document.
func IsElementPath(p, id string) bool {
	got, ok := ElementIDFromPath(p)
	return ok && got == id
}

// ElementIDFromPath returns the element id stored at a repository path, if the
// path is an element file.
func ElementIDFromPath(p string) (string, bool) {
	if !strings.HasPrefix(p, ModelDir+"/") {
		return "", false
	}

	base := path.Base(p)
	if base == FolderFile || base == ModelFile || !strings.HasSuffix(base, FileExt) {
		return "", false
	}
	if path.Dir(p) == ModelDir {
		return "", false
	}

	return strings.TrimSuffix(base, FileExt), true
}

// FolderFilesFor returns the folder.yaml paths of every ancestor folder of an
// element path, outermost first.
func FolderFilesFor(elementPath string) []string {
	var dirs []string
	for dir := path.Dir(elementPath); dir != ModelDir && dir != "." && dir != "/"; dir = path.Dir(dir) {
		dirs = append(dirs, path.Join(dir, FolderFile))
	}

	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs
}
