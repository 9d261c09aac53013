package model

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// reservedIDs name the root and folder documents of the on-disk layout.
var reservedIDs = []string{"model", "folder"}

// ValidID reports whether id may be used as an element or folder identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id) && !Reserved(id)
}

// Reserved reports whether id, in any letter case, is a reserved name.
func Reserved(id string) bool {
	return slices.ContainsFunc(reservedIDs, func(r string) bool { return strings.EqualFold(r, id) })
}

// Validate checks that every identifier in the model is well-formed and unique.
func (m *Model) Validate() error {
	if !idPattern.MatchString(m.ID) {
		return fmt.Errorf("%w: model %q", ErrInvalidID, m.ID)
	}

	// The root id is stored inside model.yaml and never names a file.
	seen := map[string]string{m.ID: "model"}
	check := func(id, kind string) error {
		if !ValidID(id) {
			return fmt.Errorf("%w: %s %q", ErrInvalidID, kind, id)
		}
		if other, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s %q already used by a %s", ErrDuplicateID, kind, id, other)
		}
		seen[id] = kind
		return nil
	}

	var err error
	m.WalkFolders(func(_, f *Folder) bool {
		if err = check(f.ID, "folder"); err != nil {
			return false
		}
		for _, e := range f.Elements {
			if err = check(e.ID, "element"); err != nil {
				return false
			}
		}
		return true
	})

	return err
}
