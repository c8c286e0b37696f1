package fat12

import (
	"fmt"
	"strings"

	"github.com/dargueta/fat12fs/errors"
)

// namesMatch compares a stored name against a path component. 8.3 names are
// stored in upper case but DOS matches them without regard to case.
func (v *Volume) namesMatch(stored, wanted string) bool {
	if v.options.CaseSensitive {
		return stored == wanted
	}
	return strings.EqualFold(stored, wanted)
}

// Lookup finds the entry named `name` directly inside `dir`.
func (v *Volume) Lookup(dir Dirent, name string) (Dirent, error) {
	var found Dirent
	matched := false

	err := v.ScanDirectory(
		dir,
		func(entry Dirent) error {
			if v.namesMatch(entry.Name, name) {
				found = entry
				matched = true
				return SkipRest
			}
			return nil
		},
	)
	if err != nil {
		return Dirent{}, err
	}
	if !matched {
		return Dirent{}, errors.ErrNotFound.WithMessage(
			fmt.Sprintf("no entry named %q in %q", name, dir.Name))
	}

	// ".." in a first-level subdirectory points at cluster 0, which means the
	// root directory. Hand back the same synthesized entry "/" resolves to.
	if found.IsRoot() {
		return RootDirent(), nil
	}
	return found, nil
}

// Resolve returns the directory entry for an absolute, slash-delimited path.
// "/" resolves to the synthesized root entry. Empty components and "." are
// ignored; ".." at the root stays at the root.
func (v *Volume) Resolve(path string) (Dirent, error) {
	err := v.checkOpen()
	if err != nil {
		return Dirent{}, err
	}
	if !strings.HasPrefix(path, "/") {
		return Dirent{}, errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("path must be absolute: %q", path))
	}

	current := RootDirent()
	walked := ""

	for _, component := range strings.Split(path, "/") {
		if component == "" || component == "." {
			continue
		}
		if !current.IsDir {
			return Dirent{}, errors.ErrNotADirectory.WithMessage(
				fmt.Sprintf("%q is not a directory", walked))
		}
		if component == ".." && current.IsRoot() {
			continue
		}

		current, err = v.Lookup(current, component)
		if err != nil {
			return Dirent{}, err
		}
		walked += "/" + component
	}

	return current, nil
}
