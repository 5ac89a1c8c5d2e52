/*
Copyright © 2024 the jediemc authors.
This file is part of jediemc.

jediemc is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

jediemc is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with jediemc.  If not, see <http://www.gnu.org/licenses/>.
*/

package jediemc

import (
	"fmt"
	"sort"

	"github.com/spf13/afero"
)

// FileSet is an ordered list of files resolved from a configured path.
type FileSet struct {
	// Paths holds the files in the order they should be read.
	Paths []string

	// Partitioned is true when the path was a prefix that matched
	// a set of files rather than a single file.
	Partitioned bool
}

// Len returns the number of files in the set.
func (fs *FileSet) Len() int { return len(fs.Paths) }

// FindFiles resolves path to the files it denotes. If path is a regular
// file, the set contains only that file. Otherwise path is treated as
// the beginning of a glob pattern (path + "*") and every matching regular
// file is returned, sorted by name. A PathResolutionError is returned
// if nothing matches.
func FindFiles(fs afero.Fs, path string) (*FileSet, error) {
	if fi, err := fs.Stat(path); err == nil && fi.Mode().IsRegular() {
		return &FileSet{Paths: []string{path}}, nil
	}
	paths, err := GlobFiles(fs, path+"*")
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, PathResolutionError{Path: path}
	}
	return &FileSet{Paths: paths, Partitioned: true}, nil
}

// GlobFiles returns the regular files matching pattern, sorted by name.
func GlobFiles(fs afero.Fs, pattern string) ([]string, error) {
	matches, err := afero.Glob(fs, pattern)
	if err != nil {
		return nil, fmt.Errorf("jediemc: matching %s: %w", pattern, err)
	}
	var paths []string
	for _, m := range matches {
		fi, err := fs.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("jediemc: %w", err)
		}
		if fi.Mode().IsRegular() {
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
