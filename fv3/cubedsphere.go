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

// Package fv3 reads FV3 cubed-sphere model states from sets of restart
// files, either six global tiles or a single regional tile.
package fv3

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/sparse"
	"github.com/noaa-emc/jediemc"
	"github.com/noaa-emc/jediemc/internal/ncvals"
	"github.com/spf13/afero"
)

// NumGlobalTiles is the number of tiles in a global cubed-sphere grid.
const NumGlobalTiles = 6

// Restart file kinds used to classify a set of files.
const (
	CoreKind   = "fv_core"
	TracerKind = "fv_tracer"
)

const couplerSuffix = "coupler.res"

// Files with these endings are scanned for the variables they define.
var primarySuffixes = []string{"e.res.nc", "tile1.nc"}

var openGroup = ncvals.Open

// CubedSphere is a model state held in a set of FV3 restart files.
type CubedSphere struct {
	// Files holds the restart files, sorted by name.
	Files []string

	// InitTime and ValidTime are read from the coupler.res file,
	// if there is one. Otherwise they are nil.
	InitTime, ValidTime *time.Time

	// Lats and Lons are the grid cell center coordinates. They are
	// nil until LoadGeog is called.
	Lats, Lons *sparse.DenseArray

	global bool

	// vars maps variable names to the file they are stored in.
	vars map[string]string

	fs afero.Fs
}

// NewCubedSphere opens the restart files at path, which may be a single
// file or the beginning of the names of a set of files.
func NewCubedSphere(path string) (*CubedSphere, error) {
	return NewCubedSphereFs(afero.NewOsFs(), path)
}

// NewCubedSphereFs is like NewCubedSphere but reads from fs.
func NewCubedSphereFs(fs afero.Fs, path string) (*CubedSphere, error) {
	files, err := jediemc.FindFiles(fs, path)
	if err != nil {
		return nil, err
	}
	c := &CubedSphere{Files: files.Paths, fs: fs}
	if err := c.readCoupler(); err != nil {
		return nil, err
	}
	if c.global, err = classify(c.Files); err != nil {
		return nil, err
	}
	if err := c.buildVarMap(); err != nil {
		return nil, err
	}
	return c, nil
}

// classify determines whether files hold a global or a regional state
// from the number of fv_core and fv_tracer files they contain.
func classify(files []string) (global bool, err error) {
	var core, tracer int
	for _, f := range files {
		tok := strings.Split(filepath.Base(f), ".")
		if len(tok) < 4 {
			continue
		}
		switch tok[len(tok)-4] {
		case CoreKind:
			core++
		case TracerKind:
			tracer++
		}
	}
	regional := core == 1 || tracer == 1
	global = core == NumGlobalTiles || tracer == NumGlobalTiles
	if regional == global {
		return false, jediemc.AmbiguousLayoutError{CoreCount: core, TracerCount: tracer}
	}
	return global, nil
}

func (c *CubedSphere) buildVarMap() error {
	c.vars = make(map[string]string)
	for _, f := range c.Files {
		if !isPrimary(f) {
			continue
		}
		g, err := openGroup(c.fs, f)
		if err != nil {
			return fmt.Errorf("fv3: opening %s: %w", f, err)
		}
		for _, v := range g.ListVariables() {
			c.vars[v] = f
		}
		g.Close()
	}
	return nil
}

func isPrimary(path string) bool {
	base := filepath.Base(path)
	for _, s := range primarySuffixes {
		if strings.HasSuffix(base, s) {
			return true
		}
	}
	return false
}

// IsGlobal returns whether the state covers the globe with six tiles.
func (c *CubedSphere) IsGlobal() bool { return c.global }

// IsRegional returns whether the state is a single regional tile.
func (c *CubedSphere) IsRegional() bool { return !c.global }

// NTiles returns the number of tiles in the state.
func (c *CubedSphere) NTiles() int {
	if c.global {
		return NumGlobalTiles
	}
	return 1
}

// VariableFile returns the file that holds the named variable.
func (c *CubedSphere) VariableFile(name string) (string, bool) {
	f, ok := c.vars[name]
	return f, ok
}

// VariableNames returns the names of the variables in the state, sorted.
func (c *CubedSphere) VariableNames() []string {
	names := make([]string, 0, len(c.vars))
	for v := range c.vars {
		names = append(names, v)
	}
	sort.Strings(names)
	return names
}

// TilePath returns the path of the file for the given zero-based tile,
// formed by replacing the last "tile1" in the name of base.
func TilePath(base string, tile int) string {
	dir, name := filepath.Split(base)
	i := strings.LastIndex(name, "tile1")
	if i < 0 {
		return base
	}
	return dir + name[:i] + fmt.Sprintf("tile%d", tile+1) + name[i+len("tile1"):]
}

func hasTile(path string) bool {
	return strings.Contains(filepath.Base(path), "tile1")
}

// Variable returns the values of the named variable. For regional
// states the first time slice is returned. For global states the
// slices from each tile are stacked into an array of shape
// (6, trailing dimensions...).
func (c *CubedSphere) Variable(name string) (*sparse.DenseArray, error) {
	file, ok := c.vars[name]
	if !ok {
		return nil, jediemc.UnknownVariableError{Variable: name}
	}
	if !c.global || !hasTile(file) {
		return c.read(file, name, true)
	}
	return c.stackTiles(func(t int) (*sparse.DenseArray, error) {
		return c.read(TilePath(file, t), name, true)
	})
}

// LoadGeog reads the grid coordinates. For regional states, path is the
// geography file. For global states, path is a glob pattern matching
// the six tile geography files.
func (c *CubedSphere) LoadGeog(path string) error {
	if !c.global {
		lons, err := c.read(path, "geolon", false)
		if err != nil {
			return err
		}
		lats, err := c.read(path, "geolat", false)
		if err != nil {
			return err
		}
		c.Lons, c.Lats = lons, lats
		return nil
	}
	paths, err := jediemc.GlobFiles(c.fs, path)
	if err != nil {
		return err
	}
	if len(paths) < NumGlobalTiles {
		return fmt.Errorf("fv3: %d geography files match %s but %d are needed",
			len(paths), path, NumGlobalTiles)
	}
	lons, err := c.stackTiles(func(t int) (*sparse.DenseArray, error) {
		return c.read(paths[t], "geolon", false)
	})
	if err != nil {
		return err
	}
	lats, err := c.stackTiles(func(t int) (*sparse.DenseArray, error) {
		return c.read(paths[t], "geolat", false)
	})
	if err != nil {
		return err
	}
	c.Lons, c.Lats = lons, lats
	return nil
}

// stackTiles reads each tile with read and stacks them along a new
// leading dimension. The shape is taken from the first tile.
func (c *CubedSphere) stackTiles(read func(tile int) (*sparse.DenseArray, error)) (*sparse.DenseArray, error) {
	first, err := read(0)
	if err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(append([]int{NumGlobalTiles}, first.Shape...)...)
	n := copy(out.Elements, first.Elements)
	for t := 1; t < NumGlobalTiles; t++ {
		a, err := read(t)
		if err != nil {
			return nil, err
		}
		if len(a.Elements) != n {
			return nil, fmt.Errorf("fv3: tile %d has %d values but tile 1 has %d", t+1, len(a.Elements), n)
		}
		copy(out.Elements[t*n:], a.Elements)
	}
	return out, nil
}

// read reads a variable from a file. If firstSlice is true and the
// variable has more than one dimension, only the first index of the
// leading dimension is read.
func (c *CubedSphere) read(path, name string, firstSlice bool) (*sparse.DenseArray, error) {
	g, err := openGroup(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("fv3: opening %s: %w", path, err)
	}
	defer g.Close()
	vg, err := g.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("fv3: reading %s from %s: %w", name, path, err)
	}
	sliced := firstSlice && len(vg.Dimensions()) > 1
	var v interface{}
	if sliced {
		v, err = vg.GetSlice(0, 1)
	} else {
		v, err = vg.Values()
	}
	if err != nil {
		return nil, fmt.Errorf("fv3: reading %s from %s: %w", name, path, err)
	}
	return toDense(name, ncvals.Flatten(v), sliced)
}

func toDense(name string, a *ncvals.Array, sliced bool) (*sparse.DenseArray, error) {
	if a.Kind != ncvals.Float && a.Kind != ncvals.Int {
		return nil, jediemc.UnsupportedTypeError{Variable: name, Type: a.GoType}
	}
	shape := a.Shape
	if sliced {
		shape = shape[1:]
	}
	if len(shape) == 0 {
		shape = []int{1}
	}
	out := sparse.ZerosDense(shape...)
	copy(out.Elements, a.Float64s())
	return out, nil
}
