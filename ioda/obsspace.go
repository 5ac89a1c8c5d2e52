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

// Package ioda reads observation spaces from IODA observation files,
// which may be HDF5 (netCDF-4) or netCDF classic files.
package ioda

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/noaa-emc/jediemc"
	"github.com/noaa-emc/jediemc/internal/ncvals"
	"github.com/spf13/afero"
)

// MissingValue is the threshold above which values are treated as missing.
const MissingValue = 9e36

// DatetimeFormat is the format of the per-observation date strings.
const DatetimeFormat = "2006-01-02T15:04:05Z"

const datetimeLen = len(DatetimeFormat)

const (
	latitudeVar  = "latitude@MetaData"
	longitudeVar = "longitude@MetaData"
	datetimeVar  = "datetime@MetaData"
)

// openGroup opens the file at path as a netCDF or HDF5 group.
var openGroup = ncvals.Open

// ObsSpace is a set of observations read from one or more files that
// share a variable catalog.
type ObsSpace struct {
	Name   string
	Files  []string
	Layout Layout

	lats, lons []float64
	fileLocs   []int
	varnames   []string

	fs afero.Fs
}

// NewObsSpace opens the observation files at path, which may be a single
// file or the beginning of the names of a set of files.
func NewObsSpace(path, name string, layout Layout) (*ObsSpace, error) {
	return NewObsSpaceFs(afero.NewOsFs(), path, name, layout)
}

// NewObsSpaceFs is like NewObsSpace but reads from fs.
func NewObsSpaceFs(fs afero.Fs, path, name string, layout Layout) (*ObsSpace, error) {
	files, err := jediemc.FindFiles(fs, path)
	if err != nil {
		return nil, err
	}
	o := &ObsSpace{
		Name:   name,
		Files:  files.Paths,
		Layout: layout,
		fs:     fs,
	}
	for i, f := range o.Files {
		err := o.withFile(f, func(g api.Group) error {
			lats, err := o.floats(g, latitudeVar)
			if err != nil {
				return err
			}
			lons, err := o.floats(g, longitudeVar)
			if err != nil {
				return err
			}
			if len(lats) != len(lons) {
				return fmt.Errorf("ioda: %s has %d latitudes but %d longitudes", f, len(lats), len(lons))
			}
			o.lats = append(o.lats, lats...)
			o.lons = append(o.lons, lons...)
			o.fileLocs = append(o.fileLocs, len(lats))

			names, err := o.Layout.catalog(g)
			if err != nil {
				return err
			}
			if i == 0 {
				o.varnames = names
				return nil
			}
			return checkCatalog(f, o.varnames, names)
		})
		if err != nil {
			return nil, err
		}
	}
	return o, nil
}

// checkCatalog returns a SchemaMismatchError if have and want do not
// contain the same names.
func checkCatalog(file string, want, have []string) error {
	missing := difference(want, have)
	extra := difference(have, want)
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	return jediemc.SchemaMismatchError{File: file, Missing: missing, Extra: extra}
}

// difference returns the members of a that are not in b.
func difference(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, s := range b {
		in[s] = true
	}
	var o []string
	for _, s := range a {
		if !in[s] {
			o = append(o, s)
		}
	}
	sort.Strings(o)
	return o
}

// withFile opens path, calls f with its root group and closes the file.
func (o *ObsSpace) withFile(path string, f func(api.Group) error) error {
	g, err := openGroup(o.fs, path)
	if err != nil {
		return fmt.Errorf("ioda: opening %s: %w", path, err)
	}
	defer g.Close()
	return f(g)
}

// read reads and flattens a variable, returning an error if it is not
// numeric.
func (o *ObsSpace) read(g api.Group, name string) (*ncvals.Array, error) {
	v, err := o.Layout.values(g, name)
	if err != nil {
		return nil, err
	}
	a := ncvals.Flatten(v)
	if a.Kind != ncvals.Float && a.Kind != ncvals.Int {
		return nil, jediemc.UnsupportedTypeError{Variable: name, Type: a.GoType}
	}
	return a, nil
}

func (o *ObsSpace) floats(g api.Group, name string) ([]float64, error) {
	a, err := o.read(g, name)
	if err != nil {
		return nil, err
	}
	return a.Float64s(), nil
}

// Len returns the number of observations.
func (o *ObsSpace) Len() int { return len(o.lats) }

// Lats returns the latitude of each observation.
func (o *ObsSpace) Lats() []float64 { return o.lats }

// Lons returns the longitude of each observation.
func (o *ObsSpace) Lons() []float64 { return o.lons }

// VariableNames returns the variables available in the observation
// space, in the order they are listed in the first file.
func (o *ObsSpace) VariableNames() []string { return o.varnames }

// NumVars returns the number of variables in the observation space.
func (o *ObsSpace) NumVars() int { return len(o.varnames) }

func (o *ObsSpace) String() string {
	return fmt.Sprintf("IODA ObsSpace Object - %s", o.Name)
}

// GoString lists the name and files of the observation space.
func (o *ObsSpace) GoString() string {
	return fmt.Sprintf("ObsSpace(%s,[%s])", o.Name, strings.Join(o.Files, " "))
}

// DataType is the element type of a Vector.
type DataType int

// These are the types of data a Vector can hold.
const (
	Float DataType = iota
	Int
)

func (t DataType) String() string {
	if t == Int {
		return "int"
	}
	return "float"
}

// Vector holds the values of one variable for every observation. Floats
// is set when Type is Float and Ints when Type is Int.
type Vector struct {
	Type   DataType
	Floats []float64
	Ints   []int64
}

// Len returns the number of values.
func (v *Vector) Len() int {
	if v.Type == Int {
		return len(v.Ints)
	}
	return len(v.Floats)
}

// Float64s returns the values as floating point numbers.
func (v *Vector) Float64s() []float64 {
	if v.Type == Float {
		return v.Floats
	}
	o := make([]float64, len(v.Ints))
	for i, x := range v.Ints {
		o[i] = float64(x)
	}
	return o
}

// Int64s returns the values as integers. Missing floating point values
// are returned as math.MinInt64.
func (v *Vector) Int64s() []int64 {
	if v.Type == Int {
		return v.Ints
	}
	o := make([]int64, len(v.Floats))
	for i, x := range v.Floats {
		if math.IsNaN(x) {
			o[i] = math.MinInt64
			continue
		}
		o[i] = int64(x)
	}
	return o
}

// Variable reads the named variable from every file, in order. Integer
// variables are returned as integers and all other numeric variables as
// floating point numbers, with values above MissingValue replaced by NaN.
func (o *ObsSpace) Variable(name string) (*Vector, error) {
	if !contains(o.varnames, name) {
		return nil, jediemc.UnknownVariableError{Variable: name}
	}
	arrays := make([]*ncvals.Array, len(o.Files))
	allInt := true
	for i, f := range o.Files {
		err := o.withFile(f, func(g api.Group) error {
			a, err := o.read(g, name)
			if err != nil {
				return err
			}
			if a.Len() != o.fileLocs[i] {
				return fmt.Errorf("ioda: %s in %s has %d values but the file has %d locations",
					name, f, a.Len(), o.fileLocs[i])
			}
			arrays[i] = a
			return nil
		})
		if err != nil {
			return nil, err
		}
		allInt = allInt && arrays[i].Kind == ncvals.Int
	}
	if allInt {
		v := &Vector{Type: Int, Ints: make([]int64, 0, o.Len())}
		for _, a := range arrays {
			v.Ints = append(v.Ints, a.Ints...)
		}
		return v, nil
	}
	v := &Vector{Type: Float, Floats: make([]float64, 0, o.Len())}
	for _, a := range arrays {
		v.Floats = append(v.Floats, a.Float64s()...)
	}
	for i, x := range v.Floats {
		if x > MissingValue {
			v.Floats[i] = math.NaN()
		}
	}
	return v, nil
}

// Datetimes returns the time of each observation.
func (o *ObsSpace) Datetimes() ([]time.Time, error) {
	times := make([]time.Time, 0, o.Len())
	for i, f := range o.Files {
		err := o.withFile(f, func(g api.Group) error {
			v, err := o.Layout.values(g, datetimeVar)
			if err != nil {
				return err
			}
			a := ncvals.Flatten(v)
			if a.Kind != ncvals.Char {
				return jediemc.UnsupportedTypeError{Variable: datetimeVar, Type: a.GoType}
			}
			t, err := parseDatetimes(a.Chars)
			if err != nil {
				return fmt.Errorf("ioda: %s: %w", f, err)
			}
			if len(t) != o.fileLocs[i] {
				return fmt.Errorf("ioda: %s has %d datetimes but %d locations", f, len(t), o.fileLocs[i])
			}
			times = append(times, t...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return times, nil
}

// parseDatetimes splits a stream of characters into fixed-width date
// strings and parses them.
func parseDatetimes(chars []byte) ([]time.Time, error) {
	if len(chars)%datetimeLen != 0 {
		return nil, fmt.Errorf("datetime data length %d is not a multiple of %d", len(chars), datetimeLen)
	}
	times := make([]time.Time, len(chars)/datetimeLen)
	for i := range times {
		s := string(chars[i*datetimeLen : (i+1)*datetimeLen])
		t, err := time.Parse(DatetimeFormat, s)
		if err != nil {
			return nil, err
		}
		times[i] = t
	}
	return times, nil
}
