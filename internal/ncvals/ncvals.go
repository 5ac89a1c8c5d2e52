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

// Package ncvals opens netCDF and HDF5 files and flattens the nested
// slices returned by their readers into row-major arrays.
package ncvals

import (
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/spf13/afero"
)

// Open opens the netCDF or HDF5 file at path. The file is closed
// when the returned group is closed.
func Open(fs afero.Fs, path string) (api.Group, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	g, err := netcdf.New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return g, nil
}

// Kind is the element kind of a flattened variable.
type Kind int

// These are the supported element kinds.
const (
	Unsupported Kind = iota
	Float
	Int
	Char
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case Char:
		return "char"
	}
	return "unsupported"
}

// Array holds the flattened values of a variable. Only the field
// matching Kind is populated.
type Array struct {
	Kind Kind

	// Shape holds the length of each dimension. Strings are
	// not counted as a dimension.
	Shape []int

	Floats []float64
	Ints   []int64
	Chars  []byte

	// GoType is the Go type of the elements, kept for error messages.
	GoType string
}

// Len returns the number of elements in the array.
func (a *Array) Len() int {
	switch a.Kind {
	case Float:
		return len(a.Floats)
	case Int:
		return len(a.Ints)
	case Char:
		return len(a.Chars)
	}
	return 0
}

// Float64s returns the values as float64, converting integers.
func (a *Array) Float64s() []float64 {
	if a.Kind == Float {
		return a.Floats
	}
	o := make([]float64, len(a.Ints))
	for i, v := range a.Ints {
		o[i] = float64(v)
	}
	return o
}

// Flatten copies v, which may be a scalar or a (nested) slice of
// numbers or strings, into an Array.
func Flatten(v interface{}) *Array {
	rv := reflect.ValueOf(v)
	a := new(Array)
	if !rv.IsValid() {
		return a
	}
	t := rv.Type()
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	a.GoType = t.String()
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		a.Kind = Float
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		a.Kind = Int
	case reflect.String:
		a.Kind = Char
	default:
		return a
	}
	for s := rv; s.Kind() == reflect.Slice || s.Kind() == reflect.Array; s = s.Index(0) {
		a.Shape = append(a.Shape, s.Len())
		if s.Len() == 0 {
			break
		}
	}
	a.walk(rv)
	return a
}

func (a *Array) walk(v reflect.Value) {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			a.walk(v.Index(i))
		}
	case reflect.Float32, reflect.Float64:
		a.Floats = append(a.Floats, v.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		a.Ints = append(a.Ints, v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		a.Ints = append(a.Ints, int64(v.Uint()))
	case reflect.String:
		a.Chars = append(a.Chars, v.String()...)
	}
}
