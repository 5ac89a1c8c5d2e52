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
	"strings"
)

// PathResolutionError is returned when a configured path matches neither
// a regular file nor any file beginning with it.
type PathResolutionError struct {
	Path string
}

func (err PathResolutionError) Error() string {
	return fmt.Sprintf("%s does not specify a valid path to file(s)", err.Path)
}

// UnsupportedTypeError is returned when a variable holds values that are
// neither floating point nor integer.
type UnsupportedTypeError struct {
	Variable, Type string
}

func (err UnsupportedTypeError) Error() string {
	return fmt.Sprintf("variable %s has type %s; only float and int are supported", err.Variable, err.Type)
}

// UnknownVariableError is returned when a requested variable is not in
// the catalog of the files being read.
type UnknownVariableError struct {
	Variable string
}

func (err UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable `%s`", err.Variable)
}

// ConfigError is returned for an invalid or missing configuration value.
type ConfigError struct {
	Field, Value string
}

func (err ConfigError) Error() string {
	switch err.Field {
	case "outformat", "dataformat", "format":
		return fmt.Sprintf("%s must be 'csv' or 'netcdf' but is `%s`", err.Field, err.Value)
	}
	if err.Value == "" {
		return fmt.Sprintf("missing configuration value for %s", err.Field)
	}
	return fmt.Sprintf("invalid value `%s` for %s", err.Value, err.Field)
}

// SchemaMismatchError is returned when a file in a partitioned set does
// not carry the same variables as the first file of the set.
type SchemaMismatchError struct {
	File           string
	Missing, Extra []string
}

func (err SchemaMismatchError) Error() string {
	msg := fmt.Sprintf("variable catalog of %s does not match the first file", err.File)
	if len(err.Missing) > 0 {
		msg += fmt.Sprintf("; missing: %s", strings.Join(err.Missing, ", "))
	}
	if len(err.Extra) > 0 {
		msg += fmt.Sprintf("; extra: %s", strings.Join(err.Extra, ", "))
	}
	return msg
}

// AmbiguousLayoutError is returned when a set of restart files is neither
// a single regional tile nor a full set of six global tiles.
type AmbiguousLayoutError struct {
	CoreCount, TracerCount int
}

func (err AmbiguousLayoutError) Error() string {
	return fmt.Sprintf("cannot classify restart files as global or regional: "+
		"%d fv_core and %d fv_tracer files", err.CoreCount, err.TracerCount)
}
