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

package ioda

import (
	"fmt"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/noaa-emc/jediemc"
)

// Layout is the convention used to arrange variables within an
// observation file.
type Layout int

const (
	// Classic files keep every variable in the root group under a
	// name of the form variable@Group.
	Classic Layout = iota

	// EnginesNative files keep variable v of group G as variable v
	// in subgroup G.
	EnginesNative
)

func (l Layout) String() string {
	switch l {
	case Classic:
		return "classic"
	case EnginesNative:
		return "engines-native"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// NewLayout returns the layout corresponding to the integer flag
// used in configuration files.
func NewLayout(i int) (Layout, error) {
	switch l := Layout(i); l {
	case Classic, EnginesNative:
		return l, nil
	}
	return Classic, jediemc.ConfigError{Field: "layout", Value: fmt.Sprint(i)}
}

// splitName splits variable@Group into its variable and group parts.
func splitName(name string) (v, group string) {
	if i := strings.LastIndex(name, "@"); i >= 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

// catalog lists the variables in g, named variable@Group.
func (l Layout) catalog(g api.Group) ([]string, error) {
	names := append([]string{}, g.ListVariables()...)
	if l != EnginesNative {
		return names, nil
	}
	for _, sub := range g.ListSubgroups() {
		sg, err := g.GetGroup(sub)
		if err != nil {
			return nil, fmt.Errorf("ioda: opening group %s: %w", sub, err)
		}
		for _, v := range sg.ListVariables() {
			names = append(names, v+"@"+sub)
		}
		sg.Close()
	}
	return names, nil
}

// values reads all values of the named variable from g.
func (l Layout) values(g api.Group, name string) (interface{}, error) {
	v, group := name, ""
	if l == EnginesNative {
		v, group = splitName(name)
	}
	if group != "" {
		if !contains(g.ListSubgroups(), group) {
			return nil, jediemc.UnknownVariableError{Variable: name}
		}
		sg, err := g.GetGroup(group)
		if err != nil {
			return nil, fmt.Errorf("ioda: opening group %s: %w", group, err)
		}
		defer sg.Close()
		g = sg
	}
	if !contains(g.ListVariables(), v) {
		return nil, jediemc.UnknownVariableError{Variable: name}
	}
	vg, err := g.GetVarGetter(v)
	if err != nil {
		return nil, fmt.Errorf("ioda: reading %s: %w", name, err)
	}
	return vg.Values()
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
