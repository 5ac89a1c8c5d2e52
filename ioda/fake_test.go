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

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// fakeGroup is an in-memory api.Group. refs counts the groups
// that have been opened but not closed.
type fakeGroup struct {
	vars   map[string]interface{}
	order  []string
	groups map[string]*fakeGroup
	gorder []string
	refs   *int
}

func newFakeGroup(refs *int) *fakeGroup {
	return &fakeGroup{
		vars:   make(map[string]interface{}),
		groups: make(map[string]*fakeGroup),
		refs:   refs,
	}
}

func (g *fakeGroup) addVar(name string, values interface{}) *fakeGroup {
	g.vars[name] = values
	g.order = append(g.order, name)
	return g
}

func (g *fakeGroup) addGroup(name string) *fakeGroup {
	sg := newFakeGroup(g.refs)
	g.groups[name] = sg
	g.gorder = append(g.gorder, name)
	return sg
}

func (g *fakeGroup) Close() { *g.refs-- }

func (g *fakeGroup) Attributes() api.AttributeMap       { return nil }
func (g *fakeGroup) ListVariables() []string            { return g.order }
func (g *fakeGroup) ListSubgroups() []string            { return g.gorder }
func (g *fakeGroup) ListTypes() []string                { return nil }
func (g *fakeGroup) GetType(string) (string, bool)      { return "", false }
func (g *fakeGroup) GetGoType(string) (string, bool)    { return "", false }
func (g *fakeGroup) ListDimensions() []string           { return nil }
func (g *fakeGroup) GetDimension(string) (uint64, bool) { return 0, false }

func (g *fakeGroup) GetVariable(name string) (*api.Variable, error) {
	v, ok := g.vars[name]
	if !ok {
		return nil, fmt.Errorf("not found: %s", name)
	}
	return &api.Variable{Values: v}, nil
}

func (g *fakeGroup) GetVarGetter(name string) (api.VarGetter, error) {
	v, ok := g.vars[name]
	if !ok {
		return nil, fmt.Errorf("not found: %s", name)
	}
	return fakeVarGetter{v}, nil
}

func (g *fakeGroup) GetGroup(name string) (api.Group, error) {
	sg, ok := g.groups[name]
	if !ok {
		return nil, fmt.Errorf("group not found: %s", name)
	}
	*g.refs++
	return sg, nil
}

type fakeVarGetter struct {
	values interface{}
}

func (v fakeVarGetter) Len() int64                   { return 0 }
func (v fakeVarGetter) Values() (interface{}, error) { return v.values, nil }
func (v fakeVarGetter) Dimensions() []string         { return nil }
func (v fakeVarGetter) Attributes() api.AttributeMap { return nil }
func (v fakeVarGetter) Type() string                 { return "" }
func (v fakeVarGetter) GoType() string               { return fmt.Sprintf("%T", v.values) }

func (v fakeVarGetter) GetSlice(b, e int64) (interface{}, error) {
	return nil, fmt.Errorf("not implemented")
}
