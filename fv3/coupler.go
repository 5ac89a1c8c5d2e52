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

package fv3

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// readCoupler sets the initialization and valid times from the last
// coupler.res file in the set, if there is one.
func (c *CubedSphere) readCoupler() error {
	var coupler string
	for _, f := range c.Files {
		if strings.HasSuffix(filepath.Base(f), couplerSuffix) {
			coupler = f
		}
	}
	if coupler == "" {
		return nil
	}
	f, err := c.fs.Open(coupler)
	if err != nil {
		return fmt.Errorf("fv3: opening coupler file: %w", err)
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for len(lines) < 3 && s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("fv3: reading %s: %w", coupler, err)
	}
	if len(lines) < 3 {
		return fmt.Errorf("fv3: %s has %d lines; at least 3 are needed", coupler, len(lines))
	}
	if c.InitTime, err = parseCouplerTime(lines[1]); err != nil {
		return fmt.Errorf("fv3: %s initialization time: %w", coupler, err)
	}
	if c.ValidTime, err = parseCouplerTime(lines[2]); err != nil {
		return fmt.Errorf("fv3: %s valid time: %w", coupler, err)
	}
	return nil
}

// parseCouplerTime parses a coupler.res line beginning with
// year, month, day, hour, minute and second. Seconds are ignored.
func parseCouplerTime(line string) (*time.Time, error) {
	f := strings.Fields(line)
	if len(f) < 6 {
		return nil, fmt.Errorf("have %d fields but need 6 in %q", len(f), line)
	}
	var v [6]int
	for i := range v {
		var err error
		if v[i], err = strconv.Atoi(f[i]); err != nil {
			return nil, err
		}
	}
	t := time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], 0, 0, time.UTC)
	return &t, nil
}
