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

// Package archive appends summary statistics to CSV and netCDF archive
// files and reads them back as time series.
package archive

import (
	"fmt"
	"time"

	"github.com/noaa-emc/jediemc"
)

// TimeFormat is the format of the cycle time stored with each record.
const TimeFormat = "2006010215"

// Format is an archive file format.
type Format string

// These are the supported archive formats.
const (
	CSV    Format = "csv"
	NetCDF Format = "netcdf"
)

// ParseFormat returns the format named s. field names the configuration
// value being parsed, for error messages.
func ParseFormat(field, s string) (Format, error) {
	switch f := Format(s); f {
	case CSV, NetCDF:
		return f, nil
	}
	return "", jediemc.ConfigError{Field: field, Value: s}
}

// VarStats holds the statistics calculated for one variable.
type VarStats struct {
	Name  string
	RMSE  float64
	MAE   float64
	Count int
}

// Record is one row of an archive.
type Record struct {
	Time  time.Time
	Stats []VarStats
}

// Columns returns the names of the value columns of the record, in order.
func (r *Record) Columns() []string {
	cols := make([]string, 0, 3*len(r.Stats))
	for _, s := range r.Stats {
		cols = append(cols, s.Name+"_RMSE", s.Name+"_MAE", s.Name+"_counts")
	}
	return cols
}

// Append adds rec to the end of the archive at path, creating the file
// if it does not exist.
func Append(format Format, path string, rec *Record) error {
	switch format {
	case CSV:
		return AppendCSV(path, rec)
	case NetCDF:
		return AppendNetCDF(path, rec)
	}
	return jediemc.ConfigError{Field: "outformat", Value: string(format)}
}

// ReadSeries reads the times and values of the named column from the
// archive at path.
func ReadSeries(path string, format Format, column string) ([]time.Time, []float64, error) {
	switch format {
	case CSV:
		return ReadCSV(path, column)
	case NetCDF:
		return ReadNetCDF(path, column)
	}
	return nil, nil, jediemc.ConfigError{Field: "dataformat", Value: string(format)}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return t, fmt.Errorf("archive: invalid cycle time: %w", err)
	}
	return t, nil
}
