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

package archive

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"time"

	"github.com/ctessum/cdf"
	"github.com/noaa-emc/jediemc"
)

const (
	timeDim       = "time"
	timeStrLenDim = "timestrlen"
	timestampVar  = "timestamp"
)

// AppendNetCDF adds rec as a new record along the unlimited time
// dimension of the netCDF file at path. When the file does not exist it
// is created with a variable for each statistic in rec.
func AppendNetCDF(path string, rec *Record) error {
	var f *cdf.File
	var ff *os.File
	// Create the file if it doesn't exist, otherwise use the pre-existing file.
	if _, fileErr := os.Stat(path); fileErr != nil {
		h := newHeader(rec)
		for _, err := range h.Check() {
			return fmt.Errorf("archive: creating netcdf file: %w", err)
		}
		var err error
		ff, err = os.Create(path)
		if err != nil {
			return fmt.Errorf("archive: creating netcdf file: %w", err)
		}
		defer ff.Close()
		f, err = cdf.Create(ff, h)
		if err != nil {
			return fmt.Errorf("archive: creating netcdf file: %w", err)
		}
	} else {
		var err error
		ff, err = os.OpenFile(path, os.O_RDWR, os.ModePerm)
		if err != nil {
			return fmt.Errorf("archive: opening netcdf file: %w", err)
		}
		defer ff.Close()
		f, err = cdf.Open(ff)
		if err != nil {
			return fmt.Errorf("archive: reading netcdf file %s: %w", path, err)
		}
		if err := checkNetCDFColumns(path, f.Header, rec); err != nil {
			return err
		}
	}

	fi, err := ff.Stat()
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	n := int(f.Header.NumRecs(fi.Size()))

	write := func(v string, begin []int, data interface{}) error {
		if _, err := f.Writer(v, begin, nil).Write(data); err != nil {
			return fmt.Errorf("archive: writing %s record %d: %w", v, n, err)
		}
		return nil
	}
	if err := write(timestampVar, []int{n, 0}, rec.Time.Format(TimeFormat)); err != nil {
		return err
	}
	for _, s := range rec.Stats {
		if err := write(s.Name+"_RMSE", []int{n}, []float32{float32(s.RMSE)}); err != nil {
			return err
		}
		if err := write(s.Name+"_MAE", []int{n}, []float32{float32(s.MAE)}); err != nil {
			return err
		}
		if err := write(s.Name+"_counts", []int{n}, []int32{int32(s.Count)}); err != nil {
			return err
		}
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		return fmt.Errorf("archive: updating number of records: %w", err)
	}
	return nil
}

// checkNetCDFColumns makes sure the record variables of an existing
// archive are exactly the columns of rec. A record that wrote only some
// of them would leave the file short and be overwritten by the next one.
func checkNetCDFColumns(path string, h *cdf.Header, rec *Record) error {
	var have []string
	for _, v := range h.Variables() {
		if v != timestampVar && h.IsRecordVariable(v) {
			have = append(have, v)
		}
	}
	want := rec.Columns()
	sort.Strings(have)
	sort.Strings(want)
	if !reflect.DeepEqual(have, want) {
		return fmt.Errorf("archive: %s has columns %v but the record has %v", path, have, want)
	}
	return nil
}

// newHeader returns the header of a new archive for records like rec.
// The timestamp variable comes first so that the last variable in each
// record is a 4-byte value and the record count can be taken from the
// file size.
func newHeader(rec *Record) *cdf.Header {
	h := cdf.NewHeader([]string{timeDim, timeStrLenDim}, []int{0, len(TimeFormat)})
	h.AddVariable(timestampVar, []string{timeDim, timeStrLenDim}, "")
	h.AddAttribute(timestampVar, "description", "cycle time, YYYYMMDDHH")
	for _, s := range rec.Stats {
		h.AddVariable(s.Name+"_RMSE", []string{timeDim}, []float32{0})
		h.AddAttribute(s.Name+"_RMSE", "description", fmt.Sprintf("root mean square of %s", s.Name))
		h.AddVariable(s.Name+"_MAE", []string{timeDim}, []float32{0})
		h.AddAttribute(s.Name+"_MAE", "description", fmt.Sprintf("mean of %s", s.Name))
		h.AddVariable(s.Name+"_counts", []string{timeDim}, []int32{0})
		h.AddAttribute(s.Name+"_counts", "description", fmt.Sprintf("number of %s observations", s.Name))
	}
	h.Define()
	return h
}

// ReadNetCDF reads the named variable of the netCDF archive at path,
// along with the time of each record.
func ReadNetCDF(path, variable string) ([]time.Time, []float64, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("archive: opening netcdf file: %w", err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, nil, fmt.Errorf("archive: reading netcdf file %s: %w", path, err)
	}
	if l := f.Header.Lengths(variable); l == nil {
		return nil, nil, jediemc.UnknownVariableError{Variable: variable}
	} else if len(l) != 1 || !f.Header.IsRecordVariable(variable) {
		return nil, nil, fmt.Errorf("archive: %s is not a time series variable", variable)
	}
	fi, err := ff.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("archive: %w", err)
	}
	n := int(f.Header.NumRecs(fi.Size()))
	if n == 0 {
		return nil, nil, nil
	}

	strLen := len(TimeFormat)
	r := f.Reader(timestampVar, []int{0, 0}, []int{n - 1, strLen - 1})
	buf := r.Zero(n * strLen)
	if _, err := r.Read(buf); err != nil {
		return nil, nil, fmt.Errorf("archive: reading timestamps: %w", err)
	}
	chars := buf.([]uint8)
	times := make([]time.Time, n)
	for i := range times {
		if times[i], err = parseTime(string(chars[i*strLen : (i+1)*strLen])); err != nil {
			return nil, nil, err
		}
	}

	r = f.Reader(variable, []int{0}, []int{n - 1})
	buf = r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, nil, fmt.Errorf("archive: reading %s: %w", variable, err)
	}
	values := make([]float64, n)
	switch b := buf.(type) {
	case []float32:
		for i, v := range b {
			values[i] = float64(v)
		}
	case []float64:
		copy(values, b)
	case []int32:
		for i, v := range b {
			values[i] = float64(v)
		}
	case []int16:
		for i, v := range b {
			values[i] = float64(v)
		}
	default:
		return nil, nil, jediemc.UnsupportedTypeError{Variable: variable, Type: fmt.Sprintf("%T", buf)}
	}
	return times, values, nil
}
