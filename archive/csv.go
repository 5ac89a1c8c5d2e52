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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/noaa-emc/jediemc"
)

// AppendCSV adds rec as a row of the CSV file at path. The header row
// is written only when the file is created. Each row ends with an
// empty field.
func AppendCSV(path string, rec *Record) error {
	header := append(append([]string{"cycle"}, rec.Columns()...), "")
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if exists {
		if err := checkCSVHeader(path, header); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("archive: opening csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("archive: writing csv header: %w", err)
		}
	}
	row := []string{rec.Time.Format(TimeFormat)}
	for _, s := range rec.Stats {
		row = append(row, formatFloat(s.RMSE), formatFloat(s.MAE), strconv.Itoa(s.Count))
	}
	if err := w.Write(append(row, "")); err != nil {
		return fmt.Errorf("archive: writing csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("archive: writing csv row: %w", err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// checkCSVHeader makes sure the existing file at path has the given
// header, so that rows are not appended under the wrong columns.
func checkCSVHeader(path string, want []string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive: opening csv file: %w", err)
	}
	defer f.Close()
	have, err := csv.NewReader(f).Read()
	if err != nil {
		return fmt.Errorf("archive: reading csv header of %s: %w", path, err)
	}
	if !reflect.DeepEqual(have, want) {
		return fmt.Errorf("archive: %s has columns %v but the record has %v", path, have, want)
	}
	return nil
}

// ReadCSV reads the named column of the CSV archive at path.
func ReadCSV(path, column string) ([]time.Time, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("archive: opening csv file: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("archive: reading csv header of %s: %w", path, err)
	}
	col := -1
	for i, h := range header {
		if h == column {
			col = i
			break
		}
	}
	if col <= 0 {
		return nil, nil, jediemc.UnknownVariableError{Variable: column}
	}
	var times []time.Time
	var values []float64
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, nil, fmt.Errorf("archive: reading %s: %w", path, err)
		}
		t, err := parseTime(row[0])
		if err != nil {
			return nil, nil, err
		}
		v, err := strconv.ParseFloat(row[col], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("archive: parsing %s at %s: %w", column, row[0], err)
		}
		times = append(times, t)
		values = append(values, v)
	}
	return times, values, nil
}
