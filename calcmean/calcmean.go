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

// Package calcmean calculates summary statistics of observation
// variables and appends them to archive files.
package calcmean

import (
	"fmt"
	"math"
	"time"

	"github.com/noaa-emc/jediemc"
	"github.com/noaa-emc/jediemc/archive"
	"github.com/noaa-emc/jediemc/ioda"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Job specifies the statistics to calculate for one observation space.
type Job struct {
	// Name is the name of the observation space.
	Name string

	// DataPath is the observation file, or the beginning of the names
	// of a set of observation files.
	DataPath string

	// Variables are the variables to calculate statistics for.
	Variables []string

	// OutFile is the archive to append the statistics to, and
	// OutFormat is its format.
	OutFile   string
	OutFormat archive.Format

	// Cycle is the time the statistics are valid for.
	Cycle time.Time

	// Layout is the layout of the observation files.
	Layout ioda.Layout

	// QCVar is the quality control variable. If it is empty, no
	// observations are filtered out. Otherwise only observations
	// whose QCVar value is in QCValues are kept.
	QCVar    string
	QCValues []int
}

// Validate checks that the required fields of j are set.
func (j *Job) Validate() error {
	switch {
	case j.DataPath == "":
		return jediemc.ConfigError{Field: "datapath"}
	case len(j.Variables) == 0:
		return jediemc.ConfigError{Field: "variables"}
	case j.OutFile == "":
		return jediemc.ConfigError{Field: "outfile"}
	case j.Cycle.IsZero():
		return jediemc.ConfigError{Field: "cycle"}
	}
	if _, err := archive.ParseFormat("outformat", string(j.OutFormat)); err != nil {
		return err
	}
	return nil
}

// Aggregator calculates statistics for jobs. A nil Fs reads from the
// local file system and a nil Log logs to the standard logger.
type Aggregator struct {
	Fs  afero.Fs
	Log logrus.FieldLogger
}

// NewAggregator returns an Aggregator that reads from the local file
// system and logs to the standard logger.
func NewAggregator() *Aggregator {
	return &Aggregator{Fs: afero.NewOsFs(), Log: logrus.StandardLogger()}
}

func (a *Aggregator) fs() afero.Fs {
	if a.Fs == nil {
		return afero.NewOsFs()
	}
	return a.Fs
}

func (a *Aggregator) logger() logrus.FieldLogger {
	if a.Log == nil {
		return logrus.StandardLogger()
	}
	return a.Log
}

// Aggregate reads the variables of job from each observation file and
// calculates their statistics.
func (a *Aggregator) Aggregate(job *Job) (*archive.Record, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	files, err := jediemc.FindFiles(a.fs(), job.DataPath)
	if err != nil {
		return nil, err
	}
	log := a.logger().WithField("obs_space", job.Name)
	kept := make([][]float64, len(job.Variables))
	for _, f := range files.Paths {
		obs, err := ioda.NewObsSpaceFs(a.fs(), f, job.Name, job.Layout)
		if err != nil {
			return nil, err
		}
		var mask []bool
		if job.QCVar != "" {
			qc, err := obs.Variable(job.QCVar)
			if err != nil {
				return nil, fmt.Errorf("calcmean: reading QC variable: %w", err)
			}
			mask = QCMask(qc.Int64s(), job.QCValues)
		}
		for i, v := range job.Variables {
			vals, err := obs.Variable(v)
			if err != nil {
				return nil, err
			}
			x, err := ApplyMask(vals.Float64s(), mask)
			if err != nil {
				return nil, fmt.Errorf("calcmean: %s in %s: %w", v, f, err)
			}
			kept[i] = append(kept[i], x...)
		}
		log.WithFields(logrus.Fields{"file": f, "nlocs": obs.Len()}).Debug("read observations")
	}

	rec := &archive.Record{Time: job.Cycle}
	for i, v := range job.Variables {
		s := Statistics(v, kept[i])
		if math.IsNaN(s.RMSE) && !math.IsNaN(s.MAE) {
			log.WithField("variable", v).Warn("RMSE is NaN because missing values passed quality control")
		}
		rec.Stats = append(rec.Stats, s)
	}
	return rec, nil
}

// Run calculates the statistics for job and appends them to its
// archive file. Nothing is written if the statistics cannot be
// calculated.
func (a *Aggregator) Run(job *Job) error {
	rec, err := a.Aggregate(job)
	if err != nil {
		return err
	}
	if err := archive.Append(job.OutFormat, job.OutFile, rec); err != nil {
		return err
	}
	fields := logrus.Fields{
		"obs_space": job.Name,
		"cycle":     job.Cycle.Format(archive.TimeFormat),
		"outfile":   job.OutFile,
	}
	for _, s := range rec.Stats {
		fields[s.Name+"_counts"] = s.Count
	}
	a.logger().WithFields(fields).Info("saved statistics")
	return nil
}

// RunAll runs each job in order, stopping at the first error.
func (a *Aggregator) RunAll(jobs []*Job) error {
	for _, j := range jobs {
		if err := a.Run(j); err != nil {
			return fmt.Errorf("calcmean: obs space %s: %w", j.Name, err)
		}
	}
	return nil
}

// QCMask returns a mask that is true where the quality control code
// is one of the accepted values.
func QCMask(qc []int64, accepted []int) []bool {
	ok := make(map[int64]bool, len(accepted))
	for _, v := range accepted {
		ok[int64(v)] = true
	}
	mask := make([]bool, len(qc))
	for i, v := range qc {
		mask[i] = ok[v]
	}
	return mask
}

// ApplyMask returns the values of x where mask is true. A nil mask
// keeps every value.
func ApplyMask(x []float64, mask []bool) ([]float64, error) {
	if mask == nil {
		return x, nil
	}
	if len(mask) != len(x) {
		return nil, fmt.Errorf("mask has length %d but data has length %d", len(mask), len(x))
	}
	o := make([]float64, 0, len(x))
	for i, keep := range mask {
		if keep {
			o = append(o, x[i])
		}
	}
	return o, nil
}

// Statistics calculates the statistics of x. RMSE is the root mean
// square of all values and is NaN if any value is NaN. MAE is the mean
// of the values that are not NaN.
func Statistics(name string, x []float64) archive.VarStats {
	s := archive.VarStats{Name: name, Count: len(x), RMSE: math.NaN(), MAE: math.NaN()}
	if len(x) == 0 {
		return s
	}
	s.RMSE = math.Sqrt(floats.Dot(x, x) / float64(len(x)))
	valid := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) > 0 {
		s.MAE = stat.Mean(valid, nil)
	}
	return s
}
