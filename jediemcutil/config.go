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

package jediemcutil

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/noaa-emc/jediemc"
	"github.com/noaa-emc/jediemc/archive"
	"github.com/noaa-emc/jediemc/calcmean"
	"github.com/noaa-emc/jediemc/ioda"
	"github.com/noaa-emc/jediemc/timeseries"
	"github.com/spf13/cast"
)

// DefaultQCValues are the accepted quality control codes when a QC
// variable is given without a list of values.
var DefaultQCValues = []int{0}

// CalcMeanJobs returns the jobs listed under the calc_mean key of cfg.
// Each list item holds one "obs space" section.
func CalcMeanJobs(cfg *viper.Viper) ([]*calcmean.Job, error) {
	items, err := cast.ToSliceE(cfg.Get("calc_mean"))
	if err != nil || len(items) == 0 {
		return nil, jediemc.ConfigError{Field: "calc_mean"}
	}
	jobs := make([]*calcmean.Job, len(items))
	for i, item := range items {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, fmt.Errorf("jediemcutil: calc_mean item %d: %w", i, err)
		}
		sec, err := cast.ToStringMapE(m["obs space"])
		if err != nil {
			return nil, jediemc.ConfigError{Field: fmt.Sprintf("calc_mean[%d].obs space", i)}
		}
		if jobs[i], err = obsSpaceJob(sec); err != nil {
			return nil, fmt.Errorf("jediemcutil: calc_mean item %d: %w", i, err)
		}
	}
	return jobs, nil
}

func obsSpaceJob(m map[string]interface{}) (*calcmean.Job, error) {
	j := &calcmean.Job{
		Name:     cast.ToString(m["name"]),
		DataPath: expand(cast.ToString(m["datapath"])),
		OutFile:  expand(cast.ToString(m["outfile"])),
		QCVar:    cast.ToString(m["qcvar"]),
	}
	var err error
	if j.Variables, err = cast.ToStringSliceE(m["variables"]); err != nil {
		return nil, jediemc.ConfigError{Field: "variables", Value: fmt.Sprint(m["variables"])}
	}
	format := cast.ToString(m["outformat"])
	if j.OutFormat, err = archive.ParseFormat("outformat", format); err != nil {
		return nil, err
	}
	cycle, err := cast.ToStringE(m["cycle"])
	if err != nil || cycle == "" {
		return nil, jediemc.ConfigError{Field: "cycle"}
	}
	if j.Cycle, err = time.Parse(archive.TimeFormat, cycle); err != nil {
		return nil, jediemc.ConfigError{Field: "cycle", Value: cycle}
	}
	layout, err := cast.ToIntE(m["layout"])
	if err != nil {
		return nil, jediemc.ConfigError{Field: "layout", Value: fmt.Sprint(m["layout"])}
	}
	if j.Layout, err = ioda.NewLayout(layout); err != nil {
		return nil, err
	}
	if j.QCVar != "" {
		j.QCValues = DefaultQCValues
		if v, ok := m["qcvals"]; ok && v != nil {
			if j.QCValues, err = cast.ToIntSliceE(v); err != nil {
				return nil, jediemc.ConfigError{Field: "qcvals", Value: fmt.Sprint(v)}
			}
		}
	}
	return j, j.Validate()
}

// TimeseriesConfig returns the series listed under the plot_timeseries
// key of cfg and the settings under the plot_settings key.
func TimeseriesConfig(cfg *viper.Viper) ([]timeseries.Series, timeseries.Settings, error) {
	var settings timeseries.Settings
	items, err := cast.ToSliceE(cfg.Get("plot_timeseries"))
	if err != nil || len(items) == 0 {
		return nil, settings, jediemc.ConfigError{Field: "plot_timeseries"}
	}
	series := make([]timeseries.Series, len(items))
	for i, item := range items {
		m, err := cast.ToStringMapStringE(item)
		if err != nil {
			return nil, settings, fmt.Errorf("jediemcutil: plot_timeseries item %d: %w", i, err)
		}
		series[i] = timeseries.Series{
			Label:      m["label"],
			DataFile:   expand(m["datafile"]),
			DataFormat: m["dataformat"],
			Color:      m["color"],
			VarName:    m["varname"],
		}
		if series[i].VarName == "" {
			return nil, settings, jediemc.ConfigError{Field: fmt.Sprintf("plot_timeseries[%d].varname", i)}
		}
	}
	s := cfg.GetStringMapString("plot_settings")
	settings = timeseries.Settings{
		OutFile: expand(s["outfile"]),
		YLabel:  s["ylabel"],
		Title:   s["title"],
	}
	return series, settings, nil
}

// expand replaces environment variables in a path.
func expand(s string) string {
	return os.ExpandEnv(strings.TrimSpace(s))
}
