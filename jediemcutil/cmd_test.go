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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ctessum/cdf"
	"github.com/lnashier/viper"
	"github.com/noaa-emc/jediemc"
	"github.com/noaa-emc/jediemc/archive"
	"github.com/noaa-emc/jediemc/calcmean"
	"github.com/noaa-emc/jediemc/ioda"
	"github.com/noaa-emc/jediemc/timeseries"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func readConfig(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	cfg := viper.New()
	cfg.SetConfigType("yaml")
	if err := cfg.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestCalcMeanJobs(t *testing.T) {
	os.Setenv("JEDIEMC_TEST_DIR", "/data/run")
	defer os.Unsetenv("JEDIEMC_TEST_DIR")
	cfg := readConfig(t, `
calc_mean:
  - obs space:
      name: sondes
      datapath: ${JEDIEMC_TEST_DIR}/sondes_obs_2024010100_
      variables: [air_temperature@ObsValue, eastward_wind@ObsValue]
      outfile: ${JEDIEMC_TEST_DIR}/sondes_mean.csv
      outformat: csv
      cycle: 2024010100
      qcvar: air_temperature@EffectiveQC
      qcvals: [0, 2]
  - obs space:
      name: amsua
      datapath: /data/amsua.nc4
      variables: [brightness_temperature]
      outfile: /data/amsua_mean.nc
      outformat: netcdf
      cycle: "2024010106"
      layout: 1
      qcvar: brightness_temperature@EffectiveQC
  - obs space:
      name: aircraft
      datapath: /data/aircraft_
      variables: [air_temperature@ObsValue]
      outfile: /data/aircraft.csv
      outformat: csv
      cycle: 2024010112
`)
	jobs, err := CalcMeanJobs(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := []*calcmean.Job{
		{
			Name:      "sondes",
			DataPath:  "/data/run/sondes_obs_2024010100_",
			Variables: []string{"air_temperature@ObsValue", "eastward_wind@ObsValue"},
			OutFile:   "/data/run/sondes_mean.csv",
			OutFormat: archive.CSV,
			Cycle:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Layout:    ioda.Classic,
			QCVar:     "air_temperature@EffectiveQC",
			QCValues:  []int{0, 2},
		},
		{
			Name:      "amsua",
			DataPath:  "/data/amsua.nc4",
			Variables: []string{"brightness_temperature"},
			OutFile:   "/data/amsua_mean.nc",
			OutFormat: archive.NetCDF,
			Cycle:     time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC),
			Layout:    ioda.EnginesNative,
			QCVar:     "brightness_temperature@EffectiveQC",
			QCValues:  []int{0},
		},
		{
			Name:      "aircraft",
			DataPath:  "/data/aircraft_",
			Variables: []string{"air_temperature@ObsValue"},
			OutFile:   "/data/aircraft.csv",
			OutFormat: archive.CSV,
			Cycle:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	if len(jobs) != len(want) {
		t.Fatalf("have %d jobs, want %d", len(jobs), len(want))
	}
	if !reflect.DeepEqual(jobs, want) {
		for i := range jobs {
			t.Errorf("job %d: have %+v, want %+v", i, jobs[i], want[i])
		}
	}
}

func TestCalcMeanJobs_errors(t *testing.T) {
	const base = `
calc_mean:
  - obs space:
      name: sondes
      datapath: /data/sondes_
      variables: [air_temperature@ObsValue]
      outfile: /data/sondes.csv
`
	for _, test := range []struct {
		name, yaml string
		want       error
	}{
		{
			name: "outformat",
			yaml: base + "      outformat: xlsx\n      cycle: 2024010100\n",
			want: jediemc.ConfigError{Field: "outformat", Value: "xlsx"},
		},
		{
			name: "cycle",
			yaml: base + "      outformat: csv\n      cycle: 20240101\n",
			want: jediemc.ConfigError{Field: "cycle", Value: "20240101"},
		},
		{
			name: "missing cycle",
			yaml: base + "      outformat: csv\n",
			want: jediemc.ConfigError{Field: "cycle"},
		},
		{
			name: "layout",
			yaml: base + "      outformat: csv\n      cycle: 2024010100\n      layout: 2\n",
			want: jediemc.ConfigError{Field: "layout", Value: "2"},
		},
		{
			name: "no jobs",
			yaml: "plot_settings:\n  title: x\n",
			want: jediemc.ConfigError{Field: "calc_mean"},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := CalcMeanJobs(readConfig(t, test.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			var have jediemc.ConfigError
			if !errors.As(err, &have) || !reflect.DeepEqual(have, test.want) {
				t.Errorf("have %v, want %v", err, test.want)
			}
		})
	}
}

func TestTimeseriesConfig(t *testing.T) {
	os.Setenv("JEDIEMC_TEST_DIR", "/data/run")
	defer os.Unsetenv("JEDIEMC_TEST_DIR")
	cfg := readConfig(t, `
plot_timeseries:
  - label: control
    datafile: ${JEDIEMC_TEST_DIR}/control.csv
    dataformat: csv
    color: r
    varname: air_temperature@ObsValue_RMSE
  - label: experiment
    datafile: /data/exp.nc
    dataformat: netcdf
    color: "#1f77b4"
    varname: air_temperature@ObsValue_RMSE
plot_settings:
  outfile: ${JEDIEMC_TEST_DIR}/rmse.png
  ylabel: RMSE (K)
  title: Sondes
`)
	series, settings, err := TimeseriesConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	wantSeries := []timeseries.Series{
		{Label: "control", DataFile: "/data/run/control.csv", DataFormat: "csv", Color: "r", VarName: "air_temperature@ObsValue_RMSE"},
		{Label: "experiment", DataFile: "/data/exp.nc", DataFormat: "netcdf", Color: "#1f77b4", VarName: "air_temperature@ObsValue_RMSE"},
	}
	if !reflect.DeepEqual(series, wantSeries) {
		t.Errorf("have %+v, want %+v", series, wantSeries)
	}
	wantSettings := timeseries.Settings{OutFile: "/data/run/rmse.png", YLabel: "RMSE (K)", Title: "Sondes"}
	if settings != wantSettings {
		t.Errorf("have %+v, want %+v", settings, wantSettings)
	}

	_, _, err = TimeseriesConfig(readConfig(t, "plot_timeseries:\n  - label: x\n"))
	if err == nil {
		t.Error("expected an error for a series without a varname")
	}
}

// writeObs writes a classic-layout observation file with one variable.
func writeObs(t *testing.T, path string, temp []float32) {
	t.Helper()
	n := len(temp)
	h := cdf.NewHeader([]string{"nlocs"}, []int{n})
	for _, v := range []string{"latitude@MetaData", "longitude@MetaData", "air_temperature@ObsValue"} {
		h.AddVariable(v, []string{"nlocs"}, []float32{0})
	}
	h.Define()
	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []string{"latitude@MetaData", "longitude@MetaData"} {
		if _, err := f.Writer(v, []int{0}, []int{n}).Write(make([]float32, n)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.Writer("air_temperature@ObsValue", []int{0}, []int{n}).Write(temp); err != nil {
		t.Fatal(err)
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("JEDIEMC_TEST_DIR", dir)
	defer os.Unsetenv("JEDIEMC_TEST_DIR")
	writeObs(t, filepath.Join(dir, "sondes_obs_2024010100_0000.nc4"), []float32{1, 2, 3})
	writeObs(t, filepath.Join(dir, "sondes_obs_2024010100_0001.nc4"), []float32{6})

	for _, cycle := range []string{"2024010100", "2024010106"} {
		cfgFile := filepath.Join(dir, "calc_mean_"+cycle+".yaml")
		writeFile(t, cfgFile, `
calc_mean:
  - obs space:
      name: sondes
      datapath: ${JEDIEMC_TEST_DIR}/sondes_obs_2024010100_
      variables: [air_temperature@ObsValue]
      outfile: ${JEDIEMC_TEST_DIR}/sondes_mean.csv
      outformat: csv
      cycle: `+cycle+"\n")
		if err := ExecuteSub("calc_mean", []string{"-y", cfgFile}); err != nil {
			t.Fatal(err)
		}
	}
	b, err := os.ReadFile(filepath.Join(dir, "sondes_mean.csv"))
	if err != nil {
		t.Fatal(err)
	}
	times, mae, err := archive.ReadCSV(filepath.Join(dir, "sondes_mean.csv"), "air_temperature@ObsValue_MAE")
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != 2 || !reflect.DeepEqual(mae, []float64{3, 3}) {
		t.Errorf("wrong archive contents:\n%s", b)
	}
	if !strings.HasPrefix(string(b), "cycle,air_temperature@ObsValue_RMSE,") {
		t.Errorf("wrong archive header:\n%s", b)
	}

	plotCfg := filepath.Join(dir, "plot.yaml")
	writeFile(t, plotCfg, `
plot_timeseries:
  - label: sondes
    datafile: ${JEDIEMC_TEST_DIR}/sondes_mean.csv
    dataformat: csv
    color: k
    varname: air_temperature@ObsValue_MAE
plot_settings:
  outfile: ${JEDIEMC_TEST_DIR}/mae.png
  ylabel: MAE (K)
  title: Sondes
`)
	if err := ExecuteSub("plot_timeseries", []string{"--yaml", plotCfg}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "mae.png")); err != nil {
		t.Error(err)
	}
}

func TestVersion(t *testing.T) {
	buf := new(bytes.Buffer)
	Root.SetOutput(buf)
	defer Root.SetOutput(nil)
	if err := ExecuteSub("version", nil); err != nil {
		t.Fatal(err)
	}
	if have, want := buf.String(), "jediemc v"+jediemc.Version+"\n"; have != want {
		t.Errorf("have %q, want %q", have, want)
	}
}

func TestFlags(t *testing.T) {
	for _, cmd := range []*cobra.Command{calcMeanCmd, plotTimeseriesCmd} {
		var names []string
		visit := func(f *pflag.Flag) {
			if f.Name != "help" {
				names = append(names, f.Name)
			}
		}
		cmd.LocalFlags().VisitAll(visit)
		cmd.InheritedFlags().VisitAll(visit)
		if want := []string{"yaml"}; !reflect.DeepEqual(names, want) {
			t.Errorf("%s: have flags %v, want %v", cmd.Name(), names, want)
		}
		if f := cmd.Flags().Lookup("yaml"); f == nil || f.Shorthand != "y" {
			t.Errorf("%s: missing -y shorthand", cmd.Name())
		}
	}
	if err := ExecuteSub("calc_mean", []string{"--loglevel", "debug", "-y", "x.yaml"}); err == nil {
		t.Error("expected an error for an unknown flag")
	}
}

func TestLogLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	os.Setenv("JEDIEMC_LOGLEVEL", "debug")
	err := setConfig(versionCmd)
	os.Unsetenv("JEDIEMC_LOGLEVEL")
	if err != nil {
		t.Fatal(err)
	}
	if have := logrus.GetLevel(); have != logrus.DebugLevel {
		t.Errorf("have level %s, want debug", have)
	}

	if err := setConfig(versionCmd); err != nil {
		t.Fatal(err)
	}
	if have := logrus.GetLevel(); have != logrus.InfoLevel {
		t.Errorf("have default level %s, want info", have)
	}

	os.Setenv("JEDIEMC_LOGLEVEL", "loud")
	defer os.Unsetenv("JEDIEMC_LOGLEVEL")
	if err := setConfig(versionCmd); err == nil {
		t.Error("expected an error for an invalid log level")
	}
}
