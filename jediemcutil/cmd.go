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

// Package jediemcutil holds the command-line interface to jediemc.
package jediemcutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/noaa-emc/jediemc"
	"github.com/noaa-emc/jediemc/calcmean"
	"github.com/noaa-emc/jediemc/timeseries"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "yaml",
			usage: `
              yaml specifies the location of the YAML configuration file.`,
			shorthand:  "y",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{calcMeanCmd.Flags(), plotTimeseriesCmd.Flags()},
		},
	}

	Cfg = viper.New()
	Cfg.SetEnvPrefix("JEDIEMC")
	Cfg.AutomaticEnv()
	// The log level is read only from JEDIEMC_LOGLEVEL.
	Cfg.SetDefault("loglevel", "info")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // The flag is shared between sets.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch def := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, def, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, def, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	calcMeanCmd.MarkFlagRequired("yaml")
	plotTimeseriesCmd.MarkFlagRequired("yaml")

	Root.AddCommand(versionCmd)
	Root.AddCommand(calcMeanCmd)
	Root.AddCommand(plotTimeseriesCmd)
}

// setConfig reads in the configuration file and sets up logging.
func setConfig(cmd *cobra.Command) error {
	logrus.SetOutput(cmd.OutOrStderr())
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(Cfg.GetString("loglevel"))
	if err != nil {
		return fmt.Errorf("jediemc: %w", err)
	}
	logrus.SetLevel(level)

	if cmd.Flags().Lookup("yaml") == nil {
		return nil
	}
	if cfgpath := expand(Cfg.GetString("yaml")); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		Cfg.SetConfigType("yaml")
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("jediemc: problem reading configuration file: %w", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "jediemc",
	Short: "Tools for JEDI observation and model-state files.",
	Long: `jediemc reads observation files and FV3 restart files, calculates
summary statistics of observations and plots archived statistics over time.

Each subcommand is configured by a YAML file given with the --yaml flag.
Options can also be set with environment variables in the format 'JEDIEMC_var',
where 'var' is the name of the option. The minimum level of log messages to
print (debug, info, warning or error) is set with JEDIEMC_LOGLEVEL. Paths in the
configuration file may contain environment variables.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return setConfig(cmd) },
}

// ExecuteSub runs the named subcommand of Root with the given arguments.
// It lets single-purpose programs share Root's configuration handling.
func ExecuteSub(name string, args []string) error {
	Root.SetArgs(append([]string{name}, args...))
	return Root.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of jediemc.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("jediemc v%s\n", jediemc.Version)
	},
	DisableAutoGenTag: true,
}

var calcMeanCmd = &cobra.Command{
	Use:   "calc_mean",
	Short: "Calculate and archive observation statistics.",
	Long: `calc_mean calculates the RMSE, mean and count of observation variables
for each obs space listed under the 'calc_mean' key of the configuration file
and appends them to a CSV or netCDF archive file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := CalcMeanJobs(Cfg)
		if err != nil {
			return err
		}
		return calcmean.NewAggregator().RunAll(jobs)
	},
	DisableAutoGenTag: true,
}

var plotTimeseriesCmd = &cobra.Command{
	Use:   "plot_timeseries",
	Short: "Plot archived statistics over time.",
	Long: `plot_timeseries reads the series listed under the 'plot_timeseries' key
of the configuration file from archive files and saves a line plot of them
using the 'plot_settings' key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		series, settings, err := TimeseriesConfig(Cfg)
		if err != nil {
			return err
		}
		if err := timeseries.Render(series, settings); err != nil {
			return err
		}
		logrus.WithField("outfile", settings.OutFile).Info("saved plot")
		return nil
	},
	DisableAutoGenTag: true,
}
