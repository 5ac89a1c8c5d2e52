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

// Package timeseries plots statistics read from archive files.
package timeseries

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/noaa-emc/jediemc"
	"github.com/noaa-emc/jediemc/archive"
	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Figure dimensions.
const (
	Width  = 10 * vg.Inch
	Height = 8 * vg.Inch
)

// Series is one line on a plot.
type Series struct {
	// Label is the legend entry for the series.
	Label string

	// DataFile is the archive to read, and DataFormat is its format.
	DataFile   string
	DataFormat string

	// Color is a color name, a single-letter code such as "r", or a
	// hexadecimal "#rrggbb" value. If it is empty a color is chosen
	// from the default palette.
	Color string

	// VarName is the archive column to plot.
	VarName string
}

// Settings holds the settings for a whole plot.
type Settings struct {
	// OutFile is where the plot is saved. Its extension sets the image
	// format.
	OutFile string
	YLabel  string
	Title   string
}

var shortColors = map[string]string{
	"b": "blue",
	"g": "green",
	"r": "red",
	"c": "cyan",
	"m": "magenta",
	"y": "yellow",
	"k": "black",
	"w": "white",
}

// ParseColor returns the color described by s.
func ParseColor(s string) (color.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if long, ok := shortColors[name]; ok {
		name = long
	}
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		v, err := strconv.ParseUint(name[1:], 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
		}
	}
	return nil, jediemc.ConfigError{Field: "color", Value: s}
}

// Render reads each series from its archive and saves a line plot of
// them all to settings.OutFile.
func Render(series []Series, settings Settings) error {
	if settings.OutFile == "" {
		return jediemc.ConfigError{Field: "outfile"}
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = settings.Title
	p.Y.Label.Text = settings.YLabel
	p.X.Label.Text = "Cycle"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	p.Legend.Top = true

	for i, s := range series {
		format, err := archive.ParseFormat("dataformat", s.DataFormat)
		if err != nil {
			return err
		}
		c := plotutil.Color(i)
		if s.Color != "" {
			if c, err = ParseColor(s.Color); err != nil {
				return err
			}
		}
		times, vals, err := archive.ReadSeries(s.DataFile, format, s.VarName)
		if err != nil {
			return fmt.Errorf("timeseries: %s: %w", s.Label, err)
		}
		xy := make(plotter.XYs, 0, len(times))
		for j, t := range times {
			// Missing statistics are not drawn.
			if math.IsNaN(vals[j]) || math.IsInf(vals[j], 0) {
				continue
			}
			xy = append(xy, struct{ X, Y float64 }{X: float64(t.Unix()), Y: vals[j]})
		}
		l, pts, err := plotter.NewLinePoints(xy)
		if err != nil {
			return fmt.Errorf("timeseries: %s: %w", s.Label, err)
		}
		l.Color = c
		pts.Color = c
		p.Add(l, pts)
		p.Legend.Add(s.Label, l, pts)
	}
	return p.Save(Width, Height, settings.OutFile)
}
