package main

import (
	"fmt"
	"sort"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/gomera/project"
	"github.com/phil-mansfield/gomera/vars"
)

// quicklook plots profiles through the map center along both in-plane axes,
// one curve pair per projected variable, and saves the figure through
// matplotlib.
func quicklook(m *project.Map, fname string) {
	names := make([]vars.Var, 0, len(m.Maps))
	for v := range m.Maps {
		names = append(names, v)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	us := make([]float64, m.Res)
	du := (m.Extent[1] - m.Extent[0]) / float64(m.Res)
	for i := range us {
		us[i] = m.Extent[0] + du*(float64(i)+0.5)
	}

	plt.Reset()
	plt.Figure(plt.FigSize(8, 8))

	mid := m.Res / 2
	for _, v := range names {
		g := m.Maps[v]
		row := make([]float64, m.Res)
		col := make([]float64, m.Res)
		for i := 0; i < m.Res; i++ {
			row[i] = g.At(i, mid)
			col[i] = g.At(mid, i)
		}
		plt.Plot(us, row, plt.LW(2))
		plt.Plot(us, col, "--", plt.LW(2))
	}

	plt.Title(fmt.Sprintf("%s projection, %s mode", m.Direction, m.Mode))
	plt.XLabel("position [code units]", plt.FontSize(16))
	plt.YLabel("pixel value", plt.FontSize(16))
	plt.YScale("log")
	plt.Grid(plt.Axis("y"))

	plt.SaveFig(fname)
	plt.Execute()
}
