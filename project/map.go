package project

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/phil-mansfield/gomera/sim"
	"github.com/phil-mansfield/gomera/vars"
)

// Mode selects how cell contributions are aggregated into a pixel.
//
// At resolutions finer than a cell's native level Sum spreads the cell's
// value over every pixel it covers while Mean reproduces it in each, so
// the per-pixel sum >= mean ordering only holds at native or coarser
// resolution.
type Mode int

const (
	// Sum accumulates contributions, apportioned by overlap area. Use it
	// for conserved quantities like mass.
	Sum Mode = iota
	// Mean accumulates a weighted average, normalized per pixel by the
	// summed weight. The weighting quantity defaults to mass.
	Mean
	// Max keeps the largest value of any cell overlapping the pixel.
	Max
)

// String returns the name of the aggregation mode.
func (m Mode) String() string {
	switch m {
	case Sum:
		return "sum"
	case Mean:
		return "mean"
	case Max:
		return "max"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Weighting names the quantity used to weight contributions in Mean mode
// and the unit that quantity is evaluated in. The zero value means "use the
// default" (mass, where the table can resolve it); Q set to "none" disables
// weighting.
type Weighting struct {
	Q    vars.Var
	Unit string
}

// None is the Weighting which disables weighting.
var None = Weighting{Q: "none"}

// Map is the result of projecting a table onto a 2D pixel grid. Grids are
// square with Res pixels per side; Grid(v).At(iu, iv) addresses the pixel
// at index iu along the first in-plane axis and iv along the second (for a
// z-projection: u = x, v = y).
type Map struct {
	Maps  map[vars.Var]*mat.Dense
	Units map[vars.Var]string

	Mode      Mode
	Weighting Weighting
	Res       int
	Direction string

	// Extent is (umin, umax, vmin, vmax) of the projected plane in code
	// units; Cextent is the same, relative to the requested center.
	// Ratio is the u-to-v aspect ratio of the extent.
	Extent  [4]float64
	Cextent [4]float64
	Ratio   float64

	BoxLen     float64
	LMin, LMax int

	// Smallr and Smallc are the density and sound-speed floors that were
	// applied before rasterization, in the units of the respective
	// variable. Zero means no floor.
	Smallr, Smallc float64

	Snap *sim.Snapshot
}

// Grid returns the pixel grid of a projected variable, or nil if the
// variable was not part of the projection.
func (m *Map) Grid(v vars.Var) *mat.Dense { return m.Maps[v] }

// Sum returns the total over all pixels of a projected variable.
func (m *Map) Sum(v vars.Var) float64 {
	g, ok := m.Maps[v]
	if !ok {
		return 0
	}
	return mat.Sum(g)
}

// MaxPixel returns the largest pixel value of a projected variable.
func (m *Map) MaxPixel(v vars.Var) float64 {
	g, ok := m.Maps[v]
	if !ok {
		return 0
	}
	return mat.Max(g)
}
