/*package region filters cell and particle tables down to a geometric
sub-volume: an axis-aligned box, a sphere, a cylinder, or a spherical or
cylindrical shell. Shapes can be described in box-relative units, code units
or any named length unit, relative to an arbitrary center, and the selection
can be inverted to keep everything outside the shape instead.

Selection always produces a fresh table; the input is never modified.*/
package region

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/gomera/cell"
	"github.com/phil-mansfield/gomera/sim"
)

// Shape is a geometric predicate understood by Subregion. The concrete
// shapes are Box, Sphere, Cylinder, SphereShell and CylinderShell.
type Shape interface {
	// check validates the user-supplied parameters.
	check() error
	// norm returns a copy of the shape in box-relative units. s is the
	// factor which converts user values to box-relative values, and
	// BoxCenter sentinels resolve to 0.5.
	norm(s float64) normShape
}

// normShape is a shape whose parameters have been converted to
// box-relative units.
type normShape interface {
	contains(x, y, z float64) bool
	bounds() [6]float64
}

// Options collects the optional arguments of Subregion and Shellregion.
type Options struct {
	// Unit is the unit of the shape's ranges, radii and center: "box"
	// (or "") for box-relative fractions, "standard" for code units, or
	// a named length unit like "kpc".
	Unit string
	// Inverse selects everything outside the shape instead.
	Inverse bool
	// CellCorners requires cells to be fully enclosed by the shape
	// instead of selecting them by their center point.
	CellCorners bool
}

// Subregion returns a new table containing the rows inside the given shape
// (or outside it, with Options.Inverse). The new table's Ranges field is
// tightened to the intersection of the parent's bounds with the shape's
// bounding box. opt may be nil.
func Subregion(t *cell.Table, s Shape, opt *Options) (*cell.Table, error) {
	if opt == nil {
		opt = &Options{}
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	scale, err := unitFactor(t, opt.Unit)
	if err != nil {
		return nil, err
	}
	ns := s.norm(scale)

	idx := []int{}
	for i := 0; i < t.Len(); i++ {
		if rowInside(t, i, ns, opt.CellCorners) != opt.Inverse {
			idx = append(idx, i)
		}
	}

	out := t.Select(idx)
	if !opt.Inverse {
		out.Ranges = intersectRanges(t.Ranges, ns.bounds())
	}
	return out, nil
}

// Shellregion is Subregion restricted to shell shapes. It exists so that
// the inner/outer radius validation cannot be bypassed by handing a plain
// sphere to a shell selection.
func Shellregion(t *cell.Table, s Shape, opt *Options) (*cell.Table, error) {
	switch s.(type) {
	case *SphereShell, *CylinderShell:
		return Subregion(t, s, opt)
	}
	return nil, fmt.Errorf("%w: shellregion needs a SphereShell or "+
		"CylinderShell, not %T", sim.ErrInvalidArgument, s)
}

func rowInside(t *cell.Table, i int, ns normShape, corners bool) bool {
	x, y, z := t.Pos(i)
	if !corners || t.Kind == cell.Parts {
		return ns.contains(x, y, z)
	}
	// Full-enclosure test: all eight cell corners must be inside.
	h := t.CellSize(i) / 2
	for dx := -1; dx <= 1; dx += 2 {
		for dy := -1; dy <= 1; dy += 2 {
			for dz := -1; dz <= 1; dz += 2 {
				cx := x + float64(dx)*h
				cy := y + float64(dy)*h
				cz := z + float64(dz)*h
				if !ns.contains(cx, cy, cz) {
					return false
				}
			}
		}
	}
	return true
}

// unitFactor returns the factor converting shape parameters in the given
// unit to box-relative units.
func unitFactor(t *cell.Table, unit string) (float64, error) {
	switch unit {
	case "", "box":
		return 1, nil
	case "standard":
		return 1 / t.Snap.BoxLen, nil
	}
	f, err := t.Snap.Scale.GetUnit(sim.Length, unit)
	if err != nil {
		return 0, err
	}
	return 1 / (f * t.Snap.BoxLen), nil
}

func intersectRanges(a, b [6]float64) [6]float64 {
	out := [6]float64{}
	for dim := 0; dim < 3; dim++ {
		out[2*dim] = math.Max(a[2*dim], b[2*dim])
		out[2*dim+1] = math.Min(a[2*dim+1], b[2*dim+1])
		if out[2*dim] > out[2*dim+1] {
			out[2*dim+1] = out[2*dim]
		}
	}
	return out
}

// scaleCenter converts a center to box-relative units, resolving BoxCenter
// sentinels on each axis independently.
func scaleCenter(c [3]float64, s float64) [3]float64 {
	out := [3]float64{}
	for i := range c {
		if math.IsInf(c[i], +1) {
			out[i] = 0.5
		} else {
			out[i] = c[i] * s
		}
	}
	return out
}

func clamp01(ranges [6]float64) [6]float64 {
	for i := range ranges {
		if ranges[i] < 0 {
			ranges[i] = 0
		}
		if ranges[i] > 1 {
			ranges[i] = 1
		}
	}
	return ranges
}
