/*package vtk exports tables and projection maps as legacy ASCII VTK files,
readable by ParaView and VisIt. Point clouds become POLYDATA datasets with
one scalar array per exported variable, and projection maps become
STRUCTURED_POINTS datasets with one scalar array per projected variable.*/
package vtk

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/phil-mansfield/gomera/cell"
	"github.com/phil-mansfield/gomera/project"
	"github.com/phil-mansfield/gomera/sim"
	"github.com/phil-mansfield/gomera/vars"
)

// WriteTable writes the (masked) rows of a table as a VTK point cloud with
// one scalar array per requested variable. Positions are written in code
// units; the variables are resolved with the given options, so they may be
// in any unit. opt may be nil.
func WriteTable(
	path string, t *cell.Table, vs []vars.Var, opt *vars.Options,
) error {
	if opt == nil {
		opt = &vars.Options{}
	}

	x, y, z, err := vars.Positions(t, "standard", opt.Center)
	if err != nil {
		return err
	}
	cols, err := vars.GetMulti(t, vs, opt)
	if err != nil {
		return err
	}
	if opt.Mask != nil {
		x = maskFloats(x, opt.Mask)
		y = maskFloats(y, opt.Mask)
		z = maskFloats(z, opt.Mask)
	}

	buf := &bytes.Buffer{}
	header(buf, fmt.Sprintf("%s table, output %d", t.Kind, t.Snap.Output))

	n := len(x)
	fmt.Fprintf(buf, "DATASET POLYDATA\nPOINTS %d double\n", n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(buf, "%.10e %.10e %.10e\n", x[i], y[i], z[i])
	}

	fmt.Fprintf(buf, "POINT_DATA %d\n", n)
	for _, v := range sortedVars(vs) {
		col := cols[v]
		if len(col) != n {
			return fmt.Errorf("%w: variable '%s' has %d values for %d "+
				"points", sim.ErrInvalidArgument, v, len(col), n)
		}
		scalars(buf, string(v), col)
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// WriteMap writes a projection map as a VTK structured-points dataset. Each
// projected variable becomes a scalar array named after the variable. The
// origin and spacing are taken from the map extent, in code units.
func WriteMap(path string, m *project.Map) error {
	if m.Res <= 0 {
		return fmt.Errorf("%w: cannot export a degenerate %d-pixel map",
			sim.ErrInvalidArgument, m.Res)
	}

	buf := &bytes.Buffer{}
	header(buf, fmt.Sprintf("%s projection, %s mode, res %d",
		m.Direction, m.Mode, m.Res))

	du := (m.Extent[1] - m.Extent[0]) / float64(m.Res)
	dv := (m.Extent[3] - m.Extent[2]) / float64(m.Res)
	fmt.Fprintf(buf, "DATASET STRUCTURED_POINTS\n")
	fmt.Fprintf(buf, "DIMENSIONS %d %d 1\n", m.Res, m.Res)
	fmt.Fprintf(buf, "ORIGIN %.10e %.10e 0\n", m.Extent[0], m.Extent[2])
	fmt.Fprintf(buf, "SPACING %.10e %.10e 1\n", du, dv)
	fmt.Fprintf(buf, "POINT_DATA %d\n", m.Res*m.Res)

	names := make([]vars.Var, 0, len(m.Maps))
	for v := range m.Maps {
		names = append(names, v)
	}
	for _, v := range sortedVars(names) {
		g := m.Maps[v]
		// VTK iterates the first dimension fastest.
		vals := make([]float64, 0, m.Res*m.Res)
		for iv := 0; iv < m.Res; iv++ {
			for iu := 0; iu < m.Res; iu++ {
				vals = append(vals, g.At(iu, iv))
			}
		}
		scalars(buf, string(v), vals)
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

func header(buf *bytes.Buffer, title string) {
	fmt.Fprintf(buf, "# vtk DataFile Version 3.0\n%s\nASCII\n", title)
}

func scalars(buf *bytes.Buffer, name string, xs []float64) {
	fmt.Fprintf(buf, "SCALARS %s double 1\nLOOKUP_TABLE default\n", name)
	for i := range xs {
		fmt.Fprintf(buf, "%.10e\n", xs[i])
	}
}

func sortedVars(vs []vars.Var) []vars.Var {
	out := append([]vars.Var{}, vs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func maskFloats(xs []float64, mask []bool) []float64 {
	out := make([]float64, 0, len(xs))
	for i := range xs {
		if mask[i] {
			out = append(out, xs[i])
		}
	}
	return out
}
