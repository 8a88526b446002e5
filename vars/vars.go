/*package vars resolves named physical quantities on a cell or particle
table: raw stored fields like "rho" and "vx", and derived quantities like
sound speed, cell mass or physical positions. Values are returned as fresh
arrays in a requested unit, optionally restricted by a boolean mask.

The set of recognized identifiers is a closed enumeration per table kind, so
a misspelled name is an explicit ErrUnknownIdentifier instead of a silent
no-op.*/
package vars

import (
	"fmt"
	"math"
	"sort"

	"github.com/phil-mansfield/gomera/cell"
	"github.com/phil-mansfield/gomera/sim"
)

// Var identifies a variable which Get can resolve.
type Var string

const (
	Rho Var = "rho"
	VX  Var = "vx"
	VY  Var = "vy"
	VZ  Var = "vz"
	P   Var = "p"

	AX   Var = "ax"
	AY   Var = "ay"
	AZ   Var = "az"
	EPot Var = "epot"

	Age Var = "age"
	ID  Var = "id"

	// Derived quantities.
	V        Var = "v"
	CS       Var = "cs"
	Mass     Var = "mass"
	Volume   Var = "volume"
	CellSize Var = "cellsize"
	Level    Var = "level"
	X        Var = "x"
	Y        Var = "y"
	Z        Var = "z"
)

// BoxCenter is a sentinel coordinate: any center axis set to BoxCenter
// resolves to the middle of the box.
var BoxCenter = math.Inf(+1)

// Options collects the optional arguments of Get.
type Options struct {
	// Unit is the target unit. "" and "standard" leave values in code
	// units.
	Unit string
	// Mask restricts the output to rows where it is true. It must be nil
	// or have one element per table row.
	Mask []bool
	// Center shifts the derived position variables "x", "y" and "z".
	// It is given in box-relative units; any axis may be BoxCenter.
	// A nil Center means absolute box coordinates.
	Center []float64
}

// varSpec says how one variable resolves on one table kind.
type varSpec struct {
	q   sim.Quantity
	raw bool // stored column rather than derived
}

var hydroVars = map[Var]varSpec{
	Rho: {sim.Density, true},
	VX:  {sim.Velocity, true}, VY: {sim.Velocity, true},
	VZ: {sim.Velocity, true},
	P:  {sim.Pressure, true},
	V:  {sim.Velocity, false}, CS: {sim.Velocity, false},
	Mass: {sim.Mass, false}, Volume: {sim.Volume, false},
	CellSize: {sim.Length, false}, Level: {sim.Dimensionless, false},
	X: {sim.Length, false}, Y: {sim.Length, false}, Z: {sim.Length, false},
}

var gravVars = map[Var]varSpec{
	AX: {sim.Acceleration, true}, AY: {sim.Acceleration, true},
	AZ:   {sim.Acceleration, true},
	EPot: {sim.SpecificEnergy, true},
	Volume: {sim.Volume, false}, CellSize: {sim.Length, false},
	Level: {sim.Dimensionless, false},
	X:     {sim.Length, false}, Y: {sim.Length, false},
	Z: {sim.Length, false},
}

var partVars = map[Var]varSpec{
	VX: {sim.Velocity, true}, VY: {sim.Velocity, true},
	VZ:   {sim.Velocity, true},
	Mass: {sim.Mass, true},
	Age:  {sim.Time, true}, ID: {sim.Dimensionless, true},
	V:     {sim.Velocity, false},
	Level: {sim.Dimensionless, false},
	X:     {sim.Length, false}, Y: {sim.Length, false},
	Z: {sim.Length, false},
}

func kindVars(kind cell.Kind) map[Var]varSpec {
	switch kind {
	case cell.Hydro:
		return hydroVars
	case cell.Grav:
		return gravVars
	case cell.Parts:
		return partVars
	}
	return nil
}

// Known returns the sorted list of variable identifiers recognized for the
// given table kind. Calling a resolver entry point with no variables is not
// a computation: this list is the discovery mode.
func Known(kind cell.Kind) []Var {
	specs := kindVars(kind)
	out := make([]Var, 0, len(specs))
	for v := range specs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// QuantityOf returns the physical dimension of a variable on the given
// table kind.
func QuantityOf(kind cell.Kind, v Var) (sim.Quantity, error) {
	spec, ok := kindVars(kind)[v]
	if !ok {
		return sim.Dimensionless, fmt.Errorf(
			"%w: '%s' is not a recognized %s variable (known: %v)",
			sim.ErrUnknownIdentifier, v, kind, Known(kind))
	}
	return spec.q, nil
}

// Get resolves a single variable on the table. The returned array has one
// element per (masked) row and is owned by the caller. opt may be nil.
func Get(t *cell.Table, v Var, opt *Options) ([]float64, error) {
	if opt == nil {
		opt = &Options{}
	}
	if err := t.CheckMask(opt.Mask); err != nil {
		return nil, err
	}

	spec, ok := kindVars(t.Kind)[v]
	if !ok {
		return nil, fmt.Errorf(
			"%w: '%s' is not a recognized %s variable (known: %v)",
			sim.ErrUnknownIdentifier, v, t.Kind, Known(t.Kind))
	}

	factor, err := t.Snap.Scale.GetUnit(spec.q, opt.Unit)
	if err != nil {
		return nil, err
	}

	var xs []float64
	if spec.raw {
		col, ok := t.Col(string(v))
		if !ok {
			return nil, fmt.Errorf("%w: the table does not store a "+
				"'%s' column", sim.ErrUnknownIdentifier, v)
		}
		xs = append([]float64{}, col...)
	} else {
		xs, err = derive(t, v, opt)
		if err != nil {
			return nil, err
		}
	}

	if factor != 1 {
		for i := range xs {
			xs[i] *= factor
		}
	}
	if opt.Mask != nil {
		return applyMask(xs, opt.Mask), nil
	}
	return xs, nil
}

// GetMulti resolves several variables at once. All share the same options.
// The result maps each requested variable to its array; resolution order
// has no effect on the values.
func GetMulti(t *cell.Table, vs []Var, opt *Options) (map[Var][]float64, error) {
	out := make(map[Var][]float64, len(vs))
	for _, v := range vs {
		xs, err := Get(t, v, opt)
		if err != nil {
			return nil, err
		}
		out[v] = xs
	}
	return out, nil
}

// Positions resolves the physical positions of every row relative to the
// given center, in the given length unit. It is shorthand for GetMulti over
// x, y and z.
func Positions(
	t *cell.Table, unit string, center []float64,
) (x, y, z []float64, err error) {
	opt := &Options{Unit: unit, Center: center}
	m, err := GetMulti(t, []Var{X, Y, Z}, opt)
	if err != nil {
		return nil, nil, nil, err
	}
	return m[X], m[Y], m[Z], nil
}

func derive(t *cell.Table, v Var, opt *Options) ([]float64, error) {
	n := t.Len()
	xs := make([]float64, n)

	switch v {
	case V:
		vx, vy, vz, err := velocityCols(t)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			xs[i] = math.Sqrt(vx[i]*vx[i] + vy[i]*vy[i] + vz[i]*vz[i])
		}
	case CS:
		rho, okRho := t.Col("rho")
		p, okP := t.Col("p")
		if !okRho || !okP {
			return nil, fmt.Errorf("%w: sound speed needs 'rho' and "+
				"'p' columns", sim.ErrUnknownIdentifier)
		}
		gamma := t.Snap.Gamma
		for i := 0; i < n; i++ {
			xs[i] = math.Sqrt(gamma * p[i] / rho[i])
		}
	case Mass:
		rho, ok := t.Col("rho")
		if !ok {
			return nil, fmt.Errorf("%w: cell mass needs a 'rho' column",
				sim.ErrUnknownIdentifier)
		}
		boxlen := t.Snap.BoxLen
		for i := 0; i < n; i++ {
			cs := t.CellSize(i) * boxlen
			xs[i] = rho[i] * cs * cs * cs
		}
	case Volume:
		boxlen := t.Snap.BoxLen
		for i := 0; i < n; i++ {
			cs := t.CellSize(i) * boxlen
			xs[i] = cs * cs * cs
		}
	case CellSize:
		boxlen := t.Snap.BoxLen
		for i := 0; i < n; i++ {
			xs[i] = t.CellSize(i) * boxlen
		}
	case Level:
		for i := 0; i < n; i++ {
			xs[i] = float64(t.LevelAt(i))
		}
	case X, Y, Z:
		c, err := ResolveCenter(opt.Center)
		if err != nil {
			return nil, err
		}
		dim := map[Var]int{X: 0, Y: 1, Z: 2}[v]
		boxlen := t.Snap.BoxLen
		for i := 0; i < n; i++ {
			px, py, pz := t.Pos(i)
			p := [3]float64{px, py, pz}
			xs[i] = (p[dim] - c[dim]) * boxlen
		}
	default:
		return nil, fmt.Errorf("%w: '%s' is not a derived variable",
			sim.ErrUnknownIdentifier, v)
	}
	return xs, nil
}

func velocityCols(t *cell.Table) (vx, vy, vz []float64, err error) {
	vx, okX := t.Col("vx")
	vy, okY := t.Col("vy")
	vz, okZ := t.Col("vz")
	if !okX || !okY || !okZ {
		return nil, nil, nil, fmt.Errorf("%w: velocity magnitude needs "+
			"'vx', 'vy' and 'vz' columns", sim.ErrUnknownIdentifier)
	}
	return vx, vy, vz, nil
}

// ResolveCenter converts the user-facing center argument to absolute
// box-relative coordinates. nil means the box origin, and BoxCenter
// components mean the middle of the box.
func ResolveCenter(center []float64) ([3]float64, error) {
	if center == nil {
		return [3]float64{0, 0, 0}, nil
	}
	if len(center) != 3 {
		return [3]float64{}, fmt.Errorf("%w: center has %d components, "+
			"but must have 3", sim.ErrInvalidArgument, len(center))
	}
	c := [3]float64{}
	for i := range c {
		if math.IsInf(center[i], +1) {
			c[i] = 0.5
		} else {
			c[i] = center[i]
		}
	}
	return c, nil
}

func applyMask(xs []float64, mask []bool) []float64 {
	out := make([]float64, 0, len(xs))
	for i := range xs {
		if mask[i] {
			out = append(out, xs[i])
		}
	}
	return out
}
