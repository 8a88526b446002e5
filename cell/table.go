/*package cell contains the column-oriented tables which every analysis
routine in gomera consumes: AMR leaf cells for hydro and gravity data and
continuous positions for particle data.

Tables are value-semantic: once a Table has been returned to a caller it is
never mutated. Filtering operations (region selection, masking) build a fresh
Table which shares the read-only Snapshot pointer but owns its own columns.*/
package cell

import (
	"fmt"
	"math"
	"sort"

	"github.com/phil-mansfield/gomera/sim"
)

// Kind tags the data kind stored in a Table. The variable resolver and the
// projection engine dispatch on it.
type Kind int

const (
	Hydro Kind = iota
	Parts
	Grav
)

// String returns the name of the data kind.
func (k Kind) String() string {
	switch k {
	case Hydro:
		return "hydro"
	case Parts:
		return "particles"
	case Grav:
		return "gravity"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Table is an immutable collection of AMR cells or particles.
//
// Cell kinds (Hydro, Grav) store an AMR level and integer grid coordinates
// per row. RAMSES numbers grid coordinates from 1 to 2^level along each
// axis, so the cell center in box-relative units is (c - 0.5) / 2^level.
// Particle kinds store continuous box-relative positions instead.
//
// Physical field values are kept in code units in named columns.
type Table struct {
	Kind Kind
	Snap *sim.Snapshot

	// LMin and LMax are the active level bounds, a sub-range of the
	// snapshot's level range.
	LMin, LMax int
	// Ranges is the spatial selection bounding box in box-relative units:
	// xmin, xmax, ymin, ymax, zmin, zmax, each in [0, 1].
	Ranges [6]float64

	// Level and CX, CY, CZ are set for cell kinds and nil for particles.
	Level      []int32
	CX, CY, CZ []int32

	// X, Y, Z are box-relative particle positions, nil for cell kinds.
	X, Y, Z []float64

	cols  map[string][]float64
	names []string
}

// FullBox is the Ranges value selecting the entire box.
var FullBox = [6]float64{0, 1, 0, 1, 0, 1}

// NewHydro creates a hydro cell table from per-row levels, integer grid
// coordinates and named field columns in code units. The table takes
// ownership of all passed slices.
func NewHydro(
	snap *sim.Snapshot, level, cx, cy, cz []int32,
	cols map[string][]float64,
) (*Table, error) {
	if !snap.Hydro {
		return nil, fmt.Errorf("%w: snapshot %d contains no hydro data",
			sim.ErrDomainMissing, snap.Output)
	}
	return newCellTable(Hydro, snap, level, cx, cy, cz, cols)
}

// NewGrav creates a gravity cell table. See NewHydro.
func NewGrav(
	snap *sim.Snapshot, level, cx, cy, cz []int32,
	cols map[string][]float64,
) (*Table, error) {
	if !snap.Grav {
		return nil, fmt.Errorf("%w: snapshot %d contains no gravity data",
			sim.ErrDomainMissing, snap.Output)
	}
	return newCellTable(Grav, snap, level, cx, cy, cz, cols)
}

// NewParts creates a particle table from box-relative positions and named
// field columns in code units. The table takes ownership of all passed
// slices.
func NewParts(
	snap *sim.Snapshot, x, y, z []float64, cols map[string][]float64,
) (*Table, error) {
	if !snap.Parts {
		return nil, fmt.Errorf(
			"%w: snapshot %d contains no particle data",
			sim.ErrDomainMissing, snap.Output)
	}

	t := &Table{
		Kind: Parts, Snap: snap,
		LMin: snap.LevelMin, LMax: snap.LevelMax,
		Ranges: FullBox,
		X:      x, Y: y, Z: z,
		cols: cols,
	}
	t.initNames()

	if len(y) != len(x) || len(z) != len(x) {
		return nil, fmt.Errorf("%w: position columns have lengths "+
			"(%d, %d, %d)", sim.ErrInvalidArgument,
			len(x), len(y), len(z))
	}
	if err := t.checkColumns(len(x)); err != nil {
		return nil, err
	}
	return t, t.Validate()
}

func newCellTable(
	kind Kind, snap *sim.Snapshot, level, cx, cy, cz []int32,
	cols map[string][]float64,
) (*Table, error) {
	t := &Table{
		Kind: kind, Snap: snap,
		LMin: snap.LevelMin, LMax: snap.LevelMax,
		Ranges: FullBox,
		Level:  level, CX: cx, CY: cy, CZ: cz,
		cols: cols,
	}
	t.initNames()

	n := len(level)
	if len(cx) != n || len(cy) != n || len(cz) != n {
		return nil, fmt.Errorf("%w: level column has length %d, but "+
			"coordinate columns have lengths (%d, %d, %d)",
			sim.ErrInvalidArgument, n, len(cx), len(cy), len(cz))
	}
	if err := t.checkColumns(n); err != nil {
		return nil, err
	}
	return t, t.Validate()
}

func (t *Table) initNames() {
	t.names = make([]string, 0, len(t.cols))
	for name := range t.cols {
		t.names = append(t.names, name)
	}
	sort.Strings(t.names)
}

func (t *Table) checkColumns(n int) error {
	for _, name := range t.names {
		if len(t.cols[name]) != n {
			return fmt.Errorf("%w: column '%s' has length %d, but "+
				"the table has %d rows", sim.ErrInvalidArgument,
				name, len(t.cols[name]), n)
		}
	}
	return nil
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	if t.Kind == Parts {
		return len(t.X)
	}
	return len(t.Level)
}

// Names returns the sorted names of the stored field columns.
func (t *Table) Names() []string { return t.names }

// Col returns the named field column in code units, or false if the table
// does not store it. The returned slice must not be modified.
func (t *Table) Col(name string) ([]float64, bool) {
	xs, ok := t.cols[name]
	return xs, ok
}

// LevelAt returns the AMR level of row i. Particles report the finest level
// of the snapshot, since they are not bound to the mesh.
func (t *Table) LevelAt(i int) int {
	if t.Kind == Parts {
		return t.LMax
	}
	return int(t.Level[i])
}

// Pos returns the box-relative position of row i: the cell center for cell
// kinds, the particle position for particle kinds.
func (t *Table) Pos(i int) (x, y, z float64) {
	if t.Kind == Parts {
		return t.X[i], t.Y[i], t.Z[i]
	}
	inv := 1 / float64(int64(1)<<uint(t.Level[i]))
	x = (float64(t.CX[i]) - 0.5) * inv
	y = (float64(t.CY[i]) - 0.5) * inv
	z = (float64(t.CZ[i]) - 0.5) * inv
	return x, y, z
}

// CellSize returns the box-relative width of the cell at row i. Particles
// have zero extent.
func (t *Table) CellSize(i int) float64 {
	if t.Kind == Parts {
		return 0
	}
	return 1 / float64(int64(1)<<uint(t.Level[i]))
}

// CheckMask returns an error unless mask is nil or has exactly one element
// per table row.
func (t *Table) CheckMask(mask []bool) error {
	if mask != nil && len(mask) != t.Len() {
		return fmt.Errorf("%w: mask has length %d, but the table has "+
			"%d rows", sim.ErrInvalidArgument, len(mask), t.Len())
	}
	return nil
}

// Select returns a new Table containing the rows at the given indices, in
// order. The new table shares the Snapshot pointer but owns fresh columns.
// Level bounds and Ranges are inherited from the parent; region selection
// tightens Ranges afterwards.
func (t *Table) Select(idx []int) *Table {
	out := &Table{
		Kind: t.Kind, Snap: t.Snap,
		LMin: t.LMin, LMax: t.LMax,
		Ranges: t.Ranges,
		cols:   make(map[string][]float64, len(t.cols)),
	}

	if t.Kind == Parts {
		out.X = selectFloat64(t.X, idx)
		out.Y = selectFloat64(t.Y, idx)
		out.Z = selectFloat64(t.Z, idx)
	} else {
		out.Level = selectInt32(t.Level, idx)
		out.CX = selectInt32(t.CX, idx)
		out.CY = selectInt32(t.CY, idx)
		out.CZ = selectInt32(t.CZ, idx)
	}
	for _, name := range t.names {
		out.cols[name] = selectFloat64(t.cols[name], idx)
	}
	out.initNames()
	return out
}

// SelectMask returns a new Table containing the rows where mask is true.
func (t *Table) SelectMask(mask []bool) (*Table, error) {
	if err := t.CheckMask(mask); err != nil {
		return nil, err
	}
	idx := []int{}
	for i := range mask {
		if mask[i] {
			idx = append(idx, i)
		}
	}
	return t.Select(idx), nil
}

func selectFloat64(xs []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for j, i := range idx {
		out[j] = xs[i]
	}
	return out
}

func selectInt32(xs []int32, idx []int) []int32 {
	out := make([]int32, len(idx))
	for j, i := range idx {
		out[j] = xs[i]
	}
	return out
}

// Validate checks the table invariants: levels within the active bounds,
// positions inside Ranges, strictly positive density and mass columns, and
// no NaN or Inf values anywhere.
func (t *Table) Validate() error {
	const eps = 1e-12

	if t.LMin > t.LMax {
		return fmt.Errorf("%w: table has lmin = %d, lmax = %d",
			sim.ErrLevelOutOfRange, t.LMin, t.LMax)
	}
	if t.LMin < t.Snap.LevelMin || t.LMax > t.Snap.LevelMax {
		return fmt.Errorf("%w: table levels [%d, %d] are outside the "+
			"snapshot's range [%d, %d]", sim.ErrLevelOutOfRange,
			t.LMin, t.LMax, t.Snap.LevelMin, t.Snap.LevelMax)
	}

	for i := 0; i < t.Len(); i++ {
		if t.Kind != Parts {
			l := int(t.Level[i])
			if l < t.LMin || l > t.LMax {
				return fmt.Errorf("%w: row %d is at level %d, "+
					"outside the table's range [%d, %d]",
					sim.ErrLevelOutOfRange, i, l, t.LMin, t.LMax)
			}
		}
		x, y, z := t.Pos(i)
		if x < t.Ranges[0]-eps || x > t.Ranges[1]+eps ||
			y < t.Ranges[2]-eps || y > t.Ranges[3]+eps ||
			z < t.Ranges[4]-eps || z > t.Ranges[5]+eps {
			return fmt.Errorf("%w: row %d at (%g, %g, %g) is outside "+
				"the selection bounds", sim.ErrInvalidArgument,
				i, x, y, z)
		}
	}

	for _, name := range t.names {
		xs := t.cols[name]
		positive := name == "rho" || name == "mass"
		for i := range xs {
			if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) {
				return fmt.Errorf("%w: column '%s' contains %g at "+
					"row %d", sim.ErrInvalidArgument, name, xs[i], i)
			}
			if positive && xs[i] <= 0 {
				return fmt.Errorf("%w: column '%s' must be strictly "+
					"positive, but contains %g at row %d",
					sim.ErrInvalidArgument, name, xs[i], i)
			}
		}
	}
	return nil
}
