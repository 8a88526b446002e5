package cell

import (
	"math/rand"

	"github.com/phil-mansfield/gomera/sim"
)

/* fake.go creates synthetic snapshots and tables which tests in this and
other packages initialize directly from arrays instead of reading RAMSES
outputs. */

// FakeSnapshot creates an in-memory snapshot header with the given level
// range. The box is 48 code units on a side with scale factors chosen so
// that one code density unit is 6.77e-23 g/cm^3, roughly the mean density
// of the interstellar medium simulations gomera was written for.
func FakeSnapshot(levelMin, levelMax int) *sim.Snapshot {
	return &sim.Snapshot{
		Output: 1, Path: "./fake",
		NDim:     3,
		LevelMin: levelMin, LevelMax: levelMax,
		BoxLen: 48.0, Time: 0.33, Aexp: 1.0, Gamma: 5.0 / 3.0,
		Scale: sim.ScaleTable{
			L: 3.085677581282e21, // 1 kpc per code length
			T: 2.5395079e15,
			D: 6.77e-23,
		},
		Hydro: true, Parts: true, Grav: true,
		HydroVars: []string{"rho", "vx", "vy", "vz", "p"},
		PartVars:  []string{"vx", "vy", "vz", "mass"},
		GravVars:  []string{"ax", "ay", "az", "epot"},
	}
}

// FakeUniformHydro creates a hydro table covering the full box with a
// complete cell grid at a single level and uniform field values: the given
// density and pressure, and a velocity of (1, 2, 2) code units.
func FakeUniformHydro(snap *sim.Snapshot, level int, rho, p float64) *Table {
	side := 1 << uint(level)
	n := side * side * side

	levels := make([]int32, n)
	cx := make([]int32, n)
	cy := make([]int32, n)
	cz := make([]int32, n)
	i := 0
	for x := 1; x <= side; x++ {
		for y := 1; y <= side; y++ {
			for z := 1; z <= side; z++ {
				levels[i] = int32(level)
				cx[i], cy[i], cz[i] = int32(x), int32(y), int32(z)
				i++
			}
		}
	}

	cols := map[string][]float64{
		"rho": constCol(n, rho),
		"vx":  constCol(n, 1),
		"vy":  constCol(n, 2),
		"vz":  constCol(n, 2),
		"p":   constCol(n, p),
	}

	t, err := NewHydro(snap, levels, cx, cy, cz, cols)
	if err != nil {
		panic(err.Error())
	}
	return t
}

// FakeTwoLevelHydro creates a hydro table where one octant of the box is
// refined one level deeper than the rest, the way an AMR code refines a
// collapsing region. Coarse cells inside the refined octant are removed, so
// the table tiles the box exactly once.
func FakeTwoLevelHydro(snap *sim.Snapshot, coarse int, rho, p float64) *Table {
	side := 1 << uint(coarse)
	fineSide := side // half the box at twice the resolution
	half := side / 2

	levels := []int32{}
	cx, cy, cz := []int32{}, []int32{}, []int32{}
	for x := 1; x <= side; x++ {
		for y := 1; y <= side; y++ {
			for z := 1; z <= side; z++ {
				if x <= half && y <= half && z <= half {
					continue
				}
				levels = append(levels, int32(coarse))
				cx = append(cx, int32(x))
				cy = append(cy, int32(y))
				cz = append(cz, int32(z))
			}
		}
	}
	for x := 1; x <= fineSide; x++ {
		for y := 1; y <= fineSide; y++ {
			for z := 1; z <= fineSide; z++ {
				levels = append(levels, int32(coarse+1))
				cx = append(cx, int32(x))
				cy = append(cy, int32(y))
				cz = append(cz, int32(z))
			}
		}
	}

	n := len(levels)
	cols := map[string][]float64{
		"rho": constCol(n, rho),
		"vx":  constCol(n, 1),
		"vy":  constCol(n, 2),
		"vz":  constCol(n, 2),
		"p":   constCol(n, p),
	}

	t, err := NewHydro(snap, levels, cx, cy, cz, cols)
	if err != nil {
		panic(err.Error())
	}
	return t
}

// FakeParts creates a particle table with n uniform random positions and
// uniform particle mass. The random sequence is fixed by seed, so tables
// are reproducible.
func FakeParts(snap *sim.Snapshot, n int, mass float64, seed int64) *Table {
	rng := rand.New(rand.NewSource(seed))

	x := make([]float64, n)
	y := make([]float64, n)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i], y[i], z[i] = rng.Float64(), rng.Float64(), rng.Float64()
	}

	cols := map[string][]float64{
		"vx":   constCol(n, 1),
		"vy":   constCol(n, 2),
		"vz":   constCol(n, 2),
		"mass": constCol(n, mass),
	}

	t, err := NewParts(snap, x, y, z, cols)
	if err != nil {
		panic(err.Error())
	}
	return t
}

func constCol(n int, val float64) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = val
	}
	return xs
}
