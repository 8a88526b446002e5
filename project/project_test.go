package project

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/gomera/cell"
	"github.com/phil-mansfield/gomera/region"
	"github.com/phil-mansfield/gomera/sim"
	"github.com/phil-mansfield/gomera/vars"
)

func uniformTable() *cell.Table {
	snap := cell.FakeSnapshot(3, 5)
	return cell.FakeUniformHydro(snap, 3, 10.0, 1.5)
}

func amrTable() *cell.Table {
	snap := cell.FakeSnapshot(3, 5)
	return cell.FakeTwoLevelHydro(snap, 3, 10.0, 1.5)
}

func tableMass(t *testing.T, tab *cell.Table) float64 {
	mass, err := vars.Get(tab, vars.Mass, nil)
	require.NoError(t, err)
	total := 0.0
	for _, m := range mass {
		total += m
	}
	return total
}

func TestMassConservationSingleLevel(t *testing.T) {
	tab := uniformTable()

	m, err := Project(tab, []vars.Var{vars.Mass}, nil)
	require.NoError(t, err)

	want := tableMass(t, tab)
	assert.InEpsilon(t, want, m.Sum(vars.Mass), 1e-10)
}

func TestMassConservationAcrossLevels(t *testing.T) {
	tab := amrTable()

	// Native resolution of the finest level: coarse cells cover 2x2
	// pixels each and must spread their mass without double counting.
	m, err := Project(tab, []vars.Var{vars.Mass}, nil)
	require.NoError(t, err)
	require.Equal(t, 16, m.Res)

	want := tableMass(t, tab)
	assert.InEpsilon(t, want, m.Sum(vars.Mass), 1e-10)

	// Also at a resolution coarser than both levels.
	m2, err := Project(tab, []vars.Var{vars.Mass}, &Options{Res: 4})
	require.NoError(t, err)
	assert.InEpsilon(t, want, m2.Sum(vars.Mass), 1e-10)
}

func TestMassConservationMisalignedRange(t *testing.T) {
	tab := uniformTable()
	total := tableMass(t, tab)

	// Cell edges sit at multiples of 1/8, so a bound at 0.2 cuts through
	// the second column of cells and their footprints overhang the map
	// extent. The overhang must land in the boundary pixels, not vanish.
	m, err := Project(tab, []vars.Var{vars.Mass}, &Options{
		Res: 8, XRange: []float64{0, 0.2},
	})
	require.NoError(t, err)
	assert.InEpsilon(t, total*0.25, m.Sum(vars.Mass), 1e-10)

	// Bounds cutting through cells on both in-plane axes.
	m, err = Project(tab, []vars.Var{vars.Mass}, &Options{
		Res: 8, XRange: []float64{0, 0.2}, YRange: []float64{0.1, 0.9},
	})
	require.NoError(t, err)
	assert.InEpsilon(t, total*0.25*0.75, m.Sum(vars.Mass), 1e-10)
}

func TestMassConservationMisalignedAcrossLevels(t *testing.T) {
	tab := amrTable()

	// Independent total over the same selection.
	sub, err := region.Subregion(tab, &region.Box{
		XRange: [2]float64{0, 0.3},
		YRange: [2]float64{0, 1},
		ZRange: [2]float64{0, 1},
	}, nil)
	require.NoError(t, err)

	// 0.3 is not a cell edge on either level.
	m, err := Project(tab, []vars.Var{vars.Mass},
		&Options{Res: 16, XRange: []float64{0, 0.3}})
	require.NoError(t, err)
	assert.InEpsilon(t, tableMass(t, sub), m.Sum(vars.Mass), 1e-10)
}

func TestUniformColumnValues(t *testing.T) {
	tab := uniformTable()

	// Summing rho along z at native resolution stacks the 8 cells of
	// each column.
	m, err := Project(tab, []vars.Var{vars.Rho}, &Options{Res: 8})
	require.NoError(t, err)
	g := m.Grid(vars.Rho)
	r, c := g.Dims()
	require.Equal(t, 8, r)
	require.Equal(t, 8, c)
	for iu := 0; iu < 8; iu++ {
		for iv := 0; iv < 8; iv++ {
			assert.InDelta(t, 80.0, g.At(iu, iv), 1e-10)
		}
	}

	// At twice the native resolution every cell covers 2x2 pixels with
	// a quarter of its value each.
	m2, err := Project(tab, []vars.Var{vars.Rho}, &Options{Res: 16})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, m2.Grid(vars.Rho).At(3, 11), 1e-10)
}

func TestModeOrdering(t *testing.T) {
	tab := uniformTable()

	sum, err := Project(tab, []vars.Var{vars.Rho},
		&Options{Res: 8, Mode: Sum})
	require.NoError(t, err)
	mean, err := Project(tab, []vars.Var{vars.Rho},
		&Options{Res: 8, Mode: Mean})
	require.NoError(t, err)

	gs, gm := sum.Grid(vars.Rho), mean.Grid(vars.Rho)
	for iu := 0; iu < 8; iu++ {
		for iv := 0; iv < 8; iv++ {
			assert.True(t, gs.At(iu, iv) >= gm.At(iu, iv),
				"pixel (%d, %d)", iu, iv)
		}
	}
	assert.True(t, sum.Sum(vars.Rho) >= mean.Sum(vars.Rho))

	// The mass-weighted mean of a uniform density is the density.
	assert.InDelta(t, 10.0, gm.At(4, 4), 1e-10)
}

func TestMaxMode(t *testing.T) {
	tab := uniformTable()

	m, err := Project(tab, []vars.Var{vars.Rho},
		&Options{Res: 8, Mode: Max})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, m.Grid(vars.Rho).At(2, 6), 1e-12)
	assert.InDelta(t, 10.0, m.MaxPixel(vars.Rho), 1e-12)
}

func TestMonotonicThinning(t *testing.T) {
	tab := uniformTable()

	sums := []float64{}
	for _, zmax := range []float64{0.25, 0.5, 1.0} {
		m, err := Project(tab, []vars.Var{vars.Mass}, &Options{
			Res: 8, ZRange: []float64{0, zmax},
		})
		require.NoError(t, err)
		sums = append(sums, m.Sum(vars.Mass))
	}
	assert.True(t, sums[0] <= sums[1] && sums[1] <= sums[2])

	// For homogeneous data the total scales with slice thickness.
	assert.InEpsilon(t, sums[2]/4, sums[0], 1e-10)
	assert.InEpsilon(t, sums[2]/2, sums[1], 1e-10)
}

func TestThreadInvariance(t *testing.T) {
	tab := amrTable()
	vs := []vars.Var{vars.Mass, vars.Rho}

	single, err := Project(tab, vs, &Options{Res: 16, Threads: 1})
	require.NoError(t, err)
	multi, err := Project(tab, vs, &Options{Res: 16, Threads: 8})
	require.NoError(t, err)

	for _, v := range vs {
		assert.Equal(t, single.Grid(v).RawMatrix().Data,
			multi.Grid(v).RawMatrix().Data, "variable %s", v)
	}
}

func TestVariableOrderInvariance(t *testing.T) {
	tab := amrTable()

	ab, err := Project(tab, []vars.Var{vars.Mass, vars.Rho},
		&Options{Res: 16})
	require.NoError(t, err)
	ba, err := Project(tab, []vars.Var{vars.Rho, vars.Mass},
		&Options{Res: 16})
	require.NoError(t, err)

	assert.Equal(t, ab.Grid(vars.Rho).RawMatrix().Data,
		ba.Grid(vars.Rho).RawMatrix().Data)
	assert.Equal(t, ab.Grid(vars.Mass).RawMatrix().Data,
		ba.Grid(vars.Mass).RawMatrix().Data)
}

func TestUnitsBroadcast(t *testing.T) {
	tab := uniformTable()

	m, err := Project(tab, []vars.Var{vars.Mass, vars.Rho},
		&Options{Res: 8, Units: []string{"Msol", "g_cm3"}})
	require.NoError(t, err)
	assert.Equal(t, "Msol", m.Units[vars.Mass])
	assert.Equal(t, "g_cm3", m.Units[vars.Rho])

	fm, err := tab.Snap.Scale.GetUnit(sim.Mass, "Msol")
	require.NoError(t, err)
	assert.InEpsilon(t, tableMass(t, tab)*fm, m.Sum(vars.Mass), 1e-10)

	_, err = Project(tab, []vars.Var{vars.Mass, vars.Rho},
		&Options{Res: 8, Units: []string{"Msol", "g_cm3", "kpc"}})
	assert.True(t, errors.Is(err, sim.ErrInvalidArgument),
		"three units for two variables")
}

func TestProjectionDirections(t *testing.T) {
	tab := uniformTable()
	want := tableMass(t, tab)

	for _, dir := range []string{"x", "y", "z"} {
		m, err := Project(tab, []vars.Var{vars.Mass},
			&Options{Res: 8, Direction: dir})
		require.NoError(t, err)
		assert.InEpsilon(t, want, m.Sum(vars.Mass), 1e-10,
			"direction %s", dir)
	}

	_, err := Project(tab, []vars.Var{vars.Mass},
		&Options{Res: 8, Direction: "w"})
	assert.True(t, errors.Is(err, sim.ErrInvalidArgument))
}

func TestErrorScenarios(t *testing.T) {
	tab := uniformTable()

	_, err := Project(tab, []vars.Var{vars.Rho}, &Options{Res: -1})
	assert.True(t, errors.Is(err, sim.ErrInvalidArgument), "res = -1")

	_, err = Project(tab, []vars.Var{vars.Rho},
		&Options{Res: 8, XRange: []float64{0.8, 0.2}})
	assert.True(t, errors.Is(err, sim.ErrInvalidArgument),
		"inverted xrange")

	_, err = Project(tab, []vars.Var{"vorticity"}, &Options{Res: 8})
	assert.True(t, errors.Is(err, sim.ErrUnknownIdentifier))

	_, err = Project(tab, []vars.Var{vars.Rho},
		&Options{Res: 8, LMin: 5, LMax: 4})
	assert.True(t, errors.Is(err, sim.ErrLevelOutOfRange))

	_, err = Project(tab, []vars.Var{vars.Rho},
		&Options{Res: 8, Mask: make([]bool, 3)})
	assert.True(t, errors.Is(err, sim.ErrInvalidArgument), "bad mask")

	_, err = Project(tab, []vars.Var{vars.Rho}, &Options{
		Res: 8, Mode: Mean, Weighting: Weighting{Q: "spin"},
	})
	assert.True(t, errors.Is(err, sim.ErrInvalidArgument),
		"unsupported weighting")
}

func TestDegenerateInputs(t *testing.T) {
	tab := uniformTable()

	// Explicit zero resolution: a valid, empty map.
	m, err := Project(tab, []vars.Var{vars.Rho}, &Options{Res: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Res)
	assert.Equal(t, 0.0, m.Sum(vars.Rho))

	// An all-false mask keeps the map well-formed and zero-filled.
	m, err = Project(tab, []vars.Var{vars.Mass},
		&Options{Res: 8, Mask: make([]bool, tab.Len())})
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.Sum(vars.Mass))
	r, c := m.Grid(vars.Mass).Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 8, c)

	// Discovery mode: no variables means no computation.
	m, err = Project(tab, nil, &Options{Res: 8})
	require.NoError(t, err)
	assert.Equal(t, 0, len(m.Maps))
}

func TestExtentAndRatio(t *testing.T) {
	tab := uniformTable()
	boxlen := tab.Snap.BoxLen

	m, err := Project(tab, []vars.Var{vars.Rho}, &Options{Res: 8})
	require.NoError(t, err)
	assert.Equal(t, [4]float64{0, boxlen, 0, boxlen}, m.Extent)
	assert.Equal(t, 1.0, m.Ratio)

	c := []float64{vars.BoxCenter, vars.BoxCenter, vars.BoxCenter}
	m, err = Project(tab, []vars.Var{vars.Rho},
		&Options{Res: 8, Center: c})
	require.NoError(t, err)
	assert.InDelta(t, -boxlen/2, m.Cextent[0], 1e-12)
	assert.InDelta(t, boxlen/2, m.Cextent[1], 1e-12)
}

func TestLevelRestriction(t *testing.T) {
	tab := amrTable()

	// Projecting only the coarse level drops the refined octant.
	m, err := Project(tab, []vars.Var{vars.Mass},
		&Options{Res: 8, LMin: 3, LMax: 3})
	require.NoError(t, err)

	coarseMass := 10.0 * (7.0 / 8.0) * math.Pow(tab.Snap.BoxLen, 3)
	assert.InEpsilon(t, coarseMass, m.Sum(vars.Mass), 1e-10)
	assert.Equal(t, 3, m.LMin)
	assert.Equal(t, 3, m.LMax)
}

func TestParticleProjection(t *testing.T) {
	snap := cell.FakeSnapshot(3, 5)
	tab := cell.FakeParts(snap, 5000, 2.0, 11)

	m, err := Project(tab, []vars.Var{vars.Mass}, &Options{Res: 8})
	require.NoError(t, err)
	assert.InEpsilon(t, 2.0*5000, m.Sum(vars.Mass), 1e-10)

	// Restricting to the lower half along z halves the mass within
	// Poisson noise.
	mHalf, err := Project(tab, []vars.Var{vars.Mass},
		&Options{Res: 8, ZRange: []float64{0, 0.5}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mHalf.Sum(vars.Mass)/m.Sum(vars.Mass), 0.05)
}

func TestWeightingByVolume(t *testing.T) {
	tab := amrTable()

	m, err := Project(tab, []vars.Var{vars.Rho}, &Options{
		Res: 16, Mode: Mean,
		Weighting: Weighting{Q: vars.Volume},
	})
	require.NoError(t, err)
	// Uniform density: any positive weighting gives the density back.
	assert.InDelta(t, 10.0, m.Grid(vars.Rho).At(0, 0), 1e-10)
	assert.Equal(t, vars.Volume, m.Weighting.Q)
}

func TestSmallrFloor(t *testing.T) {
	tab := uniformTable()

	m, err := Project(tab, []vars.Var{vars.Rho},
		&Options{Res: 8, Mode: Max, Smallr: 50.0})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, m.Grid(vars.Rho).At(0, 0), 1e-12)
	assert.Equal(t, 50.0, m.Smallr)
}
