package vars

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/gomera/cell"
	"github.com/phil-mansfield/gomera/sim"
)

func testTable() *cell.Table {
	snap := cell.FakeSnapshot(3, 5)
	return cell.FakeUniformHydro(snap, 3, 10.0, 1.5)
}

func TestRawField(t *testing.T) {
	tab := testTable()

	rho, err := Get(tab, Rho, nil)
	require.NoError(t, err)
	require.Equal(t, tab.Len(), len(rho))
	assert.Equal(t, 10.0, rho[0])

	// The returned array is a copy.
	rho[0] = -1
	rho2, err := Get(tab, Rho, nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, rho2[0])
}

func TestDerivedFields(t *testing.T) {
	tab := testTable()
	snap := tab.Snap

	v, err := Get(tab, V, nil)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v[0], 1e-14) // (1, 2, 2) -> |v| = 3

	cs, err := Get(tab, CS, nil)
	require.NoError(t, err)
	want := math.Sqrt(snap.Gamma * 1.5 / 10.0)
	assert.InDelta(t, want, cs[0], 1e-14)

	size, err := Get(tab, CellSize, nil)
	require.NoError(t, err)
	assert.InDelta(t, snap.BoxLen/8, size[0], 1e-14)

	vol, err := Get(tab, Volume, nil)
	require.NoError(t, err)
	assert.InDelta(t, size[0]*size[0]*size[0], vol[0], 1e-10)

	mass, err := Get(tab, Mass, nil)
	require.NoError(t, err)
	assert.InDelta(t, 10.0*vol[0], mass[0], 1e-10)

	lvl, err := Get(tab, Level, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, lvl[0])
}

func TestUnitsAndErrors(t *testing.T) {
	tab := testTable()
	snap := tab.Snap

	rhoCGS, err := Get(tab, Rho, &Options{Unit: "g_cm3"})
	require.NoError(t, err)
	assert.InEpsilon(t, 10.0*snap.Scale.D, rhoCGS[0], 1e-14)

	_, err = Get(tab, "entropy", nil)
	assert.True(t, errors.Is(err, sim.ErrUnknownIdentifier),
		"unknown variable")

	_, err = Get(tab, Rho, &Options{Unit: "kpc"})
	assert.True(t, errors.Is(err, sim.ErrUnknownIdentifier),
		"length unit on a density")

	_, err = Get(tab, Rho, &Options{Mask: make([]bool, 3)})
	assert.True(t, errors.Is(err, sim.ErrInvalidArgument),
		"short mask")
}

func TestMask(t *testing.T) {
	tab := testTable()

	mask := make([]bool, tab.Len())
	mask[0], mask[10], mask[100] = true, true, true
	rho, err := Get(tab, Rho, &Options{Mask: mask})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 10}, rho)
}

func TestPositionsMatchGetMulti(t *testing.T) {
	tab := testTable()

	center := []float64{BoxCenter, BoxCenter, BoxCenter}
	x, y, z, err := Positions(tab, "kpc", center)
	require.NoError(t, err)

	m, err := GetMulti(tab, []Var{X, Y, Z},
		&Options{Unit: "kpc", Center: center})
	require.NoError(t, err)
	assert.Equal(t, m[X], x)
	assert.Equal(t, m[Y], y)
	assert.Equal(t, m[Z], z)

	// The first cell center is half a cell from the box corner, so half
	// a box minus half a cell from the box center.
	wantOff := -(0.5 - 1.0/16) * tab.Snap.BoxLen
	f, err := tab.Snap.Scale.GetUnit(sim.Length, "kpc")
	require.NoError(t, err)
	assert.InDelta(t, wantOff*f, x[0], 1e-12)
}

func TestCenterValidation(t *testing.T) {
	tab := testTable()

	_, err := Get(tab, X, &Options{Center: []float64{0.5}})
	assert.True(t, errors.Is(err, sim.ErrInvalidArgument),
		"center with one component")

	// Absolute coordinates when no center is given.
	x, err := Get(tab, X, nil)
	require.NoError(t, err)
	assert.InDelta(t, tab.Snap.BoxLen/16, x[0], 1e-12)
}

func TestKnownIsClosedEnumeration(t *testing.T) {
	hydro := Known(cell.Hydro)
	assert.Contains(t, hydro, Rho)
	assert.Contains(t, hydro, CS)
	assert.NotContains(t, hydro, AX)

	grav := Known(cell.Grav)
	assert.Contains(t, grav, EPot)
	assert.NotContains(t, grav, Rho)

	parts := Known(cell.Parts)
	assert.Contains(t, parts, Mass)
	assert.NotContains(t, parts, CS)

	q, err := QuantityOf(cell.Hydro, Mass)
	require.NoError(t, err)
	assert.Equal(t, sim.Mass, q)
	_, err = QuantityOf(cell.Hydro, "banana")
	assert.True(t, errors.Is(err, sim.ErrUnknownIdentifier))
}
