package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Output: 300, NDim: 3,
		LevelMin: 6, LevelMax: 10,
		BoxLen: 48.0, Time: 0.33, Aexp: 1.0, Gamma: 5.0 / 3.0,
		Scale: ScaleTable{
			L: 1.48e22, // ~4.8 kpc per code length
			T: 2.53e15,
			D: 6.77e-23,
		},
		Hydro: true,
	}
}

func TestSnapshotValidate(t *testing.T) {
	snap := testSnapshot()
	assert.NoError(t, snap.Validate())

	snap = testSnapshot()
	snap.LevelMin, snap.LevelMax = 10, 6
	assert.True(t, errors.Is(snap.Validate(), ErrLevelOutOfRange),
		"inverted level range")

	snap = testSnapshot()
	snap.BoxLen = 0
	assert.True(t, errors.Is(snap.Validate(), ErrInvalidArgument),
		"zero box length")

	snap = testSnapshot()
	snap.Scale.D = -1
	assert.True(t, errors.Is(snap.Validate(), ErrInvalidArgument),
		"negative density scale")
}

func TestCellSize(t *testing.T) {
	snap := testSnapshot()
	assert.Equal(t, snap.BoxLen/64, snap.CellSize(6))
	assert.Equal(t, snap.BoxLen/1024, snap.CellSize(10))
	assert.True(t, snap.ContainsLevel(6))
	assert.True(t, snap.ContainsLevel(10))
	assert.False(t, snap.ContainsLevel(11))
}

func TestGetUnit(t *testing.T) {
	s := testSnapshot().Scale

	f, err := s.GetUnit(Length, "standard")
	assert.NoError(t, err)
	assert.Equal(t, 1.0, f)

	f, err = s.GetUnit(Length, "kpc")
	assert.NoError(t, err)
	assert.InEpsilon(t, s.L/(1e3*CmPerPc), f, 1e-14)

	f, err = s.GetUnit(Mass, "Msol")
	assert.NoError(t, err)
	assert.InEpsilon(t, s.M()/GPerMsol, f, 1e-14)

	f, err = s.GetUnit(Velocity, "km_s")
	assert.NoError(t, err)
	assert.InEpsilon(t, s.V()/1e5, f, 1e-14)

	// Consistency across derived quantities: mass/volume = density.
	fm, err := s.GetUnit(Mass, "g")
	assert.NoError(t, err)
	fv, err := s.GetUnit(Volume, "cm3")
	assert.NoError(t, err)
	fd, err := s.GetUnit(Density, "g_cm3")
	assert.NoError(t, err)
	assert.InEpsilon(t, fd, fm/fv, 1e-12)

	_, err = s.GetUnit(Length, "Msol")
	assert.True(t, errors.Is(err, ErrUnknownIdentifier),
		"mass unit requested for a length")
	_, err = s.GetUnit(Density, "parsecs")
	assert.True(t, errors.Is(err, ErrUnknownIdentifier), "made-up unit")
}

func TestUnitsList(t *testing.T) {
	names := Units(Length)
	assert.Equal(t, "standard", names[0])
	assert.Contains(t, names, "kpc")
	assert.Contains(t, names, "cm")
}
