/*package stats computes scalar and vector reductions over cell and
particle tables: total mass, mass-weighted center of mass and bulk
velocity, and mass-weighted averages of arbitrary variables.

All reductions are sequential sums over immutable tables, so repeated calls
return bitwise-identical results.*/
package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/phil-mansfield/gomera/cell"
	"github.com/phil-mansfield/gomera/sim"
	"github.com/phil-mansfield/gomera/vars"
)

// Msum returns the total mass of the (masked) table in the given unit.
func Msum(t *cell.Table, unit string, mask []bool) (float64, error) {
	mass, err := vars.Get(t, vars.Mass,
		&vars.Options{Unit: unit, Mask: mask})
	if err != nil {
		return 0, err
	}
	return floats.Sum(mass), nil
}

// CenterOfMass returns the mass-weighted mean position of the (masked)
// table relative to the box origin, in the given length unit.
func CenterOfMass(
	t *cell.Table, unit string, mask []bool,
) ([3]float64, error) {
	return massWeightedVector(t, []vars.Var{vars.X, vars.Y, vars.Z},
		unit, mask)
}

// BulkVelocity returns the mass-weighted mean velocity of the (masked)
// table in the given velocity unit.
func BulkVelocity(
	t *cell.Table, unit string, mask []bool,
) ([3]float64, error) {
	return massWeightedVector(t, []vars.Var{vars.VX, vars.VY, vars.VZ},
		unit, mask)
}

// AverageMWeighted returns the mass-weighted average of an arbitrary
// variable over the (masked) table, in the given unit.
func AverageMWeighted(
	t *cell.Table, v vars.Var, unit string, mask []bool,
) (float64, error) {
	xs, err := vars.Get(t, v, &vars.Options{Unit: unit, Mask: mask})
	if err != nil {
		return 0, err
	}
	mass, err := vars.Get(t, vars.Mass, &vars.Options{Mask: mask})
	if err != nil {
		return 0, err
	}
	if floats.Sum(mass) == 0 {
		return 0, fmt.Errorf("%w: cannot take a mass-weighted average "+
			"over an empty selection", sim.ErrInvalidArgument)
	}
	return stat.Mean(xs, mass), nil
}

func massWeightedVector(
	t *cell.Table, components []vars.Var, unit string, mask []bool,
) ([3]float64, error) {
	mass, err := vars.Get(t, vars.Mass, &vars.Options{Mask: mask})
	if err != nil {
		return [3]float64{}, err
	}
	mtot := floats.Sum(mass)
	if mtot == 0 {
		return [3]float64{}, fmt.Errorf("%w: cannot take a "+
			"mass-weighted average over an empty selection",
			sim.ErrInvalidArgument)
	}

	out := [3]float64{}
	for dim, v := range components {
		xs, err := vars.Get(t, v, &vars.Options{Unit: unit, Mask: mask})
		if err != nil {
			return [3]float64{}, err
		}
		out[dim] = floats.Dot(xs, mass) / mtot
	}
	return out, nil
}
