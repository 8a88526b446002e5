package sim

import (
	"fmt"
	"sort"
)

// CGS values of the astrophysical units understood by GetUnit.
const (
	CmPerPc  = 3.08567758128e18
	CmPerAU  = 1.495978707e13
	CmPerKm  = 1e5
	GPerMsol = 1.98892e33
	SPerYr   = 3.15576e7
)

// Quantity identifies the physical dimension of a variable. It selects which
// unit symbols are legal for that variable.
type Quantity int

const (
	Dimensionless Quantity = iota
	Length
	Time
	Velocity
	Acceleration
	Density
	Mass
	Pressure
	Volume
	SpecificEnergy
)

// String returns the name of the quantity kind.
func (q Quantity) String() string {
	switch q {
	case Dimensionless:
		return "dimensionless"
	case Length:
		return "length"
	case Time:
		return "time"
	case Velocity:
		return "velocity"
	case Acceleration:
		return "acceleration"
	case Density:
		return "density"
	case Mass:
		return "mass"
	case Pressure:
		return "pressure"
	case Volume:
		return "volume"
	case SpecificEnergy:
		return "specific energy"
	}
	return fmt.Sprintf("Quantity(%d)", int(q))
}

// ScaleTable converts code units to CGS. RAMSES stores three independent
// factors in its info files; everything else is derived from them.
type ScaleTable struct {
	// L is cm per code length, T is s per code time, and D is g/cm^3 per
	// code density.
	L, T, D float64
}

// V returns cm/s per code velocity.
func (s ScaleTable) V() float64 { return s.L / s.T }

// M returns g per code mass.
func (s ScaleTable) M() float64 { return s.D * s.L * s.L * s.L }

// P returns erg/cm^3 per code pressure.
func (s ScaleTable) P() float64 { return s.D * s.V() * s.V() }

func (s ScaleTable) validate() error {
	if s.L <= 0 || s.T <= 0 || s.D <= 0 {
		return fmt.Errorf("%w: scale factors must be positive, but are "+
			"(L, T, D) = (%g, %g, %g)", ErrInvalidArgument, s.L, s.T, s.D)
	}
	// The derived velocity scale has to agree with L/T. This can only
	// fail once ScaleTable grows an explicit velocity entry, but the
	// check documents the invariant.
	if !almostEqual(s.V(), s.L/s.T, 1e-10) {
		return fmt.Errorf("%w: velocity scale %g is inconsistent with "+
			"length/time = %g", ErrInvalidArgument, s.V(), s.L/s.T)
	}
	return nil
}

// cgsPerUnit maps each recognized unit symbol to its CGS value, per quantity
// kind. "standard" always means code units and is handled in GetUnit.
var cgsPerUnit = map[Quantity]map[string]float64{
	Length: {
		"cm": 1, "km": CmPerKm, "au": CmPerAU,
		"pc": CmPerPc, "kpc": 1e3 * CmPerPc, "Mpc": 1e6 * CmPerPc,
	},
	Time: {
		"s": 1, "yr": SPerYr, "Myr": 1e6 * SPerYr, "Gyr": 1e9 * SPerYr,
	},
	Velocity: {
		"cm_s": 1, "km_s": CmPerKm,
	},
	Acceleration: {
		"cm_s2": 1, "km_s2": CmPerKm,
	},
	Density: {
		"g_cm3":    1,
		"Msol_pc3": GPerMsol / (CmPerPc * CmPerPc * CmPerPc),
	},
	Mass: {
		"g": 1, "Msol": GPerMsol,
	},
	Pressure: {
		"erg_cm3": 1,
	},
	Volume: {
		"cm3":  1,
		"pc3":  CmPerPc * CmPerPc * CmPerPc,
		"kpc3": 1e9 * CmPerPc * CmPerPc * CmPerPc,
	},
	SpecificEnergy: {
		"erg_g": 1,
	},
}

// cgsScale returns the CGS value of one code unit of the given quantity.
func (s ScaleTable) cgsScale(q Quantity) float64 {
	switch q {
	case Length:
		return s.L
	case Time:
		return s.T
	case Velocity:
		return s.V()
	case Acceleration:
		return s.V() / s.T
	case Density:
		return s.D
	case Mass:
		return s.M()
	case Pressure:
		return s.P()
	case Volume:
		return s.L * s.L * s.L
	case SpecificEnergy:
		return s.V() * s.V()
	}
	return 1
}

// GetUnit returns the factor which converts a value of the given quantity
// from code units into the requested unit. The symbol "standard" (or "")
// leaves values in code units. Unknown symbols and symbols of the wrong
// dimension return ErrUnknownIdentifier.
func (s ScaleTable) GetUnit(q Quantity, unit string) (float64, error) {
	if unit == "" || unit == "standard" {
		return 1, nil
	}
	if q == Dimensionless {
		return 0, fmt.Errorf("%w: unit '%s' requested for a "+
			"dimensionless quantity", ErrUnknownIdentifier, unit)
	}
	units, ok := cgsPerUnit[q]
	if !ok {
		return 0, fmt.Errorf("%w: no units are defined for quantity "+
			"kind '%s'", ErrUnknownIdentifier, q)
	}
	cgs, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("%w: '%s' is not a recognized %s unit",
			ErrUnknownIdentifier, unit, q)
	}
	return s.cgsScale(q) / cgs, nil
}

// Units returns the recognized unit symbols for a quantity kind, including
// "standard". The slice is freshly allocated and may be modified.
func Units(q Quantity) []string {
	names := []string{"standard"}
	for name := range cgsPerUnit[q] {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}
