/*package sim contains the metadata types shared by every analysis routine in
gomera: the per-snapshot header information, the unit/scale system, and the
run-time configuration flags.

A Snapshot is constructed once per output by the file-reading layer and is
never mutated afterwards. Every table, region and map keeps a pointer to the
Snapshot it was derived from.*/
package sim

import (
	"fmt"
	"log"
	"math"
)

// Snapshot holds the read-only header information of a single RAMSES output.
type Snapshot struct {
	// Output is the output number of the snapshot (e.g. 300 for
	// output_00300) and Path is the directory it was read from.
	Output int
	Path   string

	// NDim is the number of spatial dimensions. Only 3 is supported.
	NDim int
	// LevelMin and LevelMax give the range of AMR refinement levels
	// present in the snapshot. Cells at level l have a width of
	// BoxLen / 2^l.
	LevelMin, LevelMax int

	// BoxLen is the side length of the simulation box in code units.
	BoxLen float64
	// Time is the simulation time in code units and Aexp the cosmological
	// expansion factor.
	Time, Aexp float64
	// Gamma is the adiabatic index used by the hydro solver.
	Gamma float64

	// Scale converts code units to physical units.
	Scale ScaleTable

	// Flags for which data kinds exist in this output.
	Hydro, Parts, Grav, RT, Clumps, Sinks bool

	// Variable names stored on disc for each data kind.
	HydroVars, PartVars, GravVars []string
}

// Validate returns an error if the header violates one of its invariants:
// level ordering, a positive box length, and positive, dimensionally
// consistent scale factors.
func (snap *Snapshot) Validate() error {
	if snap.NDim != 3 {
		return fmt.Errorf("%w: snapshot has %d dimensions, but only 3 are supported",
			ErrInvalidArgument, snap.NDim)
	}
	if snap.LevelMin > snap.LevelMax {
		return fmt.Errorf("%w: levelmin = %d is larger than levelmax = %d",
			ErrLevelOutOfRange, snap.LevelMin, snap.LevelMax)
	}
	if snap.BoxLen <= 0 {
		return fmt.Errorf("%w: box length must be positive, but is %g",
			ErrInvalidArgument, snap.BoxLen)
	}
	if snap.Gamma <= 1 {
		return fmt.Errorf("%w: adiabatic index must be larger than 1, but is %g",
			ErrInvalidArgument, snap.Gamma)
	}
	return snap.Scale.validate()
}

// CellSize returns the width of a cell at the given level in code units.
func (snap *Snapshot) CellSize(level int) float64 {
	return snap.BoxLen / float64(int64(1)<<uint(level))
}

// ContainsLevel returns true if level is within the snapshot's level range.
func (snap *Snapshot) ContainsLevel(level int) bool {
	return level >= snap.LevelMin && level <= snap.LevelMax
}

// RunConfig collects the ambient flags which the original interactive tooling
// kept as process-wide globals. They are passed explicitly so that routines
// stay pure and can run in parallel tests.
type RunConfig struct {
	Verbose      bool
	ShowProgress bool
}

// Logf writes a log message if the config is verbose.
func (con RunConfig) Logf(format string, a ...interface{}) {
	if con.Verbose {
		log.Printf(format, a...)
	}
}

// Progressf writes a progress message without a trailing newline if progress
// reporting is switched on.
func (con RunConfig) Progressf(format string, a ...interface{}) {
	if con.ShowProgress {
		fmt.Printf(format, a...)
	}
}

// almostEqual is the tolerance check used for the scale-factor consistency
// test in Validate.
func almostEqual(x, y, eps float64) bool {
	if x == y {
		return true
	}
	diff := math.Abs(x - y)
	return diff <= eps*math.Max(math.Abs(x), math.Abs(y))
}
