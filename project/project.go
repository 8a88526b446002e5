/*package project rasterizes 3D cell and particle tables onto 2D pixel
grids by orthogonal projection along a coordinate axis.

Cells are processed one AMR level at a time. A cell's projected footprint
generally covers several output pixels (or a fraction of one); each
overlapped pixel receives the cell's contribution multiplied by the exact
fractional overlap area, so that summed quantities are conserved. RAMSES
levels are strictly nested, so per-level contributions add without double
counting.

Work is split into (variable, level) jobs which accumulate into private
grids; the grids are merged in a fixed order afterwards. The output is
therefore bitwise identical for any worker count and any ordering of the
requested variables.*/
package project

import (
	"fmt"
	"math"
	"runtime"

	"gonum.org/v1/gonum/mat"

	"github.com/phil-mansfield/gomera/cell"
	"github.com/phil-mansfield/gomera/region"
	"github.com/phil-mansfield/gomera/sim"
	"github.com/phil-mansfield/gomera/thread"
	"github.com/phil-mansfield/gomera/vars"
)

// Options collects the optional arguments of Project. The zero value
// projects along z in Sum mode — but note that a zero Res is an explicit
// request for a degenerate empty map; use DefaultOptions for the native
// resolution of the table's finest level.
type Options struct {
	// Res is the number of pixels per side. Negative values are an
	// error; zero produces a degenerate, well-formed empty map.
	Res int
	// Direction is the projection axis: "x", "y" or "z". "" means "z".
	Direction string

	Mode      Mode
	Weighting Weighting

	// Units holds the target unit per requested variable. A single
	// entry is broadcast across all variables; otherwise the length
	// must match the variable list exactly.
	Units []string

	// LMin and LMax restrict the projected levels. Zero means the
	// corresponding bound of the table.
	LMin, LMax int

	// XRange, YRange and ZRange spatially restrict the projection
	// before rasterization (each nil or {min, max} in RangeUnit units,
	// with the same semantics as the region package).
	XRange, YRange, ZRange []float64
	RangeUnit              string

	// Center shifts the map's Cextent and the derived position
	// variables. Box-relative; axes may be vars.BoxCenter.
	Center []float64

	// Mask drops rows before projecting. Must be nil or match the
	// table length.
	Mask []bool

	// Threads is the worker-count hint. Values below 1 mean one worker
	// per CPU. The result does not depend on it.
	Threads int

	// Smallr and Smallc floor the density and sound speed values (in
	// the units they are evaluated in) before rasterization.
	Smallr, Smallc float64

	Config sim.RunConfig
}

// DefaultOptions returns the options Project uses when opt is nil: the
// native resolution of the table's finest level, projected along z in Sum
// mode.
func DefaultOptions(t *cell.Table) *Options {
	return &Options{
		Res:       1 << uint(t.LMax),
		Direction: "z",
	}
}

// Available returns the variables which can be projected from the given
// table. This is the discovery mode of the projection entry point: calling
// Project with an empty variable list reports this list instead of
// computing anything.
func Available(t *cell.Table) []vars.Var { return vars.Known(t.Kind) }

// Project rasterizes the requested variables onto a 2D pixel grid along
// opt.Direction and returns the resulting Map. opt may be nil, in which
// case DefaultOptions is used.
func Project(t *cell.Table, vs []vars.Var, opt *Options) (*Map, error) {
	if opt == nil {
		opt = DefaultOptions(t)
	}

	if len(vs) == 0 {
		opt.Config.Logf("projection variables for %s tables: %v",
			t.Kind, Available(t))
		return emptyMap(t, opt), nil
	}

	dir, uAxis, vAxis, err := splitDirection(opt.Direction)
	if err != nil {
		return nil, err
	}
	if opt.Res < 0 {
		return nil, fmt.Errorf("%w: resolution must not be negative, "+
			"but is %d", sim.ErrInvalidArgument, opt.Res)
	}

	units, err := broadcastUnits(opt.Units, len(vs))
	if err != nil {
		return nil, err
	}
	for _, v := range vs {
		if _, err := vars.QuantityOf(t.Kind, v); err != nil {
			return nil, err
		}
	}

	lmin, lmax, err := levelBounds(t, opt.LMin, opt.LMax)
	if err != nil {
		return nil, err
	}

	weight, err := resolveWeighting(t, opt)
	if err != nil {
		return nil, err
	}

	// Masking and spatial restriction happen before rasterization and
	// always produce fresh tables; the input table is untouched.
	if opt.Mask != nil {
		if t, err = t.SelectMask(opt.Mask); err != nil {
			return nil, err
		}
	}
	if t, err = applyRanges(t, opt); err != nil {
		return nil, err
	}

	center, err := vars.ResolveCenter(opt.Center)
	if err != nil {
		return nil, err
	}

	out := emptyMap(t, opt)
	out.Direction = dir
	out.LMin, out.LMax = lmin, lmax
	out.Weighting = weight
	out.extentFrom(t.Ranges, uAxis, vAxis, center)
	if opt.Res == 0 {
		return out, nil
	}

	opt.Config.Logf("projecting %d variable(s) onto a %d^2 grid along %s",
		len(vs), opt.Res, dir)

	// Evaluate every requested variable (and the weight) over the full
	// table once; jobs index into these arrays by row.
	vals := make([][]float64, len(vs))
	for vi, v := range vs {
		vals[vi], err = vars.Get(t, v, &vars.Options{
			Unit: units[vi], Center: opt.Center,
		})
		if err != nil {
			return nil, err
		}
		applyFloor(v, vals[vi], opt)
	}
	var ws []float64
	if opt.Mode == Mean && weight.Q != "none" {
		ws, err = vars.Get(t, weight.Q, &vars.Options{Unit: weight.Unit})
		if err != nil {
			return nil, err
		}
	}

	grids := rasterize(t, vals, ws, lmin, lmax, uAxis, vAxis, out, opt)

	for vi, v := range vs {
		out.Maps[v] = mat.NewDense(opt.Res, opt.Res, grids[vi])
		out.Units[v] = units[vi]
	}
	return out, nil
}

// rasterize runs one (variable, level) job per worker-queue slot and
// merges the private grids in job order.
func rasterize(
	t *cell.Table, vals [][]float64, ws []float64,
	lmin, lmax int, uAxis, vAxis int, out *Map, opt *Options,
) [][]float64 {
	res := opt.Res
	nLevels := lmax - lmin + 1
	nVars := len(vals)
	nJobs := nVars * nLevels

	rows := levelRows(t, lmin, lmax)

	workers := opt.Threads
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	// Private accumulators per job. acc[0] carries values (or weighted
	// values in Mean mode), acc[1] the summed weights, and touched marks
	// pixels hit at all (needed by Max, where 0 is a valid value).
	type jobAcc struct {
		val, wsum []float64
		touched   []bool
	}
	accs := make([]jobAcc, nJobs)

	thread.WorkerQueue(workers, nJobs, func(worker, job int) {
		vi := job / nLevels
		level := lmin + job%nLevels
		acc := &accs[job]
		acc.val = make([]float64, res*res)
		if opt.Mode == Mean {
			acc.wsum = make([]float64, res*res)
		}
		if opt.Mode == Max {
			acc.touched = make([]bool, res*res)
		}

		for _, i := range rows[level-lmin] {
			splat(t, i, vals[vi], ws, uAxis, vAxis, out, opt,
				acc.val, acc.wsum, acc.touched)
		}
	})

	// Deterministic merge: job order, never completion order.
	grids := make([][]float64, nVars)
	for vi := 0; vi < nVars; vi++ {
		val := make([]float64, res*res)
		var wsum []float64
		var touched []bool
		if opt.Mode == Mean {
			wsum = make([]float64, res*res)
		}
		if opt.Mode == Max {
			touched = make([]bool, res*res)
		}

		for l := 0; l < nLevels; l++ {
			acc := &accs[vi*nLevels+l]
			switch opt.Mode {
			case Max:
				for p := range val {
					if acc.touched[p] &&
						(!touched[p] || acc.val[p] > val[p]) {
						val[p] = acc.val[p]
						touched[p] = true
					}
				}
			case Mean:
				for p := range val {
					val[p] += acc.val[p]
					wsum[p] += acc.wsum[p]
				}
			default:
				for p := range val {
					val[p] += acc.val[p]
				}
			}
		}

		if opt.Mode == Mean {
			for p := range val {
				if wsum[p] > 0 {
					val[p] /= wsum[p]
				} else {
					val[p] = 0
				}
			}
		}
		grids[vi] = val
	}
	return grids
}

// splat adds row i's contribution to the accumulator grids. The cell's
// footprint is apportioned over the pixel grid; each overlapped pixel
// receives the row's value scaled by the fractional overlap area. Region
// selection keeps cells by center, so a footprint may overhang the bounds
// the extent was tightened to; the overhang is folded into the boundary
// pixels, which keeps summed quantities conserved when a selection bound
// cuts through cells. Particles have point footprints and land in a
// single pixel.
func splat(
	t *cell.Table, i int, vals, ws []float64,
	uAxis, vAxis int, out *Map, opt *Options,
	val, wsum []float64, touched []bool,
) {
	res := opt.Res
	px, py, pz := t.Pos(i)
	p := [3]float64{px, py, pz}
	u, v := p[uAxis], p[vAxis]
	h := t.CellSize(i) / 2

	// Extent in box-relative units.
	u0, u1 := out.Extent[0]/out.BoxLen, out.Extent[1]/out.BoxLen
	v0, v1 := out.Extent[2]/out.BoxLen, out.Extent[3]/out.BoxLen
	du := (u1 - u0) / float64(res)
	dv := (v1 - v0) / float64(res)
	if du <= 0 || dv <= 0 {
		return
	}

	w := 1.0
	if ws != nil {
		w = ws[i]
	}
	x := vals[i]

	if h == 0 {
		// Point footprint.
		iu := pointPixel(u, u0, du, res)
		iv := pointPixel(v, v0, dv, res)
		if iu < 0 || iv < 0 {
			return
		}
		deposit(opt.Mode, val, wsum, touched, iu*res+iv, x, w, 1)
		return
	}

	uLo, uHi := u-h, u+h
	vLo, vHi := v-h, v+h

	iu0, iu1 := pixelSpan(uLo, uHi, u0, du, res)
	iv0, iv1 := pixelSpan(vLo, vHi, v0, dv, res)
	area := 4 * h * h

	for iu := iu0; iu < iu1; iu++ {
		ovU := foldOverlap(uLo, uHi, u0, du, iu, res)
		if ovU <= 0 {
			continue
		}
		for iv := iv0; iv < iv1; iv++ {
			ovV := foldOverlap(vLo, vHi, v0, dv, iv, res)
			if ovV <= 0 {
				continue
			}
			deposit(opt.Mode, val, wsum, touched, iu*res+iv,
				x, w, ovU*ovV/area)
		}
	}
}

func deposit(
	mode Mode, val, wsum []float64, touched []bool,
	p int, x, w, frac float64,
) {
	switch mode {
	case Sum:
		val[p] += x * frac
	case Mean:
		val[p] += x * w * frac
		wsum[p] += w * frac
	case Max:
		if !touched[p] || x > val[p] {
			val[p] = x
			touched[p] = true
		}
	}
}

// foldOverlap is the overlap of [lo, hi] with pixel i, with the first and
// last pixel of each axis extended to infinity so that footprints
// overhanging the map edge land in the boundary pixels instead of being
// dropped.
func foldOverlap(lo, hi, origin, d float64, i, res int) float64 {
	pixLo := origin + float64(i)*d
	pixHi := origin + float64(i+1)*d
	if i == 0 {
		pixLo = math.Inf(-1)
	}
	if i == res-1 {
		pixHi = math.Inf(1)
	}
	return overlap(lo, hi, pixLo, pixHi)
}

func overlap(lo, hi, pixLo, pixHi float64) float64 {
	if lo < pixLo {
		lo = pixLo
	}
	if hi > pixHi {
		hi = pixHi
	}
	return hi - lo
}

func pointPixel(u, u0, du float64, res int) int {
	iu := int(math.Floor((u - u0) / du))
	if iu == res {
		iu = res - 1 // exactly on the upper edge
	}
	if iu < 0 || iu >= res {
		return -1
	}
	return iu
}

func pixelSpan(lo, hi, origin, d float64, res int) (int, int) {
	i0 := int(math.Floor((lo - origin) / d))
	i1 := int(math.Ceil((hi - origin) / d))
	if i0 < 0 {
		i0 = 0
	}
	if i1 > res {
		i1 = res
	}
	return i0, i1
}

// levelRows groups row indices by AMR level.
func levelRows(t *cell.Table, lmin, lmax int) [][]int {
	rows := make([][]int, lmax-lmin+1)
	for i := 0; i < t.Len(); i++ {
		l := t.LevelAt(i)
		if l < lmin || l > lmax {
			continue
		}
		rows[l-lmin] = append(rows[l-lmin], i)
	}
	return rows
}

func splitDirection(dir string) (name string, uAxis, vAxis int, err error) {
	switch dir {
	case "", "z":
		return "z", 0, 1, nil
	case "x":
		return "x", 1, 2, nil
	case "y":
		return "y", 0, 2, nil
	}
	return "", 0, 0, fmt.Errorf("%w: projection direction must be "+
		"'x', 'y' or 'z', not '%s'", sim.ErrInvalidArgument, dir)
}

func broadcastUnits(units []string, n int) ([]string, error) {
	switch {
	case len(units) == 0:
		units = make([]string, n)
		for i := range units {
			units[i] = "standard"
		}
		return units, nil
	case len(units) == 1:
		out := make([]string, n)
		for i := range out {
			out[i] = units[0]
		}
		return out, nil
	case len(units) == n:
		return units, nil
	}
	return nil, fmt.Errorf("%w: %d units were given for %d variables",
		sim.ErrInvalidArgument, len(units), n)
}

func levelBounds(t *cell.Table, lmin, lmax int) (int, int, error) {
	if lmin == 0 {
		lmin = t.LMin
	}
	if lmax == 0 {
		lmax = t.LMax
	}
	if lmin > lmax {
		return 0, 0, fmt.Errorf("%w: lmin = %d is larger than lmax = %d",
			sim.ErrLevelOutOfRange, lmin, lmax)
	}
	if lmin < t.Snap.LevelMin || lmax > t.Snap.LevelMax {
		return 0, 0, fmt.Errorf("%w: levels [%d, %d] are outside the "+
			"snapshot's range [%d, %d]", sim.ErrLevelOutOfRange,
			lmin, lmax, t.Snap.LevelMin, t.Snap.LevelMax)
	}
	return lmin, lmax, nil
}

func resolveWeighting(t *cell.Table, opt *Options) (Weighting, error) {
	w := opt.Weighting
	if w.Q == "" {
		// Default: mass-weighted wherever the table can resolve a mass.
		if t.Kind == cell.Grav {
			return None, nil
		}
		return Weighting{Q: vars.Mass, Unit: w.Unit}, nil
	}
	if w.Q == "none" {
		return None, nil
	}
	if _, err := vars.QuantityOf(t.Kind, w.Q); err != nil {
		return Weighting{}, fmt.Errorf("%w: unsupported weighting "+
			"quantity '%s' for %s tables", sim.ErrInvalidArgument,
			w.Q, t.Kind)
	}
	return w, nil
}

func applyRanges(t *cell.Table, opt *Options) (*cell.Table, error) {
	if opt.XRange == nil && opt.YRange == nil && opt.ZRange == nil {
		return t, nil
	}

	if badLen(opt.XRange) || badLen(opt.YRange) || badLen(opt.ZRange) {
		return nil, fmt.Errorf("%w: ranges must have exactly two "+
			"elements", sim.ErrInvalidArgument)
	}
	full := fullRange(t, opt.RangeUnit)
	box := &region.Box{
		XRange: asRange(opt.XRange, full),
		YRange: asRange(opt.YRange, full),
		ZRange: asRange(opt.ZRange, full),
	}
	return region.Subregion(t, box, &region.Options{Unit: opt.RangeUnit})
}

func fullRange(t *cell.Table, unit string) [2]float64 {
	switch unit {
	case "", "box":
		return [2]float64{0, 1}
	case "standard":
		return [2]float64{0, t.Snap.BoxLen}
	}
	f, err := t.Snap.Scale.GetUnit(sim.Length, unit)
	if err != nil {
		return [2]float64{0, 1} // Subregion re-checks the unit
	}
	return [2]float64{0, t.Snap.BoxLen * f}
}

func asRange(r []float64, full [2]float64) [2]float64 {
	if len(r) != 2 {
		return full
	}
	return [2]float64{r[0], r[1]}
}

func badLen(r []float64) bool { return r != nil && len(r) != 2 }

func applyFloor(v vars.Var, xs []float64, opt *Options) {
	floor := 0.0
	switch v {
	case vars.Rho:
		floor = opt.Smallr
	case vars.CS:
		floor = opt.Smallc
	}
	if floor <= 0 {
		return
	}
	for i := range xs {
		if xs[i] < floor {
			xs[i] = floor
		}
	}
}

func emptyMap(t *cell.Table, opt *Options) *Map {
	m := &Map{
		Maps:      make(map[vars.Var]*mat.Dense),
		Units:     make(map[vars.Var]string),
		Mode:      opt.Mode,
		Res:       opt.Res,
		Direction: opt.Direction,
		BoxLen:    t.Snap.BoxLen,
		LMin:      t.LMin,
		LMax:      t.LMax,
		Smallr:    opt.Smallr,
		Smallc:    opt.Smallc,
		Snap:      t.Snap,
	}
	if m.Direction == "" {
		m.Direction = "z"
	}
	return m
}

// extentFrom fills in the map's physical extent from the table's selection
// bounds and the resolved center.
func (m *Map) extentFrom(ranges [6]float64, uAxis, vAxis int, c [3]float64) {
	m.Extent = [4]float64{
		ranges[2*uAxis] * m.BoxLen, ranges[2*uAxis+1] * m.BoxLen,
		ranges[2*vAxis] * m.BoxLen, ranges[2*vAxis+1] * m.BoxLen,
	}
	m.Cextent = [4]float64{
		m.Extent[0] - c[uAxis]*m.BoxLen, m.Extent[1] - c[uAxis]*m.BoxLen,
		m.Extent[2] - c[vAxis]*m.BoxLen, m.Extent[3] - c[vAxis]*m.BoxLen,
	}
	width := m.Extent[1] - m.Extent[0]
	height := m.Extent[3] - m.Extent[2]
	if height > 0 {
		m.Ratio = width / height
	}
}
