/*package snapio saves tables and projection maps to disk in a compact
binary container and loads them back. Column and pixel data is compressed
with zstd, so saved intermediates take a fraction of the memory-resident
size while round-tripping bit-for-bit.*/
package snapio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/DataDog/zstd"
	"gonum.org/v1/gonum/mat"

	"github.com/phil-mansfield/gomera/cell"
	"github.com/phil-mansfield/gomera/project"
	"github.com/phil-mansfield/gomera/sim"
	"github.com/phil-mansfield/gomera/vars"
)

const (
	// MagicNumber identifies gomera container files, so running the code
	// on something else by accident fails loudly instead of decoding
	// garbage.
	MagicNumber = uint32(0x676d7261)
	Version     = uint32(1)

	mapFlag   = uint32(0)
	tableFlag = uint32(1)

	// zstd level 1 is within a few percent of the higher levels on
	// floating point columns and much faster.
	compressionLevel = 1

	// Caps on the length prefixes read back from containers. A truncated
	// or corrupted file then fails with an error instead of an attempted
	// multi-gigabyte allocation.
	maxStringLen = 1 << 16
	maxListLen   = 1 << 16
	maxBlockLen  = 1 << 31
)

var order = binary.LittleEndian

// WriteTable saves a table, including the snapshot header it was derived
// from, to the given path.
func WriteTable(path string, t *cell.Table) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fp.Close()

	if err := writeFileHeader(fp, tableFlag); err != nil {
		return err
	}
	if err := writeSnapshot(fp, t.Snap); err != nil {
		return err
	}

	hd := struct {
		Kind, LMin, LMax, N int64
		Ranges              [6]float64
	}{int64(t.Kind), int64(t.LMin), int64(t.LMax), int64(t.Len()),
		t.Ranges}
	if err := binary.Write(fp, order, hd); err != nil {
		return err
	}

	if t.Kind == cell.Parts {
		for _, xs := range [][]float64{t.X, t.Y, t.Z} {
			if err := writeFloats(fp, xs); err != nil {
				return err
			}
		}
	} else {
		for _, cs := range [][]int32{t.Level, t.CX, t.CY, t.CZ} {
			if err := writeInts(fp, cs); err != nil {
				return err
			}
		}
	}

	names := t.Names()
	if err := binary.Write(fp, order, int64(len(names))); err != nil {
		return err
	}
	for _, name := range names {
		col, _ := t.Col(name)
		if err := writeString(fp, name); err != nil {
			return err
		}
		if err := writeFloats(fp, col); err != nil {
			return err
		}
	}
	return nil
}

// ReadTable loads a table saved by WriteTable. The returned table carries a
// freshly reconstructed Snapshot.
func ReadTable(path string) (*cell.Table, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	if err := readFileHeader(fp, tableFlag, path); err != nil {
		return nil, err
	}
	snap, err := readSnapshot(fp)
	if err != nil {
		return nil, err
	}

	hd := struct {
		Kind, LMin, LMax, N int64
		Ranges              [6]float64
	}{}
	if err := binary.Read(fp, order, &hd); err != nil {
		return nil, err
	}
	if hd.N < 0 {
		return nil, fmt.Errorf("%w: '%s' claims %d rows",
			sim.ErrInvalidArgument, path, hd.N)
	}
	n := int(hd.N)

	var t *cell.Table
	kind := cell.Kind(hd.Kind)
	if kind == cell.Parts {
		pos := [3][]float64{}
		for i := range pos {
			if pos[i], err = readFloats(fp, n); err != nil {
				return nil, err
			}
		}
		cols, err := readColumns(fp)
		if err != nil {
			return nil, err
		}
		t, err = cell.NewParts(snap, pos[0], pos[1], pos[2], cols)
		if err != nil {
			return nil, err
		}
	} else {
		grid := [4][]int32{}
		for i := range grid {
			if grid[i], err = readInts(fp, n); err != nil {
				return nil, err
			}
		}
		cols, err := readColumns(fp)
		if err != nil {
			return nil, err
		}
		switch kind {
		case cell.Hydro:
			t, err = cell.NewHydro(snap,
				grid[0], grid[1], grid[2], grid[3], cols)
		case cell.Grav:
			t, err = cell.NewGrav(snap,
				grid[0], grid[1], grid[2], grid[3], cols)
		default:
			return nil, fmt.Errorf("%w: '%s' stores unknown table kind %d",
				sim.ErrInvalidArgument, path, hd.Kind)
		}
		if err != nil {
			return nil, err
		}
	}

	t.LMin, t.LMax = int(hd.LMin), int(hd.LMax)
	t.Ranges = hd.Ranges
	return t, nil
}

// WriteMap saves a projection map, including the snapshot header it was
// derived from, to the given path.
func WriteMap(path string, m *project.Map) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fp.Close()

	if err := writeFileHeader(fp, mapFlag); err != nil {
		return err
	}
	if err := writeSnapshot(fp, m.Snap); err != nil {
		return err
	}

	if err := writeString(fp, m.Direction); err != nil {
		return err
	}
	if err := writeString(fp, string(m.Weighting.Q)); err != nil {
		return err
	}
	if err := writeString(fp, m.Weighting.Unit); err != nil {
		return err
	}
	hd := struct {
		Mode, Res, LMin, LMax int64
		Extent, Cextent       [4]float64
		Ratio, BoxLen         float64
		Smallr, Smallc        float64
	}{int64(m.Mode), int64(m.Res), int64(m.LMin), int64(m.LMax),
		m.Extent, m.Cextent, m.Ratio, m.BoxLen, m.Smallr, m.Smallc}
	if err := binary.Write(fp, order, hd); err != nil {
		return err
	}

	names := make([]vars.Var, 0, len(m.Maps))
	for v := range m.Maps {
		names = append(names, v)
	}
	sortVars(names)
	if err := binary.Write(fp, order, int64(len(names))); err != nil {
		return err
	}
	for _, v := range names {
		if err := writeString(fp, string(v)); err != nil {
			return err
		}
		if err := writeString(fp, m.Units[v]); err != nil {
			return err
		}
		raw := m.Maps[v].RawMatrix()
		if err := writeFloats(fp, raw.Data); err != nil {
			return err
		}
	}
	return nil
}

// ReadMap loads a projection map saved by WriteMap.
func ReadMap(path string) (*project.Map, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	if err := readFileHeader(fp, mapFlag, path); err != nil {
		return nil, err
	}
	snap, err := readSnapshot(fp)
	if err != nil {
		return nil, err
	}

	direction, err := readString(fp)
	if err != nil {
		return nil, err
	}
	wq, err := readString(fp)
	if err != nil {
		return nil, err
	}
	wUnit, err := readString(fp)
	if err != nil {
		return nil, err
	}
	hd := struct {
		Mode, Res, LMin, LMax int64
		Extent, Cextent       [4]float64
		Ratio, BoxLen         float64
		Smallr, Smallc        float64
	}{}
	if err := binary.Read(fp, order, &hd); err != nil {
		return nil, err
	}
	if hd.Res < 0 {
		return nil, fmt.Errorf("%w: '%s' claims a %d pixel resolution",
			sim.ErrInvalidArgument, path, hd.Res)
	}

	m := &project.Map{
		Maps: map[vars.Var]*mat.Dense{}, Units: map[vars.Var]string{},
		Mode: project.Mode(hd.Mode), Res: int(hd.Res),
		Weighting: project.Weighting{Q: vars.Var(wq), Unit: wUnit},
		Direction: direction,
		Extent:    hd.Extent, Cextent: hd.Cextent, Ratio: hd.Ratio,
		BoxLen: hd.BoxLen, LMin: int(hd.LMin), LMax: int(hd.LMax),
		Smallr: hd.Smallr, Smallc: hd.Smallc,
		Snap: snap,
	}

	nVars, err := readLen(fp, maxListLen)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < nVars; i++ {
		name, err := readString(fp)
		if err != nil {
			return nil, err
		}
		unit, err := readString(fp)
		if err != nil {
			return nil, err
		}
		data, err := readFloats(fp, m.Res*m.Res)
		if err != nil {
			return nil, err
		}
		if m.Res > 0 {
			m.Maps[vars.Var(name)] = mat.NewDense(m.Res, m.Res, data)
		} else {
			m.Maps[vars.Var(name)] = &mat.Dense{}
		}
		m.Units[vars.Var(name)] = unit
	}
	return m, nil
}

func writeFileHeader(wr io.Writer, kind uint32) error {
	for _, x := range []uint32{MagicNumber, Version, kind} {
		if err := binary.Write(wr, order, x); err != nil {
			return err
		}
	}
	return nil
}

func readFileHeader(rd io.Reader, kind uint32, path string) error {
	hd := [3]uint32{}
	if err := binary.Read(rd, order, &hd); err != nil {
		return err
	}
	if hd[0] != MagicNumber {
		return fmt.Errorf("%w: '%s' is not a gomera container file "+
			"(magic number 0x%x)", sim.ErrInvalidArgument, path, hd[0])
	}
	if hd[1] != Version {
		return fmt.Errorf("%w: '%s' has file version %d, but this build "+
			"reads version %d", sim.ErrInvalidArgument, path, hd[1], Version)
	}
	if hd[2] != kind {
		return fmt.Errorf("%w: '%s' stores content type %d, not %d",
			sim.ErrInvalidArgument, path, hd[2], kind)
	}
	return nil
}

func writeSnapshot(wr io.Writer, snap *sim.Snapshot) error {
	hd := struct {
		Output, NDim, LevelMin, LevelMax      int64
		BoxLen, Time, Aexp, Gamma             float64
		L, T, D                               float64
		Hydro, Parts, Grav, RT, Clumps, Sinks bool
	}{int64(snap.Output), int64(snap.NDim),
		int64(snap.LevelMin), int64(snap.LevelMax),
		snap.BoxLen, snap.Time, snap.Aexp, snap.Gamma,
		snap.Scale.L, snap.Scale.T, snap.Scale.D,
		snap.Hydro, snap.Parts, snap.Grav,
		snap.RT, snap.Clumps, snap.Sinks}
	if err := binary.Write(wr, order, hd); err != nil {
		return err
	}
	if err := writeString(wr, snap.Path); err != nil {
		return err
	}
	for _, names := range [][]string{
		snap.HydroVars, snap.PartVars, snap.GravVars,
	} {
		if err := writeStrings(wr, names); err != nil {
			return err
		}
	}
	return nil
}

func readSnapshot(rd io.Reader) (*sim.Snapshot, error) {
	hd := struct {
		Output, NDim, LevelMin, LevelMax      int64
		BoxLen, Time, Aexp, Gamma             float64
		L, T, D                               float64
		Hydro, Parts, Grav, RT, Clumps, Sinks bool
	}{}
	if err := binary.Read(rd, order, &hd); err != nil {
		return nil, err
	}
	path, err := readString(rd)
	if err != nil {
		return nil, err
	}
	snap := &sim.Snapshot{
		Output: int(hd.Output), Path: path,
		NDim:     int(hd.NDim),
		LevelMin: int(hd.LevelMin), LevelMax: int(hd.LevelMax),
		BoxLen: hd.BoxLen, Time: hd.Time, Aexp: hd.Aexp, Gamma: hd.Gamma,
		Scale: sim.ScaleTable{L: hd.L, T: hd.T, D: hd.D},
		Hydro: hd.Hydro, Parts: hd.Parts, Grav: hd.Grav,
		RT: hd.RT, Clumps: hd.Clumps, Sinks: hd.Sinks,
	}
	if snap.HydroVars, err = readStrings(rd); err != nil {
		return nil, err
	}
	if snap.PartVars, err = readStrings(rd); err != nil {
		return nil, err
	}
	if snap.GravVars, err = readStrings(rd); err != nil {
		return nil, err
	}
	return snap, snap.Validate()
}

func writeString(wr io.Writer, s string) error {
	if err := binary.Write(wr, order, int64(len(s))); err != nil {
		return err
	}
	_, err := wr.Write([]byte(s))
	return err
}

func readString(rd io.Reader) (string, error) {
	n, err := readLen(rd, maxStringLen)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rd, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeStrings(wr io.Writer, names []string) error {
	if err := binary.Write(wr, order, int64(len(names))); err != nil {
		return err
	}
	for _, name := range names {
		if err := writeString(wr, name); err != nil {
			return err
		}
	}
	return nil
}

func readStrings(rd io.Reader) ([]string, error) {
	n, err := readLen(rd, maxListLen)
	if err != nil {
		return nil, err
	}
	names := make([]string, n)
	for i := range names {
		var err error
		if names[i], err = readString(rd); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// writeFloats compresses a float column and writes it as a single block:
// the compressed byte count followed by the zstd frame.
func writeFloats(wr io.Writer, xs []float64) error {
	b := make([]byte, 8*len(xs))
	for i := range xs {
		order.PutUint64(b[8*i:], math.Float64bits(xs[i]))
	}
	return writeBlock(wr, b)
}

func readFloats(rd io.Reader, n int) ([]float64, error) {
	b, err := readBlock(rd, 8*n)
	if err != nil {
		return nil, err
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = math.Float64frombits(order.Uint64(b[8*i:]))
	}
	return xs, nil
}

func writeInts(wr io.Writer, cs []int32) error {
	b := make([]byte, 4*len(cs))
	for i := range cs {
		order.PutUint32(b[4*i:], uint32(cs[i]))
	}
	return writeBlock(wr, b)
}

func readInts(rd io.Reader, n int) ([]int32, error) {
	b, err := readBlock(rd, 4*n)
	if err != nil {
		return nil, err
	}
	cs := make([]int32, n)
	for i := range cs {
		cs[i] = int32(order.Uint32(b[4*i:]))
	}
	return cs, nil
}

// readLen reads an int64 length prefix and rejects values no well-formed
// container can hold before anything is allocated from them.
func readLen(rd io.Reader, max int64) (int64, error) {
	n := int64(0)
	if err := binary.Read(rd, order, &n); err != nil {
		return 0, err
	}
	if n < 0 || n > max {
		return 0, fmt.Errorf("%w: length prefix %d is outside [0, %d]",
			sim.ErrInvalidArgument, n, max)
	}
	return n, nil
}

func writeBlock(wr io.Writer, b []byte) error {
	buf, err := zstd.CompressLevel(nil, b, compressionLevel)
	if err != nil {
		return err
	}
	if err := binary.Write(wr, order, int64(len(buf))); err != nil {
		return err
	}
	_, err = wr.Write(buf)
	return err
}

func readBlock(rd io.Reader, n int) ([]byte, error) {
	// zstd only ever expands a block by a small header margin.
	nBuf, err := readLen(rd, int64(n)+int64(n)>>8+512)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, nBuf)
	if _, err := io.ReadFull(rd, buf); err != nil {
		return nil, err
	}
	b, err := zstd.Decompress(make([]byte, n), buf)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("%w: compressed block decodes to %d bytes, "+
			"but %d were expected", sim.ErrInvalidArgument, len(b), n)
	}
	return b, nil
}

func readColumns(rd io.Reader) (map[string][]float64, error) {
	nCols, err := readLen(rd, maxListLen)
	if err != nil {
		return nil, err
	}
	// Column lengths are checked against the row count by the table
	// constructor.
	cols := make(map[string][]float64, nCols)
	for i := int64(0); i < nCols; i++ {
		name, err := readString(rd)
		if err != nil {
			return nil, err
		}
		col, err := readFloatsUnsized(rd)
		if err != nil {
			return nil, err
		}
		cols[name] = col
	}
	return cols, nil
}

func readFloatsUnsized(rd io.Reader) ([]float64, error) {
	nBuf, err := readLen(rd, maxBlockLen)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, nBuf)
	if _, err := io.ReadFull(rd, buf); err != nil {
		return nil, err
	}
	b, err := zstd.Decompress(nil, buf)
	if err != nil {
		return nil, err
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("%w: compressed column decodes to %d "+
			"bytes, which is not a whole number of float64s",
			sim.ErrInvalidArgument, len(b))
	}
	xs := make([]float64, len(b)/8)
	for i := range xs {
		xs[i] = math.Float64frombits(order.Uint64(b[8*i:]))
	}
	return xs, nil
}

func sortVars(vs []vars.Var) {
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
}
