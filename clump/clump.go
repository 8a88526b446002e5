/*package clump reads the clump catalogs written by the RAMSES clump finder
(clump_*.txt) and turns them into selection regions for the other analysis
routines.*/
package clump

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phil-mansfield/table"

	"github.com/phil-mansfield/gomera/region"
	"github.com/phil-mansfield/gomera/sim"
)

// Col indexes the columns of a RAMSES clump catalog.
type Col int

const (
	Index Col = iota
	Level
	Parent
	NCell
	PeakX
	PeakY
	PeakZ
	RhoMinus
	RhoPlus
	RhoAv
	MassCl
	Relevance
	colNum
)

// Catalog holds the properties of every clump in one catalog file, sorted
// from most to least massive. Positions and densities are in code units.
type Catalog struct {
	Index, Level, Parent, NCell []int

	PeakX, PeakY, PeakZ []float64
	RhoMin, RhoMax      []float64
	RhoAv               []float64
	Mass                []float64
	Relevance           []float64
}

// Len returns the number of clumps in the catalog.
func (cat *Catalog) Len() int { return len(cat.Mass) }

// Peak returns the density peak position of clump i in code units.
func (cat *Catalog) Peak(i int) [3]float64 {
	return [3]float64{cat.PeakX[i], cat.PeakY[i], cat.PeakZ[i]}
}

// Sphere returns a spherical region of the given radius around the density
// peak of clump i, in code units. Pass it to region.Subregion with the unit
// set to "standard".
func (cat *Catalog) Sphere(i int, radius float64) *region.Sphere {
	return &region.Sphere{Center: cat.Peak(i), Radius: radius}
}

// Read reads a clump catalog file. The clump finder writes a bare
// column-name header line which the table reader cannot parse, so data
// lines are first split off into a temporary copy.
func Read(file string) (*Catalog, error) {
	dataFile, cleanup, err := stripHeader(file)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	colIdxs := make([]int, colNum)
	for i := range colIdxs {
		colIdxs[i] = i
	}
	cols, err := table.ReadTable(dataFile, colIdxs, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse clump catalog '%s': %s",
			sim.ErrInvalidArgument, file, err.Error())
	}

	cat := &Catalog{
		Index: toInts(cols[Index]), Level: toInts(cols[Level]),
		Parent: toInts(cols[Parent]), NCell: toInts(cols[NCell]),
		PeakX: cols[PeakX], PeakY: cols[PeakY], PeakZ: cols[PeakZ],
		RhoMin: cols[RhoMinus], RhoMax: cols[RhoPlus], RhoAv: cols[RhoAv],
		Mass: cols[MassCl], Relevance: cols[Relevance],
	}
	sort.Sort(sort.Reverse(byMass{cat}))
	return cat, nil
}

// stripHeader copies the data lines of a catalog to a temporary file and
// returns its name together with a cleanup function.
func stripHeader(file string) (string, func(), error) {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return "", nil, err
	}

	lines := strings.Split(string(b), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !startsNumeric(trimmed) {
			continue
		}
		kept = append(kept, line)
	}

	fp, err := ioutil.TempFile("", filepath.Base(file))
	if err != nil {
		return "", nil, err
	}
	name := fp.Name()
	_, err = fp.WriteString(strings.Join(kept, "\n") + "\n")
	if closeErr := fp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(name)
		return "", nil, err
	}
	return name, func() { os.Remove(name) }, nil
}

func startsNumeric(line string) bool {
	c := line[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func toInts(xs []float64) []int {
	out := make([]int, len(xs))
	for i := range xs {
		out[i] = int(xs[i])
	}
	return out
}

// byMass sorts every column of a catalog simultaneously, the ascending
// counterpart of the ordering Read returns.
type byMass struct{ cat *Catalog }

func (s byMass) Len() int { return s.cat.Len() }
func (s byMass) Less(i, j int) bool {
	return s.cat.Mass[i] < s.cat.Mass[j]
}
func (s byMass) Swap(i, j int) {
	cat := s.cat
	cat.Index[i], cat.Index[j] = cat.Index[j], cat.Index[i]
	cat.Level[i], cat.Level[j] = cat.Level[j], cat.Level[i]
	cat.Parent[i], cat.Parent[j] = cat.Parent[j], cat.Parent[i]
	cat.NCell[i], cat.NCell[j] = cat.NCell[j], cat.NCell[i]
	cat.PeakX[i], cat.PeakX[j] = cat.PeakX[j], cat.PeakX[i]
	cat.PeakY[i], cat.PeakY[j] = cat.PeakY[j], cat.PeakY[i]
	cat.PeakZ[i], cat.PeakZ[j] = cat.PeakZ[j], cat.PeakZ[i]
	cat.RhoMin[i], cat.RhoMin[j] = cat.RhoMin[j], cat.RhoMin[i]
	cat.RhoMax[i], cat.RhoMax[j] = cat.RhoMax[j], cat.RhoMax[i]
	cat.RhoAv[i], cat.RhoAv[j] = cat.RhoAv[j], cat.RhoAv[i]
	cat.Mass[i], cat.Mass[j] = cat.Mass[j], cat.Mass[i]
	cat.Relevance[i], cat.Relevance[j] = cat.Relevance[j], cat.Relevance[i]
}
