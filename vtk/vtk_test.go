package vtk

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/gomera/cell"
	"github.com/phil-mansfield/gomera/project"
	"github.com/phil-mansfield/gomera/sim"
	"github.com/phil-mansfield/gomera/vars"
)

func TestWriteTable(t *testing.T) {
	snap := cell.FakeSnapshot(3, 5)
	tab := cell.FakeUniformHydro(snap, 3, 10.0, 1.5)
	path := filepath.Join(t.TempDir(), "hydro.vtk")

	err := WriteTable(path, tab, []vars.Var{vars.Rho, vars.Mass}, nil)
	require.NoError(t, err)

	text := readFile(t, path)
	lines := strings.Split(text, "\n")
	assert.Equal(t, "# vtk DataFile Version 3.0", lines[0])
	assert.Equal(t, "ASCII", lines[2])
	assert.Contains(t, text, "DATASET POLYDATA")
	assert.Contains(t, text, "POINTS 512 double")
	assert.Contains(t, text, "POINT_DATA 512")
	// Scalar arrays come out in sorted order.
	assert.Less(t, strings.Index(text, "SCALARS mass"),
		strings.Index(text, "SCALARS rho"))
}

func TestWriteTableMasked(t *testing.T) {
	snap := cell.FakeSnapshot(3, 5)
	tab := cell.FakeUniformHydro(snap, 3, 10.0, 1.5)
	mask := make([]bool, tab.Len())
	for i := 0; i < 17; i++ {
		mask[i] = true
	}
	path := filepath.Join(t.TempDir(), "masked.vtk")

	err := WriteTable(path, tab, []vars.Var{vars.Rho},
		&vars.Options{Mask: mask})
	require.NoError(t, err)

	text := readFile(t, path)
	assert.Contains(t, text, "POINTS 17 double")
	assert.Contains(t, text, "POINT_DATA 17")
}

func TestWriteTableErrors(t *testing.T) {
	snap := cell.FakeSnapshot(3, 5)
	tab := cell.FakeUniformHydro(snap, 3, 10.0, 1.5)
	path := filepath.Join(t.TempDir(), "bad.vtk")

	err := WriteTable(path, tab, []vars.Var{"banana"}, nil)
	assert.True(t, errors.Is(err, sim.ErrUnknownIdentifier))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no partial file on error")
}

func TestWriteMap(t *testing.T) {
	snap := cell.FakeSnapshot(3, 5)
	tab := cell.FakeUniformHydro(snap, 3, 10.0, 1.5)
	m, err := project.Project(tab, []vars.Var{vars.Mass},
		&project.Options{Res: 8})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "map.vtk")

	require.NoError(t, WriteMap(path, m))

	text := readFile(t, path)
	assert.Contains(t, text, "DATASET STRUCTURED_POINTS")
	assert.Contains(t, text, "DIMENSIONS 8 8 1")
	assert.Contains(t, text, "POINT_DATA 64")
	assert.Contains(t, text, "SCALARS mass double 1")

	// One value line per pixel after the lookup table line.
	idx := strings.Index(text, "LOOKUP_TABLE default\n")
	require.GreaterOrEqual(t, idx, 0)
	rest := strings.TrimRight(text[idx+len("LOOKUP_TABLE default\n"):], "\n")
	assert.Len(t, strings.Split(rest, "\n"), 64)
}

func TestWriteMapDegenerate(t *testing.T) {
	m := &project.Map{Res: 0}
	err := WriteMap(filepath.Join(t.TempDir(), "never.vtk"), m)
	assert.True(t, errors.Is(err, sim.ErrInvalidArgument))
}

func readFile(t *testing.T, path string) string {
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
