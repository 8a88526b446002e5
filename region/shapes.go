package region

import (
	"fmt"

	"github.com/phil-mansfield/gomera/sim"
)

// Box is an axis-aligned box given by per-axis (min, max) ranges.
type Box struct {
	XRange, YRange, ZRange [2]float64
}

func (b *Box) check() error {
	ranges := [3][2]float64{b.XRange, b.YRange, b.ZRange}
	axes := "xyz"
	for dim, r := range ranges {
		if r[0] > r[1] {
			return fmt.Errorf("%w: %crange has min = %g larger than "+
				"max = %g", sim.ErrInvalidArgument, axes[dim], r[0], r[1])
		}
	}
	return nil
}

func (b *Box) norm(s float64) normShape {
	return &Box{
		XRange: [2]float64{b.XRange[0] * s, b.XRange[1] * s},
		YRange: [2]float64{b.YRange[0] * s, b.YRange[1] * s},
		ZRange: [2]float64{b.ZRange[0] * s, b.ZRange[1] * s},
	}
}

func (b *Box) contains(x, y, z float64) bool {
	return x >= b.XRange[0] && x <= b.XRange[1] &&
		y >= b.YRange[0] && y <= b.YRange[1] &&
		z >= b.ZRange[0] && z <= b.ZRange[1]
}

func (b *Box) bounds() [6]float64 {
	return clamp01([6]float64{
		b.XRange[0], b.XRange[1],
		b.YRange[0], b.YRange[1],
		b.ZRange[0], b.ZRange[1],
	})
}

// Sphere is a filled sphere around Center. Center components may be the
// vars.BoxCenter sentinel.
type Sphere struct {
	Center [3]float64
	Radius float64
}

func (sp *Sphere) check() error {
	if sp.Radius < 0 {
		return fmt.Errorf("%w: sphere radius is negative (%g)",
			sim.ErrInvalidArgument, sp.Radius)
	}
	return nil
}

func (sp *Sphere) norm(s float64) normShape {
	return &Sphere{scaleCenter(sp.Center, s), sp.Radius * s}
}

func (sp *Sphere) contains(x, y, z float64) bool {
	dx, dy, dz := x-sp.Center[0], y-sp.Center[1], z-sp.Center[2]
	return dx*dx+dy*dy+dz*dz <= sp.Radius*sp.Radius
}

func (sp *Sphere) bounds() [6]float64 {
	return clamp01([6]float64{
		sp.Center[0] - sp.Radius, sp.Center[0] + sp.Radius,
		sp.Center[1] - sp.Radius, sp.Center[1] + sp.Radius,
		sp.Center[2] - sp.Radius, sp.Center[2] + sp.Radius,
	})
}

// Cylinder is a filled cylinder with its axis along z, a total Height
// centered on Center[2], and the given Radius in the x-y plane.
type Cylinder struct {
	Center [3]float64
	Radius float64
	Height float64
}

func (c *Cylinder) check() error {
	if c.Radius < 0 {
		return fmt.Errorf("%w: cylinder radius is negative (%g)",
			sim.ErrInvalidArgument, c.Radius)
	}
	if c.Height < 0 {
		return fmt.Errorf("%w: cylinder height is negative (%g)",
			sim.ErrInvalidArgument, c.Height)
	}
	return nil
}

func (c *Cylinder) norm(s float64) normShape {
	return &Cylinder{scaleCenter(c.Center, s), c.Radius * s, c.Height * s}
}

func (c *Cylinder) contains(x, y, z float64) bool {
	dx, dy := x-c.Center[0], y-c.Center[1]
	if dx*dx+dy*dy > c.Radius*c.Radius {
		return false
	}
	dz := z - c.Center[2]
	return dz >= -c.Height/2 && dz <= c.Height/2
}

func (c *Cylinder) bounds() [6]float64 {
	return clamp01([6]float64{
		c.Center[0] - c.Radius, c.Center[0] + c.Radius,
		c.Center[1] - c.Radius, c.Center[1] + c.Radius,
		c.Center[2] - c.Height/2, c.Center[2] + c.Height/2,
	})
}

// SphereShell is the volume between two concentric spheres.
type SphereShell struct {
	Center   [3]float64
	RIn, ROut float64
}

func (sh *SphereShell) check() error {
	if sh.RIn < 0 || sh.ROut < 0 {
		return fmt.Errorf("%w: shell radii must not be negative, but "+
			"are [%g, %g]", sim.ErrInvalidArgument, sh.RIn, sh.ROut)
	}
	if sh.RIn >= sh.ROut {
		return fmt.Errorf("%w: shell inner radius %g is not smaller "+
			"than its outer radius %g", sim.ErrInvalidArgument,
			sh.RIn, sh.ROut)
	}
	return nil
}

func (sh *SphereShell) norm(s float64) normShape {
	return &SphereShell{scaleCenter(sh.Center, s), sh.RIn * s, sh.ROut * s}
}

func (sh *SphereShell) contains(x, y, z float64) bool {
	dx, dy, dz := x-sh.Center[0], y-sh.Center[1], z-sh.Center[2]
	r2 := dx*dx + dy*dy + dz*dz
	return r2 >= sh.RIn*sh.RIn && r2 <= sh.ROut*sh.ROut
}

func (sh *SphereShell) bounds() [6]float64 {
	return clamp01([6]float64{
		sh.Center[0] - sh.ROut, sh.Center[0] + sh.ROut,
		sh.Center[1] - sh.ROut, sh.Center[1] + sh.ROut,
		sh.Center[2] - sh.ROut, sh.Center[2] + sh.ROut,
	})
}

// CylinderShell is the volume between two concentric cylinders with their
// axis along z.
type CylinderShell struct {
	Center    [3]float64
	RIn, ROut float64
	Height    float64
}

func (sh *CylinderShell) check() error {
	if sh.RIn < 0 || sh.ROut < 0 {
		return fmt.Errorf("%w: shell radii must not be negative, but "+
			"are [%g, %g]", sim.ErrInvalidArgument, sh.RIn, sh.ROut)
	}
	if sh.RIn >= sh.ROut {
		return fmt.Errorf("%w: shell inner radius %g is not smaller "+
			"than its outer radius %g", sim.ErrInvalidArgument,
			sh.RIn, sh.ROut)
	}
	if sh.Height < 0 {
		return fmt.Errorf("%w: shell height is negative (%g)",
			sim.ErrInvalidArgument, sh.Height)
	}
	return nil
}

func (sh *CylinderShell) norm(s float64) normShape {
	return &CylinderShell{
		scaleCenter(sh.Center, s), sh.RIn * s, sh.ROut * s, sh.Height * s,
	}
}

func (sh *CylinderShell) contains(x, y, z float64) bool {
	dx, dy := x-sh.Center[0], y-sh.Center[1]
	r2 := dx*dx + dy*dy
	if r2 < sh.RIn*sh.RIn || r2 > sh.ROut*sh.ROut {
		return false
	}
	dz := z - sh.Center[2]
	return dz >= -sh.Height/2 && dz <= sh.Height/2
}

func (sh *CylinderShell) bounds() [6]float64 {
	return clamp01([6]float64{
		sh.Center[0] - sh.ROut, sh.Center[0] + sh.ROut,
		sh.Center[1] - sh.ROut, sh.Center[1] + sh.ROut,
		sh.Center[2] - sh.Height/2, sh.Center[2] + sh.Height/2,
	})
}
