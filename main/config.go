package main

const (
	ExampleProjectFile = `[Project]

#######################
# Required Parameters #
#######################

# Input is a saved cell or particle table (see gomera's table containers).
Input = path/to/table.gom
# Output is the projection map container which will be written.
Output = path/to/map.gom

# Variables to project. Repeat the key once per variable.
Variable = mass
Variable = rho

#######################
# Optional Parameters #
#######################

# Pixels per side of the square map. Defaults to the native resolution of
# the finest level in the table.
# Res = 512

# Direction of the line of sight. Must be one of [ x | y | z ].
# Direction = z

# Aggregation mode. Must be one of [ sum | mean | max ].
# Mode = sum

# Weighting variable for mean mode, and the unit it is evaluated in.
# Weight = mass evaluated in code units is the default; "none" switches
# weighting off.
# Weight = mass
# WeightUnit = standard

# Target unit per projected variable. Give either a single unit shared by
# every variable or one Unit key per Variable key.
# Unit = Msol

# Restrict the projection to a level range.
# LMin = 6
# LMax = 10

# Spatial selection, in the unit named by RangeUnit ("box" is the default:
# fractions of the box side).
# XMin = 0.25
# XMax = 0.75
# YMin = 0.25
# YMax = 0.75
# ZMin = 0.45
# ZMax = 0.55
# RangeUnit = box

# Reference point for the map extent, in box fractions. Defaults to the
# box center.
# CenterX = 0.5
# CenterY = 0.5
# CenterZ = 0.5

# Worker goroutines used for rasterization. Defaults to one per variable
# and level.
# Threads = 8

# Density and sound speed floors in the units of the projected variable.
# Smallr = 1e-28
# Smallc = 1e3

# Extra outputs: a legacy VTK copy of the map, and a matplotlib quicklook
# script plotting profiles through the map center.
# VTKFile = path/to/map.vtk
# PlotFile = path/to/quicklook.png

# Output files which are useful for profiling and debugging. Generally,
# there isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out

# Verbose = true`
)

type SharedConfig struct {
	// Required
	Input, Output string
	// Optional
	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *SharedConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type ProjectConfig struct {
	SharedConfig

	// Required
	Variable []string

	// Optional
	Res       int
	Direction string
	Mode      string

	Weight     string
	WeightUnit string
	Unit       []string

	LMin, LMax int

	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
	RangeUnit  string

	CenterX, CenterY, CenterZ float64

	Threads        int
	Smallr, Smallc float64

	VTKFile, PlotFile string

	Verbose bool
}

type ProjectWrapper struct {
	Project ProjectConfig
}

func DefaultProjectWrapper() *ProjectWrapper {
	con := ProjectConfig{}
	con.Direction = "z"
	con.Mode = "sum"
	con.XMin, con.XMax = 0, 1
	con.YMin, con.YMax = 0, 1
	con.ZMin, con.ZMax = 0, 1
	con.RangeUnit = "box"
	con.CenterX, con.CenterY, con.CenterZ = 0.5, 0.5, 0.5
	return &ProjectWrapper{con}
}

func (con *ProjectConfig) ValidVariable() bool {
	return len(con.Variable) > 0
}
func (con *ProjectConfig) ValidRes() bool {
	return con.Res >= 0
}
func (con *ProjectConfig) ValidDirection() bool {
	switch con.Direction {
	case "x", "y", "z":
		return true
	}
	return false
}
func (con *ProjectConfig) ValidMode() bool {
	switch con.Mode {
	case "sum", "mean", "max":
		return true
	}
	return false
}
func (con *ProjectConfig) ValidUnit() bool {
	return len(con.Unit) <= 1 || len(con.Unit) == len(con.Variable)
}
func (con *ProjectConfig) ValidThreads() bool {
	return con.Threads >= 0
}
