package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/gomera/project"
	"github.com/phil-mansfield/gomera/sim"
	"github.com/phil-mansfield/gomera/snapio"
	"github.com/phil-mansfield/gomera/stats"
	"github.com/phil-mansfield/gomera/vars"
	"github.com/phil-mansfield/gomera/vtk"
)

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		projectFile, describeFile string
		exampleConfig             string
	)
	modeVars := map[string]*string{
		"Project":       &projectFile,
		"Describe":      &describeFile,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&projectFile, "Project", "",
		"Configuration file for [Project] mode.",
	)
	flag.StringVar(
		&describeFile, "Describe", "",
		"Table container whose header and contents will be printed.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. The only accepted argument is 'Project'.",
	)

	flag.Parse()

	modeName, err := getModeName(modeVars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Project":
		wrap := DefaultProjectWrapper()
		err := gcfg.ReadFileInto(wrap, projectFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		con := &wrap.Project

		if !con.ValidInput() {
			log.Fatal("Invalid/non-existent 'Input' value.")
		} else if !con.ValidOutput() {
			log.Fatal("Invalid/non-existent 'Output' value.")
		} else if !con.ValidVariable() {
			log.Fatal("Need at least one 'Variable' value.")
		} else if !con.ValidRes() {
			log.Fatal("Invalid 'Res' value.")
		} else if !con.ValidDirection() {
			log.Fatal("'Direction' must be one of [ x | y | z ].")
		} else if !con.ValidMode() {
			log.Fatal("'Mode' must be one of [ sum | mean | max ].")
		} else if !con.ValidUnit() {
			log.Fatal("Give either one 'Unit' value or one per 'Variable'.")
		} else if !con.ValidThreads() {
			log.Fatal("Invalid 'Threads' value.")
		}

		projectMain(con)
	case "Describe":
		describeMain(describeFile)
	case "ExampleConfig":
		switch exampleConfig {
		case "Project":
			fmt.Println(ExampleProjectFile)
		default:
			log.Fatal("Unrecognized 'ExampleConfig' argument. The only " +
				"recognized argument is 'Project'.")
		}
	default:
		panic("Impossible")
	}
}

func getModeName(modeVars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range modeVars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but gomera only accepts "+
				"one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func setupIO(con *SharedConfig) *FileGroup {
	fg := &FileGroup{}
	var err error

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}

func projectMain(con *ProjectConfig) {
	fg := setupIO(&con.SharedConfig)
	defer fg.Close()

	log.Printf("Reading table from %s", con.Input)
	tab, err := snapio.ReadTable(con.Input)
	if err != nil {
		log.Fatal(err.Error())
	}

	vs := make([]vars.Var, len(con.Variable))
	for i := range vs {
		vs[i] = vars.Var(con.Variable[i])
	}

	opt := &project.Options{
		Res:       con.Res,
		Direction: con.Direction,
		Mode:      parseMode(con.Mode),
		Units:     con.Unit,
		LMin:      con.LMin, LMax: con.LMax,
		XRange:    []float64{con.XMin, con.XMax},
		YRange:    []float64{con.YMin, con.YMax},
		ZRange:    []float64{con.ZMin, con.ZMax},
		RangeUnit: con.RangeUnit,
		Center:    []float64{con.CenterX, con.CenterY, con.CenterZ},
		Threads:   con.Threads,
		Smallr:    con.Smallr, Smallc: con.Smallc,
		Config: sim.RunConfig{Verbose: con.Verbose},
	}
	if con.Res == 0 {
		opt.Res = 1 << uint(tab.LMax)
	}
	if con.Weight != "" {
		opt.Weighting = project.Weighting{
			Q: vars.Var(con.Weight), Unit: con.WeightUnit,
		}
	}

	log.Printf("Projecting %d variables onto a %d^2 grid", len(vs), opt.Res)
	m, err := project.Project(tab, vs, opt)
	if err != nil {
		log.Fatal(err.Error())
	}

	log.Printf("Writing map to %s", con.Output)
	if err := snapio.WriteMap(con.Output, m); err != nil {
		log.Fatal(err.Error())
	}

	if con.VTKFile != "" {
		log.Printf("Writing VTK copy to %s", con.VTKFile)
		if err := vtk.WriteMap(con.VTKFile, m); err != nil {
			log.Fatal(err.Error())
		}
	}
	if con.PlotFile != "" {
		log.Printf("Writing quicklook to %s", con.PlotFile)
		quicklook(m, con.PlotFile)
	}
}

func parseMode(name string) project.Mode {
	switch name {
	case "mean":
		return project.Mean
	case "max":
		return project.Max
	}
	return project.Sum
}

func describeMain(file string) {
	tab, err := snapio.ReadTable(file)
	if err != nil {
		log.Fatal(err.Error())
	}
	snap := tab.Snap

	fmt.Printf("output %d (%s)\n", snap.Output, snap.Path)
	fmt.Printf("boxlen: %g code units (%g kpc)\n",
		snap.BoxLen, snap.BoxLen*snap.Scale.L/sim.CmPerPc/1000)
	fmt.Printf("time: %g  aexp: %g  gamma: %g\n",
		snap.Time, snap.Aexp, snap.Gamma)
	fmt.Printf("levels: %d - %d (selected: %d - %d)\n",
		snap.LevelMin, snap.LevelMax, tab.LMin, tab.LMax)

	fmt.Printf("\n%s table: %d rows\n", tab.Kind, tab.Len())
	fmt.Printf("selection: x in [%.4g, %.4g], y in [%.4g, %.4g], "+
		"z in [%.4g, %.4g]\n", tab.Ranges[0], tab.Ranges[1],
		tab.Ranges[2], tab.Ranges[3], tab.Ranges[4], tab.Ranges[5])
	fmt.Printf("columns: %s\n", strings.Join(tab.Names(), ", "))

	known := vars.Known(tab.Kind)
	names := make([]string, len(known))
	for i := range known {
		names[i] = string(known[i])
	}
	fmt.Printf("variables: %s\n", strings.Join(names, ", "))

	if mtot, err := stats.Msum(tab, "Msol", nil); err == nil {
		fmt.Printf("total mass: %.6g Msol\n", mtot)
	}
	if com, err := stats.CenterOfMass(tab, "kpc", nil); err == nil {
		fmt.Printf("center of mass: (%.6g, %.6g, %.6g) kpc\n",
			com[0], com[1], com[2])
	}
}
