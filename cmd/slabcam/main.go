// slabcam plans CNC router toolpaths, posts GRBL G-code and nests parts onto
// boards and sheets.
//
// Usage:
//
//	slabcam demo [-o path]
//	slabcam cam --dxf part.dxf [--config settings.yaml] [-o dir]
//	slabcam nest-linear --csv rails.csv --stock rail:2400:3 [--stock ...]
//	slabcam nest-sheet --csv parts.csv --stock ply:2440x1220:2 [--strategy compare] [--pdf out.pdf]
//	slabcam inventory [--import file] [--export file]
//	slabcam validate program.nc
package main

import (
	"fmt"
	"log"
	"os"
)

type command struct {
	name    string
	summary string
	run     func(args []string) error
}

var commands = []command{
	{"demo", "post the reference contour job and write it to disk", runDemo},
	{"cam", "import a DXF and post contour and drill programs", runCam},
	{"nest-linear", "nest a cut list onto boards", runNestLinear},
	{"nest-sheet", "nest a cut list onto sheets", runNestSheet},
	{"inventory", "list, import or export the tool and stock inventory", runInventory},
	{"validate", "validate a G-code program and print move statistics", runValidate},
}

var verbose bool

// progress logs only when -v is set.
func progress(format string, args ...interface{}) {
	if verbose {
		log.Printf(format, args...)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <command> [flags]\n\ncommands:\n", os.Args[0])
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", c.name, c.summary)
	}
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("slabcam: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(os.Args[2:]); err != nil {
			log.Fatalf("%s: %s", name, err)
		}
		return
	}

	if name == "-h" || name == "--help" || name == "help" {
		usage()
		return
	}
	usage()
	log.Fatalf("unknown command %q", name)
}
