package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/piwi3910/slabcam/internal/gcode"
)

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.BoolVarP(&verbose, "verbose", "v", false, "list every move")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one program file")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	program := string(data)
	if err := gcode.Validate(program); err != nil {
		return err
	}

	moves := gcode.ReadProgram(program)
	if verbose {
		for _, m := range moves {
			fmt.Printf("%5d %-8s %s -> %s\n", m.Line, m.Type, m.From, m.To)
		}
	}
	s := gcode.Summarize(moves)
	fmt.Printf("%s: ok, %d moves\n", fs.Arg(0), len(moves))
	for _, t := range []gcode.MoveType{gcode.MoveRapid, gcode.MoveFeed, gcode.MovePlunge, gcode.MoveRetract, gcode.MoveDwell} {
		fmt.Printf("  %-8s %d\n", t, s.Counts[t])
	}
	fmt.Printf("  rapid %.1f mm, cut %.1f mm, dwell %.2f s, Z %.3f..%.3f\n", s.RapidLength, s.CutLength, s.DwellTime, s.MinZ, s.MaxZ)
	return nil
}
