package main

import (
	"fmt"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/piwi3910/slabcam/internal/model"
	"github.com/piwi3910/slabcam/internal/nest"
	"github.com/piwi3910/slabcam/internal/project"
)

// inventoryFlags load the inventory file on first use only, so commands that
// never reference it do not create one.
type inventoryFlags struct {
	path string
	tool string
	inv  *model.Inventory
}

func (f *inventoryFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.path, "inventory", project.DefaultInventoryPath(), "inventory of tools, stock presets and offcuts")
	fs.StringVar(&f.tool, "tool", "", "tool profile from the inventory, by name or ID")
}

func (f *inventoryFlags) load() (*model.Inventory, error) {
	if f.inv != nil {
		return f.inv, nil
	}
	inv, err := project.LoadInventory(f.path)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	f.inv = &inv
	return f.inv, nil
}

func (f *inventoryFlags) save() error {
	if f.inv == nil {
		return nil
	}
	return project.SaveInventory(f.path, *f.inv)
}

// applyTool replaces the configured cutter with the --tool profile, if set.
func (f *inventoryFlags) applyTool(settings *model.JobSettings) error {
	if f.tool == "" {
		return nil
	}
	inv, err := f.load()
	if err != nil {
		return err
	}
	tp, err := inv.FindTool(f.tool)
	if err != nil {
		return err
	}
	tp.ApplyTo(settings)
	progress("using tool %s (%.3f mm)", tp.Name, tp.Diameter)
	return settings.Validate()
}

// presetSpec splits "@name:qty". The name may itself contain colons.
func presetSpec(spec string) (name string, qty int, ok bool, err error) {
	if !strings.HasPrefix(spec, "@") {
		return "", 0, false, nil
	}
	idx := strings.LastIndex(spec, ":")
	if idx < 2 {
		return "", 0, true, fmt.Errorf("invalid preset stock %q, want @name:qty", spec)
	}
	qty, err = strconv.Atoi(spec[idx+1:])
	if err != nil {
		return "", 0, true, fmt.Errorf("invalid preset stock %q: bad quantity", spec)
	}
	return spec[1:idx], qty, true, nil
}

// sheetStockParser accepts id:WxH:qty or an inventory preset as @name:qty.
func (f *inventoryFlags) sheetStockParser() func(string) (nest.SheetStock, error) {
	return func(spec string) (nest.SheetStock, error) {
		name, qty, isPreset, err := presetSpec(spec)
		if err != nil {
			return nest.SheetStock{}, err
		}
		if !isPreset {
			return parseSheetStock(spec)
		}
		inv, err := f.load()
		if err != nil {
			return nest.SheetStock{}, err
		}
		preset, err := inv.FindSheet(name)
		if err != nil {
			return nest.SheetStock{}, err
		}
		return preset.ToSheetStock(qty), nil
	}
}

// linearStockParser accepts id:length:qty or an inventory preset as @name:qty.
func (f *inventoryFlags) linearStockParser() func(string) (nest.LinearStock, error) {
	return func(spec string) (nest.LinearStock, error) {
		name, qty, isPreset, err := presetSpec(spec)
		if err != nil {
			return nest.LinearStock{}, err
		}
		if !isPreset {
			return parseLinearStock(spec)
		}
		inv, err := f.load()
		if err != nil {
			return nest.LinearStock{}, err
		}
		preset, err := inv.FindBoard(name)
		if err != nil {
			return nest.LinearStock{}, err
		}
		return preset.ToLinearStock(qty), nil
	}
}

func runInventory(args []string) error {
	fs := flag.NewFlagSet("inventory", flag.ContinueOnError)
	var invFlags inventoryFlags
	invFlags.register(fs)
	exportPath := fs.String("export", "", "write the inventory to this file")
	importPath := fs.String("import", "", "merge the inventory stored in this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	inv, err := invFlags.load()
	if err != nil {
		return err
	}
	if *importPath != "" {
		merged, err := project.ImportInventory(*importPath, *inv)
		if err != nil {
			return err
		}
		*inv = merged
		if err := invFlags.save(); err != nil {
			return err
		}
	}
	if *exportPath != "" {
		if err := project.ExportInventory(*exportPath, *inv); err != nil {
			return err
		}
	}

	fmt.Println("tools:")
	for _, t := range inv.Tools {
		fmt.Printf("  %s  %-28s %6.3f mm  F%.0f  S%.0f\n", t.ID, t.Name, t.Diameter, t.FeedRate, t.SpindleRPM)
	}
	fmt.Println("sheets:")
	for _, s := range inv.Sheets {
		fmt.Printf("  %s  %-28s %.0fx%.0f %s\n", s.ID, s.Name, s.Width, s.Height, s.Material)
	}
	fmt.Println("boards:")
	for _, b := range inv.Boards {
		fmt.Printf("  %s  %-28s %.0f %s\n", b.ID, b.Name, b.Length, b.Material)
	}
	fmt.Printf("offcuts: %d (%.0f mm²)\n", len(inv.Offcuts), model.TotalOffcutArea(inv.Offcuts))
	return nil
}
