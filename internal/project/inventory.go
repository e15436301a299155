package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/slabcam/internal/model"
)

// DefaultInventoryPath returns ~/.slabcam/inventory.json.
func DefaultInventoryPath() string {
	return filepath.Join(DefaultConfigDir(), "inventory.json")
}

// SaveInventory writes the inventory as indented JSON, creating parent
// directories as needed.
func SaveInventory(path string, inv model.Inventory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadInventory reads the inventory from path. A missing file is replaced
// by the default inventory, which is saved there.
func LoadInventory(path string) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			inv := model.DefaultInventory()
			return inv, SaveInventory(path, inv)
		}
		return model.Inventory{}, err
	}
	var inv model.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return model.Inventory{}, err
	}
	return inv, nil
}

// ExportInventory writes the inventory to a user-chosen file.
func ExportInventory(path string, inv model.Inventory) error {
	return SaveInventory(path, inv)
}

// ImportInventory merges the inventory stored at path into existing.
// Entries whose ID is already present are skipped.
func ImportInventory(path string, existing model.Inventory) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported model.Inventory
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, err
	}

	existing.Tools = mergeByID(existing.Tools, imported.Tools, func(t model.ToolProfile) string { return t.ID })
	existing.Sheets = mergeByID(existing.Sheets, imported.Sheets, func(s model.StockPreset) string { return s.ID })
	existing.Boards = mergeByID(existing.Boards, imported.Boards, func(b model.BoardPreset) string { return b.ID })
	existing.AddOffcuts(imported.Offcuts)
	return existing, nil
}

func mergeByID[T any](dst, src []T, id func(T) string) []T {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[id(v)] = true
	}
	for _, v := range src {
		if !seen[id(v)] {
			dst = append(dst, v)
			seen[id(v)] = true
		}
	}
	return dst
}
