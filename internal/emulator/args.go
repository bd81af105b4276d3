package emulator

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultInput is the controller profile used when none is configured.
const DefaultInput = "keyboard"

// InputProfiles are the controller profiles shipped with the emulator.
var InputProfiles = []string{"keyboard", "mayflash64", "retrolink", "wiiu", "x360"}

// ValidInput reports whether name is a known controller profile.
func ValidInput(name string) bool {
	for _, p := range InputProfiles {
		if p == name {
			return true
		}
	}
	return false
}

// SaveSettings controls where save data goes. Individual mode passes the
// explicit files; otherwise Directory (when it exists) receives one
// <base>.<md5>.eeprom/.sram pair per ROM.
type SaveSettings struct {
	Individual bool
	EEPROM     string
	SRAM       string
	Directory  string
}

// usesDirectory reports whether save files are derived from the directory.
func (s SaveSettings) usesDirectory() bool {
	if s.Individual || s.Directory == "" {
		return false
	}
	st, err := os.Stat(s.Directory)
	return err == nil && st.IsDir()
}

// BuildArgs assembles the emulator command line:
//
//	-controller <input> [-eeprom <path>] [-sram <path>] <firmware> <rom>
//
// saveBase and hash name the save files in directory mode.
func BuildArgs(settings Settings, input, romPath, saveBase, hash string) []string {
	if input == "" {
		input = DefaultInput
	}
	args := []string{"-controller", input}
	saves := settings.Saves
	switch {
	case saves.Individual:
		if saves.EEPROM != "" {
			args = append(args, "-eeprom", saves.EEPROM)
		}
		if saves.SRAM != "" {
			args = append(args, "-sram", saves.SRAM)
		}
	case saves.usesDirectory():
		stem := saveBase + "." + strings.ToLower(hash)
		args = append(args,
			"-eeprom", filepath.Join(saves.Directory, stem+".eeprom"),
			"-sram", filepath.Join(saves.Directory, stem+".sram"),
		)
	}
	return append(args, settings.Firmware, romPath)
}

func baseName(p string) string {
	b := filepath.Base(p)
	return strings.TrimSuffix(b, filepath.Ext(b))
}
