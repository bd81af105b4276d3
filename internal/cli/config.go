package cli

import (
	"os"
	"path/filepath"

	"github.com/xxxsen/cen64-launcher/internal/config"
)

func defaultKeyList() []string {
	keys := []string{"./config.json"}
	if dir, err := os.UserConfigDir(); err == nil {
		keys = append(keys, filepath.Join(dir, "cen64-launcher", "config.json"))
	}
	return append(keys, "/etc/cen64-launcher.json")
}

// LoadConfig loads the explicit path or the first default location found.
// An explicit path that does not exist is an error.
func LoadConfig(explicit string) (*config.Config, error) {
	if explicit != "" {
		return config.Load(explicit)
	}
	return config.LoadFirst(defaultKeyList()...)
}
