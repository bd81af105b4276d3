package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/emulator"
	"github.com/xxxsen/cen64-launcher/internal/model"
	"github.com/xxxsen/cen64-launcher/internal/view"
)

// Config describes the application level configuration loaded from json.
type Config struct {
	Paths   PathsConfig   `json:"paths"`
	Saves   SavesConfig   `json:"saves"`
	Input   string        `json:"input"`
	View    ViewConfig    `json:"view"`
	Other   OtherConfig   `json:"other"`
	Store   StoreConfig   `json:"store"`
	GamesDB GamesDBConfig `json:"gamesdb"`
	S3      S3Config      `json:"s3"`
	Log     LogConfig     `json:"log"`
}

type PathsConfig struct {
	Roms     string   `json:"roms"`
	Cen64    string   `json:"cen64"`
	PIFRom   string   `json:"pifrom"`
	Catalog  string   `json:"catalog"`
	Data     string   `json:"data"`
	Patterns []string `json:"patterns"`
}

type SavesConfig struct {
	Directory      string `json:"directory"`
	IndividualSave bool   `json:"individual_save"`
	EEPROM         string `json:"eeprom"`
	SRAM           string `json:"sram"`
}

// ViewConfig selects the layout and its per-layout settings.
type ViewConfig struct {
	Layout string      `json:"layout"`
	Table  TableConfig `json:"table"`
	Grid   GridConfig  `json:"grid"`
	List   ListConfig  `json:"list"`
}

type TableConfig struct {
	Columns       []string `json:"columns"`
	Sort          string   `json:"sort"`
	SortDirection string   `json:"sort_direction"`
}

type GridConfig struct {
	Sort          string `json:"sort"`
	SortDirection string `json:"sort_direction"`
	Label         bool   `json:"label"`
	LabelText     string `json:"label_text"`
	Columns       int    `json:"columns"`
}

type ListConfig struct {
	Columns         []string `json:"columns"`
	Sort            string   `json:"sort"`
	SortDirection   string   `json:"sort_direction"`
	FirstItemHeader bool     `json:"first_item_header"`
}

type OtherConfig struct {
	DownloadInfo  bool `json:"download_info"`
	ConsoleOutput bool `json:"console_output"`
}

// StoreConfig selects the metadata cache database. An empty DSN with the
// sqlite driver places the database under the data directory.
type StoreConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

type GamesDBConfig struct {
	Host       string `json:"host"`
	BannerHost string `json:"banner_host"`
	Platform   string `json:"platform"`
	TimeoutSec int    `json:"timeout_sec"`
}

// S3Config holds the options for accessing the object store.
type S3Config struct {
	Host            string `json:"host"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token"`
	ForcePathStyle  bool   `json:"force_path_style"`
	Prefix          string `json:"prefix"`
}

type LogConfig struct {
	File  string `json:"file"`
	Level string `json:"level"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Input: emulator.DefaultInput,
		View: ViewConfig{
			Layout: view.LayoutEmpty.String(),
			Table: TableConfig{
				Columns:       []string{"Filename", "Size"},
				Sort:          "Filename",
				SortDirection: "ascending",
			},
			Grid: GridConfig{
				Sort:          "Filename",
				SortDirection: "ascending",
				Label:         true,
				LabelText:     "Filename",
				Columns:       4,
			},
			List: ListConfig{
				Columns:         []string{"Filename", "Internal Name", "Size"},
				Sort:            "Filename",
				SortDirection:   "ascending",
				FirstItemHeader: true,
			},
		},
		Store:   StoreConfig{Driver: "sqlite"},
		GamesDB: GamesDBConfig{TimeoutSec: 30},
		Log:     LogConfig{Level: "info"},
	}
}

// LoadFirst tries to load configuration from the given paths, returning the
// first successfully decoded configuration. When none of the paths exist the
// defaults are returned.
func LoadFirst(paths ...string) (*Config, error) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		cfg, err := Load(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from a single json file path. Keys absent from
// the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate performs basic validation of the configuration.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "", "sqlite":
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("config.store.dsn must be set for postgres")
		}
	default:
		return fmt.Errorf("config.store.driver %q is not supported", c.Store.Driver)
	}
	if c.Input != "" && !emulator.ValidInput(c.Input) {
		return fmt.Errorf("config.input %q is not a known controller profile", c.Input)
	}
	if _, err := view.ParseLayout(c.View.Layout); err != nil {
		return fmt.Errorf("config.view.layout: %w", err)
	}
	if _, err := c.ViewOptions(); err != nil {
		return err
	}
	if _, err := c.SortSpec(); err != nil {
		return err
	}
	return nil
}

// DataDir returns the directory holding the database and the cache.
func (c *Config) DataDir() string {
	if c.Paths.Data != "" {
		return c.Paths.Data
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "cen64-launcher")
	}
	return filepath.Join(os.TempDir(), "cen64-launcher")
}

// CacheDir is the root of the enrichment cache.
func (c *Config) CacheDir() string {
	return filepath.Join(c.DataDir(), "cache")
}

// StoreDriver returns the configured driver, sqlite by default.
func (c *Config) StoreDriver() string {
	if c.Store.Driver == "" {
		return "sqlite"
	}
	return c.Store.Driver
}

// StoreDSN returns the data source name, defaulting sqlite to a file under
// the data directory.
func (c *Config) StoreDSN() string {
	if c.Store.DSN != "" || c.StoreDriver() != "sqlite" {
		return c.Store.DSN
	}
	return filepath.Join(c.DataDir(), "cen64-launcher.db")
}

// ScanPatterns returns the file globs considered by a scan; nil means the
// synchronizer defaults.
func (c *Config) ScanPatterns() []string {
	if len(c.Paths.Patterns) == 0 {
		return nil
	}
	return append([]string(nil), c.Paths.Patterns...)
}

// Layout returns the parsed view layout.
func (c *Config) Layout() view.Layout {
	l, _ := view.ParseLayout(c.View.Layout)
	return l
}

// ViewOptions converts the view section into render options.
func (c *Config) ViewOptions() (view.Options, error) {
	opts := view.DefaultOptions()
	opts.Layout = c.Layout()
	if len(c.View.Table.Columns) > 0 {
		cols, err := model.ParseFields(c.View.Table.Columns)
		if err != nil {
			return opts, fmt.Errorf("config.view.table.columns: %w", err)
		}
		opts.TableColumns = cols
	}
	if len(c.View.List.Columns) > 0 {
		cols, err := model.ParseFields(c.View.List.Columns)
		if err != nil {
			return opts, fmt.Errorf("config.view.list.columns: %w", err)
		}
		opts.ListColumns = cols
	}
	if c.View.Grid.LabelText != "" {
		f, err := model.ParseField(c.View.Grid.LabelText)
		if err != nil {
			return opts, fmt.Errorf("config.view.grid.label_text: %w", err)
		}
		opts.GridText = f
	}
	if c.View.Grid.Columns > 0 {
		opts.GridColumns = c.View.Grid.Columns
	}
	opts.GridLabel = c.View.Grid.Label
	opts.ListHeader = c.View.List.FirstItemHeader
	return opts, nil
}

// SortSpec returns the ordering of the active layout: grid and list views
// carry their own sort settings, every other layout uses the table's.
func (c *Config) SortSpec() (model.SortSpec, error) {
	label, dir := c.View.Table.Sort, c.View.Table.SortDirection
	switch c.Layout() {
	case view.LayoutGrid:
		label, dir = c.View.Grid.Sort, c.View.Grid.SortDirection
	case view.LayoutList:
		label, dir = c.View.List.Sort, c.View.List.SortDirection
	}
	spec, err := model.ParseSortSpec(label, dir)
	if err != nil {
		return spec, fmt.Errorf("config.view sort: %w", err)
	}
	return spec, nil
}

// Value resolves a settings key such as "Paths/roms" or "Table/columns".
// List values are joined with "|".
func (c *Config) Value(key string) (string, error) {
	b := strconv.FormatBool
	values := map[string]func() string{
		"paths/roms":           func() string { return c.Paths.Roms },
		"paths/cen64":          func() string { return c.Paths.Cen64 },
		"paths/pifrom":         func() string { return c.Paths.PIFRom },
		"paths/catalog":        func() string { return c.Paths.Catalog },
		"paths/data":           func() string { return c.DataDir() },
		"saves/directory":      func() string { return c.Saves.Directory },
		"saves/individualsave": func() string { return b(c.Saves.IndividualSave) },
		"saves/eeprom":         func() string { return c.Saves.EEPROM },
		"saves/sram":           func() string { return c.Saves.SRAM },
		"input":                func() string { return c.Input },
		"view/layout":          func() string { return c.Layout().String() },
		"table/columns":        func() string { return strings.Join(c.View.Table.Columns, "|") },
		"table/sort":           func() string { return c.View.Table.Sort },
		"table/sortdirection":  func() string { return c.View.Table.SortDirection },
		"grid/sort":            func() string { return c.View.Grid.Sort },
		"grid/sortdirection":   func() string { return c.View.Grid.SortDirection },
		"grid/label":           func() string { return b(c.View.Grid.Label) },
		"grid/labeltext":       func() string { return c.View.Grid.LabelText },
		"grid/columncount":     func() string { return strconv.Itoa(c.View.Grid.Columns) },
		"list/columns":         func() string { return strings.Join(c.View.List.Columns, "|") },
		"list/sort":            func() string { return c.View.List.Sort },
		"list/sortdirection":   func() string { return c.View.List.SortDirection },
		"list/firstitemheader": func() string { return b(c.View.List.FirstItemHeader) },
		"other/downloadinfo":   func() string { return b(c.Other.DownloadInfo) },
		"other/consoleoutput":  func() string { return b(c.Other.ConsoleOutput) },
		"store/driver":         func() string { return c.StoreDriver() },
		"store/dsn":            func() string { return c.StoreDSN() },
		"gamesdb/host":         func() string { return c.GamesDB.Host },
		"gamesdb/platform":     func() string { return c.GamesDB.Platform },
		"s3/bucket":            func() string { return c.S3.Bucket },
		"s3/host":              func() string { return c.S3.Host },
		"log/level":            func() string { return c.Log.Level },
		"log/file":             func() string { return c.Log.File },
	}
	fn, ok := values[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return fn(), nil
}

// EmulatorSettings converts the paths and saves sections for the process
// controller.
func (c *Config) EmulatorSettings() emulator.Settings {
	return emulator.Settings{
		Executable: c.Paths.Cen64,
		Firmware:   c.Paths.PIFRom,
		Input:      c.Input,
		Saves: emulator.SaveSettings{
			Individual: c.Saves.IndividualSave,
			EEPROM:     c.Saves.EEPROM,
			SRAM:       c.Saves.SRAM,
			Directory:  c.Saves.Directory,
		},
		ConsoleOutput: c.Other.ConsoleOutput,
	}
}
