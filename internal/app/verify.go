package app

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/archive"
	"github.com/xxxsen/cen64-launcher/internal/dat"
	"github.com/xxxsen/cen64-launcher/internal/rom"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// VerifyCommand checks ROM files or archive members against a No-Intro DAT.
type VerifyCommand struct {
	datPath  string
	filePath string
}

func NewVerifyCommand() *VerifyCommand {
	return &VerifyCommand{}
}

func (c *VerifyCommand) Name() string { return "verify" }

func (c *VerifyCommand) Desc() string {
	return "Check a ROM file or archive against a DAT file"
}

func (c *VerifyCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.datPath, "dat", "", "DAT file, defaults to paths.catalog when it is a .dat/.xml")
	f.StringVar(&c.filePath, "file", "", "ROM file or archive to verify")
}

func (c *VerifyCommand) PreRun(ctx context.Context, env *Env) error {
	if strings.TrimSpace(c.datPath) == "" {
		switch strings.ToLower(filepath.Ext(env.Config.Paths.Catalog)) {
		case ".dat", ".xml":
			c.datPath = env.Config.Paths.Catalog
		}
	}
	if strings.TrimSpace(c.datPath) == "" {
		return errors.New("verify requires --dat")
	}
	if strings.TrimSpace(c.filePath) == "" {
		return errors.New("verify requires --file")
	}
	logutil.GetLogger(ctx).Info("starting verify",
		zap.String("dat", c.datPath),
		zap.String("file", c.filePath),
	)
	return nil
}

func (c *VerifyCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)

	df, err := dat.NewParser().ParseFile(c.datPath)
	if err != nil {
		return err
	}
	items, err := loadVerifyItems(c.filePath)
	if err != nil {
		return err
	}

	issues := verifyRoms(df.IndexByMD5(), items)
	if len(issues) == 0 {
		logger.Info("rom check passed",
			zap.Int("rom_count", len(items)),
			zap.String("file", c.filePath),
		)
		return nil
	}

	for _, issue := range issues {
		logger.Error("rom check failed", zap.String("issue", issue))
	}
	return fmt.Errorf("rom check found %d issue(s) in %s", len(issues), c.filePath)
}

func (c *VerifyCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("verify", func() IRunner { return NewVerifyCommand() })
}

type verifyItem struct {
	Name string
	Data []byte
}

// loadVerifyItems reads a plain ROM file or every ROM member of an archive.
func loadVerifyItems(path string) ([]verifyItem, error) {
	if !archive.IsArchiveName(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rom %s: %w", path, err)
		}
		return []verifyItem{{Name: filepath.Base(path), Data: data}}, nil
	}
	r, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var items []verifyItem
	for _, e := range r.ROMEntries() {
		data, err := r.ReadEntry(e.Name)
		if err != nil {
			return nil, err
		}
		items = append(items, verifyItem{Name: e.Name, Data: data})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no rom entries in %s", path)
	}
	return items, nil
}

// verifyRoms compares items against DAT entries keyed by uppercase MD5.
func verifyRoms(index map[string]dat.RomRef, items []verifyItem) []string {
	var issues []string
	for _, it := range items {
		id, err := rom.Identify(it.Data)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: %v", it.Name, err))
			continue
		}
		ref, ok := index[strings.ToUpper(id.Hash)]
		if !ok {
			issues = append(issues, fmt.Sprintf("%s: md5 %s not in dat", it.Name, id.Hash))
			continue
		}
		issues = append(issues, checkRom(it, *ref.Rom)...)
	}
	return issues
}

func checkRom(it verifyItem, want dat.Rom) []string {
	var issues []string
	if want.Size > 0 && int64(len(it.Data)) != want.Size {
		issues = append(issues, fmt.Sprintf("size mismatch for %s: expected %d, got %d", it.Name, want.Size, len(it.Data)))
	}
	if want.CRC != "" {
		crc := fmt.Sprintf("%08x", crc32.ChecksumIEEE(it.Data))
		if !strings.EqualFold(crc, want.CRC) {
			issues = append(issues, fmt.Sprintf("crc mismatch for %s: expected %s, got %s", it.Name, want.CRC, crc))
		}
	}
	return issues
}
