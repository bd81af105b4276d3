package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/model"

	"github.com/spf13/pflag"
)

var catalogFields = []model.Field{
	model.FieldGoodName, model.FieldMD5, model.FieldInternalName,
	model.FieldCRC1, model.FieldCRC2, model.FieldPlayers,
	model.FieldSaveType, model.FieldRumble,
}

// CatalogCommand prints the catalog entry of a hash or ROM file.
type CatalogCommand struct {
	env  *Env
	hash string
	file string
}

func (c *CatalogCommand) Name() string { return "catalog" }

func (c *CatalogCommand) Desc() string {
	return "Look a ROM up in the catalog file"
}

func NewCatalogCommand() *CatalogCommand { return &CatalogCommand{} }

func (c *CatalogCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.hash, "hash", "", "MD5 to look up")
	f.StringVar(&c.file, "file", "", "ROM file to identify and look up")
}

func (c *CatalogCommand) PreRun(ctx context.Context, env *Env) error {
	c.env = env
	if strings.TrimSpace(c.hash) == "" && strings.TrimSpace(c.file) == "" {
		return errors.New("catalog requires --hash or --file")
	}
	return nil
}

func (c *CatalogCommand) Run(ctx context.Context) error {
	cat := c.env.Catalog(ctx)
	var rec model.RomRecord
	if c.file != "" {
		r, err := recordFromFile(c.file, cat)
		if err != nil {
			return err
		}
		rec = r
	} else {
		rec = model.RomRecord{ContentHash: strings.ToLower(c.hash), Catalog: cat.Lookup(c.hash)}
	}
	printFields(os.Stdout, rec, catalogFields)
	if !rec.Catalog.Known() {
		return fmt.Errorf("%s: %s", strings.ToUpper(rec.ContentHash), rec.Catalog.DisplayName())
	}
	return nil
}

func (c *CatalogCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("catalog", func() IRunner { return NewCatalogCommand() })
}
