package gamesdb

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/model"
)

const (
	DataFileName  = "data.xml"
	CoverFileName = "boxart-front.jpg"
)

// Cache is the on-disk enrichment cache: one directory per lowercase content
// hash holding data.xml and an optional front cover.
type Cache struct {
	root string
}

// NewCache builds a cache rooted at root.
func NewCache(root string) *Cache {
	return &Cache{root: root}
}

// Root returns the cache directory.
func (c *Cache) Root() string {
	return c.root
}

// Dir returns the directory of one hash.
func (c *Cache) Dir(hash string) string {
	return filepath.Join(c.root, strings.ToLower(hash))
}

func (c *Cache) DataPath(hash string) string {
	return filepath.Join(c.Dir(hash), DataFileName)
}

func (c *Cache) CoverPath(hash string) string {
	return filepath.Join(c.Dir(hash), CoverFileName)
}

// HasData reports whether a non-empty data document is cached.
func (c *Cache) HasData(hash string) bool {
	st, err := os.Stat(c.DataPath(hash))
	return err == nil && !st.IsDir() && st.Size() > 0
}

// HasCover reports whether a cover image is cached.
func (c *Cache) HasCover(hash string) bool {
	st, err := os.Stat(c.CoverPath(hash))
	return err == nil && !st.IsDir()
}

// Load returns the cached descriptive fields, or nil when nothing usable is
// cached. It never fails.
func (c *Cache) Load(hash string) *model.GameInfo {
	if hash == "" || !c.HasData(hash) {
		return nil
	}
	raw, err := os.ReadFile(c.DataPath(hash))
	if err != nil {
		return nil
	}
	games, err := ParseGames(bytes.NewReader(raw))
	if err != nil || len(games) == 0 {
		return nil
	}
	info := games[0].ToInfo()
	if c.HasCover(hash) {
		info.CoverPath = c.CoverPath(hash)
	}
	return &info
}

// Store writes g as the data document of hash.
func (c *Cache) Store(hash string, g *Game) error {
	if err := os.MkdirAll(c.Dir(hash), 0o755); err != nil {
		return fmt.Errorf("ensure cache dir %s: %w", c.Dir(hash), err)
	}
	var buf bytes.Buffer
	if err := WriteGame(&buf, g); err != nil {
		return err
	}
	if err := os.WriteFile(c.DataPath(hash), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write cache data %s: %w", hash, err)
	}
	return nil
}

// StoreCover writes the front cover of hash.
func (c *Cache) StoreCover(hash string, data []byte) error {
	if err := os.MkdirAll(c.Dir(hash), 0o755); err != nil {
		return fmt.Errorf("ensure cache dir %s: %w", c.Dir(hash), err)
	}
	if err := os.WriteFile(c.CoverPath(hash), data, 0o644); err != nil {
		return fmt.Errorf("write cover %s: %w", hash, err)
	}
	return nil
}

// Hashes lists cached hashes in lexical order.
func (c *Cache) Hashes() ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache dir %s: %w", c.root, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}
