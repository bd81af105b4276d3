package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/gamesdb"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var mirrorFiles = []struct {
	name        string
	contentType string
}{
	{gamesdb.DataFileName, "application/xml"},
	{gamesdb.CoverFileName, "image/jpeg"},
}

// MirrorResult counts the objects moved by a push or pull.
type MirrorResult struct {
	Transferred int
	Skipped     int
}

// Mirror copies the local enrichment cache to and from a bucket. Objects are
// keyed <prefix>/<md5>/<file>.
type Mirror struct {
	client Client
	cache  *gamesdb.Cache
	prefix string
}

func NewMirror(client Client, cache *gamesdb.Cache, prefix string) *Mirror {
	return &Mirror{client: client, cache: cache, prefix: strings.Trim(prefix, "/")}
}

func (m *Mirror) key(hash, name string) string {
	if m.prefix == "" {
		return path.Join(strings.ToLower(hash), name)
	}
	return path.Join(m.prefix, strings.ToLower(hash), name)
}

func (m *Mirror) remoteKeys(ctx context.Context) (map[string]struct{}, error) {
	prefix := ""
	if m.prefix != "" {
		prefix = m.prefix + "/"
	}
	keys, err := m.client.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out, nil
}

// Push uploads cached entries the bucket does not have yet.
func (m *Mirror) Push(ctx context.Context) (MirrorResult, error) {
	var res MirrorResult
	remote, err := m.remoteKeys(ctx)
	if err != nil {
		return res, err
	}
	hashes, err := m.cache.Hashes()
	if err != nil {
		return res, err
	}
	logger := logutil.GetLogger(ctx)
	for _, hash := range hashes {
		for _, f := range mirrorFiles {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			local := filepath.Join(m.cache.Dir(hash), f.name)
			if _, err := os.Stat(local); err != nil {
				continue
			}
			key := m.key(hash, f.name)
			if _, ok := remote[key]; ok {
				res.Skipped++
				continue
			}
			if err := m.push(ctx, key, local, f.contentType); err != nil {
				return res, fmt.Errorf("push %s: %w", key, err)
			}
			logger.Debug("pushed cache entry", zap.String("key", key))
			res.Transferred++
		}
	}
	return res, nil
}

// Pull downloads remote entries missing from the local cache.
func (m *Mirror) Pull(ctx context.Context) (MirrorResult, error) {
	var res MirrorResult
	remote, err := m.remoteKeys(ctx)
	if err != nil {
		return res, err
	}
	logger := logutil.GetLogger(ctx)
	for key := range remote {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		hash, name, ok := m.splitKey(key)
		if !ok {
			continue
		}
		local := filepath.Join(m.cache.Dir(hash), name)
		if _, err := os.Stat(local); err == nil {
			res.Skipped++
			continue
		}
		if err := m.pull(ctx, key, local); err != nil {
			return res, fmt.Errorf("pull %s: %w", key, err)
		}
		logger.Debug("pulled cache entry", zap.String("key", key))
		res.Transferred++
	}
	return res, nil
}

func (m *Mirror) push(ctx context.Context, key, local, contentType string) error {
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	return m.client.Put(ctx, key, f, info.Size(), contentType)
}

// pull writes through a temp file in the entry directory so a failed
// transfer never leaves a partial cache file behind.
func (m *Mirror) pull(ctx context.Context, key, local string) error {
	dir := filepath.Dir(local)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".pull-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := m.client.Fetch(ctx, key, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), local)
}

func (m *Mirror) splitKey(key string) (string, string, bool) {
	rest := key
	if m.prefix != "" {
		if !strings.HasPrefix(key, m.prefix+"/") {
			return "", "", false
		}
		rest = strings.TrimPrefix(key, m.prefix+"/")
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", false
	}
	for _, f := range mirrorFiles {
		if parts[1] == f.name {
			return parts[0], parts[1], true
		}
	}
	return "", "", false
}
