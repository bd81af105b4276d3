package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/xxxsen/cen64-launcher/internal/gamesdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memClient struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemClient() *memClient {
	return &memClient{objects: map[string][]byte{}, types: map[string]string{}}
}

func (c *memClient) Put(_ context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("put %s: read %d of %d bytes", key, len(data), size)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[key] = data
	c.types[key] = contentType
	return nil
}

func (c *memClient) Fetch(_ context.Context, key string, w io.Writer) error {
	c.mu.Lock()
	data, ok := c.objects[key]
	c.mu.Unlock()
	if !ok {
		return os.ErrNotExist
	}
	_, err := w.Write(data)
	return err
}

func (c *memClient) List(_ context.Context, prefix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for k := range c.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// brokenFetchClient delivers half of every object and then fails.
type brokenFetchClient struct{ *memClient }

func (c brokenFetchClient) Fetch(_ context.Context, key string, w io.Writer) error {
	c.mu.Lock()
	data := c.objects[key]
	c.mu.Unlock()
	if _, err := w.Write(data[:len(data)/2]); err != nil {
		return err
	}
	return errors.New("connection reset")
}

func seedCache(t *testing.T, root string) *gamesdb.Cache {
	t.Helper()
	cache := gamesdb.NewCache(root)
	require.NoError(t, cache.Store("AAAA", &gamesdb.Game{GameTitle: "Alpha"}))
	require.NoError(t, cache.StoreCover("aaaa", []byte("jpg")))
	require.NoError(t, cache.Store("bbbb", &gamesdb.Game{GameTitle: "Beta"}))
	return cache
}

func TestMirrorPushUploadsMissingObjects(t *testing.T) {
	t.Parallel()

	client := newMemClient()
	client.objects["n64/bbbb/data.xml"] = []byte("old")
	m := NewMirror(client, seedCache(t, t.TempDir()), "/n64/")

	res, err := m.Push(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MirrorResult{Transferred: 2, Skipped: 1}, res)
	assert.Contains(t, client.objects, "n64/aaaa/data.xml")
	assert.Contains(t, client.objects, "n64/aaaa/boxart-front.jpg")
	assert.Equal(t, "image/jpeg", client.types["n64/aaaa/boxart-front.jpg"])
	assert.Equal(t, []byte("old"), client.objects["n64/bbbb/data.xml"])
}

func TestMirrorPullDownloadsMissingEntries(t *testing.T) {
	t.Parallel()

	client := newMemClient()
	src := NewMirror(client, seedCache(t, t.TempDir()), "")
	_, err := src.Push(context.Background())
	require.NoError(t, err)
	client.objects["unrelated.txt"] = []byte("x")
	client.objects["cccc/notes.txt"] = []byte("x")

	root := t.TempDir()
	dst := gamesdb.NewCache(root)
	require.NoError(t, dst.Store("bbbb", &gamesdb.Game{GameTitle: "Local Beta"}))
	res, err := NewMirror(client, dst, "").Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MirrorResult{Transferred: 2, Skipped: 1}, res)

	info := dst.Load("aaaa")
	require.NotNil(t, info)
	assert.Equal(t, "Alpha", info.GameTitle)
	assert.True(t, dst.HasCover("aaaa"))
	assert.Equal(t, "Local Beta", dst.Load("bbbb").GameTitle)
}

func TestMirrorPullFailureLeavesNoPartialFile(t *testing.T) {
	t.Parallel()

	client := newMemClient()
	_, err := NewMirror(client, seedCache(t, t.TempDir()), "").Push(context.Background())
	require.NoError(t, err)

	dst := gamesdb.NewCache(t.TempDir())
	_, err = NewMirror(brokenFetchClient{client}, dst, "").Pull(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	for _, hash := range []string{"aaaa", "bbbb"} {
		entries, err := os.ReadDir(dst.Dir(hash))
		if os.IsNotExist(err) {
			continue
		}
		require.NoError(t, err)
		assert.Empty(t, entries, hash)
	}
	assert.Nil(t, dst.Load("aaaa"))
}

func TestMirrorStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMirror(newMemClient(), seedCache(t, t.TempDir()), "")
	_, err := m.Push(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", normalizeEndpoint("  "))
	assert.Equal(t, "http://minio:9000", normalizeEndpoint("http://minio:9000"))
	assert.Equal(t, "https://s3.example.com", normalizeEndpoint("s3.example.com"))
}
