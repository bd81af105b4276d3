package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/xxxsen/cen64-launcher/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "sub", "cache.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func sampleRecords(prefix string, n int) []model.RomRecord {
	out := make([]model.RomRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := model.RomRecord{
			FileName:     fmt.Sprintf("%s-%03d.z64", prefix, i),
			ContentHash:  fmt.Sprintf("%032x", i+1),
			InternalName: fmt.Sprintf("%s %d", prefix, i),
			SizeBytes:    int64(8388608 + i),
		}
		if i%2 == 1 {
			rec.ContainerFile = prefix + ".zip"
		}
		out = append(out, rec)
	}
	return out
}

func TestQueryAllEmpty(t *testing.T) {
	dao := NewRomDAO(openTestDB(t))
	rows, err := dao.QueryAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestReplaceAllRoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	dao := NewRomDAO(openTestDB(t))

	in := sampleRecords("new", 450)
	in[3].Catalog = model.CatalogEntry{Source: model.CatalogKnown, GoodName: "not persisted"}
	require.NoError(t, dao.ReplaceAll(ctx, sampleRecords("old", 5)))
	require.NoError(t, dao.ReplaceAll(ctx, in))

	out, err := dao.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].FileName, out[i].FileName)
		assert.Equal(t, in[i].ContentHash, out[i].ContentHash)
		assert.Equal(t, in[i].ContainerFile, out[i].ContainerFile)
		assert.Equal(t, in[i].InternalName, out[i].InternalName)
		assert.Equal(t, in[i].SizeBytes, out[i].SizeBytes)
	}
	assert.Equal(t, model.CatalogEntry{}, out[3].Catalog)

	n, err := dao.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 450, n)
}

func TestReplaceAllCancelledKeepsOldSet(t *testing.T) {
	dao := NewRomDAO(openTestDB(t))
	old := sampleRecords("old", 3)
	require.NoError(t, dao.ReplaceAll(context.Background(), old))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := dao.ReplaceAll(ctx, sampleRecords("new", 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	out, err := dao.QueryAll(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, old[0].FileName, out[0].FileName)
}

func TestReplaceAllConcurrentReadersSeeWholeSets(t *testing.T) {
	ctx := context.Background()
	dao := NewRomDAO(openTestDB(t))
	setA := sampleRecords("a", 40)
	setB := sampleRecords("b", 60)
	require.NoError(t, dao.ReplaceAll(ctx, setA))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			set := setA
			if i%2 == 0 {
				set = setB
			}
			if err := dao.ReplaceAll(ctx, set); err != nil {
				errs <- err
			}
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				rows, err := dao.QueryAll(ctx)
				if err != nil {
					errs <- err
					return
				}
				if len(rows) != len(setA) && len(rows) != len(setB) {
					errs <- fmt.Errorf("mixed set of %d rows", len(rows))
					return
				}
				prefix := rows[0].FileName[:1]
				for _, row := range rows {
					if row.FileName[:1] != prefix {
						errs <- fmt.Errorf("mixed prefixes %s/%s", prefix, row.FileName)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	d := openTestDB(t)
	require.NoError(t, EnsureSchema(context.Background(), d))
	require.NoError(t, EnsureSchema(context.Background(), d))
}

func TestOpenFailures(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	_, err = Open(context.Background(), DriverSQLite, "")
	assert.ErrorIs(t, err, ErrCacheUnavailable)
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, `INSERT INTO "t" ("a","b") VALUES ($1,$2),($3,$4)`,
		pg.Rebind("INSERT INTO `t` (`a`,`b`) VALUES (?,?),(?,?)"))
	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "SELECT ? FROM `t`", lite.Rebind("SELECT ? FROM `t`"))
}
