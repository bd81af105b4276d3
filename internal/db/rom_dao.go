package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/xxxsen/cen64-launcher/internal/model"

	"github.com/didi/gendry/builder"
)

const (
	romTableName   = "rom_collection"
	insertBatchLen = 200
)

var romColumns = []string{"filename", "md5", "internal_name", "zip_file", "size"}

// RomDAO persists the identity part of the collection.
type RomDAO struct {
	db *DB
	mu sync.RWMutex
}

// NewRomDAO builds a DAO on top of db.
func NewRomDAO(db *DB) *RomDAO {
	return &RomDAO{db: db}
}

// ReplaceAll swaps the whole table for records inside one transaction,
// keeping the given order. Readers never observe a mixed set.
func (dao *RomDAO) ReplaceAll(ctx context.Context, records []model.RomRecord) error {
	dao.mu.Lock()
	defer dao.mu.Unlock()

	return dao.db.OnTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+romTableName); err != nil {
			return fmt.Errorf("clear rom collection: %w", err)
		}
		for start := 0; start < len(records); start += insertBatchLen {
			if err := ctx.Err(); err != nil {
				return err
			}
			end := start + insertBatchLen
			if end > len(records) {
				end = len(records)
			}
			payload := make([]map[string]interface{}, 0, end-start)
			for _, r := range records[start:end] {
				payload = append(payload, map[string]interface{}{
					"filename":      r.FileName,
					"md5":           r.ContentHash,
					"internal_name": r.InternalName,
					"zip_file":      r.ContainerFile,
					"size":          r.SizeBytes,
				})
			}
			insertSQL, args, err := builder.BuildInsert(romTableName, payload)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, dao.db.Rebind(insertSQL), args...); err != nil {
				return fmt.Errorf("insert rom collection: %w", err)
			}
		}
		return nil
	})
}

// QueryAll returns every stored row in insertion order. An empty table
// yields an empty slice.
func (dao *RomDAO) QueryAll(ctx context.Context) ([]model.RomRecord, error) {
	dao.mu.RLock()
	defer dao.mu.RUnlock()

	where := map[string]interface{}{"_orderby": "rom_id asc"}
	query, args, err := builder.BuildSelect(romTableName, where, romColumns)
	if err != nil {
		return nil, err
	}
	rows, err := dao.db.QueryContext(ctx, dao.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query rom collection: %w", err)
	}
	defer rows.Close()

	result := make([]model.RomRecord, 0)
	for rows.Next() {
		var (
			rec          model.RomRecord
			internalName sql.NullString
			zipFile      sql.NullString
			size         sql.NullInt64
		)
		if err := rows.Scan(&rec.FileName, &rec.ContentHash, &internalName, &zipFile, &size); err != nil {
			return nil, fmt.Errorf("scan rom collection: %w", err)
		}
		rec.InternalName = internalName.String
		rec.ContainerFile = zipFile.String
		rec.SizeBytes = size.Int64
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of stored rows.
func (dao *RomDAO) Count(ctx context.Context) (int, error) {
	dao.mu.RLock()
	defer dao.mu.RUnlock()

	var n int
	if err := dao.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+romTableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rom collection: %w", err)
	}
	return n, nil
}
