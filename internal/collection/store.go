package collection

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/xxxsen/cen64-launcher/internal/model"

	"github.com/cespare/xxhash"
)

// Store is the durable identity cache of the collection.
type Store interface {
	ReplaceAll(ctx context.Context, records []model.RomRecord) error
	QueryAll(ctx context.Context) ([]model.RomRecord, error)
}

// MemoryStore keeps the collection in memory. It backs the uncached mode
// used when the database cannot be opened.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.RomRecord
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) ReplaceAll(ctx context.Context, records []model.RomRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := make([]model.RomRecord, len(records))
	for i, r := range records {
		cp[i] = identityOnly(r)
	}
	m.mu.Lock()
	m.records = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) QueryAll(ctx context.Context) ([]model.RomRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.RomRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func identityOnly(r model.RomRecord) model.RomRecord {
	return model.RomRecord{
		FileName:      r.FileName,
		ContainerFile: r.ContainerFile,
		ContentHash:   r.ContentHash,
		InternalName:  r.InternalName,
		SizeBytes:     r.SizeBytes,
	}
}

// fingerprint hashes the identity fields of records in order.
func fingerprint(records []model.RomRecord) uint64 {
	buf := make([]byte, 0, len(records)*96)
	var size [8]byte
	for _, r := range records {
		buf = append(buf, r.FileName...)
		buf = append(buf, 0)
		buf = append(buf, r.ContainerFile...)
		buf = append(buf, 0)
		buf = append(buf, r.ContentHash...)
		buf = append(buf, 0)
		binary.LittleEndian.PutUint64(size[:], uint64(r.SizeBytes))
		buf = append(buf, size[:]...)
	}
	return xxhash.Sum64(buf)
}
