package view

import (
	"sync"

	"github.com/xxxsen/cen64-launcher/internal/collection"
	"github.com/xxxsen/cen64-launcher/internal/model"
)

// Collector accumulates the records of a pass so a layout can render a
// stable snapshot between notifications.
type Collector struct {
	mu       sync.Mutex
	records  []model.RomRecord
	done     int
	total    int
	summary  *collection.Summary
	progress func(done, total int)
}

// NewCollector returns an empty collector. onProgress may be nil.
func NewCollector(onProgress func(done, total int)) *Collector {
	return &Collector{progress: onProgress}
}

func (c *Collector) RecordReady(rec model.RomRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary != nil {
		// a new pass started
		c.records = nil
		c.summary = nil
	}
	c.records = append(c.records, rec)
}

func (c *Collector) Progress(done, total int) {
	c.mu.Lock()
	c.done, c.total = done, total
	fn := c.progress
	c.mu.Unlock()
	if fn != nil {
		fn(done, total)
	}
}

func (c *Collector) ScanComplete(summary collection.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary != nil {
		c.records = nil
	}
	s := summary
	c.summary = &s
}

// Records returns a copy of the records received so far.
func (c *Collector) Records() []model.RomRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.RomRecord(nil), c.records...)
}

// Summary returns the completion summary of the last pass, if any.
func (c *Collector) Summary() (collection.Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return collection.Summary{}, false
	}
	return *c.summary, true
}

// Find returns the first record whose file name or MD5 matches key.
func (c *Collector) Find(key string) (model.RomRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.FileName == key || model.FieldMD5.Value(r) == key || r.ContentHash == key {
			return r, true
		}
	}
	return model.RomRecord{}, false
}
