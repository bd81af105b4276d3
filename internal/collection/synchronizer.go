package collection

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xxxsen/cen64-launcher/internal/archive"
	"github.com/xxxsen/cen64-launcher/internal/model"
	"github.com/xxxsen/cen64-launcher/internal/rom"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// ErrScanInProgress is returned when a pass is requested while one runs.
var ErrScanInProgress = errors.New("scan already in progress")

// DefaultPatterns are the file name patterns scanned when none are given.
var DefaultPatterns = []string{"*.z64", "*.n64", "*.zip", "*.7z"}

const DefaultProgressThreshold = 2 * time.Second

// State is the phase of the synchronizer.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateReconciling
	StatePresenting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateReconciling:
		return "reconciling"
	case StatePresenting:
		return "presenting"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Catalog resolves reference entries by content hash.
type Catalog interface {
	Lookup(hash string) model.CatalogEntry
	Available() bool
}

// CatalogFingerprinter is implemented by catalogs that can tell one
// revision of their source from another.
type CatalogFingerprinter interface {
	Fingerprint() uint64
}

// CatalogLoader returns the catalog used for one pass.
type CatalogLoader func() Catalog

// StaticCatalog always hands out c.
func StaticCatalog(c Catalog) CatalogLoader {
	return func() Catalog { return c }
}

// Enricher reads previously downloaded descriptive fields. Load returns nil
// when nothing is cached.
type Enricher interface {
	Load(hash string) *model.GameInfo
}

// Summary closes every pass.
type Summary struct {
	Count            int
	Candidates       int
	Skipped          int
	Cancelled        bool
	Changed          bool
	FromCache        bool
	CatalogAvailable bool
}

// Options configures the synchronizer.
type Options struct {
	RomDir            string
	Patterns          []string
	Sort              model.SortSpec
	Enrich            bool
	ProgressThreshold time.Duration
}

// Deps are the collaborators of the synchronizer.
type Deps struct {
	Store      Store
	Catalog    CatalogLoader
	Enricher   Enricher
	Subscriber Subscriber
	Now        func() time.Time
}

// Synchronizer drives scan, reconcile and present passes over a ROM
// directory. Only one pass runs at a time.
type Synchronizer struct {
	opts  Options
	deps  Deps
	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc

	// catalog revision seen by the previous pass
	lastCatalog uint64
	seenCatalog bool
}

// New builds a synchronizer. Missing optional deps get no-op defaults.
func New(opts Options, deps Deps) *Synchronizer {
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns
	}
	if opts.ProgressThreshold <= 0 {
		opts.ProgressThreshold = DefaultProgressThreshold
	}
	if deps.Store == nil {
		deps.Store = NewMemoryStore()
	}
	if deps.Catalog == nil {
		deps.Catalog = StaticCatalog(emptyCatalog{})
	}
	if deps.Subscriber == nil {
		deps.Subscriber = FuncSubscriber{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Synchronizer{opts: opts, deps: deps}
}

type emptyCatalog struct{}

func (emptyCatalog) Lookup(string) model.CatalogEntry {
	return model.CatalogEntry{Source: model.CatalogMissing}
}

func (emptyCatalog) Available() bool { return false }

// State returns the current phase.
func (s *Synchronizer) State() State {
	return State(s.state.Load())
}

func (s *Synchronizer) setState(st State) {
	s.state.Store(int32(st))
}

// catalogChanged reports whether catalog differs from the one used by the
// previous pass. The first pass has nothing to compare against.
func (s *Synchronizer) catalogChanged(catalog Catalog) bool {
	var fp uint64
	if f, ok := catalog.(CatalogFingerprinter); ok {
		fp = f.Fingerprint()
	}
	changed := s.seenCatalog && fp != s.lastCatalog
	s.lastCatalog, s.seenCatalog = fp, true
	return changed
}

// Cancel stops the running pass at its next checkpoint while it is scanning
// or reconciling. Once the store is updated the pass presents every record
// regardless. It is a no-op when the synchronizer is idle.
func (s *Synchronizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Synchronizer) begin(ctx context.Context) (context.Context, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateScanning)) {
		return nil, ErrScanInProgress
	}
	pctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	return pctx, nil
}

func (s *Synchronizer) end() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.setState(StateIdle)
}

// Rescan rebuilds the collection from dir. Empty dir and patterns fall back
// to the configured ones. The returned error is only set when the store
// could not be updated; records are presented regardless.
func (s *Synchronizer) Rescan(ctx context.Context, dir string, patterns []string) (Summary, error) {
	pctx, err := s.begin(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer s.end()
	return s.rescan(pctx, dir, patterns)
}

// LoadCached presents the stored collection without touching the file
// system, falling back to a rescan when the store is empty.
func (s *Synchronizer) LoadCached(ctx context.Context) (Summary, error) {
	pctx, err := s.begin(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer s.end()

	logger := logutil.GetLogger(ctx)
	rows, err := s.deps.Store.QueryAll(pctx)
	if err != nil {
		logger.Warn("query cached collection failed, rescanning", zap.Error(err))
		rows = nil
	}
	if pctx.Err() != nil {
		summary := Summary{Cancelled: true, FromCache: true}
		s.deps.Subscriber.ScanComplete(summary)
		return summary, nil
	}
	if len(rows) == 0 {
		return s.rescan(pctx, "", nil)
	}

	catalog := s.deps.Catalog()
	summary := Summary{
		Candidates:       len(rows),
		FromCache:        true,
		Changed:          s.catalogChanged(catalog),
		CatalogAvailable: catalog.Available(),
	}
	s.setState(StatePresenting)
	return s.present(catalog, rows, summary, true), nil
}

func (s *Synchronizer) rescan(ctx context.Context, dir string, patterns []string) (Summary, error) {
	if dir == "" {
		dir = s.opts.RomDir
	}
	if len(patterns) == 0 {
		patterns = s.opts.Patterns
	}
	logger := logutil.GetLogger(ctx).With(zap.String("dir", dir))
	catalog := s.deps.Catalog()
	summary := Summary{CatalogAvailable: catalog.Available()}

	s.setState(StateScanning)
	candidates, err := listCandidates(dir, patterns)
	if err != nil {
		logger.Warn("list rom directory failed", zap.Error(err))
	}
	summary.Candidates = len(candidates)

	meter := newProgressMeter(s.deps.Now, s.opts.ProgressThreshold, len(candidates))
	records := make([]model.RomRecord, 0, len(candidates))
	for i, name := range candidates {
		if ctx.Err() != nil {
			break
		}
		found, skipped := s.identify(ctx, dir, name)
		records = append(records, found...)
		summary.Skipped += skipped
		if meter.step() {
			s.deps.Subscriber.Progress(i+1, len(candidates))
		}
	}
	if ctx.Err() != nil {
		logger.Info("scan cancelled before reconcile", zap.Int("identified", len(records)))
		summary.Cancelled = true
		s.deps.Subscriber.ScanComplete(summary)
		return summary, nil
	}

	s.setState(StateReconciling)
	previous, qerr := s.deps.Store.QueryAll(ctx)
	summary.Changed = qerr != nil || fingerprint(previous) != fingerprint(records)
	if s.catalogChanged(catalog) {
		summary.Changed = true
	}

	var storeErr error
	if err := s.deps.Store.ReplaceAll(ctx, records); err != nil {
		if ctx.Err() != nil {
			logger.Info("scan cancelled during reconcile", zap.Int("identified", len(records)))
			summary.Cancelled = true
			summary.Changed = false
			s.deps.Subscriber.ScanComplete(summary)
			return summary, nil
		}
		logger.Warn("replace cached collection failed", zap.Error(err))
		storeErr = fmt.Errorf("replace cached collection: %w", err)
	}

	s.setState(StatePresenting)
	summary = s.present(catalog, records, summary, false)
	logger.Info("scan finished",
		zap.Int("candidates", summary.Candidates),
		zap.Int("records", summary.Count),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("changed", summary.Changed),
		zap.Bool("cancelled", summary.Cancelled),
	)
	return summary, storeErr
}

// present resolves catalog and enrichment data, sorts, and notifies every
// row. It runs after the store holds rows, so cancellation is no longer
// observed and the emitted set always matches the stored one.
func (s *Synchronizer) present(catalog Catalog, rows []model.RomRecord, summary Summary, metered bool) Summary {
	var meter *progressMeter
	if metered {
		meter = newProgressMeter(s.deps.Now, s.opts.ProgressThreshold, len(rows))
	}
	resolved := make([]model.RomRecord, 0, len(rows))
	for i, rec := range rows {
		rec.Catalog = catalog.Lookup(rec.ContentHash)
		if s.opts.Enrich && s.deps.Enricher != nil {
			rec.Info = s.deps.Enricher.Load(rec.ContentHash)
			if rec.Info == nil {
				rec.Info = &model.GameInfo{}
			}
		}
		resolved = append(resolved, rec)
		if meter != nil && meter.step() {
			s.deps.Subscriber.Progress(i+1, len(rows))
		}
	}

	model.SortRecords(resolved, s.opts.Sort)
	for _, rec := range resolved {
		s.deps.Subscriber.RecordReady(rec)
		summary.Count++
	}
	s.deps.Subscriber.ScanComplete(summary)
	return summary
}

// identify returns the ROM records found in one candidate file and the
// number of unreadable files or members.
func (s *Synchronizer) identify(ctx context.Context, dir, name string) ([]model.RomRecord, int) {
	logger := logutil.GetLogger(ctx).With(zap.String("file", name))
	path := filepath.Join(dir, name)

	if !archive.IsArchiveName(name) {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Debug("skip unreadable file", zap.Error(err))
			return nil, 1
		}
		id, err := rom.Identify(data)
		if err != nil {
			return nil, 0
		}
		return []model.RomRecord{newRecord(name, "", id)}, 0
	}

	r, err := archive.Open(path)
	if err != nil {
		logger.Debug("skip unreadable archive", zap.Error(err))
		return nil, 1
	}
	defer r.Close()

	var (
		records []model.RomRecord
		skipped int
	)
	for _, e := range r.ROMEntries() {
		data, err := r.ReadEntry(e.Name)
		if err != nil {
			logger.Debug("skip corrupt archive member", zap.String("member", e.Name), zap.Error(err))
			skipped++
			continue
		}
		id, err := rom.Identify(data)
		if err != nil {
			continue
		}
		records = append(records, newRecord(e.Name, name, id))
	}
	return records, skipped
}

func newRecord(name, container string, id rom.Identity) model.RomRecord {
	return model.RomRecord{
		FileName:      name,
		ContainerFile: container,
		ContentHash:   id.Hash,
		InternalName:  id.InternalName,
		SizeBytes:     id.Size,
	}
}

// listCandidates returns the regular, non symlinked top level files of dir
// whose names match one of patterns, case-insensitively. A missing
// directory yields no candidates and no error.
func listCandidates(dir string, patterns []string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	var out []string
	for _, e := range entries {
		if e.Type()&fs.ModeSymlink != 0 || !e.Type().IsRegular() {
			continue
		}
		if matchAny(lowered, strings.ToLower(e.Name())) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
