package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"iopls/internal/extract"
	"iopls/internal/parser"
)

// Indexer orchestrates workspace and single-file reindexing against the
// table. The initial workspace scan runs as a cancellable background
// task; queries gate on WaitReady instead of failing while it runs.
type Indexer struct {
	table *Table
	disc  *Discovery
	log   *zap.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

// NewIndexer wires an indexer to its table and file discovery.
func NewIndexer(table *Table, disc *Discovery, log *zap.Logger) *Indexer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Indexer{
		table: table,
		disc:  disc,
		log:   log,
		ready: make(chan struct{}),
	}
}

// Table exposes the underlying symbol table for resolvers.
func (ix *Indexer) Table() *Table { return ix.table }

// Discover lists the workspace files the indexer would process.
func (ix *Indexer) Discover(ctx context.Context, root string) ([]string, error) {
	return ix.disc.Discover(ctx, root)
}

// IndexWorkspace discovers and indexes every IOP file under root, then
// marks the indexer ready. Rescanning a populated table replaces its
// state: files that no longer exist are removed. A single unreadable
// file is skipped and recorded; it never prevents indexing the rest.
func (ix *Indexer) IndexWorkspace(ctx context.Context, root string) (Stats, error) {
	start := time.Now()
	files, err := ix.disc.Discover(ctx, root)
	if err != nil {
		ix.MarkReady()
		return Stats{}, err
	}

	seen := make(map[string]bool, len(files))
	for _, path := range files {
		if ctx.Err() != nil {
			ix.MarkReady()
			return ix.table.Stats(), ctx.Err()
		}
		if err := ix.ReindexPath(path); err != nil {
			ix.log.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
		}
		seen[absPath(path)] = true
	}

	// A scan replaces prior state: files indexed earlier but absent
	// from this discovery are dropped from every view.
	for _, path := range ix.table.Files() {
		if !seen[path] {
			ix.table.RemoveFile(path)
			ix.log.Debug("dropped vanished file", zap.String("path", path))
		}
	}

	ix.MarkReady()
	stats := ix.table.Stats()
	ix.log.Info("indexed workspace",
		zap.String("root", root),
		zap.Int("files", stats.Files),
		zap.Int("symbols", stats.Symbols),
		zap.Duration("elapsed", time.Since(start)))
	return stats, nil
}

// Start runs IndexWorkspace in the background.
func (ix *Indexer) Start(ctx context.Context, root string) {
	go func() {
		if _, err := ix.IndexWorkspace(ctx, root); err != nil && ctx.Err() == nil {
			ix.log.Error("workspace indexing failed", zap.Error(err))
		}
	}()
}

// MarkReady releases queries waiting on WaitReady. Called automatically
// when the initial scan finishes, or directly when there is no
// workspace to scan.
func (ix *Indexer) MarkReady() {
	ix.readyOnce.Do(func() { close(ix.ready) })
}

// WaitReady blocks until the initial scan has completed or the caller's
// context is cancelled. No timeout is imposed beyond the caller's own.
func (ix *Indexer) WaitReady(ctx context.Context) error {
	select {
	case <-ix.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReindexPath reads a file from disk and reindexes it. A read failure
// is recorded as a diagnostic and returned; table state for other files
// is untouched.
func (ix *Indexer) ReindexPath(path string) error {
	path = absPath(path)
	src, err := os.ReadFile(path)
	if err != nil {
		ix.table.RemoveFile(path)
		return err
	}
	ix.ReindexSource(path, src)
	return nil
}

// ReindexSource parses, extracts and atomically reindexes one file from
// the given source bytes (used for open editor buffers).
func (ix *Indexer) ReindexSource(path string, src []byte) {
	path = absPath(path)
	fs := extract.File(path, parser.Parse(src))
	ix.table.ReindexFile(fs)
	if fs.Err != nil {
		ix.log.Warn("package diagnostic", zap.String("path", path), zap.Error(fs.Err))
	}
}

// RemoveFile drops a deleted file from the table.
func (ix *Indexer) RemoveFile(path string) {
	ix.table.RemoveFile(absPath(path))
}

// absPath normalizes to an absolute path so the same file always maps
// to one by_file key. Paths that cannot be resolved (fake test paths)
// are kept as-is.
func absPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
