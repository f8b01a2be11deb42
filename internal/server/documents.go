package server

import (
	"fmt"
	"os"
	"sync"

	"github.com/maypok86/otter"

	"iopls/internal/parser"
)

// treeCacheSize bounds the number of parse trees kept around. Trees are
// cheap to rebuild; the cache only avoids reparsing the same document
// on every hover while the user moves the cursor.
const treeCacheSize = 128

// DocumentStore tracks open editor buffers and caches their parse
// trees. Closed documents fall back to disk content.
type DocumentStore struct {
	mu    sync.RWMutex
	open  map[string][]byte
	trees otter.Cache[string, *parser.Node]
}

// NewDocumentStore builds the store with its tree cache.
func NewDocumentStore() (*DocumentStore, error) {
	trees, err := otter.MustBuilder[string, *parser.Node](treeCacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build tree cache: %w", err)
	}
	return &DocumentStore{
		open:  make(map[string][]byte),
		trees: trees,
	}, nil
}

// Open registers an editor buffer for the path.
func (s *DocumentStore) Open(path string, text []byte) {
	s.mu.Lock()
	s.open[path] = text
	s.mu.Unlock()
	s.trees.Delete(path)
}

// Update replaces the buffer content after a change.
func (s *DocumentStore) Update(path string, text []byte) {
	s.Open(path, text)
}

// Close drops the buffer; subsequent reads hit the disk.
func (s *DocumentStore) Close(path string) {
	s.mu.Lock()
	delete(s.open, path)
	s.mu.Unlock()
	s.trees.Delete(path)
}

// Source returns the current content for the path: the open buffer when
// the document is open, the on-disk bytes otherwise.
func (s *DocumentStore) Source(path string) ([]byte, error) {
	s.mu.RLock()
	text, ok := s.open[path]
	s.mu.RUnlock()
	if ok {
		return text, nil
	}
	return os.ReadFile(path)
}

// Tree returns the parse tree for the path's current content, reusing
// the cached tree when the document has not changed.
func (s *DocumentStore) Tree(path string) (*parser.Node, error) {
	if tree, ok := s.trees.Get(path); ok {
		return tree, nil
	}
	src, err := s.Source(path)
	if err != nil {
		return nil, err
	}
	tree := parser.Parse(src)
	s.trees.Set(path, tree)
	return tree, nil
}

// Shutdown releases cache resources.
func (s *DocumentStore) Shutdown() {
	s.trees.Close()
}
