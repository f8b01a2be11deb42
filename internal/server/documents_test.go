package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iopls/internal/parser"
)

func newStore(t *testing.T) *DocumentStore {
	t.Helper()
	docs, err := NewDocumentStore()
	require.NoError(t, err)
	t.Cleanup(docs.Shutdown)
	return docs
}

func TestDocumentStoreOpenBufferWinsOverDisk(t *testing.T) {
	docs := newStore(t)
	path := filepath.Join(t.TempDir(), "a.iop")
	require.NoError(t, os.WriteFile(path, []byte("package disk;\n"), 0o644))

	docs.Open(path, []byte("package buffer;\n"))
	src, err := docs.Source(path)
	require.NoError(t, err)
	assert.Equal(t, "package buffer;\n", string(src))

	docs.Close(path)
	src, err = docs.Source(path)
	require.NoError(t, err)
	assert.Equal(t, "package disk;\n", string(src))
}

func TestDocumentStoreSourceMissingFile(t *testing.T) {
	docs := newStore(t)
	_, err := docs.Source(filepath.Join(t.TempDir(), "absent.iop"))
	assert.Error(t, err)
}

func TestDocumentStoreTreeCaching(t *testing.T) {
	docs := newStore(t)
	path := filepath.Join(t.TempDir(), "a.iop")

	docs.Open(path, []byte("package p;\nstruct First { int a; };\n"))
	tree1, err := docs.Tree(path)
	require.NoError(t, err)
	require.Len(t, tree1.ChildrenOf(parser.NodeStruct), 1)
	assert.Equal(t, "First", tree1.ChildrenOf(parser.NodeStruct)[0].IdentText())

	tree2, err := docs.Tree(path)
	require.NoError(t, err)
	assert.Same(t, tree1, tree2, "unchanged document reuses the cached tree")

	// An update invalidates the cached tree.
	docs.Update(path, []byte("package p;\nstruct Second { int a; };\n"))
	tree3, err := docs.Tree(path)
	require.NoError(t, err)
	assert.NotSame(t, tree1, tree3)
	assert.Equal(t, "Second", tree3.ChildrenOf(parser.NodeStruct)[0].IdentText())
}
