// Package server is the LSP boundary: jsonrpc2 framing over stdio,
// request dispatch, and the translation between protocol types and the
// indexing core. It contains no resolution logic of its own.
package server

import (
	"context"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"

	"iopls/internal/config"
	"iopls/internal/index"
	"iopls/internal/resolve"
)

// Server serves LSP requests over a jsonrpc2 connection.
type Server struct {
	cfg  *config.Config
	log  *zap.Logger
	ix   *index.Indexer
	res  *resolve.Resolver
	docs *DocumentStore

	conn     jsonrpc2.Conn
	rootPath string
	watcher  *index.Watcher
	cancelBG context.CancelFunc
}

// New assembles a server around a fresh symbol table.
func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	disc, err := index.NewDiscovery(cfg.Workspace.Extension, cfg.Workspace.Ignore)
	if err != nil {
		return nil, err
	}
	docs, err := NewDocumentStore()
	if err != nil {
		return nil, err
	}
	table := index.NewTable(log)
	ix := index.NewIndexer(table, disc, log)
	return &Server{
		cfg:  cfg,
		log:  log,
		ix:   ix,
		res:  resolve.New(table),
		docs: docs,
	}, nil
}

// Indexer exposes the server's indexer, mainly for tests.
func (s *Server) Indexer() *index.Indexer { return s.ix }

// Run serves the LSP protocol on stdin/stdout until the client
// disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	stream := jsonrpc2.NewStream(stdio{in: os.Stdin, out: os.Stdout})
	conn := jsonrpc2.NewConn(stream)
	s.conn = conn

	conn.Go(ctx, s.handle)
	s.log.Info("iopls listening on stdio")

	select {
	case <-ctx.Done():
		conn.Close()
		<-conn.Done()
	case <-conn.Done():
	}
	s.teardown()
	return nil
}

func (s *Server) teardown() {
	if s.cancelBG != nil {
		s.cancelBG()
	}
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.docs.Shutdown()
}

// stdio packages stdin/stdout as the ReadWriteCloser jsonrpc2 expects.
type stdio struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s stdio) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdio) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s stdio) Close() error {
	if err := s.in.Close(); err != nil {
		s.out.Close()
		return err
	}
	return s.out.Close()
}
