package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"iopls/internal/hover"
	"iopls/internal/index"
	"iopls/internal/resolve"
	"iopls/internal/symbols"
)

// Initialize result payload. Kept as plain structs with explicit json
// tags because several capability fields are unions in the protocol.
type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
	ServerInfo   serverInfo         `json:"serverInfo"`
}

type serverCapabilities struct {
	TextDocumentSync   textDocumentSyncOptions `json:"textDocumentSync"`
	DefinitionProvider bool                    `json:"definitionProvider"`
	HoverProvider      bool                    `json:"hoverProvider"`
}

type textDocumentSyncOptions struct {
	OpenClose bool        `json:"openClose"`
	Change    int         `json:"change"` // 1 = full document sync
	Save      saveOptions `json:"save"`
}

type saveOptions struct {
	IncludeText bool `json:"includeText"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	case protocol.MethodInitialize:
		return s.initialize(ctx, reply, req)
	case protocol.MethodInitialized:
		s.initialized()
		return reply(ctx, nil, nil)
	case protocol.MethodShutdown:
		return reply(ctx, nil, nil)
	case protocol.MethodExit:
		if s.conn != nil {
			s.conn.Close()
		}
		return reply(ctx, nil, nil)

	case protocol.MethodTextDocumentDidOpen:
		return s.didOpen(ctx, reply, req)
	case protocol.MethodTextDocumentDidChange:
		return s.didChange(ctx, reply, req)
	case protocol.MethodTextDocumentDidSave:
		return s.didSave(ctx, reply, req)
	case protocol.MethodTextDocumentDidClose:
		return s.didClose(ctx, reply, req)

	case protocol.MethodTextDocumentDefinition:
		return s.definition(ctx, reply, req)
	case protocol.MethodTextDocumentHover:
		return s.hover(ctx, reply, req)
	}
	return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
}

func (s *Server) initialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, fmt.Errorf("%w: %s", jsonrpc2.ErrParse, err))
	}

	if params.RootURI != "" {
		s.rootPath = params.RootURI.Filename()
	} else if params.RootPath != "" {
		s.rootPath = params.RootPath
	}
	s.log.Info("initialize", zap.String("root", s.rootPath))

	return reply(ctx, initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    1,
				Save:      saveOptions{IncludeText: true},
			},
			DefinitionProvider: true,
			HoverProvider:      true,
		},
		ServerInfo: serverInfo{Name: "iopls", Version: "0.1.0"},
	}, nil)
}

// initialized kicks off the background workspace scan and the
// filesystem watcher. Queries arriving before the scan completes are
// queued on the indexer's readiness gate rather than failing.
func (s *Server) initialized() {
	if s.rootPath == "" {
		s.ix.MarkReady()
		return
	}

	bg, cancel := context.WithCancel(context.Background())
	s.cancelBG = cancel
	s.ix.Start(bg, s.rootPath)

	if s.cfg.Watcher.Enabled {
		w, err := index.NewWatcher(s.ix, s.rootPath, s.cfg.Workspace.Extension, s.cfg.Debounce(), s.log)
		if err != nil {
			s.log.Warn("file watcher unavailable", zap.Error(err))
			return
		}
		s.watcher = w
		w.Start(bg)
	}
}

func (s *Server) didOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	path := params.TextDocument.URI.Filename()
	text := []byte(params.TextDocument.Text)
	s.docs.Open(path, text)
	s.ix.ReindexSource(path, text)
	return reply(ctx, nil, nil)
}

func (s *Server) didChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}
	// Full document sync: the last change carries the whole content.
	path := params.TextDocument.URI.Filename()
	text := []byte(params.ContentChanges[len(params.ContentChanges)-1].Text)
	s.docs.Update(path, text)
	s.ix.ReindexSource(path, text)
	return reply(ctx, nil, nil)
}

func (s *Server) didSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	path := params.TextDocument.URI.Filename()
	if params.Text != "" {
		text := []byte(params.Text)
		s.docs.Update(path, text)
		s.ix.ReindexSource(path, text)
	} else if err := s.ix.ReindexPath(path); err != nil {
		s.log.Warn("reindex on save failed", zap.String("path", path), zap.Error(err))
	}
	return reply(ctx, nil, nil)
}

func (s *Server) didClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	s.docs.Close(params.TextDocument.URI.Filename())
	return reply(ctx, nil, nil)
}

func (s *Server) definition(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DefinitionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	if err := s.ix.WaitReady(ctx); err != nil {
		return reply(ctx, nil, nil)
	}

	path := params.TextDocument.URI.Filename()
	tree, err := s.docs.Tree(path)
	if err != nil {
		s.log.Warn("cannot load document", zap.String("path", path), zap.Error(err))
		return reply(ctx, nil, nil)
	}

	target, err := s.res.Definition(tree, path, position(params.Position))
	if err != nil {
		s.logResolution(path, err)
		return reply(ctx, nil, nil)
	}
	if target == nil {
		return reply(ctx, nil, nil)
	}
	return reply(ctx, []protocol.Location{{
		URI:   uri.File(target.File),
		Range: protoRange(target.Range),
	}}, nil)
}

func (s *Server) hover(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.HoverParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	if err := s.ix.WaitReady(ctx); err != nil {
		return reply(ctx, nil, nil)
	}

	path := params.TextDocument.URI.Filename()
	tree, err := s.docs.Tree(path)
	if err != nil {
		s.log.Warn("cannot load document", zap.String("path", path), zap.Error(err))
		return reply(ctx, nil, nil)
	}
	pos := position(params.Position)

	c := resolve.Classify(tree, pos)
	if c.Context == resolve.ContextNone || c.Node == nil {
		return reply(ctx, nil, nil)
	}
	if c.Context == resolve.ContextTypeRef && symbols.IsBuiltin(c.Token) {
		return s.replyHover(ctx, reply, hover.ForBuiltin(c.Token), c.Node.R)
	}

	target, err := s.res.Hover(tree, path, pos)
	if err != nil {
		s.logResolution(path, err)
		return reply(ctx, nil, nil)
	}
	if target == nil {
		return reply(ctx, nil, nil)
	}

	var content hover.Content
	if target.Member != nil {
		content = hover.ForMember(target.Symbol, target.Member)
	} else {
		content = hover.ForSymbol(target.Symbol)
	}
	return s.replyHover(ctx, reply, content, c.Node.R)
}

func (s *Server) replyHover(ctx context.Context, reply jsonrpc2.Replier, content hover.Content, at symbols.Range) error {
	rng := protoRange(at)
	return reply(ctx, protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: content.Markdown(),
		},
		Range: &rng,
	}, nil)
}

// logResolution records a failed resolution. Every one of these is
// scoped to the single request; the client just sees an empty result.
func (s *Server) logResolution(path string, err error) {
	var ambiguous *resolve.AmbiguousReferenceError
	if errors.As(err, &ambiguous) {
		s.log.Info("ambiguous reference",
			zap.String("path", path),
			zap.String("ref", ambiguous.Ref),
			zap.Int("candidates", len(ambiguous.Candidates)))
		return
	}
	var pkg *resolve.UnresolvedPackageError
	if errors.As(err, &pkg) {
		s.log.Info("unresolved package",
			zap.String("path", path),
			zap.String("package", pkg.Package),
			zap.String("conventional_path", index.PackagePath(pkg.Package, s.cfg.Workspace.Extension)))
		return
	}
	s.log.Debug("resolution failed", zap.String("path", path), zap.Error(err))
}

func position(p protocol.Position) symbols.Position {
	return symbols.Position{Line: int(p.Line), Col: int(p.Character)}
}

func protoRange(r symbols.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(r.Start.Line), Character: uint32(r.Start.Col)},
		End:   protocol.Position{Line: uint32(r.End.Line), Character: uint32(r.End.Col)},
	}
}
