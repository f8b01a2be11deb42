// Package resolve classifies the reference under a cursor and resolves
// it against the symbol table, applying same-package precedence and the
// ambiguity rules for simple references.
package resolve

import (
	"strings"

	"iopls/internal/index"
	"iopls/internal/parser"
	"iopls/internal/symbols"
)

// Context classifies what sits under the cursor.
type Context int

const (
	// ContextNone means the position is not on a resolvable reference.
	ContextNone Context = iota
	// ContextTypeRef is a type reference; Classification.Tag narrows
	// the construct it appears in.
	ContextTypeRef
	// ContextEnumValue is an identifier used as a default value.
	ContextEnumValue
	// ContextFieldName is a field's declared name; resolution hops to
	// the field's type.
	ContextFieldName
	// ContextTypeDef is a declaration's own name.
	ContextTypeDef
	// ContextEnumValueDef is an enum value at its declaration.
	ContextEnumValueDef
	// ContextRPCName is an RPC signature's name at its declaration.
	ContextRPCName
)

// Classification is the outcome of locating and classifying the node
// under a cursor.
type Classification struct {
	Node    *parser.Node
	Context Context
	Tag     symbols.RefContext
	Token   string
}

// Classify finds the smallest node enclosing the position and derives
// its reference context. A position outside any reference yields
// ContextNone, which is terminal, not an error.
func Classify(root *parser.Node, pos symbols.Position) Classification {
	node := root.At(pos)
	if node == nil {
		return Classification{Context: ContextNone}
	}

	c := Classification{Node: node, Token: node.Text}
	parent := node.Parent
	if parent == nil {
		return Classification{Context: ContextNone}
	}

	switch node.Kind {
	case parser.NodeTypeRef:
		c.Context = ContextTypeRef
		c.Tag = typeRefTag(parent)
		if c.Tag == symbols.RefNone {
			c.Context = ContextNone
		}

	case parser.NodeIdent:
		switch parent.Kind {
		case parser.NodeDefault:
			c.Context = ContextEnumValue
			c.Tag = symbols.RefEnumDefaultValue
		case parser.NodeField, parser.NodeModuleField:
			c.Context = ContextFieldName
		case parser.NodeEnumValue:
			c.Context = ContextEnumValueDef
		case parser.NodeRPC:
			c.Context = ContextRPCName
		default:
			if parent.IsDecl() {
				c.Context = ContextTypeDef
			}
		}
	}
	return c
}

func typeRefTag(parent *parser.Node) symbols.RefContext {
	switch parent.Kind {
	case parser.NodeField:
		return symbols.RefFieldType
	case parser.NodeInherit:
		return symbols.RefInheritance
	case parser.NodeRPCIn:
		return symbols.RefRPCIn
	case parser.NodeRPCOut:
		return symbols.RefRPCOut
	case parser.NodeRPCThrow:
		return symbols.RefRPCThrow
	case parser.NodeModuleField:
		return symbols.RefModuleFieldType
	case parser.NodeTypedef:
		return symbols.RefTypedefSource
	}
	return symbols.RefNone
}

// Target is a resolved definition location. Member is set when the
// target is nested inside Symbol (an enum value or a field).
type Target struct {
	File   string
	Range  symbols.Range
	Symbol *symbols.Symbol
	Member *symbols.Member
}

// Resolver answers definition queries against a symbol table handle.
type Resolver struct {
	table *index.Table
}

// New returns a resolver reading from the given table.
func New(table *index.Table) *Resolver {
	return &Resolver{table: table}
}

// Definition resolves the reference at the cursor to its declaration.
// (nil, nil) means the position holds no resolvable reference; a typed
// error reports an unresolved package, a missing definition, or an
// ambiguous candidate set.
func (r *Resolver) Definition(root *parser.Node, path string, pos symbols.Position) (*Target, error) {
	c := Classify(root, pos)
	currentPkg, _ := r.table.PackageOfFile(path)

	switch c.Context {
	case ContextTypeRef:
		if symbols.IsBuiltin(c.Token) {
			return nil, nil
		}
		sym, err := r.ResolveType(c.Token, currentPkg)
		if err != nil {
			return nil, err
		}
		return symbolTarget(sym), nil

	case ContextEnumValue:
		return r.resolveEnumValue(c.Node, c.Token, currentPkg)

	case ContextFieldName:
		ref := c.Node.Parent.Child(parser.NodeTypeRef)
		if ref == nil || symbols.IsBuiltin(ref.Text) {
			return nil, nil
		}
		sym, err := r.ResolveType(ref.Text, currentPkg)
		if err != nil {
			return nil, err
		}
		return symbolTarget(sym), nil

	case ContextTypeDef:
		sym := r.table.LookupByQualified(currentPkg, c.Token)
		return symbolTarget(sym), nil

	case ContextEnumValueDef, ContextRPCName:
		return r.selfMember(c.Node, c.Token, currentPkg), nil
	}
	return nil, nil
}

// Hover resolves the cursor for presentation. It matches Definition
// except that a field name yields the field's own member entry in its
// enclosing declaration, so hovers show the field rather than its type.
// Navigation keeps the Definition behavior of hopping to the type.
func (r *Resolver) Hover(root *parser.Node, path string, pos symbols.Position) (*Target, error) {
	c := Classify(root, pos)
	if c.Context == ContextFieldName {
		currentPkg, _ := r.table.PackageOfFile(path)
		if t := r.selfMember(c.Node, c.Token, currentPkg); t != nil {
			return t, nil
		}
	}
	return r.Definition(root, path, pos)
}

// ResolveType resolves a raw type token, qualified or simple, following
// the table's tie-break rules.
func (r *Resolver) ResolveType(token, currentPkg string) (*symbols.Symbol, error) {
	if i := strings.LastIndex(token, "."); i >= 0 {
		return r.resolveQualified(token, token[:i], token[i+1:])
	}
	return r.resolveSimple(token, currentPkg)
}

func (r *Resolver) resolveQualified(token, pkg, name string) (*symbols.Symbol, error) {
	if !r.table.PackageKnown(pkg) {
		return nil, &UnresolvedPackageError{Package: pkg}
	}
	for _, sym := range r.table.LookupByPackage(pkg) {
		if sym.Name == name {
			return sym, nil
		}
	}
	return nil, &ReferenceNotFoundError{Ref: token}
}

// resolveSimple applies same-package precedence: a single match in the
// referencing file's own package wins outright even when other packages
// declare the same name. Otherwise the search widens to the whole table
// and more than one match is ambiguous, never silently picked.
func (r *Resolver) resolveSimple(name, currentPkg string) (*symbols.Symbol, error) {
	if currentPkg != "" {
		var same []*symbols.Symbol
		for _, sym := range r.table.LookupByPackage(currentPkg) {
			if sym.Name == name {
				same = append(same, sym)
			}
		}
		if len(same) == 1 {
			return same[0], nil
		}
		if len(same) > 1 {
			return nil, &AmbiguousReferenceError{Ref: name, Candidates: same}
		}
	}

	global := r.table.LookupBySimpleName(name)
	switch len(global) {
	case 0:
		return nil, &ReferenceNotFoundError{Ref: name}
	case 1:
		return global[0], nil
	}
	return nil, &AmbiguousReferenceError{Ref: name, Candidates: global}
}

// resolveEnumValue resolves an identifier used as a default value. When
// the enclosing field's declared type statically resolves to an enum,
// candidates are restricted to that enum's members; otherwise the search
// falls back to every enum member with that name, under the usual
// ambiguity policy.
func (r *Resolver) resolveEnumValue(node *parser.Node, name, currentPkg string) (*Target, error) {
	if enum := r.enclosingFieldEnum(node, currentPkg); enum != nil {
		if m := enum.Member(name); m != nil {
			return &Target{File: enum.File, Range: m.Range, Symbol: enum, Member: m}, nil
		}
		return nil, &ReferenceNotFoundError{Ref: name}
	}

	matches := r.table.EnumMembers(name)
	switch len(matches) {
	case 0:
		return nil, &ReferenceNotFoundError{Ref: name}
	case 1:
		m := matches[0]
		return &Target{File: m.Symbol.File, Range: m.Member.Range, Symbol: m.Symbol, Member: m.Member}, nil
	}
	owners := make([]*symbols.Symbol, len(matches))
	for i, m := range matches {
		owners[i] = m.Symbol
	}
	return nil, &AmbiguousReferenceError{Ref: name, Candidates: owners}
}

// enclosingFieldEnum finds the declared type of the field whose default
// value holds the node, returning it only when it resolves to an enum.
func (r *Resolver) enclosingFieldEnum(node *parser.Node, currentPkg string) *symbols.Symbol {
	def := node.Parent
	if def == nil || def.Kind != parser.NodeDefault {
		return nil
	}
	field := def.Parent
	if field == nil || field.Kind != parser.NodeField {
		return nil
	}
	ref := field.Child(parser.NodeTypeRef)
	if ref == nil || symbols.IsBuiltin(ref.Text) {
		return nil
	}
	sym, err := r.ResolveType(ref.Text, currentPkg)
	if err != nil || sym == nil || sym.Kind != symbols.Enum {
		return nil
	}
	return sym
}

// selfMember resolves an enum value or RPC name at its own declaration
// site to its member entry in the index.
func (r *Resolver) selfMember(node *parser.Node, name, currentPkg string) *Target {
	decl := node.Parent
	for decl != nil && !decl.IsDecl() {
		decl = decl.Parent
	}
	if decl == nil {
		return nil
	}
	sym := r.table.LookupByQualified(currentPkg, decl.IdentText())
	if sym == nil {
		return nil
	}
	m := sym.Member(name)
	if m == nil {
		return nil
	}
	return &Target{File: sym.File, Range: m.Range, Symbol: sym, Member: m}
}

func symbolTarget(sym *symbols.Symbol) *Target {
	if sym == nil {
		return nil
	}
	return &Target{File: sym.File, Range: sym.Range, Symbol: sym}
}
