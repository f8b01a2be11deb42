// Package extract walks one file's syntax tree and produces its package
// name plus the ordered list of declared symbols with their members and
// recorded type references.
package extract

import (
	"fmt"
	"strings"

	"iopls/internal/parser"
	"iopls/internal/symbols"
)

// MissingPackageError flags a file with no package declaration. Its
// symbols are still extracted under the sentinel package.
type MissingPackageError struct {
	Path string
}

func (e *MissingPackageError) Error() string {
	return fmt.Sprintf("%s: no package declaration", e.Path)
}

// AmbiguousPackageError flags a file with more than one package
// declaration. The first declaration wins.
type AmbiguousPackageError struct {
	Path  string
	First string
}

func (e *AmbiguousPackageError) Error() string {
	return fmt.Sprintf("%s: multiple package declarations, using %q", e.Path, e.First)
}

// FileSymbols is the extraction result for one file.
type FileSymbols struct {
	Path    string
	Package string
	Symbols []*symbols.Symbol

	// Err is a file-level package diagnostic (missing or ambiguous
	// package declaration), or nil. It never aborts extraction.
	Err error
}

// File extracts all symbols from a parsed file. It tolerates partial
// trees: error nodes are skipped and every well-formed declaration is
// still extracted.
func File(path string, root *parser.Node) *FileSymbols {
	fs := &FileSymbols{Path: path}

	pkgs := root.ChildrenOf(parser.NodePackage)
	switch {
	case len(pkgs) == 0:
		fs.Package = symbols.UnknownPackage
		fs.Err = &MissingPackageError{Path: path}
	case len(pkgs) > 1:
		fs.Package = pkgs[0].IdentText()
		fs.Err = &AmbiguousPackageError{Path: path, First: fs.Package}
	default:
		fs.Package = pkgs[0].IdentText()
	}
	if fs.Package == "" {
		fs.Package = symbols.UnknownPackage
		if fs.Err == nil {
			fs.Err = &MissingPackageError{Path: path}
		}
	}

	for _, n := range root.Children {
		if !n.IsDecl() {
			continue
		}
		if sym := declSymbol(n, path, fs.Package); sym != nil {
			sym.Order = len(fs.Symbols)
			fs.Symbols = append(fs.Symbols, sym)
		}
	}
	return fs
}

// declSymbol dispatches to the extraction function for the node's
// construct kind, resolved once per node.
func declSymbol(n *parser.Node, path, pkg string) *symbols.Symbol {
	name := n.IdentText()
	if name == "" {
		return nil
	}
	nameRange := n.Ident().R

	sym := &symbols.Symbol{
		Name:      name,
		Qualified: pkg + "." + name,
		File:      path,
		Range:     nameRange,
		Doc:       leadingDoc(n),
		Package:   pkg,
		CType:     ctypeOf(n),
	}

	switch n.Kind {
	case parser.NodeStruct:
		sym.Kind = symbols.Struct
		sym.Members = fieldMembers(n)
	case parser.NodeUnion:
		sym.Kind = symbols.Union
		sym.Members = fieldMembers(n)
	case parser.NodeClass:
		sym.Kind = symbols.Class
		sym.Members = fieldMembers(n)
		if inh := n.Child(parser.NodeInherit); inh != nil {
			if ref := inh.Child(parser.NodeTypeRef); ref != nil {
				sym.Parent = ref.Text
			}
		}
	case parser.NodeEnum:
		sym.Kind = symbols.Enum
		sym.Members = enumMembers(n)
	case parser.NodeInterface:
		sym.Kind = symbols.Interface
		sym.Members = rpcMembers(n)
	case parser.NodeModule:
		sym.Kind = symbols.Module
		sym.Members = moduleMembers(n)
	case parser.NodeTypedef:
		sym.Kind = symbols.Typedef
		if ref := n.Child(parser.NodeTypeRef); ref != nil {
			sym.TypedefSource = ref.Text
		}
	case parser.NodeSnmpObj:
		sym.Kind = symbols.SnmpObj
		sym.Members = fieldMembers(n)
	case parser.NodeSnmpTbl:
		sym.Kind = symbols.SnmpTbl
		sym.Members = fieldMembers(n)
	case parser.NodeSnmpIface:
		sym.Kind = symbols.SnmpIface
		sym.Members = rpcMembers(n)
	default:
		return nil
	}
	return sym
}

func fieldMembers(decl *parser.Node) []symbols.Member {
	var out []symbols.Member
	for _, f := range decl.ChildrenOf(parser.NodeField) {
		typ := f.Child(parser.NodeTypeRef)
		if typ == nil {
			continue
		}
		m := symbols.Member{
			Name:    f.IdentText(),
			Kind:    symbols.MemberField,
			RawType: typ.Text,
			Context: symbols.RefFieldType,
			Range:   memberRange(f),
			Doc:     memberDoc(f),
		}
		if !symbols.IsBuiltin(typ.Text) {
			m.TypeRef = typ.Text
		}
		if spec := f.Child(parser.NodeSpecifier); spec != nil {
			m.Specifier = spec.Text
		}
		if def := f.Child(parser.NodeDefault); def != nil {
			m.Default = def.Text
		}
		out = append(out, m)
	}
	return out
}

func enumMembers(decl *parser.Node) []symbols.Member {
	var out []symbols.Member
	for _, v := range decl.ChildrenOf(parser.NodeEnumValue) {
		m := symbols.Member{
			Name:    v.IdentText(),
			Kind:    symbols.MemberEnumValue,
			Context: symbols.RefEnumDefaultValue,
			Range:   memberRange(v),
			Doc:     memberDoc(v),
		}
		if def := v.Child(parser.NodeDefault); def != nil {
			m.Value = strings.TrimSpace(def.Text)
		}
		out = append(out, m)
	}
	return out
}

func rpcMembers(decl *parser.Node) []symbols.Member {
	var out []symbols.Member
	for _, r := range decl.ChildrenOf(parser.NodeRPC) {
		m := symbols.Member{
			Name:  r.IdentText(),
			Kind:  symbols.MemberRPC,
			Range: memberRange(r),
			Doc:   memberDoc(r),
		}
		if c := r.Child(parser.NodeRPCIn); c != nil {
			m.In = rpcTypeRef(c)
		}
		if c := r.Child(parser.NodeRPCOut); c != nil {
			m.Out = rpcTypeRef(c)
		}
		if c := r.Child(parser.NodeRPCThrow); c != nil {
			m.Throw = rpcTypeRef(c)
		}
		out = append(out, m)
	}
	return out
}

// rpcTypeRef extracts a single resolvable type reference from an
// in/out/throw clause. Inline argument lists are anonymous and void and
// null carry no reference.
func rpcTypeRef(clause *parser.Node) string {
	if clause.Child(parser.NodeArgList) != nil {
		return ""
	}
	ref := clause.Child(parser.NodeTypeRef)
	if ref == nil {
		return ""
	}
	if symbols.IsBuiltin(ref.Text) || ref.Text == "null" {
		return ""
	}
	return ref.Text
}

func moduleMembers(decl *parser.Node) []symbols.Member {
	var out []symbols.Member
	for _, mf := range decl.ChildrenOf(parser.NodeModuleField) {
		typ := mf.Child(parser.NodeTypeRef)
		if typ == nil {
			continue
		}
		out = append(out, symbols.Member{
			Name:    mf.IdentText(),
			Kind:    symbols.MemberField,
			TypeRef: typ.Text,
			RawType: typ.Text,
			Context: symbols.RefModuleFieldType,
			Range:   memberRange(mf),
			Doc:     memberDoc(mf),
		})
	}
	return out
}

// memberRange prefers the declared name's range so navigation lands on
// the identifier.
func memberRange(n *parser.Node) symbols.Range {
	if id := n.Ident(); id != nil {
		return id.R
	}
	return n.R
}

// ctypeOf returns the value of a @ctype(...) attribute on the
// declaration, if present.
func ctypeOf(decl *parser.Node) string {
	for _, a := range decl.ChildrenOf(parser.NodeAttribute) {
		if a.IdentText() == "ctype" {
			return strings.TrimSpace(a.Text)
		}
	}
	return ""
}
