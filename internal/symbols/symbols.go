// Package symbols defines the data model shared by the indexer, the
// reference resolver and the hover formatter: top-level IOP declarations,
// their nested members, and source ranges.
package symbols

// Kind identifies the construct that declared a symbol.
type Kind int

const (
	Struct Kind = iota
	Union
	Class
	Enum
	Interface
	Module
	Typedef
	SnmpObj
	SnmpTbl
	SnmpIface
)

// String returns the IOP keyword for the kind.
func (k Kind) String() string {
	switch k {
	case Struct:
		return "struct"
	case Union:
		return "union"
	case Class:
		return "class"
	case Enum:
		return "enum"
	case Interface:
		return "interface"
	case Module:
		return "module"
	case Typedef:
		return "typedef"
	case SnmpObj:
		return "snmpObj"
	case SnmpTbl:
		return "snmpTbl"
	case SnmpIface:
		return "snmpIface"
	}
	return "unknown"
}

// Position is a 0-indexed line/column location, matching LSP positions.
type Position struct {
	Line int
	Col  int
}

// Before reports whether p is strictly before q in document order.
func (p Position) Before(q Position) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Col < q.Col)
}

// Range is a source span from Start to End.
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether the range covers the given position.
// The end position is treated as inclusive so a cursor placed right
// after the last character of a token still hits it.
func (r Range) Contains(p Position) bool {
	return !p.Before(r.Start) && !r.End.Before(p)
}

// RefContext tags where a captured type reference appeared. The resolver
// uses the tag to classify a cursor; it does not change the lookup rules.
type RefContext int

const (
	RefNone RefContext = iota
	RefFieldType
	RefInheritance
	RefRPCIn
	RefRPCOut
	RefRPCThrow
	RefModuleFieldType
	RefTypedefSource
	RefEnumDefaultValue
)

func (c RefContext) String() string {
	switch c {
	case RefFieldType:
		return "field-type"
	case RefInheritance:
		return "inheritance"
	case RefRPCIn:
		return "rpc-in"
	case RefRPCOut:
		return "rpc-out"
	case RefRPCThrow:
		return "rpc-throw"
	case RefModuleFieldType:
		return "module-field-type"
	case RefTypedefSource:
		return "typedef-source"
	case RefEnumDefaultValue:
		return "enum-default-value"
	}
	return "none"
}

// MemberKind distinguishes the member flavors nested inside a Symbol.
type MemberKind int

const (
	MemberField MemberKind = iota
	MemberEnumValue
	MemberRPC
)

// Member is a field, an enum value or an RPC signature owned by a Symbol.
type Member struct {
	Name string
	Kind MemberKind

	// TypeRef is the raw referenced type token for fields and module
	// fields, possibly package-qualified. Empty for built-in types.
	TypeRef string
	// Context records which construct captured TypeRef.
	Context RefContext

	// Specifier is "?", "&", "[]" or empty.
	Specifier string
	// RawType is the declared type token including built-ins, used for
	// presentation.
	RawType string
	// Default is the raw default-value token, if any.
	Default string
	// Value is the literal assigned to an enum value, if any.
	Value string

	// In/Out/Throw are RPC type references; empty when the clause is
	// void, null, an inline argument list, or absent.
	In    string
	Out   string
	Throw string

	Range Range
	Doc   string
}

// Symbol is a top-level IOP declaration.
type Symbol struct {
	// Name is the simple declared name, Qualified is "package.Name".
	Name      string
	Qualified string
	Kind      Kind

	// File is the declaring file; Range covers the declared name so
	// go-to-definition lands on the identifier.
	File  string
	Range Range

	Doc     string
	Package string
	// Order is the declaration position within the file, used as the
	// deterministic tie-break for candidate ordering.
	Order int

	// Parent is the inherited class reference for class declarations.
	Parent string
	// TypedefSource is the aliased type token for typedefs.
	TypedefSource string
	// CType is the @ctype attribute override, if present.
	CType string

	Members []Member
}

// Member returns the named member, or nil.
func (s *Symbol) Member(name string) *Member {
	for i := range s.Members {
		if s.Members[i].Name == name {
			return &s.Members[i]
		}
	}
	return nil
}

// UnknownPackage is the sentinel package used for files with no package
// declaration. It is not a legal IOP package name, so it can never
// collide with a real one.
const UnknownPackage = "?"

var builtins = map[string]struct{}{
	"int": {}, "uint": {}, "long": {}, "ulong": {},
	"byte": {}, "ubyte": {}, "short": {}, "ushort": {},
	"bool": {}, "double": {}, "bytes": {}, "string": {},
	"xml": {}, "void": {},
}

// IsBuiltin reports whether name is one of the IOP built-in types, which
// are never resolved as references.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}
