package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iopls/internal/parser"
	"iopls/internal/symbols"
)

func extractSource(t *testing.T, src string) *FileSymbols {
	t.Helper()
	return File("test.iop", parser.Parse([]byte(src)))
}

func TestExtractStruct(t *testing.T) {
	fs := extractSource(t, `package tstiop;

struct MyStructA {
    int a;
    string? name;
    core.LogLevel level = LOG_LEVEL_DEFAULT;
};
`)
	require.NoError(t, fs.Err)
	assert.Equal(t, "tstiop", fs.Package)
	require.Len(t, fs.Symbols, 1)

	sym := fs.Symbols[0]
	assert.Equal(t, "MyStructA", sym.Name)
	assert.Equal(t, "tstiop.MyStructA", sym.Qualified)
	assert.Equal(t, symbols.Struct, sym.Kind)
	assert.Equal(t, 0, sym.Order)

	require.Len(t, sym.Members, 3)
	assert.Equal(t, "a", sym.Members[0].Name)
	assert.Equal(t, "int", sym.Members[0].RawType)
	assert.Empty(t, sym.Members[0].TypeRef, "builtins are not recorded as references")

	assert.Equal(t, "name", sym.Members[1].Name)
	assert.Equal(t, "?", sym.Members[1].Specifier)

	assert.Equal(t, "level", sym.Members[2].Name)
	assert.Equal(t, "core.LogLevel", sym.Members[2].TypeRef)
	assert.Equal(t, "LOG_LEVEL_DEFAULT", sym.Members[2].Default)
}

func TestExtractEnum(t *testing.T) {
	fs := extractSource(t, `package core;

enum LogLevel {
    LOG_LEVEL_DEBUG = 0,
    LOG_LEVEL_DEFAULT,
};
`)
	require.Len(t, fs.Symbols, 1)
	sym := fs.Symbols[0]
	assert.Equal(t, symbols.Enum, sym.Kind)

	require.Len(t, sym.Members, 2)
	assert.Equal(t, symbols.MemberEnumValue, sym.Members[0].Kind)
	assert.Equal(t, "LOG_LEVEL_DEBUG", sym.Members[0].Name)
	assert.Equal(t, "0", sym.Members[0].Value)
	assert.Empty(t, sym.Members[1].Value)
}

func TestExtractClassInheritance(t *testing.T) {
	fs := extractSource(t, `package tstiop;

class MyClassB : 2 : MyClassA {
    int b;
};
`)
	require.Len(t, fs.Symbols, 1)
	sym := fs.Symbols[0]
	assert.Equal(t, symbols.Class, sym.Kind)
	assert.Equal(t, "MyClassA", sym.Parent)
}

func TestExtractInterface(t *testing.T) {
	fs := extractSource(t, `package tstiop;

interface MyIface {
    funA in MyStructA out MyStructB throw MyError;
    funB in (int a) out void;
};
`)
	require.Len(t, fs.Symbols, 1)
	sym := fs.Symbols[0]
	assert.Equal(t, symbols.Interface, sym.Kind)

	require.Len(t, sym.Members, 2)
	funA := sym.Members[0]
	assert.Equal(t, symbols.MemberRPC, funA.Kind)
	assert.Equal(t, "MyStructA", funA.In)
	assert.Equal(t, "MyStructB", funA.Out)
	assert.Equal(t, "MyError", funA.Throw)

	funB := sym.Members[1]
	assert.Empty(t, funB.In, "inline argument lists carry no reference")
	assert.Empty(t, funB.Out, "void carries no reference")
}

func TestExtractTypedef(t *testing.T) {
	fs := extractSource(t, "package p;\ntypedef MyStructA MyAlias;\n")
	require.Len(t, fs.Symbols, 1)
	sym := fs.Symbols[0]
	assert.Equal(t, symbols.Typedef, sym.Kind)
	assert.Equal(t, "MyAlias", sym.Name)
	assert.Equal(t, "MyStructA", sym.TypedefSource)
}

func TestExtractModule(t *testing.T) {
	fs := extractSource(t, `package p;

module MyModule {
    MyIface iface;
};
`)
	require.Len(t, fs.Symbols, 1)
	sym := fs.Symbols[0]
	assert.Equal(t, symbols.Module, sym.Kind)
	require.Len(t, sym.Members, 1)
	assert.Equal(t, "iface", sym.Members[0].Name)
	assert.Equal(t, "MyIface", sym.Members[0].TypeRef)
}

func TestExtractCTypeAttribute(t *testing.T) {
	fs := extractSource(t, `package p;

@ctype(custom_name_t)
struct MyStruct {
    int a;
};
`)
	require.Len(t, fs.Symbols, 1)
	assert.Equal(t, "custom_name_t", fs.Symbols[0].CType)
}

func TestExtractDeclarationOrder(t *testing.T) {
	fs := extractSource(t, `package p;

struct B { int x; };
enum E { V };
struct A { int y; };
`)
	require.Len(t, fs.Symbols, 3)
	for i, name := range []string{"B", "E", "A"} {
		assert.Equal(t, name, fs.Symbols[i].Name)
		assert.Equal(t, i, fs.Symbols[i].Order)
	}
}

func TestMissingPackage(t *testing.T) {
	fs := extractSource(t, "struct S { int a; };\n")

	var missing *MissingPackageError
	require.ErrorAs(t, fs.Err, &missing)
	assert.Equal(t, symbols.UnknownPackage, fs.Package)
	require.Len(t, fs.Symbols, 1, "symbols are still indexed under the sentinel package")
	assert.Equal(t, symbols.UnknownPackage, fs.Symbols[0].Package)
}

func TestAmbiguousPackage(t *testing.T) {
	fs := extractSource(t, "package first;\npackage second;\nstruct S { int a; };\n")

	var ambiguous *AmbiguousPackageError
	require.ErrorAs(t, fs.Err, &ambiguous)
	assert.Equal(t, "first", ambiguous.First)
	assert.Equal(t, "first", fs.Package, "first declaration wins")
}

func TestExtractSkipsErrorRegions(t *testing.T) {
	fs := extractSource(t, `package p;

%%% not iop at all ;

struct Good { int a; };
`)
	require.NoError(t, fs.Err)
	require.Len(t, fs.Symbols, 1)
	assert.Equal(t, "Good", fs.Symbols[0].Name)
}

func TestLeadingDocComment(t *testing.T) {
	fs := extractSource(t, `package p;

/** My struct.
 *
 * With a second paragraph.
 */
struct S {
    int a;
};
`)
	require.Len(t, fs.Symbols, 1)
	assert.Equal(t, "My struct.\n\nWith a second paragraph.", fs.Symbols[0].Doc)
}

func TestBannerCommentIsNotDoc(t *testing.T) {
	fs := extractSource(t, `package p;

/*** section banner ***/
struct S { int a; };
`)
	require.Len(t, fs.Symbols, 1)
	assert.Empty(t, fs.Symbols[0].Doc)
}

func TestPlainCommentIsNotDoc(t *testing.T) {
	fs := extractSource(t, `package p;

/* not a doc comment */
struct S { int a; };
`)
	require.Len(t, fs.Symbols, 1)
	assert.Empty(t, fs.Symbols[0].Doc)
}

func TestMemberTrailingDoc(t *testing.T) {
	fs := extractSource(t, `package p;

struct S {
    int a; /**< the a field */
    int b;
};
`)
	require.Len(t, fs.Symbols, 1)
	members := fs.Symbols[0].Members
	require.Len(t, members, 2)
	assert.Equal(t, "the a field", members[0].Doc)
	assert.Empty(t, members[1].Doc)
}

func TestMemberLeadingDocWinsOverTrailing(t *testing.T) {
	fs := extractSource(t, `package p;

struct S {
    /** leading wins */
    int a; /**< trailing loses */
};
`)
	require.Len(t, fs.Symbols, 1)
	assert.Equal(t, "leading wins", fs.Symbols[0].Members[0].Doc)
}

func TestTrailingDocOnNextLineDoesNotAttach(t *testing.T) {
	fs := extractSource(t, `package p;

struct S {
    int a;
    /**< not attached to a */
    int b;
};
`)
	require.Len(t, fs.Symbols, 1)
	members := fs.Symbols[0].Members
	require.Len(t, members, 2)
	assert.Empty(t, members[0].Doc)
	assert.Empty(t, members[1].Doc, "a trailing-form comment is never a leading doc")
}

func TestEnumValueDocs(t *testing.T) {
	fs := extractSource(t, `package p;

enum E {
    /** first value */
    A = 0,
    B = 1, /**< second value */
};
`)
	require.Len(t, fs.Symbols, 1)
	members := fs.Symbols[0].Members
	require.Len(t, members, 2)
	assert.Equal(t, "first value", members[0].Doc)
	assert.Equal(t, "second value", members[1].Doc)
}
