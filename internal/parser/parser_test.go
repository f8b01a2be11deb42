package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iopls/internal/symbols"
)

func TestParsePackage(t *testing.T) {
	root := Parse([]byte("package tstiop;\n"))

	pkgs := root.ChildrenOf(NodePackage)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "tstiop", pkgs[0].IdentText())
}

func TestParseDottedPackage(t *testing.T) {
	root := Parse([]byte("package plugin.host;\n"))

	pkgs := root.ChildrenOf(NodePackage)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "plugin.host", pkgs[0].IdentText())
}

func TestParseStruct(t *testing.T) {
	src := `package tstiop;

struct MyStructA {
    int a;
    string? name;
    int[] values;
    core.LogLevel level = LOG_LEVEL_DEFAULT;
};
`
	root := Parse([]byte(src))

	structs := root.ChildrenOf(NodeStruct)
	require.Len(t, structs, 1)
	s := structs[0]
	assert.Equal(t, "MyStructA", s.IdentText())

	fields := s.ChildrenOf(NodeField)
	require.Len(t, fields, 4)

	assert.Equal(t, "a", fields[0].IdentText())
	assert.Equal(t, "int", fields[0].Child(NodeTypeRef).Text)
	assert.Nil(t, fields[0].Child(NodeSpecifier))

	assert.Equal(t, "name", fields[1].IdentText())
	require.NotNil(t, fields[1].Child(NodeSpecifier))
	assert.Equal(t, "?", fields[1].Child(NodeSpecifier).Text)

	assert.Equal(t, "values", fields[2].IdentText())
	require.NotNil(t, fields[2].Child(NodeSpecifier))
	assert.Equal(t, "[]", fields[2].Child(NodeSpecifier).Text)

	assert.Equal(t, "level", fields[3].IdentText())
	assert.Equal(t, "core.LogLevel", fields[3].Child(NodeTypeRef).Text)
	def := fields[3].Child(NodeDefault)
	require.NotNil(t, def)
	assert.Equal(t, "LOG_LEVEL_DEFAULT", def.Text)
	require.NotNil(t, def.Ident(), "single-identifier default carries an ident child")
	assert.Equal(t, "LOG_LEVEL_DEFAULT", def.IdentText())
}

func TestParseNumericDefaultHasNoIdent(t *testing.T) {
	src := "package p;\nstruct S { int a = 42; };\n"
	root := Parse([]byte(src))

	s := root.ChildrenOf(NodeStruct)[0]
	def := s.ChildrenOf(NodeField)[0].Child(NodeDefault)
	require.NotNil(t, def)
	assert.Equal(t, "42", def.Text)
	assert.Nil(t, def.Ident())
}

func TestParseEnum(t *testing.T) {
	src := `package core;

enum LogLevel {
    LOG_LEVEL_DEBUG = 0,
    LOG_LEVEL_INFO = 1,
    LOG_LEVEL_DEFAULT,
};
`
	root := Parse([]byte(src))

	enums := root.ChildrenOf(NodeEnum)
	require.Len(t, enums, 1)
	assert.Equal(t, "LogLevel", enums[0].IdentText())

	values := enums[0].ChildrenOf(NodeEnumValue)
	require.Len(t, values, 3)
	assert.Equal(t, "LOG_LEVEL_DEBUG", values[0].IdentText())
	assert.Equal(t, "0", values[0].Child(NodeDefault).Text)
	assert.Equal(t, "LOG_LEVEL_INFO", values[1].IdentText())
	assert.Equal(t, "LOG_LEVEL_DEFAULT", values[2].IdentText())
	assert.Nil(t, values[2].Child(NodeDefault))
}

func TestParseClassHeader(t *testing.T) {
	src := `package tstiop;

class MyClassB : 2 : MyClassA {
    int b;
};
`
	root := Parse([]byte(src))

	classes := root.ChildrenOf(NodeClass)
	require.Len(t, classes, 1)
	c := classes[0]
	assert.Equal(t, "MyClassB", c.IdentText())

	id := c.Child(NodeClassID)
	require.NotNil(t, id)
	assert.Equal(t, "2", id.Text)

	inh := c.Child(NodeInherit)
	require.NotNil(t, inh)
	assert.Equal(t, "MyClassA", inh.Child(NodeTypeRef).Text)
}

func TestParseAbstractClass(t *testing.T) {
	src := "package p;\nabstract class Base : 1 { int x; };\n"
	root := Parse([]byte(src))

	classes := root.ChildrenOf(NodeClass)
	require.Len(t, classes, 1)
	assert.Equal(t, "Base", classes[0].IdentText())
}

func TestParseInterface(t *testing.T) {
	src := `package tstiop;

interface MyIface {
    funA in MyStructA out MyStructB throw MyError;
    funB in (int a, string b) out void;
    funC in null out core.Ack;
};
`
	root := Parse([]byte(src))

	ifaces := root.ChildrenOf(NodeInterface)
	require.Len(t, ifaces, 1)
	rpcs := ifaces[0].ChildrenOf(NodeRPC)
	require.Len(t, rpcs, 3)

	funA := rpcs[0]
	assert.Equal(t, "funA", funA.IdentText())
	assert.Equal(t, "MyStructA", funA.Child(NodeRPCIn).Child(NodeTypeRef).Text)
	assert.Equal(t, "MyStructB", funA.Child(NodeRPCOut).Child(NodeTypeRef).Text)
	assert.Equal(t, "MyError", funA.Child(NodeRPCThrow).Child(NodeTypeRef).Text)

	funB := rpcs[1]
	require.NotNil(t, funB.Child(NodeRPCIn))
	assert.NotNil(t, funB.Child(NodeRPCIn).Child(NodeArgList))
	assert.Equal(t, "void", funB.Child(NodeRPCOut).Child(NodeTypeRef).Text)

	funC := rpcs[2]
	assert.Equal(t, "null", funC.Child(NodeRPCIn).Child(NodeTypeRef).Text)
	assert.Equal(t, "core.Ack", funC.Child(NodeRPCOut).Child(NodeTypeRef).Text)
}

func TestParseTypedef(t *testing.T) {
	src := "package p;\ntypedef MyStructA MyAlias;\n"
	root := Parse([]byte(src))

	tds := root.ChildrenOf(NodeTypedef)
	require.Len(t, tds, 1)
	assert.Equal(t, "MyAlias", tds[0].IdentText())
	assert.Equal(t, "MyStructA", tds[0].Child(NodeTypeRef).Text)
}

func TestParseModule(t *testing.T) {
	src := `package tstiop;

module MyModule {
    MyIface iface;
};
`
	root := Parse([]byte(src))

	mods := root.ChildrenOf(NodeModule)
	require.Len(t, mods, 1)
	mfs := mods[0].ChildrenOf(NodeModuleField)
	require.Len(t, mfs, 1)
	assert.Equal(t, "iface", mfs[0].IdentText())
	assert.Equal(t, "MyIface", mfs[0].Child(NodeTypeRef).Text)
}

func TestParseAttributes(t *testing.T) {
	src := `package p;

@ctype(my_struct_t)
struct MyStruct {
    @min(0)
    int a;
};
`
	root := Parse([]byte(src))

	structs := root.ChildrenOf(NodeStruct)
	require.Len(t, structs, 1)
	attrs := structs[0].ChildrenOf(NodeAttribute)
	require.Len(t, attrs, 1)
	assert.Equal(t, "ctype", attrs[0].IdentText())
	assert.Equal(t, "my_struct_t", attrs[0].Text)

	field := structs[0].ChildrenOf(NodeField)[0]
	fattrs := field.ChildrenOf(NodeAttribute)
	require.Len(t, fattrs, 1)
	assert.Equal(t, "min", fattrs[0].IdentText())
}

func TestParseCommentsAreSiblings(t *testing.T) {
	src := `package p;

/** Documents S. */
struct S {
    int a; /**< the a field */
};
`
	root := Parse([]byte(src))

	structs := root.ChildrenOf(NodeStruct)
	require.Len(t, structs, 1)
	prev := structs[0].PrevSibling()
	require.NotNil(t, prev)
	assert.Equal(t, NodeComment, prev.Kind)
	assert.Equal(t, "/** Documents S. */", prev.Text)

	field := structs[0].ChildrenOf(NodeField)[0]
	next := field.NextSibling()
	require.NotNil(t, next)
	assert.Equal(t, NodeComment, next.Kind)
}

func TestParseRecoversFromErrors(t *testing.T) {
	src := `package p;

%%% garbage tokens ;

struct Broken {
    int = ! ;
    int a;
};

struct Good {
    int b;
};
`
	root := Parse([]byte(src))

	structs := root.ChildrenOf(NodeStruct)
	names := make([]string, 0, len(structs))
	for _, s := range structs {
		names = append(names, s.IdentText())
	}
	assert.Contains(t, names, "Broken", "a bad member must not swallow its declaration")
	assert.Contains(t, names, "Good", "a parse error must not swallow later declarations")

	broken := structs[0]
	fields := broken.ChildrenOf(NodeField)
	require.NotEmpty(t, fields)
	assert.Equal(t, "a", fields[len(fields)-1].IdentText(),
		"parsing resumes with the next member after a bad one")
}

func TestParseGarbageNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		";;;",
		"}{",
		"struct",
		"package",
		"@",
		"struct S { int a = ; };",
		"interface I { f in out; }",
	}
	for _, in := range inputs {
		root := Parse([]byte(in))
		require.NotNil(t, root)
		assert.Equal(t, NodeFile, root.Kind)
	}
}

func TestNodeAt(t *testing.T) {
	src := "package p;\nstruct S { core.Other x; };\n"
	root := Parse([]byte(src))

	// "core.Other" starts at line 1, col 11.
	n := root.At(symbols.Position{Line: 1, Col: 13})
	require.NotNil(t, n)
	assert.Equal(t, NodeTypeRef, n.Kind)
	assert.Equal(t, "core.Other", n.Text)

	// "x" is at line 1, col 22.
	n = root.At(symbols.Position{Line: 1, Col: 22})
	require.NotNil(t, n)
	assert.Equal(t, NodeIdent, n.Kind)
	assert.Equal(t, "x", n.Text)

	assert.Nil(t, root.At(symbols.Position{Line: 40, Col: 0}))
}
