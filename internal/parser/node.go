package parser

import "iopls/internal/symbols"

// NodeKind is the closed set of syntax-tree construct kinds. Consumers
// switch on the kind once per node instead of re-inspecting node text.
type NodeKind int

const (
	NodeFile NodeKind = iota
	NodePackage
	NodeComment
	NodeAttribute

	NodeStruct
	NodeUnion
	NodeClass
	NodeEnum
	NodeInterface
	NodeModule
	NodeTypedef
	NodeSnmpObj
	NodeSnmpTbl
	NodeSnmpIface

	NodeField
	NodeEnumValue
	NodeRPC
	NodeModuleField

	NodeIdent
	NodeTypeRef
	NodeSpecifier
	NodeDefault
	NodeClassID
	NodeInherit
	NodeRPCIn
	NodeRPCOut
	NodeRPCThrow
	NodeArgList

	// NodeError marks a region the parser could not make sense of.
	// Surrounding constructs are still produced.
	NodeError
)

// Node is one node of the concrete syntax tree produced by Parse. The
// tree is fault tolerant: malformed regions appear as NodeError children
// rather than aborting the parse.
type Node struct {
	Kind     NodeKind
	R        symbols.Range
	Text     string
	Parent   *Node
	Children []*Node
}

func (n *Node) add(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// Child returns the first child of the given kind, or nil.
func (n *Node) Child(k NodeKind) *Node {
	for _, c := range n.Children {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// ChildrenOf returns all children of the given kind.
func (n *Node) ChildrenOf(k NodeKind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// Ident returns the first identifier child, or nil.
func (n *Node) Ident() *Node { return n.Child(NodeIdent) }

// IdentText returns the text of the first identifier child, or "".
func (n *Node) IdentText() string {
	if id := n.Ident(); id != nil {
		return id.Text
	}
	return ""
}

// At returns the smallest node whose range contains the position, or nil
// when the position falls outside the tree.
func (n *Node) At(p symbols.Position) *Node {
	if !n.R.Contains(p) {
		return nil
	}
	for _, c := range n.Children {
		if hit := c.At(p); hit != nil {
			return hit
		}
	}
	return n
}

// PrevSibling returns the sibling immediately before n, or nil.
func (n *Node) PrevSibling() *Node {
	if n.Parent == nil {
		return nil
	}
	var prev *Node
	for _, c := range n.Parent.Children {
		if c == n {
			return prev
		}
		prev = c
	}
	return nil
}

// NextSibling returns the sibling immediately after n, or nil.
func (n *Node) NextSibling() *Node {
	if n.Parent == nil {
		return nil
	}
	for i, c := range n.Parent.Children {
		if c == n && i+1 < len(n.Parent.Children) {
			return n.Parent.Children[i+1]
		}
	}
	return nil
}

// IsDecl reports whether the node is a top-level declaration construct.
func (n *Node) IsDecl() bool {
	switch n.Kind {
	case NodeStruct, NodeUnion, NodeClass, NodeEnum, NodeInterface,
		NodeModule, NodeTypedef, NodeSnmpObj, NodeSnmpTbl, NodeSnmpIface:
		return true
	}
	return false
}
