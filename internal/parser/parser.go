// Package parser turns IOP source bytes into a concrete syntax tree.
//
// The parser is fault tolerant: malformed regions become NodeError nodes
// and parsing continues with the next recognizable construct, so a file
// with a syntax error still yields symbols for its well-formed
// declarations. Comments are kept in the tree as siblings of the
// constructs they precede, which is what the doc-comment attachment in
// the extractor relies on.
package parser

import "iopls/internal/symbols"

// Parse builds the syntax tree for one file. It never fails: the worst
// input produces a file node full of error nodes.
func Parse(src []byte) *Node {
	p := &parser{toks: lex(src)}
	root := &Node{Kind: NodeFile}

	var attrs []*Node
	for !p.atEOF() {
		tok := p.cur()
		switch {
		case tok.kind == tokComment:
			p.next()
			root.add(&Node{Kind: NodeComment, R: tok.r, Text: tok.text})

		case tok.kind == tokPunct && tok.text == "@":
			attrs = append(attrs, p.parseAttribute())

		case tok.kind == tokIdent && tok.text == "package":
			root.add(p.parsePackage())
			attrs = nil

		case tok.kind == tokIdent && isDeclKeyword(declKeyword(p)):
			root.add(p.parseDecl(attrs))
			attrs = nil

		default:
			root.add(p.errorUntilRecovery())
			attrs = nil
		}
	}

	if len(root.Children) > 0 {
		root.R = symbols.Range{
			Start: symbols.Position{},
			End:   root.Children[len(root.Children)-1].R.End,
		}
	}
	if end := p.cur().r.End; root.R.End.Before(end) {
		root.R.End = end
	}
	return root
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) peek(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	tok := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) atEOF() bool { return p.cur().kind == tokEOF }

func (p *parser) atPunct(text string) bool {
	tok := p.cur()
	return tok.kind == tokPunct && tok.text == text
}

func (p *parser) eat(text string) bool {
	if p.atPunct(text) {
		p.next()
		return true
	}
	return false
}

var declKinds = map[string]NodeKind{
	"struct":    NodeStruct,
	"union":     NodeUnion,
	"class":     NodeClass,
	"enum":      NodeEnum,
	"interface": NodeInterface,
	"module":    NodeModule,
	"typedef":   NodeTypedef,
	"snmpObj":   NodeSnmpObj,
	"snmpTbl":   NodeSnmpTbl,
	"snmpIface": NodeSnmpIface,
}

func isDeclKeyword(kw string) bool {
	_, ok := declKinds[kw]
	return ok
}

// declKeyword returns the declaration keyword at the cursor, looking past
// class modifiers such as "abstract" or "local".
func declKeyword(p *parser) string {
	tok := p.cur()
	if tok.kind != tokIdent {
		return ""
	}
	for n := 0; tok.text == "abstract" || tok.text == "local"; n++ {
		tok = p.peek(n + 1)
		if tok.kind != tokIdent {
			return ""
		}
	}
	return tok.text
}

func (p *parser) parsePackage() *Node {
	start := p.next() // "package"
	n := &Node{Kind: NodePackage, R: start.r}
	if tok := p.cur(); tok.kind == tokIdent {
		p.next()
		n.add(&Node{Kind: NodeIdent, R: tok.r, Text: tok.text})
	}
	p.eat(";")
	n.R.End = p.prevEnd()
	return n
}

func (p *parser) parseDecl(attrs []*Node) *Node {
	start := p.cur()
	for p.cur().kind == tokIdent && (p.cur().text == "abstract" || p.cur().text == "local") {
		p.next()
	}
	kw := p.next()
	kind := declKinds[kw.text]

	n := &Node{Kind: kind, R: start.r}
	for _, a := range attrs {
		n.add(a)
		if a.R.Start.Before(n.R.Start) {
			n.R.Start = a.R.Start
		}
	}

	if kind == NodeTypedef {
		p.parseTypedefBody(n)
		n.R.End = p.prevEnd()
		return n
	}

	if tok := p.cur(); tok.kind == tokIdent {
		p.next()
		n.add(&Node{Kind: NodeIdent, R: tok.r, Text: tok.text})
	}

	if kind == NodeClass {
		p.parseClassHeader(n)
	}

	if p.eat("{") {
		switch kind {
		case NodeEnum:
			p.parseEnumBody(n)
		case NodeInterface, NodeSnmpIface:
			p.parseInterfaceBody(n)
		case NodeModule:
			p.parseModuleBody(n)
		default:
			p.parseFieldBody(n)
		}
	}
	p.eat(";")
	n.R.End = p.prevEnd()
	return n
}

// parseClassHeader consumes the ": <id> : <Parent>" segments between the
// class name and its body. The numeric segment is the class id; an
// identifier segment is the inherited class reference.
func (p *parser) parseClassHeader(n *Node) {
	for p.eat(":") {
		tok := p.cur()
		switch tok.kind {
		case tokNumber:
			p.next()
			n.add(&Node{Kind: NodeClassID, R: tok.r, Text: tok.text})
		case tokIdent:
			p.next()
			inh := &Node{Kind: NodeInherit, R: tok.r}
			inh.add(&Node{Kind: NodeTypeRef, R: tok.r, Text: tok.text})
			n.add(inh)
		default:
			return
		}
	}
}

func (p *parser) parseFieldBody(n *Node) {
	var attrs []*Node
	for !p.atEOF() && !p.atPunct("}") {
		tok := p.cur()
		switch {
		case tok.kind == tokComment:
			p.next()
			n.add(&Node{Kind: NodeComment, R: tok.r, Text: tok.text})
		case tok.kind == tokPunct && tok.text == "@":
			attrs = append(attrs, p.parseAttribute())
		case tok.kind == tokIdent:
			n.add(p.parseField(attrs))
			attrs = nil
		default:
			n.add(p.errorUntilMemberEnd())
			attrs = nil
		}
	}
	p.eat("}")
}

// parseField parses "type specifier? name (= default)? ;". The keyword
// "static" before class fields is skipped.
func (p *parser) parseField(attrs []*Node) *Node {
	for p.cur().kind == tokIdent && p.cur().text == "static" {
		p.next()
	}
	typ := p.next()
	f := &Node{Kind: NodeField, R: typ.r}
	for _, a := range attrs {
		f.add(a)
		if a.R.Start.Before(f.R.Start) {
			f.R.Start = a.R.Start
		}
	}
	f.add(&Node{Kind: NodeTypeRef, R: typ.r, Text: typ.text})

	p.parseSpecifier(f)

	if tok := p.cur(); tok.kind == tokIdent {
		p.next()
		f.add(&Node{Kind: NodeIdent, R: tok.r, Text: tok.text})
	}
	if p.eat("=") {
		f.add(p.parseDefault(";"))
	}
	if !p.eat(";") {
		f.add(p.errorUntilMemberEnd())
	}
	f.R.End = p.prevEnd()
	return f
}

func (p *parser) parseSpecifier(parent *Node) {
	tok := p.cur()
	if tok.kind != tokPunct {
		return
	}
	switch tok.text {
	case "?", "&":
		p.next()
		parent.add(&Node{Kind: NodeSpecifier, R: tok.r, Text: tok.text})
	case "[":
		if p.peek(1).kind == tokPunct && p.peek(1).text == "]" {
			open := p.next()
			closing := p.next()
			r := symbols.Range{Start: open.r.Start, End: closing.r.End}
			parent.add(&Node{Kind: NodeSpecifier, R: r, Text: "[]"})
		}
	}
}

// parseDefault collects the raw default-value tokens up to (not
// including) any of the stop punctuation. A default consisting of a
// single identifier gets an identifier child so the resolver can
// classify it as an enum value reference.
func (p *parser) parseDefault(stops ...string) *Node {
	d := &Node{Kind: NodeDefault, R: symbols.Range{Start: p.cur().r.Start, End: p.cur().r.Start}}
	var idents []*Node
	text := ""
	n := 0
	for !p.atEOF() && !p.atPunct("}") {
		stop := false
		for _, s := range stops {
			if p.atPunct(s) {
				stop = true
			}
		}
		if stop {
			break
		}
		tok := p.next()
		if n == 0 {
			d.R.Start = tok.r.Start
		}
		if text != "" {
			text += " "
		}
		text += tok.text
		d.R.End = tok.r.End
		if tok.kind == tokIdent {
			idents = append(idents, &Node{Kind: NodeIdent, R: tok.r, Text: tok.text})
		}
		n++
	}
	d.Text = text
	if n == 1 && len(idents) == 1 {
		d.add(idents[0])
	}
	return d
}

func (p *parser) parseEnumBody(n *Node) {
	var attrs []*Node
	for !p.atEOF() && !p.atPunct("}") {
		tok := p.cur()
		switch {
		case tok.kind == tokComment:
			p.next()
			n.add(&Node{Kind: NodeComment, R: tok.r, Text: tok.text})
		case tok.kind == tokPunct && tok.text == "@":
			attrs = append(attrs, p.parseAttribute())
		case tok.kind == tokIdent:
			p.next()
			v := &Node{Kind: NodeEnumValue, R: tok.r}
			for _, a := range attrs {
				v.add(a)
			}
			attrs = nil
			v.add(&Node{Kind: NodeIdent, R: tok.r, Text: tok.text})
			if p.eat("=") {
				v.add(p.parseDefault(","))
			}
			p.eat(",")
			v.R.End = p.prevEnd()
			n.add(v)
		default:
			n.add(p.errorUntilMemberEnd())
			attrs = nil
		}
	}
	p.eat("}")
}

func (p *parser) parseInterfaceBody(n *Node) {
	var attrs []*Node
	for !p.atEOF() && !p.atPunct("}") {
		tok := p.cur()
		switch {
		case tok.kind == tokComment:
			p.next()
			n.add(&Node{Kind: NodeComment, R: tok.r, Text: tok.text})
		case tok.kind == tokPunct && tok.text == "@":
			attrs = append(attrs, p.parseAttribute())
		case tok.kind == tokIdent:
			n.add(p.parseRPC(attrs))
			attrs = nil
		default:
			n.add(p.errorUntilMemberEnd())
			attrs = nil
		}
	}
	p.eat("}")
}

var rpcClauseKinds = map[string]NodeKind{
	"in":    NodeRPCIn,
	"out":   NodeRPCOut,
	"throw": NodeRPCThrow,
}

// parseRPC parses "name in X out Y throw Z;" where each clause takes an
// inline argument list, a single type reference, or void/null.
func (p *parser) parseRPC(attrs []*Node) *Node {
	name := p.next()
	rpc := &Node{Kind: NodeRPC, R: name.r}
	for _, a := range attrs {
		rpc.add(a)
		if a.R.Start.Before(rpc.R.Start) {
			rpc.R.Start = a.R.Start
		}
	}
	rpc.add(&Node{Kind: NodeIdent, R: name.r, Text: name.text})

	for p.cur().kind == tokIdent {
		kind, ok := rpcClauseKinds[p.cur().text]
		if !ok {
			break
		}
		kw := p.next()
		clause := &Node{Kind: kind, R: kw.r}
		switch tok := p.cur(); {
		case tok.kind == tokPunct && tok.text == "(":
			clause.add(p.parseArgList())
		case tok.kind == tokIdent:
			p.next()
			clause.add(&Node{Kind: NodeTypeRef, R: tok.r, Text: tok.text})
		}
		clause.R.End = p.prevEnd()
		rpc.add(clause)
	}
	if !p.eat(";") {
		rpc.add(p.errorUntilMemberEnd())
	}
	rpc.R.End = p.prevEnd()
	return rpc
}

// parseArgList consumes a balanced "(...)" region without interpreting
// it. Inline argument lists are anonymous structs and declare no
// resolvable single type reference.
func (p *parser) parseArgList() *Node {
	open := p.next() // "("
	n := &Node{Kind: NodeArgList, R: open.r}
	depth := 1
	text := ""
	for !p.atEOF() && depth > 0 {
		tok := p.next()
		if tok.kind == tokPunct {
			switch tok.text {
			case "(":
				depth++
			case ")":
				depth--
				if depth == 0 {
					n.R.End = tok.r.End
					n.Text = text
					return n
				}
			}
		}
		if text != "" {
			text += " "
		}
		text += tok.text
	}
	n.R.End = p.prevEnd()
	n.Text = text
	return n
}

func (p *parser) parseModuleBody(n *Node) {
	for !p.atEOF() && !p.atPunct("}") {
		tok := p.cur()
		switch {
		case tok.kind == tokComment:
			p.next()
			n.add(&Node{Kind: NodeComment, R: tok.r, Text: tok.text})
		case tok.kind == tokIdent:
			typ := p.next()
			mf := &Node{Kind: NodeModuleField, R: typ.r}
			mf.add(&Node{Kind: NodeTypeRef, R: typ.r, Text: typ.text})
			if nameTok := p.cur(); nameTok.kind == tokIdent {
				p.next()
				mf.add(&Node{Kind: NodeIdent, R: nameTok.r, Text: nameTok.text})
			}
			if !p.eat(";") {
				mf.add(p.errorUntilMemberEnd())
			}
			mf.R.End = p.prevEnd()
			n.add(mf)
		default:
			n.add(p.errorUntilMemberEnd())
		}
	}
	p.eat("}")
}

// parseTypedefBody parses "typedef <type><specifier?> <Name>;" with the
// typedef keyword already consumed.
func (p *parser) parseTypedefBody(n *Node) {
	if tok := p.cur(); tok.kind == tokIdent {
		p.next()
		n.add(&Node{Kind: NodeTypeRef, R: tok.r, Text: tok.text})
	}
	p.parseSpecifier(n)
	if tok := p.cur(); tok.kind == tokIdent {
		p.next()
		n.add(&Node{Kind: NodeIdent, R: tok.r, Text: tok.text})
	}
	p.eat(";")
}

// parseAttribute parses "@name" or "@name(raw content)". The raw
// argument text is stored on the node; @ctype is the one attribute the
// extractor interprets.
func (p *parser) parseAttribute() *Node {
	at := p.next() // "@"
	n := &Node{Kind: NodeAttribute, R: at.r}
	if tok := p.cur(); tok.kind == tokIdent {
		p.next()
		n.add(&Node{Kind: NodeIdent, R: tok.r, Text: tok.text})
	}
	if p.atPunct("(") {
		p.next()
		depth := 1
		text := ""
		for !p.atEOF() && depth > 0 {
			tok := p.next()
			if tok.kind == tokPunct {
				if tok.text == "(" {
					depth++
				} else if tok.text == ")" {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			if text != "" {
				text += " "
			}
			text += tok.text
		}
		n.Text = text
	}
	n.R.End = p.prevEnd()
	return n
}

// errorUntilRecovery swallows tokens up to a point where top-level
// parsing can restart: after a ";" or "}" at brace depth zero, or right
// before the next declaration keyword.
func (p *parser) errorUntilRecovery() *Node {
	start := p.cur()
	n := &Node{Kind: NodeError, R: start.r}
	depth := 0
	for !p.atEOF() {
		tok := p.cur()
		if tok.kind == tokIdent && depth == 0 && (isDeclKeyword(tok.text) || tok.text == "package") && tok.r.Start != start.r.Start {
			break
		}
		p.next()
		n.R.End = tok.r.End
		if tok.kind == tokPunct {
			switch tok.text {
			case "{":
				depth++
			case "}":
				if depth > 0 {
					depth--
				}
				if depth == 0 {
					p.eat(";")
					n.R.End = p.prevEnd()
					return n
				}
			case ";":
				if depth == 0 {
					return n
				}
			}
		}
	}
	return n
}

// errorUntilMemberEnd swallows tokens up to the next ";" (consumed) or
// "}" (left in place) so block parsing can continue with the next member.
func (p *parser) errorUntilMemberEnd() *Node {
	start := p.cur()
	n := &Node{Kind: NodeError, R: start.r}
	for !p.atEOF() && !p.atPunct("}") {
		tok := p.next()
		n.R.End = tok.r.End
		if tok.kind == tokPunct && tok.text == ";" {
			break
		}
	}
	return n
}

func (p *parser) prevEnd() symbols.Position {
	if p.pos == 0 {
		return p.cur().r.Start
	}
	return p.toks[p.pos-1].r.End
}
