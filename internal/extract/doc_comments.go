package extract

import (
	"strings"

	"iopls/internal/parser"
)

// Doc comment forms, mirroring the conventions of the IOP compiler:
// a leading "/** ... */" block documents the declaration that follows,
// a trailing "/**< ... */" on the same line documents the member it
// follows. "/***" banners are not docs. When both forms are present the
// leading comment wins; forms are never concatenated.

// leadingDoc returns the cleaned leading doc comment for a node, or "".
func leadingDoc(n *parser.Node) string {
	prev := n.PrevSibling()
	if prev == nil || prev.Kind != parser.NodeComment {
		return ""
	}
	text := prev.Text
	if !strings.HasPrefix(text, "/**") ||
		strings.HasPrefix(text, "/***") ||
		strings.HasPrefix(text, "/**<") {
		return ""
	}
	return cleanBlockDoc(text)
}

// trailingDoc returns the cleaned trailing doc comment for a member
// node, or "". The comment must start on the member's last line.
func trailingDoc(n *parser.Node) string {
	next := n.NextSibling()
	if next == nil || next.Kind != parser.NodeComment {
		return ""
	}
	if !strings.HasPrefix(next.Text, "/**<") {
		return ""
	}
	if next.R.Start.Line != n.R.End.Line {
		return ""
	}
	return cleanTrailingDoc(next.Text)
}

// memberDoc applies the attachment rule for members: leading form first,
// trailing form as fallback.
func memberDoc(n *parser.Node) string {
	if doc := leadingDoc(n); doc != "" {
		return doc
	}
	return trailingDoc(n)
}

func cleanBlockDoc(text string) string {
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimSuffix(text, "*/")
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "* ") {
			line = line[2:]
		} else if strings.HasPrefix(line, "*") {
			line = line[1:]
		}
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

func cleanTrailingDoc(text string) string {
	text = strings.TrimPrefix(text, "/**<")
	text = strings.TrimSuffix(text, "*/")
	return strings.TrimSpace(text)
}
