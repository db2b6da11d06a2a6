package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// commentNodeTypes are tree node types that carry no structural meaning.
// They are excluded from structural dumps so that comment-only differences
// do not change a dump.
var commentNodeTypes = map[string]bool{
	"comment":       true,
	"line_comment":  true,
	"block_comment": true,
}

// StructuralDump serializes a syntax tree into a canonical textual form
// capturing node kinds and leaf token text but no source positions or
// formatting. Two code fragments produce equal dumps iff their trees have
// the same shape and the same tokens, regardless of whitespace and
// comments.
func StructuralDump(result *ParseResult) string {
	var b strings.Builder
	dumpNode(&b, result.Tree.RootNode(), result.Source)
	return b.String()
}

func dumpNode(b *strings.Builder, node *sitter.Node, source []byte) {
	if node == nil || commentNodeTypes[node.Type()] {
		return
	}

	b.WriteString(node.Type())

	if node.ChildCount() == 0 {
		if node.IsNamed() {
			// Leaf tokens (identifiers, literals) carry their text;
			// anonymous leaves already spell their token in the type.
			b.WriteByte('=')
			b.WriteString(NodeText(node, source))
		}
		return
	}

	b.WriteByte('(')
	first := true
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if commentNodeTypes[child.Type()] {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		dumpNode(b, child, source)
	}
	b.WriteByte(')')
}
