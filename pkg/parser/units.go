package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// DefinitionKind classifies a definition node found in a syntax tree.
type DefinitionKind int

const (
	DefFunction DefinitionKind = iota
	DefAsyncFunction
	DefClass
)

// Definition is a function, method, or class definition located in a
// parsed file.
type Definition struct {
	Kind      DefinitionKind
	Name      string
	StartLine uint32 // 1-indexed
	EndLine   uint32
}

// functionNodeTypes maps each language to the node types representing
// function or method definitions.
var functionNodeTypes = map[Language][]string{
	LangGo:         {"function_declaration", "method_declaration"},
	LangRust:       {"function_item"},
	LangPython:     {"function_definition"},
	LangTypeScript: {"function_declaration", "function_expression", "arrow_function", "method_definition"},
	LangJavaScript: {"function_declaration", "function_expression", "arrow_function", "method_definition"},
	LangTSX:        {"function_declaration", "function_expression", "arrow_function", "method_definition"},
	LangJava:       {"method_declaration", "constructor_declaration"},
	LangC:          {"function_definition"},
	LangCPP:        {"function_definition"},
	LangCSharp:     {"method_declaration", "constructor_declaration"},
	LangRuby:       {"method", "singleton_method"},
	LangPHP:        {"function_definition", "method_declaration"},
	LangBash:       {"function_definition"},
}

// classNodeTypes maps each language to the node types representing
// class-like definitions.
var classNodeTypes = map[Language][]string{
	LangGo:         {"type_declaration"},
	LangRust:       {"struct_item", "impl_item"},
	LangPython:     {"class_definition"},
	LangTypeScript: {"class_declaration"},
	LangJavaScript: {"class_declaration"},
	LangTSX:        {"class_declaration"},
	LangJava:       {"class_declaration", "interface_declaration"},
	LangCPP:        {"class_specifier", "struct_specifier"},
	LangCSharp:     {"class_declaration", "interface_declaration", "struct_declaration"},
	LangRuby:       {"class", "module"},
	LangPHP:        {"class_declaration", "interface_declaration", "trait_declaration"},
}

// Definitions extracts all function, method, and class definitions from a
// parsed file. Nested definitions (methods inside classes, closures) are
// reported individually, mirroring a full tree walk.
func Definitions(result *ParseResult) []Definition {
	funcTypes := toSet(functionNodeTypes[result.Language])
	clsTypes := toSet(classNodeTypes[result.Language])

	var defs []Definition
	Walk(result.Tree.RootNode(), result.Source, func(node *sitter.Node, source []byte) bool {
		nodeType := node.Type()
		switch {
		case funcTypes[nodeType]:
			kind := DefFunction
			if isAsync(node) {
				kind = DefAsyncFunction
			}
			defs = append(defs, Definition{
				Kind:      kind,
				Name:      definitionName(node, source),
				StartLine: node.StartPoint().Row + 1,
				EndLine:   node.EndPoint().Row + 1,
			})
		case clsTypes[nodeType]:
			defs = append(defs, Definition{
				Kind:      DefClass,
				Name:      definitionName(node, source),
				StartLine: node.StartPoint().Row + 1,
				EndLine:   node.EndPoint().Row + 1,
			})
		}
		return true
	})

	return defs
}

func toSet(types []string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// isAsync reports whether a function definition carries an async marker.
// Tree-sitter represents "async" as an anonymous leading token.
func isAsync(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "async" {
			return true
		}
		if child.IsNamed() {
			break
		}
	}
	return false
}

// definitionName extracts the declared name of a definition node, or
// "anonymous" when the grammar carries none (arrow functions, impl blocks).
func definitionName(node *sitter.Node, source []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return NodeText(nameNode, source)
	}
	// C/C++ nest the name inside the declarator.
	if declNode := node.ChildByFieldName("declarator"); declNode != nil {
		if nameNode := declNode.ChildByFieldName("declarator"); nameNode != nil {
			return NodeText(nameNode, source)
		}
	}
	return "anonymous"
}

// CommentMarkers returns the line-comment prefixes for a language.
func CommentMarkers(lang Language) []string {
	switch lang {
	case LangPython, LangRuby, LangBash:
		return []string{"#"}
	case LangPHP:
		return []string{"//", "#"}
	default:
		return []string{"//"}
	}
}
