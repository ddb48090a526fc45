// Package scanner extracts require() call sites from a file's syntax tree,
// classifying each as static (single string-literal argument) or dynamic
// (anything else). It performs no filesystem access and no evaluation of
// argument expressions.
//
// Walks a tree-sitter parse tree over named children looking for
// require() call sites, selecting a grammar (javascript, typescript, or
// tsx) by file extension.
package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	tsx "github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/modwalk/cartographer/internal/model"
)

// Scanner parses source files and extracts require() import descriptors.
type Scanner struct{}

// New constructs a Scanner.
func New() *Scanner { return &Scanner{} }

// Scan walks the syntax tree of content (parsed under the grammar selected
// by path's extension) and returns the file's Import Descriptors in order
// of first sighting.
func (s *Scanner) Scan(path string, content []byte) ([]model.ImportDescriptor, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(path))

	tree := parser.Parse(nil, content)
	if tree == nil {
		return nil, fmt.Errorf("scanner: parse failed: %s", path)
	}

	order := make([]string, 0, 8)
	byPath := make(map[string]*model.ImportDescriptor, 8)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.IsNamed() && n.Type() == "call_expression" {
			if ref, textPath, static, ok := inspectCall(content, n); ok {
				d, exists := byPath[textPath]
				if !exists {
					d = &model.ImportDescriptor{Path: textPath, Static: static}
					byPath[textPath] = d
					order = append(order, textPath)
				}
				d.References = append(d.References, ref)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())

	out := make([]model.ImportDescriptor, 0, len(order))
	for _, p := range order {
		out = append(out, *byPath[p])
	}
	return out, nil
}

// languageFor selects a tree-sitter grammar by file extension, falling
// back to plain javascript for non-TypeScript CommonJS sources.
func languageFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts":
		return ts.GetLanguage()
	case ".tsx", ".jsx":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// inspectCall reports whether call is a require(<expr>) site: callee is a
// bare identifier named "require" and the call has exactly one argument.
// It returns the Reference (whole call expression), the stored textual
// path (quote-stripped literal for static imports, raw source slice
// otherwise), and whether the import is static.
func inspectCall(content []byte, call *sitter.Node) (ref model.Reference, textPath string, static bool, ok bool) {
	if int(call.NamedChildCount()) < 2 {
		return model.Reference{}, "", false, false
	}
	callee := call.NamedChild(0)
	args := call.NamedChild(1)
	if callee == nil || args == nil {
		return model.Reference{}, "", false, false
	}
	if callee.Type() != "identifier" || nodeText(content, callee) != "require" {
		return model.Reference{}, "", false, false
	}
	if args.Type() != "arguments" || int(args.NamedChildCount()) != 1 {
		return model.Reference{}, "", false, false
	}

	arg := args.NamedChild(0)
	ref = model.Reference{
		Source: nodeText(content, call),
		Start:  int(call.StartByte()),
		End:    int(call.EndByte()),
	}

	raw := content[arg.StartByte():arg.EndByte()]
	if arg.Type() == "string" && len(raw) >= 2 {
		return ref, string(raw[1 : len(raw)-1]), true, true
	}
	return ref, string(raw), false, true
}

func nodeText(src []byte, n *sitter.Node) string {
	return string(src[n.StartByte():n.EndByte()])
}
