package skills

import (
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// scriptRefPattern captures the directory prefix in front of scripts/ and the
// path below it.
var scriptRefPattern = regexp.MustCompile("(?:^|[\\s\"'`])(/?(?:[A-Za-z0-9_\\-.]+/)*)" + scriptsDirName + `/([A-Za-z0-9_\-./]+)`)

// ReferencedScripts returns the scripts/ paths mentioned inside code spans and
// code blocks of a skill body, relative to the scripts directory. Only paths
// that belong to the skill in skillDir count: bare scripts/... paths and
// paths whose directory in front of scripts/ is skillDir.
func ReferencedScripts(body, skillDir string) []string {
	source := []byte(body)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var refs []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		var snippet string
		switch node := n.(type) {
		case *ast.CodeSpan:
			snippet = codeSpanText(node, source)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			snippet = blockText(node, source)
		default:
			return ast.WalkContinue, nil
		}

		for _, m := range scriptRefPattern.FindAllStringSubmatch(snippet, -1) {
			if !ownsScripts(m[1], skillDir) {
				continue
			}
			ref := strings.TrimRight(m[2], "./")
			if ref != "" && !slices.Contains(refs, ref) {
				refs = append(refs, ref)
			}
		}
		return ast.WalkSkipChildren, nil
	})

	slices.Sort(refs)
	return refs
}

func codeSpanText(node *ast.CodeSpan, source []byte) string {
	var b strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return b.String()
}

func blockText(node ast.Node, source []byte) string {
	var b strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(source))
	}
	return b.String()
}

// ownsScripts reports whether prefix, the text in front of scripts/, points
// at the scripts of skillDir.
func ownsScripts(prefix, skillDir string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" || prefix == "." {
		return true
	}
	return path.Base(prefix) == skillDir
}
