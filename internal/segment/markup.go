package segment

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractPlainText renders markdown to plain text. Unlike a prose
// renderer, it preserves block structure as line breaks so the aggregation
// pass sees the same lines a reader would.
func extractPlainText(markdown string) string {
	md := goldmark.New()
	reader := text.NewReader([]byte(markdown))
	doc := md.Parser().Parse(reader)

	var buf strings.Builder
	walkNode(doc, reader.Source(), &buf)

	return buf.String()
}

// walkNode recursively extracts speakable text from the AST.
func walkNode(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock:
		// Nobody wants code read out loud.
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return

	case *ast.Heading:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walkNode(c, source, buf)
		}
		buf.WriteByte('\n')
		return

	case *ast.Paragraph, *ast.ListItem:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			walkNode(c, source, buf)
		}
		buf.WriteByte('\n')
		return

	case *ast.Link, *ast.Emphasis:
		// Keep the text, drop the decoration.
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			walkNode(c, source, buf)
		}
		return

	case *ast.Image:
		return

	case *ast.ThematicBreak:
		buf.WriteByte('\n')
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		walkNode(c, source, buf)
	}
}
