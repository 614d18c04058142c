package speech

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/unicode/norm"
)

// inline only knows fenced code blocks and inline markup. Announcements
// are prose, so list markers, headings and angle brackets are read as
// written.
var inline = parser.NewParser(
	parser.WithBlockParsers(
		util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
		util.Prioritized(parser.NewParagraphParser(), 1000),
	),
	parser.WithInlineParsers(
		util.Prioritized(parser.NewCodeSpanParser(), 100),
		util.Prioritized(parser.NewLinkParser(), 200),
		util.Prioritized(parser.NewAutoLinkParser(), 300),
		util.Prioritized(parser.NewEmphasisParser(), 500),
	),
	parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
)

// Normalize prepares text for synthesis: emphasis and link markup is
// dropped, fenced code is skipped, entities and escapes are decoded, the
// result is NFC-normalised and runs of whitespace collapse to single
// spaces.
func Normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	reader := text.NewReader([]byte(s))
	doc := inline.Parse(reader)

	var buf strings.Builder
	walk(doc, reader.Source(), &buf)

	return strings.Join(strings.Fields(norm.NFC.String(buf.String())), " ")
}

func walk(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.FencedCodeBlock:
		return

	case *ast.Text:
		buf.Write(decode(n.Segment.Value(source)))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte(' ')
		}
		return

	case *ast.String:
		buf.Write(n.Value)
		return

	case *ast.AutoLink:
		buf.Write(n.Label(source))
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		walk(c, source, buf)
	}

	if node.Type() == ast.TypeBlock {
		buf.WriteByte(' ')
	}
}

func decode(b []byte) []byte {
	return util.ResolveNumericReferences(util.ResolveEntityNames(util.UnescapePunctuations(b)))
}
